package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa del pricer.
type Config struct {
	Pricing     PricingConfig     `yaml:"pricing"`
	Convergence ConvergenceConfig `yaml:"convergence"`
	Storage     StorageConfig     `yaml:"storage"`
	Log         LogConfig         `yaml:"log"`
}

// PricingConfig contiene los defaults que se aplican a cada request.
type PricingConfig struct {
	DefaultSteps      int     `yaml:"default_steps"`      // n cuando la request no trae steps
	RiskFreeRate      float64 `yaml:"risk_free_rate"`     // r cuando la request no trae rate
	StrictProbability bool    `yaml:"strict_probability"` // rechazar p fuera de [0, 1]
	Workers           int     `yaml:"workers"`            // <= 0 → NumCPU×2
}

// ConvergenceConfig controla el informe de convergencia por número de pasos.
type ConvergenceConfig struct {
	FromSteps int `yaml:"from_steps"`
	ToSteps   int `yaml:"to_steps"`
	Window    int `yaml:"window"`
}

// StorageConfig controla dónde se persisten las quotes.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Los valores del .env sobreescriben los del YAML para las keys que correspondan.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}
	setDefaults(&cfg)

	return &cfg, nil
}

// Default devuelve la configuración sin archivo: solo env y defaults.
func Default() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}
	setDefaults(&cfg)
	return &cfg, nil
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("CRR_DB"); v != "" {
		cfg.Storage.DSN = v
	}
	if v := os.Getenv("CRR_STEPS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config.Load: CRR_STEPS %q: %w", v, err)
		}
		cfg.Pricing.DefaultSteps = n
	}
	if v := os.Getenv("CRR_RATE"); v != "" {
		r, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("config.Load: CRR_RATE %q: %w", v, err)
		}
		cfg.Pricing.RiskFreeRate = r
	}
	return nil
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
// RiskFreeRate no tiene default: 0 y negativos son tasas válidas.
func setDefaults(cfg *Config) {
	if cfg.Pricing.DefaultSteps <= 0 {
		cfg.Pricing.DefaultSteps = 500
	}
	if cfg.Convergence.FromSteps <= 0 {
		cfg.Convergence.FromSteps = 10
	}
	if cfg.Convergence.ToSteps < cfg.Convergence.FromSteps {
		cfg.Convergence.ToSteps = cfg.Convergence.FromSteps + 190
	}
	if cfg.Convergence.Window <= 0 {
		cfg.Convergence.Window = 20
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "crrpricer.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
