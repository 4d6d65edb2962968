package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alejandrodnm/crrpricer/config"
	"github.com/alejandrodnm/crrpricer/internal/adapters/csvfile"
	"github.com/alejandrodnm/crrpricer/internal/adapters/notify"
	"github.com/alejandrodnm/crrpricer/internal/adapters/storage"
	"github.com/alejandrodnm/crrpricer/internal/application/pricer"
	"github.com/alejandrodnm/crrpricer/internal/domain"
	"github.com/alejandrodnm/crrpricer/internal/ports"
)

const defaultConfigPath = "config/config.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to config file")
	kind := flag.String("kind", "put", "option kind: call|put")
	spot := flag.Float64("spot", 0, "initial underlying price S0")
	strike := flag.Float64("strike", 0, "strike price K")
	rate := flag.Float64("rate", math.NaN(), "continuously compounded risk-free rate (default: config)")
	maturity := flag.Float64("maturity", 1, "time to maturity in years")
	sigma := flag.Float64("sigma", 0, "annualized volatility")
	steps := flag.Int("steps", 0, "lattice steps (default: config)")
	batch := flag.String("batch", "", "price every row of a CSV file")
	out := flag.String("out", "", "write quotes to a CSV file")
	converge := flag.String("converge", "", "convergence report over a steps range, e.g. 10:200 (\"config\" uses config range)")
	window := flag.Int("window", 0, "convergence stats window (default: config)")
	history := flag.Duration("history", 0, "print quotes stored in the last duration and exit")
	noStore := flag.Bool("no-store", false, "do not persist quotes")
	strict := flag.Bool("strict", false, "reject risk-neutral probabilities outside [0,1]")
	table := flag.Bool("table", false, "print full table (default: compact 1-line)")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	if *strict {
		cfg.Pricing.StrictProbability = true
	}
	setupLogger(cfg.Log)

	slog.Info("crrpricer starting",
		"config", *configPath,
		"default_steps", cfg.Pricing.DefaultSteps,
		"strict", cfg.Pricing.StrictProbability,
		"batch", *batch,
		"converge", *converge,
	)

	var store ports.QuoteStorage
	if !*noStore {
		db, err := storage.NewSQLiteStorage(cfg.Storage.DSN)
		if err != nil {
			slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
			os.Exit(1)
		}
		defer db.Close()
		store = db
	}

	notifier := notify.NewConsole(*table || *batch != "" || *history > 0)
	svc := pricer.New(pricer.Config{
		DefaultSteps:      cfg.Pricing.DefaultSteps,
		StrictProbability: cfg.Pricing.StrictProbability,
		Workers:           cfg.Pricing.Workers,
	}, store, notifier)
	files := csvfile.New()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	switch {
	case *history > 0:
		now := time.Now()
		if _, err := svc.History(ctx, now.Add(-*history), now); err != nil {
			slog.Error("history failed", "err", err)
			os.Exit(1)
		}
		return
	case *batch != "":
		runBatch(ctx, svc, files, *batch, *out)
		return
	}

	kindValue, err := domain.ParseOptionKind(*kind)
	if err != nil {
		slog.Error("invalid option kind", "err", err)
		os.Exit(2)
	}
	r := *rate
	if math.IsNaN(r) {
		r = cfg.Pricing.RiskFreeRate
	}
	req := domain.PricingRequest{
		Label:      "cli",
		Kind:       kindValue,
		Spot:       *spot,
		Strike:     *strike,
		Rate:       r,
		Maturity:   *maturity,
		Volatility: *sigma,
		Steps:      *steps,
	}

	if *converge != "" {
		runConverge(ctx, svc, req, *converge, *window, cfg.Convergence)
		return
	}

	q, err := svc.Price(ctx, req)
	if err != nil {
		slog.Error("pricing failed", "err", err)
		os.Exit(1)
	}
	if *out != "" {
		if err := files.WriteQuotes(*out, []domain.Quote{q}); err != nil {
			slog.Error("export failed", "err", err, "path", *out)
			os.Exit(1)
		}
	}
}

// loadConfig carga el YAML; si el archivo por defecto no existe usa solo env y defaults.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil && path == defaultConfigPath && errors.Is(err, fs.ErrNotExist) {
		return config.Default()
	}
	return cfg, err
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}
