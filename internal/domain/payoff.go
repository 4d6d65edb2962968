package domain

import (
	"fmt"
	"math"
	"strings"
)

// OptionKind es el tipo de payoff: Call o Put.
// La inducción hacia atrás es la misma para ambos; solo cambian Payoff y Exercise.
type OptionKind int

const (
	Call OptionKind = iota + 1
	Put
)

// Payoff es el valor al vencimiento dado el precio s y el strike k.
func (k OptionKind) Payoff(s, strike float64) float64 {
	switch k {
	case Call:
		return math.Max(s-strike, 0)
	case Put:
		return math.Max(strike-s, 0)
	}
	return 0
}

// Exercise es el valor de ejercer inmediatamente en un nodo intermedio.
// Para opciones vanilla coincide con el payoff terminal.
func (k OptionKind) Exercise(s, strike float64) float64 {
	return k.Payoff(s, strike)
}

// Valid devuelve true para Call y Put.
func (k OptionKind) Valid() bool {
	return k == Call || k == Put
}

// String devuelve "call", "put" o "unknown".
func (k OptionKind) String() string {
	switch k {
	case Call:
		return "call"
	case Put:
		return "put"
	}
	return "unknown"
}

// ParseOptionKind acepta "call"/"c" y "put"/"p" sin distinguir mayúsculas.
func ParseOptionKind(s string) (OptionKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "call", "c":
		return Call, nil
	case "put", "p":
		return Put, nil
	}
	return 0, fmt.Errorf("domain.ParseOptionKind: %q: %w", s, ErrInvalidParameter)
}

// MarshalText permite usar OptionKind en YAML.
func (k OptionKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText es el inverso de MarshalText.
func (k *OptionKind) UnmarshalText(text []byte) error {
	parsed, err := ParseOptionKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// MarshalCSV y UnmarshalCSV implementan los marshallers de gocsv.
func (k OptionKind) MarshalCSV() (string, error) {
	return k.String(), nil
}

func (k *OptionKind) UnmarshalCSV(s string) error {
	return k.UnmarshalText([]byte(s))
}
