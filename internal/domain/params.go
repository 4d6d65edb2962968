package domain

import (
	"fmt"
	"math"
)

// LatticeParams son los inputs inmutables del árbol de precios.
type LatticeParams struct {
	Spot       float64 // S0
	Maturity   float64 // T en años
	Volatility float64 // σ anualizada
	Steps      int     // n
}

// Validate devuelve ErrInvalidParameter (envuelto con el campo) si algún input es inválido.
func (p LatticeParams) Validate() error {
	if !positive(p.Spot) {
		return fmt.Errorf("domain.LatticeParams: spot %v: %w", p.Spot, ErrInvalidParameter)
	}
	if !positive(p.Maturity) {
		return fmt.Errorf("domain.LatticeParams: maturity %v: %w", p.Maturity, ErrInvalidParameter)
	}
	if !positive(p.Volatility) {
		return fmt.Errorf("domain.LatticeParams: volatility %v: %w", p.Volatility, ErrInvalidParameter)
	}
	if p.Steps < 1 {
		return fmt.Errorf("domain.LatticeParams: steps %d: %w", p.Steps, ErrInvalidParameter)
	}
	return nil
}

// Dt es la longitud de cada paso: T/n.
func (p LatticeParams) Dt() float64 {
	return p.Maturity / float64(p.Steps)
}

// Factors devuelve los multiplicadores CRR u = exp(σ√Δt) y d = 1/u.
func (p LatticeParams) Factors() (u, d float64) {
	u = math.Exp(p.Volatility * math.Sqrt(p.Dt()))
	return u, 1 / u
}

// PricingParams agrupa todo lo necesario para valorar una opción americana.
type PricingParams struct {
	LatticeParams
	Kind   OptionKind
	Strike float64 // K
	Rate   float64 // r, compuesto continuo

	// StrictProbability rechaza p fuera de [0, 1] en vez de calcular igualmente.
	StrictProbability bool
}

// Validate aplica las reglas del lattice más K > 0, r finito y un kind conocido.
func (p PricingParams) Validate() error {
	if err := p.LatticeParams.Validate(); err != nil {
		return err
	}
	if !positive(p.Strike) {
		return fmt.Errorf("domain.PricingParams: strike %v: %w", p.Strike, ErrInvalidParameter)
	}
	if math.IsNaN(p.Rate) || math.IsInf(p.Rate, 0) {
		return fmt.Errorf("domain.PricingParams: rate %v: %w", p.Rate, ErrInvalidParameter)
	}
	if !p.Kind.Valid() {
		return fmt.Errorf("domain.PricingParams: kind %d: %w", p.Kind, ErrInvalidParameter)
	}
	return nil
}

// RiskNeutralProb calcula p = (exp(rΔt) − d) / (u − d).
// No recorta el resultado: puede quedar fuera de [0, 1] con inputs extremos.
func RiskNeutralProb(r, dt, u, d float64) float64 {
	return (math.Exp(r*dt) - d) / (u - d)
}

// positive es true para valores finitos estrictamente positivos.
func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}
