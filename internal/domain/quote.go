package domain

import (
	"math"
	"time"
)

// atmBand es la banda relativa alrededor del strike que se considera ATM.
const atmBand = 0.005

// PricingRequest es un contrato a valorar tal como llega de la CLI o de un CSV.
// Steps en cero se completa con el default de configuración.
// Invalid lo completa el lector cuando la fila no se pudo parsear; esa request
// se reporta como quote fallida sin valorarse.
type PricingRequest struct {
	Label      string     `csv:"label" yaml:"label"`
	Kind       OptionKind `csv:"kind" yaml:"kind"`
	Spot       float64    `csv:"spot" yaml:"spot"`
	Strike     float64    `csv:"strike" yaml:"strike"`
	Rate       float64    `csv:"rate" yaml:"rate"`
	Maturity   float64    `csv:"maturity" yaml:"maturity"`
	Volatility float64    `csv:"volatility" yaml:"volatility"`
	Steps      int        `csv:"steps" yaml:"steps"`

	Invalid error `csv:"-" yaml:"-"`
}

// Params convierte la request en PricingParams.
func (r PricingRequest) Params(strict bool) PricingParams {
	return PricingParams{
		LatticeParams: LatticeParams{
			Spot:       r.Spot,
			Maturity:   r.Maturity,
			Volatility: r.Volatility,
			Steps:      r.Steps,
		},
		Kind:              r.Kind,
		Strike:            r.Strike,
		Rate:              r.Rate,
		StrictProbability: strict,
	}
}

// Quote es una request valorada. Si Err no es nil el resto de métricas está vacío.
type Quote struct {
	ID       string
	Request  PricingRequest
	PricedAt time.Time

	Value              float64
	Intrinsic          float64
	Probability        float64
	ProbabilityInRange bool
	EarlyExerciseNodes int

	Err error
}

// NewQuote arma la quote a partir de una valoración correcta.
func NewQuote(id string, req PricingRequest, v Valuation, at time.Time) Quote {
	return Quote{
		ID:                 id,
		Request:            req,
		PricedAt:           at,
		Value:              v.Value,
		Intrinsic:          req.Kind.Exercise(req.Spot, req.Strike),
		Probability:        v.Probability,
		ProbabilityInRange: v.ProbabilityInRange,
		EarlyExerciseNodes: v.EarlyExerciseNodes,
	}
}

// OK devuelve true si la quote se valoró sin error.
func (q Quote) OK() bool {
	return q.Err == nil
}

// TimeValue es Value − Intrinsic, nunca negativo.
func (q Quote) TimeValue() float64 {
	return math.Max(q.Value-q.Intrinsic, 0)
}

// Moneyness devuelve "ITM", "ATM" u "OTM" según spot y strike.
func (q Quote) Moneyness() string {
	s, k := q.Request.Spot, q.Request.Strike
	if k <= 0 {
		return "OTM"
	}
	if math.Abs(s-k)/k <= atmBand {
		return "ATM"
	}
	if q.Request.Kind.Exercise(s, k) > 0 {
		return "ITM"
	}
	return "OTM"
}
