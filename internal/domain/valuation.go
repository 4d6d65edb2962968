package domain

import (
	"fmt"
	"math"
)

// Valuation es el resultado de una valoración más los parámetros derivados
// del árbol, útiles para diagnosticar el precio.
type Valuation struct {
	Value       float64 // valor justo en t=0, nodo (0,0)
	Dt          float64
	Up          float64
	Down        float64
	Probability float64 // p risk-neutral, sin recortar
	Discount    float64 // exp(−rΔt)

	// ProbabilityInRange es false cuando p cae fuera de [0, 1]; el valor se
	// calcula igual pero no tiene sentido económico.
	ProbabilityInRange bool

	// EarlyExerciseNodes cuenta los nodos donde ejercer supera estrictamente a mantener.
	EarlyExerciseNodes int
}

// Anomaly devuelve un error que envuelve ErrNumericAnomaly si p está fuera de [0, 1].
func (v Valuation) Anomaly() error {
	if v.ProbabilityInRange {
		return nil
	}
	return fmt.Errorf("domain.Valuation: p=%.6f: %w", v.Probability, ErrNumericAnomaly)
}

// PriceAmerican devuelve el valor en t=0 de una opción americana por CRR.
func PriceAmerican(p PricingParams) (float64, error) {
	v, err := Valuate(p)
	if err != nil {
		return 0, err
	}
	return v.Value, nil
}

// Valuate construye el árbol de precios y aplica inducción hacia atrás con
// comparación de ejercicio anticipado en cada nodo.
//
//	continuación(i, t−1) = e^{−rΔt} · [p·V(i, t) + (1−p)·V(i+1, t)]
//	V(i, t−1)           = max(continuación, ejercicio(S(i, t−1)))
//
// El índice i es el hijo de subida e i+1 el de bajada, igual que en BuildLattice.
func Valuate(p PricingParams) (Valuation, error) {
	prices, v, err := prepare(p)
	if err != nil {
		return Valuation{}, err
	}
	v.Value, v.EarlyExerciseNodes = backwardInduction(prices, p.Kind, p.Strike, v.Probability, v.Discount, true, nil)
	return v, nil
}

// ValueLattice materializa el árbol completo de valores de la opción.
// Los números son idénticos a los de Valuate; solo cambia la memoria usada.
func ValueLattice(p PricingParams) (*Lattice, error) {
	prices, v, err := prepare(p)
	if err != nil {
		return nil, err
	}
	out := newLattice(prices.Steps(), prices.Dt(), prices.Up(), prices.Down())
	backwardInduction(prices, p.Kind, p.Strike, v.Probability, v.Discount, true, out)
	return out, nil
}

// prepare valida todo antes de calcular: no hay resultados parciales.
func prepare(p PricingParams) (*Lattice, Valuation, error) {
	if err := p.Validate(); err != nil {
		return nil, Valuation{}, fmt.Errorf("domain.Valuate: %w", err)
	}

	u, d := p.Factors()
	if u == d {
		return nil, Valuation{}, fmt.Errorf("domain.Valuate: degenerate lattice u == d == %v: %w", u, ErrInvalidParameter)
	}

	dt := p.Dt()
	prob := RiskNeutralProb(p.Rate, dt, u, d)
	v := Valuation{
		Dt:                 dt,
		Up:                 u,
		Down:               d,
		Probability:        prob,
		Discount:           math.Exp(-p.Rate * dt),
		ProbabilityInRange: prob >= 0 && prob <= 1,
	}
	if !v.ProbabilityInRange && p.StrictProbability {
		return nil, Valuation{}, fmt.Errorf("domain.Valuate: p=%.6f: %w: %w", prob, ErrInvalidParameter, ErrNumericAnomaly)
	}

	prices, err := BuildLattice(p.LatticeParams)
	if err != nil {
		return nil, Valuation{}, fmt.Errorf("domain.Valuate: %w", err)
	}
	return prices, v, nil
}

// backwardInduction recorre el árbol de t=n a t=1 sobre una sola columna.
// Escribir v[i] en orden ascendente es seguro porque v[i+1] todavía guarda
// el valor del paso t cuando se lee.
//
// Con earlyExercise=false solo se descuenta la continuación (valor europeo),
// lo que permite comprobar que la americana nunca vale menos.
// Si out no es nil, cada columna se copia allí.
func backwardInduction(prices *Lattice, kind OptionKind, strike, prob, disc float64, earlyExercise bool, out *Lattice) (float64, int) {
	n := prices.Steps()
	v := make([]float64, n+1)
	for i, s := range prices.rows[n] {
		v[i] = kind.Payoff(s, strike)
	}
	if out != nil {
		copy(out.rows[n], v)
	}

	exercised := 0
	for t := n; t >= 1; t-- {
		parent := prices.rows[t-1]
		for i := 0; i < t; i++ {
			hold := disc * (prob*v[i] + (1-prob)*v[i+1])
			if !earlyExercise {
				v[i] = hold
				continue
			}
			exercise := kind.Exercise(parent[i], strike)
			if exercise > hold {
				exercised++
				v[i] = exercise
			} else {
				v[i] = hold
			}
		}
		if out != nil {
			copy(out.rows[t-1], v[:t])
		}
	}
	return v[0], exercised
}
