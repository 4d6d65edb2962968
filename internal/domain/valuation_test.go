package domain

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pp(kind OptionKind, spot, strike, rate, maturity, sigma float64, steps int) PricingParams {
	return PricingParams{
		LatticeParams: lp(spot, maturity, sigma, steps),
		Kind:          kind,
		Strike:        strike,
		Rate:          rate,
	}
}

// blackScholes es la referencia europea sin dividendos para los tests de convergencia.
func blackScholes(kind OptionKind, s, k, r, sigma, T float64) float64 {
	cdf := func(x float64) float64 { return 0.5 * (1 + math.Erf(x/math.Sqrt2)) }
	d1 := (math.Log(s/k) + (r+0.5*sigma*sigma)*T) / (sigma * math.Sqrt(T))
	d2 := d1 - sigma*math.Sqrt(T)
	if kind == Call {
		return s*cdf(d1) - k*math.Exp(-r*T)*cdf(d2)
	}
	return k*math.Exp(-r*T)*cdf(-d2) - s*cdf(-d1)
}

func TestPriceAmerican_TwoStepReference(t *testing.T) {
	// S0=100 K=100 r=5% T=1 σ=20% n=2
	call, err := PriceAmerican(pp(Call, 100, 100, 0.05, 1, 0.2, 2))
	require.NoError(t, err)
	assert.InDelta(t, 9.540501338582954, call, 1e-9)

	put, err := PriceAmerican(pp(Put, 100, 100, 0.05, 1, 0.2, 2))
	require.NoError(t, err)
	assert.InDelta(t, 5.7376543770697115, put, 1e-9)
}

func TestPriceAmerican_ThreeStepPut(t *testing.T) {
	put, err := PriceAmerican(pp(Put, 100, 100, 0.05, 1, 0.2, 3))
	require.NoError(t, err)
	assert.InDelta(t, 6.499559886616256, put, 1e-9)
}

func TestPriceAmerican_SinglePeriodFormula(t *testing.T) {
	for _, kind := range []OptionKind{Call, Put} {
		p := pp(kind, 100, 95, 0.03, 0.5, 0.25, 1)
		got, err := PriceAmerican(p)
		require.NoError(t, err)

		u, d := p.Factors()
		prob := RiskNeutralProb(p.Rate, p.Dt(), u, d)
		hold := math.Exp(-p.Rate*p.Dt()) * (prob*kind.Payoff(100*u, 95) + (1-prob)*kind.Payoff(100*d, 95))
		want := math.Max(hold, kind.Exercise(100, 95))
		assert.InDelta(t, want, got, 1e-12, kind.String())
	}
}

func TestPriceAmerican_OneStepHandValues(t *testing.T) {
	put, err := PriceAmerican(pp(Put, 100, 100, 0.05, 1, 0.2, 1))
	require.NoError(t, err)
	assert.InDelta(t, 7.285227414695337, put, 1e-9)

	call, err := PriceAmerican(pp(Call, 100, 100, 0.05, 1, 0.2, 1))
	require.NoError(t, err)
	assert.InDelta(t, 12.162284964623943, call, 1e-9)
}

func TestPriceAmerican_DeepInTheMoneyPutExercisesAtRoot(t *testing.T) {
	// S0 ≪ K: mantener vale ~45.1, ejercer en t=0 vale K−S0 = 50
	v, err := Valuate(pp(Put, 50, 100, 0.05, 1, 0.2, 1))
	require.NoError(t, err)
	assert.InDelta(t, 50, v.Value, 1e-12)
	assert.Equal(t, 1, v.EarlyExerciseNodes)
}

func TestPriceAmerican_AmericanDominatesEuropean(t *testing.T) {
	for _, kind := range []OptionKind{Call, Put} {
		for _, strike := range []float64{70, 100, 130} {
			p := pp(kind, 100, strike, 0.06, 1.5, 0.3, 60)
			american, err := PriceAmerican(p)
			require.NoError(t, err)

			prices, v, err := prepare(p)
			require.NoError(t, err)
			european, nodes := backwardInduction(prices, kind, strike, v.Probability, v.Discount, false, nil)
			assert.Zero(t, nodes)
			assert.GreaterOrEqual(t, american, european-1e-12, "%s K=%v", kind, strike)
		}
	}

	// con r > 0 el put americano ATM vale estrictamente más que el europeo
	p := pp(Put, 100, 100, 0.05, 1, 0.2, 2)
	prices, v, err := prepare(p)
	require.NoError(t, err)
	european, _ := backwardInduction(prices, Put, 100, v.Probability, v.Discount, false, nil)
	assert.InDelta(t, 4.663443788654352, european, 1e-9)
}

func TestValueLattice_Invariants(t *testing.T) {
	for _, kind := range []OptionKind{Call, Put} {
		p := pp(kind, 100, 105, 0.04, 1, 0.25, 40)
		values, err := ValueLattice(p)
		require.NoError(t, err)
		prices, err := BuildLattice(p.LatticeParams)
		require.NoError(t, err)

		for step := 0; step <= 40; step++ {
			for i := 0; i <= step; i++ {
				v := values.At(i, step)
				exercise := kind.Exercise(prices.At(i, step), 105)
				assert.GreaterOrEqual(t, v, 0.0)
				assert.GreaterOrEqual(t, v, exercise, "%s node (%d,%d)", kind, i, step)
				if step == 40 {
					assert.Equal(t, kind.Payoff(prices.At(i, step), 105), v)
				}
			}
		}

		root, err := PriceAmerican(p)
		require.NoError(t, err)
		assert.Equal(t, root, values.At(0, 0))
	}
}

func TestValuate_Diagnostics(t *testing.T) {
	v, err := Valuate(pp(Call, 100, 100, 0.05, 1, 0.2, 2))
	require.NoError(t, err)

	assert.InDelta(t, 0.5, v.Dt, 1e-15)
	assert.InDelta(t, 0.5539082889483392, v.Probability, 1e-12)
	assert.InDelta(t, math.Exp(-0.025), v.Discount, 1e-15)
	assert.True(t, v.ProbabilityInRange)
	assert.NoError(t, v.Anomaly())
	// sin dividendos nunca conviene ejercer un call antes
	assert.Zero(t, v.EarlyExerciseNodes)
}

func TestPriceAmerican_CallMatchesBlackScholes(t *testing.T) {
	// sin dividendos el call americano vale lo mismo que el europeo
	got, err := PriceAmerican(pp(Call, 100, 100, 0.05, 1, 0.2, 500))
	require.NoError(t, err)
	assert.InDelta(t, 10.446585136446453, got, 1e-8)
	assert.InDelta(t, blackScholes(Call, 100, 100, 0.05, 0.2, 1), got, 0.01)
}

func TestPriceAmerican_PutAboveBlackScholes(t *testing.T) {
	got, err := PriceAmerican(pp(Put, 100, 100, 0.05, 1, 0.2, 500))
	require.NoError(t, err)
	assert.InDelta(t, 6.088810110703069, got, 1e-8)
	assert.Greater(t, got, blackScholes(Put, 100, 100, 0.05, 0.2, 1))
}

func TestPriceAmerican_TinyStrikeCallConvergesToSpot(t *testing.T) {
	got, err := PriceAmerican(pp(Call, 100, 1e-9, 0.05, 1, 0.2, 200))
	require.NoError(t, err)
	assert.InDelta(t, 100, got, 1e-6)
}

func TestPriceAmerican_InvalidParameters(t *testing.T) {
	cases := map[string]PricingParams{
		"zero strike":   pp(Call, 100, 0, 0.05, 1, 0.2, 10),
		"neg strike":    pp(Put, 100, -1, 0.05, 1, 0.2, 10),
		"zero spot":     pp(Call, 0, 100, 0.05, 1, 0.2, 10),
		"zero maturity": pp(Call, 100, 100, 0.05, 0, 0.2, 10),
		"zero sigma":    pp(Put, 100, 100, 0.05, 1, 0, 10),
		"zero steps":    pp(Put, 100, 100, 0.05, 1, 0.2, 0),
		"nan rate":      pp(Put, 100, 100, math.NaN(), 1, 0.2, 10),
		"unknown kind":  pp(OptionKind(0), 100, 100, 0.05, 1, 0.2, 10),
		"u equals d":    pp(Call, 100, 100, 0.05, 1, 1e-300, 10),
	}
	for name, p := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := PriceAmerican(p)
			assert.True(t, errors.Is(err, ErrInvalidParameter), "got %v", err)
		})
	}
}

func TestValuate_ProbabilityOutOfRange(t *testing.T) {
	// r muy alto con σ muy bajo: exp(rΔt) > u, p > 1
	p := pp(Call, 100, 100, 2.0, 1, 0.01, 1)

	v, err := Valuate(p)
	require.NoError(t, err)
	assert.False(t, v.ProbabilityInRange)
	assert.Greater(t, v.Probability, 1.0)
	assert.InDelta(t, 43.51706729371998, v.Value, 1e-8)
	assert.True(t, errors.Is(v.Anomaly(), ErrNumericAnomaly))

	p.StrictProbability = true
	_, err = Valuate(p)
	assert.True(t, errors.Is(err, ErrInvalidParameter))
	assert.True(t, errors.Is(err, ErrNumericAnomaly))
}

func TestValuate_Deterministic(t *testing.T) {
	p := pp(Put, 36, 40, 0.06, 1, 0.2, 300)
	first, err := Valuate(p)
	require.NoError(t, err)
	second, err := Valuate(p)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
