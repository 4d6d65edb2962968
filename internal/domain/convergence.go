package domain

import (
	"context"
	"fmt"

	"github.com/montanaflynn/stats"
)

// ConvergencePoint es el precio obtenido con un número concreto de pasos.
type ConvergencePoint struct {
	Steps int
	Value float64
}

// ConvergenceReport resume cómo se estabiliza el precio al crecer n.
// Los precios CRR oscilan entre n par e impar; Smoothed promedia los dos
// últimos puntos para cancelar esa oscilación.
type ConvergenceReport struct {
	Points   []ConvergencePoint
	Window   int
	Mean     float64 // media de los últimos Window valores
	StdDev   float64 // desviación estándar de los últimos Window valores
	Smoothed float64
}

// Convergence valora el mismo contrato para cada n en [from, to].
// base.Steps se ignora. El costo crece con to³, así que ctx se revisa en cada n.
func Convergence(ctx context.Context, base PricingParams, from, to, window int) (ConvergenceReport, error) {
	if from < 1 || to < from {
		return ConvergenceReport{}, fmt.Errorf("domain.Convergence: steps range [%d, %d]: %w", from, to, ErrInvalidParameter)
	}
	if window < 1 {
		return ConvergenceReport{}, fmt.Errorf("domain.Convergence: window %d: %w", window, ErrInvalidParameter)
	}

	points := make([]ConvergencePoint, 0, to-from+1)
	for n := from; n <= to; n++ {
		if err := ctx.Err(); err != nil {
			return ConvergenceReport{}, fmt.Errorf("domain.Convergence: n=%d: %w", n, err)
		}
		p := base
		p.Steps = n
		value, err := PriceAmerican(p)
		if err != nil {
			return ConvergenceReport{}, fmt.Errorf("domain.Convergence: n=%d: %w", n, err)
		}
		points = append(points, ConvergencePoint{Steps: n, Value: value})
	}

	window = min(window, len(points))
	tail := make(stats.Float64Data, 0, window)
	for _, pt := range points[len(points)-window:] {
		tail = append(tail, pt.Value)
	}

	mean, err := stats.Mean(tail)
	if err != nil {
		return ConvergenceReport{}, fmt.Errorf("domain.Convergence: mean: %w", err)
	}
	sd, err := stats.StandardDeviation(tail)
	if err != nil {
		return ConvergenceReport{}, fmt.Errorf("domain.Convergence: stddev: %w", err)
	}

	smoothed := points[len(points)-1].Value
	if len(points) > 1 {
		smoothed = (smoothed + points[len(points)-2].Value) / 2
	}

	return ConvergenceReport{
		Points:   points,
		Window:   window,
		Mean:     mean,
		StdDev:   sd,
		Smoothed: smoothed,
	}, nil
}
