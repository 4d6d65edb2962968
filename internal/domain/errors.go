package domain

import "errors"

var (
	// ErrInvalidParameter se devuelve antes de calcular nada cuando algún input
	// no cumple S0, K, T, σ > 0, n ≥ 1 o el lattice degenera (u == d).
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrNumericAnomaly marca una probabilidad risk-neutral fuera de [0, 1].
	// Es advisory: solo es fatal en modo estricto.
	ErrNumericAnomaly = errors.New("risk-neutral probability outside [0, 1]")
)
