package domain

import "fmt"

// Lattice es un árbol binomial recombinante guardado como filas irregulares:
// rows[t] tiene t+1 nodos y rows[t][i] es el nodo con i bajadas y t−i subidas.
//
// El mismo tipo sirve para precios del subyacente y para valores de la opción.
type Lattice struct {
	rows [][]float64
	dt   float64
	up   float64
	down float64
}

// BuildLattice construye el árbol de precios CRR a partir de S0, T, σ y n.
//
// En cada paso t el nodo (i, t−1) genera el hijo de subida (i, t) = S·u y el
// de bajada (i+1, t) = S·d. Como d = 1/u, los caminos se recombinan y en t
// hay exactamente t+1 precios distintos.
func BuildLattice(p LatticeParams) (*Lattice, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("domain.BuildLattice: %w", err)
	}

	u, d := p.Factors()
	lat := newLattice(p.Steps, p.Dt(), u, d)
	lat.rows[0][0] = p.Spot

	for t := 1; t <= p.Steps; t++ {
		prev, cur := lat.rows[t-1], lat.rows[t]
		for i := 0; i < t; i++ {
			cur[i] = prev[i] * u
			cur[i+1] = prev[i] * d
		}
	}
	return lat, nil
}

// newLattice reserva n+1 filas en un único arena contiguo.
func newLattice(steps int, dt, u, d float64) *Lattice {
	arena := make([]float64, (steps+1)*(steps+2)/2)
	rows := make([][]float64, steps+1)
	off := 0
	for t := range rows {
		rows[t] = arena[off : off+t+1 : off+t+1]
		off += t + 1
	}
	return &Lattice{rows: rows, dt: dt, up: u, down: d}
}

// Steps devuelve n, el número de pasos temporales.
func (l *Lattice) Steps() int {
	return len(l.rows) - 1
}

// At devuelve el nodo (i, t). Hace panic si i > t o t está fuera del árbol:
// esos nodos no existen y nunca deben leerse.
func (l *Lattice) At(i, t int) float64 {
	if t < 0 || t >= len(l.rows) || i < 0 || i > t {
		panic(fmt.Sprintf("domain.Lattice: node (%d,%d) outside triangle of %d steps", i, t, l.Steps()))
	}
	return l.rows[t][i]
}

// Column devuelve una copia de los t+1 nodos del paso t.
func (l *Lattice) Column(t int) []float64 {
	if t < 0 || t >= len(l.rows) {
		panic(fmt.Sprintf("domain.Lattice: step %d outside lattice of %d steps", t, l.Steps()))
	}
	out := make([]float64, len(l.rows[t]))
	copy(out, l.rows[t])
	return out
}

// Dt devuelve Δt = T/n.
func (l *Lattice) Dt() float64 { return l.dt }

// Up devuelve el factor de subida u.
func (l *Lattice) Up() float64 { return l.up }

// Down devuelve el factor de bajada d.
func (l *Lattice) Down() float64 { return l.down }
