package csvfile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/alejandrodnm/crrpricer/internal/domain"
	"github.com/gocarina/gocsv"
)

// quoteRow es la fila exportada por WriteQuotes.
type quoteRow struct {
	ID         string            `csv:"id"`
	Label      string            `csv:"label"`
	Kind       domain.OptionKind `csv:"kind"`
	Spot       float64           `csv:"spot"`
	Strike     float64           `csv:"strike"`
	Rate       float64           `csv:"rate"`
	Maturity   float64           `csv:"maturity"`
	Volatility float64           `csv:"volatility"`
	Steps      int               `csv:"steps"`
	Value      float64           `csv:"value"`
	Intrinsic  float64           `csv:"intrinsic"`
	TimeValue  float64           `csv:"time_value"`
	Prob       float64           `csv:"probability"`
	ProbOK     bool              `csv:"probability_in_range"`
	EarlyNodes int               `csv:"early_exercise_nodes"`
	PricedAt   string            `csv:"priced_at"`
	Error      string            `csv:"error"`
}

// Files lee requests y escribe quotes en CSV.
// Implementa ports.RequestSource y ports.QuoteSink.
type Files struct{}

// New crea el adaptador CSV.
func New() *Files {
	return &Files{}
}

// ReadRequests carga un lote de requests. El header debe usar los nombres
// de columna de domain.PricingRequest (label, kind, spot, ...).
// Una fila con un campo que no parsea no corta la lectura: se devuelve con
// Invalid apuntando a la línea y columna, envolviendo domain.ErrInvalidParameter.
func (Files) ReadRequests(path string) ([]domain.PricingRequest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("csvfile.ReadRequests: open %q: %w", path, err)
	}
	defer f.Close()

	// línea del archivo → primer error de esa fila
	bad := make(map[int]error)
	keepGoing := func(pe *csv.ParseError) bool {
		if _, seen := bad[pe.Line]; !seen {
			bad[pe.Line] = rowError(pe)
		}
		return true
	}

	var reqs []domain.PricingRequest
	if err := gocsv.UnmarshalFileWithErrorHandler(f, keepGoing, &reqs); err != nil {
		return nil, fmt.Errorf("csvfile.ReadRequests: parse %q: %w", path, err)
	}

	for i := range reqs {
		// +2: header y base 1
		if err, ok := bad[i+2]; ok {
			reqs[i].Invalid = err
		}
	}
	if len(bad) > 0 {
		slog.Warn("csv rows rejected", "path", path, "rows", len(bad))
	}
	return reqs, nil
}

func rowError(pe *csv.ParseError) error {
	if errors.Is(pe.Err, domain.ErrInvalidParameter) {
		return fmt.Errorf("csvfile.ReadRequests: line %d column %d: %w", pe.Line, pe.Column, pe.Err)
	}
	return fmt.Errorf("csvfile.ReadRequests: line %d column %d: %w: %w", pe.Line, pe.Column, pe.Err, domain.ErrInvalidParameter)
}

// WriteQuotes exporta las quotes, incluidas las fallidas con su error.
func (Files) WriteQuotes(path string, quotes []domain.Quote) error {
	rows := make([]quoteRow, 0, len(quotes))
	for _, q := range quotes {
		r := q.Request
		row := quoteRow{
			ID:         q.ID,
			Label:      r.Label,
			Kind:       r.Kind,
			Spot:       r.Spot,
			Strike:     r.Strike,
			Rate:       r.Rate,
			Maturity:   r.Maturity,
			Volatility: r.Volatility,
			Steps:      r.Steps,
			Value:      q.Value,
			Intrinsic:  q.Intrinsic,
			TimeValue:  q.TimeValue(),
			Prob:       q.Probability,
			ProbOK:     q.ProbabilityInRange,
			EarlyNodes: q.EarlyExerciseNodes,
		}
		if !q.PricedAt.IsZero() {
			row.PricedAt = q.PricedAt.UTC().Format(time.RFC3339Nano)
		}
		if q.Err != nil {
			row.Error = q.Err.Error()
		}
		rows = append(rows, row)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("csvfile.WriteQuotes: create %q: %w", path, err)
	}
	defer f.Close()

	if err := gocsv.MarshalFile(&rows, f); err != nil {
		return fmt.Errorf("csvfile.WriteQuotes: write %q: %w", path, err)
	}
	return f.Close()
}
