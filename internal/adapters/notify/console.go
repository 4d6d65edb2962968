package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/alejandrodnm/crrpricer/internal/domain"
	"github.com/olekukonko/tablewriter"
)

// Console implementa ports.Notifier.
type Console struct {
	out   io.Writer
	table bool
}

// NewConsole crea un notificador que escribe a stdout.
func NewConsole(table bool) *Console {
	return &Console{out: os.Stdout, table: table}
}

// NewConsoleWriter crea un notificador para tests.
func NewConsoleWriter(w io.Writer, table bool) *Console {
	return &Console{out: w, table: table}
}

// Notify imprime las quotes en el modo configurado.
func (c *Console) Notify(_ context.Context, quotes []domain.Quote) error {
	if len(quotes) == 0 {
		fmt.Fprintf(c.out, "[%s] no quotes\n", time.Now().Format("15:04:05"))
		return nil
	}

	if c.table {
		c.printTable(quotes)
	} else {
		c.printCompact(quotes)
	}
	return nil
}

// NotifyConvergence imprime precio por número de pasos y el resumen estadístico.
func (c *Console) NotifyConvergence(_ context.Context, req domain.PricingRequest, report domain.ConvergenceReport) error {
	fmt.Fprintf(c.out, "\n=== CONVERGENCE %s S0=%g K=%g r=%g T=%g σ=%g ===\n",
		req.Kind, req.Spot, req.Strike, req.Rate, req.Maturity, req.Volatility)

	table := tablewriter.NewWriter(c.out)
	table.Header("n", "Value", "Δ prev")

	prev := 0.0
	for i, pt := range report.Points {
		delta := ""
		if i > 0 {
			delta = fmt.Sprintf("%+.6f", pt.Value-prev)
		}
		table.Append(
			fmt.Sprintf("%d", pt.Steps),
			fmt.Sprintf("%.6f", pt.Value),
			delta,
		)
		prev = pt.Value
	}
	table.Render()

	fmt.Fprintf(c.out, "  last %d: mean %.6f  stddev %.6f  smoothed %.6f\n",
		report.Window, report.Mean, report.StdDev, report.Smoothed)
	return nil
}

// printCompact imprime una línea por quote.
func (c *Console) printCompact(quotes []domain.Quote) {
	for _, q := range quotes {
		name := compactName(quoteLabel(q), 25)
		if !q.OK() {
			fmt.Fprintf(c.out, "%s %s ERROR %v\n", name, q.Request.Kind, q.Err)
			continue
		}
		fmt.Fprintf(c.out, "%s %s %s n=%d value=%.4f intrinsic=%.4f p=%.4f%s\n",
			name, q.Request.Kind, q.Moneyness(), q.Request.Steps,
			q.Value, q.Intrinsic, q.Probability, anomalyFlag(q))
	}
}

// printTable imprime la tabla completa de quotes.
func (c *Console) printTable(quotes []domain.Quote) {
	failed := 0
	for _, q := range quotes {
		if !q.OK() {
			failed++
		}
	}
	fmt.Fprintf(c.out, "\n[%s] %d quotes — ok:%d failed:%d\n",
		time.Now().Format("15:04:05"), len(quotes), len(quotes)-failed, failed)

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Label", "Kind", "S0", "K", "r", "T", "σ", "n", "Value", "Intrinsic", "Time val", "p", "Flag")

	for i, q := range quotes {
		r := q.Request
		row := []any{
			fmt.Sprintf("%d", i+1),
			compactName(quoteLabel(q), 20),
			r.Kind.String(),
			fmt.Sprintf("%.2f", r.Spot),
			fmt.Sprintf("%.2f", r.Strike),
			fmt.Sprintf("%.4f", r.Rate),
			fmt.Sprintf("%.4f", r.Maturity),
			fmt.Sprintf("%.4f", r.Volatility),
			fmt.Sprintf("%d", r.Steps),
		}
		if q.OK() {
			row = append(row,
				fmt.Sprintf("%.6f", q.Value),
				fmt.Sprintf("%.4f", q.Intrinsic),
				fmt.Sprintf("%.4f", q.TimeValue()),
				fmt.Sprintf("%.4f", q.Probability),
				strings.TrimSpace(q.Moneyness()+anomalyFlag(q)),
			)
		} else {
			row = append(row, "-", "-", "-", "-", truncate(q.Err.Error(), 30))
		}
		table.Append(row...)
	}

	table.Render()

	fmt.Fprintln(c.out, "  Value = precio americano CRR | Time val = Value − Intrinsic")
	fmt.Fprintln(c.out, "  p = probabilidad risk-neutral | p! = fuera de [0,1], valor sin sentido económico")
}

// --- helpers ---

func quoteLabel(q domain.Quote) string {
	if q.Request.Label != "" {
		return q.Request.Label
	}
	if len(q.ID) >= 8 {
		return q.ID[:8]
	}
	return q.ID
}

func anomalyFlag(q domain.Quote) string {
	if q.OK() && !q.ProbabilityInRange {
		return " p!"
	}
	return ""
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func compactName(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := s[:maxLen]
	if idx := strings.LastIndex(cut, " "); idx > maxLen/2 {
		cut = cut[:idx]
	}
	return cut + "…"
}
