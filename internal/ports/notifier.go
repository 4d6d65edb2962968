package ports

import (
	"context"

	"github.com/alejandrodnm/crrpricer/internal/domain"
)

// Notifier presenta los resultados al usuario.
type Notifier interface {
	// Notify muestra las quotes en el orden recibido.
	Notify(ctx context.Context, quotes []domain.Quote) error

	// NotifyConvergence muestra el informe de convergencia de un contrato.
	NotifyConvergence(ctx context.Context, req domain.PricingRequest, report domain.ConvergenceReport) error
}
