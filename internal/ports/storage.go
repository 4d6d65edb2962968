package ports

import (
	"context"
	"time"

	"github.com/alejandrodnm/crrpricer/internal/domain"
)

// QuoteStorage persiste las quotes valoradas.
type QuoteStorage interface {
	// SaveQuotes persiste las quotes correctas; las que tienen Err se ignoran.
	SaveQuotes(ctx context.Context, quotes []domain.Quote) error

	// GetHistory devuelve las quotes valoradas en el rango dado, más recientes primero.
	GetHistory(ctx context.Context, from, to time.Time) ([]domain.Quote, error)

	// Close cierra la conexión a la base de datos limpiamente.
	Close() error
}
