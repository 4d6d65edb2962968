package ports

import "github.com/alejandrodnm/crrpricer/internal/domain"

// RequestSource lee un lote de requests, p. ej. un archivo CSV.
type RequestSource interface {
	ReadRequests(path string) ([]domain.PricingRequest, error)
}

// QuoteSink exporta quotes valoradas.
type QuoteSink interface {
	WriteQuotes(path string, quotes []domain.Quote) error
}
