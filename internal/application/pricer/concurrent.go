package pricer

// concurrent.go — worker pool para valorar lotes de contratos.
//
// Cada valoración reserva su propio árbol, así que los workers no comparten
// estado mutable. Dentro de un árbol no hay paralelismo: el paso t depende
// del paso t+1 completo.

import (
	"context"
	"log/slog"
	"runtime"
	"sync"

	"github.com/alejandrodnm/crrpricer/internal/domain"
)

// priceConcurrent aplica price a cada request usando un worker pool.
// Las quotes vuelven en el mismo orden que reqs.
//
// Si workers <= 0 usa runtime.NumCPU() × 2.
func priceConcurrent(
	ctx context.Context,
	price func(domain.PricingRequest) domain.Quote,
	reqs []domain.PricingRequest,
	workers int,
) ([]domain.Quote, error) {
	if len(reqs) == 0 {
		return nil, ctx.Err()
	}
	if workers <= 0 {
		workers = runtime.NumCPU() * 2
	}
	workers = min(workers, len(reqs))

	type work struct {
		idx int
		req domain.PricingRequest
	}
	type result struct {
		idx   int
		quote domain.Quote
	}

	workCh := make(chan work)
	resultCh := make(chan result, len(reqs))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for w := range workCh {
				if ctx.Err() != nil {
					continue
				}
				resultCh <- result{idx: w.idx, quote: price(w.req)}
			}
		}()
	}

	queued := 0
feed:
	for i, req := range reqs {
		select {
		case <-ctx.Done():
			break feed
		case workCh <- work{idx: i, req: req}:
			queued++
		}
	}
	close(workCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	quotes := make([]domain.Quote, len(reqs))
	for r := range resultCh {
		quotes[r.idx] = r.quote
	}

	if err := ctx.Err(); err != nil {
		slog.Debug("batch cancelled", "queued", queued, "total", len(reqs))
		return nil, err
	}

	slog.Debug("concurrent pricing complete",
		"requests", queued,
		"workers", workers,
	)
	return quotes, nil
}
