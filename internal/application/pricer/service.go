package pricer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/crrpricer/internal/domain"
	"github.com/alejandrodnm/crrpricer/internal/ports"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// Config contiene la configuración del servicio de pricing.
type Config struct {
	DefaultSteps      int  // n para requests sin steps
	StrictProbability bool // p fuera de [0, 1] → ErrInvalidParameter
	Workers           int  // goroutines para lotes (0 = NumCPU*2)
}

// Service orquesta la valoración, la persistencia y la notificación.
// storage y notifier pueden ser nil.
type Service struct {
	cfg      Config
	storage  ports.QuoteStorage
	notifier ports.Notifier

	// anomalyLog limita los warnings de p fuera de rango en lotes grandes.
	anomalyLog *rate.Sometimes
	now        func() time.Time
}

// New crea un Service con todas las dependencias inyectadas.
func New(cfg Config, storage ports.QuoteStorage, notifier ports.Notifier) *Service {
	if cfg.DefaultSteps <= 0 {
		cfg.DefaultSteps = 500
	}
	return &Service{
		cfg:        cfg,
		storage:    storage,
		notifier:   notifier,
		anomalyLog: &rate.Sometimes{First: 5, Interval: 5 * time.Second},
		now:        time.Now,
	}
}

// Price valora una sola request. Con parámetros inválidos devuelve el error
// y no persiste ni notifica nada.
func (s *Service) Price(ctx context.Context, req domain.PricingRequest) (domain.Quote, error) {
	if err := ctx.Err(); err != nil {
		return domain.Quote{}, err
	}

	q := s.value(req)
	if q.Err != nil {
		return q, fmt.Errorf("pricer.Price: %w", q.Err)
	}
	if !q.ProbabilityInRange {
		slog.Warn("risk-neutral probability out of range, value is not economically meaningful",
			"label", q.Request.Label,
			"p", q.Probability,
			"err", domain.ErrNumericAnomaly,
		)
	}

	slog.Debug("option priced",
		"id", q.ID,
		"kind", q.Request.Kind,
		"steps", q.Request.Steps,
		"value", q.Value,
		"early_exercise_nodes", q.EarlyExerciseNodes,
	)

	s.persist(ctx, []domain.Quote{q})
	s.notify(ctx, []domain.Quote{q})
	return q, nil
}

// PriceBatch valora un lote en paralelo. El resultado respeta el orden de reqs;
// las filas inválidas llevan su error en Quote.Err y no cortan el lote.
// Solo devuelve error si el contexto se cancela.
func (s *Service) PriceBatch(ctx context.Context, reqs []domain.PricingRequest) ([]domain.Quote, error) {
	start := time.Now()

	quotes, err := priceConcurrent(ctx, s.valueThrottled, reqs, s.cfg.Workers)
	if err != nil {
		return nil, fmt.Errorf("pricer.PriceBatch: %w", err)
	}

	var failed, anomalies int
	for _, q := range quotes {
		switch {
		case q.Err != nil:
			failed++
			slog.Debug("request rejected", "label", q.Request.Label, "err", q.Err)
		case !q.ProbabilityInRange:
			anomalies++
		}
	}

	slog.Info("batch priced",
		"requests", len(reqs),
		"failed", failed,
		"anomalies", anomalies,
		"duration", time.Since(start).Round(time.Millisecond),
	)

	s.persist(ctx, quotes)
	s.notify(ctx, quotes)
	return quotes, nil
}

// Converge genera el informe de convergencia para steps en [from, to].
func (s *Service) Converge(ctx context.Context, req domain.PricingRequest, from, to, window int) (domain.ConvergenceReport, error) {
	if err := ctx.Err(); err != nil {
		return domain.ConvergenceReport{}, err
	}

	report, err := domain.Convergence(ctx, req.Params(s.cfg.StrictProbability), from, to, window)
	if err != nil {
		return domain.ConvergenceReport{}, fmt.Errorf("pricer.Converge: %w", err)
	}

	slog.Info("convergence computed",
		"kind", req.Kind,
		"from", from,
		"to", to,
		"mean", report.Mean,
		"stddev", report.StdDev,
		"smoothed", report.Smoothed,
	)

	if s.notifier != nil {
		if err := s.notifier.NotifyConvergence(ctx, req, report); err != nil {
			slog.Warn("notifier error", "err", err)
		}
	}
	return report, nil
}

// History devuelve las quotes persistidas en el rango dado.
func (s *Service) History(ctx context.Context, from, to time.Time) ([]domain.Quote, error) {
	if s.storage == nil {
		return nil, fmt.Errorf("pricer.History: no storage configured")
	}
	quotes, err := s.storage.GetHistory(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("pricer.History: %w", err)
	}
	s.notify(ctx, quotes)
	return quotes, nil
}

// value aplica defaults, valora y arma la quote. Nunca hace panic ni loggea errores.
func (s *Service) value(req domain.PricingRequest) domain.Quote {
	id := uuid.NewString()
	at := s.now().UTC()
	if req.Invalid != nil {
		return domain.Quote{ID: id, Request: req, PricedAt: at, Err: req.Invalid}
	}

	if req.Steps <= 0 {
		req.Steps = s.cfg.DefaultSteps
	}

	v, err := domain.Valuate(req.Params(s.cfg.StrictProbability))
	if err != nil {
		return domain.Quote{ID: id, Request: req, PricedAt: at, Err: err}
	}
	return domain.NewQuote(id, req, v, at)
}

// valueThrottled es value con el warning de anomalía limitado por anomalyLog.
func (s *Service) valueThrottled(req domain.PricingRequest) domain.Quote {
	q := s.value(req)
	if q.Err == nil && !q.ProbabilityInRange {
		s.anomalyLog.Do(func() {
			slog.Warn("risk-neutral probability out of range, value is not economically meaningful",
				"label", q.Request.Label,
				"p", q.Probability,
				"err", domain.ErrNumericAnomaly,
			)
		})
	}
	return q
}

func (s *Service) persist(ctx context.Context, quotes []domain.Quote) {
	if s.storage == nil {
		return
	}
	if err := s.storage.SaveQuotes(ctx, quotes); err != nil {
		slog.Warn("storage error", "err", err)
	}
}

func (s *Service) notify(ctx context.Context, quotes []domain.Quote) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, quotes); err != nil {
		slog.Warn("notifier error", "err", err)
	}
}
