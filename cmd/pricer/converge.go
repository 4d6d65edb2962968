package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/alejandrodnm/crrpricer/config"
	"github.com/alejandrodnm/crrpricer/internal/application/pricer"
	"github.com/alejandrodnm/crrpricer/internal/domain"
)

func runConverge(ctx context.Context, svc *pricer.Service, req domain.PricingRequest, rng string, window int, cfg config.ConvergenceConfig) {
	from, to, err := parseStepsRange(rng, cfg)
	if err != nil {
		slog.Error("invalid -converge", "err", err)
		os.Exit(2)
	}
	if window <= 0 {
		window = cfg.Window
	}

	slog.Info("=== CONVERGENCE MODE ===", "from", from, "to", to, "window", window)

	if _, err := svc.Converge(ctx, req, from, to, window); err != nil {
		slog.Error("convergence failed", "err", err)
		os.Exit(1)
	}
}

// parseStepsRange acepta "from:to" o "config".
func parseStepsRange(rng string, cfg config.ConvergenceConfig) (from, to int, err error) {
	if rng == "config" {
		return cfg.FromSteps, cfg.ToSteps, nil
	}
	lo, hi, ok := strings.Cut(rng, ":")
	if !ok {
		return 0, 0, fmt.Errorf("range %q: want from:to", rng)
	}
	if from, err = strconv.Atoi(strings.TrimSpace(lo)); err != nil {
		return 0, 0, fmt.Errorf("range %q: from: %w", rng, err)
	}
	if to, err = strconv.Atoi(strings.TrimSpace(hi)); err != nil {
		return 0, 0, fmt.Errorf("range %q: to: %w", rng, err)
	}
	return from, to, nil
}
