package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/alejandrodnm/crrpricer/internal/application/pricer"
	"github.com/alejandrodnm/crrpricer/internal/ports"
)

type batchFiles interface {
	ports.RequestSource
	ports.QuoteSink
}

func runBatch(ctx context.Context, svc *pricer.Service, files batchFiles, in, out string) {
	slog.Info("=== BATCH MODE ===", "input", in, "output", out)

	reqs, err := files.ReadRequests(in)
	if err != nil {
		slog.Error("failed to read batch", "err", err)
		os.Exit(1)
	}
	if len(reqs) == 0 {
		slog.Warn("batch file has no rows", "input", in)
		return
	}

	quotes, err := svc.PriceBatch(ctx, reqs)
	if err != nil {
		slog.Error("batch failed", "err", err)
		os.Exit(1)
	}

	if out != "" {
		if err := files.WriteQuotes(out, quotes); err != nil {
			slog.Error("export failed", "err", err, "path", out)
			os.Exit(1)
		}
		slog.Info("quotes exported", "path", out, "rows", len(quotes))
	}
}
