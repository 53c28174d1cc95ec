package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"iedb-epitope-parser/internal/report"
)

// SignalContext returns a context cancelled on SIGINT/SIGTERM so an
// interrupted run still writes the rows collected so far.
func SignalContext(reporter *report.Reporter) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		reporter.Info("shutdown signal received", "signal", sig.String())
		cancel()
	}()

	return ctx, cancel
}
