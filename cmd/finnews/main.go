package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"finnews/internal/app"
	"finnews/internal/config"
	"finnews/internal/logging"
	"finnews/internal/metrics"
)

func main() {
	// Missing .env is fine; keys may come from the real environment.
	_ = godotenv.Load()

	ctx := context.Background()
	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer application.Close()

	// Counters never leave this process, so the pipeline serves its own
	// exposition while the pass runs. Disabled unless an address is set.
	if cfg.Metrics.Addr != "" {
		go func() {
			if err := http.ListenAndServe(cfg.Metrics.Addr, metrics.Handler()); err != nil {
				logger.Error("metrics listener stopped", "error", err)
			}
		}()
	}

	// A failed pass is reported once here; the process still exits
	// normally so an external scheduler simply tries again next tick.
	if err := application.Run(ctx); err != nil {
		logger.Error("an error occurred in the main loop", "error", err)
	}
}
