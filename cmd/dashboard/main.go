package main

import (
	"os"

	"github.com/joho/godotenv"

	"finnews/internal/config"
	"finnews/internal/dashboard"
	"finnews/internal/infrastructure/storage"
	"finnews/internal/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	store, err := storage.Open(cfg.Database.Path)
	if err != nil {
		logger.Error("open store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	server := dashboard.NewServer(store)
	logger.Info("dashboard listening", "addr", cfg.Dashboard.Addr)

	if err := server.Router().Run(cfg.Dashboard.Addr); err != nil {
		logger.Error("dashboard stopped", "error", err)
		os.Exit(1)
	}
}
