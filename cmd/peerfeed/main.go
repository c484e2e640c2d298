package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"

	"peerfeed/internal/app"
	"peerfeed/internal/config"
	"peerfeed/internal/logging"
)

func main() {
	// Optional .env file; absence is fine.
	_ = godotenv.Load()

	ctx := context.Background()
	cfg := config.Load()

	// A single positional argument overrides the CrossRef courtesy contact.
	if len(os.Args) > 1 && os.Args[1] != "" {
		cfg.CrossRef.Mailto = os.Args[1]
	}

	logger := logging.New(cfg.Logging.Level)

	application := app.New(cfg, logger)

	if err := application.Run(ctx); err != nil {
		logger.Error("run failed", "error", err)
		os.Exit(1)
	}
}
