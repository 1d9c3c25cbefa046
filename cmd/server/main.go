package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/Miura55/freee-labor-bot/internal/server/app"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)
	application, err := app.New(context.Background(), version, buildDate, logger)
	if err != nil {
		logger.Error("failed to init server", "err", err)
		os.Exit(1)
	}
	if err := application.Run(); err != nil {
		logger.Error("server stopped with error", "err", err)
		os.Exit(1)
	}
}
