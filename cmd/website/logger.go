package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/adampresley/galleria/cmd/website/internal/configuration"
)

func setupLogger(config *configuration.Config, version string) {
	var (
		level   slog.Level
		handler slog.Handler
	)

	switch strings.ToLower(config.LogLevel) {
	case "debug":
		level = slog.LevelDebug

	case "warn":
		level = slog.LevelWarn

	case "error":
		level = slog.LevelError

	default:
		level = slog.LevelInfo
	}

	if version == "development" {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}

	slog.SetDefault(slog.New(handler))
}
