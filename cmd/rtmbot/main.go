package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/w8kerr/rtmbot/internal/app"
)

func main() {
	backfill := flag.String("backfill", "", "fetch the full transcript of the given conversation and exit")
	flag.Parse()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	application, err := app.New(configPath)
	if err != nil {
		slog.Error("failed to start rtmbot", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *backfill != "" {
		lines, err := application.Backfill(ctx, *backfill)
		for _, line := range lines {
			fmt.Println(line)
		}
		if err != nil {
			slog.Error("backfill incomplete", "conversation", *backfill, "error", err)
			os.Exit(1)
		}
		return
	}

	if err := application.Start(ctx); err != nil {
		slog.Error("session ended with error", "error", err)
		_ = application.Shutdown()
		os.Exit(1)
	}

	if err := application.Shutdown(); err != nil {
		os.Exit(1)
	}
}
