package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/bizledger/bizledger/cmd/bizledger/cli"
	"github.com/bizledger/bizledger/internal/app"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCommand().ExecuteContext(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Default().Error("bizledger", slog.Any("error", err))
		stop()
		os.Exit(1)
	}
}
