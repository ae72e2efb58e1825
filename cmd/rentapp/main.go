package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"rentapp/internal/cli"
	"rentapp/internal/config"
	"rentapp/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := logging.New("rentapp", cfg.LogLevel, os.Stderr)

	app := cli.New(cfg, logger)
	rootCmd := app.RootCmd()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = rootCmd.ExecuteContext(ctx)
	stop()
	if closeErr := app.Close(); closeErr != nil {
		logger.WithError(closeErr).Warn("closing storage failed")
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
