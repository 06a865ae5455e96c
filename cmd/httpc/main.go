package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samvad-hq/samvad-http-client/internal/app"
	"github.com/samvad-hq/samvad-http-client/internal/config"
	"github.com/samvad-hq/samvad-http-client/internal/logger"
	"github.com/samvad-hq/samvad-http-client/pkg/httpclient"
	"github.com/spf13/pflag"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		report(err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cmd, err := parseArgs(args, os.Stderr)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.Init(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	logger.DebugObj("httpc starting", "config", cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner, err := app.NewRunner(ctx, cfg, logger.NewZapLogger(log), os.Stdout)
	if err != nil {
		logger.ErrorObj("failed to initialize runner", "error", err.Error())
		return err
	}
	defer runner.Close()

	return runner.Execute(ctx, cmd)
}

// report prints status errors as JSON so scripts can parse them.
func report(err error) {
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	var se *httpclient.StatusError
	if errors.As(err, &se) {
		enc := json.NewEncoder(os.Stderr)
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(se); encErr == nil {
			return
		}
	}
	fmt.Fprintf(os.Stderr, "httpc: %v\n", err)
}
