package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/ChrisMcKee1/azure-ai-foundry-semantic-kernel-tutorial/internal/config"
	"github.com/ChrisMcKee1/azure-ai-foundry-semantic-kernel-tutorial/internal/services"
	"github.com/spf13/pflag"
)

// ErrNoPersistentLedger is returned by cleanup when resources are only
// recorded in memory, where no earlier run could have left them.
var ErrNoPersistentLedger = errors.New("cleanup needs a persistent resource ledger; set REDIS_URL")

func runCleanup(args []string, stdout io.Writer) error {
	flagSet := pflag.NewFlagSet("foundry cleanup", pflag.ContinueOnError)
	if done, err := parseFlags(flagSet, args); done || err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.RedisURL == "" {
		return ErrNoPersistentLedger
	}

	svcs, err := services.InitializeServices(cfg)
	if err != nil {
		return err
	}
	if !svcs.GetLedgerService().Persistent() {
		return errors.Join(
			fmt.Errorf("%w: redis at %s is unreachable", ErrNoPersistentLedger, cfg.RedisURL),
			svcs.Shutdown(context.Background(), nil, nil),
		)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	removed, sweepErr := svcs.GetAgentService().Sweep(ctx)
	fmt.Fprintf(stdout, "Removed %d leftover resources\n", removed)

	if err := svcs.Shutdown(ctx, nil, nil); err != nil && sweepErr == nil {
		return err
	}
	return sweepErr
}
