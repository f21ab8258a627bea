package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/smart-life-tech/card-sorter/internal/capture"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the sorter loop against the frame spool directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			logger, err := buildLogger(cfg, true)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			lock := flock.New(cfg.Paths.LockFile)
			ok, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire lock: %w", err)
			}
			if !ok {
				return errors.New("another card-sorter instance is already running")
			}
			defer lock.Unlock()

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			source := capture.NewDirectorySource(cfg.Paths.SpoolDir, 0)
			app, err := buildApp(cfg, logger, source)
			if err != nil {
				return err
			}
			defer app.Close()

			go purgeQuotes(signalCtx, app)

			logger.Info("card-sorter started",
				"spool", cfg.Paths.SpoolDir,
				"mode", app.state.Snapshot().Mode,
				"actuator", cfg.Actuator.Enabled)

			if err := app.worker.Run(signalCtx); err != nil {
				return err
			}
			logger.Info("card-sorter shutting down")
			return nil
		},
	}
}

// purgeQuotes drops expired price quotes periodically so a long run
// does not accumulate stale cache entries.
func purgeQuotes(ctx context.Context, app *app) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := app.pricer.PurgeExpired(); n > 0 {
				app.logger.Debug("purged expired quotes", "removed", n, "cached", app.pricer.CacheLen())
			}
		}
	}
}
