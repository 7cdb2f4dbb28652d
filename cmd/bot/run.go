package main

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"weekly_scheduler_bot/internal/infra/config"
	"weekly_scheduler_bot/internal/infra/logger"
)

func newRunCommand(cfg *config.AppConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run one scheduling invocation and exit",
		Long: `Run one scheduling invocation and exit.

Meant for an external scheduler (cron, CI) firing every few minutes. The
external scheduler must not start a new invocation while one is running.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := wire(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer d.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.RunTimeout)
			defer cancel()

			out, err := d.service.RunOnce(ctx)
			if err != nil {
				return fmt.Errorf("scheduling run failed: %w", err)
			}
			logger.Component("cli").WithFields(logrus.Fields{
				"run_id":     out.RunID,
				"from":       out.From,
				"to":         out.To,
				"transition": out.Transition,
			}).Info("Run complete")
			return nil
		},
	}
}
