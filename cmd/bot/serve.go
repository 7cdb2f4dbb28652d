package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"weekly_scheduler_bot/internal/infra/config"
	"weekly_scheduler_bot/internal/infra/logger"
	"weekly_scheduler_bot/internal/infra/scheduler"
)

func newServeCommand(cfg *config.AppConfig) *cobra.Command {
	var runNow bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run invocations on a cron schedule until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := wire(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer d.Close()

			log := logger.Component("scheduler")
			s := scheduler.NewCycleScheduler(d.service, log, cfg.ServeCronSpec, cfg.Location, cfg.RunTimeout)
			if runNow {
				s.Tick()
			}
			if err := s.Start(); err != nil {
				return err
			}

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			<-quit

			log.Info("Shutting down...")
			s.Stop()
			return nil
		},
	}

	cmd.Flags().BoolVar(&runNow, "now", false, "run one invocation immediately before the first tick")
	return cmd
}
