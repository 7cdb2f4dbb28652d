package main

import (
	"github.com/spf13/cobra"

	"weekly_scheduler_bot/internal/infra/config"
	"weekly_scheduler_bot/internal/infra/logger"
)

func newRootCommand() *cobra.Command {
	cfg := &config.AppConfig{}

	cmd := &cobra.Command{
		Use:   "bot",
		Short: "Weekly schedule coordinator for a chat channel",
		Long: `Posts a weekly availability poll, confirms the first date that reaches
quorum and sends reminders before the event.

Configuration is read from the environment and an optional .env file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load()
			if err != nil {
				return err
			}
			logger.Init(loaded)
			*cfg = *loaded
			return nil
		},
	}

	cmd.AddCommand(newRunCommand(cfg))
	cmd.AddCommand(newServeCommand(cfg))
	cmd.AddCommand(newStateCommand(cfg))
	return cmd
}
