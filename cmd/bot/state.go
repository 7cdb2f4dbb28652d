package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"weekly_scheduler_bot/internal/domain/cycle"
	"weekly_scheduler_bot/internal/infra/config"
)

func newStateCommand(cfg *config.AppConfig) *cobra.Command {
	var (
		channelID string
		reset     bool
	)

	cmd := &cobra.Command{
		Use:   "state",
		Short: "Print the persisted cycle state as JSON",
		Long: `Print the persisted cycle state as JSON.

The channel is resolved through the chat API unless --channel is given.
With --reset the state is replaced by an idle one before printing.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			d, err := wire(ctx, cfg)
			if err != nil {
				return err
			}
			defer d.Close()

			key := channelID
			if key == "" {
				ch, err := d.chat.FindOrCreateChannel(ctx, cfg.ChannelRef())
				if err != nil {
					return err
				}
				key = ch.ID
			}

			st, err := d.repo.Load(ctx, key)
			switch {
			case errors.Is(err, cycle.ErrStateNotFound):
				st = cycle.NewState()
			case errors.Is(err, cycle.ErrCorruptState) && reset:
				st = cycle.NewState()
			case err != nil:
				return err
			}

			if reset {
				welcomed := st.Welcomed
				st = cycle.NewState()
				st.Welcomed = welcomed
				if err := d.repo.Save(ctx, key, st); err != nil {
					return err
				}
			}

			out, err := json.MarshalIndent(st, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode state: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}

	cmd.Flags().StringVar(&channelID, "channel", "", "channel id to inspect")
	cmd.Flags().BoolVar(&reset, "reset", false, "reset the state to idle")
	return cmd
}
