package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/muurk/bobil/internal/tui"
)

func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Live heater dashboard",
		Long: `Open a full-screen dashboard that polls the heater and lets you switch
circuits and step the target temperature from the keyboard.

Press ? inside the dashboard for the key bindings.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.stack()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			ctx, cancel := context.WithCancel(ctx)
			defer cancel()

			// Subscribe before polling starts so the first snapshot is seen
			m := tui.New(ctx, st.client.Host, st.coordinator, st.controller)
			go st.coordinator.Run(ctx, a.cfg.Device.PollInterval.Std())

			return tui.Run(ctx, m)
		},
	}
}
