package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"grimoire/internal/daemon"
)

func newDaemonCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Run the background engine in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(func(a *app) error {
				runCtx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
				defer cancel()

				d, err := daemon.New(a.cfg, a.engine, a.loader, a.logger)
				if err != nil {
					return err
				}
				if err := d.Start(runCtx); err != nil {
					return err
				}
				defer d.Stop()

				fmt.Fprintln(cmd.OutOrStdout(), "grimoire daemon running; press Ctrl-C to stop")
				<-runCtx.Done()
				return nil
			})
		},
	}
}
