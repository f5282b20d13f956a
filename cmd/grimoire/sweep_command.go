package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSweepCommand(ctx *commandContext) *cobra.Command {
	var ttlDays int

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Evict expired search-cache rows",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(func(a *app) error {
				days := ttlDays
				if days < 0 {
					days = a.cfg.Eviction.TTLDays
				}
				deleted, err := a.engine.Sweep(cmd.Context(), days)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Evicted %d rows older than %d days.\n", deleted, days)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&ttlDays, "ttl-days", -1, "Override the configured cache TTL in days")
	return cmd
}
