package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show index and cache status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(func(a *app) error {
				status, err := a.engine.Status(cmd.Context())
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				for _, line := range renderSectionHeader("Grimoire status", colorize) {
					fmt.Fprintln(out, line)
				}

				indexKind := statusOK
				indexMsg := fmt.Sprintf("%d printings indexed", status.TotalIndexed)
				if !status.IsInitialized {
					indexKind = statusWarn
					indexMsg = fmt.Sprintf("%d of %d printings required", status.TotalIndexed, status.MinCardsRequired)
				}
				fmt.Fprintln(out, renderStatusLine("Search index", indexKind, indexMsg, colorize))
				fmt.Fprintln(out, renderStatusLine("Cached details", statusInfo, fmt.Sprintf("%d rows", status.CachedDetails), colorize))

				bootstrapKind, bootstrapMsg := statusOK, "idle"
				if status.IsBootstrapping {
					bootstrapKind, bootstrapMsg = statusInfo, "running"
				}
				fmt.Fprintln(out, renderStatusLine("Bootstrap", bootstrapKind, bootstrapMsg, colorize))
				fmt.Fprintln(out, renderStatusLine("Database", statusInfo, a.store.Path(), colorize))
				return nil
			})
		},
	}
}
