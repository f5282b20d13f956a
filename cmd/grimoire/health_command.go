package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Run catalog database diagnostics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(func(a *app) error {
				health := a.engine.Health(cmd.Context())

				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				for _, line := range renderSectionHeader("Database health", colorize) {
					fmt.Fprintln(out, line)
				}
				fmt.Fprintln(out, renderStatusLine("Path", statusInfo, health.DBPath, colorize))
				fmt.Fprintln(out, renderStatusLine("Exists", boolKind(health.DatabaseExists), "", colorize))
				fmt.Fprintln(out, renderStatusLine("Readable", boolKind(health.DatabaseReadable), "", colorize))

				tablesKind := statusOK
				tablesMsg := strings.Join(health.TablesPresent, ", ")
				if len(health.MissingTables) > 0 {
					tablesKind = statusError
					tablesMsg = "missing " + strings.Join(health.MissingTables, ", ")
				}
				fmt.Fprintln(out, renderStatusLine("Tables", tablesKind, tablesMsg, colorize))
				fmt.Fprintln(out, renderStatusLine("Integrity", boolKind(health.IntegrityCheck), "", colorize))
				fmt.Fprintln(out, renderStatusLine("Indexed printings", statusInfo, fmt.Sprintf("%d", health.IndexedCards), colorize))
				fmt.Fprintln(out, renderStatusLine("Cached details", statusInfo, fmt.Sprintf("%d", health.CachedDetails), colorize))
				if health.Error != "" {
					fmt.Fprintln(out, renderStatusLine("Error", statusError, health.Error, colorize))
					return fmt.Errorf("database health check failed: %s", health.Error)
				}
				return nil
			})
		},
	}
}

func boolKind(ok bool) statusKind {
	if ok {
		return statusOK
	}
	return statusError
}
