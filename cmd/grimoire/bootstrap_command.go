package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"grimoire/internal/bootstrap"
)

func newBootstrapCommand(ctx *commandContext) *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "Seed the search index from the catalog bulk dump",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(func(a *app) error {
				var result bootstrap.Result
				if refresh {
					result = a.loader.Refresh(cmd.Context())
				} else {
					result = a.loader.EnsureInitialized(cmd.Context())
				}

				out := cmd.OutOrStdout()
				switch result.Status {
				case bootstrap.StatusAlreadyInitialized:
					fmt.Fprintf(out, "Index already initialized with %d printings.\n", result.CardCount)
				case bootstrap.StatusSuccess:
					fmt.Fprintf(out, "Indexed %d of %d printings from %s in %s.\n",
						result.Inserted, result.Processed, result.DataType, result.Duration.Round(time.Second))
				case bootstrap.StatusError:
					return errors.New(result.Error)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "Clear and rebuild the index even if already initialized")
	return cmd
}
