package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"grimoire/internal/catalog"
)

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var (
		unique   bool
		limit    int
		offset   int
		setCode  string
		rarity   string
		colors   string
		typeLine string
	)

	cmd := &cobra.Command{
		Use:   "search [text]",
		Short: "Search the card index",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filters := catalog.Filters{
				Colors:   colors,
				SetCode:  setCode,
				Rarity:   rarity,
				TypeLine: typeLine,
			}
			if len(args) == 1 {
				filters.Text = args[0]
			}

			return ctx.withApp(func(a *app) error {
				out := cmd.OutOrStdout()
				if unique {
					groups, total, err := a.engine.SearchUnique(cmd.Context(), filters, limit, offset)
					if err != nil {
						return err
					}
					rows := make([][]string, 0, len(groups))
					for _, group := range groups {
						rows = append(rows, []string{
							group.Representative.Name,
							group.Representative.SetCode,
							group.Representative.ManaCost,
							group.Representative.Rarity,
							strconv.Itoa(group.VersionCount),
							group.Representative.OracleGroupID,
						})
					}
					fmt.Fprintln(out, renderTable(
						[]string{"Name", "Set", "Cost", "Rarity", "Versions", "Oracle Group"},
						rows,
						[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
					))
					fmt.Fprintf(out, "%d unique cards (showing %d from offset %d)\n", total, len(groups), offset)
					return nil
				}

				entries, total, err := a.engine.Search(cmd.Context(), filters, limit, offset)
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(entries))
				for _, entry := range entries {
					rows = append(rows, []string{
						entry.Name,
						entry.SetCode,
						entry.CollectorNumber,
						entry.ManaCost,
						entry.Rarity,
						entry.CatalogID,
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Name", "Set", "No.", "Cost", "Rarity", "Catalog ID"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft, alignLeft},
				))
				fmt.Fprintf(out, "%d printings (showing %d from offset %d)\n", total, len(entries), offset)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&unique, "unique", false, "Collapse printings into one row per card")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum rows to return")
	cmd.Flags().IntVar(&offset, "offset", 0, "Rows to skip before the first result")
	cmd.Flags().StringVar(&setCode, "set", "", "Filter by exact set code")
	cmd.Flags().StringVar(&rarity, "rarity", "", "Filter by exact rarity")
	cmd.Flags().StringVar(&colors, "colors", "", "Filter by color letters (e.g. WU)")
	cmd.Flags().StringVar(&typeLine, "type", "", "Filter by type line substring")
	return cmd
}

func formatOracleText(text string) string {
	return strings.ReplaceAll(text, "\n", " / ")
}
