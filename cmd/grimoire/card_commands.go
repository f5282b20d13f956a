package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"grimoire/internal/catalog"
	"grimoire/internal/services"
)

func newCardCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "card",
		Short: "Inspect and manage individual printings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newCardShowCommand(ctx))
	cmd.AddCommand(newCardPromoteCommand(ctx))
	cmd.AddCommand(newCardVersionsCommand(ctx))
	return cmd
}

func newCardShowCommand(ctx *commandContext) *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "show <catalog-id>",
		Short: "Fetch and display full card details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(func(a *app) error {
				card, err := a.engine.GetCardDetails(cmd.Context(), args[0], refresh)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				for _, line := range renderSectionHeader(card.Name, colorize) {
					fmt.Fprintln(out, line)
				}
				fmt.Fprintln(out, renderStatusLine("Set", statusInfo, fmt.Sprintf("%s (%s) #%s", card.SetName, card.SetCode, card.CollectorNumber), colorize))
				fmt.Fprintln(out, renderStatusLine("Type", statusInfo, card.TypeLine, colorize))
				if card.ManaCost != "" {
					fmt.Fprintln(out, renderStatusLine("Mana cost", statusInfo, card.ManaCost, colorize))
				}
				if card.OracleText != "" {
					fmt.Fprintln(out, renderStatusLine("Text", statusInfo, formatOracleText(card.OracleText), colorize))
				}
				if card.Power != "" || card.Toughness != "" {
					fmt.Fprintln(out, renderStatusLine("P/T", statusInfo, card.Power+"/"+card.Toughness, colorize))
				}
				fmt.Fprintln(out, renderStatusLine("Rarity", statusInfo, card.Rarity, colorize))

				retention := "evictable (" + string(card.StorageReason) + ")"
				retentionKind := statusInfo
				if card.Permanent {
					retention = "permanent (" + string(card.StorageReason) + ")"
					retentionKind = statusOK
				}
				fmt.Fprintln(out, renderStatusLine("Retention", retentionKind, retention, colorize))
				fmt.Fprintln(out, renderStatusLine("Cached", statusInfo, card.CachedAt.Format("2006-01-02 15:04:05 MST"), colorize))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "Refetch from the catalog even if cached")
	return cmd
}

func newCardPromoteCommand(ctx *commandContext) *cobra.Command {
	var reasonFlag string
	var ownerRef string

	cmd := &cobra.Command{
		Use:   "promote <catalog-id>",
		Short: "Pin a printing so eviction never removes it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reason, ok := catalog.ParseReason(reasonFlag)
			if !ok {
				return services.Wrap(services.ErrValidation, "cli", "card-promote",
					fmt.Sprintf("unknown storage reason %q", reasonFlag), nil)
			}
			return ctx.withApp(func(a *app) error {
				if err := a.engine.MakePermanent(cmd.Context(), args[0], reason, ownerRef); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Printing %s pinned with reason %s.\n", args[0], reason)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&reasonFlag, "reason", string(catalog.ReasonUserCollection), "Storage reason (user_collection, deck_usage, admin_import)")
	cmd.Flags().StringVar(&ownerRef, "owner", "", "Opaque caller reference recorded in the log")
	return cmd
}

func newCardVersionsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "versions <oracle-group-id>",
		Short: "List every indexed printing of a card",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(func(a *app) error {
				versions, err := a.engine.GetVersions(cmd.Context(), args[0])
				if err != nil {
					return err
				}

				rows := make([][]string, 0, len(versions))
				for _, version := range versions {
					cached := ""
					if version.Details != nil {
						cached = "yes"
						if version.Details.Permanent {
							cached = "pinned"
						}
					}
					rows = append(rows, []string{
						version.Entry.SetCode,
						version.Entry.CollectorNumber,
						version.Entry.Name,
						version.Entry.Rarity,
						version.Entry.Language,
						cached,
						version.Entry.CatalogID,
					})
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderTable(
					[]string{"Set", "No.", "Name", "Rarity", "Lang", "Cached", "Catalog ID"},
					rows,
					[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
				))
				fmt.Fprintf(out, "%d printings\n", len(versions))
				return nil
			})
		},
	}
}
