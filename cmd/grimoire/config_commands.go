package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"grimoire/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage grimoire configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newConfigInitCommand(ctx))
	cmd.AddCommand(newConfigShowCommand(ctx))
	return cmd
}

func newConfigInitCommand(ctx *commandContext) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a sample configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if ctx.configFlag != nil {
				path = strings.TrimSpace(*ctx.configFlag)
			}
			if path == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return err
				}
				path = defaultPath
			}

			if !force {
				if _, _, exists, err := config.Load(path); err == nil && exists {
					return fmt.Errorf("config already exists at %s (use --force to overwrite)", path)
				}
			}
			if err := config.CreateSample(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote sample config to %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")
	return cmd
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the resolved configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if ctx.configFlag != nil {
				path = strings.TrimSpace(*ctx.configFlag)
			}
			cfg, resolved, exists, err := config.Load(path)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			source := resolved
			if !exists {
				source = "built-in defaults"
			}
			fmt.Fprintf(out, "Source: %s\n\n", source)

			rows := [][]string{
				{"paths.data_dir", cfg.Paths.DataDir},
				{"paths.log_dir", cfg.Paths.LogDir},
				{"catalog.base_url", cfg.Catalog.BaseURL},
				{"catalog.rate_limit", fmt.Sprintf("%.1f req/s", cfg.Catalog.RateLimit)},
				{"bootstrap.min_index_size", fmt.Sprintf("%d", cfg.Bootstrap.MinIndexSize)},
				{"bootstrap.batch_size", fmt.Sprintf("%d", cfg.Bootstrap.BatchSize)},
				{"bootstrap.upsert_workers", fmt.Sprintf("%d", cfg.Bootstrap.UpsertWorkers)},
				{"hot_cache.size", fmt.Sprintf("%d", cfg.HotCache.Size)},
				{"hot_cache.ttl_seconds", fmt.Sprintf("%d", cfg.HotCache.TTLSeconds)},
				{"eviction.ttl_days", fmt.Sprintf("%d", cfg.Eviction.TTLDays)},
				{"eviction.sweep_interval_hours", fmt.Sprintf("%d", cfg.Eviction.SweepIntervalHours)},
				{"logging.format", cfg.Logging.Format},
				{"logging.level", cfg.Logging.Level},
			}
			fmt.Fprintln(out, renderTable([]string{"Setting", "Value"}, rows, []columnAlignment{alignLeft, alignLeft}))
			return nil
		},
	}
}
