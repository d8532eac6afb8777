package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newUsageCmd(configPath *string) *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Show a user's suggestion quota",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			a, err := newApp(cfg, nil)
			if err != nil {
				return err
			}
			defer a.close(cmd.Context())

			stats, err := a.service.UsageStats(cmd.Context(), userID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Requests today: %d\nRemaining:      %d\nResets at:      %s\n",
				stats.RequestsToday, stats.RequestsRemaining, stats.ResetAt.Format(time.RFC3339))
			return nil
		},
	}

	cmd.Flags().StringVarP(&userID, "user", "u", "", "user id")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newCacheCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the suggestion cache",
	}

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show cache statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			a, err := newApp(cfg, nil)
			if err != nil {
				return err
			}
			defer a.close(cmd.Context())

			stats, err := a.service.CacheStats(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Backend: %s\nEntries: %d\nBytes:   %d\n", cfg.Cache.Backend, stats.Items, stats.Size)
			for _, k := range stats.Keys {
				fmt.Fprintf(out, "  %s\n", k)
			}
			return nil
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached suggestions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			a, err := newApp(cfg, nil)
			if err != nil {
				return err
			}
			defer a.close(cmd.Context())

			if err := a.service.ClearCache(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "All cache entries cleared.")
			return nil
		},
	}

	cmd.AddCommand(statsCmd, clearCmd)
	return cmd
}
