package main

import (
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and maintain the fetch cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache hit/miss counters",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(true)
		if err != nil {
			return err
		}
		defer app.Close()

		stats := app.store.Stats()
		cmd.Printf("entries:   %d\n", stats.Entries)
		cmd.Printf("hits:      %d\n", stats.Hits)
		cmd.Printf("misses:    %d\n", stats.Misses)
		cmd.Printf("swept:     %d\n", stats.Swept)
		cmd.Printf("hit ratio: %.2f\n", stats.HitRatio())
		return nil
	},
}

var cacheSweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Remove expired cache entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(true)
		if err != nil {
			return err
		}
		defer app.Close()

		removed, err := app.store.SweepExpired(cmd.Context())
		if err != nil {
			return err
		}
		cmd.Printf("Removed %d expired entries\n", removed)
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cache entry",
	Long: `Remove every cache entry.

Only cached API payloads are affected. Stored places, plans, and analytics
live in a separate database and are never touched by cache maintenance.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(true)
		if err != nil {
			return err
		}
		defer app.Close()

		if err := app.store.ClearAll(cmd.Context()); err != nil {
			return err
		}
		cmd.Println("Cache cleared")
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheSweepCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}
