package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"voice-qa-go/internal/cache"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage cached stage outputs",
	}
	cacheCmd.AddCommand(newCachePurgeCommand(ctx))
	return cacheCmd
}

func newCachePurgeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "purge <basename>...",
		Short: "Delete cached stage outputs so the next run recomputes them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := cache.New(cfg.Paths.CacheDir, log)
			if err != nil {
				return err
			}
			total := 0
			for _, key := range args {
				n, err := store.Purge(key)
				if err != nil {
					return err
				}
				total += n
			}
			if total == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No cache entries purged")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Purged %d cache entries\n", total)
			return nil
		},
	}
}
