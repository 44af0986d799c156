package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

// CacheStats prints the number of cached tracks and their total size.
func (r *Runner) CacheStats(ctx context.Context, cmd *cli.Command) error {
	trackCache, err := r.openCache(r.logger)
	if err != nil {
		return fmt.Errorf("failed to open track cache: %w", err)
	}
	defer trackCache.Close()

	count, bytes, err := trackCache.Stats()
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(map[string]any{"tracks": count, "bytes": bytes}, cmd.Bool("pretty"))
	}

	r.writePlain("Cached tracks: %d\n", count)
	r.writePlain("Disk usage:    %.1f MiB (budget %.1f MiB)\n",
		float64(bytes)/(1<<20), float64(r.config.Cache.MaxBytes)/(1<<20))
	return nil
}

// CacheClear removes every cached track and its bookkeeping.
func (r *Runner) CacheClear(ctx context.Context, cmd *cli.Command) error {
	trackCache, err := r.openCache(r.logger)
	if err != nil {
		return fmt.Errorf("failed to open track cache: %w", err)
	}
	defer trackCache.Close()

	if err := trackCache.Clear(); err != nil {
		return err
	}

	r.writePlainln("✓ Track cache cleared")
	return nil
}

// cacheCommand manages the on-disk track cache.
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect and manage the track cache",
		Commands: []*cli.Command{
			{
				Name:  "stats",
				Usage: "Show cached track count and disk usage",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.CacheStats,
			},
			{
				Name:   "clear",
				Usage:  "Delete all cached tracks",
				Action: r.CacheClear,
			},
		},
	}
}
