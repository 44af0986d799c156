package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/aria/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup writes a starter config file and creates the track cache directory.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("config")

	if err := shared.CreateConfigFile(path); err != nil {
		return fmt.Errorf("failed to create config: %w", err)
	}
	r.logger.Infof("created config file: %s", path)

	dir, err := r.config.CacheDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	r.writePlainln("✓ Config created: %s", path)
	r.writePlainln("✓ Cache directory: %s", dir)
	r.writePlainln("Add your username and password to the [credentials] section, then run 'aria play'.")
	return nil
}

// setupCommand handles first-run configuration.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create a starter config file and the track cache directory",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.Setup,
	}
}
