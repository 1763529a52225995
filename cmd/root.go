package cmd

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/Bogdanov1985/rutube-pilot/internal/app"
)

// Root returns the root CLI command.
func Root() *cli.Command {
	var configPath string

	return &cli.Command{
		Name:  "rutube-pilot",
		Usage: "Drive a stealth Chrome through video pages with proxy rotation",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to configuration file",
				Value:       "config.yaml",
				Destination: &configPath,
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			cfg, err := app.Load(configPath)
			if err != nil {
				return ctx, err
			}
			cmd.Metadata["config"] = cfg
			return ctx, nil
		},
		Commands: []*cli.Command{
			watchCommand(),
			proxiesCommand(),
		},
		Metadata: map[string]any{},
	}
}
