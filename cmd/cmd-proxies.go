package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/Bogdanov1985/rutube-pilot/internal/app"
	"github.com/Bogdanov1985/rutube-pilot/internal/proxy"
)

// proxiesCommand returns the "proxies" CLI subcommand.
func proxiesCommand() *cli.Command {
	return &cli.Command{
		Name:  "proxies",
		Usage: "Fetch, validate and inspect proxies",
		Commands: []*cli.Command{
			proxiesCheckCommand(),
			proxiesTestCommand(),
		},
	}
}

func proxiesCheckCommand() *cli.Command {
	return &cli.Command{
		Name:  "check",
		Usage: "Fetch candidates from all sources, validate them and cache the result",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := app.ConfigFrom(cmd)
			if err != nil {
				return err
			}

			candidates := proxy.Fetch(ctx, cfg.Proxy)
			if len(candidates) == 0 {
				slog.Warn("no proxy candidates found")
				return nil
			}

			working := proxy.Validate(ctx, cfg.Proxy, candidates)
			for _, w := range working {
				slog.Info("working proxy", "address", w.Address, "rtt", w.RTT.Round(time.Millisecond), "egress_ip", w.ObservedIP)
			}

			if cfg.Proxy.CacheFile != "" && len(working) > 0 {
				if err := proxy.SaveCache(cfg.Proxy.CacheFile, working); err != nil {
					return err
				}
				slog.Info("cache written", "path", cfg.Proxy.CacheFile)
			}

			slog.Info("check complete", "working", len(working), "checked", len(candidates))
			return nil
		},
	}
}

func proxiesTestCommand() *cli.Command {
	var addr string

	return &cli.Command{
		Name:  "test",
		Usage: "Probe a single proxy (host:port)",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name:        "address",
				Destination: &addr,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if addr == "" {
				return fmt.Errorf("usage: proxies test <host:port>")
			}

			cfg, err := app.ConfigFrom(cmd)
			if err != nil {
				return err
			}

			v, err := proxy.Check(ctx, cfg.Proxy, addr)
			if err != nil {
				return fmt.Errorf("proxy %s not working: %w", addr, err)
			}

			slog.Info("proxy working", "address", v.Address, "rtt", v.RTT.Round(time.Millisecond), "egress_ip", v.ObservedIP)
			return nil
		},
	}
}
