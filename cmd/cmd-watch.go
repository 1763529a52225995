package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/Bogdanov1985/rutube-pilot/internal/app"
	"github.com/Bogdanov1985/rutube-pilot/internal/proxy"
	"github.com/Bogdanov1985/rutube-pilot/internal/stats"
	"github.com/Bogdanov1985/rutube-pilot/internal/viewer"
)

// watchCommand returns the "watch" CLI subcommand. Every flag overrides
// the corresponding config value when set.
func watchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Run watch cycles over the configured video URLs",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:  "url",
				Usage: "Target video URL (repeatable)",
			},
			&cli.StringFlag{
				Name:  "file",
				Usage: "File with one video URL per line",
			},
			&cli.StringFlag{
				Name:  "time",
				Usage: "Watch time in seconds, fixed (\"30\") or range (\"30-120\")",
			},
			&cli.IntFlag{
				Name:  "cycles",
				Usage: "Number of passes over the URL list, 0 = until interrupted",
				Value: -1, // -1 = not set, keep config value
			},
			&cli.StringFlag{
				Name:  "cycle-delay",
				Usage: "Delay between cycles in seconds, fixed or range",
			},
			&cli.StringFlag{
				Name:  "video-delay",
				Usage: "Delay between videos in seconds, fixed or range",
			},
			&cli.BoolFlag{
				Name:  "shuffle",
				Usage: "Shuffle the URL list each cycle",
			},
			&cli.IntFlag{
				Name:  "max-videos",
				Usage: "Cap the number of videos per cycle, 0 = no cap",
			},
			&cli.BoolFlag{
				Name:  "no-proxy",
				Usage: "Disable proxy rotation",
			},
			&cli.BoolFlag{
				Name:  "no-headless",
				Usage: "Show the browser window",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := app.ConfigFrom(cmd)
			if err != nil {
				return err
			}
			if err := applyWatchFlags(cmd, cfg); err != nil {
				return err
			}

			urls, err := cfg.Watch.TargetURLs()
			if err != nil {
				return err
			}
			if len(urls) == 0 {
				return fmt.Errorf("no video URLs: set watch.urls/watch.urls_file or pass --url/--file")
			}

			var pool *proxy.Pool
			if cfg.Proxy.Enabled {
				pool = proxy.Build(ctx, cfg.Proxy)
			}

			recorder := stats.NewRecorder(cfg.Stats.File, map[string]any{
				"urls":        len(urls),
				"watch_time":  cfg.Watch.Time.String(),
				"cycles":      cfg.Watch.Cycles,
				"cycle_delay": cfg.Watch.CycleDelay.String(),
				"video_delay": cfg.Watch.VideoDelay.String(),
				"shuffle":     cfg.Watch.Shuffle,
				"max_videos":  cfg.Watch.MaxVideos,
				"proxy":       cfg.Proxy.Enabled,
				"headless":    cfg.Browser.Headless,
				"mobile":      cfg.Browser.Mobile,
			})

			controller := &viewer.Controller{
				Browser: cfg.Browser,
				Watch:   cfg.Watch,
				Pool:    pool,
				Stats:   recorder,
			}
			return controller.Run(ctx, urls)
		},
	}
}

func applyWatchFlags(cmd *cli.Command, cfg *app.Config) error {
	if urls := cmd.StringSlice("url"); len(urls) > 0 {
		cfg.Watch.URLs = urls
		cfg.Watch.URLsFile = ""
	}
	if cmd.IsSet("file") {
		cfg.Watch.URLsFile = cmd.String("file")
	}
	if cmd.IsSet("time") {
		span, err := app.ParseSpan(cmd.String("time"))
		if err != nil {
			return fmt.Errorf("--time: %w", err)
		}
		cfg.Watch.Time = span
	}
	if n := cmd.Int("cycles"); n >= 0 {
		cfg.Watch.Cycles = int(n)
	}
	if cmd.IsSet("cycle-delay") {
		span, err := app.ParseSpan(cmd.String("cycle-delay"))
		if err != nil {
			return fmt.Errorf("--cycle-delay: %w", err)
		}
		cfg.Watch.CycleDelay = span
	}
	if cmd.IsSet("video-delay") {
		span, err := app.ParseSpan(cmd.String("video-delay"))
		if err != nil {
			return fmt.Errorf("--video-delay: %w", err)
		}
		cfg.Watch.VideoDelay = span
	}
	if cmd.IsSet("shuffle") {
		cfg.Watch.Shuffle = cmd.Bool("shuffle")
	}
	if cmd.IsSet("max-videos") {
		cfg.Watch.MaxVideos = int(cmd.Int("max-videos"))
	}
	if cmd.Bool("no-proxy") {
		cfg.Proxy.Enabled = false
	}
	if cmd.Bool("no-headless") {
		cfg.Browser.Headless = false
	}
	return nil
}
