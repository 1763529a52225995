package viewer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/Bogdanov1985/rutube-pilot/internal/app"
	"github.com/Bogdanov1985/rutube-pilot/internal/browser"
	"github.com/Bogdanov1985/rutube-pilot/internal/proxy"
	"github.com/Bogdanov1985/rutube-pilot/internal/stats"
)

// Controller orchestrates repeated pick-proxy → watch → record iterations
// over the target list. One controller drives one browser at a time;
// concurrent viewers run as separate processes with their own pools.
type Controller struct {
	Browser app.BrowserConfig
	Watch   app.WatchConfig
	Pool    *proxy.Pool // nil when proxy mode is disabled
	Stats   *stats.Recorder

	// watchFn is swappable in tests; nil means Watch.
	watchFn func(ctx context.Context, cfg app.BrowserConfig, proxyAddr, targetURL string, planned time.Duration) Outcome
}

func (c *Controller) watch(ctx context.Context, proxyAddr, targetURL string, planned time.Duration) Outcome {
	if c.watchFn != nil {
		return c.watchFn(ctx, c.Browser, proxyAddr, targetURL, planned)
	}
	return Watch(ctx, c.Browser, proxyAddr, targetURL, planned)
}

// Run executes the configured cycles over urls. Cycles == 0 means run
// until the context is canceled. Per-video failures are recorded and the
// loop continues; only a browser that cannot start at all aborts the run.
// The context canceling is an orderly stop, not an error.
func (c *Controller) Run(ctx context.Context, urls []string) error {
	if len(urls) == 0 {
		return fmt.Errorf("no target URLs configured")
	}

	defer func() {
		if err := c.Stats.Flush(); err != nil {
			slog.Warn("failed to flush statistics", "error", err)
		}
		c.Stats.LogSummary()
	}()

	if c.Watch.Cycles == 0 {
		slog.Info("starting run", "videos", len(urls), "cycles", "unbounded")
	} else {
		slog.Info("starting run", "videos", len(urls), "cycles", c.Watch.Cycles)
	}

	for cycle := 1; c.Watch.Cycles == 0 || cycle <= c.Watch.Cycles; cycle++ {
		if ctx.Err() != nil {
			return nil
		}

		slog.Info("cycle starting", "cycle", cycle)

		if err := c.runCycle(ctx, cycle, urls); err != nil {
			return err
		}
		c.Stats.CycleCompleted()

		if ctx.Err() != nil {
			return nil
		}

		if c.Watch.Cycles == 0 || cycle < c.Watch.Cycles {
			delay := c.Watch.CycleDelay.Sample()
			slog.Info("waiting before next cycle", "delay", delay)
			if !sleep(ctx, delay) {
				return nil
			}
		}
	}

	return nil
}

// runCycle processes the URL list once.
func (c *Controller) runCycle(ctx context.Context, cycle int, urls []string) error {
	targets := slices.Clone(urls)
	if c.Watch.Shuffle {
		rand.Shuffle(len(targets), func(i, j int) {
			targets[i], targets[j] = targets[j], targets[i]
		})
	}
	if c.Watch.MaxVideos > 0 && len(targets) > c.Watch.MaxVideos {
		targets = targets[:c.Watch.MaxVideos]
	}

	for i, target := range targets {
		if ctx.Err() != nil {
			return nil
		}

		proxyAddr := c.selectProxy()
		planned := c.Watch.Time.Sample()

		outcome := c.watch(ctx, proxyAddr, target, planned)

		if outcome.Err != nil && errors.Is(outcome.Err, browser.ErrSessionCreate) {
			// One retry without the proxy: a dead proxy can make the
			// browser bootstrap itself fail.
			if proxyAddr != "" {
				slog.Warn("session creation failed through proxy, evicting and retrying direct",
					"proxy", proxyAddr, "error", outcome.Err)
				c.Pool.Evict(proxyAddr)
				outcome = c.watch(ctx, "", target, planned)
			}
			if outcome.Err != nil && errors.Is(outcome.Err, browser.ErrSessionCreate) {
				c.record(outcome, cycle)
				return fmt.Errorf("aborting run: %w", outcome.Err)
			}
		}

		if !outcome.Success && outcome.Proxy != "" {
			slog.Info("evicting proxy after failed attempt", "proxy", outcome.Proxy)
			c.Pool.Evict(outcome.Proxy)
		}

		c.record(outcome, cycle)

		if i < len(targets)-1 {
			delay := c.Watch.VideoDelay.Sample()
			slog.Debug("waiting before next video", "delay", delay)
			if !sleep(ctx, delay) {
				return nil
			}
		}
	}
	return nil
}

// selectProxy picks a proxy for the next attempt, or "" to go direct.
// An empty pool is not an error: the run degrades to proxy-less mode.
func (c *Controller) selectProxy() string {
	if c.Pool == nil {
		return ""
	}
	addr, ok := c.Pool.Select()
	if !ok {
		slog.Debug("proxy pool empty, running direct")
		return ""
	}
	return addr
}

func (c *Controller) record(o Outcome, cycle int) {
	entry := stats.HistoryEntry{
		URL:       o.URL,
		Timestamp: o.Started,
		WatchTime: o.Watched.Seconds(),
		Success:   o.Success,
		Cycle:     cycle,
		Proxy:     o.Proxy,
	}
	if o.Err != nil {
		entry.Error = o.Err.Error()
		slog.Warn("video attempt failed", "url", o.URL, "error", o.Err)
	} else {
		slog.Info("video attempt recorded", "url", o.URL, "success", o.Success,
			"watched", o.Watched.Round(time.Second))
	}

	c.Stats.Record(entry)
	if err := c.Stats.Flush(); err != nil {
		slog.Warn("failed to flush statistics", "error", err)
	}
}

// sleep waits for d, returning false when the context is canceled first.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
