package proxy

import (
	"context"
	"log/slog"

	"github.com/Bogdanov1985/rutube-pilot/internal/app"
)

// Build produces a ready pool: it reuses a recent cached validation result
// when one exists, otherwise it runs a full fetch + validate pass and
// caches the outcome. An empty pool is a valid result; callers proceed
// without proxies.
func Build(ctx context.Context, cfg app.ProxyConfig) *Pool {
	if cfg.CacheFile != "" {
		if cached, ok := LoadCache(cfg.CacheFile, cfg.CacheMaxAge); ok {
			slog.Info("using cached proxy validation result", "path", cfg.CacheFile, "working", len(cached))
			return NewPool(cached)
		}
	}

	candidates := Fetch(ctx, cfg)
	working := Validate(ctx, cfg, candidates)

	if cfg.CacheFile != "" && len(working) > 0 {
		if err := SaveCache(cfg.CacheFile, working); err != nil {
			slog.Warn("failed to save proxy cache", "path", cfg.CacheFile, "error", err)
		}
	}

	if len(working) == 0 {
		slog.Warn("no working proxies found, continuing without proxies")
	}
	return NewPool(working)
}
