package browser

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chromedp/chromedp"
)

var (
	snapshotDir  string
	snapshotOnce sync.Once
	snapshotSeq  atomic.Int64
)

// DebugSnapshot captures a screenshot and outer HTML of the current page
// and writes them to a temporary directory. It is a no-op when the default
// logger does not have debug level enabled. Errors are logged and
// swallowed so snapshots never break the main flow.
func DebugSnapshot(ctx context.Context, label string) {
	if !slog.Default().Enabled(ctx, slog.LevelDebug) {
		return
	}

	snapshotOnce.Do(func() {
		snapshotDir = filepath.Join(".debug", fmt.Sprintf("rutube-pilot-%d", time.Now().UnixMilli()))
		if err := os.MkdirAll(snapshotDir, 0o755); err != nil {
			slog.Debug("snapshot: failed to create debug directory", "error", err)
			return
		}
		slog.Debug("snapshot: debug directory created", "path", snapshotDir)
	})

	if snapshotDir == "" {
		return
	}

	seq := snapshotSeq.Add(1)
	prefix := filepath.Join(snapshotDir, fmt.Sprintf("%02d-%s", seq, label))

	var buf []byte
	if err := chromedp.Run(ctx, chromedp.CaptureScreenshot(&buf)); err != nil {
		slog.Debug("snapshot: screenshot failed", "label", label, "error", err)
	} else if err := os.WriteFile(prefix+".png", buf, 0o644); err != nil {
		slog.Debug("snapshot: failed to write screenshot", "error", err)
	}

	var html string
	if err := chromedp.Run(ctx, chromedp.OuterHTML("html", &html)); err != nil {
		slog.Debug("snapshot: outer HTML failed", "label", label, "error", err)
	} else if err := os.WriteFile(prefix+".html", []byte(html), 0o644); err != nil {
		slog.Debug("snapshot: failed to write HTML", "error", err)
	}
}
