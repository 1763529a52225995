package stats

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// HistoryEntry records one processed video.
type HistoryEntry struct {
	URL       string    `json:"url"`
	Timestamp time.Time `json:"timestamp"`
	WatchTime float64   `json:"watch_time"` // seconds
	Success   bool      `json:"success"`
	Cycle     int       `json:"cycle"`
	Proxy     string    `json:"proxy,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// runStats is the persisted statistics document. It is a diagnostic
// artifact; nothing downstream depends on the schema.
type runStats struct {
	StartTime       time.Time      `json:"start_time"`
	EndTime         *time.Time     `json:"end_time,omitempty"`
	TotalVideos     int            `json:"total_videos"`
	SuccessfulViews int            `json:"successful_views"`
	FailedViews     int            `json:"failed_views"`
	TotalWatchTime  float64        `json:"total_watch_time"` // seconds
	CyclesCompleted int            `json:"cycles_completed"`
	Settings        map[string]any `json:"settings,omitempty"`
	History         []HistoryEntry `json:"videos_history"`
}

// Recorder accumulates run statistics. All methods are safe for
// concurrent use.
type Recorder struct {
	mu   sync.Mutex
	path string
	data runStats
}

// NewRecorder starts a fresh accumulator. path may be empty to disable
// persistence; settings are echoed into the output for diagnostics.
func NewRecorder(path string, settings map[string]any) *Recorder {
	return &Recorder{
		path: path,
		data: runStats{
			StartTime: time.Now(),
			Settings:  settings,
			History:   []HistoryEntry{},
		},
	}
}

// Record adds one processed video and updates the totals.
func (r *Recorder) Record(e HistoryEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.data.TotalVideos++
	if e.Success {
		r.data.SuccessfulViews++
		r.data.TotalWatchTime += e.WatchTime
	} else {
		r.data.FailedViews++
	}
	r.data.History = append(r.data.History, e)
}

// CycleCompleted bumps the completed-cycle counter.
func (r *Recorder) CycleCompleted() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data.CyclesCompleted++
}

// Totals returns the current counters: attempted, successes, failures.
func (r *Recorder) Totals() (total, successes, failures int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.data.TotalVideos, r.data.SuccessfulViews, r.data.FailedViews
}

// Flush writes the current statistics document to disk. Called after each
// processed video and on every shutdown path, including interrupts.
func (r *Recorder) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.path == "" {
		return nil
	}

	now := time.Now()
	r.data.EndTime = &now

	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("creating stats directory: %w", err)
	}

	data, err := json.MarshalIndent(r.data, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding statistics: %w", err)
	}
	if err := os.WriteFile(r.path, data, 0o644); err != nil {
		return fmt.Errorf("writing statistics %s: %w", r.path, err)
	}
	return nil
}

// LogSummary emits the final run summary. Always called at run end, even
// after an interrupt.
func (r *Recorder) LogSummary() {
	r.mu.Lock()
	defer r.mu.Unlock()

	elapsed := time.Since(r.data.StartTime).Round(time.Second)
	rate := 0.0
	if r.data.TotalVideos > 0 {
		rate = float64(r.data.SuccessfulViews) / float64(r.data.TotalVideos) * 100
	}

	slog.Info("run summary",
		"videos", r.data.TotalVideos,
		"successes", r.data.SuccessfulViews,
		"failures", r.data.FailedViews,
		"success_rate", fmt.Sprintf("%.1f%%", rate),
		"watch_time", (time.Duration(r.data.TotalWatchTime) * time.Second).String(),
		"cycles", r.data.CyclesCompleted,
		"elapsed", elapsed,
	)
}
