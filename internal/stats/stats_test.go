package stats

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderTotals(t *testing.T) {
	r := NewRecorder("", nil)

	r.Record(HistoryEntry{URL: "a", Success: true, WatchTime: 42})
	r.Record(HistoryEntry{URL: "b", Success: false, Error: "navigation timed out"})
	r.Record(HistoryEntry{URL: "c", Success: true, WatchTime: 30})

	total, successes, failures := r.Totals()
	assert.Equal(t, 3, total)
	assert.Equal(t, 2, successes)
	assert.Equal(t, 1, failures)
}

func TestRecorderFlushWritesDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Logs", "bot_statistics.json")
	r := NewRecorder(path, map[string]any{"cycles": 2, "proxy_enabled": true})

	r.Record(HistoryEntry{
		URL:       "https://rutube.ru/video/a/",
		Timestamp: time.Now(),
		WatchTime: 61.5,
		Success:   true,
		Cycle:     1,
		Proxy:     "1.1.1.1:8080",
	})
	r.Record(HistoryEntry{
		URL:     "https://rutube.ru/video/b/",
		Success: false,
		Cycle:   1,
		Error:   "video element not found",
	})
	r.CycleCompleted()

	require.NoError(t, r.Flush())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc struct {
		StartTime       time.Time      `json:"start_time"`
		EndTime         *time.Time     `json:"end_time"`
		TotalVideos     int            `json:"total_videos"`
		SuccessfulViews int            `json:"successful_views"`
		FailedViews     int            `json:"failed_views"`
		TotalWatchTime  float64        `json:"total_watch_time"`
		CyclesCompleted int            `json:"cycles_completed"`
		Settings        map[string]any `json:"settings"`
		History         []HistoryEntry `json:"videos_history"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))

	assert.False(t, doc.StartTime.IsZero())
	require.NotNil(t, doc.EndTime)
	assert.Equal(t, 2, doc.TotalVideos)
	assert.Equal(t, 1, doc.SuccessfulViews)
	assert.Equal(t, 1, doc.FailedViews)
	assert.InDelta(t, 61.5, doc.TotalWatchTime, 0.001)
	assert.Equal(t, 1, doc.CyclesCompleted)
	assert.Equal(t, true, doc.Settings["proxy_enabled"])

	require.Len(t, doc.History, 2)
	assert.Equal(t, "1.1.1.1:8080", doc.History[0].Proxy)
	assert.Equal(t, "video element not found", doc.History[1].Error)
}

func TestRecorderFlushDisabled(t *testing.T) {
	r := NewRecorder("", nil)
	r.Record(HistoryEntry{URL: "a", Success: true})
	assert.NoError(t, r.Flush())
}

func TestRecorderFlushIsRepeatable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.json")
	r := NewRecorder(path, nil)

	require.NoError(t, r.Flush())
	r.Record(HistoryEntry{URL: "a", Success: true, WatchTime: 10})
	require.NoError(t, r.Flush())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.EqualValues(t, 1, doc["total_videos"])
}
