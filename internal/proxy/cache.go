package proxy

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// cacheFile is the on-disk snapshot of a validation pass.
type cacheFile struct {
	SavedAt time.Time   `json:"saved_at"`
	Proxies []Validated `json:"proxies"`
}

// SaveCache writes the validated set to path, creating parent directories
// as needed.
func SaveCache(path string, validated []Validated) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}

	data, err := json.MarshalIndent(cacheFile{SavedAt: time.Now(), Proxies: validated}, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding proxy cache: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing proxy cache %s: %w", path, err)
	}
	return nil
}

// LoadCache returns the cached validation result when it is younger than
// maxAge. A missing, corrupt or stale cache is a miss, never an error.
func LoadCache(path string, maxAge time.Duration) ([]Validated, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}

	var cached cacheFile
	if err := json.Unmarshal(data, &cached); err != nil {
		slog.Debug("ignoring corrupt proxy cache", "path", path, "error", err)
		return nil, false
	}

	age := time.Since(cached.SavedAt)
	if age > maxAge {
		slog.Debug("ignoring stale proxy cache", "path", path, "age", age)
		return nil, false
	}

	return cached.Proxies, true
}
