package proxy

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"

	"github.com/Bogdanov1985/rutube-pilot/internal/app"
)

// fetchUserAgent is sent to proxy-list sources; some of them reject
// requests without a browser-looking UA.
const fetchUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Fetch retrieves proxy candidates from every configured source in
// parallel. A source is either a local file path or an HTTP(S) URL serving
// plain text (one host:port per line) or an HTML proxy-list table.
//
// Failed or malformed sources contribute nothing; an empty result is a
// valid outcome and means "run without proxies". The returned set is
// deduplicated in first-seen source order and capped at MaxCandidates.
func Fetch(ctx context.Context, cfg app.ProxyConfig) []string {
	results := make([][]string, len(cfg.Sources))

	g, gctx := errgroup.WithContext(ctx)
	for i, source := range cfg.Sources {
		g.Go(func() error {
			candidates, err := fetchSource(gctx, cfg, source)
			if err != nil {
				slog.Warn("proxy source unavailable", "source", source, "error", err)
				return nil // a single bad source never aborts the batch
			}
			results[i] = candidates
			return nil
		})
	}
	_ = g.Wait()

	seen := make(map[string]struct{})
	var merged []string
	for _, candidates := range results {
		for _, c := range candidates {
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			merged = append(merged, c)
			if len(merged) == cfg.MaxCandidates {
				slog.Info("candidate cap reached", "max", cfg.MaxCandidates)
				return merged
			}
		}
	}

	slog.Info("proxy fetch complete", "sources", len(cfg.Sources), "candidates", len(merged))
	return merged
}

func fetchSource(ctx context.Context, cfg app.ProxyConfig, source string) ([]string, error) {
	if !strings.HasPrefix(source, "http") {
		data, err := os.ReadFile(source)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", source, err)
		}
		return parseText(string(data)), nil
	}

	reqCtx, cancel := context.WithTimeout(ctx, cfg.FetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, source, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", source, err)
	}
	req.Header.Set("User-Agent", fetchUserAgent)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", source, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: status %d", source, resp.StatusCode)
	}

	if strings.Contains(resp.Header.Get("Content-Type"), "text/html") {
		return parseHTML(resp.Body)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", source, err)
	}
	return parseText(string(body)), nil
}

// parseText extracts host:port candidates from a plain-text list, one per
// line. Blank and malformed lines are tolerated.
func parseText(body string) []string {
	var candidates []string
	for line := range strings.Lines(body) {
		addr, ok := normalizeCandidate(line)
		if !ok {
			continue
		}
		candidates = append(candidates, addr)
	}
	return candidates
}

// parseHTML extracts candidates from an HTML proxy-list page. It handles
// the common table layout (IP and port in adjacent cells) as well as cells
// that already contain a combined host:port.
func parseHTML(r io.Reader) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	var candidates []string
	doc.Find("table tbody tr, table tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}
		first := strings.TrimSpace(cells.Eq(0).Text())

		if addr, ok := normalizeCandidate(first); ok {
			candidates = append(candidates, addr)
			return
		}

		port := strings.TrimSpace(cells.Eq(1).Text())
		if addr, ok := normalizeCandidate(first + ":" + port); ok {
			candidates = append(candidates, addr)
		}
	})
	return candidates, nil
}

// normalizeCandidate validates a raw host:port string. Malformed entries
// are skipped, not errors.
func normalizeCandidate(line string) (string, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return "", false
	}
	line = strings.TrimPrefix(line, "http://")
	line = strings.TrimPrefix(line, "https://")

	host, port, err := net.SplitHostPort(line)
	if err != nil || host == "" || port == "" {
		slog.Debug("skipping malformed proxy candidate", "line", line)
		return "", false
	}
	return net.JoinHostPort(host, port), true
}
