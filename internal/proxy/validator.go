package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Bogdanov1985/rutube-pilot/internal/app"
)

// Validated is a proxy candidate that successfully routed at least one
// request to a test endpoint.
type Validated struct {
	Address     string        `json:"address"`
	ObservedIP  string        `json:"observed_ip,omitempty"`
	RTT         time.Duration `json:"response_time"`
	LastChecked time.Time     `json:"last_checked"`
}

// ipEchoBody matches httpbin-style and ipify-style JSON responses.
type ipEchoBody struct {
	Origin string `json:"origin"`
	IP     string `json:"ip"`
}

// Validate probes every candidate against the configured test endpoints
// with bounded concurrency and returns the working subset sorted by
// ascending round-trip time. Unreachable candidates are simply omitted.
func Validate(ctx context.Context, cfg app.ProxyConfig, candidates []string) []Validated {
	if len(candidates) == 0 {
		return nil
	}

	slog.Info("validating proxy candidates", "count", len(candidates), "concurrency", cfg.Concurrency)

	var (
		mu      sync.Mutex
		working []Validated
	)

	g := new(errgroup.Group)
	g.SetLimit(cfg.Concurrency)

	for _, candidate := range candidates {
		g.Go(func() error {
			v, err := Check(ctx, cfg, candidate)
			if err != nil {
				slog.Debug("proxy failed validation", "proxy", candidate, "error", err)
				return nil
			}
			mu.Lock()
			working = append(working, v)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	slices.SortFunc(working, func(a, b Validated) int {
		return int(a.RTT - b.RTT)
	})

	slog.Info("proxy validation complete", "working", len(working), "checked", len(candidates))
	return working
}

// Check probes a single candidate. It succeeds as soon as any one test
// endpoint returns a 200 with a parseable body through the proxy.
func Check(ctx context.Context, cfg app.ProxyConfig, candidate string) (Validated, error) {
	if _, _, err := net.SplitHostPort(candidate); err != nil {
		return Validated{}, fmt.Errorf("malformed candidate %q: %w", candidate, err)
	}

	proxyURL, err := url.Parse("http://" + candidate)
	if err != nil {
		return Validated{}, fmt.Errorf("parsing proxy address %q: %w", candidate, err)
	}

	client := &http.Client{
		Transport: &http.Transport{
			Proxy:             http.ProxyURL(proxyURL),
			DisableKeepAlives: true,
		},
		Timeout: cfg.CheckTimeout,
	}
	defer client.CloseIdleConnections()

	var errs []error
	for _, endpoint := range cfg.TestEndpoints {
		if ctx.Err() != nil {
			return Validated{}, ctx.Err()
		}

		start := time.Now()
		ip, err := probe(ctx, client, endpoint)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", endpoint, err))
			continue
		}

		return Validated{
			Address:     candidate,
			ObservedIP:  ip,
			RTT:         time.Since(start),
			LastChecked: time.Now(),
		}, nil
	}

	return Validated{}, fmt.Errorf("all endpoints failed for %s: %w", candidate, errors.Join(errs...))
}

func probe(ctx context.Context, client *http.Client, endpoint string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return "", err
	}

	return parseEchoedIP(body), nil
}

// parseEchoedIP extracts the egress IP from an IP-echo response body.
// Returns "" when the body is a success but the IP is not parseable; the
// probe still counts as working in that case.
func parseEchoedIP(body []byte) string {
	var echo ipEchoBody
	if err := json.Unmarshal(body, &echo); err == nil {
		if echo.Origin != "" {
			return echo.Origin
		}
		if echo.IP != "" {
			return echo.IP
		}
	}

	trimmed := strings.TrimSpace(string(body))
	if net.ParseIP(trimmed) != nil {
		return trimmed
	}
	return ""
}
