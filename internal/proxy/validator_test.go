package proxy

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bogdanov1985/rutube-pilot/internal/app"
)

// echoProxy serves as an HTTP forward proxy that answers every request
// itself with an IP-echo body instead of forwarding it.
func echoProxy(t *testing.T, delay time.Duration, body string) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if delay > 0 {
			time.Sleep(delay)
		}
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return strings.TrimPrefix(srv.URL, "http://")
}

func checkConfig() app.ProxyConfig {
	return app.ProxyConfig{
		CheckTimeout:  5 * time.Second,
		Concurrency:   4,
		TestEndpoints: []string{"http://example.com/ip"},
	}
}

func TestCheckThroughWorkingProxy(t *testing.T) {
	candidate := echoProxy(t, 0, `{"origin":"1.2.3.4"}`)

	v, err := Check(t.Context(), checkConfig(), candidate)
	require.NoError(t, err)

	assert.Equal(t, candidate, v.Address)
	assert.Equal(t, "1.2.3.4", v.ObservedIP)
	assert.Positive(t, v.RTT)
	assert.WithinDuration(t, time.Now(), v.LastChecked, time.Minute)
}

func TestCheckMalformedCandidate(t *testing.T) {
	_, err := Check(t.Context(), checkConfig(), "not-an-address")
	assert.Error(t, err)
}

func TestCheckUnreachableProxy(t *testing.T) {
	cfg := checkConfig()
	cfg.CheckTimeout = 500 * time.Millisecond

	_, err := Check(t.Context(), cfg, "127.0.0.1:1")
	assert.Error(t, err)
}

func TestCheckFallsThroughToNextEndpoint(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if strings.Contains(r.URL.String(), "broken") {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, "5.6.7.8")
	}))
	defer srv.Close()

	cfg := checkConfig()
	cfg.TestEndpoints = []string{"http://broken.example.com/ip", "http://example.com/ip"}

	v, err := Check(t.Context(), cfg, strings.TrimPrefix(srv.URL, "http://"))
	require.NoError(t, err)
	assert.Equal(t, "5.6.7.8", v.ObservedIP)
	assert.Equal(t, 2, calls)
}

func TestValidateReturnsWorkingSubset(t *testing.T) {
	alive := echoProxy(t, 0, `{"origin":"1.2.3.4"}`)

	cfg := checkConfig()
	cfg.CheckTimeout = time.Second

	candidates := []string{alive, "127.0.0.1:1", "127.0.0.1:2"}
	working := Validate(t.Context(), cfg, candidates)

	require.Len(t, working, 1)
	assert.Equal(t, alive, working[0].Address)

	// Every validated proxy came from the candidate list.
	for _, v := range working {
		assert.Contains(t, candidates, v.Address)
	}
}

func TestValidateSortsByRTT(t *testing.T) {
	fast := echoProxy(t, 0, `{"origin":"1.1.1.1"}`)
	slow := echoProxy(t, 150*time.Millisecond, `{"origin":"2.2.2.2"}`)

	working := Validate(t.Context(), checkConfig(), []string{slow, fast})

	require.Len(t, working, 2)
	assert.Equal(t, fast, working[0].Address)
	assert.Equal(t, slow, working[1].Address)
	assert.LessOrEqual(t, working[0].RTT, working[1].RTT)
}

func TestValidateEmptyInput(t *testing.T) {
	assert.Empty(t, Validate(t.Context(), checkConfig(), nil))
}

func TestParseEchoedIP(t *testing.T) {
	cases := []struct {
		body string
		want string
	}{
		{`{"origin":"1.2.3.4"}`, "1.2.3.4"},
		{`{"ip":"5.6.7.8"}`, "5.6.7.8"},
		{"  9.9.9.9\n", "9.9.9.9"},
		{"2001:db8::1", "2001:db8::1"},
		{"<html>hello</html>", ""},
		{"", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, parseEchoedIP([]byte(tc.body)), "body %q", tc.body)
	}
}
