package proxy

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bogdanov1985/rutube-pilot/internal/app"
)

func testProxyConfig(sources ...string) app.ProxyConfig {
	return app.ProxyConfig{
		Sources:       sources,
		MaxCandidates: app.DefaultMaxCandidates,
		FetchTimeout:  app.DefaultFetchTimeout,
	}
}

func textSource(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchFromTextSource(t *testing.T) {
	srv := textSource(t, "1.1.1.1:8080\n2.2.2.2:3128\n\nmalformed\n")

	got := Fetch(t.Context(), testProxyConfig(srv.URL))
	assert.Equal(t, []string{"1.1.1.1:8080", "2.2.2.2:3128"}, got)
}

func TestFetchFromLocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "proxylist.txt")
	require.NoError(t, os.WriteFile(path, []byte("# comment\n3.3.3.3:80\nhttp://4.4.4.4:8080\n"), 0o644))

	got := Fetch(t.Context(), testProxyConfig(path))
	assert.Equal(t, []string{"3.3.3.3:80", "4.4.4.4:8080"}, got)
}

func TestFetchFromHTMLSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><body><table><tbody>
<tr><td>5.5.5.5</td><td>8080</td></tr>
<tr><td>6.6.6.6:3128</td><td>http</td></tr>
<tr><td></td><td>80</td></tr>
</tbody></table></body></html>`)
	}))
	defer srv.Close()

	got := Fetch(t.Context(), testProxyConfig(srv.URL))
	assert.Equal(t, []string{"5.5.5.5:8080", "6.6.6.6:3128"}, got)
}

func TestFetchDeduplicatesAcrossSources(t *testing.T) {
	a := textSource(t, "1.1.1.1:8080\n2.2.2.2:3128\n")
	b := textSource(t, "2.2.2.2:3128\n3.3.3.3:80\n")

	got := Fetch(t.Context(), testProxyConfig(a.URL, b.URL))
	assert.Equal(t, []string{"1.1.1.1:8080", "2.2.2.2:3128", "3.3.3.3:80"}, got)
}

func TestFetchCapsCandidates(t *testing.T) {
	var sb strings.Builder
	for i := range 100 {
		fmt.Fprintf(&sb, "10.0.0.%d:8080\n", i+1)
	}
	srv := textSource(t, sb.String())

	cfg := testProxyConfig(srv.URL)
	cfg.MaxCandidates = 50

	got := Fetch(t.Context(), cfg)
	assert.Len(t, got, 50)
}

func TestFetchNoDuplicatesInvariant(t *testing.T) {
	a := textSource(t, "1.1.1.1:8080\n1.1.1.1:8080\n2.2.2.2:80\n")
	b := textSource(t, "1.1.1.1:8080\n")

	got := Fetch(t.Context(), testProxyConfig(a.URL, b.URL))

	seen := make(map[string]bool)
	for _, c := range got {
		assert.False(t, seen[c], "duplicate candidate %s", c)
		seen[c] = true
	}
}

func TestFetchAllSourcesDown(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer failing.Close()

	got := Fetch(t.Context(), testProxyConfig(
		failing.URL,
		"http://127.0.0.1:1/unreachable",
		filepath.Join(t.TempDir(), "missing.txt"),
	))
	assert.Empty(t, got)
}

func TestFetchBadSourceDoesNotAbortBatch(t *testing.T) {
	good := textSource(t, "1.1.1.1:8080\n")

	got := Fetch(t.Context(), testProxyConfig("http://127.0.0.1:1/unreachable", good.URL))
	assert.Equal(t, []string{"1.1.1.1:8080"}, got)
}

func TestNormalizeCandidate(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"1.1.1.1:8080", "1.1.1.1:8080", true},
		{"  1.1.1.1:8080  ", "1.1.1.1:8080", true},
		{"http://1.1.1.1:8080", "1.1.1.1:8080", true},
		{"", "", false},
		{"# comment", "", false},
		{"no-port", "", false},
		{":8080", "", false},
	}
	for _, tc := range cases {
		got, ok := normalizeCandidate(tc.in)
		assert.Equal(t, tc.ok, ok, "input %q", tc.in)
		assert.Equal(t, tc.want, got, "input %q", tc.in)
	}
}
