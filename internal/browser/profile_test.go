package browser

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bogdanov1985/rutube-pilot/internal/app"
)

func testBrowserConfig() app.BrowserConfig {
	return app.BrowserConfig{Headless: true, PageTimeout: 30 * time.Second}
}

func TestNewProfileDesktopConsistency(t *testing.T) {
	for range 50 {
		p := NewProfile(false)

		assert.False(t, p.Mobile)
		assert.NotContains(t, p.UserAgent, "Mobile")
		assert.Contains(t, []string{"Windows", "macOS"}, p.Platform)

		// UA, brands and full version list agree on the Chrome version.
		require.Len(t, p.Brands, 3)
		require.Len(t, p.FullVersionList, 3)
		assert.Contains(t, p.UserAgent, "Chrome/"+p.FullVersionList[2][1])
		assert.True(t, strings.HasPrefix(p.FullVersionList[2][1], p.Brands[2][1]+"."))

		assert.Positive(t, p.ScreenWidth)
		assert.Positive(t, p.ScreenHeight)
		assert.Equal(t, float64(p.ScreenWidth)/2, p.CenterX)
		assert.Equal(t, float64(p.ScreenHeight)/2, p.CenterY)

		require.NotEmpty(t, p.Languages)
		assert.Equal(t, "ru-RU", p.Languages[0])
		assert.NotEmpty(t, p.TimezoneID)
		assert.NotEmpty(t, p.WebGLVendor)
		assert.NotEmpty(t, p.WebGLRenderer)
	}
}

func TestNewProfileMobileConsistency(t *testing.T) {
	for range 50 {
		p := NewProfile(true)

		assert.True(t, p.Mobile)
		assert.Contains(t, p.UserAgent, "Android")
		assert.Contains(t, p.UserAgent, "Mobile Safari")
		assert.Equal(t, "Android", p.Platform)
		assert.LessOrEqual(t, p.ScreenWidth, 500)
		assert.LessOrEqual(t, p.HardwareConcurrency, int64(8))
		assert.LessOrEqual(t, p.DeviceMemory, 8)
	}
}

func TestBuildStealthJSSubstitutesPlaceholders(t *testing.T) {
	p := NewProfile(false)
	js := buildStealthJS(p)

	assert.NotContains(t, js, "{{")
	assert.NotContains(t, js, "}}")
	assert.Contains(t, js, p.WebGLVendor)
	assert.Contains(t, js, p.WebGLRenderer)
	assert.Contains(t, js, "navigator, 'plugins'")
	assert.Contains(t, js, "RTCPeerConnection")
}

func TestAllocatorOptsVaryWithConfig(t *testing.T) {
	p := NewProfile(false)

	base := allocatorOpts(testBrowserConfig(), p, "")
	withProxy := allocatorOpts(testBrowserConfig(), p, "1.1.1.1:8080")
	assert.Greater(t, len(withProxy), len(base))

	cfg := testBrowserConfig()
	cfg.ChromePath = "/usr/bin/chromium"
	withPath := allocatorOpts(cfg, p, "")
	assert.Greater(t, len(withPath), len(base))
}
