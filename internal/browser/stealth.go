package browser

import (
	"context"
	"fmt"
	"strings"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/Bogdanov1985/rutube-pilot/internal/app"
)

// Stealth JS snippets — injected before any page script runs to mask
// headless-Chrome fingerprints. Placeholders ({{…}}) are replaced
// per-session by buildStealthJS.
//
// Overrides already handled at CDP level are NOT duplicated here:
//   - navigator.webdriver           → SetAutomationOverride
//   - document.hasFocus()           → SetFocusEmulationEnabled
//   - navigator.hardwareConcurrency → SetHardwareConcurrencyOverride
//   - navigator.platform            → SetUserAgentOverride
//   - navigator.languages           → SetUserAgentOverride

// Headless Chrome ships zero plugins; expose the stock trio.
const stealthPluginsJS = `
(function() {
  const mk = function(name, filename, description) {
    return { name: name, filename: filename, description: description, length: 1 };
  };
  const plugins = [
    mk('Chrome PDF Plugin', 'internal-pdf-viewer', 'Portable Document Format'),
    mk('Chrome PDF Viewer', 'mhjfbmdgcfjbbpaeojofohoefgiehjai', ''),
    mk('Native Client', 'internal-nacl-plugin', '')
  ];
  plugins.item = function(i) { return plugins[i] || null; };
  plugins.namedItem = function(n) { return plugins.find(function(p) { return p.name === n; }) || null; };
  Object.defineProperty(navigator, 'plugins', { get: function() { return plugins; }, configurable: true });
})();`

const stealthChromeJS = `
if (!window.chrome) {
  window.chrome = {
    runtime: {
      onMessage: { addListener: () => {}, removeListener: () => {} },
      sendMessage: () => {},
      connect: () => ({ onMessage: { addListener: () => {} }, postMessage: () => {} })
    },
    loadTimes: () => ({}),
    csi: () => ({})
  };
}`

// Headless reports "denied" for notifications without a prompt; align the
// Permissions API with the default-prompt behavior of real Chrome.
const stealthPermissionsJS = `
(function() {
  const origQuery = window.Permissions && Permissions.prototype.query;
  if (!origQuery) return;
  Permissions.prototype.query = function(desc) {
    if (desc && desc.name === 'notifications') {
      return Promise.resolve({ state: Notification.permission === 'default' ? 'prompt' : Notification.permission });
    }
    return origQuery.call(this, desc);
  };
})();`

const stealthWebGLJS = `
(function() {
  const patch = function(proto) {
    if (!proto) return;
    const getParameter = proto.getParameter;
    proto.getParameter = function(param) {
      if (param === 37445) return '{{WEBGL_VENDOR}}';
      if (param === 37446) return '{{WEBGL_RENDERER}}';
      return getParameter.call(this, param);
    };
  };
  patch(window.WebGLRenderingContext && WebGLRenderingContext.prototype);
  patch(window.WebGL2RenderingContext && WebGL2RenderingContext.prototype);
})();`

const stealthDeviceMemoryJS = `
Object.defineProperty(navigator, 'deviceMemory', { get: () => {{DEVICE_MEMORY}}, configurable: true });`

const stealthScreenJS = `
Object.defineProperty(screen, 'colorDepth', { get: () => {{COLOR_DEPTH}}, configurable: true });
Object.defineProperty(screen, 'pixelDepth', { get: () => {{COLOR_DEPTH}}, configurable: true });`

// Mask local IPs leaking through WebRTC ICE candidates.
const stealthWebRTCJS = `
(function() {
  const OrigRTC = window.RTCPeerConnection;
  if (!OrigRTC) return;
  window.RTCPeerConnection = function(config, constraints) {
    if (config && config.iceServers) config.iceServers = [];
    return new OrigRTC(config, constraints);
  };
  window.RTCPeerConnection.prototype = OrigRTC.prototype;
})();`

// buildStealthJS joins all stealth snippets and fills placeholders from a
// Profile.
func buildStealthJS(profile *Profile) string {
	snippets := []string{
		stealthPluginsJS,
		stealthChromeJS,
		stealthPermissionsJS,
		stealthWebGLJS,
		stealthDeviceMemoryJS,
		stealthScreenJS,
		stealthWebRTCJS,
	}
	joined := strings.Join(snippets, "\n")

	r := strings.NewReplacer(
		"{{DEVICE_MEMORY}}", fmt.Sprintf("%d", profile.DeviceMemory),
		"{{COLOR_DEPTH}}", fmt.Sprintf("%d", profile.ColorDepth),
		"{{WEBGL_VENDOR}}", profile.WebGLVendor,
		"{{WEBGL_RENDERER}}", profile.WebGLRenderer,
	)
	return r.Replace(joined)
}

// allocatorOpts returns chromedp exec-allocator options that avoid common
// headless-detection flags. Window size and UA come from the profile;
// proxyAddr, when non-empty, routes all browser traffic through that proxy.
func allocatorOpts(cfg app.BrowserConfig, profile *Profile, proxyAddr string) []chromedp.ExecAllocatorOption {
	var headlessVal string
	if cfg.Headless {
		headlessVal = "new"
	}

	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,

		// Use new headless mode (less detectable than legacy)
		chromedp.Flag("headless", headlessVal),
		chromedp.Flag("no-sandbox", cfg.NoSandbox),

		// Anti-detection flags
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("enable-features", "NetworkService,NetworkServiceInProcess"),
		chromedp.Flag("disable-background-timer-throttling", true),
		chromedp.Flag("disable-backgrounding-occluded-windows", true),
		chromedp.Flag("disable-renderer-backgrounding", true),
		chromedp.Flag("disable-dev-shm-usage", true),

		// WebRTC leak prevention at browser level
		chromedp.Flag("webrtc-ip-handling-policy", "disable_non_proxied_udp"),

		// The watch loop starts playback without a user gesture
		chromedp.Flag("autoplay-policy", "no-user-gesture-required"),

		chromedp.Flag("disable-notifications", true),
		chromedp.Flag("disable-popup-blocking", true),
		chromedp.Flag("lang", "ru-RU"),

		chromedp.WindowSize(profile.ScreenWidth, profile.ScreenHeight),
		chromedp.UserAgent(profile.UserAgent),
	}

	if cfg.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ChromePath))
	}
	if proxyAddr != "" {
		opts = append(opts, chromedp.ProxyServer("http://"+proxyAddr))
	}
	return opts
}

// injectStealth returns a chromedp action that injects the stealth script
// before any page JS runs, parameterized by the given profile.
func injectStealth(profile *Profile) chromedp.ActionFunc {
	return func(ctx context.Context) error {
		js := buildStealthJS(profile)
		_, err := page.AddScriptToEvaluateOnNewDocument(js).Do(ctx)
		return err
	}
}

// injectCDPStealth returns a chromedp action that uses CDP-level overrides
// to mask automation signals that cannot be covered by JS injection alone.
func injectCDPStealth(profile *Profile) chromedp.ActionFunc {
	return func(ctx context.Context) error {
		if err := emulation.SetAutomationOverride(false).Do(ctx); err != nil {
			return err
		}

		// Simulate a focused window so document.hasFocus() returns true.
		if err := emulation.SetFocusEmulationEnabled(true).Do(ctx); err != nil {
			return err
		}

		if err := emulation.SetHardwareConcurrencyOverride(profile.HardwareConcurrency).Do(ctx); err != nil {
			return err
		}

		if err := emulation.SetTimezoneOverride(profile.TimezoneID).Do(ctx); err != nil {
			return err
		}

		locale := profile.Languages[0]
		if err := emulation.SetLocaleOverride().WithLocale(locale).Do(ctx); err != nil {
			return err
		}

		if profile.Mobile {
			metrics := emulation.SetDeviceMetricsOverride(
				int64(profile.ScreenWidth), int64(profile.ScreenHeight), 2.625, true,
			)
			if err := metrics.Do(ctx); err != nil {
				return err
			}
			if err := emulation.SetTouchEmulationEnabled(true).Do(ctx); err != nil {
				return err
			}
		}

		// Full User-Agent override with Client Hints metadata so
		// navigator.userAgentData doesn't leak "HeadlessChrome".
		ua := emulation.SetUserAgentOverride(profile.UserAgent)
		ua.AcceptLanguage = profile.AcceptLanguage
		ua.Platform = profile.NavigatorPlatform

		brands := make([]*emulation.UserAgentBrandVersion, len(profile.Brands))
		for i, b := range profile.Brands {
			brands[i] = &emulation.UserAgentBrandVersion{Brand: b[0], Version: b[1]}
		}
		fullVersionList := make([]*emulation.UserAgentBrandVersion, len(profile.FullVersionList))
		for i, b := range profile.FullVersionList {
			fullVersionList[i] = &emulation.UserAgentBrandVersion{Brand: b[0], Version: b[1]}
		}

		ua.UserAgentMetadata = &emulation.UserAgentMetadata{
			Brands:          brands,
			FullVersionList: fullVersionList,
			Platform:        profile.Platform,
			PlatformVersion: profile.PlatformVersion,
			Architecture:    profile.Architecture,
			Model:           "",
			Mobile:          profile.Mobile,
			Bitness:         profile.Bitness,
		}
		return ua.Do(ctx)
	}
}
