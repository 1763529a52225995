package browser

import (
	"fmt"
	"math/rand/v2"
)

// Profile holds a coherent set of browser fingerprint values for a single
// viewing session. UA, platform, WebGL, locale and Client Hints all match
// the same virtual identity.
type Profile struct {
	UserAgent           string
	Brands              [][2]string // [brand, majorVersion]
	FullVersionList     [][2]string // [brand, fullVersion]
	Platform            string      // Client Hints platform (e.g. "Windows")
	PlatformVersion     string
	Architecture        string
	Bitness             string
	NavigatorPlatform   string // navigator.platform value
	AcceptLanguage      string
	Languages           []string
	HardwareConcurrency int64
	DeviceMemory        int
	ScreenWidth         int
	ScreenHeight        int
	CenterX             float64 // ScreenWidth/2, pre-computed for MouseClickXY
	CenterY             float64
	ColorDepth          int
	Mobile              bool
	WebGLVendor         string
	WebGLRenderer       string
	TimezoneID          string
}

type platformPreset struct {
	uaTemplate        string // fmt template with one %s for the full version
	navigatorPlatform string
	chPlatform        string
	chPlatformVersion string
	architecture      string
	bitness           string
	mobile            bool
	screens           []screenPreset
	webGLRenderers    []webGLPreset
}

type webGLPreset struct {
	vendor   string
	renderer string
}

type screenPreset struct {
	width  int
	height int
}

var desktopPresets = []platformPreset{
	{
		uaTemplate:        "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/%s Safari/537.36",
		navigatorPlatform: "Win32",
		chPlatform:        "Windows",
		chPlatformVersion: "10.0.0",
		architecture:      "x86",
		bitness:           "64",
		screens:           []screenPreset{{1920, 1080}, {2560, 1440}, {1536, 864}, {1366, 768}},
		webGLRenderers: []webGLPreset{
			{"Google Inc. (Intel)", "ANGLE (Intel, Intel(R) UHD Graphics 630 Direct3D11 vs_5_0 ps_5_0, D3D11)"},
			{"Google Inc. (NVIDIA)", "ANGLE (NVIDIA, NVIDIA GeForce GTX 1650 Direct3D11 vs_5_0 ps_5_0, D3D11)"},
			{"Google Inc. (NVIDIA)", "ANGLE (NVIDIA, NVIDIA GeForce RTX 3060 Direct3D11 vs_5_0 ps_5_0, D3D11)"},
		},
	},
	{
		uaTemplate:        "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/%s Safari/537.36",
		navigatorPlatform: "MacIntel",
		chPlatform:        "macOS",
		chPlatformVersion: "14.5.0",
		architecture:      "arm",
		bitness:           "64",
		screens:           []screenPreset{{1680, 1050}, {1920, 1080}, {2560, 1440}},
		webGLRenderers: []webGLPreset{
			{"Google Inc. (Apple)", "ANGLE (Apple, Apple M1, OpenGL 4.1)"},
			{"Google Inc. (Intel Inc.)", "ANGLE (Intel Inc., Intel Iris Plus Graphics, OpenGL 4.1)"},
		},
	},
}

var mobilePresets = []platformPreset{
	{
		uaTemplate:        "Mozilla/5.0 (Linux; Android 13; Pixel 7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/%s Mobile Safari/537.36",
		navigatorPlatform: "Linux armv8l",
		chPlatform:        "Android",
		chPlatformVersion: "13.0.0",
		architecture:      "",
		bitness:           "",
		mobile:            true,
		screens:           []screenPreset{{412, 915}, {393, 873}},
		webGLRenderers: []webGLPreset{
			{"Qualcomm", "Adreno (TM) 730"},
			{"ARM", "Mali-G710"},
		},
	},
	{
		uaTemplate:        "Mozilla/5.0 (Linux; Android 14; SM-S918B) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/%s Mobile Safari/537.36",
		navigatorPlatform: "Linux armv8l",
		chPlatform:        "Android",
		chPlatformVersion: "14.0.0",
		architecture:      "",
		bitness:           "",
		mobile:            true,
		screens:           []screenPreset{{360, 780}, {412, 915}},
		webGLRenderers: []webGLPreset{
			{"Qualcomm", "Adreno (TM) 740"},
		},
	},
}

type localePreset struct {
	timezoneID     string
	acceptLanguage string
	languages      []string
}

// Rutube is a Russian service; lead with Russian locales so the identity
// looks like the site's ordinary audience.
var localePresets = []localePreset{
	{"Europe/Moscow", "ru-RU,ru;q=0.9,en-US;q=0.8", []string{"ru-RU", "ru", "en-US"}},
	{"Europe/Moscow", "ru-RU,ru;q=0.9", []string{"ru-RU", "ru"}},
	{"Asia/Yekaterinburg", "ru-RU,ru;q=0.9,en;q=0.8", []string{"ru-RU", "ru", "en"}},
	{"Europe/Samara", "ru-RU,ru;q=0.9", []string{"ru-RU", "ru"}},
}

type chromeVersion struct {
	major string
	full  string
}

var chromeVersions = []chromeVersion{
	{"131", "131.0.0.0"},
	{"132", "132.0.0.0"},
	{"133", "133.0.0.0"},
}

var hardwareConcurrencies = []int64{4, 8, 12, 16}
var deviceMemories = []int{4, 8, 16}
var greaseBrands = []string{`Not A(Brand`, `Not/A)Brand`, `Not_A Brand`}

// NewProfile builds a randomized but internally-consistent fingerprint.
// When mobile is true an Android identity is drawn instead of a desktop one.
func NewProfile(mobile bool) *Profile {
	presets := desktopPresets
	if mobile {
		presets = mobilePresets
	}

	plat := presets[rand.IntN(len(presets))]
	webgl := plat.webGLRenderers[rand.IntN(len(plat.webGLRenderers))]
	scr := plat.screens[rand.IntN(len(plat.screens))]
	loc := localePresets[rand.IntN(len(localePresets))]
	ver := chromeVersions[rand.IntN(len(chromeVersions))]
	grease := greaseBrands[rand.IntN(len(greaseBrands))]

	hwConc := hardwareConcurrencies[rand.IntN(len(hardwareConcurrencies))]
	devMem := deviceMemories[rand.IntN(len(deviceMemories))]
	if mobile {
		hwConc = []int64{4, 8}[rand.IntN(2)]
		devMem = []int{4, 8}[rand.IntN(2)]
	}

	return &Profile{
		UserAgent:           fmt.Sprintf(plat.uaTemplate, ver.full),
		Brands:              buildBrands(grease, ver.major),
		FullVersionList:     buildFullVersionList(grease, ver.full),
		Platform:            plat.chPlatform,
		PlatformVersion:     plat.chPlatformVersion,
		Architecture:        plat.architecture,
		Bitness:             plat.bitness,
		NavigatorPlatform:   plat.navigatorPlatform,
		AcceptLanguage:      loc.acceptLanguage,
		Languages:           loc.languages,
		HardwareConcurrency: hwConc,
		DeviceMemory:        devMem,
		ScreenWidth:         scr.width,
		ScreenHeight:        scr.height,
		CenterX:             float64(scr.width) / 2,
		CenterY:             float64(scr.height) / 2,
		ColorDepth:          24,
		Mobile:              plat.mobile,
		WebGLVendor:         webgl.vendor,
		WebGLRenderer:       webgl.renderer,
		TimezoneID:          loc.timezoneID,
	}
}

func buildBrands(grease, major string) [][2]string {
	return [][2]string{
		{grease, "8"},
		{"Chromium", major},
		{"Google Chrome", major},
	}
}

func buildFullVersionList(grease, full string) [][2]string {
	return [][2]string{
		{grease, "8.0.0.0"},
		{"Chromium", full},
		{"Google Chrome", full},
	}
}
