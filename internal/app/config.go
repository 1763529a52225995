package app

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/urfave/cli/v3"
)

// Config holds all application configuration.
type Config struct {
	Browser BrowserConfig `koanf:"browser" validate:"required"`
	Proxy   ProxyConfig   `koanf:"proxy"`
	Watch   WatchConfig   `koanf:"watch" validate:"required"`
	Stats   StatsConfig   `koanf:"stats"`
}

// BrowserConfig holds settings for the controlled Chrome instance.
type BrowserConfig struct {
	ChromePath  string        `koanf:"chrome_path"`
	Headless    bool          `koanf:"headless"`
	NoSandbox   bool          `koanf:"no_sandbox"`
	Mobile      bool          `koanf:"mobile"`
	PageTimeout time.Duration `koanf:"page_timeout" validate:"required"`
}

// ProxyConfig holds proxy fetch, validation and pool settings.
type ProxyConfig struct {
	Enabled       bool          `koanf:"enabled"`
	Sources       []string      `koanf:"sources"`
	MaxCandidates int           `koanf:"max_candidates" validate:"gte=0"`
	FetchTimeout  time.Duration `koanf:"fetch_timeout"`
	CheckTimeout  time.Duration `koanf:"check_timeout"`
	Concurrency   int           `koanf:"concurrency" validate:"gte=0"`
	TestEndpoints []string      `koanf:"test_endpoints"`
	CacheFile     string        `koanf:"cache_file"`
	CacheMaxAge   time.Duration `koanf:"cache_max_age"`
}

// WatchConfig holds the target list and cycle parameters.
type WatchConfig struct {
	URLs       []string `koanf:"urls"`
	URLsFile   string   `koanf:"urls_file"`
	Time       Span     `koanf:"time" validate:"required"`
	Cycles     int      `koanf:"cycles" validate:"gte=0"`
	CycleDelay Span     `koanf:"cycle_delay"`
	VideoDelay Span     `koanf:"video_delay"`
	Shuffle    bool     `koanf:"shuffle"`
	MaxVideos  int      `koanf:"max_videos" validate:"gte=0"`
}

// StatsConfig holds the statistics output location.
type StatsConfig struct {
	File string `koanf:"file"`
}

// Proxy subsystem defaults, applied when the config leaves them zero.
const (
	DefaultMaxCandidates = 50
	DefaultFetchTimeout  = 10 * time.Second
	DefaultCheckTimeout  = 10 * time.Second
	DefaultConcurrency   = 20
	DefaultCacheMaxAge   = time.Hour
)

// DefaultTestEndpoints are IP-echo services used to confirm a proxy
// actually routes traffic.
var DefaultTestEndpoints = []string{
	"http://httpbin.org/ip",
	"https://api.ipify.org?format=json",
}

// Load reads and validates configuration from a YAML file.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("loading config from %s: %w", path, err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.applyDefaults()

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	p := &c.Proxy
	if p.MaxCandidates == 0 {
		p.MaxCandidates = DefaultMaxCandidates
	}
	if p.FetchTimeout == 0 {
		p.FetchTimeout = DefaultFetchTimeout
	}
	if p.CheckTimeout == 0 {
		p.CheckTimeout = DefaultCheckTimeout
	}
	if p.Concurrency == 0 {
		p.Concurrency = DefaultConcurrency
	}
	if len(p.TestEndpoints) == 0 {
		p.TestEndpoints = DefaultTestEndpoints
	}
	if p.CacheMaxAge == 0 {
		p.CacheMaxAge = DefaultCacheMaxAge
	}
	if c.Watch.VideoDelay.IsZero() {
		c.Watch.VideoDelay = Span{Min: 5, Max: 15}
	}
	if c.Watch.CycleDelay.IsZero() {
		c.Watch.CycleDelay = Span{Min: 10, Max: 10}
	}
}

// TargetURLs merges the inline URL list with the optional URLs file,
// keeping only http(s) entries and dropping duplicates.
func (w WatchConfig) TargetURLs() ([]string, error) {
	urls := make([]string, 0, len(w.URLs))
	seen := make(map[string]struct{}, len(w.URLs))

	add := func(u string) {
		u = strings.TrimSpace(u)
		if u == "" || !strings.HasPrefix(u, "http") {
			return
		}
		if _, ok := seen[u]; ok {
			return
		}
		seen[u] = struct{}{}
		urls = append(urls, u)
	}

	for _, u := range w.URLs {
		add(u)
	}

	if w.URLsFile != "" {
		f, err := os.Open(w.URLsFile)
		if err != nil {
			return nil, fmt.Errorf("opening URLs file %s: %w", w.URLsFile, err)
		}
		defer f.Close()

		sc := bufio.NewScanner(f)
		for sc.Scan() {
			add(sc.Text())
		}
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("reading URLs file %s: %w", w.URLsFile, err)
		}
	}

	return urls, nil
}

// ConfigFrom extracts the Config from the CLI command metadata.
func ConfigFrom(cmd *cli.Command) (*Config, error) {
	v, ok := cmd.Root().Metadata["config"]
	if !ok {
		return nil, fmt.Errorf("config not found in command metadata")
	}
	cfg, ok := v.(*Config)
	if !ok {
		return nil, fmt.Errorf("config has unexpected type %T", v)
	}
	return cfg, nil
}
