package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"github.com/Bogdanov1985/rutube-pilot/internal/app"
)

// ErrSessionCreate marks a failure to start the browser at all. It is the
// only error fatal to a run; everything downstream is recorded per video.
var ErrSessionCreate = errors.New("browser session could not be created")

// Session owns the chromedp lifecycle for a single viewing attempt:
// the exec allocator, the browser context and the stealth bootstrap.
type Session struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	profile     *Profile
	closeOnce   sync.Once
}

// NewSession launches a stealth browser. When proxyAddr is non-empty all
// traffic is routed through that HTTP proxy. A bootstrap failure wraps
// ErrSessionCreate.
func NewSession(ctx context.Context, cfg app.BrowserConfig, profile *Profile, proxyAddr string) (*Session, error) {
	opts := allocatorOpts(cfg, profile, proxyAddr)

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	taskCtx, taskCancel := chromedp.NewContext(allocCtx)

	err := chromedp.Run(taskCtx,
		runtime.Enable(),
		network.Enable(),
		injectStealth(profile),
		injectCDPStealth(profile),
	)
	if err != nil {
		taskCancel()
		allocCancel()
		return nil, fmt.Errorf("%w: %v", ErrSessionCreate, err)
	}

	slog.Debug("browser session created",
		"ua", profile.UserAgent,
		"screen", fmt.Sprintf("%dx%d", profile.ScreenWidth, profile.ScreenHeight),
		"timezone", profile.TimezoneID,
		"mobile", profile.Mobile,
		"proxy", proxyAddr,
	)

	return &Session{
		ctx:         taskCtx,
		cancel:      taskCancel,
		allocCancel: allocCancel,
		profile:     profile,
	}, nil
}

// Context returns the chromedp task context for use with chromedp.Run.
func (s *Session) Context() context.Context {
	return s.ctx
}

// Profile returns the fingerprint identity this session runs under.
func (s *Session) Profile() *Profile {
	return s.profile
}

// Run executes actions against the session's browser.
func (s *Session) Run(actions ...chromedp.Action) error {
	return chromedp.Run(s.ctx, actions...)
}

// Close tears down the browser and allocator. Safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.cancel()
		s.allocCancel()
	})
}
