package viewer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/Bogdanov1985/rutube-pilot/internal/app"
	"github.com/Bogdanov1985/rutube-pilot/internal/browser"
)

// Per-video failure kinds. They become recorded outcomes, never escaping
// errors; only browser.ErrSessionCreate aborts a run.
var (
	ErrNavigation    = errors.New("navigation failed")
	ErrVideoNotFound = errors.New("video element not found")
)

// Outcome is the result of one watch attempt.
type Outcome struct {
	URL     string
	Proxy   string
	Started time.Time
	Planned time.Duration
	Watched time.Duration
	Success bool
	Err     error
}

// videoPresentJS reports whether a playable video element exists.
const videoPresentJS = `document.querySelector('video') !== null`

// resumeIfPausedJS restarts a paused player; the page sometimes pauses
// playback when it decides the tab is idle.
const resumeIfPausedJS = `
(function() {
  const v = document.querySelector('video');
  if (v && v.paused) { v.play(); return true; }
  return false;
})()`

// playFallbackJS starts playback directly on the media element when no
// play button could be clicked.
const playFallbackJS = `
(function() {
  const v = document.querySelector('video');
  if (!v) return false;
  v.play();
  return true;
})()`

// activityInterval is how often the watch loop simulates human input and
// checks for a paused player.
const activityInterval = 5 * time.Second

// Watch performs one browser-controlled viewing attempt: navigate, settle
// the page, start playback and hold it for the planned duration. The
// browser session is closed unconditionally on every exit path.
func Watch(ctx context.Context, cfg app.BrowserConfig, proxyAddr, targetURL string, planned time.Duration) Outcome {
	outcome := Outcome{
		URL:     targetURL,
		Proxy:   proxyAddr,
		Started: time.Now(),
		Planned: planned,
	}

	profile := browser.NewProfile(cfg.Mobile)

	sess, err := browser.NewSession(ctx, cfg, profile, proxyAddr)
	if err != nil {
		outcome.Err = err
		return outcome
	}
	defer sess.Close()

	if err := navigate(sess, targetURL, cfg.PageTimeout); err != nil {
		outcome.Err = fmt.Errorf("%w: %v", ErrNavigation, err)
		return outcome
	}
	browser.DebugSnapshot(sess.Context(), "after-nav")

	if !waitForVideo(sess, cfg.PageTimeout) {
		outcome.Err = ErrVideoNotFound
		return outcome
	}

	settlePage(sess)
	startPlayback(sess)
	browser.DebugSnapshot(sess.Context(), "playing")

	outcome.Watched = watchLoop(ctx, sess, planned)
	outcome.Success = outcome.Watched >= planned
	if !outcome.Success && outcome.Err == nil {
		outcome.Err = ctx.Err()
	}
	return outcome
}

// navigate runs the navigation with its own deadline. A child context is
// deliberately not used: canceling a child of the chromedp task context
// breaks the target in chromedp v0.14, so the timeout is raced instead.
func navigate(sess *browser.Session, targetURL string, timeout time.Duration) error {
	slog.Info("opening video", "url", targetURL)

	navDone := make(chan error, 1)
	go func() {
		navDone <- sess.Run(chromedp.Navigate(targetURL))
	}()

	select {
	case err := <-navDone:
		return err
	case <-time.After(timeout):
		return fmt.Errorf("timed out after %s", timeout)
	}
}

// waitForVideo polls for the video element within the page timeout.
func waitForVideo(sess *browser.Session, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		var present bool
		if err := sess.Run(chromedp.Evaluate(videoPresentJS, &present)); err != nil {
			slog.Debug("video poll failed", "error", err)
			return false
		}
		if present {
			return true
		}
		time.Sleep(500 * time.Millisecond)
	}
	return false
}

// settlePage dismisses the cookie banner and any popups, best effort.
func settlePage(sess *browser.Session) {
	if _, ok := clickFirstMatch(sess.Context(), cookieSelectors); ok {
		slog.Debug("accepted cookie banner")
		time.Sleep(time.Second)
	}
	if _, ok := clickFirstMatch(sess.Context(), popupCloseSelectors); ok {
		slog.Debug("closed popup")
	}
}

// startPlayback clicks the play control, falling back to video.play().
func startPlayback(sess *browser.Session) {
	if _, ok := clickFirstMatch(sess.Context(), playSelectors); ok {
		slog.Debug("clicked play button")
		return
	}

	var started bool
	if err := sess.Run(chromedp.Evaluate(playFallbackJS, &started)); err != nil || !started {
		slog.Debug("playback fallback failed", "started", started, "error", err)
	}
}

// watchLoop holds the page open for the planned duration, ticking once a
// second. Every activityInterval it simulates human input and resumes a
// paused player. Returns the time actually watched; an interrupt or a dead
// browser cuts the watch short.
func watchLoop(ctx context.Context, sess *browser.Session, planned time.Duration) time.Duration {
	slog.Info("watching", "duration", planned)

	start := time.Now()
	lastActivity := start

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return time.Since(start)
		case <-sess.Context().Done():
			return time.Since(start)
		case <-ticker.C:
		}

		if time.Since(start) >= planned {
			slog.Info("watch complete", "watched", time.Since(start).Round(time.Second))
			return planned
		}

		if time.Since(lastActivity) >= activityInterval {
			lastActivity = time.Now()
			simulateActivity(sess.Context(), sess.Profile())

			var resumed bool
			if err := sess.Run(chromedp.Evaluate(resumeIfPausedJS, &resumed)); err != nil {
				slog.Debug("pause check failed", "error", err)
			} else if resumed {
				slog.Debug("resumed paused video")
			}
		}
	}
}
