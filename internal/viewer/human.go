package viewer

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"time"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"

	"github.com/Bogdanov1985/rutube-pilot/internal/browser"
)

// simulateActivity performs one round of low-cost human-looking input:
// a small scroll plus a curved mouse move to a random viewport point.
// Failures are swallowed; activity simulation must never fail a watch.
func simulateActivity(ctx context.Context, profile *browser.Profile) {
	scroll := rand.IntN(400) + 100
	if rand.IntN(4) == 0 {
		scroll = -scroll // occasionally scroll back up
	}
	js := fmt.Sprintf(`window.scrollBy({top: %d, behavior: 'smooth'})`, scroll)
	if err := chromedp.Run(ctx, chromedp.Evaluate(js, nil)); err != nil {
		slog.Debug("activity: scroll failed", "error", err)
	}

	fromX := rand.Float64() * float64(profile.ScreenWidth)
	fromY := rand.Float64() * float64(profile.ScreenHeight)
	toX := rand.Float64() * float64(profile.ScreenWidth)
	toY := rand.Float64() * float64(profile.ScreenHeight)

	if err := mouseMove(ctx, fromX, fromY, toX, toY); err != nil {
		slog.Debug("activity: mouse move failed", "error", err)
	}
}

// mouseMove dispatches mouse-moved events along a cubic bezier curve with
// per-step jitter, approximating a human hand rather than a teleport.
func mouseMove(ctx context.Context, fromX, fromY, toX, toY float64) error {
	distance := math.Hypot(toX-fromX, toY-fromY)

	steps := int(distance / 60)
	if steps < 5 {
		steps = 5
	}
	if steps > 25 {
		steps = 25
	}

	// Control points pull the path off the straight line.
	cp1X := fromX + (toX-fromX)*0.25 + (rand.Float64()-0.5)*50
	cp1Y := fromY + (toY-fromY)*0.25 + (rand.Float64()-0.5)*50
	cp2X := fromX + (toX-fromX)*0.75 + (rand.Float64()-0.5)*50
	cp2Y := fromY + (toY-fromY)*0.75 + (rand.Float64()-0.5)*50

	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		u := 1 - t

		x := u*u*u*fromX + 3*u*u*t*cp1X + 3*u*t*t*cp2X + t*t*t*toX
		y := u*u*u*fromY + 3*u*u*t*cp1Y + 3*u*t*t*cp2Y + t*t*t*toY

		x += (rand.Float64() - 0.5) * 2
		y += (rand.Float64() - 0.5) * 2

		err := chromedp.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
			return input.DispatchMouseEvent(input.MouseMoved, x, y).Do(ctx)
		}))
		if err != nil {
			return err
		}

		select {
		case <-time.After(time.Duration(16+rand.IntN(8)) * time.Millisecond):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
