package viewer

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/chromedp/chromedp"
)

// Strategy names how a selector pattern is evaluated inside the page.
type Strategy string

const (
	// CSS evaluates the pattern with document.querySelector.
	CSS Strategy = "css"
	// XPath evaluates the pattern with document.evaluate.
	XPath Strategy = "xpath"
)

// Selector is one (strategy, pattern) pair in a prioritized list.
type Selector struct {
	Strategy Strategy
	Pattern  string
}

// Selector lists for the Rutube player page, in priority order. The page
// markup shifts between frontend releases, so each concern carries the
// variants seen in the wild.
var (
	cookieSelectors = []Selector{
		{XPath, `//button[contains(text(), 'Принять') or contains(text(), 'Accept')]`},
		{CSS, `button[data-testid='accept-cookies']`},
		{CSS, `.cookies-banner button`},
	}

	popupCloseSelectors = []Selector{
		{CSS, `button[aria-label='Закрыть']`},
		{CSS, `.modal__close, .popup-close, [class*='close-button']`},
		{XPath, `//button[contains(@class, 'close')]`},
	}

	playSelectors = []Selector{
		{CSS, `button[aria-label='Воспроизвести']`},
		{CSS, `.video-player__play-button, .play-button`},
		{XPath, `//button[@aria-label='Play']`},
	}
)

// findJS builds an expression that resolves the selector to an element or
// null inside the page.
func findJS(sel Selector) string {
	pattern := strconv.Quote(sel.Pattern)
	if sel.Strategy == XPath {
		return fmt.Sprintf(
			`document.evaluate(%s, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue`,
			pattern,
		)
	}
	return fmt.Sprintf(`document.querySelector(%s)`, pattern)
}

// findFirstMatch evaluates the selectors in order and returns the first
// one present in the page. Evaluation errors skip to the next selector.
func findFirstMatch(ctx context.Context, selectors []Selector) (Selector, bool) {
	for _, sel := range selectors {
		js := fmt.Sprintf(`(function() { return %s !== null; })()`, findJS(sel))

		var found bool
		if err := chromedp.Run(ctx, chromedp.Evaluate(js, &found)); err != nil {
			slog.Debug("selector evaluation failed", "strategy", sel.Strategy, "pattern", sel.Pattern, "error", err)
			continue
		}
		if found {
			return sel, true
		}
	}
	return Selector{}, false
}

// clickFirstMatch finds and clicks the first matching element. Returns
// false when nothing matched or the click could not be dispatched.
func clickFirstMatch(ctx context.Context, selectors []Selector) (Selector, bool) {
	for _, sel := range selectors {
		js := fmt.Sprintf(
			`(function() { const el = %s; if (!el) return false; el.click(); return true; })()`,
			findJS(sel),
		)

		var clicked bool
		if err := chromedp.Run(ctx, chromedp.Evaluate(js, &clicked)); err != nil {
			slog.Debug("selector click failed", "strategy", sel.Strategy, "pattern", sel.Pattern, "error", err)
			continue
		}
		if clicked {
			slog.Debug("clicked element", "strategy", sel.Strategy, "pattern", sel.Pattern)
			return sel, true
		}
	}
	return Selector{}, false
}
