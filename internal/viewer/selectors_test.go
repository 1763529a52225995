package viewer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFindJSCSS(t *testing.T) {
	js := findJS(Selector{CSS, `.play-button`})
	assert.Equal(t, `document.querySelector(".play-button")`, js)
}

func TestFindJSXPath(t *testing.T) {
	js := findJS(Selector{XPath, `//button[@aria-label='Play']`})
	assert.Contains(t, js, "document.evaluate(")
	assert.Contains(t, js, "FIRST_ORDERED_NODE_TYPE")
	assert.Contains(t, js, `"//button[@aria-label='Play']"`)
}

func TestFindJSQuotesPattern(t *testing.T) {
	// Patterns with quotes and non-ASCII must land inside a valid JS
	// string literal.
	js := findJS(Selector{XPath, `//button[contains(text(), 'Принять') or contains(text(), "Accept")]`})
	assert.NotContains(t, js, "\n")
	assert.True(t, strings.Count(js, `\"`) >= 2, "inner double quotes are escaped")
}

func TestSelectorListsNonEmpty(t *testing.T) {
	for _, selectors := range [][]Selector{cookieSelectors, popupCloseSelectors, playSelectors} {
		assert.NotEmpty(t, selectors)
		for _, sel := range selectors {
			assert.Contains(t, []Strategy{CSS, XPath}, sel.Strategy)
			assert.NotEmpty(t, sel.Pattern)
		}
	}
}
