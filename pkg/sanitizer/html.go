package sanitizer

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strictPolicy   *bluemonday.Policy
	fragmentPolicy *bluemonday.Policy
	initOnce       sync.Once
)

func initPolicies() {
	initOnce.Do(func() {
		strictPolicy = bluemonday.StrictPolicy()

		// Display fragments (labels, help, hints) get inline formatting, lists and links.
		fragmentPolicy = bluemonday.NewPolicy()
		fragmentPolicy.AllowStandardURLs()
		fragmentPolicy.AllowElements(
			"p", "br", "span",
			"strong", "b", "em", "i", "u", "small",
			"ul", "ol", "li",
			"code", "pre", "blockquote",
		)
		fragmentPolicy.AllowAttrs("href", "title").OnElements("a")
		fragmentPolicy.RequireNoFollowOnLinks(true)
		fragmentPolicy.AddTargetBlankToFullyQualifiedLinks(true)
	})
}

// StripHTML removes all markup, returning plain text.
func StripHTML(s string) string {
	initPolicies()
	return strings.TrimSpace(strictPolicy.Sanitize(s))
}

// SanitizeFragment keeps the formatting allowed in display fragments and
// drops scripts, event handlers and dangerous URLs.
func SanitizeFragment(s string) string {
	initPolicies()
	return fragmentPolicy.Sanitize(s)
}

// SanitizeHTMLCustom applies a custom bluemonday policy.
// Returns input unchanged if policy is nil.
func SanitizeHTMLCustom(s string, policy *bluemonday.Policy) string {
	if policy == nil {
		return s
	}
	return policy.Sanitize(s)
}
