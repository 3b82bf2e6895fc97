// Package sanitize provides HTML stripping and length capping for every text
// field that crosses the service boundary.
//
// Two policies exist:
//   - Strip: zero-tag allow-list for user input headed to the provider
//   - Display: a small formatting allow-list for provider output headed to
//     the user
//
// Both are built on bluemonday and never fail; hostile or malformed markup
// degrades to plain text.
package sanitize

import (
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

// Field caps in characters. Values match the provider token policy this
// service is tuned against, not any HTML consideration.
const (
	ThreadMaxChars     = 6000
	SuggestionMaxChars = 2000
	ToneMaxChars       = 50
	ResponseMaxChars   = 10000
)

var (
	// strictPolicy removes every tag and attribute.
	strictPolicy = bluemonday.StrictPolicy()

	// displayPolicy keeps basic formatting in model output shown to users.
	displayPolicy = newDisplayPolicy()
)

func newDisplayPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("p", "br", "b", "i", "ul", "ol", "li")
	return p
}

// Strip removes all markup from text and truncates the result to max
// characters. Empty input yields the empty string; max <= 0 means no cap.
//
// Example:
//
//	sanitize.Strip("<script>x</script>hello", sanitize.ThreadMaxChars)
//	// "hello"
func Strip(text string, max int) string {
	if text == "" {
		return ""
	}
	return truncate(strictPolicy.Sanitize(text), max)
}

// Display removes markup from model output while keeping the small
// formatting allow-list (p, br, b, i, ul, ol, li), then truncates to max.
func Display(text string, max int) string {
	if text == "" {
		return ""
	}
	return truncate(displayPolicy.Sanitize(text), max)
}

// Normalize collapses runs of whitespace to single spaces, trims, and
// lower-cases text. Used to derive cache keys so that casing and incidental
// whitespace differences hit the same entry.
func Normalize(text string) string {
	fields := strings.Fields(strings.ToLower(text))
	return strings.Join(fields, " ")
}

// truncate cuts text to max characters without splitting a UTF-8 sequence.
func truncate(text string, max int) string {
	if max <= 0 || len(text) <= max {
		return text
	}
	cut := text[:max]
	for len(cut) > 0 && !utf8.ValidString(cut) {
		cut = cut[:len(cut)-1]
	}
	return cut
}
