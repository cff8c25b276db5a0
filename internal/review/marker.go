package review

import (
	"regexp"

	"github.com/sevigo/code-pilot/internal/core"
)

// Marker is the literal the model appends when its improved code was cut off.
const Marker = "[CONTINUE]"

var markerRegex = regexp.MustCompile(`(?i)\[\s*CONTINUE\s*\]\s*`)

// DetectMarker reports whether text contains a continuation marker in any
// casing, with or without whitespace inside the brackets.
func DetectMarker(text string) bool {
	return markerRegex.MatchString(text)
}

// StripMarker removes every continuation marker together with the whitespace
// that follows it. Removing one marker can splice a new one together out of the
// surrounding text, so stripping repeats until none is left.
func StripMarker(text string) string {
	for markerRegex.MatchString(text) {
		text = markerRegex.ReplaceAllString(text, "")
	}
	return text
}

// ContinuationRequested is the single decision on whether another call is
// needed for the current chunk: either the explicit flag or an in-band marker.
func ContinuationRequested(res core.CompletionResult) bool {
	return res.Continue || DetectMarker(res.Code)
}
