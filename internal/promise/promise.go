// Package promise detects machine-checkable completion markers in agent
// output. An agent asserts completion by emitting the expected token
// wrapped in a sentinel marker, e.g.:
//
//	All tests pass, work is done. <<PROMISE>>DONE<<PROMISE>>
//
// The sentinel is deliberately greppable and distinct from ordinary prose.
package promise

import (
	"regexp"
	"strings"
)

// Marker is the delimiter that opens and closes a completion signal.
const Marker = "<<PROMISE>>"

// markerPattern matches the first marker pair, non-greedy so the token
// may span multiple lines without swallowing a second marker.
var markerPattern = regexp.MustCompile(`(?s)<<PROMISE>>(.*?)<<PROMISE>>`)

// whitespaceRuns collapses internal whitespace for normalization.
var whitespaceRuns = regexp.MustCompile(`\s+`)

// Detect searches output for a well-formed completion marker and returns
// the enclosed text, normalized. If multiple markers are present the
// first match wins. The second return is false when no marker is found.
func Detect(output string) (string, bool) {
	m := markerPattern.FindStringSubmatch(output)
	if m == nil {
		return "", false
	}
	return Normalize(m[1]), true
}

// Matches reports whether output carries a completion signal exactly
// equal to the expected token. Comparison is case-sensitive; both sides
// are normalized first.
func Matches(output, expected string) bool {
	token, ok := Detect(output)
	if !ok {
		return false
	}
	return token == Normalize(expected)
}

// Format wraps a token in the marker pair, for prompts that instruct an
// agent how to signal completion.
func Format(token string) string {
	return Marker + token + Marker
}

// Normalize trims surrounding whitespace and collapses internal
// whitespace runs to single spaces.
func Normalize(token string) string {
	return whitespaceRuns.ReplaceAllString(strings.TrimSpace(token), " ")
}
