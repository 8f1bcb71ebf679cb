package core

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Normalize lowercases raw text and removes every character that is not an
// ASCII letter, an ASCII digit or whitespace. Removed characters are not
// replaced, so neighbouring tokens may merge ("you've" becomes "youve").
// Whitespace is kept exactly as it appears. Normalize is total and idempotent.
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}

	// Full Unicode lowering with the root locale: no Turkish dotless i
	// surprises, and letters such as the Kelvin sign fold to ASCII first.
	lowered := cases.Lower(language.Und).String(raw)

	var b strings.Builder
	b.Grow(len(lowered))
	for _, r := range lowered {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || isSpace(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// IsBlank reports whether raw has no content once surrounding whitespace is
// stripped
func IsBlank(raw string) bool {
	return strings.TrimFunc(raw, isSpace) == ""
}

// isSpace extends unicode.IsSpace with the ASCII information separators
// (U+001C..U+001F), which the training-time preprocessing treated as
// whitespace.
func isSpace(r rune) bool {
	return unicode.IsSpace(r) || (r >= 0x1c && r <= 0x1f)
}
