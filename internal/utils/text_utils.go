package utils

import (
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

// DefaultPreviewSize is the number of bytes of a message shown in debug logs
const DefaultPreviewSize = 40

// TextProcessor provides utilities for handling user supplied message text
// at the edges of the application
type TextProcessor struct {
	logger *zap.Logger
}

// NewTextProcessor creates a new TextProcessor
func NewTextProcessor(logger *zap.Logger) *TextProcessor {
	return &TextProcessor{
		logger: logger,
	}
}

// TruncateText safely truncates text to at most maxSize bytes, cutting on a
// rune boundary, and marks the cut with an ellipsis
func (tp *TextProcessor) TruncateText(text string, maxSize int) string {
	if maxSize <= 0 || len(text) <= maxSize {
		return text
	}

	truncated := text[:maxSize]
	for !utf8.ValidString(truncated) && len(truncated) > 0 {
		truncated = truncated[:len(truncated)-1]
	}

	return truncated + "..."
}

// Preview returns a short single-line excerpt of a message for debug logs.
// Messages are never logged in full.
func (tp *TextProcessor) Preview(text string) string {
	line := strings.Join(strings.Fields(tp.SanitizeUTF8(text)), " ")
	return tp.TruncateText(line, DefaultPreviewSize)
}

// SanitizeUTF8 drops invalid UTF-8 bytes so that the text can be echoed back
// in HTML and JSON responses
func (tp *TextProcessor) SanitizeUTF8(text string) string {
	if utf8.ValidString(text) {
		return text
	}

	var b strings.Builder
	b.Grow(len(text))
	for i, r := range text {
		if r == utf8.RuneError {
			if _, size := utf8.DecodeRuneInString(text[i:]); size == 1 {
				continue
			}
		}
		b.WriteRune(r)
	}

	tp.logger.Debug("Text sanitized",
		zap.Int("original_size", len(text)),
		zap.Int("sanitized_size", b.Len()))

	return b.String()
}
