package utils

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestTruncateText(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	tests := []struct {
		name    string
		text    string
		maxSize int
		want    string
	}{
		{"no limit", "hello", 0, "hello"},
		{"within limit", "hello", 5, "hello"},
		{"ascii cut", "hello world", 5, "hello..."},
		{"multibyte boundary", "héllo", 2, "h..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tp.TruncateText(tt.text, tt.maxSize)
			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got))
		})
	}
}

func TestSanitizeUTF8(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	assert.Equal(t, "free gift", tp.SanitizeUTF8("free gift"))
	assert.Equal(t, "free gift", tp.SanitizeUTF8("free\xff gift"))
	assert.Equal(t, "café", tp.SanitizeUTF8("café\xc3"))
	// a literal replacement character is valid text and is kept
	assert.Equal(t, "a\ufffdb", tp.SanitizeUTF8("a\ufffdb\xfe"))
}

func TestPreview(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	assert.Equal(t, "WINNER!! You've been selected", tp.Preview("WINNER!!\n  You've been\tselected"))

	long := tp.Preview(strings.Repeat("spam ", 50))
	assert.Equal(t, DefaultPreviewSize+len("..."), len(long))
	assert.True(t, strings.HasSuffix(long, "..."))
}
