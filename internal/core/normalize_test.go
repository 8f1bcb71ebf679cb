package core

import (
	"strings"
	"testing"
	"unicode"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"spam example", "WINNER!! You've been selected for a free $1000 gift card!", "winner youve been selected for a free 1000 gift card"},
		{"ham example", "Hey, are we still meeting for lunch tomorrow?", "hey are we still meeting for lunch tomorrow"},
		{"punctuation only", "!!!???", ""},
		{"whitespace runs are kept", "a  b\t\tc\n", "a  b\t\tc\n"},
		{"accents are removed not folded", "Café Crème", "caf crme"},
		{"emoji removed", "free 🎁 gift", "free  gift"},
		{"kelvin sign folds to k", "\u212Aelvin", "kelvin"},
		{"dotted capital i", "İstanbul", "istanbul"},
		{"digits kept", "CALL 0800-123", "call 0800123"},
		{"invalid utf8 dropped", "ok\xffgo", "okgo"},
		{"unicode whitespace kept", "a\u00a0b\u2003c", "a\u00a0b\u2003c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalizeProperties(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"URGENT: Your bank account needs verification. Click here now!",
		"Ça va? Ünïcödé ÀÉÎÕÜ ß ǅ",
		"\x1c\x1d\x1e\x1f",
		"tab\tnewline\nCR\rFF\fVT\v",
		"日本語のテキスト 123",
		"Mixed-CASE_with.punct;uation",
		"KİΣ",
	}

	for _, in := range inputs {
		out := Normalize(in)

		for _, r := range out {
			allowed := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || isSpace(r)
			assert.Truef(t, allowed, "unexpected rune %q in Normalize(%q)", r, in)
			if isSpace(r) {
				assert.Truef(t, strings.ContainsRune(in, r), "whitespace %q not present in input %q", r, in)
			}
		}

		assert.Equal(t, out, Normalize(out), "Normalize must be idempotent for %q", in)
	}
}

func TestIsBlank(t *testing.T) {
	assert.True(t, IsBlank(""))
	assert.True(t, IsBlank("   "))
	assert.True(t, IsBlank("\t\n "))
	assert.False(t, IsBlank("!!!???"))
	assert.False(t, IsBlank(" a "))
}

func TestIsSpace(t *testing.T) {
	for r := rune(0x1c); r <= 0x1f; r++ {
		assert.True(t, isSpace(r))
		assert.False(t, unicode.IsSpace(r))
	}
	assert.True(t, isSpace(' '))
	assert.False(t, isSpace('x'))
}
