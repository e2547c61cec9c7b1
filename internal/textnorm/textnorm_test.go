package textnorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "mixed whitespace", input: "a   b\n\tc", want: "a b c"},
		{name: "empty", input: "", want: ""},
		{name: "only whitespace", input: " \n\t\r ", want: ""},
		{name: "leading and trailing", input: "  hello world \n", want: "hello world"},
		{name: "unicode spaces", input: "one\u2003\u00a0two", want: "one two"},
		{name: "already normal", input: "Already normal.", want: "Already normal."},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Normalize(tc.input))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"",
		"a   b\n\tc",
		"\n\nParagraph one.\n\n  Paragraph\ttwo.  ",
		"x  y",
	}

	for _, s := range inputs {
		once := Normalize(s)
		assert.Equal(t, once, Normalize(once), "input %q", s)
	}
}

func TestIsStopword(t *testing.T) {
	for _, w := range []string{"the", "and", "between", "now"} {
		assert.True(t, IsStopword(w), w)
	}
	for _, w := range []string{"garden", "The", "", "fox"} {
		assert.False(t, IsStopword(w), w)
	}
}
