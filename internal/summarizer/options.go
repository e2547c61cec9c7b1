// Package summarizer holds the summarization backends and the helpers they
// share for honoring length budgets.
package summarizer

import (
	"strings"

	"docassist/internal/domain"
)

// Defaults mirror facebook/bart-large-cnn generation settings.
const (
	DefaultMinLength      = 100
	DefaultMaxLength      = 300
	DefaultMaxInputTokens = 1024
	DefaultNumBeams       = 4
	DefaultLengthPenalty  = 2.0
)

// DefaultOptions returns the default summarization tunables.
func DefaultOptions() domain.SummarizeOptions {
	return domain.SummarizeOptions{
		MinLength:      DefaultMinLength,
		MaxLength:      DefaultMaxLength,
		MaxInputTokens: DefaultMaxInputTokens,
		NumBeams:       DefaultNumBeams,
		LengthPenalty:  DefaultLengthPenalty,
		EarlyStopping:  true,
	}
}

// WithDefaults fills zero-valued length fields and keeps MinLength within
// MaxLength.
func WithDefaults(opts domain.SummarizeOptions) domain.SummarizeOptions {
	if opts.MaxLength <= 0 {
		opts.MaxLength = DefaultMaxLength
	}
	if opts.MinLength < 0 {
		opts.MinLength = 0
	}
	if opts.MinLength > opts.MaxLength {
		opts.MinLength = opts.MaxLength
	}
	if opts.MaxInputTokens <= 0 {
		opts.MaxInputTokens = DefaultMaxInputTokens
	}
	if opts.NumBeams <= 0 {
		opts.NumBeams = 1
	}
	return opts
}

// TruncateWords keeps at most n whitespace-separated words of text,
// joined by single spaces. Non-positive n leaves text unchanged.
func TruncateWords(text string, n int) string {
	if n <= 0 {
		return text
	}
	words := strings.Fields(text)
	if len(words) <= n {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:n], " ")
}
