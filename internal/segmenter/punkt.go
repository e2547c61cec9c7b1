// Package segmenter splits normalized text into sentences.
package segmenter

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"

	"docassist/internal/domain"
)

// Punkt is a language-aware English sentence segmenter backed by the
// pretrained punkt model.
type Punkt struct {
	tokenizer *sentences.DefaultSentenceTokenizer
}

// NewPunkt loads the English punkt model.
func NewPunkt() (*Punkt, error) {
	tok, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		return nil, fmt.Errorf("load punkt model: %w", err)
	}
	return &Punkt{tokenizer: tok}, nil
}

// Segment returns the sentences of text in order, trimmed of surrounding
// whitespace.
func (p *Punkt) Segment(text string) ([]string, error) {
	if err := validate(text); err != nil {
		return nil, err
	}
	var out []string
	for _, s := range p.tokenizer.Tokenize(text) {
		if t := strings.TrimSpace(s.Text); t != "" {
			out = append(out, t)
		}
	}
	return out, nil
}

func validate(text string) error {
	if !utf8.ValidString(text) {
		return fmt.Errorf("%w: text is not valid UTF-8", domain.ErrSegmentation)
	}
	return nil
}
