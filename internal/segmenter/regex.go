package segmenter

import (
	"regexp"
	"strings"
)

// Regex splits on terminal punctuation. It is not language-aware and is
// kept for environments where the punkt model is unwanted.
type Regex struct {
	splitter *regexp.Regexp
}

func NewRegex() *Regex {
	return &Regex{splitter: regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`)}
}

// Segment returns terminal-punctuated sentences followed by any trailing
// unterminated text.
func (r *Regex) Segment(text string) ([]string, error) {
	if err := validate(text); err != nil {
		return nil, err
	}
	var out []string
	end := 0
	for _, loc := range r.splitter.FindAllStringIndex(text, -1) {
		if t := strings.TrimSpace(text[loc[0]:loc[1]]); t != "" {
			out = append(out, t)
		}
		end = loc[1]
	}
	if tail := strings.TrimSpace(text[end:]); tail != "" {
		out = append(out, tail)
	}
	return out, nil
}
