package summarizer

import (
	"context"
	"math"
	"regexp"
	"sort"
	"strings"

	"docassist/internal/domain"
	"docassist/internal/textnorm"
)

// FrequencySummarizer is an offline, deterministic extractive summarizer.
// It ranks sentences by normalized word frequency (stopwords filtered) and
// keeps the best ones, in document order, until the minimum length is
// reached. Lengths are counted in words; the beam tunables do not apply.
type FrequencySummarizer struct {
	tokenPattern *regexp.Regexp
	sentencePat  *regexp.Regexp
}

// NewFrequencySummarizer creates a frequency-based sentence ranker summarizer.
func NewFrequencySummarizer() *FrequencySummarizer {
	return &FrequencySummarizer{
		tokenPattern: regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`),
		sentencePat:  regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`),
	}
}

func (s *FrequencySummarizer) Name() string { return "frequency" }

// Summarize returns a summary of between opts.MinLength and opts.MaxLength
// words where the input allows it.
func (s *FrequencySummarizer) Summarize(ctx context.Context, text string, opts domain.SummarizeOptions) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	opts = WithDefaults(opts)
	text = TruncateWords(text, opts.MaxInputTokens)
	sentences := s.sentences(text)
	if len(sentences) == 0 {
		return "", nil
	}
	// Compute word frequencies
	freq := map[string]float64{}
	for _, sent := range sentences {
		for _, tok := range s.tokens(sent) {
			if textnorm.IsStopword(tok) {
				continue
			}
			freq[tok]++
		}
	}
	// Normalize frequencies
	maxF := 0.0
	for _, v := range freq {
		if v > maxF {
			maxF = v
		}
	}
	if maxF > 0 {
		for k, v := range freq {
			freq[k] = v / maxF
		}
	}
	// Score sentences
	type pair struct {
		idx   int
		score float64
	}
	scores := make([]pair, len(sentences))
	for i, sent := range sentences {
		sscore := 0.0
		toks := s.tokens(sent)
		for _, tok := range toks {
			if v, ok := freq[tok]; ok {
				sscore += v
			}
		}
		// Normalize by sentence length to avoid bias
		if l := float64(len(toks)); l > 0 {
			sscore /= math.Sqrt(l)
		}
		scores[i] = pair{i, sscore}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })

	var selected []int
	words := 0
	for _, p := range scores {
		if words >= opts.MinLength {
			break
		}
		n := len(strings.Fields(sentences[p.idx]))
		if words > 0 && words+n > opts.MaxLength {
			continue
		}
		selected = append(selected, p.idx)
		words += n
	}
	// Keep original order among selected
	sort.Ints(selected)
	out := make([]string, 0, len(selected))
	for _, idx := range selected {
		out = append(out, sentences[idx])
	}
	return TruncateWords(strings.Join(out, " "), opts.MaxLength), nil
}

func (s *FrequencySummarizer) sentences(text string) []string {
	var out []string
	end := 0
	for _, loc := range s.sentencePat.FindAllStringIndex(text, -1) {
		if t := strings.TrimSpace(text[loc[0]:loc[1]]); t != "" {
			out = append(out, t)
		}
		end = loc[1]
	}
	if tail := strings.TrimSpace(text[end:]); tail != "" {
		out = append(out, tail)
	}
	return out
}

func (s *FrequencySummarizer) tokens(text string) []string {
	lower := strings.ToLower(text)
	return s.tokenPattern.FindAllString(lower, -1)
}
