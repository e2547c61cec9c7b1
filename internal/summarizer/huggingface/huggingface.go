// Package huggingface provides an abstractive summarizer backed by a hosted
// Hugging Face summarization model (facebook/bart-large-cnn by default).
package huggingface

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"docassist/internal/domain"
	"docassist/internal/hfapi"
	"docassist/internal/summarizer"
)

const (
	DefaultBaseURL = "https://api-inference.huggingface.co/models"
	DefaultModel   = "facebook/bart-large-cnn"
)

// Config configures the summarization client.
type Config struct {
	BaseURL           string
	APIKey            string
	Model             string
	Timeout           time.Duration
	RequestsPerSecond float64
	MaxRetries        int
}

// Summarizer calls the inference API with beam-search generation
// parameters. Length units are model tokens.
type Summarizer struct {
	api *hfapi.Client
}

func New(cfg Config) *Summarizer {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 2 * time.Minute
	}
	return &Summarizer{
		api: hfapi.New(hfapi.Config{
			URL:               hfapi.ModelURL(cfg.BaseURL, cfg.Model),
			APIKey:            cfg.APIKey,
			Timeout:           cfg.Timeout,
			RequestsPerSecond: cfg.RequestsPerSecond,
			MaxRetries:        cfg.MaxRetries,
			BaseDelay:         time.Second,
		}),
	}
}

func (s *Summarizer) Name() string { return "huggingface" }

type request struct {
	Inputs     string     `json:"inputs"`
	Parameters parameters `json:"parameters"`
	Options    options    `json:"options"`
}

type parameters struct {
	MinLength     int     `json:"min_length"`
	MaxLength     int     `json:"max_length"`
	LengthPenalty float64 `json:"length_penalty"`
	NumBeams      int     `json:"num_beams"`
	EarlyStopping bool    `json:"early_stopping"`
	Truncation    bool    `json:"truncation"`
}

type options struct {
	WaitForModel bool `json:"wait_for_model"`
}

type result struct {
	SummaryText string `json:"summary_text"`
}

// Summarize sends text to the model. Input longer than MaxInputTokens words
// is cut before sending and the server truncates anything still too long.
func (s *Summarizer) Summarize(ctx context.Context, text string, opts domain.SummarizeOptions) (string, error) {
	opts = summarizer.WithDefaults(opts)
	payload, err := s.api.Post(ctx, request{
		Inputs: summarizer.TruncateWords(text, opts.MaxInputTokens),
		Parameters: parameters{
			MinLength:     opts.MinLength,
			MaxLength:     opts.MaxLength,
			LengthPenalty: opts.LengthPenalty,
			NumBeams:      opts.NumBeams,
			EarlyStopping: opts.EarlyStopping,
			Truncation:    true,
		},
		Options: options{WaitForModel: true},
	})
	if err != nil {
		return "", domain.NewProviderError(s.Name(), err)
	}
	out, err := decodeSummary(payload)
	if err != nil {
		return "", domain.NewProviderError(s.Name(), err)
	}
	return out, nil
}

func decodeSummary(payload []byte) (string, error) {
	var results []result
	if err := json.Unmarshal(payload, &results); err != nil {
		var single result
		if err2 := json.Unmarshal(payload, &single); err2 != nil {
			return "", fmt.Errorf("decode response: %w", err)
		}
		results = []result{single}
	}
	if len(results) == 0 {
		return "", errors.New("no summary returned")
	}
	return strings.TrimSpace(results[0].SummaryText), nil
}
