// Package huggingface provides an embedder backed by the Hugging Face
// inference feature-extraction endpoint (e.g. all-MiniLM-L6-v2).
package huggingface

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"docassist/internal/domain"
	"docassist/internal/hfapi"
)

const (
	DefaultBaseURL   = "https://api-inference.huggingface.co/pipeline/feature-extraction"
	DefaultModel     = "sentence-transformers/all-MiniLM-L6-v2"
	DefaultDimension = 384
)

// Config configures the feature-extraction client.
type Config struct {
	BaseURL           string
	APIKey            string
	Model             string
	Dimension         int
	Timeout           time.Duration
	RequestsPerSecond float64
	MaxRetries        int
}

// Client embeds text through a feature-extraction pipeline.
type Client struct {
	api       *hfapi.Client
	dimension int
}

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Dimension <= 0 {
		cfg.Dimension = DefaultDimension
	}
	return &Client{
		api: hfapi.New(hfapi.Config{
			URL:               hfapi.ModelURL(cfg.BaseURL, cfg.Model),
			APIKey:            cfg.APIKey,
			Timeout:           cfg.Timeout,
			RequestsPerSecond: cfg.RequestsPerSecond,
			MaxRetries:        cfg.MaxRetries,
			BaseDelay:         500 * time.Millisecond,
		}),
		dimension: cfg.Dimension,
	}
}

// Name returns the identifier of this embedder implementation.
func (c *Client) Name() string { return "huggingface" }

// Dimension returns the dimensionality of the produced embedding vectors.
func (c *Client) Dimension() int { return c.dimension }

type request struct {
	Inputs  string  `json:"inputs"`
	Options options `json:"options"`
}

type options struct {
	WaitForModel bool `json:"wait_for_model"`
}

// Embed returns the sentence embedding of text. Token-level responses are
// mean-pooled.
func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	payload, err := c.api.Post(ctx, request{Inputs: text, Options: options{WaitForModel: true}})
	if err != nil {
		return nil, domain.NewProviderError(c.Name(), err)
	}
	vec, err := decodeEmbedding(payload)
	if err != nil {
		return nil, domain.NewProviderError(c.Name(), err)
	}
	return vec, nil
}

func decodeEmbedding(payload []byte) ([]float64, error) {
	var flat []float64
	if err := json.Unmarshal(payload, &flat); err == nil && len(flat) > 0 {
		return flat, nil
	}
	var tokens [][]float64
	if err := json.Unmarshal(payload, &tokens); err == nil && len(tokens) > 0 {
		return meanPool(tokens), nil
	}
	var batched [][][]float64
	if err := json.Unmarshal(payload, &batched); err == nil && len(batched) > 0 && len(batched[0]) > 0 {
		return meanPool(batched[0]), nil
	}
	return nil, errors.New("no embedding returned")
}

func meanPool(tokens [][]float64) []float64 {
	out := make([]float64, len(tokens[0]))
	for _, tok := range tokens {
		for i := range out {
			if i < len(tok) {
				out[i] += tok[i]
			}
		}
	}
	for i := range out {
		out[i] /= float64(len(tokens))
	}
	return out
}
