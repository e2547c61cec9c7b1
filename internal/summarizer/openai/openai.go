// Package openai provides a summarizer backed by an OpenAI-compatible chat
// completions API.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"docassist/internal/domain"
	"docassist/internal/summarizer"
)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4o-mini"
)

const systemPrompt = "You summarize documents. Reply with plain prose sentences only, no headings or lists. " +
	"Write at least %d and at most %d words."

// Config configures the chat summarizer.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Summarizer asks a chat model for a summary. Length units are words for
// the prompt and tokens for the completion cap.
type Summarizer struct {
	api   *goopenai.Client
	model string
}

func New(cfg Config) (*Summarizer, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.APIKey == "" && cfg.BaseURL == DefaultBaseURL {
		return nil, errors.New("openai: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 2 * time.Minute
	}
	apiCfg := goopenai.DefaultConfig(cfg.APIKey)
	apiCfg.BaseURL = cfg.BaseURL
	apiCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	return &Summarizer{api: goopenai.NewClientWithConfig(apiCfg), model: cfg.Model}, nil
}

func (s *Summarizer) Name() string { return "openai" }

func (s *Summarizer) Summarize(ctx context.Context, text string, opts domain.SummarizeOptions) (string, error) {
	opts = summarizer.WithDefaults(opts)
	resp, err := s.api.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model: s.model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: fmt.Sprintf(systemPrompt, opts.MinLength, opts.MaxLength)},
			{Role: goopenai.ChatMessageRoleUser, Content: summarizer.TruncateWords(text, opts.MaxInputTokens)},
		},
		MaxTokens:   opts.MaxLength * 2,
		Temperature: 0,
	})
	if err != nil {
		return "", domain.NewProviderError(s.Name(), err)
	}
	if len(resp.Choices) == 0 {
		return "", domain.NewProviderError(s.Name(), errors.New("no choices returned"))
	}
	out := strings.TrimSpace(resp.Choices[0].Message.Content)
	return summarizer.TruncateWords(out, opts.MaxLength), nil
}
