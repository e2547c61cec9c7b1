package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"docassist/internal/chunker"
	"docassist/internal/config"
	"docassist/internal/domain"
	"docassist/internal/embedding/hashing"
	"docassist/internal/embedding/huggingface"
	"docassist/internal/embedding/openai"
	"docassist/internal/extract"
	"docassist/internal/logging"
	"docassist/internal/ranker"
	"docassist/internal/repository/sqlite"
	"docassist/internal/segmenter"
	"docassist/internal/service"
	"docassist/internal/summarizer"
	hfsummarizer "docassist/internal/summarizer/huggingface"
	oaisummarizer "docassist/internal/summarizer/openai"
)

// app holds the components shared by all commands.
type app struct {
	cfg        *config.AppConfig
	log        *slog.Logger
	closeLog   func() error
	store      *sqlite.Store
	extractors *extract.Registry
	registry   *service.Registry
}

func newApp(cfgPath string) (*app, error) {
	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, closeLog, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}

	pipeline, err := buildPipeline(cfg, logger)
	if err != nil {
		closeLog()
		return nil, err
	}

	store, err := sqlite.NewStore(cfg.Storage.Path)
	if err != nil {
		closeLog()
		return nil, err
	}

	extractors := extract.Default()
	return &app{
		cfg:        cfg,
		log:        logger,
		closeLog:   closeLog,
		store:      store,
		extractors: extractors,
		registry:   service.NewRegistry(pipeline, extractors, store, logger),
	}, nil
}

func (a *app) Close() error {
	return errors.Join(a.store.Close(), a.closeLog())
}

func buildPipeline(cfg *config.AppConfig, logger *slog.Logger) (*service.Pipeline, error) {
	seg, err := buildSegmenter(cfg.Segmenter)
	if err != nil {
		return nil, err
	}
	emb, err := buildEmbedder(cfg.Embedder)
	if err != nil {
		return nil, err
	}
	sum, err := buildSummarizer(cfg.Summarizer)
	if err != nil {
		return nil, err
	}
	return service.NewPipeline(service.Options{
		Chunker:        chunker.NewBuilder(seg, cfg.Chunker.MaxChunkSize),
		Embedder:       emb,
		Ranker:         ranker.New(cfg.Ranker.TopK),
		Summarizer:     sum,
		SummaryOptions: summaryOptions(cfg.Summarizer),
		Workers:        cfg.Pipeline.Workers,
		Logger:         logger,
	})
}

func buildSegmenter(cfg config.SegmenterConfig) (domain.Segmenter, error) {
	switch cfg.Type {
	case "punkt", "":
		return segmenter.NewPunkt()
	case "regex":
		return segmenter.NewRegex(), nil
	}
	return nil, fmt.Errorf("unknown segmenter: %s", cfg.Type)
}

func buildEmbedder(cfg config.EmbedderConfig) (domain.Embedder, error) {
	switch cfg.Type {
	case "hashing", "":
		return hashing.NewEmbedder(cfg.Dimension), nil
	case "openai":
		if cfg.OpenAI == nil {
			return nil, errors.New("openai embedder config missing")
		}
		client, err := openai.NewClient(openai.Config{
			BaseURL:           cfg.OpenAI.BaseURL,
			APIKey:            os.Getenv(cfg.OpenAI.APIKeyEnv),
			Model:             cfg.OpenAI.Model,
			Timeout:           config.Timeout(cfg.OpenAI.TimeoutSecs),
			Dimension:         cfg.Dimension,
			RequestsPerSecond: cfg.OpenAI.RequestsPerSecond,
			MaxRetries:        cfg.OpenAI.MaxRetries,
		})
		if err != nil {
			return nil, fmt.Errorf("openai embedder init failed: %w", err)
		}
		return client, nil
	case "huggingface":
		if cfg.HuggingFace == nil {
			return nil, errors.New("huggingface embedder config missing")
		}
		return huggingface.NewClient(huggingface.Config{
			BaseURL:           cfg.HuggingFace.BaseURL,
			APIKey:            os.Getenv(cfg.HuggingFace.APIKeyEnv),
			Model:             cfg.HuggingFace.Model,
			Dimension:         cfg.Dimension,
			Timeout:           config.Timeout(cfg.HuggingFace.TimeoutSecs),
			RequestsPerSecond: cfg.HuggingFace.RequestsPerSecond,
			MaxRetries:        cfg.HuggingFace.MaxRetries,
		}), nil
	}
	return nil, fmt.Errorf("unknown embedder: %s", cfg.Type)
}

func buildSummarizer(cfg config.SummarizerConfig) (domain.Summarizer, error) {
	switch cfg.Type {
	case "frequency", "":
		return summarizer.NewFrequencySummarizer(), nil
	case "huggingface":
		if cfg.HuggingFace == nil {
			return nil, errors.New("huggingface summarizer config missing")
		}
		return hfsummarizer.New(hfsummarizer.Config{
			BaseURL:           cfg.HuggingFace.BaseURL,
			APIKey:            os.Getenv(cfg.HuggingFace.APIKeyEnv),
			Model:             cfg.HuggingFace.Model,
			Timeout:           config.Timeout(cfg.HuggingFace.TimeoutSecs),
			RequestsPerSecond: cfg.HuggingFace.RequestsPerSecond,
			MaxRetries:        cfg.HuggingFace.MaxRetries,
		}), nil
	case "openai":
		if cfg.OpenAI == nil {
			return nil, errors.New("openai summarizer config missing")
		}
		s, err := oaisummarizer.New(oaisummarizer.Config{
			BaseURL: cfg.OpenAI.BaseURL,
			APIKey:  os.Getenv(cfg.OpenAI.APIKeyEnv),
			Model:   cfg.OpenAI.Model,
			Timeout: config.Timeout(cfg.OpenAI.TimeoutSecs),
		})
		if err != nil {
			return nil, fmt.Errorf("openai summarizer init failed: %w", err)
		}
		return s, nil
	}
	return nil, fmt.Errorf("unknown summarizer: %s", cfg.Type)
}

func summaryOptions(cfg config.SummarizerConfig) domain.SummarizeOptions {
	return domain.SummarizeOptions{
		MinLength:      cfg.MinLength,
		MaxLength:      cfg.MaxLength,
		MaxInputTokens: cfg.MaxInputTokens,
		NumBeams:       cfg.NumBeams,
		LengthPenalty:  cfg.LengthPenalty,
		EarlyStopping:  cfg.EarlyStopping,
	}
}
