package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// OpenAIConfig holds connection settings for an OpenAI-compatible API.
type OpenAIConfig struct {
	BaseURL           string  `yaml:"base_url"`
	APIKeyEnv         string  `yaml:"api_key_env"`
	Model             string  `yaml:"model"`
	TimeoutSecs       int     `yaml:"timeout_secs"`
	RequestsPerSecond float64 `yaml:"requests_per_second,omitempty"`
	MaxRetries        int     `yaml:"max_retries,omitempty"`
}

// HuggingFaceConfig holds connection settings for the Hugging Face
// inference API.
type HuggingFaceConfig struct {
	BaseURL           string  `yaml:"base_url"`
	APIKeyEnv         string  `yaml:"api_key_env"`
	Model             string  `yaml:"model"`
	TimeoutSecs       int     `yaml:"timeout_secs"`
	RequestsPerSecond float64 `yaml:"requests_per_second,omitempty"`
	MaxRetries        int     `yaml:"max_retries,omitempty"`
}

// EmbedderConfig selects and configures the text embedder implementation.
type EmbedderConfig struct {
	Type        string             `yaml:"type"`
	Dimension   int                `yaml:"dimension,omitempty"`
	OpenAI      *OpenAIConfig      `yaml:"openai,omitempty"`
	HuggingFace *HuggingFaceConfig `yaml:"huggingface,omitempty"`
}

// SegmenterConfig selects the sentence segmenter.
type SegmenterConfig struct {
	Type string `yaml:"type"`
}

// ChunkerConfig configures how documents are split into chunks.
type ChunkerConfig struct {
	MaxChunkSize int `yaml:"max_chunk_size"`
}

// RankerConfig configures similarity ranking.
type RankerConfig struct {
	TopK int `yaml:"top_k"`
}

// SummarizerConfig selects and configures the summarizer.
type SummarizerConfig struct {
	Type           string             `yaml:"type"`
	MinLength      int                `yaml:"min_length"`
	MaxLength      int                `yaml:"max_length"`
	MaxInputTokens int                `yaml:"max_input_tokens"`
	NumBeams       int                `yaml:"num_beams"`
	LengthPenalty  float64            `yaml:"length_penalty"`
	EarlyStopping  bool               `yaml:"early_stopping"`
	HuggingFace    *HuggingFaceConfig `yaml:"huggingface,omitempty"`
	OpenAI         *OpenAIConfig      `yaml:"openai,omitempty"`
}

// PipelineConfig tunes ingestion.
type PipelineConfig struct {
	Workers int `yaml:"workers"`
}

// StorageConfig locates the document database.
type StorageConfig struct {
	Path string `yaml:"path"`
}

// LogConfig configures the application logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file,omitempty"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Embedder   EmbedderConfig   `yaml:"embedder"`
	Segmenter  SegmenterConfig  `yaml:"segmenter"`
	Chunker    ChunkerConfig    `yaml:"chunker"`
	Ranker     RankerConfig     `yaml:"ranker"`
	Summarizer SummarizerConfig `yaml:"summarizer"`
	Pipeline   PipelineConfig   `yaml:"pipeline"`
	Storage    StorageConfig    `yaml:"storage"`
	Log        LogConfig        `yaml:"log"`
}

// Timeout converts a seconds setting to a duration.
func Timeout(secs int) time.Duration {
	return time.Duration(secs) * time.Second
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := defaultConfig()
			applyConfigDefaults(cfg)
			return cfg, nil
		}
		return nil, err
	}
	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	applyConfigDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/docassist/config.yaml.
// If neither exists, it writes defaults to ~/.config/docassist/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	applyConfigDefaults(cfg)
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate rejects settings no component can run with.
func (c *AppConfig) Validate() error {
	switch c.Embedder.Type {
	case "hashing", "openai", "huggingface":
	default:
		return fmt.Errorf("unknown embedder type %q", c.Embedder.Type)
	}
	switch c.Segmenter.Type {
	case "punkt", "regex":
	default:
		return fmt.Errorf("unknown segmenter type %q", c.Segmenter.Type)
	}
	switch c.Summarizer.Type {
	case "frequency", "huggingface", "openai":
	default:
		return fmt.Errorf("unknown summarizer type %q", c.Summarizer.Type)
	}
	if c.Chunker.MaxChunkSize <= 0 {
		return errors.New("chunker.max_chunk_size must be positive")
	}
	if c.Ranker.TopK <= 0 {
		return errors.New("ranker.top_k must be positive")
	}
	if c.Summarizer.MinLength > c.Summarizer.MaxLength {
		return fmt.Errorf("summarizer.min_length %d exceeds max_length %d",
			c.Summarizer.MinLength, c.Summarizer.MaxLength)
	}
	return nil
}

func defaultUserConfigPath() (string, error) {
	dir, err := userConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

func userConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "docassist"), nil
}

func defaultStoragePath() string {
	dir, err := userConfigDir()
	if err != nil {
		return "docassist.db"
	}
	return filepath.Join(dir, "docassist.db")
}

const defaultEmbeddingDimension = 384

func defaultConfig() *AppConfig {
	return &AppConfig{
		Embedder:  EmbedderConfig{Type: "hashing"},
		Segmenter: SegmenterConfig{Type: "punkt"},
		Chunker:   ChunkerConfig{MaxChunkSize: 512},
		Ranker:    RankerConfig{TopK: 3},
		Summarizer: SummarizerConfig{
			Type:           "frequency",
			MinLength:      100,
			MaxLength:      300,
			MaxInputTokens: 1024,
			NumBeams:       4,
			LengthPenalty:  2.0,
			EarlyStopping:  true,
		},
		Pipeline: PipelineConfig{Workers: 4},
		Storage:  StorageConfig{Path: defaultStoragePath()},
		Log:      LogConfig{Level: "info", Format: "text"},
	}
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Pipeline.Workers <= 0 {
		cfg.Pipeline.Workers = 1
	}
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = defaultStoragePath()
	}
	// openai derives its size from the model unless one is set
	if cfg.Embedder.Dimension == 0 && cfg.Embedder.Type != "openai" {
		cfg.Embedder.Dimension = defaultEmbeddingDimension
	}
	if cfg.Embedder.Type == "openai" {
		if cfg.Embedder.OpenAI == nil {
			cfg.Embedder.OpenAI = &OpenAIConfig{}
		}
		applyOpenAIDefaults(cfg.Embedder.OpenAI, "text-embedding-3-small", 30)
	}
	if cfg.Embedder.Type == "huggingface" {
		if cfg.Embedder.HuggingFace == nil {
			cfg.Embedder.HuggingFace = &HuggingFaceConfig{}
		}
		applyHuggingFaceDefaults(cfg.Embedder.HuggingFace,
			"https://api-inference.huggingface.co/pipeline/feature-extraction",
			"sentence-transformers/all-MiniLM-L6-v2", 30)
	}
	if cfg.Summarizer.Type == "openai" {
		if cfg.Summarizer.OpenAI == nil {
			cfg.Summarizer.OpenAI = &OpenAIConfig{}
		}
		applyOpenAIDefaults(cfg.Summarizer.OpenAI, "gpt-4o-mini", 120)
	}
	if cfg.Summarizer.Type == "huggingface" {
		if cfg.Summarizer.HuggingFace == nil {
			cfg.Summarizer.HuggingFace = &HuggingFaceConfig{}
		}
		applyHuggingFaceDefaults(cfg.Summarizer.HuggingFace,
			"https://api-inference.huggingface.co/models", "facebook/bart-large-cnn", 120)
	}
}

func applyOpenAIDefaults(c *OpenAIConfig, model string, timeout int) {
	if c.BaseURL == "" {
		c.BaseURL = "https://api.openai.com/v1"
	}
	if c.APIKeyEnv == "" {
		c.APIKeyEnv = "OPENAI_API_KEY"
	}
	if c.Model == "" {
		c.Model = model
	}
	if c.TimeoutSecs == 0 {
		c.TimeoutSecs = timeout
	}
}

func applyHuggingFaceDefaults(c *HuggingFaceConfig, baseURL, model string, timeout int) {
	if c.BaseURL == "" {
		c.BaseURL = baseURL
	}
	if c.APIKeyEnv == "" {
		c.APIKeyEnv = "HF_API_TOKEN"
	}
	if c.Model == "" {
		c.Model = model
	}
	if c.TimeoutSecs == 0 {
		c.TimeoutSecs = timeout
	}
}
