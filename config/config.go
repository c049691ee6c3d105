package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DataDirName is the per-project directory holding the index and config.
const DataDirName = ".captionrag"

// MaxEmbeddingBatch is the largest number of inputs sent in one embedding call.
const MaxEmbeddingBatch = 100

// Config holds all configuration for the caption QA pipeline.
type Config struct {
	Captions  CaptionsConfig  `yaml:"captions"`
	Chunking  ChunkingConfig  `yaml:"chunking"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	LLM       LLMConfig       `yaml:"llm"`
	Retrieve  RetrieveConfig  `yaml:"retrieve"`
	Answer    AnswerConfig    `yaml:"answer"`
	Cache     CacheConfig     `yaml:"cache"`
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// CaptionsConfig controls where captions come from and how deep links look.
type CaptionsConfig struct {
	Source       string   `yaml:"source"` // "dir", "ytdlp"
	Includes     []string `yaml:"includes"`
	Excludes     []string `yaml:"excludes"`
	Languages    []string `yaml:"languages"`
	WatchURL     string   `yaml:"watch_url"`     // video id and "&t=<start>s" are appended
	ThumbnailURL string   `yaml:"thumbnail_url"` // fmt pattern taking the video id
	YtDlpPath    string   `yaml:"ytdlp_path"`
	WorkDir      string   `yaml:"work_dir"`
}

// ChunkingConfig holds chunking configuration.
type ChunkingConfig struct {
	MaxTokens     int    `yaml:"max_tokens"`
	Tokenizer     string `yaml:"tokenizer"`      // "tiktoken", "words", "hf"
	Encoding      string `yaml:"encoding"`       // BPE encoding for "tiktoken"
	TokenizerFile string `yaml:"tokenizer_file"` // tokenizer.json for "hf"
}

// EmbeddingConfig holds embedding configuration.
type EmbeddingConfig struct {
	Provider          string        `yaml:"provider"`    // "openai", "ollama", "mock"
	Model             string        `yaml:"model"`       // e.g., "text-embedding-3-small"
	APIKeyEnv         string        `yaml:"api_key_env"` // Environment variable for API key
	BaseURL           string        `yaml:"base_url"`
	Dimension         int           `yaml:"dimension"`
	BatchSize         int           `yaml:"batch_size"`
	RequestsPerSecond float64       `yaml:"requests_per_second"` // 0 = unlimited
	Timeout           time.Duration `yaml:"timeout"`
}

// LLMConfig holds completion provider configuration.
type LLMConfig struct {
	Provider          string        `yaml:"provider"` // "openai", "ollama"
	Model             string        `yaml:"model"`
	APIKeyEnv         string        `yaml:"api_key_env"`
	BaseURL           string        `yaml:"base_url"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Timeout           time.Duration `yaml:"timeout"`
}

// RetrieveConfig holds retrieval configuration.
type RetrieveConfig struct {
	TopK      int `yaml:"top_k"`
	RetrieveK int `yaml:"retrieve_k"` // over-fetch pool handed to the re-ranker
	MaxTopK   int `yaml:"max_top_k"`  // largest top_k a request may ask for
}

// AnswerConfig holds re-ranking, synthesis and validation settings.
type AnswerConfig struct {
	RerankTemperature   float64 `yaml:"rerank_temperature"`
	Temperature         float64 `yaml:"temperature"`
	Validate            bool    `yaml:"validate"`
	ValidateTemperature float64 `yaml:"validate_temperature"`
	NoContentAnswer     string  `yaml:"no_content_answer"`
}

// CacheConfig holds answer cache configuration.
type CacheConfig struct {
	Backend     string        `yaml:"backend"` // "none", "memory", "redis"
	Size        int           `yaml:"size"`
	TTL         time.Duration `yaml:"ttl"`
	RedisAddr   string        `yaml:"redis_addr"`
	RedisPrefix string        `yaml:"redis_prefix"`
}

// ServerConfig holds HTTP API configuration.
type ServerConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "console", "json"
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Captions: CaptionsConfig{
			Source:       "dir",
			Includes:     []string{"**/*.vtt", "**/*.srt"},
			Excludes:     []string{"**/.git/**", "**/" + DataDirName + "/**"},
			Languages:    []string{"en"},
			WatchURL:     "https://www.youtube.com/watch?v=",
			ThumbnailURL: "https://img.youtube.com/vi/%s/hqdefault.jpg",
			YtDlpPath:    "yt-dlp",
			WorkDir:      "captions",
		},
		Chunking: ChunkingConfig{
			MaxTokens: 180,
			Tokenizer: "tiktoken",
			Encoding:  "cl100k_base",
		},
		Embedding: EmbeddingConfig{
			Provider:  "openai",
			Model:     "text-embedding-3-small",
			APIKeyEnv: "OPENAI_API_KEY",
			Dimension: 1536,
			BatchSize: 100,
			Timeout:   60 * time.Second,
		},
		LLM: LLMConfig{
			Provider:  "openai",
			Model:     "gpt-4o-mini",
			APIKeyEnv: "OPENAI_API_KEY",
			Timeout:   120 * time.Second,
		},
		Retrieve: RetrieveConfig{
			TopK:      5,
			RetrieveK: 15,
			MaxTopK:   100,
		},
		Answer: AnswerConfig{
			RerankTemperature:   0,
			Temperature:         0.2,
			Validate:            false,
			ValidateTemperature: 0.3,
			NoContentAnswer:     "Sorry, no relevant content was found in the video captions.",
		},
		Cache: CacheConfig{
			Backend:     "none",
			Size:        100,
			TTL:         5 * time.Minute,
			RedisAddr:   "localhost:6379",
			RedisPrefix: "captionrag:answer:",
		},
		Server: ServerConfig{
			Host:           "127.0.0.1",
			Port:           8000,
			RequestTimeout: 120 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Validate checks the configuration for values the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Chunking.MaxTokens <= 0 {
		return fmt.Errorf("chunking.max_tokens must be positive, got %d", c.Chunking.MaxTokens)
	}
	switch c.Chunking.Tokenizer {
	case "tiktoken", "words":
	case "hf":
		if c.Chunking.TokenizerFile == "" {
			return fmt.Errorf("chunking.tokenizer_file is required for the hf tokenizer")
		}
	default:
		return fmt.Errorf("unsupported tokenizer: %s", c.Chunking.Tokenizer)
	}
	if c.Embedding.BatchSize <= 0 || c.Embedding.BatchSize > MaxEmbeddingBatch {
		return fmt.Errorf("embedding.batch_size must be between 1 and %d, got %d", MaxEmbeddingBatch, c.Embedding.BatchSize)
	}
	if c.Retrieve.TopK <= 0 {
		return fmt.Errorf("retrieve.top_k must be positive, got %d", c.Retrieve.TopK)
	}
	if c.Retrieve.MaxTopK < c.Retrieve.TopK {
		return fmt.Errorf("retrieve.max_top_k (%d) must be >= retrieve.top_k (%d)", c.Retrieve.MaxTopK, c.Retrieve.TopK)
	}
	if c.Retrieve.RetrieveK < c.Retrieve.TopK {
		return fmt.Errorf("retrieve.retrieve_k (%d) must be >= retrieve.top_k (%d)", c.Retrieve.RetrieveK, c.Retrieve.TopK)
	}
	switch c.Captions.Source {
	case "dir", "ytdlp":
	default:
		return fmt.Errorf("unsupported caption source: %s", c.Captions.Source)
	}
	switch c.Cache.Backend {
	case "", "none", "memory", "redis":
	default:
		return fmt.Errorf("unsupported cache backend: %s", c.Cache.Backend)
	}
	return nil
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for captionrag.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "captionrag.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, DataDirName, "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// IndexDBPath returns the path to the index database.
func IndexDBPath(dir string) string {
	return filepath.Join(dir, DataDirName, "index.db")
}

// EnsureDataDir ensures the data directory exists.
func EnsureDataDir(dir string) error {
	return os.MkdirAll(filepath.Join(dir, DataDirName), 0755)
}
