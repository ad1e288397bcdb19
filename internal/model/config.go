package model

import "time"

// Config is the complete qforge configuration
type Config struct {
	LLM        LLMConfig        `yaml:"llm" mapstructure:"llm"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit" mapstructure:"rate_limit"`
	Cache      CacheConfig      `yaml:"cache" mapstructure:"cache"`
	Generation GenerationConfig `yaml:"generation" mapstructure:"generation"`
	Batch      BatchConfig      `yaml:"batch" mapstructure:"batch"`
	Paths      PathsConfig      `yaml:"paths" mapstructure:"paths"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
	Metrics    MetricsConfig    `yaml:"metrics" mapstructure:"metrics"`
	HTTP       HTTPConfig       `yaml:"http" mapstructure:"http"`
}

// LLMConfig selects and configures the generation backend
type LLMConfig struct {
	Provider          string  `yaml:"provider" mapstructure:"provider"` // openai, anthropic, ollama
	Model             string  `yaml:"model" mapstructure:"model"`
	VerificationModel string  `yaml:"verification_model" mapstructure:"verification_model"` // Empty means same as Model
	APIKey            string  `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL           string  `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout           int     `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens         int     `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature       float64 `yaml:"temperature" mapstructure:"temperature"`
	MaxRetries        int     `yaml:"max_retries" mapstructure:"max_retries"`
}

// RateLimitConfig bounds request rate per model
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int     `yaml:"burst" mapstructure:"burst"`
}

// CacheConfig controls the backend response cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// GenerationConfig holds per-unit generation defaults
type GenerationConfig struct {
	QuestionsPerUnit      int     `yaml:"questions_per_unit" mapstructure:"questions_per_unit"`
	Difficulty            string  `yaml:"difficulty" mapstructure:"difficulty"`
	Verify                bool    `yaml:"verify" mapstructure:"verify"`
	VerificationAttempts  int     `yaml:"verification_attempts" mapstructure:"verification_attempts"`
	VerificationThreshold float64 `yaml:"verification_threshold" mapstructure:"verification_threshold"`
	Overgenerate          float64 `yaml:"overgenerate" mapstructure:"overgenerate"`
	Hints                 bool    `yaml:"hints" mapstructure:"hints"`
	ClassifyDomain        bool    `yaml:"classify_domain" mapstructure:"classify_domain"`
}

// BatchConfig controls unit grouping and admission
type BatchConfig struct {
	PagesPerGroup int  `yaml:"pages_per_group" mapstructure:"pages_per_group"`
	BatchSize     int  `yaml:"batch_size" mapstructure:"batch_size"`
	Shuffle       bool `yaml:"shuffle" mapstructure:"shuffle"`
	Resume        bool `yaml:"resume" mapstructure:"resume"`
}

// PathsConfig locates inputs and outputs
type PathsConfig struct {
	TextbooksDir string `yaml:"textbooks_dir" mapstructure:"textbooks_dir"`
	OutputDir    string `yaml:"output_dir" mapstructure:"output_dir"`
}

// LogConfig controls logger construction
type LogConfig struct {
	Mode  string `yaml:"mode" mapstructure:"mode"` // dev or prod
	Level string `yaml:"level" mapstructure:"level"`
}

// MetricsConfig controls the prometheus endpoint
type MetricsConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"` // Empty disables the endpoint
}

// HTTPConfig is used when fetching books from the web
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent    string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	HTTPProxy    string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy   string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy      string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:    "openai",
			Model:       "gpt-4o-mini",
			Timeout:     120,
			MaxTokens:   4096,
			Temperature: 0.7,
			MaxRetries:  3,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 5,
			Burst:             10,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       ".qforge-cache",
			MemoryTTL: time.Hour,
			DiskTTL:   7 * 24 * time.Hour,
		},
		Generation: GenerationConfig{
			QuestionsPerUnit:      10,
			Difficulty:            string(DifficultyUndergrad),
			Verify:                false,
			VerificationAttempts:  3,
			VerificationThreshold: 0.8,
			Overgenerate:          1.0,
		},
		Batch: BatchConfig{
			PagesPerGroup: 3,
			BatchSize:     100,
			Shuffle:       true,
			Resume:        true,
		},
		Paths: PathsConfig{
			TextbooksDir: "textbooks/txt",
			OutputDir:    "generated_questions",
		},
		Log: LogConfig{
			Mode:  "dev",
			Level: "info",
		},
		HTTP: HTTPConfig{
			Timeout:      60 * time.Second,
			UserAgent:    "qforge/0.1 (+https://github.com/ppiankov/qforge)",
			MaxBodyBytes: 50_000_000,
		},
	}
}
