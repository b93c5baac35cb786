// Package config handles configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	// Server configuration
	Host string `envconfig:"MATHFISH_HOST" yaml:"host"`
	Port int    `envconfig:"MATHFISH_PORT" yaml:"port"`

	// Data file locations
	Data DataConfig `yaml:"data"`

	// Annotation assignment settings
	Annotation AnnotationConfig `yaml:"annotation"`

	// Baseline retrieval settings
	Baseline BaselineConfig `yaml:"baseline"`

	// Qdrant configuration (baseline type "qdrant")
	Qdrant QdrantConfig `yaml:"qdrant"`

	// LLM benchmark configuration
	LLM LLMConfig `yaml:"llm"`

	// Bus configuration
	Bus BusConfig `yaml:"bus"`

	// Metrics configuration
	Metrics MetricsConfig `yaml:"metrics"`

	// Logging configuration
	Log LogConfig `yaml:"log"`

	// Security configuration
	Security SecurityConfig `yaml:"security"`
}

// DataConfig holds the locations of data files.
// Relative paths are resolved against the working directory.
type DataConfig struct {
	TrainFile       string `envconfig:"MATHFISH_TRAIN_FILE" yaml:"train_file"`
	StandardsFile   string `envconfig:"MATHFISH_STANDARDS_FILE" yaml:"standards_file"`
	ProblemsFile    string `envconfig:"MATHFISH_PROBLEMS_FILE" yaml:"problems_file"`
	AssignmentsFile string `envconfig:"MATHFISH_ASSIGNMENTS_FILE" yaml:"assignments_file"`
	AnnotationsDir  string `envconfig:"MATHFISH_ANNOTATIONS_DIR" yaml:"annotations_dir"`
	PredictionsDir  string `envconfig:"MATHFISH_PREDICTIONS_DIR" yaml:"predictions_dir"`
	ResultsDir      string `envconfig:"MATHFISH_RESULTS_DIR" yaml:"results_dir"`
}

// AnnotationConfig holds annotation assignment settings.
type AnnotationConfig struct {
	Annotators    []string `envconfig:"MATHFISH_ANNOTATORS" yaml:"annotators"`
	OverlapCount  int      `envconfig:"MATHFISH_OVERLAP_COUNT" yaml:"overlap_count"`
	UniqueCount   int      `envconfig:"MATHFISH_UNIQUE_COUNT" yaml:"unique_count"`
	Seed          int64    `envconfig:"MATHFISH_SEED" yaml:"seed"`
	MinTextLength int      `envconfig:"MATHFISH_MIN_TEXT_LENGTH" yaml:"min_text_length"`
	MaxTextLength int      `envconfig:"MATHFISH_MAX_TEXT_LENGTH" yaml:"max_text_length"`
}

// BaselineConfig holds baseline retrieval settings.
type BaselineConfig struct {
	Type string `envconfig:"MATHFISH_BASELINE_TYPE" yaml:"type"` // memory or qdrant
	TopK int    `envconfig:"MATHFISH_BASELINE_TOP_K" yaml:"top_k"`
}

// QdrantConfig holds Qdrant connection settings.
type QdrantConfig struct {
	URL              string `envconfig:"QDRANT_URL" yaml:"url"`
	APIKey           string `envconfig:"QDRANT_API_KEY" yaml:"api_key"`
	CollectionPrefix string `envconfig:"QDRANT_COLLECTION_PREFIX" yaml:"collection_prefix"`
}

// LLMConfig holds LLM benchmark settings.
// API keys are environment-only and never read from YAML.
type LLMConfig struct {
	OpenAIKey    string `envconfig:"OPENAI_API_KEY" yaml:"-"`
	AnthropicKey string `envconfig:"ANTHROPIC_API_KEY" yaml:"-"`
	GoogleKey    string `envconfig:"GOOGLE_API_KEY" yaml:"-"`

	OpenAIModel    string `envconfig:"MATHFISH_OPENAI_MODEL" yaml:"openai_model"`
	AnthropicModel string `envconfig:"MATHFISH_ANTHROPIC_MODEL" yaml:"anthropic_model"`
	GoogleModel    string `envconfig:"MATHFISH_GOOGLE_MODEL" yaml:"google_model"`

	MaxTokens       int           `envconfig:"MATHFISH_LLM_MAX_TOKENS" yaml:"max_tokens"`
	MaxRetries      int           `envconfig:"MATHFISH_LLM_MAX_RETRIES" yaml:"max_retries"`
	RetryBaseDelay  time.Duration `envconfig:"MATHFISH_LLM_RETRY_BASE_DELAY" yaml:"retry_base_delay"`
	RequestInterval time.Duration `envconfig:"MATHFISH_LLM_REQUEST_INTERVAL" yaml:"request_interval"`
	RequestTimeout  time.Duration `envconfig:"MATHFISH_LLM_REQUEST_TIMEOUT" yaml:"request_timeout"`
	CacheSize       int           `envconfig:"MATHFISH_LLM_CACHE_SIZE" yaml:"cache_size"`
}

// BusConfig holds event bus settings.
type BusConfig struct {
	Type         string `envconfig:"MATHFISH_BUS_TYPE" yaml:"type"` // memory or kafka
	KafkaBrokers string `envconfig:"MATHFISH_KAFKA_BROKERS" yaml:"kafka_brokers"`
}

// MetricsConfig holds metrics settings.
type MetricsConfig struct {
	Enabled  bool   `envconfig:"MATHFISH_METRICS_ENABLED" yaml:"enabled"`
	Path     string `envconfig:"MATHFISH_METRICS_PATH" yaml:"path"`
	RedisURL string `envconfig:"MATHFISH_METRICS_REDIS_URL" yaml:"redis_url"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `envconfig:"MATHFISH_LOG_LEVEL" yaml:"level"`
	Format string `envconfig:"MATHFISH_LOG_FORMAT" yaml:"format"`
	File   string `envconfig:"MATHFISH_LOG_FILE" yaml:"file"`
}

// SecurityConfig holds security settings.
type SecurityConfig struct {
	RateLimit   int    `envconfig:"MATHFISH_RATE_LIMIT" yaml:"rate_limit"` // 0 = disabled
	CORSOrigins string `envconfig:"MATHFISH_CORS_ORIGINS" yaml:"cors_origins"`
}

// Load loads configuration from environment variables and optional config file.
func Load(configPath string) (*Config, error) {
	cfg := &Config{}

	// Set defaults first
	setDefaults(cfg)

	// Load from YAML file if provided (overrides defaults)
	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	// Override with environment variables (highest priority)
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("processing env config: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables only.
func LoadFromEnv() (*Config, error) {
	return Load("")
}

func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, cfg)
}

func setDefaults(cfg *Config) {
	cfg.Host = "localhost"
	cfg.Port = 8000

	cfg.Data = DataConfig{
		TrainFile:       "mathfish_train.jsonl",
		StandardsFile:   "standards.jsonl",
		ProblemsFile:    "annotations/problems.json",
		AssignmentsFile: "annotations/assignments.json",
		AnnotationsDir:  "annotations",
		PredictionsDir:  "preds",
		ResultsDir:      "results",
	}

	cfg.Annotation = AnnotationConfig{
		OverlapCount:  20,
		UniqueCount:   5,
		Seed:          42,
		MinTextLength: 20,
		MaxTextLength: 2000,
	}

	cfg.Baseline = BaselineConfig{
		Type: "memory",
		TopK: 3,
	}

	cfg.Qdrant = QdrantConfig{
		URL:              "http://localhost:6333",
		CollectionPrefix: "mathfish_",
	}

	cfg.LLM = LLMConfig{
		OpenAIModel:     "gpt-5.2",
		AnthropicModel:  "claude-sonnet-4-6",
		GoogleModel:     "gemini-3.1-pro-preview",
		MaxTokens:       300,
		MaxRetries:      3,
		RetryBaseDelay:  1500 * time.Millisecond,
		RequestInterval: 100 * time.Millisecond,
		RequestTimeout:  60 * time.Second,
		CacheSize:       10000,
	}

	cfg.Bus = BusConfig{
		Type: "memory",
	}

	cfg.Metrics = MetricsConfig{
		Enabled: true,
		Path:    "/metrics",
	}

	cfg.Log = LogConfig{
		Level:  "info",
		Format: "text",
	}

	cfg.Security = SecurityConfig{
		RateLimit:   0,
		CORSOrigins: "*",
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	var errs []string

	// Server validation
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, "port must be between 1 and 65535")
	}

	// Annotation validation
	if c.Annotation.OverlapCount < 0 {
		errs = append(errs, "overlap_count must not be negative")
	}

	if c.Annotation.UniqueCount < 0 {
		errs = append(errs, "unique_count must not be negative")
	}

	if c.Annotation.MinTextLength < 1 {
		errs = append(errs, "min_text_length must be positive")
	}

	if c.Annotation.MaxTextLength <= c.Annotation.MinTextLength {
		errs = append(errs, "max_text_length must be greater than min_text_length")
	}

	// Baseline validation
	validBaselineTypes := map[string]bool{"memory": true, "qdrant": true}
	if !validBaselineTypes[c.Baseline.Type] {
		errs = append(errs, fmt.Sprintf("invalid baseline type: %s (must be memory or qdrant)", c.Baseline.Type))
	}

	if c.Baseline.TopK < 1 {
		errs = append(errs, "baseline top_k must be positive")
	}

	// LLM validation
	if c.LLM.MaxTokens < 1 {
		errs = append(errs, "llm max_tokens must be positive")
	}

	if c.LLM.MaxRetries < 1 {
		errs = append(errs, "llm max_retries must be positive")
	}

	if c.LLM.CacheSize < 0 {
		errs = append(errs, "llm cache_size must not be negative")
	}

	// Bus validation
	validBusTypes := map[string]bool{"memory": true, "kafka": true}
	if !validBusTypes[c.Bus.Type] {
		errs = append(errs, fmt.Sprintf("invalid bus type: %s (must be memory or kafka)", c.Bus.Type))
	}

	if c.Bus.Type == "kafka" && c.Bus.KafkaBrokers == "" {
		errs = append(errs, "kafka_brokers is required when bus type is kafka")
	}

	// Log validation
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Log.Level] {
		errs = append(errs, fmt.Sprintf("invalid log level: %s (must be debug, info, warn, or error)", c.Log.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[c.Log.Format] {
		errs = append(errs, fmt.Sprintf("invalid log format: %s (must be text or json)", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// Address returns the server address.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Log.Level == "debug"
}
