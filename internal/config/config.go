// Package config loads the application configuration from config.yaml and
// CP_-prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/sevigo/code-pilot/internal/logger"
)

// EnvPrefix prefixes every environment override, e.g. CP_AI_LLM_PROVIDER.
const EnvPrefix = "CP"

// Config holds the application's configuration values.
type Config struct {
	Server   ServerConfig  `mapstructure:"server"`
	AI       AIConfig      `mapstructure:"ai"`
	Review   ReviewConfig  `mapstructure:"review"`
	Storage  StorageConfig `mapstructure:"storage"`
	Database DBConfig      `mapstructure:"database"`
	Search   SearchConfig  `mapstructure:"search"`
	Logging  logger.Config `mapstructure:"logging"`
}

type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type AIConfig struct {
	LLMProvider      string        `mapstructure:"llm_provider"`
	GeminiAPIKey     string        `mapstructure:"gemini_api_key"`
	OllamaHost       string        `mapstructure:"ollama_host"`
	GeneratorModel   string        `mapstructure:"generator_model"`
	EmbedderProvider string        `mapstructure:"embedder_provider"`
	EmbedderModel    string        `mapstructure:"embedder_model"`
	HTTPTimeout      time.Duration `mapstructure:"http_timeout"`
}

// ReviewConfig tunes the long-form review protocol and the background workers.
type ReviewConfig struct {
	MaxLinesPerChunk int           `mapstructure:"max_lines_per_chunk"`
	MaxContinuations int           `mapstructure:"max_continuations"`
	CallTimeout      time.Duration `mapstructure:"call_timeout"`
	MaxWorkers       int           `mapstructure:"max_workers"`
	QueueSize        int           `mapstructure:"queue_size"`
	ProfilePath      string        `mapstructure:"profile_path"`
}

// StorageConfig selects where the review history lives.
type StorageConfig struct {
	Driver string `mapstructure:"driver"`
	Path   string `mapstructure:"path"`
}

type DBConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

// DSN returns the lib/pq connection string.
func (c DBConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.Username, c.Password, c.Database, c.SSLMode)
}

// SearchConfig selects how the history is searched: "llm" ranks every review
// with the generator model, "vector" uses a Qdrant similarity search.
type SearchConfig struct {
	Mode       string `mapstructure:"mode"`
	QdrantHost string `mapstructure:"qdrant_host"`
	Collection string `mapstructure:"collection"`
	// MinScore is the lowest similarity a vector hit needs to count as relevant.
	MinScore float32 `mapstructure:"min_score"`
}

const (
	StorageDriverFile     = "file"
	StorageDriverPostgres = "postgres"
	SearchModeLLM         = "llm"
	SearchModeVector      = "vector"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.shutdown_timeout", 30*time.Second)

	v.SetDefault("ai.llm_provider", "gemini")
	v.SetDefault("ai.gemini_api_key", "")
	v.SetDefault("ai.ollama_host", "http://localhost:11434")
	v.SetDefault("ai.generator_model", "gemini-2.5-flash")
	v.SetDefault("ai.embedder_provider", "ollama")
	v.SetDefault("ai.embedder_model", "nomic-embed-text")
	v.SetDefault("ai.http_timeout", 15*time.Minute)

	v.SetDefault("review.max_lines_per_chunk", 600)
	v.SetDefault("review.max_continuations", 50)
	v.SetDefault("review.call_timeout", 2*time.Minute)
	v.SetDefault("review.max_workers", 2)
	v.SetDefault("review.queue_size", 32)
	v.SetDefault("review.profile_path", ".codepilot.yml")

	v.SetDefault("storage.driver", StorageDriverFile)
	v.SetDefault("storage.path", "reviews.json")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.username", "pilot")
	v.SetDefault("database.password", "")
	v.SetDefault("database.database", "codepilot")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 30*time.Minute)
	v.SetDefault("database.conn_max_idle_time", 5*time.Minute)

	v.SetDefault("search.mode", SearchModeLLM)
	v.SetDefault("search.qdrant_host", "localhost:6334")
	v.SetDefault("search.collection", "code_pilot_reviews")
	v.SetDefault("search.min_score", 0.5)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.file_path", "")
}

// LoadConfig reads ./config.yaml (if present) and the environment.
func LoadConfig() (*Config, error) {
	return Load("")
}

// Load reads configuration from path, or from config.yaml in the working
// directory when path is empty. A missing file is not an error; environment
// variables always take precedence over the file.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the application cannot run with.
func (c *Config) Validate() error {
	if err := c.AI.Validate(); err != nil {
		return err
	}
	if err := c.Review.Validate(); err != nil {
		return err
	}
	switch c.Storage.Driver {
	case StorageDriverFile:
		if strings.TrimSpace(c.Storage.Path) == "" {
			return errors.New("storage.path must be set for the file driver")
		}
	case StorageDriverPostgres:
	default:
		return fmt.Errorf("unsupported storage driver: %q", c.Storage.Driver)
	}
	switch c.Search.Mode {
	case SearchModeLLM, SearchModeVector:
	default:
		return fmt.Errorf("unsupported search mode: %q", c.Search.Mode)
	}
	if c.Search.MinScore < 0 || c.Search.MinScore > 1 {
		return fmt.Errorf("search.min_score must be between 0 and 1, got %v", c.Search.MinScore)
	}
	return nil
}

func (c AIConfig) Validate() error {
	switch c.LLMProvider {
	case "gemini", "ollama":
	default:
		return fmt.Errorf("unsupported LLM provider: %q", c.LLMProvider)
	}
	if strings.TrimSpace(c.GeneratorModel) == "" {
		return errors.New("ai.generator_model must be set")
	}
	return nil
}

func (c ReviewConfig) Validate() error {
	if c.MaxLinesPerChunk <= 0 {
		return fmt.Errorf("review.max_lines_per_chunk must be positive, got %d", c.MaxLinesPerChunk)
	}
	if c.MaxContinuations <= 0 {
		return fmt.Errorf("review.max_continuations must be positive, got %d", c.MaxContinuations)
	}
	if c.MaxWorkers <= 0 {
		return fmt.Errorf("review.max_workers must be positive, got %d", c.MaxWorkers)
	}
	if c.QueueSize <= 0 {
		return fmt.Errorf("review.queue_size must be positive, got %d", c.QueueSize)
	}
	return nil
}
