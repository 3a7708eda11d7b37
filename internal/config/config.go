package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the stylist API and builder configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Artifacts  ArtifactsConfig  `yaml:"artifacts"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Summarizer SummarizerConfig `yaml:"summarizer"`
	Cache      CacheConfig      `yaml:"cache"`
	Search     SearchConfig     `yaml:"search"`
	Builder    BuilderConfig    `yaml:"builder"`
	CORS       CORSConfig       `yaml:"cors"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// ArtifactsConfig locates the persisted index/metadata pair.
type ArtifactsConfig struct {
	IndexPath    string `yaml:"index_path"`
	MetadataPath string `yaml:"metadata_path"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
}

// SummarizerConfig holds generation provider settings. An empty model
// disables generation; searches then return results without rag_text.
type SummarizerConfig struct {
	APIKey    string `yaml:"api_key"`
	BaseURL   string `yaml:"base_url"`
	Model     string `yaml:"model"`
	MaxTokens int    `yaml:"max_tokens"`
}

// CacheConfig holds the optional query-embedding cache settings. Empty addrs
// disable the cache.
type CacheConfig struct {
	Addrs    []string `yaml:"addrs"`
	Password string   `yaml:"password"`
	TTLSec   int      `yaml:"ttl_sec"`
}

// SearchConfig holds retrieval settings.
type SearchConfig struct {
	DefaultTopK int `yaml:"default_top_k"`
	MaxTopK     int `yaml:"max_top_k"`
}

// BuilderConfig holds offline build settings.
type BuilderConfig struct {
	DatasetPath   string `yaml:"dataset_path"`
	ImagesRoot    string `yaml:"images_root"`
	MaxItems      int    `yaml:"max_items"`
	ProgressEvery int    `yaml:"progress_every"`
}

// CORSConfig holds allowed origins; empty means any origin.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port <= 0 {
		c.HTTP.Port = 8000
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		// Generation dominates request latency; give writes headroom.
		c.HTTP.WriteTimeoutSec = 60
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Artifacts.IndexPath == "" {
		c.Artifacts.IndexPath = "data/catalog.index"
	}
	if c.Artifacts.MetadataPath == "" {
		c.Artifacts.MetadataPath = "data/catalog_metadata.json"
	}
	if c.Search.DefaultTopK <= 0 {
		c.Search.DefaultTopK = 5
	}
	if c.Search.MaxTopK <= 0 {
		c.Search.MaxTopK = 50
	}
	if c.Summarizer.MaxTokens <= 0 {
		c.Summarizer.MaxTokens = 256
	}
	if c.Cache.TTLSec <= 0 {
		c.Cache.TTLSec = 24 * 60 * 60
	}
	if c.Builder.ProgressEvery <= 0 {
		c.Builder.ProgressEvery = 500
	}
	if c.Builder.MaxItems <= 0 {
		c.Builder.MaxItems = 20000
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Embedding.Model == "" {
		return fmt.Errorf("embedding.model is required")
	}
	if c.Search.DefaultTopK > c.Search.MaxTopK {
		return fmt.Errorf(
			"search.default_top_k (%d) must not exceed search.max_top_k (%d)",
			c.Search.DefaultTopK, c.Search.MaxTopK,
		)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
