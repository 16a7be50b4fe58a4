package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Vector index drivers.
const (
	VectorDriverMemory = "memory"
	VectorDriverRedis  = "redis"
)

// Config holds the prodsearch API configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	Vector    VectorConfig    `yaml:"vector"`
	Database  DatabaseConfig  `yaml:"database"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Inference InferenceConfig `yaml:"inference"`
	Search    SearchConfig    `yaml:"search"`
	Reload    ReloadConfig    `yaml:"reload"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int      `yaml:"port"`
	ReadTimeoutSec  int      `yaml:"read_timeout_sec"`
	WriteTimeoutSec int      `yaml:"write_timeout_sec"`
	ShutdownSec     int      `yaml:"shutdown_timeout_sec"`
	CORSOrigins     []string `yaml:"cors_origins"`
}

// CatalogConfig points at the JSON-lines product catalog.
type CatalogConfig struct {
	Path string `yaml:"path"`
}

// VectorConfig selects and configures the ANN index backend.
type VectorConfig struct {
	Driver     string `yaml:"driver"` // memory, redis (default: memory)
	Path       string `yaml:"path"`   // flat index file for the memory driver
	IndexName  string `yaml:"index_name"`
	KeyPrefix  string `yaml:"key_prefix"`
	Dimensions int    `yaml:"dimensions"`
}

// DatabaseConfig holds Redis/Valkey connection settings. Optional unless the
// redis vector driver is selected; when set it also backs the embedding cache.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// Enabled reports whether a database is configured.
func (d DatabaseConfig) Enabled() bool { return len(d.Addrs) > 0 }

// EmbeddingConfig holds the query embedding provider.
type EmbeddingConfig struct {
	Provider         string `yaml:"provider"`
	APIKey           string `yaml:"api_key"`
	BaseURL          string `yaml:"base_url"`
	Model            string `yaml:"model"`
	Dimensions       int    `yaml:"dimensions"`
	QueryInstruction string `yaml:"query_instruction"`
	TimeoutMs        int    `yaml:"timeout_ms"`
	CacheSize        int    `yaml:"cache_size"`    // in-process LRU entries, 0 = default
	CacheTTLSec      int    `yaml:"cache_ttl_sec"` // redis cache ttl, 0 = no expiry
}

// Timeout returns the provider call timeout.
func (e EmbeddingConfig) Timeout() time.Duration {
	return time.Duration(e.TimeoutMs) * time.Millisecond
}

// InferenceConfig holds the NER and cross-encoder model servers.
type InferenceConfig struct {
	NER       EndpointConfig `yaml:"ner"`
	Reranker  RerankerConfig `yaml:"reranker"`
	TimeoutMs int            `yaml:"timeout_ms"`
}

// Timeout returns the per-call timeout of the inference clients.
func (i InferenceConfig) Timeout() time.Duration {
	return time.Duration(i.TimeoutMs) * time.Millisecond
}

// EndpointConfig is a model server URL with an optional bearer token.
type EndpointConfig struct {
	URL   string `yaml:"url"`
	Token string `yaml:"token"`
}

// RerankerConfig holds the cross-encoder endpoint and batching settings.
type RerankerConfig struct {
	EndpointConfig `yaml:",inline"`
	MaxBatch       int `yaml:"max_batch"`
	Workers        int `yaml:"workers"`
}

// SearchConfig holds pipeline settings.
type SearchConfig struct {
	Candidates       int  `yaml:"candidates"`
	RequestTimeoutMs *int `yaml:"request_timeout_ms"` // 0 disables the deadline
}

// RequestTimeout returns the per-request deadline. ApplyDefaults must have run.
func (s SearchConfig) RequestTimeout() time.Duration {
	if s.RequestTimeoutMs == nil {
		return 0
	}
	return time.Duration(*s.RequestTimeoutMs) * time.Millisecond
}

// ReloadConfig controls hot reload of the catalog and index files.
type ReloadConfig struct {
	Enabled    bool `yaml:"enabled"`
	DebounceMs int  `yaml:"debounce_ms"`
}

// Debounce returns the file event debounce interval.
func (r ReloadConfig) Debounce() time.Duration {
	return time.Duration(r.DebounceMs) * time.Millisecond
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse decodes YAML configuration, substituting ${VAR} references, then applies
// defaults and validates.
func Parse(data []byte) (Config, error) {
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

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
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
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 15
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Vector.Driver == "" {
		c.Vector.Driver = VectorDriverMemory
	}
	if c.Vector.KeyPrefix == "" {
		c.Vector.KeyPrefix = "prodsearch:product:"
	}
	if c.Vector.IndexName == "" {
		c.Vector.IndexName = "prodsearch_products"
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = c.Vector.Dimensions
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.Embedding.TimeoutMs <= 0 {
		c.Embedding.TimeoutMs = 5000
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Inference.TimeoutMs <= 0 {
		c.Inference.TimeoutMs = 5000
	}
	if c.Inference.Reranker.MaxBatch <= 0 {
		c.Inference.Reranker.MaxBatch = 32
	}
	if c.Inference.Reranker.Workers <= 0 {
		c.Inference.Reranker.Workers = 4
	}
	if c.Search.Candidates <= 0 {
		c.Search.Candidates = 200
	}
	if c.Search.RequestTimeoutMs == nil {
		ms := 10000
		c.Search.RequestTimeoutMs = &ms
	}
	if c.Reload.DebounceMs <= 0 {
		c.Reload.DebounceMs = 500
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Catalog.Path == "" {
		return fmt.Errorf("catalog.path is required")
	}
	if c.Vector.Dimensions <= 0 {
		return fmt.Errorf("vector.dimensions must be positive, got %d", c.Vector.Dimensions)
	}
	switch c.Vector.Driver {
	case VectorDriverMemory:
		if c.Vector.Path == "" {
			return fmt.Errorf("vector.path is required for the %s driver", VectorDriverMemory)
		}
	case VectorDriverRedis:
		if !c.Database.Enabled() {
			return fmt.Errorf("database.addrs is required for the %s vector driver", VectorDriverRedis)
		}
	default:
		return fmt.Errorf("vector.driver must be %q or %q, got %q", VectorDriverMemory, VectorDriverRedis, c.Vector.Driver)
	}
	if c.Embedding.Model == "" {
		return fmt.Errorf("embedding.model is required")
	}
	if c.Embedding.Dimensions != c.Vector.Dimensions {
		return fmt.Errorf("embedding.dimensions (%d) must match vector.dimensions (%d)",
			c.Embedding.Dimensions, c.Vector.Dimensions)
	}
	if c.Inference.NER.URL == "" {
		return fmt.Errorf("inference.ner.url is required")
	}
	if c.Inference.Reranker.URL == "" {
		return fmt.Errorf("inference.reranker.url is required")
	}
	if c.Search.RequestTimeoutMs != nil && *c.Search.RequestTimeoutMs < 0 {
		return fmt.Errorf("search.request_timeout_ms must not be negative, got %d", *c.Search.RequestTimeoutMs)
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
