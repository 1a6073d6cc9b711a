package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Tier identifies the twitterapi.io consumer class. The free tier is rate
// limited far more aggressively than the paid tier, so the default backoff
// applied on a 429 differs between the two.
type Tier string

const (
	TierFree Tier = "free"
	TierPaid Tier = "paid"
)

// Config holds all configuration options for the tweet harvester
type Config struct {
	// API credentials and endpoint settings
	API APIConfig `yaml:"api" json:"api"`

	// Search query parameters
	Query QueryConfig `yaml:"query" json:"query"`

	// Rate limiting and backoff configuration
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Durable store settings
	Storage StorageConfig `yaml:"storage" json:"storage"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// APIConfig holds twitterapi.io specific configuration
type APIConfig struct {
	Key       string        `yaml:"key" json:"key"`
	BaseURL   string        `yaml:"base_url" json:"base_url"`
	Tier      Tier          `yaml:"tier" json:"tier"`
	Timeout   time.Duration `yaml:"timeout" json:"timeout"`
	QueryType string        `yaml:"query_type" json:"query_type"`
}

// QueryConfig holds the run parameters the search query is built from
type QueryConfig struct {
	Handle             string `yaml:"handle" json:"handle"`
	IncludeRetweets    bool   `yaml:"include_retweets" json:"include_retweets"`
	IncludeQuotes      bool   `yaml:"include_quotes" json:"include_quotes"`
	IncludeSelfThreads bool   `yaml:"include_self_threads" json:"include_self_threads"`
	Since              string `yaml:"since" json:"since"`
	Until              string `yaml:"until" json:"until"`
}

// RateLimitConfig holds rate limiting and backoff configuration
type RateLimitConfig struct {
	RequestsPerMinute int           `yaml:"requests_per_minute" json:"requests_per_minute"`
	MaxRetries        int           `yaml:"max_retries" json:"max_retries"`
	FreeTierBackoff   time.Duration `yaml:"free_tier_backoff" json:"free_tier_backoff"`
	PaidTierBackoff   time.Duration `yaml:"paid_tier_backoff" json:"paid_tier_backoff"`
}

// StorageConfig holds durable store configuration
type StorageConfig struct {
	DatabasePath     string `yaml:"database_path" json:"database_path"`
	ExportPath       string `yaml:"export_path" json:"export_path"`
	UpsertBatchSize  int    `yaml:"upsert_batch_size" json:"upsert_batch_size"`
	FetchThreads     bool   `yaml:"fetch_threads" json:"fetch_threads"`
	MaxConversations int    `yaml:"max_conversations" json:"max_conversations"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:   "https://api.twitterapi.io",
			Tier:      TierFree,
			Timeout:   30 * time.Second,
			QueryType: "Latest",
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 60,
			MaxRetries:        4,
			FreeTierBackoff:   5 * time.Second,
			PaidTierBackoff:   1 * time.Second,
		},
		Storage: StorageConfig{
			DatabasePath:    "data/tweets.sqlite3",
			ExportPath:      "data/tweets.json",
			UpsertBatchSize: 500,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// BackoffForTier returns the flat rate-limit backoff for the configured tier
func (c *Config) BackoffForTier() time.Duration {
	if c.API.Tier == TierPaid {
		return c.RateLimit.PaidTierBackoff
	}
	return c.RateLimit.FreeTierBackoff
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	// API key: project variable first, then the legacy name
	if key := os.Getenv("TWEETHARVEST_API_KEY"); key != "" {
		c.API.Key = key
	} else if key := os.Getenv("TWITTERIO_API_KEY"); key != "" {
		c.API.Key = key
	}
	if baseURL := os.Getenv("TWEETHARVEST_BASE_URL"); baseURL != "" {
		c.API.BaseURL = baseURL
	}
	if tier := os.Getenv("TWEETHARVEST_TIER"); tier != "" {
		c.API.Tier = Tier(strings.ToLower(tier))
	}

	if handle := os.Getenv("TWEETHARVEST_HANDLE"); handle != "" {
		c.Query.Handle = handle
	}

	if rpm := os.Getenv("TWEETHARVEST_REQUESTS_PER_MINUTE"); rpm != "" {
		var val int
		fmt.Sscanf(rpm, "%d", &val)
		if val > 0 {
			c.RateLimit.RequestsPerMinute = val
		}
	}

	if dbPath := os.Getenv("TWEETHARVEST_DB_PATH"); dbPath != "" {
		c.Storage.DatabasePath = dbPath
	}

	if logLevel := os.Getenv("TWEETHARVEST_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	// Check in order of precedence
	locations := []string{
		".tweetharvest.yaml",
		".tweetharvest.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "tweetharvest", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "tweetharvest", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".tweetharvest.yaml"),
		filepath.Join(os.Getenv("HOME"), ".tweetharvest.yml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	// Validate credentials
	if c.API.Key == "" {
		errs = append(errs, errors.New("twitterapi.io API key is required"))
	}
	if c.API.BaseURL == "" {
		errs = append(errs, errors.New("API base URL is required"))
	}
	if c.API.Tier != TierFree && c.API.Tier != TierPaid {
		errs = append(errs, fmt.Errorf("invalid tier %q (must be free or paid)", c.API.Tier))
	}
	if c.API.Timeout <= 0 {
		errs = append(errs, errors.New("API timeout must be positive"))
	}

	// Validate rate limiting
	if c.RateLimit.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("requests per minute must be positive"))
	}
	if c.RateLimit.MaxRetries < 0 {
		errs = append(errs, errors.New("max retries cannot be negative"))
	}
	if c.RateLimit.FreeTierBackoff <= 0 || c.RateLimit.PaidTierBackoff <= 0 {
		errs = append(errs, errors.New("tier backoff durations must be positive"))
	}

	// Validate storage
	if c.Storage.DatabasePath == "" {
		errs = append(errs, errors.New("database path is required"))
	}
	if c.Storage.UpsertBatchSize <= 0 {
		errs = append(errs, errors.New("upsert batch size must be positive"))
	}
	if c.Storage.MaxConversations < 0 {
		errs = append(errs, errors.New("max conversations cannot be negative"))
	}

	// Validate logging
	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if key, ok := flags["api-key"].(string); ok && key != "" {
		c.API.Key = key
	}
	if tier, ok := flags["tier"].(string); ok && tier != "" {
		c.API.Tier = Tier(strings.ToLower(tier))
	}
	if handle, ok := flags["handle"].(string); ok && handle != "" {
		c.Query.Handle = handle
	}
	if since, ok := flags["since"].(string); ok && since != "" {
		c.Query.Since = since
	}
	if until, ok := flags["until"].(string); ok && until != "" {
		c.Query.Until = until
	}
	if dbPath, ok := flags["database"].(string); ok && dbPath != "" {
		c.Storage.DatabasePath = dbPath
	}
	if rpm, ok := flags["rate-limit"].(int); ok && rpm > 0 {
		c.RateLimit.RequestsPerMinute = rpm
	}
	if retries, ok := flags["max-retries"].(int); ok && retries > 0 {
		c.RateLimit.MaxRetries = retries
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".env"))
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".tweetharvest.env"))

	// Start with defaults
	config := DefaultConfig()

	// Load from config file
	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	// Override with environment variables (includes values from .env)
	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Override with command line flags
	config.MergeCommandLineFlags(flags)

	// Validate final configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
