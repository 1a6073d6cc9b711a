package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"tweetharvest/pkg/config"
	"tweetharvest/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage Tweet Harvest configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (TWEETHARVEST_*)
  - .env files
  - Configuration file
  - Default values (lowest priority)`,
}

// initCmd represents the config init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file will be created in the current directory as '.tweetharvest.yaml'
unless a different path is specified with the --config flag.`,
	Run: runConfigInit,
}

// showCmd represents the config show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Show the current configuration including values from all sources.

Sensitive values like the API key will be masked for security.`,
	Run: runConfigShow,
}

// validateCmd represents the config validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate a configuration file for syntax errors and invalid values.

This command checks:
  - YAML syntax
  - Value types and ranges
  - Path accessibility`,
	Run: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) {
	configPath := configFile
	if configPath == "" {
		configPath = ".tweetharvest.yaml"
	}

	// Check if file already exists
	if _, err := os.Stat(configPath); err == nil {
		ui.PrintError("Configuration file already exists", configPath)
		fmt.Println("\nTo overwrite, first remove the existing file:")
		fmt.Printf("  rm %s\n", configPath)
		os.Exit(1)
	}

	exampleConfig := `# Tweet Harvest Configuration File
#
# This file contains all available configuration options.
# You can also use environment variables prefixed with TWEETHARVEST_
# For example: TWEETHARVEST_API_KEY, TWEETHARVEST_HANDLE

# twitterapi.io settings
api:
  # API key (required)
  # Prefer 'tweetharvest auth login' or TWEETHARVEST_API_KEY over
  # writing the key into this file
  key: ""

  # API endpoint
  base_url: "https://api.twitterapi.io"

  # Consumer tier: free or paid
  # The free tier backs off longer after a rate-limit response
  tier: "free"

  # Request timeout
  timeout: 30s

  # Search result ordering: Latest or Top
  query_type: "Latest"

# Search query parameters
query:
  # Handle whose replies to harvest (without the @)
  handle: ""

  # Include retweets in the result set
  include_retweets: false

  # Include quote tweets in the result set
  include_quotes: false

  # Include replies to the user's own threads
  include_self_threads: false

  # Date window (YYYY-MM-DD), empty for no bound
  since: ""
  until: ""

# Rate limiting and backoff
rate_limit:
  # Client-side request budget
  # Range: 1-120
  requests_per_minute: 60

  # Maximum retry attempts for transient failures
  max_retries: 4

  # Flat backoff applied after a 429, per tier
  free_tier_backoff: 5s
  paid_tier_backoff: 1s

# Durable store
storage:
  # SQLite database file
  database_path: "data/tweets.sqlite3"

  # Default JSON export file
  export_path: "data/tweets.json"

  # Rows per upsert transaction
  upsert_batch_size: 500

  # Fetch full conversation context for each reply
  fetch_threads: false

  # Stop after this many conversations (0 = unlimited)
  max_conversations: 0

# Logging configuration
logging:
  # Log level: debug, info, warn, error
  level: "info"

  # Log file path (optional)
  # Leave empty to log to stderr only
  file: ""
`

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0644); err != nil {
		ui.PrintError("Failed to create configuration file", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Run 'tweetharvest auth login' to store your API key")
	fmt.Println("2. Run 'tweetharvest config validate' to check the configuration")
	fmt.Println("3. Start harvesting with 'tweetharvest harvest <handle>'")
}

// loadWithoutValidation builds the effective config from file and
// environment, skipping the strict validation that requires an API key
func loadWithoutValidation() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if err := cfg.LoadFromFile(configFile); err != nil {
		return nil, err
	}
	if err := cfg.LoadFromEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runConfigShow(cmd *cobra.Command, args []string) {
	cfg, err := loadWithoutValidation()
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	// Create a sanitized version for display
	displayCfg := *cfg
	if displayCfg.API.Key != "" {
		if len(displayCfg.API.Key) > 8 {
			displayCfg.API.Key = displayCfg.API.Key[:4] + "..." + displayCfg.API.Key[len(displayCfg.API.Key)-4:]
		} else {
			displayCfg.API.Key = "***"
		}
	}

	data, err := yaml.Marshal(&displayCfg)
	if err != nil {
		ui.PrintError("Failed to format configuration", err.Error())
		os.Exit(1)
	}

	ui.PrintHighlight("Current Configuration")
	fmt.Println()
	fmt.Print(string(data))

	fmt.Println("\nConfiguration sources (in order of priority):")
	fmt.Println("1. Command line flags")
	fmt.Println("2. Environment variables (TWEETHARVEST_*)")
	if configFile != "" {
		fmt.Printf("3. Configuration file: %s\n", configFile)
	} else {
		fmt.Println("3. Configuration file: (not specified)")
	}
	fmt.Println("4. Default values")
}

func runConfigValidate(cmd *cobra.Command, args []string) {
	// Find a config file if none was specified
	if configFile == "" {
		possiblePaths := []string{
			".tweetharvest.yaml",
			".tweetharvest.yml",
			filepath.Join(os.Getenv("HOME"), ".tweetharvest.yaml"),
			filepath.Join(os.Getenv("HOME"), ".config", "tweetharvest", "config.yaml"),
		}

		for _, path := range possiblePaths {
			if _, err := os.Stat(path); err == nil {
				configFile = path
				break
			}
		}

		if configFile == "" {
			ui.PrintError("No configuration file found", "Specify a file with --config flag")
			os.Exit(1)
		}
	}

	ui.PrintInfo("Validating configuration", configFile)

	cfg, err := loadWithoutValidation()
	if err != nil {
		ui.PrintError("Configuration validation failed", err.Error())
		os.Exit(1)
	}

	warnings := []string{}
	errors := []string{}

	// The API key usually lives in the keychain, so its absence here is
	// only a warning
	if cfg.API.Key == "" {
		warnings = append(warnings, "API key not configured (stored credentials will be used)")
	}
	if cfg.Query.Handle == "" {
		warnings = append(warnings, "no handle configured; pass one on the command line")
	}

	// Check paths
	if cfg.Storage.DatabasePath != "" {
		dir := filepath.Dir(cfg.Storage.DatabasePath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			errors = append(errors, fmt.Sprintf("Cannot create database directory: %v", err))
		}
	}
	if cfg.Logging.File != "" {
		dir := filepath.Dir(cfg.Logging.File)
		if err := os.MkdirAll(dir, 0755); err != nil {
			errors = append(errors, fmt.Sprintf("Cannot create log directory: %v", err))
		}
	}

	// Check value ranges
	if cfg.RateLimit.RequestsPerMinute < 1 || cfg.RateLimit.RequestsPerMinute > 120 {
		errors = append(errors, "requests_per_minute must be between 1 and 120")
	}
	if cfg.RateLimit.MaxRetries < 0 || cfg.RateLimit.MaxRetries > 10 {
		errors = append(errors, "max_retries must be between 0 and 10")
	}
	if cfg.API.Tier != config.TierFree && cfg.API.Tier != config.TierPaid {
		errors = append(errors, "tier must be free or paid")
	}

	if len(errors) > 0 {
		ui.PrintError("Configuration has errors:", "")
		for _, err := range errors {
			fmt.Printf("  - %s\n", err)
		}
		os.Exit(1)
	}

	if len(warnings) > 0 {
		ui.PrintWarning("Configuration warnings:", "")
		for _, warn := range warnings {
			fmt.Printf("  - %s\n", warn)
		}
		fmt.Println()
	}

	ui.PrintSuccess("Configuration is valid")

	fmt.Println("\nConfiguration summary:")
	fmt.Printf("  Database: %s\n", cfg.Storage.DatabasePath)
	fmt.Printf("  Tier: %s\n", cfg.API.Tier)
	fmt.Printf("  Rate limit: %d requests/minute\n", cfg.RateLimit.RequestsPerMinute)
	fmt.Printf("  Max retries: %d\n", cfg.RateLimit.MaxRetries)
	fmt.Printf("  Log level: %s\n", cfg.Logging.Level)
}
