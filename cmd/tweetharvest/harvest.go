package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"tweetharvest/pkg/auth"
	"tweetharvest/pkg/config"
	"tweetharvest/pkg/logger"
	"tweetharvest/pkg/scraper"
	"tweetharvest/pkg/storage"
	"tweetharvest/pkg/ui"
)

var (
	// Harvest command flags
	apiKey           string
	tier             string
	accountName      string
	since            string
	until            string
	databasePath     string
	rateLimit        int
	maxRetries       int
	includeRetweets  bool
	includeQuotes    bool
	includeSelf      bool
	fetchThreads     bool
	maxConversations int
	exportJSON       string
)

// harvestCmd represents the harvest command
var harvestCmd = &cobra.Command{
	Use:   "harvest <handle>",
	Short: "Archive a user's replies into the local database",
	Long: `Fetch all replies posted by a user and store them in a local SQLite database.

This command requires a valid twitterapi.io API key configured through:
  - Stored credentials (use 'tweetharvest auth login' to store)
  - The TWEETHARVEST_API_KEY environment variable
  - Configuration file

The harvester pages through search results one page at a time and records
a checkpoint after each page, so an interrupted run resumes where it left
off instead of starting over. Tweets already in the database are updated
in place, never duplicated.`,
	Example: `  # Harvest all replies from a user
  tweetharvest harvest jack

  # Restrict to a date window
  tweetharvest harvest jack --since 2024-01-01 --until 2024-06-30

  # Include retweets and quote tweets, fetch full conversations
  tweetharvest harvest jack --retweets --quotes --threads

  # Use a specific stored account and a custom database
  tweetharvest harvest jack --account work --database ./jack.sqlite3

  # Export conversations to JSON when the harvest finishes
  tweetharvest harvest jack --export-json ./jack.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		runHarvest(cmd, args)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(harvestCmd)

	harvestCmd.Flags().StringVar(&apiKey, "api-key", "", "twitterapi.io API key (overrides stored credentials)")
	harvestCmd.Flags().StringVar(&tier, "tier", "", "API tier: free or paid (affects rate-limit backoff)")
	harvestCmd.Flags().StringVarP(&accountName, "account", "a", "", "use specific stored account")
	harvestCmd.Flags().StringVar(&since, "since", "", "only tweets on or after this date (YYYY-MM-DD)")
	harvestCmd.Flags().StringVar(&until, "until", "", "only tweets before this date (YYYY-MM-DD)")
	harvestCmd.Flags().StringVarP(&databasePath, "database", "d", "", "path to the SQLite database file")
	harvestCmd.Flags().IntVar(&rateLimit, "rate-limit", 60, "requests per minute")
	harvestCmd.Flags().IntVar(&maxRetries, "max-retries", 4, "maximum retry attempts for transient failures")
	harvestCmd.Flags().BoolVar(&includeRetweets, "retweets", false, "include retweets in the result set")
	harvestCmd.Flags().BoolVar(&includeQuotes, "quotes", false, "include quote tweets in the result set")
	harvestCmd.Flags().BoolVar(&includeSelf, "self-threads", false, "include replies to the user's own threads")
	harvestCmd.Flags().BoolVar(&fetchThreads, "threads", false, "fetch full conversation context for each reply")
	harvestCmd.Flags().IntVar(&maxConversations, "max-conversations", 0, "stop after this many conversations (0 = unlimited)")
	harvestCmd.Flags().StringVar(&exportJSON, "export-json", "", "export conversations to this JSON file after the harvest")
}

func runHarvest(cmd *cobra.Command, args []string) {
	handle := strings.TrimSpace(strings.TrimPrefix(args[0], "@"))

	ui.PrintInfo("Target handle", handle)

	flags := harvestFlags(cmd, handle)

	// Load configuration
	cfg, err := config.Load(configFile, flags)
	if err != nil && apiKey == "" {
		// The API key may still come from the credential manager below, so
		// retry validation after credentials are resolved.
		cfg, err = loadWithStoredCredentials(flags)
	}
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	// Toggles have no config-file equivalent on the flags map
	if includeRetweets {
		cfg.Query.IncludeRetweets = true
	}
	if includeQuotes {
		cfg.Query.IncludeQuotes = true
	}
	if includeSelf {
		cfg.Query.IncludeSelfThreads = true
	}
	if fetchThreads {
		cfg.Storage.FetchThreads = true
	}
	if maxConversations > 0 {
		cfg.Storage.MaxConversations = maxConversations
	}

	// Initialize logger
	if err := logger.Initialize(&cfg.Logging); err != nil {
		ui.PrintError("Failed to initialize logger", err.Error())
		os.Exit(1)
	}
	logger.WithField("version", version).Info("Tweet harvester starting")

	// Resolve credentials if the config didn't already carry a key
	if cfg.API.Key == "" || accountName != "" {
		account := resolveAccount(accountName)
		cfg.API.Key = account.APIKey
		if account.Tier != "" && tier == "" {
			cfg.API.Tier = config.Tier(account.Tier)
		}
		logger.WithField("account", account.Name).Info("Using stored credentials")
		ui.PrintInfo("Using account", account.Name)
	}

	if err := cfg.Validate(); err != nil {
		ui.PrintError("Invalid configuration", err.Error())
		os.Exit(1)
	}

	// Open the durable store
	store, err := storage.Open(cfg.Storage.DatabasePath, cfg.Storage.UpsertBatchSize)
	if err != nil {
		ui.PrintError("Failed to open database", err.Error())
		os.Exit(1)
	}
	defer store.Close()

	logger.WithField("handle", handle).Info("Starting harvest")
	ui.PrintHighlight("[HARVEST STARTED]")

	// Ctrl-C stops cleanly between pages; the checkpoint keeps our place
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := scraper.New(cfg, store)
	if err != nil {
		ui.PrintError("Failed to initialize harvester", err.Error())
		os.Exit(1)
	}

	summary, runErr := s.Run(ctx)

	// Export whatever made it into the database, even after a failed run
	if exportJSON != "" {
		count, exportErr := store.ExportConversations(context.Background(), exportJSON)
		if exportErr != nil {
			logger.WithError(exportErr).Error("Export failed")
			ui.PrintError("Export failed", exportErr.Error())
		} else {
			ui.PrintInfo("Exported conversations", fmt.Sprintf("%d -> %s", count, exportJSON))
		}
	}

	if runErr != nil {
		logger.WithError(runErr).WithField("handle", handle).Error("Harvest failed")
		ui.PrintError("HARVEST FAILED", runErr.Error())
		if summary != nil && summary.Pages > 0 {
			ui.PrintWarning("Progress saved", fmt.Sprintf("%d pages ingested; re-run to resume", summary.Pages))
		}
		os.Exit(1)
	}

	logger.WithFields(map[string]interface{}{
		"handle":  handle,
		"pages":   summary.Pages,
		"fetched": summary.Fetched,
		"new":     summary.New,
	}).Info("Harvest completed successfully")

	ui.PrintSuccess("[HARVEST COMPLETED]")
	ui.PrintInfo("Pages", fmt.Sprintf("%d", summary.Pages))
	ui.PrintInfo("Tweets fetched", fmt.Sprintf("%d", summary.Fetched))
	ui.PrintInfo("New tweets", fmt.Sprintf("%d", summary.New))
	ui.PrintInfo("Updated tweets", fmt.Sprintf("%d", summary.Updated))
	if summary.Conversations > 0 {
		ui.PrintInfo("Conversations", fmt.Sprintf("%d", summary.Conversations))
	}
}

// harvestFlags builds the command-line overrides map for config.Load.
// Numeric and enum flags are forwarded whenever the user set them, even
// to their default value, so an explicit flag always wins over the
// config file and the environment.
func harvestFlags(cmd *cobra.Command, handle string) map[string]interface{} {
	flags := make(map[string]interface{})
	flags["handle"] = handle
	if apiKey != "" {
		flags["api-key"] = apiKey
	}
	if tier != "" {
		flags["tier"] = tier
	}
	if since != "" {
		flags["since"] = since
	}
	if until != "" {
		flags["until"] = until
	}
	if databasePath != "" {
		flags["database"] = databasePath
	}
	if cmd.Flags().Changed("rate-limit") {
		flags["rate-limit"] = rateLimit
	}
	if cmd.Flags().Changed("max-retries") {
		flags["max-retries"] = maxRetries
	}
	if rootCmd.PersistentFlags().Changed("log-level") {
		flags["log-level"] = logLevel
	}
	return flags
}

// loadWithStoredCredentials retries config loading with the API key taken
// from the credential manager, for setups with no key in env or file.
func loadWithStoredCredentials(flags map[string]interface{}) (*config.Config, error) {
	account := resolveAccount(accountName)
	flags["api-key"] = account.APIKey
	if account.Tier != "" {
		flags["tier"] = account.Tier
	}
	return config.Load(configFile, flags)
}

// resolveAccount finds stored credentials or exits with guidance
func resolveAccount(name string) *auth.Account {
	credManager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		os.Exit(1)
	}

	var account *auth.Account
	if name != "" {
		account, err = credManager.Retrieve(name)
		if err != nil {
			ui.PrintError("Account not found", name)
			ui.PrintInfo("Available accounts", "Use 'tweetharvest auth list' to see stored accounts")
			os.Exit(1)
		}
	} else {
		account, err = credManager.RetrieveDefault()
		if err != nil {
			logger.GetLogger().Error("No credentials found")
			ui.PrintError("No twitterapi.io API key found", "")
			fmt.Println("\nTo store a key securely, run:")
			fmt.Println("  tweetharvest auth login")
			fmt.Println("\nOr set it in the environment:")
			fmt.Println("  export TWEETHARVEST_API_KEY=your_api_key")
			os.Exit(1)
		}
	}

	return account
}

// Make harvest the default command when no subcommand is specified
func init() {
	origRunE := rootCmd.RunE
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		if origRunE != nil {
			return origRunE(cmd, args)
		}
		if len(args) > 0 && !isKnownCommand(args[0]) {
			// Treat a bare first argument as a handle
			return harvestCmd.RunE(harvestCmd, args)
		}
		return cmd.Help()
	}

	rootCmd.Args = cobra.ArbitraryArgs
}

func isKnownCommand(arg string) bool {
	for _, cmd := range rootCmd.Commands() {
		if cmd.Name() == arg || cmd.HasAlias(arg) {
			return true
		}
	}
	return false
}
