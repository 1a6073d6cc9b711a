package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tweetharvest/pkg/storage"
	"tweetharvest/pkg/ui"
)

var (
	exportOutput   string
	exportDatabase string
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export harvested tweets to a JSON file",
	Long: `Export the harvested tweets to a JSON file grouped by conversation.

Each conversation object carries the tweets in chronological order, with
the raw API payload preserved for every tweet.`,
	Example: `  # Export using default paths
  tweetharvest export

  # Export a specific database to a specific file
  tweetharvest export --database ./jack.sqlite3 --output ./jack.json`,
	Run: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "data/tweets.json", "output JSON file")
	exportCmd.Flags().StringVarP(&exportDatabase, "database", "d", "data/tweets.sqlite3", "path to the SQLite database file")
}

func runExport(cmd *cobra.Command, args []string) {
	if _, err := os.Stat(exportDatabase); err != nil {
		ui.PrintError("Database not found", exportDatabase)
		fmt.Println("\nRun a harvest first:")
		fmt.Println("  tweetharvest harvest <handle>")
		os.Exit(1)
	}

	store, err := storage.Open(exportDatabase, 500)
	if err != nil {
		ui.PrintError("Failed to open database", err.Error())
		os.Exit(1)
	}
	defer store.Close()

	ctx := context.Background()

	total, err := store.CountTweets(ctx)
	if err != nil {
		ui.PrintError("Failed to count tweets", err.Error())
		os.Exit(1)
	}
	if total == 0 {
		ui.PrintInfo("Nothing to export", exportDatabase)
		return
	}

	count, err := store.ExportConversations(ctx, exportOutput)
	if err != nil {
		ui.PrintError("Export failed", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess("Export completed")
	ui.PrintInfo("Tweets", fmt.Sprintf("%d", total))
	ui.PrintInfo("Conversations", fmt.Sprintf("%d", count))
	ui.PrintInfo("Output", exportOutput)
}
