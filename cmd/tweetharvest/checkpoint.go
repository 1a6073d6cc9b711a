package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"tweetharvest/pkg/checkpoint"
	"tweetharvest/pkg/query"
	"tweetharvest/pkg/ui"
)

// checkpointCmd represents the checkpoint command
var checkpointCmd = &cobra.Command{
	Use:   "checkpoint",
	Short: "Inspect and manage harvest checkpoints",
	Long: `Inspect and manage harvest checkpoints.

Checkpoints are keyed by the full search query, so the same handle with
different filters or date windows has independent checkpoints. The query
flags here must match the flags used for the harvest.`,
}

// checkpointShowCmd represents the checkpoint show command
var checkpointShowCmd = &cobra.Command{
	Use:   "show <handle>",
	Short: "Show the checkpoint for a harvest query",
	Args:  cobra.ExactArgs(1),
	Run:   runCheckpointShow,
}

// checkpointClearCmd represents the checkpoint clear command
var checkpointClearCmd = &cobra.Command{
	Use:   "clear <handle>",
	Short: "Delete the checkpoint so the next harvest starts from page one",
	Args:  cobra.ExactArgs(1),
	Run:   runCheckpointClear,
}

func init() {
	rootCmd.AddCommand(checkpointCmd)
	checkpointCmd.AddCommand(checkpointShowCmd)
	checkpointCmd.AddCommand(checkpointClearCmd)

	// Same query flags as harvest; they select which checkpoint is meant
	checkpointCmd.PersistentFlags().StringVar(&since, "since", "", "only tweets on or after this date (YYYY-MM-DD)")
	checkpointCmd.PersistentFlags().StringVar(&until, "until", "", "only tweets before this date (YYYY-MM-DD)")
	checkpointCmd.PersistentFlags().BoolVar(&includeRetweets, "retweets", false, "include retweets in the result set")
	checkpointCmd.PersistentFlags().BoolVar(&includeQuotes, "quotes", false, "include quote tweets in the result set")
	checkpointCmd.PersistentFlags().BoolVar(&includeSelf, "self-threads", false, "include replies to the user's own threads")
}

// checkpointManagerFor builds the checkpoint manager for the query the
// current flags describe
func checkpointManagerFor(handle string) (*checkpoint.Manager, string, error) {
	builder := &query.Builder{
		Handle:             handle,
		IncludeRetweets:    includeRetweets,
		IncludeQuotes:      includeQuotes,
		IncludeSelfThreads: includeSelf,
		Since:              since,
		Until:              until,
	}

	q, err := builder.Build()
	if err != nil {
		return nil, "", err
	}

	key, err := builder.Key()
	if err != nil {
		return nil, "", err
	}

	mgr, err := checkpoint.NewManager(key)
	if err != nil {
		return nil, "", err
	}

	return mgr, q, nil
}

func runCheckpointShow(cmd *cobra.Command, args []string) {
	handle := strings.TrimSpace(strings.TrimPrefix(args[0], "@"))

	mgr, q, err := checkpointManagerFor(handle)
	if err != nil {
		ui.PrintError("Failed to resolve checkpoint", err.Error())
		os.Exit(1)
	}

	cp, err := mgr.Load()
	if err != nil {
		ui.PrintError("Failed to load checkpoint", err.Error())
		os.Exit(1)
	}
	if cp == nil {
		ui.PrintInfo("No checkpoint", q)
		fmt.Println("\nThe next harvest for this query will start from page one.")
		return
	}

	ui.PrintHighlight("Checkpoint")
	fmt.Println()
	fmt.Printf("  Query: %s\n", cp.Query)
	fmt.Printf("  Key: %s\n", cp.QueryKey)
	fmt.Printf("  Pages processed: %d\n", cp.LastProcessedPage)
	fmt.Printf("  Tweets ingested: %d\n", cp.TotalIngested)
	if cp.Cursor == "" {
		fmt.Printf("  Cursor: (start)\n")
	} else {
		fmt.Printf("  Cursor: %s\n", cp.Cursor)
	}
	fmt.Printf("  Created: %s\n", cp.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("  Updated: %s\n", cp.UpdatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("  File: %s\n", mgr.Path())
}

func runCheckpointClear(cmd *cobra.Command, args []string) {
	handle := strings.TrimSpace(strings.TrimPrefix(args[0], "@"))

	mgr, q, err := checkpointManagerFor(handle)
	if err != nil {
		ui.PrintError("Failed to resolve checkpoint", err.Error())
		os.Exit(1)
	}

	if !mgr.Exists() {
		ui.PrintInfo("No checkpoint to clear", q)
		return
	}

	if err := mgr.Delete(); err != nil {
		ui.PrintError("Failed to delete checkpoint", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess("Checkpoint cleared: " + q)
	fmt.Println("The next harvest for this query will start from page one.")
}
