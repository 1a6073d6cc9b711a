package checkpoint

import (
	"fmt"
	"log"
)

func ExampleManager() {
	// Create a checkpoint manager for a query key
	mgr, err := NewManager("1a2b3c4d5e6f7a8b")
	if err != nil {
		log.Fatal(err)
	}

	if mgr.Exists() {
		// Load existing checkpoint and resume
		cp, err := mgr.Load()
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("Resuming: %d tweets ingested so far\n", cp.TotalIngested)
		fmt.Printf("Next cursor: %s\n", cp.Cursor)
	} else {
		// Start a fresh run
		cp, err := mgr.Create("1a2b3c4d5e6f7a8b", "from:jack filter:replies")
		if err != nil {
			log.Fatal(err)
		}

		// After each fully persisted page, advance the cursor
		if err := mgr.Advance(cp, "next_cursor_xyz", 20); err != nil {
			log.Fatal(err)
		}
	}

	// When the result set is exhausted the checkpoint can be kept for
	// incremental re-runs, or deleted to force a fresh start
	if err := mgr.Delete(); err != nil {
		log.Printf("Failed to delete checkpoint: %v", err)
	}
}
