package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"horse.fit/collate/internal/cli"
)

func runPurge(args []string) int {
	fs := flag.NewFlagSet("purge", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 30*time.Second, "Command timeout")
	batch := fs.String("batch", "", "Batch name to delete")
	force := fs.Bool("force", false, "Skip confirmation prompt")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	batchName := strings.TrimSpace(*batch)
	if batchName == "" {
		fmt.Fprintln(os.Stderr, "--batch is required")
		return 2
	}

	if !*force {
		ok, err := confirmDangerousAction(fmt.Sprintf("Delete batch %q and all of its records?", batchName))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to read confirmation: %v\n", err)
			return 1
		}
		if !ok {
			fmt.Fprintln(os.Stderr, "Cancelled")
			return 1
		}
	}

	ctx, cancel, _, pool, err := connectPool(*timeout, envLoader)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer cancel()
	defer pool.Close()

	deleted, err := pool.PurgeBatch(ctx, batchName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Purge failed: %v\n", err)
		return 1
	}

	fmt.Printf("purge batch=%s records_deleted=%d\n", batchName, deleted)
	return 0
}
