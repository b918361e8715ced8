package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"horse.fit/collate/internal/cli"
	"horse.fit/collate/internal/store"
)

func runExport(args []string) int {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 30*time.Second, "Command timeout")
	batch := fs.String("batch", "", "Batch name to export")
	outPath := fs.String("out", "", "Output CSV path (raw_text,cleaned_text)")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	batchName := strings.TrimSpace(*batch)
	fileOut := strings.TrimSpace(*outPath)
	if batchName == "" || fileOut == "" {
		fmt.Fprintln(os.Stderr, "--batch and --out are required")
		return 2
	}

	ctx, cancel, _, pool, err := connectPool(*timeout, envLoader)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer cancel()
	defer pool.Close()

	records, err := pool.LoadBatchRecords(ctx, batchName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load batch: %v\n", err)
		return 1
	}

	if err := store.Save(fileOut, records); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to save %s: %v\n", fileOut, err)
		return 1
	}

	fmt.Printf("export batch=%s records=%d out=%s\n", batchName, len(records), fileOut)
	return 0
}
