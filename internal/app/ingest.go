package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"horse.fit/collate/internal/cli"
	"horse.fit/collate/internal/db"
	"horse.fit/collate/internal/logging"
	"horse.fit/collate/internal/store"
)

func runIngest(args []string) int {
	fs := flag.NewFlagSet("ingest", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 30*time.Second, "Command timeout")
	inPath := fs.String("in", "", "Input CSV path")
	name := fs.String("name", "", "Batch name (unique)")
	column := fs.String("column", "", "Raw text column: name or #N (default raw_text)")
	html := fs.Bool("html", false, "Extract readable text from HTML cells before storing")
	source := fs.String("source", "", "Free-form origin label stored with the batch")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	fileIn := strings.TrimSpace(*inPath)
	batchName := strings.TrimSpace(*name)
	if fileIn == "" || batchName == "" {
		fmt.Fprintln(os.Stderr, "--in and --name are required")
		return 2
	}

	cfg, err := loadConfig(envLoader)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if err := cfg.RequireDatabase(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}

	// Malformed input fails before a connection is opened.
	records, err := store.Load(fileIn, store.Options{Column: *column, ExtractHTML: *html})
	if err != nil {
		logger.Error().Err(err).Str("path", fileIn).Msg("load input failed")
		fmt.Fprintf(os.Stderr, "Failed to load %s: %v\n", fileIn, err)
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Error().Err(err).Msg("database connection failed")
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		return 1
	}
	defer pool.Close()

	batchID, err := pool.CreateBatch(ctx, batchName, strings.TrimSpace(*source), records)
	if err != nil {
		logger.Error().Err(err).Str("batch", batchName).Msg("ingest failed")
		fmt.Fprintf(os.Stderr, "Ingest failed: %v\n", err)
		return 1
	}

	logger.Info().
		Str("batch", batchName).
		Int64("batch_id", batchID).
		Int("records", len(records)).
		Msg("batch ingested")
	fmt.Printf("ingest batch=%s batch_id=%d records=%d\n", batchName, batchID, len(records))
	return 0
}
