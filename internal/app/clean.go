package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"horse.fit/collate/internal/cli"
	"horse.fit/collate/internal/db"
	"horse.fit/collate/internal/globaltime"
	"horse.fit/collate/internal/logging"
	"horse.fit/collate/internal/pipeline"
	"horse.fit/collate/internal/store"
)

func runClean(args []string) int {
	fs := flag.NewFlagSet("clean", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 2*time.Minute, "Command timeout")
	inPath := fs.String("in", "", "Input CSV path")
	outPath := fs.String("out", "", "Output CSV path (raw_text,cleaned_text)")
	column := fs.String("column", "", "Raw text column: name or #N (default raw_text)")
	html := fs.Bool("html", false, "Extract readable text from HTML cells before cleaning")
	workers := fs.Int("workers", 0, "Concurrent keying workers (default from config)")
	batch := fs.String("batch", "", "Clean a stored batch in place instead of a file")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "clean does not accept positional arguments")
		return 2
	}

	batchName := strings.TrimSpace(*batch)
	fileIn := strings.TrimSpace(*inPath)
	fileOut := strings.TrimSpace(*outPath)

	switch {
	case batchName != "" && (fileIn != "" || fileOut != ""):
		fmt.Fprintln(os.Stderr, "--batch cannot be combined with --in/--out")
		return 2
	case batchName == "" && fileIn == "":
		fmt.Fprintln(os.Stderr, "either --in with --out or --batch is required")
		return 2
	case batchName == "" && fileOut == "":
		fmt.Fprintln(os.Stderr, "--out is required with --in")
		return 2
	}

	if batchName != "" {
		return runCleanBatch(batchName, *timeout, *workers, envLoader)
	}
	return runCleanFile(fileIn, fileOut, *column, *html, *timeout, *workers, envLoader)
}

func runCleanFile(inPath, outPath, column string, html bool, timeout time.Duration, workers int, envLoader *cli.EnvLoader) int {
	cfg, err := loadConfig(envLoader)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}

	service, err := buildService(cfg, logger, workers)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build pipeline: %v\n", err)
		return 1
	}

	records, err := store.Load(inPath, store.Options{Column: column, ExtractHTML: html})
	if err != nil {
		logger.Error().Err(err).Str("path", inPath).Msg("load input failed")
		fmt.Fprintf(os.Stderr, "Failed to load %s: %v\n", inPath, err)
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	outcome, err := service.Clean(ctx, records)
	if err != nil {
		logger.Error().Err(err).Msg("clean pass failed")
		fmt.Fprintf(os.Stderr, "Clean failed: %v\n", err)
		return 1
	}

	if err := store.Save(outPath, records); err != nil {
		logger.Error().Err(err).Str("path", outPath).Msg("save output failed")
		fmt.Fprintf(os.Stderr, "Failed to save %s: %v\n", outPath, err)
		return 1
	}

	logCleanOutcome(logger, outcome, "clean file completed")
	fmt.Printf(
		"clean records=%d clusters=%d duplicates_collapsed=%d empty_key=%d stem_fallbacks=%d out=%s\n",
		outcome.Records,
		outcome.Clusters,
		outcome.DuplicatesCollapsed,
		outcome.EmptyKeyRecords,
		outcome.StemFallbacks,
		outPath,
	)
	return 0
}

func runCleanBatch(batchName string, timeout time.Duration, workers int, envLoader *cli.EnvLoader) int {
	ctx, cancel, cfg, pool, err := connectPool(timeout, envLoader)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer cancel()
	defer pool.Close()

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}

	service, err := buildService(cfg, logger, workers)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build pipeline: %v\n", err)
		return 1
	}

	startedAt := globaltime.UTC()

	records, err := pool.LoadBatchRecords(ctx, batchName)
	if err != nil {
		logger.Error().Err(err).Str("batch", batchName).Msg("load batch failed")
		fmt.Fprintf(os.Stderr, "Failed to load batch: %v\n", err)
		return 1
	}

	outcome, err := service.Clean(ctx, records)
	if err != nil {
		logger.Error().Err(err).Str("batch", batchName).Msg("clean pass failed")
		fmt.Fprintf(os.Stderr, "Clean failed: %v\n", err)
		return 1
	}

	if err := pool.SaveCleanedTexts(ctx, batchName, records); err != nil {
		logger.Error().Err(err).Str("batch", batchName).Msg("persist cleaned texts failed")
		fmt.Fprintf(os.Stderr, "Failed to persist cleaned texts: %v\n", err)
		return 1
	}

	runID, err := pool.InsertCleanRun(ctx, db.CleanRun{
		BatchName:           batchName,
		RecordCount:         outcome.Records,
		ClusterCount:        outcome.Clusters,
		DuplicatesCollapsed: outcome.DuplicatesCollapsed,
		EmptyKeyRecords:     outcome.EmptyKeyRecords,
		StemFallbacks:       outcome.StemFallbacks,
		DominantLanguage:    outcome.DominantLanguage,
		StartedAt:           startedAt,
		FinishedAt:          globaltime.UTC(),
	})
	if err != nil {
		logger.Error().Err(err).Str("batch", batchName).Msg("record clean run failed")
		fmt.Fprintf(os.Stderr, "Failed to record clean run: %v\n", err)
		return 1
	}

	logCleanOutcome(logger.With().Str("batch", batchName).Int64("run_id", runID).Logger(), outcome, "clean batch completed")
	fmt.Printf(
		"clean batch=%s run_id=%d records=%d clusters=%d duplicates_collapsed=%d empty_key=%d stem_fallbacks=%d\n",
		batchName,
		runID,
		outcome.Records,
		outcome.Clusters,
		outcome.DuplicatesCollapsed,
		outcome.EmptyKeyRecords,
		outcome.StemFallbacks,
	)
	return 0
}

func logCleanOutcome(logger zerolog.Logger, outcome pipeline.Outcome, msg string) {
	event := logger.Info().
		Int("records", outcome.Records).
		Int("clusters", outcome.Clusters).
		Int("duplicates_collapsed", outcome.DuplicatesCollapsed).
		Int("empty_key_records", outcome.EmptyKeyRecords).
		Int("stem_fallbacks", outcome.StemFallbacks)
	if outcome.DominantLanguage != "" {
		event = event.Str("dominant_language", outcome.DominantLanguage)
	}
	event.Msg(msg)
}
