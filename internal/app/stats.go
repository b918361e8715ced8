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
	"horse.fit/collate/internal/record"
	"horse.fit/collate/internal/store"
)

const statsRunHistoryLimit = 10

type fileStats struct {
	Records             int    `json:"records"`
	Clusters            int    `json:"clusters"`
	DuplicatesCollapsed int    `json:"duplicates_collapsed"`
	SingletonClusters   int    `json:"singleton_clusters"`
	LargestClusterSize  int    `json:"largest_cluster_size"`
	EmptyKeyRecords     int    `json:"empty_key_records"`
	StemFallbacks       int    `json:"stem_fallbacks"`
	DominantLanguage    string `json:"dominant_language,omitempty"`
}

func runStats(args []string) int {
	fs := flag.NewFlagSet("stats", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 2*time.Minute, "Command timeout")
	inPath := fs.String("in", "", "Input CSV path")
	column := fs.String("column", "", "Raw text column: name or #N (default raw_text)")
	html := fs.Bool("html", false, "Extract readable text from HTML cells before keying")
	batch := fs.String("batch", "", "Stored batch name")
	format := fs.String("format", outputFormatTable, "Output format: table or json")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "stats does not accept positional arguments")
		return 2
	}

	outputFormat, err := parseOutputFormat(*format, outputFormatTable)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid format: %v\n", err)
		return 2
	}

	fileIn := strings.TrimSpace(*inPath)
	batchName := strings.TrimSpace(*batch)
	switch {
	case fileIn != "" && batchName != "":
		fmt.Fprintln(os.Stderr, "--in and --batch are mutually exclusive")
		return 2
	case fileIn == "" && batchName == "":
		fmt.Fprintln(os.Stderr, "either --in or --batch is required")
		return 2
	}

	if fileIn != "" {
		return runStatsFile(fileIn, *column, *html, *timeout, outputFormat, envLoader)
	}
	return runStatsBatch(batchName, *timeout, outputFormat, envLoader)
}

func runStatsFile(inPath, column string, html bool, timeout time.Duration, outputFormat string, envLoader *cli.EnvLoader) int {
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

	service, err := buildService(cfg, logger, 0)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build pipeline: %v\n", err)
		return 1
	}

	records, err := store.Load(inPath, store.Options{Column: column, ExtractHTML: html})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load %s: %v\n", inPath, err)
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	outcome, err := service.Clean(ctx, records)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Stats pass failed: %v\n", err)
		return 1
	}

	stats := fileStats{
		Records:             outcome.Records,
		Clusters:            outcome.Clusters,
		DuplicatesCollapsed: outcome.DuplicatesCollapsed,
		EmptyKeyRecords:     outcome.EmptyKeyRecords,
		StemFallbacks:       outcome.StemFallbacks,
		DominantLanguage:    outcome.DominantLanguage,
	}
	stats.SingletonClusters, stats.LargestClusterSize = clusterSizeBreakdown(records)

	if outputFormat == outputFormatJSON {
		if err := printJSON(stats); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
			return 1
		}
		return 0
	}

	rows := [][]string{
		{"records", fmt.Sprintf("%d", stats.Records)},
		{"clusters", fmt.Sprintf("%d", stats.Clusters)},
		{"duplicates_collapsed", fmt.Sprintf("%d", stats.DuplicatesCollapsed)},
		{"singleton_clusters", fmt.Sprintf("%d", stats.SingletonClusters)},
		{"largest_cluster_size", fmt.Sprintf("%d", stats.LargestClusterSize)},
		{"empty_key_records", fmt.Sprintf("%d", stats.EmptyKeyRecords)},
		{"stem_fallbacks", fmt.Sprintf("%d", stats.StemFallbacks)},
	}
	if stats.DominantLanguage != "" {
		rows = append(rows, []string{"dominant_language", stats.DominantLanguage})
	}
	if err := writeTable([]string{"metric", "value"}, rows); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to render stats table: %v\n", err)
		return 1
	}
	return 0
}

func runStatsBatch(batchName string, timeout time.Duration, outputFormat string, envLoader *cli.EnvLoader) int {
	ctx, cancel, _, pool, err := connectPool(timeout, envLoader)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer cancel()
	defer pool.Close()

	batch, err := pool.GetBatchByName(ctx, batchName)
	if err != nil {
		if db.IsNoRows(err) {
			fmt.Fprintf(os.Stderr, "Batch not found: %s\n", batchName)
			return 1
		}
		fmt.Fprintf(os.Stderr, "Failed to load batch: %v\n", err)
		return 1
	}

	runs, err := pool.ListCleanRuns(ctx, batchName, statsRunHistoryLimit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load clean runs: %v\n", err)
		return 1
	}

	if outputFormat == outputFormatJSON {
		if err := printJSON(map[string]any{"batch": batch, "runs": runs}); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
			return 1
		}
		return 0
	}

	batchRows := [][]string{{
		batch.Name,
		fmt.Sprintf("%d", batch.RecordCount),
		fmt.Sprintf("%d", batch.CleanedRecords),
		formatUTCTimestamp(batch.CreatedAt),
		formatUTCTimestampPtr(batch.LastCleanedAt),
	}}
	if err := writeTable([]string{"batch", "records", "cleaned", "created_at", "last_cleaned_at"}, batchRows); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to render batch table: %v\n", err)
		return 1
	}

	if len(runs) == 0 {
		return 0
	}

	fmt.Println()
	runRows := make([][]string, 0, len(runs))
	for _, run := range runs {
		runRows = append(runRows, []string{
			fmt.Sprintf("%d", run.CleanRunID),
			fmt.Sprintf("%d", run.RecordCount),
			fmt.Sprintf("%d", run.ClusterCount),
			fmt.Sprintf("%d", run.DuplicatesCollapsed),
			fmt.Sprintf("%d", run.StemFallbacks),
			formatUTCTimestamp(run.FinishedAt),
		})
	}
	if err := writeTable([]string{"run_id", "records", "clusters", "collapsed", "fallbacks", "finished_at"}, runRows); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to render run table: %v\n", err)
		return 1
	}
	return 0
}

// clusterSizeBreakdown reports singleton count and the largest cluster size
// from keyed records.
func clusterSizeBreakdown(records []record.Record) (singletons, largest int) {
	counts := make(map[string]int, len(records))
	for i := range records {
		counts[records[i].Key]++
	}
	for _, size := range counts {
		if size == 1 {
			singletons++
		}
		if size > largest {
			largest = size
		}
	}
	return singletons, largest
}
