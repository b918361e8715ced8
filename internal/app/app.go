package app

import (
	"fmt"
	"os"
	"strings"
)

// Run executes the CLI command and returns a process exit code.
func Run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return 2
	}

	switch strings.ToLower(strings.TrimSpace(args[0])) {
	case "help", "--help", "-h":
		printUsage()
		return 0
	case "clean":
		return runClean(args[1:])
	case "ingest":
		return runIngest(args[1:])
	case "export":
		return runExport(args[1:])
	case "stats":
		return runStats(args[1:])
	case "purge":
		return runPurge(args[1:])
	case "validate":
		return runValidate(args[1:])
	case "token":
		return runToken(args[1:])
	case "health":
		return runHealth(args[1:])
	case "serve":
		return runServe(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", args[0])
		printUsage()
		return 2
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "collate CLI")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  collate <command> [flags]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  clean     Deduplicate a CSV file or a stored batch")
	fmt.Fprintln(os.Stderr, "  ingest    Load a CSV into the database as a named batch")
	fmt.Fprintln(os.Stderr, "  export    Write a cleaned batch back out as CSV")
	fmt.Fprintln(os.Stderr, "  stats     Cluster statistics for a CSV or a stored batch")
	fmt.Fprintln(os.Stderr, "  purge     Delete a batch and its records")
	fmt.Fprintln(os.Stderr, "  validate  Validate clean request JSON files against the schema")
	fmt.Fprintln(os.Stderr, "  token     Hash an API token for COLLATE_API_TOKEN_HASH")
	fmt.Fprintln(os.Stderr, "  health    Verify config and database connectivity")
	fmt.Fprintln(os.Stderr, "  serve     Start the HTTP API server")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Use \"collate <command> -h\" for command-specific flags.")
}
