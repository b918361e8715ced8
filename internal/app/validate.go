package app

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	cleanschema "horse.fit/collate/schema"
)

func runValidate(args []string) int {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	dir := fs.String("dir", "", "Directory containing clean request .json files")
	file := fs.String("file", "", "Single .json file to validate")
	recursive := fs.Bool("recursive", true, "Recursively scan subdirectories")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	dirPath := strings.TrimSpace(*dir)
	filePath := strings.TrimSpace(*file)
	switch {
	case dirPath != "" && filePath != "":
		fmt.Fprintln(os.Stderr, "--dir and --file are mutually exclusive")
		return 2
	case dirPath == "" && filePath == "":
		fmt.Fprintln(os.Stderr, "either --dir or --file is required")
		return 2
	}

	files := []string{filePath}
	if filePath == "" {
		var err error
		files, err = collectJSONFiles(dirPath, *recursive)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Validation setup failed: %v\n", err)
			return 1
		}
		if len(files) == 0 {
			fmt.Fprintf(os.Stderr, "Validation failed: no .json files found under %s\n", dirPath)
			return 1
		}
	}

	valid := 0
	for _, path := range files {
		if err := validatePayloadFile(path); err != nil {
			fmt.Fprintf(os.Stderr, "INVALID %s: %v\n", path, err)
			continue
		}
		valid++
	}

	invalid := len(files) - valid
	fmt.Printf("validate scanned=%d valid=%d invalid=%d\n", len(files), valid, invalid)
	if invalid > 0 {
		return 1
	}
	return 0
}

// validatePayloadFile checks one file against the clean request schema, with
// the record cap disabled.
func validatePayloadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read failed: %w", err)
	}
	if !json.Valid(raw) {
		return fmt.Errorf("malformed JSON")
	}
	if _, err := cleanschema.ValidateCleanRequest(raw, 0); err != nil {
		return err
	}
	return nil
}

// collectJSONFiles gathers .json files under root, sorted by path. Hidden
// files and directories are skipped; recursive=false stops at the top level.
func collectJSONFiles(root string, recursive bool) ([]string, error) {
	cleanRoot := strings.TrimSpace(root)
	if cleanRoot == "" {
		return nil, fmt.Errorf("directory path is empty")
	}
	info, err := os.Stat(cleanRoot)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", cleanRoot, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", cleanRoot)
	}

	var files []string
	walk := func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		name := d.Name()
		if d.IsDir() {
			if path == cleanRoot {
				return nil
			}
			if !recursive || strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") || !strings.EqualFold(filepath.Ext(name), ".json") {
			return nil
		}
		files = append(files, path)
		return nil
	}
	if err := filepath.WalkDir(cleanRoot, walk); err != nil {
		return nil, fmt.Errorf("walk directory %s: %w", cleanRoot, err)
	}

	sort.Strings(files)
	return files, nil
}
