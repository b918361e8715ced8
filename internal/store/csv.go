package store

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"horse.fit/collate/internal/record"
)

const (
	// DefaultRawTextColumn is the input column read when none is configured.
	DefaultRawTextColumn = "raw_text"

	rawTextHeader     = "raw_text"
	cleanedTextHeader = "cleaned_text"
)

// Options control CSV loading.
type Options struct {
	// Column selects the raw-text column by header name (case-insensitive)
	// or as "#N" with a 1-based index. Defaults to DefaultRawTextColumn.
	Column string
	// ExtractHTML reduces each cell to readable text before it becomes
	// RawText. Cells that fail extraction are kept verbatim.
	ExtractHTML bool
}

// Load reads ordered records from a headered CSV file. Cell whitespace is
// preserved; only a UTF-8 BOM is stripped. A missing or empty raw-text cell
// is a record.MalformedError, never an empty-string substitute.
func Load(path string, opts Options) ([]record.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s has no header row", filepath.Base(path))
	}

	header := make([]string, len(rows[0]))
	for i, cell := range rows[0] {
		header[i] = cleanCell(cell)
	}
	column, err := resolveColumn(header, opts.Column)
	if err != nil {
		return nil, err
	}

	records := make([]record.Record, 0, len(rows)-1)
	for position, row := range rows[1:] {
		if column >= len(row) {
			return nil, &record.MalformedError{
				Position: position,
				Reason:   fmt.Sprintf("row has %d cells, raw text expected in column %d", len(row), column+1),
			}
		}
		cell := strings.TrimPrefix(row[column], "﻿")
		if cell == "" {
			return nil, &record.MalformedError{Position: position, Reason: "empty raw_text cell"}
		}
		if opts.ExtractHTML {
			if text, err := ExtractHTMLText(cell); err == nil {
				cell = text
			}
		}
		records = append(records, record.Record{Position: position, RawText: cell})
	}
	return records, nil
}

// Save writes records as a two-column CSV, raw_text then cleaned_text, in
// record order. Derived keys never reach the output schema.
func Save(path string, records []record.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{rawTextHeader, cleanedTextHeader}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i := range records {
		if err := w.Write([]string{records[i].RawText, records[i].CleanedText}); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", filepath.Base(path), err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", filepath.Base(path), err)
	}
	return nil
}

func resolveColumn(header []string, explicit string) (int, error) {
	want := strings.TrimSpace(explicit)
	if want == "" {
		want = DefaultRawTextColumn
	}

	for i, col := range header {
		if strings.EqualFold(col, want) {
			return i, nil
		}
	}
	if strings.HasPrefix(want, "#") {
		index, err := strconv.Atoi(strings.TrimPrefix(want, "#"))
		if err != nil || index < 1 {
			return -1, fmt.Errorf("invalid column reference %q", explicit)
		}
		if index > len(header) {
			return -1, fmt.Errorf("column %s is out of range (header has %d columns)", want, len(header))
		}
		return index - 1, nil
	}
	return -1, fmt.Errorf("column %q not found in header", want)
}

func cleanCell(v string) string {
	v = strings.TrimSpace(v)
	return strings.TrimPrefix(v, "﻿")
}
