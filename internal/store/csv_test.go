package store

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"horse.fit/collate/internal/record"
)

func TestLoadReadsRawTextColumn(t *testing.T) {
	t.Parallel()

	path := mustWriteCSV(t, "in.csv", "﻿id,raw_text\n1,Running fast!\n2,\"  RUNNING FAST  \"\n")

	records, err := Load(path, Options{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("unexpected record count: have %d want 2", len(records))
	}
	if records[0].Position != 0 || records[0].RawText != "Running fast!" {
		t.Fatalf("unexpected first record: %+v", records[0])
	}
	// Whitespace inside the cell survives loading untouched.
	if records[1].RawText != "  RUNNING FAST  " {
		t.Fatalf("unexpected second raw text: %q", records[1].RawText)
	}
}

func TestLoadColumnSelection(t *testing.T) {
	t.Parallel()

	path := mustWriteCSV(t, "in.csv", "id,Text\n1,hello\n")

	records, err := Load(path, Options{Column: "text"})
	if err != nil {
		t.Fatalf("load by name: %v", err)
	}
	if records[0].RawText != "hello" {
		t.Fatalf("unexpected raw text: %q", records[0].RawText)
	}

	records, err = Load(path, Options{Column: "#2"})
	if err != nil {
		t.Fatalf("load by index: %v", err)
	}
	if records[0].RawText != "hello" {
		t.Fatalf("unexpected raw text via index: %q", records[0].RawText)
	}

	if _, err := Load(path, Options{Column: "missing"}); err == nil {
		t.Fatal("expected error for unknown column")
	}
	if _, err := Load(path, Options{Column: "#9"}); err == nil {
		t.Fatal("expected error for out-of-range column index")
	}
}

func TestLoadMalformedRows(t *testing.T) {
	t.Parallel()

	short := mustWriteCSV(t, "short.csv", "id,raw_text\n1,first\n2\n")
	_, err := Load(short, Options{})
	var malformed *record.MalformedError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected malformed record error, got %v", err)
	}
	if malformed.Position != 1 {
		t.Fatalf("unexpected malformed position: have %d want 1", malformed.Position)
	}

	empty := mustWriteCSV(t, "empty-cell.csv", "raw_text\nfirst\n\"\"\n")
	_, err = Load(empty, Options{})
	if !errors.As(err, &malformed) {
		t.Fatalf("expected malformed record error for empty cell, got %v", err)
	}
}

func TestLoadHeaderOnlyFile(t *testing.T) {
	t.Parallel()

	path := mustWriteCSV(t, "header.csv", "raw_text\n")
	records, err := Load(path, Options{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected no records, got %d", len(records))
	}
}

func TestLoadEmptyFileFails(t *testing.T) {
	t.Parallel()

	path := mustWriteCSV(t, "empty.csv", "")
	if _, err := Load(path, Options{}); err == nil {
		t.Fatal("expected error for empty file")
	}
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	t.Parallel()

	records := []record.Record{
		{Position: 0, RawText: "Running fast!", Key: "fast run", CleanedText: "  RUNNING FAST  "},
		{Position: 1, RawText: "  RUNNING FAST  ", Key: "fast run", CleanedText: "  RUNNING FAST  "},
		{Position: 2, RawText: "value, with comma", Key: "comma valu with", CleanedText: "value, with comma"},
	}

	path := filepath.Join(t.TempDir(), "out.csv")
	if err := Save(path, records); err != nil {
		t.Fatalf("save: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read saved file: %v", err)
	}
	firstLine := strings.SplitN(string(raw), "\n", 2)[0]
	if firstLine != "raw_text,cleaned_text" {
		t.Fatalf("unexpected header: %q", firstLine)
	}
	// The derived key never reaches the persisted schema.
	if strings.Contains(string(raw), "fast run") {
		t.Fatalf("key leaked into output: %s", raw)
	}

	reloaded, err := Load(path, Options{})
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(reloaded) != len(records) {
		t.Fatalf("unexpected reloaded count: have %d want %d", len(reloaded), len(records))
	}
	for i := range records {
		if reloaded[i].RawText != records[i].RawText {
			t.Fatalf("raw text changed at %d: %q vs %q", i, reloaded[i].RawText, records[i].RawText)
		}
	}
}

func TestCleanTextCollapsesWhitespaceAndPreservesParagraphs(t *testing.T) {
	t.Parallel()

	input := "  First   paragraph \n\n Second\tparagraph \r\n\r\nThird line "
	want := "First paragraph\n\nSecond paragraph\n\nThird line"
	if got := CleanText(input); got != want {
		t.Fatalf("CleanText mismatch\nwant: %q\ngot:  %q", want, got)
	}
}

func mustWriteCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	return path
}
