package cluster

import (
	"errors"
	"testing"

	"horse.fit/collate/internal/record"
)

func TestResolvePicksSmallestRawText(t *testing.T) {
	t.Parallel()

	records := []record.Record{
		{Position: 0, RawText: "zebra runs", Key: "run zebra"},
		{Position: 1, RawText: "Zebra running", Key: "run zebra"},
		{Position: 2, RawText: "alone", Key: "alon"},
	}
	representatives := Resolve(records)

	if len(representatives) != 2 {
		t.Fatalf("unexpected mapping size: have %d want 2", len(representatives))
	}
	if got := representatives["run zebra"]; got != "Zebra running" {
		t.Fatalf("unexpected representative: %q", got)
	}
	if got := representatives["alon"]; got != "alone" {
		t.Fatalf("unexpected representative: %q", got)
	}
}

func TestResolveIsIndependentOfRowOrder(t *testing.T) {
	t.Parallel()

	forward := []record.Record{
		{Position: 0, RawText: "bbb", Key: "k"},
		{Position: 1, RawText: "aaa", Key: "k"},
		{Position: 2, RawText: "ccc", Key: "k"},
	}
	reversed := []record.Record{
		{Position: 0, RawText: "ccc", Key: "k"},
		{Position: 1, RawText: "bbb", Key: "k"},
		{Position: 2, RawText: "aaa", Key: "k"},
	}

	if got := Resolve(forward)["k"]; got != "aaa" {
		t.Fatalf("unexpected representative: %q", got)
	}
	if got := Resolve(reversed)["k"]; got != "aaa" {
		t.Fatalf("unexpected representative after reorder: %q", got)
	}
}

func TestResolveUppercaseSortsBeforeLowercase(t *testing.T) {
	t.Parallel()

	records := []record.Record{
		{Position: 0, RawText: "apple", Key: "appl"},
		{Position: 1, RawText: "Apple", Key: "appl"},
	}
	if got := Resolve(records)["appl"]; got != "Apple" {
		t.Fatalf("unexpected representative: %q", got)
	}
}

func TestResolveEmptyKeyRecordsShareOneCluster(t *testing.T) {
	t.Parallel()

	records := []record.Record{
		{Position: 0, RawText: "???...,,,", Key: ""},
		{Position: 1, RawText: "!!!", Key: ""},
	}
	representatives := Resolve(records)
	if len(representatives) != 1 {
		t.Fatalf("unexpected mapping size: have %d want 1", len(representatives))
	}
	if got := representatives[""]; got != "!!!" {
		t.Fatalf("unexpected empty-key representative: %q", got)
	}
}

func TestBroadcastFillsEveryRecord(t *testing.T) {
	t.Parallel()

	records := []record.Record{
		{Position: 0, RawText: "Bravo", Key: "bravo"},
		{Position: 1, RawText: "bravo", Key: "bravo"},
		{Position: 2, RawText: "solo", Key: "solo"},
	}
	if err := Broadcast(records, Resolve(records)); err != nil {
		t.Fatalf("broadcast: %v", err)
	}

	if records[0].CleanedText != "Bravo" || records[1].CleanedText != "Bravo" {
		t.Fatalf("unexpected cluster texts: %q, %q", records[0].CleanedText, records[1].CleanedText)
	}
	// A singleton's cleaned text is its own raw text.
	if records[2].CleanedText != "solo" {
		t.Fatalf("unexpected singleton text: %q", records[2].CleanedText)
	}
}

func TestBroadcastMissingKeyIsInvariantViolation(t *testing.T) {
	t.Parallel()

	records := []record.Record{{Position: 3, RawText: "orphan", Key: "orphan"}}
	err := Broadcast(records, map[string]string{})
	if err == nil {
		t.Fatal("expected invariant violation")
	}

	var violation *InvariantViolationError
	if !errors.As(err, &violation) {
		t.Fatalf("unexpected error type: %v", err)
	}
	if violation.Position != 3 || violation.Key != "orphan" {
		t.Fatalf("unexpected violation details: %+v", violation)
	}
}
