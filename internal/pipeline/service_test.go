package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"

	"horse.fit/collate/internal/record"
	"horse.fit/collate/internal/stem"
)

func newTestService(t *testing.T, workers int) *Service {
	t.Helper()

	stemmer, err := stem.NewSnowball("english")
	if err != nil {
		t.Fatalf("new snowball: %v", err)
	}
	service, err := NewService(Options{
		Stemmer: stemmer,
		Logger:  zerolog.Nop(),
		Workers: workers,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return service
}

func TestNewServiceRequiresStemmer(t *testing.T) {
	t.Parallel()

	if _, err := NewService(Options{Logger: zerolog.Nop()}); err == nil {
		t.Fatal("expected error without stemmer")
	}
}

func TestCleanCollapsesEquivalentRows(t *testing.T) {
	t.Parallel()

	service := newTestService(t, 1)
	records := record.FromTexts([]string{
		"Running fast!",
		"running, FAST",
		"  RUNNING FAST  ",
	})

	outcome, err := service.Clean(context.Background(), records)
	if err != nil {
		t.Fatalf("clean: %v", err)
	}

	if outcome.Clusters != 1 {
		t.Fatalf("unexpected cluster count: have %d want 1", outcome.Clusters)
	}
	if outcome.DuplicatesCollapsed != 2 {
		t.Fatalf("unexpected duplicates collapsed: have %d want 2", outcome.DuplicatesCollapsed)
	}
	// The representative is the byte-wise smallest raw text; leading spaces
	// sort before letters.
	for i := range records {
		if records[i].Key != "fast run" {
			t.Fatalf("unexpected key at %d: %q", i, records[i].Key)
		}
		if records[i].CleanedText != "  RUNNING FAST  " {
			t.Fatalf("unexpected cleaned text at %d: %q", i, records[i].CleanedText)
		}
	}
}

func TestCleanPunctuationOnlyRowIsItsOwnCluster(t *testing.T) {
	t.Parallel()

	service := newTestService(t, 1)
	records := record.FromTexts([]string{"???...,,,"})

	outcome, err := service.Clean(context.Background(), records)
	if err != nil {
		t.Fatalf("clean: %v", err)
	}

	if records[0].Key != "" {
		t.Fatalf("unexpected key: %q", records[0].Key)
	}
	if records[0].CleanedText != "???...,,," {
		t.Fatalf("unexpected cleaned text: %q", records[0].CleanedText)
	}
	if outcome.EmptyKeyRecords != 1 {
		t.Fatalf("unexpected empty-key count: have %d want 1", outcome.EmptyKeyRecords)
	}
}

func TestCleanCaseTieBreak(t *testing.T) {
	t.Parallel()

	service := newTestService(t, 1)
	records := record.FromTexts([]string{"apple", "Apple", "banana"})

	outcome, err := service.Clean(context.Background(), records)
	if err != nil {
		t.Fatalf("clean: %v", err)
	}

	if outcome.Clusters != 2 {
		t.Fatalf("unexpected cluster count: have %d want 2", outcome.Clusters)
	}
	if records[0].Key != "appl" || records[1].Key != "appl" {
		t.Fatalf("unexpected keys: %q, %q", records[0].Key, records[1].Key)
	}
	// Uppercase sorts before lowercase in code-point order.
	if records[0].CleanedText != "Apple" || records[1].CleanedText != "Apple" {
		t.Fatalf("unexpected cleaned texts: %q, %q", records[0].CleanedText, records[1].CleanedText)
	}
	if records[2].CleanedText != "banana" {
		t.Fatalf("unexpected singleton text: %q", records[2].CleanedText)
	}
}

func TestCleanIsIdempotent(t *testing.T) {
	t.Parallel()

	service := newTestService(t, 1)
	first := record.FromTexts([]string{
		"Running fast!",
		"running, FAST",
		"Apple",
		"apple!",
		"???",
		"banana",
	})
	if _, err := service.Clean(context.Background(), first); err != nil {
		t.Fatalf("first clean: %v", err)
	}

	// Feed the cleaned output back in as raw text.
	cleaned := make([]string, len(first))
	for i := range first {
		cleaned[i] = first[i].CleanedText
	}
	second := record.FromTexts(cleaned)
	if _, err := service.Clean(context.Background(), second); err != nil {
		t.Fatalf("second clean: %v", err)
	}

	for i := range second {
		if second[i].CleanedText != first[i].CleanedText {
			t.Fatalf("cleaned text drifted at %d: %q vs %q", i, second[i].CleanedText, first[i].CleanedText)
		}
	}
}

func TestCleanParallelMatchesSequential(t *testing.T) {
	t.Parallel()

	texts := make([]string, 0, 120)
	for i := 0; i < 120; i++ {
		texts = append(texts, fmt.Sprintf("Record %d runs fast, faster, fastest %d!", i%9, i%4))
	}

	sequential := record.FromTexts(texts)
	parallel := record.FromTexts(texts)

	seqOutcome, err := newTestService(t, 1).Clean(context.Background(), sequential)
	if err != nil {
		t.Fatalf("sequential clean: %v", err)
	}
	parOutcome, err := newTestService(t, 8).Clean(context.Background(), parallel)
	if err != nil {
		t.Fatalf("parallel clean: %v", err)
	}

	if seqOutcome != parOutcome {
		t.Fatalf("outcomes differ: %+v vs %+v", seqOutcome, parOutcome)
	}
	for i := range sequential {
		if sequential[i].Key != parallel[i].Key {
			t.Fatalf("keys differ at %d: %q vs %q", i, sequential[i].Key, parallel[i].Key)
		}
		if sequential[i].CleanedText != parallel[i].CleanedText {
			t.Fatalf("cleaned texts differ at %d: %q vs %q", i, sequential[i].CleanedText, parallel[i].CleanedText)
		}
	}
}

func TestCleanEmptyInput(t *testing.T) {
	t.Parallel()

	outcome, err := newTestService(t, 1).Clean(context.Background(), nil)
	if err != nil {
		t.Fatalf("clean: %v", err)
	}
	if outcome != (Outcome{}) {
		t.Fatalf("unexpected outcome for empty input: %+v", outcome)
	}
}

type faultyStemmer struct {
	fail string
}

func (f faultyStemmer) Name() string { return "faulty" }

func (f faultyStemmer) Stem(token string) (string, error) {
	if token == f.fail {
		return "", errors.New("unprocessable token")
	}
	return token, nil
}

func TestCleanCountsStemFallbacks(t *testing.T) {
	t.Parallel()

	service, err := NewService(Options{
		Stemmer: faultyStemmer{fail: "glitch"},
		Logger:  zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	records := record.FromTexts([]string{"glitch word", "word glitch"})
	outcome, err := service.Clean(context.Background(), records)
	if err != nil {
		t.Fatalf("clean: %v", err)
	}

	if outcome.StemFallbacks != 2 {
		t.Fatalf("unexpected fallback count: have %d want 2", outcome.StemFallbacks)
	}
	// Both rows key to the same set despite the fallback.
	if records[0].Key != records[1].Key {
		t.Fatalf("keys differ: %q vs %q", records[0].Key, records[1].Key)
	}
	if records[0].CleanedText != "glitch word" || records[1].CleanedText != "glitch word" {
		t.Fatalf("unexpected cleaned texts: %q, %q", records[0].CleanedText, records[1].CleanedText)
	}
}

func TestCleanStopsOnCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	records := record.FromTexts([]string{"one", "two"})
	if _, err := newTestService(t, 1).Clean(ctx, records); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
