package normalize

import (
	"errors"
	"strings"
	"testing"

	"horse.fit/collate/internal/stem"
)

func newEnglishNormalizer(t *testing.T) *Normalizer {
	t.Helper()
	stemmer, err := stem.NewSnowball("english")
	if err != nil {
		t.Fatalf("new snowball: %v", err)
	}
	return New(stemmer)
}

func TestTokensFixedStepOrder(t *testing.T) {
	t.Parallel()

	n := newEnglishNormalizer(t)

	tokens, fallbacks := n.Tokens("  Running fast!  ")
	if fallbacks != 0 {
		t.Fatalf("unexpected stem fallbacks: %d", fallbacks)
	}
	if got := strings.Join(tokens, ","); got != "run,fast" {
		t.Fatalf("unexpected tokens: %q", got)
	}
}

func TestTokensHyphenDeletionMergesWords(t *testing.T) {
	t.Parallel()

	n := newEnglishNormalizer(t)

	tokens, _ := n.Tokens("runner-fast")
	if len(tokens) != 1 {
		t.Fatalf("expected one merged token, got %d: %v", len(tokens), tokens)
	}
	if tokens[0] != "runnerfast" {
		t.Fatalf("unexpected merged token: %q", tokens[0])
	}
}

func TestTokensPunctuationDeletionIsNotABoundary(t *testing.T) {
	t.Parallel()

	n := newEnglishNormalizer(t)

	// The period vanishes, rejoining the word before stemming.
	tokens, _ := n.Tokens("run.ning")
	if got := strings.Join(tokens, ","); got != "run" {
		t.Fatalf("unexpected tokens: %q", got)
	}
}

func TestTokensEmptyAndPunctuationOnlyInputs(t *testing.T) {
	t.Parallel()

	n := newEnglishNormalizer(t)

	if tokens, _ := n.Tokens(""); len(tokens) != 0 {
		t.Fatalf("expected no tokens for empty input, got %v", tokens)
	}
	if tokens, _ := n.Tokens("???...,,,"); len(tokens) != 0 {
		t.Fatalf("expected no tokens for punctuation-only input, got %v", tokens)
	}
	if tokens, _ := n.Tokens(" \t -- \n "); len(tokens) != 0 {
		t.Fatalf("expected no tokens for whitespace and hyphens, got %v", tokens)
	}
}

func TestTokensNonASCIIPassesThrough(t *testing.T) {
	t.Parallel()

	n := newEnglishNormalizer(t)

	tokens, _ := n.Tokens("Café au lait")
	if got := strings.Join(tokens, ","); got != "café,au,lait" {
		t.Fatalf("unexpected tokens: %q", got)
	}
}

type failingStemmer struct {
	fail string
}

func (f failingStemmer) Name() string { return "failing" }

func (f failingStemmer) Stem(token string) (string, error) {
	if token == f.fail {
		return "", errors.New("unprocessable token")
	}
	return token, nil
}

func TestTokensStemmerFailureFallsBackPerToken(t *testing.T) {
	t.Parallel()

	n := New(failingStemmer{fail: "bad"})

	tokens, fallbacks := n.Tokens("good bad good")
	if got := strings.Join(tokens, ","); got != "good,bad,good" {
		t.Fatalf("unexpected tokens: %q", got)
	}
	if fallbacks != 1 {
		t.Fatalf("unexpected fallback count: have %d want 1", fallbacks)
	}
}

func TestBuildKeyDedupesSortsAndJoins(t *testing.T) {
	t.Parallel()

	if got := BuildKey([]string{"run", "fast", "run"}); got != "fast run" {
		t.Fatalf("unexpected key: %q", got)
	}
	if got := BuildKey(nil); got != "" {
		t.Fatalf("expected empty key for no tokens, got %q", got)
	}
}

func TestBuildKeyIsSetInsensitive(t *testing.T) {
	t.Parallel()

	first := BuildKey([]string{"b", "a", "b", "c"})
	second := BuildKey([]string{"c", "c", "a", "b"})
	if first != second {
		t.Fatalf("keys differ for equal token sets: %q vs %q", first, second)
	}
	if first != "a b c" {
		t.Fatalf("unexpected key: %q", first)
	}
}

func TestKeyComposesTokensAndBuildKey(t *testing.T) {
	t.Parallel()

	n := newEnglishNormalizer(t)

	key, _ := n.Key("Running fast, running FAST!")
	if key != "fast run" {
		t.Fatalf("unexpected key: %q", key)
	}
	key, _ = n.Key("Apple!")
	if key != "appl" {
		t.Fatalf("unexpected key: %q", key)
	}
}
