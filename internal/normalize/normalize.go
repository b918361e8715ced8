package normalize

import (
	"sort"
	"strings"

	"horse.fit/collate/internal/stem"
)

// punctuation is the character set deleted from raw text after hyphen
// removal. Characters are deleted outright and never become token boundaries.
const punctuation = "!\"#$%&'()*+,./:;<=>?@[\\]^_`{|}~"

// Normalizer turns one raw text string into an ordered sequence of normalized
// tokens. The steps run in fixed order: trim, lowercase, delete hyphens,
// delete punctuation, split on whitespace runs, stem each token.
type Normalizer struct {
	stemmer stem.Stemmer
}

func New(stemmer stem.Stemmer) *Normalizer {
	return &Normalizer{stemmer: stemmer}
}

// Tokens normalizes raw into its token sequence. stemFallbacks counts tokens
// kept unstemmed because the stemmer errored on them; a fallback never aborts
// the sequence.
func (n *Normalizer) Tokens(raw string) (tokens []string, stemFallbacks int) {
	cleaned := strings.ToLower(strings.TrimSpace(raw))
	if cleaned == "" {
		return nil, 0
	}
	cleaned = strings.ReplaceAll(cleaned, "-", "")
	cleaned = deletePunctuation(cleaned)

	parts := strings.Fields(cleaned)
	if len(parts) == 0 {
		return nil, 0
	}

	tokens = make([]string, 0, len(parts))
	for _, part := range parts {
		stemmed, err := n.stemmer.Stem(part)
		if err != nil {
			tokens = append(tokens, part)
			stemFallbacks++
			continue
		}
		if stemmed == "" {
			tokens = append(tokens, part)
			continue
		}
		tokens = append(tokens, stemmed)
	}
	return tokens, stemFallbacks
}

// Key normalizes raw and collapses the result into its cluster key.
func (n *Normalizer) Key(raw string) (key string, stemFallbacks int) {
	tokens, stemFallbacks := n.Tokens(raw)
	return BuildKey(tokens), stemFallbacks
}

// BuildKey collapses a token sequence into the canonical cluster key: the
// distinct tokens, sorted ascending by code point, joined with single spaces.
// The key is a function of the token set; order and multiplicity in the
// sequence are irrelevant. An empty sequence keys to the empty string.
func BuildKey(tokens []string) string {
	if len(tokens) == 0 {
		return ""
	}

	seen := make(map[string]struct{}, len(tokens))
	distinct := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if _, ok := seen[token]; ok {
			continue
		}
		seen[token] = struct{}{}
		distinct = append(distinct, token)
	}
	sort.Strings(distinct)
	return strings.Join(distinct, " ")
}

func deletePunctuation(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if strings.ContainsRune(punctuation, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
