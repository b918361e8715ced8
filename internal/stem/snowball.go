package stem

import (
	"fmt"
	"strings"

	"github.com/kljensen/snowball"
)

// Snowball stems tokens with the snowball (Porter2) algorithm for one
// language. The language is validated at construction with a probe word so a
// misconfigured name fails fast instead of on the first batch token.
type Snowball struct {
	language string
}

func NewSnowball(language string) (*Snowball, error) {
	normalized := strings.ToLower(strings.TrimSpace(language))
	if normalized == "" {
		normalized = DefaultName
	}
	if _, err := snowball.Stem("probe", normalized, true); err != nil {
		return nil, fmt.Errorf("unsupported stemmer language %q: %w", normalized, err)
	}
	return &Snowball{language: normalized}, nil
}

func (s *Snowball) Name() string { return s.language }

func (s *Snowball) Stem(token string) (string, error) {
	stemmed, err := snowball.Stem(token, s.language, true)
	if err != nil {
		return "", fmt.Errorf("stem %q: %w", token, err)
	}
	return stemmed, nil
}
