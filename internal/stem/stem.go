package stem

import (
	"fmt"
	"sort"
	"strings"
)

// NoneName selects the passthrough stemmer.
const NoneName = "none"

// DefaultName selects the stemmer used when no language is configured.
const DefaultName = "english"

// Stemmer reduces one normalized token to its stem. Implementations must be
// deterministic. A returned error means the stemmer could not process that
// one token; callers fall back to the unstemmed token and continue.
type Stemmer interface {
	Name() string
	Stem(token string) (string, error)
}

// Noop passes tokens through unchanged. Useful for tests and for corpora in
// languages without a registered stemming algorithm.
type Noop struct{}

func (Noop) Name() string { return NoneName }

func (Noop) Stem(token string) (string, error) { return token, nil }

// Registry stores stemmers and resolves a default by name.
type Registry struct {
	stemmers    map[string]Stemmer
	defaultName string
}

func NewRegistry(defaultName string) *Registry {
	normalized := normalizeName(defaultName)
	if normalized == "" {
		normalized = DefaultName
	}
	return &Registry{
		stemmers:    make(map[string]Stemmer),
		defaultName: normalized,
	}
}

// NewDefaultRegistry creates a registry with the passthrough stemmer and a
// snowball stemmer for the requested language (DefaultName when blank).
func NewDefaultRegistry(language string) (*Registry, error) {
	registry := NewRegistry(language)
	_ = registry.Register(Noop{})

	if registry.defaultName != NoneName {
		snowball, err := NewSnowball(registry.defaultName)
		if err != nil {
			return nil, err
		}
		_ = registry.Register(snowball)
	}
	return registry, nil
}

// Register adds one stemmer.
func (r *Registry) Register(stemmer Stemmer) error {
	if r == nil {
		return fmt.Errorf("registry is nil")
	}
	if stemmer == nil {
		return fmt.Errorf("stemmer is nil")
	}
	name := normalizeName(stemmer.Name())
	if name == "" {
		return fmt.Errorf("stemmer name is required")
	}
	r.stemmers[name] = stemmer
	return nil
}

// Stemmer resolves a stemmer by name. Empty names use the configured default.
func (r *Registry) Stemmer(name string) (Stemmer, error) {
	if r == nil {
		return nil, fmt.Errorf("registry is nil")
	}
	if len(r.stemmers) == 0 {
		return nil, fmt.Errorf("no stemmers are registered")
	}

	resolved := normalizeName(name)
	if resolved == "" {
		resolved = r.defaultName
	}
	stemmer, ok := r.stemmers[resolved]
	if ok {
		return stemmer, nil
	}
	return nil, fmt.Errorf("stemmer %q is not registered (available: %s)", resolved, strings.Join(r.Names(), ", "))
}

func (r *Registry) DefaultName() string {
	if r == nil {
		return ""
	}
	return r.defaultName
}

func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.stemmers))
	for name := range r.stemmers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func normalizeName(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
