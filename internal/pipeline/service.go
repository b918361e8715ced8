package pipeline

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"horse.fit/collate/internal/cluster"
	"horse.fit/collate/internal/langcheck"
	"horse.fit/collate/internal/normalize"
	"horse.fit/collate/internal/record"
	"horse.fit/collate/internal/stem"
)

const (
	// DefaultWorkers keeps keying sequential unless configured otherwise.
	DefaultWorkers = 1
	// DefaultLanguageSample caps how many records feed the language advisory.
	DefaultLanguageSample = 25
)

// Service runs the clean pass: key every record, resolve one representative
// per key, broadcast it into every member's CleanedText.
type Service struct {
	normalizer       *normalize.Normalizer
	stemmerName      string
	logger           zerolog.Logger
	workers          int
	expectedLanguage string
	languageSample   int
}

type Options struct {
	Stemmer stem.Stemmer
	Logger  zerolog.Logger
	// Workers bounds concurrent record keying; values <= 1 run sequentially.
	Workers int
	// ExpectedLanguage enables the batch language advisory when non-empty
	// (any tag form, normalized to its primary subtag).
	ExpectedLanguage string
	LanguageSample   int
}

// Outcome summarizes one clean pass. Commands log it and the DB store
// persists it as a clean_runs row.
type Outcome struct {
	Records             int
	Clusters            int
	DuplicatesCollapsed int
	EmptyKeyRecords     int
	StemFallbacks       int
	DominantLanguage    string
}

func NewService(opts Options) (*Service, error) {
	if opts.Stemmer == nil {
		return nil, fmt.Errorf("pipeline stemmer is required")
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	sample := opts.LanguageSample
	if sample <= 0 {
		sample = DefaultLanguageSample
	}

	return &Service{
		normalizer:       normalize.New(opts.Stemmer),
		stemmerName:      opts.Stemmer.Name(),
		logger:           opts.Logger,
		workers:          workers,
		expectedLanguage: langcheck.NormalizeExpected(opts.ExpectedLanguage),
		languageSample:   sample,
	}, nil
}

// Clean derives keys for every record, resolves representatives, and fills
// CleanedText in place. RawText is never modified. Cleaning is idempotent:
// re-running over the output (cleaned text as the new raw text) reproduces
// the same cleaned values.
func (s *Service) Clean(ctx context.Context, records []record.Record) (Outcome, error) {
	if s == nil || s.normalizer == nil {
		return Outcome{}, fmt.Errorf("pipeline service is not initialized")
	}
	if len(records) == 0 {
		return Outcome{}, nil
	}

	outcome := Outcome{Records: len(records)}

	if s.expectedLanguage != "" {
		outcome.DominantLanguage = langcheck.Sample(records, s.languageSample)
		if outcome.DominantLanguage != "" && outcome.DominantLanguage != s.expectedLanguage {
			s.logger.Warn().
				Str("detected_language", outcome.DominantLanguage).
				Str("expected_language", s.expectedLanguage).
				Str("stemmer", s.stemmerName).
				Msg("batch language does not match the stemmer language")
		}
	}

	var fallbacks int
	var err error
	if s.workers > 1 {
		fallbacks, err = s.keyRecordsParallel(ctx, records)
	} else {
		fallbacks, err = s.keyRecords(ctx, records)
	}
	if err != nil {
		return outcome, err
	}
	outcome.StemFallbacks = fallbacks

	representatives := cluster.Resolve(records)
	if err := cluster.Broadcast(records, representatives); err != nil {
		return outcome, fmt.Errorf("broadcast representatives: %w", err)
	}

	outcome.Clusters = len(representatives)
	outcome.DuplicatesCollapsed = outcome.Records - outcome.Clusters
	for i := range records {
		if records[i].Key == "" {
			outcome.EmptyKeyRecords++
		}
	}

	s.logger.Debug().
		Int("records", outcome.Records).
		Int("clusters", outcome.Clusters).
		Int("duplicates_collapsed", outcome.DuplicatesCollapsed).
		Int("stem_fallbacks", outcome.StemFallbacks).
		Msg("clean pass finished")
	return outcome, nil
}

func (s *Service) keyRecords(ctx context.Context, records []record.Record) (int, error) {
	fallbacks := 0
	for i := range records {
		if err := ctx.Err(); err != nil {
			return fallbacks, fmt.Errorf("key records: %w", err)
		}
		key, n := s.normalizer.Key(records[i].RawText)
		records[i].Key = key
		fallbacks += n
	}
	return fallbacks, nil
}

// keyRecordsParallel keys records under a weighted semaphore. Results land
// by index, so original record order survives; the full-width acquire is the
// barrier before resolution may start.
func (s *Service) keyRecordsParallel(ctx context.Context, records []record.Record) (int, error) {
	sem := semaphore.NewWeighted(int64(s.workers))
	var fallbacks atomic.Int64

	var acquireErr error
	for i := range records {
		if acquireErr = sem.Acquire(ctx, 1); acquireErr != nil {
			break
		}
		go func(i int) {
			defer sem.Release(1)
			key, n := s.normalizer.Key(records[i].RawText)
			records[i].Key = key
			if n > 0 {
				fallbacks.Add(int64(n))
			}
		}(i)
	}

	// Drain in-flight workers even when ctx was cancelled; they are
	// compute-only and finish promptly.
	if err := sem.Acquire(context.Background(), int64(s.workers)); err != nil {
		return 0, fmt.Errorf("wait for keying workers: %w", err)
	}
	if acquireErr != nil {
		return 0, fmt.Errorf("acquire keying worker: %w", acquireErr)
	}
	return int(fallbacks.Load()), nil
}
