package langcheck

import (
	"strings"
	"sync"
	"unicode"

	lingua "github.com/pemistahl/lingua-go"

	"horse.fit/collate/internal/record"
)

// minSampleLetters is the floor below which detection is too noisy to trust.
const minSampleLetters = 6

var (
	detectorOnce sync.Once
	detector     lingua.LanguageDetector
)

// DetectISO6391 returns the lowercase ISO 639-1 code for text, or an empty
// string when the sample is too short or detection is inconclusive.
func DetectISO6391(text string) string {
	sample := strings.TrimSpace(text)
	if sample == "" {
		return ""
	}

	letterCount := 0
	for _, r := range sample {
		if unicode.IsLetter(r) {
			letterCount++
		}
	}
	if letterCount < minSampleLetters {
		return ""
	}

	language, exists := getDetector().DetectLanguageOf(sample)
	if !exists {
		return ""
	}

	code := strings.ToLower(language.IsoCode639_1().String())
	if len(code) != 2 {
		return ""
	}
	return code
}

// NormalizeExpected reduces a configured language tag to its lowercase
// primary subtag ("en" from "EN_us"), the form DetectISO6391 reports.
// Blank or non-alphabetic values normalize to an empty string, which
// disables the advisory.
func NormalizeExpected(raw string) string {
	tag := strings.ToLower(strings.TrimSpace(raw))
	tag = strings.ReplaceAll(tag, "_", "-")
	if cut := strings.IndexByte(tag, '-'); cut >= 0 {
		tag = tag[:cut]
	}
	for _, r := range tag {
		if r < 'a' || r > 'z' {
			return ""
		}
	}
	return tag
}

// Sample concatenates the raw text of up to limit records and detects the
// dominant language of the batch. Advisory only: the result never alters
// pipeline output.
func Sample(records []record.Record, limit int) string {
	if len(records) == 0 || limit <= 0 {
		return ""
	}

	var b strings.Builder
	sampled := 0
	for _, rec := range records {
		text := strings.TrimSpace(rec.RawText)
		if text == "" {
			continue
		}
		b.WriteString(text)
		b.WriteRune(' ')
		sampled++
		if sampled >= limit {
			break
		}
	}
	return DetectISO6391(b.String())
}

func getDetector() lingua.LanguageDetector {
	detectorOnce.Do(func() {
		detector = lingua.NewLanguageDetectorBuilder().
			FromAllLanguages().
			WithPreloadedLanguageModels().
			Build()
	})
	return detector
}
