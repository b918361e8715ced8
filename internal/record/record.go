package record

import "fmt"

// Record is one row of the working set. Position is the zero-based row order
// from the input source and is the record's identity. RawText is immutable
// input; Key and CleanedText are derived during a clean run. Key is an
// internal artifact and is never persisted.
type Record struct {
	Position    int
	RawText     string
	Key         string
	CleanedText string
}

// FromTexts builds an ordered record slice from raw text values.
func FromTexts(texts []string) []Record {
	records := make([]Record, len(texts))
	for i, text := range texts {
		records[i] = Record{Position: i, RawText: text}
	}
	return records
}

// MalformedError reports a row without a usable raw_text value (missing or
// empty cell). Load paths raise it instead of substituting an empty string,
// which would silently merge missing-data rows into the empty-key cluster.
type MalformedError struct {
	Position int
	Reason   string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed record at position %d: %s", e.Position, e.Reason)
}
