package cluster

import (
	"fmt"

	"horse.fit/collate/internal/record"
)

// Resolve picks one representative raw text per distinct key. Within a key
// the representative is the lexicographically smallest raw text in byte
// order, which for UTF-8 is code-point order; uppercase sorts before
// lowercase. Input row order never influences the choice. Every key present
// in records appears exactly once in the returned mapping.
func Resolve(records []record.Record) map[string]string {
	representatives := make(map[string]string, len(records))
	for _, rec := range records {
		current, ok := representatives[rec.Key]
		if !ok || rec.RawText < current {
			representatives[rec.Key] = rec.RawText
		}
	}
	return representatives
}

// InvariantViolationError reports a record whose key is missing from the
// representative mapping. This is an internal fault, unreachable when the
// mapping was resolved from the same record set the broadcast walks.
type InvariantViolationError struct {
	Position int
	Key      string
}

func (e *InvariantViolationError) Error() string {
	return fmt.Sprintf("no representative for key %q (record position %d)", e.Key, e.Position)
}

// Broadcast fills every record's CleanedText with its key's representative,
// including the representative's own record.
func Broadcast(records []record.Record, representatives map[string]string) error {
	for i := range records {
		text, ok := representatives[records[i].Key]
		if !ok {
			return &InvariantViolationError{Position: records[i].Position, Key: records[i].Key}
		}
		records[i].CleanedText = text
	}
	return nil
}
