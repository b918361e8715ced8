package db

import (
	"context"
	"fmt"

	"horse.fit/collate/internal/globaltime"
	"horse.fit/collate/internal/record"
)

// LoadBatchRecords returns a batch's records ordered by position. CleanedText
// is empty for records no clean run has touched yet.
func (p *Pool) LoadBatchRecords(ctx context.Context, name string) ([]record.Record, error) {
	const q = `
SELECT r.position, r.raw_text, COALESCE(r.cleaned_text, '')
FROM dedup.records r
JOIN dedup.batches b ON b.batch_id = r.batch_id
WHERE b.name = $1
ORDER BY r.position ASC
`

	rows, err := p.sqlDB.QueryContext(ctx, q, name)
	if err != nil {
		return nil, fmt.Errorf("query batch records: %w", err)
	}
	defer rows.Close()

	records := make([]record.Record, 0, 64)
	for rows.Next() {
		var rec record.Record
		if err := rows.Scan(&rec.Position, &rec.RawText, &rec.CleanedText); err != nil {
			return nil, fmt.Errorf("scan batch record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate batch records: %w", err)
	}

	if len(records) == 0 {
		var exists bool
		err := p.sqlDB.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM dedup.batches WHERE name = $1)`, name).Scan(&exists)
		if err != nil {
			return nil, fmt.Errorf("check batch: %w", err)
		}
		if !exists {
			return nil, fmt.Errorf("batch %q not found", name)
		}
	}
	return records, nil
}

// SaveCleanedTexts persists CleanedText for every record of one batch in a
// single transaction, so readers never observe a half-cleaned batch.
func (p *Pool) SaveCleanedTexts(ctx context.Context, name string, records []record.Record) error {
	tx, err := p.begin(ctx)
	if err != nil {
		return fmt.Errorf("begin clean tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var batchID int64
	if err := tx.QueryRowContext(ctx, `SELECT batch_id FROM dedup.batches WHERE name = $1`, name).Scan(&batchID); err != nil {
		if IsNoRows(err) {
			return fmt.Errorf("batch %q not found", name)
		}
		return fmt.Errorf("find batch: %w", err)
	}

	const update = `
UPDATE dedup.records
SET cleaned_text = $1, cleaned_at = $2
WHERE batch_id = $3 AND position = $4
`
	now := globaltime.UTC()
	for i := range records {
		res, err := tx.ExecContext(ctx, update, records[i].CleanedText, now, batchID, records[i].Position)
		if err != nil {
			return fmt.Errorf("update record %d: %w", records[i].Position, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("count updated records: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("record at position %d vanished during clean", records[i].Position)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit clean tx: %w", err)
	}
	return nil
}
