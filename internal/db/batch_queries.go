package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"horse.fit/collate/internal/record"
)

// BatchSummary is a read model used by list commands and the HTTP API.
type BatchSummary struct {
	BatchID        int64      `json:"batch_id"`
	Name           string     `json:"name"`
	Source         string     `json:"source,omitempty"`
	RecordCount    int        `json:"record_count"`
	CleanedRecords int        `json:"cleaned_records"`
	CreatedAt      time.Time  `json:"created_at"`
	LastCleanedAt  *time.Time `json:"last_cleaned_at,omitempty"`
}

// CreateBatch inserts a named batch and its records in one transaction and
// returns the new batch id. Batch names are unique.
func (p *Pool) CreateBatch(ctx context.Context, name, source string, records []record.Record) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, fmt.Errorf("batch name is required")
	}

	tx, err := p.begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin ingest tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists bool
	err = tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM dedup.batches WHERE name = $1)`, name).Scan(&exists)
	if err != nil {
		return 0, fmt.Errorf("check batch name: %w", err)
	}
	if exists {
		return 0, fmt.Errorf("batch %q already exists", name)
	}

	var batchID int64
	err = tx.QueryRowContext(ctx, `
INSERT INTO dedup.batches (name, source, record_count)
VALUES ($1, $2, $3)
RETURNING batch_id
`, name, strings.TrimSpace(source), len(records)).Scan(&batchID)
	if err != nil {
		return 0, fmt.Errorf("insert batch: %w", err)
	}

	const insertRecord = `
INSERT INTO dedup.records (batch_id, position, raw_text)
VALUES ($1, $2, $3)
`
	for i := range records {
		if _, err := tx.ExecContext(ctx, insertRecord, batchID, records[i].Position, records[i].RawText); err != nil {
			return 0, fmt.Errorf("insert record %d: %w", records[i].Position, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit ingest tx: %w", err)
	}
	return batchID, nil
}

// GetBatchByName returns one batch summary. ErrNoRows when the name is unknown.
func (p *Pool) GetBatchByName(ctx context.Context, name string) (BatchSummary, error) {
	const q = `
SELECT
	b.batch_id,
	b.name,
	b.source,
	b.record_count,
	COALESCE(SUM(CASE WHEN r.cleaned_text IS NOT NULL THEN 1 ELSE 0 END), 0) AS cleaned_records,
	b.created_at,
	MAX(r.cleaned_at) AS last_cleaned_at
FROM dedup.batches b
LEFT JOIN dedup.records r ON r.batch_id = b.batch_id
WHERE b.name = $1
GROUP BY b.batch_id, b.name, b.source, b.record_count, b.created_at
`

	var summary BatchSummary
	err := p.sqlDB.QueryRowContext(ctx, q, name).Scan(
		&summary.BatchID,
		&summary.Name,
		&summary.Source,
		&summary.RecordCount,
		&summary.CleanedRecords,
		&summary.CreatedAt,
		&summary.LastCleanedAt,
	)
	if err != nil {
		return BatchSummary{}, err
	}
	return summary, nil
}

// ListBatches returns the newest batches first.
func (p *Pool) ListBatches(ctx context.Context, limit int) ([]BatchSummary, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be > 0")
	}

	const q = `
SELECT
	b.batch_id,
	b.name,
	b.source,
	b.record_count,
	COALESCE(SUM(CASE WHEN r.cleaned_text IS NOT NULL THEN 1 ELSE 0 END), 0) AS cleaned_records,
	b.created_at,
	MAX(r.cleaned_at) AS last_cleaned_at
FROM dedup.batches b
LEFT JOIN dedup.records r ON r.batch_id = b.batch_id
GROUP BY b.batch_id, b.name, b.source, b.record_count, b.created_at
ORDER BY b.created_at DESC, b.batch_id DESC
LIMIT $1
`

	rows, err := p.sqlDB.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("query batches: %w", err)
	}
	defer rows.Close()

	summaries := make([]BatchSummary, 0, limit)
	for rows.Next() {
		var summary BatchSummary
		if err := rows.Scan(
			&summary.BatchID,
			&summary.Name,
			&summary.Source,
			&summary.RecordCount,
			&summary.CleanedRecords,
			&summary.CreatedAt,
			&summary.LastCleanedAt,
		); err != nil {
			return nil, fmt.Errorf("scan batch: %w", err)
		}
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate batches: %w", err)
	}
	return summaries, nil
}

// PurgeBatch deletes a batch and its records. Returns the deleted record count.
func (p *Pool) PurgeBatch(ctx context.Context, name string) (int64, error) {
	tx, err := p.begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin purge tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var batchID int64
	if err := tx.QueryRowContext(ctx, `SELECT batch_id FROM dedup.batches WHERE name = $1`, name).Scan(&batchID); err != nil {
		if IsNoRows(err) {
			return 0, fmt.Errorf("batch %q not found", name)
		}
		return 0, fmt.Errorf("find batch: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM dedup.records WHERE batch_id = $1`, batchID)
	if err != nil {
		return 0, fmt.Errorf("delete batch records: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count deleted records: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM dedup.batches WHERE batch_id = $1`, batchID); err != nil {
		return 0, fmt.Errorf("delete batch: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit purge tx: %w", err)
	}
	return deleted, nil
}
