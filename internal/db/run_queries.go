package db

import (
	"context"
	"fmt"
	"time"
)

// CleanRunSummary is a read model for run listings.
type CleanRunSummary struct {
	CleanRunID          int64     `json:"clean_run_id"`
	BatchName           string    `json:"batch_name"`
	RecordCount         int       `json:"record_count"`
	ClusterCount        int       `json:"cluster_count"`
	DuplicatesCollapsed int       `json:"duplicates_collapsed"`
	EmptyKeyRecords     int       `json:"empty_key_records"`
	StemFallbacks       int       `json:"stem_fallbacks"`
	DominantLanguage    string    `json:"dominant_language,omitempty"`
	StartedAt           time.Time `json:"started_at"`
	FinishedAt          time.Time `json:"finished_at"`
}

// InsertCleanRun appends one finished clean pass to the ledger and returns
// the new row id.
func (p *Pool) InsertCleanRun(ctx context.Context, run CleanRun) (int64, error) {
	const q = `
INSERT INTO dedup.clean_runs
	(batch_name, record_count, cluster_count, duplicates_collapsed,
	 empty_key_records, stem_fallbacks, dominant_language, started_at, finished_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING clean_run_id
`

	var id int64
	err := p.sqlDB.QueryRowContext(ctx, q,
		run.BatchName,
		run.RecordCount,
		run.ClusterCount,
		run.DuplicatesCollapsed,
		run.EmptyKeyRecords,
		run.StemFallbacks,
		run.DominantLanguage,
		run.StartedAt.UTC(),
		run.FinishedAt.UTC(),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert clean run: %w", err)
	}
	return id, nil
}

// ListCleanRuns returns the newest ledger rows, optionally scoped to one
// batch name. An empty batchName lists runs across all batches.
func (p *Pool) ListCleanRuns(ctx context.Context, batchName string, limit int) ([]CleanRunSummary, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be > 0")
	}

	const q = `
SELECT clean_run_id, batch_name, record_count, cluster_count, duplicates_collapsed,
	empty_key_records, stem_fallbacks, dominant_language, started_at, finished_at
FROM dedup.clean_runs
WHERE ($1 = '' OR batch_name = $1)
ORDER BY finished_at DESC, clean_run_id DESC
LIMIT $2
`

	rows, err := p.sqlDB.QueryContext(ctx, q, batchName, limit)
	if err != nil {
		return nil, fmt.Errorf("query clean runs: %w", err)
	}
	defer rows.Close()

	runs := make([]CleanRunSummary, 0, limit)
	for rows.Next() {
		var run CleanRunSummary
		if err := rows.Scan(
			&run.CleanRunID,
			&run.BatchName,
			&run.RecordCount,
			&run.ClusterCount,
			&run.DuplicatesCollapsed,
			&run.EmptyKeyRecords,
			&run.StemFallbacks,
			&run.DominantLanguage,
			&run.StartedAt,
			&run.FinishedAt,
		); err != nil {
			return nil, fmt.Errorf("scan clean run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate clean runs: %w", err)
	}
	return runs, nil
}
