package db

import "time"

// Batch maps dedup.batches.
type Batch struct {
	BatchID     int64     `gorm:"column:batch_id;primaryKey;autoIncrement"`
	Name        string    `gorm:"column:name;type:text;not null;unique"`
	Source      string    `gorm:"column:source;type:text;not null;default:''"`
	RecordCount int       `gorm:"column:record_count;type:integer;not null;default:0"`
	CreatedAt   time.Time `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
}

func (Batch) TableName() string { return "dedup.batches" }

// RecordRow maps dedup.records. CleanedText stays NULL until a clean run
// finishes; the derived key is never persisted.
type RecordRow struct {
	RecordID    int64      `gorm:"column:record_id;primaryKey;autoIncrement"`
	BatchID     int64      `gorm:"column:batch_id;type:bigint;not null;uniqueIndex:ux_records_batch_position,priority:1"`
	Position    int        `gorm:"column:position;type:integer;not null;uniqueIndex:ux_records_batch_position,priority:2"`
	RawText     string     `gorm:"column:raw_text;type:text;not null"`
	CleanedText *string    `gorm:"column:cleaned_text;type:text"`
	CreatedAt   time.Time  `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
	CleanedAt   *time.Time `gorm:"column:cleaned_at;type:timestamptz"`
}

func (RecordRow) TableName() string { return "dedup.records" }

// CleanRun maps dedup.clean_runs, the ledger of finished clean passes.
type CleanRun struct {
	CleanRunID          int64     `gorm:"column:clean_run_id;primaryKey;autoIncrement"`
	BatchName           string    `gorm:"column:batch_name;type:text;not null"`
	RecordCount         int       `gorm:"column:record_count;type:integer;not null;default:0"`
	ClusterCount        int       `gorm:"column:cluster_count;type:integer;not null;default:0"`
	DuplicatesCollapsed int       `gorm:"column:duplicates_collapsed;type:integer;not null;default:0"`
	EmptyKeyRecords     int       `gorm:"column:empty_key_records;type:integer;not null;default:0"`
	StemFallbacks       int       `gorm:"column:stem_fallbacks;type:integer;not null;default:0"`
	DominantLanguage    string    `gorm:"column:dominant_language;type:text;not null;default:''"`
	StartedAt           time.Time `gorm:"column:started_at;type:timestamptz;not null"`
	FinishedAt          time.Time `gorm:"column:finished_at;type:timestamptz;not null"`
}

func (CleanRun) TableName() string { return "dedup.clean_runs" }

func autoMigrateModels() []any {
	return []any{
		&Batch{},
		&RecordRow{},
		&CleanRun{},
	}
}
