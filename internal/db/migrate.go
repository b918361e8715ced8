package db

import (
	"context"
	_ "embed"
	"fmt"
	"strings"
)

//go:embed sql/pre_automigrate.sql
var preAutoMigrateSQL string

//go:embed sql/post_automigrate.sql
var postAutoMigrateSQL string

// autoMigrate creates the dedup schema, lets gorm reconcile the models, and
// applies the index script afterwards.
func (p *Pool) autoMigrate(ctx context.Context) error {
	if p == nil || p.gdb == nil {
		return fmt.Errorf("database pool is not initialized")
	}

	if err := p.execMigrationScript(ctx, "pre-auto-migrate", preAutoMigrateSQL); err != nil {
		return err
	}

	if err := p.gdb.WithContext(ctx).AutoMigrate(autoMigrateModels()...); err != nil {
		return fmt.Errorf("gorm auto-migrate models: %w", err)
	}

	return p.execMigrationScript(ctx, "post-auto-migrate", postAutoMigrateSQL)
}

func (p *Pool) execMigrationScript(ctx context.Context, label, script string) error {
	script = strings.TrimSpace(script)
	if script == "" {
		return nil
	}
	if err := p.gdb.WithContext(ctx).Exec(script).Error; err != nil {
		return fmt.Errorf("execute %s SQL: %w", label, err)
	}
	return nil
}
