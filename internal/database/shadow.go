package database

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/skyhook-org/dronelog/internal/utils"
)

// ShadowRewrite rebuilds a table under a shadow name and swaps it into place.
// sqlite cannot alter a column's default or drop a column in place, so units
// needing either rewrite the whole table. The caller (the migration runner)
// is responsible for suspending foreign-key enforcement around the enclosing
// transaction; see Unit.RewritesTables.
type ShadowRewrite struct {
	// Table is the table being rewritten.
	Table string
	// CreateShadowSQL creates the shadow table with the desired final schema.
	// It must create the table named Table + "_new".
	CreateShadowSQL string
	// Columns is the explicit column list copied from the original. Never a
	// SELECT *, so rows copy correctly even when column order has drifted.
	Columns []string
	// IndexSQL recreates indexes that referenced the original table; they are
	// not implicitly preserved by the rename in all engine versions.
	IndexSQL []string
}

// Apply executes the rewrite inside the given transaction.
func (s ShadowRewrite) Apply(tx *gorm.DB, logger zerolog.Logger) error {
	shadow := s.Table + "_new"
	cols := strings.Join(s.Columns, ", ")

	// A previously interrupted run can leave a stale shadow behind.
	if err := tx.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s", shadow)).Error; err != nil {
		return fmt.Errorf("failed to drop stale shadow table: %w", err)
	}

	if err := tx.Exec(s.CreateShadowSQL).Error; err != nil {
		return fmt.Errorf("failed to create shadow table for %s: %w", s.Table, err)
	}

	copySQL := fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s", shadow, cols, cols, s.Table)
	if err := tx.Exec(copySQL).Error; err != nil {
		return fmt.Errorf("failed to copy rows into shadow table: %w", err)
	}

	var originalCount, shadowCount int64
	if err := tx.Raw(fmt.Sprintf("SELECT COUNT(*) FROM %s", s.Table)).Scan(&originalCount).Error; err != nil {
		return fmt.Errorf("failed to count rows in %s: %w", s.Table, err)
	}
	if err := tx.Raw(fmt.Sprintf("SELECT COUNT(*) FROM %s", shadow)).Scan(&shadowCount).Error; err != nil {
		return fmt.Errorf("failed to count rows in %s: %w", shadow, err)
	}
	if originalCount != shadowCount {
		return &utils.DataLossError{
			Table:    s.Table,
			Expected: originalCount,
			Actual:   shadowCount,
		}
	}

	if err := tx.Exec(fmt.Sprintf("DROP TABLE %s", s.Table)).Error; err != nil {
		return fmt.Errorf("failed to drop original table %s: %w", s.Table, err)
	}
	if err := tx.Exec(fmt.Sprintf("ALTER TABLE %s RENAME TO %s", shadow, s.Table)).Error; err != nil {
		return fmt.Errorf("failed to rename shadow table into place: %w", err)
	}

	for _, idx := range s.IndexSQL {
		if err := tx.Exec(idx).Error; err != nil {
			return fmt.Errorf("failed to recreate index on %s: %w", s.Table, err)
		}
	}

	logger.Info().
		Str("table", s.Table).
		Int64("rows", shadowCount).
		Msg("Shadow-table rewrite completed")

	return nil
}
