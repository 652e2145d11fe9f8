package migrations

import (
	"context"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// AddPilotLicenseFields adds the EU license columns to the pilots table.
func AddPilotLicenseFields(ctx context.Context, tx *gorm.DB, logger zerolog.Logger) error {
	logger.Info().Msg("Adding license fields to pilots table")

	columns := map[string]string{
		"a1_a3_license_id":          "TEXT",
		"a1_a3_license_valid_until": "DATETIME",
		"a2_license_id":             "TEXT",
		"a2_license_valid_until":    "DATETIME",
		"lock_on_invalid_license":   "BOOLEAN DEFAULT FALSE",
	}

	for column, definition := range columns {
		if tx.Migrator().HasColumn("pilots", column) {
			continue
		}
		if err := tx.Exec("ALTER TABLE pilots ADD COLUMN " + column + " " + definition).Error; err != nil {
			return err
		}
		logger.Info().Str("column", column).Msg("Added pilot column")
	}

	return nil
}
