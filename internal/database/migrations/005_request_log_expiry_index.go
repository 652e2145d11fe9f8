package migrations

import (
	"context"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// RequestLogExpiryIndex indexes request_log by creation time so the expiry
// sweep does not scan the whole table.
func RequestLogExpiryIndex(ctx context.Context, tx *gorm.DB, logger zerolog.Logger) error {
	return tx.Exec(`
		CREATE INDEX IF NOT EXISTS idx_request_log_created_at
		ON request_log(created_at)
	`).Error
}
