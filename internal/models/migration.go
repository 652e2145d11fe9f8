package models

import (
	"time"
)

// Migration represents a schema migration that has been applied. A row exists
// only when the unit's forward operation committed together with its DDL.
type Migration struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Sequence        int       `gorm:"not null" json:"sequence"`
	Name            string    `gorm:"uniqueIndex;not null" json:"name"`
	ExecutedAt      time.Time `json:"executed_at"`
	ExecutedBy      string    `json:"executed_by,omitempty"`
	ExecutionTimeMs int64     `json:"execution_time_ms"`
}

// TableName ensures consistent table naming
func (Migration) TableName() string {
	return "schema_migrations"
}
