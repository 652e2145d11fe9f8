package models

import (
	"time"
)

// RequestLog is the idempotency log. A mutating request carrying a request ID
// already present here is answered with the cached response instead of being
// re-executed. Entries expire after a short window.
type RequestLog struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	RequestID  string    `gorm:"uniqueIndex;not null" json:"request_id"`
	Method     string    `gorm:"not null" json:"method"`
	Path       string    `gorm:"not null" json:"path"`
	StatusCode int       `gorm:"not null" json:"status_code"`
	Response   []byte    `gorm:"type:blob" json:"-"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}

func (RequestLog) TableName() string {
	return "request_log"
}
