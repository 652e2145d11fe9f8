package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Email     string         `gorm:"uniqueIndex;not null" json:"email"`
	Password  string         `gorm:"not null" json:"-"`
	IsAdmin   bool           `gorm:"default:false" json:"is_admin"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	Tokens    []AuthToken    `gorm:"foreignKey:UserID" json:"-"`
}

// AuthToken is a long-lived remember-me token. Only the SHA-256 hash of the
// token value is stored; the raw value is shown to the client once.
type AuthToken struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	UserID     uint       `gorm:"not null;index" json:"user_id"`
	User       User       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	TokenHash  string     `gorm:"uniqueIndex;not null" json:"-"`
	ExpiresAt  time.Time  `gorm:"not null" json:"expires_at"`
	LastUsedAt *time.Time `json:"last_used_at"`
	CreatedAt  time.Time  `json:"created_at"`
}

func (AuthToken) TableName() string {
	return "auth_tokens"
}

// LoginAttempt records a failed login for rate limiting.
type LoginAttempt struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	IP          string    `gorm:"index;not null" json:"ip"`
	Email       string    `gorm:"index" json:"email"`
	AttemptedAt time.Time `gorm:"index;not null" json:"attempted_at"`
}

func (LoginAttempt) TableName() string {
	return "rate_limits"
}
