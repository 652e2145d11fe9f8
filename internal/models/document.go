package models

import (
	"time"

	"gorm.io/gorm"
)

// Document is an uploaded file stored encrypted at rest. The payload columns
// hold the AES-GCM envelope produced by utils.EncryptionService.
type Document struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Name         string         `gorm:"not null" json:"name"`
	ContentType  string         `json:"content_type"`
	Size         int64          `json:"size"`
	Ciphertext   []byte         `gorm:"type:blob;not null" json:"-"`
	EncryptedKey []byte         `gorm:"type:blob;not null" json:"-"`
	Nonce        []byte         `gorm:"type:blob;not null" json:"-"`
	KeyNonce     []byte         `gorm:"type:blob;not null" json:"-"`
	UploadedBy   uint           `gorm:"index" json:"uploaded_by"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Document) TableName() string {
	return "documents"
}
