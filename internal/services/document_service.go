package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/skyhook-org/dronelog/internal/models"
	"github.com/skyhook-org/dronelog/internal/utils"
)

// maxDocumentSize caps uploads at 25 MiB.
const maxDocumentSize = 25 << 20

// DocumentService stores uploaded files encrypted at rest. Plaintext only
// exists in memory during upload and download.
type DocumentService struct {
	db         *gorm.DB
	encryption *utils.EncryptionService
	logger     zerolog.Logger
}

func NewDocumentService(db *gorm.DB, encryption *utils.EncryptionService, logger zerolog.Logger) *DocumentService {
	return &DocumentService{
		db:         db,
		encryption: encryption,
		logger:     logger,
	}
}

func (s *DocumentService) Upload(ctx context.Context, name, contentType string, data []byte, uploadedBy uint) (*models.Document, error) {
	if name == "" {
		return nil, utils.RequiredFieldError("name")
	}
	if len(data) == 0 {
		return nil, utils.InvalidFieldError("file", "file is empty")
	}
	if len(data) > maxDocumentSize {
		return nil, utils.InvalidFieldError("file", "file exceeds the 25 MiB limit")
	}
	if s.encryption == nil {
		return nil, errors.New("document storage requires an encryption master key")
	}

	blob, err := s.encryption.Encrypt(data)
	if err != nil {
		s.logger.Error().Err(err).Str("name", name).Msg("Failed to encrypt document")
		return nil, fmt.Errorf("failed to encrypt document: %w", err)
	}

	doc := &models.Document{
		Name:         name,
		ContentType:  contentType,
		Size:         int64(len(data)),
		Ciphertext:   blob.Ciphertext,
		EncryptedKey: blob.EncryptedKey,
		Nonce:        blob.Nonce,
		KeyNonce:     blob.KeyNonce,
		UploadedBy:   uploadedBy,
	}
	if err := s.db.WithContext(ctx).Create(doc).Error; err != nil {
		return nil, utils.WrapDatabaseError("create document", err)
	}

	s.logger.Info().
		Uint("document_id", doc.ID).
		Str("name", doc.Name).
		Int64("size", doc.Size).
		Msg("Document stored")
	return doc, nil
}

// Get returns document metadata without touching the payload.
func (s *DocumentService) Get(ctx context.Context, id uint) (*models.Document, error) {
	var doc models.Document
	err := s.db.WithContext(ctx).
		Select("id", "name", "content_type", "size", "uploaded_by", "created_at", "updated_at").
		First(&doc, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.WrapNotFoundError("document", fmt.Sprintf("%d", id))
		}
		return nil, utils.WrapDatabaseError("get document", err)
	}
	return &doc, nil
}

func (s *DocumentService) List(ctx context.Context) ([]models.Document, error) {
	var docs []models.Document
	err := s.db.WithContext(ctx).
		Select("id", "name", "content_type", "size", "uploaded_by", "created_at", "updated_at").
		Order("created_at DESC").
		Find(&docs).Error
	if err != nil {
		return nil, utils.WrapDatabaseError("list documents", err)
	}
	return docs, nil
}

// Download returns the decrypted payload and its metadata.
func (s *DocumentService) Download(ctx context.Context, id uint) (*models.Document, []byte, error) {
	var doc models.Document
	if err := s.db.WithContext(ctx).First(&doc, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, utils.WrapNotFoundError("document", fmt.Sprintf("%d", id))
		}
		return nil, nil, utils.WrapDatabaseError("get document", err)
	}

	if s.encryption == nil {
		return nil, nil, errors.New("document storage requires an encryption master key")
	}

	plaintext, err := s.encryption.Decrypt(&utils.EncryptedBlob{
		Ciphertext:   doc.Ciphertext,
		EncryptedKey: doc.EncryptedKey,
		Nonce:        doc.Nonce,
		KeyNonce:     doc.KeyNonce,
	})
	if err != nil {
		s.logger.Error().Err(err).Uint("document_id", doc.ID).Msg("Failed to decrypt document")
		return nil, nil, fmt.Errorf("failed to decrypt document: %w", err)
	}

	return &doc, plaintext, nil
}

func (s *DocumentService) Delete(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Delete(&models.Document{}, id)
	if result.Error != nil {
		return utils.WrapDatabaseError("delete document", result.Error)
	}
	if result.RowsAffected == 0 {
		return utils.WrapNotFoundError("document", fmt.Sprintf("%d", id))
	}

	s.logger.Info().Uint("document_id", id).Msg("Document deleted")
	return nil
}
