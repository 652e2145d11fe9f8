package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/skyhook-org/dronelog/internal/models"
	"github.com/skyhook-org/dronelog/internal/utils"
)

// IdempotencyService backs the X-Request-ID replay guard. Mutating requests
// that carry a request ID already seen inside the window get the original
// response back instead of running twice.
type IdempotencyService struct {
	db     *gorm.DB
	window time.Duration
	logger zerolog.Logger
	now    func() time.Time
}

func NewIdempotencyService(db *gorm.DB, window time.Duration, logger zerolog.Logger) *IdempotencyService {
	return &IdempotencyService{
		db:     db,
		window: window,
		logger: logger,
		now:    time.Now,
	}
}

// Lookup returns the cached entry for a request ID, or nil when the ID is
// unseen or its entry has expired. Expired entries are treated as absent, not
// deleted; Sweep reclaims them.
func (s *IdempotencyService) Lookup(ctx context.Context, requestID string) (*models.RequestLog, error) {
	var entry models.RequestLog
	err := s.db.WithContext(ctx).Where("request_id = ?", requestID).First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, utils.WrapDatabaseError("lookup request log", err)
	}

	if s.now().UTC().Sub(entry.CreatedAt) > s.window {
		return nil, nil
	}
	return &entry, nil
}

// Record stores the response for a completed mutating request. A duplicate
// request ID means a concurrent request won the race; the caller's response
// stands and the loss is logged, not surfaced.
func (s *IdempotencyService) Record(ctx context.Context, requestID, method, path string, statusCode int, response []byte) error {
	entry := &models.RequestLog{
		RequestID:  requestID,
		Method:     method,
		Path:       path,
		StatusCode: statusCode,
		Response:   response,
		CreatedAt:  s.now().UTC(),
	}

	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			s.logger.Debug().Str("request_id", requestID).Msg("Request log entry already recorded")
			return nil
		}
		return utils.WrapDatabaseError("record request log", err)
	}
	return nil
}

// Sweep deletes entries older than the window and returns how many went.
func (s *IdempotencyService) Sweep(ctx context.Context) (int64, error) {
	cutoff := s.now().UTC().Add(-s.window)
	result := s.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&models.RequestLog{})
	if result.Error != nil {
		return 0, utils.WrapDatabaseError("sweep request log", result.Error)
	}

	if result.RowsAffected > 0 {
		s.logger.Debug().Int64("removed", result.RowsAffected).Msg("Swept expired request log entries")
	}
	return result.RowsAffected, nil
}

// StartSweeper runs Sweep periodically until the context is cancelled.
func (s *IdempotencyService) StartSweeper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := s.Sweep(ctx); err != nil {
					s.logger.Error().Err(err).Msg("Request log sweep failed")
				}
			}
		}
	}()
}
