package api

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/skyhook-org/dronelog/internal/config"
	"github.com/skyhook-org/dronelog/internal/database"
	"github.com/skyhook-org/dronelog/internal/models"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTooManyAttempts    = errors.New("too many failed login attempts")
)

type AuthService struct {
	db     *database.Database
	auth   config.Auth
	logger zerolog.Logger
}

func NewAuthService(db *database.Database, auth config.Auth, logger zerolog.Logger) *AuthService {
	return &AuthService{
		db:     db,
		auth:   auth,
		logger: logger,
	}
}

// Authenticate verifies the credentials, enforcing the per-IP failure limit.
// Failed attempts are recorded; a successful login clears them for the IP.
func (s *AuthService) Authenticate(ctx context.Context, email, password, ip string) (*models.User, error) {
	blocked, err := s.tooManyAttempts(ctx, ip)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, ErrTooManyAttempts
	}

	var user models.User
	if err := s.db.DB().WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.recordFailedAttempt(ctx, ip, email)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		s.recordFailedAttempt(ctx, ip, email)
		return nil, ErrInvalidCredentials
	}

	if err := s.db.DB().WithContext(ctx).Where("ip = ?", ip).Delete(&models.LoginAttempt{}).Error; err != nil {
		s.logger.Warn().Err(err).Msg("Failed to clear login attempts")
	}

	return &user, nil
}

func (s *AuthService) tooManyAttempts(ctx context.Context, ip string) (bool, error) {
	cutoff := time.Now().UTC().Add(-s.auth.AttemptWindow)

	var count int64
	err := s.db.DB().WithContext(ctx).Model(&models.LoginAttempt{}).
		Where("ip = ? AND attempted_at >= ?", ip, cutoff).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check login attempts: %w", err)
	}
	return count >= int64(s.auth.MaxLoginAttempts), nil
}

func (s *AuthService) recordFailedAttempt(ctx context.Context, ip, email string) {
	attempt := &models.LoginAttempt{
		IP:          ip,
		Email:       email,
		AttemptedAt: time.Now().UTC(),
	}
	if err := s.db.DB().WithContext(ctx).Create(attempt).Error; err != nil {
		s.logger.Warn().Err(err).Msg("Failed to record login attempt")
	}
}

// CreateUser registers a user. Only reachable through the admin surface.
func (s *AuthService) CreateUser(ctx context.Context, email, password string, isAdmin bool) (*models.User, error) {
	if email == "" || password == "" {
		return nil, errors.New("email and password are required")
	}
	if len(password) < 8 {
		return nil, errors.New("password must be at least 8 characters long")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:    email,
		Password: string(hashedPassword),
		IsAdmin:  isAdmin,
	}
	if err := s.db.DB().WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errors.New("email already exists")
		}
		return nil, err
	}

	return user, nil
}

// CreateRememberToken mints a long-lived remember-me token. Only the SHA-256
// hash lands in the database; the raw value goes into the cookie.
func (s *AuthService) CreateRememberToken(ctx context.Context, userID uint) (string, time.Time, error) {
	entropy := make([]byte, 16)
	if _, err := rand.Read(entropy); err != nil {
		return "", time.Time{}, err
	}
	raw := uuid.NewString() + "." + hex.EncodeToString(entropy)
	expiresAt := time.Now().UTC().Add(s.auth.RememberMeTTL)

	token := &models.AuthToken{
		UserID:    userID,
		TokenHash: hashToken(raw),
		ExpiresAt: expiresAt,
	}
	if err := s.db.DB().WithContext(ctx).Create(token).Error; err != nil {
		return "", time.Time{}, err
	}

	return raw, expiresAt, nil
}

// ValidateRememberToken resolves a raw cookie value to its user. Expired
// tokens are deleted on sight.
func (s *AuthService) ValidateRememberToken(ctx context.Context, raw string) (*models.User, error) {
	var token models.AuthToken
	err := s.db.DB().WithContext(ctx).Where("token_hash = ?", hashToken(raw)).First(&token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	now := time.Now().UTC()
	if token.ExpiresAt.Before(now) {
		if err := s.db.DB().WithContext(ctx).Delete(&token).Error; err != nil {
			s.logger.Warn().Err(err).Msg("Failed to delete expired remember token")
		}
		return nil, ErrInvalidCredentials
	}

	var user models.User
	if err := s.db.DB().WithContext(ctx).First(&user, token.UserID).Error; err != nil {
		return nil, err
	}

	if err := s.db.DB().WithContext(ctx).Model(&token).Update("last_used_at", now).Error; err != nil {
		s.logger.Warn().Err(err).Msg("Failed to update remember token usage")
	}

	return &user, nil
}

// RevokeRememberToken drops the token behind a raw cookie value.
func (s *AuthService) RevokeRememberToken(ctx context.Context, raw string) error {
	return s.db.DB().WithContext(ctx).
		Where("token_hash = ?", hashToken(raw)).
		Delete(&models.AuthToken{}).Error
}

// RevokeUserTokens drops every remember token for a user.
func (s *AuthService) RevokeUserTokens(ctx context.Context, userID uint) error {
	return s.db.DB().WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.AuthToken{}).Error
}

func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
