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

type LocationService struct {
	db     *gorm.DB
	logger zerolog.Logger
}

func NewLocationService(db *gorm.DB, logger zerolog.Logger) *LocationService {
	return &LocationService{
		db:     db,
		logger: logger,
	}
}

func (s *LocationService) Create(ctx context.Context, req CreateLocationRequest) (*models.FlightLocation, error) {
	location := &models.FlightLocation{
		Name:  req.Name,
		Notes: req.Notes,
	}
	if err := location.Validate(); err != nil {
		return nil, utils.WrapValidationError("", err.Error())
	}

	if err := s.db.WithContext(ctx).Create(location).Error; err != nil {
		s.logger.Error().Err(err).Str("name", req.Name).Msg("Failed to create flight location")
		return nil, utils.WrapDatabaseError("create location", err)
	}

	return location, nil
}

func (s *LocationService) Get(ctx context.Context, id uint) (*models.FlightLocation, error) {
	var location models.FlightLocation
	if err := s.db.WithContext(ctx).First(&location, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.WrapNotFoundError("location", fmt.Sprintf("%d", id))
		}
		return nil, utils.WrapDatabaseError("get location", err)
	}
	return &location, nil
}

func (s *LocationService) List(ctx context.Context) ([]models.FlightLocation, error) {
	var locations []models.FlightLocation
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&locations).Error; err != nil {
		return nil, utils.WrapDatabaseError("list locations", err)
	}
	return locations, nil
}

func (s *LocationService) Update(ctx context.Context, id uint, req UpdateLocationRequest) (*models.FlightLocation, error) {
	location, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		location.Name = *req.Name
	}
	if req.Notes != nil {
		location.Notes = *req.Notes
	}

	if err := location.Validate(); err != nil {
		return nil, utils.WrapValidationError("", err.Error())
	}
	if err := s.db.WithContext(ctx).Save(location).Error; err != nil {
		return nil, utils.WrapDatabaseError("update location", err)
	}

	return location, nil
}

func (s *LocationService) Delete(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Delete(&models.FlightLocation{}, id)
	if result.Error != nil {
		return utils.WrapDatabaseError("delete location", result.Error)
	}
	if result.RowsAffected == 0 {
		return utils.WrapNotFoundError("location", fmt.Sprintf("%d", id))
	}
	return nil
}
