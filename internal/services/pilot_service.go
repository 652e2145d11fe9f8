package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/skyhook-org/dronelog/internal/models"
	"github.com/skyhook-org/dronelog/internal/utils"
)

type PilotService struct {
	db     *gorm.DB
	logger zerolog.Logger
}

func NewPilotService(db *gorm.DB, logger zerolog.Logger) *PilotService {
	return &PilotService{
		db:     db,
		logger: logger,
	}
}

func (s *PilotService) Create(ctx context.Context, req CreatePilotRequest) (*models.Pilot, error) {
	pilot := &models.Pilot{
		Name:                   req.Name,
		MinutesOfFlightsNeeded: req.MinutesOfFlightsNeeded,
		A1A3LicenseID:          req.A1A3LicenseID,
		A1A3LicenseValidUntil:  req.A1A3LicenseValidUntil,
		A2LicenseID:            req.A2LicenseID,
		A2LicenseValidUntil:    req.A2LicenseValidUntil,
		LockOnInvalidLicense:   req.LockOnInvalidLicense,
	}
	if pilot.MinutesOfFlightsNeeded == 0 {
		pilot.MinutesOfFlightsNeeded = models.DefaultRequiredMinutes
	}
	if err := pilot.Validate(); err != nil {
		return nil, utils.WrapValidationError("", err.Error())
	}

	if err := s.db.WithContext(ctx).Create(pilot).Error; err != nil {
		s.logger.Error().Err(err).Str("name", req.Name).Msg("Failed to create pilot")
		return nil, utils.WrapDatabaseError("create pilot", err)
	}

	s.logger.Info().Uint("pilot_id", pilot.ID).Str("name", pilot.Name).Msg("Pilot created")
	return pilot, nil
}

func (s *PilotService) Get(ctx context.Context, id uint) (*models.Pilot, error) {
	var pilot models.Pilot
	if err := s.db.WithContext(ctx).First(&pilot, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.WrapNotFoundError("pilot", fmt.Sprintf("%d", id))
		}
		return nil, utils.WrapDatabaseError("get pilot", err)
	}
	return &pilot, nil
}

func (s *PilotService) List(ctx context.Context) ([]models.Pilot, error) {
	var pilots []models.Pilot
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&pilots).Error; err != nil {
		return nil, utils.WrapDatabaseError("list pilots", err)
	}
	return pilots, nil
}

func (s *PilotService) Update(ctx context.Context, id uint, req UpdatePilotRequest) (*models.Pilot, error) {
	pilot, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		pilot.Name = *req.Name
	}
	if req.MinutesOfFlightsNeeded != nil {
		pilot.MinutesOfFlightsNeeded = *req.MinutesOfFlightsNeeded
	}
	if req.A1A3LicenseID != nil {
		pilot.A1A3LicenseID = *req.A1A3LicenseID
	}
	if req.A1A3LicenseValidUntil != nil {
		pilot.A1A3LicenseValidUntil = req.A1A3LicenseValidUntil
	}
	if req.A2LicenseID != nil {
		pilot.A2LicenseID = *req.A2LicenseID
	}
	if req.A2LicenseValidUntil != nil {
		pilot.A2LicenseValidUntil = req.A2LicenseValidUntil
	}
	if req.LockOnInvalidLicense != nil {
		pilot.LockOnInvalidLicense = *req.LockOnInvalidLicense
	}

	if err := pilot.Validate(); err != nil {
		return nil, utils.WrapValidationError("", err.Error())
	}
	if err := s.db.WithContext(ctx).Save(pilot).Error; err != nil {
		return nil, utils.WrapDatabaseError("update pilot", err)
	}

	return pilot, nil
}

// Delete soft-deletes a pilot. Their flights stay in the logbook.
func (s *PilotService) Delete(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Delete(&models.Pilot{}, id)
	if result.Error != nil {
		return utils.WrapDatabaseError("delete pilot", result.Error)
	}
	if result.RowsAffected == 0 {
		return utils.WrapNotFoundError("pilot", fmt.Sprintf("%d", id))
	}

	s.logger.Info().Uint("pilot_id", id).Msg("Pilot deleted")
	return nil
}

// FlightsSince returns the pilot's flights starting at or after the cutoff,
// newest first. Used by the dashboard and the currency engine.
func (s *PilotService) FlightsSince(ctx context.Context, pilotID uint, since time.Time) ([]models.Flight, error) {
	var flights []models.Flight
	err := s.db.WithContext(ctx).
		Where("pilot_id = ? AND flight_date >= ?", pilotID, since.UTC()).
		Order("flight_date DESC").
		Find(&flights).Error
	if err != nil {
		return nil, utils.WrapDatabaseError("list pilot flights", err)
	}
	return flights, nil
}
