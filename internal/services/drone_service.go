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

type DroneService struct {
	db     *gorm.DB
	logger zerolog.Logger
}

func NewDroneService(db *gorm.DB, logger zerolog.Logger) *DroneService {
	return &DroneService{
		db:     db,
		logger: logger,
	}
}

func (s *DroneService) Create(ctx context.Context, req CreateDroneRequest) (*models.Drone, error) {
	drone := &models.Drone{
		Name:         req.Name,
		SerialNumber: req.SerialNumber,
		Notes:        req.Notes,
	}
	if err := drone.Validate(); err != nil {
		return nil, utils.WrapValidationError("", err.Error())
	}

	if err := s.db.WithContext(ctx).Create(drone).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, utils.WrapConflictError("drone", "serial number already registered")
		}
		s.logger.Error().Err(err).Str("name", req.Name).Msg("Failed to create drone")
		return nil, utils.WrapDatabaseError("create drone", err)
	}

	s.logger.Info().Uint("drone_id", drone.ID).Str("name", drone.Name).Msg("Drone created")
	return drone, nil
}

func (s *DroneService) Get(ctx context.Context, id uint) (*models.Drone, error) {
	var drone models.Drone
	if err := s.db.WithContext(ctx).First(&drone, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.WrapNotFoundError("drone", fmt.Sprintf("%d", id))
		}
		return nil, utils.WrapDatabaseError("get drone", err)
	}
	return &drone, nil
}

func (s *DroneService) List(ctx context.Context) ([]models.Drone, error) {
	var drones []models.Drone
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&drones).Error; err != nil {
		return nil, utils.WrapDatabaseError("list drones", err)
	}
	return drones, nil
}

func (s *DroneService) Update(ctx context.Context, id uint, req UpdateDroneRequest) (*models.Drone, error) {
	drone, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		drone.Name = *req.Name
	}
	if req.SerialNumber != nil {
		drone.SerialNumber = *req.SerialNumber
	}
	if req.Notes != nil {
		drone.Notes = *req.Notes
	}

	if err := drone.Validate(); err != nil {
		return nil, utils.WrapValidationError("", err.Error())
	}
	if err := s.db.WithContext(ctx).Save(drone).Error; err != nil {
		return nil, utils.WrapDatabaseError("update drone", err)
	}

	return drone, nil
}

// Delete refuses to remove a drone that is currently airborne.
func (s *DroneService) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var inProgress int64
		err := tx.Model(&models.Flight{}).
			Where("drone_id = ? AND flight_end_date IS NULL", id).
			Count(&inProgress).Error
		if err != nil {
			return utils.WrapDatabaseError("check drone flights", err)
		}
		if inProgress > 0 {
			return utils.WrapConflictError("drone", "drone has a flight in progress")
		}

		result := tx.Delete(&models.Drone{}, id)
		if result.Error != nil {
			return utils.WrapDatabaseError("delete drone", result.Error)
		}
		if result.RowsAffected == 0 {
			return utils.WrapNotFoundError("drone", fmt.Sprintf("%d", id))
		}
		return nil
	})
}
