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
	"github.com/skyhook-org/dronelog/pkg/metrics"
)

// FlightService owns the flight lifecycle. A pilot has at most one flight in
// progress at a time; start and end both run inside transactions and treat a
// lost race as a conflict, never a double write.
type FlightService struct {
	db     *gorm.DB
	logger zerolog.Logger
	now    func() time.Time
}

func NewFlightService(db *gorm.DB, logger zerolog.Logger) *FlightService {
	return &FlightService{
		db:     db,
		logger: logger,
		now:    time.Now,
	}
}

// Start opens a flight for the pilot. It fails with a conflict when the pilot
// already has a flight in progress or is locked for an invalid license.
func (s *FlightService) Start(ctx context.Context, req StartFlightRequest) (*models.Flight, error) {
	if req.BatteryNumber < 0 {
		return nil, utils.InvalidFieldError("battery_number", "cannot be negative")
	}

	now := s.now().UTC()
	flight := &models.Flight{
		PilotID:          req.PilotID,
		DroneID:          req.DroneID,
		FlightLocationID: req.FlightLocationID,
		BatteryNumber:    req.BatteryNumber,
		FlightDate:       now,
	}
	if flight.BatteryNumber == 0 {
		flight.BatteryNumber = 1
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var pilot models.Pilot
		if err := tx.First(&pilot, req.PilotID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.WrapNotFoundError("pilot", fmt.Sprintf("%d", req.PilotID))
			}
			return utils.WrapDatabaseError("get pilot", err)
		}
		if pilot.Locked(now) {
			return utils.WrapConflictError("pilot", "pilot is locked: no valid license on file")
		}

		var drone models.Drone
		if err := tx.First(&drone, req.DroneID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.WrapNotFoundError("drone", fmt.Sprintf("%d", req.DroneID))
			}
			return utils.WrapDatabaseError("get drone", err)
		}

		if req.FlightLocationID != nil {
			var location models.FlightLocation
			if err := tx.First(&location, *req.FlightLocationID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return utils.WrapNotFoundError("location", fmt.Sprintf("%d", *req.FlightLocationID))
				}
				return utils.WrapDatabaseError("get location", err)
			}
		}

		var inProgress int64
		err := tx.Model(&models.Flight{}).
			Where("pilot_id = ? AND flight_end_date IS NULL", req.PilotID).
			Count(&inProgress).Error
		if err != nil {
			return utils.WrapDatabaseError("check in-progress flight", err)
		}
		if inProgress > 0 {
			return utils.WrapConflictError("flight", "pilot already has a flight in progress")
		}

		if err := tx.Create(flight).Error; err != nil {
			return utils.WrapDatabaseError("create flight", err)
		}
		return nil
	})
	if err != nil {
		if utils.IsConflictError(err) {
			metrics.FlightConflicts.Inc()
		}
		return nil, err
	}

	metrics.FlightStarts.Inc()
	s.logger.Info().
		Uint("flight_id", flight.ID).
		Uint("pilot_id", flight.PilotID).
		Uint("drone_id", flight.DroneID).
		Msg("Flight started")
	return flight, nil
}

// End closes an in-progress flight. The UPDATE carries the in-progress
// predicate so a concurrent end sees zero rows affected and reports a
// conflict instead of overwriting the end time.
func (s *FlightService) End(ctx context.Context, flightID uint) (*models.Flight, error) {
	now := s.now().UTC()

	var flight models.Flight
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&flight, flightID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.WrapNotFoundError("flight", fmt.Sprintf("%d", flightID))
			}
			return utils.WrapDatabaseError("get flight", err)
		}
		if !flight.InProgress() {
			return utils.WrapConflictError("flight", "flight already ended")
		}

		result := tx.Model(&models.Flight{}).
			Where("id = ? AND flight_end_date IS NULL", flightID).
			Update("flight_end_date", now)
		if result.Error != nil {
			return utils.WrapDatabaseError("end flight", result.Error)
		}
		if result.RowsAffected == 0 {
			return utils.WrapConflictError("flight", "flight already ended")
		}

		flight.FlightEndDate = &now
		return nil
	})
	if err != nil {
		if utils.IsConflictError(err) {
			metrics.FlightConflicts.Inc()
		}
		return nil, err
	}

	metrics.FlightEnds.Inc()
	s.logger.Info().
		Uint("flight_id", flight.ID).
		Uint("pilot_id", flight.PilotID).
		Dur("duration", flight.Duration()).
		Msg("Flight ended")
	return &flight, nil
}

func (s *FlightService) Get(ctx context.Context, id uint) (*models.Flight, error) {
	var flight models.Flight
	if err := s.db.WithContext(ctx).First(&flight, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.WrapNotFoundError("flight", fmt.Sprintf("%d", id))
		}
		return nil, utils.WrapDatabaseError("get flight", err)
	}
	return &flight, nil
}

func (s *FlightService) List(ctx context.Context, filter ListFlightsFilter) ([]models.Flight, error) {
	query := s.db.WithContext(ctx).Model(&models.Flight{})
	if filter.PilotID != 0 {
		query = query.Where("pilot_id = ?", filter.PilotID)
	}
	if filter.DroneID != 0 {
		query = query.Where("drone_id = ?", filter.DroneID)
	}
	if !filter.Since.IsZero() {
		query = query.Where("flight_date >= ?", filter.Since.UTC())
	}
	if filter.InProgress != nil {
		if *filter.InProgress {
			query = query.Where("flight_end_date IS NULL")
		} else {
			query = query.Where("flight_end_date IS NOT NULL")
		}
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var flights []models.Flight
	if err := query.Order("flight_date DESC").Find(&flights).Error; err != nil {
		return nil, utils.WrapDatabaseError("list flights", err)
	}
	return flights, nil
}

// Delete removes a flight record outright. Only exposed to admins.
func (s *FlightService) Delete(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Delete(&models.Flight{}, id)
	if result.Error != nil {
		return utils.WrapDatabaseError("delete flight", result.Error)
	}
	if result.RowsAffected == 0 {
		return utils.WrapNotFoundError("flight", fmt.Sprintf("%d", id))
	}

	s.logger.Info().Uint("flight_id", id).Msg("Flight deleted")
	return nil
}
