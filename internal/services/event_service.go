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

type EventService struct {
	db     *gorm.DB
	logger zerolog.Logger
}

func NewEventService(db *gorm.DB, logger zerolog.Logger) *EventService {
	return &EventService{
		db:     db,
		logger: logger,
	}
}

func (s *EventService) Create(ctx context.Context, req CreateEventRequest) (*models.Event, error) {
	event := &models.Event{
		Name:        req.Name,
		EventDate:   req.EventDate.UTC(),
		Description: req.Description,
	}
	if err := event.Validate(); err != nil {
		return nil, utils.WrapValidationError("", err.Error())
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(event).Error; err != nil {
			return utils.WrapDatabaseError("create event", err)
		}
		if len(req.PilotIDs) == 0 {
			return nil
		}
		pilots, err := s.loadPilots(tx, req.PilotIDs)
		if err != nil {
			return err
		}
		if err := tx.Model(event).Association("Pilots").Append(&pilots); err != nil {
			return utils.WrapDatabaseError("assign pilots", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Uint("event_id", event.ID).Str("name", event.Name).Msg("Event created")
	return event, nil
}

func (s *EventService) Get(ctx context.Context, id uint) (*models.Event, error) {
	var event models.Event
	err := s.db.WithContext(ctx).Preload("Pilots").First(&event, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.WrapNotFoundError("event", fmt.Sprintf("%d", id))
		}
		return nil, utils.WrapDatabaseError("get event", err)
	}
	return &event, nil
}

func (s *EventService) List(ctx context.Context) ([]models.Event, error) {
	var events []models.Event
	err := s.db.WithContext(ctx).Preload("Pilots").Order("event_date DESC").Find(&events).Error
	if err != nil {
		return nil, utils.WrapDatabaseError("list events", err)
	}
	return events, nil
}

// Update patches the event fields. A non-nil PilotIDs replaces the full
// attendance list; nil leaves it alone.
func (s *EventService) Update(ctx context.Context, id uint, req UpdateEventRequest) (*models.Event, error) {
	event, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		event.Name = *req.Name
	}
	if req.EventDate != nil {
		event.EventDate = req.EventDate.UTC()
	}
	if req.Description != nil {
		event.Description = *req.Description
	}
	if err := event.Validate(); err != nil {
		return nil, utils.WrapValidationError("", err.Error())
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(event).Error; err != nil {
			return utils.WrapDatabaseError("update event", err)
		}
		if req.PilotIDs == nil {
			return nil
		}
		pilots, err := s.loadPilots(tx, req.PilotIDs)
		if err != nil {
			return err
		}
		if err := tx.Model(event).Association("Pilots").Replace(&pilots); err != nil {
			return utils.WrapDatabaseError("replace pilots", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, id)
}

func (s *EventService) Delete(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Select("Pilots").Delete(&models.Event{ID: id})
	if result.Error != nil {
		return utils.WrapDatabaseError("delete event", result.Error)
	}
	if result.RowsAffected == 0 {
		return utils.WrapNotFoundError("event", fmt.Sprintf("%d", id))
	}
	return nil
}

// AssignPilot adds a pilot to the event's attendance list.
func (s *EventService) AssignPilot(ctx context.Context, eventID, pilotID uint) error {
	event, err := s.Get(ctx, eventID)
	if err != nil {
		return err
	}

	var pilot models.Pilot
	if err := s.db.WithContext(ctx).First(&pilot, pilotID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.WrapNotFoundError("pilot", fmt.Sprintf("%d", pilotID))
		}
		return utils.WrapDatabaseError("get pilot", err)
	}

	if err := s.db.WithContext(ctx).Model(event).Association("Pilots").Append(&pilot); err != nil {
		return utils.WrapDatabaseError("assign pilot", err)
	}
	return nil
}

// UnassignPilot removes a pilot from the event's attendance list.
func (s *EventService) UnassignPilot(ctx context.Context, eventID, pilotID uint) error {
	event, err := s.Get(ctx, eventID)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Model(event).Association("Pilots").Delete(&models.Pilot{ID: pilotID}); err != nil {
		return utils.WrapDatabaseError("unassign pilot", err)
	}
	return nil
}

func (s *EventService) loadPilots(tx *gorm.DB, ids []uint) ([]models.Pilot, error) {
	var pilots []models.Pilot
	if err := tx.Find(&pilots, ids).Error; err != nil {
		return nil, utils.WrapDatabaseError("load pilots", err)
	}
	if len(pilots) != len(ids) {
		return nil, utils.WrapValidationError("pilot_ids", "one or more pilots do not exist")
	}
	return pilots, nil
}
