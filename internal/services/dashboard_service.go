package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/skyhook-org/dronelog/internal/flighttime"
	"github.com/skyhook-org/dronelog/internal/models"
	"github.com/skyhook-org/dronelog/internal/utils"
)

// DashboardService assembles the per-pilot currency overview. It fetches the
// deeper candidate window in one query and lets the flighttime package apply
// the narrower accumulation window per pilot.
type DashboardService struct {
	db       *gorm.DB
	location *time.Location
	logger   zerolog.Logger
	now      func() time.Time
}

func NewDashboardService(db *gorm.DB, location *time.Location, logger zerolog.Logger) *DashboardService {
	return &DashboardService{
		db:       db,
		location: location,
		logger:   logger,
		now:      time.Now,
	}
}

// Entries returns one dashboard row per pilot, ordered by pilot name.
func (s *DashboardService) Entries(ctx context.Context) ([]DashboardEntry, error) {
	now := s.now().UTC()
	candidateStart := now.AddDate(0, -flighttime.CandidateWindowMonths, 0)

	var pilots []models.Pilot
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&pilots).Error; err != nil {
		return nil, utils.WrapDatabaseError("list pilots", err)
	}

	// One query for every pilot's recent and in-progress flights. In-progress
	// flights older than the window still matter for the flying state.
	var flights []models.Flight
	err := s.db.WithContext(ctx).
		Where("flight_date >= ? OR flight_end_date IS NULL", candidateStart).
		Order("flight_date DESC").
		Find(&flights).Error
	if err != nil {
		return nil, utils.WrapDatabaseError("list flights", err)
	}

	byPilot := make(map[uint][]models.Flight, len(pilots))
	for _, f := range flights {
		byPilot[f.PilotID] = append(byPilot[f.PilotID], f)
	}

	entries := make([]DashboardEntry, 0, len(pilots))
	for i := range pilots {
		entries = append(entries, s.entryFor(&pilots[i], byPilot[pilots[i].ID], now))
	}
	return entries, nil
}

// Entry returns the dashboard row for a single pilot.
func (s *DashboardService) Entry(ctx context.Context, pilotID uint) (*DashboardEntry, error) {
	now := s.now().UTC()
	candidateStart := now.AddDate(0, -flighttime.CandidateWindowMonths, 0)

	var pilot models.Pilot
	if err := s.db.WithContext(ctx).First(&pilot, pilotID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.WrapNotFoundError("pilot", fmt.Sprintf("%d", pilotID))
		}
		return nil, utils.WrapDatabaseError("get pilot", err)
	}

	var flights []models.Flight
	err := s.db.WithContext(ctx).
		Where("pilot_id = ? AND (flight_date >= ? OR flight_end_date IS NULL)", pilotID, candidateStart).
		Order("flight_date DESC").
		Find(&flights).Error
	if err != nil {
		return nil, utils.WrapDatabaseError("list flights", err)
	}

	entry := s.entryFor(&pilot, flights, now)
	return &entry, nil
}

func (s *DashboardService) entryFor(pilot *models.Pilot, flights []models.Flight, now time.Time) DashboardEntry {
	entry := DashboardEntry{
		PilotID:          pilot.ID,
		PilotName:        pilot.Name,
		MinutesFlown:     flighttime.Minutes(flights, now),
		MinutesRequired:  flighttime.RequiredMinutes(pilot),
		HasEnoughFlights: flighttime.HasEnoughFlights(flights, now),
		NextDueDate:      flighttime.NextDueDate(pilot, flights, now, s.location),
		Locked:           pilot.Locked(now),
	}

	for i := range flights {
		if flights[i].InProgress() {
			entry.InProgressFlightID = &flights[i].ID
			entry.FlyingSince = &flights[i].FlightDate
			break
		}
	}

	switch {
	case entry.InProgressFlightID != nil:
		entry.Status = PilotStatusFlying
	case entry.MinutesFlown >= entry.MinutesRequired:
		entry.Status = PilotStatusOK
	default:
		entry.Status = PilotStatusUnder
	}
	return entry
}
