package services

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/skyhook-org/dronelog/internal/models"
)

func newTestDashboardService(db *gorm.DB, now time.Time) *DashboardService {
	svc := NewDashboardService(db, time.UTC, zerolog.Nop())
	svc.now = func() time.Time { return now }
	return svc
}

func seedFlight(t *testing.T, db *gorm.DB, pilotID, droneID uint, start time.Time, minutes int) {
	t.Helper()
	flight := &models.Flight{
		PilotID:    pilotID,
		DroneID:    droneID,
		FlightDate: start,
	}
	if minutes > 0 {
		end := start.Add(time.Duration(minutes) * time.Minute)
		flight.FlightEndDate = &end
	}
	require.NoError(t, db.Create(flight).Error)
}

func TestDashboardEntries(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	db := setupTestDB(t)
	drone := &models.Drone{Name: "Mavic", SerialNumber: "SN-001"}
	require.NoError(t, db.Create(drone).Error)

	current := &models.Pilot{Name: "Current", MinutesOfFlightsNeeded: 45}
	flying := &models.Pilot{Name: "Flying", MinutesOfFlightsNeeded: 45}
	under := &models.Pilot{Name: "Under", MinutesOfFlightsNeeded: 45}
	for _, p := range []*models.Pilot{current, flying, under} {
		require.NoError(t, db.Create(p).Error)
	}

	// Current: 50 minutes last month
	seedFlight(t, db, current.ID, drone.ID, now.AddDate(0, -1, 0), 50)
	// Flying: airborne right now, plenty of minutes besides
	seedFlight(t, db, flying.ID, drone.ID, now.Add(-30*time.Minute), 0)
	seedFlight(t, db, flying.ID, drone.ID, now.AddDate(0, -1, 0), 60)
	// Under: only stale minutes
	seedFlight(t, db, under.ID, drone.ID, now.AddDate(0, -4, 0), 120)

	svc := newTestDashboardService(db, now)
	entries, err := svc.Entries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	byName := make(map[string]DashboardEntry, len(entries))
	for _, e := range entries {
		byName[e.PilotName] = e
	}

	t.Run("current pilot", func(t *testing.T) {
		e := byName["Current"]
		assert.Equal(t, PilotStatusOK, e.Status)
		assert.Equal(t, 50, e.MinutesFlown)
		assert.Equal(t, 45, e.MinutesRequired)
		require.NotNil(t, e.NextDueDate)
		assert.Nil(t, e.InProgressFlightID)
	})

	t.Run("flying pilot", func(t *testing.T) {
		e := byName["Flying"]
		assert.Equal(t, PilotStatusFlying, e.Status)
		require.NotNil(t, e.InProgressFlightID)
		require.NotNil(t, e.FlyingSince)
		// The open flight contributes no minutes
		assert.Equal(t, 60, e.MinutesFlown)
	})

	t.Run("under pilot", func(t *testing.T) {
		e := byName["Under"]
		assert.Equal(t, PilotStatusUnder, e.Status)
		assert.Equal(t, 0, e.MinutesFlown)
		assert.Nil(t, e.NextDueDate)
	})
}

func TestDashboardEntry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	db := setupTestDB(t)
	drone := &models.Drone{Name: "Mavic", SerialNumber: "SN-001"}
	require.NoError(t, db.Create(drone).Error)
	pilot := &models.Pilot{Name: "Riley", MinutesOfFlightsNeeded: 45}
	require.NoError(t, db.Create(pilot).Error)

	// An in-progress flight started before the candidate window still marks
	// the pilot as flying.
	seedFlight(t, db, pilot.ID, drone.ID, now.AddDate(0, -7, 0), 0)

	svc := newTestDashboardService(db, now)
	entry, err := svc.Entry(ctx, pilot.ID)
	require.NoError(t, err)
	assert.Equal(t, PilotStatusFlying, entry.Status)
	require.NotNil(t, entry.InProgressFlightID)

	t.Run("unknown pilot", func(t *testing.T) {
		_, err := svc.Entry(ctx, 999)
		require.Error(t, err)
	})
}
