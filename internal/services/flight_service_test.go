package services

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/skyhook-org/dronelog/internal/models"
	"github.com/skyhook-org/dronelog/internal/utils"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Pilot{},
		&models.Drone{},
		&models.FlightLocation{},
		&models.Flight{},
		&models.Event{},
		&models.RequestLog{},
	))
	return db
}

func seedPilotAndDrone(t *testing.T, db *gorm.DB) (*models.Pilot, *models.Drone) {
	pilot := &models.Pilot{Name: "Riley", MinutesOfFlightsNeeded: 45}
	require.NoError(t, db.Create(pilot).Error)
	drone := &models.Drone{Name: "Mavic", SerialNumber: "SN-001"}
	require.NoError(t, db.Create(drone).Error)
	return pilot, drone
}

func newTestFlightService(db *gorm.DB) *FlightService {
	return NewFlightService(db, zerolog.Nop())
}

func TestStartFlight(t *testing.T) {
	ctx := context.Background()

	t.Run("creates an in-progress flight", func(t *testing.T) {
		db := setupTestDB(t)
		pilot, drone := seedPilotAndDrone(t, db)
		svc := newTestFlightService(db)

		flight, err := svc.Start(ctx, StartFlightRequest{PilotID: pilot.ID, DroneID: drone.ID})
		require.NoError(t, err)
		assert.True(t, flight.InProgress())
		assert.Equal(t, 1, flight.BatteryNumber)
		assert.False(t, flight.FlightDate.IsZero())
	})

	t.Run("second start for the same pilot conflicts", func(t *testing.T) {
		db := setupTestDB(t)
		pilot, drone := seedPilotAndDrone(t, db)
		svc := newTestFlightService(db)

		_, err := svc.Start(ctx, StartFlightRequest{PilotID: pilot.ID, DroneID: drone.ID})
		require.NoError(t, err)

		_, err = svc.Start(ctx, StartFlightRequest{PilotID: pilot.ID, DroneID: drone.ID})
		require.Error(t, err)
		assert.True(t, utils.IsConflictError(err))

		// Exactly one flight exists
		var count int64
		require.NoError(t, db.Model(&models.Flight{}).Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})

	t.Run("other pilots are unaffected", func(t *testing.T) {
		db := setupTestDB(t)
		pilot, drone := seedPilotAndDrone(t, db)
		other := &models.Pilot{Name: "Sam", MinutesOfFlightsNeeded: 45}
		require.NoError(t, db.Create(other).Error)
		svc := newTestFlightService(db)

		_, err := svc.Start(ctx, StartFlightRequest{PilotID: pilot.ID, DroneID: drone.ID})
		require.NoError(t, err)

		_, err = svc.Start(ctx, StartFlightRequest{PilotID: other.ID, DroneID: drone.ID})
		assert.NoError(t, err)
	})

	t.Run("unknown pilot", func(t *testing.T) {
		db := setupTestDB(t)
		_, drone := seedPilotAndDrone(t, db)
		svc := newTestFlightService(db)

		_, err := svc.Start(ctx, StartFlightRequest{PilotID: 999, DroneID: drone.ID})
		require.Error(t, err)
		assert.True(t, utils.IsNotFoundError(err))
	})

	t.Run("locked pilot cannot start", func(t *testing.T) {
		db := setupTestDB(t)
		_, drone := seedPilotAndDrone(t, db)
		expired := time.Now().UTC().AddDate(-1, 0, 0)
		locked := &models.Pilot{
			Name:                   "Alex",
			MinutesOfFlightsNeeded: 45,
			A1A3LicenseID:          "A1A3-123",
			A1A3LicenseValidUntil:  &expired,
			LockOnInvalidLicense:   true,
		}
		require.NoError(t, db.Create(locked).Error)
		svc := newTestFlightService(db)

		_, err := svc.Start(ctx, StartFlightRequest{PilotID: locked.ID, DroneID: drone.ID})
		require.Error(t, err)
		assert.True(t, utils.IsConflictError(err))
	})
}

func TestEndFlight(t *testing.T) {
	ctx := context.Background()

	t.Run("sets the end date once", func(t *testing.T) {
		db := setupTestDB(t)
		pilot, drone := seedPilotAndDrone(t, db)
		svc := newTestFlightService(db)

		flight, err := svc.Start(ctx, StartFlightRequest{PilotID: pilot.ID, DroneID: drone.ID})
		require.NoError(t, err)

		ended, err := svc.End(ctx, flight.ID)
		require.NoError(t, err)
		require.NotNil(t, ended.FlightEndDate)

		// Second end conflicts and does not move the end date
		_, err = svc.End(ctx, flight.ID)
		require.Error(t, err)
		assert.True(t, utils.IsConflictError(err))

		var stored models.Flight
		require.NoError(t, db.First(&stored, flight.ID).Error)
		require.NotNil(t, stored.FlightEndDate)
		assert.WithinDuration(t, *ended.FlightEndDate, *stored.FlightEndDate, time.Second)
	})

	t.Run("pilot can start again after ending", func(t *testing.T) {
		db := setupTestDB(t)
		pilot, drone := seedPilotAndDrone(t, db)
		svc := newTestFlightService(db)

		flight, err := svc.Start(ctx, StartFlightRequest{PilotID: pilot.ID, DroneID: drone.ID})
		require.NoError(t, err)
		_, err = svc.End(ctx, flight.ID)
		require.NoError(t, err)

		_, err = svc.Start(ctx, StartFlightRequest{PilotID: pilot.ID, DroneID: drone.ID})
		assert.NoError(t, err)
	})

	t.Run("unknown flight", func(t *testing.T) {
		db := setupTestDB(t)
		svc := newTestFlightService(db)

		_, err := svc.End(ctx, 999)
		require.Error(t, err)
		assert.True(t, utils.IsNotFoundError(err))
	})
}

func TestListFlights(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	pilot, drone := seedPilotAndDrone(t, db)
	other := &models.Pilot{Name: "Sam", MinutesOfFlightsNeeded: 45}
	require.NoError(t, db.Create(other).Error)
	svc := newTestFlightService(db)

	first, err := svc.Start(ctx, StartFlightRequest{PilotID: pilot.ID, DroneID: drone.ID})
	require.NoError(t, err)
	_, err = svc.End(ctx, first.ID)
	require.NoError(t, err)
	_, err = svc.Start(ctx, StartFlightRequest{PilotID: other.ID, DroneID: drone.ID})
	require.NoError(t, err)

	t.Run("filter by pilot", func(t *testing.T) {
		flights, err := svc.List(ctx, ListFlightsFilter{PilotID: pilot.ID})
		require.NoError(t, err)
		require.Len(t, flights, 1)
		assert.Equal(t, first.ID, flights[0].ID)
	})

	t.Run("filter in progress", func(t *testing.T) {
		inProgress := true
		flights, err := svc.List(ctx, ListFlightsFilter{InProgress: &inProgress})
		require.NoError(t, err)
		require.Len(t, flights, 1)
		assert.Equal(t, other.ID, flights[0].PilotID)
	})

	t.Run("no filter returns all", func(t *testing.T) {
		flights, err := svc.List(ctx, ListFlightsFilter{})
		require.NoError(t, err)
		assert.Len(t, flights, 2)
	})
}
