package flighttime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skyhook-org/dronelog/internal/models"
)

func completedFlight(start time.Time, minutes float64) models.Flight {
	end := start.Add(time.Duration(minutes * float64(time.Minute)))
	return models.Flight{
		FlightDate:    start,
		FlightEndDate: &end,
	}
}

func TestMinutes(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	t.Run("flight outside window is ignored", func(t *testing.T) {
		flights := []models.Flight{
			completedFlight(now.AddDate(0, -4, 0), 30),
			completedFlight(now.AddDate(0, -1, 0), 50),
		}
		assert.Equal(t, 50, Minutes(flights, now))
	})

	t.Run("no flights yields zero", func(t *testing.T) {
		assert.Equal(t, 0, Minutes(nil, now))
	})

	t.Run("in-progress flights are ignored", func(t *testing.T) {
		flights := []models.Flight{
			{FlightDate: now.Add(-time.Hour)},
			completedFlight(now.Add(-2*time.Hour), 20),
		}
		assert.Equal(t, 20, Minutes(flights, now))
	})

	t.Run("fractional minutes sum before rounding", func(t *testing.T) {
		flights := []models.Flight{
			completedFlight(now.Add(-3*time.Hour), 10.4),
			completedFlight(now.Add(-2*time.Hour), 10.4),
		}
		// 20.8 rounds to 21; per-flight rounding would give 20
		assert.Equal(t, 21, Minutes(flights, now))
	})
}

func TestHasEnoughFlights(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	t.Run("three completed flights in window", func(t *testing.T) {
		flights := []models.Flight{
			completedFlight(now.AddDate(0, -1, 0), 5),
			completedFlight(now.AddDate(0, -2, 0), 5),
			completedFlight(now.AddDate(0, 0, -10), 5),
		}
		assert.True(t, HasEnoughFlights(flights, now))
	})

	t.Run("old flights do not count", func(t *testing.T) {
		flights := []models.Flight{
			completedFlight(now.AddDate(0, -1, 0), 5),
			completedFlight(now.AddDate(0, -4, 0), 5),
			completedFlight(now.AddDate(0, -5, 0), 5),
		}
		assert.False(t, HasEnoughFlights(flights, now))
	})
}

func TestRequiredMinutes(t *testing.T) {
	t.Run("configured value wins", func(t *testing.T) {
		pilot := &models.Pilot{MinutesOfFlightsNeeded: 45}
		assert.Equal(t, 45, RequiredMinutes(pilot))
	})

	t.Run("zero falls back to 60, not the stored default of 45", func(t *testing.T) {
		pilot := &models.Pilot{MinutesOfFlightsNeeded: 0}
		assert.Equal(t, 60, RequiredMinutes(pilot))
		assert.NotEqual(t, models.DefaultRequiredMinutes, RequiredMinutes(pilot))
	})
}

func TestNextDueDate(t *testing.T) {
	t.Run("no completed flights yields nil", func(t *testing.T) {
		pilot := &models.Pilot{MinutesOfFlightsNeeded: 45}
		now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

		assert.Nil(t, NextDueDate(pilot, nil, now, time.UTC))
	})

	t.Run("only stale flights yields nil", func(t *testing.T) {
		pilot := &models.Pilot{MinutesOfFlightsNeeded: 45}
		now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
		flights := []models.Flight{
			completedFlight(now.AddDate(0, -5, 0), 120),
		}

		assert.Nil(t, NextDueDate(pilot, flights, now, time.UTC))
	})

	t.Run("single satisfying flight anchors the due date", func(t *testing.T) {
		pilot := &models.Pilot{MinutesOfFlightsNeeded: 45}
		now := time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC)
		flights := []models.Flight{
			completedFlight(time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC), 45),
		}

		due := NextDueDate(pilot, flights, now, time.UTC)
		require.NotNil(t, due)
		assert.Equal(t, "2025-04-10", *due)
	})

	t.Run("anchor is the oldest flight needed to reach the threshold", func(t *testing.T) {
		pilot := &models.Pilot{MinutesOfFlightsNeeded: 60}
		now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
		flights := []models.Flight{
			completedFlight(time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC), 30),
			completedFlight(time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC), 30),
			completedFlight(time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC), 30),
		}

		// 30 + 30 reaches 60 at the May flight; the April one never counts
		due := NextDueDate(pilot, flights, now, time.UTC)
		require.NotNil(t, due)
		assert.Equal(t, "2025-08-01", *due)
	})

	t.Run("under threshold still anchors on last counted flight", func(t *testing.T) {
		pilot := &models.Pilot{MinutesOfFlightsNeeded: 60}
		now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
		flights := []models.Flight{
			completedFlight(time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC), 20),
		}

		due := NextDueDate(pilot, flights, now, time.UTC)
		require.NotNil(t, due)
		assert.Equal(t, "2025-09-01", *due)
	})

	t.Run("due date renders in the installation timezone", func(t *testing.T) {
		pilot := &models.Pilot{MinutesOfFlightsNeeded: 45}
		now := time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC)
		// Starts late evening UTC; in Auckland that is already the next day
		flights := []models.Flight{
			completedFlight(time.Date(2025, 1, 10, 23, 30, 0, 0, time.UTC), 45),
		}
		auckland, err := time.LoadLocation("Pacific/Auckland")
		require.NoError(t, err)

		due := NextDueDate(pilot, flights, now, auckland)
		require.NotNil(t, due)
		assert.Equal(t, "2025-04-11", *due)
	})
}

func TestMeetsRequirement(t *testing.T) {
	pilot := &models.Pilot{MinutesOfFlightsNeeded: 45}
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	flights := []models.Flight{
		completedFlight(now.AddDate(0, -1, 0), 50),
	}
	assert.True(t, MeetsRequirement(pilot, flights, now))

	short := []models.Flight{
		completedFlight(now.AddDate(0, -1, 0), 40),
	}
	assert.False(t, MeetsRequirement(pilot, short, now))
}
