// Package flighttime computes pilot currency: accumulated flight minutes in
// a rolling window and the date the next mandatory flight is due. All inputs
// are UTC; only the rendered due date is local.
package flighttime

import (
	"math"
	"sort"
	"time"

	"github.com/skyhook-org/dronelog/internal/models"
)

const (
	// AccumulationWindowMonths scopes which flights count toward minutes.
	AccumulationWindowMonths = 3
	// CandidateWindowMonths is the deeper fetch window for the due-date walk.
	CandidateWindowMonths = 6
	// MinFlightCount is the completed-flight count for the separate
	// "has enough flights" signal.
	MinFlightCount = 3

	// dueDateFallbackMinutes applies when a pilot's configured requirement is
	// zero. Deliberately not the same as models.DefaultRequiredMinutes (45):
	// the observed system carries both values, and installations may rely on
	// the difference.
	dueDateFallbackMinutes = 60
)

// RequiredMinutes resolves the pilot's minutes threshold for the due-date
// computation.
func RequiredMinutes(pilot *models.Pilot) int {
	if pilot.MinutesOfFlightsNeeded <= 0 {
		return dueDateFallbackMinutes
	}
	return pilot.MinutesOfFlightsNeeded
}

// Minutes returns the pilot's total completed flight minutes for flights
// starting within the trailing accumulation window. Durations are summed
// fractionally and rounded once at the end.
func Minutes(flights []models.Flight, now time.Time) int {
	windowStart := now.UTC().AddDate(0, -AccumulationWindowMonths, 0)

	total := 0.0
	for _, f := range flights {
		if f.FlightEndDate == nil {
			continue
		}
		if f.FlightDate.Before(windowStart) {
			continue
		}
		total += f.FlightEndDate.Sub(f.FlightDate).Minutes()
	}

	return int(math.Round(total))
}

// HasEnoughFlights reports whether the pilot completed at least MinFlightCount
// flights in the trailing accumulation window. This is a count-based signal,
// independent of the minutes threshold.
func HasEnoughFlights(flights []models.Flight, now time.Time) bool {
	windowStart := now.UTC().AddDate(0, -AccumulationWindowMonths, 0)

	count := 0
	for _, f := range flights {
		if f.FlightEndDate == nil || f.FlightDate.Before(windowStart) {
			continue
		}
		count++
	}
	return count >= MinFlightCount
}

// NextDueDate returns the pilot's next mandatory-flight due date as a local
// calendar date (Y-m-d), or nil when the pilot has not flown enough for a
// due date to be known.
//
// Completed flights from the trailing candidate window are walked newest
// first. A flight contributes its duration only when its start lies within
// the narrower accumulation window; the anchor tracks the start of the last
// flight counted, and the walk stops once the threshold is met. The due date
// is the anchor plus the accumulation window, so it marks the day the anchor
// flight ages out of the window.
func NextDueDate(pilot *models.Pilot, flights []models.Flight, now time.Time, loc *time.Location) *string {
	required := float64(RequiredMinutes(pilot))
	nowUTC := now.UTC()
	candidateStart := nowUTC.AddDate(0, -CandidateWindowMonths, 0)
	accumulationStart := nowUTC.AddDate(0, -AccumulationWindowMonths, 0)

	pool := make([]models.Flight, 0, len(flights))
	for _, f := range flights {
		if f.FlightEndDate == nil || f.FlightDate.Before(candidateStart) {
			continue
		}
		pool = append(pool, f)
	}
	sort.Slice(pool, func(i, j int) bool {
		return pool[i].FlightEndDate.After(*pool[j].FlightEndDate)
	})

	total := 0.0
	var anchor *time.Time
	for i := range pool {
		f := pool[i]
		if f.FlightDate.Before(accumulationStart) {
			continue
		}
		total += f.FlightEndDate.Sub(f.FlightDate).Minutes()
		anchor = &pool[i].FlightDate
		if total >= required {
			break
		}
	}

	if anchor == nil {
		return nil
	}

	if loc == nil {
		loc = time.UTC
	}
	due := anchor.AddDate(0, AccumulationWindowMonths, 0).In(loc).Format("2006-01-02")
	return &due
}

// MeetsRequirement reports whether the pilot's accumulated minutes meet the
// resolved threshold.
func MeetsRequirement(pilot *models.Pilot, flights []models.Flight, now time.Time) bool {
	return Minutes(flights, now) >= RequiredMinutes(pilot)
}
