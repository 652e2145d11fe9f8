package services

import "time"

// CreatePilotRequest carries the fields accepted when registering a pilot.
type CreatePilotRequest struct {
	Name                   string     `json:"name" binding:"required"`
	MinutesOfFlightsNeeded int        `json:"minutes_of_flights_needed"`
	A1A3LicenseID          string     `json:"a1_a3_license_id"`
	A1A3LicenseValidUntil  *time.Time `json:"a1_a3_license_valid_until"`
	A2LicenseID            string     `json:"a2_license_id"`
	A2LicenseValidUntil    *time.Time `json:"a2_license_valid_until"`
	LockOnInvalidLicense   bool       `json:"lock_on_invalid_license"`
}

// UpdatePilotRequest uses pointers so absent fields are left untouched.
type UpdatePilotRequest struct {
	Name                   *string    `json:"name"`
	MinutesOfFlightsNeeded *int       `json:"minutes_of_flights_needed"`
	A1A3LicenseID          *string    `json:"a1_a3_license_id"`
	A1A3LicenseValidUntil  *time.Time `json:"a1_a3_license_valid_until"`
	A2LicenseID            *string    `json:"a2_license_id"`
	A2LicenseValidUntil    *time.Time `json:"a2_license_valid_until"`
	LockOnInvalidLicense   *bool      `json:"lock_on_invalid_license"`
}

type CreateDroneRequest struct {
	Name         string `json:"name" binding:"required"`
	SerialNumber string `json:"serial_number"`
	Notes        string `json:"notes"`
}

type UpdateDroneRequest struct {
	Name         *string `json:"name"`
	SerialNumber *string `json:"serial_number"`
	Notes        *string `json:"notes"`
}

type CreateLocationRequest struct {
	Name  string `json:"name" binding:"required"`
	Notes string `json:"notes"`
}

type UpdateLocationRequest struct {
	Name  *string `json:"name"`
	Notes *string `json:"notes"`
}

type CreateEventRequest struct {
	Name        string    `json:"name" binding:"required"`
	EventDate   time.Time `json:"event_date" binding:"required"`
	Description string    `json:"description"`
	PilotIDs    []uint    `json:"pilot_ids"`
}

type UpdateEventRequest struct {
	Name        *string    `json:"name"`
	EventDate   *time.Time `json:"event_date"`
	Description *string    `json:"description"`
	PilotIDs    []uint     `json:"pilot_ids"`
}

// StartFlightRequest opens a flight for a pilot. BatteryNumber defaults to 1
// when omitted.
type StartFlightRequest struct {
	PilotID          uint  `json:"pilot_id" binding:"required"`
	DroneID          uint  `json:"drone_id" binding:"required"`
	FlightLocationID *uint `json:"flight_location_id"`
	BatteryNumber    int   `json:"battery_number"`
}

// ListFlightsFilter narrows flight listings. Zero values mean "no filter".
type ListFlightsFilter struct {
	PilotID    uint
	DroneID    uint
	Since      time.Time
	InProgress *bool
	Limit      int
}

// Pilot currency states shown on the dashboard.
const (
	PilotStatusFlying = "flying"
	PilotStatusOK     = "ok"
	PilotStatusUnder  = "under"
)

// DashboardEntry is one pilot's row on the dashboard: their currency numbers
// plus the in-progress flight, if any.
type DashboardEntry struct {
	PilotID            uint       `json:"pilot_id"`
	PilotName          string     `json:"pilot_name"`
	Status             string     `json:"status"`
	MinutesFlown       int        `json:"minutes_flown"`
	MinutesRequired    int        `json:"minutes_required"`
	HasEnoughFlights   bool       `json:"has_enough_flights"`
	NextDueDate        *string    `json:"next_due_date"`
	Locked             bool       `json:"locked"`
	InProgressFlightID *uint      `json:"in_progress_flight_id,omitempty"`
	FlyingSince        *time.Time `json:"flying_since,omitempty"`
}
