package models

import (
	"time"
)

// Flight is a single drone flight. FlightEndDate is nil while the flight is
// in progress. All timestamps are stored in UTC.
type Flight struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	PilotID          uint       `gorm:"not null;index" json:"pilot_id"`
	Pilot            *Pilot     `gorm:"foreignKey:PilotID" json:"-"`
	DroneID          uint       `gorm:"not null;index" json:"drone_id"`
	Drone            *Drone     `gorm:"foreignKey:DroneID" json:"-"`
	FlightLocationID *uint      `gorm:"index" json:"flight_location_id,omitempty"`
	BatteryNumber    int        `gorm:"default:1" json:"battery_number"`
	FlightDate       time.Time  `gorm:"not null;index" json:"flight_date"`
	FlightEndDate    *time.Time `gorm:"index" json:"flight_end_date,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func (Flight) TableName() string {
	return "flights"
}

// InProgress reports whether the flight has been started but not ended.
func (f *Flight) InProgress() bool {
	return f.FlightEndDate == nil
}

// Duration returns the flight duration. Zero for in-progress flights.
func (f *Flight) Duration() time.Duration {
	if f.FlightEndDate == nil {
		return 0
	}
	return f.FlightEndDate.Sub(f.FlightDate)
}
