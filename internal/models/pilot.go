package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// DefaultRequiredMinutes is the stored default for a pilot's required flight
// minutes. Note that the due-date engine uses its own fallback of 60 when the
// stored value is zero; the two constants are intentionally distinct.
const DefaultRequiredMinutes = 45

// Pilot represents a member of the unit who flies drones.
type Pilot struct {
	ID                     uint           `gorm:"primaryKey" json:"id"`
	Name                   string         `gorm:"not null" json:"name"`
	MinutesOfFlightsNeeded int            `gorm:"default:45" json:"minutes_of_flights_needed"`
	A1A3LicenseID          string         `json:"a1_a3_license_id,omitempty"`
	A1A3LicenseValidUntil  *time.Time     `json:"a1_a3_license_valid_until,omitempty"`
	A2LicenseID            string         `json:"a2_license_id,omitempty"`
	A2LicenseValidUntil    *time.Time     `json:"a2_license_valid_until,omitempty"`
	LockOnInvalidLicense   bool           `gorm:"default:false" json:"lock_on_invalid_license"`
	CreatedAt              time.Time      `json:"created_at"`
	UpdatedAt              time.Time      `json:"updated_at"`
	DeletedAt              gorm.DeletedAt `gorm:"index" json:"-"`

	Flights []Flight `gorm:"foreignKey:PilotID" json:"-"`
	Events  []Event  `gorm:"many2many:pilot_events" json:"-"`
}

func (Pilot) TableName() string {
	return "pilots"
}

// Validate checks required fields before the pilot touches the store.
func (p *Pilot) Validate() error {
	if p.Name == "" {
		return errors.New("pilot name cannot be empty")
	}
	if p.MinutesOfFlightsNeeded < 0 {
		return errors.New("minutes of flights needed cannot be negative")
	}
	return nil
}

func (p *Pilot) BeforeCreate(tx *gorm.DB) error {
	return p.Validate()
}

func (p *Pilot) BeforeUpdate(tx *gorm.DB) error {
	return p.Validate()
}

// LicenseValid reports whether the pilot holds at least one license that is
// still valid at the given time. Pilots with no license on file are treated
// as valid unless locking is requested elsewhere.
func (p *Pilot) LicenseValid(now time.Time) bool {
	if p.A1A3LicenseID == "" && p.A2LicenseID == "" {
		return true
	}
	if p.A1A3LicenseID != "" && (p.A1A3LicenseValidUntil == nil || p.A1A3LicenseValidUntil.After(now)) {
		return true
	}
	if p.A2LicenseID != "" && (p.A2LicenseValidUntil == nil || p.A2LicenseValidUntil.After(now)) {
		return true
	}
	return false
}

// Locked reports whether the pilot is blocked from starting flights.
func (p *Pilot) Locked(now time.Time) bool {
	return p.LockOnInvalidLicense && !p.LicenseValid(now)
}
