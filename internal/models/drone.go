package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

type Drone struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Name         string         `gorm:"not null" json:"name"`
	SerialNumber string         `gorm:"uniqueIndex" json:"serial_number"`
	Notes        string         `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Drone) TableName() string {
	return "drones"
}

func (d *Drone) Validate() error {
	if d.Name == "" {
		return errors.New("drone name cannot be empty")
	}
	return nil
}

func (d *Drone) BeforeCreate(tx *gorm.DB) error {
	return d.Validate()
}

func (d *Drone) BeforeUpdate(tx *gorm.DB) error {
	return d.Validate()
}

type FlightLocation struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"not null" json:"name"`
	Notes     string         `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (FlightLocation) TableName() string {
	return "flight_locations"
}

func (l *FlightLocation) Validate() error {
	if l.Name == "" {
		return errors.New("location name cannot be empty")
	}
	return nil
}

func (l *FlightLocation) BeforeCreate(tx *gorm.DB) error {
	return l.Validate()
}
