package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// Event is a duty event (training, deployment, exercise) pilots attend.
type Event struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"not null" json:"name"`
	EventDate   time.Time      `gorm:"not null;index" json:"event_date"`
	Description string         `gorm:"type:text" json:"description,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	Pilots []Pilot `gorm:"many2many:pilot_events" json:"-"`
}

func (Event) TableName() string {
	return "events"
}

func (e *Event) Validate() error {
	if e.Name == "" {
		return errors.New("event name cannot be empty")
	}
	if e.EventDate.IsZero() {
		return errors.New("event date is required")
	}
	return nil
}

func (e *Event) BeforeCreate(tx *gorm.DB) error {
	return e.Validate()
}
