package database

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/skyhook-org/dronelog/internal/models"
)

// DefaultAdminEmail is the seeded admin account created on first boot.
const DefaultAdminEmail = "admin@dronelog.local"

// RunMigrations creates the base schema for all models. Versioned units in
// the migrations package evolve it from there.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.AuthToken{},
		&models.LoginAttempt{},
		&models.Pilot{},
		&models.Drone{},
		&models.FlightLocation{},
		&models.Flight{},
		&models.Event{},
		&models.Document{},
		&models.RequestLog{},
		&models.Migration{},
	); err != nil {
		return fmt.Errorf("failed to run auto-migrations: %w", err)
	}

	if err := seedAdminUser(db); err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}

	// Partial index keeps the in-progress flight lookup cheap on the
	// dashboard's hot path.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_flights_pilot_in_progress
		ON flights(pilot_id)
		WHERE flight_end_date IS NULL
	`).Error; err != nil {
		return fmt.Errorf("failed to create in-progress flight index: %w", err)
	}

	return nil
}

// seedAdminUser creates the initial admin account if no user exists yet.
// The password must be changed on first login.
func seedAdminUser(db *gorm.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var count int64
	if err := db.WithContext(ctx).Model(&models.User{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte("changeme"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := &models.User{
		Email:    DefaultAdminEmail,
		Password: string(hashed),
		IsAdmin:  true,
	}
	if err := db.WithContext(ctx).Create(admin).Error; err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	return nil
}
