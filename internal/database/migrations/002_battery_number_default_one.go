package migrations

import (
	"context"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/skyhook-org/dronelog/internal/database"
)

// flightColumns is the explicit copy list for flights rewrites.
var flightColumns = []string{
	"id", "pilot_id", "drone_id", "flight_location_id",
	"battery_number", "flight_date", "flight_end_date",
	"created_at", "updated_at",
}

var flightIndexSQL = []string{
	"CREATE INDEX IF NOT EXISTS idx_flights_pilot_id ON flights(pilot_id)",
	"CREATE INDEX IF NOT EXISTS idx_flights_drone_id ON flights(drone_id)",
	"CREATE INDEX IF NOT EXISTS idx_flights_flight_location_id ON flights(flight_location_id)",
	"CREATE INDEX IF NOT EXISTS idx_flights_flight_date ON flights(flight_date)",
	"CREATE INDEX IF NOT EXISTS idx_flights_flight_end_date ON flights(flight_end_date)",
	"CREATE INDEX IF NOT EXISTS idx_flights_pilot_in_progress ON flights(pilot_id) WHERE flight_end_date IS NULL",
}

func flightsCreateSQL(batteryDefault string) string {
	return `CREATE TABLE flights_new (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		pilot_id INTEGER NOT NULL,
		drone_id INTEGER NOT NULL,
		flight_location_id INTEGER,
		battery_number INTEGER DEFAULT ` + batteryDefault + `,
		flight_date DATETIME NOT NULL,
		flight_end_date DATETIME,
		created_at DATETIME,
		updated_at DATETIME
	)`
}

// BatteryNumberDefaultOne changes the battery_number default from 0 to 1.
// sqlite cannot alter a column default, so the flights table is rebuilt via
// a shadow-table rewrite.
func BatteryNumberDefaultOne(ctx context.Context, tx *gorm.DB, logger zerolog.Logger) error {
	rewrite := database.ShadowRewrite{
		Table:           "flights",
		CreateShadowSQL: flightsCreateSQL("1"),
		Columns:         flightColumns,
		IndexSQL:        flightIndexSQL,
	}
	return rewrite.Apply(tx, logger)
}

// BatteryNumberDefaultZero restores the previous default of 0.
func BatteryNumberDefaultZero(ctx context.Context, tx *gorm.DB, logger zerolog.Logger) error {
	rewrite := database.ShadowRewrite{
		Table:           "flights",
		CreateShadowSQL: flightsCreateSQL("0"),
		Columns:         flightColumns,
		IndexSQL:        flightIndexSQL,
	}
	return rewrite.Apply(tx, logger)
}
