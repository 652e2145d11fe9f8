package migrations

import (
	"context"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/skyhook-org/dronelog/internal/database"
)

// DropFlightWeatherColumn removes the legacy weather column, which moved to
// the flight locations' notes. Installations created after the column was
// removed from the model have nothing to do.
func DropFlightWeatherColumn(ctx context.Context, tx *gorm.DB, logger zerolog.Logger) error {
	if !tx.Migrator().HasColumn("flights", "weather") {
		logger.Debug().Msg("flights.weather already absent, skipping rewrite")
		return nil
	}

	rewrite := database.ShadowRewrite{
		Table:           "flights",
		CreateShadowSQL: flightsCreateSQL("1"),
		Columns:         flightColumns,
		IndexSQL:        flightIndexSQL,
	}
	return rewrite.Apply(tx, logger)
}
