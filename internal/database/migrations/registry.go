package migrations

import (
	"github.com/skyhook-org/dronelog/internal/database"
)

// GetUnits returns all versioned migration units. Sequence 003 was retired
// before release and its number is intentionally unused.
func GetUnits() []database.Unit {
	return []database.Unit{
		{
			Name: "001_add_pilot_license_fields",
			Up:   AddPilotLicenseFields,
		},
		{
			Name:           "002_battery_number_default_one",
			Up:             BatteryNumberDefaultOne,
			Down:           BatteryNumberDefaultZero,
			RewritesTables: true,
		},
		{
			Name:           "004_drop_flight_weather_column",
			Up:             DropFlightWeatherColumn,
			RewritesTables: true,
		},
		{
			Name: "005_request_log_expiry_index",
			Up:   RequestLogExpiryIndex,
		},
	}
}
