package config

import (
	"fmt"
	"time"
)

// Config represents the main application configuration
type Config struct {
	Database   Database   `json:"database" mapstructure:"database"`
	Server     Server     `json:"server" mapstructure:"server"`
	HTTP       HTTP       `json:"http" mapstructure:"http"`
	JWT        JWT        `json:"jwt" mapstructure:"jwt"`
	Auth       Auth       `json:"auth" mapstructure:"auth"`
	Encryption Encryption `json:"encryption" mapstructure:"encryption"`
	Flights    Flights    `json:"flights" mapstructure:"flights"`
}

// Database represents database configuration. The sqlite driver is the
// default; postgres is selected by setting driver accordingly.
type Database struct {
	Driver          string        `json:"driver" mapstructure:"driver"`
	Path            string        `json:"path" mapstructure:"path"`
	Host            string        `json:"host" mapstructure:"host"`
	Port            int           `json:"port" mapstructure:"port"`
	User            string        `json:"user" mapstructure:"user"`
	Password        string        `json:"password" mapstructure:"password"`
	DBName          string        `json:"dbname" mapstructure:"dbname"`
	SSLMode         string        `json:"sslmode" mapstructure:"sslmode"`
	BusyTimeout     time.Duration `json:"busy_timeout" mapstructure:"busy_timeout"`
	MaxConnections  int           `json:"max_connections" mapstructure:"max_connections"`
	MaxIdleConns    int           `json:"max_idle_conns" mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime" mapstructure:"conn_max_lifetime"`
}

// Server represents server configuration
type Server struct {
	LogLevel string `json:"log_level" mapstructure:"log_level"`
	Debug    bool   `json:"debug" mapstructure:"debug"`
}

// HTTP represents HTTP server configuration
type HTTP struct {
	Port         int      `json:"port" mapstructure:"port"`
	AllowOrigins []string `json:"allow_origins" mapstructure:"allow_origins"`
}

// JWT represents JWT configuration
type JWT struct {
	Secret string        `json:"secret" mapstructure:"secret"`
	TTL    time.Duration `json:"ttl" mapstructure:"ttl"`
}

// Auth represents login protection configuration
type Auth struct {
	RememberMeTTL    time.Duration `json:"remember_me_ttl" mapstructure:"remember_me_ttl"`
	MaxLoginAttempts int           `json:"max_login_attempts" mapstructure:"max_login_attempts"`
	AttemptWindow    time.Duration `json:"attempt_window" mapstructure:"attempt_window"`
}

// Encryption represents document encryption configuration
type Encryption struct {
	MasterKey string `json:"master_key" mapstructure:"master_key"`
	Enabled   bool   `json:"enabled" mapstructure:"enabled"`
}

// Flights holds the flight-time engine settings. Timezone is the
// installation-local zone used to render computed due dates.
type Flights struct {
	Timezone       string `json:"timezone" mapstructure:"timezone"`
	DedupWindowMin int    `json:"dedup_window_min" mapstructure:"dedup_window_min"`
}

// NewDefault returns a Config instance with default values
func NewDefault() *Config {
	return &Config{
		Database: Database{
			Driver:          "sqlite",
			Path:            "dronelog.db",
			Host:            "localhost",
			Port:            5432,
			User:            "postgres",
			DBName:          "dronelog",
			SSLMode:         "disable",
			BusyTimeout:     5 * time.Second,
			MaxConnections:  25,
			MaxIdleConns:    5,
			ConnMaxLifetime: time.Hour,
		},
		Server: Server{
			LogLevel: "info",
			Debug:    false,
		},
		HTTP: HTTP{
			Port:         8080,
			AllowOrigins: []string{"http://localhost:3000"},
		},
		JWT: JWT{
			Secret: "change-me-in-production",
			TTL:    24 * time.Hour,
		},
		Auth: Auth{
			RememberMeTTL:    90 * 24 * time.Hour,
			MaxLoginAttempts: 5,
			AttemptWindow:    15 * time.Minute,
		},
		Encryption: Encryption{
			MasterKey: "",
			Enabled:   false,
		},
		Flights: Flights{
			Timezone:       "UTC",
			DedupWindowMin: 5,
		},
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Path == "" {
			return fmt.Errorf("database path is required for sqlite")
		}
	case "postgres":
		if c.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			return fmt.Errorf("database port must be between 1 and 65535")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database user is required")
		}
		if c.Database.DBName == "" {
			return fmt.Errorf("database name is required")
		}
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}
	if c.Database.MaxConnections <= 0 {
		return fmt.Errorf("max connections must be greater than 0")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("max idle connections cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxConnections {
		return fmt.Errorf("max idle connections cannot exceed max connections")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"fatal": true,
	}
	if !validLogLevels[c.Server.LogLevel] {
		return fmt.Errorf("invalid log level: %s", c.Server.LogLevel)
	}

	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT secret cannot be empty")
	}
	if c.JWT.TTL <= 0 {
		return fmt.Errorf("JWT TTL must be positive")
	}

	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("HTTP port must be between 1 and 65535")
	}

	if c.Auth.MaxLoginAttempts <= 0 {
		return fmt.Errorf("max login attempts must be greater than 0")
	}
	if c.Auth.AttemptWindow <= 0 {
		return fmt.Errorf("login attempt window must be positive")
	}

	if c.Encryption.Enabled && c.Encryption.MasterKey == "" {
		return fmt.Errorf("encryption master key is required when encryption is enabled")
	}

	if _, err := time.LoadLocation(c.Flights.Timezone); err != nil {
		return fmt.Errorf("invalid flights timezone %q: %w", c.Flights.Timezone, err)
	}
	if c.Flights.DedupWindowMin <= 0 {
		return fmt.Errorf("dedup window must be positive")
	}

	return nil
}

// Location resolves the installation-local timezone. Validate guarantees the
// zone parses; an unparseable zone here falls back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Flights.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
