package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefault(t *testing.T) {
	cfg := NewDefault()

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "dronelog.db", cfg.Database.Path)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, 24*time.Hour, cfg.JWT.TTL)
	assert.Equal(t, 5, cfg.Auth.MaxLoginAttempts)
	assert.Equal(t, "UTC", cfg.Flights.Timezone)

	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "unknown driver",
			mutate:  func(c *Config) { c.Database.Driver = "oracle" },
			wantErr: "unsupported database driver",
		},
		{
			name:    "sqlite without path",
			mutate:  func(c *Config) { c.Database.Path = "" },
			wantErr: "database path is required",
		},
		{
			name: "postgres without host",
			mutate: func(c *Config) {
				c.Database.Driver = "postgres"
				c.Database.Host = ""
			},
			wantErr: "database host is required",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Server.LogLevel = "verbose" },
			wantErr: "invalid log level",
		},
		{
			name:    "empty jwt secret",
			mutate:  func(c *Config) { c.JWT.Secret = "" },
			wantErr: "JWT secret",
		},
		{
			name:    "bad http port",
			mutate:  func(c *Config) { c.HTTP.Port = 0 },
			wantErr: "HTTP port",
		},
		{
			name: "encryption enabled without key",
			mutate: func(c *Config) {
				c.Encryption.Enabled = true
				c.Encryption.MasterKey = ""
			},
			wantErr: "encryption master key",
		},
		{
			name:    "bad timezone",
			mutate:  func(c *Config) { c.Flights.Timezone = "Mars/Olympus" },
			wantErr: "invalid flights timezone",
		},
		{
			name: "idle exceeds max",
			mutate: func(c *Config) {
				c.Database.MaxIdleConns = 100
				c.Database.MaxConnections = 10
			},
			wantErr: "cannot exceed max connections",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefault()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLocation(t *testing.T) {
	cfg := NewDefault()
	cfg.Flights.Timezone = "Europe/Berlin"

	loc := cfg.Location()
	require.NotNil(t, loc)
	assert.Equal(t, "Europe/Berlin", loc.String())
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 8080, cfg.HTTP.Port)
}
