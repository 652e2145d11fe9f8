package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	v.SetConfigType("yaml")
	v.SetConfigName("config")

	if configPath != "" {
		// Use explicit path if provided
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/dronelog")

		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".dronelog"))
		}
	}

	setDefaults(v)

	v.SetEnvPrefix("DRONELOG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindEnvVars(v)

	if err := v.ReadInConfig(); err != nil {
		// It's ok if config file doesn't exist, we have defaults and env vars
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "dronelog.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "dronelog")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.busy_timeout", "5s")
	v.SetDefault("database.max_connections", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "1h")

	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.debug", false)

	v.SetDefault("http.port", 8080)

	v.SetDefault("jwt.secret", "change-me-in-production")
	v.SetDefault("jwt.ttl", "24h")

	v.SetDefault("auth.remember_me_ttl", "2160h")
	v.SetDefault("auth.max_login_attempts", 5)
	v.SetDefault("auth.attempt_window", "15m")

	v.SetDefault("flights.timezone", "UTC")
	v.SetDefault("flights.dedup_window_min", 5)
}

// bindEnvVars binds specific environment variables to configuration keys
func bindEnvVars(v *viper.Viper) {
	v.BindEnv("server.log_level", "LOG_LEVEL", "DRONELOG_SERVER_LOG_LEVEL")
	v.BindEnv("server.debug", "DEBUG", "DRONELOG_SERVER_DEBUG")
	v.BindEnv("database.path", "DATABASE_PATH", "DRONELOG_DATABASE_PATH")
	v.BindEnv("jwt.secret", "JWT_SECRET", "DRONELOG_JWT_SECRET")
	v.BindEnv("encryption.master_key", "ENCRYPTION_KEY", "DRONELOG_ENCRYPTION_MASTER_KEY")
}

// LoadConfigOrDefault loads configuration or returns default if loading fails
func LoadConfigOrDefault(configPath string) *Config {
	config, err := LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to load config: %v. Using defaults.\n", err)
		return NewDefault()
	}
	return config
}
