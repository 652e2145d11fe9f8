package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/skyhook-org/dronelog/internal/api"
	"github.com/skyhook-org/dronelog/internal/config"
	"github.com/skyhook-org/dronelog/internal/database"
	"github.com/skyhook-org/dronelog/internal/database/migrations"
	"github.com/skyhook-org/dronelog/internal/services"
	"github.com/skyhook-org/dronelog/internal/utils"
)

func main() {
	var (
		configPath     string
		skipMigrations bool
	)
	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.BoolVar(&skipMigrations, "skip-migrations", false, "Skip running versioned schema migrations")
	flag.Parse()

	// A .env file is optional; real deployments use environment variables.
	_ = godotenv.Load()

	cfg, err := loadConfiguration(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := setupLogging(cfg)
	logger.Info().
		Str("driver", cfg.Database.Driver).
		Int("port", cfg.HTTP.Port).
		Msg("Starting dronelog server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	settings := config.NewSettingsStore(settingsPath(cfg))
	applySettingsOverrides(cfg, settings, logger)

	db, err := connectToDatabase(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close database connection")
		}
	}()

	encryptionService := createEncryptionService(cfg, settings, logger)

	logger.Info().Msg("Running base schema migrations")
	if err := database.RunMigrations(db.DB()); err != nil {
		logger.Fatal().Err(err).Msg("Failed to run migrations")
	}

	runner := database.NewMigrationRunner(db.DB(), logger)
	for _, unit := range migrations.GetUnits() {
		runner.Register(unit)
	}

	if skipMigrations {
		hasPending, err := runner.HasPending()
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to check migration state")
		}
		if hasPending {
			logger.Warn().Msg("Skipping versioned migrations with units pending")
		}
	} else {
		logger.Info().Msg("Running versioned schema migrations")
		if err := runner.RunAll(ctx, "startup"); err != nil {
			logger.Fatal().Err(err).Msg("Failed to run versioned migrations")
		}
	}

	dedupWindow := time.Duration(cfg.Flights.DedupWindowMin) * time.Minute
	idempotency := services.NewIdempotencyService(db.DB(), dedupWindow, logger)
	idempotency.StartSweeper(ctx, dedupWindow)

	svcs := api.Services{
		Pilots:      services.NewPilotService(db.DB(), logger),
		Drones:      services.NewDroneService(db.DB(), logger),
		Locations:   services.NewLocationService(db.DB(), logger),
		Events:      services.NewEventService(db.DB(), logger),
		Flights:     services.NewFlightService(db.DB(), logger),
		Documents:   services.NewDocumentService(db.DB(), encryptionService, logger),
		Dashboard:   services.NewDashboardService(db.DB(), cfg.Location(), logger),
		Idempotency: idempotency,
	}

	server, err := api.NewServer(cfg, db, svcs, runner, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create HTTP server")
	}

	serverErrChan := make(chan error, 1)
	go func() {
		if err := server.Start(cfg.HTTP.Port); err != nil {
			serverErrChan <- err
		}
	}()

	select {
	case sig := <-sigChan:
		logger.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	case err := <-serverErrChan:
		logger.Error().Err(err).Msg("HTTP server error")
	}

	logger.Info().Msg("Starting graceful shutdown")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Failed to gracefully shutdown HTTP server")
	}

	logger.Info().Msg("Shutdown complete")
}

func loadConfiguration(configPath string) (*config.Config, error) {
	cfg := config.LoadConfigOrDefault(configPath)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setupLogging(cfg *config.Config) zerolog.Logger {
	logConfig := utils.LoggerConfig{
		Level:      cfg.Server.LogLevel,
		Pretty:     cfg.Server.Debug,
		CallerInfo: cfg.Server.Debug,
		LogFile:    os.Getenv("LOG_FILE"),
	}
	utils.SetupGlobalLogger(logConfig)
	return utils.NewLogger(logConfig)
}

// settingsPath puts the runtime settings file next to the sqlite database,
// falling back to the working directory for postgres installations.
func settingsPath(cfg *config.Config) string {
	if cfg.Database.Driver == "sqlite" && cfg.Database.Path != "" {
		return filepath.Join(filepath.Dir(cfg.Database.Path), "settings.json")
	}
	return "settings.json"
}

// applySettingsOverrides layers runtime settings over the static config.
func applySettingsOverrides(cfg *config.Config, settings *config.SettingsStore, logger zerolog.Logger) {
	tz, ok, err := settings.Get("flights_timezone")
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to read runtime settings")
		return
	}
	if ok && tz != "" {
		if _, err := time.LoadLocation(tz); err != nil {
			logger.Warn().Str("timezone", tz).Msg("Ignoring invalid timezone override")
			return
		}
		cfg.Flights.Timezone = tz
		logger.Info().Str("timezone", tz).Msg("Applied timezone override from settings")
	}
}

// createEncryptionService resolves the document master key. When encryption
// is enabled without a configured key, a key is generated once and persisted
// in the settings store so documents survive restarts.
func createEncryptionService(cfg *config.Config, settings *config.SettingsStore, logger zerolog.Logger) *utils.EncryptionService {
	if !cfg.Encryption.Enabled {
		logger.Warn().Msg("Document encryption is disabled; uploads will be rejected")
		return nil
	}

	masterKey := cfg.Encryption.MasterKey
	if masterKey == "" {
		stored, ok, err := settings.Get("encryption_master_key")
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to read settings store")
		}
		if ok {
			masterKey = stored
		} else {
			generated, err := utils.GenerateMasterKey()
			if err != nil {
				logger.Fatal().Err(err).Msg("Failed to generate master key")
			}
			if err := settings.Set("encryption_master_key", generated); err != nil {
				logger.Fatal().Err(err).Msg("Failed to persist master key")
			}
			logger.Info().Msg("Generated and persisted a new document master key")
			masterKey = generated
		}
	}

	encryptionService, err := utils.NewEncryptionService(masterKey)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create encryption service")
	}
	return encryptionService
}

func connectToDatabase(cfg *config.Config, logger zerolog.Logger) (*database.Database, error) {
	logger.Info().Msg("Connecting to database")

	db := database.NewDatabase(cfg.Database)
	if err := db.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.Health(ctx); err != nil {
		return nil, fmt.Errorf("database health check failed: %w", err)
	}

	logger.Info().Msg("Database connection established")
	return db, nil
}
