package database

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/skyhook-org/dronelog/internal/models"
	"github.com/skyhook-org/dronelog/internal/utils"
)

// MigrationFunc applies one direction of a migration inside the transaction
// it is handed. Failure must be signaled by returning an error.
type MigrationFunc func(ctx context.Context, tx *gorm.DB, logger zerolog.Logger) error

// Unit is a discrete schema-change artifact. Its name carries the sequence
// number as a numeric prefix, e.g. "004_drop_flight_weather_column".
type Unit struct {
	Name string
	Up   MigrationFunc
	// Down is optional. It exists as a library capability and is not wired
	// to any operator-facing surface.
	Down MigrationFunc
	// RewritesTables marks units performing destructive structural rewrites.
	// Foreign-key enforcement is suspended around the unit's transaction and
	// restored unconditionally afterward.
	RewritesTables bool
}

// unitNamePattern doubles as the discovery filter and the path-traversal-safe
// validation for operator-supplied names.
var unitNamePattern = regexp.MustCompile(`^(\d+)_[A-Za-z0-9_]+$`)

// Sequence returns the numeric prefix of the unit name, or -1 when the name
// does not match the migration naming scheme.
func (u Unit) Sequence() int {
	m := unitNamePattern.FindStringSubmatch(u.Name)
	if m == nil {
		return -1
	}
	seq, err := strconv.Atoi(m[1])
	if err != nil {
		return -1
	}
	return seq
}

// RunResult reports the outcome of running a single unit.
type RunResult struct {
	Name            string `json:"name"`
	AlreadyExecuted bool   `json:"already_executed"`
	ExecutionTimeMs int64  `json:"execution_time_ms"`
}

// Status is one row of the operator-facing migration listing.
type Status struct {
	Sequence        int        `json:"sequence"`
	Name            string     `json:"name"`
	Executed        bool       `json:"executed"`
	ExecutedAt      *time.Time `json:"executed_at,omitempty"`
	ExecutedBy      string     `json:"executed_by,omitempty"`
	ExecutionTimeMs *int64     `json:"execution_time_ms,omitempty"`
}

// MigrationRunner handles running database migrations
type MigrationRunner struct {
	db     *gorm.DB
	logger zerolog.Logger
	units  []Unit
}

// NewMigrationRunner creates a new migration runner
func NewMigrationRunner(db *gorm.DB, logger zerolog.Logger) *MigrationRunner {
	return &MigrationRunner{
		db:     db,
		logger: logger,
	}
}

// Register adds a unit to the runner. Units whose names do not match the
// naming scheme are ignored, not errors.
func (r *MigrationRunner) Register(unit Unit) {
	if unit.Sequence() < 0 {
		r.logger.Debug().Str("name", unit.Name).Msg("Ignoring artifact without sequence prefix")
		return
	}
	r.units = append(r.units, unit)
}

// Discover returns all registered units sorted by sequence number descending.
func (r *MigrationRunner) Discover() []Unit {
	units := make([]Unit, len(r.units))
	copy(units, r.units)
	sort.Slice(units, func(i, j int) bool {
		return units[i].Sequence() > units[j].Sequence()
	})
	return units
}

// EnsureTrackingTable idempotently creates the schema_migrations table. It
// must be called before any read or write of migration state.
func (r *MigrationRunner) EnsureTrackingTable() error {
	if err := r.db.AutoMigrate(&models.Migration{}); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}
	return nil
}

// Executed returns the names of all applied migrations.
func (r *MigrationRunner) Executed() (map[string]bool, error) {
	var names []string
	if err := r.db.Model(&models.Migration{}).Pluck("name", &names).Error; err != nil {
		return nil, fmt.Errorf("failed to get applied migrations: %w", err)
	}

	executed := make(map[string]bool, len(names))
	for _, n := range names {
		executed[n] = true
	}
	return executed, nil
}

// IsExecuted reports whether the named unit has been applied.
func (r *MigrationRunner) IsExecuted(name string) (bool, error) {
	var count int64
	if err := r.db.Model(&models.Migration{}).Where("name = ?", name).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check migration state: %w", err)
	}
	return count > 0, nil
}

// Pending returns units that have not been applied, preserving discovery
// order (sequence descending).
func (r *MigrationRunner) Pending() ([]Unit, error) {
	executed, err := r.Executed()
	if err != nil {
		return nil, err
	}

	var pending []Unit
	for _, unit := range r.Discover() {
		if !executed[unit.Name] {
			pending = append(pending, unit)
		}
	}
	return pending, nil
}

// HasPending reports whether any registered unit is unapplied.
func (r *MigrationRunner) HasPending() (bool, error) {
	if err := r.EnsureTrackingTable(); err != nil {
		return false, err
	}
	pending, err := r.Pending()
	if err != nil {
		return false, err
	}
	return len(pending) > 0, nil
}

// HasPendingAt opens the sqlite database file at path and reports whether any
// of the given units is unapplied. A missing database file means nothing has
// run yet but also nothing can be pending against it: it returns false, not
// an error.
func HasPendingAt(path string, units []Unit, log zerolog.Logger) (bool, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return false, nil
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return false, fmt.Errorf("failed to open database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return false, err
	}
	defer sqlDB.Close()

	runner := NewMigrationRunner(db, log)
	for _, u := range units {
		runner.Register(u)
	}
	return runner.HasPending()
}

// Status returns the operator-facing listing of every discovered unit with
// its executed/pending state and, if executed, provenance.
func (r *MigrationRunner) Status() ([]Status, error) {
	if err := r.EnsureTrackingTable(); err != nil {
		return nil, err
	}

	var records []models.Migration
	if err := r.db.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to load migration records: %w", err)
	}
	byName := make(map[string]models.Migration, len(records))
	for _, rec := range records {
		byName[rec.Name] = rec
	}

	var statuses []Status
	for _, unit := range r.Discover() {
		s := Status{
			Sequence: unit.Sequence(),
			Name:     unit.Name,
		}
		if rec, ok := byName[unit.Name]; ok {
			s.Executed = true
			executedAt := rec.ExecutedAt
			s.ExecutedAt = &executedAt
			s.ExecutedBy = rec.ExecutedBy
			ms := rec.ExecutionTimeMs
			s.ExecutionTimeMs = &ms
		}
		statuses = append(statuses, s)
	}
	return statuses, nil
}

// Run applies a single named unit. An already-executed unit is reported via
// RunResult.AlreadyExecuted, not as an error. The tracking record and the
// unit's DDL commit or roll back together: a partial failure leaves no trace.
func (r *MigrationRunner) Run(ctx context.Context, name, executedBy string) (*RunResult, error) {
	if !unitNamePattern.MatchString(name) {
		return nil, utils.WrapValidationError("name", "malformed migration name")
	}

	var unit *Unit
	for i := range r.units {
		if r.units[i].Name == name {
			unit = &r.units[i]
			break
		}
	}
	if unit == nil {
		return nil, utils.WrapNotFoundError("migration", name)
	}
	if unit.Up == nil {
		return nil, utils.WrapNotFoundError("migration forward operation", name)
	}

	if err := r.EnsureTrackingTable(); err != nil {
		return nil, err
	}

	if unit.RewritesTables {
		// The foreign_keys pragma is a no-op inside a transaction, so it is
		// toggled around it and restored on every exit path.
		if err := r.db.Exec("PRAGMA foreign_keys = OFF").Error; err != nil {
			return nil, fmt.Errorf("failed to suspend foreign keys: %w", err)
		}
		defer func() {
			if err := r.db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
				r.logger.Error().Err(err).Msg("Failed to restore foreign key enforcement")
			}
		}()
	}

	result := &RunResult{Name: name}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		// The executed check and the record insert share this transaction so
		// two concurrent runs of the same unit cannot both be recorded.
		var count int64
		if err := tx.Model(&models.Migration{}).Where("name = ?", name).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check migration state: %w", err)
		}
		if count > 0 {
			result.AlreadyExecuted = true
			return nil
		}

		r.logger.Info().
			Str("name", name).
			Str("executed_by", executedBy).
			Msg("Running migration")

		start := time.Now()
		if err := unit.Up(ctx, tx, r.logger); err != nil {
			return fmt.Errorf("migration %s failed: %w", name, err)
		}
		result.ExecutionTimeMs = time.Since(start).Milliseconds()

		record := &models.Migration{
			Sequence:        unit.Sequence(),
			Name:            name,
			ExecutedAt:      time.Now().UTC(),
			ExecutedBy:      executedBy,
			ExecutionTimeMs: result.ExecutionTimeMs,
		}
		if err := tx.Create(record).Error; err != nil {
			return fmt.Errorf("failed to record migration %s: %w", name, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.AlreadyExecuted {
		r.logger.Debug().Str("name", name).Msg("Migration already applied, skipping")
	} else {
		r.logger.Info().
			Str("name", name).
			Int64("execution_time_ms", result.ExecutionTimeMs).
			Msg("Migration completed successfully")
	}

	return result, nil
}

// RunAll applies every pending unit. Listing order is sequence descending,
// but units are applied ascending since later units build on earlier ones.
func (r *MigrationRunner) RunAll(ctx context.Context, executedBy string) error {
	if err := r.EnsureTrackingTable(); err != nil {
		return err
	}

	pending, err := r.Pending()
	if err != nil {
		return err
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].Sequence() < pending[j].Sequence()
	})

	for _, unit := range pending {
		if _, err := r.Run(ctx, unit.Name, executedBy); err != nil {
			return err
		}
	}
	return nil
}

// RunDown rolls back a single named unit. Unlike the historical record-keeping
// described for manual operator reconciliation, a programmatic rollback also
// deletes the tracking row so state stays consistent for the caller.
func (r *MigrationRunner) RunDown(ctx context.Context, name, executedBy string) error {
	if !unitNamePattern.MatchString(name) {
		return utils.WrapValidationError("name", "malformed migration name")
	}

	var unit *Unit
	for i := range r.units {
		if r.units[i].Name == name {
			unit = &r.units[i]
			break
		}
	}
	if unit == nil {
		return utils.WrapNotFoundError("migration", name)
	}
	if unit.Down == nil {
		return utils.WrapNotFoundError("migration backward operation", name)
	}

	if err := r.EnsureTrackingTable(); err != nil {
		return err
	}

	return r.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Migration{}).Where("name = ?", name).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check migration state: %w", err)
		}
		if count == 0 {
			return utils.WrapConflictError("migration", "not executed, nothing to roll back")
		}

		r.logger.Warn().
			Str("name", name).
			Str("executed_by", executedBy).
			Msg("Rolling back migration")

		if err := unit.Down(ctx, tx, r.logger); err != nil {
			return fmt.Errorf("rollback of %s failed: %w", name, err)
		}

		if err := tx.Where("name = ?", name).Delete(&models.Migration{}).Error; err != nil {
			return fmt.Errorf("failed to remove migration record %s: %w", name, err)
		}
		return nil
	})
}
