package main

import (
	"context"
	"fmt"
	"os"
	"os/user"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/skyhook-org/dronelog/internal/config"
	"github.com/skyhook-org/dronelog/internal/database"
	"github.com/skyhook-org/dronelog/internal/database/migrations"
	"github.com/skyhook-org/dronelog/internal/utils"
)

var configPath string

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "dronectl",
		Short: "Operator tooling for the dronelog server",
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to configuration file")

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage schema migrations",
	}
	migrateCmd.AddCommand(migrateListCmd(), migrateRunCmd(), migrateUpCmd())

	rootCmd.AddCommand(migrateCmd, keygenCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func openRunner() (*database.MigrationRunner, *database.Database, error) {
	cfg := config.LoadConfigOrDefault(configPath)
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	logger := utils.NewLogger(utils.LoggerConfig{Level: "warn", Pretty: true})

	db := database.NewDatabase(cfg.Database)
	if err := db.Connect(); err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	runner := database.NewMigrationRunner(db.DB(), logger)
	for _, unit := range migrations.GetUnits() {
		runner.Register(unit)
	}
	return runner, db, nil
}

func operatorName() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return "dronectl"
}

func migrateListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List migrations with their executed state, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, db, err := openRunner()
			if err != nil {
				return err
			}
			defer db.Close()

			statuses, err := runner.Status()
			if err != nil {
				return err
			}

			green := color.New(color.FgGreen).SprintFunc()
			yellow := color.New(color.FgYellow).SprintFunc()

			for _, s := range statuses {
				if s.Executed {
					when := ""
					if s.ExecutedAt != nil {
						when = s.ExecutedAt.Format(time.RFC3339)
					}
					fmt.Printf("%s  %-40s %s by %s\n", green("applied"), s.Name, when, s.ExecutedBy)
				} else {
					fmt.Printf("%s  %-40s\n", yellow("pending"), s.Name)
				}
			}
			return nil
		},
	}
}

func migrateRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <name>",
		Short: "Apply a single migration by name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, db, err := openRunner()
			if err != nil {
				return err
			}
			defer db.Close()

			result, err := runner.Run(context.Background(), args[0], operatorName())
			if err != nil {
				return err
			}
			if result.AlreadyExecuted {
				color.Yellow("%s already applied, nothing to do", result.Name)
				return nil
			}
			color.Green("%s applied in %dms", result.Name, result.ExecutionTimeMs)
			return nil
		},
	}
}

func migrateUpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations in sequence order",
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, db, err := openRunner()
			if err != nil {
				return err
			}
			defer db.Close()

			if err := runner.RunAll(context.Background(), operatorName()); err != nil {
				return err
			}
			color.Green("all migrations applied")
			return nil
		},
	}
}

func keygenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "Generate a document encryption master key",
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := utils.GenerateMasterKey()
			if err != nil {
				return err
			}
			fmt.Println(key)
			color.New(color.Faint).Fprintln(os.Stderr, "set DRONELOG_ENCRYPTION_MASTER_KEY to this value")
			return nil
		},
	}
}
