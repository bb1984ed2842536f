// Package cli defines the Cobra command tree for the reviewsched binary.
package cli

import (
	"fmt"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/example/reviewsched/internal/config"
	"github.com/example/reviewsched/internal/database"
	"github.com/example/reviewsched/internal/logger"
)

var envFile string

// rootCmd is the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "reviewsched",
	Short: "Spaced-repetition review scheduler",
	Long: `reviewsched decides when a learner should next review each item.

Settings come from REVIEWSCHED_* environment variables, optionally seeded
from a .env file.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	rootCmd.AddCommand(
		newServeCmd(),
		newMigrateCmd(),
		newExportCmd(),
		newImportCmd(),
	)
}

// bootstrap loads the configuration, builds the logger and opens the database.
func bootstrap() (*config.Config, *logger.Logger, *sqlx.DB, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "load config")
	}
	log := logger.New("reviewsched", cfg.LogLevel)

	db, err := database.Connect(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "open database")
	}
	return cfg, log, db, nil
}
