package main

import (
	"fmt"
	"os"

	"inventory-backend/internal/config"
	"inventory-backend/internal/database"
	"inventory-backend/internal/logger"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var (
	// Global flags
	dsnFlag    string
	driverFlag string
)

// rootCmd runs the server when no subcommand is given.
var rootCmd = &cobra.Command{
	Use:   "inventory",
	Short: "Multi-store inventory tracker",
	Long: `Tracks stock per store and location and derives a shopping list from
current, target and extra quantities.

Configuration comes from the environment (or a .env file):
  HTTP_PORT, DATABASE_DRIVER, DATABASE_DSN, CORS_ALLOWED_ORIGINS,
  LOG_LEVEL, LOG_FORMAT, STATIC_DIR, DEFAULT_STORE_NAME, SQL_DEBUG`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dsnFlag, "dsn", "", "Database DSN, overrides DATABASE_DSN")
	rootCmd.PersistentFlags().StringVar(&driverFlag, "driver", "", "Database driver (sqlite or postgres), overrides DATABASE_DRIVER")
}

// bootstrap loads configuration, opens the database and brings the schema up
// to date. Every command starts here.
func bootstrap() (*config.Config, *logrus.Logger, *gorm.DB, error) {
	cfg := config.Load()
	cfg.Override(driverFlag, dsnFlag)

	l := logger.New(cfg.LogLevel, cfg.LogFormat)
	cfg.Warn(l)

	db, err := database.Open(cfg, l)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := database.Migrate(db, l, cfg.DefaultStoreName); err != nil {
		return nil, nil, nil, err
	}
	return cfg, l, db, nil
}
