// Package cmd holds the geolife command line.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jengzang/geolife-backend-go/internal/config"
	"github.com/jengzang/geolife-backend-go/internal/database"

	// Import analyzer packages to register them
	_ "github.com/jengzang/geolife-backend-go/internal/analysis/spatial"
	_ "github.com/jengzang/geolife-backend-go/internal/analysis/stats"
	_ "github.com/jengzang/geolife-backend-go/internal/analysis/temporal"
)

var (
	optConfigPath string
	optLogLevel   string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "geolife",
	Short: "Ingest and analyze GeoLife GPS trajectories",
	Long: `geolife loads the GeoLife trajectory dataset into SQLite and answers
spatio-temporal questions about it, from the command line or over HTTP.

Configuration is read from the optional --config YAML file and the
environment (FILEPATH, FILEPATH_LABELED_IDS, FILEPATH_ACTIVITY_IDS, DB_PATH, ...).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(optConfigPath)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("log-level") {
			c.LogLevel = optLogLevel
		}
		if err := setDefaultSlog(c.LogLevel); err != nil {
			return err
		}
		cfg = c
		return nil
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	pFlags := rootCmd.PersistentFlags()
	pFlags.StringVar(&optConfigPath, "config", "", "YAML config file")
	pFlags.StringVar(&optLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
}

func setDefaultSlog(level string) error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
	return nil
}

// signalContext is cancelled on interrupt or termination
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// openDB initializes the process-wide database and creates missing tables.
// The caller closes it with database.Close.
func openDB(ctx context.Context) error {
	if err := database.Init(database.Config{Path: cfg.DBPath}); err != nil {
		return err
	}
	return database.CreateSchema(ctx, database.GetDB())
}
