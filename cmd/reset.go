package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/jengzang/geolife-backend-go/internal/database"
	"github.com/jengzang/geolife-backend-go/internal/repository"
)

var optYes bool

// resetCmd represents the reset command
var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Drop and recreate every table",
	Long: `Drops users, activities, track points and analysis tasks and creates
empty tables. The activity id registry snapshot is left in place, so a
following ingest keeps the same ids.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !optYes {
			return fmt.Errorf("refusing to drop tables of %s without --yes", cfg.DBPath)
		}

		ctx, cancel := signalContext()
		defer cancel()

		if err := openDB(ctx); err != nil {
			return err
		}
		defer database.Close()

		if err := repository.NewDatasetRepository(database.GetDB()).Reset(ctx); err != nil {
			return err
		}
		slog.Info("Database reset", "path", cfg.DBPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resetCmd)
	resetCmd.Flags().BoolVarP(&optYes, "yes", "y", false, "Confirm dropping all tables")
}
