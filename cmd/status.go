package cmd

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jengzang/geolife-backend-go/internal/database"
	"github.com/jengzang/geolife-backend-go/internal/registry"
	"github.com/jengzang/geolife-backend-go/internal/repository"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show dataset counts and the activity id registry",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		if err := openDB(ctx); err != nil {
			return err
		}
		defer database.Close()

		db := database.GetDB()
		counts, err := repository.NewDatasetRepository(db).Counts(ctx)
		if err != nil {
			return err
		}

		registered := "none"
		store, err := registry.NewStore(cfg.ActivityIDsPath)
		if err != nil {
			return err
		}
		defer store.Close()
		if reg, err := store.Load(); err == nil {
			registered = humanize.Comma(int64(reg.Len()))
		} else if !errors.Is(err, registry.ErrNoSnapshot) {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintf(w, "database\t%s\n", cfg.DBPath)
		fmt.Fprintf(w, "users\t%s\n", humanize.Comma(counts.Users))
		fmt.Fprintf(w, "activities\t%s\n", humanize.Comma(counts.Activities))
		fmt.Fprintf(w, "track points\t%s\n", humanize.Comma(counts.TrackPoints))
		fmt.Fprintf(w, "registry\t%s\n", store.Path())
		fmt.Fprintf(w, "registered ids\t%s\n", registered)
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
