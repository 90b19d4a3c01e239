package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jengzang/geolife-backend-go/internal/database"
	"github.com/jengzang/geolife-backend-go/internal/ingest"
	"github.com/jengzang/geolife-backend-go/internal/registry"
	"github.com/jengzang/geolife-backend-go/internal/repository"
	"github.com/jengzang/geolife-backend-go/internal/trajectory"
)

var optStrict bool

// ingestCmd represents the ingest command
var ingestCmd = &cobra.Command{
	Use:   "ingest [activities|trackpoints|all]",
	Short: "Load the dataset into the database",
	Long: `Ingestion runs in two passes.

  activities   stores users and one activity per admitted trajectory file,
               then writes the activity id registry snapshot
  trackpoints  stores the points of every admitted file under the id held
               by the snapshot; requires a prior activities pass
  all          runs both passes (default)

Files with more points than max_points are skipped in both passes.
Re-running a pass updates rows in place.`,
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{ingest.PhaseActivities, ingest.PhaseTrackPoints, ingest.PhaseAll},
	RunE: func(cmd *cobra.Command, args []string) error {
		phase := ingest.PhaseAll
		if len(args) == 1 {
			phase = args[0]
		}

		ctx, cancel := signalContext()
		defer cancel()

		if err := openDB(ctx); err != nil {
			return err
		}
		defer database.Close()

		store, err := registry.NewStore(cfg.ActivityIDsPath)
		if err != nil {
			return err
		}
		defer store.Close()

		pipeline := ingest.NewPipeline(repository.NewDatasetRepository(database.GetDB()), store, ingest.Config{
			Root:     cfg.DatasetRoot,
			Manifest: cfg.LabeledIDsPath,
			Parser:   trajectory.NewParser(cfg.HeaderLines, cfg.MaxPoints),
		})

		var report *ingest.Report
		switch phase {
		case ingest.PhaseActivities:
			report, err = pipeline.RunActivities(ctx)
		case ingest.PhaseTrackPoints:
			report, err = pipeline.RunTrackPoints(ctx)
		default:
			report, err = pipeline.Run(ctx)
		}
		if err != nil {
			return fmt.Errorf("ingest %s: %w", phase, err)
		}

		for _, f := range report.Failures {
			slog.Warn("File skipped", "user", f.UserID, "path", f.Path, "error", f.Err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d users, %s activities (%s labeled), %s track points, %d files over the point cap, %d failures in %s\n",
			phase,
			report.Users,
			humanize.Comma(int64(report.Activities)),
			humanize.Comma(int64(report.LabeledActivities)),
			humanize.Comma(int64(report.TrackPoints)),
			report.FilesRejected,
			len(report.Failures),
			report.Elapsed.Round(time.Millisecond))

		if optStrict {
			return report.Err()
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().BoolVar(&optStrict, "strict", false, "Exit with an error when any file failed")
}
