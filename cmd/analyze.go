package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jengzang/geolife-backend-go/internal/analysis"
	"github.com/jengzang/geolife-backend-go/internal/database"
	"github.com/jengzang/geolife-backend-go/internal/repository"
	"github.com/jengzang/geolife-backend-go/internal/service"
)

var optParams []string

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze <name>",
	Short: "Run one analysis over the ingested dataset",
	Long: `Runs the named analysis and prints its result. Each run is recorded
in the analysis task table. See "geolife analyses" for the available names.

Examples:

  geolife analyze walked_distance --param user=112 --param year=2008
  geolife analyze proximity --param "time=2008-08-24 15:38:00" -o yaml`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		params, err := analysis.ParseParams(optParams)
		if err != nil {
			return err
		}

		ctx, cancel := signalContext()
		defer cancel()

		if err := openDB(ctx); err != nil {
			return err
		}
		defer database.Close()

		db := database.GetDB()
		svc := service.NewAnalysisTaskService(repository.NewAnalysisTaskRepository(db), db, 0)
		defer svc.Close()

		run, err := svc.Run(ctx, args[0], params, "cli")
		if err != nil {
			return err
		}
		return writeResult(cmd.OutOrStdout(), run.Result, optFormat)
	},
}

// analysesCmd lists the registered analyses
var analysesCmd = &cobra.Command{
	Use:   "analyses",
	Short: "List the available analyses",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := service.NewAnalysisTaskService(nil, nil, 0)
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		for _, info := range svc.ListAnalyzers() {
			fmt.Fprintf(w, "%s\t%s\n", info.Name, strings.TrimSpace(info.Description))
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd, analysesCmd)
	analyzeCmd.Flags().StringArrayVarP(&optParams, "param", "p", nil, "Analysis parameter as key=value (repeatable)")
	addFormatFlag(analyzeCmd.Flags())
}
