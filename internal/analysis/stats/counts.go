package stats

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	mstats "github.com/montanaflynn/stats"

	"github.com/jengzang/geolife-backend-go/internal/analysis"
	"github.com/jengzang/geolife-backend-go/internal/models"
	"github.com/jengzang/geolife-backend-go/internal/repository"
)

// DatasetCountsAnalyzer counts users, activities and track points
type DatasetCountsAnalyzer struct {
	*analysis.BaseAnalyzer
	repo *repository.DatasetRepository
}

// NewDatasetCountsAnalyzer creates a new dataset counts analyzer
func NewDatasetCountsAnalyzer(db *sql.DB) analysis.Analyzer {
	return &DatasetCountsAnalyzer{
		BaseAnalyzer: analysis.NewBaseAnalyzer(db, "dataset_counts", "number of users, activities and track points"),
		repo:         repository.NewDatasetRepository(db),
	}
}

// Analyze returns the dataset counts
func (a *DatasetCountsAnalyzer) Analyze(ctx context.Context, _ analysis.Params) (any, error) {
	return a.repo.Counts(ctx)
}

// ActivitiesPerUserAnalyzer summarizes the number of activities per user
type ActivitiesPerUserAnalyzer struct {
	*analysis.BaseAnalyzer
	repo *repository.AnalyticsRepository
}

// NewActivitiesPerUserAnalyzer creates a new activities per user analyzer
func NewActivitiesPerUserAnalyzer(db *sql.DB) analysis.Analyzer {
	return &ActivitiesPerUserAnalyzer{
		BaseAnalyzer: analysis.NewBaseAnalyzer(db, "activities_per_user", "minimum, maximum, average and median activities per user"),
		repo:         repository.NewAnalyticsRepository(db),
	}
}

// Analyze summarizes activity counts over users with at least one activity
func (a *ActivitiesPerUserAnalyzer) Analyze(ctx context.Context, _ analysis.Params) (any, error) {
	counts, err := a.repo.ActivityCounts(ctx, 0)
	if err != nil {
		return nil, err
	}

	out := models.ActivitiesPerUser{Users: len(counts)}
	if len(counts) == 0 {
		return out, nil
	}

	data := make(mstats.Float64Data, len(counts))
	for i, c := range counts {
		data[i] = float64(c.Count)
	}
	if out.Minimum, err = data.Min(); err != nil {
		return nil, fmt.Errorf("failed to compute minimum: %w", err)
	}
	if out.Maximum, err = data.Max(); err != nil {
		return nil, fmt.Errorf("failed to compute maximum: %w", err)
	}
	if out.Average, err = data.Mean(); err != nil {
		return nil, fmt.Errorf("failed to compute average: %w", err)
	}
	if out.Median, err = data.Median(); err != nil {
		return nil, fmt.Errorf("failed to compute median: %w", err)
	}

	slog.Debug("Activities per user", "users", out.Users, "average", out.Average)
	return out, nil
}

// TopUsersAnalyzer ranks users by number of activities
type TopUsersAnalyzer struct {
	*analysis.BaseAnalyzer
	repo *repository.AnalyticsRepository
}

// NewTopUsersAnalyzer creates a new top users analyzer
func NewTopUsersAnalyzer(db *sql.DB) analysis.Analyzer {
	return &TopUsersAnalyzer{
		BaseAnalyzer: analysis.NewBaseAnalyzer(db, "top_users", "users with the most activities (param n, default 10)"),
		repo:         repository.NewAnalyticsRepository(db),
	}
}

// Analyze returns the top n users
func (a *TopUsersAnalyzer) Analyze(ctx context.Context, params analysis.Params) (any, error) {
	n, err := params.Int("n", 10)
	if err != nil {
		return nil, err
	}
	if n < 1 {
		return nil, fmt.Errorf("%w: n must be positive", analysis.ErrInvalidParam)
	}
	return a.repo.ActivityCounts(ctx, n)
}

// Register the analyzers
func init() {
	analysis.RegisterAnalyzer("dataset_counts", NewDatasetCountsAnalyzer)
	analysis.RegisterAnalyzer("activities_per_user", NewActivitiesPerUserAnalyzer)
	analysis.RegisterAnalyzer("top_users", NewTopUsersAnalyzer)
}
