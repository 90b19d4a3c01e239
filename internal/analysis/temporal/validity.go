package temporal

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/jengzang/geolife-backend-go/internal/analysis"
	"github.com/jengzang/geolife-backend-go/internal/analysis/trajectory"
	"github.com/jengzang/geolife-backend-go/internal/repository"
)

// InvalidActivitiesAnalyzer counts, per user, activities with a recording gap
type InvalidActivitiesAnalyzer struct {
	*analysis.BaseAnalyzer
	repo *repository.AnalyticsRepository
}

// NewInvalidActivitiesAnalyzer creates a new invalid activities analyzer
func NewInvalidActivitiesAnalyzer(db *sql.DB) analysis.Analyzer {
	return &InvalidActivitiesAnalyzer{
		BaseAnalyzer: analysis.NewBaseAnalyzer(db, "invalid_activities",
			"users with activities holding consecutive points at least 5 minutes apart (param gap)"),
		repo: repository.NewAnalyticsRepository(db),
	}
}

// Analyze returns users with at least one invalid activity
func (a *InvalidActivitiesAnalyzer) Analyze(ctx context.Context, params analysis.Params) (any, error) {
	gap, err := params.Duration("gap", trajectory.DefaultGap)
	if err != nil {
		return nil, err
	}
	if gap <= 0 {
		return nil, fmt.Errorf("%w: gap must be positive", analysis.ErrInvalidParam)
	}

	rows, err := a.repo.TimestampRows(ctx)
	if err != nil {
		return nil, err
	}

	result := trajectory.InvalidActivities(rows, gap)
	slog.Debug("Invalid activities", "points", len(rows), "users", len(result), "gap", gap)
	return result, nil
}

func init() {
	analysis.RegisterAnalyzer("invalid_activities", NewInvalidActivitiesAnalyzer)
}
