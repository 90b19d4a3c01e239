package temporal

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/jengzang/geolife-backend-go/internal/analysis"
	"github.com/jengzang/geolife-backend-go/internal/models"
	"github.com/jengzang/geolife-backend-go/internal/repository"
)

// ErrNoActivities is returned by month analyses over an empty dataset
var ErrNoActivities = errors.New("no activities stored")

// BusiestMonthAnalyzer finds the calendar month in which most activities started
type BusiestMonthAnalyzer struct {
	*analysis.BaseAnalyzer
	repo *repository.AnalyticsRepository
}

// NewBusiestMonthAnalyzer creates a new busiest month analyzer
func NewBusiestMonthAnalyzer(db *sql.DB) analysis.Analyzer {
	return &BusiestMonthAnalyzer{
		BaseAnalyzer: analysis.NewBaseAnalyzer(db, "busiest_month", "year and month with the most activities, by start time"),
		repo:         repository.NewAnalyticsRepository(db),
	}
}

// Analyze returns the busiest month
func (a *BusiestMonthAnalyzer) Analyze(ctx context.Context, _ analysis.Params) (any, error) {
	return busiestMonth(ctx, a.repo)
}

func busiestMonth(ctx context.Context, repo *repository.AnalyticsRepository) (models.MonthActivityCount, error) {
	months, err := repo.MonthActivityCounts(ctx)
	if err != nil {
		return models.MonthActivityCount{}, err
	}
	if len(months) == 0 {
		return models.MonthActivityCount{}, ErrNoActivities
	}
	return months[0], nil
}

// BusiestMonthUsersAnalyzer compares the two most active users of the busiest month
type BusiestMonthUsersAnalyzer struct {
	*analysis.BaseAnalyzer
	repo *repository.AnalyticsRepository
}

// NewBusiestMonthUsersAnalyzer creates a new busiest month users analyzer
func NewBusiestMonthUsersAnalyzer(db *sql.DB) analysis.Analyzer {
	return &BusiestMonthUsersAnalyzer{
		BaseAnalyzer: analysis.NewBaseAnalyzer(db, "busiest_month_users",
			"most active users of the busiest month, their recorded hours, and whether the first has more hours than the second"),
		repo: repository.NewAnalyticsRepository(db),
	}
}

// Analyze returns the top two users of the busiest month. With fewer than
// two users TopHasMoreHours is false.
func (a *BusiestMonthUsersAnalyzer) Analyze(ctx context.Context, _ analysis.Params) (any, error) {
	month, err := busiestMonth(ctx, a.repo)
	if err != nil {
		return nil, err
	}

	users, err := a.repo.UserMonthHours(ctx, month.Year, month.Month, 2)
	if err != nil {
		return nil, err
	}

	result := models.BusiestMonthUsers{Month: month, Users: users}
	if len(users) == 2 {
		result.TopHasMoreHours = users[0].Hours > users[1].Hours
	}

	slog.Debug("Busiest month users", "year", month.Year, "month", month.Month, "users", len(users))
	return result, nil
}

func init() {
	analysis.RegisterAnalyzer("busiest_month", NewBusiestMonthAnalyzer)
	analysis.RegisterAnalyzer("busiest_month_users", NewBusiestMonthUsersAnalyzer)
}
