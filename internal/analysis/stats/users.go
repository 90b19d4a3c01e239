package stats

import (
	"context"
	"database/sql"

	"github.com/jengzang/geolife-backend-go/internal/analysis"
	"github.com/jengzang/geolife-backend-go/internal/repository"
)

// OvernightUsersAnalyzer finds users with an activity ending the day after it began
type OvernightUsersAnalyzer struct {
	*analysis.BaseAnalyzer
	repo *repository.AnalyticsRepository
}

// NewOvernightUsersAnalyzer creates a new overnight users analyzer
func NewOvernightUsersAnalyzer(db *sql.DB) analysis.Analyzer {
	return &OvernightUsersAnalyzer{
		BaseAnalyzer: analysis.NewBaseAnalyzer(db, "overnight_users", "users with an activity ending on the calendar day after it started"),
		repo:         repository.NewAnalyticsRepository(db),
	}
}

// Analyze returns the user ids and their number
func (a *OvernightUsersAnalyzer) Analyze(ctx context.Context, _ analysis.Params) (any, error) {
	users, err := a.repo.OvernightUsers(ctx)
	if err != nil {
		return nil, err
	}
	return UserList{Count: len(users), Users: users}, nil
}

// NeverTaxiAnalyzer finds labeled users that never took a taxi
type NeverTaxiAnalyzer struct {
	*analysis.BaseAnalyzer
	repo *repository.AnalyticsRepository
}

// NewNeverTaxiAnalyzer creates a new never taxi analyzer
func NewNeverTaxiAnalyzer(db *sql.DB) analysis.Analyzer {
	return &NeverTaxiAnalyzer{
		BaseAnalyzer: analysis.NewBaseAnalyzer(db, "never_taxi", "users with labeled activities and no taxi activity"),
		repo:         repository.NewAnalyticsRepository(db),
	}
}

// Analyze returns the user ids and their number
func (a *NeverTaxiAnalyzer) Analyze(ctx context.Context, _ analysis.Params) (any, error) {
	users, err := a.repo.NeverTaxiUsers(ctx)
	if err != nil {
		return nil, err
	}
	return UserList{Count: len(users), Users: users}, nil
}

// ModeUsersAnalyzer counts distinct users per transportation mode
type ModeUsersAnalyzer struct {
	*analysis.BaseAnalyzer
	repo *repository.AnalyticsRepository
}

// NewModeUsersAnalyzer creates a new mode users analyzer
func NewModeUsersAnalyzer(db *sql.DB) analysis.Analyzer {
	return &ModeUsersAnalyzer{
		BaseAnalyzer: analysis.NewBaseAnalyzer(db, "mode_users", "distinct users per transportation mode"),
		repo:         repository.NewAnalyticsRepository(db),
	}
}

// Analyze returns one row per mode
func (a *ModeUsersAnalyzer) Analyze(ctx context.Context, _ analysis.Params) (any, error) {
	return a.repo.ModeUsers(ctx)
}

// DuplicateActivitiesAnalyzer finds activities registered more than once
type DuplicateActivitiesAnalyzer struct {
	*analysis.BaseAnalyzer
	repo *repository.AnalyticsRepository
}

// NewDuplicateActivitiesAnalyzer creates a new duplicate activities analyzer
func NewDuplicateActivitiesAnalyzer(db *sql.DB) analysis.Analyzer {
	return &DuplicateActivitiesAnalyzer{
		BaseAnalyzer: analysis.NewBaseAnalyzer(db, "duplicate_activities", "activities with the same user, mode, start and end"),
		repo:         repository.NewAnalyticsRepository(db),
	}
}

// Analyze returns the duplicated combinations, possibly none
func (a *DuplicateActivitiesAnalyzer) Analyze(ctx context.Context, _ analysis.Params) (any, error) {
	return a.repo.DuplicateActivities(ctx)
}

// UserList is a set of user ids with its size
type UserList struct {
	Count int      `json:"count"`
	Users []string `json:"users"`
}

func init() {
	analysis.RegisterAnalyzer("overnight_users", NewOvernightUsersAnalyzer)
	analysis.RegisterAnalyzer("never_taxi", NewNeverTaxiAnalyzer)
	analysis.RegisterAnalyzer("mode_users", NewModeUsersAnalyzer)
	analysis.RegisterAnalyzer("duplicate_activities", NewDuplicateActivitiesAnalyzer)
}
