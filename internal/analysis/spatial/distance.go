package spatial

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/jengzang/geolife-backend-go/internal/analysis"
	"github.com/jengzang/geolife-backend-go/internal/analysis/trajectory"
	"github.com/jengzang/geolife-backend-go/internal/models"
	"github.com/jengzang/geolife-backend-go/internal/repository"
)

// Defaults of walked_distance
const (
	DefaultDistanceUser = "112"
	DefaultDistanceMode = "walk"
	DefaultDistanceYear = 2008
)

// WalkedDistanceAnalyzer accumulates the distance a user covered in one mode and year
type WalkedDistanceAnalyzer struct {
	*analysis.BaseAnalyzer
	repo *repository.AnalyticsRepository
}

// NewWalkedDistanceAnalyzer creates a new walked distance analyzer
func NewWalkedDistanceAnalyzer(db *sql.DB) analysis.Analyzer {
	return &WalkedDistanceAnalyzer{
		BaseAnalyzer: analysis.NewBaseAnalyzer(db, "walked_distance",
			"total km for a user, mode and year (params user, mode, year; default 112, walk, 2008)"),
		repo: repository.NewAnalyticsRepository(db),
	}
}

// Analyze sums haversine distances within each matching activity
func (a *WalkedDistanceAnalyzer) Analyze(ctx context.Context, params analysis.Params) (any, error) {
	user := params.String("user", DefaultDistanceUser)
	mode := params.String("mode", DefaultDistanceMode)
	year, err := params.Int("year", DefaultDistanceYear)
	if err != nil {
		return nil, err
	}

	rows, err := a.repo.Positions(ctx, user, mode, year)
	if err != nil {
		return nil, err
	}

	result := models.WalkedDistance{
		UserID:             user,
		TransportationMode: mode,
		Year:               year,
		Activities:         trajectory.ActivityCount(rows),
		DistanceKm:         trajectory.TotalDistanceKm(rows),
	}
	slog.Debug("Walked distance", "user", user, "points", len(rows), "km", result.DistanceKm)
	return result, nil
}

// AltitudeGainAnalyzer ranks users by meters climbed
type AltitudeGainAnalyzer struct {
	*analysis.BaseAnalyzer
	repo *repository.AnalyticsRepository
}

// NewAltitudeGainAnalyzer creates a new altitude gain analyzer
func NewAltitudeGainAnalyzer(db *sql.DB) analysis.Analyzer {
	return &AltitudeGainAnalyzer{
		BaseAnalyzer: analysis.NewBaseAnalyzer(db, "altitude_gain", "users who gained the most altitude in meters (param n, default 20)"),
		repo:         repository.NewAnalyticsRepository(db),
	}
}

// Analyze returns the leaderboard
func (a *AltitudeGainAnalyzer) Analyze(ctx context.Context, params analysis.Params) (any, error) {
	n, err := params.Int("n", trajectory.DefaultAltitudeN)
	if err != nil {
		return nil, err
	}

	rows, err := a.repo.AltitudeRows(ctx)
	if err != nil {
		return nil, err
	}
	return trajectory.AltitudeGain(rows, n), nil
}

func init() {
	analysis.RegisterAnalyzer("walked_distance", NewWalkedDistanceAnalyzer)
	analysis.RegisterAnalyzer("altitude_gain", NewAltitudeGainAnalyzer)
}
