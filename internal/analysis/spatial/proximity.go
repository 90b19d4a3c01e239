package spatial

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/jengzang/geolife-backend-go/internal/analysis"
	"github.com/jengzang/geolife-backend-go/internal/analysis/trajectory"
	"github.com/jengzang/geolife-backend-go/internal/models"
	"github.com/jengzang/geolife-backend-go/internal/repository"
	geo "github.com/jengzang/geolife-backend-go/internal/spatial"
)

// Default reference sample of the proximity search
var (
	DefaultProximityLat  = 39.97548
	DefaultProximityLon  = 116.33031
	DefaultProximityTime = time.Date(2008, 8, 24, 15, 38, 0, 0, time.UTC)
)

// ProximityAnalyzer finds users close to a reference sample in time and space
type ProximityAnalyzer struct {
	*analysis.BaseAnalyzer
	repo *repository.AnalyticsRepository
}

// NewProximityAnalyzer creates a new proximity analyzer
func NewProximityAnalyzer(db *sql.DB) analysis.Analyzer {
	return &ProximityAnalyzer{
		BaseAnalyzer: analysis.NewBaseAnalyzer(db, "proximity",
			"users within 60 s and 100 m of a reference sample (params lat, lon, time, window, radius_km)"),
		repo: repository.NewAnalyticsRepository(db),
	}
}

// Analyze narrows candidates by time window and bounding box in SQL, then
// applies the exact haversine radius.
func (a *ProximityAnalyzer) Analyze(ctx context.Context, params analysis.Params) (any, error) {
	lat, err := params.Float("lat", DefaultProximityLat)
	if err != nil {
		return nil, err
	}
	lon, err := params.Float("lon", DefaultProximityLon)
	if err != nil {
		return nil, err
	}
	at, err := params.Time("time", DefaultProximityTime)
	if err != nil {
		return nil, err
	}
	window, err := params.Duration("window", trajectory.DefaultWindow)
	if err != nil {
		return nil, err
	}
	radiusKm, err := params.Float("radius_km", trajectory.DefaultRadiusKm)
	if err != nil {
		return nil, err
	}
	if window < 0 || radiusKm <= 0 {
		return nil, fmt.Errorf("%w: window must not be negative and radius_km must be positive", analysis.ErrInvalidParam)
	}

	bound := geo.SearchBound(lat, lon, radiusKm*1000)
	rows, err := a.repo.PointsNear(ctx, at.Add(-window), at.Add(window), bound)
	if err != nil {
		return nil, err
	}

	ref := trajectory.Reference{Lat: lat, Lon: lon, DateTime: at}
	users := trajectory.Proximity(rows, ref, window, radiusKm)

	slog.Debug("Proximity search", "candidates", len(rows), "users", len(users))
	return models.ProximityResult{
		Lat:        lat,
		Lon:        lon,
		DateTime:   at,
		Candidates: len(rows),
		Users:      users,
	}, nil
}

func init() {
	analysis.RegisterAnalyzer("proximity", NewProximityAnalyzer)
}
