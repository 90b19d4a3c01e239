// Package trajectory holds the numeric analyses over stored track points:
// path length, altitude gain, contact search and gap validity. The functions
// are pure; rows come from the analytics repository.
package trajectory

import (
	"sort"
	"time"

	"github.com/jengzang/geolife-backend-go/internal/models"
	"github.com/jengzang/geolife-backend-go/internal/spatial"
)

// Defaults of the analyses
const (
	FeetToMeters     = 0.3048
	DefaultGap       = 5 * time.Minute
	DefaultWindow    = 60 * time.Second
	DefaultRadiusKm  = 0.1
	DefaultAltitudeN = 20
)

// TotalDistanceKm sums the haversine distance between consecutive points of
// each activity, in input order. A point is only ever joined to the previous
// point of its own activity, so interleaved rows are fine.
func TotalDistanceKm(rows []models.PositionRow) float64 {
	var total float64
	prev := map[int64]models.PositionRow{}
	for _, r := range rows {
		if p, ok := prev[r.ActivityID]; ok {
			total += spatial.HaversineKm(p.Lat, p.Lon, r.Lat, r.Lon)
		}
		prev[r.ActivityID] = r
	}
	return total
}

// ActivityCount returns the number of distinct activities in rows
func ActivityCount(rows []models.PositionRow) int {
	seen := map[int64]struct{}{}
	for _, r := range rows {
		seen[r.ActivityID] = struct{}{}
	}
	return len(seen)
}

// AltitudeGain returns the users with the most meters climbed. Unknown
// altitudes are dropped before differencing, so the points around a gap are
// compared directly. Only positive differences count and users without any
// gain are left out. Ties keep first-seen user order. topN <= 0 returns every user.
func AltitudeGain(rows []models.AltitudeRow, topN int) []models.UserAltitudeGain {
	prev := map[int64]float64{}
	feet := map[string]float64{}
	var order []string

	for _, r := range rows {
		if !r.HasAltitude() {
			continue
		}
		if p, ok := prev[r.ActivityID]; ok && r.Altitude > p {
			if _, seen := feet[r.UserID]; !seen {
				order = append(order, r.UserID)
			}
			feet[r.UserID] += r.Altitude - p
		}
		prev[r.ActivityID] = r.Altitude
	}

	out := make([]models.UserAltitudeGain, 0, len(order))
	for _, u := range order {
		out = append(out, models.UserAltitudeGain{UserID: u, MetersGained: feet[u] * FeetToMeters})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].MetersGained > out[j].MetersGained })

	if topN > 0 && len(out) > topN {
		out = out[:topN]
	}
	return out
}

// Reference is the sample a contact search is centred on
type Reference struct {
	Lat      float64
	Lon      float64
	DateTime time.Time
}

// Proximity returns the distinct users with a point within window of the
// reference time (inclusive) and strictly closer than radiusKm, in the
// order their first qualifying point appears.
func Proximity(rows []models.ProximityRow, ref Reference, window time.Duration, radiusKm float64) []string {
	users := []string{}
	seen := map[string]bool{}
	for _, r := range rows {
		if seen[r.UserID] {
			continue
		}
		dt := r.DateTime.Sub(ref.DateTime)
		if dt < 0 {
			dt = -dt
		}
		if dt > window {
			continue
		}
		if spatial.HaversineKm(ref.Lat, ref.Lon, r.Lat, r.Lon) >= radiusKm {
			continue
		}
		seen[r.UserID] = true
		users = append(users, r.UserID)
	}
	return users
}

// InvalidActivities counts, per user, the activities with two consecutive
// points at least gap apart. Rows of one activity must be in stored order.
// A point timestamped before its predecessor is not a gap. Users are ordered by count descending, ties in first-seen order.
func InvalidActivities(rows []models.TimestampRow, gap time.Duration) []models.UserInvalidCount {
	prev := map[int64]time.Time{}
	invalid := map[int64]bool{}
	counts := map[string]int{}
	var order []string

	for _, r := range rows {
		if p, ok := prev[r.ActivityID]; ok && !invalid[r.ActivityID] && r.DateTime.Sub(p) >= gap {
			invalid[r.ActivityID] = true
			if counts[r.UserID] == 0 {
				order = append(order, r.UserID)
			}
			counts[r.UserID]++
		}
		prev[r.ActivityID] = r.DateTime
	}

	out := make([]models.UserInvalidCount, 0, len(order))
	for _, u := range order {
		out = append(out, models.UserInvalidCount{UserID: u, InvalidActivities: counts[u]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].InvalidActivities > out[j].InvalidActivities })
	return out
}
