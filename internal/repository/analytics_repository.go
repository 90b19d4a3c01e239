package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/paulmach/orb"

	"github.com/jengzang/geolife-backend-go/internal/models"
)

// AnalyticsRepository runs the filtering, grouping and joining behind the analyzers.
// Distance, altitude and gap arithmetic is left to the caller.
type AnalyticsRepository struct {
	db *sql.DB
}

// NewAnalyticsRepository creates a new analytics repository
func NewAnalyticsRepository(db *sql.DB) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

// ActivityCounts returns every user with at least one activity, most active first
func (r *AnalyticsRepository) ActivityCounts(ctx context.Context, limit int) ([]models.UserActivityCount, error) {
	query := `
		SELECT user_id, COUNT(*) AS n
		FROM activities
		GROUP BY user_id
		ORDER BY n DESC, user_id ASC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to count activities per user: %w", err)
	}
	defer rows.Close()

	out := []models.UserActivityCount{}
	for rows.Next() {
		var c models.UserActivityCount
		if err := rows.Scan(&c.UserID, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan activity count: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// OvernightUsers returns users with an activity ending on the calendar day after it started
func (r *AnalyticsRepository) OvernightUsers(ctx context.Context) ([]string, error) {
	return r.userIDs(ctx, `
		SELECT DISTINCT user_id
		FROM activities
		WHERE date(end_date_time, 'unixepoch') = date(start_date_time, 'unixepoch', '+1 day')
		ORDER BY user_id
	`)
}

// NeverTaxiUsers returns users with labeled activities none of which is a taxi ride
func (r *AnalyticsRepository) NeverTaxiUsers(ctx context.Context) ([]string, error) {
	return r.userIDs(ctx, `
		SELECT user_id
		FROM activities
		WHERE transportation_mode IS NOT NULL
		GROUP BY user_id
		HAVING SUM(CASE WHEN transportation_mode = 'taxi' THEN 1 ELSE 0 END) = 0
		ORDER BY user_id
	`)
}

func (r *AnalyticsRepository) userIDs(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DuplicateActivities returns (user, mode, start, end) combinations stored more than once
func (r *AnalyticsRepository) DuplicateActivities(ctx context.Context) ([]models.DuplicateActivity, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id, transportation_mode, start_date_time, end_date_time, COUNT(*) AS n
		FROM activities
		GROUP BY user_id, transportation_mode, start_date_time, end_date_time
		HAVING n > 1
		ORDER BY n DESC, user_id, start_date_time
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query duplicate activities: %w", err)
	}
	defer rows.Close()

	out := []models.DuplicateActivity{}
	for rows.Next() {
		var (
			d          models.DuplicateActivity
			mode       sql.NullString
			start, end int64
		)
		if err := rows.Scan(&d.UserID, &mode, &start, &end, &d.Count); err != nil {
			return nil, fmt.Errorf("failed to scan duplicate activity: %w", err)
		}
		if mode.Valid {
			d.TransportationMode = &mode.String
		}
		d.StartDateTime = unixTime(start)
		d.EndDateTime = unixTime(end)
		out = append(out, d)
	}
	return out, rows.Err()
}

// ModeUsers returns the number of distinct users per transportation mode, unlabeled excluded
func (r *AnalyticsRepository) ModeUsers(ctx context.Context) ([]models.ModeUserCount, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT transportation_mode, COUNT(DISTINCT user_id) AS n
		FROM activities
		WHERE transportation_mode IS NOT NULL
		GROUP BY transportation_mode
		ORDER BY n DESC, transportation_mode
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query mode users: %w", err)
	}
	defer rows.Close()

	out := []models.ModeUserCount{}
	for rows.Next() {
		var m models.ModeUserCount
		if err := rows.Scan(&m.TransportationMode, &m.Users); err != nil {
			return nil, fmt.Errorf("failed to scan mode users: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// MonthActivityCounts returns activity counts per start month, busiest first
func (r *AnalyticsRepository) MonthActivityCounts(ctx context.Context) ([]models.MonthActivityCount, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT
			CAST(strftime('%Y', start_date_time, 'unixepoch') AS INTEGER) AS y,
			CAST(strftime('%m', start_date_time, 'unixepoch') AS INTEGER) AS m,
			COUNT(*) AS n
		FROM activities
		GROUP BY y, m
		ORDER BY n DESC, y, m
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query month counts: %w", err)
	}
	defer rows.Close()

	out := []models.MonthActivityCount{}
	for rows.Next() {
		var m models.MonthActivityCount
		if err := rows.Scan(&m.Year, &m.Month, &m.Count); err != nil {
			return nil, fmt.Errorf("failed to scan month count: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// UserMonthHours returns the most active users of a month with their recorded hours
func (r *AnalyticsRepository) UserMonthHours(ctx context.Context, year, month, limit int) ([]models.UserMonthHours, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id, COUNT(*) AS n, SUM(end_date_time - start_date_time) / 3600.0 AS hours
		FROM activities
		WHERE strftime('%Y', start_date_time, 'unixepoch') = ?
		  AND strftime('%m', start_date_time, 'unixepoch') = ?
		GROUP BY user_id
		ORDER BY n DESC, user_id
		LIMIT ?
	`, fmt.Sprintf("%04d", year), fmt.Sprintf("%02d", month), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query user month hours: %w", err)
	}
	defer rows.Close()

	out := []models.UserMonthHours{}
	for rows.Next() {
		var u models.UserMonthHours
		if err := rows.Scan(&u.UserID, &u.Count, &u.Hours); err != nil {
			return nil, fmt.Errorf("failed to scan user month hours: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// Positions returns the points of a user's activities in one mode and year,
// grouped by activity and in time order within each activity.
func (r *AnalyticsRepository) Positions(ctx context.Context, userID, mode string, year int) ([]models.PositionRow, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT tp.activity_id, tp.lat, tp.lon
		FROM track_points tp
		JOIN activities a ON a.id = tp.activity_id
		WHERE a.user_id = ?
		  AND a.transportation_mode = ?
		  AND strftime('%Y', tp.date_time, 'unixepoch') = ?
		ORDER BY tp.activity_id, tp.date_time, tp.id
	`, userID, mode, strconv.Itoa(year))
	if err != nil {
		return nil, fmt.Errorf("failed to query positions: %w", err)
	}
	defer rows.Close()

	out := []models.PositionRow{}
	for rows.Next() {
		var p models.PositionRow
		if err := rows.Scan(&p.ActivityID, &p.Lat, &p.Lon); err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// AltitudeRows returns every point altitude with its activity and owner, in
// insertion order within each activity.
func (r *AnalyticsRepository) AltitudeRows(ctx context.Context) ([]models.AltitudeRow, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT tp.activity_id, a.user_id, tp.altitude
		FROM track_points tp
		JOIN activities a ON a.id = tp.activity_id
		ORDER BY tp.activity_id, tp.id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query altitudes: %w", err)
	}
	defer rows.Close()

	out := []models.AltitudeRow{}
	for rows.Next() {
		var a models.AltitudeRow
		if err := rows.Scan(&a.ActivityID, &a.UserID, &a.Altitude); err != nil {
			return nil, fmt.Errorf("failed to scan altitude: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// TimestampRows returns every point timestamp with its activity and owner, in
// insertion order within each activity.
func (r *AnalyticsRepository) TimestampRows(ctx context.Context) ([]models.TimestampRow, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT tp.activity_id, a.user_id, tp.date_time
		FROM track_points tp
		JOIN activities a ON a.id = tp.activity_id
		ORDER BY tp.activity_id, tp.id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query timestamps: %w", err)
	}
	defer rows.Close()

	out := []models.TimestampRow{}
	for rows.Next() {
		var (
			t  models.TimestampRow
			ts int64
		)
		if err := rows.Scan(&t.ActivityID, &t.UserID, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan timestamp: %w", err)
		}
		t.DateTime = unixTime(ts)
		out = append(out, t)
	}
	return out, rows.Err()
}

// PointsNear returns the points recorded in [from, to] that fall inside bound,
// in insertion order. The bound is a coarse prefilter; exact distances are
// checked by the caller.
func (r *AnalyticsRepository) PointsNear(ctx context.Context, from, to time.Time, bound orb.Bound) ([]models.ProximityRow, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT a.user_id, tp.lat, tp.lon, tp.date_time
		FROM track_points tp
		JOIN activities a ON a.id = tp.activity_id
		WHERE tp.date_time BETWEEN ? AND ?
		  AND tp.lat BETWEEN ? AND ?
		  AND tp.lon BETWEEN ? AND ?
		ORDER BY tp.id
	`, from.Unix(), to.Unix(), bound.Min.Lat(), bound.Max.Lat(), bound.Min.Lon(), bound.Max.Lon())
	if err != nil {
		return nil, fmt.Errorf("failed to query points near: %w", err)
	}
	defer rows.Close()

	out := []models.ProximityRow{}
	for rows.Next() {
		var (
			p  models.ProximityRow
			ts int64
		)
		if err := rows.Scan(&p.UserID, &p.Lat, &p.Lon, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan point: %w", err)
		}
		p.DateTime = unixTime(ts)
		out = append(out, p)
	}
	return out, rows.Err()
}
