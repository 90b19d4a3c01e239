package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jengzang/geolife-backend-go/internal/database"
	"github.com/jengzang/geolife-backend-go/internal/models"
)

// TrackRepository handles database operations for track points
type TrackRepository struct {
	db *sql.DB
}

// NewTrackRepository creates a new track repository
func NewTrackRepository(db *sql.DB) *TrackRepository {
	return &TrackRepository{db: db}
}

// ReplaceForActivity deletes the activity's existing points and inserts points
// in order, in one transaction. Either all points are stored or none.
func (r *TrackRepository) ReplaceForActivity(ctx context.Context, activityID int64, points []models.TrackPoint) error {
	return database.Transaction(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM track_points WHERE activity_id = ?`, activityID); err != nil {
			return fmt.Errorf("failed to delete track points of activity %d: %w", activityID, err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO track_points (activity_id, lat, lon, altitude, date_days, date_time)
			VALUES (?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for i, p := range points {
			_, err := stmt.ExecContext(ctx, activityID, p.Lat, p.Lon, p.Altitude, p.DateDays, p.DateTime.Unix())
			if err != nil {
				return fmt.Errorf("failed to insert track point %d of activity %d: %w", i, activityID, err)
			}
		}
		return nil
	})
}

// CountByActivity returns the number of stored points of an activity
func (r *TrackRepository) CountByActivity(ctx context.Context, activityID int64) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM track_points WHERE activity_id = ?`, activityID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count track points: %w", err)
	}
	return n, nil
}

// ListByActivity retrieves a page of an activity's points in insertion order
func (r *TrackRepository) ListByActivity(ctx context.Context, activityID int64, page models.Page) ([]models.TrackPoint, int64, error) {
	page.Normalize()

	total, err := r.CountByActivity(ctx, activityID)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, activity_id, lat, lon, altitude, date_days, date_time
		FROM track_points
		WHERE activity_id = ?
		ORDER BY id
		LIMIT ? OFFSET ?
	`, activityID, page.PageSize, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query track points: %w", err)
	}
	defer rows.Close()

	points := []models.TrackPoint{}
	for rows.Next() {
		var (
			p  models.TrackPoint
			ts int64
		)
		if err := rows.Scan(&p.ID, &p.ActivityID, &p.Lat, &p.Lon, &p.Altitude, &p.DateDays, &ts); err != nil {
			return nil, 0, fmt.Errorf("failed to scan track point: %w", err)
		}
		p.DateTime = unixTime(ts)
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate track points: %w", err)
	}

	return points, total, nil
}
