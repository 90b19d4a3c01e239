package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jengzang/geolife-backend-go/internal/models"
)

const activityColumns = `id, user_id, transportation_mode, start_date_time, end_date_time`

// ActivityRepository handles database operations for activities
type ActivityRepository struct {
	db *sql.DB
}

// NewActivityRepository creates a new activity repository
func NewActivityRepository(db *sql.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Upsert stores the activity under its registry id, replacing any previous row
func (r *ActivityRepository) Upsert(ctx context.Context, a models.Activity) error {
	return upsertActivity(ctx, r.db, a)
}

func upsertActivity(ctx context.Context, ex execer, a models.Activity) error {
	query := `
		INSERT INTO activities (` + activityColumns + `) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			user_id = excluded.user_id,
			transportation_mode = excluded.transportation_mode,
			start_date_time = excluded.start_date_time,
			end_date_time = excluded.end_date_time
	`
	_, err := ex.ExecContext(ctx, query,
		a.ID,
		a.UserID,
		a.TransportationMode,
		a.StartDateTime.Unix(),
		a.EndDateTime.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert activity %d: %w", a.ID, err)
	}
	return nil
}

// GetByID retrieves an activity by id
func (r *ActivityRepository) GetByID(ctx context.Context, id int64) (*models.Activity, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+activityColumns+` FROM activities WHERE id = ?`, id)
	a, err := scanActivity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("activity %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get activity: %w", err)
	}
	return a, nil
}

// ListByUser returns a user's activities ordered by start time
func (r *ActivityRepository) ListByUser(ctx context.Context, userID string) ([]models.Activity, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+activityColumns+` FROM activities WHERE user_id = ? ORDER BY start_date_time, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	defer rows.Close()

	activities := []models.Activity{}
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		activities = append(activities, *a)
	}
	return activities, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanActivity(s scanner) (*models.Activity, error) {
	var (
		a          models.Activity
		mode       sql.NullString
		start, end int64
	)
	if err := s.Scan(&a.ID, &a.UserID, &mode, &start, &end); err != nil {
		return nil, err
	}
	if mode.Valid {
		a.TransportationMode = &mode.String
	}
	a.StartDateTime = unixTime(start)
	a.EndDateTime = unixTime(end)
	return &a, nil
}

func unixTime(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}
