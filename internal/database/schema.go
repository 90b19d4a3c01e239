package database

import (
	"context"
	"database/sql"
	"fmt"
)

// Table names
const (
	TableUsers         = "users"
	TableActivities    = "activities"
	TableTrackPoints   = "track_points"
	TableAnalysisTasks = "analysis_tasks"
)

// schema is applied in order; every statement is idempotent.
var schema = []struct {
	name string
	sql  string
}{
	{TableUsers, `
		CREATE TABLE IF NOT EXISTS users (
			id TEXT NOT NULL PRIMARY KEY,
			has_labels BOOLEAN NOT NULL DEFAULT 0
		)`},
	{TableActivities, `
		CREATE TABLE IF NOT EXISTS activities (
			id INTEGER NOT NULL PRIMARY KEY,
			user_id TEXT NOT NULL,
			transportation_mode TEXT,
			start_date_time INTEGER NOT NULL,
			end_date_time INTEGER NOT NULL,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		)`},
	{"idx_activities_user", `CREATE INDEX IF NOT EXISTS idx_activities_user ON activities(user_id)`},
	{TableTrackPoints, `
		CREATE TABLE IF NOT EXISTS track_points (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			activity_id INTEGER NOT NULL,
			lat REAL NOT NULL,
			lon REAL NOT NULL,
			altitude REAL NOT NULL,
			date_days REAL NOT NULL,
			date_time INTEGER NOT NULL,
			FOREIGN KEY (activity_id) REFERENCES activities(id) ON DELETE CASCADE
		)`},
	{"idx_track_points_activity", `CREATE INDEX IF NOT EXISTS idx_track_points_activity ON track_points(activity_id, id)`},
	{"idx_track_points_time", `CREATE INDEX IF NOT EXISTS idx_track_points_time ON track_points(date_time)`},
	{TableAnalysisTasks, `
		CREATE TABLE IF NOT EXISTS analysis_tasks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			analyzer TEXT NOT NULL,
			params_json TEXT NOT NULL DEFAULT '{}',
			status TEXT NOT NULL,
			result_json TEXT NOT NULL DEFAULT '',
			error_message TEXT NOT NULL DEFAULT '',
			created_by TEXT NOT NULL DEFAULT '',
			started_at INTEGER NOT NULL DEFAULT 0,
			completed_at INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`},
}

// CreateSchema creates every table and index that does not exist yet
func CreateSchema(ctx context.Context, conn *sql.DB) error {
	for _, stmt := range schema {
		if _, err := conn.ExecContext(ctx, stmt.sql); err != nil {
			return fmt.Errorf("failed to create %s: %w", stmt.name, err)
		}
	}
	return nil
}

// DropSchema drops the dataset and task tables, children first
func DropSchema(ctx context.Context, conn *sql.DB) error {
	for _, table := range []string{TableTrackPoints, TableActivities, TableUsers, TableAnalysisTasks} {
		if _, err := conn.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
			return fmt.Errorf("failed to drop %s: %w", table, err)
		}
	}
	return nil
}

// ListTables returns the user tables present in the database
func ListTables(ctx context.Context, conn *sql.DB) ([]string, error) {
	rows, err := conn.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}
