package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jengzang/geolife-backend-go/internal/models"
)

const taskColumns = `id, analyzer, params_json, status, result_json, error_message,
	created_by, started_at, completed_at, created_at`

// AnalysisTaskRepository handles database operations for analysis tasks
type AnalysisTaskRepository struct {
	db *sql.DB
}

// NewAnalysisTaskRepository creates a new analysis task repository
func NewAnalysisTaskRepository(db *sql.DB) *AnalysisTaskRepository {
	return &AnalysisTaskRepository{db: db}
}

// Create creates a new analysis task
func (r *AnalysisTaskRepository) Create(ctx context.Context, task *models.AnalysisTask) error {
	query := `
		INSERT INTO analysis_tasks (analyzer, params_json, status, created_by)
		VALUES (?, ?, ?, ?)
	`

	if task.Status == "" {
		task.Status = models.TaskStatusPending
	}
	if task.ParamsJSON == "" {
		task.ParamsJSON = "{}"
	}

	result, err := r.db.ExecContext(ctx, query, task.Analyzer, task.ParamsJSON, task.Status, task.CreatedBy)
	if err != nil {
		return fmt.Errorf("failed to create analysis task: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	task.ID = id
	return nil
}

// GetByID retrieves an analysis task by ID
func (r *AnalysisTaskRepository) GetByID(ctx context.Context, id int64) (*models.AnalysisTask, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM analysis_tasks WHERE id = ?`, id)
	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("analysis task %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis task: %w", err)
	}
	return task, nil
}

// List retrieves analysis tasks with optional filters, newest first
func (r *AnalysisTaskRepository) List(ctx context.Context, analyzer string, status string, limit int, offset int) ([]*models.AnalysisTask, error) {
	query := `SELECT ` + taskColumns + ` FROM analysis_tasks WHERE 1=1`

	args := []any{}
	if analyzer != "" {
		query += " AND analyzer = ?"
		args = append(args, analyzer)
	}
	if status != "" {
		query += " AND status = ?"
		args = append(args, status)
	}

	query += " ORDER BY id DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list analysis tasks: %w", err)
	}
	defer rows.Close()

	tasks := []*models.AnalysisTask{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan analysis task: %w", err)
		}
		tasks = append(tasks, task)
	}

	return tasks, rows.Err()
}

// MarkAsRunning marks a task as running
func (r *AnalysisTaskRepository) MarkAsRunning(ctx context.Context, id int64) error {
	query := `UPDATE analysis_tasks SET status = ?, started_at = ? WHERE id = ?`

	_, err := r.db.ExecContext(ctx, query, models.TaskStatusRunning, time.Now().Unix(), id)
	if err != nil {
		return fmt.Errorf("failed to mark task as running: %w", err)
	}

	return nil
}

// MarkAsCompleted marks a task as completed with its JSON result
func (r *AnalysisTaskRepository) MarkAsCompleted(ctx context.Context, id int64, resultJSON string) error {
	query := `UPDATE analysis_tasks SET status = ?, completed_at = ?, result_json = ? WHERE id = ?`

	_, err := r.db.ExecContext(ctx, query, models.TaskStatusCompleted, time.Now().Unix(), resultJSON, id)
	if err != nil {
		return fmt.Errorf("failed to mark task as completed: %w", err)
	}

	return nil
}

// MarkAsFailed marks a task as failed with an error message
func (r *AnalysisTaskRepository) MarkAsFailed(ctx context.Context, id int64, errorMessage string) error {
	query := `UPDATE analysis_tasks SET status = ?, completed_at = ?, error_message = ? WHERE id = ?`

	_, err := r.db.ExecContext(ctx, query, models.TaskStatusFailed, time.Now().Unix(), errorMessage, id)
	if err != nil {
		return fmt.Errorf("failed to mark task as failed: %w", err)
	}

	return nil
}

func scanTask(s scanner) (*models.AnalysisTask, error) {
	task := &models.AnalysisTask{}
	err := s.Scan(
		&task.ID,
		&task.Analyzer,
		&task.ParamsJSON,
		&task.Status,
		&task.ResultJSON,
		&task.ErrorMessage,
		&task.CreatedBy,
		&task.StartedAt,
		&task.CompletedAt,
		&task.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return task, nil
}
