package models

import "time"

// AnalysisTask records one run of a named analyzer
type AnalysisTask struct {
	ID int64 `json:"id" db:"id"`

	// Task identification
	Analyzer   string `json:"analyzer" db:"analyzer"`
	ParamsJSON string `json:"params_json,omitempty" db:"params_json"`

	// Status
	Status string `json:"status" db:"status"` // pending, running, completed, failed

	// Execution info
	StartedAt   int64 `json:"started_at,omitempty" db:"started_at"`     // Unix timestamp
	CompletedAt int64 `json:"completed_at,omitempty" db:"completed_at"` // Unix timestamp

	// Results
	ResultJSON   string `json:"result_json,omitempty" db:"result_json"`
	ErrorMessage string `json:"error_message,omitempty" db:"error_message"`

	// Metadata
	CreatedBy string    `json:"created_by,omitempty" db:"created_by"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// TaskStatus constants
const (
	TaskStatusPending   = "pending"
	TaskStatusRunning   = "running"
	TaskStatusCompleted = "completed"
	TaskStatusFailed    = "failed"
)
