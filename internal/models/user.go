package models

// User is one dataset participant, identified by its directory name
type User struct {
	ID        string `json:"id" db:"id"`
	HasLabels bool   `json:"has_labels" db:"has_labels"` // true iff the id is in the labeled-id manifest
}
