package models

import "time"

// Activity summarizes one admitted trajectory file
type Activity struct {
	ID                 int64     `json:"id" db:"id"` // assigned by the activity id registry
	UserID             string    `json:"user_id" db:"user_id"`
	TransportationMode *string   `json:"transportation_mode" db:"transportation_mode"` // nil when unlabeled or unmatched
	StartDateTime      time.Time `json:"start_date_time" db:"start_date_time"`
	EndDateTime        time.Time `json:"end_date_time" db:"end_date_time"` // may precede StartDateTime
}

// Mode returns the transportation mode or "" when unknown
func (a Activity) Mode() string {
	if a.TransportationMode == nil {
		return ""
	}
	return *a.TransportationMode
}
