package models

import "time"

// AltitudeUnknown is the altitude value the source files use for a missing reading
const AltitudeUnknown = -777

// TrackPoint represents one GPS sample of an activity
type TrackPoint struct {
	ID         int64     `json:"id" db:"id"` // insertion order within the store
	ActivityID int64     `json:"activity_id" db:"activity_id"`
	Lat        float64   `json:"lat" db:"lat"`
	Lon        float64   `json:"lon" db:"lon"`
	Altitude   float64   `json:"altitude" db:"altitude"` // feet
	DateDays   float64   `json:"date_days" db:"date_days"`
	DateTime   time.Time `json:"date_time" db:"date_time"`
}

// TrackPointsResponse represents a paginated response of track points
type TrackPointsResponse struct {
	Data       []TrackPoint `json:"data"`
	Total      int64        `json:"total"`
	Page       int          `json:"page"`
	PageSize   int          `json:"pageSize"`
	TotalPages int          `json:"totalPages"`
}

// Page holds pagination parameters shared by listing endpoints
type Page struct {
	Page     int `form:"page"`
	PageSize int `form:"pageSize"`
}

// Normalize clamps the page into the allowed range
func (p *Page) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 100
	}
	if p.PageSize > 2500 {
		p.PageSize = 2500
	}
}

// Offset returns the row offset for the page
func (p Page) Offset() int {
	return (p.Page - 1) * p.PageSize
}
