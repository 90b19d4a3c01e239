package models

import "time"

// PositionRow is a track point position tagged with its activity
type PositionRow struct {
	ActivityID int64
	Lat        float64
	Lon        float64
}

// AltitudeRow is a track point altitude tagged with its activity and owner
type AltitudeRow struct {
	ActivityID int64
	UserID     string
	Altitude   float64
}

// HasAltitude reports whether the sample carries a usable altitude
func (r AltitudeRow) HasAltitude() bool {
	return r.Altitude != AltitudeUnknown
}

// ProximityRow is a track point with its owner, used for contact searches
type ProximityRow struct {
	UserID   string
	Lat      float64
	Lon      float64
	DateTime time.Time
}

// TimestampRow is a track point timestamp tagged with its activity and owner
type TimestampRow struct {
	ActivityID int64
	UserID     string
	DateTime   time.Time
}
