package models

import "time"

// DatasetCounts is the size of the ingested dataset
type DatasetCounts struct {
	Users       int64 `json:"users"`
	Activities  int64 `json:"activities"`
	TrackPoints int64 `json:"track_points"`
}

// ActivitiesPerUser summarizes how many activities users have
type ActivitiesPerUser struct {
	Users   int     `json:"users"`
	Minimum float64 `json:"minimum"`
	Maximum float64 `json:"maximum"`
	Average float64 `json:"average"`
	Median  float64 `json:"median"`
}

// UserActivityCount is a user with a number of activities
type UserActivityCount struct {
	UserID string `json:"user_id"`
	Count  int64  `json:"count"`
}

// DuplicateActivity is a (user, mode, start, end) combination registered more than once
type DuplicateActivity struct {
	UserID             string    `json:"user_id"`
	TransportationMode *string   `json:"transportation_mode"`
	StartDateTime      time.Time `json:"start_date_time"`
	EndDateTime        time.Time `json:"end_date_time"`
	Count              int64     `json:"count"`
}

// ModeUserCount is the number of distinct users that used a transportation mode
type ModeUserCount struct {
	TransportationMode string `json:"transportation_mode"`
	Users              int64  `json:"users"`
}

// MonthActivityCount is the number of activities started in a calendar month
type MonthActivityCount struct {
	Year  int   `json:"year"`
	Month int   `json:"month"`
	Count int64 `json:"count"`
}

// UserMonthHours is a user's activity count and recorded hours in one month
type UserMonthHours struct {
	UserID string  `json:"user_id"`
	Count  int64   `json:"count"`
	Hours  float64 `json:"hours"`
}

// BusiestMonthUsers compares the two most active users of the busiest month
type BusiestMonthUsers struct {
	Month           MonthActivityCount `json:"month"`
	Users           []UserMonthHours   `json:"users"`
	TopHasMoreHours bool               `json:"top_has_more_hours"`
}

// WalkedDistance is the accumulated distance for a user, mode and year
type WalkedDistance struct {
	UserID             string  `json:"user_id"`
	TransportationMode string  `json:"transportation_mode"`
	Year               int     `json:"year"`
	Activities         int     `json:"activities"`
	DistanceKm         float64 `json:"distance_km"`
}

// UserAltitudeGain is the total altitude a user gained
type UserAltitudeGain struct {
	UserID       string  `json:"user_id"`
	MetersGained float64 `json:"meters_gained"`
}

// UserInvalidCount is the number of invalid activities of a user
type UserInvalidCount struct {
	UserID            string `json:"user_id"`
	InvalidActivities int    `json:"invalid_activities"`
}

// ProximityResult lists the users found close to a reference sample
type ProximityResult struct {
	Lat        float64   `json:"lat"`
	Lon        float64   `json:"lon"`
	DateTime   time.Time `json:"date_time"`
	Candidates int       `json:"candidates"` // points inside the time window and search box
	Users      []string  `json:"users"`
}
