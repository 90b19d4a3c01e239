package spatial

import (
	"github.com/golang/geo/s2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// Constants
const (
	EarthRadiusMeters = 6371000.0 // Earth's mean radius in meters
	EarthRadiusKm     = 6371.0    // Earth's mean radius in kilometers
)

// HaversineDistance calculates the great-circle distance between two points in meters
// using the Haversine formula
func HaversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	p1 := s2.LatLngFromDegrees(lat1, lon1)
	p2 := s2.LatLngFromDegrees(lat2, lon2)
	return p1.Distance(p2).Radians() * EarthRadiusMeters
}

// HaversineKm is HaversineDistance in kilometers
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	p1 := s2.LatLngFromDegrees(lat1, lon1)
	p2 := s2.LatLngFromDegrees(lat2, lon2)
	return p1.Distance(p2).Radians() * EarthRadiusKm
}

// SearchBound returns a lat/lon box containing every point within radiusMeters
// of (lat, lon). It is a prefilter only; candidates still need an exact distance check.
func SearchBound(lat, lon, radiusMeters float64) orb.Bound {
	// orb uses the WGS84 equatorial radius, which is larger than EarthRadiusMeters
	return geo.NewBoundAroundPoint(orb.Point{lon, lat}, radiusMeters*1.01)
}
