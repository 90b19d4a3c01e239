package spatial

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
)

func TestHaversineKnownDistance(t *testing.T) {
	// One degree of latitude on a 6371 km sphere
	assert.InDelta(t, 111.195, HaversineKm(0, 0, 1, 0), 1e-3)
	assert.InDelta(t, 111195.08, HaversineDistance(0, 0, 1, 0), 1e-1)
	assert.Zero(t, HaversineKm(39.97548, 116.33031, 39.97548, 116.33031))
}

func TestHaversineSymmetric(t *testing.T) {
	a := HaversineKm(39.9, 116.3, 40.1, 116.5)
	b := HaversineKm(40.1, 116.5, 39.9, 116.3)
	assert.InDelta(t, a, b, 1e-12)
}

func TestSearchBoundContainsRadius(t *testing.T) {
	lat, lon := 39.97548, 116.33031
	bound := SearchBound(lat, lon, 100)

	assert.True(t, bound.Contains(orb.Point{lon, lat}))

	// Points just inside 100 m in each cardinal direction
	for _, p := range []orb.Point{
		{lon, lat + 0.00089},
		{lon, lat - 0.00089},
		{lon + 0.00116, lat},
		{lon - 0.00116, lat},
	} {
		assert.Less(t, HaversineDistance(lat, lon, p.Lat(), p.Lon()), 100.0)
		assert.True(t, bound.Contains(p), "%v outside %v", p, bound)
	}

	assert.False(t, bound.Contains(orb.Point{lon, lat + 0.01}))
}
