package trajectory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/geolife-backend-go/internal/models"
	"github.com/jengzang/geolife-backend-go/internal/spatial"
)

// kmPerDegree is one degree of latitude on the haversine sphere
const kmPerDegree = spatial.EarthRadiusKm * 3.141592653589793 / 180

func TestTotalDistanceCollinear(t *testing.T) {
	rows := []models.PositionRow{
		{ActivityID: 1, Lat: 0, Lon: 0},
		{ActivityID: 1, Lat: 0, Lon: 0.001},
		{ActivityID: 1, Lat: 0, Lon: 0.002},
	}
	want := spatial.HaversineKm(0, 0, 0, 0.001) + spatial.HaversineKm(0, 0.001, 0, 0.002)
	assert.InDelta(t, want, TotalDistanceKm(rows), 1e-9)
}

func TestTotalDistanceKeepsActivitiesApart(t *testing.T) {
	rows := []models.PositionRow{
		{ActivityID: 1, Lat: 0, Lon: 0},
		{ActivityID: 2, Lat: 10, Lon: 10},
		{ActivityID: 1, Lat: 0, Lon: 0.001},
		{ActivityID: 2, Lat: 10, Lon: 10},
		{ActivityID: 1, Lat: 0, Lon: 0.002},
	}
	want := spatial.HaversineKm(0, 0, 0, 0.001) + spatial.HaversineKm(0, 0.001, 0, 0.002)
	assert.InDelta(t, want, TotalDistanceKm(rows), 1e-9)
	assert.Equal(t, 2, ActivityCount(rows))
}

func TestTotalDistanceEmpty(t *testing.T) {
	assert.Zero(t, TotalDistanceKm(nil))
	assert.Zero(t, TotalDistanceKm([]models.PositionRow{{ActivityID: 1, Lat: 1, Lon: 1}}))
}

func altitudes(activityID int64, user string, alts ...float64) []models.AltitudeRow {
	rows := make([]models.AltitudeRow, len(alts))
	for i, a := range alts {
		rows[i] = models.AltitudeRow{ActivityID: activityID, UserID: user, Altitude: a}
	}
	return rows
}

func TestAltitudeGainSkipsUnknown(t *testing.T) {
	// 100->150 is +50, 150->140 is ignored, 140->160 is +20
	got := AltitudeGain(altitudes(1, "000", 100, -777, 150, 140, 160), 0)
	require.Len(t, got, 1)
	assert.Equal(t, "000", got[0].UserID)
	assert.InDelta(t, 70*0.3048, got[0].MetersGained, 1e-9)
}

func TestAltitudeGainPerActivity(t *testing.T) {
	rows := append(altitudes(1, "000", 100, 110), altitudes(2, "000", 500, 505)...)
	got := AltitudeGain(rows, 0)
	require.Len(t, got, 1)
	// the 110->500 jump crosses an activity boundary and is not counted
	assert.InDelta(t, 15*0.3048, got[0].MetersGained, 1e-9)
}

func TestAltitudeGainRanking(t *testing.T) {
	var rows []models.AltitudeRow
	rows = append(rows, altitudes(1, "a", 0, 10)...)
	rows = append(rows, altitudes(2, "b", 0, 30)...)
	rows = append(rows, altitudes(3, "c", 0, 10)...)
	rows = append(rows, altitudes(4, "d", 50, 40)...)

	got := AltitudeGain(rows, 0)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"b", "a", "c"}, []string{got[0].UserID, got[1].UserID, got[2].UserID})

	top := AltitudeGain(rows, 2)
	require.Len(t, top, 2)
	assert.Equal(t, "a", top[1].UserID)
}

func timestamps(activityID int64, user string, start time.Time, gaps ...time.Duration) []models.TimestampRow {
	rows := []models.TimestampRow{{ActivityID: activityID, UserID: user, DateTime: start}}
	at := start
	for _, g := range gaps {
		at = at.Add(g)
		rows = append(rows, models.TimestampRow{ActivityID: activityID, UserID: user, DateTime: at})
	}
	return rows
}

func TestInvalidActivities(t *testing.T) {
	start := time.Date(2008, 11, 3, 10, 0, 0, 0, time.UTC)
	var rows []models.TimestampRow
	rows = append(rows, timestamps(1, "000", start, time.Minute, 6*time.Minute)...)
	rows = append(rows, timestamps(2, "000", start, 4*time.Minute, 4*time.Minute)...)
	rows = append(rows, timestamps(3, "001", start, 5*time.Minute, 10*time.Minute)...)
	rows = append(rows, timestamps(4, "001", start, 20*time.Minute)...)
	rows = append(rows, timestamps(5, "002", start, -10*time.Minute, time.Minute)...)

	got := InvalidActivities(rows, DefaultGap)
	assert.Equal(t, []models.UserInvalidCount{
		{UserID: "001", InvalidActivities: 2},
		{UserID: "000", InvalidActivities: 1},
	}, got)
}

func TestInvalidActivitiesNone(t *testing.T) {
	start := time.Date(2008, 11, 3, 10, 0, 0, 0, time.UTC)
	got := InvalidActivities(timestamps(1, "000", start, 4*time.Minute+59*time.Second), DefaultGap)
	assert.Empty(t, got)
}

func TestProximity(t *testing.T) {
	ref := Reference{Lat: 39.97548, Lon: 116.33031, DateTime: time.Date(2008, 8, 24, 15, 38, 0, 0, time.UTC)}
	north := func(meters float64) float64 { return ref.Lat + meters/1000/kmPerDegree }

	rows := []models.ProximityRow{
		{UserID: "near", Lat: north(50), Lon: ref.Lon, DateTime: ref.DateTime.Add(30 * time.Second)},
		{UserID: "far", Lat: north(150), Lon: ref.Lon, DateTime: ref.DateTime.Add(10 * time.Second)},
		{UserID: "late", Lat: north(50), Lon: ref.Lon, DateTime: ref.DateTime.Add(90 * time.Second)},
		{UserID: "edge", Lat: ref.Lat, Lon: ref.Lon, DateTime: ref.DateTime.Add(-60 * time.Second)},
		{UserID: "near", Lat: ref.Lat, Lon: ref.Lon, DateTime: ref.DateTime},
	}

	got := Proximity(rows, ref, DefaultWindow, DefaultRadiusKm)
	assert.Equal(t, []string{"near", "edge"}, got)
}

func TestProximityEmpty(t *testing.T) {
	got := Proximity(nil, Reference{}, DefaultWindow, DefaultRadiusKm)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
