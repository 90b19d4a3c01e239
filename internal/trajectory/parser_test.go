package trajectory_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/geolife-backend-go/internal/testutil"
	"github.com/jengzang/geolife-backend-go/internal/trajectory"
)

func TestParseLine(t *testing.T) {
	pt, err := trajectory.ParseLine("39.984702,116.318417,0,492,39744.1201851852,2008-10-23,02:53:04")
	require.NoError(t, err)

	assert.Equal(t, 39.984702, pt.Lat)
	assert.Equal(t, 116.318417, pt.Lon)
	assert.Equal(t, 492.0, pt.Altitude)
	assert.Equal(t, 39744.1201851852, pt.DateDays)
	assert.Equal(t, time.Date(2008, 10, 23, 2, 53, 4, 0, time.UTC), pt.Time)
}

func TestParseLineMalformed(t *testing.T) {
	for name, line := range map[string]string{
		"too few fields":  "39.98,116.31,0,492,39744.12,2008-10-23",
		"too many fields": "39.98,116.31,0,492,39744.12,2008-10-23,02:53:04,x",
		"bad latitude":    "north,116.31,0,492,39744.12,2008-10-23,02:53:04",
		"bad altitude":    "39.98,116.31,0,high,39744.12,2008-10-23,02:53:04",
		"bad timestamp":   "39.98,116.31,0,492,39744.12,2008/10/23,02:53:04",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := trajectory.ParseLine(line)
			assert.Error(t, err)
		})
	}
}

func TestFormatLineRoundTrip(t *testing.T) {
	in := trajectory.RawPoint{Lat: 40.0081, Lon: 116.3212, Altitude: -777, DateDays: 39745.5, Time: time.Date(2008, 10, 24, 12, 0, 1, 0, time.UTC)}
	out, err := trajectory.ParseLine(trajectory.FormatLine(in))
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestOpenAdmitsAndParsesInOrder(t *testing.T) {
	ds := testutil.NewDataset(t)
	start := time.Date(2008, 10, 23, 2, 53, 4, 0, time.UTC)
	points := testutil.Track(start, 5, 5*time.Second, 39.9, 116.3, 0.0001)
	path := ds.WriteTrajectory("000", "20081023025304.plt", points)

	pf, admitted, err := trajectory.DefaultParser().Open(path)
	require.NoError(t, err)
	require.True(t, admitted)
	assert.Equal(t, 5, pf.Count)

	got, err := pf.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, points, got)

	// The sequence is restartable.
	again, err := pf.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, got, again)
}

func TestOpenRejectsOversizedFile(t *testing.T) {
	ds := testutil.NewDataset(t)
	start := time.Date(2008, 10, 23, 0, 0, 0, 0, time.UTC)

	atCap := ds.WriteTrajectory("000", "cap.plt", testutil.Track(start, 2500, time.Second, 39.9, 116.3, 0))
	overCap := ds.WriteTrajectory("000", "over.plt", testutil.Track(start, 2501, time.Second, 39.9, 116.3, 0))

	parser := trajectory.DefaultParser()

	pf, admitted, err := parser.Open(atCap)
	require.NoError(t, err)
	assert.True(t, admitted)
	assert.Equal(t, 2500, pf.Count)

	pf, admitted, err = parser.Open(overCap)
	require.NoError(t, err)
	assert.False(t, admitted)
	assert.Nil(t, pf)
}

func TestPointsStopsAtMalformedLine(t *testing.T) {
	ds := testutil.NewDataset(t)
	path := ds.WriteRawTrajectory("000", "bad.plt",
		"39.98,116.31,0,492,39744.12,2008-10-23,02:53:04\n"+
			"39.98,116.31,0,492\n"+
			"39.98,116.31,0,492,39744.12,2008-10-23,02:53:09\n")

	pf, admitted, err := trajectory.DefaultParser().Open(path)
	require.NoError(t, err)
	require.True(t, admitted)

	_, err = pf.ReadAll()
	require.Error(t, err)
	assert.True(t, errors.Is(err, trajectory.ErrMalformedLine))

	var lineErr *trajectory.MalformedLineError
	require.ErrorAs(t, err, &lineErr)
	assert.Equal(t, 8, lineErr.Line)
	assert.Equal(t, path, lineErr.Path)
}

func TestPointsEarlyBreak(t *testing.T) {
	ds := testutil.NewDataset(t)
	start := time.Date(2008, 10, 23, 0, 0, 0, 0, time.UTC)
	path := ds.WriteTrajectory("000", "a.plt", testutil.Track(start, 10, time.Second, 39.9, 116.3, 0))

	pf, _, err := trajectory.DefaultParser().Open(path)
	require.NoError(t, err)

	n := 0
	for _, err := range pf.Points() {
		require.NoError(t, err)
		n++
		if n == 3 {
			break
		}
	}
	assert.Equal(t, 3, n)
}

func TestOpenMissingFile(t *testing.T) {
	_, _, err := trajectory.DefaultParser().Open("/nonexistent/file.plt")
	assert.Error(t, err)
}
