package labels_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/geolife-backend-go/internal/labels"
	"github.com/jengzang/geolife-backend-go/internal/testutil"
	"github.com/jengzang/geolife-backend-go/internal/trajectory"
)

var (
	start = time.Date(2008, 1, 1, 8, 0, 0, 0, time.UTC)
	end   = time.Date(2008, 1, 1, 9, 0, 0, 0, time.UTC)
)

func TestMatchExactBounds(t *testing.T) {
	ds := testutil.NewDataset(t)
	path := ds.WriteLabels("010", testutil.Label{Start: start, End: end, Mode: "bus"})

	m, err := labels.Load(path)
	require.NoError(t, err)
	require.Equal(t, 1, m.Len())

	mode, ok := m.Match(start, end)
	assert.True(t, ok)
	assert.Equal(t, "bus", mode)
}

func TestMatchOffByOneSecond(t *testing.T) {
	ds := testutil.NewDataset(t)
	path := ds.WriteLabels("010", testutil.Label{Start: start, End: end.Add(time.Second), Mode: "bus"})

	m, err := labels.Load(path)
	require.NoError(t, err)

	_, ok := m.Match(start, end)
	assert.False(t, ok)
}

func TestMatchIgnoresOverlap(t *testing.T) {
	m := labels.NewMatcher([]labels.Label{
		{Start: start.Add(-time.Hour), End: end.Add(time.Hour), Mode: "walk"},
	})
	_, ok := m.Match(start, end)
	assert.False(t, ok)
}

func TestMatchLastRowWins(t *testing.T) {
	m := labels.NewMatcher([]labels.Label{
		{Start: start, End: end, Mode: "bus"},
		{Start: start, End: end.Add(time.Minute), Mode: "car"},
		{Start: start, End: end, Mode: "taxi"},
	})

	mode, ok := m.Match(start, end)
	require.True(t, ok)
	assert.Equal(t, "taxi", mode)

	candidates := m.Candidates(start, end)
	require.Len(t, candidates, 2)
	assert.Equal(t, "bus", candidates[0].Mode)
	assert.Equal(t, "taxi", candidates[1].Mode)
}

func TestLoadMissingFile(t *testing.T) {
	m, err := labels.Load(filepath.Join(t.TempDir(), "labels.txt"))
	require.NoError(t, err)
	assert.Zero(t, m.Len())

	_, ok := m.Match(start, end)
	assert.False(t, ok)
}

func TestLoadMalformedRow(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "labels.txt")
	content := "Start Time\tEnd Time\tTransportation Mode\n" +
		"2008/01/01 08:00:00\t2008/01/01 09:00:00\tbus\n" +
		"2008-01-01 08:00:00\t2008/01/01 09:00:00\tbus\n"
	require.NoError(t, os.WriteFile(bad, []byte(content), 0o644))

	_, err := labels.Load(bad)
	require.ErrorIs(t, err, trajectory.ErrMalformedLine)

	var lineErr *trajectory.MalformedLineError
	require.ErrorAs(t, err, &lineErr)
	assert.Equal(t, 3, lineErr.Line)
}

func TestLoadManifest(t *testing.T) {
	ds := testutil.NewDataset(t)
	ds.WriteManifest("010", " 020 ", "", "021")

	ids, err := labels.LoadManifest(ds.Manifest)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"010": true, "020": true, "021": true}, ids)
}
