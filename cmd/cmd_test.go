package cmd

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/geolife-backend-go/internal/models"
	"github.com/jengzang/geolife-backend-go/internal/testutil"
)

func TestWriteResultYAMLUsesJSONKeys(t *testing.T) {
	var buf bytes.Buffer
	err := writeResult(&buf, models.DatasetCounts{Users: 1, Activities: 2, TrackPoints: 3}, formatYAML)
	require.NoError(t, err)
	assert.Equal(t, "activities: 2\ntrack_points: 3\nusers: 1\n", buf.String())
}

func TestWriteResultJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeResult(&buf, map[string]int{"n": 1}, formatJSON))
	assert.JSONEq(t, `{"n":1}`, buf.String())

	assert.Error(t, writeResult(&buf, nil, "xml"))
}

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute(), out.String())
	return out.String()
}

func TestIngestThenAnalyze(t *testing.T) {
	ds := testutil.NewDataset(t)
	ds.WriteManifest("010")
	start := time.Date(2008, 10, 23, 2, 53, 4, 0, time.UTC)
	ds.WriteTrajectory("000", "a.plt", testutil.Track(start, 10, time.Second, 39.9, 116.3, 0.0001))
	ds.WriteTrajectory("010", "b.plt", testutil.Track(start, 5, time.Second, 39.9, 116.3, 0.0001))
	ds.WriteLabels("010", testutil.Label{Start: start, End: start.Add(4 * time.Second), Mode: "walk"})

	dir := t.TempDir()
	t.Setenv("FILEPATH", ds.Root)
	t.Setenv("FILEPATH_LABELED_IDS", ds.Manifest)
	t.Setenv("FILEPATH_ACTIVITY_IDS", filepath.Join(dir, "activity_ids.json"))
	t.Setenv("DB_PATH", filepath.Join(dir, "geolife.db"))

	out := execute(t, "ingest", "--log-level", "warn")
	assert.Contains(t, out, "2 activities (1 labeled), 15 track points")

	out = execute(t, "analyze", "dataset_counts", "--format", "yaml")
	assert.Equal(t, "activities: 2\ntrack_points: 15\nusers: 2\n", out)

	out = execute(t, "analyze", "mode_users", "-o", "json")
	assert.Contains(t, out, `"transportation_mode": "walk"`)

	out = execute(t, "status")
	assert.True(t, strings.Contains(out, "registered ids  2"), out)

	out = execute(t, "analyses")
	assert.Contains(t, out, "proximity")
}

func TestIngestRejectsUnknownPhase(t *testing.T) {
	rootCmd.SetArgs([]string{"ingest", "everything"})
	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})
	assert.Error(t, rootCmd.Execute())
}
