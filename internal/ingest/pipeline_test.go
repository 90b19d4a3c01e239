package ingest_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/geolife-backend-go/internal/ingest"
	"github.com/jengzang/geolife-backend-go/internal/models"
	"github.com/jengzang/geolife-backend-go/internal/registry"
	"github.com/jengzang/geolife-backend-go/internal/repository"
	"github.com/jengzang/geolife-backend-go/internal/testutil"
	"github.com/jengzang/geolife-backend-go/internal/trajectory"
)

var (
	morning = time.Date(2008, 1, 1, 8, 0, 0, 0, time.UTC)
	evening = time.Date(2008, 1, 1, 18, 0, 0, 0, time.UTC)
)

type harness struct {
	ds       *testutil.Dataset
	db       *sql.DB
	store    registry.Store
	pipeline *ingest.Pipeline
}

func newHarness(t *testing.T) *harness {
	ds := testutil.NewDataset(t)
	db := testutil.OpenDB(t)
	store := registry.NewFileStore(filepath.Join(t.TempDir(), "activity_ids.json"))
	return &harness{
		ds:    ds,
		db:    db,
		store: store,
		pipeline: ingest.NewPipeline(repository.NewDatasetRepository(db), store, ingest.Config{
			Root:     ds.Root,
			Manifest: ds.Manifest,
		}),
	}
}

func (h *harness) count(t *testing.T, query string, args ...any) int {
	t.Helper()
	var n int
	require.NoError(t, h.db.QueryRow(query, args...).Scan(&n))
	return n
}

func (h *harness) activities(t *testing.T, user string) []models.Activity {
	t.Helper()
	acts, err := repository.NewActivityRepository(h.db).ListByUser(context.Background(), user)
	require.NoError(t, err)
	return acts
}

// 60 points, one minute apart: 08:00 to 08:59
func hourTrack(start time.Time) []trajectory.RawPoint {
	return testutil.Track(start, 60, time.Minute, 39.9, 116.3, 0.0001)
}

func TestRunIngestsActivitiesAndTrackPoints(t *testing.T) {
	h := newHarness(t)
	h.ds.WriteManifest("010")
	h.ds.WriteTrajectory("000", "a.plt", hourTrack(morning))
	h.ds.WriteTrajectory("000", "b.plt", hourTrack(evening))
	h.ds.WriteTrajectory("010", "c.plt", hourTrack(morning))
	h.ds.WriteLabels("010", testutil.Label{Start: morning, End: morning.Add(59 * time.Minute), Mode: "bus"})

	report, err := h.pipeline.Run(context.Background())
	require.NoError(t, err)
	require.NoError(t, report.Err())

	assert.Equal(t, 2, report.Users)
	assert.Equal(t, 3, report.Activities)
	assert.Equal(t, 1, report.LabeledActivities)
	assert.Equal(t, 180, report.TrackPoints)

	assert.Equal(t, 2, h.count(t, `SELECT COUNT(*) FROM users`))
	assert.Equal(t, 1, h.count(t, `SELECT COUNT(*) FROM users WHERE has_labels = 1`))
	assert.Equal(t, 180, h.count(t, `SELECT COUNT(*) FROM track_points`))

	acts := h.activities(t, "010")
	require.Len(t, acts, 1)
	assert.Equal(t, "bus", acts[0].Mode())
	assert.True(t, morning.Equal(acts[0].StartDateTime))
	assert.True(t, morning.Add(59*time.Minute).Equal(acts[0].EndDateTime))

	unlabeled := h.activities(t, "000")
	require.Len(t, unlabeled, 2)
	for _, a := range unlabeled {
		assert.Nil(t, a.TransportationMode)
	}
	for _, a := range append(unlabeled, acts...) {
		assert.Equal(t, 60, h.count(t, `SELECT COUNT(*) FROM track_points WHERE activity_id = ?`, a.ID))
	}
}

func TestTrackPointsKeepFileOrder(t *testing.T) {
	h := newHarness(t)
	h.ds.WriteManifest()
	// Out of order timestamps are stored as they appear
	points := hourTrack(morning)
	points[1], points[2] = points[2], points[1]
	h.ds.WriteTrajectory("000", "a.plt", points)

	_, err := h.pipeline.Run(context.Background())
	require.NoError(t, err)

	acts := h.activities(t, "000")
	require.Len(t, acts, 1)
	stored, _, err := repository.NewTrackRepository(h.db).ListByActivity(context.Background(), acts[0].ID, models.Page{PageSize: 10})
	require.NoError(t, err)
	for i, p := range stored {
		assert.True(t, points[i].Time.Equal(p.DateTime), "point %d", i)
		assert.Equal(t, points[i].Altitude, p.Altitude)
	}
}

func TestOversizedFileContributesNothing(t *testing.T) {
	h := newHarness(t)
	h.ds.WriteManifest()
	h.ds.WriteTrajectory("000", "big.plt", testutil.Track(morning, 2501, time.Second, 39.9, 116.3, 0))
	h.ds.WriteTrajectory("000", "small.plt", hourTrack(morning))

	report, err := h.pipeline.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.FilesRejected)
	assert.Equal(t, 1, report.Activities)
	assert.Equal(t, 60, h.count(t, `SELECT COUNT(*) FROM track_points`))

	reg, err := h.store.Load()
	require.NoError(t, err)
	assert.Equal(t, 1, reg.Len())
	_, err = reg.Lookup("000", "big.plt")
	assert.ErrorIs(t, err, registry.ErrUnknownActivityKey)
}

func TestMalformedFileIsSurfacedAndSkipped(t *testing.T) {
	h := newHarness(t)
	h.ds.WriteManifest()
	bad := h.ds.WriteRawTrajectory("000", "bad.plt", "39.98,116.31,0,492,39744.12,2008-10-23,02:53:04\nnot,a,point\n")
	h.ds.WriteTrajectory("000", "good.plt", hourTrack(morning))

	report, err := h.pipeline.RunActivities(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Activities)

	require.Len(t, report.Failures, 1)
	assert.Equal(t, bad, report.Failures[0].Path)
	assert.ErrorIs(t, report.Err(), trajectory.ErrMalformedLine)

	// The failed file consumed no id
	reg, err := h.store.Load()
	require.NoError(t, err)
	assert.Equal(t, int64(2), reg.Next())
}

func TestMalformedLabelFileSkipsUser(t *testing.T) {
	h := newHarness(t)
	h.ds.WriteManifest("010")
	h.ds.WriteTrajectory("000", "a.plt", hourTrack(morning))
	h.ds.WriteTrajectory("010", "c.plt", hourTrack(morning))
	bad := h.ds.WriteRawLabels("010", "Start Time\tEnd Time\tTransportation Mode\n"+
		"2008/01/01 08:00:00\t2008/01/01 08:59:00\tbus\n"+
		"garbage row\n")

	report, err := h.pipeline.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Users)
	assert.Equal(t, 1, report.Activities)
	assert.Zero(t, report.LabeledActivities)
	assert.Equal(t, 60, report.TrackPoints)

	require.NotEmpty(t, report.Failures)
	for _, f := range report.Failures {
		assert.Equal(t, "010", f.UserID)
		assert.Equal(t, bad, f.Path)
	}
	assert.ErrorIs(t, report.Err(), trajectory.ErrMalformedLine)

	assert.Empty(t, h.activities(t, "010"))
	assert.Zero(t, h.count(t, `SELECT COUNT(*) FROM users WHERE id = ?`, "010"))

	reg, err := h.store.Load()
	require.NoError(t, err)
	assert.Equal(t, 1, reg.Len())
	_, err = reg.Lookup("010", "c.plt")
	assert.ErrorIs(t, err, registry.ErrUnknownActivityKey)
}

func TestUnorderedFileKeepsEndBeforeStart(t *testing.T) {
	h := newHarness(t)
	h.ds.WriteManifest()
	track := hourTrack(morning)
	slices.Reverse(track)
	h.ds.WriteTrajectory("000", "backwards.plt", track)

	report, err := h.pipeline.Run(context.Background())
	require.NoError(t, err)
	require.NoError(t, report.Err())
	assert.Equal(t, 60, report.TrackPoints)

	acts := h.activities(t, "000")
	require.Len(t, acts, 1)
	assert.True(t, acts[0].StartDateTime.Equal(morning.Add(59*time.Minute)))
	assert.True(t, acts[0].EndDateTime.Equal(morning))
	assert.True(t, acts[0].EndDateTime.Before(acts[0].StartDateTime))
}

func TestEmptyFileIsAFailure(t *testing.T) {
	h := newHarness(t)
	h.ds.WriteManifest()
	h.ds.WriteTrajectory("000", "empty.plt", nil)

	report, err := h.pipeline.RunActivities(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.Activities)
	assert.ErrorIs(t, report.Err(), ingest.ErrEmptyFile)
}

func TestTrackPointsWithoutSnapshot(t *testing.T) {
	h := newHarness(t)
	h.ds.WriteManifest()
	h.ds.WriteTrajectory("000", "a.plt", hourTrack(morning))

	_, err := h.pipeline.RunTrackPoints(context.Background())
	assert.ErrorIs(t, err, registry.ErrNoSnapshot)
}

func TestTrackPointsUnknownKey(t *testing.T) {
	h := newHarness(t)
	h.ds.WriteManifest()
	h.ds.WriteTrajectory("000", "a.plt", hourTrack(morning))

	_, err := h.pipeline.RunActivities(context.Background())
	require.NoError(t, err)

	// A file added between the passes has no id
	h.ds.WriteTrajectory("000", "late.plt", hourTrack(evening))

	report, err := h.pipeline.RunTrackPoints(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 60, report.TrackPoints)
	require.Len(t, report.Failures, 1)
	assert.ErrorIs(t, report.Failures[0], registry.ErrUnknownActivityKey)
}

func TestRerunIsIdempotent(t *testing.T) {
	h := newHarness(t)
	h.ds.WriteManifest()
	h.ds.WriteTrajectory("000", "a.plt", hourTrack(morning))
	h.ds.WriteTrajectory("001", "a.plt", hourTrack(evening))

	_, err := h.pipeline.Run(context.Background())
	require.NoError(t, err)
	first := append(h.activities(t, "000"), h.activities(t, "001")...)

	_, err = h.pipeline.Run(context.Background())
	require.NoError(t, err)
	second := append(h.activities(t, "000"), h.activities(t, "001")...)

	assert.Equal(t, first, second)
	assert.Equal(t, 2, h.count(t, `SELECT COUNT(*) FROM activities`))
	assert.Equal(t, 120, h.count(t, `SELECT COUNT(*) FROM track_points`))
}

func TestIdsAreInjective(t *testing.T) {
	h := newHarness(t)
	h.ds.WriteManifest()
	for _, user := range []string{"000", "001", "002"} {
		for _, name := range []string{"a.plt", "b.plt", "c.plt"} {
			h.ds.WriteTrajectory(user, name, testutil.Track(morning, 3, time.Minute, 39.9, 116.3, 0))
		}
	}

	_, err := h.pipeline.RunActivities(context.Background())
	require.NoError(t, err)

	reg, err := h.store.Load()
	require.NoError(t, err)
	seen := map[int64]bool{}
	for _, e := range reg.Entries() {
		assert.False(t, seen[e.ID])
		seen[e.ID] = true
	}
	assert.Len(t, seen, 9)
	assert.Equal(t, 9, h.count(t, `SELECT COUNT(DISTINCT id) FROM activities`))
}

func TestAmbiguousLabelsLastRowWins(t *testing.T) {
	h := newHarness(t)
	h.ds.WriteManifest("010")
	h.ds.WriteTrajectory("010", "a.plt", hourTrack(morning))
	end := morning.Add(59 * time.Minute)
	h.ds.WriteLabels("010",
		testutil.Label{Start: morning, End: end, Mode: "walk"},
		testutil.Label{Start: morning, End: end, Mode: "taxi"},
	)

	report, err := h.pipeline.RunActivities(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.AmbiguousLabels)

	acts := h.activities(t, "010")
	require.Len(t, acts, 1)
	assert.Equal(t, "taxi", acts[0].Mode())
}

func TestCancelledBetweenFiles(t *testing.T) {
	h := newHarness(t)
	h.ds.WriteManifest()
	h.ds.WriteTrajectory("000", "a.plt", hourTrack(morning))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.pipeline.RunActivities(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Zero(t, h.count(t, `SELECT COUNT(*) FROM activities`))
}

func TestBoltRegistryStore(t *testing.T) {
	ds := testutil.NewDataset(t)
	ds.WriteManifest()
	ds.WriteTrajectory("000", "a.plt", hourTrack(morning))

	db := testutil.OpenDB(t)
	store, err := registry.NewStore(filepath.Join(t.TempDir(), "activity_ids.db"))
	require.NoError(t, err)
	defer store.Close()

	p := ingest.NewPipeline(repository.NewDatasetRepository(db), store, ingest.Config{Root: ds.Root, Manifest: ds.Manifest})
	report, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 60, report.TrackPoints)
}
