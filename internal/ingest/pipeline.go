// Package ingest loads a trajectory dataset into the store in two passes:
// activities first, then their track points, joined by the activity id
// registry snapshot written at the end of the first pass.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jengzang/geolife-backend-go/internal/labels"
	"github.com/jengzang/geolife-backend-go/internal/models"
	"github.com/jengzang/geolife-backend-go/internal/observability"
	"github.com/jengzang/geolife-backend-go/internal/registry"
	"github.com/jengzang/geolife-backend-go/internal/trajectory"
)

const (
	trajectoryDir = "Trajectory"
	labelFile     = "labels.txt"
)

// Sink is the persistence side of ingestion. Every error it returns aborts the run.
type Sink interface {
	CreateSchema(ctx context.Context) error
	UpsertUser(ctx context.Context, u models.User) error
	UpsertActivity(ctx context.Context, a models.Activity) error
	ReplaceTrackPoints(ctx context.Context, activityID int64, points []models.TrackPoint) error
}

// Config locates the dataset
type Config struct {
	Root     string // directory holding one sub-directory per user
	Manifest string // labeled user ids, one per line
	Parser   *trajectory.Parser
}

// Pipeline runs the two ingestion passes
type Pipeline struct {
	sink     Sink
	store    registry.Store
	parser   *trajectory.Parser
	root     string
	manifest string
	logger   *slog.Logger
}

// NewPipeline creates a pipeline writing to sink and keeping ids in store
func NewPipeline(sink Sink, store registry.Store, cfg Config) *Pipeline {
	parser := cfg.Parser
	if parser == nil {
		parser = trajectory.DefaultParser()
	}
	return &Pipeline{
		sink:     sink,
		store:    store,
		parser:   parser,
		root:     cfg.Root,
		manifest: cfg.Manifest,
		logger:   slog.Default().With("component", "ingest"),
	}
}

// Users lists the user directories of the dataset in lexical order
func (p *Pipeline) Users() ([]string, error) {
	entries, err := os.ReadDir(p.root)
	if err != nil {
		return nil, fmt.Errorf("failed to list dataset root: %w", err)
	}
	var users []string
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			users = append(users, e.Name())
		}
	}
	return users, nil
}

// files lists a user's trajectory files in lexical order. A user without a
// trajectory directory has no files.
func (p *Pipeline) files(userID string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(p.root, userID, trajectoryDir))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list trajectories of user %s: %w", userID, err)
	}
	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() && !strings.HasPrefix(e.Name(), ".") {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// Run executes both passes
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	report := newReport(PhaseAll)

	activities, err := p.RunActivities(ctx)
	if activities != nil {
		report.merge(activities)
	}
	if err != nil {
		return report, err
	}

	points, err := p.RunTrackPoints(ctx)
	if points != nil {
		report.merge(points)
	}
	return report, err
}

// RunActivities stores users and one activity per admitted file, assigning
// activity ids, then saves the registry snapshot. Ids already in the
// snapshot are kept.
func (p *Pipeline) RunActivities(ctx context.Context) (*Report, error) {
	started := time.Now()
	report := newReport(PhaseActivities)

	if err := p.sink.CreateSchema(ctx); err != nil {
		return report, err
	}

	labeled, err := labels.LoadManifest(p.manifest)
	if err != nil {
		return report, err
	}

	reg, err := p.store.Load()
	if errors.Is(err, registry.ErrNoSnapshot) {
		reg = registry.New()
	} else if err != nil {
		return report, err
	}

	users, err := p.Users()
	if err != nil {
		return report, err
	}

	for _, userID := range users {
		matcher, ok := p.userLabels(userID, labeled[userID], report)
		if !ok {
			continue
		}
		if err := p.ingestUserActivities(ctx, reg, userID, labeled[userID], matcher, report); err != nil {
			return report, err
		}
		report.Users++
	}

	if err := p.store.Save(reg); err != nil {
		return report, fmt.Errorf("failed to save activity ids: %w", err)
	}

	report.Elapsed = time.Since(started)
	p.logger.Info("Activities ingested",
		"users", report.Users,
		"activities", humanize.Comma(int64(report.Activities)),
		"labeled", humanize.Comma(int64(report.LabeledActivities)),
		"rejected", report.FilesRejected,
		"failed", len(report.Failures),
		"registry", p.store.Path(),
		"elapsed", report.Elapsed.Round(time.Millisecond))
	return report, nil
}

// userLabels loads the label rows of a labeled user. An unreadable or
// malformed label file fails the whole user: none of their files is stored.
func (p *Pipeline) userLabels(userID string, hasLabels bool, report *Report) (*labels.Matcher, bool) {
	if !hasLabels {
		return labels.NewMatcher(nil), true
	}
	path := filepath.Join(p.root, userID, labelFile)
	m, err := labels.Load(path)
	if err != nil {
		report.fail(userID, path, err)
		p.logger.Warn("Skipping user with a bad label file", "user", userID, "path", path, "error", err)
		return nil, false
	}
	return m, true
}

func (p *Pipeline) ingestUserActivities(ctx context.Context, reg *registry.Registry, userID string, hasLabels bool, matcher *labels.Matcher, report *Report) error {
	if err := p.sink.UpsertUser(ctx, models.User{ID: userID, HasLabels: hasLabels}); err != nil {
		return err
	}

	names, err := p.files(userID)
	if err != nil {
		return err
	}

	stored := 0
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return err
		}

		path := filepath.Join(p.root, userID, trajectoryDir, name)
		points, ok := p.readFile(userID, path, PhaseActivities, report)
		if !ok {
			continue
		}

		activity := models.Activity{
			UserID:        userID,
			StartDateTime: points[0].Time,
			EndDateTime:   points[len(points)-1].Time,
		}

		candidates := matcher.Candidates(activity.StartDateTime, activity.EndDateTime)
		if len(candidates) > 1 {
			report.AmbiguousLabels++
			observability.RecordAmbiguousLabel()
			p.logger.Warn("Ambiguous label match, using the last row",
				"user", userID, "file", name, "matches", len(candidates),
				"error", labels.ErrLabelMatchAmbiguous)
		}
		if mode, ok := matcher.Match(activity.StartDateTime, activity.EndDateTime); ok {
			activity.TransportationMode = &mode
			report.LabeledActivities++
		}

		activity.ID = reg.Assign(userID, name)
		if err := p.sink.UpsertActivity(ctx, activity); err != nil {
			return err
		}
		report.Activities++
		stored++
		observability.RecordActivity(activity.TransportationMode != nil)
	}

	p.logger.Debug("User activities ingested", "user", userID, "files", len(names), "activities", stored)
	return nil
}

// RunTrackPoints stores the points of every admitted file under the id the
// snapshot holds for it. It requires a snapshot from RunActivities. Users
// skipped by the first pass for a bad label file are skipped again.
func (p *Pipeline) RunTrackPoints(ctx context.Context) (*Report, error) {
	started := time.Now()
	report := newReport(PhaseTrackPoints)

	reg, err := p.store.Load()
	if err != nil {
		return report, fmt.Errorf("failed to load activity ids: %w", err)
	}

	labeled, err := labels.LoadManifest(p.manifest)
	if err != nil {
		return report, err
	}

	users, err := p.Users()
	if err != nil {
		return report, err
	}

	for _, userID := range users {
		if _, ok := p.userLabels(userID, labeled[userID], report); !ok {
			continue
		}
		if err := p.ingestUserTrackPoints(ctx, reg, userID, report); err != nil {
			return report, err
		}
		report.Users++
	}

	report.Elapsed = time.Since(started)
	p.logger.Info("Track points ingested",
		"users", report.Users,
		"files", report.FilesAdmitted,
		"trackpoints", humanize.Comma(int64(report.TrackPoints)),
		"failed", len(report.Failures),
		"elapsed", report.Elapsed.Round(time.Millisecond))
	return report, nil
}

func (p *Pipeline) ingestUserTrackPoints(ctx context.Context, reg *registry.Registry, userID string, report *Report) error {
	names, err := p.files(userID)
	if err != nil {
		return err
	}

	stored := 0
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return err
		}

		path := filepath.Join(p.root, userID, trajectoryDir, name)
		points, ok := p.readFile(userID, path, PhaseTrackPoints, report)
		if !ok {
			continue
		}

		activityID, err := reg.Lookup(userID, name)
		if err != nil {
			report.fail(userID, path, err)
			observability.RecordFile(PhaseTrackPoints, observability.OutcomeFailed)
			continue
		}

		rows := make([]models.TrackPoint, len(points))
		for i, pt := range points {
			rows[i] = models.TrackPoint{
				ActivityID: activityID,
				Lat:        pt.Lat,
				Lon:        pt.Lon,
				Altitude:   pt.Altitude,
				DateDays:   pt.DateDays,
				DateTime:   pt.Time,
			}
		}
		if err := p.sink.ReplaceTrackPoints(ctx, activityID, rows); err != nil {
			return err
		}
		report.TrackPoints += len(rows)
		stored += len(rows)
		observability.RecordTrackPoints(len(rows))
	}

	p.logger.Debug("User track points ingested", "user", userID, "files", len(names), "trackpoints", humanize.Comma(int64(stored)))
	return nil
}

// readFile applies admission and parses the whole file. It returns false when
// the file is to be skipped, after recording why.
func (p *Pipeline) readFile(userID, path, phase string, report *Report) ([]trajectory.RawPoint, bool) {
	pf, admitted, err := p.parser.Open(path)
	if err != nil {
		report.fail(userID, path, err)
		observability.RecordFile(phase, observability.OutcomeFailed)
		return nil, false
	}
	if !admitted {
		report.FilesRejected++
		observability.RecordFile(phase, observability.OutcomeRejected)
		p.logger.Debug("Skipping oversized file", "user", userID, "path", path)
		return nil, false
	}

	points, err := pf.ReadAll()
	if err == nil && len(points) == 0 {
		err = ErrEmptyFile
	}
	if err != nil {
		report.fail(userID, path, err)
		observability.RecordFile(phase, observability.OutcomeFailed)
		p.logger.Warn("Skipping unreadable file", "user", userID, "path", path, "error", err)
		return nil, false
	}

	report.FilesAdmitted++
	observability.RecordFile(phase, observability.OutcomeAdmitted)
	return points, true
}
