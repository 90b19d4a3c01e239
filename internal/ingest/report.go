package ingest

import (
	"errors"
	"fmt"
	"time"
)

// Pass names
const (
	PhaseActivities  = "activities"
	PhaseTrackPoints = "trackpoints"
	PhaseAll         = "all"
)

// ErrEmptyFile marks an admitted trajectory file without any point
var ErrEmptyFile = errors.New("trajectory file has no points")

// FileError is a failure confined to one file; the run goes on without it
type FileError struct {
	UserID string
	Path   string
	Err    error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("user %s: %s: %v", e.UserID, e.Path, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }

// Report summarizes one ingestion run
type Report struct {
	Phase string

	Users         int
	FilesAdmitted int
	FilesRejected int // over the point cap

	Activities        int
	LabeledActivities int
	AmbiguousLabels   int
	TrackPoints       int

	Failures []*FileError
	Elapsed  time.Duration
}

func newReport(phase string) *Report {
	return &Report{Phase: phase}
}

func (r *Report) fail(userID, path string, err error) {
	r.Failures = append(r.Failures, &FileError{UserID: userID, Path: path, Err: err})
}

// Err joins every file failure, or returns nil when there were none
func (r *Report) Err() error {
	if len(r.Failures) == 0 {
		return nil
	}
	errs := make([]error, len(r.Failures))
	for i, f := range r.Failures {
		errs[i] = f
	}
	return errors.Join(errs...)
}

// merge adds the counts of o into r. Users and admitted files are
// the same set in both passes, so the larger count is kept.
func (r *Report) merge(o *Report) {
	r.Users = max(r.Users, o.Users)
	r.FilesAdmitted = max(r.FilesAdmitted, o.FilesAdmitted)
	r.FilesRejected = max(r.FilesRejected, o.FilesRejected)
	r.Activities += o.Activities
	r.LabeledActivities += o.LabeledActivities
	r.AmbiguousLabels += o.AmbiguousLabels
	r.TrackPoints += o.TrackPoints
	r.Failures = append(r.Failures, o.Failures...)
	r.Elapsed += o.Elapsed
}
