// Package testutil writes small trajectory datasets for tests.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jengzang/geolife-backend-go/internal/trajectory"
)

// Header is a trajectory file header of the standard six lines
var Header = []string{
	"Geolife trajectory",
	"WGS 84",
	"Altitude is in Feet",
	"Reserved 3",
	"0,2,255,My Track,0,0,2,8421376",
	"0",
}

// LabelTimeLayout is the time layout of labels.txt rows
const LabelTimeLayout = "2006/01/02 15:04:05"

// Dataset is a dataset root under a test temp dir
type Dataset struct {
	t        testing.TB
	Root     string
	Manifest string
}

// NewDataset creates an empty dataset root and manifest path
func NewDataset(t testing.TB) *Dataset {
	t.Helper()
	dir := t.TempDir()
	root := filepath.Join(dir, "Data")
	if err := os.MkdirAll(root, 0o755); err != nil {
		t.Fatal(err)
	}
	return &Dataset{t: t, Root: root, Manifest: filepath.Join(dir, "labeled_ids.txt")}
}

// WriteManifest writes the labeled-user-id manifest
func (d *Dataset) WriteManifest(ids ...string) {
	d.t.Helper()
	d.write(d.Manifest, strings.Join(ids, "\n")+"\n")
}

// WriteTrajectory writes a trajectory file with the standard header
func (d *Dataset) WriteTrajectory(user, name string, points []trajectory.RawPoint) string {
	d.t.Helper()
	lines := append([]string{}, Header...)
	for _, pt := range points {
		lines = append(lines, trajectory.FormatLine(pt))
	}
	path := filepath.Join(d.Root, user, "Trajectory", name)
	d.write(path, strings.Join(lines, "\r\n")+"\r\n")
	return path
}

// WriteRawTrajectory writes body verbatim after the standard header
func (d *Dataset) WriteRawTrajectory(user, name, body string) string {
	d.t.Helper()
	path := filepath.Join(d.Root, user, "Trajectory", name)
	d.write(path, strings.Join(Header, "\n")+"\n"+body)
	return path
}

// Label is one labels.txt row
type Label struct {
	Start, End time.Time
	Mode       string
}

// WriteLabels writes a user's labels.txt
func (d *Dataset) WriteLabels(user string, labels ...Label) string {
	d.t.Helper()
	var b strings.Builder
	b.WriteString("Start Time\tEnd Time\tTransportation Mode\n")
	for _, l := range labels {
		fmt.Fprintf(&b, "%s\t%s\t%s\n", l.Start.Format(LabelTimeLayout), l.End.Format(LabelTimeLayout), l.Mode)
	}
	path := filepath.Join(d.Root, user, "labels.txt")
	d.write(path, b.String())
	return path
}

// WriteRawLabels writes body verbatim as a user's labels.txt
func (d *Dataset) WriteRawLabels(user, body string) string {
	d.t.Helper()
	path := filepath.Join(d.Root, user, "labels.txt")
	d.write(path, body)
	return path
}

// AddUser creates an empty user directory
func (d *Dataset) AddUser(user string) {
	d.t.Helper()
	if err := os.MkdirAll(filepath.Join(d.Root, user, "Trajectory"), 0o755); err != nil {
		d.t.Fatal(err)
	}
}

func (d *Dataset) write(path, content string) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		d.t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		d.t.Fatal(err)
	}
}

// Track builds n points one interval apart starting at start, stepping north by step degrees
func Track(start time.Time, n int, interval time.Duration, lat, lon, step float64) []trajectory.RawPoint {
	points := make([]trajectory.RawPoint, n)
	for i := range points {
		points[i] = trajectory.RawPoint{
			Lat:      lat + float64(i)*step,
			Lon:      lon,
			Altitude: 100 + float64(i),
			DateDays: 39744.0 + float64(i)/86400,
			Time:     start.Add(time.Duration(i) * interval),
		}
	}
	return points
}
