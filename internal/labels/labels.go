// Package labels loads transportation-mode labels and matches them to activities.
package labels

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/jengzang/geolife-backend-go/internal/trajectory"
)

// TimeLayout is the time layout used by labels.txt
const TimeLayout = "2006/01/02 15:04:05"

// ErrLabelMatchAmbiguous marks an activity matched exactly by more than one label row
var ErrLabelMatchAmbiguous = errors.New("ambiguous label match")

// Label is one (start, end, mode) row
type Label struct {
	Start time.Time
	End   time.Time
	Mode  string
}

type span struct {
	start, end int64
}

// Matcher answers exact (start, end) label lookups for one user
type Matcher struct {
	labels []Label
	index  map[span][]int // positions in labels, in file order
}

// NewMatcher builds a matcher over labels kept in the given order
func NewMatcher(labels []Label) *Matcher {
	m := &Matcher{labels: labels, index: make(map[span][]int, len(labels))}
	for i, l := range labels {
		key := span{l.Start.Unix(), l.End.Unix()}
		m.index[key] = append(m.index[key], i)
	}
	return m
}

// Len returns the number of label rows
func (m *Matcher) Len() int {
	return len(m.labels)
}

// Match returns the mode of the label whose start and end both equal the
// given bounds. Overlapping labels never match. When several rows match,
// the last one in file order wins.
func (m *Matcher) Match(start, end time.Time) (string, bool) {
	positions := m.index[span{start.Unix(), end.Unix()}]
	if len(positions) == 0 {
		return "", false
	}
	return m.labels[positions[len(positions)-1]].Mode, true
}

// Candidates returns every exactly matching label in file order
func (m *Matcher) Candidates(start, end time.Time) []Label {
	positions := m.index[span{start.Unix(), end.Unix()}]
	out := make([]Label, 0, len(positions))
	for _, i := range positions {
		out = append(out, m.labels[i])
	}
	return out
}

// Load reads a user's labels.txt. A missing file yields an empty matcher.
func Load(path string) (*Matcher, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return NewMatcher(nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open label file: %w", err)
	}
	defer f.Close()

	var labels []Label
	lineNo := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		// Skip the column header
		if lineNo == 1 || line == "" {
			continue
		}
		l, err := ParseLine(line)
		if err != nil {
			return nil, &trajectory.MalformedLineError{Path: path, Line: lineNo, Reason: err.Error()}
		}
		labels = append(labels, l)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read label file: %w", err)
	}

	return NewMatcher(labels), nil
}

// ParseLine parses "start<TAB>end<TAB>mode"
func ParseLine(line string) (Label, error) {
	fields := strings.Split(line, "\t")
	if len(fields) != 3 {
		return Label{}, fmt.Errorf("expected 3 fields, got %d", len(fields))
	}

	start, err := time.ParseInLocation(TimeLayout, strings.TrimSpace(fields[0]), time.UTC)
	if err != nil {
		return Label{}, fmt.Errorf("invalid start time %q", fields[0])
	}
	end, err := time.ParseInLocation(TimeLayout, strings.TrimSpace(fields[1]), time.UTC)
	if err != nil {
		return Label{}, fmt.Errorf("invalid end time %q", fields[1])
	}
	mode := strings.TrimSpace(fields[2])
	if mode == "" {
		return Label{}, errors.New("empty transportation mode")
	}

	return Label{Start: start, End: end, Mode: mode}, nil
}

// LoadManifest reads the labeled-user-id manifest, one id per line
func LoadManifest(path string) (map[string]bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open labeled id manifest: %w", err)
	}
	defer f.Close()

	ids := make(map[string]bool)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if id := strings.TrimSpace(scanner.Text()); id != "" {
			ids[id] = true
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read labeled id manifest: %w", err)
	}
	return ids, nil
}
