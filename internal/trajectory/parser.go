// Package trajectory reads raw trajectory (.plt) files into typed points.
package trajectory

import (
	"bufio"
	"errors"
	"fmt"
	"iter"
	"os"
	"strconv"
	"strings"
	"time"
)

// Defaults for the trajectory file layout
const (
	DefaultHeaderLines = 6
	DefaultMaxPoints   = 2500

	// TimestampLayout is the layout of the date and time fields joined by a space
	TimestampLayout = "2006-01-02 15:04:05"

	fieldCount = 7
)

// ErrMalformedLine is wrapped by every parse failure of a point or label row
var ErrMalformedLine = errors.New("malformed line")

// MalformedLineError describes the offending line of a file
type MalformedLineError struct {
	Path   string
	Line   int // 1-based, counting header lines
	Reason string
}

func (e *MalformedLineError) Error() string {
	return fmt.Sprintf("%s:%d: %v: %s", e.Path, e.Line, ErrMalformedLine, e.Reason)
}

func (e *MalformedLineError) Unwrap() error { return ErrMalformedLine }

// RawPoint is one parsed line of a trajectory file
type RawPoint struct {
	Lat      float64
	Lon      float64
	Altitude float64 // feet, -777 when unknown
	DateDays float64
	Time     time.Time
}

// Parser opens trajectory files and applies the admission rule
type Parser struct {
	HeaderLines int
	MaxPoints   int
}

// NewParser creates a parser with the given header size and point cap
func NewParser(headerLines, maxPoints int) *Parser {
	return &Parser{HeaderLines: headerLines, MaxPoints: maxPoints}
}

// DefaultParser returns a parser for the standard file layout
func DefaultParser() *Parser {
	return NewParser(DefaultHeaderLines, DefaultMaxPoints)
}

// PointFile is an admitted trajectory file
type PointFile struct {
	Path  string
	Count int

	headerLines int
}

// Open counts the data lines of path and applies the admission rule.
// admitted is false when the file holds more than MaxPoints points; callers
// must skip such a file entirely. It is not an error.
func (p *Parser) Open(path string) (pf *PointFile, admitted bool, err error) {
	count, err := p.count(path)
	if err != nil {
		return nil, false, err
	}
	if count > p.MaxPoints {
		return nil, false, nil
	}
	return &PointFile{Path: path, Count: count, headerLines: p.HeaderLines}, true, nil
}

// count returns the number of non-blank lines after the header.
func (p *Parser) count(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open trajectory file: %w", err)
	}
	defer f.Close()

	n, lineNo := 0, 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lineNo++
		if lineNo <= p.HeaderLines {
			continue
		}
		if strings.TrimSpace(scanner.Text()) != "" {
			n++
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("failed to read trajectory file: %w", err)
	}
	return n, nil
}

// Points yields the points of the file in order. Each range re-reads the
// file, so the sequence can be consumed more than once. Iteration stops
// after the first error.
func (pf *PointFile) Points() iter.Seq2[RawPoint, error] {
	return func(yield func(RawPoint, error) bool) {
		f, err := os.Open(pf.Path)
		if err != nil {
			yield(RawPoint{}, fmt.Errorf("failed to open trajectory file: %w", err))
			return
		}
		defer f.Close()

		lineNo := 0
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			lineNo++
			if lineNo <= pf.headerLines {
				continue
			}
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			pt, err := ParseLine(line)
			if err != nil {
				yield(RawPoint{}, &MalformedLineError{Path: pf.Path, Line: lineNo, Reason: err.Error()})
				return
			}
			if !yield(pt, nil) {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			yield(RawPoint{}, fmt.Errorf("failed to read trajectory file: %w", err))
		}
	}
}

// ReadAll parses the whole file. A malformed line fails the file as a whole.
func (pf *PointFile) ReadAll() ([]RawPoint, error) {
	points := make([]RawPoint, 0, pf.Count)
	for pt, err := range pf.Points() {
		if err != nil {
			return nil, err
		}
		points = append(points, pt)
	}
	return points, nil
}

// ParseLine parses a single data line:
// lat,lon,0,altitude,date_days,YYYY-MM-DD,HH:MM:SS
func ParseLine(line string) (RawPoint, error) {
	fields := strings.Split(line, ",")
	if len(fields) != fieldCount {
		return RawPoint{}, fmt.Errorf("expected %d fields, got %d", fieldCount, len(fields))
	}

	var pt RawPoint
	var err error
	if pt.Lat, err = parseFloat(fields[0], "latitude"); err != nil {
		return RawPoint{}, err
	}
	if pt.Lon, err = parseFloat(fields[1], "longitude"); err != nil {
		return RawPoint{}, err
	}
	if pt.Altitude, err = parseFloat(fields[3], "altitude"); err != nil {
		return RawPoint{}, err
	}
	if pt.DateDays, err = parseFloat(fields[4], "date days"); err != nil {
		return RawPoint{}, err
	}

	stamp := strings.TrimSpace(fields[len(fields)-2]) + " " + strings.TrimSpace(fields[len(fields)-1])
	pt.Time, err = time.ParseInLocation(TimestampLayout, stamp, time.UTC)
	if err != nil {
		return RawPoint{}, fmt.Errorf("invalid timestamp %q", stamp)
	}

	return pt, nil
}

func parseFloat(s, field string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", field, s)
	}
	return v, nil
}

// FormatLine renders pt in the data line layout read by ParseLine
func FormatLine(pt RawPoint) string {
	stamp := pt.Time.UTC()
	return strings.Join([]string{
		strconv.FormatFloat(pt.Lat, 'f', -1, 64),
		strconv.FormatFloat(pt.Lon, 'f', -1, 64),
		"0",
		strconv.FormatFloat(pt.Altitude, 'f', -1, 64),
		strconv.FormatFloat(pt.DateDays, 'f', -1, 64),
		stamp.Format("2006-01-02"),
		stamp.Format("15:04:05"),
	}, ",")
}
