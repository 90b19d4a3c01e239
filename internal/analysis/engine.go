package analysis

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

var (
	// ErrUnknownAnalyzer is returned for a name no analyzer is registered under
	ErrUnknownAnalyzer = errors.New("unknown analyzer")
	// ErrInvalidParam is wrapped by every parameter parsing failure
	ErrInvalidParam = errors.New("invalid parameter")
)

// Analyzer is the interface that all analyses must implement
type Analyzer interface {
	// Analyze answers the question for the given parameters. The result is
	// JSON and YAML encodable.
	Analyze(ctx context.Context, params Params) (any, error)

	// GetName returns the name of the analyzer
	GetName() string

	// Describe returns a one-line description of the question answered
	Describe() string
}

// BaseAnalyzer provides common functionality for all analyzers
type BaseAnalyzer struct {
	DB          *sql.DB
	Name        string
	Description string
}

// NewBaseAnalyzer creates a new base analyzer
func NewBaseAnalyzer(db *sql.DB, name, description string) *BaseAnalyzer {
	return &BaseAnalyzer{
		DB:          db,
		Name:        name,
		Description: description,
	}
}

// GetName returns the analyzer name
func (a *BaseAnalyzer) GetName() string {
	return a.Name
}

// Describe returns the analyzer description
func (a *BaseAnalyzer) Describe() string {
	return a.Description
}

// AnalyzerFactory is a function that creates an analyzer instance
type AnalyzerFactory func(db *sql.DB) Analyzer

var (
	registryMu sync.RWMutex
	// AnalyzerRegistry maps analyzer names to factories
	AnalyzerRegistry = make(map[string]AnalyzerFactory)
)

// RegisterAnalyzer registers an analyzer factory under name
func RegisterAnalyzer(name string, factory AnalyzerFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	AnalyzerRegistry[name] = factory
}

// GetAnalyzer creates the analyzer registered under name
func GetAnalyzer(name string, db *sql.DB) (Analyzer, error) {
	registryMu.RLock()
	factory, ok := AnalyzerRegistry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAnalyzer, name)
	}
	return factory(db), nil
}

// AnalyzerNames returns the registered names in lexical order
func AnalyzerNames() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(AnalyzerRegistry))
	for name := range AnalyzerRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Params are the string parameters of one analysis run, as given on the
// command line or in a query string. Missing keys fall back to defaults.
type Params map[string]string

// ParamTimeLayout is the layout accepted for time parameters besides RFC 3339
const ParamTimeLayout = "2006-01-02 15:04:05"

// ParseParams parses "key=value" pairs
func ParseParams(pairs []string) (Params, error) {
	p := Params{}
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("%w: expected key=value, got %q", ErrInvalidParam, pair)
		}
		p[k] = strings.TrimSpace(v)
	}
	return p, nil
}

// String returns the value of key or def
func (p Params) String(key, def string) string {
	if v, ok := p[key]; ok && v != "" {
		return v
	}
	return def
}

// Int returns the integer value of key or def
func (p Params) Int(key string, def int) (int, error) {
	v, ok := p[key]
	if !ok || v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q is not an integer", ErrInvalidParam, key, v)
	}
	return n, nil
}

// Float returns the float value of key or def
func (p Params) Float(key string, def float64) (float64, error) {
	v, ok := p[key]
	if !ok || v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q is not a number", ErrInvalidParam, key, v)
	}
	return f, nil
}

// Duration returns the duration value of key or def
func (p Params) Duration(key string, def time.Duration) (time.Duration, error) {
	v, ok := p[key]
	if !ok || v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q is not a duration", ErrInvalidParam, key, v)
	}
	return d, nil
}

// Time returns the UTC time value of key or def. Both RFC 3339 and
// "YYYY-MM-DD HH:MM:SS" are accepted.
func (p Params) Time(key string, def time.Time) (time.Time, error) {
	v, ok := p[key]
	if !ok || v == "" {
		return def, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.UTC(), nil
	}
	t, err := time.ParseInLocation(ParamTimeLayout, v, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s=%q is not a time", ErrInvalidParam, key, v)
	}
	return t, nil
}
