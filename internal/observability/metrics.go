// Package observability holds the process-wide prometheus collectors.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// File outcomes of an ingestion pass
const (
	OutcomeAdmitted = "admitted"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

var (
	ingestFiles = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "geolife",
		Subsystem: "ingest",
		Name:      "files_total",
		Help:      "Trajectory files seen by ingestion, by pass and outcome.",
	}, []string{"phase", "outcome"})

	ingestActivities = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "geolife",
		Subsystem: "ingest",
		Name:      "activities_total",
		Help:      "Activities stored, by whether a label matched.",
	}, []string{"labeled"})

	ingestTrackPoints = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "geolife",
		Subsystem: "ingest",
		Name:      "trackpoints_total",
		Help:      "Track points stored.",
	})

	ambiguousLabels = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "geolife",
		Subsystem: "ingest",
		Name:      "ambiguous_label_matches_total",
		Help:      "Activities matched exactly by more than one label row.",
	})

	analysisDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "geolife",
		Subsystem: "analysis",
		Name:      "duration_seconds",
		Help:      "Wall time of analyzer runs.",
		Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
	}, []string{"analyzer", "status"})

	analysisCacheHits = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "geolife",
		Subsystem: "analysis",
		Name:      "cache_hits_total",
		Help:      "Analyzer results served from the result cache.",
	}, []string{"analyzer"})
)

func init() {
	prometheus.MustRegister(ingestFiles, ingestActivities, ingestTrackPoints, ambiguousLabels, analysisDuration, analysisCacheHits)
}

// RecordFile counts one trajectory file outcome of a pass ("activities" or "trackpoints")
func RecordFile(phase, outcome string) {
	ingestFiles.WithLabelValues(phase, outcome).Inc()
}

// RecordActivity counts one stored activity
func RecordActivity(labeled bool) {
	v := "false"
	if labeled {
		v = "true"
	}
	ingestActivities.WithLabelValues(v).Inc()
}

// RecordTrackPoints counts stored track points
func RecordTrackPoints(n int) {
	ingestTrackPoints.Add(float64(n))
}

// RecordAmbiguousLabel counts an activity with several exact label matches
func RecordAmbiguousLabel() {
	ambiguousLabels.Inc()
}

// RecordAnalysis observes one analyzer run
func RecordAnalysis(analyzer, status string, elapsed time.Duration) {
	analysisDuration.WithLabelValues(analyzer, status).Observe(elapsed.Seconds())
}

// RecordCacheHit counts a cached analyzer result
func RecordCacheHit(analyzer string) {
	analysisCacheHits.WithLabelValues(analyzer).Inc()
}
