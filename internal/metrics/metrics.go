// Package metrics exposes rules engine counters on a private Prometheus registry.
package metrics

import (
	"fmt"
	"time"

	"github.com/DanteAc13/propintel/internal/model"
	"github.com/prometheus/client_golang/prometheus"
)

// Collector implements engine.Recorder.
type Collector struct {
	registry *prometheus.Registry

	// MatchesTotal counts matches by tier outcome.
	MatchesTotal *prometheus.CounterVec
	// IssuesGeneratedTotal counts issues by severity label.
	IssuesGeneratedTotal *prometheus.CounterVec
	// MatchDurationSeconds is the time spent querying the dictionary per observation.
	MatchDurationSeconds prometheus.Histogram
}

// New creates a collector with its own registry.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		MatchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "propintel",
			Subsystem: "rules",
			Name:      "matches_total",
			Help:      "Total number of observations matched against the defect dictionary, labeled by match type.",
		}, []string{"match_type"}),
		IssuesGeneratedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "propintel",
			Subsystem: "rules",
			Name:      "issues_generated_total",
			Help:      "Total number of issues generated from matched observations, labeled by severity label.",
		}, []string{"severity_label"}),
		MatchDurationSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "propintel",
			Subsystem: "rules",
			Name:      "match_duration_seconds",
			Help:      "Time to run all match tiers for one observation.",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
		}),
	}

	c.registry.MustRegister(c.MatchesTotal, c.IssuesGeneratedTotal, c.MatchDurationSeconds)

	// Pre-create label values so every series is present from the first scrape.
	for _, mt := range []model.MatchType{model.MatchTypeExact, model.MatchTypeFuzzy, model.MatchTypeNone} {
		c.MatchesTotal.WithLabelValues(string(mt))
	}
	return c
}

// Registry returns the collector's registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// ObserveMatch implements rules.Observer.
func (c *Collector) ObserveMatch(_ model.MatchInput, result model.MatchResult) {
	c.MatchesTotal.WithLabelValues(string(result.MatchType)).Inc()
}

// ObserveMatchDuration records how long one match took.
func (c *Collector) ObserveMatchDuration(d time.Duration) {
	c.MatchDurationSeconds.Observe(d.Seconds())
}

// ObserveIssue counts a generated issue.
func (c *Collector) ObserveIssue(issue *model.Issue) {
	if issue == nil {
		return
	}
	c.IssuesGeneratedTotal.WithLabelValues(string(issue.SeverityLabel)).Inc()
}

// WriteTextfile writes the current values in the text exposition format, for the
// node exporter textfile collector. The write is atomic.
func (c *Collector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
