package engine

import (
	"time"

	"github.com/DanteAc13/propintel/internal/model"
	"github.com/DanteAc13/propintel/internal/rules"
)

// Recorder receives processing measurements. The metrics package provides the
// Prometheus implementation.
type Recorder interface {
	rules.Observer
	ObserveMatchDuration(d time.Duration)
	ObserveIssue(issue *model.Issue)
}

type nopRecorder struct{}

func (nopRecorder) ObserveMatch(model.MatchInput, model.MatchResult) {}
func (nopRecorder) ObserveMatchDuration(time.Duration)               {}
func (nopRecorder) ObserveIssue(*model.Issue)                        {}
