// Package engine records inspection observations and keeps their generated issues in sync.
// It is the calling layer around the rules package: it matches before opening a
// transaction, then persists the observation and its issue atomically.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/DanteAc13/propintel/internal/common"
	"github.com/DanteAc13/propintel/internal/model"
	"github.com/DanteAc13/propintel/internal/rules"
	"github.com/DanteAc13/propintel/internal/service"
	"github.com/DanteAc13/propintel/internal/storage"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// ErrInvalidObservation is returned when an observation cannot be matched.
var ErrInvalidObservation = errors.New("invalid observation")

// Processor runs observations through the matcher and the issue generator.
type Processor struct {
	storage  service.Storage
	matcher  *rules.Matcher
	recorder Recorder
	retry    common.RetryOptions
	parallel int
}

// Config holds configuration options for the processor.
type Config struct {
	Recorder Recorder
	Retry    common.RetryOptions
	Parallel int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Retry:    common.DefaultRetryOptions(),
		Parallel: 4,
	}
}

// New creates a processor with the default configuration.
func New(storage service.Storage) *Processor {
	return NewWithConfig(storage, DefaultConfig())
}

// NewWithConfig creates a processor with custom configuration.
func NewWithConfig(storage service.Storage, config Config) *Processor {
	recorder := config.Recorder
	if recorder == nil {
		recorder = nopRecorder{}
	}
	parallel := config.Parallel
	if parallel < 1 {
		parallel = 1
	}
	return &Processor{
		storage:  storage,
		matcher:  rules.NewMatcher(storage).WithObserver(recorder),
		recorder: recorder,
		retry:    config.Retry,
		parallel: parallel,
	}
}

// Outcome is the result of processing one observation.
type Outcome struct {
	Observation *model.Observation `json:"observation"`
	Issue       *model.Issue       `json:"issue"`
	Match       model.MatchResult  `json:"match"`
	// Regenerated is false when an update left the existing issues untouched.
	Regenerated bool `json:"regenerated"`
}

// NeedsReview reports whether the observation produced no issue and must be
// classified by hand.
func (o *Outcome) NeedsReview() bool {
	return o.Regenerated && o.Issue == nil
}

// ObservationPatch holds the fields of an update. Nil fields are left unchanged.
type ObservationPatch struct {
	Component      *string
	Status         *model.ObservationStatus
	Severity       *model.ObservationSeverity
	Urgency        *model.Urgency
	DescriptionRaw *string
	LocationDetail *string
	InspectorNotes *string
}

// rematch reports whether the patch touches a field that drives matching.
func (p ObservationPatch) rematch() bool {
	return p.Status != nil || p.Severity != nil
}

// Record stores a new observation together with the issue its match produces.
// An empty ID is assigned and an empty urgency is derived from the severity.
func (p *Processor) Record(ctx context.Context, obs *model.Observation) (*Outcome, error) {
	if obs == nil {
		return nil, fmt.Errorf("%w: nil observation", ErrInvalidObservation)
	}
	if obs.ID == "" {
		obs.ID = uuid.New().String()
	}
	if obs.Urgency == "" {
		obs.Urgency = CalculateUrgency(obs.Severity)
	}
	if err := checkMatchable(obs); err != nil {
		return nil, err
	}

	result, err := p.match(ctx, obs)
	if err != nil {
		return nil, err
	}
	issue := p.generate(obs, result)

	err = p.inTx(ctx, func(tx service.Transaction) error {
		if err := tx.SaveObservation(ctx, obs); err != nil {
			return err
		}
		if issue == nil {
			return nil
		}
		return tx.SaveIssue(ctx, issue)
	})
	if err != nil {
		return nil, err
	}

	outcome := &Outcome{Observation: obs, Issue: issue, Match: result, Regenerated: true}
	p.report(outcome)
	return outcome, nil
}

// Update applies patch to a stored observation. When the patch sets the status or
// the severity, existing issues are deleted and the observation is matched again.
func (p *Processor) Update(ctx context.Context, id string, patch ObservationPatch) (*Outcome, error) {
	obs, err := p.storage.GetObservation(ctx, id)
	if err != nil {
		return nil, err
	}
	patch.apply(obs)
	if err := checkMatchable(obs); err != nil {
		return nil, err
	}

	outcome := &Outcome{Observation: obs, Regenerated: patch.rematch()}
	if outcome.Regenerated {
		outcome.Match, err = p.match(ctx, obs)
		if err != nil {
			return nil, err
		}
		outcome.Issue = p.generate(obs, outcome.Match)
	}

	err = p.inTx(ctx, func(tx service.Transaction) error {
		if err := tx.SaveObservation(ctx, obs); err != nil {
			return err
		}
		if !outcome.Regenerated {
			return nil
		}
		return replaceIssue(ctx, tx, obs.ID, outcome.Issue)
	})
	if err != nil {
		return nil, err
	}

	if outcome.Regenerated {
		p.report(outcome)
	}
	return outcome, nil
}

// Delete removes an observation and its issues.
func (p *Processor) Delete(ctx context.Context, id string) error {
	var removed int64
	err := p.inTx(ctx, func(tx service.Transaction) error {
		var err error
		removed, err = tx.DeleteIssuesByObservation(ctx, id)
		if err != nil {
			return err
		}
		return tx.DeleteObservation(ctx, id)
	})
	if err != nil {
		return err
	}

	slog.Info("Deleted observation", "observation_id", id, "issues_removed", removed)
	return nil
}

// ReprocessResult summarizes a Reprocess run.
type ReprocessResult struct {
	Observations int
	Issues       int
	NeedsReview  int
}

// Reprocess matches every observation of an inspection again, typically after the
// dictionary changed, and replaces their issues. Matching runs concurrently and the
// writes are applied in order inside one transaction. progress, if non-nil, is
// called once per matched observation and may be called from several goroutines.
func (p *Processor) Reprocess(ctx context.Context, inspectionID string, progress func()) (ReprocessResult, error) {
	var summary ReprocessResult

	observations, err := p.storage.ListObservationsByInspection(ctx, inspectionID)
	if err != nil {
		return summary, err
	}
	if len(observations) == 0 {
		return summary, nil
	}

	outcomes := make([]Outcome, len(observations))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(p.parallel)
	for i := range observations {
		g.Go(func() error {
			obs := &observations[i]
			result, err := p.match(gCtx, obs)
			if err != nil {
				return fmt.Errorf("observation %s: %w", obs.ID, err)
			}
			outcomes[i] = Outcome{
				Observation: obs,
				Match:       result,
				Issue:       p.generate(obs, result),
				Regenerated: true,
			}
			if progress != nil {
				progress()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return summary, err
	}

	err = p.inTx(ctx, func(tx service.Transaction) error {
		for i := range outcomes {
			if err := ctx.Err(); err != nil {
				return err
			}
			outcome := &outcomes[i]
			if err := replaceIssue(ctx, tx, outcome.Observation.ID, outcome.Issue); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return summary, err
	}

	for i := range outcomes {
		p.report(&outcomes[i])
		summary.Observations++
		if outcomes[i].Issue != nil {
			summary.Issues++
		} else {
			summary.NeedsReview++
		}
	}

	slog.Info("Reprocessed inspection",
		"inspection_id", inspectionID,
		"observations", summary.Observations,
		"issues", summary.Issues,
		"needs_review", summary.NeedsReview)

	return summary, nil
}

// inTx runs fn in a transaction, starting over while SQLite reports the database
// as busy. Any other error rolls back and is returned as is.
func (p *Processor) inTx(ctx context.Context, fn func(tx service.Transaction) error) error {
	return common.WithRetry(ctx, func() error {
		tx, err := p.storage.BeginTx(ctx)
		if err != nil {
			return retryable(err)
		}
		defer func() { _ = tx.Rollback() }()

		if err := fn(tx); err != nil {
			return retryable(err)
		}
		if err := tx.Commit(); err != nil {
			return retryable(fmt.Errorf("failed to commit transaction: %w", err))
		}
		return nil
	}, p.retry)
}

func retryable(err error) error {
	if storage.IsBusy(err) {
		return err
	}
	return common.Permanent(err)
}

func (p *Processor) match(ctx context.Context, obs *model.Observation) (model.MatchResult, error) {
	start := time.Now()
	result, err := p.matcher.Match(ctx, obs.MatchInput())
	if err != nil {
		return model.MatchResult{}, fmt.Errorf("failed to match observation: %w", err)
	}
	p.recorder.ObserveMatchDuration(time.Since(start))
	return result, nil
}

func (p *Processor) generate(obs *model.Observation, result model.MatchResult) *model.Issue {
	return rules.GenerateIssue(rules.IssueInput{
		ObservationID: obs.ID,
		InspectionID:  obs.InspectionID,
		PropertyID:    obs.PropertyID,
		Urgency:       obs.Urgency,
		Match:         result,
	})
}

// report runs after a successful commit so nothing is counted for rolled back work.
func (p *Processor) report(o *Outcome) {
	if o.Issue != nil {
		p.recorder.ObserveIssue(o.Issue)
		return
	}
	slog.Info("Observation needs manual review",
		"observation_id", o.Observation.ID,
		"component", o.Observation.Component,
		"status", o.Observation.Status,
		"match_type", o.Match.MatchType)
}

func replaceIssue(ctx context.Context, tx service.Transaction, observationID string, issue *model.Issue) error {
	if _, err := tx.DeleteIssuesByObservation(ctx, observationID); err != nil {
		return err
	}
	if issue == nil {
		return nil
	}
	return tx.SaveIssue(ctx, issue)
}

func checkMatchable(obs *model.Observation) error {
	if !obs.Status.IsValid() {
		return fmt.Errorf("%w: status %q", ErrInvalidObservation, obs.Status)
	}
	if !obs.Severity.IsValid() {
		return fmt.Errorf("%w: severity %q", ErrInvalidObservation, obs.Severity)
	}
	return nil
}

func (p ObservationPatch) apply(obs *model.Observation) {
	if p.Component != nil {
		obs.Component = *p.Component
	}
	if p.Status != nil {
		obs.Status = *p.Status
	}
	if p.Severity != nil {
		obs.Severity = *p.Severity
	}
	if p.Urgency != nil {
		obs.Urgency = *p.Urgency
	}
	if p.DescriptionRaw != nil {
		obs.DescriptionRaw = *p.DescriptionRaw
	}
	if p.LocationDetail != nil {
		obs.LocationDetail = *p.LocationDetail
	}
	if p.InspectorNotes != nil {
		obs.InspectorNotes = *p.InspectorNotes
	}
}
