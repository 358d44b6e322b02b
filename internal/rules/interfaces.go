// Package rules converts inspection observations into normalized issues using the defect dictionary.
//
// Matching runs three tiers and the first hit wins:
//
//  1. exact component and condition with a matching severity
//  2. exact component and condition on a severity-agnostic entry
//  3. fuzzy component (substring or edit distance below 3) within the same condition
//
// An observation that clears none of the tiers yields a MatchResult with Matched false,
// which callers treat as "flag for manual review".
package rules

import (
	"context"

	"github.com/DanteAc13/propintel/internal/model"
)

// SeverityMode selects how a DefectQuery constrains severity_match.
type SeverityMode int

const (
	// SeverityAny ignores severity_match.
	SeverityAny SeverityMode = iota
	// SeverityEquals requires severity_match to equal DefectQuery.Severity.
	SeverityEquals
	// SeverityUnset requires severity_match to be null.
	SeverityUnset
)

// DefectQuery filters dictionary entries by equality. A nil Component matches every component.
type DefectQuery struct {
	Component         *string
	SectionTemplateID string
	Condition         model.ObservationStatus
	Severity          model.ObservationSeverity
	SeverityMode      SeverityMode
}

// Dictionary is the read-only view of the defect dictionary the matcher depends on.
type Dictionary interface {
	// FindDefects returns active entries satisfying q in natural dictionary order.
	FindDefects(ctx context.Context, q DefectQuery) ([]model.DefectEntry, error)
}

// Observer is notified about every completed match.
type Observer interface {
	ObserveMatch(input model.MatchInput, result model.MatchResult)
}
