package rules

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/DanteAc13/propintel/internal/model"
)

// fuzzyMaxDistance is the exclusive upper bound on edit distance for a fuzzy hit.
const fuzzyMaxDistance = 3

// Matcher evaluates observations against the defect dictionary.
// It holds no per-call state and is safe for concurrent use.
type Matcher struct {
	dict     Dictionary
	observer Observer
}

// NewMatcher creates a matcher reading from dict.
func NewMatcher(dict Dictionary) *Matcher {
	return &Matcher{dict: dict}
}

// WithObserver returns a copy of the matcher that reports results to o.
func (m *Matcher) WithObserver(o Observer) *Matcher {
	return &Matcher{dict: m.dict, observer: o}
}

// Match finds the dictionary entry for input. A miss is not an error: it returns a
// result with Matched false. Errors only come from the dictionary itself.
func (m *Matcher) Match(ctx context.Context, input model.MatchInput) (model.MatchResult, error) {
	result, err := m.match(ctx, input)
	if err != nil {
		return model.MatchResult{}, err
	}

	slog.Debug("Matched observation",
		"section_template_id", input.SectionTemplateID,
		"component", input.Component,
		"status", input.Status,
		"severity", input.Severity,
		"match_type", result.MatchType)

	if m.observer != nil {
		m.observer.ObserveMatch(input, result)
	}
	return result, nil
}

func (m *Matcher) match(ctx context.Context, input model.MatchInput) (model.MatchResult, error) {
	component := input.Component

	// Tier 1: exact component, severity must equal the observation's.
	defect, err := m.first(ctx, DefectQuery{
		SectionTemplateID: input.SectionTemplateID,
		Component:         &component,
		Condition:         input.Status,
		Severity:          input.Severity,
		SeverityMode:      SeverityEquals,
	})
	if err != nil {
		return model.MatchResult{}, fmt.Errorf("exact match with severity: %w", err)
	}
	if defect != nil {
		return model.MatchFromDefect(*defect, model.MatchTypeExact), nil
	}

	// Tier 2: exact component on an entry that applies to any severity.
	defect, err = m.first(ctx, DefectQuery{
		SectionTemplateID: input.SectionTemplateID,
		Component:         &component,
		Condition:         input.Status,
		SeverityMode:      SeverityUnset,
	})
	if err != nil {
		return model.MatchResult{}, fmt.Errorf("exact match without severity: %w", err)
	}
	if defect != nil {
		return model.MatchFromDefect(*defect, model.MatchTypeExact), nil
	}

	// Tier 3: every entry for the section and condition, first fuzzy hit wins.
	candidates, err := m.dict.FindDefects(ctx, DefectQuery{
		SectionTemplateID: input.SectionTemplateID,
		Condition:         input.Status,
		SeverityMode:      SeverityAny,
	})
	if err != nil {
		return model.MatchResult{}, fmt.Errorf("fuzzy match candidates: %w", err)
	}

	if defect := firstFuzzy(component, candidates); defect != nil {
		return model.MatchFromDefect(*defect, model.MatchTypeFuzzy), nil
	}

	return model.NoMatch(), nil
}

// first returns the first active entry for q, or nil.
func (m *Matcher) first(ctx context.Context, q DefectQuery) (*model.DefectEntry, error) {
	defects, err := m.dict.FindDefects(ctx, q)
	if err != nil {
		return nil, err
	}
	for i := range defects {
		if !defects[i].IsActive {
			continue
		}
		// Tier 1 must never return a null-severity row.
		if !matchesSeverity(defects[i], q) {
			continue
		}
		return &defects[i], nil
	}
	return nil, nil
}

func matchesSeverity(d model.DefectEntry, q DefectQuery) bool {
	switch q.SeverityMode {
	case SeverityEquals:
		return d.SeverityMatch != nil && *d.SeverityMatch == q.Severity
	case SeverityUnset:
		return d.SeverityMatch == nil
	default:
		return true
	}
}

// firstFuzzy scans candidates in order and returns the first whose component passes
// the substring test or the edit-distance test. It is first-match, not best-match.
func firstFuzzy(component string, candidates []model.DefectEntry) *model.DefectEntry {
	componentLower := strings.ToLower(component)

	for i := range candidates {
		if !candidates[i].IsActive {
			continue
		}
		candidateLower := strings.ToLower(candidates[i].ComponentMatch)

		if strings.Contains(componentLower, candidateLower) || strings.Contains(candidateLower, componentLower) {
			return &candidates[i]
		}

		if Levenshtein(componentLower, candidateLower) < fuzzyMaxDistance {
			return &candidates[i]
		}
	}
	return nil
}
