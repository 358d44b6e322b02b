package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/DanteAc13/propintel/internal/model"
)

// Validation errors.
var (
	ErrNilContext         = errors.New("context cannot be nil")
	ErrEmptyString        = errors.New("string parameter cannot be empty")
	ErrNilParameter       = errors.New("parameter cannot be nil")
	ErrInvalidDefect      = errors.New("invalid defect entry")
	ErrInvalidObservation = errors.New("invalid observation")
	ErrInvalidIssue       = errors.New("invalid issue")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateSectionTemplate(tmpl *model.SectionTemplate) error {
	if tmpl == nil {
		return fmt.Errorf("%w: section template", ErrNilParameter)
	}
	return validateString(tmpl.Name, "name")
}

func validateDefect(d *model.DefectEntry) error {
	if d == nil {
		return fmt.Errorf("%w: defect", ErrNilParameter)
	}
	if strings.TrimSpace(d.SectionTemplateID) == "" {
		return fmt.Errorf("%w: section_template_id is required", ErrInvalidDefect)
	}
	if strings.TrimSpace(d.ComponentMatch) == "" {
		return fmt.Errorf("%w: component_match is required", ErrInvalidDefect)
	}
	if !d.ConditionMatch.IsValid() {
		return fmt.Errorf("%w: condition_match %q", ErrInvalidDefect, d.ConditionMatch)
	}
	if d.SeverityMatch != nil && !d.SeverityMatch.IsValid() {
		return fmt.Errorf("%w: severity_match %q", ErrInvalidDefect, *d.SeverityMatch)
	}
	if strings.TrimSpace(d.NormalizedTitle) == "" {
		return fmt.Errorf("%w: normalized_title is required", ErrInvalidDefect)
	}
	if d.DefaultSeverityScore < 1 || d.DefaultSeverityScore > 4 {
		return fmt.Errorf("%w: default_severity_score %d outside 1-4", ErrInvalidDefect, d.DefaultSeverityScore)
	}
	return nil
}

func validateObservation(obs *model.Observation) error {
	if obs == nil {
		return fmt.Errorf("%w: observation", ErrNilParameter)
	}
	required := []struct{ name, value string }{
		{"id", obs.ID},
		{"inspection_id", obs.InspectionID},
		{"property_id", obs.PropertyID},
		{"section_template_id", obs.SectionTemplateID},
		{"component", obs.Component},
	}
	for _, field := range required {
		if strings.TrimSpace(field.value) == "" {
			return fmt.Errorf("%w: %s is required", ErrInvalidObservation, field.name)
		}
	}
	if !obs.Status.IsValid() {
		return fmt.Errorf("%w: status %q", ErrInvalidObservation, obs.Status)
	}
	if !obs.Severity.IsValid() {
		return fmt.Errorf("%w: severity %q", ErrInvalidObservation, obs.Severity)
	}
	if !obs.Urgency.IsValid() {
		return fmt.Errorf("%w: urgency %q", ErrInvalidObservation, obs.Urgency)
	}
	return nil
}

func validateIssue(issue *model.Issue) error {
	if issue == nil {
		return fmt.Errorf("%w: issue", ErrNilParameter)
	}
	if strings.TrimSpace(issue.ObservationID) == "" {
		return fmt.Errorf("%w: observation_id is required", ErrInvalidIssue)
	}
	if strings.TrimSpace(issue.NormalizedTitle) == "" {
		return fmt.Errorf("%w: normalized_title is required", ErrInvalidIssue)
	}
	if !issue.Urgency.IsValid() {
		return fmt.Errorf("%w: urgency %q", ErrInvalidIssue, issue.Urgency)
	}
	return nil
}

// stringPtrToNullString converts an optional string to sql.NullString.
func stringPtrToNullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: *s, Valid: true}
}

// nullStringToStringPtr converts sql.NullString to an optional string.
func nullStringToStringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func severityToNullString(sev *model.ObservationSeverity) sql.NullString {
	if sev == nil {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: string(*sev), Valid: true}
}

func nullStringToSeverity(ns sql.NullString) *model.ObservationSeverity {
	if !ns.Valid {
		return nil
	}
	sev := model.ObservationSeverity(ns.String)
	return &sev
}
