package storage

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/DanteAc13/propintel/internal/model"
)

func TestValidateContext(t *testing.T) {
	tests := []struct {
		ctx     context.Context
		name    string
		wantErr bool
	}{
		{
			name:    "valid context",
			ctx:     context.Background(),
			wantErr: false,
		},
		{
			name:    "nil context",
			ctx:     nil,
			wantErr: true,
		},
		{
			name: "canceled context still valid",
			ctx: func() context.Context {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				return ctx
			}(),
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateContext(tt.ctx)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateContext() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateString(t *testing.T) {
	tests := []struct {
		name      string
		str       string
		paramName string
		wantErr   bool
	}{
		{name: "valid string", str: "Roof", paramName: "name"},
		{name: "empty string", str: "", paramName: "name", wantErr: true},
		{name: "whitespace only", str: " \t\n", paramName: "name", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateString(tt.str, tt.paramName)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateString() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !strings.Contains(err.Error(), tt.paramName) {
				t.Errorf("validateString() error %q does not name %q", err, tt.paramName)
			}
		})
	}
}

func validDefect() *model.DefectEntry {
	return &model.DefectEntry{
		SectionTemplateID:    "roof",
		ComponentMatch:       "Shingles",
		ConditionMatch:       model.StatusDeficient,
		NormalizedTitle:      "Asphalt Shingle Repair/Replacement",
		DefaultSeverityScore: 3,
	}
}

func TestValidateDefect(t *testing.T) {
	bogus := model.ObservationSeverity("TERRIBLE")

	tests := []struct {
		mutate  func(*model.DefectEntry)
		wantErr error
		name    string
	}{
		{name: "valid", mutate: func(*model.DefectEntry) {}},
		{name: "missing section", mutate: func(d *model.DefectEntry) { d.SectionTemplateID = " " }, wantErr: ErrInvalidDefect},
		{name: "missing component", mutate: func(d *model.DefectEntry) { d.ComponentMatch = "" }, wantErr: ErrInvalidDefect},
		{name: "unknown condition", mutate: func(d *model.DefectEntry) { d.ConditionMatch = "BROKEN" }, wantErr: ErrInvalidDefect},
		{name: "unknown severity", mutate: func(d *model.DefectEntry) { d.SeverityMatch = &bogus }, wantErr: ErrInvalidDefect},
		{name: "missing title", mutate: func(d *model.DefectEntry) { d.NormalizedTitle = "" }, wantErr: ErrInvalidDefect},
		{name: "score too low", mutate: func(d *model.DefectEntry) { d.DefaultSeverityScore = 0 }, wantErr: ErrInvalidDefect},
		{name: "score too high", mutate: func(d *model.DefectEntry) { d.DefaultSeverityScore = 5 }, wantErr: ErrInvalidDefect},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDefect()
			tt.mutate(d)
			err := validateDefect(d)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("validateDefect() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if err := validateDefect(nil); !errors.Is(err, ErrNilParameter) {
		t.Errorf("validateDefect(nil) error = %v, want %v", err, ErrNilParameter)
	}
}

func TestValidateObservation(t *testing.T) {
	valid := func() *model.Observation {
		return &model.Observation{
			ID:                "obs-1",
			InspectionID:      "insp-1",
			PropertyID:        "prop-1",
			SectionTemplateID: "roof",
			Component:         "Shingles",
			Status:            model.StatusDeficient,
			Severity:          model.SeverityMajorDefect,
			Urgency:           model.UrgencyShortTerm,
		}
	}

	tests := []struct {
		mutate  func(*model.Observation)
		name    string
		wantErr bool
	}{
		{name: "valid", mutate: func(*model.Observation) {}},
		{name: "missing id", mutate: func(o *model.Observation) { o.ID = "" }, wantErr: true},
		{name: "missing property", mutate: func(o *model.Observation) { o.PropertyID = "" }, wantErr: true},
		{name: "missing component", mutate: func(o *model.Observation) { o.Component = "  " }, wantErr: true},
		{name: "bad status", mutate: func(o *model.Observation) { o.Status = "GOOD" }, wantErr: true},
		{name: "bad severity", mutate: func(o *model.Observation) { o.Severity = "BAD" }, wantErr: true},
		{name: "bad urgency", mutate: func(o *model.Observation) { o.Urgency = "" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs := valid()
			tt.mutate(obs)
			err := validateObservation(obs)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateObservation() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidObservation) {
				t.Errorf("validateObservation() error = %v, want %v", err, ErrInvalidObservation)
			}
		})
	}
}

func TestValidateIssue(t *testing.T) {
	tests := []struct {
		issue   *model.Issue
		wantErr error
		name    string
	}{
		{
			name:  "valid",
			issue: &model.Issue{ObservationID: "obs-1", NormalizedTitle: "Roof Leak", Urgency: model.UrgencyImmediate},
		},
		{
			name:    "nil",
			issue:   nil,
			wantErr: ErrNilParameter,
		},
		{
			name:    "missing observation",
			issue:   &model.Issue{NormalizedTitle: "Roof Leak", Urgency: model.UrgencyImmediate},
			wantErr: ErrInvalidIssue,
		},
		{
			name:    "missing title",
			issue:   &model.Issue{ObservationID: "obs-1", Urgency: model.UrgencyImmediate},
			wantErr: ErrInvalidIssue,
		},
		{
			name:    "bad urgency",
			issue:   &model.Issue{ObservationID: "obs-1", NormalizedTitle: "Roof Leak", Urgency: "SOON"},
			wantErr: ErrInvalidIssue,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := validateIssue(tt.issue); !errors.Is(err, tt.wantErr) {
				t.Errorf("validateIssue() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNullConversions(t *testing.T) {
	if ns := stringPtrToNullString(nil); ns.Valid {
		t.Error("nil string should convert to invalid NullString")
	}
	code := "07 31 13"
	if got := nullStringToStringPtr(stringPtrToNullString(&code)); got == nil || *got != code {
		t.Errorf("string round trip = %v, want %q", got, code)
	}

	if ns := severityToNullString(nil); ns.Valid {
		t.Error("nil severity should convert to invalid NullString")
	}
	sev := model.SeverityCosmetic
	if got := nullStringToSeverity(severityToNullString(&sev)); got == nil || *got != sev {
		t.Errorf("severity round trip = %v, want %q", got, sev)
	}
}

// TestStorageValidation checks that validation is applied at the storage layer.
func TestStorageValidation(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	t.Run("nil context validation", func(t *testing.T) {
		//nolint:staticcheck // nil context is the case under test
		if _, err := store.GetObservation(nil, "obs-1"); !errors.Is(err, ErrNilContext) {
			t.Errorf("GetObservation should fail with nil context, got: %v", err)
		}
		//nolint:staticcheck // nil context is the case under test
		if _, err := store.BeginTx(nil); !errors.Is(err, ErrNilContext) {
			t.Errorf("BeginTx should fail with nil context, got: %v", err)
		}
		//nolint:staticcheck // nil context is the case under test
		if err := store.Migrate(nil); !errors.Is(err, ErrNilContext) {
			t.Errorf("Migrate should fail with nil context, got: %v", err)
		}
	})

	t.Run("empty string validation", func(t *testing.T) {
		if _, err := store.GetObservation(ctx, ""); !errors.Is(err, ErrEmptyString) {
			t.Errorf("GetObservation should fail with empty id, got: %v", err)
		}
		if _, err := store.ListIssuesByInspection(ctx, "   "); !errors.Is(err, ErrEmptyString) {
			t.Errorf("ListIssuesByInspection should fail with whitespace id, got: %v", err)
		}
	})

	t.Run("nil parameter validation", func(t *testing.T) {
		if err := store.SaveObservation(ctx, nil); !errors.Is(err, ErrNilParameter) {
			t.Errorf("SaveObservation should fail with nil observation, got: %v", err)
		}
		if err := store.SaveIssue(ctx, nil); !errors.Is(err, ErrNilParameter) {
			t.Errorf("SaveIssue should fail with nil issue, got: %v", err)
		}
		if err := store.UpsertDefect(ctx, nil); !errors.Is(err, ErrNilParameter) {
			t.Errorf("UpsertDefect should fail with nil defect, got: %v", err)
		}
	})
}
