// Package model defines the core data structures for the propintel rules engine.
package model

import (
	"fmt"
	"time"
)

// ObservationStatus is the condition an inspector recorded for a component.
type ObservationStatus string

const (
	// StatusDeficient marks a component that is not performing as intended.
	StatusDeficient ObservationStatus = "DEFICIENT"
	// StatusFunctional marks a component that works as intended.
	StatusFunctional ObservationStatus = "FUNCTIONAL"
	// StatusNotInspected marks a component the inspector could not evaluate.
	StatusNotInspected ObservationStatus = "NOT_INSPECTED"
	// StatusNotPresent marks a component that does not exist on the property.
	StatusNotPresent ObservationStatus = "NOT_PRESENT"
	// StatusMaintenanceNeeded marks a working component that needs upkeep.
	StatusMaintenanceNeeded ObservationStatus = "MAINTENANCE_NEEDED"
)

// ObservationStatuses lists every valid status in display order.
var ObservationStatuses = []ObservationStatus{
	StatusDeficient,
	StatusFunctional,
	StatusNotInspected,
	StatusNotPresent,
	StatusMaintenanceNeeded,
}

// IsValid reports whether s is a known status.
func (s ObservationStatus) IsValid() bool {
	for _, v := range ObservationStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// ParseObservationStatus converts a raw string into an ObservationStatus.
func ParseObservationStatus(raw string) (ObservationStatus, error) {
	s := ObservationStatus(raw)
	if !s.IsValid() {
		return "", fmt.Errorf("invalid observation status: %q", raw)
	}
	return s, nil
}

// ObservationSeverity is the inspector's assessment of how serious a finding is.
type ObservationSeverity string

const (
	// SeveritySafetyHazard is a condition that endangers occupants.
	SeveritySafetyHazard ObservationSeverity = "SAFETY_HAZARD"
	// SeverityMajorDefect is a significant defect needing prompt repair.
	SeverityMajorDefect ObservationSeverity = "MAJOR_DEFECT"
	// SeverityMinorDefect is a defect that can be scheduled.
	SeverityMinorDefect ObservationSeverity = "MINOR_DEFECT"
	// SeverityCosmetic is an appearance-only finding.
	SeverityCosmetic ObservationSeverity = "COSMETIC"
	// SeverityInformational is a note with no defect implied.
	SeverityInformational ObservationSeverity = "INFORMATIONAL"
)

// ObservationSeverities lists every valid severity from most to least serious.
var ObservationSeverities = []ObservationSeverity{
	SeveritySafetyHazard,
	SeverityMajorDefect,
	SeverityMinorDefect,
	SeverityCosmetic,
	SeverityInformational,
}

// IsValid reports whether s is a known severity.
func (s ObservationSeverity) IsValid() bool {
	for _, v := range ObservationSeverities {
		if s == v {
			return true
		}
	}
	return false
}

// ParseObservationSeverity converts a raw string into an ObservationSeverity.
func ParseObservationSeverity(raw string) (ObservationSeverity, error) {
	s := ObservationSeverity(raw)
	if !s.IsValid() {
		return "", fmt.Errorf("invalid observation severity: %q", raw)
	}
	return s, nil
}

// Urgency indicates how soon a finding should be addressed.
type Urgency string

const (
	// UrgencyImmediate requires action right away.
	UrgencyImmediate Urgency = "IMMEDIATE"
	// UrgencyShortTerm should be addressed within months.
	UrgencyShortTerm Urgency = "SHORT_TERM"
	// UrgencyLongTerm can be planned for.
	UrgencyLongTerm Urgency = "LONG_TERM"
	// UrgencyMonitor only needs to be watched.
	UrgencyMonitor Urgency = "MONITOR"
)

// Urgencies lists every valid urgency.
var Urgencies = []Urgency{UrgencyImmediate, UrgencyShortTerm, UrgencyLongTerm, UrgencyMonitor}

// IsValid reports whether u is a known urgency.
func (u Urgency) IsValid() bool {
	for _, v := range Urgencies {
		if u == v {
			return true
		}
	}
	return false
}

// ParseUrgency converts a raw string into an Urgency.
func ParseUrgency(raw string) (Urgency, error) {
	u := Urgency(raw)
	if !u.IsValid() {
		return "", fmt.Errorf("invalid urgency: %q", raw)
	}
	return u, nil
}

// Observation is a field-recorded finding about one component within an inspection section.
// Inspection and property identifiers are carried as-is; their records live elsewhere.
type Observation struct {
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
	ID                string              `json:"id"`
	InspectionID      string              `json:"inspection_id"`
	PropertyID        string              `json:"property_id"`
	SectionTemplateID string              `json:"section_template_id"`
	Component         string              `json:"component"`
	DescriptionRaw    string              `json:"description_raw,omitempty"`
	LocationDetail    string              `json:"location_detail,omitempty"`
	InspectorNotes    string              `json:"inspector_notes,omitempty"`
	Status            ObservationStatus   `json:"status"`
	Severity          ObservationSeverity `json:"severity"`
	Urgency           Urgency             `json:"urgency"`
}

// MatchInput returns the classification key used to look the observation up in the dictionary.
func (o *Observation) MatchInput() MatchInput {
	return MatchInput{
		SectionTemplateID: o.SectionTemplateID,
		Component:         o.Component,
		Status:            o.Status,
		Severity:          o.Severity,
	}
}
