package engine

import "github.com/DanteAc13/propintel/internal/model"

// CalculateUrgency derives a default urgency from the inspector's severity.
func CalculateUrgency(severity model.ObservationSeverity) model.Urgency {
	switch severity {
	case model.SeveritySafetyHazard:
		return model.UrgencyImmediate
	case model.SeverityMajorDefect:
		return model.UrgencyShortTerm
	case model.SeverityMinorDefect:
		return model.UrgencyLongTerm
	default:
		return model.UrgencyMonitor
	}
}
