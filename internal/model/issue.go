package model

import "time"

// SeverityLabel is the display bucket derived from a numeric severity score.
type SeverityLabel string

// Severity labels from most to least severe.
const (
	SeverityLabelCritical SeverityLabel = "CRITICAL"
	SeverityLabelHigh     SeverityLabel = "HIGH"
	SeverityLabelMedium   SeverityLabel = "MEDIUM"
	SeverityLabelLow      SeverityLabel = "LOW"
)

// Issue is the normalized, trade-coded record generated from a matched observation.
type Issue struct {
	CreatedAt             time.Time     `json:"created_at"`
	MasterFormatCode      *string       `json:"master_format_code"`
	RiskCategory          *string       `json:"risk_category"`
	ID                    string        `json:"id,omitempty"`
	ObservationID         string        `json:"observation_id"`
	InspectionID          string        `json:"inspection_id"`
	PropertyID            string        `json:"property_id"`
	NormalizedTitle       string        `json:"normalized_title"`
	NormalizedDescription string        `json:"normalized_description"`
	HomeownerDescription  string        `json:"homeowner_description"`
	TradeCategory         string        `json:"trade_category"`
	SeverityLabel         SeverityLabel `json:"severity_label"`
	Urgency               Urgency       `json:"urgency"`
	SeverityScore         int           `json:"severity_score"`
	IsSafetyHazard        bool          `json:"is_safety_hazard"`
	InsuranceRelevant     bool          `json:"insurance_relevant"`
}
