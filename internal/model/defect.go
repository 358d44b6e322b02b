package model

import "time"

// SectionTemplate is a reusable inspection section such as "Roof" or "Plumbing".
type SectionTemplate struct {
	CreatedAt         time.Time `json:"created_at"`
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Description       string    `json:"description"`
	DefaultComponents []string  `json:"default_components"`
	OrderIndex        int       `json:"order_index"`
}

// DefectEntry is one row of the defect dictionary. A nil SeverityMatch means the
// rule applies regardless of the observation's severity.
type DefectEntry struct {
	CreatedAt             time.Time            `json:"created_at"`
	UpdatedAt             time.Time            `json:"updated_at"`
	SeverityMatch         *ObservationSeverity `json:"severity_match,omitempty"`
	MasterFormatCode      *string              `json:"master_format_code,omitempty"`
	RiskCategory          *string              `json:"risk_category,omitempty"`
	ID                    string               `json:"id"`
	SectionTemplateID     string               `json:"section_template_id"`
	ComponentMatch        string               `json:"component_match"`
	ConditionMatch        ObservationStatus    `json:"condition_match"`
	NormalizedTitle       string               `json:"normalized_title"`
	NormalizedDescription string               `json:"normalized_description"`
	HomeownerDescription  string               `json:"homeowner_description"`
	TradeCategory         string               `json:"trade_category"`
	DefaultSeverityScore  int                  `json:"default_severity_score"`
	IsSafetyHazard        bool                 `json:"is_safety_hazard"`
	InsuranceRelevant     bool                 `json:"insurance_relevant"`
	IsActive              bool                 `json:"is_active"`
}
