package model

// MatchType records which tier of the matcher produced a result.
type MatchType string

const (
	// MatchTypeExact is produced by either exact-component tier.
	MatchTypeExact MatchType = "exact"
	// MatchTypeFuzzy is produced by the substring or edit-distance tier.
	MatchTypeFuzzy MatchType = "fuzzy"
	// MatchTypeNone means no dictionary entry applied.
	MatchTypeNone MatchType = "none"
)

// MatchInput is the classification key of an observation.
type MatchInput struct {
	SectionTemplateID string              `json:"sectionTemplateId"`
	Component         string              `json:"component"`
	Status            ObservationStatus   `json:"status"`
	Severity          ObservationSeverity `json:"severity"`
}

// MatchResult is the outcome of matching an observation against the dictionary.
// When Matched is false every pointer field is nil and both flags are false.
type MatchResult struct {
	DefectID              *string   `json:"defectId"`
	NormalizedTitle       *string   `json:"normalizedTitle"`
	NormalizedDescription *string   `json:"normalizedDescription"`
	HomeownerDescription  *string   `json:"homeownerDescription"`
	MasterFormatCode      *string   `json:"masterFormatCode"`
	TradeCategory         *string   `json:"tradeCategory"`
	SeverityScore         *int      `json:"severityScore"`
	RiskCategory          *string   `json:"riskCategory"`
	MatchType             MatchType `json:"matchType"`
	Matched               bool      `json:"matched"`
	IsSafetyHazard        bool      `json:"isSafetyHazard"`
	InsuranceRelevant     bool      `json:"insuranceRelevant"`
}

// NoMatch returns the result used to flag an observation for manual review.
func NoMatch() MatchResult {
	return MatchResult{MatchType: MatchTypeNone}
}

// MatchFromDefect copies a dictionary entry into a successful result.
func MatchFromDefect(d DefectEntry, matchType MatchType) MatchResult {
	id := d.ID
	title := d.NormalizedTitle
	description := d.NormalizedDescription
	homeowner := d.HomeownerDescription
	trade := d.TradeCategory
	score := d.DefaultSeverityScore

	return MatchResult{
		Matched:               true,
		DefectID:              &id,
		NormalizedTitle:       &title,
		NormalizedDescription: &description,
		HomeownerDescription:  &homeowner,
		MasterFormatCode:      copyString(d.MasterFormatCode),
		TradeCategory:         &trade,
		SeverityScore:         &score,
		RiskCategory:          copyString(d.RiskCategory),
		IsSafetyHazard:        d.IsSafetyHazard,
		InsuranceRelevant:     d.InsuranceRelevant,
		MatchType:             matchType,
	}
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
