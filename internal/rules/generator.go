package rules

import "github.com/DanteAc13/propintel/internal/model"

// DefaultTradeCategory is used when a dictionary entry names no trade.
const DefaultTradeCategory = "General"

// IssueInput carries a match result and the identifiers of the observation it came from.
type IssueInput struct {
	ObservationID string
	InspectionID  string
	PropertyID    string
	Urgency       model.Urgency
	Match         model.MatchResult
}

// GenerateIssue builds the issue record for a successful match. It returns nil when the
// match failed or lacks a title or severity score; the caller should then flag the
// observation for manual review.
func GenerateIssue(in IssueInput) *model.Issue {
	m := in.Match
	if !m.Matched || m.NormalizedTitle == nil || *m.NormalizedTitle == "" ||
		m.SeverityScore == nil || *m.SeverityScore == 0 {
		return nil
	}

	trade := stringOr(m.TradeCategory, "")
	if trade == "" {
		trade = DefaultTradeCategory
	}

	return &model.Issue{
		ObservationID:         in.ObservationID,
		InspectionID:          in.InspectionID,
		PropertyID:            in.PropertyID,
		NormalizedTitle:       *m.NormalizedTitle,
		NormalizedDescription: stringOr(m.NormalizedDescription, ""),
		HomeownerDescription:  stringOr(m.HomeownerDescription, ""),
		MasterFormatCode:      cloneString(m.MasterFormatCode),
		TradeCategory:         trade,
		SeverityScore:         *m.SeverityScore,
		SeverityLabel:         SeverityLabelFor(*m.SeverityScore),
		RiskCategory:          cloneString(m.RiskCategory),
		Urgency:               in.Urgency,
		IsSafetyHazard:        m.IsSafetyHazard,
		InsuranceRelevant:     m.InsuranceRelevant,
	}
}

// SeverityLabelFor maps a 1-4 severity score to its label. Anything outside 2-4 is LOW.
func SeverityLabelFor(score int) model.SeverityLabel {
	switch score {
	case 4:
		return model.SeverityLabelCritical
	case 3:
		return model.SeverityLabelHigh
	case 2:
		return model.SeverityLabelMedium
	default:
		return model.SeverityLabelLow
	}
}

func stringOr(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
