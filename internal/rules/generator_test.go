package rules

import (
	"context"
	"testing"

	"github.com/DanteAc13/propintel/internal/model"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(i int) *int { return &i }

func matched(score int) model.MatchResult {
	return model.MatchResult{
		Matched:               true,
		DefectID:              strPtr("d1"),
		NormalizedTitle:       strPtr("Gutter Repair"),
		NormalizedDescription: strPtr("Gutters are loose."),
		HomeownerDescription:  strPtr("Your gutters need attention."),
		MasterFormatCode:      strPtr("07-71-23"),
		TradeCategory:         strPtr("Roofing"),
		SeverityScore:         intPtr(score),
		RiskCategory:          strPtr("Water Intrusion"),
		InsuranceRelevant:     true,
		MatchType:             model.MatchTypeFuzzy,
	}
}

func TestGenerateIssue(t *testing.T) {
	got := GenerateIssue(IssueInput{
		ObservationID: "obs-1",
		InspectionID:  "insp-1",
		PropertyID:    "prop-1",
		Urgency:       model.UrgencyShortTerm,
		Match:         matched(2),
	})
	require.NotNil(t, got)

	want := &model.Issue{
		ObservationID:         "obs-1",
		InspectionID:          "insp-1",
		PropertyID:            "prop-1",
		NormalizedTitle:       "Gutter Repair",
		NormalizedDescription: "Gutters are loose.",
		HomeownerDescription:  "Your gutters need attention.",
		MasterFormatCode:      strPtr("07-71-23"),
		TradeCategory:         "Roofing",
		SeverityScore:         2,
		SeverityLabel:         model.SeverityLabelMedium,
		RiskCategory:          strPtr("Water Intrusion"),
		Urgency:               model.UrgencyShortTerm,
		InsuranceRelevant:     true,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("GenerateIssue() mismatch (-want +got):\n%s", diff)
	}
	assert.Empty(t, got.ID, "ids are assigned by storage")
}

func TestGenerateIssue_ReturnsNil(t *testing.T) {
	noTitle := matched(3)
	noTitle.NormalizedTitle = nil

	emptyTitle := matched(3)
	emptyTitle.NormalizedTitle = strPtr("")

	noScore := matched(3)
	noScore.SeverityScore = nil

	unmatched := matched(4)
	unmatched.Matched = false

	tests := []struct {
		name  string
		match model.MatchResult
	}{
		{"no match result", model.NoMatch()},
		{"matched false with populated fields", unmatched},
		{"missing title", noTitle},
		{"empty title", emptyTitle},
		{"missing severity score", noScore},
		{"zero severity score", matched(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Nil(t, GenerateIssue(IssueInput{
				ObservationID: "obs-1",
				InspectionID:  "insp-1",
				PropertyID:    "prop-1",
				Urgency:       model.UrgencyImmediate,
				Match:         tt.match,
			}))
		})
	}
}

func TestGenerateIssue_Defaults(t *testing.T) {
	m := matched(1)
	m.NormalizedDescription = nil
	m.HomeownerDescription = nil
	m.MasterFormatCode = nil
	m.RiskCategory = nil

	for _, trade := range []*string{nil, strPtr("")} {
		m.TradeCategory = trade
		got := GenerateIssue(IssueInput{Match: m, Urgency: model.UrgencyMonitor})
		require.NotNil(t, got)

		assert.Equal(t, "", got.NormalizedDescription)
		assert.Equal(t, "", got.HomeownerDescription)
		assert.Nil(t, got.MasterFormatCode)
		assert.Nil(t, got.RiskCategory)
		assert.Equal(t, DefaultTradeCategory, got.TradeCategory)
		assert.Equal(t, model.SeverityLabelLow, got.SeverityLabel)
	}
}

func TestGenerateIssue_Idempotent(t *testing.T) {
	in := IssueInput{
		ObservationID: "obs-9",
		InspectionID:  "insp-9",
		PropertyID:    "prop-9",
		Urgency:       model.UrgencyLongTerm,
		Match:         matched(4),
	}

	first := GenerateIssue(in)
	second := GenerateIssue(in)
	require.NotNil(t, first)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("GenerateIssue() not idempotent (-first +second):\n%s", diff)
	}
	assert.NotSame(t, first, second)
}

func TestGenerateIssue_DoesNotAliasMatch(t *testing.T) {
	m := matched(3)
	got := GenerateIssue(IssueInput{Match: m, Urgency: model.UrgencyMonitor})
	require.NotNil(t, got)

	*m.MasterFormatCode = "changed"
	*m.RiskCategory = "changed"

	assert.Equal(t, "07-71-23", *got.MasterFormatCode)
	assert.Equal(t, "Water Intrusion", *got.RiskCategory)
}

func TestSeverityLabelFor(t *testing.T) {
	tests := []struct {
		score int
		want  model.SeverityLabel
	}{
		{4, model.SeverityLabelCritical},
		{3, model.SeverityLabelHigh},
		{2, model.SeverityLabelMedium},
		{1, model.SeverityLabelLow},
		{0, model.SeverityLabelLow},
		{5, model.SeverityLabelLow},
		{-1, model.SeverityLabelLow},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, SeverityLabelFor(tt.score), "score %d", tt.score)
	}
}

func TestMatchAndGenerate_RoofShingles(t *testing.T) {
	dict := NewMemoryDictionary([]model.DefectEntry{
		{
			ID:                    "roof-shingles",
			SectionTemplateID:     roofID,
			ComponentMatch:        "Shingles",
			ConditionMatch:        model.StatusDeficient,
			NormalizedTitle:       "Asphalt Shingle Repair/Replacement",
			NormalizedDescription: "Asphalt shingles show signs of damage.",
			HomeownerDescription:  "Some of your roof shingles are damaged or missing.",
			MasterFormatCode:      strPtr("07-31-13"),
			TradeCategory:         "Roofing",
			DefaultSeverityScore:  3,
			RiskCategory:          strPtr("Water Intrusion"),
			InsuranceRelevant:     true,
			IsActive:              true,
		},
	})

	result, err := NewMatcher(dict).Match(context.Background(), model.MatchInput{
		SectionTemplateID: roofID,
		Component:         "Shingles",
		Status:            model.StatusDeficient,
		Severity:          model.SeverityMajorDefect,
	})
	require.NoError(t, err)
	require.True(t, result.Matched)
	assert.Equal(t, model.MatchTypeExact, result.MatchType)

	issue := GenerateIssue(IssueInput{
		ObservationID: "obs-1",
		InspectionID:  "insp-1",
		PropertyID:    "prop-1",
		Urgency:       model.UrgencyMonitor,
		Match:         result,
	})
	require.NotNil(t, issue)
	assert.Equal(t, model.SeverityLabelHigh, issue.SeverityLabel)
	assert.Equal(t, "Roofing", issue.TradeCategory)
	require.NotNil(t, issue.MasterFormatCode)
	assert.Equal(t, "07-31-13", *issue.MasterFormatCode)
	assert.Equal(t, model.UrgencyMonitor, issue.Urgency)
}
