package dictionary_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/DanteAc13/propintel/internal/common"
	"github.com/DanteAc13/propintel/internal/dictionary"
	"github.com/DanteAc13/propintel/internal/model"
	"github.com/DanteAc13/propintel/internal/rules"
	"github.com/DanteAc13/propintel/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const smallDictionary = `
sections:
  - name: "Roof"
    description: "Roof covering"
    order_index: 1
    default_components: ["Shingles", "Flashing"]
defects:
  - section: "Roof"
    component_match: "Shingles"
    condition_match: "DEFICIENT"
    normalized_title: "Asphalt Shingle Repair/Replacement"
    trade_category: "Roofing"
    default_severity_score: 3
  - section: "Roof"
    component_match: "Flashing"
    condition_match: "DEFICIENT"
    severity_match: "SAFETY_HAZARD"
    normalized_title: "Roof Flashing Repair"
    default_severity_score: 4
    is_active: false
`

func TestDefault(t *testing.T) {
	set, err := dictionary.Default()
	require.NoError(t, err)

	assert.Len(t, set.Sections, 12)
	assert.Len(t, set.Defects, 49)
	assert.Equal(t, "Roof", set.Sections[0].Name)

	for _, d := range set.Defects {
		assert.True(t, d.Entry("x").IsActive, "%s/%s should default to active", d.Section, d.ComponentMatch)
	}
}

func TestLoad(t *testing.T) {
	set, err := dictionary.Load(strings.NewReader(smallDictionary))
	require.NoError(t, err)

	require.Len(t, set.Defects, 2)
	shingles := set.Defects[0].Entry("roof-id")
	assert.Equal(t, "roof-id", shingles.SectionTemplateID)
	assert.Nil(t, shingles.SeverityMatch)
	assert.Nil(t, shingles.MasterFormatCode)
	assert.True(t, shingles.IsActive)

	flashing := set.Defects[1].Entry("roof-id")
	require.NotNil(t, flashing.SeverityMatch)
	assert.Equal(t, model.SeveritySafetyHazard, *flashing.SeverityMatch)
	assert.False(t, flashing.IsActive)
}

func TestLoad_Empty(t *testing.T) {
	set, err := dictionary.Load(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, set.Defects)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantMsg string
	}{
		{
			name:    "unknown key",
			input:   "sections: []\ndefects:\n  - section: Roof\n    colour: red\n",
			wantMsg: "colour",
		},
		{
			name: "bad condition",
			input: `defects:
  - section: Roof
    component_match: Shingles
    condition_match: BROKEN
    normalized_title: T
    default_severity_score: 2
`,
			wantMsg: "condition_match",
		},
		{
			name: "bad severity",
			input: `defects:
  - section: Roof
    component_match: Shingles
    condition_match: DEFICIENT
    severity_match: TERRIBLE
    normalized_title: T
    default_severity_score: 2
`,
			wantMsg: "severity_match",
		},
		{
			name: "score out of range",
			input: `defects:
  - section: Roof
    component_match: Shingles
    condition_match: DEFICIENT
    normalized_title: T
    default_severity_score: 5
`,
			wantMsg: "outside 1-4",
		},
		{
			name: "missing title",
			input: `defects:
  - section: Roof
    component_match: Shingles
    condition_match: DEFICIENT
    default_severity_score: 2
`,
			wantMsg: "normalized_title",
		},
		{
			name:    "duplicate section",
			input:   "sections:\n  - name: Roof\n  - name: Roof\n",
			wantMsg: "listed twice",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := dictionary.Load(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrInvalidDictionary)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dict.yaml")
	require.NoError(t, os.WriteFile(path, []byte(smallDictionary), 0600))

	set, err := dictionary.LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, set.Sections, 1)

	_, err = dictionary.LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestEntries_OfflineMatching(t *testing.T) {
	set, err := dictionary.Default()
	require.NoError(t, err)

	entries := set.Entries()
	require.Len(t, entries, len(set.Defects))
	assert.Equal(t, "defect-001", entries[0].ID)
	assert.Equal(t, "Roof", entries[0].SectionTemplateID)

	matcher := rules.NewMatcher(rules.NewMemoryDictionary(entries))
	ctx := context.Background()

	hazard, err := matcher.Match(ctx, model.MatchInput{
		SectionTemplateID: "Electrical",
		Component:         "Main Panel",
		Status:            model.StatusDeficient,
		Severity:          model.SeveritySafetyHazard,
	})
	require.NoError(t, err)
	require.True(t, hazard.Matched)
	assert.Equal(t, 4, *hazard.SeverityScore)

	minor, err := matcher.Match(ctx, model.MatchInput{
		SectionTemplateID: "Electrical",
		Component:         "Main Panel",
		Status:            model.StatusDeficient,
		Severity:          model.SeverityMinorDefect,
	})
	require.NoError(t, err)
	require.True(t, minor.Matched)
	assert.Equal(t, model.MatchTypeExact, minor.MatchType)
	assert.Equal(t, 2, *minor.SeverityScore)
}

func TestSeed(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	set, err := dictionary.Default()
	require.NoError(t, err)

	result, err := dictionary.Seed(ctx, db.Storage, set)
	require.NoError(t, err)
	assert.Equal(t, dictionary.SeedResult{Sections: 12, Defects: 49}, result)

	// Seeding is idempotent.
	_, err = dictionary.Seed(ctx, db.Storage, set)
	require.NoError(t, err)

	defects, err := db.Storage.ListDefects(ctx, "")
	require.NoError(t, err)
	assert.Len(t, defects, 49)

	templates, err := db.Storage.ListSectionTemplates(ctx)
	require.NoError(t, err)
	require.Len(t, templates, 12)
	assert.Equal(t, "Roof", templates[0].Name)
	assert.Contains(t, templates[0].DefaultComponents, "Shingles")
}

func TestSeed_UnknownSectionSkipped(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	set, err := dictionary.Load(strings.NewReader(`
defects:
  - section: "Roof"
    component_match: "Shingles"
    condition_match: "DEFICIENT"
    normalized_title: "Asphalt Shingle Repair/Replacement"
    default_severity_score: 3
`))
	require.NoError(t, err)

	result, err := dictionary.Seed(ctx, db.Storage, set)
	require.NoError(t, err)
	assert.Equal(t, dictionary.SeedResult{Skipped: 1}, result)
}

func TestSeed_ResolvesStoredSection(t *testing.T) {
	db := testutil.SetupTestDBWithDefaults(t)
	ctx := context.Background()

	// A file may add rows to a section that only exists in the database.
	set, err := dictionary.Load(strings.NewReader(`
defects:
  - section: "Roof"
    component_match: "Skylights"
    condition_match: "DEFICIENT"
    normalized_title: "Skylight Leak Repair"
    trade_category: "Roofing"
    default_severity_score: 3
`))
	require.NoError(t, err)

	result, err := dictionary.Seed(ctx, db.Storage, set)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Defects)

	defects, err := db.Storage.ListDefects(ctx, db.MustSectionID("Roof"))
	require.NoError(t, err)
	assert.Equal(t, "Skylights", defects[len(defects)-1].ComponentMatch)
}
