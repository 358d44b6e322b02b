package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/DanteAc13/propintel/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// executeCommand runs a fresh root command in an isolated home directory.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cfgFile = ""
	cmd := newRootCmd()

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

// testDBPath isolates HOME and returns a database path inside it.
func testDBPath(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return filepath.Join(home, "propintel.db")
}

func TestVersionCmd(t *testing.T) {
	testDBPath(t)

	out, err := executeCommand(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "propintel dev")
}

func TestMatchCmd_Builtin(t *testing.T) {
	testDBPath(t)

	out, err := executeCommand(t, "match", "--builtin",
		"--section", "Electrical",
		"--component", "Main Panel",
		"--status", "DEFICIENT",
		"--severity", "SAFETY_HAZARD",
		"--json")
	require.NoError(t, err)

	var got matchOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.True(t, got.Match.Matched)
	assert.Equal(t, model.MatchTypeExact, got.Match.MatchType)
	require.NotNil(t, got.Issue)
	assert.Equal(t, model.SeverityLabelCritical, got.Issue.SeverityLabel)
	assert.Equal(t, model.UrgencyImmediate, got.Issue.Urgency)
}

func TestMatchCmd_DictionaryFile(t *testing.T) {
	testDBPath(t)

	path := filepath.Join(t.TempDir(), "dict.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
defects:
  - section: "Roof"
    component_match: "Roof Shingles"
    condition_match: "DEFICIENT"
    normalized_title: "Asphalt Shingle Repair/Replacement"
    trade_category: "Roofing"
    default_severity_score: 3
`), 0600))

	out, err := executeCommand(t, "match", "--dictionary", path,
		"--section", "Roof",
		"--component", "shingles",
		"--status", "DEFICIENT",
		"--severity", "MAJOR_DEFECT")
	require.NoError(t, err)
	assert.Contains(t, out, "fuzzy")
	assert.Contains(t, out, "Asphalt Shingle Repair/Replacement")
}

func TestMatchCmd_NoMatch(t *testing.T) {
	testDBPath(t)

	out, err := executeCommand(t, "match", "--builtin",
		"--section", "Roof",
		"--component", "Weather Vane",
		"--status", "FUNCTIONAL",
		"--severity", "INFORMATIONAL")
	require.NoError(t, err)
	assert.Contains(t, out, "manual review")
}

func TestMatchCmd_InvalidStatus(t *testing.T) {
	testDBPath(t)

	_, err := executeCommand(t, "match", "--builtin",
		"--section", "Roof",
		"--component", "Shingles",
		"--status", "BROKEN",
		"--severity", "MAJOR_DEFECT")
	assert.Error(t, err)
}

func TestObservationLifecycle(t *testing.T) {
	db := testDBPath(t)

	_, err := executeCommand(t, "--db", db, "dictionary", "seed")
	require.NoError(t, err)

	out, err := executeCommand(t, "--db", db, "dictionary", "sections")
	require.NoError(t, err)
	assert.Contains(t, out, "Pool / Spa")

	out, err = executeCommand(t, "--db", db, "observations", "record",
		"--id", "obs-1",
		"--inspection", "insp-1",
		"--property", "prop-1",
		"--section", "Roof",
		"--component", "Shingles",
		"--status", "DEFICIENT",
		"--severity", "MAJOR_DEFECT",
		"--json")
	require.NoError(t, err)

	var recorded struct {
		Issue *model.Issue `json:"issue"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &recorded))
	require.NotNil(t, recorded.Issue)
	assert.Equal(t, "Roofing", recorded.Issue.TradeCategory)

	out, err = executeCommand(t, "--db", db, "observations", "update", "obs-1", "--status", "FUNCTIONAL")
	require.NoError(t, err)
	assert.Contains(t, out, "manual review")

	out, err = executeCommand(t, "--db", db, "issues", "list", "--inspection", "insp-1", "--json")
	require.NoError(t, err)
	assert.Equal(t, "[]", strings.TrimSpace(out))

	out, err = executeCommand(t, "--db", db, "observations", "list", "--inspection", "insp-1")
	require.NoError(t, err)
	assert.Contains(t, out, "obs-1")
	assert.Contains(t, out, "FUNCTIONAL")

	_, err = executeCommand(t, "--db", db, "observations", "delete", "obs-1")
	require.NoError(t, err)

	_, err = executeCommand(t, "--db", db, "observations", "delete", "obs-1")
	assert.Error(t, err)
}

func TestIssuesRegenerate(t *testing.T) {
	db := testDBPath(t)

	_, err := executeCommand(t, "--db", db, "dictionary", "seed")
	require.NoError(t, err)

	for _, component := range []string{"Flashing", "Gutters"} {
		_, err = executeCommand(t, "--db", db, "observations", "record",
			"--inspection", "insp-1",
			"--property", "prop-1",
			"--section", "Roof",
			"--component", component,
			"--status", "DEFICIENT",
			"--severity", "MINOR_DEFECT")
		require.NoError(t, err)
	}

	out, err := executeCommand(t, "--db", db, "issues", "regenerate", "--inspection", "insp-1", "--quiet")
	require.NoError(t, err)
	assert.Contains(t, out, "Regeneration Complete")
	assert.Contains(t, out, "Issues: 2")

	out, err = executeCommand(t, "--db", db, "issues", "list", "--property", "prop-1")
	require.NoError(t, err)
	assert.Contains(t, out, "Roof Flashing Repair")
}

func TestIssuesList_RequiresFilter(t *testing.T) {
	db := testDBPath(t)

	_, err := executeCommand(t, "--db", db, "issues", "list")
	assert.Error(t, err)
}

func TestResolveSection_Unknown(t *testing.T) {
	db := testDBPath(t)

	_, err := executeCommand(t, "--db", db, "match",
		"--section", "Basement",
		"--component", "Sump Pump",
		"--status", "DEFICIENT",
		"--severity", "MAJOR_DEFECT")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dictionary sections")
}

func TestMetricsTextfile(t *testing.T) {
	testDBPath(t)
	path := filepath.Join(t.TempDir(), "propintel.prom")
	t.Setenv("PROPINTEL_METRICS_TEXTFILE", path)

	_, err := executeCommand(t, "match", "--builtin",
		"--section", "Roof",
		"--component", "Shingles",
		"--status", "DEFICIENT",
		"--severity", "MAJOR_DEFECT")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `propintel_rules_matches_total{match_type="exact"} 1`)
	assert.Contains(t, string(data), `propintel_rules_issues_generated_total{severity_label="HIGH"} 1`)
}
