// Package dictionary loads defect dictionaries from YAML and seeds them into storage.
package dictionary

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/DanteAc13/propintel/internal/common"
	"github.com/DanteAc13/propintel/internal/model"
	"github.com/DanteAc13/propintel/internal/service"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Section is a section template as written in a dictionary file.
type Section struct {
	Name              string   `yaml:"name"`
	Description       string   `yaml:"description"`
	DefaultComponents []string `yaml:"default_components"`
	OrderIndex        int      `yaml:"order_index"`
}

// Defect is a dictionary row as written in a dictionary file. Section refers to a
// section template by name. IsActive defaults to true when omitted.
type Defect struct {
	SeverityMatch         *model.ObservationSeverity `yaml:"severity_match"`
	MasterFormatCode      *string                    `yaml:"master_format_code"`
	RiskCategory          *string                    `yaml:"risk_category"`
	IsActive              *bool                      `yaml:"is_active"`
	Section               string                     `yaml:"section"`
	ComponentMatch        string                     `yaml:"component_match"`
	ConditionMatch        model.ObservationStatus    `yaml:"condition_match"`
	NormalizedTitle       string                     `yaml:"normalized_title"`
	NormalizedDescription string                     `yaml:"normalized_description"`
	HomeownerDescription  string                     `yaml:"homeowner_description"`
	TradeCategory         string                     `yaml:"trade_category"`
	DefaultSeverityScore  int                        `yaml:"default_severity_score"`
	IsSafetyHazard        bool                       `yaml:"is_safety_hazard"`
	InsuranceRelevant     bool                       `yaml:"insurance_relevant"`
}

// Set is a parsed dictionary file. Defect order is significant: it becomes the
// natural order the fuzzy tier scans.
type Set struct {
	Sections []Section `yaml:"sections"`
	Defects  []Defect  `yaml:"defects"`
}

// SeedResult counts what Seed wrote.
type SeedResult struct {
	Sections int
	Defects  int
	Skipped  int
}

// Default returns the built-in dictionary.
func Default() (*Set, error) {
	set, err := Load(bytes.NewReader(defaultsYAML))
	if err != nil {
		return nil, fmt.Errorf("built-in dictionary: %w", err)
	}
	return set, nil
}

// LoadFile reads and validates a dictionary file.
func LoadFile(path string) (*Set, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from the operator
	if err != nil {
		return nil, fmt.Errorf("failed to open dictionary: %w", err)
	}
	defer func() { _ = f.Close() }()

	set, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return set, nil
}

// Load parses and validates a dictionary. Unknown keys are rejected.
func Load(r io.Reader) (*Set, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var set Set
	if err := dec.Decode(&set); err != nil {
		if errors.Is(err, io.EOF) {
			return &set, nil
		}
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidDictionary, err)
	}

	if err := set.Validate(); err != nil {
		return nil, err
	}
	return &set, nil
}

// Validate checks enums, required fields and the severity score range.
func (s *Set) Validate() error {
	seen := make(map[string]bool, len(s.Sections))
	for i, sec := range s.Sections {
		if strings.TrimSpace(sec.Name) == "" {
			return fmt.Errorf("%w: section %d has no name", common.ErrInvalidDictionary, i)
		}
		if seen[sec.Name] {
			return fmt.Errorf("%w: section %q listed twice", common.ErrInvalidDictionary, sec.Name)
		}
		seen[sec.Name] = true
	}

	for i, d := range s.Defects {
		if err := d.validate(); err != nil {
			return fmt.Errorf("%w: defect %d (%s/%s): %w", common.ErrInvalidDictionary, i, d.Section, d.ComponentMatch, err)
		}
	}
	return nil
}

func (d *Defect) validate() error {
	switch {
	case strings.TrimSpace(d.Section) == "":
		return errors.New("section is required")
	case strings.TrimSpace(d.ComponentMatch) == "":
		return errors.New("component_match is required")
	case !d.ConditionMatch.IsValid():
		return fmt.Errorf("unknown condition_match %q", d.ConditionMatch)
	case d.SeverityMatch != nil && !d.SeverityMatch.IsValid():
		return fmt.Errorf("unknown severity_match %q", *d.SeverityMatch)
	case strings.TrimSpace(d.NormalizedTitle) == "":
		return errors.New("normalized_title is required")
	case d.DefaultSeverityScore < 1 || d.DefaultSeverityScore > 4:
		return fmt.Errorf("default_severity_score %d outside 1-4", d.DefaultSeverityScore)
	}
	return nil
}

// Entry converts the row into a dictionary entry for the given section template.
func (d *Defect) Entry(sectionTemplateID string) model.DefectEntry {
	active := true
	if d.IsActive != nil {
		active = *d.IsActive
	}
	return model.DefectEntry{
		SeverityMatch:         d.SeverityMatch,
		MasterFormatCode:      d.MasterFormatCode,
		RiskCategory:          d.RiskCategory,
		SectionTemplateID:     sectionTemplateID,
		ComponentMatch:        d.ComponentMatch,
		ConditionMatch:        d.ConditionMatch,
		NormalizedTitle:       d.NormalizedTitle,
		NormalizedDescription: d.NormalizedDescription,
		HomeownerDescription:  d.HomeownerDescription,
		TradeCategory:         d.TradeCategory,
		DefaultSeverityScore:  d.DefaultSeverityScore,
		IsSafetyHazard:        d.IsSafetyHazard,
		InsuranceRelevant:     d.InsuranceRelevant,
		IsActive:              active,
	}
}

// Entries resolves the set for offline matching. Section names stand in for
// section template ids and rows get synthetic ids in file order.
func (s *Set) Entries() []model.DefectEntry {
	entries := make([]model.DefectEntry, 0, len(s.Defects))
	for i := range s.Defects {
		e := s.Defects[i].Entry(s.Defects[i].Section)
		e.ID = fmt.Sprintf("defect-%03d", i+1)
		entries = append(entries, e)
	}
	return entries
}

// Seed upserts the set's section templates and then its defects. A defect whose
// section is neither in the set nor already stored is skipped and counted.
func Seed(ctx context.Context, store service.DictionaryStore, set *Set) (SeedResult, error) {
	var result SeedResult
	sectionIDs := make(map[string]string, len(set.Sections))

	for _, sec := range set.Sections {
		tmpl := &model.SectionTemplate{
			Name:              sec.Name,
			Description:       sec.Description,
			OrderIndex:        sec.OrderIndex,
			DefaultComponents: sec.DefaultComponents,
		}
		if err := store.UpsertSectionTemplate(ctx, tmpl); err != nil {
			return result, fmt.Errorf("seed section %q: %w", sec.Name, err)
		}
		sectionIDs[sec.Name] = tmpl.ID
		result.Sections++
	}

	for i := range set.Defects {
		d := &set.Defects[i]

		id, ok := sectionIDs[d.Section]
		if !ok {
			tmpl, err := store.GetSectionTemplateByName(ctx, d.Section)
			if errors.Is(err, common.ErrNotFound) {
				slog.Warn("Skipping defect for unknown section",
					"section", d.Section,
					"component", d.ComponentMatch,
					"condition", d.ConditionMatch)
				result.Skipped++
				continue
			}
			if err != nil {
				return result, fmt.Errorf("resolve section %q: %w", d.Section, err)
			}
			id = tmpl.ID
			sectionIDs[d.Section] = id
		}

		entry := d.Entry(id)
		if err := store.UpsertDefect(ctx, &entry); err != nil {
			return result, fmt.Errorf("seed defect %s/%s: %w", d.Section, d.ComponentMatch, err)
		}
		result.Defects++
	}

	slog.Info("Seeded defect dictionary",
		"sections", result.Sections,
		"defects", result.Defects,
		"skipped", result.Skipped)

	return result, nil
}
