package rules

import (
	"context"

	"github.com/DanteAc13/propintel/internal/model"
)

// MemoryDictionary is a Dictionary over an in-memory slice. Entry order is the
// natural order returned to the matcher. It is never mutated after construction.
type MemoryDictionary struct {
	entries []model.DefectEntry
}

// NewMemoryDictionary copies entries into a new dictionary.
func NewMemoryDictionary(entries []model.DefectEntry) *MemoryDictionary {
	cp := make([]model.DefectEntry, len(entries))
	copy(cp, entries)
	return &MemoryDictionary{entries: cp}
}

// FindDefects implements Dictionary.
func (d *MemoryDictionary) FindDefects(_ context.Context, q DefectQuery) ([]model.DefectEntry, error) {
	var out []model.DefectEntry
	for _, e := range d.entries {
		if !e.IsActive || e.SectionTemplateID != q.SectionTemplateID || e.ConditionMatch != q.Condition {
			continue
		}
		if q.Component != nil && e.ComponentMatch != *q.Component {
			continue
		}
		if !matchesSeverity(e, q) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// Len returns the number of entries, active or not.
func (d *MemoryDictionary) Len() int {
	return len(d.entries)
}
