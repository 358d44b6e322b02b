package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/DanteAc13/propintel/internal/common"
	"github.com/DanteAc13/propintel/internal/model"
	"github.com/DanteAc13/propintel/internal/rules"
	"github.com/google/uuid"
)

const defectColumns = `id, section_template_id, component_match, condition_match, severity_match,
	normalized_title, normalized_description, homeowner_description, master_format_code,
	trade_category, default_severity_score, risk_category, is_safety_hazard,
	insurance_relevant, is_active, created_at, updated_at`

// FindDefects implements rules.Dictionary. Results are active entries in insertion order.
func (s *SQLiteStorage) FindDefects(ctx context.Context, q rules.DefectQuery) ([]model.DefectEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return findDefects(ctx, s.db, q)
}

// UpsertSectionTemplate inserts a template or updates the one with the same name.
// On return tmpl.ID holds the stored id.
func (s *SQLiteStorage) UpsertSectionTemplate(ctx context.Context, tmpl *model.SectionTemplate) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return upsertSectionTemplate(ctx, s.db, tmpl)
}

// GetSectionTemplate retrieves a section template by id.
func (s *SQLiteStorage) GetSectionTemplate(ctx context.Context, id string) (*model.SectionTemplate, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	return getSectionTemplate(ctx, s.db, "id", id)
}

// GetSectionTemplateByName retrieves a section template by its unique name.
func (s *SQLiteStorage) GetSectionTemplateByName(ctx context.Context, name string) (*model.SectionTemplate, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}
	return getSectionTemplate(ctx, s.db, "name", name)
}

// ListSectionTemplates returns every section template in display order.
func (s *SQLiteStorage) ListSectionTemplates(ctx context.Context) ([]model.SectionTemplate, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return listSectionTemplates(ctx, s.db)
}

// UpsertDefect inserts a dictionary entry or updates the one with the same
// section, component, condition and severity. On return defect.ID holds the stored id.
func (s *SQLiteStorage) UpsertDefect(ctx context.Context, defect *model.DefectEntry) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return upsertDefect(ctx, s.db, defect)
}

// ListDefects returns all entries, active or not, optionally limited to one section template.
func (s *SQLiteStorage) ListDefects(ctx context.Context, sectionTemplateID string) ([]model.DefectEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return listDefects(ctx, s.db, sectionTemplateID)
}

// Transaction implementations for the dictionary

func (t *sqliteTransaction) FindDefects(ctx context.Context, q rules.DefectQuery) ([]model.DefectEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return findDefects(ctx, t.tx, q)
}

func (t *sqliteTransaction) UpsertSectionTemplate(ctx context.Context, tmpl *model.SectionTemplate) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return upsertSectionTemplate(ctx, t.tx, tmpl)
}

func (t *sqliteTransaction) GetSectionTemplate(ctx context.Context, id string) (*model.SectionTemplate, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	return getSectionTemplate(ctx, t.tx, "id", id)
}

func (t *sqliteTransaction) GetSectionTemplateByName(ctx context.Context, name string) (*model.SectionTemplate, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}
	return getSectionTemplate(ctx, t.tx, "name", name)
}

func (t *sqliteTransaction) ListSectionTemplates(ctx context.Context) ([]model.SectionTemplate, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return listSectionTemplates(ctx, t.tx)
}

func (t *sqliteTransaction) UpsertDefect(ctx context.Context, defect *model.DefectEntry) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return upsertDefect(ctx, t.tx, defect)
}

func (t *sqliteTransaction) ListDefects(ctx context.Context, sectionTemplateID string) ([]model.DefectEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return listDefects(ctx, t.tx, sectionTemplateID)
}

// buildDefectQuery renders q as SQL. Component equality uses SQLite's default
// BINARY collation, so it is case-sensitive.
func buildDefectQuery(q rules.DefectQuery) (string, []any) {
	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(defectColumns)
	sb.WriteString(" FROM defect_dictionary WHERE section_template_id = ? AND condition_match = ? AND is_active = 1")
	args := []any{q.SectionTemplateID, string(q.Condition)}

	if q.Component != nil {
		sb.WriteString(" AND component_match = ?")
		args = append(args, *q.Component)
	}

	switch q.SeverityMode {
	case rules.SeverityEquals:
		sb.WriteString(" AND severity_match = ?")
		args = append(args, string(q.Severity))
	case rules.SeverityUnset:
		sb.WriteString(" AND severity_match IS NULL")
	case rules.SeverityAny:
	}

	sb.WriteString(" ORDER BY rowid ASC")
	return sb.String(), args
}

func findDefects(ctx context.Context, db queryer, q rules.DefectQuery) ([]model.DefectEntry, error) {
	query, args := buildDefectQuery(q)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query defect dictionary: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanDefects(rows)
}

func listDefects(ctx context.Context, db queryer, sectionTemplateID string) ([]model.DefectEntry, error) {
	query := "SELECT " + defectColumns + " FROM defect_dictionary"
	var args []any
	if sectionTemplateID != "" {
		query += " WHERE section_template_id = ?"
		args = append(args, sectionTemplateID)
	}
	query += " ORDER BY rowid ASC"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list defects: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanDefects(rows)
}

func scanDefects(rows *sql.Rows) ([]model.DefectEntry, error) {
	var defects []model.DefectEntry
	for rows.Next() {
		var d model.DefectEntry
		var condition string
		var severity, masterFormat, risk sql.NullString
		err := rows.Scan(
			&d.ID, &d.SectionTemplateID, &d.ComponentMatch, &condition, &severity,
			&d.NormalizedTitle, &d.NormalizedDescription, &d.HomeownerDescription, &masterFormat,
			&d.TradeCategory, &d.DefaultSeverityScore, &risk, &d.IsSafetyHazard,
			&d.InsuranceRelevant, &d.IsActive, &d.CreatedAt, &d.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan defect: %w", err)
		}
		d.ConditionMatch = model.ObservationStatus(condition)
		d.SeverityMatch = nullStringToSeverity(severity)
		d.MasterFormatCode = nullStringToStringPtr(masterFormat)
		d.RiskCategory = nullStringToStringPtr(risk)
		defects = append(defects, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating defects: %w", err)
	}

	return defects, nil
}

func upsertDefect(ctx context.Context, db queryer, d *model.DefectEntry) error {
	if err := validateDefect(d); err != nil {
		return err
	}

	severity := severityToNullString(d.SeverityMatch)

	var existingID string
	err := db.QueryRowContext(ctx, `
		SELECT id FROM defect_dictionary
		WHERE section_template_id = ? AND component_match = ? AND condition_match = ? AND severity_match IS ?
	`, d.SectionTemplateID, d.ComponentMatch, string(d.ConditionMatch), severity).Scan(&existingID)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		if d.ID == "" {
			d.ID = uuid.New().String()
		}
		_, err = db.ExecContext(ctx, `
			INSERT INTO defect_dictionary (
				id, section_template_id, component_match, condition_match, severity_match,
				normalized_title, normalized_description, homeowner_description, master_format_code,
				trade_category, default_severity_score, risk_category, is_safety_hazard,
				insurance_relevant, is_active
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			d.ID, d.SectionTemplateID, d.ComponentMatch, string(d.ConditionMatch), severity,
			d.NormalizedTitle, d.NormalizedDescription, d.HomeownerDescription, stringPtrToNullString(d.MasterFormatCode),
			d.TradeCategory, d.DefaultSeverityScore, stringPtrToNullString(d.RiskCategory), d.IsSafetyHazard,
			d.InsuranceRelevant, d.IsActive,
		)
		if err != nil {
			return fmt.Errorf("failed to insert defect: %w", err)
		}
		d.CreatedAt = time.Now()
	case err != nil:
		return fmt.Errorf("failed to look up defect: %w", err)
	default:
		_, err = db.ExecContext(ctx, `
			UPDATE defect_dictionary SET
				normalized_title = ?, normalized_description = ?, homeowner_description = ?,
				master_format_code = ?, trade_category = ?, default_severity_score = ?,
				risk_category = ?, is_safety_hazard = ?, insurance_relevant = ?, is_active = ?,
				updated_at = CURRENT_TIMESTAMP
			WHERE id = ?
		`,
			d.NormalizedTitle, d.NormalizedDescription, d.HomeownerDescription,
			stringPtrToNullString(d.MasterFormatCode), d.TradeCategory, d.DefaultSeverityScore,
			stringPtrToNullString(d.RiskCategory), d.IsSafetyHazard, d.InsuranceRelevant, d.IsActive,
			existingID,
		)
		if err != nil {
			return fmt.Errorf("failed to update defect: %w", err)
		}
		d.ID = existingID
	}

	d.UpdatedAt = time.Now()
	return nil
}

func upsertSectionTemplate(ctx context.Context, db queryer, tmpl *model.SectionTemplate) error {
	if err := validateSectionTemplate(tmpl); err != nil {
		return err
	}

	components, err := json.Marshal(tmpl.DefaultComponents)
	if err != nil {
		return fmt.Errorf("failed to encode default components: %w", err)
	}
	if tmpl.DefaultComponents == nil {
		components = []byte("[]")
	}

	if tmpl.ID == "" {
		tmpl.ID = uuid.New().String()
	}

	// The name is the natural key; on conflict keep the existing id.
	err = db.QueryRowContext(ctx, `
		INSERT INTO section_templates (id, name, description, order_index, default_components)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			description = excluded.description,
			order_index = excluded.order_index,
			default_components = excluded.default_components
		RETURNING id
	`, tmpl.ID, tmpl.Name, tmpl.Description, tmpl.OrderIndex, string(components)).Scan(&tmpl.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert section template: %w", err)
	}

	return nil
}

func getSectionTemplate(ctx context.Context, db queryer, column, value string) (*model.SectionTemplate, error) {
	// column is one of two fixed identifiers, never user input.
	query := `SELECT id, name, description, order_index, default_components, created_at
		FROM section_templates WHERE ` + column + ` = ?`

	tmpl, err := scanSectionTemplate(db.QueryRowContext(ctx, query, value))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("section template %q: %w", value, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get section template: %w", err)
	}
	return tmpl, nil
}

func listSectionTemplates(ctx context.Context, db queryer) ([]model.SectionTemplate, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, name, description, order_index, default_components, created_at
		FROM section_templates
		ORDER BY order_index ASC, name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list section templates: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var templates []model.SectionTemplate
	for rows.Next() {
		tmpl, err := scanSectionTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan section template: %w", err)
		}
		templates = append(templates, *tmpl)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating section templates: %w", err)
	}

	return templates, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSectionTemplate(row rowScanner) (*model.SectionTemplate, error) {
	var tmpl model.SectionTemplate
	var components string
	if err := row.Scan(&tmpl.ID, &tmpl.Name, &tmpl.Description, &tmpl.OrderIndex, &components, &tmpl.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(components), &tmpl.DefaultComponents); err != nil {
		return nil, fmt.Errorf("failed to decode default components: %w", err)
	}
	return &tmpl, nil
}
