package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/DanteAc13/propintel/internal/model"
	"github.com/google/uuid"
)

const issueColumns = `id, observation_id, inspection_id, property_id, normalized_title,
	normalized_description, homeowner_description, master_format_code, trade_category,
	severity_score, severity_label, risk_category, urgency, is_safety_hazard,
	insurance_relevant, created_at`

// SaveIssue inserts a generated issue, assigning its id and creation time.
func (s *SQLiteStorage) SaveIssue(ctx context.Context, issue *model.Issue) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return saveIssue(ctx, s.db, issue)
}

// GetIssuesByObservation returns the issues generated for one observation.
func (s *SQLiteStorage) GetIssuesByObservation(ctx context.Context, observationID string) ([]model.Issue, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(observationID, "observationID"); err != nil {
		return nil, err
	}
	return listIssues(ctx, s.db, "observation_id", observationID)
}

// ListIssuesByInspection returns every issue of an inspection, most severe first.
func (s *SQLiteStorage) ListIssuesByInspection(ctx context.Context, inspectionID string) ([]model.Issue, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(inspectionID, "inspectionID"); err != nil {
		return nil, err
	}
	return listIssues(ctx, s.db, "inspection_id", inspectionID)
}

// ListIssuesByProperty returns every issue of a property, most severe first.
func (s *SQLiteStorage) ListIssuesByProperty(ctx context.Context, propertyID string) ([]model.Issue, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(propertyID, "propertyID"); err != nil {
		return nil, err
	}
	return listIssues(ctx, s.db, "property_id", propertyID)
}

// DeleteIssuesByObservation removes an observation's issues and reports how many were deleted.
func (s *SQLiteStorage) DeleteIssuesByObservation(ctx context.Context, observationID string) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateString(observationID, "observationID"); err != nil {
		return 0, err
	}
	return deleteIssuesByObservation(ctx, s.db, observationID)
}

// Transaction implementations for issues

func (t *sqliteTransaction) SaveIssue(ctx context.Context, issue *model.Issue) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return saveIssue(ctx, t.tx, issue)
}

func (t *sqliteTransaction) GetIssuesByObservation(ctx context.Context, observationID string) ([]model.Issue, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(observationID, "observationID"); err != nil {
		return nil, err
	}
	return listIssues(ctx, t.tx, "observation_id", observationID)
}

func (t *sqliteTransaction) ListIssuesByInspection(ctx context.Context, inspectionID string) ([]model.Issue, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(inspectionID, "inspectionID"); err != nil {
		return nil, err
	}
	return listIssues(ctx, t.tx, "inspection_id", inspectionID)
}

func (t *sqliteTransaction) ListIssuesByProperty(ctx context.Context, propertyID string) ([]model.Issue, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(propertyID, "propertyID"); err != nil {
		return nil, err
	}
	return listIssues(ctx, t.tx, "property_id", propertyID)
}

func (t *sqliteTransaction) DeleteIssuesByObservation(ctx context.Context, observationID string) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateString(observationID, "observationID"); err != nil {
		return 0, err
	}
	return deleteIssuesByObservation(ctx, t.tx, observationID)
}

func saveIssue(ctx context.Context, db queryer, issue *model.Issue) error {
	if err := validateIssue(issue); err != nil {
		return err
	}

	if issue.ID == "" {
		issue.ID = uuid.New().String()
	}
	if issue.CreatedAt.IsZero() {
		issue.CreatedAt = time.Now()
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO issues (`+issueColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		issue.ID, issue.ObservationID, issue.InspectionID, issue.PropertyID, issue.NormalizedTitle,
		issue.NormalizedDescription, issue.HomeownerDescription, stringPtrToNullString(issue.MasterFormatCode),
		issue.TradeCategory, issue.SeverityScore, string(issue.SeverityLabel),
		stringPtrToNullString(issue.RiskCategory), string(issue.Urgency), issue.IsSafetyHazard,
		issue.InsuranceRelevant, issue.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save issue: %w", err)
	}
	return nil
}

func listIssues(ctx context.Context, db queryer, column, value string) ([]model.Issue, error) {
	// column is one of three fixed identifiers, never user input.
	rows, err := db.QueryContext(ctx, `
		SELECT `+issueColumns+` FROM issues
		WHERE `+column+` = ?
		ORDER BY severity_score DESC, created_at ASC, rowid ASC
	`, value)
	if err != nil {
		return nil, fmt.Errorf("failed to list issues: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var issues []model.Issue
	for rows.Next() {
		var issue model.Issue
		var label, urgency string
		var masterFormat, risk sql.NullString
		err := rows.Scan(
			&issue.ID, &issue.ObservationID, &issue.InspectionID, &issue.PropertyID, &issue.NormalizedTitle,
			&issue.NormalizedDescription, &issue.HomeownerDescription, &masterFormat, &issue.TradeCategory,
			&issue.SeverityScore, &label, &risk, &urgency, &issue.IsSafetyHazard,
			&issue.InsuranceRelevant, &issue.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan issue: %w", err)
		}
		issue.MasterFormatCode = nullStringToStringPtr(masterFormat)
		issue.RiskCategory = nullStringToStringPtr(risk)
		issue.SeverityLabel = model.SeverityLabel(label)
		issue.Urgency = model.Urgency(urgency)
		issues = append(issues, issue)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating issues: %w", err)
	}

	return issues, nil
}

func deleteIssuesByObservation(ctx context.Context, db queryer, observationID string) (int64, error) {
	result, err := db.ExecContext(ctx, "DELETE FROM issues WHERE observation_id = ?", observationID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete issues: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected, nil
}
