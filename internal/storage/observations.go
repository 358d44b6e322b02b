package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/DanteAc13/propintel/internal/common"
	"github.com/DanteAc13/propintel/internal/model"
)

const observationColumns = `id, inspection_id, property_id, section_template_id, component,
	status, severity, urgency, description_raw, location_detail, inspector_notes,
	created_at, updated_at`

// SaveObservation inserts an observation or replaces the stored one with the same id.
func (s *SQLiteStorage) SaveObservation(ctx context.Context, obs *model.Observation) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return saveObservation(ctx, s.db, obs)
}

// GetObservation retrieves an observation by id.
func (s *SQLiteStorage) GetObservation(ctx context.Context, id string) (*model.Observation, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	return getObservation(ctx, s.db, id)
}

// ListObservationsByInspection returns an inspection's observations in creation order.
func (s *SQLiteStorage) ListObservationsByInspection(ctx context.Context, inspectionID string) ([]model.Observation, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(inspectionID, "inspectionID"); err != nil {
		return nil, err
	}
	return listObservationsByInspection(ctx, s.db, inspectionID)
}

// DeleteObservation deletes an observation. Its issues are removed by cascade.
func (s *SQLiteStorage) DeleteObservation(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}
	return deleteObservation(ctx, s.db, id)
}

// Transaction implementations for observations

func (t *sqliteTransaction) SaveObservation(ctx context.Context, obs *model.Observation) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return saveObservation(ctx, t.tx, obs)
}

func (t *sqliteTransaction) GetObservation(ctx context.Context, id string) (*model.Observation, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	return getObservation(ctx, t.tx, id)
}

func (t *sqliteTransaction) ListObservationsByInspection(ctx context.Context, inspectionID string) ([]model.Observation, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(inspectionID, "inspectionID"); err != nil {
		return nil, err
	}
	return listObservationsByInspection(ctx, t.tx, inspectionID)
}

func (t *sqliteTransaction) DeleteObservation(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}
	return deleteObservation(ctx, t.tx, id)
}

func saveObservation(ctx context.Context, db queryer, obs *model.Observation) error {
	if err := validateObservation(obs); err != nil {
		return err
	}

	now := time.Now()
	if obs.CreatedAt.IsZero() {
		obs.CreatedAt = now
	}
	obs.UpdatedAt = now

	_, err := db.ExecContext(ctx, `
		INSERT INTO observations (`+observationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			inspection_id = excluded.inspection_id,
			property_id = excluded.property_id,
			section_template_id = excluded.section_template_id,
			component = excluded.component,
			status = excluded.status,
			severity = excluded.severity,
			urgency = excluded.urgency,
			description_raw = excluded.description_raw,
			location_detail = excluded.location_detail,
			inspector_notes = excluded.inspector_notes,
			updated_at = excluded.updated_at
	`,
		obs.ID, obs.InspectionID, obs.PropertyID, obs.SectionTemplateID, obs.Component,
		string(obs.Status), string(obs.Severity), string(obs.Urgency),
		obs.DescriptionRaw, obs.LocationDetail, obs.InspectorNotes,
		obs.CreatedAt, obs.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save observation: %w", err)
	}
	return nil
}

func getObservation(ctx context.Context, db queryer, id string) (*model.Observation, error) {
	row := db.QueryRowContext(ctx, "SELECT "+observationColumns+" FROM observations WHERE id = ?", id)

	obs, err := scanObservation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("observation %q: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get observation: %w", err)
	}
	return obs, nil
}

func listObservationsByInspection(ctx context.Context, db queryer, inspectionID string) ([]model.Observation, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT `+observationColumns+` FROM observations
		WHERE inspection_id = ?
		ORDER BY created_at ASC, rowid ASC
	`, inspectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list observations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var observations []model.Observation
	for rows.Next() {
		obs, err := scanObservation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan observation: %w", err)
		}
		observations = append(observations, *obs)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating observations: %w", err)
	}

	return observations, nil
}

func deleteObservation(ctx context.Context, db queryer, id string) error {
	result, err := db.ExecContext(ctx, "DELETE FROM observations WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete observation: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("observation %q: %w", id, common.ErrNotFound)
	}

	return nil
}

func scanObservation(row rowScanner) (*model.Observation, error) {
	var obs model.Observation
	var status, severity, urgency string
	err := row.Scan(
		&obs.ID, &obs.InspectionID, &obs.PropertyID, &obs.SectionTemplateID, &obs.Component,
		&status, &severity, &urgency, &obs.DescriptionRaw, &obs.LocationDetail, &obs.InspectorNotes,
		&obs.CreatedAt, &obs.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	obs.Status = model.ObservationStatus(status)
	obs.Severity = model.ObservationSeverity(severity)
	obs.Urgency = model.Urgency(urgency)
	return &obs, nil
}
