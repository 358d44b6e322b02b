package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS section_templates (
					id TEXT PRIMARY KEY,
					name TEXT UNIQUE NOT NULL,
					description TEXT NOT NULL DEFAULT '',
					order_index INTEGER NOT NULL DEFAULT 0,
					default_components TEXT NOT NULL DEFAULT '[]',
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,

				`CREATE TABLE IF NOT EXISTS defect_dictionary (
					id TEXT PRIMARY KEY,
					section_template_id TEXT NOT NULL REFERENCES section_templates(id),
					component_match TEXT NOT NULL,
					condition_match TEXT NOT NULL,
					severity_match TEXT,
					normalized_title TEXT NOT NULL,
					normalized_description TEXT NOT NULL DEFAULT '',
					homeowner_description TEXT NOT NULL DEFAULT '',
					master_format_code TEXT,
					trade_category TEXT NOT NULL DEFAULT '',
					default_severity_score INTEGER NOT NULL CHECK (default_severity_score BETWEEN 1 AND 4),
					risk_category TEXT,
					is_safety_hazard BOOLEAN NOT NULL DEFAULT 0,
					insurance_relevant BOOLEAN NOT NULL DEFAULT 0,
					is_active BOOLEAN NOT NULL DEFAULT 1,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				// NULL severities compare distinct in a plain UNIQUE, so key on COALESCE.
				`CREATE UNIQUE INDEX idx_defect_dictionary_key ON defect_dictionary(
					section_template_id, component_match, condition_match, COALESCE(severity_match, '')
				)`,

				`CREATE TABLE IF NOT EXISTS observations (
					id TEXT PRIMARY KEY,
					inspection_id TEXT NOT NULL,
					property_id TEXT NOT NULL,
					section_template_id TEXT NOT NULL REFERENCES section_templates(id),
					component TEXT NOT NULL,
					status TEXT NOT NULL,
					severity TEXT NOT NULL,
					urgency TEXT NOT NULL,
					description_raw TEXT NOT NULL DEFAULT '',
					location_detail TEXT NOT NULL DEFAULT '',
					inspector_notes TEXT NOT NULL DEFAULT '',
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_observations_inspection ON observations(inspection_id)`,
			)
		},
	},
	{
		Version:     2,
		Description: "Add issues table",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS issues (
					id TEXT PRIMARY KEY,
					observation_id TEXT NOT NULL REFERENCES observations(id) ON DELETE CASCADE,
					inspection_id TEXT NOT NULL,
					property_id TEXT NOT NULL,
					normalized_title TEXT NOT NULL,
					normalized_description TEXT NOT NULL DEFAULT '',
					homeowner_description TEXT NOT NULL DEFAULT '',
					master_format_code TEXT,
					trade_category TEXT NOT NULL,
					severity_score INTEGER NOT NULL,
					severity_label TEXT NOT NULL,
					risk_category TEXT,
					urgency TEXT NOT NULL,
					is_safety_hazard BOOLEAN NOT NULL DEFAULT 0,
					insurance_relevant BOOLEAN NOT NULL DEFAULT 0,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_issues_observation ON issues(observation_id)`,
				`CREATE INDEX idx_issues_inspection ON issues(inspection_id)`,
				`CREATE INDEX idx_issues_property ON issues(property_id)`,
			)
		},
	},
	{
		Version:     3,
		Description: "Index dictionary candidate lookups",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE INDEX IF NOT EXISTS idx_defect_dictionary_candidates
					ON defect_dictionary(section_template_id, condition_match, is_active)`,
			)
		},
	},
}

func execAll(tx *sql.Tx, queries ...string) error {
	for _, query := range queries {
		if _, err := tx.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query '%s': %w", query, err)
		}
	}
	return nil
}

// Migrate brings the schema up to ExpectedSchemaVersion.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var currentVersion int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Debug("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	var finalVersion int
	err = s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}
