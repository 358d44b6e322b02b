// Package testutil provides test utilities for the propintel project.
// It sets up isolated in-memory databases, optionally seeded with a defect dictionary.
package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/DanteAc13/propintel/internal/dictionary"
	"github.com/DanteAc13/propintel/internal/service"
	"github.com/DanteAc13/propintel/internal/storage"
)

// TestDB represents a test database with associated test utilities.
type TestDB struct {
	Storage  service.Storage
	t        *testing.T
	sections map[string]string
}

// TestDBOptions provides configuration options for test database setup.
type TestDBOptions struct {
	CustomSetup    func(context.Context, service.Storage) error
	Dictionary     *dictionary.Set
	SkipMigrations bool
}

// SetupTestDB creates a new, empty, migrated in-memory test database.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()
	return SetupTestDBWithOptions(t, TestDBOptions{})
}

// SetupTestDBWithDefaults creates a test database seeded with the built-in dictionary.
//
// Example:
//
//	db := testutil.SetupTestDBWithDefaults(t)
//	roofID := db.MustSectionID("Roof")
func SetupTestDBWithDefaults(t *testing.T) *TestDB {
	t.Helper()

	set, err := dictionary.Default()
	if err != nil {
		t.Fatalf("failed to load built-in dictionary: %v", err)
	}
	return SetupTestDBWithOptions(t, TestDBOptions{Dictionary: set})
}

// SetupTestDBWithOptions creates a test database with custom options.
func SetupTestDBWithOptions(t *testing.T, opts TestDBOptions) *TestDB {
	t.Helper()

	// Create in-memory SQLite storage
	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	ctx := context.Background()

	// Register cleanup
	t.Cleanup(func() {
		_ = store.Close()
	})

	// Run migrations unless skipped
	if !opts.SkipMigrations {
		if err := store.Migrate(ctx); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}
	}

	if opts.Dictionary != nil {
		if _, err := dictionary.Seed(ctx, store, opts.Dictionary); err != nil {
			t.Fatalf("failed to seed dictionary: %v", err)
		}
	}

	if opts.CustomSetup != nil {
		if err := opts.CustomSetup(ctx, store); err != nil {
			t.Fatalf("custom setup failed: %v", err)
		}
	}

	db := &TestDB{
		Storage:  store,
		t:        t,
		sections: make(map[string]string),
	}
	if !opts.SkipMigrations {
		templates, err := store.ListSectionTemplates(ctx)
		if err != nil {
			t.Fatalf("failed to list section templates: %v", err)
		}
		for _, tmpl := range templates {
			db.sections[tmpl.Name] = tmpl.ID
		}
	}
	return db
}

// MustSectionID returns the id of the named section template or fails the test.
func (db *TestDB) MustSectionID(name string) string {
	db.t.Helper()
	id, ok := db.sections[name]
	if !ok {
		db.t.Fatalf("section template %q was not seeded", name)
	}
	return id
}

// WithTransaction executes the given function within a database transaction.
// The transaction is automatically rolled back after the function completes.
func (db *TestDB) WithTransaction(fn func(tx service.Transaction) error) error {
	ctx := context.Background()
	tx, err := db.Storage.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() { _ = tx.Rollback() }()

	return fn(tx)
}
