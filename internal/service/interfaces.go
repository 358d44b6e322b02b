// Package service defines the interfaces for all application services.
package service

import (
	"context"

	"github.com/DanteAc13/propintel/internal/model"
	"github.com/DanteAc13/propintel/internal/rules"
)

// DictionaryStore reads and loads the defect dictionary and its section templates.
type DictionaryStore interface {
	rules.Dictionary

	UpsertSectionTemplate(ctx context.Context, tmpl *model.SectionTemplate) error
	GetSectionTemplate(ctx context.Context, id string) (*model.SectionTemplate, error)
	GetSectionTemplateByName(ctx context.Context, name string) (*model.SectionTemplate, error)
	ListSectionTemplates(ctx context.Context) ([]model.SectionTemplate, error)

	UpsertDefect(ctx context.Context, defect *model.DefectEntry) error
	ListDefects(ctx context.Context, sectionTemplateID string) ([]model.DefectEntry, error)
}

// ObservationStore persists observations.
type ObservationStore interface {
	SaveObservation(ctx context.Context, obs *model.Observation) error
	GetObservation(ctx context.Context, id string) (*model.Observation, error)
	ListObservationsByInspection(ctx context.Context, inspectionID string) ([]model.Observation, error)
	DeleteObservation(ctx context.Context, id string) error
}

// IssueStore persists generated issues.
type IssueStore interface {
	SaveIssue(ctx context.Context, issue *model.Issue) error
	GetIssuesByObservation(ctx context.Context, observationID string) ([]model.Issue, error)
	ListIssuesByInspection(ctx context.Context, inspectionID string) ([]model.Issue, error)
	ListIssuesByProperty(ctx context.Context, propertyID string) ([]model.Issue, error)
	DeleteIssuesByObservation(ctx context.Context, observationID string) (int64, error)
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	DictionaryStore
	ObservationStore
	IssueStore

	// Database management
	Migrate(ctx context.Context) error
	BeginTx(ctx context.Context) (Transaction, error)
	Close() error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit() error
	Rollback() error

	DictionaryStore
	ObservationStore
	IssueStore
}
