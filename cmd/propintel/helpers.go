package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/DanteAc13/propintel/internal/common"
	"github.com/DanteAc13/propintel/internal/config"
	"github.com/DanteAc13/propintel/internal/engine"
	"github.com/DanteAc13/propintel/internal/metrics"
	"github.com/DanteAc13/propintel/internal/model"
	"github.com/DanteAc13/propintel/internal/service"
	"github.com/DanteAc13/propintel/internal/storage"
	"github.com/spf13/viper"
)

// loadSettings resolves the runtime configuration from viper.
func loadSettings() (config.Settings, error) {
	settings, err := config.FromViper(viper.GetViper())
	if err != nil {
		return settings, common.NewUserError("invalid configuration", err)
	}
	return settings, nil
}

// initStorage opens the database and brings its schema up to date.
func initStorage(ctx context.Context, settings config.Settings) (service.Storage, error) {
	store, err := storage.NewSQLiteStorage(settings.DatabasePath)
	if err != nil {
		return nil, err
	}

	// Run migrations
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// newProcessor wires the engine to storage and a fresh metrics collector.
func newProcessor(store service.Storage, settings config.Settings) (*engine.Processor, *metrics.Collector) {
	collector := metrics.New()
	cfg := engine.DefaultConfig()
	cfg.Parallel = settings.Parallel
	cfg.Recorder = collector
	processor := engine.NewWithConfig(store, cfg)
	return processor, collector
}

// flushMetrics writes the collector to the configured textfile, if any.
func flushMetrics(collector *metrics.Collector, settings config.Settings) {
	if settings.MetricsTextfile == "" || collector == nil {
		return
	}
	if err := collector.WriteTextfile(settings.MetricsTextfile); err != nil {
		common.LogError(err, "Failed to write metrics", common.Fields{"path": settings.MetricsTextfile})
	}
}

// resolveSection finds a section template by name, falling back to id.
func resolveSection(ctx context.Context, store service.DictionaryStore, nameOrID string) (*model.SectionTemplate, error) {
	tmpl, err := store.GetSectionTemplateByName(ctx, nameOrID)
	if err == nil {
		return tmpl, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	tmpl, err = store.GetSectionTemplate(ctx, nameOrID)
	if errors.Is(err, common.ErrNotFound) {
		return nil, common.NewUserError(
			fmt.Sprintf("no section template named %q; run 'propintel dictionary sections' to list them", nameOrID),
			common.ErrUnknownSection)
	}
	return tmpl, err
}

// writeJSON writes v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
