// Package app wires configuration into the storage, metrics and importer
// components shared by the agroetl commands.
package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"agroetl/internal/calendar"
	"agroetl/internal/config"
	"agroetl/internal/importer"
	"agroetl/internal/metrics"
	"agroetl/internal/metrics/datadog"
	"agroetl/internal/metrics/prompush"
	"agroetl/internal/schema"
	"agroetl/internal/storage"
)

// newRepository is a test seam over storage.New.
var newRepository = storage.New

// Tables returns the market, climate and calendar tables named by cfg.
func Tables(cfg config.Config) (market, climate, cal schema.FactTable) {
	t := cfg.Storage.Tables
	return schema.MarketTable(t.Market), schema.ClimateTable(t.Climate), schema.CalendarTable(t.Calendar)
}

// OpenStorage connects the configured backend and, when auto_create_table
// is set, creates any missing table.
func OpenStorage(ctx context.Context, cfg config.Config) (storage.Repository, error) {
	repo, err := newRepository(ctx, storage.Config{Kind: cfg.Storage.Kind, DSN: cfg.Storage.DSN})
	if err != nil {
		return nil, err
	}
	if cfg.Storage.AutoCreateTable {
		m, c, cal := Tables(cfg)
		if err := storage.EnsureTables(ctx, cfg.Storage.Kind, repo, m, c, cal); err != nil {
			repo.Close()
			return nil, fmt.Errorf("apply DDL: %w", err)
		}
	}
	return repo, nil
}

// NewImporter returns an importer configured from cfg.
func NewImporter(up storage.Upserter, cfg config.Config) *importer.Importer {
	return importer.New(up, importer.Options{
		MarketTable:     cfg.Storage.Tables.Market,
		ClimateTable:    cfg.Storage.Tables.Climate,
		BatchSize:       cfg.Import.BatchSize,
		DefaultLocation: cfg.Import.DefaultLocation,
		Comma:           cfg.Import.CommaRune(),
		DedupPolicy:     cfg.Import.DedupPolicy,
		NullPolicy:      cfg.Import.NullPolicy,
	})
}

// LoadCalendar upserts one calendar row per day in [from, to].
func LoadCalendar(ctx context.Context, up storage.Upserter, cfg config.Config, from, to time.Time) (storage.LoadResult, error) {
	days, err := calendar.Build(from, to)
	if err != nil {
		return storage.LoadResult{}, err
	}
	_, _, tbl := Tables(cfg)
	lr := storage.UpsertAll(ctx, up, tbl, calendar.Rows(tbl, days), cfg.Import.BatchSize)
	log.Printf("calendar: table=%s days=%d imported=%d failed=%d", tbl.Name, len(days), lr.Imported, lr.Failed)
	return lr, nil
}

// InstallMetrics installs the configured metrics backend and returns the
// function that flushes it at shutdown. Backend init failures fall back to
// the no-op backend.
func InstallMetrics(m config.Metrics, job string) (flush func()) {
	nop := func() {}
	if job == "" {
		job = "agroetl"
	}

	var (
		b   metrics.Backend
		err error
	)
	switch m.Backend {
	case "", "none":
		return nop
	case "pushgateway":
		b, err = prompush.NewBackend(job, m.PushgatewayURL)
	case "datadog":
		b, err = datadog.NewBackend(datadog.Config{
			Addr:       m.DatadogAddr,
			Namespace:  m.Namespace,
			GlobalTags: []string{"job:" + job},
		})
	default:
		log.Printf("metrics: unknown backend %q; metrics disabled", m.Backend)
		return nop
	}
	if err != nil {
		log.Printf("metrics: failed to init %s backend: %v; using nop", m.Backend, err)
		return nop
	}

	log.Printf("metrics: backend=%s job=%s", m.Backend, job)
	metrics.SetBackend(b)
	return func() {
		if err := metrics.Flush(); err != nil {
			log.Printf("metrics: flush error: %v", err)
		}
	}
}
