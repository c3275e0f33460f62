// Package importer runs one CSV or tabular import end to end: decode, map
// columns, clean, and upsert into the fact table of the requested kind.
//
// Importer never returns an error. Decode failures, missing columns, failed
// batches and panics are all reported through Result.
package importer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/xxh3"

	"agroetl/internal/metrics"
	csvparser "agroetl/internal/parser/csv"
	"agroetl/internal/schema"
	"agroetl/internal/storage"
	"agroetl/internal/transformer"
	"agroetl/pkg/records"
)

// Options configure an Importer. The zero value is usable.
type Options struct {
	// MarketTable and ClimateTable override the default fact table names.
	MarketTable  string
	ClimateTable string

	// BatchSize is the number of rows per upsert (storage.DefaultBatchSize when <= 0).
	BatchSize int

	// DefaultLocation fills climate rows without a location.
	DefaultLocation string

	// Comma forces the CSV delimiter; 0 sniffs it from the header line.
	Comma rune

	// DedupPolicy selects which of several same-day rows survives.
	DedupPolicy string

	// NullPolicy maps a kind name to a null policy name accepted by
	// transformer.ParsePolicy. Unlisted kinds use transformer.PolicyFor.
	NullPolicy map[string]string
}

// Importer holds the persistence collaborator and immutable options. It is
// safe for concurrent use when the Upserter is.
type Importer struct {
	up   storage.Upserter
	opts Options
}

// New returns an Importer writing through up.
func New(up storage.Upserter, opts Options) *Importer {
	return &Importer{up: up, opts: opts}
}

// Table returns the fact table rows of kind are written to.
func (im *Importer) Table(kind schema.Kind) schema.FactTable {
	if kind == schema.Climate {
		return schema.ClimateTable(im.opts.ClimateTable)
	}
	return schema.MarketTable(im.opts.MarketTable)
}

// Run decodes raw as CSV and imports it as kind.
func (im *Importer) Run(ctx context.Context, kind string, raw []byte) (res Result) {
	run := uuid.NewString()
	log.Printf("import[%s]: kind=%s bytes=%d xxh3=%016x", run, kind, len(raw), xxh3.Hash(raw))
	defer recoverInto(run, &res)

	p := csvparser.NewParser(csvparser.Options{Comma: im.opts.Comma, TrimSpace: true})
	t, err := p.ParseBytes(raw)
	if err != nil {
		log.Printf("import[%s]: decode: %v", run, err)
		return Failed(err)
	}
	return im.runTable(ctx, run, kind, t)
}

// RunTable imports an already decoded table as kind.
func (im *Importer) RunTable(ctx context.Context, kind string, t records.Table) (res Result) {
	run := uuid.NewString()
	log.Printf("import[%s]: kind=%s rows=%d columns=%d", run, kind, t.Len(), len(t.Columns))
	defer recoverInto(run, &res)
	return im.runTable(ctx, run, kind, t)
}

func recoverInto(run string, res *Result) {
	if r := recover(); r != nil {
		log.Printf("import[%s]: panic: %v", run, r)
		*res = Failed(fmt.Errorf("%v", r))
	}
}

func (im *Importer) runTable(ctx context.Context, run, kindName string, t records.Table) Result {
	start := time.Now()
	kind, err := schema.ParseKind(kindName)
	if err != nil {
		return Failed(err)
	}
	job := string(kind)

	opts := transformer.Options{
		Kind:            kind,
		DefaultLocation: im.opts.DefaultLocation,
		DedupPolicy:     im.opts.DedupPolicy,
	}
	if name, ok := im.opts.NullPolicy[job]; ok {
		if opts.Policy, err = transformer.ParsePolicy(name); err != nil {
			return Failed(err)
		}
	}

	cleaned, err := transformer.Clean(t, opts)
	if err != nil {
		metrics.RecordStep(job, "import", err, time.Since(start))
		var mc *schema.MissingColumnsError
		if errors.As(err, &mc) {
			log.Printf("import[%s]: %v", run, mc)
			return missingColumns(mc)
		}
		return Failed(err)
	}

	table := im.Table(kind)
	rows := records.Rows(cleaned.Records, table.ColumnNames())
	lr := storage.UpsertAll(ctx, im.up, table, rows, im.opts.BatchSize)

	res := loaded(kind, cleaned.Total, cleaned.Dropped, cleaned.Duplicates, lr)
	if n := len(cleaned.Records); n > 0 {
		// Records come back date sorted only under forward fill.
		res.FirstDate, res.LastDate = cleaned.Records[0].DateKey, cleaned.Records[0].DateKey
		for _, r := range cleaned.Records[1:] {
			if r.DateKey < res.FirstDate {
				res.FirstDate = r.DateKey
			}
			if r.DateKey > res.LastDate {
				res.LastDate = r.DateKey
			}
		}
	}

	var stepErr error
	if !res.Success {
		stepErr = errors.New(res.Message)
	}
	metrics.RecordStep(job, "import", stepErr, time.Since(start))
	metrics.RecordRow(job, "processed", int64(cleaned.Total))
	metrics.RecordRow(job, "dropped", int64(cleaned.Dropped))
	metrics.RecordRow(job, "duplicates", int64(cleaned.Duplicates))
	metrics.RecordRow(job, "imported", int64(lr.Imported))
	metrics.RecordRow(job, "failed", int64(lr.Failed))

	log.Printf("import[%s]: table=%s total=%d dropped=%d duplicates=%d imported=%d failed=%d batches=%d elapsed=%s",
		run, table.Name, cleaned.Total, cleaned.Dropped, cleaned.Duplicates, lr.Imported, lr.Failed, lr.Batches,
		time.Since(start).Truncate(time.Millisecond))
	return res
}
