package storage

import (
	"context"
	"fmt"
	"log"
	"time"

	"agroetl/internal/metrics"
	"agroetl/internal/schema"
)

const (
	// DefaultBatchSize is used when UpsertAll is given a size <= 0.
	DefaultBatchSize = 100

	// MaxErrors bounds LoadResult.Errors.
	MaxErrors = 5
)

// BatchError reports one failed batch. Batch is 1-based.
type BatchError struct {
	Batch int
	Rows  int
	Err   error
}

func (e *BatchError) Error() string { return fmt.Sprintf("Batch %d: %v", e.Batch, e.Err) }

func (e *BatchError) Unwrap() error { return e.Err }

// LoadResult is the outcome of UpsertAll.
type LoadResult struct {
	Imported int
	Failed   int
	Batches  int

	// Errors holds the messages of the first MaxErrors failed batches.
	Errors []string

	// FailedBatches counts every failed batch, including those past the
	// error sample.
	FailedBatches int
}

// UpsertAll writes rows to table in fixed-size batches, in input order, one
// Upsert call per batch. A failed batch is counted wholly as failed and the
// loader moves on to the next one; nothing is retried. Re-running with the
// same rows is safe because every batch overwrites by conflict key.
//
// Logging: each batch emits one progress line with running totals and
// rows/sec since the previous batch.
func UpsertAll(ctx context.Context, up Upserter, table schema.FactTable, rows [][]any, batchSize int) LoadResult {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	var (
		res       LoadResult
		start     = time.Now()
		lastFlush = start
		lastTotal int
	)

	for off := 0; off < len(rows); off += batchSize {
		end := off + batchSize
		if end > len(rows) {
			end = len(rows)
		}
		batch := rows[off:end]
		res.Batches++

		t0 := time.Now()
		// Affected-row counts differ per driver (MySQL counts an update
		// twice), so a successful batch counts every row it was given.
		_, err := up.Upsert(ctx, table, batch)
		metrics.RecordStep(table.Name, "upsert_batch", err, time.Since(t0))
		if err != nil {
			berr := &BatchError{Batch: res.Batches, Rows: len(batch), Err: err}
			res.Failed += len(batch)
			res.FailedBatches++
			if len(res.Errors) < MaxErrors {
				res.Errors = append(res.Errors, berr.Error())
			}
			log.Printf("loader: table=%s batch #%d failed rows=%d err=%v", table.Name, res.Batches, len(batch), err)
			continue
		}
		res.Imported += len(batch)

		now := time.Now()
		sinceLast := now.Sub(lastFlush)
		rps := float64(0)
		if sinceLast > 0 {
			rps = float64(res.Imported-lastTotal) / sinceLast.Seconds()
		}
		log.Printf(
			"batch #%d: table=%s rps=%.0f upserted=%d total_upserted=%d elapsed=%s since_last=%s",
			res.Batches,
			table.Name,
			rps,
			len(batch),
			res.Imported,
			now.Sub(start).Truncate(time.Millisecond),
			sinceLast.Truncate(time.Millisecond),
		)
		lastFlush = now
		lastTotal = res.Imported
	}

	metrics.RecordBatches(table.Name, int64(res.Batches))
	return res
}
