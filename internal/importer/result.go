package importer

import (
	"fmt"
	"strings"

	"agroetl/internal/schema"
	"agroetl/internal/storage"
)

// Result is the outcome of one import call. It is the only thing callers
// see: every failure inside the pipeline is reported here.
type Result struct {
	Success         bool     `json:"success"`
	RecordsImported int      `json:"records_imported"`
	RecordsFailed   int      `json:"records_failed"`
	TotalRecords    int      `json:"total_records"`
	Errors          []string `json:"errors"`
	Message         string   `json:"message"`

	// Dropped and Duplicates break down input rows that were not loaded.
	Dropped    int `json:"dropped,omitempty"`
	Duplicates int `json:"duplicates,omitempty"`

	// FirstDate and LastDate span the cleaned date keys.
	FirstDate string `json:"-"`
	LastDate  string `json:"-"`
}

// Failed reports a call that could not process its input at all.
func Failed(err error) Result {
	return Result{
		Errors:  []string{err.Error()},
		Message: fmt.Sprintf("Failed to process CSV: %v", err),
	}
}

func missingColumns(e *schema.MissingColumnsError) Result {
	names := make([]string, len(e.Missing))
	for i, f := range e.Missing {
		names[i] = string(f)
	}
	return Result{
		Errors:  []string{e.Error()},
		Message: "Missing required columns: " + strings.Join(names, ", "),
	}
}

func loaded(kind schema.Kind, total, dropped, dups int, lr storage.LoadResult) Result {
	errs := lr.Errors
	if errs == nil {
		errs = []string{}
	}
	return Result{
		Success:         lr.Failed == 0,
		RecordsImported: lr.Imported,
		RecordsFailed:   lr.Failed,
		TotalRecords:    total,
		Errors:          errs,
		Dropped:         dropped,
		Duplicates:      dups,
		Message: fmt.Sprintf("Imported %d %s records (%d failed, %d dropped)",
			lr.Imported, kind, lr.Failed, dropped),
	}
}
