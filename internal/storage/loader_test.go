package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"agroetl/internal/schema"
)

// fakeUpserter records batch sizes and fails the batches listed in failOn
// (1-based).
type fakeUpserter struct {
	sizes  []int
	failOn map[int]bool
}

func (f *fakeUpserter) Upsert(_ context.Context, _ schema.FactTable, rows [][]any) (int64, error) {
	f.sizes = append(f.sizes, len(rows))
	if f.failOn[len(f.sizes)] {
		return 0, fmt.Errorf("boom %d", len(f.sizes))
	}
	return int64(len(rows)), nil
}

func makeRows(n int) [][]any {
	rows := make([][]any, n)
	for i := range rows {
		rows[i] = []any{fmt.Sprintf("2026-01-%02d", i%28+1)}
	}
	return rows
}

func TestUpsertAll_Batches(t *testing.T) {
	t.Parallel()

	up := &fakeUpserter{}
	res := UpsertAll(context.Background(), up, schema.MarketTable(""), makeRows(250), 0)

	if want := []int{100, 100, 50}; fmt.Sprint(up.sizes) != fmt.Sprint(want) {
		t.Fatalf("batch sizes %v, want %v", up.sizes, want)
	}
	if res.Imported != 250 || res.Failed != 0 || res.Batches != 3 {
		t.Fatalf("result = %+v", res)
	}
	if len(res.Errors) != 0 {
		t.Fatalf("errors = %v, want none", res.Errors)
	}
}

// TestUpsertAll_FailureIsolation: a failing batch does not stop the next.
func TestUpsertAll_FailureIsolation(t *testing.T) {
	t.Parallel()

	up := &fakeUpserter{failOn: map[int]bool{2: true}}
	res := UpsertAll(context.Background(), up, schema.MarketTable(""), makeRows(7), 3)

	if res.Imported != 4 || res.Failed != 3 {
		t.Fatalf("imported=%d failed=%d, want 4 and 3", res.Imported, res.Failed)
	}
	if len(up.sizes) != 3 {
		t.Fatalf("upsert calls = %d, want 3", len(up.sizes))
	}
	if len(res.Errors) != 1 || res.Errors[0] != "Batch 2: boom 2" {
		t.Fatalf("errors = %q", res.Errors)
	}
}

// TestUpsertAll_ErrorSampleBounded keeps only the first MaxErrors messages.
func TestUpsertAll_ErrorSampleBounded(t *testing.T) {
	t.Parallel()

	fail := map[int]bool{}
	for i := 1; i <= 8; i++ {
		fail[i] = true
	}
	up := &fakeUpserter{failOn: fail}
	res := UpsertAll(context.Background(), up, schema.ClimateTable(""), makeRows(8), 1)

	if res.Failed != 8 || res.Imported != 0 {
		t.Fatalf("imported=%d failed=%d", res.Imported, res.Failed)
	}
	if len(res.Errors) != MaxErrors {
		t.Fatalf("errors = %d, want %d", len(res.Errors), MaxErrors)
	}
	if !strings.HasPrefix(res.Errors[4], "Batch 5: ") {
		t.Fatalf("last sampled error = %q", res.Errors[4])
	}
	if res.FailedBatches != 8 {
		t.Fatalf("FailedBatches = %d, want 8", res.FailedBatches)
	}
}

func TestUpsertAll_Empty(t *testing.T) {
	t.Parallel()

	up := &fakeUpserter{}
	res := UpsertAll(context.Background(), up, schema.MarketTable(""), nil, 100)
	if res.Batches != 0 || len(up.sizes) != 0 {
		t.Fatalf("expected no batches, got %+v", res)
	}
}

func TestBatchError(t *testing.T) {
	t.Parallel()

	base := errors.New("constraint")
	err := error(&BatchError{Batch: 3, Rows: 10, Err: base})
	if err.Error() != "Batch 3: constraint" {
		t.Fatalf("Error() = %q", err.Error())
	}
	if !errors.Is(err, base) {
		t.Fatalf("errors.Is should unwrap to the batch cause")
	}
}
