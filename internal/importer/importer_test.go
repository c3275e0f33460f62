package importer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"agroetl/internal/schema"
	"agroetl/internal/storage/memory"
	"agroetl/internal/storage/sqlite"
	sqliteddl "agroetl/internal/storage/sqlite/ddl"
	"agroetl/pkg/records"
)

// fakeUpserter records every batch and fails the batches listed in failOn
// (1-based).
type fakeUpserter struct {
	mu      sync.Mutex
	batches [][][]any
	failOn  map[int]bool
	panics  bool
}

func (f *fakeUpserter) Upsert(_ context.Context, _ schema.FactTable, rows [][]any) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.panics {
		panic("driver exploded")
	}
	f.batches = append(f.batches, rows)
	if f.failOn[len(f.batches)] {
		return 0, errors.New("connection reset")
	}
	return int64(len(rows)), nil
}

const marketCSV = "date,dolar,jbs,boi_gordo\n" +
	"23/01/2026,\"5,12\",\"28,45\",\"315,50\"\n" +
	"24/01/2026,,\"28,50\",\"316,00\"\n"

func TestRun_MarketScenario(t *testing.T) {
	t.Parallel()

	up := &fakeUpserter{}
	res := New(up, Options{}).Run(context.Background(), "market", []byte(marketCSV))

	if !res.Success || res.RecordsImported != 2 || res.RecordsFailed != 0 || res.TotalRecords != 2 {
		t.Fatalf("result = %+v", res)
	}
	if res.Message != "Imported 2 market records (0 failed, 0 dropped)" {
		t.Fatalf("message = %q", res.Message)
	}
	if len(up.batches) != 1 || len(up.batches[0]) != 2 {
		t.Fatalf("batches = %v", up.batches)
	}
	second := up.batches[0][1]
	if second[0] != "2026-01-24" {
		t.Fatalf("row[1] date = %v", second[0])
	}
	fx, ok := second[1].(decimal.NullDecimal)
	if !ok || !fx.Valid || !fx.Decimal.Equal(decimal.RequireFromString("5.12")) {
		t.Fatalf("forward-filled fx_rate = %v", second[1])
	}
	if res.FirstDate != "2026-01-23" || res.LastDate != "2026-01-24" {
		t.Fatalf("span = %s..%s", res.FirstDate, res.LastDate)
	}
}

func TestRun_ClimateScenario(t *testing.T) {
	t.Parallel()

	up := &fakeUpserter{}
	csv := "data;temperatura_max\n23/01/2026;\"32,5\"\n24/01/2026;\n"
	res := New(up, Options{}).Run(context.Background(), "climate", []byte(csv))

	if !res.Success || res.RecordsImported != 2 || res.TotalRecords != 2 {
		t.Fatalf("result = %+v", res)
	}
	rows := up.batches[0]
	if rows[1][1] != (decimal.NullDecimal{}) {
		t.Fatalf("climate max_temp must stay null, got %v", rows[1][1])
	}
	if rows[0][2] != (decimal.NullDecimal{}) || rows[0][3] != "Cuiabá" {
		t.Fatalf("row[0] = %v", rows[0])
	}
}

func TestRun_MissingMarketColumn(t *testing.T) {
	t.Parallel()

	up := &fakeUpserter{}
	res := New(up, Options{}).Run(context.Background(), "market", []byte("date,dolar,jbs\n23/01/2026,5,28\n"))

	if res.Success || res.RecordsImported != 0 || res.TotalRecords != 0 {
		t.Fatalf("result = %+v", res)
	}
	if !strings.Contains(res.Message, "cattle_price") {
		t.Fatalf("message %q must name the missing column", res.Message)
	}
	if len(res.Errors) != 1 || res.Errors[0] != "Missing columns: cattle_price" {
		t.Fatalf("errors = %v", res.Errors)
	}
	if len(up.batches) != 0 {
		t.Fatalf("no batch may run before column validation")
	}
}

func TestRun_DecodeAndKindErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		kind string
		raw  string
	}{
		{name: "empty input", kind: "market", raw: ""},
		{name: "bare quote", kind: "climate", raw: "date,temp\nx\"y,1\n"},
		{name: "unknown kind", kind: "soil", raw: "date\n2026-01-01\n"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res := New(&fakeUpserter{}, Options{}).Run(context.Background(), tt.kind, []byte(tt.raw))
			if res.Success || res.TotalRecords != 0 || len(res.Errors) != 1 {
				t.Fatalf("result = %+v", res)
			}
			if !strings.HasPrefix(res.Message, "Failed to process CSV: ") {
				t.Fatalf("message = %q", res.Message)
			}
		})
	}
}

func TestRun_PanicIsReported(t *testing.T) {
	t.Parallel()

	res := New(&fakeUpserter{panics: true}, Options{}).Run(context.Background(), "market", []byte(marketCSV))
	if res.Success || !strings.Contains(res.Message, "driver exploded") {
		t.Fatalf("result = %+v", res)
	}
}

// TestRun_PartialBatchFailure: one failed batch does not stop the rest.
func TestRun_PartialBatchFailure(t *testing.T) {
	t.Parallel()

	var b strings.Builder
	b.WriteString("date,temp\n")
	for d := 1; d <= 25; d++ {
		fmt.Fprintf(&b, "2026-01-%02d,30\n", d)
	}

	up := &fakeUpserter{failOn: map[int]bool{2: true}}
	res := New(up, Options{BatchSize: 10}).Run(context.Background(), "climate", []byte(b.String()))

	if res.Success {
		t.Fatalf("success must be false with a failed batch")
	}
	if res.RecordsImported != 15 || res.RecordsFailed != 10 || res.TotalRecords != 25 {
		t.Fatalf("result = %+v", res)
	}
	if len(res.Errors) != 1 || res.Errors[0] != "Batch 2: connection reset" {
		t.Fatalf("errors = %v", res.Errors)
	}
	if len(up.batches) != 3 {
		t.Fatalf("batches = %d, want 3", len(up.batches))
	}
}

func TestRun_DroppedRows(t *testing.T) {
	t.Parallel()

	csv := "date,dolar,jbs,boi\nnot a date,1,2,3\n2026-01-02,\"5,1\",28,310\n,1,1,1\n"
	res := New(&fakeUpserter{}, Options{}).Run(context.Background(), "market", []byte(csv))
	if !res.Success || res.TotalRecords != 3 || res.RecordsImported != 1 || res.Dropped != 2 {
		t.Fatalf("result = %+v", res)
	}
	if res.Message != "Imported 1 market records (0 failed, 2 dropped)" {
		t.Fatalf("message = %q", res.Message)
	}
}

func TestRun_NullPolicyOverride(t *testing.T) {
	t.Parallel()

	csv := "data,temp,chuva\n2026-01-23,31,4\n2026-01-24,,\n"
	cases := []struct {
		name     string
		policy   map[string]string
		wantRain any
		wantMsg  string
	}{
		{"default keeps climate nulls", nil, decimal.NullDecimal{}, ""},
		{"forward fill override", map[string]string{"climate": "ffill"}, decimal.NewNullDecimal(decimal.NewFromInt(4)), ""},
		{"unknown policy", map[string]string{"climate": "interpolate"}, nil, "Failed to process CSV: unknown null policy"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			store := memory.New()
			res := New(store, Options{NullPolicy: tc.policy}).Run(context.Background(), "climate", []byte(csv))
			if tc.wantMsg != "" {
				if res.Success || !strings.HasPrefix(res.Message, tc.wantMsg) || store.Len("fact_climate") != 0 {
					t.Fatalf("result = %+v", res)
				}
				return
			}
			rows := store.Rows("fact_climate")
			if !res.Success || len(rows) != 2 {
				t.Fatalf("result = %+v rows = %v", res, rows)
			}
			got := rows[1][2].(decimal.NullDecimal)
			want := tc.wantRain.(decimal.NullDecimal)
			if got.Valid != want.Valid || (want.Valid && !got.Decimal.Equal(want.Decimal)) {
				t.Fatalf("rainfall on 2026-01-24 = %v, want %v", got, want)
			}
		})
	}
}

func TestResult_JSON(t *testing.T) {
	t.Parallel()

	res := New(&fakeUpserter{}, Options{}).Run(context.Background(), "market", []byte(marketCSV))
	b, err := json.Marshal(res)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	for _, k := range []string{"success", "records_imported", "records_failed", "total_records", "errors", "message"} {
		if _, ok := m[k]; !ok {
			t.Fatalf("json %s lacks %q", b, k)
		}
	}
	if _, ok := m["FirstDate"]; ok {
		t.Fatalf("date span must not be serialised")
	}
}

func TestRunTable_MemoryIdempotent(t *testing.T) {
	t.Parallel()

	store := memory.New()
	im := New(store, Options{ClimateTable: "clima"})
	tbl := records.Table{
		Columns: []string{"Data", "Chuva mm", "Cidade"},
		Rows: [][]any{
			{"2026-01-23", "12,5", "Sinop"},
			{"2026-01-24", nil, nil},
		},
	}
	for i := 0; i < 2; i++ {
		res := im.RunTable(context.Background(), "climate", tbl)
		if !res.Success || res.RecordsImported != 2 {
			t.Fatalf("run #%d: %+v", i+1, res)
		}
	}
	rows := store.Rows("clima")
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0][3] != "Sinop" || rows[1][3] != "Cuiabá" {
		t.Fatalf("locations = %v, %v", rows[0][3], rows[1][3])
	}
}

// TestRun_Latin1Residue: cells ending in "Â"+NBSP are scrubbed before the
// date is parsed and before the location is stored.
func TestRun_Latin1Residue(t *testing.T) {
	t.Parallel()

	store := memory.New()
	im := New(store, Options{})
	raw := "Data,Chuva,Cidade\n" +
		"2026-01-23\u00c2\u00a0,\"1,5\",Sinop\u00c2\u00a0\n" +
		"2026-01-24,\"2,0\",Sorriso\u00c2\u00a0MT\n"
	res := im.Run(context.Background(), "climate", []byte(raw))
	if !res.Success || res.RecordsImported != 2 || res.Dropped != 0 {
		t.Fatalf("result = %+v", res)
	}
	rows := store.Rows("fact_climate")
	if rows[0][3] != "Sinop" || rows[1][3] != "Sorriso MT" {
		t.Fatalf("locations = %q, %q", rows[0][3], rows[1][3])
	}
}

func TestRun_SQLiteIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo, closeFn, err := sqlite.NewRepository(ctx, sqlite.Config{DSN: ":memory:"})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer closeFn()

	im := New(repo, Options{})
	if err := sqliteddl.EnsureTable(ctx, repo, im.Table(schema.Market)); err != nil {
		t.Fatalf("EnsureTable: %v", err)
	}

	for i := 0; i < 2; i++ {
		res := im.Run(ctx, "market", []byte(marketCSV))
		if !res.Success || res.RecordsImported != 2 {
			t.Fatalf("run #%d: %+v", i+1, res)
		}
	}

	var count int
	if err := repo.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM fact_market`).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Fatalf("rows = %d, want 2 after re-import", count)
	}
	var fx decimal.NullDecimal
	if err := repo.DB().QueryRowContext(ctx,
		`SELECT fx_rate FROM fact_market WHERE date_key = ?`, "2026-01-24").Scan(&fx); err != nil {
		t.Fatalf("select: %v", err)
	}
	if !fx.Valid || !fx.Decimal.Equal(decimal.RequireFromString("5.12")) {
		t.Fatalf("fx_rate = %v, want 5.12", fx)
	}
}
