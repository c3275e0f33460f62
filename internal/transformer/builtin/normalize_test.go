package builtin

import (
	"reflect"
	"testing"

	"agroetl/pkg/records"
)

func TestNormalizeTable(t *testing.T) {
	t.Parallel()

	tbl := records.Table{
		Columns: []string{"date", "value"},
		Rows: [][]any{
			{"  2026-01-02 ", "1\u00a0234,5"},
			{"2026-01-03", "\u00c2\u00a0x"},
			{"2026-01-04\u00c2", "Sinop\u00c2"},
			{nil, 3.5},
		},
	}
	got := Normalize{}.Table(tbl)
	want := [][]any{
		{"2026-01-02", "1 234,5"},
		{"2026-01-03", "x"},
		{"2026-01-04", "Sinop"},
		{nil, 3.5},
	}
	if !reflect.DeepEqual(got.Rows, want) {
		t.Fatalf("Rows = %#v, want %#v", got.Rows, want)
	}
}

func TestNormalizeHeader(t *testing.T) {
	t.Parallel()

	got := Normalize{}.Header([]string{" data ", "boi"})
	if want := []string{"data", "boi"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Header = %v, want %v", got, want)
	}
}
