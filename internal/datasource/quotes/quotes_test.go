package quotes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"agroetl/internal/datasource/httpds"
	"agroetl/internal/schema"
)

func serve(t *testing.T, body string) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestFetch_NamedColumns(t *testing.T) {
	t.Parallel()

	url := serve(t, "Ticker;Data;Abertura;Fechamento\nJBSS3;23/01/2026;28,10;28,45\nJBSS3;24/01/2026;28,40;28,50\n")
	f := &Feed{
		HTTP:        httpds.NewClient(httpds.Config{}),
		URL:         url,
		Field:       schema.EquityPrice,
		DateColumn:  "data",
		ValueColumn: "Fechamento",
	}
	tbl, err := f.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if strings.Join(tbl.Columns, ",") != "date_key,equity_price" {
		t.Fatalf("columns = %v", tbl.Columns)
	}
	if tbl.Len() != 2 || tbl.Rows[0][0] != "23/01/2026" || tbl.Rows[1][1] != "28,50" {
		t.Fatalf("rows = %v", tbl.Rows)
	}
}

func TestFetch_DefaultColumns(t *testing.T) {
	t.Parallel()

	url := serve(t, "date,price\n2026-01-23,315.50\n")
	f := &Feed{HTTP: httpds.NewClient(httpds.Config{}), URL: url, Field: schema.CattlePrice}
	tbl, err := f.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if tbl.Rows[0][0] != "2026-01-23" || tbl.Rows[0][1] != "315.50" {
		t.Fatalf("rows = %v", tbl.Rows)
	}
}

func TestFetch_Errors(t *testing.T) {
	t.Parallel()

	c := httpds.NewClient(httpds.Config{})
	tests := []struct {
		name string
		feed *Feed
	}{
		{"empty url", &Feed{HTTP: c, Field: schema.CattlePrice}},
		{"missing column", &Feed{HTTP: c, URL: serve(t, "date,price\n2026-01-23,1\n"), Field: schema.CattlePrice, ValueColumn: "close"}},
		{"single column", &Feed{HTTP: c, URL: serve(t, "date\n2026-01-23\n"), Field: schema.CattlePrice}},
	}
	for _, tt := range tests {
		if _, err := tt.feed.Fetch(context.Background()); err == nil {
			t.Fatalf("%s: expected error", tt.name)
		}
	}
}
