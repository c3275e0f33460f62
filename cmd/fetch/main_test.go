package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"agroetl/internal/app"
	"agroetl/internal/config"
	"agroetl/internal/datasource/httpds"
	"agroetl/internal/storage/memory"
	"agroetl/pkg/records"
)

func feedServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/ptax/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"value":[
			{"cotacaoCompra":5.12,"dataHoraCotacao":"2026-01-23 13:00:00.000"},
			{"cotacaoCompra":5.15,"dataHoraCotacao":"2026-01-24 13:00:00.000"}]}`))
	})
	mux.HandleFunc("/jbs.csv", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("Data;Fechamento\n23/01/2026;28,45\n24/01/2026;28,50\n"))
	})
	mux.HandleFunc("/meteo", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"daily":{"time":["2026-01-24"],"temperature_2m_max":[33.1],"precipitation_sum":[null]}}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestUpdater_Run(t *testing.T) {
	t.Parallel()

	srv := feedServer(t)
	cfg := config.Default()
	cfg.Sources.PTAX.BaseURL = srv.URL + "/ptax"
	cfg.Sources.Quotes = config.CSVFeed{URL: srv.URL + "/jbs.csv", DateColumn: "data", ValueColumn: "fechamento"}
	cfg.Sources.OpenMeteo.BaseURL = srv.URL + "/meteo"

	store := memory.New()
	u := updater{
		cfg:     cfg,
		client:  httpds.NewClient(httpds.Config{}),
		im:      app.NewImporter(store, cfg),
		market:  true,
		climate: true,
	}
	results, err := u.run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %+v", results)
	}
	for _, r := range results {
		if !r.Success {
			t.Fatalf("%s result = %+v", r.Kind, r.Result)
		}
	}
	if results[0].RecordsImported != 2 || store.Len("fact_market") != 2 {
		t.Fatalf("market imported = %d stored = %d", results[0].RecordsImported, store.Len("fact_market"))
	}
	rows := store.Rows("fact_climate")
	if len(rows) != 1 || rows[0][3] != "Cuiabá" {
		t.Fatalf("climate rows = %v", rows)
	}

	var out bytes.Buffer
	if code := report(&out, results); code != 0 {
		t.Fatalf("report code = %d", code)
	}
	if !strings.Contains(out.String(), `"records_imported": 2`) {
		t.Fatalf("report output = %s", out.String())
	}
}

func TestUpdater_FeedFailures(t *testing.T) {
	t.Parallel()

	srv := feedServer(t)
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer down.Close()

	t.Run("market down still imports climate", func(t *testing.T) {
		t.Parallel()
		cfg := config.Default()
		cfg.Sources.PTAX.BaseURL = down.URL
		cfg.Sources.OpenMeteo.BaseURL = srv.URL + "/meteo"
		store := memory.New()
		u := updater{cfg: cfg, client: httpds.NewClient(httpds.Config{}), im: app.NewImporter(store, cfg), market: true, climate: true}

		results, err := u.run(context.Background())
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		if len(results) != 1 || results[0].Kind != "climate" || !results[0].Success {
			t.Fatalf("results = %+v", results)
		}
		if store.Len("fact_climate") != 1 || store.Len("fact_market") != 0 {
			t.Fatalf("climate=%d market=%d", store.Len("fact_climate"), store.Len("fact_market"))
		}
	})

	t.Run("everything down", func(t *testing.T) {
		t.Parallel()
		cfg := config.Default()
		cfg.Sources.PTAX.BaseURL = down.URL
		cfg.Sources.OpenMeteo.BaseURL = down.URL
		u := updater{cfg: cfg, client: httpds.NewClient(httpds.Config{}), im: app.NewImporter(memory.New(), cfg), market: true, climate: true}
		if _, err := u.run(context.Background()); err == nil {
			t.Fatalf("expected error when every feed fails")
		}
	})
}

func TestRun_PartialFetchExitCode(t *testing.T) {
	t.Parallel()

	srv := feedServer(t)
	path := filepath.Join(t.TempDir(), "agroetl.json")
	cfg := fmt.Sprintf(`{"sources": {"ptax": {"base_url": %q}, "open_meteo": {"base_url": %q}}}`,
		srv.URL+"/missing", srv.URL+"/meteo")
	if err := os.WriteFile(path, []byte(cfg), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	var out, errOut bytes.Buffer
	code := run(context.Background(), options{cfgPath: path, market: true, climate: true, calendar: true}, &out, &errOut)
	if code != 1 {
		t.Fatalf("code = %d, want 1 (stderr %s)", code, errOut.String())
	}
	if !strings.Contains(out.String(), `"kind": "climate"`) || strings.Contains(out.String(), `"kind": "market"`) {
		t.Fatalf("stdout = %s", out.String())
	}
}

func TestFillMarketColumns(t *testing.T) {
	t.Parallel()

	in := records.Table{Columns: []string{"date_key", "fx_rate"}, Rows: [][]any{{"2026-01-23", "5.1"}}}
	got := fillMarketColumns(in)
	if strings.Join(got.Columns, ",") != "date_key,fx_rate,equity_price,cattle_price" {
		t.Fatalf("columns = %v", got.Columns)
	}
	if len(got.Rows[0]) != 4 || got.Rows[0][3] != nil {
		t.Fatalf("row = %v", got.Rows[0])
	}
}
