package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatalf("write %s: %v", p, err)
	}
	return p
}

func noEnv(string) string { return "" }

func TestLoad_JSONKeepsDefaults(t *testing.T) {
	t.Parallel()

	p := writeFile(t, "cfg.json", `{"job":"market-daily","storage":{"kind":"sqlite","dsn":"file:agro.db"}}`)
	cfg, err := LoadWithEnv(p, noEnv)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Job != "market-daily" || cfg.Storage.Kind != "sqlite" || cfg.Storage.DSN != "file:agro.db" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.Import.BatchSize != 100 || cfg.Import.DefaultLocation != "Cuiabá" {
		t.Fatalf("defaults lost: %+v", cfg.Import)
	}
}

func TestLoad_YAML(t *testing.T) {
	t.Parallel()

	p := writeFile(t, "cfg.yaml", `
job: climate
storage:
  kind: postgres
  dsn: postgres://etl@localhost/agro
  tables:
    climate: public.clima
import:
  comma: ";"
sources:
  http:
    timeout: 5s
`)
	cfg, err := LoadWithEnv(p, noEnv)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Storage.Tables.Climate != "public.clima" || cfg.Import.CommaRune() != ';' {
		t.Fatalf("cfg = %+v", cfg)
	}
	if got := cfg.Sources.HTTP.TimeoutDuration(); got != 5*time.Second {
		t.Fatalf("timeout = %v", got)
	}
	if cfg.Sources.PTAX.BaseURL == "" {
		t.Fatalf("ptax default lost")
	}
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	if _, err := LoadWithEnv(filepath.Join(t.TempDir(), "missing.json"), noEnv); err == nil {
		t.Fatalf("expected error for missing file")
	}
	p := writeFile(t, "bad.json", `{"storage":{"kind":"sqlite","unknown":1}}`)
	if _, err := LoadWithEnv(p, noEnv); err == nil {
		t.Fatalf("expected error for unknown field")
	}
}

func TestApplyEnv(t *testing.T) {
	t.Parallel()

	env := map[string]string{
		"AGRO_STORAGE_KIND": "mysql",
		"AGRO_DB_DSN":       "etl:pw@tcp(db:3306)/agro",
		"AGRO_BATCH_SIZE":   "250",
		"METRICS_BACKEND":   "datadog",
		"DD_AGENT_ADDR":     "127.0.0.1:8125",
		"PUSHGATEWAY_URL":   " ",
	}
	cfg, err := LoadWithEnv("", func(k string) string { return env[k] })
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Storage.Kind != "mysql" || cfg.Storage.DSN != env["AGRO_DB_DSN"] || cfg.Import.BatchSize != 250 {
		t.Fatalf("storage/import = %+v %+v", cfg.Storage, cfg.Import)
	}
	if cfg.Metrics.Backend != "datadog" || cfg.Metrics.DatadogAddr != "127.0.0.1:8125" || cfg.Metrics.PushgatewayURL != "" {
		t.Fatalf("metrics = %+v", cfg.Metrics)
	}
}

func TestCommaRune(t *testing.T) {
	t.Parallel()

	tests := map[string]rune{"": 0, ",": ',', ";": ';', `\t`: '\t', "|": '|'}
	for in, want := range tests {
		if got := (Import{Comma: in}).CommaRune(); got != want {
			t.Fatalf("CommaRune(%q) = %q, want %q", in, got, want)
		}
	}
}
