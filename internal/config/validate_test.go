package config

import (
	"strings"
	"testing"
)

func hasIssue(issues []Issue, sev IssueSeverity, path, msgSubstr string) bool {
	for _, iss := range issues {
		if iss.Severity == sev && iss.Path == path && strings.Contains(iss.Message, msgSubstr) {
			return true
		}
	}
	return false
}

func TestValidate_DefaultIsClean(t *testing.T) {
	t.Parallel()

	if issues := Validate(Default()); len(issues) != 0 {
		t.Fatalf("Default() issues: %+v", issues)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
		sev    IssueSeverity
		path   string
		msg    string
	}{
		{"empty job", func(c *Config) { c.Job = " " }, SeverityWarning, "job", "job is empty"},
		{"empty storage kind", func(c *Config) { c.Storage.Kind = "" }, SeverityError, "storage.kind", "must not be empty"},
		{"unknown storage kind", func(c *Config) { c.Storage.Kind = "oracle" }, SeverityError, "storage.kind", "unknown storage kind"},
		{"dsn required", func(c *Config) { c.Storage.Kind = "postgres" }, SeverityError, "storage.dsn", "requires a dsn"},
		{"bad table name", func(c *Config) { c.Storage.Tables.Market = "fact market" }, SeverityError, "storage.tables.market", "identifier"},
		{"duplicate table", func(c *Config) {
			c.Storage.Tables.Market = "facts"
			c.Storage.Tables.Climate = "FACTS"
		}, SeverityError, "storage.tables.climate", "already used"},
		{"negative batch", func(c *Config) { c.Import.BatchSize = -1 }, SeverityError, "import.batch_size", ">= 0"},
		{"huge batch", func(c *Config) { c.Import.BatchSize = 5000 }, SeverityWarning, "import.batch_size", "parameter limits"},
		{"bad comma", func(c *Config) { c.Import.Comma = ";;" }, SeverityError, "import.comma", "single character"},
		{"quote comma", func(c *Config) { c.Import.Comma = `"` }, SeverityError, "import.comma", "single character"},
		{"negative max bytes", func(c *Config) { c.Import.MaxBytes = -1 }, SeverityError, "import.max_bytes", ">= 0"},
		{"empty location", func(c *Config) { c.Import.DefaultLocation = "" }, SeverityWarning, "import.default_location", "Cuiabá"},
		{"bad dedup", func(c *Config) { c.Import.DedupPolicy = "newest" }, SeverityError, "import.dedup_policy", "unknown"},
		{"null policy kind", func(c *Config) { c.Import.NullPolicy = map[string]string{"soy": "ffill"} }, SeverityError, "import.null_policy.soy", "unknown kind"},
		{"null policy name", func(c *Config) { c.Import.NullPolicy = map[string]string{"climate": "interpolate"} }, SeverityError, "import.null_policy.climate", "unknown null policy"},
		{"latitude", func(c *Config) { c.Sources.OpenMeteo.Latitude = 91 }, SeverityError, "sources.open_meteo.latitude", "[-90, 90]"},
		{"longitude", func(c *Config) { c.Sources.OpenMeteo.Longitude = -200 }, SeverityError, "sources.open_meteo.longitude", "[-180, 180]"},
		{"past days", func(c *Config) { c.Sources.OpenMeteo.PastDays = 100 }, SeverityError, "sources.open_meteo.past_days", "[0, 92]"},
		{"ptax url", func(c *Config) { c.Sources.PTAX.BaseURL = "ftp://bcb" }, SeverityError, "sources.ptax.base_url", "http(s)"},
		{"quotes url", func(c *Config) { c.Sources.Quotes.URL = "/relative.csv" }, SeverityError, "sources.quotes.url", "http(s)"},
		{"timeout", func(c *Config) { c.Sources.HTTP.Timeout = "soon" }, SeverityError, "sources.http.timeout", "positive duration"},
		{"retries", func(c *Config) { c.Sources.HTTP.MaxRetries = -1 }, SeverityError, "sources.http.max_retries", ">= 0"},
		{"rate", func(c *Config) { c.Sources.HTTP.RatePerSec = -1 }, SeverityError, "sources.http.rate_per_sec", ">= 0"},
		{"unknown metrics", func(c *Config) { c.Metrics.Backend = "statsd" }, SeverityWarning, "metrics.backend", "unknown"},
		{"pushgateway url", func(c *Config) { c.Metrics.Backend = "pushgateway" }, SeverityError, "metrics.pushgateway_url", "requires"},
		{"datadog addr", func(c *Config) { c.Metrics.Backend = "datadog" }, SeverityError, "metrics.datadog_addr", "requires"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := Default()
			tt.mutate(&cfg)
			issues := Validate(cfg)
			if !hasIssue(issues, tt.sev, tt.path, tt.msg) {
				t.Fatalf("want %s at %s containing %q; got %+v", tt.sev, tt.path, tt.msg, issues)
			}
		})
	}
}

func TestHasErrors(t *testing.T) {
	t.Parallel()

	if HasErrors([]Issue{{Severity: SeverityWarning}}) {
		t.Fatalf("warnings alone are not errors")
	}
	if !HasErrors([]Issue{{Severity: SeverityWarning}, {Severity: SeverityError}}) {
		t.Fatalf("expected HasErrors")
	}
	if got := (Issue{SeverityError, "storage.kind", "x"}).Error(); got != "error at storage.kind: x" {
		t.Fatalf("Error() = %q", got)
	}
}
