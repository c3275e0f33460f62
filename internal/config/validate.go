package config

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"agroetl/internal/schema"
	"agroetl/internal/transformer"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError blocks execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning is reported but does not block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue is one validation finding. Path is a dotted path into the config,
// e.g. "storage.dsn" or "sources.open_meteo.latitude".
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether issues contains a SeverityError.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

var (
	knownStorage = map[string]bool{
		"postgres": true, "mssql": true, "mysql": true,
		"sqlite": true, "duckdb": true, "memory": true,
	}
	knownDedup   = map[string]bool{"": true, "keep-last": true, "keep-first": true, "most-complete": true}
	knownMetrics = map[string]bool{"": true, "none": true, "pushgateway": true, "datadog": true}

	tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)
)

// Validate lints cfg without mutating it.
func Validate(cfg Config) []Issue {
	var issues []Issue
	if strings.TrimSpace(cfg.Job) == "" {
		issues = append(issues, Issue{SeverityWarning, "job", "job is empty; metrics will be labelled \"agroetl\""})
	}
	issues = append(issues, validateStorage(cfg.Storage)...)
	issues = append(issues, validateImport(cfg.Import)...)
	issues = append(issues, validateSources(cfg.Sources)...)
	issues = append(issues, validateMetrics(cfg.Metrics)...)
	return issues
}

func validateStorage(s Storage) []Issue {
	var issues []Issue
	switch {
	case strings.TrimSpace(s.Kind) == "":
		issues = append(issues, Issue{SeverityError, "storage.kind", "storage.kind must not be empty"})
	case !knownStorage[s.Kind]:
		issues = append(issues, Issue{SeverityError, "storage.kind",
			fmt.Sprintf("unknown storage kind %q", s.Kind)})
	case s.Kind != "memory" && strings.TrimSpace(s.DSN) == "":
		issues = append(issues, Issue{SeverityError, "storage.dsn",
			fmt.Sprintf("storage kind %q requires a dsn", s.Kind)})
	}

	seen := map[string]string{}
	for _, t := range []struct{ path, name string }{
		{"storage.tables.market", s.Tables.Market},
		{"storage.tables.climate", s.Tables.Climate},
		{"storage.tables.calendar", s.Tables.Calendar},
	} {
		if t.name == "" {
			continue
		}
		if !tableName.MatchString(t.name) {
			issues = append(issues, Issue{SeverityError, t.path,
				fmt.Sprintf("table name %q must be an identifier, optionally schema qualified", t.name)})
			continue
		}
		if prev, ok := seen[strings.ToLower(t.name)]; ok {
			issues = append(issues, Issue{SeverityError, t.path,
				fmt.Sprintf("table %q is already used by %s", t.name, prev)})
		}
		seen[strings.ToLower(t.name)] = t.path
	}
	return issues
}

func validateImport(im Import) []Issue {
	var issues []Issue
	switch {
	case im.BatchSize < 0:
		issues = append(issues, Issue{SeverityError, "import.batch_size", "batch_size must be >= 0"})
	case im.BatchSize > 1000:
		issues = append(issues, Issue{SeverityWarning, "import.batch_size",
			"batch_size above 1000 may exceed driver parameter limits (SQL Server allows 2100 per statement)"})
	}
	if im.Comma != "" && im.Comma != `\t` {
		if utf8.RuneCountInString(im.Comma) != 1 || strings.ContainsAny(im.Comma, "\"\r\n") {
			issues = append(issues, Issue{SeverityError, "import.comma",
				fmt.Sprintf("comma %q must be a single character other than a quote or newline", im.Comma)})
		}
	}
	if im.MaxBytes < 0 {
		issues = append(issues, Issue{SeverityError, "import.max_bytes", "max_bytes must be >= 0"})
	}
	if strings.TrimSpace(im.DefaultLocation) == "" {
		issues = append(issues, Issue{SeverityWarning, "import.default_location",
			"default_location is empty; climate rows without a location use Cuiabá"})
	}
	if !knownDedup[im.DedupPolicy] {
		issues = append(issues, Issue{SeverityError, "import.dedup_policy",
			fmt.Sprintf("unknown dedup policy %q", im.DedupPolicy)})
	}
	kinds := make([]string, 0, len(im.NullPolicy))
	for k := range im.NullPolicy {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		path := "import.null_policy." + k
		if _, err := schema.ParseKind(k); err != nil {
			issues = append(issues, Issue{SeverityError, path, err.Error()})
		}
		if _, err := transformer.ParsePolicy(im.NullPolicy[k]); err != nil {
			issues = append(issues, Issue{SeverityError, path, err.Error()})
		}
	}
	return issues
}

func validateSources(s Sources) []Issue {
	var issues []Issue
	om := s.OpenMeteo
	if om.BaseURL != "" {
		issues = append(issues, checkURL("sources.open_meteo.base_url", om.BaseURL)...)
		if om.Latitude < -90 || om.Latitude > 90 {
			issues = append(issues, Issue{SeverityError, "sources.open_meteo.latitude", "latitude must be within [-90, 90]"})
		}
		if om.Longitude < -180 || om.Longitude > 180 {
			issues = append(issues, Issue{SeverityError, "sources.open_meteo.longitude", "longitude must be within [-180, 180]"})
		}
		if om.PastDays < 0 || om.PastDays > 92 {
			issues = append(issues, Issue{SeverityError, "sources.open_meteo.past_days", "past_days must be within [0, 92]"})
		}
	}
	if s.PTAX.BaseURL != "" {
		issues = append(issues, checkURL("sources.ptax.base_url", s.PTAX.BaseURL)...)
		if s.PTAX.PastDays < 0 {
			issues = append(issues, Issue{SeverityError, "sources.ptax.past_days", "past_days must be >= 0"})
		}
	}
	if s.Quotes.URL != "" {
		issues = append(issues, checkURL("sources.quotes.url", s.Quotes.URL)...)
	}
	if s.Cattle.URL != "" {
		issues = append(issues, checkURL("sources.cattle.url", s.Cattle.URL)...)
	}

	if s.HTTP.Timeout != "" {
		if d, err := time.ParseDuration(s.HTTP.Timeout); err != nil || d <= 0 {
			issues = append(issues, Issue{SeverityError, "sources.http.timeout",
				fmt.Sprintf("timeout %q must be a positive duration such as \"30s\"", s.HTTP.Timeout)})
		}
	}
	if s.HTTP.MaxRetries < 0 {
		issues = append(issues, Issue{SeverityError, "sources.http.max_retries", "max_retries must be >= 0"})
	}
	if s.HTTP.RatePerSec < 0 {
		issues = append(issues, Issue{SeverityError, "sources.http.rate_per_sec", "rate_per_sec must be >= 0 (0 disables limiting)"})
	}
	return issues
}

func checkURL(path, raw string) []Issue {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return []Issue{{SeverityError, path, fmt.Sprintf("%q is not an absolute http(s) URL", raw)}}
	}
	return nil
}

func validateMetrics(m Metrics) []Issue {
	var issues []Issue
	if !knownMetrics[m.Backend] {
		return append(issues, Issue{SeverityWarning, "metrics.backend",
			fmt.Sprintf("unknown metrics backend %q; metrics will be disabled", m.Backend)})
	}
	switch m.Backend {
	case "pushgateway":
		if m.PushgatewayURL == "" {
			issues = append(issues, Issue{SeverityError, "metrics.pushgateway_url", "pushgateway backend requires pushgateway_url"})
		} else {
			issues = append(issues, checkURL("metrics.pushgateway_url", m.PushgatewayURL)...)
		}
	case "datadog":
		if m.DatadogAddr == "" {
			issues = append(issues, Issue{SeverityError, "metrics.datadog_addr", "datadog backend requires datadog_addr"})
		}
	}
	return issues
}
