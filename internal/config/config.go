// Package config defines the JSON/YAML configuration of the agroetl
// binaries and how it is loaded.
//
// Precedence, highest first: command-line flags (applied by each cmd),
// environment variables, the config file, Default().
//
// Example (YAML):
//
//	job: daily
//	storage:
//	  kind: postgres
//	  dsn: postgres://etl@localhost/agro
//	  auto_create_table: true
//	import:
//	  batch_size: 100
//	  default_location: Cuiabá
//	sources:
//	  open_meteo: { latitude: -15.60, longitude: -56.10, location: Cuiabá }
//	metrics:
//	  backend: pushgateway
//	  pushgateway_url: http://localhost:9091
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration object.
type Config struct {
	// Job names the run in logs and metrics.
	Job     string  `json:"job" yaml:"job"`
	Storage Storage `json:"storage" yaml:"storage"`
	Import  Import  `json:"import" yaml:"import"`
	Sources Sources `json:"sources" yaml:"sources"`
	Metrics Metrics `json:"metrics" yaml:"metrics"`
}

// Storage selects the backend registered under Kind.
type Storage struct {
	Kind string `json:"kind" yaml:"kind"`
	DSN  string `json:"dsn" yaml:"dsn"`

	// AutoCreateTable creates missing fact and calendar tables before loading.
	AutoCreateTable bool   `json:"auto_create_table" yaml:"auto_create_table"`
	Tables          Tables `json:"tables" yaml:"tables"`
}

// Tables names the destination tables. Empty names select the defaults.
type Tables struct {
	Market   string `json:"market" yaml:"market"`
	Climate  string `json:"climate" yaml:"climate"`
	Calendar string `json:"calendar" yaml:"calendar"`
}

// Import tunes the importer.
type Import struct {
	BatchSize       int    `json:"batch_size" yaml:"batch_size"`
	DefaultLocation string `json:"default_location" yaml:"default_location"`

	// Comma is the CSV delimiter; empty sniffs it from the header.
	Comma string `json:"comma" yaml:"comma"`

	// MaxBytes caps uploads accepted by the web adapter.
	MaxBytes int64 `json:"max_bytes" yaml:"max_bytes"`

	// DedupPolicy is keep-last, keep-first or most-complete.
	DedupPolicy string `json:"dedup_policy" yaml:"dedup_policy"`

	// NullPolicy overrides the null handling of a kind, e.g.
	// {"climate": "forward_fill"}. Kinds not listed keep their default.
	NullPolicy map[string]string `json:"null_policy,omitempty" yaml:"null_policy,omitempty"`
}

// CommaRune returns the configured delimiter, or 0 to sniff.
func (i Import) CommaRune() rune {
	if i.Comma == "" {
		return 0
	}
	if i.Comma == `\t` {
		return '\t'
	}
	return []rune(i.Comma)[0]
}

// Sources configures the HTTP data sources used by the fetch command.
type Sources struct {
	OpenMeteo OpenMeteo `json:"open_meteo" yaml:"open_meteo"`
	PTAX      PTAX      `json:"ptax" yaml:"ptax"`

	// Quotes and Cattle are CSV-over-HTTP feeds for the equity and cattle
	// price series.
	Quotes CSVFeed `json:"quotes" yaml:"quotes"`
	Cattle CSVFeed `json:"cattle" yaml:"cattle"`

	HTTP HTTP `json:"http" yaml:"http"`
}

// OpenMeteo configures the daily weather archive source.
type OpenMeteo struct {
	BaseURL   string  `json:"base_url" yaml:"base_url"`
	Latitude  float64 `json:"latitude" yaml:"latitude"`
	Longitude float64 `json:"longitude" yaml:"longitude"`
	Location  string  `json:"location" yaml:"location"`
	Timezone  string  `json:"timezone" yaml:"timezone"`
	PastDays  int     `json:"past_days" yaml:"past_days"`
}

// PTAX configures the Banco Central dollar quote source.
type PTAX struct {
	BaseURL  string `json:"base_url" yaml:"base_url"`
	PastDays int    `json:"past_days" yaml:"past_days"`
}

// CSVFeed is an opaque CSV download. DateColumn and ValueColumn pick the
// two columns used; empty values fall back to the first and second column.
type CSVFeed struct {
	URL         string `json:"url" yaml:"url"`
	DateColumn  string `json:"date_column" yaml:"date_column"`
	ValueColumn string `json:"value_column" yaml:"value_column"`
}

// HTTP configures the shared outbound client.
type HTTP struct {
	// Timeout is a Go duration string, e.g. "30s".
	Timeout    string  `json:"timeout" yaml:"timeout"`
	MaxRetries int     `json:"max_retries" yaml:"max_retries"`
	RatePerSec float64 `json:"rate_per_sec" yaml:"rate_per_sec"`
}

// TimeoutDuration parses Timeout, falling back to 30s when empty or invalid.
func (h HTTP) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(h.Timeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// Metrics selects the metrics backend: "none", "pushgateway" or "datadog".
type Metrics struct {
	Backend        string `json:"backend" yaml:"backend"`
	PushgatewayURL string `json:"pushgateway_url" yaml:"pushgateway_url"`
	DatadogAddr    string `json:"datadog_addr" yaml:"datadog_addr"`
	Namespace      string `json:"namespace" yaml:"namespace"`
}

// Default returns a configuration that runs against an in-process store.
func Default() Config {
	return Config{
		Job: "agroetl",
		Storage: Storage{
			Kind:            "memory",
			AutoCreateTable: true,
		},
		Import: Import{
			BatchSize:       100,
			DefaultLocation: "Cuiabá",
			MaxBytes:        10 << 20,
			DedupPolicy:     "keep-last",
		},
		Sources: Sources{
			OpenMeteo: OpenMeteo{
				BaseURL:   "https://api.open-meteo.com/v1/forecast",
				Latitude:  -15.601,
				Longitude: -56.097,
				Location:  "Cuiabá",
				Timezone:  "America/Cuiaba",
				PastDays:  7,
			},
			PTAX: PTAX{
				BaseURL:  "https://olinda.bcb.gov.br/olinda/servico/PTAX/versao/v1/odata",
				PastDays: 7,
			},
			HTTP: HTTP{Timeout: "30s", MaxRetries: 3, RatePerSec: 2},
		},
		Metrics: Metrics{Backend: "none"},
	}
}

// Load reads path over Default() and applies environment overrides from
// the process environment. An empty path skips the file.
func Load(path string) (Config, error) {
	return LoadWithEnv(path, os.Getenv)
}

// LoadWithEnv is Load with an injectable environment lookup.
func LoadWithEnv(path string, getenv func(string) string) (Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := Decode(b, filepath.Ext(path), &cfg); err != nil {
			return cfg, fmt.Errorf("decode config %s: %w", path, err)
		}
	}
	ApplyEnv(&cfg, getenv)
	return cfg, nil
}

// Decode unmarshals b into cfg as YAML for ".yaml"/".yml" and JSON
// otherwise. Fields absent from b keep their current values.
func Decode(b []byte, ext string, cfg *Config) error {
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(b, cfg)
	default:
		dec := json.NewDecoder(bytes.NewReader(b))
		dec.DisallowUnknownFields()
		return dec.Decode(cfg)
	}
}

// ApplyEnv overrides cfg from environment variables:
//
//	AGRO_STORAGE_KIND  storage.kind
//	AGRO_DB_DSN        storage.dsn
//	AGRO_BATCH_SIZE    import.batch_size
//	METRICS_BACKEND    metrics.backend
//	PUSHGATEWAY_URL    metrics.pushgateway_url
//	DD_AGENT_ADDR      metrics.datadog_addr
func ApplyEnv(cfg *Config, getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&cfg.Storage.Kind, "AGRO_STORAGE_KIND")
	set(&cfg.Storage.DSN, "AGRO_DB_DSN")
	set(&cfg.Metrics.Backend, "METRICS_BACKEND")
	set(&cfg.Metrics.PushgatewayURL, "PUSHGATEWAY_URL")
	set(&cfg.Metrics.DatadogAddr, "DD_AGENT_ADDR")
	if v := getenv("AGRO_BATCH_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Import.BatchSize = n
		}
	}
}
