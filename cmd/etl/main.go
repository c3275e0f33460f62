// Command etl imports market and climate CSV files into the configured
// fact tables and prints one JSON import result per file.
//
//	etl -config agro.yaml -market mercado.csv -climate clima.csv -calendar
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"agroetl/internal/app"
	"agroetl/internal/calendar"
	"agroetl/internal/config"
	"agroetl/internal/datasource"
	"agroetl/internal/datasource/file"
	"agroetl/internal/importer"
	"agroetl/internal/storage"

	// register all backends with the storage factory.
	_ "agroetl/internal/storage/all"
)

// fileList is a repeatable string flag.
type fileList []string

func (f *fileList) String() string { return strings.Join(*f, ",") }

func (f *fileList) Set(v string) error {
	*f = append(*f, v)
	return nil
}

type options struct {
	cfgPath        string
	storageKind    string
	dsn            string
	metricsBackend string
	pushGatewayURL string
	market         fileList
	climate        fileList
	calendar       bool
	validate       bool
	verbose        bool
}

func main() {
	var o options
	flag.StringVar(&o.cfgPath, "config", "", "config file (.json, .yaml or .yml)")
	flag.StringVar(&o.storageKind, "storage", "",
		"storage kind: "+strings.Join(storage.ListKinds(), ", ")+" (overrides config and AGRO_STORAGE_KIND)")
	flag.StringVar(&o.dsn, "dsn", "", "storage DSN (overrides config and AGRO_DB_DSN)")
	flag.StringVar(&o.metricsBackend, "metrics-backend", "", "metrics backend: none, pushgateway, datadog")
	flag.StringVar(&o.pushGatewayURL, "pushgateway-url", "", "Pushgateway base URL (overrides env PUSHGATEWAY_URL)")
	flag.Var(&o.market, "market", "market CSV file (repeatable)")
	flag.Var(&o.climate, "climate", "climate CSV file (repeatable)")
	flag.BoolVar(&o.calendar, "calendar", false, "upsert calendar rows spanning the imported dates")
	flag.BoolVar(&o.validate, "validate", false, "validate the configuration and exit")
	flag.BoolVar(&o.verbose, "v", false, "enable verbose logs")
	flag.Parse()

	if !o.verbose {
		log.SetOutput(io.Discard)
	}

	code, err := run(context.Background(), o, os.Stdout, os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(code)
}

// run executes the command and returns the process exit code: 0 when every
// file imported without failures, 1 otherwise.
func run(ctx context.Context, o options, stdout, stderr io.Writer) (int, error) {
	cfg, err := config.Load(o.cfgPath)
	if err != nil {
		return 1, err
	}
	applyFlags(&cfg, o)

	issues := config.Validate(cfg)
	for _, iss := range issues {
		fmt.Fprintf(stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		return 1, fmt.Errorf("configuration is invalid: %s", o.cfgPath)
	}
	if o.validate {
		fmt.Fprintf(stderr, "configuration is valid\n")
		return 0, nil
	}
	if len(o.market)+len(o.climate) == 0 {
		return 2, fmt.Errorf("nothing to import: pass -market and/or -climate")
	}

	flush := app.InstallMetrics(cfg.Metrics, cfg.Job)
	defer flush()

	start := time.Now()
	repo, err := app.OpenStorage(ctx, cfg)
	if err != nil {
		return 1, err
	}
	defer repo.Close()

	im := app.NewImporter(repo, cfg)
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")

	code := 0
	var dates []string
	jobs := make([]struct{ kind, path string }, 0, len(o.market)+len(o.climate))
	for _, p := range o.market {
		jobs = append(jobs, struct{ kind, path string }{"market", p})
	}
	for _, p := range o.climate {
		jobs = append(jobs, struct{ kind, path string }{"climate", p})
	}

	for _, j := range jobs {
		res := importFile(ctx, im, j.kind, j.path, cfg.Import.MaxBytes)
		if err := enc.Encode(struct {
			File string `json:"file"`
			Kind string `json:"kind"`
			importer.Result
		}{j.path, j.kind, res}); err != nil {
			return 1, err
		}
		if !res.Success {
			code = 1
		}
		if res.FirstDate != "" {
			dates = append(dates, res.FirstDate, res.LastDate)
		}
	}

	if o.calendar {
		if from, to, ok := calendar.Span(dates); ok {
			lr, err := app.LoadCalendar(ctx, repo, cfg, from, to)
			if err != nil {
				return 1, err
			}
			if lr.Failed > 0 {
				fmt.Fprintf(stderr, "calendar: %d rows failed: %s\n", lr.Failed, strings.Join(lr.Errors, "; "))
				code = 1
			}
		}
	}

	log.Printf("completed in %s", time.Since(start).Truncate(time.Millisecond))
	return code, nil
}

func importFile(ctx context.Context, im *importer.Importer, kind, path string, max int64) importer.Result {
	if max <= 0 {
		max = 1 << 30
	}
	raw, err := datasource.ReadAll(ctx, file.NewLocal(path), max)
	if err != nil {
		return importer.Result{
			Errors:  []string{err.Error()},
			Message: fmt.Sprintf("Failed to read %s: %v", path, err),
		}
	}
	return im.Run(ctx, kind, raw)
}

// applyFlags lets explicit flags win over env and file values.
func applyFlags(cfg *config.Config, o options) {
	if o.storageKind != "" {
		cfg.Storage.Kind = o.storageKind
	}
	if o.dsn != "" {
		cfg.Storage.DSN = o.dsn
	}
	if o.metricsBackend != "" {
		cfg.Metrics.Backend = o.metricsBackend
	}
	if o.pushGatewayURL != "" {
		cfg.Metrics.PushgatewayURL = o.pushGatewayURL
	}
}
