// Command fetch runs the daily update: it pulls the dollar rate, equity and
// cattle price feeds and the weather archive over HTTP, merges the market
// series by date and imports both tables.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"agroetl/internal/app"
	"agroetl/internal/calendar"
	"agroetl/internal/config"
	"agroetl/internal/datasource"
	"agroetl/internal/datasource/httpds"
	"agroetl/internal/datasource/openmeteo"
	"agroetl/internal/datasource/ptax"
	"agroetl/internal/datasource/quotes"
	"agroetl/internal/importer"
	"agroetl/internal/schema"
	"agroetl/pkg/records"

	_ "agroetl/internal/storage/all"
)

func main() {
	cfgPath := flag.String("config", "", "config file (.json, .yaml or .yml)")
	storageKind := flag.String("storage", "", "storage kind (overrides config)")
	dsn := flag.String("dsn", "", "storage DSN (overrides config)")
	skipMarket := flag.Bool("no-market", false, "skip the market feeds")
	skipClimate := flag.Bool("no-climate", false, "skip the weather feed")
	withCalendar := flag.Bool("calendar", true, "upsert calendar rows spanning the fetched dates")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, options{
		cfgPath:     *cfgPath,
		storageKind: *storageKind,
		dsn:         *dsn,
		market:      !*skipMarket,
		climate:     !*skipClimate,
		calendar:    *withCalendar,
	}, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type options struct {
	cfgPath     string
	storageKind string
	dsn         string
	market      bool
	climate     bool
	calendar    bool
}

// run returns the process exit code. Deferred cleanup has finished by the
// time it returns.
func run(ctx context.Context, o options, stdout, stderr io.Writer) int {
	cfg, err := config.Load(o.cfgPath)
	if err != nil {
		fmt.Fprintf(stderr, "fetch: %v\n", err)
		return 1
	}
	if o.storageKind != "" {
		cfg.Storage.Kind = o.storageKind
	}
	if o.dsn != "" {
		cfg.Storage.DSN = o.dsn
	}
	issues := config.Validate(cfg)
	for _, iss := range issues {
		fmt.Fprintf(stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		return 1
	}

	flush := app.InstallMetrics(cfg.Metrics, cfg.Job)
	defer flush()

	repo, err := app.OpenStorage(ctx, cfg)
	if err != nil {
		fmt.Fprintf(stderr, "fetch: %v\n", err)
		return 1
	}
	defer repo.Close()

	u := updater{
		cfg:     cfg,
		client:  newClient(cfg.Sources.HTTP),
		im:      app.NewImporter(repo, cfg),
		market:  o.market,
		climate: o.climate,
	}
	results, err := u.run(ctx)
	if err != nil {
		fmt.Fprintf(stderr, "fetch: %v\n", err)
		return 1
	}

	code := report(stdout, results)
	if o.calendar {
		var dates []string
		for _, r := range results {
			if r.FirstDate != "" {
				dates = append(dates, r.FirstDate, r.LastDate)
			}
		}
		if from, to, ok := calendar.Span(dates); ok {
			if _, err := app.LoadCalendar(ctx, repo, cfg, from, to); err != nil {
				log.Printf("fetch: calendar: %v", err)
				code = 1
			}
		}
	}
	if len(results) < u.wanted() {
		code = 1
	}
	return code
}

func newClient(h config.HTTP) *httpds.Client {
	return httpds.NewClient(httpds.Config{
		Timeout:     h.TimeoutDuration(),
		MaxRetries:  h.MaxRetries,
		RatePerSec:  h.RatePerSec,
		BaseHeaders: http.Header{"User-Agent": {"agroetl-fetch/1"}},
	})
}

type updater struct {
	cfg     config.Config
	client  *httpds.Client
	im      *importer.Importer
	market  bool
	climate bool
}

type kindResult struct {
	Kind string `json:"kind"`
	importer.Result
}

// marketSources lists the configured market feeds. Feeds without a URL are
// skipped.
func (u updater) marketSources() []datasource.TableSource {
	s := u.cfg.Sources
	srcs := []datasource.TableSource{&ptax.Source{HTTP: u.client, BaseURL: s.PTAX.BaseURL, PastDays: s.PTAX.PastDays}}
	for _, f := range []struct {
		feed  config.CSVFeed
		field schema.Field
	}{
		{s.Quotes, schema.EquityPrice},
		{s.Cattle, schema.CattlePrice},
	} {
		if f.feed.URL == "" {
			continue
		}
		srcs = append(srcs, &quotes.Feed{
			HTTP:        u.client,
			URL:         f.feed.URL,
			Field:       f.field,
			DateColumn:  f.feed.DateColumn,
			ValueColumn: f.feed.ValueColumn,
		})
	}
	return srcs
}

// wanted is the number of kinds u was asked to update.
func (u updater) wanted() int {
	n := 0
	if u.market {
		n++
	}
	if u.climate {
		n++
	}
	return n
}

// run fetches the market feeds and the weather feed concurrently, then
// imports each table that could be fetched. A kind whose feeds all fail is
// logged and skipped; run errors only when nothing could be fetched.
func (u updater) run(ctx context.Context) ([]kindResult, error) {
	var (
		market, climate         records.Table
		haveMarket, haveClimate bool
		marketErr, climateErr   error
	)
	var g errgroup.Group
	if u.market {
		g.Go(func() error {
			parts, err := datasource.FetchAll(ctx, 0, u.marketSources()...)
			if err != nil {
				marketErr = fmt.Errorf("market feeds: %w", err)
				log.Printf("fetch: skipping market: %v", err)
				return nil
			}
			market = datasource.MergeByDate(parts...)
			haveMarket = true
			return nil
		})
	}
	if u.climate {
		g.Go(func() error {
			om := u.cfg.Sources.OpenMeteo
			t, err := (&openmeteo.Source{
				HTTP:      u.client,
				BaseURL:   om.BaseURL,
				Latitude:  om.Latitude,
				Longitude: om.Longitude,
				Location:  om.Location,
				Timezone:  om.Timezone,
				PastDays:  om.PastDays,
			}).Fetch(ctx)
			if err != nil {
				climateErr = err
				log.Printf("fetch: skipping climate: %v", err)
				return nil
			}
			climate, haveClimate = t, true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if u.wanted() > 0 && !haveMarket && !haveClimate {
		return nil, errors.Join(marketErr, climateErr)
	}

	var out []kindResult
	if haveMarket {
		out = append(out, kindResult{"market", u.im.RunTable(ctx, "market", fillMarketColumns(market))})
	}
	if haveClimate {
		out = append(out, kindResult{"climate", u.im.RunTable(ctx, "climate", climate)})
	}
	return out, nil
}

// fillMarketColumns adds absent market columns as all-nil so a missing
// optional feed yields nulls instead of a missing-column failure.
func fillMarketColumns(t records.Table) records.Table {
	have := map[string]bool{}
	for _, c := range t.Columns {
		have[c] = true
	}
	for _, f := range schema.RequiredFields(schema.Market) {
		if have[string(f)] {
			continue
		}
		t.Columns = append(t.Columns, string(f))
		for i := range t.Rows {
			t.Rows[i] = append(t.Rows[i], nil)
		}
	}
	return t
}

func report(w io.Writer, results []kindResult) int {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	code := 0
	for _, r := range results {
		if err := enc.Encode(r); err != nil {
			log.Printf("fetch: write result: %v", err)
			code = 1
		}
		if !r.Success {
			code = 1
		}
	}
	log.Printf("fetch: finished at %s", time.Now().Format(time.RFC3339))
	return code
}
