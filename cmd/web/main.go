// Command web serves the import endpoint and upload form.
//
// Usage:
//
//	go run ./cmd/web -addr :8080 -config agroetl.yaml
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"agroetl/internal/app"
	"agroetl/internal/config"
	"agroetl/internal/webui"

	_ "agroetl/internal/storage/all"
)

type server interface {
	ListenAndServe() error
}

var newServer = func(cfg webui.Config, im webui.Importer) server {
	return webui.NewServer(cfg, im)
}

func main() {
	logger := log.New(os.Stderr, "", log.LstdFlags)
	if err := run(os.Args[1:], logger); err != nil {
		logger.Fatal(err)
	}
}

func run(args []string, logger *log.Logger) error {
	fs := flag.NewFlagSet("web", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	addr := fs.String("addr", ":8080", "listen address")
	cfgPath := fs.String("config", "", "config file (.json, .yaml or .yml)")
	storageKind := fs.String("storage", "", "storage kind (overrides config)")
	dsn := fs.String("dsn", "", "storage DSN (overrides config)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return err
	}
	if *storageKind != "" {
		cfg.Storage.Kind = *storageKind
	}
	if *dsn != "" {
		cfg.Storage.DSN = *dsn
	}
	issues := config.Validate(cfg)
	for _, iss := range issues {
		logger.Printf("config: %v", iss)
	}
	if config.HasErrors(issues) {
		return fmt.Errorf("invalid config")
	}

	flush := app.InstallMetrics(cfg.Metrics, cfg.Job)
	defer flush()

	repo, err := app.OpenStorage(context.Background(), cfg)
	if err != nil {
		return err
	}
	defer repo.Close()

	srv := newServer(webui.Config{Addr: *addr, MaxBytes: cfg.Import.MaxBytes}, app.NewImporter(repo, cfg))
	logger.Printf("listening on %s", *addr)
	return srv.ListenAndServe()
}
