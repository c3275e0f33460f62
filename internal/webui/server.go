// Package webui exposes the importer over HTTP: a small upload form for
// people and a JSON endpoint for scripts.
//
// Routes:
//
//	GET  /                    → upload form
//	POST /import              → form upload; renders the result inline
//	POST /api/import/{kind}   → raw CSV body or multipart "file"; Result JSON
//	GET  /healthz             → liveness
package webui

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log"
	"mime"
	"net/http"
	"strings"
	"time"

	"agroetl/internal/importer"
)

// DefaultMaxBytes caps request bodies when Config.MaxBytes is unset.
const DefaultMaxBytes = 10 << 20

// Importer runs one import over a raw CSV payload.
type Importer interface {
	Run(ctx context.Context, kind string, raw []byte) importer.Result
}

// Config controls server startup.
type Config struct {
	Addr     string
	MaxBytes int64
}

// Server wraps http.Server for convenience.
type Server struct {
	cfg  Config
	im   Importer
	mux  *http.ServeMux
	tmpl *template.Template
}

// NewServer constructs a Server with routes and the embedded form.
func NewServer(cfg Config, im Importer) *Server {
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = DefaultMaxBytes
	}
	s := &Server{
		cfg:  cfg,
		im:   im,
		mux:  http.NewServeMux(),
		tmpl: template.Must(template.New("index").Parse(indexHTML)),
	}
	s.routes()
	return s
}

// Handler returns the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler { return s.mux }

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("POST /import", s.handleForm)
	s.mux.HandleFunc("POST /api/import/{kind}", s.handleAPIImport)
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, "ok\n")
	})
}

type page struct {
	Kind       string
	ResultText string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if err := s.tmpl.Execute(w, page{Kind: "market"}); err != nil {
		log.Println("webui: template error:", err)
	}
}

// handleForm processes the upload form and renders the result below it.
func (s *Server) handleForm(w http.ResponseWriter, r *http.Request) {
	raw, status, err := s.readBody(w, r)
	kind := strings.TrimSpace(r.FormValue("kind"))
	var res importer.Result
	if err != nil {
		w.WriteHeader(status)
		res = importer.Failed(err)
	} else {
		res = s.im.Run(r.Context(), kind, raw)
	}
	pretty, _ := json.MarshalIndent(res, "", "  ")
	if err := s.tmpl.Execute(w, page{Kind: kind, ResultText: string(pretty)}); err != nil {
		log.Println("webui: template error:", err)
	}
}

// handleAPIImport answers 200 for a successful import and 422 when the
// importer reports a failure. Oversized bodies get 413.
func (s *Server) handleAPIImport(w http.ResponseWriter, r *http.Request) {
	raw, status, err := s.readBody(w, r)
	if err != nil {
		writeResult(w, status, importer.Failed(err))
		return
	}
	res := s.im.Run(r.Context(), r.PathValue("kind"), raw)
	status = http.StatusOK
	if !res.Success {
		status = http.StatusUnprocessableEntity
	}
	writeResult(w, status, res)
}

// readBody returns the CSV payload: the "file" part of a multipart form, or
// the raw body otherwise.
func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, int, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBytes)

	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mt != "multipart/form-data" {
		b, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, bodyStatus(err), err
		}
		return b, 0, nil
	}

	if err := r.ParseMultipartForm(s.cfg.MaxBytes); err != nil {
		return nil, bodyStatus(err), fmt.Errorf("bad form: %w", err)
	}
	f, _, err := r.FormFile("file")
	if err != nil {
		return nil, http.StatusBadRequest, fmt.Errorf("missing file: %w", err)
	}
	defer f.Close()
	b, err := io.ReadAll(f)
	if err != nil {
		return nil, bodyStatus(err), err
	}
	return b, 0, nil
}

func bodyStatus(err error) int {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

func writeResult(w http.ResponseWriter, status int, res importer.Result) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(res); err != nil {
		log.Printf("webui: write result: %v", err)
	}
}

//go:embed index.tmpl.html
var indexHTML string
