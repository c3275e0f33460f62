// Package probe samples the head of a CSV and reports how the importer
// would read it: the delimiter, which kind the header satisfies, how each
// column maps to a canonical field and how many sampled dates parse.
package probe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"agroetl/internal/datasource"
	"agroetl/internal/datasource/file"
	"agroetl/internal/datasource/httpds"
	"agroetl/internal/normalize"
	csvparser "agroetl/internal/parser/csv"
	"agroetl/internal/schema"
)

// DefaultSampleBytes is used when Options.MaxBytes is unset.
const DefaultSampleBytes = 64 << 10

// Options control the sampling.
type Options struct {
	// Source is an http(s) URL or a local path.
	Source string
	// MaxBytes to sample from the start of the input.
	MaxBytes int
	// Comma forces the delimiter; 0 sniffs it.
	Comma rune
	// Kind restricts the report to one kind. Empty checks them all.
	Kind string
}

// KindReport is the header contract check for one kind.
type KindReport struct {
	Kind    schema.Kind       `json:"kind"`
	OK      bool              `json:"ok"`
	Mapped  map[string]string `json:"mapped"`
	Ignored []string          `json:"ignored,omitempty"`
	Missing []string          `json:"missing,omitempty"`

	// Dates counts sampled rows whose date cell parses.
	Dates     int    `json:"dates"`
	FirstDate string `json:"first_date,omitempty"`
	LastDate  string `json:"last_date,omitempty"`
}

// Report is the outcome of one probe.
type Report struct {
	Source    string       `json:"source"`
	Bytes     int          `json:"bytes"`
	Delimiter string       `json:"delimiter"`
	Columns   []string     `json:"columns"`
	Rows      int          `json:"rows"`
	Kinds     []KindReport `json:"kinds"`
	// Best is the satisfied kind that maps the most columns. Ties go to
	// the earlier kind.
	Best schema.Kind `json:"best,omitempty"`
}

// sampleFn fetches the first n bytes of src. Tests replace it.
var sampleFn = func(ctx context.Context, src string, n int) ([]byte, error) {
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		return httpds.NewClient(httpds.Config{}).Peek(ctx, src, n)
	}
	return datasource.Head(ctx, file.NewLocal(src), n)
}

// Probe samples opt.Source and checks its header against each kind.
func Probe(ctx context.Context, opt Options) (Report, error) {
	if strings.TrimSpace(opt.Source) == "" {
		return Report{}, fmt.Errorf("probe: source is empty")
	}
	n := opt.MaxBytes
	if n <= 0 {
		n = DefaultSampleBytes
	}
	kinds := schema.Kinds()
	if opt.Kind != "" {
		k, err := schema.ParseKind(opt.Kind)
		if err != nil {
			return Report{}, err
		}
		kinds = []schema.Kind{k}
	}

	raw, err := sampleFn(ctx, opt.Source, n)
	if err != nil {
		return Report{}, fmt.Errorf("probe: sample %s: %w", opt.Source, err)
	}
	return Inspect(opt.Source, raw, len(raw) >= n, opt.Comma, kinds...)
}

// Inspect builds a report from a sample already in memory. When truncated
// is set the trailing partial line is discarded first.
func Inspect(source string, raw []byte, truncated bool, comma rune, kinds ...schema.Kind) (Report, error) {
	if truncated {
		raw = cutLastNewline(raw)
	}
	if comma == 0 {
		comma = csvparser.SniffComma(raw)
	}
	t, err := csvparser.NewParser(csvparser.Options{Comma: comma, TrimSpace: true}).ParseBytes(raw)
	if err != nil {
		return Report{}, fmt.Errorf("probe: %w", err)
	}

	rep := Report{
		Source:    source,
		Bytes:     len(raw),
		Delimiter: string(comma),
		Columns:   t.Columns,
		Rows:      t.Len(),
	}
	best := 0
	for _, k := range kinds {
		m, err := schema.MapColumns(k, t.Columns)
		kr := KindReport{Kind: k, OK: err == nil, Mapped: make(map[string]string, len(m.ByColumn))}
		var mc *schema.MissingColumnsError
		if errors.As(err, &mc) {
			for _, f := range mc.Missing {
				kr.Missing = append(kr.Missing, string(f))
			}
		} else if err != nil {
			return Report{}, err
		}
		for _, c := range t.Columns {
			if f, ok := m.ByColumn[c]; ok {
				kr.Mapped[c] = string(f)
			} else {
				kr.Ignored = append(kr.Ignored, c)
			}
		}
		if idx, ok := m.Index[schema.DateKey]; ok {
			var dates []string
			for i := range t.Rows {
				if d, ok := normalize.Date(t.Cell(i, idx)); ok {
					dates = append(dates, d)
				}
			}
			kr.Dates = len(dates)
			if len(dates) > 0 {
				sort.Strings(dates)
				kr.FirstDate, kr.LastDate = dates[0], dates[len(dates)-1]
			}
		}
		if kr.OK && len(kr.Mapped) > best {
			rep.Best, best = k, len(kr.Mapped)
		}
		rep.Kinds = append(rep.Kinds, kr)
	}
	return rep, nil
}

// WriteText renders rep as a short human summary.
func WriteText(w io.Writer, rep Report) error {
	var b bytes.Buffer
	fmt.Fprintf(&b, "source:    %s (%d bytes, %d rows)\n", rep.Source, rep.Bytes, rep.Rows)
	fmt.Fprintf(&b, "delimiter: %q\n", rep.Delimiter)
	for _, kr := range rep.Kinds {
		status := "ok"
		if !kr.OK {
			status = "missing " + strings.Join(kr.Missing, ", ")
		}
		fmt.Fprintf(&b, "%s: %s\n", kr.Kind, status)
		for _, c := range rep.Columns {
			if f, ok := kr.Mapped[c]; ok {
				fmt.Fprintf(&b, "  %-20s -> %s\n", c, f)
			}
		}
		if kr.Dates > 0 {
			fmt.Fprintf(&b, "  dates: %d parsed, %s .. %s\n", kr.Dates, kr.FirstDate, kr.LastDate)
		}
	}
	_, err := w.Write(b.Bytes())
	return err
}

func cutLastNewline(b []byte) []byte {
	if i := bytes.LastIndexByte(b, '\n'); i >= 0 {
		return b[:i+1]
	}
	return b
}
