// Package csv decodes uploaded CSV files into a records.Table. Inputs are
// bounded by the caller (uploads are capped), so the whole file is read.
package csv

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"agroetl/internal/parser"
	"agroetl/pkg/records"
)

// Options configures the CSV parser behavior. All fields are optional.
type Options struct {
	// Comma specifies the field delimiter. When zero, the delimiter is
	// sniffed from the header line: ';' if it occurs more often than ','.
	Comma rune

	// TrimSpace trims leading/trailing spaces from each field value.
	TrimSpace bool

	// KeepEmpty keeps empty cells as "" instead of nil.
	KeepEmpty bool
}

// DecodeError reports input that is not usable as a table at all.
type DecodeError struct {
	Line int
	Err  error
}

func (e *DecodeError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("csv decode: line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("csv decode: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ErrEmpty is returned (wrapped in a DecodeError) for input without a header.
var ErrEmpty = errors.New("no columns to parse from input")

// Parser parses CSV input according to Options. It is safe to reuse across
// inputs, but Parser itself is not concurrency-safe.
type Parser struct{ opt Options }

var _ parser.Parser = (*Parser)(nil)

// NewParser constructs a Parser with the provided Options.
func NewParser(opt Options) *Parser { return &Parser{opt: opt} }

// Parse reads a header row and every data row. Rows shorter than the header
// are padded with nil; rows longer than the header and malformed quoting are
// decode errors. Blank lines are skipped.
func (p *Parser) Parse(r io.Reader) (records.Table, error) {
	br := bufio.NewReader(r)

	comma := p.opt.Comma
	if comma == 0 {
		head, _ := br.Peek(4096)
		comma = SniffComma(head)
	}

	cr := csv.NewReader(br)
	cr.Comma = comma
	cr.FieldsPerRecord = -1

	h, err := cr.Read()
	if err == io.EOF {
		return records.Table{}, &DecodeError{Err: ErrEmpty}
	}
	if err != nil {
		return records.Table{}, &DecodeError{Line: 1, Err: fmt.Errorf("read csv header: %w", lineless(err))}
	}
	t := records.Table{Columns: normalizeHeaders(h)}
	if len(t.Columns) == 1 && t.Columns[0] == "" {
		return records.Table{}, &DecodeError{Err: ErrEmpty}
	}

	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return records.Table{}, &DecodeError{Line: lineOf(err), Err: lineless(err)}
		}
		line, _ := cr.FieldPos(0)
		if len(row) > len(t.Columns) {
			return records.Table{}, &DecodeError{
				Line: line,
				Err:  fmt.Errorf("expected %d fields, saw %d", len(t.Columns), len(row)),
			}
		}

		out := make([]any, len(t.Columns))
		for i, val := range row {
			if p.opt.TrimSpace {
				val = strings.TrimSpace(val)
			}
			if p.opt.KeepEmpty {
				out[i] = val
				continue
			}
			out[i] = emptyToNil(val)
		}
		t.Rows = append(t.Rows, out)
	}
	return t, nil
}

// ParseBytes is Parse over an in-memory upload.
func (p *Parser) ParseBytes(b []byte) (records.Table, error) {
	return p.Parse(bytes.NewReader(b))
}

// SniffComma picks ';' or ',' from the first line of head, ignoring quoted
// text. Ties and empty input fall back to ','.
func SniffComma(head []byte) rune {
	if i := bytes.IndexByte(head, '\n'); i >= 0 {
		head = head[:i]
	}
	var commas, semis int
	quoted := false
	for _, c := range head {
		switch c {
		case '"':
			quoted = !quoted
		case ',':
			if !quoted {
				commas++
			}
		case ';':
			if !quoted {
				semis++
			}
		}
	}
	if semis > commas {
		return ';'
	}
	return ','
}

// lineless unwraps *csv.ParseError so DecodeError carries the line itself.
func lineless(err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return pe.Err
	}
	return err
}

func lineOf(err error) int {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return pe.Line
	}
	return 0
}

// emptyToNil converts an empty string to nil; all other values are returned as-is.
func emptyToNil(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// normalizeHeaders trims header cells and strips a UTF-8 BOM from the first
// one. Name folding is left to the schema mapper.
func normalizeHeaders(h []string) []string {
	res := make([]string, len(h))
	for i, col := range h {
		res[i] = strings.TrimSpace(col)
	}
	return StripHeaderBOM(res)
}
