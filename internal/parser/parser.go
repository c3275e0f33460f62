// Package parser defines the decoding contract shared by input formats.
package parser

import (
	"io"

	"agroetl/pkg/records"
)

// Parser decodes one whole input into a table.
type Parser interface {
	Parse(r io.Reader) (records.Table, error)
}
