// Package datasource holds the input sources of the import pipeline: local
// CSV files (file), the shared HTTP client (httpds) and the public market
// and weather feeds (openmeteo, ptax, quotes).
package datasource

import (
	"context"
	"fmt"
	"io"
)

// Source opens a byte stream such as a CSV upload.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// ReadAll opens src and reads at most max bytes. Larger inputs are an error
// rather than a silent truncation.
func ReadAll(ctx context.Context, src Source, max int64) ([]byte, error) {
	rc, err := src.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	b, err := io.ReadAll(io.LimitReader(rc, max+1))
	if err != nil {
		return nil, err
	}
	if int64(len(b)) > max {
		return nil, fmt.Errorf("input exceeds %d bytes", max)
	}
	return b, nil
}

// Head reads up to the first n bytes of src.
func Head(ctx context.Context, src Source, n int) ([]byte, error) {
	rc, err := src.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(io.LimitReader(rc, int64(n)))
}
