// Command csvprobe samples a CSV (local path or URL) and shows how the
// importer would map its header.
//
// Usage:
//
//	csvprobe -src https://example.com/cotacoes.csv -bytes 20000
//	csvprobe -src clima.csv -kind climate -json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"agroetl/internal/probe"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("csvprobe", flag.ContinueOnError)
	fs.SetOutput(stderr)
	src := fs.String("src", "", "CSV path or http(s) URL to sample")
	nbytes := fs.Int("bytes", 20000, "number of bytes to sample from the start of the input")
	delimiter := fs.String("delimiter", "", "field delimiter (single character); empty sniffs ';' or ','")
	kind := fs.String("kind", "", "check only this kind (market or climate)")
	asJSON := fs.Bool("json", false, "print the report as JSON")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *src == "" && fs.NArg() > 0 {
		*src = fs.Arg(0)
	}
	if *src == "" {
		fmt.Fprintln(stderr, "csvprobe: -src is required")
		return 2
	}

	var comma rune
	if *delimiter != "" {
		r, _ := utf8.DecodeRuneInString(*delimiter)
		if r == utf8.RuneError {
			fmt.Fprintf(stderr, "csvprobe: bad delimiter %q\n", *delimiter)
			return 2
		}
		comma = r
	}

	rep, err := probe.Probe(ctx, probe.Options{Source: *src, MaxBytes: *nbytes, Comma: comma, Kind: *kind})
	if err != nil {
		fmt.Fprintf(stderr, "csvprobe: %v\n", err)
		return 1
	}

	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		err = enc.Encode(rep)
	} else {
		err = probe.WriteText(stdout, rep)
	}
	if err != nil {
		fmt.Fprintf(stderr, "csvprobe: %v\n", err)
		return 1
	}
	if rep.Best == "" {
		return 1
	}
	return 0
}
