// Package report writes a bench.ResultTable to disk.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/23skdu/matbench/internal/bench"
	"github.com/23skdu/matbench/internal/codec"
)

// Format selects the on-disk encoding.
type Format string

const (
	FormatCSV   Format = "csv"
	FormatArrow Format = "arrow"
	FormatCBOR  Format = "cbor"
)

// Header is the CSV header row.
var Header = []string{"NumThreads", "Method", "Time (ns)"}

// ParseFormat accepts csv, arrow or cbor (case-insensitive).
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatArrow, FormatCBOR:
		return f, nil
	}
	return "", fmt.Errorf("report: unknown format %q", s)
}

// Meta describes the run that produced a table. CSV output ignores it.
type Meta struct {
	RunID   string
	Backend string
	Trials  int
}

// Write encodes table to path. Paths ending in ".zst" are compressed. The
// destination is not removed if encoding fails partway.
func Write(path string, format Format, table bench.ResultTable, meta Meta) (err error) {
	var enc func(io.Writer, bench.ResultTable, Meta) error
	switch format {
	case FormatCSV, "":
		enc = writeCSV
	case FormatArrow:
		enc = writeArrow
	case FormatCBOR:
		enc = writeCBOR
	default:
		return fmt.Errorf("report: unknown format %q", format)
	}

	wc, err := codec.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := wc.Close(); cerr != nil && err == nil {
			err = &codec.IOError{Op: "close", Path: path, Err: cerr}
		}
	}()

	if err := enc(wc, table, meta); err != nil {
		return &codec.IOError{Op: "write", Path: path, Err: err}
	}
	return nil
}
