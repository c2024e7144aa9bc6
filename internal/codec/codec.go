// Package codec reads and writes matrices as delimited text, one row per
// line and no header. Paths ending in ".zst" are transparently zstd
// compressed.
package codec

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode"

	"github.com/klauspost/compress/zstd"
)

// ZstdExt marks compressed files.
const ZstdExt = ".zst"

var (
	// ErrRagged is returned when rows have differing token counts.
	ErrRagged = errors.New("codec: ragged rows")
	// ErrEmpty is returned for files with no data rows.
	ErrEmpty = errors.New("codec: no rows")
)

// ParseError reports a token that is not a number.
type ParseError struct {
	Path   string
	Line   int
	Column int
	Token  string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Token == "" {
		return fmt.Sprintf("codec: %s:%d: %v", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("codec: %s:%d:%d: invalid number %q: %v", e.Path, e.Line, e.Column, e.Token, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// IOError reports a file that could not be opened, read or written.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("codec: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

type options struct {
	delim rune
}

// Option configures ReadMatrix and WriteMatrix.
type Option func(*options)

// WithDelimiter sets the field delimiter. A space or tab delimiter splits on
// any run of whitespace when reading.
func WithDelimiter(r rune) Option {
	return func(o *options) { o.delim = r }
}

func buildOptions(opts []Option) options {
	o := options{delim: ','}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// ReadMatrix loads a rectangular matrix from path.
func ReadMatrix(path string, opts ...Option) ([][]float64, error) {
	o := buildOptions(opts)

	rc, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var rows [][]float64
	if unicode.IsSpace(o.delim) {
		rows, err = readFields(path, rc)
	} else {
		rows, err = readDelimited(path, rc, o.delim)
	}
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmpty, path)
	}
	return rows, nil
}

func readDelimited(path string, r io.Reader, delim rune) ([][]float64, error) {
	cr := csv.NewReader(r)
	cr.Comma = delim
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	var rows [][]float64
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				if errors.Is(perr.Err, csv.ErrFieldCount) {
					return nil, fmt.Errorf("%w: %s:%d", ErrRagged, path, perr.Line)
				}
				return nil, &ParseError{Path: path, Line: perr.Line, Column: perr.Column, Err: perr.Err}
			}
			return nil, &IOError{Op: "read", Path: path, Err: err}
		}
		line, _ := cr.FieldPos(0)
		row, err := parseRow(path, line, rec)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
}

func readFields(path string, r io.Reader) ([][]float64, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 64*1024*1024)

	var rows [][]float64
	line := 0
	for sc.Scan() {
		line++
		toks := strings.Fields(sc.Text())
		if len(toks) == 0 {
			continue
		}
		row, err := parseRow(path, line, toks)
		if err != nil {
			return nil, err
		}
		if len(rows) > 0 && len(row) != len(rows[0]) {
			return nil, fmt.Errorf("%w: %s:%d", ErrRagged, path, line)
		}
		rows = append(rows, row)
	}
	if err := sc.Err(); err != nil {
		return nil, &IOError{Op: "read", Path: path, Err: err}
	}
	return rows, nil
}

func parseRow(path string, line int, toks []string) ([]float64, error) {
	row := make([]float64, len(toks))
	for j, tok := range toks {
		v, err := strconv.ParseFloat(strings.TrimSpace(tok), 64)
		if err != nil {
			return nil, &ParseError{Path: path, Line: line, Column: j + 1, Token: tok, Err: err}
		}
		row[j] = v
	}
	return row, nil
}

// WriteMatrix stores data at path. Values are written with the shortest
// representation that parses back to the same float64.
func WriteMatrix(path string, data [][]float64, opts ...Option) (err error) {
	o := buildOptions(opts)

	wc, err := Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := wc.Close(); cerr != nil && err == nil {
			err = &IOError{Op: "close", Path: path, Err: cerr}
		}
	}()

	w := csv.NewWriter(wc)
	w.Comma = o.delim
	rec := make([]string, 0)
	for _, row := range data {
		rec = rec[:0]
		for _, v := range row {
			rec = append(rec, strconv.FormatFloat(v, 'g', -1, 64))
		}
		if err := w.Write(rec); err != nil {
			return &IOError{Op: "write", Path: path, Err: err}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return &IOError{Op: "write", Path: path, Err: err}
	}
	return nil
}

// Open opens path for reading, decompressing ".zst" files.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &IOError{Op: "open", Path: path, Err: err}
	}
	if !strings.HasSuffix(path, ZstdExt) {
		return f, nil
	}
	dec, err := zstd.NewReader(f)
	if err != nil {
		f.Close()
		return nil, &IOError{Op: "open", Path: path, Err: err}
	}
	return &zstdReadCloser{dec: dec, f: f}, nil
}

// Create creates or truncates path for writing, compressing ".zst" files.
// Closing the returned writer flushes the compressor and closes the file.
func Create(path string) (io.WriteCloser, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, &IOError{Op: "create", Path: path, Err: err}
	}
	if !strings.HasSuffix(path, ZstdExt) {
		return f, nil
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		f.Close()
		return nil, &IOError{Op: "create", Path: path, Err: err}
	}
	return &zstdWriteCloser{enc: enc, f: f}, nil
}

type zstdReadCloser struct {
	dec *zstd.Decoder
	f   *os.File
}

func (z *zstdReadCloser) Read(p []byte) (int, error) { return z.dec.Read(p) }

func (z *zstdReadCloser) Close() error {
	z.dec.Close()
	return z.f.Close()
}

type zstdWriteCloser struct {
	enc *zstd.Encoder
	f   *os.File
}

func (z *zstdWriteCloser) Write(p []byte) (int, error) { return z.enc.Write(p) }

func (z *zstdWriteCloser) Close() error {
	if err := z.enc.Close(); err != nil {
		z.f.Close()
		return err
	}
	return z.f.Close()
}
