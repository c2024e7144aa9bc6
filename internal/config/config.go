// Package config resolves run parameters from the command line and the
// MATBENCH_NUM_THREADS environment override.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/23skdu/matbench/internal/device"
	"github.com/23skdu/matbench/internal/report"
)

// EnvThreads is the process-wide thread-hint override. It is read once,
// inside Resolve.
const EnvThreads = "MATBENCH_NUM_THREADS"

// DefaultThreadHint applies when neither -threads nor EnvThreads is set.
const DefaultThreadHint = 1

// ErrUsage is returned when fewer than four positional arguments are given.
// It is not a failure: callers print Usage and exit successfully.
var ErrUsage = errors.New("config: insufficient arguments")

// ParseError reports a value that could not be parsed as a positive integer.
type ParseError struct {
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("config: invalid %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

var (
	errNotPositive  = errors.New("must be a positive integer")
	errTrailingArgs = errors.New("unexpected arguments after NUM_TRIALS (flags go before DEST)")

	// ErrSweepWithThreads is returned when -sweep and -threads are both given.
	ErrSweepWithThreads = errors.New("cannot be combined with -threads")
)

// Config is resolved once at startup and never mutated afterwards.
type Config struct {
	DestPath    string
	MatrixAPath string
	MatrixBPath string
	NumTrials   int
	ThreadHint  int

	Backend string
	Format  report.Format
	// RestoreInPlace snapshots matrix A before the run and restores it before
	// every trial of an in-place method. Off by default, which lets in-place
	// methods drift across trials.
	RestoreInPlace bool
	// SweepThreads, when > 0, benchmarks every thread hint from 1 to
	// SweepThreads and ignores ThreadHint, including one taken from
	// EnvThreads. It cannot be combined with -threads.
	SweepThreads int
	Verify       bool
	Delimiter    rune

	MetricsPath string
	CPUProfile  string
	EnableOTel  bool
	LogLevel    string
}

// ThreadHints returns the hints the run will benchmark, in order.
func (c Config) ThreadHints() []int {
	if c.SweepThreads <= 0 {
		return []int{c.ThreadHint}
	}
	hints := make([]int, c.SweepThreads)
	for i := range hints {
		hints[i] = i + 1
	}
	return hints
}

// Resolve parses args (without the program name). getenv is consulted exactly
// once, for EnvThreads; pass os.Getenv in production.
func Resolve(args []string, getenv func(string) string) (Config, error) {
	cfg := Config{ThreadHint: DefaultThreadHint}

	fs := flag.NewFlagSet("matbench", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	threads := fs.Int("threads", 0, "Worker-thread hint forwarded to the matrix backend (overrides "+EnvThreads+")")
	fs.StringVar(&cfg.Backend, "backend", device.BackendGonum, "Matrix backend ("+strings.Join(device.Names(), ", ")+")")
	format := fs.String("format", string(report.FormatCSV), "Result format (csv, arrow, cbor)")
	fs.BoolVar(&cfg.RestoreInPlace, "restore", false, "Restore matrix A before each trial of an in-place method")
	fs.IntVar(&cfg.SweepThreads, "sweep", 0, "Benchmark thread hints 1..N instead of a single hint")
	fs.BoolVar(&cfg.Verify, "verify", false, "Run an untimed correctness pass before benchmarking")
	delim := fs.String("delim", ",", "Field delimiter of the input matrices (use ' ' for whitespace)")
	fs.StringVar(&cfg.MetricsPath, "metrics-out", "", "Write Prometheus metrics to this file after the run")
	fs.StringVar(&cfg.CPUProfile, "cpuprofile", "", "Write cpu profile to file")
	fs.BoolVar(&cfg.EnableOTel, "otel", false, "Enable OpenTelemetry tracing (stderr)")
	fs.StringVar(&cfg.LogLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return Config{}, ErrUsage
		}
		return Config{}, fmt.Errorf("config: %w", err)
	}

	pos := fs.Args()
	if len(pos) < 4 {
		return Config{}, ErrUsage
	}
	if len(pos) > 4 {
		// flag stops at the first positional, so trailing flags land here.
		return Config{}, &ParseError{Field: "arguments", Value: strings.Join(pos[4:], " "), Err: errTrailingArgs}
	}
	cfg.DestPath = pos[0]
	cfg.MatrixAPath = pos[1]
	cfg.MatrixBPath = pos[2]

	trials, err := positiveInt("NUM_TRIALS", pos[3])
	if err != nil {
		return Config{}, err
	}
	cfg.NumTrials = trials

	if v := strings.TrimSpace(getenv(EnvThreads)); v != "" {
		hint, err := positiveInt(EnvThreads, v)
		if err != nil {
			return Config{}, err
		}
		cfg.ThreadHint = hint
	}
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if set["threads"] {
		hint, err := positiveInt("-threads", strconv.Itoa(*threads))
		if err != nil {
			return Config{}, err
		}
		cfg.ThreadHint = hint
	}
	if cfg.SweepThreads < 0 {
		return Config{}, &ParseError{Field: "-sweep", Value: strconv.Itoa(cfg.SweepThreads), Err: errNotPositive}
	}
	if cfg.SweepThreads > 0 && set["threads"] {
		return Config{}, &ParseError{Field: "-sweep", Value: strconv.Itoa(cfg.SweepThreads), Err: ErrSweepWithThreads}
	}

	cfg.Format, err = report.ParseFormat(*format)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}

	d := []rune(*delim)
	if len(d) != 1 {
		return Config{}, &ParseError{Field: "-delim", Value: *delim, Err: errors.New("must be a single character")}
	}
	cfg.Delimiter = d[0]

	return cfg, nil
}

func positiveInt(field, s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, &ParseError{Field: field, Value: s, Err: err}
	}
	if n < 1 {
		return 0, &ParseError{Field: field, Value: s, Err: errNotPositive}
	}
	return n, nil
}

// Usage prints the command synopsis and flag summary.
func Usage(w io.Writer) {
	fmt.Fprint(w, `Usage:
    matbench [flags] DEST MATRIX_A MATRIX_B NUM_TRIALS

Arguments:
    DEST       : Output file for the timing table.
    MATRIX_A   : Delimited text file holding matrix A (receiver).
    MATRIX_B   : Delimited text file holding matrix B (argument).
    NUM_TRIALS : Trials per method; the reported time is the mean in ns.

Flags:
    -threads N        Worker-thread hint (default 1, or $`+EnvThreads+`)
    -backend NAME     Matrix backend: gonum (default) or native
    -format FMT       Result format: csv (default), arrow or cbor
    -restore          Restore A before each trial of an in-place method
    -sweep N          Benchmark thread hints 1..N (not with -threads)
    -verify           Untimed correctness pass before benchmarking
    -delim C          Input field delimiter (default ",")
    -metrics-out PATH Write Prometheus metrics to PATH
    -cpuprofile PATH  Write a CPU profile to PATH
    -otel             Print OpenTelemetry spans to stderr
    -log-level LEVEL  debug, info, warn or error
`)
}
