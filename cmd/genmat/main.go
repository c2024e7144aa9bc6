package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/23skdu/matbench/internal/codec"
)

const usage = `Usage:
    genmat [flags] OUTFILE M N

Options:
    OUTFILE : Output file (".zst" suffix compresses).
    M       : Matrix row dimension.
    N       : Matrix column dimension.

Flags:
    -value V   Fill value (default 1)
    -random    Uniform random values in [1, 2) instead of -value
    -seed S    Seed for -random (default 1)
    -delim C   Field delimiter (default ",")
`

var errUsage = errors.New("genmat: insufficient arguments")

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Caller().Logger()

	if err := run(os.Args[1:], os.Stdout); err != nil {
		log.Fatal().Err(err).Msg("Failed to generate matrix")
	}
}

func run(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("genmat", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	value := fs.Float64("value", 1, "Fill value")
	random := fs.Bool("random", false, "Fill with seeded random values")
	seed := fs.Uint64("seed", 1, "Random seed")
	delim := fs.String("delim", ",", "Field delimiter")

	err := fs.Parse(args)
	if errors.Is(err, flag.ErrHelp) || (err == nil && fs.NArg() < 3) {
		fmt.Fprint(stdout, usage)
		return nil
	}
	if err != nil {
		return err
	}

	d := []rune(*delim)
	if len(d) != 1 {
		return fmt.Errorf("genmat: -delim must be a single character, got %q", *delim)
	}
	out := fs.Arg(0)
	m, err := dim("M", fs.Arg(1))
	if err != nil {
		return err
	}
	n, err := dim("N", fs.Arg(2))
	if err != nil {
		return err
	}

	var data [][]float64
	if *random {
		data = codec.Random(m, n, *seed)
	} else {
		data = codec.Fill(m, n, *value)
	}
	if err := codec.WriteMatrix(out, data, codec.WithDelimiter(d[0])); err != nil {
		return err
	}
	log.Info().Str("path", out).Int("rows", m).Int("cols", n).Bool("random", *random).Msg("Matrix written")
	return nil
}

func dim(name, s string) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil || v < 1 {
		return 0, fmt.Errorf("genmat: %s must be a positive integer, got %q", name, s)
	}
	return v, nil
}
