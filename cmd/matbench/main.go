package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime/pprof"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/23skdu/matbench/internal/bench"
	"github.com/23skdu/matbench/internal/codec"
	"github.com/23skdu/matbench/internal/config"
	"github.com/23skdu/matbench/internal/device"
	"github.com/23skdu/matbench/internal/report"
)

func main() {
	// Initialize logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Caller().Logger()

	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Getenv); err != nil {
		log.Fatal().Err(err).Msg("Benchmark failed")
	}
}

// run executes one benchmark. A usage request prints usage to stdout and
// returns nil.
func run(ctx context.Context, args []string, stdout io.Writer, getenv func(string) string) error {
	cfg, err := config.Resolve(args, getenv)
	if errors.Is(err, config.ErrUsage) {
		config.Usage(stdout)
		return nil
	}
	if err != nil {
		return err
	}

	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	} else {
		log.Warn().Str("level", cfg.LogLevel).Msg("Unknown log level, keeping default")
	}

	if cfg.EnableOTel {
		shutdown, err := initTracer(os.Stderr)
		if err != nil {
			return fmt.Errorf("initialize tracer: %w", err)
		}
		defer shutdown(context.Background())
	}

	if cfg.CPUProfile != "" {
		f, err := os.Create(cfg.CPUProfile)
		if err != nil {
			return fmt.Errorf("create CPU profile file: %w", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return fmt.Errorf("start CPU profile: %w", err)
		}
		defer pprof.StopCPUProfile()
	}

	runID := uuid.NewString()
	logger := log.With().Str("run_id", runID).Logger()

	// Load both operands before anything touches the destination.
	a, err := codec.ReadMatrix(cfg.MatrixAPath, codec.WithDelimiter(cfg.Delimiter))
	if err != nil {
		return fmt.Errorf("load matrix A: %w", err)
	}
	b, err := codec.ReadMatrix(cfg.MatrixBPath, codec.WithDelimiter(cfg.Delimiter))
	if err != nil {
		return fmt.Errorf("load matrix B: %w", err)
	}

	backend, err := device.New(cfg.Backend, cfg.ThreadHint)
	if err != nil {
		return err
	}
	ma, err := backend.NewMatrix(a)
	if err != nil {
		return fmt.Errorf("matrix A: %w", err)
	}
	mb, err := backend.NewMatrix(b)
	if err != nil {
		return fmt.Errorf("matrix B: %w", err)
	}
	ar, ac := ma.Dims()
	br, bc := mb.Dims()
	logger.Info().
		Str("backend", backend.Name()).
		Str("a", fmt.Sprintf("%dx%d", ar, ac)).
		Str("b", fmt.Sprintf("%dx%d", br, bc)).
		Int("trials", cfg.NumTrials).
		Ints("threads", cfg.ThreadHints()).
		Bool("restore", cfg.RestoreInPlace).
		Msg("Matrices loaded")

	if cfg.Verify {
		outcomes, err := bench.Verify(ma, mb)
		if err != nil {
			return err
		}
		for _, o := range outcomes {
			r, c := o.Result.Dims()
			logger.Debug().Str("method", o.Method.String()).Int("rows", r).Int("cols", c).Msg("Verified")
		}
		logger.Info().Int("methods", len(outcomes)).Float64("tolerance", bench.VerifyTolerance).Msg("All methods match reference")
	}

	driver := &bench.Driver{
		Timer:   bench.NewTimer(),
		Restore: cfg.RestoreInPlace,
		Logger:  logger,
	}
	start := time.Now()
	table, err := driver.Sweep(ctx, backend, ma, mb, cfg.ThreadHints(), cfg.NumTrials)
	if err != nil {
		return err
	}
	logger.Info().Int("records", len(table)).Dur("elapsed", time.Since(start)).Msg("Benchmark complete")

	meta := report.Meta{RunID: runID, Backend: backend.Name(), Trials: cfg.NumTrials}
	if err := report.Write(cfg.DestPath, cfg.Format, table, meta); err != nil {
		return err
	}
	logger.Info().Str("dest", cfg.DestPath).Str("format", string(cfg.Format)).Msg("Results written")

	if cfg.MetricsPath != "" {
		if err := bench.WriteMetrics(cfg.MetricsPath); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}

	return report.Summary(stdout, table)
}
