package bench

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/23skdu/matbench/internal/device"
)

const tracerName = "github.com/23skdu/matbench/internal/bench"

// Driver benchmarks every method of a Registry, one after another.
type Driver struct {
	Timer *Timer
	// Restore snapshots A before the run and puts it back before every trial
	// of an in-place method and once after the method finishes. When false,
	// in-place methods see the state left by their previous trial.
	Restore bool
	Logger  zerolog.Logger
}

// NewDriver returns a driver on the system clock with logging disabled.
func NewDriver() *Driver {
	return &Driver{Timer: NewTimer(), Logger: zerolog.Nop()}
}

func (d *Driver) timer() *Timer {
	if d.Timer == nil {
		return NewTimer()
	}
	return d.Timer
}

// Run times each method of reg for trials trials and stamps every record
// with threadHint. Records follow registry order. The first failing method
// aborts the run; records gathered so far are returned with the error.
// ctx carries the trace span only; runs are not cancellable.
func (d *Driver) Run(ctx context.Context, reg Registry, trials, threadHint int) (ResultTable, error) {
	if trials < 1 {
		return nil, ErrInvalidTrials
	}
	tracer := otel.Tracer(tracerName)
	timer := d.timer()

	var snapshot device.Matrix
	if d.Restore {
		snapshot = reg.A.Clone()
	}
	restore := func() {
		// Same shape by construction.
		_ = reg.A.CopyFrom(snapshot)
	}

	table := make(ResultTable, 0, reg.Len())
	for _, spec := range reg.Specs {
		_, span := tracer.Start(ctx, "bench.method", trace.WithAttributes(
			attribute.String("method", spec.ID.String()),
			attribute.Int("threads", threadHint),
			attribute.Int("trials", trials),
			attribute.Bool("in_place", spec.InPlace),
		))

		opts := []MeasureOption{WithObserver(observer(spec.ID, threadHint))}
		if d.Restore && spec.InPlace {
			opts = append(opts, WithReset(restore))
		}
		invoke := spec.Invoke
		avg, err := timer.Measure(trials, func() error {
			_, err := invoke()
			return err
		}, opts...)
		if d.Restore && spec.InPlace {
			restore()
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			span.End()
			return table, fmt.Errorf("bench: %s: %w", spec.ID, err)
		}
		span.SetAttributes(attribute.Int64("avg_ns", avg))
		span.End()

		recordAverage(spec.ID, threadHint, avg)
		d.Logger.Debug().
			Str("method", spec.ID.String()).
			Int("threads", threadHint).
			Int64("avg_ns", avg).
			Msg("Method benchmarked")

		table = append(table, TimingRecord{
			ThreadHint:   threadHint,
			Method:       spec.ID,
			AverageNanos: avg,
		})
	}
	return table, nil
}

// Sweep runs the full registry once per thread hint. The hint is forwarded
// to backend before each pass, and every pass works on fresh clones of a and
// b so in-place drift does not leak from one hint into the next.
func (d *Driver) Sweep(ctx context.Context, backend device.Backend, a, b device.Matrix, hints []int, trials int) (ResultTable, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "bench.sweep", trace.WithAttributes(
		attribute.String("backend", backend.Name()),
		attribute.IntSlice("threads", hints),
	))
	defer span.End()

	var table ResultTable
	for _, hint := range hints {
		backend.SetThreads(hint)
		d.Logger.Info().
			Str("backend", backend.Name()).
			Int("threads", backend.Threads()).
			Int("trials", trials).
			Msg("Benchmarking")

		reg := NewRegistry(a.Clone(), b.Clone())
		part, err := d.Run(ctx, reg, trials, hint)
		table = append(table, part...)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return table, err
		}
	}
	return table, nil
}
