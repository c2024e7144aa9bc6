package report

import (
	"io"
	"strconv"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/23skdu/matbench/internal/bench"
)

// Arrow column names.
const (
	ColNumThreads = "num_threads"
	ColMethod     = "method"
	ColTimeNanos  = "time_ns"
)

// Schema returns the Arrow schema of a result table, with the run metadata
// attached.
func Schema(meta Meta) *arrow.Schema {
	md := arrow.NewMetadata(
		[]string{"run_id", "backend", "trials"},
		[]string{meta.RunID, meta.Backend, strconv.Itoa(meta.Trials)},
	)
	return arrow.NewSchema(
		[]arrow.Field{
			{Name: ColNumThreads, Type: arrow.PrimitiveTypes.Int64},
			{Name: ColMethod, Type: arrow.BinaryTypes.String},
			{Name: ColTimeNanos, Type: arrow.PrimitiveTypes.Int64},
		},
		&md,
	)
}

// BuildRecordBatch converts table into a single RecordBatch. The caller
// releases it.
func BuildRecordBatch(mem memory.Allocator, table bench.ResultTable, meta Meta) arrow.RecordBatch {
	schema := Schema(meta)

	threadBuilder := array.NewInt64Builder(mem)
	defer threadBuilder.Release()
	methodBuilder := array.NewStringBuilder(mem)
	defer methodBuilder.Release()
	timeBuilder := array.NewInt64Builder(mem)
	defer timeBuilder.Release()

	for _, rec := range table {
		threadBuilder.Append(int64(rec.ThreadHint))
		methodBuilder.Append(rec.Method.String())
		timeBuilder.Append(rec.AverageNanos)
	}

	cols := []arrow.Array{
		threadBuilder.NewArray(),
		methodBuilder.NewArray(),
		timeBuilder.NewArray(),
	}
	defer func() {
		for _, c := range cols {
			c.Release()
		}
	}()

	return array.NewRecordBatch(schema, cols, int64(len(table)))
}

func writeArrow(w io.Writer, table bench.ResultTable, meta Meta) error {
	mem := memory.NewGoAllocator()
	rec := BuildRecordBatch(mem, table, meta)
	defer rec.Release()

	writer := ipc.NewWriter(w, ipc.WithSchema(rec.Schema()), ipc.WithAllocator(mem))
	if err := writer.Write(rec); err != nil {
		_ = writer.Close()
		return err
	}
	return writer.Close()
}
