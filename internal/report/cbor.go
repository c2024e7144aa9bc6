package report

import (
	"io"

	"github.com/fxamacker/cbor/v2"

	"github.com/23skdu/matbench/internal/bench"
)

// Document is the CBOR encoding of a result table.
type Document struct {
	RunID   string   `cbor:"run_id"`
	Backend string   `cbor:"backend"`
	Trials  int      `cbor:"trials"`
	Records []Record `cbor:"records"`
}

// Record is one CBOR row.
type Record struct {
	NumThreads int    `cbor:"num_threads"`
	Method     string `cbor:"method"`
	TimeNanos  int64  `cbor:"time_ns"`
}

// NewDocument flattens table into its CBOR form.
func NewDocument(table bench.ResultTable, meta Meta) Document {
	doc := Document{
		RunID:   meta.RunID,
		Backend: meta.Backend,
		Trials:  meta.Trials,
		Records: make([]Record, len(table)),
	}
	for i, rec := range table {
		doc.Records[i] = Record{
			NumThreads: rec.ThreadHint,
			Method:     rec.Method.String(),
			TimeNanos:  rec.AverageNanos,
		}
	}
	return doc
}

func writeCBOR(w io.Writer, table bench.ResultTable, meta Meta) error {
	return cbor.NewEncoder(w).Encode(NewDocument(table, meta))
}
