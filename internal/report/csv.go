package report

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/23skdu/matbench/internal/bench"
)

func writeCSV(w io.Writer, table bench.ResultTable, _ Meta) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	row := make([]string, 3)
	for _, rec := range table {
		row[0] = strconv.Itoa(rec.ThreadHint)
		row[1] = rec.Method.String()
		row[2] = strconv.FormatInt(rec.AverageNanos, 10)
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
