package report

import (
	"io"
	"text/tabwriter"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/23skdu/matbench/internal/bench"
)

// Summary prints table as an aligned, human-readable listing with grouped
// digits.
func Summary(w io.Writer, table bench.ResultTable) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	p := message.NewPrinter(language.English)

	p.Fprintf(tw, "threads\tmethod\ttime (ns)\t\n")
	for _, rec := range table {
		p.Fprintf(tw, "%d\t%s\t%d\t\n", rec.ThreadHint, rec.Method, rec.AverageNanos)
	}
	return tw.Flush()
}
