// Package output provides annotation and hit formatters.
package output

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/inodb/vibe-locus/internal/annotate"
	"github.com/inodb/vibe-locus/internal/interval"
)

// missing marks a table with no match in a record.
const missing = "NA"

// TabWriter writes annotation records in tab-delimited format: the query
// columns followed by a name and a distance column per table.
type TabWriter struct {
	w       *bufio.Writer
	columns []string
}

// NewTabWriter creates a new tab-delimited writer.
func NewTabWriter(w io.Writer) *TabWriter {
	return &TabWriter{w: bufio.NewWriter(w)}
}

// WriteHeader writes the header line for the given tables.
func (tw *TabWriter) WriteHeader(tables []string) error {
	tw.columns = []string{"#chrom", "start", "end", "name", "strand"}
	for _, t := range tables {
		tw.columns = append(tw.columns, t+"_name", t+"_distance")
	}
	_, err := tw.w.WriteString(strings.Join(tw.columns, "\t") + "\n")
	return err
}

// Write writes a single record.
func (tw *TabWriter) Write(rec *annotate.Record) error {
	values := bedColumns(rec.Query)
	for _, r := range rec.Results {
		if len(r.Matches) == 0 {
			values = append(values, missing, missing)
			continue
		}
		values = append(values, r.Names(), r.Distances())
	}

	_, err := tw.w.WriteString(strings.Join(values, "\t") + "\n")
	return err
}

// Flush flushes any buffered data to the underlying writer.
func (tw *TabWriter) Flush() error {
	return tw.w.Flush()
}

func bedColumns(iv interval.Interval) []string {
	name := iv.Name
	if name == "" {
		name = "."
	}
	return []string{
		iv.Chrom,
		strconv.FormatInt(iv.Start, 10),
		strconv.FormatInt(iv.End, 10),
		name,
		iv.Strand.String(),
	}
}
