package output

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/inodb/vibe-locus/internal/interval"
	"github.com/inodb/vibe-locus/internal/nearest"
)

// NeighborWriter writes find and nearest hits, one per line, prefixed with
// the query they answer.
type NeighborWriter struct {
	w        *bufio.Writer
	distance bool
}

// NewNeighborWriter creates a writer. withDistance adds a distance column.
func NewNeighborWriter(w io.Writer, withDistance bool) *NeighborWriter {
	return &NeighborWriter{w: bufio.NewWriter(w), distance: withDistance}
}

// WriteHeader writes the header line.
func (nw *NeighborWriter) WriteHeader() error {
	cols := []string{"#query", "chrom", "start", "end", "name", "strand"}
	if nw.distance {
		cols = append(cols, "distance")
	}
	_, err := nw.w.WriteString(strings.Join(cols, "\t") + "\n")
	return err
}

// Write writes one hit for query. The distance is ignored unless the writer
// was created with a distance column.
func (nw *NeighborWriter) Write(query interval.Interval, hit nearest.Neighbor) error {
	values := append([]string{query.String()}, bedColumns(hit.Interval)...)
	if nw.distance {
		values = append(values, strconv.FormatInt(hit.Distance, 10))
	}
	_, err := nw.w.WriteString(strings.Join(values, "\t") + "\n")
	return err
}

// WriteAll writes every hit for query.
func (nw *NeighborWriter) WriteAll(query interval.Interval, hits []nearest.Neighbor) error {
	for _, h := range hits {
		if err := nw.Write(query, h); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes any buffered data to the underlying writer.
func (nw *NeighborWriter) Flush() error {
	return nw.w.Flush()
}
