// Package annotate attaches the nearest features from one or more interval
// tables to each query interval.
package annotate

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"go.uber.org/zap"

	"github.com/inodb/vibe-locus/internal/interval"
	"github.com/inodb/vibe-locus/internal/nearest"
)

// NeighborIndex answers k-nearest queries. Both the Intersecter and a
// Searcher over a store table satisfy it.
type NeighborIndex interface {
	Nearest(q nearest.Query, k int, dir nearest.Direction) ([]nearest.Neighbor, error)
}

// Table is a named annotation source.
type Table struct {
	Name  string
	Index NeighborIndex
}

// Annotator annotates query intervals with their nearest table features.
type Annotator struct {
	tables        []Table
	k             int
	featureStrand bool
	workers       int
	logger        *zap.Logger
}

// NewAnnotator creates an annotator over the given tables. Each query gets
// one result per table, in table order.
func NewAnnotator(tables ...Table) *Annotator {
	return &Annotator{
		tables: tables,
		k:      1,
		logger: zap.NewNop(),
	}
}

// SetK sets how many nearest features to report per table. Ties at the
// cutoff are all reported.
func (a *Annotator) SetK(k int) {
	if k > 0 {
		a.k = k
	}
}

// SetFeatureStrand switches the distance sign to the orientation of the
// annotation feature: negative when the query lies upstream of the feature.
// By default it is negative when the feature lies upstream of the query.
func (a *Annotator) SetFeatureStrand(on bool) {
	a.featureStrand = on
}

// SetWorkers sets the worker count used by AnnotateAll. 0 means NumCPU.
func (a *Annotator) SetWorkers(n int) {
	a.workers = n
}

// SetLogger sets the logger for warning and info messages.
func (a *Annotator) SetLogger(l *zap.Logger) {
	a.logger = l
}

// Tables returns the table names in annotation order.
func (a *Annotator) Tables() []string {
	names := make([]string, len(a.tables))
	for i, t := range a.tables {
		names[i] = t.Name
	}
	return names
}

// Annotate finds the nearest features in every table for iv.
func (a *Annotator) Annotate(iv *interval.Interval) (*Record, error) {
	if err := iv.Validate(); err != nil {
		return nil, err
	}

	rec := &Record{Query: *iv, Results: make([]TableResult, len(a.tables))}
	q := nearest.ByFeature(*iv)
	for i, t := range a.tables {
		hits, err := t.Index.Nearest(q, a.k, nearest.Any)
		if err != nil {
			return nil, fmt.Errorf("nearest in %s: %w", t.Name, err)
		}
		rec.Results[i] = TableResult{Table: t.Name, Matches: a.matches(*iv, hits)}
	}
	return rec, nil
}

// matches converts hits into signed matches, keeping the first occurrence of
// each name and distance pair.
func (a *Annotator) matches(query interval.Interval, hits []nearest.Neighbor) []Match {
	seen := make(map[Match]bool, len(hits))
	var out []Match
	for _, h := range hits {
		var upstream bool
		if a.featureStrand {
			upstream, _ = query.IsUpstreamOf(h.Interval)
		} else {
			upstream, _ = h.Interval.IsUpstreamOf(query)
		}
		m := Match{Name: h.Name, Distance: h.Distance}
		if upstream {
			m.Distance = -m.Distance
		}
		if seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out
}

// IntervalParser is the interface for readers that yield query intervals.
type IntervalParser interface {
	// Next reads the next interval.
	// Returns nil, nil when there are no more intervals.
	Next() (*interval.Interval, error)

	// LineNumber returns the current line number being processed.
	LineNumber() int
}

// RecordWriter defines the interface for writing annotation records.
type RecordWriter interface {
	WriteHeader(tables []string) error
	Write(rec *Record) error
	Flush() error
}

// AnnotateAll annotates every interval from parser and writes the records in
// input order. Invalid intervals are logged and skipped. Any other failure,
// or ctx being cancelled, stops the parser and the workers.
func (a *Annotator) AnnotateAll(ctx context.Context, parser IntervalParser, writer RecordWriter) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	workers := a.workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	items := make(chan WorkItem, 2*workers)
	var parseErr error
	count := 0

	go func() {
		defer close(items)
		for seq := 0; ; seq++ {
			iv, err := parser.Next()
			if err != nil {
				parseErr = fmt.Errorf("read interval: %w", err)
				return
			}
			if iv == nil {
				return
			}
			count++
			select {
			case items <- WorkItem{Seq: seq, Interval: iv, Line: parser.LineNumber()}:
			case <-ctx.Done():
				return
			}
		}
	}()

	if err := writer.WriteHeader(a.Tables()); err != nil {
		cancel()
		for range items {
		}
		return fmt.Errorf("write header: %w", err)
	}

	results := a.ParallelAnnotate(ctx, items, workers)

	if err := OrderedCollect(results, func(r WorkResult) error {
		var err error
		switch {
		case r.Err == nil:
			if err = writer.Write(r.Record); err != nil {
				err = fmt.Errorf("write record: %w", err)
			}
		case errors.Is(r.Err, interval.ErrInvalidInterval):
			a.logger.Warn("skipping invalid interval",
				zap.Int("line", r.Line),
				zap.Error(r.Err))
		default:
			err = fmt.Errorf("annotate %s: %w", r.Interval, r.Err)
		}
		if err != nil {
			cancel()
		}
		return err
	}); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	if parseErr != nil {
		return parseErr
	}

	if count == 0 {
		a.logger.Info("0 intervals processed")
	}

	return writer.Flush()
}
