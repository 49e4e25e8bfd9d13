package nearest

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/inodb/vibe-locus/internal/binning"
	"github.com/inodb/vibe-locus/internal/interval"
)

// RangeQuerier finds the intervals overlapping (or touching) a range. Table
// stores implement it directly and may fail; in-memory indexes are adapted
// with Static.
type RangeQuerier interface {
	Find(chrom string, start, end int64) ([]interval.Interval, error)
}

// Index is an in-memory range index that cannot fail.
type Index interface {
	Find(chrom string, start, end int64) []interval.Interval
}

type static struct{ idx Index }

func (s static) Find(chrom string, start, end int64) ([]interval.Interval, error) {
	return s.idx.Find(chrom, start, end), nil
}

// Static adapts an in-memory index to a RangeQuerier.
func Static(idx Index) RangeQuerier {
	return static{idx: idx}
}

const (
	DefaultStep     int64 = 350
	DefaultMaxSteps       = 64
)

// Searcher answers k-nearest queries by repeatedly widening a window and
// re-running the range query until enough candidates are found.
type Searcher struct {
	querier  RangeQuerier
	step     int64
	maxSteps int
	maxCoord int64
	logger   *zap.Logger
}

// Option configures a Searcher.
type Option func(*Searcher)

// WithStep sets the first widening step. Later steps grow super-linearly.
func WithStep(step int64) Option {
	return func(s *Searcher) {
		if step > 0 {
			s.step = step
		}
	}
}

// WithMaxSteps bounds the number of range queries per search.
func WithMaxSteps(n int) Option {
	return func(s *Searcher) {
		if n > 0 {
			s.maxSteps = n
		}
	}
}

// WithMaxCoord sets the coordinate the window stops growing right at.
func WithMaxCoord(c int64) Option {
	return func(s *Searcher) {
		if c > 0 {
			s.maxCoord = c
		}
	}
}

// WithLogger sets the logger for fallback messages.
func WithLogger(l *zap.Logger) Option {
	return func(s *Searcher) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewSearcher creates a searcher over q.
func NewSearcher(q RangeQuerier, opts ...Option) *Searcher {
	s := &Searcher{
		querier:  q,
		step:     DefaultStep,
		maxSteps: DefaultMaxSteps,
		maxCoord: interval.MaxCoord,
		logger:   zap.NewNop(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Nearest returns the k nearest intervals to q, restricted by dir. Ties at
// the cutoff are all included. When the window can grow no further, fewer
// than k hits are returned. A range the querier rejects as too large ends the
// search with an empty result.
func (s *Searcher) Nearest(q Query, k int, dir Direction) ([]Neighbor, error) {
	if k <= 0 {
		return nil, nil
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}

	f := q.Interval()
	left := leftward(dir, f.Strand)
	growLeft := dir == Any || left
	growRight := dir == Any || !left

	qstart, qend := f.Start, f.End
	step := s.step
	var hits []interval.Interval

	for i := 1; ; i++ {
		found, err := s.find(f.Chrom, qstart, qend)
		if err != nil || found == nil {
			return nil, err
		}
		hits = keepDirection(*found, f, dir, left)

		if len(hits) >= k || i >= s.maxSteps {
			break
		}

		widened := false
		if growLeft && qstart > 0 {
			qstart = max(0, qstart-step)
			widened = true
		}
		if growRight && qend < s.maxCoord {
			if step >= s.maxCoord-qend {
				qend = s.maxCoord
			} else {
				qend += step
			}
			widened = true
		}
		if !widened {
			break
		}
		step = grow(step, int64(i+6))
	}

	// A window clamped on one side can hold k hits while a closer one lies
	// just past the other edge; cover the k-th distance on both sides.
	if dir == Any && len(hits) >= k {
		kth := Truncate(Measure(f, hits), k)[k-1].Distance
		lo := max(0, f.Start-kth)
		hi := min(s.maxCoord, f.End+kth)
		if lo < qstart || hi > qend {
			found, err := s.find(f.Chrom, min(lo, qstart), max(hi, qend))
			if err != nil || found == nil {
				return nil, err
			}
			hits = *found
		}
	}

	return Truncate(Measure(f, hits), k), nil
}

// find runs one range query. A nil result with nil error means the querier
// rejected the range as too large and the search should end empty.
func (s *Searcher) find(chrom string, start, end int64) (*[]interval.Interval, error) {
	found, err := s.querier.Find(chrom, start, end)
	if err != nil {
		if errors.Is(err, binning.ErrRangeTooLarge) {
			s.logger.Debug("window exceeds bin cascade, giving up",
				zap.String("chrom", chrom),
				zap.Int64("start", start),
				zap.Int64("end", end))
			return nil, nil
		}
		return nil, fmt.Errorf("range query %s:%d-%d: %w", chrom, start, end, err)
	}
	return &found, nil
}

// Upstream is Nearest with dir Up.
func (s *Searcher) Upstream(q Query, k int) ([]Neighbor, error) {
	return s.Nearest(q, k, Up)
}

// Downstream is Nearest with dir Down.
func (s *Searcher) Downstream(q Query, k int) ([]Neighbor, error) {
	return s.Nearest(q, k, Down)
}

// keepDirection drops candidates lying entirely on the wrong side of f.
func keepDirection(ivs []interval.Interval, f interval.Interval, dir Direction, left bool) []interval.Interval {
	if dir == Any {
		return ivs
	}
	out := ivs[:0:0]
	for _, iv := range ivs {
		if left && iv.Start < f.End || !left && iv.End > f.Start {
			out = append(out, iv)
		}
	}
	return out
}

// grow multiplies step by factor, saturating instead of overflowing.
func grow(step, factor int64) int64 {
	if step > math.MaxInt64/factor {
		return math.MaxInt64
	}
	return step * factor
}
