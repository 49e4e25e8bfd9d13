// Package intersect provides a static interval index for overlap and
// neighbor queries. Intervals are kept per chromosome, sorted by start, and
// queries binary-search on start using the longest interval on the
// chromosome to bound how far left an overlapping interval can begin.
package intersect

import (
	"cmp"
	"slices"
	"sort"

	"go.uber.org/zap"

	"github.com/inodb/vibe-locus/internal/interval"
	"github.com/inodb/vibe-locus/internal/nearest"
)

// DefaultPadding is the window KNearest searches on each side of the query
// before falling back to Left and Right.
const DefaultPadding int64 = 2000

// Intersecter is built once and never modified, so concurrent queries are
// safe.
type Intersecter struct {
	intervals map[string][]interval.Interval
	maxLen    map[string]int64
	padding   int64
	rejected  []error
	logger    *zap.Logger
}

// Option configures an Intersecter.
type Option func(*Intersecter)

// WithPadding sets the KNearest window padding.
func WithPadding(p int64) Option {
	return func(x *Intersecter) {
		if p > 0 {
			x.padding = p
		}
	}
}

// WithLogger sets the logger used to report rejected intervals.
func WithLogger(l *zap.Logger) Option {
	return func(x *Intersecter) {
		if l != nil {
			x.logger = l
		}
	}
}

// New builds an index over ivs. Intervals with Start > End are skipped and
// reported by Rejected; the rest of the build proceeds.
func New(ivs []interval.Interval, opts ...Option) *Intersecter {
	x := &Intersecter{
		intervals: make(map[string][]interval.Interval),
		maxLen:    make(map[string]int64),
		padding:   DefaultPadding,
		logger:    zap.NewNop(),
	}
	for _, o := range opts {
		o(x)
	}

	valid, rejected := interval.Partition(ivs)
	for _, err := range rejected {
		x.logger.Warn("skipping interval", zap.Error(err))
	}
	x.rejected = rejected

	for _, iv := range valid {
		x.intervals[iv.Chrom] = append(x.intervals[iv.Chrom], iv)
	}
	for chrom, group := range x.intervals {
		slices.SortStableFunc(group, func(a, b interval.Interval) int {
			return cmp.Compare(a.Start, b.Start)
		})
		longest := int64(1)
		for _, iv := range group {
			longest = max(longest, iv.Len())
		}
		x.maxLen[chrom] = longest
	}

	return x
}

// Rejected returns one error per interval skipped during construction.
func (x *Intersecter) Rejected() []error {
	return x.rejected
}

// Len returns the number of indexed intervals.
func (x *Intersecter) Len() int {
	n := 0
	for _, group := range x.intervals {
		n += len(group)
	}
	return n
}

// Chromosomes returns the indexed chromosomes, sorted.
func (x *Intersecter) Chromosomes() []string {
	chroms := make([]string, 0, len(x.intervals))
	for chrom := range x.intervals {
		chroms = append(chroms, chrom)
	}
	slices.Sort(chroms)
	return chroms
}

// Find returns the intervals on chrom overlapping or touching [start, end),
// in start order. An unknown chromosome yields nil.
func (x *Intersecter) Find(chrom string, start, end int64) []interval.Interval {
	group, ok := x.intervals[chrom]
	if !ok {
		return nil
	}

	// Anything beginning more than maxLen before start ends before it.
	lo := firstStartAtLeast(group, start-x.maxLen[chrom], 0)
	hi := firstStartAfter(group, end, lo)

	var result []interval.Interval
	for _, iv := range group[lo:hi] {
		if iv.Overlaps(start, end) {
			result = append(result, iv)
		}
	}
	return result
}

// Left returns the n nearest intervals ending strictly before f starts.
// Overlapping and touching intervals are not to the left. When the
// chromosome runs out, fewer than n hits are returned.
func (x *Intersecter) Left(f interval.Interval, n int) []nearest.Neighbor {
	group := x.intervals[f.Chrom]
	if len(group) == 0 || n <= 0 {
		return nil
	}
	maxLen := x.maxLen[f.Chrom]

	var hits []nearest.Neighbor
	cutoff := int64(-1)
	for j := firstStartAtLeast(group, f.Start, 0) - 1; j >= 0; j-- {
		iv := group[j]
		// iv and everything before it ends at or before iv.Start+maxLen
		if cutoff >= 0 && f.Start-(iv.Start+maxLen) > cutoff {
			break
		}
		if iv.End >= f.Start {
			continue
		}
		hits = append(hits, nearest.Neighbor{Interval: iv, Distance: f.Start - iv.End})
		if cutoff < 0 && len(hits) >= n {
			cutoff = nthDistance(hits, n)
		}
	}
	return nearest.Truncate(hits, n)
}

// Right returns the n nearest intervals starting strictly after f ends.
func (x *Intersecter) Right(f interval.Interval, n int) []nearest.Neighbor {
	group := x.intervals[f.Chrom]
	if len(group) == 0 || n <= 0 {
		return nil
	}

	var hits []nearest.Neighbor
	for _, iv := range group[firstStartAfter(group, f.End, 0):] {
		d := iv.Start - f.End
		if len(hits) >= n && d != hits[n-1].Distance {
			break
		}
		hits = append(hits, nearest.Neighbor{Interval: iv, Distance: d})
	}
	return nearest.Truncate(hits, n)
}

// Upstream is Left for plus-strand and unstranded features, Right for
// minus-strand features.
func (x *Intersecter) Upstream(f interval.Interval, n int) []nearest.Neighbor {
	if f.Strand == interval.StrandMinus {
		return x.Right(f, n)
	}
	return x.Left(f, n)
}

// Downstream is the mirror of Upstream.
func (x *Intersecter) Downstream(f interval.Interval, n int) []nearest.Neighbor {
	if f.Strand == interval.StrandMinus {
		return x.Left(f, n)
	}
	return x.Right(f, n)
}

// KNearest returns the k nearest intervals to q in either direction,
// overlapping ones included at distance 0. Ties at the cutoff are kept.
func (x *Intersecter) KNearest(q nearest.Query, k int) []nearest.Neighbor {
	if k <= 0 {
		return nil
	}
	f := q.Interval()
	pad := x.padding

	hits := nearest.Measure(f, x.Find(f.Chrom, f.Start-pad, f.End+pad))
	if len(hits) >= k {
		return nearest.Truncate(hits, k)
	}

	short := k - len(hits)
	outside := x.Left(interval.Interval{Chrom: f.Chrom, Start: f.Start - pad, End: f.Start}, short)
	outside = append(outside, x.Right(interval.Interval{Chrom: f.Chrom, Start: f.End, End: f.End + pad}, short)...)
	for _, h := range outside {
		hits = append(hits, nearest.Neighbor{Interval: h.Interval, Distance: interval.Distance(f, h.Interval)})
	}
	return nearest.Truncate(hits, k)
}

// Nearest dispatches to KNearest, Upstream or Downstream. Bare ranges are
// treated as plus strand.
func (x *Intersecter) Nearest(q nearest.Query, k int, dir nearest.Direction) ([]nearest.Neighbor, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	switch dir {
	case nearest.Up:
		return x.Upstream(q.Interval(), k), nil
	case nearest.Down:
		return x.Downstream(q.Interval(), k), nil
	}
	return x.KNearest(q, k), nil
}

// firstStartAtLeast returns the first index >= lo whose Start >= pos.
func firstStartAtLeast(group []interval.Interval, pos int64, lo int) int {
	return lo + sort.Search(len(group)-lo, func(i int) bool {
		return group[lo+i].Start >= pos
	})
}

// firstStartAfter returns the first index >= lo whose Start > pos.
func firstStartAfter(group []interval.Interval, pos int64, lo int) int {
	return lo + sort.Search(len(group)-lo, func(i int) bool {
		return group[lo+i].Start > pos
	})
}

func nthDistance(hits []nearest.Neighbor, n int) int64 {
	d := make([]int64, len(hits))
	for i, h := range hits {
		d[i] = h.Distance
	}
	slices.Sort(d)
	return d[n-1]
}
