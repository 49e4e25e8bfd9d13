// Package itree implements a static centered interval tree. It is built once
// from an unsorted set of intervals and supports overlap queries and full
// traversal. There is no insert or delete; rebuild to reflect new data.
package itree

import (
	"cmp"
	"iter"
	"slices"

	"go.uber.org/zap"

	"github.com/inodb/vibe-locus/internal/interval"
)

const (
	DefaultDepth     = 12
	DefaultMinBucket = 48
	DefaultMaxBucket = 512

	// hardDepthLimit stops splitting even when a node exceeds maxBucket, so
	// degenerate inputs (e.g. many identical zero-length intervals) terminate.
	hardDepthLimit = 64
)

type node struct {
	center      float64
	minStart    int64
	intervals   []interval.Interval // straddle center; sorted by start
	left, right *node
	leaf        bool
}

// Tree is an immutable interval tree over one coordinate space. Chromosomes
// are not compared; see Forest for a per-chromosome index.
type Tree struct {
	root      *node
	size      int
	depth     int
	minBucket int
	maxBucket int
	logger    *zap.Logger
}

// Option configures tree construction.
type Option func(*Tree)

// WithDepth sets the target depth. Nodes larger than the max bucket keep
// splitting past it.
func WithDepth(d int) Option {
	return func(t *Tree) {
		if d > 0 {
			t.depth = d
		}
	}
}

// WithMinBucket makes nodes with fewer intervals leaves.
func WithMinBucket(n int) Option {
	return func(t *Tree) {
		if n > 0 {
			t.minBucket = n
		}
	}
}

// WithMaxBucket forces nodes with at least n intervals to split.
func WithMaxBucket(n int) Option {
	return func(t *Tree) {
		if n > 0 {
			t.maxBucket = n
		}
	}
}

// WithLogger sets the logger used during construction.
func WithLogger(l *zap.Logger) Option {
	return func(t *Tree) {
		if l != nil {
			t.logger = l
		}
	}
}

// New builds a tree from ivs. The input slice is not modified. Intervals are
// assumed valid; use NewForest to filter invalid ones.
func New(ivs []interval.Interval, opts ...Option) *Tree {
	t := &Tree{
		depth:     DefaultDepth,
		minBucket: DefaultMinBucket,
		maxBucket: DefaultMaxBucket,
		logger:    zap.NewNop(),
	}
	for _, o := range opts {
		o(t)
	}

	t.size = len(ivs)
	if len(ivs) == 0 {
		return t
	}

	sorted := slices.Clone(ivs)
	slices.SortStableFunc(sorted, func(a, b interval.Interval) int {
		return cmp.Compare(a.Start, b.Start)
	})

	hi := sorted[0].End
	for _, iv := range sorted {
		hi = max(hi, iv.End)
	}
	t.root = t.build(sorted, t.depth, 0, float64(sorted[0].Start), float64(hi))
	return t
}

func (t *Tree) build(ivs []interval.Interval, depth, level int, lo, hi float64) *node {
	depth--
	if (depth == 0 || len(ivs) < t.minBucket) && len(ivs) < t.maxBucket || level >= hardDepthLimit {
		if level >= hardDepthLimit {
			t.logger.Debug("interval tree reached depth limit", zap.Int("intervals", len(ivs)))
		}
		return &node{leaf: true, intervals: ivs, minStart: ivs[0].Start}
	}

	center := (lo + hi) / 2
	n := &node{center: center}
	var lefts, rights []interval.Interval
	for _, iv := range ivs {
		switch {
		case float64(iv.End) < center:
			lefts = append(lefts, iv)
		case float64(iv.Start) > center:
			rights = append(rights, iv)
		default:
			n.intervals = append(n.intervals, iv)
		}
	}
	if len(n.intervals) > 0 {
		n.minStart = n.intervals[0].Start
	}
	if len(lefts) > 0 {
		n.left = t.build(lefts, depth, level+1, float64(lefts[0].Start), center)
	}
	if len(rights) > 0 {
		n.right = t.build(rights, depth, level+1, center, hi)
	}
	return n
}

// Len returns the number of intervals in the tree.
func (t *Tree) Len() int {
	return t.size
}

// Find returns the intervals overlapping or touching [start, end].
func (t *Tree) Find(start, end int64) []interval.Interval {
	var result []interval.Interval
	t.root.find(start, end, &result)
	return result
}

func (n *node) find(start, end int64, result *[]interval.Interval) {
	if n == nil {
		return
	}
	if len(n.intervals) > 0 && end >= n.minStart {
		for _, iv := range n.intervals {
			if iv.Overlaps(start, end) {
				*result = append(*result, iv)
			}
		}
	}
	if n.leaf {
		return
	}
	if float64(start) <= n.center {
		n.left.find(start, end, result)
	}
	if float64(end) >= n.center {
		n.right.find(start, end, result)
	}
}

// All yields every interval exactly once: left subtree, the node's own
// intervals, then the right subtree.
func (t *Tree) All() iter.Seq[interval.Interval] {
	return func(yield func(interval.Interval) bool) {
		t.root.walk(yield)
	}
}

func (n *node) walk(yield func(interval.Interval) bool) bool {
	if n == nil {
		return true
	}
	if !n.left.walk(yield) {
		return false
	}
	for _, iv := range n.intervals {
		if !yield(iv) {
			return false
		}
	}
	return n.right.walk(yield)
}
