package itree

import (
	"iter"
	"slices"

	"go.uber.org/zap"

	"github.com/inodb/vibe-locus/internal/interval"
)

// Forest holds one Tree per chromosome.
type Forest struct {
	trees    map[string]*Tree
	rejected []error
}

// NewForest groups ivs by chromosome and builds a tree for each. Intervals
// with Start > End are skipped and reported by Rejected.
func NewForest(ivs []interval.Interval, opts ...Option) *Forest {
	probe := &Tree{logger: zap.NewNop()}
	for _, o := range opts {
		o(probe)
	}

	valid, rejected := interval.Partition(ivs)
	for _, err := range rejected {
		probe.logger.Warn("skipping interval", zap.Error(err))
	}

	groups := make(map[string][]interval.Interval)
	for _, iv := range valid {
		groups[iv.Chrom] = append(groups[iv.Chrom], iv)
	}

	f := &Forest{trees: make(map[string]*Tree, len(groups)), rejected: rejected}
	for chrom, group := range groups {
		f.trees[chrom] = New(group, opts...)
	}
	return f
}

// Find returns the intervals on chrom overlapping or touching [start, end].
// An unknown chromosome yields nil.
func (f *Forest) Find(chrom string, start, end int64) []interval.Interval {
	t, ok := f.trees[chrom]
	if !ok {
		return nil
	}
	return t.Find(start, end)
}

// Tree returns the tree for chrom, or nil.
func (f *Forest) Tree(chrom string) *Tree {
	return f.trees[chrom]
}

// Chromosomes returns the indexed chromosomes, sorted.
func (f *Forest) Chromosomes() []string {
	chroms := make([]string, 0, len(f.trees))
	for chrom := range f.trees {
		chroms = append(chroms, chrom)
	}
	slices.Sort(chroms)
	return chroms
}

// Len returns the total number of intervals.
func (f *Forest) Len() int {
	n := 0
	for _, t := range f.trees {
		n += t.Len()
	}
	return n
}

// Rejected returns one error per interval skipped during construction.
func (f *Forest) Rejected() []error {
	return f.rejected
}

// All yields every interval, chromosome by chromosome in sorted order.
func (f *Forest) All() iter.Seq[interval.Interval] {
	return func(yield func(interval.Interval) bool) {
		for _, chrom := range f.Chromosomes() {
			for iv := range f.trees[chrom].All() {
				if !yield(iv) {
					return
				}
			}
		}
	}
}
