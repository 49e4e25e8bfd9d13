// Package binning computes hierarchical UCSC-style bin numbers for genomic
// ranges. Bins prune candidates in table stores that keep a bin column; the
// in-memory indexes do not use them.
package binning

import (
	"errors"
	"slices"
)

const (
	firstShift = 17
	nextShift  = 3

	// MaxSpan is the widest range Bins can enumerate.
	MaxSpan int64 = 1 << 29

	// Root is the bin every query includes.
	Root = 1
)

// offsets are ordered finest (128kb tiles) to coarsest (64Mb tiles).
var offsets = [...]int{585, 73, 9, 1}

// ErrRangeTooLarge is returned when a range is wider than MaxSpan.
var ErrRangeTooLarge = errors.New("range too large for bin cascade")

// Bins returns every bin whose tile intersects [start, end), sorted
// ascending. The result always contains Root.
func Bins(start, end int64) ([]int, error) {
	if end-start >= MaxSpan {
		return nil, ErrRangeTooLarge
	}

	s := start >> firstShift
	e := (end - 1) >> firstShift

	bins := []int{Root}
	for _, off := range offsets {
		for b := s; b <= e; b++ {
			bins = append(bins, off+int(b))
		}
		s >>= nextShift
		e >>= nextShift
	}

	slices.Sort(bins)
	return slices.Compact(bins), nil
}

// Assign returns the bin a feature spanning [start, end) is stored under: the
// finest tile that contains the whole range, or Root when none does.
func Assign(start, end int64) (int, error) {
	if end-start >= MaxSpan {
		return 0, ErrRangeTooLarge
	}
	if end <= start {
		end = start + 1
	}

	s := start >> firstShift
	e := (end - 1) >> firstShift
	for _, off := range offsets {
		if s == e {
			return off + int(s), nil
		}
		s >>= nextShift
		e >>= nextShift
	}
	return Root, nil
}
