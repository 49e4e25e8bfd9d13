// Package interval provides the genomic interval value type shared by the
// indexes and the nearest-neighbor engine.
package interval

import (
	"errors"
	"fmt"
)

// Strand is the orientation of a feature.
type Strand int8

const (
	StrandNone  Strand = 0
	StrandPlus  Strand = 1
	StrandMinus Strand = -1
)

// ParseStrand converts "+", "-", "." or "" into a Strand.
func ParseStrand(s string) (Strand, error) {
	switch s {
	case "+", "1", "+1":
		return StrandPlus, nil
	case "-", "-1":
		return StrandMinus, nil
	case ".", "", "0":
		return StrandNone, nil
	}
	return StrandNone, fmt.Errorf("invalid strand %q", s)
}

func (s Strand) String() string {
	switch s {
	case StrandPlus:
		return "+"
	case StrandMinus:
		return "-"
	}
	return "."
}

// Interval is a 0-based genomic span. Start <= End.
type Interval struct {
	Chrom  string
	Start  int64
	End    int64
	Strand Strand
	Name   string
}

// New returns a validated interval without strand or name.
func New(chrom string, start, end int64) (Interval, error) {
	iv := Interval{Chrom: chrom, Start: start, End: end}
	return iv, iv.Validate()
}

// ErrInvalidInterval is wrapped by every InvalidError.
var ErrInvalidInterval = errors.New("invalid interval")

// InvalidError reports an interval whose start is past its end.
type InvalidError struct {
	Interval Interval
}

func (e *InvalidError) Error() string {
	return fmt.Sprintf("invalid interval %s: start %d > end %d",
		e.Interval.Chrom, e.Interval.Start, e.Interval.End)
}

func (e *InvalidError) Unwrap() error { return ErrInvalidInterval }

// Validate checks the Start <= End invariant.
func (iv Interval) Validate() error {
	if iv.Start > iv.End {
		return &InvalidError{Interval: iv}
	}
	return nil
}

// Len returns End - Start.
func (iv Interval) Len() int64 {
	return iv.End - iv.Start
}

// Overlaps reports whether the two spans intersect or touch. Chromosomes are
// not compared.
func (iv Interval) Overlaps(start, end int64) bool {
	return iv.Start <= end && start <= iv.End
}

// Distance returns the gap between a and b, or 0 when they overlap or touch.
func Distance(a, b Interval) int64 {
	return SpanDistance(a.Start, a.End, b.Start, b.End)
}

// SpanDistance is Distance on bare coordinates.
func SpanDistance(aStart, aEnd, bStart, bEnd int64) int64 {
	if aEnd < bStart {
		return bStart - aEnd
	}
	if bEnd < aStart {
		return aStart - bEnd
	}
	return 0
}

// IsUpstreamOf reports whether iv lies upstream of other, taking the strand of
// other into account. ok is false when the chromosomes differ.
func (iv Interval) IsUpstreamOf(other Interval) (upstream, ok bool) {
	if iv.Chrom != other.Chrom {
		return false, false
	}
	if other.Strand == StrandMinus {
		// upstream of a minus-strand feature means higher coordinates
		return iv.Start >= other.End, true
	}
	return iv.End <= other.Start, true
}

// IsDownstreamOf is the mirror of IsUpstreamOf.
func (iv Interval) IsDownstreamOf(other Interval) (downstream, ok bool) {
	if iv.Chrom != other.Chrom {
		return false, false
	}
	if other.Strand == StrandMinus {
		return iv.End <= other.Start, true
	}
	return iv.Start >= other.End, true
}

// UpstreamFlank returns the region of the given size immediately upstream of
// iv. Minus-strand features flank to the right; everything else to the left.
// The start is clamped at 0.
func (iv Interval) UpstreamFlank(size int64) Interval {
	f := Interval{Chrom: iv.Chrom, Strand: iv.Strand, Name: iv.Name}
	if iv.Strand == StrandMinus {
		f.Start, f.End = iv.End, iv.End+size
	} else {
		f.Start, f.End = max(0, iv.Start-size), iv.Start
	}
	return f
}

// DownstreamFlank returns the region of the given size immediately
// downstream of iv.
func (iv Interval) DownstreamFlank(size int64) Interval {
	f := Interval{Chrom: iv.Chrom, Strand: iv.Strand, Name: iv.Name}
	if iv.Strand == StrandMinus {
		f.Start, f.End = max(0, iv.Start-size), iv.Start
	} else {
		f.Start, f.End = iv.End, iv.End+size
	}
	return f
}

func (iv Interval) String() string {
	s := fmt.Sprintf("%s:%d-%d", iv.Chrom, iv.Start, iv.End)
	if iv.Strand != StrandNone {
		s += "(" + iv.Strand.String() + ")"
	}
	return s
}

// Partition splits ivs into the valid intervals and one error per rejected
// interval. Order of the valid intervals is preserved.
func Partition(ivs []Interval) (valid []Interval, rejected []error) {
	valid = make([]Interval, 0, len(ivs))
	for _, iv := range ivs {
		if err := iv.Validate(); err != nil {
			rejected = append(rejected, err)
			continue
		}
		valid = append(valid, iv)
	}
	return valid, rejected
}
