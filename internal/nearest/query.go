// Package nearest implements k-nearest-neighbor search over genomic
// intervals: the shared tie-inclusive truncation rule, strand-aware
// directions, and an expanding-window search over any range query.
package nearest

import (
	"fmt"

	"github.com/inodb/vibe-locus/internal/interval"
)

// Direction restricts a neighbor search relative to the query strand.
type Direction int

const (
	Any Direction = iota
	Up
	Down
)

// ParseDirection accepts "", "any", "up", "upstream", "down", "downstream".
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "", "any":
		return Any, nil
	case "up", "upstream":
		return Up, nil
	case "down", "downstream":
		return Down, nil
	}
	return Any, fmt.Errorf("invalid direction %q", s)
}

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	}
	return "any"
}

type queryKind int

const (
	byRange queryKind = iota
	byFeature
)

// Query is either a bare chromosome range or a feature. Build one with
// ByRange or ByFeature.
type Query struct {
	kind    queryKind
	feature interval.Interval
}

// ByRange queries a bare range. Directional searches treat it as plus strand.
func ByRange(chrom string, start, end int64) Query {
	return Query{kind: byRange, feature: interval.Interval{Chrom: chrom, Start: start, End: end}}
}

// ByFeature queries around a feature, honoring its strand.
func ByFeature(iv interval.Interval) Query {
	return Query{kind: byFeature, feature: iv}
}

// Interval resolves the query into a canonical interval. The strand is plus
// for bare ranges and for unstranded features.
func (q Query) Interval() interval.Interval {
	iv := q.feature
	if q.kind == byRange || iv.Strand == interval.StrandNone {
		iv.Strand = interval.StrandPlus
	}
	return iv
}

// Feature returns the original feature for ByFeature queries.
func (q Query) Feature() (interval.Interval, bool) {
	return q.feature, q.kind == byFeature
}

// Validate checks the resolved range.
func (q Query) Validate() error {
	return q.feature.Validate()
}

// leftward reports whether dir maps to lower coordinates for strand s.
func leftward(dir Direction, s interval.Strand) bool {
	if s == interval.StrandMinus {
		return dir == Down
	}
	return dir == Up
}
