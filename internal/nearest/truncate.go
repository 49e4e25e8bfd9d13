package nearest

import (
	"cmp"
	"slices"

	"github.com/inodb/vibe-locus/internal/interval"
)

// Neighbor is a search hit with its distance to the query.
type Neighbor struct {
	interval.Interval
	Distance int64
}

// Measure attaches the distance to q to every interval.
func Measure(q interval.Interval, ivs []interval.Interval) []Neighbor {
	hits := make([]Neighbor, len(ivs))
	for i, iv := range ivs {
		hits[i] = Neighbor{Interval: iv, Distance: interval.Distance(q, iv)}
	}
	return hits
}

// Sort orders hits by distance, then by position and name.
func Sort(hits []Neighbor) {
	slices.SortStableFunc(hits, func(a, b Neighbor) int {
		return cmp.Or(
			cmp.Compare(a.Distance, b.Distance),
			cmp.Compare(a.Start, b.Start),
			cmp.Compare(a.End, b.End),
			cmp.Compare(a.Name, b.Name),
		)
	})
}

// Truncate sorts hits and keeps the k closest. A tie at the cutoff is never
// split: every hit sharing the k-th distance is kept, so the result may be
// longer than k. Fewer than k hits are returned unchanged (sorted).
func Truncate(hits []Neighbor, k int) []Neighbor {
	if k <= 0 || len(hits) == 0 {
		return nil
	}
	Sort(hits)
	if len(hits) <= k {
		return hits
	}
	cut := k
	for cut < len(hits) && hits[cut].Distance == hits[k-1].Distance {
		cut++
	}
	return hits[:cut]
}

// Intervals strips the distances.
func Intervals(hits []Neighbor) []interval.Interval {
	ivs := make([]interval.Interval, len(hits))
	for i, h := range hits {
		ivs[i] = h.Interval
	}
	return ivs
}
