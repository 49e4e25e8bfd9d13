package itree

import (
	"fmt"
	"math/rand"
	"slices"
	"testing"

	biogo "github.com/biogo/store/interval"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-locus/internal/interval"
	"github.com/inodb/vibe-locus/internal/intersect"
)

// oracleRange uses the same touch-inclusive overlap rule as the indexes.
type oracleRange struct {
	start, end int
	id         uintptr
}

func (o oracleRange) Overlap(r biogo.IntRange) bool { return o.end >= r.Start && o.start <= r.End }
func (o oracleRange) ID() uintptr                   { return o.id }
func (o oracleRange) Range() biogo.IntRange         { return biogo.IntRange{Start: o.start, End: o.end} }

func oracle(t *testing.T, ivs []interval.Interval) *biogo.IntTree {
	t.Helper()
	tree := &biogo.IntTree{}
	for i, iv := range ivs {
		require.NoError(t, tree.Insert(oracleRange{start: int(iv.Start), end: int(iv.End), id: uintptr(i)}, false))
	}
	return tree
}

func oracleFind(tree *biogo.IntTree, ivs []interval.Interval, start, end int64) []interval.Interval {
	var out []interval.Interval
	for _, hit := range tree.Get(oracleRange{start: int(start), end: int(end)}) {
		out = append(out, ivs[hit.ID()])
	}
	return out
}

func randomIntervals(rng *rand.Rand, n int, chrom string) []interval.Interval {
	ivs := make([]interval.Interval, n)
	for i := range ivs {
		s := rng.Int63n(2_000_000)
		ivs[i] = interval.Interval{
			Chrom: chrom,
			Start: s,
			End:   s + 1 + rng.Int63n(6_000),
			Name:  fmt.Sprintf("%s-%d", chrom, i),
		}
	}
	return ivs
}

func spans(ivs []interval.Interval) [][2]int64 {
	out := make([][2]int64, len(ivs))
	for i, v := range ivs {
		out[i] = [2]int64{v.Start, v.End}
	}
	slices.SortFunc(out, func(a, b [2]int64) int {
		if a[0] != b[0] {
			return int(a[0] - b[0])
		}
		return int(a[1] - b[1])
	})
	return out
}

func TestTree_FourFeatures(t *testing.T) {
	ivs := []interval.Interval{
		{Chrom: "chr1", Start: 0, End: 10},
		{Chrom: "chr1", Start: 3, End: 7},
		{Chrom: "chr1", Start: 3, End: 40},
		{Chrom: "chr1", Start: 13, End: 50},
	}
	f := NewForest(ivs)

	assert.Equal(t, [][2]int64{{0, 10}, {3, 7}, {3, 40}}, spans(f.Find("chr1", 2, 5)))
	assert.Empty(t, f.Find("chr1", 100, 200))
	assert.Nil(t, f.Find("chr2", 0, 10))
}

func TestTree_SmallExample(t *testing.T) {
	tree := New([]interval.Interval{{Start: 2, End: 3}, {Start: 1, End: 8}, {Start: 3, End: 6}})
	assert.Equal(t, [][2]int64{{1, 8}, {2, 3}}, spans(tree.Find(1, 2)))
}

func TestTree_Empty(t *testing.T) {
	tree := New(nil)
	assert.Empty(t, tree.Find(0, 100))
	assert.Equal(t, 0, tree.Len())
	assert.Empty(t, slices.Collect(tree.All()))
}

func TestTree_MatchesOracle(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	ivs := randomIntervals(rng, 3_000, "chr1")
	ivs = append(ivs, interval.Interval{Chrom: "chr1", Start: 0, End: 500_000, Name: "wide"})

	configs := map[string][]Option{
		"defaults": nil,
		"deep":     {WithDepth(24), WithMinBucket(4), WithMaxBucket(16)},
		"shallow":  {WithDepth(2), WithMinBucket(1000), WithMaxBucket(100_000)},
	}
	orc := oracle(t, ivs)

	for name, opts := range configs {
		t.Run(name, func(t *testing.T) {
			tree := New(ivs, opts...)
			for range 200 {
				s := rng.Int63n(2_100_000)
				e := s + rng.Int63n(20_000)
				assert.ElementsMatch(t, oracleFind(orc, ivs, s, e), tree.Find(s, e), "[%d,%d]", s, e)
			}
		})
	}
}

func TestForest_MatchesIntersecter(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	var ivs []interval.Interval
	for _, chrom := range []string{"chr1", "chr2", "chrX"} {
		ivs = append(ivs, randomIntervals(rng, 800, chrom)...)
	}
	forest := NewForest(ivs, WithMinBucket(8))
	x := intersect.New(ivs)

	for range 300 {
		chrom := []string{"chr1", "chr2", "chrX", "chrY"}[rng.Intn(4)]
		s := rng.Int63n(2_100_000)
		e := s + rng.Int63n(50_000)
		assert.ElementsMatch(t, x.Find(chrom, s, e), forest.Find(chrom, s, e), "%s:%d-%d", chrom, s, e)
	}
}

func TestForest_RoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(8))
	ivs := randomIntervals(rng, 1_000, "chr3")
	forest := NewForest(ivs, WithMinBucket(2), WithMaxBucket(8))
	for _, iv := range ivs {
		assert.Contains(t, forest.Find(iv.Chrom, iv.Start, iv.End), iv)
	}
}

func TestAll_VisitsEachIntervalOnce(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	for _, n := range []int{0, 1, 47, 48, 511, 512, 5_000} {
		ivs := randomIntervals(rng, n, "chr1")
		tree := New(ivs, WithMinBucket(3))
		got := slices.Collect(tree.All())
		assert.Len(t, got, n)
		assert.ElementsMatch(t, ivs, got)
		assert.Equal(t, n, tree.Len())
	}
}

func TestAll_Deterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	tree := New(randomIntervals(rng, 2_000, "chr1"), WithMinBucket(4))
	assert.Equal(t, slices.Collect(tree.All()), slices.Collect(tree.All()))
}

func TestAll_StopsEarly(t *testing.T) {
	rng := rand.New(rand.NewSource(6))
	tree := New(randomIntervals(rng, 1_000, "chr1"), WithMinBucket(4))
	seen := 0
	for range tree.All() {
		seen++
		if seen == 10 {
			break
		}
	}
	assert.Equal(t, 10, seen)
}

func TestTree_DegenerateInputTerminates(t *testing.T) {
	ivs := make([]interval.Interval, 2_000)
	for i := range ivs {
		ivs[i] = interval.Interval{Chrom: "chr1", Start: 5, End: 5}
	}
	tree := New(ivs, WithMinBucket(1), WithMaxBucket(2))
	assert.Len(t, tree.Find(5, 5), 2_000)
	assert.Len(t, tree.Find(4, 6), 2_000)
	assert.Empty(t, tree.Find(7, 9))
	assert.Len(t, slices.Collect(tree.All()), 2_000)
}

func TestForest_Rejected(t *testing.T) {
	f := NewForest([]interval.Interval{
		{Chrom: "chr1", Start: 1, End: 5},
		{Chrom: "chr1", Start: 9, End: 2},
	})
	require.Len(t, f.Rejected(), 1)
	assert.ErrorIs(t, f.Rejected()[0], interval.ErrInvalidInterval)
	assert.Equal(t, 1, f.Len())
	assert.Equal(t, []string{"chr1"}, f.Chromosomes())
	assert.Len(t, slices.Collect(f.All()), 1)
}
