package binning

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBins_Small(t *testing.T) {
	bins, err := Bins(0, 1)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 9, 73, 585}, bins)

	bins, err = Bins(1000, 2000)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 9, 73, 585}, bins)
}

func TestBins_SpansTiles(t *testing.T) {
	// 128kb boundary at 131072
	bins, err := Bins(131000, 131100)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 9, 73, 585, 586}, bins)
}

func TestBins_AlwaysIncludesRoot(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for range 500 {
		start := rng.Int63n(300_000_000)
		end := start + rng.Int63n(50_000_000)
		bins, err := Bins(start, end)
		require.NoError(t, err)
		assert.Contains(t, bins, Root)

		again, err := Bins(start, end)
		require.NoError(t, err)
		assert.Equal(t, bins, again, "deterministic")
	}
}

func TestBins_Threshold(t *testing.T) {
	_, err := Bins(0, MaxSpan)
	assert.ErrorIs(t, err, ErrRangeTooLarge)

	_, err = Bins(100, 100+MaxSpan+5)
	assert.ErrorIs(t, err, ErrRangeTooLarge)

	bins, err := Bins(0, MaxSpan-1)
	require.NoError(t, err)
	assert.Len(t, bins, 4096+512+64+8)
}

func TestAssign(t *testing.T) {
	tests := []struct {
		name       string
		start, end int64
		want       int
	}{
		{"first fine tile", 0, 100, 585},
		{"second fine tile", 131072, 131100, 586},
		{"crosses 128kb, inside 1Mb", 131000, 131100, 73},
		{"crosses 1Mb", 1_048_000, 1_049_000, 9},
		{"crosses 8Mb", 8_388_000, 8_389_000, 1},
		{"crosses 64Mb", 67_108_000, 67_109_000, Root},
		{"zero length", 500, 500, 585},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Assign(tt.start, tt.end)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := Assign(0, MaxSpan)
	assert.ErrorIs(t, err, ErrRangeTooLarge)
}

func TestAssignDiscoverableByOverlappingQuery(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for range 2000 {
		fs := rng.Int63n(200_000_000)
		fe := fs + rng.Int63n(20_000_000) + 1
		bin, err := Assign(fs, fe)
		require.NoError(t, err)

		// any query sharing at least one base with the feature
		qs := fs + rng.Int63n(fe-fs)
		qe := qs + rng.Int63n(10_000_000) + 1
		bins, err := Bins(qs, qe)
		require.NoError(t, err)
		assert.Contains(t, bins, bin, "feature [%d,%d) query [%d,%d)", fs, fe, qs, qe)
	}
}
