package interval

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistance(t *testing.T) {
	tests := []struct {
		name string
		a, b Interval
		want int64
	}{
		{"gap", Interval{Start: 1, End: 2}, Interval{Start: 12, End: 13}, 10},
		{"gap reversed", Interval{Start: 12, End: 13}, Interval{Start: 1, End: 2}, 10},
		{"touch", Interval{Start: 1, End: 2}, Interval{Start: 2, End: 3}, 0},
		{"contained", Interval{Start: 1, End: 100}, Interval{Start: 20, End: 30}, 0},
		{"partial", Interval{Start: 5, End: 15}, Interval{Start: 10, End: 20}, 0},
		{"zero length", Interval{Start: 7, End: 7}, Interval{Start: 9, End: 9}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Distance(tt.a, tt.b))
		})
	}
}

func TestDistanceZeroIffOverlapOrTouch(t *testing.T) {
	for as := int64(0); as < 12; as++ {
		for ae := as; ae < 12; ae++ {
			for bs := int64(0); bs < 12; bs++ {
				for be := bs; be < 12; be++ {
					a := Interval{Start: as, End: ae}
					b := Interval{Start: bs, End: be}
					d := Distance(a, b)
					assert.GreaterOrEqual(t, d, int64(0))
					assert.Equal(t, a.Overlaps(bs, be), d == 0, "a=%v b=%v", a, b)
					assert.Equal(t, d, Distance(b, a))
				}
			}
		}
	}
}

func TestValidate(t *testing.T) {
	_, err := New("chr1", 10, 5)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidInterval))

	var invalid *InvalidError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, int64(10), invalid.Interval.Start)

	iv, err := New("chr1", 5, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(0), iv.Len())
}

func TestPartition(t *testing.T) {
	valid, rejected := Partition([]Interval{
		{Chrom: "chr1", Start: 0, End: 10},
		{Chrom: "chr1", Start: 20, End: 10},
		{Chrom: "chr2", Start: 3, End: 4},
	})
	assert.Len(t, valid, 2)
	assert.Equal(t, "chr2", valid[1].Chrom)
	require.Len(t, rejected, 1)
	assert.ErrorIs(t, rejected[0], ErrInvalidInterval)
}

func TestIsUpstreamOf(t *testing.T) {
	plus := Interval{Chrom: "chr1", Start: 100, End: 200, Strand: StrandPlus}
	minus := Interval{Chrom: "chr1", Start: 100, End: 200, Strand: StrandMinus}
	left := Interval{Chrom: "chr1", Start: 10, End: 50}
	right := Interval{Chrom: "chr1", Start: 250, End: 300}

	up, ok := left.IsUpstreamOf(plus)
	assert.True(t, ok)
	assert.True(t, up)

	up, _ = right.IsUpstreamOf(plus)
	assert.False(t, up)

	up, _ = right.IsUpstreamOf(minus)
	assert.True(t, up, "higher coordinates are upstream on the minus strand")

	down, _ := left.IsDownstreamOf(minus)
	assert.True(t, down)

	down, _ = right.IsDownstreamOf(plus)
	assert.True(t, down)

	_, ok = Interval{Chrom: "chr2"}.IsUpstreamOf(plus)
	assert.False(t, ok)
}

func TestFlanks(t *testing.T) {
	plus := Interval{Chrom: "chr1", Start: 100, End: 200, Strand: StrandPlus}
	assert.Equal(t, Interval{Chrom: "chr1", Start: 50, End: 100, Strand: StrandPlus}, plus.UpstreamFlank(50))
	assert.Equal(t, Interval{Chrom: "chr1", Start: 200, End: 250, Strand: StrandPlus}, plus.DownstreamFlank(50))

	minus := plus
	minus.Strand = StrandMinus
	assert.Equal(t, int64(200), minus.UpstreamFlank(50).Start)
	assert.Equal(t, int64(50), minus.DownstreamFlank(50).Start)

	assert.Equal(t, int64(0), plus.UpstreamFlank(500).Start, "clamped at 0")
}

func TestParseStrand(t *testing.T) {
	for in, want := range map[string]Strand{"+": StrandPlus, "-": StrandMinus, ".": StrandNone, "": StrandNone} {
		got, err := ParseStrand(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseStrand("x")
	assert.Error(t, err)
}

func TestParseRegion(t *testing.T) {
	iv, err := ParseRegion("chr1:1,000-2,000")
	require.NoError(t, err)
	assert.Equal(t, Interval{Chrom: "chr1", Start: 1000, End: 2000}, iv)

	iv, err = ParseRegion("chrX")
	require.NoError(t, err)
	assert.Equal(t, int64(0), iv.Start)
	assert.Equal(t, MaxCoord, iv.End)

	for _, bad := range []string{"", ":1-2", "chr1:5", "chr1:a-2", "chr1:5-b", "chr1:9-2", "chr1:-3-4"} {
		_, err := ParseRegion(bad)
		assert.Error(t, err, bad)
	}
}

func TestString(t *testing.T) {
	assert.Equal(t, "chr1:1-2", Interval{Chrom: "chr1", Start: 1, End: 2}.String())
	assert.Equal(t, "chr1:1-2(-)", Interval{Chrom: "chr1", Start: 1, End: 2, Strand: StrandMinus}.String())
}
