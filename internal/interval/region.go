package interval

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseRegion parses "chrom:start-end" (0-based, commas allowed) or a bare
// "chrom", which covers the whole chromosome.
func ParseRegion(region string) (Interval, error) {
	chrom, span, found := strings.Cut(region, ":")
	if chrom == "" {
		return Interval{}, fmt.Errorf("parse region %q: empty chromosome", region)
	}
	if !found {
		return Interval{Chrom: chrom, Start: 0, End: MaxCoord}, nil
	}

	startStr, endStr, ok := strings.Cut(span, "-")
	if !ok {
		return Interval{}, fmt.Errorf("parse region %q: expected start-end", region)
	}
	start, err := strconv.ParseInt(strings.ReplaceAll(startStr, ",", ""), 10, 64)
	if err != nil {
		return Interval{}, fmt.Errorf("parse region %q start: %w", region, err)
	}
	end, err := strconv.ParseInt(strings.ReplaceAll(endStr, ",", ""), 10, 64)
	if err != nil {
		return Interval{}, fmt.Errorf("parse region %q end: %w", region, err)
	}
	if start < 0 {
		return Interval{}, fmt.Errorf("parse region %q: negative start", region)
	}

	iv := Interval{Chrom: chrom, Start: start, End: end}
	if err := iv.Validate(); err != nil {
		return Interval{}, fmt.Errorf("parse region %q: %w", region, err)
	}
	return iv, nil
}

// MaxCoord is the largest coordinate a whole-chromosome region extends to.
const MaxCoord int64 = 1 << 31
