package bed

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/inodb/vibe-locus/internal/interval"
)

// DefaultGTFFeature is the feature type Open keeps from GTF and GFF files.
const DefaultGTFFeature = "gene"

// IsGTF reports whether path names a GTF or GFF file, ignoring a trailing
// .gz or .zst extension.
func IsGTF(path string) bool {
	p := strings.ToLower(path)
	p = strings.TrimSuffix(p, ".gz")
	p = strings.TrimSuffix(p, ".zst")
	return strings.HasSuffix(p, ".gtf") || strings.HasSuffix(p, ".gff") || strings.HasSuffix(p, ".gff3")
}

// GTFParser reads one feature type from a GTF or GFF3 file as intervals.
// Coordinates are converted from 1-based closed to 0-based half-open.
type GTFParser struct {
	*input
	feature string
}

// NewGTFParser creates a parser that yields rows whose type column equals
// feature.
func NewGTFParser(path, feature string) (*GTFParser, error) {
	in, err := openInput(path)
	if err != nil {
		return nil, fmt.Errorf("open gtf file: %w", err)
	}
	return &GTFParser{input: in, feature: feature}, nil
}

// Next reads the next interval of the configured feature type.
// Returns nil, nil when there are no more intervals.
func (p *GTFParser) Next() (*interval.Interval, error) {
	for {
		line, ok, err := p.nextLine()
		if err != nil || !ok {
			return nil, err
		}
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		iv, err := p.parseLine(line)
		if err != nil {
			return nil, err
		}
		if iv != nil {
			return iv, nil
		}
	}
}

// parseLine returns nil, nil for rows of another feature type.
func (p *GTFParser) parseLine(line string) (*interval.Interval, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < 9 {
		return nil, &ParseError{
			Line:    p.lineNumber,
			Message: fmt.Sprintf("expected 9 fields, got %d", len(fields)),
		}
	}
	if fields[2] != p.feature {
		return nil, nil
	}

	start, err := strconv.ParseInt(fields[3], 10, 64)
	if err != nil || start < 1 {
		return nil, &ParseError{Line: p.lineNumber, Message: fmt.Sprintf("invalid start: %s", fields[3])}
	}
	end, err := strconv.ParseInt(fields[4], 10, 64)
	if err != nil || end < 0 {
		return nil, &ParseError{Line: p.lineNumber, Message: fmt.Sprintf("invalid end: %s", fields[4])}
	}
	strand, err := interval.ParseStrand(fields[6])
	if err != nil {
		return nil, &ParseError{Line: p.lineNumber, Message: err.Error()}
	}

	return &interval.Interval{
		Chrom:  fields[0],
		Start:  start - 1,
		End:    end,
		Strand: strand,
		Name:   featureName(parseAttributes(fields[8])),
	}, nil
}

func featureName(attrs map[string]string) string {
	for _, key := range []string{"gene_name", "Name", "gene_id", "ID"} {
		if v := attrs[key]; v != "" {
			return v
		}
	}
	return ""
}

// parseAttributes parses the attribute column.
// GTF: key "value"; key "value"; ...
// GFF3: key=value;key=value
func parseAttributes(attrStr string) map[string]string {
	attrs := make(map[string]string)

	for _, part := range strings.Split(attrStr, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		idx := strings.IndexAny(part, " =")
		if idx == -1 {
			continue
		}

		key := part[:idx]
		value := strings.Trim(strings.TrimSpace(part[idx+1:]), "\"")
		if _, ok := attrs[key]; !ok {
			attrs[key] = value
		}
	}

	return attrs
}
