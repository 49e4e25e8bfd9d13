// Package bed reads BED and GTF interval files.
package bed

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/inodb/vibe-locus/internal/interval"
)

// Parser reads intervals from a BED file. Only the first six columns are
// interpreted; extra columns are ignored.
type Parser struct {
	*input
}

// NewParser creates a parser for the given file, or stdin when path is "-".
// Gzip and zstd input is detected from the leading magic bytes.
func NewParser(path string) (*Parser, error) {
	in, err := openInput(path)
	if err != nil {
		return nil, fmt.Errorf("open bed file: %w", err)
	}
	return &Parser{input: in}, nil
}

// NewParserFromReader creates a parser from an io.Reader.
func NewParserFromReader(r io.Reader) (*Parser, error) {
	in, err := newInput(r)
	if err != nil {
		return nil, err
	}
	return &Parser{input: in}, nil
}

// Next reads the next interval.
// Returns nil, nil when there are no more intervals.
func (p *Parser) Next() (*interval.Interval, error) {
	for {
		line, ok, err := p.nextLine()
		if err != nil || !ok {
			return nil, err
		}
		if skipLine(line) {
			continue
		}
		return p.parseLine(line)
	}
}

// skipLine reports blank lines, comments and UCSC track/browser lines.
func skipLine(line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return true
	}
	return strings.HasPrefix(fields[0], "#") || fields[0] == "track" || fields[0] == "browser"
}

func (p *Parser) parseLine(line string) (*interval.Interval, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < 3 {
		fields = strings.Fields(line)
	}
	if len(fields) < 3 {
		return nil, &ParseError{
			Line:    p.lineNumber,
			Message: fmt.Sprintf("expected at least 3 columns, found %d", len(fields)),
		}
	}

	start, err := strconv.ParseInt(strings.TrimSpace(fields[1]), 10, 64)
	if err != nil || start < 0 {
		return nil, &ParseError{
			Line:    p.lineNumber,
			Message: fmt.Sprintf("invalid start: %s", fields[1]),
		}
	}
	end, err := strconv.ParseInt(strings.TrimSpace(fields[2]), 10, 64)
	if err != nil || end < 0 {
		return nil, &ParseError{
			Line:    p.lineNumber,
			Message: fmt.Sprintf("invalid end: %s", fields[2]),
		}
	}

	iv := &interval.Interval{Chrom: fields[0], Start: start, End: end}
	if len(fields) > 3 {
		iv.Name = fields[3]
	}
	if len(fields) > 5 {
		iv.Strand, err = interval.ParseStrand(strings.TrimSpace(fields[5]))
		if err != nil {
			return nil, &ParseError{Line: p.lineNumber, Message: err.Error()}
		}
	}
	return iv, nil
}

// IntervalReader is implemented by Parser and GTFParser.
type IntervalReader interface {
	Next() (*interval.Interval, error)
	LineNumber() int
	Close() error
}

// Open returns a GTFParser for .gtf and .gff files (optionally compressed)
// and a Parser for everything else.
func Open(path string) (IntervalReader, error) {
	if IsGTF(path) {
		return NewGTFParser(path, DefaultGTFFeature)
	}
	return NewParser(path)
}

// ReadAll parses every interval in path, choosing the reader with Open.
// Intervals with start past end are returned as-is so that index
// construction can report them.
func ReadAll(path string) ([]interval.Interval, error) {
	p, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer p.Close()

	var ivs []interval.Interval
	for {
		iv, err := p.Next()
		if err != nil {
			return nil, err
		}
		if iv == nil {
			return ivs, nil
		}
		ivs = append(ivs, *iv)
	}
}

// ParseError represents an error during BED or GTF parsing with line context.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at line %d: %s", e.Line, e.Message)
}
