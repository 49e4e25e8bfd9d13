package annotate

import (
	"strconv"
	"strings"

	"github.com/inodb/vibe-locus/internal/interval"
)

// Match is one nearby feature with its signed distance. A negative distance
// means upstream; see Annotator.SetFeatureStrand for the reference strand.
type Match struct {
	Name     string
	Distance int64
}

// TableResult holds the matches from one table.
type TableResult struct {
	Table   string
	Matches []Match
}

// Names formats the match names as a single column. When every match has the
// same name it is reported once; otherwise names are joined with ';' in the
// same order as Distances.
func (r TableResult) Names() string {
	if len(r.Matches) == 0 {
		return ""
	}
	same := true
	names := make([]string, len(r.Matches))
	for i, m := range r.Matches {
		names[i] = m.Name
		same = same && m.Name == r.Matches[0].Name
	}
	if same {
		return names[0]
	}
	return strings.Join(names, ";")
}

// Distances formats the signed distances joined with ';'.
func (r TableResult) Distances() string {
	parts := make([]string, len(r.Matches))
	for i, m := range r.Matches {
		parts[i] = strconv.FormatInt(m.Distance, 10)
	}
	return strings.Join(parts, ";")
}

// Record is the annotation of one query interval.
type Record struct {
	Query   interval.Interval
	Results []TableResult
}
