// Package store keeps interval tables in DuckDB with a UCSC bin column so
// range queries only touch candidate bins. A table name groups the rows
// loaded from one source file.
package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	goduckdb "github.com/marcboeker/go-duckdb"
	"go.uber.org/zap"

	"github.com/inodb/vibe-locus/internal/binning"
	"github.com/inodb/vibe-locus/internal/interval"
	"github.com/inodb/vibe-locus/internal/nearest"
)

// maxBinTerms is the bin count at which Find scans the whole chromosome
// instead of listing bins in the query.
const maxBinTerms = 100

// Store manages a DuckDB connection holding interval tables.
type Store struct {
	db     *sql.DB
	path   string
	logger *zap.Logger
}

// Open opens or creates a DuckDB database at the given path.
// Use an empty string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db, path: path, logger: zap.NewNop()}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return s, nil
}

// SetLogger sets the logger for load and query messages.
func (s *Store) SetLogger(l *zap.Logger) {
	if l != nil {
		s.logger = l
	}
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file, or "" for an in-memory store.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) ensureSchema() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS intervals (
		table_name VARCHAR,
		chrom VARCHAR,
		bin INTEGER,
		chrom_start BIGINT,
		chrom_end BIGINT,
		strand TINYINT,
		name VARCHAR
	)`); err != nil {
		return err
	}
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS sources (
		table_name VARCHAR PRIMARY KEY,
		path VARCHAR,
		size BIGINT,
		mod_time BIGINT
	)`)
	return err
}

// Load appends ivs to table using the Appender API. Invalid intervals and
// intervals too wide to bin are skipped and returned as errors; the rest are
// written.
func (s *Store) Load(table string, ivs []interval.Interval) (rejected []error, err error) {
	if table == "" {
		return nil, errors.New("empty table name")
	}
	valid, rejected := interval.Partition(ivs)

	conn, err := s.db.Conn(context.Background())
	if err != nil {
		return rejected, fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", "intervals")
		return err
	}); err != nil {
		return rejected, fmt.Errorf("create appender: %w", err)
	}
	defer appender.Close()

	written := 0
	for _, iv := range valid {
		bin, err := binning.Assign(iv.Start, iv.End)
		if err != nil {
			rejected = append(rejected, fmt.Errorf("%s: %w", iv, err))
			continue
		}
		if err := appender.AppendRow(
			table, iv.Chrom, int32(bin), iv.Start, iv.End, int8(iv.Strand), iv.Name,
		); err != nil {
			return rejected, fmt.Errorf("append interval: %w", err)
		}
		written++
	}
	if err := appender.Flush(); err != nil {
		return rejected, fmt.Errorf("flush intervals: %w", err)
	}

	for _, r := range rejected {
		s.logger.Warn("skipping interval", zap.String("table", table), zap.Error(r))
	}
	s.logger.Debug("loaded intervals", zap.String("table", table), zap.Int("rows", written))
	return rejected, nil
}

// Find returns the intervals in table on chrom that overlap or touch
// [start, end]. The bin filter is widened by one base on each side so
// features ending at start or beginning at end are candidates.
func (s *Store) Find(table, chrom string, start, end int64) ([]interval.Interval, error) {
	if start > end {
		return nil, nil
	}

	query := `SELECT chrom, chrom_start, chrom_end, strand, name FROM intervals
		WHERE table_name = ? AND chrom = ? AND chrom_start <= ? AND chrom_end >= ?`
	args := []any{table, chrom, end, start}

	bins, err := binning.Bins(max(0, start-1), end+1)
	switch {
	case errors.Is(err, binning.ErrRangeTooLarge):
		s.logger.Debug("range too wide for bins, scanning chromosome",
			zap.String("chrom", chrom), zap.Int64("start", start), zap.Int64("end", end))
	case err != nil:
		return nil, fmt.Errorf("compute bins: %w", err)
	case len(bins) < maxBinTerms:
		query += " AND bin IN (?" + strings.Repeat(", ?", len(bins)-1) + ")"
		for _, b := range bins {
			args = append(args, int32(b))
		}
	}
	query += " ORDER BY chrom_start, chrom_end"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query intervals: %w", err)
	}
	defer rows.Close()

	var out []interval.Interval
	for rows.Next() {
		var iv interval.Interval
		var strand int8
		if err := rows.Scan(&iv.Chrom, &iv.Start, &iv.End, &strand, &iv.Name); err != nil {
			return nil, fmt.Errorf("scan interval: %w", err)
		}
		iv.Strand = interval.Strand(strand)
		out = append(out, iv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate intervals: %w", err)
	}
	return out, nil
}

// Table returns a range querier bound to one table, for use with
// nearest.NewSearcher.
func (s *Store) Table(name string) nearest.RangeQuerier {
	return tableQuerier{store: s, name: name}
}

type tableQuerier struct {
	store *Store
	name  string
}

func (t tableQuerier) Find(chrom string, start, end int64) ([]interval.Interval, error) {
	return t.store.Find(t.name, chrom, start, end)
}

// Tables lists the loaded table names, sorted.
func (s *Store) Tables() ([]string, error) {
	rows, err := s.db.Query("SELECT DISTINCT table_name FROM intervals ORDER BY table_name")
	if err != nil {
		return nil, fmt.Errorf("query tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Count returns the number of intervals in table.
func (s *Store) Count(table string) (int, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM intervals WHERE table_name = ?", table).Scan(&n); err != nil {
		return 0, fmt.Errorf("count intervals: %w", err)
	}
	return n, nil
}

// Drop removes every interval in table along with its source record.
func (s *Store) Drop(table string) error {
	if _, err := s.db.Exec("DELETE FROM intervals WHERE table_name = ?", table); err != nil {
		return fmt.Errorf("drop intervals: %w", err)
	}
	if _, err := s.db.Exec("DELETE FROM sources WHERE table_name = ?", table); err != nil {
		return fmt.Errorf("drop source: %w", err)
	}
	return nil
}
