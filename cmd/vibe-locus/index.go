package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/inodb/vibe-locus/internal/annotate"
	"github.com/inodb/vibe-locus/internal/bed"
	"github.com/inodb/vibe-locus/internal/interval"
	"github.com/inodb/vibe-locus/internal/intersect"
	"github.com/inodb/vibe-locus/internal/itree"
	"github.com/inodb/vibe-locus/internal/nearest"
	"github.com/inodb/vibe-locus/internal/store"
)

const (
	indexIntersecter = "intersecter"
	indexTree        = "tree"
)

// memIndex is an in-memory index over one BED file.
type memIndex struct {
	name      string
	finder    nearest.Index
	neighbors annotate.NeighborIndex
	size      int
	rejected  int
}

// buildIndex builds the configured index type over ivs. Tree indexes answer
// nearest queries through an expanding-window Searcher.
func buildIndex(name, kind string, ivs []interval.Interval) (*memIndex, error) {
	l := logger.With(zap.String("table", name))
	switch kind {
	case indexIntersecter:
		x := intersect.New(ivs,
			intersect.WithPadding(viper.GetInt64("nearest.padding")),
			intersect.WithLogger(l))
		return &memIndex{name: name, finder: x, neighbors: x, size: x.Len(), rejected: len(x.Rejected())}, nil
	case indexTree:
		f := itree.NewForest(ivs,
			itree.WithDepth(viper.GetInt("tree.depth")),
			itree.WithMinBucket(viper.GetInt("tree.min_bucket")),
			itree.WithMaxBucket(viper.GetInt("tree.max_bucket")),
			itree.WithLogger(l))
		return &memIndex{name: name, finder: f, neighbors: newSearcher(nearest.Static(f)), size: f.Len(), rejected: len(f.Rejected())}, nil
	}
	return nil, fmt.Errorf("unknown index type %q (want %s or %s)", kind, indexIntersecter, indexTree)
}

func newSearcher(q nearest.RangeQuerier) *nearest.Searcher {
	return nearest.NewSearcher(q,
		nearest.WithStep(viper.GetInt64("nearest.step")),
		nearest.WithMaxSteps(viper.GetInt("nearest.max_steps")),
		nearest.WithLogger(logger))
}

// loadIndex reads a BED file and indexes it.
func loadIndex(path, kind string) (*memIndex, error) {
	ivs, err := bed.ReadAll(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	idx, err := buildIndex(tableName(path), kind, ivs)
	if err != nil {
		return nil, err
	}
	logger.Info("indexed intervals",
		zap.String("path", path),
		zap.String("index", kind),
		zap.Int("intervals", idx.size),
		zap.Int("rejected", idx.rejected))
	return idx, nil
}

// loadIndexes builds one index per path concurrently, keeping path order.
func loadIndexes(ctx context.Context, paths []string, kind string, workers int) ([]*memIndex, error) {
	indexes := make([]*memIndex, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			idx, err := loadIndex(path, kind)
			if err != nil {
				return err
			}
			indexes[i] = idx
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return indexes, nil
}

// tableName derives a table name from an input path: genes.bed.gz -> genes.
func tableName(path string) string {
	name := filepath.Base(path)
	for _, ext := range []string{".gz", ".zst", ".bed", ".gtf", ".gff3", ".gff"} {
		name = strings.TrimSuffix(name, ext)
	}
	return name
}

// openStore opens the DuckDB store at path, falling back to db.path.
func openStore(path string) (*store.Store, error) {
	if path == "" {
		path = viper.GetString("db.path")
	}
	if path == "" {
		return nil, fmt.Errorf("no database given: use --db or set db.path")
	}
	s, err := store.Open(path)
	if err != nil {
		return nil, err
	}
	s.SetLogger(logger)
	return s, nil
}

// readQueries collects query intervals from region arguments and an
// optional BED file. Regions take the given strand.
func readQueries(regions []string, queriesPath string, strand interval.Strand) ([]interval.Interval, error) {
	var queries []interval.Interval
	for _, r := range regions {
		iv, err := interval.ParseRegion(r)
		if err != nil {
			return nil, err
		}
		iv.Strand = strand
		queries = append(queries, iv)
	}
	if queriesPath != "" {
		ivs, err := bed.ReadAll(queriesPath)
		if err != nil {
			return nil, fmt.Errorf("reading queries: %w", err)
		}
		queries = append(queries, ivs...)
	}
	if len(queries) == 0 {
		return nil, fmt.Errorf("no queries: give regions or --queries")
	}
	return queries, nil
}
