package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/inodb/vibe-locus/internal/annotate"
	"github.com/inodb/vibe-locus/internal/interval"
	"github.com/inodb/vibe-locus/internal/nearest"
	"github.com/inodb/vibe-locus/internal/output"
)

func newNearestCmd() *cobra.Command {
	var (
		queriesPath  string
		strandStr    string
		directionStr string
		k            int
		dbPath       string
	)

	cmd := &cobra.Command{
		Use:   "nearest <features.bed | table> [region...]",
		Short: "Find the k nearest features to regions",
		Long: `Report the k nearest features to each query, with distances. Features tied
with the k-th nearest are all reported. --direction restricts the search to
upstream or downstream features relative to the query strand.

With --db the first argument names a table in the DuckDB store (see "load")
and the search widens a window around the query until k features are found.`,
		Example: `  vibe-locus nearest -k 3 genes.bed chr1:1,000,000-1,000,100
  vibe-locus nearest --direction up --strand - genes.bed chr17:7,668,402-7,687,550
  vibe-locus nearest --db locus.duckdb genes --queries peaks.bed`,
		Args: cobra.MinimumNArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return bindFlags(cmd, map[string]string{"index.type": "index"})
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := nearest.ParseDirection(directionStr)
			if err != nil {
				return err
			}
			strand, err := interval.ParseStrand(strandStr)
			if err != nil {
				return err
			}
			queries, err := readQueries(args[1:], queriesPath, strand)
			if err != nil {
				return err
			}

			var idx annotate.NeighborIndex
			if dbPath != "" {
				s, err := openStore(dbPath)
				if err != nil {
					return err
				}
				defer s.Close()
				idx = newSearcher(s.Table(args[0]))
			} else {
				mem, err := loadIndex(args[0], viper.GetString("index.type"))
				if err != nil {
					return err
				}
				idx = mem.neighbors
			}

			w := output.NewNeighborWriter(cmd.OutOrStdout(), true)
			if err := w.WriteHeader(); err != nil {
				return err
			}
			for _, q := range queries {
				hits, err := idx.Nearest(nearest.ByFeature(q), k, dir)
				if err != nil {
					return err
				}
				if err := w.WriteAll(q, hits); err != nil {
					return err
				}
			}
			return w.Flush()
		},
	}

	cmd.Flags().String("index", indexIntersecter, "Index type: intersecter or tree")
	cmd.Flags().StringVar(&queriesPath, "queries", "", "BED file of query intervals")
	cmd.Flags().StringVar(&strandStr, "strand", "", "Strand of region arguments: + or -")
	cmd.Flags().StringVar(&directionStr, "direction", "", "Restrict to up(stream) or down(stream) features")
	cmd.Flags().IntVarP(&k, "k", "k", 1, "Number of nearest features")
	cmd.Flags().StringVar(&dbPath, "db", "", "Query a table in this DuckDB store")

	return cmd
}
