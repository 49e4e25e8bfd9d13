package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/inodb/vibe-locus/internal/annotate"
	"github.com/inodb/vibe-locus/internal/bed"
	"github.com/inodb/vibe-locus/internal/output"
)

func newAnnotateCmd() *cobra.Command {
	var (
		outputFile    string
		featureStrand bool
		dbPath        string
	)

	cmd := &cobra.Command{
		Use:   "annotate <queries.bed> <table>...",
		Short: "Annotate intervals with their nearest features",
		Long: `Annotate each interval in a BED file with the nearest feature names and
signed distances from one or more tables. A distance is negative when the
feature lies upstream of the query; with --feature-strand it is negative
when the query lies upstream of the feature. Tables without a match are
reported as NA.

Tables are BED files indexed in memory, or table names in the DuckDB store
when --db is given.`,
		Example: `  vibe-locus annotate peaks.bed genes.bed cpg.bed.gz
  vibe-locus annotate -k 2 --feature-strand -o peaks.anno peaks.bed genes.bed
  vibe-locus annotate --db locus.duckdb peaks.bed genes cpg`,
		Args: cobra.MinimumNArgs(2),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return bindFlags(cmd, map[string]string{
				"index.type":       "index",
				"annotate.k":       "k",
				"annotate.workers": "workers",
			})
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			workers := viper.GetInt("annotate.workers")

			var tables []annotate.Table
			if dbPath != "" {
				s, err := openStore(dbPath)
				if err != nil {
					return err
				}
				defer s.Close()
				for _, name := range args[1:] {
					tables = append(tables, annotate.Table{Name: name, Index: newSearcher(s.Table(name))})
				}
			} else {
				indexes, err := loadIndexes(cmd.Context(), args[1:], viper.GetString("index.type"), workers)
				if err != nil {
					return err
				}
				for _, idx := range indexes {
					tables = append(tables, annotate.Table{Name: idx.name, Index: idx.neighbors})
				}
			}

			parser, err := bed.Open(args[0])
			if err != nil {
				return err
			}
			defer parser.Close()

			var out io.Writer = cmd.OutOrStdout()
			if outputFile != "" {
				f, err := os.Create(outputFile)
				if err != nil {
					return fmt.Errorf("creating output file: %w", err)
				}
				defer f.Close()
				out = f
			}

			ann := annotate.NewAnnotator(tables...)
			ann.SetK(viper.GetInt("annotate.k"))
			ann.SetFeatureStrand(featureStrand)
			ann.SetWorkers(workers)
			ann.SetLogger(logger)
			return ann.AnnotateAll(cmd.Context(), parser, output.NewTabWriter(out))
		},
	}

	cmd.Flags().String("index", indexIntersecter, "Index type: intersecter or tree")
	cmd.Flags().IntP("k", "k", 1, "Number of nearest features per table")
	cmd.Flags().Int("workers", 0, "Annotation workers (default: number of CPUs)")
	cmd.Flags().BoolVar(&featureStrand, "feature-strand", false, "Sign distances by the feature strand")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().StringVar(&dbPath, "db", "", "Read tables from this DuckDB store")

	return cmd
}
