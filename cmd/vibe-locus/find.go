package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/inodb/vibe-locus/internal/interval"
	"github.com/inodb/vibe-locus/internal/nearest"
	"github.com/inodb/vibe-locus/internal/output"
)

func newFindCmd() *cobra.Command {
	var (
		queriesPath string
		strandStr   string
		upstream    int64
		downstream  int64
	)

	cmd := &cobra.Command{
		Use:   "find <features.bed> [region...]",
		Short: "Find features overlapping regions",
		Long: `Find the features in a BED file that overlap or touch each query region.
With --upstream or --downstream the flank of that size next to each query
is searched instead, following the query strand.`,
		Example: `  vibe-locus find genes.bed chr1:1,000,000-1,100,000
  vibe-locus find --index tree genes.bed.gz --queries peaks.bed
  vibe-locus find --upstream 5000 --strand - genes.bed chr17:7,668,402-7,687,550`,
		Args: cobra.MinimumNArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return bindFlags(cmd, map[string]string{"index.type": "index"})
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if changed(cmd.Flags(), "upstream") && changed(cmd.Flags(), "downstream") {
				return fmt.Errorf("--upstream and --downstream are mutually exclusive")
			}
			strand, err := interval.ParseStrand(strandStr)
			if err != nil {
				return err
			}
			queries, err := readQueries(args[1:], queriesPath, strand)
			if err != nil {
				return err
			}

			idx, err := loadIndex(args[0], viper.GetString("index.type"))
			if err != nil {
				return err
			}

			w := output.NewNeighborWriter(cmd.OutOrStdout(), false)
			if err := w.WriteHeader(); err != nil {
				return err
			}
			for _, q := range queries {
				region := q
				switch {
				case upstream > 0:
					region = q.UpstreamFlank(upstream)
				case downstream > 0:
					region = q.DownstreamFlank(downstream)
				}
				for _, hit := range idx.finder.Find(region.Chrom, region.Start, region.End) {
					if err := w.Write(q, nearest.Neighbor{Interval: hit}); err != nil {
						return err
					}
				}
			}
			return w.Flush()
		},
	}

	cmd.Flags().String("index", indexIntersecter, "Index type: intersecter or tree")
	cmd.Flags().StringVar(&queriesPath, "queries", "", "BED file of query intervals")
	cmd.Flags().StringVar(&strandStr, "strand", "", "Strand of region arguments: + or -")
	cmd.Flags().Int64Var(&upstream, "upstream", 0, "Search the upstream flank of this size")
	cmd.Flags().Int64Var(&downstream, "downstream", 0, "Search the downstream flank of this size")

	return cmd
}
