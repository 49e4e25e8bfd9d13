package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/inodb/vibe-locus/internal/binning"
)

func newBinsCmd() *cobra.Command {
	var assign bool

	cmd := &cobra.Command{
		Use:   "bins <start> <end>",
		Short: "Print the UCSC bins overlapping a range",
		Long: `Print every bin a range query over [start, end) must inspect, or with
--assign the single bin a feature spanning that range is stored under.`,
		Example: `  vibe-locus bins 0 1
  vibe-locus bins --assign 131000 131100`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid start %q: %w", args[0], err)
			}
			end, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid end %q: %w", args[1], err)
			}
			if start < 0 || end < start {
				return fmt.Errorf("invalid range %d-%d", start, end)
			}

			if assign {
				bin, err := binning.Assign(start, end)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), bin)
				return nil
			}

			bins, err := binning.Bins(start, end)
			if err != nil {
				return err
			}
			parts := make([]string, len(bins))
			for i, b := range bins {
				parts[i] = strconv.Itoa(b)
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(parts, " "))
			return nil
		},
	}

	cmd.Flags().BoolVar(&assign, "assign", false, "Print the storage bin for a feature")
	return cmd
}
