package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/inodb/vibe-locus/internal/bed"
	"github.com/inodb/vibe-locus/internal/store"
)

func newLoadCmd() *cobra.Command {
	var (
		dbPath string
		table  string
		force  bool
	)

	cmd := &cobra.Command{
		Use:   "load <file.bed>...",
		Short: "Load BED files into a DuckDB store",
		Long: `Load BED files into a bin-indexed DuckDB table so "nearest --db" and
"annotate --db" can query them without rebuilding an index. Each file goes
into a table named after it unless --table is given. Files unchanged since
their last load are skipped.`,
		Example: `  vibe-locus load --db locus.duckdb genes.bed cpg.bed.gz
  vibe-locus load --db locus.duckdb --table refgene refGene.bed`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if table != "" && len(args) > 1 {
				return fmt.Errorf("--table needs exactly one file")
			}
			s, err := openStore(dbPath)
			if err != nil {
				return err
			}
			defer s.Close()

			for _, path := range args {
				name := table
				if name == "" {
					name = tableName(path)
				}
				if err := loadFile(cmd, s, name, path, force); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "DuckDB file (default: db.path)")
	cmd.Flags().StringVar(&table, "table", "", "Table name (default: file name)")
	cmd.Flags().BoolVar(&force, "force", false, "Reload even when the file is unchanged")

	return cmd
}

func loadFile(cmd *cobra.Command, s *store.Store, name, path string, force bool) error {
	fp, err := store.StatFile(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if !force {
		fresh, err := s.Fresh(name, fp)
		if err != nil {
			return err
		}
		if fresh {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: up to date\n", name)
			return nil
		}
	}

	ivs, err := bed.ReadAll(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if err := s.Drop(name); err != nil {
		return err
	}
	rejected, err := s.Load(name, ivs)
	if err != nil {
		return fmt.Errorf("loading %s: %w", name, err)
	}
	if err := s.MarkLoaded(name, fp); err != nil {
		return err
	}

	logger.Info("loaded table", zap.String("table", name), zap.String("path", path),
		zap.Int("rejected", len(rejected)))
	fmt.Fprintf(cmd.OutOrStdout(), "%s: loaded %d intervals\n", name, len(ivs)-len(rejected))
	return nil
}
