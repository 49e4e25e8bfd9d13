package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const genesBED = `track name=genes
chr1	0	10	a	0	+
chr1	3	7	b	0	-
chr1	3	40	c	0	+
chr1	13	50	d	0	-
chr2	100	200	e	0	+
`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	viper.Reset()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func dataLines(out string) []string {
	var lines []string
	for _, l := range strings.Split(strings.TrimSpace(out), "\n") {
		if l != "" && !strings.HasPrefix(l, "#") {
			lines = append(lines, l)
		}
	}
	return lines
}

func setup(t *testing.T) string {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	return t.TempDir()
}

func TestBinsCmd(t *testing.T) {
	setup(t)
	out, err := execute(t, "bins", "0", "1")
	require.NoError(t, err)
	assert.Equal(t, "1 9 73 585\n", out)

	out, err = execute(t, "bins", "--assign", "131000", "131100")
	require.NoError(t, err)
	assert.Equal(t, "73\n", out)

	_, err = execute(t, "bins", "0", "536870912")
	assert.Error(t, err)

	_, err = execute(t, "bins", "10", "x")
	assert.Error(t, err)
}

func TestFindCmd(t *testing.T) {
	dir := setup(t)
	genes := writeFile(t, dir, "genes.bed", genesBED)

	for _, index := range []string{indexIntersecter, indexTree} {
		t.Run(index, func(t *testing.T) {
			out, err := execute(t, "find", "--index", index, genes, "chr1:2-5")
			require.NoError(t, err)
			lines := dataLines(out)
			require.Len(t, lines, 3)
			for _, l := range lines {
				assert.True(t, strings.HasPrefix(l, "chr1:2-5\tchr1\t"), l)
			}
		})
	}

	out, err := execute(t, "find", genes, "chr1:100-200")
	require.NoError(t, err)
	assert.Empty(t, dataLines(out))

	_, err = execute(t, "find", "--index", "hash", genes, "chr1:1-2")
	assert.ErrorContains(t, err, "unknown index type")
}

func TestFindCmd_Flank(t *testing.T) {
	dir := setup(t)
	genes := writeFile(t, dir, "genes.bed", genesBED)

	// the downstream flank of chr1:60-70 on minus is chr1:55-60
	out, err := execute(t, "find", "--downstream", "5", "--strand", "-", genes, "chr1:60-70")
	require.NoError(t, err)
	assert.Empty(t, dataLines(out))

	out, err = execute(t, "find", "--downstream", "12", "--strand", "-", genes, "chr1:60-70")
	require.NoError(t, err)
	lines := dataLines(out)
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "\td\t")

	_, err = execute(t, "find", "--upstream", "5", "--downstream", "5", genes, "chr1:60-70")
	assert.Error(t, err)
}

func TestNearestCmd(t *testing.T) {
	dir := setup(t)
	genes := writeFile(t, dir, "genes.bed", genesBED)

	for _, index := range []string{indexIntersecter, indexTree} {
		t.Run(index, func(t *testing.T) {
			out, err := execute(t, "nearest", "--index", index, "-k", "2", genes, "chr1:1-2")
			require.NoError(t, err)
			lines := dataLines(out)
			require.Len(t, lines, 3, "ties at the cutoff are kept")
			assert.True(t, strings.HasSuffix(lines[0], "\t0"))
			assert.True(t, strings.HasSuffix(lines[2], "\t1"))

			out, err = execute(t, "nearest", "--index", index, genes, "chr1:100-200")
			require.NoError(t, err)
			lines = dataLines(out)
			require.Len(t, lines, 1)
			assert.Contains(t, lines[0], "\td\t")
			assert.True(t, strings.HasSuffix(lines[0], "\t50"))
		})
	}
}

func TestNearestCmd_Direction(t *testing.T) {
	dir := setup(t)
	genes := writeFile(t, dir, "genes.bed", "chr1\t100\t200\tleft\nchr1\t1000\t1100\tright\n")

	out, err := execute(t, "nearest", "--direction", "up", genes, "chr1:900-950")
	require.NoError(t, err)
	lines := dataLines(out)
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "\tleft\t")

	out, err = execute(t, "nearest", "--direction", "up", "--strand", "-", genes, "chr1:900-950")
	require.NoError(t, err)
	lines = dataLines(out)
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "\tright\t")

	_, err = execute(t, "nearest", "--direction", "sideways", genes, "chr1:900-950")
	assert.Error(t, err)
}

func TestLoadAndQueryStore(t *testing.T) {
	dir := setup(t)
	genes := writeFile(t, dir, "genes.bed", genesBED)
	db := filepath.Join(dir, "locus.duckdb")

	out, err := execute(t, "load", "--db", db, genes)
	require.NoError(t, err)
	assert.Equal(t, "genes: loaded 5 intervals\n", out)

	out, err = execute(t, "load", "--db", db, genes)
	require.NoError(t, err)
	assert.Equal(t, "genes: up to date\n", out)

	out, err = execute(t, "load", "--db", db, "--force", genes)
	require.NoError(t, err)
	assert.Equal(t, "genes: loaded 5 intervals\n", out)

	out, err = execute(t, "nearest", "--db", db, "-k", "2", "genes", "chr1:1-2")
	require.NoError(t, err)
	assert.Len(t, dataLines(out), 3)

	queries := writeFile(t, dir, "q.bed", "chr1\t100\t200\tq1\nchr3\t0\t5\tq2\n")
	out, err = execute(t, "annotate", "--db", db, queries, "genes")
	require.NoError(t, err)
	lines := dataLines(out)
	require.Len(t, lines, 2)
	assert.Equal(t, "chr1\t100\t200\tq1\t.\td\t-50", lines[0])
	assert.Equal(t, "chr3\t0\t5\tq2\t.\tNA\tNA", lines[1])

	_, err = execute(t, "load", genes)
	assert.ErrorContains(t, err, "no database")
}

func TestAnnotateCmd(t *testing.T) {
	dir := setup(t)
	genes := writeFile(t, dir, "genes.bed", genesBED)
	cpg := writeFile(t, dir, "cpg.bed", "chr1\t60\t70\tisland\n")
	queries := writeFile(t, dir, "q.bed", "chr1\t100\t200\tq1\t0\t-\nchr2\t300\t310\tq2\n")
	outFile := filepath.Join(dir, "out.tsv")

	_, err := execute(t, "annotate", "--workers", "2", "-o", outFile, queries, genes, cpg)
	require.NoError(t, err)

	data, err := os.ReadFile(outFile)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "#chrom\tstart\tend\tname\tstrand\tgenes_name\tgenes_distance\tcpg_name\tcpg_distance", lines[0])
	assert.Equal(t, "chr1\t100\t200\tq1\t-\td\t50\tisland\t30", lines[1])
	assert.Equal(t, "chr2\t300\t310\tq2\t.\te\t-100\tNA\tNA", lines[2])
}

func TestConfigCmd(t *testing.T) {
	setup(t)
	out, err := execute(t, "config", "set", "nearest.step", "500")
	require.NoError(t, err)
	assert.Contains(t, out, "Set nearest.step = 500")

	out, err = execute(t, "config", "get", "nearest.step")
	require.NoError(t, err)
	assert.Equal(t, "500\n", out)

	out, err = execute(t, "config")
	require.NoError(t, err)
	assert.Contains(t, out, "step: 500")

	_, err = execute(t, "config", "get", "no.such.key")
	assert.Error(t, err)
}

func TestEnvOverride(t *testing.T) {
	dir := setup(t)
	genes := writeFile(t, dir, "genes.bed", genesBED)
	t.Setenv("VIBE_LOCUS_INDEX_TYPE", "bogus")

	_, err := execute(t, "find", genes, "chr1:2-5")
	assert.ErrorContains(t, err, "bogus")
}

func TestVersion(t *testing.T) {
	setup(t)
	out, err := execute(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "dev")
}

func TestTableName(t *testing.T) {
	assert.Equal(t, "genes", tableName("/data/genes.bed.gz"))
	assert.Equal(t, "cpg", tableName("cpg.bed"))
	assert.Equal(t, "peaks", tableName("peaks.bed.zst"))
	assert.Equal(t, "refGene.txt", tableName("refGene.txt"))
	assert.Equal(t, "gencode", tableName("gencode.gtf.gz"))
}
