package main

import (
	"bytes"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/syntenyfinder/internal/duckdb"
)

// execute runs the command line on a fresh root and global viper.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	viper.Reset()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func randomDNA(seed int64, n int) string {
	r := rand.New(rand.NewSource(seed))
	b := make([]byte, n)
	for i := range b {
		b[i] = "ACGT"[r.Intn(4)]
	}
	return string(b)
}

// writeGenomes writes two chromosomes with the same 600 bp sequence.
func writeGenomes(t *testing.T) string {
	t.Helper()
	seq := randomDNA(7, 600)
	path := filepath.Join(t.TempDir(), "genomes.fa")
	content := ">chr1 first copy\n" + seq[:300] + "\n" + seq[300:] + "\n>chr2 second copy\n" + seq + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const wantTab = "#Block_id\tSeq_id\tChromosome\tStrand\tStart\tEnd\tLength\n" +
	"1\t1\tchr1\t+\t1\t600\t600\n" +
	"1\t2\tchr2\t+\t1\t600\t600\n"

func TestFind_TabOutput(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	fasta := writeGenomes(t)

	out, err := execute(t, "find", "-k", "25", "-m", "100", fasta)
	require.NoError(t, err)
	assert.Equal(t, wantTab, out)
}

func TestFind_OutputFileAndCoords(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	fasta := writeGenomes(t)
	outPath := filepath.Join(t.TempDir(), "blocks_coords.txt")

	stdout, err := execute(t, "find", "-k", "25", "-m", "100", "-f", "coords", "-o", outPath, fasta)
	require.NoError(t, err)
	assert.Empty(t, stdout)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Block #1")
	assert.Contains(t, string(data), "first copy")
}

func TestFind_Errors(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	fasta := writeGenomes(t)

	_, err := execute(t, "find", "-f", "bed", fasta)
	assert.Error(t, err, "unknown format")

	_, err = execute(t, "find", filepath.Join(t.TempDir(), "missing.fa"))
	assert.Error(t, err)

	_, err = execute(t, "find")
	assert.Error(t, err, "no input files")

	viper.Reset()
	assert.Equal(t, ExitUsage, run([]string{"find", "-k", "0", fasta}))
}

func TestFind_ConfigFileDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	fasta := writeGenomes(t)
	cfg := filepath.Join(t.TempDir(), "synteny.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("min-size: 1000\n"), 0o644))

	out, err := execute(t, "--config", cfg, "find", "-k", "25", fasta)
	require.NoError(t, err)
	assert.Equal(t, "#Block_id\tSeq_id\tChromosome\tStrand\tStart\tEnd\tLength\n", out,
		"the shared segment is shorter than min-size from the config")

	out, err = execute(t, "--config", cfg, "find", "-k", "25", "-m", "100", fasta)
	require.NoError(t, err)
	assert.Equal(t, wantTab, out, "flags override the config file")
}

func TestFind_StoresRun(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	fasta := writeGenomes(t)
	dbPath := filepath.Join(t.TempDir(), "runs.duckdb")

	_, err := execute(t, "find", "-k", "25", "-m", "100", "--duckdb", dbPath, fasta)
	require.NoError(t, err)

	store, err := duckdb.Open(dbPath)
	require.NoError(t, err)
	runs, err := store.Runs()
	require.NoError(t, err)
	require.NoError(t, store.Close())
	require.Len(t, runs, 1)
	assert.Equal(t, 25, runs[0].K)
	assert.Equal(t, 25, runs[0].TrimK)
	assert.Equal(t, 100, runs[0].MinSize)
	assert.Equal(t, 1, runs[0].BlockCount)
	require.Len(t, runs[0].Inputs, 1)
	assert.Equal(t, fasta, runs[0].Inputs[0].Path)

	out, err := execute(t, "runs", "--duckdb", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, runs[0].ID)

	out, err = execute(t, "runs", "--duckdb", dbPath, runs[0].ID)
	require.NoError(t, err)
	assert.Equal(t, wantTab, out)

	_, err = execute(t, "runs", "--duckdb", dbPath, "no-such-run")
	assert.Error(t, err)

	out, err = execute(t, "runs", "--duckdb", dbPath)
	require.NoError(t, err)
	assert.NotContains(t, out, "(changed)")
	require.NoError(t, os.WriteFile(fasta, []byte(">chr1\nACGT\n"), 0o644))
	out, err = execute(t, "runs", "--duckdb", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, fasta+" (changed)")

	_, err = execute(t, "runs", "--duckdb", dbPath, "--delete", "no-such-run")
	assert.Error(t, err)

	out, err = execute(t, "runs", "--duckdb", dbPath, "--delete", runs[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Deleted run "+runs[0].ID+"\n", out)

	out, err = execute(t, "runs", "--duckdb", dbPath)
	require.NoError(t, err)
	assert.NotContains(t, out, runs[0].ID)
}

func TestConfig_SetGetShow(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg := filepath.Join(t.TempDir(), "synteny.yaml")

	out, err := execute(t, "--config", cfg, "config")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "# No configuration set"))

	_, err = execute(t, "--config", cfg, "config", "set", "min-size", "200")
	require.NoError(t, err)
	_, err = execute(t, "--config", cfg, "config", "set", "shared-only", "yes")
	require.NoError(t, err)

	out, err = execute(t, "--config", cfg, "config", "get", "min-size")
	require.NoError(t, err)
	assert.Equal(t, "200\n", out)

	out, err = execute(t, "--config", cfg, "config")
	require.NoError(t, err)
	assert.Contains(t, out, "shared-only: true")
	assert.Contains(t, out, "min-size:")

	_, err = execute(t, "--config", cfg, "config", "get", "no-such-key")
	assert.Error(t, err)
}
