package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/syntenyfinder/internal/genome"
	"github.com/inodb/syntenyfinder/internal/synteny"
)

func testGenome() ([]*genome.Chromosome, []synteny.BlockInstance) {
	chrs := []*genome.Chromosome{
		{ID: 0, Description: "chrA first", Sequence: strings.Repeat("ACGT", 25)},
		{ID: 1, Description: "chrB", Sequence: strings.Repeat("TTGCA", 10)},
	}
	blocks := []synteny.BlockInstance{
		{ID: 1, Chr: chrs[0], Start: 0, End: 40},
		{ID: -1, Chr: chrs[1], Start: 10, End: 50},
		{ID: 2, Chr: chrs[0], Start: 60, End: 80},
	}
	return chrs, blocks
}

func TestTabWriter_WriteHeader(t *testing.T) {
	var buf bytes.Buffer
	w := NewTabWriter(&buf)

	require.NoError(t, w.WriteHeader())
	require.NoError(t, w.Flush())

	header := buf.String()
	for _, col := range []string{"#Block_id", "Seq_id", "Chromosome", "Strand", "Start", "End", "Length"} {
		assert.Contains(t, header, col)
	}
}

func TestTabWriter_WriteBlocks(t *testing.T) {
	chrs, blocks := testGenome()
	var buf bytes.Buffer

	require.NoError(t, NewTabWriter(&buf).WriteBlocks(chrs, blocks))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "1\t1\tchrA\t+\t1\t40\t40", lines[1])
	assert.Equal(t, "1\t2\tchrB\t-\t11\t50\t40", lines[2])
	assert.Equal(t, "2\t1\tchrA\t+\t61\t80\t20", lines[3])
}

func TestCoordsWriter_WriteBlocks(t *testing.T) {
	chrs, blocks := testGenome()
	var buf bytes.Buffer

	require.NoError(t, NewCoordsWriter(&buf).WriteBlocks(chrs, blocks))

	want := "Seq_id\tSize\tDescription\n" +
		"1\t100\tchrA first\n" +
		"2\t50\tchrB\n" +
		coordsSeparator + "\n" +
		"Block #1\n" +
		"Seq_id\tStrand\tStart\tEnd\tLength\n" +
		"1\t+\t1\t40\t40\n" +
		"2\t-\t50\t11\t40\n" +
		coordsSeparator + "\n" +
		"Block #2\n" +
		"Seq_id\tStrand\tStart\tEnd\tLength\n" +
		"1\t+\t61\t80\t20\n" +
		coordsSeparator + "\n"
	assert.Equal(t, want, buf.String())
}

func TestNewBlockWriter(t *testing.T) {
	var buf bytes.Buffer

	w, err := NewBlockWriter("tab", &buf)
	require.NoError(t, err)
	assert.IsType(t, &TabWriter{}, w)

	w, err = NewBlockWriter("COORDS", &buf)
	require.NoError(t, err)
	assert.IsType(t, &CoordsWriter{}, w)

	_, err = NewBlockWriter("gff", &buf)
	assert.Error(t, err)
}
