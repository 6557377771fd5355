package output

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/inodb/syntenyfinder/internal/genome"
	"github.com/inodb/syntenyfinder/internal/synteny"
)

const coordsSeparator = "--------------------------------------------------------------------------------"

// CoordsWriter writes the sequence table followed by one section per block.
// Coordinates are 1-based and inclusive; instances on the negative strand
// list the larger coordinate first.
type CoordsWriter struct {
	w *bufio.Writer
}

// NewCoordsWriter creates a new block coordinates writer.
func NewCoordsWriter(w io.Writer) *CoordsWriter {
	return &CoordsWriter{w: bufio.NewWriter(w)}
}

// WriteBlocks writes chrs and blocks. blocks must be sorted by block id.
func (cw *CoordsWriter) WriteBlocks(chrs []*genome.Chromosome, blocks []synteny.BlockInstance) error {
	fmt.Fprintf(cw.w, "Seq_id\tSize\tDescription\n")
	for _, chr := range chrs {
		fmt.Fprintf(cw.w, "%d\t%d\t%s\n", chr.ID+1, len(chr.Sequence), chr.Description)
	}
	fmt.Fprintln(cw.w, coordsSeparator)

	for i := 0; i < len(blocks); {
		id := blocks[i].BlockID()
		fmt.Fprintf(cw.w, "Block #%d\n", id)
		fmt.Fprintf(cw.w, "Seq_id\tStrand\tStart\tEnd\tLength\n")
		for ; i < len(blocks) && blocks[i].BlockID() == id; i++ {
			b := blocks[i]
			start, end := b.Start+1, b.End
			if b.ID < 0 {
				start, end = end, start
			}
			fmt.Fprintf(cw.w, "%d\t%s\t%d\t%d\t%d\n", b.Chr.ID+1, b.Direction(), start, end, b.Length())
		}
		fmt.Fprintln(cw.w, coordsSeparator)
	}
	return cw.w.Flush()
}

// NewBlockWriter returns the writer for a format name: "tab" or "coords".
func NewBlockWriter(format string, w io.Writer) (BlockWriter, error) {
	switch strings.ToLower(format) {
	case "", "tab":
		return NewTabWriter(w), nil
	case "coords":
		return NewCoordsWriter(w), nil
	}
	return nil, fmt.Errorf("unknown output format %q", format)
}
