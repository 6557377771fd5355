// Package output provides synteny block output formatters.
package output

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/inodb/syntenyfinder/internal/genome"
	"github.com/inodb/syntenyfinder/internal/synteny"
)

// BlockWriter writes a complete block list.
type BlockWriter interface {
	WriteBlocks(chrs []*genome.Chromosome, blocks []synteny.BlockInstance) error
}

// TabWriter writes one block instance per line in tab-delimited format.
// Coordinates are 1-based and inclusive.
type TabWriter struct {
	w       *bufio.Writer
	columns []string
}

// NewTabWriter creates a new tab-delimited writer.
func NewTabWriter(w io.Writer) *TabWriter {
	return &TabWriter{
		w: bufio.NewWriter(w),
		columns: []string{
			"#Block_id",
			"Seq_id",
			"Chromosome",
			"Strand",
			"Start",
			"End",
			"Length",
		},
	}
}

// WriteHeader writes the header line.
func (tw *TabWriter) WriteHeader() error {
	_, err := tw.w.WriteString(strings.Join(tw.columns, "\t") + "\n")
	return err
}

// Write writes a single block instance.
func (tw *TabWriter) Write(b synteny.BlockInstance) error {
	values := []string{
		strconv.Itoa(b.BlockID()),
		strconv.Itoa(b.Chr.ID + 1),
		b.Chr.Name(),
		b.Direction().String(),
		strconv.Itoa(b.Start + 1),
		strconv.Itoa(b.End),
		strconv.Itoa(b.Length()),
	}

	_, err := tw.w.WriteString(strings.Join(values, "\t") + "\n")
	return err
}

// WriteBlocks writes the header, every instance and flushes.
func (tw *TabWriter) WriteBlocks(_ []*genome.Chromosome, blocks []synteny.BlockInstance) error {
	if err := tw.WriteHeader(); err != nil {
		return err
	}
	for _, b := range blocks {
		if err := tw.Write(b); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// Flush flushes any buffered data to the underlying writer.
func (tw *TabWriter) Flush() error {
	return tw.w.Flush()
}
