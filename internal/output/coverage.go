package output

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/bits-and-blooms/bitset"

	"github.com/inodb/syntenyfinder/internal/genome"
	"github.com/inodb/syntenyfinder/internal/synteny"
)

// ChromosomeCoverage is the share of a chromosome covered by blocks.
type ChromosomeCoverage struct {
	Chr *genome.Chromosome
	// All counts bases inside any block.
	All int
	// Shared counts bases inside blocks found on every chromosome.
	Shared int
}

// Fraction returns All as a fraction of the chromosome length.
func (c ChromosomeCoverage) Fraction() float64 {
	return fraction(c.All, len(c.Chr.Sequence))
}

// SharedFraction returns Shared as a fraction of the chromosome length.
func (c ChromosomeCoverage) SharedFraction() float64 {
	return fraction(c.Shared, len(c.Chr.Sequence))
}

func fraction(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total)
}

// Coverage computes per-chromosome block coverage.
func Coverage(chrs []*genome.Chromosome, blocks []synteny.BlockInstance) []ChromosomeCoverage {
	onChr := make(map[int]map[int]bool)
	for _, b := range blocks {
		if onChr[b.BlockID()] == nil {
			onChr[b.BlockID()] = make(map[int]bool)
		}
		onChr[b.BlockID()][b.Chr.ID] = true
	}

	all := make([]*bitset.BitSet, len(chrs))
	shared := make([]*bitset.BitSet, len(chrs))
	for i, chr := range chrs {
		all[i] = bitset.New(uint(len(chr.Sequence)))
		shared[i] = bitset.New(uint(len(chr.Sequence)))
	}
	for _, b := range blocks {
		everywhere := len(onChr[b.BlockID()]) == len(chrs)
		for p := b.Start; p < b.End; p++ {
			all[b.Chr.ID].Set(uint(p))
			if everywhere {
				shared[b.Chr.ID].Set(uint(p))
			}
		}
	}

	ret := make([]ChromosomeCoverage, len(chrs))
	for i, chr := range chrs {
		ret[i] = ChromosomeCoverage{
			Chr:    chr,
			All:    int(all[i].Count()),
			Shared: int(shared[i].Count()),
		}
	}
	return ret
}

// WriteCoverage writes a coverage table for the blocks.
func WriteCoverage(w io.Writer, chrs []*genome.Chromosome, blocks []synteny.BlockInstance) error {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "Seq_id\tChromosome\tSize\tCovered\tAll\tShared")
	var total, covered, sharedCovered int
	for _, c := range Coverage(chrs, blocks) {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%.2f%%\t%.2f%%\n",
			c.Chr.ID+1, c.Chr.Name(), len(c.Chr.Sequence), c.All, 100*c.Fraction(), 100*c.SharedFraction())
		total += len(c.Chr.Sequence)
		covered += c.All
		sharedCovered += c.Shared
	}
	fmt.Fprintf(tw, "\tTotal\t%d\t%d\t%.2f%%\t%.2f%%\n",
		total, covered, 100*fraction(covered, total), 100*fraction(sharedCovered, total))
	return tw.Flush()
}
