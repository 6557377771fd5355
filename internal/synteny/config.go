package synteny

import (
	"errors"
	"fmt"

	"github.com/inodb/syntenyfinder/internal/dna"
	"github.com/inodb/syntenyfinder/internal/genome"
)

// ErrInvalidConfig is wrapped by every error reported before a pass starts.
var ErrInvalidConfig = errors.New("invalid configuration")

// ProgressFunc is called after every processed edge group.
type ProgressFunc func(done, total int)

// Config holds the parameters of one block construction pass.
type Config struct {
	// K is the k-mer size of the bifurcation index the edges come from.
	K int
	// TrimK is the k-mer size used to align block ends. Zero means K.
	TrimK int
	// MinSize is the minimum block length in original coordinates.
	MinSize int
	// SharedOnly keeps only blocks found exactly once on every chromosome.
	SharedOnly bool
	// RevCompTable pairs chromosomes that are each other's reverse
	// complement. Nil treats every chromosome as double stranded.
	RevCompTable []int
	// MaxTrimRounds caps the trimming loop of one group. Zero derives the
	// cap from the group size.
	MaxTrimRounds int
	// Progress, if set, observes group processing.
	Progress ProgressFunc
}

// trimK returns the effective trim k-mer size.
func (c Config) trimK() int {
	if c.TrimK == 0 {
		return c.K
	}
	return c.TrimK
}

// Validate checks the configuration against the chromosomes it will run on.
// current holds the sequences to index, which differ from the chromosome
// sequences when the input was edited beforehand.
func (c Config) Validate(chrs []*genome.Chromosome, current []string) error {
	if len(chrs) == 0 {
		return fmt.Errorf("%w: no chromosomes", ErrInvalidConfig)
	}
	if c.K <= 0 {
		return fmt.Errorf("%w: k must be positive, got %d", ErrInvalidConfig, c.K)
	}
	if c.TrimK < 0 {
		return fmt.Errorf("%w: trim k must be positive, got %d", ErrInvalidConfig, c.TrimK)
	}
	if c.MinSize <= 0 {
		return fmt.Errorf("%w: minimum block size must be positive, got %d", ErrInvalidConfig, c.MinSize)
	}
	if c.MaxTrimRounds < 0 {
		return fmt.Errorf("%w: max trim rounds must not be negative, got %d", ErrInvalidConfig, c.MaxTrimRounds)
	}
	need := max(c.K, c.trimK())
	for i, chr := range chrs {
		if len(current[i]) < need {
			return fmt.Errorf("%w: chromosome %q has %d bases, fewer than the k-mer size %d",
				ErrInvalidConfig, chr.Description, len(current[i]), need)
		}
		for _, s := range []string{chr.Sequence, current[i]} {
			if p := dna.InvalidSymbol(s); p != -1 {
				return fmt.Errorf("%w: chromosome %q has invalid symbol %q at offset %d",
					ErrInvalidConfig, chr.Description, s[p], p)
			}
		}
	}
	if c.RevCompTable != nil {
		if len(c.RevCompTable) != len(chrs) {
			return fmt.Errorf("%w: reverse complement table has %d entries for %d chromosomes",
				ErrInvalidConfig, len(c.RevCompTable), len(chrs))
		}
		for i, j := range c.RevCompTable {
			if j < 0 || j >= len(chrs) || c.RevCompTable[j] != i {
				return fmt.Errorf("%w: reverse complement table entry %d -> %d is not an involution",
					ErrInvalidConfig, i, j)
			}
		}
	}
	return nil
}
