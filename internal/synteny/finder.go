// Package synteny builds synteny blocks: segments shared, in colinear
// order and without overlap, by a set of chromosomes.
//
// One pass indexes the bifurcations of the chromosomes' de Bruijn graph,
// cuts every strand into edges between them, and turns groups of edges
// following the same path into blocks. Blocks that always sit next to each
// other are then glued together.
package synteny

import (
	"cmp"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/inodb/syntenyfinder/internal/debruijn"
	"github.com/inodb/syntenyfinder/internal/dna"
	"github.com/inodb/syntenyfinder/internal/genome"
)

// Finder generates synteny blocks for a fixed chromosome collection.
type Finder struct {
	chrs      []*genome.Chromosome
	current   []string
	positions [][]int
	logger    *zap.Logger
}

// NewFinder creates a finder over unedited chromosomes.
func NewFinder(chrs []*genome.Chromosome) *Finder {
	return &Finder{
		chrs:   chrs,
		logger: zap.NewNop(),
	}
}

// NewMappedFinder creates a finder over chromosomes that were already edited:
// current[i] is the sequence to index for chrs[i] and positions[i][j] the
// original offset of current[i][j], or dna.NoPosition.
func NewMappedFinder(chrs []*genome.Chromosome, current []string, positions [][]int) (*Finder, error) {
	if len(current) != len(chrs) || len(positions) != len(chrs) {
		return nil, fmt.Errorf("%w: %d chromosomes, %d edited sequences, %d position maps",
			ErrInvalidConfig, len(chrs), len(current), len(positions))
	}
	return &Finder{
		chrs:      chrs,
		current:   current,
		positions: positions,
		logger:    zap.NewNop(),
	}, nil
}

// SetLogger sets the logger for debug and summary messages.
func (f *Finder) SetLogger(l *zap.Logger) {
	f.logger = l
}

func (f *Finder) currentSequences() []string {
	if f.current != nil {
		return f.current
	}
	seqs := make([]string, len(f.chrs))
	for i, chr := range f.chrs {
		seqs[i] = chr.Sequence
	}
	return seqs
}

func (f *Finder) sequences() ([]*dna.Sequence, error) {
	seqs := make([]*dna.Sequence, len(f.chrs))
	for i, chr := range f.chrs {
		if f.current == nil {
			seqs[i] = dna.New(chr.Sequence)
			continue
		}
		s, err := dna.NewMapped(f.current[i], chr.Sequence, f.positions[i])
		if err != nil {
			return nil, fmt.Errorf("%w: chromosome %q: %w", ErrInvalidConfig, chr.Description, err)
		}
		seqs[i] = s
	}
	return seqs, nil
}

// GenerateSyntenyBlocks runs one pass at cfg.K and returns the glued block
// instances sorted by block id, chromosome and start.
func (f *Finder) GenerateSyntenyBlocks(cfg Config) ([]BlockInstance, error) {
	if err := cfg.Validate(f.chrs, f.currentSequences()); err != nil {
		return nil, err
	}
	seqs, err := f.sequences()
	if err != nil {
		return nil, err
	}
	ix, err := debruijn.Build(seqs, cfg.K, cfg.RevCompTable)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	edges := ListEdges(ix)
	total := len(edges)
	edges = slices.DeleteFunc(edges, func(e Edge) bool { return e.OriginalLength < cfg.MinSize })
	slices.SortStableFunc(edges, CompareEdgesNaturally)
	groups := groupEdges(edges)
	slices.SortStableFunc(groups, func(a, b [2]int) int {
		return cmp.Compare(edges[b[0]].ActualLength, edges[a[0]].ActualLength)
	})
	f.logger.Debug("edges listed",
		zap.Int("k", cfg.K),
		zap.Int("bifurcations", ix.BifurcationCount()),
		zap.Int("edges", total),
		zap.Int("long_edges", len(edges)),
		zap.Int("groups", len(groups)))

	originals := make([]string, len(f.chrs))
	lengths := make([]int, len(f.chrs))
	for i, chr := range f.chrs {
		originals[i] = chr.Sequence
		lengths[i] = len(chr.Sequence)
	}
	occ := NewOccupancy(lengths)

	var blocks []BlockInstance
	blockCount := 1
	for g, bounds := range groups {
		if cfg.Progress != nil {
			cfg.Progress(g, len(groups))
		}
		group := edges[bounds[0]:bounds[1]]
		slices.SortStableFunc(group, CompareEdgesByDirection)
		if len(group) < 2 || !positiveOnFirstChromosome(group) {
			continue
		}

		block := ResolveOverlap(group, cfg.MinSize, occ)
		block = f.trim(block, originals, cfg)

		occur := make([]int, len(f.chrs))
		for _, e := range block {
			occur[e.Chr]++
		}
		if len(block) < 2 || (cfg.SharedOnly && slices.ContainsFunc(occur, func(n int) bool { return n != 1 })) {
			if len(block) > 0 {
				f.logger.Debug("block rejected",
					zap.Stringer("edge", group[0]),
					zap.Int("members", len(block)))
			}
			continue
		}

		for _, e := range block {
			occ.Mark(e.Chr, e.OriginalPosition, e.OriginalEnd())
			blocks = append(blocks, BlockInstance{
				ID:    blockCount * e.Dir.Sign(),
				Chr:   f.chrs[e.Chr],
				Start: e.OriginalPosition,
				End:   e.OriginalEnd(),
			})
		}
		blockCount++
	}
	if cfg.Progress != nil {
		cfg.Progress(len(groups), len(groups))
	}

	blocks = GlueStripes(blocks)
	slices.SortFunc(blocks, CompareBlocksNaturally)
	glued := blockCount - 1
	if len(blocks) > 0 {
		glued -= blocks[len(blocks)-1].BlockID()
	}
	f.logger.Info("synteny blocks built",
		zap.Int("k", cfg.K),
		zap.Int("groups", len(groups)),
		zap.Int("accepted", blockCount-1),
		zap.Int("glued", glued),
		zap.Int("instances", len(blocks)))
	return blocks, nil
}

// positiveOnFirstChromosome reports whether the group has a positive edge on
// the lowest numbered chromosome it touches. Of a group and its mirror (the
// same path read on the other strands) only one passes, so every block is
// oriented the way the first chromosome carrying it reads it.
func positiveOnFirstChromosome(group []Edge) bool {
	first := group[0].Chr
	for _, e := range group {
		first = min(first, e.Chr)
	}
	for _, e := range group {
		if e.Chr == first && e.Dir == dna.Positive {
			return true
		}
	}
	return false
}

// trim runs TrimBlocks until no member is dropped. A block still dropping
// members after the round limit is discarded.
func (f *Finder) trim(block []Edge, originals []string, cfg Config) []Edge {
	limit := cfg.MaxTrimRounds
	if limit == 0 {
		limit = 2*len(block) + 2
	}
	for round := 0; ; round++ {
		if round == limit {
			f.logger.Warn("trim round limit reached, block discarded",
				zap.Int("limit", limit),
				zap.Int("members", len(block)))
			return nil
		}
		var drop bool
		block, drop = TrimBlocks(block, originals, cfg.trimK(), cfg.MinSize)
		if !drop {
			return block
		}
	}
}
