package synteny

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/inodb/syntenyfinder/internal/dna"
	"github.com/inodb/syntenyfinder/internal/genome"
)

// BlockInstance is one occurrence of a synteny block. The sign of ID gives
// the strand; Start and End are 0-based half-open original coordinates on
// the positive strand.
type BlockInstance struct {
	ID    int
	Chr   *genome.Chromosome
	Start int
	End   int
}

// BlockID returns the unsigned block id.
func (b BlockInstance) BlockID() int {
	return abs(b.ID)
}

// Direction returns the strand the instance lies on.
func (b BlockInstance) Direction() dna.Direction {
	if b.ID < 0 {
		return dna.Negative
	}
	return dna.Positive
}

// Length returns End - Start.
func (b BlockInstance) Length() int {
	return b.End - b.Start
}

// Spell returns the block as read along its strand.
func (b BlockInstance) Spell() string {
	s := b.Chr.Sequence[b.Start:b.End]
	if b.ID < 0 {
		return dna.ReverseComplement(s)
	}
	return s
}

func (b BlockInstance) String() string {
	return fmt.Sprintf("%+d %s [%d, %d)", b.ID, b.Chr.Name(), b.Start, b.End)
}

// CompareBlocksNaturally orders instances by unsigned block id, chromosome
// and start.
func CompareBlocksNaturally(a, b BlockInstance) int {
	if c := cmp.Compare(a.BlockID(), b.BlockID()); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Chr.ID, b.Chr.ID); c != 0 {
		return c
	}
	return cmp.Compare(a.Start, b.Start)
}

func compareByStart(a, b BlockInstance) int {
	return cmp.Compare(a.Start, b.Start)
}

// noNeighbour stands in for a chromosome end in a stripe.
const noNeighbour = math.MaxInt >> 1

type stripe struct {
	first  int
	second int
}

// GlueStripes merges blocks that are always immediate neighbours, in the same
// relative orientation, on every chromosome where they occur, until no such
// pair is left. Ids are then renumbered to 1..N keeping the order of the old
// ids. The result is grouped by chromosome and sorted by start.
func GlueStripes(blocks []BlockInstance) []BlockInstance {
	perm := permutations(blocks)
	for {
		glueID, ok := findGlue(stripes(perm))
		if !ok {
			break
		}
		for c, p := range perm {
			for i := 0; i < len(p); i++ {
				if p[i].BlockID() != glueID {
					continue
				}
				if p[i].ID > 0 {
					p[i].End = p[i+1].End
				} else {
					i--
					p[i] = BlockInstance{ID: p[i+1].ID, Chr: p[i].Chr, Start: p[i].Start, End: p[i+1].End}
				}
				p = slices.Delete(p, i+1, i+2)
			}
			perm[c] = p
		}
	}

	var ret []BlockInstance
	var oldID []int
	for _, p := range perm {
		for _, b := range p {
			ret = append(ret, b)
			oldID = append(oldID, b.BlockID())
		}
	}
	slices.Sort(oldID)
	oldID = slices.Compact(oldID)
	for i := range ret {
		rank, _ := slices.BinarySearch(oldID, ret[i].BlockID())
		sign := 1
		if ret[i].ID < 0 {
			sign = -1
		}
		ret[i].ID = (rank + 1) * sign
	}
	return ret
}

// permutations splits instances per chromosome, each sorted by start.
func permutations(blocks []BlockInstance) [][]BlockInstance {
	n := 0
	for _, b := range blocks {
		n = max(n, b.Chr.ID+1)
	}
	perm := make([][]BlockInstance, n)
	for _, b := range blocks {
		perm[b.Chr.ID] = append(perm[b.Chr.ID], b)
	}
	for _, p := range perm {
		slices.SortStableFunc(p, compareByStart)
	}
	return perm
}

// stripes pairs every instance with the id of the block that follows it
// along its own strand, normalized so the first id is positive.
func stripes(perm [][]BlockInstance) []stripe {
	var ret []stripe
	for _, p := range perm {
		for i, b := range p {
			if b.ID > 0 {
				next := noNeighbour
				if i < len(p)-1 {
					next = p[i+1].ID
				}
				ret = append(ret, stripe{b.ID, next})
			} else {
				prev := -noNeighbour
				if i > 0 {
					prev = p[i-1].ID
				}
				ret = append(ret, stripe{-b.ID, -prev})
			}
		}
	}
	slices.SortStableFunc(ret, func(a, b stripe) int { return cmp.Compare(a.first, b.first) })
	return ret
}

// findGlue returns the first block id whose every stripe points to the same
// neighbour, where that neighbour has exactly as many stripes.
func findGlue(s []stripe) (int, bool) {
	for now := 0; now < len(s); {
		next := now
		glue := true
		for ; next < len(s) && s[next].first == s[now].first; next++ {
			if s[next].second != s[now].second || s[next].second == noNeighbour || abs(s[next].second) == s[next].first {
				glue = false
			}
		}
		if glue {
			partner := abs(s[now].second)
			lo, _ := slices.BinarySearchFunc(s, partner, func(e stripe, t int) int { return cmp.Compare(e.first, t) })
			hi := lo
			for hi < len(s) && s[hi].first == partner {
				hi++
			}
			if hi-lo == next-now {
				return s[now].first, true
			}
		}
		now = next
	}
	return 0, false
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
