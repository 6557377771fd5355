package synteny

import (
	"fmt"

	"github.com/inodb/syntenyfinder/internal/debruijn"
	"github.com/inodb/syntenyfinder/internal/dna"
)

// trimCandidate is the best bifurcation found so far for one block end.
type trimCandidate struct {
	found  bool
	sum    int
	bif    int
	offset int
	it     dna.StrandIterator
}

func (c *trimCandidate) offer(sum, bif, offset int, it dna.StrandIterator) {
	if !c.found || sum < c.sum || (sum == c.sum && bif < c.bif) {
		*c = trimCandidate{found: true, sum: sum, bif: bif, offset: offset, it: it}
	}
}

// TrimBlocks moves the ends of every member of a block onto the bifurcations,
// at k-mer size trimK, that the members share. The new start of a member is
// the shared bifurcation closest to the starts of both members involved, the
// new end the one closest to both ends; ties go to the smaller id. Members
// trimmed below minSize are removed. drop reports that some member found no
// shared bifurcation, or only ones whose start lies past its end, and was
// removed. That can move the ends of the others, so callers repeat until
// drop is false.
//
// originals holds the input sequence of every chromosome.
func TrimBlocks(block []Edge, originals []string, trimK, minSize int) (trimmed []Edge, drop bool) {
	seqs := make([]*dna.Sequence, len(block))
	for i, e := range block {
		seqs[i] = dna.New(originals[e.Chr][e.OriginalPosition:e.OriginalEnd()])
	}
	ix, err := debruijn.Build(seqs, trimK, nil)
	if err != nil {
		panic(fmt.Sprintf("synteny: trim index: %v", err))
	}

	trimmed = make([]Edge, 0, len(block))
	for i, e := range block {
		n := seqs[i].Size()
		var start, end trimCandidate
		offset := 0
		for it := seqs[i].Begin(e.Dir); it.Valid(); it = it.Next() {
			site, ok := ix.BifurcationAt(it)
			if ok {
				for _, other := range ix.GetBifurcationInstances(site.ID) {
					if other.Chr == i || other.It.Direction() != block[other.Chr].Dir || other.Sense != site.Sense {
						continue
					}
					m := seqs[other.Chr].Size()
					start.offer(other.Projection+offset, site.ID, offset, it)
					end.offer((m-1-other.Projection)+(n-1-offset), site.ID, offset, it)
				}
			}
			offset++
		}

		if !start.found || !end.found {
			drop = true
			continue
		}
		if end.offset < start.offset {
			// The shared ends cross; this member leaves and the others are
			// trimmed again without it.
			drop = true
			continue
		}
		if end.offset-start.offset+trimK < minSize {
			continue
		}
		p1, _ := start.it.OriginalPosition()
		p2, _ := end.it.Advance(trimK - 1).OriginalPosition()
		r := e
		r.OriginalPosition = e.OriginalPosition + min(p1, p2)
		r.OriginalLength = max(p1, p2) - min(p1, p2) + 1
		trimmed = append(trimmed, r)
	}
	return trimmed, drop
}
