package synteny

import (
	"github.com/bits-and-blooms/bitset"
)

// Occupancy marks, per chromosome, the original positions already claimed by
// an accepted block.
type Occupancy struct {
	chr []*bitset.BitSet
}

// NewOccupancy creates an empty indicator for chromosomes of the given
// original lengths.
func NewOccupancy(lengths []int) *Occupancy {
	o := &Occupancy{chr: make([]*bitset.BitSet, len(lengths))}
	for i, n := range lengths {
		o.chr[i] = bitset.New(uint(n))
	}
	return o
}

// Occupied reports whether pos on chr is claimed.
func (o *Occupancy) Occupied(chr, pos int) bool {
	return o.chr[chr].Test(uint(pos))
}

// Mark claims [start, end) on chr.
func (o *Occupancy) Mark(chr, start, end int) {
	set := o.chr[chr]
	for p := start; p < end; p++ {
		set.Set(uint(p))
	}
}

// Count returns the number of claimed positions on chr.
func (o *Occupancy) Count(chr int) int {
	return int(o.chr[chr].Count())
}

// localClaims tracks positions taken by earlier edges of the group being
// resolved, before anything is marked in the Occupancy.
type localClaims map[int]*bitset.BitSet

func (l localClaims) claimed(chr, pos int) bool {
	set, ok := l[chr]
	return ok && set.Test(uint(pos))
}

func (l localClaims) claim(chr, start, end int) {
	set, ok := l[chr]
	if !ok {
		set = bitset.New(uint(end))
		l[chr] = set
	}
	for p := start; p < end; p++ {
		set.Set(uint(p))
	}
}

// ResolveOverlap cuts every edge of a group down to its longest run of
// positions free both in occ and among the runs kept for earlier edges of the
// same group. Runs shorter than minSize are dropped. The first longest run
// wins.
func ResolveOverlap(group []Edge, minSize int, occ *Occupancy) []Edge {
	var kept []Edge
	local := make(localClaims)
	for _, e := range group {
		bestStart, bestEnd := 0, 0
		end := e.OriginalEnd()
		for segStart := e.OriginalPosition; segStart < end; {
			segEnd := segStart
			for segEnd < end && !occ.Occupied(e.Chr, segEnd) && !local.claimed(e.Chr, segEnd) {
				segEnd++
			}
			if segEnd-segStart > bestEnd-bestStart {
				bestStart, bestEnd = segStart, segEnd
			}
			if segEnd == segStart {
				segEnd++
			}
			segStart = segEnd
		}

		if bestEnd-bestStart >= minSize {
			r := e
			r.OriginalPosition = bestStart
			r.OriginalLength = bestEnd - bestStart
			kept = append(kept, r)
			local.claim(e.Chr, bestStart, bestEnd)
		}
	}
	return kept
}
