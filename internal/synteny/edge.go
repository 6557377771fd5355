package synteny

import (
	"cmp"
	"fmt"

	"github.com/exascience/pargo/parallel"

	"github.com/inodb/syntenyfinder/internal/debruijn"
	"github.com/inodb/syntenyfinder/internal/dna"
)

// Edge is a maximal run of one strand between two consecutive bifurcations.
// It covers the k-mers of both end vertices.
type Edge struct {
	Chr int
	Dir dna.Direction
	// StartVertex and EndVertex are signed bifurcation ids; the sign is the
	// orientation the k-mer is read in along the strand.
	StartVertex int
	EndVertex   int
	// ActualPosition and ActualLength locate the edge on the indexed strand.
	ActualPosition int
	ActualLength   int
	// OriginalPosition and OriginalLength locate the edge in the input
	// chromosome, on the positive strand.
	OriginalPosition int
	OriginalLength   int
	// FirstChar is the character that follows the start k-mer.
	FirstChar byte
}

// OriginalEnd returns the exclusive end of the edge in input coordinates.
func (e Edge) OriginalEnd() int {
	return e.OriginalPosition + e.OriginalLength
}

func (e Edge) String() string {
	return fmt.Sprintf("%d%s [%d, %d) %d->%d/%c", e.Chr, e.Dir, e.OriginalPosition, e.OriginalEnd(),
		e.StartVertex, e.EndVertex, e.FirstChar)
}

// ListEdges walks every indexed strand and cuts it at each bifurcation.
// Strands are scanned in parallel; the result follows the index strand order
// and the position along each strand.
func ListEdges(ix *debruijn.Index) []Edge {
	strands := ix.Strands()
	perStrand := make([][]Edge, len(strands))
	parallel.Range(0, len(strands), 0, func(low, high int) {
		for i := low; i < high; i++ {
			perStrand[i] = strandEdges(ix, strands[i])
		}
	})

	var n int
	for _, edges := range perStrand {
		n += len(edges)
	}
	ret := make([]Edge, 0, n)
	for _, edges := range perStrand {
		ret = append(ret, edges...)
	}
	return ret
}

func strandEdges(ix *debruijn.Index, st debruijn.Strand) []Edge {
	k := ix.K()
	seq := ix.Sequences()[st.Chr]

	var edges []Edge
	var (
		last    debruijn.Site
		lastPos int
		open    bool
	)
	pos := 0
	for it := seq.Begin(st.Dir); it.Valid(); it = it.Next() {
		site, ok := ix.BifurcationAt(it)
		if ok {
			if open {
				e := Edge{
					Chr:            st.Chr,
					Dir:            st.Dir,
					StartVertex:    last.SignedID(),
					EndVertex:      site.SignedID(),
					ActualPosition: lastPos,
					ActualLength:   pos - lastPos + k,
					FirstChar:      last.OutMark,
				}
				if start, end, ok := seq.OriginalRange(last.It, it.Advance(k)); ok {
					e.OriginalPosition = start
					e.OriginalLength = end - start
				}
				edges = append(edges, e)
			}
			last, lastPos, open = site, pos, true
		}
		pos++
	}
	return edges
}

// CompareEdgesNaturally orders edges by the path they denote: start vertex,
// end vertex and first character. Edges comparing equal form one group.
func CompareEdgesNaturally(a, b Edge) int {
	if c := cmp.Compare(a.StartVertex, b.StartVertex); c != 0 {
		return c
	}
	if c := cmp.Compare(a.EndVertex, b.EndVertex); c != 0 {
		return c
	}
	return cmp.Compare(a.FirstChar, b.FirstChar)
}

// CompareEdgesByDirection puts positive strand edges first, then orders by
// chromosome and position.
func CompareEdgesByDirection(a, b Edge) int {
	if c := cmp.Compare(a.Dir, b.Dir); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Chr, b.Chr); c != 0 {
		return c
	}
	return cmp.Compare(a.OriginalPosition, b.OriginalPosition)
}

// groupEdges returns the [start, end) bounds of runs of naturally equal
// edges. edges must be sorted with CompareEdgesNaturally.
func groupEdges(edges []Edge) [][2]int {
	var groups [][2]int
	for start := 0; start < len(edges); {
		end := start + 1
		for end < len(edges) && CompareEdgesNaturally(edges[start], edges[end]) == 0 {
			end++
		}
		groups = append(groups, [2]int{start, end})
		start = end
	}
	return groups
}
