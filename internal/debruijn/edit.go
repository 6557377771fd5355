package debruijn

import (
	"errors"
	"fmt"
	"sort"

	"github.com/inodb/syntenyfinder/internal/dna"
)

// Replace collapses the sourceLen characters at source onto a copy of the
// targetLen characters at target, editing the sequence and the index as one
// step. Everything that can fail is checked before either is touched.
//
// Records of erased characters are dropped, records whose k-mer or branch
// marks overlap the edit are recomputed, and vertices that start branching
// get an id. Occurrence lists keep tombstones and projections stay stale
// until ApplyChanges.
//
// The returned iterator is the one Sequence.Replace returns.
func (ix *Index) Replace(source dna.StrandIterator, sourceLen int, target dna.StrandIterator, targetLen int) (dna.StrandIterator, error) {
	chr, ok := ix.chrOf[source.Sequence()]
	if !ok {
		return source, errors.New("debruijn: source does not belong to the index")
	}
	if ix.revComp[chr] != chr {
		return source, fmt.Errorf("debruijn: sequence %d is paired with its reverse complement %d and cannot be edited alone", chr, ix.revComp[chr])
	}
	if sourceLen < 0 || targetLen < 0 {
		return source, fmt.Errorf("debruijn: negative replace length (%d, %d)", sourceLen, targetLen)
	}
	seq := ix.seqs[chr]
	if !source.Valid() && source != seq.End(source.Direction()) {
		return source, errors.New("debruijn: source iterator points at an erased character")
	}
	if !dna.Span(source, sourceLen) {
		return source, fmt.Errorf("debruijn: source range of %d characters runs past the strand end", sourceLen)
	}
	if target.Sequence() == nil || !dna.Span(target, targetLen) {
		return source, fmt.Errorf("debruijn: target range of %d characters runs past the strand end", targetLen)
	}

	// Storage neighbours of the source range, as positive iterators. They
	// survive the splice.
	before := source.Prev()
	after := source.Advance(sourceLen)
	left, right := before, after
	if source.Direction() == dna.Negative {
		left, right = after.Invert(), before.Invert()
	}

	var erased, inserted []int
	start := seq.Replace(source, sourceLen, target, targetLen,
		func(it dna.StrandIterator) { erased = append(erased, it.ElementID()) },
		func(it dna.StrandIterator) { inserted = append(inserted, it.ElementID()) })

	for _, st := range ix.strandsOf(chr) {
		if grow := seq.MaxElementID() - len(ix.records[chr][st.Dir]); grow > 0 {
			ix.records[chr][st.Dir] = append(ix.records[chr][st.Dir], make([]record, grow)...)
		}
	}

	window := flank(left, ix.k, dna.StrandIterator.Prev)
	window = append(window, inserted...)
	window = append(window, flank(right, ix.k, dna.StrandIterator.Next)...)

	for _, node := range erased {
		for _, st := range ix.strandsOf(chr) {
			ix.remove(chr, node, st.Dir)
		}
	}
	for _, node := range window {
		for _, st := range ix.strandsOf(chr) {
			ix.remove(chr, node, st.Dir)
			ix.reindex(chr, node, st.Dir)
		}
	}
	for _, v := range ix.pending {
		ix.allocate(v)
	}
	ix.dirty[chr] = true
	return start, nil
}

// ApplyChanges refreshes the projections of edited sequences and drops
// tombstoned entries from the occurrence lists of every vertex touched
// since the previous call.
func (ix *Index) ApplyChanges() {
	chrs := make([]int, 0, len(ix.dirty))
	for chr := range ix.dirty {
		chrs = append(chrs, chr)
	}
	sort.Ints(chrs)
	for _, chr := range chrs {
		for _, st := range ix.strandsOf(chr) {
			recs := ix.records[chr][st.Dir]
			p := int32(0)
			for it := ix.seqs[chr].Begin(st.Dir); it.Valid(); it = it.Next() {
				if rec := &recs[it.ElementID()]; rec.valid {
					rec.projection = p
				}
				p++
			}
		}
	}

	for _, v := range ix.pending {
		vx := &ix.vertices[v]
		kept := vx.occ[:0]
		for _, o := range vx.occ {
			if _, ok := ix.live(o, v); ok {
				kept = append(kept, o)
			}
		}
		vx.occ = kept
	}

	clear(ix.dirty)
	ix.pending = ix.pending[:0]
	clear(ix.pendingSet)
}

func (ix *Index) strandsOf(chr int) []Strand {
	if ix.revComp[chr] == chr {
		return []Strand{{Chr: chr, Dir: dna.Positive}, {Chr: chr, Dir: dna.Negative}}
	}
	return []Strand{{Chr: chr, Dir: dna.Positive}}
}

// reindex records the k-mer starting at node on one strand, if a full one
// fits there.
func (ix *Index) reindex(chr, node int, dir dna.Direction) {
	it := ix.seqs[chr].At(node, dir)
	kmer, ok := dna.Spell(it, ix.k)
	if !ok {
		return
	}
	in, out := Boundary, Boundary
	if prev := it.Prev(); prev.Valid() {
		in = prev.Spell()
	}
	if next := it.Advance(ix.k); next.Valid() {
		out = next.Spell()
	}
	ix.add(chr, it, []byte(kmer), in, out, -1)
}

func flank(it dna.StrandIterator, n int, step func(dna.StrandIterator) dna.StrandIterator) []int {
	var ids []int
	for i := 0; i < n && it.Valid(); i++ {
		ids = append(ids, it.ElementID())
		it = step(it)
	}
	return ids
}
