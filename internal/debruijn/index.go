// Package debruijn indexes the branch points (bifurcations) of the de Bruijn
// graph implied by a set of double-stranded sequences, and keeps that index
// consistent while the sequences are edited.
//
// A k-mer and its reverse complement are one vertex and share one
// bifurcation id. Every occurrence records whether the k-mer read along its
// strand is the canonical (lexicographically smaller) form, so callers can
// tell the two orientations apart.
package debruijn

import (
	"errors"
	"fmt"
	"math"

	"github.com/inodb/syntenyfinder/internal/dna"
)

const (
	// NoBifurcation is never handed out as an id.
	NoBifurcation = 0
	// MaxBifurcationID bounds the id space (exclusive).
	MaxBifurcationID = math.MaxInt32
)

// Boundary is the branch mark recorded where a strand ends. A vertex seen
// at a strand end is always a bifurcation.
const Boundary byte = '$'

// ErrInvalidTable reports a malformed reverse complement table.
var ErrInvalidTable = errors.New("invalid reverse complement table")

// Strand names one walked strand of an indexed sequence.
type Strand struct {
	Chr int
	Dir dna.Direction
}

// Site is one occurrence of a bifurcation.
type Site struct {
	Chr     int
	It      dna.StrandIterator
	ID      int
	Sense   int // +1 when the k-mer read along It is the canonical form
	InMark  byte
	OutMark byte
	// Projection is the strand offset of It as of the last consistent
	// state, or -1 while edits to the sequence await ApplyChanges.
	Projection int
}

// SignedID returns ID carrying the orientation of the occurrence.
func (s Site) SignedID() int {
	return s.ID * s.Sense
}

type record struct {
	vertex     int32
	projection int32
	stamp      uint32
	inMark     byte
	outMark    byte
	sense      int8
	valid      bool
}

const numMarks = 6

type vertex struct {
	bifID int32
	in    [numMarks]int32
	out   [numMarks]int32
	occ   []occurrence
}

type occurrence struct {
	chr   int32
	node  int32
	dir   dna.Direction
	stamp uint32
}

// Index is the bifurcation index for one k-mer size.
type Index struct {
	k        int
	seqs     []*dna.Sequence
	revComp  []int
	strands  []Strand
	chrOf    map[*dna.Sequence]int
	records  [][2][]record
	vertices []vertex
	byPacked map[uint64]int32
	byKey    map[string]int32
	byBif    []int32
	stamp    uint32

	dirty      map[int]bool
	pending    []int32
	pendingSet map[int32]bool
}

// Build indexes every proper k-mer of the sequences. revCompTable[i] names
// the sequence holding the reverse complement of sequence i; nil means every
// sequence is its own reverse complement and both its strands are walked.
// For a pair i != j only the positive strands of i and j are walked, since
// together they already cover both strands.
func Build(seqs []*dna.Sequence, k int, revCompTable []int) (*Index, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k-mer size must be positive, got %d", k)
	}
	table, err := checkTable(seqs, revCompTable)
	if err != nil {
		return nil, err
	}

	ix := &Index{
		k:          k,
		seqs:       seqs,
		revComp:    table,
		chrOf:      make(map[*dna.Sequence]int, len(seqs)),
		records:    make([][2][]record, len(seqs)),
		byPacked:   make(map[uint64]int32),
		byKey:      make(map[string]int32),
		byBif:      []int32{-1},
		dirty:      make(map[int]bool),
		pendingSet: make(map[int32]bool),
	}
	for i, s := range seqs {
		if _, dup := ix.chrOf[s]; dup {
			return nil, fmt.Errorf("sequence %d is listed twice", i)
		}
		ix.chrOf[s] = i
		ix.strands = append(ix.strands, Strand{Chr: i, Dir: dna.Positive})
		ix.records[i][dna.Positive] = make([]record, s.MaxElementID())
		if table[i] == i {
			ix.strands = append(ix.strands, Strand{Chr: i, Dir: dna.Negative})
			ix.records[i][dna.Negative] = make([]record, s.MaxElementID())
		}
	}

	for _, st := range ix.strands {
		ix.indexStrand(st)
	}
	for v := range ix.vertices {
		ix.allocate(int32(v))
	}
	ix.pending = nil
	clear(ix.pendingSet)
	return ix, nil
}

func checkTable(seqs []*dna.Sequence, table []int) ([]int, error) {
	if table == nil {
		table = make([]int, len(seqs))
		for i := range table {
			table[i] = i
		}
		return table, nil
	}
	if len(table) != len(seqs) {
		return nil, fmt.Errorf("%w: %d entries for %d sequences", ErrInvalidTable, len(table), len(seqs))
	}
	for i, j := range table {
		if j < 0 || j >= len(seqs) {
			return nil, fmt.Errorf("%w: entry %d points to missing sequence %d", ErrInvalidTable, i, j)
		}
		if table[j] != i {
			return nil, fmt.Errorf("%w: entries %d and %d do not point to each other", ErrInvalidTable, i, j)
		}
		if i < j && seqs[j].String() != dna.ReverseComplement(seqs[i].String()) {
			return nil, fmt.Errorf("%w: sequence %d is not the reverse complement of sequence %d", ErrInvalidTable, j, i)
		}
	}
	return append([]int(nil), table...), nil
}

func (ix *Index) indexStrand(st Strand) {
	seq := ix.seqs[st.Chr]
	its := make([]dna.StrandIterator, 0, seq.Size())
	buf := make([]byte, 0, seq.Size())
	for it := seq.Begin(st.Dir); it.Valid(); it = it.Next() {
		its = append(its, it)
		buf = append(buf, it.Spell())
	}
	for p := 0; p+ix.k <= len(buf); p++ {
		in, out := Boundary, Boundary
		if p > 0 {
			in = buf[p-1]
		}
		if p+ix.k < len(buf) {
			out = buf[p+ix.k]
		}
		ix.add(st.Chr, its[p], buf[p:p+ix.k], in, out, p)
	}
}

// K returns the k-mer size.
func (ix *Index) K() int {
	return ix.k
}

// Sequences returns the indexed sequences.
func (ix *Index) Sequences() []*dna.Sequence {
	return ix.seqs
}

// Strands returns the walked strands in indexing order.
func (ix *Index) Strands() []Strand {
	return ix.strands
}

// BifurcationCount returns the number of ids handed out so far.
func (ix *Index) BifurcationCount() int {
	return len(ix.byBif) - 1
}

// Pending reports whether edits await ApplyChanges.
func (ix *Index) Pending() bool {
	return len(ix.dirty) > 0
}

// BifurcationAt returns the bifurcation whose k-mer starts at it, if any.
func (ix *Index) BifurcationAt(it dna.StrandIterator) (Site, bool) {
	chr, ok := ix.chrOf[it.Sequence()]
	if !ok || !it.Valid() {
		return Site{}, false
	}
	recs := ix.records[chr][it.Direction()]
	id := it.ElementID()
	if id >= len(recs) || !recs[id].valid {
		return Site{}, false
	}
	rec := recs[id]
	vx := &ix.vertices[rec.vertex]
	if vx.bifID == NoBifurcation || !branching(vx) {
		return Site{}, false
	}
	return ix.site(chr, it, rec, vx), true
}

// GetBifurcationInstances lists the live occurrences of a bifurcation, on
// all walked strands, in insertion order.
//
// REQUIRES: NoBifurcation < id < MaxBifurcationID.
func (ix *Index) GetBifurcationInstances(id int) []Site {
	if id <= NoBifurcation || id >= MaxBifurcationID {
		panic(fmt.Sprintf("debruijn: bifurcation id %d out of range", id))
	}
	if id >= len(ix.byBif) {
		return nil
	}
	v := ix.byBif[id]
	vx := &ix.vertices[v]
	if !branching(vx) {
		return nil
	}
	ret := make([]Site, 0, len(vx.occ))
	for _, o := range vx.occ {
		if rec, ok := ix.live(o, v); ok {
			it := ix.seqs[o.chr].At(int(o.node), o.dir)
			ret = append(ret, ix.site(int(o.chr), it, rec, vx))
		}
	}
	return ret
}

func (ix *Index) site(chr int, it dna.StrandIterator, rec record, vx *vertex) Site {
	projection := int(rec.projection)
	if ix.dirty[chr] {
		projection = -1
	}
	return Site{
		Chr:        chr,
		It:         it,
		ID:         int(vx.bifID),
		Sense:      int(rec.sense),
		InMark:     rec.inMark,
		OutMark:    rec.outMark,
		Projection: projection,
	}
}

func (ix *Index) live(o occurrence, v int32) (record, bool) {
	recs := ix.records[o.chr][o.dir]
	if int(o.node) >= len(recs) {
		return record{}, false
	}
	rec := recs[o.node]
	return rec, rec.valid && rec.vertex == v && rec.stamp == o.stamp
}

func (ix *Index) add(chr int, it dna.StrandIterator, kmer []byte, in, out byte, projection int) {
	v, sense := ix.vertexOf(kmer)
	cin, cout := in, out
	if sense < 0 {
		cin, cout = dna.Complement(out), dna.Complement(in)
	}
	vx := &ix.vertices[v]
	vx.in[markIndex(cin)]++
	vx.out[markIndex(cout)]++

	ix.stamp++
	node := int32(it.ElementID())
	vx.occ = append(vx.occ, occurrence{chr: int32(chr), node: node, dir: it.Direction(), stamp: ix.stamp})
	ix.records[chr][it.Direction()][node] = record{
		vertex:     v,
		projection: int32(projection),
		stamp:      ix.stamp,
		inMark:     in,
		outMark:    out,
		sense:      int8(sense),
		valid:      true,
	}
	ix.touch(v)
}

func (ix *Index) remove(chr, node int, dir dna.Direction) {
	recs := ix.records[chr][dir]
	if node >= len(recs) || !recs[node].valid {
		return
	}
	rec := &recs[node]
	cin, cout := rec.inMark, rec.outMark
	if rec.sense < 0 {
		cin, cout = dna.Complement(rec.outMark), dna.Complement(rec.inMark)
	}
	vx := &ix.vertices[rec.vertex]
	vx.in[markIndex(cin)]--
	vx.out[markIndex(cout)]--
	rec.valid = false
	ix.touch(rec.vertex)
}

func (ix *Index) touch(v int32) {
	if !ix.pendingSet[v] {
		ix.pendingSet[v] = true
		ix.pending = append(ix.pending, v)
	}
}

// allocate gives a branching vertex its id. Ids are never taken back: a
// vertex that stops branching keeps its id for when it branches again.
func (ix *Index) allocate(v int32) {
	vx := &ix.vertices[v]
	if vx.bifID != NoBifurcation || !branching(vx) {
		return
	}
	id := len(ix.byBif)
	if id >= MaxBifurcationID {
		panic("debruijn: bifurcation id space exhausted")
	}
	vx.bifID = int32(id)
	ix.byBif = append(ix.byBif, v)
}

// vertexOf returns the vertex of kmer, creating it on first sight, and +1
// when kmer is the canonical form of the pair. Plain ACGT k-mers of up to 32
// bases are keyed by their 2-bit packing; everything else by string.
func (ix *Index) vertexOf(kmer []byte) (int32, int) {
	if fwd, rev, ok := pack(kmer); ok {
		key, sense := fwd, 1
		if rev < fwd {
			key, sense = rev, -1
		}
		v, ok := ix.byPacked[key]
		if !ok {
			v = ix.newVertex()
			ix.byPacked[key] = v
		}
		return v, sense
	}
	key, sense := canonical(string(kmer))
	v, ok := ix.byKey[key]
	if !ok {
		v = ix.newVertex()
		ix.byKey[key] = v
	}
	return v, sense
}

func (ix *Index) newVertex() int32 {
	ix.vertices = append(ix.vertices, vertex{})
	return int32(len(ix.vertices) - 1)
}

// pack encodes kmer and its reverse complement two bits per base, A < C <
// G < T, so that numeric order matches string order.
func pack(kmer []byte) (fwd, rev uint64, ok bool) {
	if len(kmer) > 32 {
		return 0, 0, false
	}
	for i, c := range kmer {
		var code uint64
		switch c {
		case 'A':
			code = 0
		case 'C':
			code = 1
		case 'G':
			code = 2
		case 'T':
			code = 3
		default:
			return 0, 0, false
		}
		fwd = fwd<<2 | code
		rev |= (3 - code) << (2 * i)
	}
	return fwd, rev, true
}

func canonical(kmer string) (string, int) {
	rc := dna.ReverseComplement(kmer)
	if rc < kmer {
		return rc, -1
	}
	return kmer, 1
}

func markIndex(c byte) int {
	switch c {
	case 'A', 'a':
		return 0
	case 'C', 'c':
		return 1
	case 'G', 'g':
		return 2
	case 'T', 't':
		return 3
	case Boundary:
		return 4
	}
	return 5
}

func branching(vx *vertex) bool {
	if vx.in[markIndex(Boundary)] > 0 || vx.out[markIndex(Boundary)] > 0 {
		return true
	}
	return distinct(vx.in) > 1 || distinct(vx.out) > 1
}

func distinct(marks [numMarks]int32) int {
	n := 0
	for _, c := range marks {
		if c > 0 {
			n++
		}
	}
	return n
}
