// Package dna provides an editable double-stranded DNA sequence. Every
// character remembers its offset in the input so that ranges can be mapped
// back to original coordinates after edits.
package dna

import (
	"fmt"
	"strings"
)

// NoPosition marks a character that has no offset in the original input.
const NoPosition = -1

// Direction selects a strand.
type Direction int8

const (
	Positive Direction = iota
	Negative
)

// Invert returns the opposite strand.
func (d Direction) Invert() Direction {
	if d == Positive {
		return Negative
	}
	return Positive
}

// Sign returns +1 for the positive strand and -1 for the negative one.
func (d Direction) Sign() int {
	if d == Positive {
		return 1
	}
	return -1
}

func (d Direction) String() string {
	if d == Positive {
		return "+"
	}
	return "-"
}

// Char is a nucleotide tagged with its original offset, or NoPosition.
type Char struct {
	Actual byte
	Pos    int
}

// sentinel is the handle of the end node shared by both strands.
const sentinel int32 = 0

type node struct {
	ch         Char
	prev, next int32
	live       bool
}

// Sequence is a chromosome stored as a doubly linked list of tagged
// characters in an arena. Handles are never reused, so iterators outside an
// edited range stay valid across EraseN, CopyN and Replace.
type Sequence struct {
	nodes    []node
	size     int
	original string
}

// New creates a sequence from raw input, tagging character i with offset i.
func New(raw string) *Sequence {
	s := newEmpty(raw, len(raw))
	for i := 0; i < len(raw); i++ {
		s.insertBefore(sentinel, Char{Actual: raw[i], Pos: i})
	}
	return s
}

// NewMapped creates an already edited sequence: current is its content and
// positions[i] is the offset of current[i] in original, or NoPosition.
func NewMapped(current, original string, positions []int) (*Sequence, error) {
	if len(positions) != len(current) {
		return nil, fmt.Errorf("position map has %d entries for %d characters", len(positions), len(current))
	}
	s := newEmpty(original, len(current))
	for i := 0; i < len(current); i++ {
		p := positions[i]
		if p != NoPosition && (p < 0 || p >= len(original)) {
			return nil, fmt.Errorf("position %d of character %d is outside the original sequence (%d)", p, i, len(original))
		}
		s.insertBefore(sentinel, Char{Actual: current[i], Pos: p})
	}
	return s, nil
}

func newEmpty(original string, capacity int) *Sequence {
	s := &Sequence{
		nodes:    make([]node, 1, capacity+1),
		original: original,
	}
	s.nodes[sentinel] = node{prev: sentinel, next: sentinel}
	return s
}

// Size returns the current number of characters.
func (s *Sequence) Size() int {
	return s.size
}

// MaxElementID returns an upper bound (exclusive) for element ids handed out
// so far. Callers keeping per-character side tables size them with it.
func (s *Sequence) MaxElementID() int {
	return len(s.nodes)
}

// String spells the current positive strand.
func (s *Sequence) String() string {
	var b strings.Builder
	b.Grow(s.size)
	for id := s.nodes[sentinel].next; id != sentinel; id = s.nodes[id].next {
		b.WriteByte(s.nodes[id].ch.Actual)
	}
	return b.String()
}

// PositiveBegin returns the first character of the positive strand.
func (s *Sequence) PositiveBegin() StrandIterator {
	return StrandIterator{seq: s, node: s.nodes[sentinel].next, dir: Positive}
}

// PositiveEnd returns the positive strand end sentinel.
func (s *Sequence) PositiveEnd() StrandIterator {
	return StrandIterator{seq: s, node: sentinel, dir: Positive}
}

// NegativeBegin returns the first character of the negative strand, which
// is the last stored character read as its complement.
func (s *Sequence) NegativeBegin() StrandIterator {
	return StrandIterator{seq: s, node: s.nodes[sentinel].prev, dir: Negative}
}

// NegativeEnd returns the negative strand end sentinel.
func (s *Sequence) NegativeEnd() StrandIterator {
	return StrandIterator{seq: s, node: sentinel, dir: Negative}
}

// Begin returns the first character of the strand.
func (s *Sequence) Begin(dir Direction) StrandIterator {
	if dir == Positive {
		return s.PositiveBegin()
	}
	return s.NegativeBegin()
}

// End returns the end sentinel of the strand.
func (s *Sequence) End(dir Direction) StrandIterator {
	return StrandIterator{seq: s, node: sentinel, dir: dir}
}

// At returns the iterator for element id on the given strand. The result is
// not Valid if the element was erased; id 0 is the end sentinel.
func (s *Sequence) At(id int, dir Direction) StrandIterator {
	if id < 0 || id >= len(s.nodes) {
		panic(fmt.Sprintf("dna: element id %d out of range [0, %d)", id, len(s.nodes)))
	}
	return StrandIterator{seq: s, node: int32(id), dir: dir}
}

// EraseN removes count characters starting at it, walking in its direction,
// and returns the iterator that followed the removed range.
//
// REQUIRES: the count characters starting at it exist.
func (s *Sequence) EraseN(it StrandIterator, count int) StrandIterator {
	s.mustOwn(it)
	if !Span(it, count) {
		panic(fmt.Sprintf("dna: erase of %d characters runs past the strand end", count))
	}
	for i := 0; i < count; i++ {
		next := it.Next()
		s.unlink(it.node)
		it = next
	}
	return it
}

// CopyN inserts a copy of the count characters read from source in front
// of target (in target's walking order) and returns an iterator to the
// first copied character. The source is left untouched; copies carry
// NoPosition. Source may belong to another sequence.
//
// REQUIRES: the count characters starting at source exist.
func (s *Sequence) CopyN(source StrandIterator, count int, target StrandIterator) StrandIterator {
	s.mustOwn(target)
	if !Span(source, count) {
		panic(fmt.Sprintf("dna: copy of %d characters runs past the strand end", count))
	}
	chars := make([]Char, count)
	for i := range chars {
		chars[i] = Char{Actual: source.Spell(), Pos: NoPosition}
		source = source.Next()
	}
	return s.insertAt(target, chars)
}

// Replace puts a copy of the targetDistance characters at target in place of
// the sourceDistance characters at source. The copy is spelled on target's
// strand and stored so that it reads the same on source's strand. Copied
// character i inherits the original offset of replaced character i when
// there is one.
//
// beforeHook sees every replaced position before removal, afterHook every
// inserted position after the splice. Either may be nil. The returned
// iterator points to the first inserted character, or to the character that
// followed the source range when nothing was inserted.
//
// REQUIRES: both ranges exist; target may live in another sequence.
func (s *Sequence) Replace(source StrandIterator, sourceDistance int, target StrandIterator, targetDistance int,
	beforeHook, afterHook func(StrandIterator)) StrandIterator {
	s.mustOwn(source)
	if !Span(source, sourceDistance) || !Span(target, targetDistance) {
		panic("dna: replace range runs past the strand end")
	}

	chars := make([]Char, targetDistance)
	src := source
	for i := range chars {
		pos := NoPosition
		if i < sourceDistance {
			pos = src.Char().Pos
			src = src.Next()
		}
		chars[i] = Char{Actual: target.Spell(), Pos: pos}
		target = target.Next()
	}

	if beforeHook != nil {
		it := source
		for i := 0; i < sourceDistance; i++ {
			beforeHook(it)
			it = it.Next()
		}
	}

	start := s.insertAt(s.EraseN(source, sourceDistance), chars)
	if afterHook != nil {
		it := start
		for range chars {
			afterHook(it)
			it = it.Next()
		}
	}
	return start
}

// OriginalRange maps the strand range [it1, it2) to original coordinates
// [start, end), ignoring characters without an original offset at both
// ends. ok is false when no character in the range has one.
func (s *Sequence) OriginalRange(it1, it2 StrandIterator) (start, end int, ok bool) {
	for it1 != it2 && !hasPosition(it1) {
		it1 = it1.Next()
	}
	if it1 == it2 {
		return 0, 0, false
	}
	for it2 = it2.Prev(); it2 != it1 && !hasPosition(it2); it2 = it2.Prev() {
	}
	p1, p2 := it1.Char().Pos, it2.Char().Pos
	return min(p1, p2), max(p1, p2) + 1, true
}

// SpellOriginal returns the original input covering [it1, it2): verbatim on
// the positive strand, reverse complemented on the negative one. A range
// made only of inserted characters yields ("", 0, 0).
func (s *Sequence) SpellOriginal(it1, it2 StrandIterator) (string, int, int) {
	start, end, ok := s.OriginalRange(it1, it2)
	if !ok {
		return "", 0, 0
	}
	out := s.original[start:end]
	if it1.Direction() == Negative {
		out = ReverseComplement(out)
	}
	return out, start, end
}

func hasPosition(it StrandIterator) bool {
	return it.Char().Pos != NoPosition
}

// insertAt inserts chars, given as read along at's strand, so that walking
// that strand from the returned iterator spells chars and then reaches at.
func (s *Sequence) insertAt(at StrandIterator, chars []Char) StrandIterator {
	if len(chars) == 0 {
		return at
	}
	if at.dir == Positive {
		first := s.insertBefore(at.node, chars[0])
		for _, ch := range chars[1:] {
			s.insertBefore(at.node, ch)
		}
		return StrandIterator{seq: s, node: first, dir: Positive}
	}
	after := s.nodes[at.node].next
	var first int32
	for i := len(chars) - 1; i >= 0; i-- {
		ch := chars[i]
		ch.Actual = Complement(ch.Actual)
		first = s.insertBefore(after, ch)
	}
	return StrandIterator{seq: s, node: first, dir: Negative}
}

func (s *Sequence) insertBefore(at int32, ch Char) int32 {
	id := int32(len(s.nodes))
	prev := s.nodes[at].prev
	s.nodes = append(s.nodes, node{ch: ch, prev: prev, next: at, live: true})
	s.nodes[prev].next = id
	s.nodes[at].prev = id
	s.size++
	return id
}

func (s *Sequence) unlink(id int32) {
	n := &s.nodes[id]
	s.nodes[n.prev].next = n.next
	s.nodes[n.next].prev = n.prev
	n.live = false
	s.size--
}

func (s *Sequence) mustOwn(it StrandIterator) {
	if it.seq != s {
		panic("dna: iterator belongs to another sequence")
	}
}
