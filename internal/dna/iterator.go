package dna

import "fmt"

// StrandIterator is a cursor over one strand of a Sequence. On the positive
// strand it walks storage forward and spells bases as stored; on the
// negative strand it walks backward and spells complements.
//
// Iterators are values and compare with ==: two iterators are equal iff they
// denote the same stored character (or the same end sentinel) and walk in
// the same direction.
type StrandIterator struct {
	seq  *Sequence
	node int32
	dir  Direction
}

// Valid reports whether it points at a live character rather than an end
// sentinel or an erased character.
func (it StrandIterator) Valid() bool {
	return it.seq != nil && it.seq.nodes[it.node].live
}

// Sequence returns the owning sequence.
func (it StrandIterator) Sequence() *Sequence {
	return it.seq
}

// Direction returns the strand the iterator walks.
func (it StrandIterator) Direction() Direction {
	return it.dir
}

// ElementID returns the stable handle of the underlying character. It is
// shared by the positive and negative views of that character.
func (it StrandIterator) ElementID() int {
	return int(it.node)
}

// Spell returns the strand-correct base.
//
// REQUIRES: it.Valid().
func (it StrandIterator) Spell() byte {
	ch := it.Char().Actual
	if it.dir == Negative {
		return Complement(ch)
	}
	return ch
}

// Char returns the stored character, as found on the positive strand.
//
// REQUIRES: it.Valid().
func (it StrandIterator) Char() Char {
	it.mustBeValid()
	return it.seq.nodes[it.node].ch
}

// OriginalPosition returns the offset of the character in the input.
// ok is false for inserted characters.
func (it StrandIterator) OriginalPosition() (pos int, ok bool) {
	p := it.Char().Pos
	return p, p != NoPosition
}

// Next steps one character along the strand.
//
// REQUIRES: it.Valid().
func (it StrandIterator) Next() StrandIterator {
	it.mustBeValid()
	n := it.seq.nodes[it.node]
	if it.dir == Positive {
		it.node = n.next
	} else {
		it.node = n.prev
	}
	return it
}

// Prev steps one character against the strand. Stepping back from the end
// sentinel yields the last character; stepping back from the first
// character yields the end sentinel.
func (it StrandIterator) Prev() StrandIterator {
	if it.seq == nil || (it.node != sentinel && !it.seq.nodes[it.node].live) {
		panic("dna: step back from a detached iterator")
	}
	n := it.seq.nodes[it.node]
	if it.dir == Positive {
		it.node = n.prev
	} else {
		it.node = n.next
	}
	return it
}

// Advance moves n characters along the strand, or -n against it when n is
// negative.
func (it StrandIterator) Advance(n int) StrandIterator {
	for ; n > 0; n-- {
		it = it.Next()
	}
	for ; n < 0; n++ {
		it = it.Prev()
	}
	return it
}

// Invert returns the iterator at the same character walking the other strand.
func (it StrandIterator) Invert() StrandIterator {
	it.dir = it.dir.Invert()
	return it
}

func (it StrandIterator) String() string {
	if !it.Valid() {
		return fmt.Sprintf("end(%s)", it.dir)
	}
	return fmt.Sprintf("%c@%d(%s)", it.Spell(), it.node, it.dir)
}

func (it StrandIterator) mustBeValid() {
	if !it.Valid() {
		panic("dna: dereference of an end or erased iterator")
	}
}

// Span reports whether the n characters starting at it all exist.
func Span(it StrandIterator, n int) bool {
	for i := 0; i < n; i++ {
		if !it.Valid() {
			return false
		}
		it = it.Next()
	}
	return true
}

// AtBegin reports whether it is the first character of its strand.
func AtBegin(it StrandIterator) bool {
	return it.seq != nil && it == it.seq.Begin(it.dir)
}

// ProperKMer reports whether a full k-mer starts at it.
func ProperKMer(it StrandIterator, k int) bool {
	return k > 0 && Span(it, k)
}

// Spell returns the n bases starting at it, or false if the strand ends first.
func Spell(it StrandIterator, n int) (string, bool) {
	buf := make([]byte, 0, n)
	for i := 0; i < n; i++ {
		if !it.Valid() {
			return "", false
		}
		buf = append(buf, it.Spell())
		it = it.Next()
	}
	return string(buf), true
}
