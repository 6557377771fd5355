package synteny

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/syntenyfinder/internal/dna"
)

func edgeAt(chr, start, end int) Edge {
	return Edge{Chr: chr, Dir: dna.Positive, OriginalPosition: start, OriginalLength: end - start}
}

func TestResolveOverlap(t *testing.T) {
	occ := NewOccupancy([]int{100, 100})
	occ.Mark(0, 20, 30)
	assert.Equal(t, 10, occ.Count(0))
	assert.True(t, occ.Occupied(0, 29))
	assert.False(t, occ.Occupied(0, 30))

	group := []Edge{edgeAt(0, 10, 60), edgeAt(1, 0, 50), edgeAt(0, 40, 90)}

	kept := ResolveOverlap(group, 15, occ)
	require.Len(t, kept, 3)
	assert.Equal(t, [2]int{30, 60}, [2]int{kept[0].OriginalPosition, kept[0].OriginalEnd()}, "longest free run after the occupied stretch")
	assert.Equal(t, [2]int{0, 50}, [2]int{kept[1].OriginalPosition, kept[1].OriginalEnd()})
	assert.Equal(t, [2]int{60, 90}, [2]int{kept[2].OriginalPosition, kept[2].OriginalEnd()}, "positions kept for an earlier edge are skipped")

	kept = ResolveOverlap(group, 31, occ)
	require.Len(t, kept, 2)
	assert.Equal(t, 1, kept[0].Chr)
	assert.Equal(t, [2]int{40, 90}, [2]int{kept[1].OriginalPosition, kept[1].OriginalEnd()}, "a dropped edge claims nothing")

	assert.Equal(t, 10, occ.Count(0), "resolution never marks the indicator")
}

func TestResolveOverlap_FirstLongestRunWins(t *testing.T) {
	occ := NewOccupancy([]int{50})
	occ.Mark(0, 10, 12)

	kept := ResolveOverlap([]Edge{edgeAt(0, 0, 22)}, 5, occ)
	require.Len(t, kept, 1)
	assert.Equal(t, 0, kept[0].OriginalPosition)
	assert.Equal(t, 10, kept[0].OriginalLength)
}
