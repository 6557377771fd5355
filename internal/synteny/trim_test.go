package synteny

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/inodb/syntenyfinder/internal/dna"
)

func TestTrimBlocks(t *testing.T) {
	chrs := scenario(t, func(rng *rand.Rand) ([]string, map[string]int) {
		x := randomDNA(rng, 40)
		return []string{
			endingWith(rng, 10, 'A') + x,
			endingWith(rng, 10, 'C') + x,
			randomDNA(rng, 50),
		}, map[string]int{x: 2}
	})
	originals := []string{chrs[0].Sequence, chrs[1].Sequence, chrs[2].Sequence}
	block := []Edge{edgeAt(0, 0, 50), edgeAt(1, 0, 50), edgeAt(2, 0, 50)}

	trimmed, drop := TrimBlocks(block, originals, testK, 20)
	assert.True(t, drop, "the third member shares nothing")
	require.Len(t, trimmed, 2)
	for i, e := range trimmed {
		assert.Equal(t, i, e.Chr)
		assert.Equal(t, 10, e.OriginalPosition, "start moves to the first shared k-mer")
		assert.Equal(t, 50, e.OriginalEnd())
	}

	again, drop := TrimBlocks(trimmed, originals, testK, 20)
	assert.False(t, drop)
	assert.Equal(t, trimmed, again, "trimming is stable once members agree")

	none, drop := TrimBlocks(trimmed, originals, testK, 41)
	assert.False(t, drop)
	assert.Empty(t, none, "members shorter than the minimum are removed")
}

func TestTrimBlocks_NegativeMember(t *testing.T) {
	chrs := scenario(t, func(rng *rand.Rand) ([]string, map[string]int) {
		x := randomDNA(rng, 40)
		return []string{
			endingWith(rng, 10, 'A') + x,
			dna.ReverseComplement(endingWith(rng, 10, 'C') + x),
		}, map[string]int{x: 2}
	})
	originals := []string{chrs[0].Sequence, chrs[1].Sequence}
	neg := edgeAt(1, 0, 50)
	neg.Dir = dna.Negative

	trimmed, drop := TrimBlocks([]Edge{edgeAt(0, 0, 50), neg}, originals, testK, 20)
	assert.False(t, drop)
	require.Len(t, trimmed, 2)
	assert.Equal(t, [2]int{10, 50}, [2]int{trimmed[0].OriginalPosition, trimmed[0].OriginalEnd()})
	assert.Equal(t, [2]int{0, 40}, [2]int{trimmed[1].OriginalPosition, trimmed[1].OriginalEnd()})
	assert.Equal(t, dna.Negative, trimmed[1].Dir)
}

func TestTrimBlocks_CrossedEndsDropMember(t *testing.T) {
	// Chromosome 0 is X+Y, chromosome 1 is Y+Z+X. Seen from chromosome 0 the
	// start closest to both starts lies in Y and the end closest to both
	// ends lies in X.
	chrs := scenario(t, func(rng *rand.Rand) ([]string, map[string]int) {
		x, y, z := randomDNA(rng, 20), randomDNA(rng, 20), randomDNA(rng, 10)
		return []string{x + y, y + z + x}, map[string]int{x: 2, y: 2}
	})
	originals := []string{chrs[0].Sequence, chrs[1].Sequence}

	trimmed, drop := TrimBlocks([]Edge{edgeAt(0, 0, 40), edgeAt(1, 0, 50)}, originals, testK, 20)
	assert.True(t, drop, "a member with crossed ends asks for another round")
	require.Len(t, trimmed, 1)
	assert.Equal(t, 1, trimmed[0].Chr)
	assert.Equal(t, [2]int{0, 50}, [2]int{trimmed[0].OriginalPosition, trimmed[0].OriginalEnd()})
}

func TestFinderTrim_RoundLimit(t *testing.T) {
	chrs := scenario(t, func(rng *rand.Rand) ([]string, map[string]int) {
		x := randomDNA(rng, 40)
		return []string{
			endingWith(rng, 10, 'A') + x,
			endingWith(rng, 10, 'C') + x,
			randomDNA(rng, 50),
		}, map[string]int{x: 2}
	})
	originals := []string{chrs[0].Sequence, chrs[1].Sequence, chrs[2].Sequence}
	block := []Edge{edgeAt(0, 0, 50), edgeAt(1, 0, 50), edgeAt(2, 0, 50)}

	tests := []struct {
		name    string
		rounds  int
		members int
		warned  bool
	}{
		{"one round is not enough", 1, 0, true},
		{"second round settles", 2, 2, false},
		{"derived limit", 0, 2, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zap.WarnLevel)
			f := NewFinder(chrs)
			f.SetLogger(zap.New(core))

			cfg := Config{K: testK, TrimK: testK, MinSize: 20, MaxTrimRounds: tt.rounds}
			got := f.trim(block, originals, cfg)
			assert.Len(t, got, tt.members)
			if tt.warned {
				require.Equal(t, 1, logs.Len())
				assert.Equal(t, int64(1), logs.All()[0].ContextMap()["limit"])
			} else {
				assert.Zero(t, logs.Len())
			}
		})
	}
}
