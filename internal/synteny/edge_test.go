package synteny

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/syntenyfinder/internal/debruijn"
	"github.com/inodb/syntenyfinder/internal/dna"
)

func TestListEdges(t *testing.T) {
	tests := []struct {
		name string
		seq  string
		k    int
		want []Edge
	}{
		{
			// AA repeats, so every AA start is a bifurcation. The negative
			// strand reads GTTTT with both vertices in reverse sense.
			name: "repeated vertex",
			seq:  "AAAAC",
			k:    2,
			want: []Edge{
				{Chr: 0, Dir: dna.Positive, StartVertex: 1, EndVertex: 1, ActualPosition: 0, ActualLength: 3, OriginalPosition: 0, OriginalLength: 3, FirstChar: 'A'},
				{Chr: 0, Dir: dna.Positive, StartVertex: 1, EndVertex: 1, ActualPosition: 1, ActualLength: 3, OriginalPosition: 1, OriginalLength: 3, FirstChar: 'A'},
				{Chr: 0, Dir: dna.Positive, StartVertex: 1, EndVertex: 2, ActualPosition: 2, ActualLength: 3, OriginalPosition: 2, OriginalLength: 3, FirstChar: 'C'},
				{Chr: 0, Dir: dna.Negative, StartVertex: -2, EndVertex: -1, ActualPosition: 0, ActualLength: 3, OriginalPosition: 2, OriginalLength: 3, FirstChar: 'T'},
				{Chr: 0, Dir: dna.Negative, StartVertex: -1, EndVertex: -1, ActualPosition: 1, ActualLength: 3, OriginalPosition: 1, OriginalLength: 3, FirstChar: 'T'},
				{Chr: 0, Dir: dna.Negative, StartVertex: -1, EndVertex: -1, ActualPosition: 2, ActualLength: 3, OriginalPosition: 0, OriginalLength: 3, FirstChar: 'T'},
			},
		},
		{
			// Only the strand ends branch: one edge per strand.
			name: "single path",
			seq:  "ACCAT",
			k:    2,
			want: []Edge{
				{Chr: 0, Dir: dna.Positive, StartVertex: 1, EndVertex: 2, ActualPosition: 0, ActualLength: 5, OriginalPosition: 0, OriginalLength: 5, FirstChar: 'C'},
				{Chr: 0, Dir: dna.Negative, StartVertex: 2, EndVertex: -1, ActualPosition: 0, ActualLength: 5, OriginalPosition: 0, OriginalLength: 5, FirstChar: 'G'},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ix, err := debruijn.Build([]*dna.Sequence{dna.New(tt.seq)}, tt.k, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ListEdges(ix))
		})
	}
}

func TestListEdges_TilesEveryStrand(t *testing.T) {
	seqs := []*dna.Sequence{dna.New("ACGTTGCAAGTCCATGGATCC"), dna.New("GGATCCAAGT")}
	ix, err := debruijn.Build(seqs, 3, nil)
	require.NoError(t, err)

	edges := ListEdges(ix)
	for _, st := range ix.Strands() {
		var covered []Edge
		for _, e := range edges {
			if e.Chr == st.Chr && e.Dir == st.Dir {
				covered = append(covered, e)
			}
		}
		require.NotEmpty(t, covered)
		assert.Zero(t, covered[0].ActualPosition, "strand %v starts at a bifurcation", st)
		for i := 1; i < len(covered); i++ {
			prev := covered[i-1]
			assert.Equal(t, prev.ActualPosition+prev.ActualLength-ix.K(), covered[i].ActualPosition,
				"consecutive edges share the end vertex k-mer")
			assert.Equal(t, prev.EndVertex, covered[i].StartVertex)
		}
		last := covered[len(covered)-1]
		assert.Equal(t, seqs[st.Chr].Size(), last.ActualPosition+last.ActualLength, "strand %v ends at a bifurcation", st)
	}
}

func TestCompareEdges(t *testing.T) {
	a := Edge{Chr: 1, Dir: dna.Positive, StartVertex: 3, EndVertex: -2, FirstChar: 'A', OriginalPosition: 50}
	b := Edge{Chr: 0, Dir: dna.Negative, StartVertex: 3, EndVertex: -2, FirstChar: 'A', OriginalPosition: 10}
	c := Edge{Chr: 0, Dir: dna.Positive, StartVertex: 3, EndVertex: -2, FirstChar: 'G', OriginalPosition: 90}
	d := Edge{Chr: 0, Dir: dna.Positive, StartVertex: -4, EndVertex: 7, FirstChar: 'T', OriginalPosition: 5}

	assert.Zero(t, CompareEdgesNaturally(a, b), "same path on different strands")
	assert.Negative(t, CompareEdgesNaturally(a, c), "first character breaks ties")
	assert.Negative(t, CompareEdgesNaturally(d, a), "signed start vertex first")

	assert.Negative(t, CompareEdgesByDirection(a, b), "positive strand first")
	assert.Negative(t, CompareEdgesByDirection(c, a), "then chromosome")
	assert.Negative(t, CompareEdgesByDirection(d, c), "then position")

	edges := []Edge{a, c, b, d}
	slices.SortStableFunc(edges, CompareEdgesNaturally)
	assert.Equal(t, []Edge{d, a, b, c}, edges)
	assert.Equal(t, [][2]int{{0, 1}, {1, 3}, {3, 4}}, groupEdges(edges))
	assert.Empty(t, groupEdges(nil))
}
