package libfrag_test

import (
	"testing"

	"github.com/2x3systems/gofrag/frag"
	"github.com/2x3systems/gofrag/libfrag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeldChain(t *testing.T) {
	gT = t
	X := mustGraph(`
frag 1 SCAFFOLD 1 [c:0(-) c:1(-)]
frag 2 FRAGMENT 2 [c:0(-) c:1(-)]
frag 3 FRAGMENT 3 [c:0(-) c:1(-)]
frag 4 FRAGMENT 4 [c:0(-) c:1(-)]
1:0 - 2:0
2:1 - 3:0
3:1 - 4:0
`)
	A, B, C := X.VertexWithID(1), X.VertexWithID(2), X.VertexWithID(3)

	ok, err := X.RemoveVertexAndWeld(B, newTestWorkspace(X, nil))
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, 3, X.NumVertices())
	assert.Equal(t, 2, X.NumEdges())
	assert.Equal(t, 0, X.NumRings())
	assert.Nil(t, B.Graph())
	assert.Same(t, A, C.Parent())
	assert.Same(t, C.AP(0), A.AP(0).LinkedAP())
	assert.Equal(t, frag.Bond_Single, C.EdgeToParent().Bond)
	assert.NoError(t, X.Validate())
}

func TestWeldPrefersRingPreservingPairing(t *testing.T) {
	gT = t

	// B has two children competing for the single AP of A: D comes first but only C is in the ring.
	X := mustGraph(`
frag 1 SCAFFOLD 1 [x:0(-) x:1(-)]
frag 2 FRAGMENT 2 [x:0(-) x:1(-) x:2(-)]
frag 3 FRAGMENT 3 [x:0(-) x:1(-)]
frag 4 FRAGMENT 4 [x:0(-) x:1(-)]
rcv 5 [x:0(-)]
rcv 6 [x:0(-)]
1:0 - 2:0
2:1 - 3:0
2:2 - 4:0
1:1 - 5:0
4:1 - 6:0
ring(6 4 2 1 5) -
`)
	A, C := X.VertexWithID(1), X.VertexWithID(4)

	ok, err := X.RemoveVertexAndWeld(X.VertexWithID(2), newTestWorkspace(X, nil))
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, 4, X.NumVertices())
	assert.Nil(t, X.VertexWithID(3))
	assert.Same(t, A, C.Parent())
	require.Equal(t, 1, X.NumRings())
	assert.Equal(t, 4, X.Rings()[0].Size())
	assert.NoError(t, X.Validate())
}

func TestWeldRollsBackCollapsingRing(t *testing.T) {
	gT = t

	// Welding h onto A would leave ring h-A-t closed on a single atom of A.
	X := mustGraph(`
frag 1 SCAFFOLD 1 [x:0@0(-) x:1@0(-) x:2@1(-)] atoms 2 (0/1)
frag 2 FRAGMENT 2 [x:0(-) x:1(-)]
rcv 3 [x:0(-)]
rcv 4 [x:0(-)]
1:0 - 2:0
1:1 - 3:0
2:1 - 4:0
ring(4 2 1 3) -
`)
	before := X.Clone()
	B := X.VertexWithID(2)

	ok, err := X.RemoveVertexAndWeld(B, newTestWorkspace(X, nil))
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Same(t, X, B.Graph())
	assert.Equal(t, 4, X.NumVertices())
	require.Equal(t, 1, X.NumRings())
	assert.Equal(t, 4, X.Rings()[0].Size())
	same, reason := X.SameAs(before)
	assert.True(t, same, reason)
	assert.NoError(t, X.Validate())
}

func TestChainRemoval(t *testing.T) {
	gT = t
	X := mustGraph(frameGraph)
	S, B := X.VertexWithID(1), X.VertexWithID(3)

	ok, err := X.RemoveChainUpToBranching(X.VertexWithID(2), newTestWorkspace(X, nil))
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, 3, X.NumVertices())
	assert.Equal(t, 2, X.NumEdges())
	assert.Equal(t, 0, X.NumRings())
	for _, id := range []frag.VtxID{2, 5, 6} {
		assert.Nil(t, X.VertexWithID(id))
	}
	assert.Same(t, S, B.Parent())
	assert.Same(t, B.AP(1), S.AP(1).LinkedAP())
	assert.True(t, S.AP(0).IsAvailable())
	assert.NoError(t, X.Validate())

	// Without a branch on the frame, there is no chain to cut
	Y := mustGraph(`
frag 1 SCAFFOLD 1 [x:0(-) x:1(-)]
frag 2 FRAGMENT 2 [x:0(-) x:1(-)]
frag 3 FRAGMENT 3 [x:0(-) x:1(-)]
rcv 5 [x:0(-)]
rcv 6 [x:0(-)]
1:0 - 2:0
2:1 - 3:0
3:1 - 6:0
1:1 - 5:0
ring(5 1 2 3 6) -
`)
	before := Y.Clone()
	ok, err = Y.RemoveChainUpToBranching(Y.VertexWithID(2), newTestWorkspace(Y, nil))
	require.NoError(t, err)
	assert.False(t, ok)
	same, reason := Y.SameAs(before)
	assert.True(t, same, reason)
}

func TestChainRemovalOnLoneRing(t *testing.T) {
	gT = t

	// Four-membered ring h-S-A-t where only the scaffold branches, off the ring
	X := mustGraph(`
frag 1 SCAFFOLD 1 [x:0(-) x:0(-) x:0(-)]
frag 2 FRAGMENT 2 [x:1(-) x:0(-)]
frag 3 FRAGMENT 3 [x:1(-)]
rcv 5 [x:1(-)]
rcv 6 [x:1(-)]
1:0 - 2:0
1:1 - 5:0
2:1 - 6:0
1:2 - 3:0
ring(5 1 2 6) -
`)
	before := X.Clone()

	ok, err := X.RemoveChainUpToBranching(X.VertexWithID(2), newTestWorkspace(X, nil))
	require.NoError(t, err)
	assert.False(t, ok)
	same, reason := X.SameAs(before)
	assert.True(t, same, reason)
	assert.Equal(t, 1, X.NumRings())
	assert.NoError(t, X.Validate())
}

// Frame h-B-A-S-t, listed from B's side so that the chord replacing the RCVs points from B back to S.
const reversedFrameGraph = `
frag 1 SCAFFOLD 1 [x:0(-) p:0(-)]
frag 2 FRAGMENT 2 [x:1(-) x:0(-)]
frag 3 FRAGMENT 3 [x:1(-) q:0(-) x:0(-)]
frag 4 FRAGMENT 4 [x:1(-)]
rcv 5 [p:1(-)]
rcv 6 [q:1(-)]
1:0 - 2:0
2:1 - 3:0
3:1 - 6:0
3:2 - 4:0
1:1 - 5:0
ring(6 3 2 1 5) -
`

const weldChainGraph = `
frag 1 SCAFFOLD 1 [a:0(-)]
frag 2 FRAGMENT 2 [b:1(-) b:0(-)]
frag 3 FRAGMENT 3 [a:1(-) c:0(-)]
frag 4 FRAGMENT 4 [c:1(-)]
1:0 - 2:0
2:1 - 3:0
3:1 - 4:0
`

func TestEditsHonorOracle(t *testing.T) {
	gT = t
	apc := func(rule string, sub int) frag.APClass {
		return frag.APClass{Rule: rule, Sub: sub}
	}

	weld := (*libfrag.Graph).RemoveVertexAndWeld
	chain := (*libfrag.Graph).RemoveChainUpToBranching

	tests := []struct {
		name  string
		Xstr  string
		vtxID frag.VtxID
		edit  func(*libfrag.Graph, *libfrag.Vertex, *libfrag.Workspace) (bool, error)
		allow [][2]frag.APClass
		ok    bool
	}{
		{"weld allowed", weldChainGraph, 2, weld, [][2]frag.APClass{{apc("a", 0), apc("a", 1)}}, true},
		{"weld only the other way", weldChainGraph, 2, weld, [][2]frag.APClass{{apc("a", 1), apc("a", 0)}}, false},
		{"weld nothing allowed", weldChainGraph, 2, weld, nil, false},
		{"chain reversal allowed", reversedFrameGraph, 2, chain, [][2]frag.APClass{{apc("p", 0), apc("q", 0)}}, true},
		{"chain reversal refused", reversedFrameGraph, 2, chain, [][2]frag.APClass{{apc("q", 0), apc("p", 0)}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			X := mustGraph(tt.Xstr)
			before := X.Clone()

			rules := frag.NewRuleTable()
			for _, pair := range tt.allow {
				rules.Allow(pair[0], pair[1])
			}
			ws := libfrag.NewWorkspace(rules, nil, X.IDs())

			ok, err := tt.edit(X, X.VertexWithID(tt.vtxID), ws)
			require.NoError(t, err)
			require.Equal(t, tt.ok, ok)
			require.NoError(t, X.Validate())

			if !ok {
				same, reason := X.SameAs(before)
				assert.True(t, same, reason)
				assert.NotNil(t, X.VertexWithID(tt.vtxID))
				return
			}
			assert.Nil(t, X.VertexWithID(tt.vtxID))
			assert.Equal(t, 3, X.NumVertices())
			assert.Equal(t, 0, X.NumRings())
			assert.Same(t, X.VertexWithID(1), X.VertexWithID(3).Parent())
		})
	}
}

const chainGraph = `
frag 1 SCAFFOLD 1 [x:0(-)]
frag 2 FRAGMENT 2 [x:1(-) x:0(-)]
frag 3 FRAGMENT 3 [x:1(-)]
1:0 - 2:0
2:1 - 3:0
`

func TestReplaceSingleSubGraph(t *testing.T) {
	gT = t
	X := mustGraph(chainGraph)
	A, B, C := X.VertexWithID(1), X.VertexWithID(2), X.VertexWithID(3)
	before := X.Clone()

	in, err := libfrag.NewGraphFromString(`frag 10 FRAGMENT 7 [x:1(-) x:0(-)]`, X.IDs())
	require.NoError(t, err)
	N := in.VertexWithID(10)

	// The AP toward C is not mapped: nothing may change
	ok, err := X.ReplaceSingleSubGraph([]*libfrag.Vertex{B}, in, map[*libfrag.AP]*libfrag.AP{
		B.AP(0): N.AP(0),
	})
	require.NoError(t, err)
	assert.False(t, ok)
	same, reason := X.SameAs(before)
	assert.True(t, same, reason)
	assert.Equal(t, 1, in.NumVertices())

	ok, err = X.ReplaceSingleSubGraph([]*libfrag.Vertex{B}, in, map[*libfrag.AP]*libfrag.AP{
		B.AP(0): N.AP(0),
		B.AP(1): N.AP(1),
	})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 0, in.NumVertices())
	assert.Nil(t, B.Graph())
	assert.Same(t, X, N.Graph())
	assert.Same(t, A, N.Parent())
	assert.Same(t, N, C.Parent())
	assert.Equal(t, 3, X.NumVertices())
	assert.NoError(t, X.Validate())
}

func TestReplaceSubGraphOnSymmetricSites(t *testing.T) {
	gT = t
	X := mustGraph(symGraph)
	S, B := X.VertexWithID(1), X.VertexWithID(2)

	in, err := libfrag.NewGraphFromString(`frag 1 FRAGMENT 7 [x:1(-) z:0(-)]`, X.IDs())
	require.NoError(t, err)

	ok, err := X.ReplaceSubGraph([]*libfrag.Vertex{B}, in, map[*libfrag.AP]*libfrag.AP{
		B.AP(0): in.VertexWithID(1).AP(0),
	}, newTestWorkspace(X, &testCatalog{}))
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, 1, in.NumVertices())
	assert.Equal(t, 3, X.NumVertices())
	for _, kid := range S.Children() {
		assert.Equal(t, 7, kid.BBID)
	}
	require.Equal(t, 1, X.NumSymSets())
	assert.Equal(t, S.Children(), X.SymSets()[0].Members())
	assert.NoError(t, X.Validate())
}

func TestReplaceVertex(t *testing.T) {
	gT = t
	cat := &testCatalog{
		blocks: map[int][]frag.APClass{
			7: {{Rule: "x", Sub: 1}, {Rule: "z", Sub: 0}},
		},
	}

	X := mustGraph(symGraph)
	S := X.VertexWithID(1)
	ok, err := X.ReplaceVertex(X.VertexWithID(2), 7, frag.BB_Fragment, map[int]int{0: 0}, true, newTestWorkspace(X, cat))
	require.NoError(t, err)
	require.True(t, ok)
	kids := S.Children()
	require.Len(t, kids, 2)
	for _, kid := range kids {
		assert.Equal(t, 7, kid.BBID)
	}
	require.Equal(t, 1, X.NumSymSets())
	assert.ElementsMatch(t, kids, X.SymSets()[0].Members())
	assert.NoError(t, X.Validate())

	Y := mustGraph(symGraph)
	ok, err = Y.ReplaceVertex(Y.VertexWithID(2), 7, frag.BB_Fragment, map[int]int{0: 0}, false, newTestWorkspace(Y, cat))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 7, Y.VertexWithID(1).AP(0).LinkedAP().Owner().BBID)
	assert.Equal(t, 2, Y.VertexWithID(3).BBID)
	assert.Equal(t, 0, Y.NumSymSets())

	_, err = Y.ReplaceVertex(Y.VertexWithID(3), 7, frag.BB_Fragment, map[int]int{0: 5}, false, newTestWorkspace(Y, cat))
	assert.ErrorIs(t, err, frag.ErrBadAPIndex)
	assert.Equal(t, 2, Y.VertexWithID(3).BBID)
}

func TestInsertSingleVertex(t *testing.T) {
	gT = t
	X := mustGraph(`
frag 1 SCAFFOLD 1 [x:0(-) x:0(-)]
frag 2 FRAGMENT 2 [x:0(-) x:0(-)]
rcv 3 [x:0(-)]
rcv 4 [x:0(-)]
1:0 - 2:0
1:1 - 3:0
2:1 - 4:0
ring(3 1 2 4) -
`)
	A, C := X.VertexWithID(1), X.VertexWithID(2)

	N := libfrag.NewVertex(50, libfrag.Kind_Fragment, frag.BB_Fragment, 7)
	N.AddAP(500, frag.APClass{Rule: "x"}, frag.Bond_Single)
	N.AddAP(501, frag.APClass{Rule: "x"}, frag.Bond_Single)

	edge := A.AP(0).Edge()
	ok, err := X.InsertSingleVertex(edge, N, map[*libfrag.AP]*libfrag.AP{A.AP(0): N.AP(0)})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, N.Graph())
	assert.Same(t, A, C.Parent())

	ok, err = X.InsertSingleVertex(edge, N, map[*libfrag.AP]*libfrag.AP{A.AP(0): N.AP(0), C.AP(0): N.AP(1)})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Same(t, A, N.Parent())
	assert.Same(t, N, C.Parent())
	assert.Equal(t, 4, X.NumEdges())
	r := X.Rings()[0]
	assert.Equal(t, 5, r.Size())
	assert.Same(t, N, r.VertexAt(2))
	assert.NoError(t, X.Validate())
}

func TestInsertVertexOnSymmetricEdges(t *testing.T) {
	gT = t
	cat := &testCatalog{
		blocks: map[int][]frag.APClass{
			7: {{Rule: "x", Sub: 1}, {Rule: "x", Sub: 0}},
		},
	}
	X := mustGraph(symGraph)
	S, B, C := X.VertexWithID(1), X.VertexWithID(2), X.VertexWithID(3)
	edge := B.EdgeToParent()

	ok, err := X.InsertVertex(edge, 7, frag.BB_Fragment, map[*libfrag.AP]int{edge.Src(): 0, edge.Trg(): 1}, newTestWorkspace(X, cat))
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, 5, X.NumVertices())
	assert.Equal(t, 7, B.Parent().BBID)
	assert.Equal(t, 7, C.Parent().BBID)
	assert.Same(t, S, B.Parent().Parent())
	assert.Equal(t, 2, X.NumSymSets())
	assert.NoError(t, X.Validate())
}

func TestCappingGroups(t *testing.T) {
	gT = t
	cat := &testCatalog{
		blocks: map[int][]frag.APClass{
			50: {{Rule: "h"}},
		},
		capping: map[frag.APClass]int{
			{Rule: "c", Sub: 1}: 50,
		},
	}
	X := mustGraph(`frag 1 SCAFFOLD 1 [c:1(-) c:0(-)]`)
	ws := newTestWorkspace(X, cat)

	require.NoError(t, X.AddCappingGroups(ws))
	assert.Equal(t, 2, X.NumVertices())
	capVtx := X.VertexWithID(1).AP(0).LinkedAP().Owner()
	assert.Equal(t, frag.BB_Cap, capVtx.BBType)
	assert.True(t, X.VertexWithID(1).AP(1).IsAvailable())

	require.NoError(t, X.RemoveCappingGroups())
	assert.Equal(t, 1, X.NumVertices())
	assert.True(t, X.VertexWithID(1).AP(0).IsAvailable())
}

func TestRemoveBranch(t *testing.T) {
	gT = t
	X := mustGraph(symGraph)
	ok, err := X.RemoveBranchStartingAt(X.VertexWithID(2), true)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, X.NumVertices())
	assert.Equal(t, 0, X.NumSymSets())

	Y := mustGraph(symGraph)
	ok, _ = Y.RemoveBranchStartingAt(Y.VertexWithID(2), false)
	require.True(t, ok)
	assert.Equal(t, 2, Y.NumVertices())
	assert.NotNil(t, Y.VertexWithID(3))
}
