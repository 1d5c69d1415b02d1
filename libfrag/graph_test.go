package libfrag_test

import (
	"errors"
	"testing"

	"github.com/2x3systems/gofrag/frag"
	"github.com/2x3systems/gofrag/libfrag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var gT *testing.T

func mustGraph(Xstr string) *libfrag.Graph {
	X, err := libfrag.NewGraphFromString(Xstr, frag.NewCounter(0, 0))
	if err != nil {
		gT.Fatalf("parsing %q: %v", Xstr, err)
	}
	if err = X.Validate(); err != nil {
		gT.Fatalf("graph %q is not valid: %v", Xstr, err)
	}
	return X
}

// testCatalog instantiates building blocks from a list of AP classes per building block ID.
type testCatalog struct {
	ids     frag.IDAllocator
	blocks  map[int][]frag.APClass
	capping map[frag.APClass]int
}

func (cat *testCatalog) Instantiate(bbID int, bbt frag.BBType) (*libfrag.Vertex, error) {
	classes, known := cat.blocks[bbID]
	if !known {
		return nil, frag.ErrUnknownBlock
	}
	v := libfrag.NewVertex(cat.ids.NextVtxID(), libfrag.Kind_Fragment, bbt, bbID)
	for _, apc := range classes {
		v.AddAP(cat.ids.NextAPID(), apc, frag.Bond_Single)
	}
	return v, nil
}

func (cat *testCatalog) CappingBlockFor(apc frag.APClass) (int, bool) {
	bbID, ok := cat.capping[apc]
	return bbID, ok
}

func newTestWorkspace(X *libfrag.Graph, cat *testCatalog) *libfrag.Workspace {
	var c libfrag.Catalog
	if cat != nil {
		cat.ids = X.IDs()
		c = cat
	}
	return libfrag.NewWorkspace(nil, c, X.IDs())
}

const symGraph = `
frag 1 SCAFFOLD 1 [x:0(-) x:0(-)]
frag 2 FRAGMENT 2 [x:1(-) y:0(-)]
frag 3 FRAGMENT 2 [x:1(-) y:0(-)]
1:0 - 2:0
1:1 - 3:0
sym(2 3)
`

// S with a five-membered frame h-S-A-B-t and a branch D on B.
const frameGraph = `
frag 1 SCAFFOLD 1 [x:0(-) x:1(-)]
frag 2 FRAGMENT 2 [x:0(-) x:1(-)]
frag 3 FRAGMENT 3 [x:0(-) x:1(-) x:2(-)]
frag 4 FRAGMENT 4 [x:0(-)]
rcv 5 [x:0(-)]
rcv 6 [x:0(-)]
1:0 - 2:0
2:1 - 3:0
3:1 - 6:0
3:2 - 4:0
1:1 - 5:0
ring(5 1 2 3 6) -
`

func TestContainer(t *testing.T) {
	gT = t
	X := mustGraph(frameGraph)
	defer X.Reclaim()

	require.Equal(t, 6, X.NumVertices())
	require.Equal(t, 5, X.NumEdges())
	require.Equal(t, 1, X.NumRings())

	root, err := X.SourceVertex()
	require.NoError(t, err)
	assert.Equal(t, frag.VtxID(1), root.ID())

	B := X.VertexWithID(3)
	lvl, err := X.Level(B)
	require.NoError(t, err)
	assert.Equal(t, 1, lvl)
	lvl, _ = X.Level(root)
	assert.Equal(t, -1, lvl)

	kids, err := X.ChildrenTree(X.VertexWithID(2), libfrag.TreeOpts{})
	require.NoError(t, err)
	assert.Len(t, kids, 3)
	kids, _ = X.ChildrenTree(X.VertexWithID(2), libfrag.TreeOpts{StopBeforeRCVs: true})
	assert.Len(t, kids, 2)
	kids, _ = X.ChildrenTree(root, libfrag.TreeOpts{Layers: 1})
	assert.Len(t, kids, 2)

	path, err := X.PathBetween(X.VertexWithID(5), X.VertexWithID(6))
	require.NoError(t, err)
	assert.Equal(t, X.Rings()[0].Vertices(), path)

	assert.True(t, X.IsVertexInRing(B))
	assert.False(t, X.IsVertexInRing(X.VertexWithID(4)))
}

func TestErrorKinds(t *testing.T) {
	gT = t
	X := mustGraph(symGraph)

	err := X.AddVertex(libfrag.NewVertex(2, libfrag.Kind_Fragment, frag.BB_Fragment, 1))
	assert.True(t, errors.Is(err, frag.ErrDuplicateVtxID))
	assert.True(t, errors.Is(err, frag.ErrStructuralViolation))

	other := mustGraph(symGraph)
	err = X.RemoveVertex(other.VertexWithID(2))
	assert.True(t, errors.Is(err, frag.ErrReferenceError))
	err = X.AddVertex(other.VertexWithID(2))
	assert.True(t, errors.Is(err, frag.ErrVtxInOtherGraph))

	extra := libfrag.NewVertex(9, libfrag.Kind_Fragment, frag.BB_Fragment, 1)
	extra.AddAP(99, frag.APClass{Rule: "x"}, frag.Bond_Single)
	require.NoError(t, X.AddVertex(extra))
	err = X.AddSymmetricSet(libfrag.NewSymmetricSet(X.VertexWithID(2), extra))
	assert.True(t, errors.Is(err, frag.ErrSymSetConflict))

	// Covering an existing set is an overlap too
	err = X.AddSymmetricSet(libfrag.NewSymmetricSet(X.VertexWithID(2), X.VertexWithID(3), extra))
	assert.True(t, errors.Is(err, frag.ErrSymSetConflict))
	assert.True(t, errors.Is(err, frag.ErrStructuralViolation))
	assert.Nil(t, X.SymSetFor(extra))
	assert.Equal(t, 1, X.NumSymSets())
	assert.Equal(t, 2, X.SymSetFor(X.VertexWithID(2)).Size())

	// A ring has to end on ring-closing vertices
	L := mustGraph(chainGraph)
	require.NoError(t, L.AddRing(libfrag.NewRing(
		[]*libfrag.Vertex{L.VertexWithID(1), L.VertexWithID(2), L.VertexWithID(3)}, frag.Bond_Single)))
	err = L.Validate()
	assert.True(t, errors.Is(err, frag.ErrBadRing))
	assert.True(t, errors.Is(err, frag.ErrStructuralViolation))

	// Parent links running in a circle
	C := mustGraph(`
frag 1 FRAGMENT 1 [x:0(-) x:0(-)]
frag 2 FRAGMENT 1 [x:0(-) x:0(-)]
1:0 - 2:0
`)
	require.NoError(t, C.AddEdge(libfrag.NewEdge(C.VertexWithID(2).AP(1), C.VertexWithID(1).AP(1), frag.Bond_Single)))
	_, err = C.ParentTree(C.VertexWithID(1))
	assert.True(t, errors.Is(err, frag.ErrCyclicParentChain))
	assert.True(t, errors.Is(C.Validate(), frag.ErrStructuralViolation))

	// Chord between RCVs hanging from edges of different bond order
	R := mustGraph(`
frag 1 FRAGMENT 1 [x:0(-) x:0(-) y:0(=)]
frag 2 FRAGMENT 1 [x:0(-) x:0(-)]
rcv 3 [x:0(-)]
rcv 4 [y:0(=)]
1:0 - 2:0
2:1 - 3:0
1:2 = 4:0
`)
	_, err = R.CloseRing(R.VertexWithID(3), R.VertexWithID(4))
	assert.True(t, errors.Is(err, frag.ErrChordBondMismatch))
	assert.Equal(t, 0, R.NumRings())
}

func TestRemoveAndReAdd(t *testing.T) {
	gT = t
	X := mustGraph(symGraph)
	before := X.Clone()

	C := X.VertexWithID(3)
	dup := C.Clone()
	require.NoError(t, X.RemoveVertex(C))
	assert.Equal(t, 2, X.NumVertices())
	assert.Equal(t, 1, X.NumEdges())
	assert.Equal(t, 0, X.NumSymSets())
	assert.Nil(t, C.Graph())
	assert.True(t, X.VertexWithID(1).AP(1).IsAvailable())

	require.NoError(t, X.AddVertex(dup))
	require.NoError(t, X.AddEdge(libfrag.NewEdge(X.VertexWithID(1).AP(1), dup.AP(0), frag.Bond_Single)))
	require.NoError(t, X.AddToSymmetricSetOf(X.VertexWithID(2), dup))

	assert.Equal(t, before.NumEdges(), X.NumEdges())
	assert.Equal(t, before.NumSymSets(), X.NumSymSets())
	same, reason := X.SameAs(before)
	assert.True(t, same, reason)

	// Same with a ring elsewhere in the graph
	F := mustGraph(frameGraph)
	ref := F.Clone()
	D := F.VertexWithID(4)
	dupD := D.Clone()
	require.NoError(t, F.RemoveVertex(D))
	require.NoError(t, F.AddVertex(dupD))
	require.NoError(t, F.AddEdge(libfrag.NewEdge(F.VertexWithID(3).AP(2), dupD.AP(0), frag.Bond_Single)))
	assert.Equal(t, 1, F.NumRings())
	same, reason = F.SameAs(ref)
	assert.True(t, same, reason)
}

func TestRenumber(t *testing.T) {
	gT = t
	X := mustGraph(symGraph)

	oldToNew := X.RenumberVertices()
	require.Len(t, oldToNew, 3)

	seen := make(map[frag.VtxID]bool)
	for _, newID := range oldToNew {
		assert.False(t, seen[newID])
		seen[newID] = true
	}
	for _, v := range X.Vertices() {
		assert.Equal(t, oldToNew[v.PrevID()], v.ID())
		assert.Same(t, v, X.VertexWithID(v.ID()))
	}
	ids := X.SymSets()[0].IDs()
	assert.ElementsMatch(t, []frag.VtxID{oldToNew[2], oldToNew[3]}, ids)
	assert.NoError(t, X.Validate())
}

func TestQuery(t *testing.T) {
	gT = t
	X := mustGraph(symGraph)
	S, B, C := X.VertexWithID(1), X.VertexWithID(2), X.VertexWithID(3)

	q := libfrag.VertexQuery{BBTypes: []frag.BBType{frag.BB_Fragment}}
	assert.Equal(t, []*libfrag.Vertex{B}, X.FindVertices(q, true))
	assert.Equal(t, []*libfrag.Vertex{B, C}, X.FindVertices(q, false))

	q = libfrag.VertexQuery{Levels: []int{-1}}
	assert.Equal(t, []*libfrag.Vertex{S}, X.FindVertices(q, false))

	q = libfrag.VertexQuery{In: libfrag.EdgeQuery{SrcAPIdx: []int{1}}}
	assert.Equal(t, []*libfrag.Vertex{C}, X.FindVertices(q, false))

	q = libfrag.VertexQuery{Out: libfrag.EdgeQuery{VtxIDs: []frag.VtxID{3}}}
	assert.Equal(t, []*libfrag.Vertex{S}, X.FindVertices(q, false))

	q = libfrag.VertexQuery{Kinds: []libfrag.VtxKind{libfrag.Kind_Placeholder}}
	assert.Empty(t, X.FindVertices(q, false))
}

func TestExtract(t *testing.T) {
	gT = t
	X := mustGraph(frameGraph)

	sub, err := X.ExtractSubgraph(X.VertexWithID(3), libfrag.TreeOpts{})
	require.NoError(t, err)
	assert.Equal(t, 3, sub.NumVertices())
	assert.Equal(t, 2, sub.NumEdges())
	assert.Equal(t, 0, sub.NumRings())
	assert.NoError(t, sub.Validate())

	sub, err = X.ExtractSubgraph(X.VertexWithID(1), libfrag.TreeOpts{})
	require.NoError(t, err)
	assert.True(t, sub.IsIsomorphicTo(X))

	sub, err = X.ExtractSubgraph(X.VertexWithID(2), libfrag.TreeOpts{Layers: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, sub.NumVertices())

	// B is kept but nothing below it
	B := X.VertexWithID(3)
	kids, err := X.ChildrenTree(X.VertexWithID(1), libfrag.TreeOpts{Frontier: []*libfrag.Vertex{B}})
	require.NoError(t, err)
	assert.ElementsMatch(t, []*libfrag.Vertex{X.VertexWithID(2), B, X.VertexWithID(5)}, kids)

	sub, err = X.ExtractSubgraph(X.VertexWithID(1), libfrag.TreeOpts{Frontier: []*libfrag.Vertex{B}})
	require.NoError(t, err)
	assert.Equal(t, 4, sub.NumVertices())
	assert.Equal(t, 3, sub.NumEdges())
	assert.Equal(t, 0, sub.NumRings())
	assert.NotNil(t, sub.VertexWithID(3))
	assert.Nil(t, sub.VertexWithID(4))
	assert.Nil(t, sub.VertexWithID(6))
	assert.NoError(t, sub.Validate())

	assert.Equal(t, 6, X.NumVertices())
	assert.NoError(t, X.Validate())
}
