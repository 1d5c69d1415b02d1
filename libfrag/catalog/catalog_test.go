package catalog_test

import (
	"errors"
	"os"
	"path"
	"testing"

	"github.com/2x3systems/gofrag/frag"
	"github.com/2x3systems/gofrag/libfrag"
	"github.com/2x3systems/gofrag/libfrag/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var gT *testing.T

func mustGraph(Xstr string) *libfrag.Graph {
	X, err := libfrag.NewGraphFromString(Xstr, frag.NewCounter(0, 0))
	if err != nil {
		gT.Fatalf("parsing %q: %v", Xstr, err)
	}
	return X
}

// blocks of a small library, one graph per block: scaffold, fragment, cap, template
const library = `
frag 1 SCAFFOLD 0 [amine:0@0(-) amine:0@1(-)] atoms 2 (0/1)
frag 2 FRAGMENT 0 [amine:1@0(-) olefin:0@0(=)] atoms 1
frag 3 CAP 0 [hyd:1(-)]
tmpl 4 FRAGMENT 1 {
  frag 1 FRAGMENT 0 [amine:1(-) amine:0(-)]
  frag 2 FRAGMENT 0 [amine:1(-) olefin:0(=) amine:0(-)]
  1:1 - 2:0
}
`

func fillCatalog(cat *catalog.Catalog) {
	X := mustGraph(library)
	for _, v := range X.Vertices() {
		if _, err := cat.AddBlock(v.BBType, v); err != nil {
			gT.Fatal(err)
		}
	}
	if err := cat.SetCapping(frag.APClass{Rule: "olefin", Sub: 0}, 0); err != nil {
		gT.Fatal(err)
	}
}

func TestBasics(t *testing.T) {
	gT = t
	dir, err := os.MkdirTemp("", "junk*")
	if err != nil {
		gT.Fatal(err)
	}
	defer os.RemoveAll(dir)

	opts := catalog.Opts{
		DbPathName: path.Join(dir, "TestBasics"),
	}
	cat, err := catalog.OpenCatalog(opts)
	if err != nil {
		gT.Fatal(err)
	}
	fillCatalog(cat)

	if cat.NumBlocks(frag.BB_Fragment) != 2 || cat.NumBlocks(frag.BB_Scaffold) != 1 || cat.NumBlocks(frag.BB_Cap) != 1 {
		t.Fatal("nope")
	}
	if err = cat.Close(); err != nil {
		t.Fatal(err)
	}

	// Reopen and check everything survived
	ids := frag.NewCounter(100, 1000)
	opts.IDs = ids
	cat, err = catalog.OpenCatalog(opts)
	if err != nil {
		gT.Fatal(err)
	}
	defer cat.Close()

	require.Equal(t, 2, cat.NumBlocks(frag.BB_Fragment))
	bbID, ok := cat.CappingBlockFor(frag.APClass{Rule: "olefin", Sub: 0})
	assert.True(t, ok)
	assert.Equal(t, 0, bbID)
	_, ok = cat.CappingBlockFor(frag.APClass{Rule: "amine", Sub: 0})
	assert.False(t, ok)

	S, err := cat.Instantiate(0, frag.BB_Scaffold)
	require.NoError(t, err)
	assert.Equal(t, frag.VtxID(101), S.ID())
	assert.Equal(t, frag.BB_Scaffold, S.BBType)
	assert.Equal(t, libfrag.Kind_Fragment, S.Kind)
	require.Equal(t, 2, S.NumAPs())
	assert.Equal(t, frag.APID(1001), S.AP(0).ID())
	assert.Equal(t, frag.APClass{Rule: "amine", Sub: 0}, S.AP(1).Class)
	assert.Equal(t, 1, S.AP(1).SrcAtom)
	assert.Equal(t, 2, S.NumAtoms)
	assert.True(t, S.AtomsBonded(0, 1))

	F, err := cat.Instantiate(0, frag.BB_Fragment)
	require.NoError(t, err)
	assert.Equal(t, frag.Bond_Double, F.AP(1).Bond)

	// Each instance is new
	F2, err := cat.Instantiate(0, frag.BB_Fragment)
	require.NoError(t, err)
	assert.NotEqual(t, F.ID(), F2.ID())
	assert.NotEqual(t, F.AP(0).ID(), F2.AP(0).ID())

	T, err := cat.Instantiate(1, frag.BB_Fragment)
	require.NoError(t, err)
	require.Equal(t, libfrag.Kind_Template, T.Kind)
	require.NotNil(t, T.InnerGraph())
	assert.Equal(t, 2, T.InnerGraph().NumVertices())
	require.Equal(t, 3, T.NumAPs())
	assert.Equal(t, frag.APClass{Rule: "amine", Sub: 1}, T.AP(0).Class)
	assert.Equal(t, frag.APClass{Rule: "olefin", Sub: 0}, T.AP(1).Class)
	assert.Equal(t, frag.APClass{Rule: "amine", Sub: 0}, T.AP(2).Class)
	assert.NoError(t, T.InnerGraph().Validate())

	_, err = cat.Instantiate(7, frag.BB_Fragment)
	assert.True(t, errors.Is(err, frag.ErrUnknownBlock))
}

func TestSelect(t *testing.T) {
	gT = t
	cat, err := catalog.OpenCatalog(catalog.Opts{})
	if err != nil {
		gT.Fatal(err)
	}
	defer cat.Close()
	fillCatalog(cat)

	selectIDs := func(sel catalog.BlockSelector) []int {
		var hits []int
		onHit := make(chan int)
		done := make(chan error, 1)
		go func() {
			done <- cat.Select(sel, onHit)
			close(onHit)
		}()
		for bbID := range onHit {
			hits = append(hits, bbID)
		}
		require.NoError(t, <-done)
		return hits
	}

	assert.Equal(t, []int{0, 1}, selectIDs(catalog.BlockSelector{BBType: frag.BB_Fragment}))
	assert.Equal(t, []int{0}, selectIDs(catalog.BlockSelector{BBType: frag.BB_Cap}))
	assert.Equal(t, []int{1}, selectIDs(catalog.BlockSelector{
		BBType:      frag.BB_Fragment,
		WithAPClass: frag.APClass{Rule: "amine", Sub: 0},
	}))
	assert.Empty(t, selectIDs(catalog.BlockSelector{
		BBType:      frag.BB_Scaffold,
		WithAPClass: frag.APClass{Rule: "olefin", Sub: 0},
	}))
}

func TestCappingFromCatalog(t *testing.T) {
	gT = t
	X := mustGraph(`
frag 1 SCAFFOLD 0 [amine:0(-) amine:0(-)]
frag 2 FRAGMENT 0 [amine:1(-) olefin:0(=)]
1:0 - 2:0
`)
	cat, err := catalog.OpenCatalog(catalog.Opts{IDs: X.IDs()})
	if err != nil {
		gT.Fatal(err)
	}
	defer cat.Close()
	fillCatalog(cat)

	ws := libfrag.NewWorkspace(nil, cat, X.IDs())
	require.NoError(t, X.AddCappingGroups(ws))
	assert.Equal(t, 3, X.NumVertices())
	assert.Equal(t, 1, X.VertexWithID(1).FreeAPCount())
	assert.Equal(t, 0, X.VertexWithID(2).FreeAPCount())
	assert.NoError(t, X.Validate())

	require.NoError(t, X.RemoveCappingGroups())
	assert.Equal(t, 2, X.NumVertices())

	_, err = cat.AddBlock(frag.NumBBTypes, X.VertexWithID(1))
	assert.True(t, errors.Is(err, frag.ErrBadCatalogParam))
	assert.True(t, errors.Is(cat.SetCapping(frag.APClass{Rule: "x"}, 5), frag.ErrUnknownBlock))
}

func TestGraphSet(t *testing.T) {
	gT = t
	set := catalog.NewGraphSet()
	defer set.Close()

	for _, Xstr := range []string{
		"frag 1 SCAFFOLD 1 [x:0(-) x:0(-)]\nfrag 2 FRAGMENT 2 [x:1(-)]\n1:0 - 2:0",
		"frag 1 SCAFFOLD 1 [x:0(-) x:0(-)]\nfrag 2 FRAGMENT 2 [x:1(-)]\n1:1 - 2:0",
		"frag 1 SCAFFOLD 1 [x:0(-) x:0(-)]\nfrag 2 FRAGMENT 3 [x:1(-)]\n1:0 - 2:0",
	} {
		X := mustGraph(Xstr)
		if added, err := set.TryAdd(X); err != nil || !added {
			t.Fatal("nope")
		}
		if added, err := set.TryAdd(X); err != nil || added {
			t.Fatal("nope")
		}
		if added, _ := set.TryAdd(X.Clone()); added {
			t.Fatal("nope")
		}
	}

	// Same graph under other vertex IDs
	relabeled := mustGraph("frag 20 FRAGMENT 2 [x:1(-)]\nfrag 10 SCAFFOLD 1 [x:0(-) x:0(-)]\n10:0 - 20:0")
	if added, _ := set.TryAdd(relabeled); added {
		t.Fatal("nope")
	}
	assert.Equal(t, 3, set.Len())

	total := 0
	onHit := make(chan *libfrag.Graph)
	go func() {
		set.Select(onHit)
		close(onHit)
	}()
	for X := range onHit {
		assert.NoError(t, X.Validate())
		total++
	}
	assert.Equal(t, 3, total)

	set.Close()
	assert.Equal(t, 0, set.Len())
	if added, _ := set.TryAdd(relabeled); !added {
		t.Fatal("nope")
	}
}
