package graphjson_test

import (
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/2x3systems/gofrag/frag"
	"github.com/2x3systems/gofrag/libfrag"
	"github.com/2x3systems/gofrag/libfrag/graphjson"
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

var graphs = []string{
	// symmetric set
	`
frag 1 SCAFFOLD 1 [x:0(-) x:0(-)]
frag 2 FRAGMENT 2 [x:1(-) y:0(-)]
frag 3 FRAGMENT 2 [x:1(-) y:0(-)]
1:0 - 2:0
1:1 - 3:0
sym(2 3)
`,
	// ring
	`
frag 1 SCAFFOLD 1 [x:0(-) x:1(-)]
frag 2 FRAGMENT 2 [x:0(-) x:1(-)]
frag 3 FRAGMENT 3 [x:0(-) x:1(-) x:2(-)]
frag 4 FRAGMENT 4 [x:0@0(-)] atoms 2 (0/1)
rcv 5 [x:0(-)]
rcv 6 [x:0(-)]
1:0 - 2:0
2:1 - 3:0
3:1 - 6:0
3:2 = 4:0
1:1 - 5:0
ring(5 1 2 3 6) -
`,
	// template
	`
frag 1 SCAFFOLD 1 [x:0(-) x:0(-)]
tmpl 2 FRAGMENT 9 {
  frag 1 FRAGMENT 2 [x:1(-) y:0(-)]
  frag 2 FRAGMENT 3 [y:1(-) z:0(-)]
  1:1 - 2:0
}
ph 3 UNDEFINED 0 [z:1]
1:0 - 2:0
2:1 - 3:0
`,
}

func TestRoundTrip(t *testing.T) {
	gT = t

	for _, Xstr := range graphs {
		X := mustGraph(Xstr)
		buf, err := graphjson.Marshal(X)
		require.NoError(t, err)

		Y, err := graphjson.Unmarshal(buf, nil)
		require.NoError(t, err)
		require.NoError(t, Y.Validate())

		same, reason := X.SameAs(Y)
		assert.True(t, same, reason)
		assert.True(t, X.IsIsomorphicTo(Y))
		assert.Equal(t, X.GrammarString(), Y.GrammarString())

		// IDs were unique so they are kept as they are
		for _, v := range X.Vertices() {
			vY := Y.VertexWithID(v.ID())
			require.NotNil(t, vY)
			require.Equal(t, v.NumAPs(), vY.NumAPs())
			for i, ap := range v.APs() {
				assert.Equal(t, ap.ID(), vY.AP(i).ID())
			}
		}

		// New IDs minted for Y do not clash with the ones read
		fresh := Y.IDs().NextAPID()
		assert.Nil(t, Y.APWithID(fresh))
	}
}

func TestTemplateProjectionOrder(t *testing.T) {
	gT = t
	inner := mustGraph(`
frag 1 FRAGMENT 2 [x:1(-) y:0(-)]
frag 2 FRAGMENT 3 [y:1(-) z:0(-)]
1:1 - 2:0
`)

	// Project the inner APs against the inner graph order
	T := libfrag.NewTemplate(20, frag.BB_Fragment, 9)
	require.NoError(t, T.SetInnerGraph(inner, inner.VertexWithID(2).AP(1), inner.VertexWithID(1).AP(0)))
	require.Equal(t, 2, T.NumAPs())
	require.Equal(t, frag.APClass{Rule: "z", Sub: 0}, T.AP(0).Class)

	X := libfrag.NewGraph(inner.IDs())
	S := libfrag.NewVertex(50, libfrag.Kind_Fragment, frag.BB_Scaffold, 1)
	S.AddAP(100, frag.APClass{Rule: "x", Sub: 0}, frag.Bond_Single)
	require.NoError(t, X.AddVertex(S))
	require.NoError(t, X.AddVertex(T))
	require.NoError(t, X.AddEdge(libfrag.NewEdge(S.AP(0), T.AP(1), frag.Bond_Single)))
	require.NoError(t, X.Validate())

	buf, err := graphjson.Marshal(X)
	require.NoError(t, err)
	Y, err := graphjson.Unmarshal(buf, nil)
	require.NoError(t, err)
	require.NoError(t, Y.Validate())

	same, reason := X.SameAs(Y)
	assert.True(t, same, reason)
	TY := Y.VertexWithID(20)
	require.NotNil(t, TY)
	for i, ap := range T.APs() {
		apY := TY.AP(i)
		assert.Equal(t, ap.ID(), apY.ID())
		assert.Equal(t, ap.Class, apY.Class)
		assert.Equal(t, T.InnerAP(ap).Owner().ID(), TY.InnerAP(apY).Owner().ID())
		assert.Equal(t, T.InnerAP(ap).Index(), TY.InnerAP(apY).Index())
	}
}

func TestCollidingIDs(t *testing.T) {
	gT = t
	X := mustGraph(graphs[0])

	// A vertex reusing an AP ID already in the graph
	dupeID := X.VertexWithID(1).AP(0).ID()
	extra := libfrag.NewVertex(10, libfrag.Kind_Fragment, frag.BB_Cap, 7)
	extra.AddAP(dupeID, frag.APClass{Rule: "y", Sub: 1}, frag.Bond_Single)
	require.NoError(t, X.AddVertex(extra))
	require.NoError(t, X.AddEdge(libfrag.NewEdge(X.VertexWithID(2).AP(1), extra.AP(0), frag.Bond_Single)))
	before := X.GrammarString()

	buf, err := graphjson.Marshal(X)
	require.NoError(t, err)
	assert.Equal(t, before, X.GrammarString())
	assert.NotNil(t, X.VertexWithID(10))

	Y, err := graphjson.Unmarshal(buf, nil)
	require.NoError(t, err)
	require.NoError(t, Y.Validate())
	same, reason := X.SameAs(Y)
	assert.True(t, same, reason)

	seen := make(map[frag.APID]bool)
	for _, v := range Y.Vertices() {
		for _, ap := range v.APs() {
			assert.False(t, seen[ap.ID()])
			seen[ap.ID()] = true
		}
	}
	assert.Len(t, seen, 7)
}

func TestList(t *testing.T) {
	gT = t
	var list []*libfrag.Graph
	for _, Xstr := range graphs {
		list = append(list, mustGraph(Xstr))
	}
	buf, err := graphjson.MarshalList(list)
	require.NoError(t, err)

	got, err := graphjson.UnmarshalList(buf, frag.NewCounter(0, 0))
	require.NoError(t, err)
	require.Len(t, got, len(list))
	for i := range list {
		same, reason := list[i].SameAs(got[i])
		assert.True(t, same, reason)
	}
}

func TestBadDocuments(t *testing.T) {
	gT = t

	_, err := graphjson.Unmarshal([]byte(`{"graphId": 1, "gVertices": [`), nil)
	assert.True(t, errors.Is(err, frag.ErrUnmarshal))

	X := mustGraph(graphs[0])
	buf, err := graphjson.Marshal(X)
	require.NoError(t, err)
	doc := string(buf)

	// An edge pointing at an AP nobody owns
	srcID := X.Edges()[0].Src().ID()
	bad := strings.Replace(doc, `"srcAPID":`+strconv.FormatInt(int64(srcID), 10)+`,`, `"srcAPID":999,`, 1)
	require.NotEqual(t, doc, bad)
	_, err = graphjson.Unmarshal([]byte(bad), nil)
	assert.True(t, errors.Is(err, frag.ErrReferenceError))

	// Two vertices with the same ID
	bad = strings.Replace(doc, `"vertexId":3`, `"vertexId":2`, 1)
	require.NotEqual(t, doc, bad)
	_, err = graphjson.Unmarshal([]byte(bad), nil)
	assert.True(t, errors.Is(err, frag.ErrDuplicateVtxID))

	bad = strings.Replace(doc, `"MolecularFragment"`, `"Molecule"`, 1)
	_, err = graphjson.Unmarshal([]byte(bad), nil)
	assert.True(t, errors.Is(err, frag.ErrBadEncoding))
}
