package libfrag_test

import (
	"strings"
	"testing"

	"github.com/2x3systems/gofrag/libfrag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	onFirstAP = `
frag 1 SCAFFOLD 1 [x:0(-) x:0(-)]
frag 2 FRAGMENT 2 [x:1(-)]
1:0 - 2:0
`
	onSecondAP = `
frag 1 SCAFFOLD 1 [x:0(-) x:0(-)]
frag 2 FRAGMENT 2 [x:1(-)]
1:1 - 2:0
`
	onFirstAPRelabeled = `
frag 20 FRAGMENT 2 [x:1(-)]
frag 10 SCAFFOLD 1 [x:0(-) x:0(-)]
10:0 - 20:0
`
)

func TestIsomorphism(t *testing.T) {
	gT = t

	X := mustGraph(frameGraph)
	dup := X.Clone()
	assert.True(t, X.IsIsomorphicTo(X))
	assert.True(t, X.IsIsomorphicTo(dup))
	assert.True(t, dup.IsIsomorphicTo(X))
	assert.True(t, X.IsIsostructuralTo(dup))

	A, B, C := mustGraph(onFirstAP), mustGraph(onSecondAP), mustGraph(onFirstAPRelabeled)
	assert.True(t, A.IsIsomorphicTo(C))
	assert.True(t, C.IsIsomorphicTo(A))
	assert.False(t, A.IsIsomorphicTo(B))
	assert.False(t, B.IsIsomorphicTo(A))
	assert.True(t, A.IsIsostructuralTo(B))

	same, _ := A.SameAs(C)
	assert.True(t, same)
	same, _ = A.SameAs(B)
	assert.False(t, same)

	// Different building blocks, same shape
	D := mustGraph(strings.Replace(onFirstAP, "FRAGMENT 2", "FRAGMENT 5", 1))
	assert.False(t, A.IsIsomorphicTo(D))
	assert.True(t, A.IsIsostructuralTo(D))

	// A ring chord is not an ordinary edge
	Y := mustGraph(frameGraph)
	require.NoError(t, Y.RemoveRing(Y.Rings()[0]))
	assert.False(t, X.IsIsomorphicTo(Y))
	assert.False(t, X.IsIsostructuralTo(Y))
}

func TestFingerprint(t *testing.T) {
	gT = t

	A, B, C := mustGraph(onFirstAP), mustGraph(onSecondAP), mustGraph(onFirstAPRelabeled)
	assert.Equal(t, A.Fingerprint(), C.Fingerprint())
	assert.NotEqual(t, A.Fingerprint(), B.Fingerprint())
	assert.Len(t, A.Fingerprint().String(), 64)

	X := mustGraph(frameGraph)
	dup := X.Clone()
	dup.RenumberVertices()
	assert.Equal(t, X.Fingerprint(), dup.Fingerprint())
}

func TestGrammarRoundTrip(t *testing.T) {
	gT = t

	for _, Xstr := range []string{symGraph, frameGraph, templateGraph, `
frag 1 SCAFFOLD 1 [x:0@0(-) x:1@1(=) y:0@1] atoms 2 (0/1)
ph 2 UNDEFINED 0 [x:0(-)]
1:0 - 2:0
`} {
		X := mustGraph(Xstr)
		Y, err := libfrag.NewGraphFromString(X.GrammarString(), X.IDs())
		require.NoError(t, err)
		same, reason := X.SameAs(Y)
		assert.True(t, same, reason)
		assert.True(t, X.IsIsomorphicTo(Y))
		assert.Equal(t, X.GrammarString(), Y.GrammarString())
	}

	for _, bad := range []string{
		`frag 1 [x:0(-)] frag 1 [x:0(-)]`,
		`frag 1 [x:0(-)] 1:0 - 2:0`,
		`frag 1 [x:0(-)] 1:3 - 1:0`,
		`frag 1 BOGUS 1 [x:0]`,
		`frag 1 [x:0(-)] { frag 2 [x:0] }`,
	} {
		_, err := libfrag.NewGraphFromString(bad, nil)
		assert.Error(t, err, bad)
	}
}
