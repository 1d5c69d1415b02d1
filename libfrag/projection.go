package libfrag

import (
	"github.com/2x3systems/gofrag/frag"
)

// projNode is a node of an undirected view of a Graph: either a vertex or, in a kernel, a free AP.
type projNode struct {
	v  *Vertex
	ap *AP
}

// projArc is one side of an undirected link.  near and far are the AP indexes at this end and at the
// other end, -1 where no AP is involved.
type projArc struct {
	to   int
	near int
	far  int
	bond frag.BondType
}

// projection is the undirected view of a Graph used for isomorphism and fingerprints.  Ring-closing vertices
// that close a ring are folded into a chord between their parents.
type projection struct {
	nodes []projNode
	index map[*Vertex]int
	arcs  [][]projArc
}

func (p *projection) addNode(n projNode) int {
	idx := len(p.nodes)
	p.nodes = append(p.nodes, n)
	p.arcs = append(p.arcs, nil)
	if n.v != nil {
		p.index[n.v] = idx
	}
	return idx
}

func (p *projection) link(a, b, apA, apB int, bt frag.BondType) {
	p.arcs[a] = append(p.arcs[a], projArc{to: b, near: apA, far: apB, bond: bt})
	p.arcs[b] = append(p.arcs[b], projArc{to: a, near: apB, far: apA, bond: bt})
}

// arcsBetween returns the arcs leaving a that reach b.
func (p *projection) arcsBetween(a, b int) []projArc {
	var arcs []projArc
	for _, arc := range p.arcs[a] {
		if arc.to == b {
			arcs = append(arcs, arc)
		}
	}
	return arcs
}

func (p *projection) numArcs() int {
	n := 0
	for _, arcs := range p.arcs {
		n += len(arcs)
	}
	return n / 2
}

// chordEnd returns the vertex and the AP index a ring chord attaches to on one side of the ring.
func chordEnd(rcv *Vertex) (*Vertex, int) {
	if !rcv.IsRCV {
		return rcv, -1
	}
	if e := rcv.EdgeToParent(); e != nil {
		return e.src.owner, e.src.Index()
	}
	return nil, -1
}

func newProjection(X *Graph, withFreeAPs bool) *projection {
	p := &projection{
		index: make(map[*Vertex]int, len(X.verts)),
	}
	for _, v := range X.verts {
		if v.IsRCV && X.IsVertexInRing(v) {
			continue
		}
		p.addNode(projNode{v: v})
	}
	for _, e := range X.edges {
		src, srcOK := p.index[e.src.owner]
		trg, trgOK := p.index[e.trg.owner]
		if srcOK && trgOK {
			p.link(src, trg, e.src.Index(), e.trg.Index(), e.Bond)
		}
	}
	for _, r := range X.rings {
		vH, apH := chordEnd(r.Head())
		vT, apT := chordEnd(r.Tail())
		h, hOK := p.index[vH]
		t, tOK := p.index[vT]
		if hOK && tOK {
			p.link(h, t, apH, apT, r.Bond)
		}
	}
	if withFreeAPs {
		for i, n := range p.nodes {
			if n.v == nil {
				continue
			}
			for _, ap := range n.v.aps {
				if ap.IsAvailable() {
					apNode := p.addNode(projNode{ap: ap})
					p.link(i, apNode, ap.Index(), -1, ap.Bond)
				}
			}
		}
	}
	return p
}

// undirectedView returns the cached projection of X, building it if stale.
func (X *Graph) undirectedView() *projection {
	if X.proj == nil {
		X.proj = newProjection(X, false)
	}
	return X.proj
}

// kernelView returns the cached shape-only projection of X, where free APs are nodes too.
func (X *Graph) kernelView() *projection {
	if X.kernel == nil {
		X.kernel = newProjection(X, true)
	}
	return X.kernel
}
