package libfrag

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/2x3systems/gofrag/frag"
	"github.com/emirpasic/gods/trees/redblacktree"
	"github.com/emirpasic/gods/utils"
	"github.com/pkg/errors"
)

// Graph owns vertices, edges, rings and symmetric sets.  The edges form a spanning tree (single root,
// parent-to-child direction); rings add chords over it.  A Graph may be the inner graph of a template
// vertex, its jacket.
//
// A Graph is not safe for concurrent use.
type Graph struct {
	GraphID int64

	ids     frag.IDAllocator
	verts   []*Vertex
	byID    map[frag.VtxID]*Vertex
	edges   []*Edge
	rings   []*Ring
	symSets []*SymmetricSet
	jacket  *Vertex

	proj   *projection // undirected view for isomorphism, nil when stale
	kernel *projection // shape-only view, nil when stale
	log    *editLog
}

// NewGraph returns an empty graph that mints IDs from the given allocator (or from its own counter if nil).
func NewGraph(ids frag.IDAllocator) *Graph {
	X := graphPool.Get().(*Graph)
	X.Init(ids)
	return X
}

// Init resets X to an empty graph.
func (X *Graph) Init(ids frag.IDAllocator) {
	X.CleanUp()
	if ids == nil {
		ids = frag.NewCounter(0, 0)
	}
	X.ids = ids
}

// CleanUp clears all lists and caches and detaches every vertex.
func (X *Graph) CleanUp() {
	for _, v := range X.verts {
		for _, ap := range v.aps {
			ap.user = nil
		}
		v.graph = nil
	}
	X.GraphID = 0
	X.verts = X.verts[:0]
	X.edges = X.edges[:0]
	X.rings = X.rings[:0]
	X.symSets = X.symSets[:0]
	if X.byID == nil {
		X.byID = make(map[frag.VtxID]*Vertex)
	} else {
		for id := range X.byID {
			delete(X.byID, id)
		}
	}
	X.jacket = nil
	X.log = nil
	X.onGraphChanged()
}

// Reclaim cleans up X and returns it to the pool.  X must not be used afterwards.
func (X *Graph) Reclaim() {
	if X != nil {
		X.CleanUp()
		X.ids = nil
		graphPool.Put(X)
	}
}

var graphPool = sync.Pool{
	New: func() interface{} {
		return new(Graph)
	},
}

func (X *Graph) onGraphChanged() {
	if X == nil {
		return
	}
	X.proj = nil
	X.kernel = nil
}

// IDs returns the allocator this graph mints IDs from.
func (X *Graph) IDs() frag.IDAllocator {
	return X.ids
}

// Jacket returns the template vertex embedding this graph, or nil.
func (X *Graph) Jacket() *Vertex {
	return X.jacket
}

func (X *Graph) Vertices() []*Vertex {
	return X.verts
}

func (X *Graph) NumVertices() int {
	return len(X.verts)
}

func (X *Graph) Edges() []*Edge {
	return X.edges
}

func (X *Graph) NumEdges() int {
	return len(X.edges)
}

func (X *Graph) Rings() []*Ring {
	return X.rings
}

func (X *Graph) NumRings() int {
	return len(X.rings)
}

// VertexAt returns the vertex at the given position, or nil.
func (X *Graph) VertexAt(pos int) *Vertex {
	if pos < 0 || pos >= len(X.verts) {
		return nil
	}
	return X.verts[pos]
}

func (X *Graph) VertexWithID(id frag.VtxID) *Vertex {
	return X.byID[id]
}

func (X *Graph) Contains(v *Vertex) bool {
	return v != nil && v.graph == X
}

// IndexOf returns the position of v in this graph, or -1.
func (X *Graph) IndexOf(v *Vertex) int {
	for i, vi := range X.verts {
		if vi == v {
			return i
		}
	}
	return -1
}

func (X *Graph) indexOfEdge(e *Edge) int {
	for i, ei := range X.edges {
		if ei == e {
			return i
		}
	}
	return -1
}

func (X *Graph) indexOfRing(r *Ring) int {
	for i, ri := range X.rings {
		if ri == r {
			return i
		}
	}
	return -1
}

func (X *Graph) ContainsEdge(e *Edge) bool {
	return X.indexOfEdge(e) >= 0
}

// MaxVertexID returns the largest vertex ID in this graph, or 0 if empty.
func (X *Graph) MaxVertexID() frag.VtxID {
	maxID := frag.VtxID(0)
	for _, v := range X.verts {
		if v.id > maxID {
			maxID = v.id
		}
	}
	return maxID
}

// AddVertex appends v, which must be detached and have an ID not yet present.
func (X *Graph) AddVertex(v *Vertex) error {
	if v.graph == X {
		return errors.Wrapf(frag.ErrDuplicateVtxID, "vertex %v already in graph", v)
	}
	if v.graph != nil {
		return errors.Wrapf(frag.ErrVtxInOtherGraph, "vertex %v", v)
	}
	if _, exists := X.byID[v.id]; exists {
		return errors.Wrapf(frag.ErrDuplicateVtxID, "vertex ID %d", v.id)
	}
	X.insertVtx(len(X.verts), v)
	return nil
}

// RemoveVertex removes v along with its edges, the rings through it and its symmetric set membership.
func (X *Graph) RemoveVertex(v *Vertex) error {
	if v.graph != X {
		return errors.Wrapf(frag.ErrVtxNotInGraph, "vertex %v", v)
	}
	for _, r := range X.RingsInvolving(v) {
		X.deleteRing(r)
	}
	for _, ap := range v.aps {
		if ap.user != nil {
			X.deleteEdge(ap.user)
		}
	}
	X.dropVertexFromSymSets(v)
	X.deleteVtx(v)
	return nil
}

// AddEdge adds e; both APs must belong to vertices of this graph and be free.
func (X *Graph) AddEdge(e *Edge) error {
	for _, ap := range [2]*AP{e.src, e.trg} {
		if ap == nil || ap.owner == nil || ap.owner.graph != X {
			return errors.Wrapf(frag.ErrAPNotInGraph, "edge %v", e)
		}
		if ap.user != nil {
			return errors.Wrapf(frag.ErrAPInUse, "AP %v", ap)
		}
	}
	if e.src.owner == e.trg.owner {
		return errors.Wrapf(frag.ErrBrokenEdge, "edge %v links a vertex to itself", e)
	}
	X.insertEdge(len(X.edges), e)
	return nil
}

func (X *Graph) RemoveEdge(e *Edge) error {
	if !X.ContainsEdge(e) {
		return errors.Wrapf(frag.ErrEdgeNotInGraph, "edge %v", e)
	}
	X.deleteEdge(e)
	return nil
}

// AddRing adds a ring whose vertices all belong to this graph.
func (X *Graph) AddRing(r *Ring) error {
	for _, v := range r.verts {
		if v.graph != X {
			return errors.Wrapf(frag.ErrVtxNotInGraph, "ring vertex %v", v)
		}
	}
	X.insertRing(len(X.rings), r)
	return nil
}

func (X *Graph) RemoveRing(r *Ring) error {
	if X.indexOfRing(r) < 0 {
		return frag.ErrRingNotInGraph
	}
	X.deleteRing(r)
	return nil
}

// CloseRing adds the ring closed by a chord between two ring-closing vertices.  The chord takes the bond
// type of the edges to the RCVs' parents, which must agree.
func (X *Graph) CloseRing(head, tail *Vertex) (*Ring, error) {
	eH, eT := head.EdgeToParent(), tail.EdgeToParent()
	if eH == nil || eT == nil {
		return nil, errors.Wrap(frag.ErrBadRing, "ring-closing vertex without parent")
	}
	if eH.Bond != eT.Bond {
		return nil, errors.Wrapf(frag.ErrChordBondMismatch, "%v vs %v for vertices %v and %v", eH.Bond, eT.Bond, head, tail)
	}
	return X.CloseRingWithBond(head, tail, eH.Bond)
}

// CloseRingWithBond adds the ring made of the tree path from head to tail.
func (X *Graph) CloseRingWithBond(head, tail *Vertex, bt frag.BondType) (*Ring, error) {
	path, err := X.PathBetween(head, tail)
	if err != nil {
		return nil, err
	}
	r := NewRing(path, bt)
	if err := X.AddRing(r); err != nil {
		return nil, err
	}
	return r, nil
}

func (X *Graph) IsVertexInRing(v *Vertex) bool {
	for _, r := range X.rings {
		if r.Contains(v) {
			return true
		}
	}
	return false
}

// RingsInvolving returns the rings containing all the given vertices.
func (X *Graph) RingsInvolving(verts ...*Vertex) []*Ring {
	var rings []*Ring
	for _, r := range X.rings {
		all := true
		for _, v := range verts {
			if !r.Contains(v) {
				all = false
				break
			}
		}
		if all {
			rings = append(rings, r)
		}
	}
	return rings
}

// RingsInvolvingAny returns the rings containing at least one of the given vertices.
func (X *Graph) RingsInvolvingAny(verts ...*Vertex) []*Ring {
	var rings []*Ring
	for _, r := range X.rings {
		for _, v := range verts {
			if r.Contains(v) {
				rings = append(rings, r)
				break
			}
		}
	}
	return rings
}

// AvailableAPs returns the free APs of all vertices, in vertex then AP order.
func (X *Graph) AvailableAPs() []*AP {
	var aps []*AP
	for _, v := range X.verts {
		aps = append(aps, v.AvailableAPs()...)
	}
	return aps
}

func (X *Graph) AvailableAPsThroughout() []*AP {
	var aps []*AP
	for _, v := range X.verts {
		aps = append(aps, v.FreeAPsThroughout()...)
	}
	return aps
}

// APWithID returns the AP with the given ID on any vertex of this graph.
func (X *Graph) APWithID(id frag.APID) *AP {
	for _, v := range X.verts {
		if ap := v.APWithID(id); ap != nil {
			return ap
		}
	}
	return nil
}

// Clone returns a structurally independent deep copy preserving vertex and AP IDs.
func (X *Graph) Clone() *Graph {
	dup, _ := X.cloneWithMap()
	return dup
}

type cloneMap struct {
	verts map[*Vertex]*Vertex
	aps   map[*AP]*AP
}

func (X *Graph) cloneWithMap() (*Graph, cloneMap) {
	dup := NewGraph(X.ids)
	dup.GraphID = X.GraphID

	m := cloneMap{
		verts: make(map[*Vertex]*Vertex, len(X.verts)),
		aps:   make(map[*AP]*AP),
	}
	for _, v := range X.verts {
		vDup, apMap := v.cloneWithMap()
		for k, apDup := range apMap {
			m.aps[k] = apDup
		}
		m.verts[v] = vDup
		dup.verts = append(dup.verts, vDup)
		dup.byID[vDup.id] = vDup
		vDup.graph = dup
	}
	for _, e := range X.edges {
		eDup := NewEdge(m.aps[e.src], m.aps[e.trg], e.Bond)
		eDup.src.user = eDup
		eDup.trg.user = eDup
		dup.edges = append(dup.edges, eDup)
	}
	for _, r := range X.rings {
		rDup := &Ring{Bond: r.Bond, verts: make([]*Vertex, len(r.verts))}
		for i, v := range r.verts {
			rDup.verts[i] = m.verts[v]
		}
		dup.rings = append(dup.rings, rDup)
	}
	for _, ss := range X.symSets {
		ssDup := &SymmetricSet{members: make([]*Vertex, len(ss.members))}
		for i, v := range ss.members {
			ssDup.members[i] = m.verts[v]
		}
		dup.symSets = append(dup.symSets, ssDup)
	}
	return dup, m
}

// RenumberVertices gives every vertex a fresh ID from the allocator and returns the old-to-new map.
// Each vertex remembers its previous ID (see Vertex.PrevID).
func (X *Graph) RenumberVertices() map[frag.VtxID]frag.VtxID {
	// Visit in ascending ID order so the assignment does not depend on insertion order
	byOldID := redblacktree.NewWith(utils.Int64Comparator)
	for _, v := range X.verts {
		byOldID.Put(int64(v.id), v)
	}

	oldToNew := make(map[frag.VtxID]frag.VtxID, len(X.verts))
	for it := byOldID.Iterator(); it.Next(); {
		v := it.Value().(*Vertex)
		newID := X.ids.NextVtxID()
		oldToNew[v.id] = newID
		X.setVtxID(v, newID)
	}
	X.onGraphChanged()
	return oldToNew
}

// RenumberAPs gives every AP on the vertices of X a fresh ID from the allocator.
func (X *Graph) RenumberAPs() {
	for _, v := range X.verts {
		for _, ap := range v.aps {
			X.setAPID(ap, X.ids.NextAPID())
		}
	}
}

// WriteAsString writes a one-line summary of X.
func (X *Graph) WriteAsString(out io.Writer) {
	var b strings.Builder
	fmt.Fprintf(&b, "graph %d: V=[", X.GraphID)
	for i, v := range X.verts {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(v.String())
	}
	b.WriteString("] E=[")
	for i, e := range X.edges {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(e.String())
	}
	b.WriteString("] R=[")
	for i, r := range X.rings {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(r.String())
	}
	b.WriteString("] S=[")
	for i, ss := range X.symSets {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(ss.String())
	}
	b.WriteString("]")
	io.WriteString(out, b.String())
}

func (X *Graph) String() string {
	var b strings.Builder
	X.WriteAsString(&b)
	return b.String()
}
