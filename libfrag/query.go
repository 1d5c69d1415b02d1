package libfrag

import (
	"github.com/2x3systems/gofrag/frag"
	"github.com/plan-systems/klog"
)

// EdgeQuery constrains the edges of a vertex.  Each non-empty field is a filter of its own: a vertex passes it
// if any of the selected edges matches one of the listed values.
type EdgeQuery struct {
	TrgAPIdx   []int
	SrcAPIdx   []int
	VtxIDs     []frag.VtxID // source vertex for incoming edges, target vertex for outgoing edges
	Bonds      []frag.BondType
	SrcClasses []frag.APClass
	TrgClasses []frag.APClass
}

// VertexQuery selects vertices of a graph.  Empty fields match anything.
type VertexQuery struct {
	VtxIDs  []frag.VtxID
	Kinds   []VtxKind
	BBTypes []frag.BBType
	BBIDs   []int
	Levels  []int
	In      EdgeQuery // the edge to the parent
	Out     EdgeQuery // the edges to the children
}

func anyOf[T comparable](vals []T, x T) bool {
	for _, val := range vals {
		if val == x {
			return true
		}
	}
	return false
}

type vertexFilter struct {
	name string
	on   bool
	keep func(v *Vertex) bool
}

// FindVertices returns the vertices of X matching the query, in graph order.  Filters run in a fixed order:
// vertex ID, kind, building block type, building block ID, level, then the incoming edge, then the outgoing
// edges.  If purgeSym is set, only the first match of each symmetric set is kept.
func (X *Graph) FindVertices(q VertexQuery, purgeSym bool) []*Vertex {
	filters := []vertexFilter{
		{"vertex ID", len(q.VtxIDs) > 0, func(v *Vertex) bool { return anyOf(q.VtxIDs, v.id) }},
		{"kind", len(q.Kinds) > 0, func(v *Vertex) bool { return anyOf(q.Kinds, v.Kind) }},
		{"building block type", len(q.BBTypes) > 0, func(v *Vertex) bool { return anyOf(q.BBTypes, v.BBType) }},
		{"building block ID", len(q.BBIDs) > 0, func(v *Vertex) bool { return anyOf(q.BBIDs, v.BBID) }},
		{"level", len(q.Levels) > 0, func(v *Vertex) bool {
			lvl, err := X.Level(v)
			return err == nil && anyOf(q.Levels, lvl)
		}},
	}
	filters = append(filters, edgeFilters("incoming", q.In, incomingEdges, func(e *Edge) frag.VtxID { return e.src.owner.id })...)
	filters = append(filters, edgeFilters("outgoing", q.Out, outgoingEdges, func(e *Edge) frag.VtxID { return e.trg.owner.id })...)

	matches := append([]*Vertex(nil), X.verts...)
	for _, f := range filters {
		if !f.on {
			continue
		}
		kept := matches[:0]
		for _, v := range matches {
			if f.keep(v) {
				kept = append(kept, v)
			}
		}
		matches = kept
		klog.V(3).Infof("after %s filter: %v", f.name, matches)
	}

	if purgeSym {
		matches = X.removeSymmetryRedundance(matches)
	}
	return matches
}

func incomingEdges(v *Vertex) []*Edge {
	if e := v.EdgeToParent(); e != nil {
		return []*Edge{e}
	}
	return nil
}

func outgoingEdges(v *Vertex) []*Edge {
	var edges []*Edge
	for _, ap := range v.aps {
		if ap.IsSrcInUser() {
			edges = append(edges, ap.user)
		}
	}
	return edges
}

func edgeFilters(dir string, q EdgeQuery, edgesOf func(*Vertex) []*Edge, farVtxID func(*Edge) frag.VtxID) []vertexFilter {
	anyEdge := func(test func(e *Edge) bool) func(v *Vertex) bool {
		return func(v *Vertex) bool {
			for _, e := range edgesOf(v) {
				if test(e) {
					return true
				}
			}
			return false
		}
	}
	return []vertexFilter{
		{dir + " edge target AP", len(q.TrgAPIdx) > 0, anyEdge(func(e *Edge) bool { return anyOf(q.TrgAPIdx, e.trg.Index()) })},
		{dir + " edge source AP", len(q.SrcAPIdx) > 0, anyEdge(func(e *Edge) bool { return anyOf(q.SrcAPIdx, e.src.Index()) })},
		{dir + " edge vertex ID", len(q.VtxIDs) > 0, anyEdge(func(e *Edge) bool { return anyOf(q.VtxIDs, farVtxID(e)) })},
		{dir + " edge bond", len(q.Bonds) > 0, anyEdge(func(e *Edge) bool { return anyOf(q.Bonds, e.Bond) })},
		{dir + " edge source class", len(q.SrcClasses) > 0, anyEdge(func(e *Edge) bool { return anyOf(q.SrcClasses, e.src.Class) })},
		{dir + " edge target class", len(q.TrgClasses) > 0, anyEdge(func(e *Edge) bool { return anyOf(q.TrgClasses, e.trg.Class) })},
	}
}

// removeSymmetryRedundance keeps only the first of the given vertices from each symmetric set.
func (X *Graph) removeSymmetryRedundance(verts []*Vertex) []*Vertex {
	seen := make(map[*SymmetricSet]bool)
	kept := make([]*Vertex, 0, len(verts))
	for _, v := range verts {
		if ss := X.SymSetFor(v); ss != nil {
			if seen[ss] {
				continue
			}
			seen[ss] = true
		}
		kept = append(kept, v)
	}
	return kept
}
