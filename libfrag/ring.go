package libfrag

import (
	"fmt"
	"strings"

	"github.com/2x3systems/gofrag/frag"
)

// Ring is a cycle closed by a chord between its head and tail, which are ring-closing vertices.
// Consecutive vertices are linked by edges; head and tail are joined only by the chord.
type Ring struct {
	verts []*Vertex
	Bond  frag.BondType
}

func NewRing(verts []*Vertex, bt frag.BondType) *Ring {
	return &Ring{
		verts: append([]*Vertex(nil), verts...),
		Bond:  bt,
	}
}

func (r *Ring) Size() int {
	return len(r.verts)
}

func (r *Ring) Head() *Vertex {
	if len(r.verts) == 0 {
		return nil
	}
	return r.verts[0]
}

func (r *Ring) Tail() *Vertex {
	if len(r.verts) == 0 {
		return nil
	}
	return r.verts[len(r.verts)-1]
}

func (r *Ring) VertexAt(pos int) *Vertex {
	if pos < 0 || pos >= len(r.verts) {
		return nil
	}
	return r.verts[pos]
}

// Vertices returns a copy of the ring's vertices from head to tail.
func (r *Ring) Vertices() []*Vertex {
	return append([]*Vertex(nil), r.verts...)
}

// PositionOf returns the position of v in this ring, or -1.
func (r *Ring) PositionOf(v *Vertex) int {
	for i, vi := range r.verts {
		if vi == v {
			return i
		}
	}
	return -1
}

func (r *Ring) Contains(v *Vertex) bool {
	return r.PositionOf(v) >= 0
}

// Distance returns how many positions apart a and b are along the ring's list, or -1 if either is absent.
func (r *Ring) Distance(a, b *Vertex) int {
	pA, pB := r.PositionOf(a), r.PositionOf(b)
	if pA < 0 || pB < 0 {
		return -1
	}
	if pA > pB {
		return pA - pB
	}
	return pB - pA
}

// CloserToHead returns whichever of a and b sits nearer the head, or nil if either is absent.
func (r *Ring) CloserToHead(a, b *Vertex) *Vertex {
	pA, pB := r.PositionOf(a), r.PositionOf(b)
	if pA < 0 || pB < 0 {
		return nil
	}
	if pA <= pB {
		return a
	}
	return b
}

func (r *Ring) CloserToTail(a, b *Vertex) *Vertex {
	pA, pB := r.PositionOf(a), r.PositionOf(b)
	if pA < 0 || pB < 0 {
		return nil
	}
	if pA >= pB {
		return a
	}
	return b
}

func (r *Ring) String() string {
	var b strings.Builder
	b.WriteString("[")
	for i, v := range r.verts {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%d", v.id)
	}
	fmt.Fprintf(&b, "]%v", r.Bond)
	return b.String()
}
