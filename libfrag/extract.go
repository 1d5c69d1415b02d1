package libfrag

import (
	"github.com/2x3systems/gofrag/frag"
	"github.com/pkg/errors"
)

// ExtractSubgraph returns a new graph holding a copy of seed and of what lies below it, as bounded by opts.
// Rings reaching outside the copied vertices are lost; symmetric sets are trimmed to the copied vertices.
func (X *Graph) ExtractSubgraph(seed *Vertex, opts TreeOpts) (*Graph, error) {
	if seed.graph != X {
		return nil, errors.Wrapf(frag.ErrVtxNotInGraph, "seed vertex %v", seed)
	}
	kids, err := X.ChildrenTree(seed, opts)
	if err != nil {
		return nil, err
	}
	return X.ExtractVertices(append([]*Vertex{seed}, kids...))
}

// ExtractVertices returns a new graph holding a copy of the given vertices of X and everything linking them.
func (X *Graph) ExtractVertices(keep []*Vertex) (*Graph, error) {
	for _, v := range keep {
		if v.graph != X {
			return nil, errors.Wrapf(frag.ErrVtxNotInGraph, "vertex %v", v)
		}
	}
	sub, m := X.cloneWithMap()
	kept := make(map[*Vertex]bool, len(keep))
	for _, v := range keep {
		kept[m.verts[v]] = true
	}
	for _, v := range append([]*Vertex(nil), sub.verts...) {
		if !kept[v] {
			if err := sub.RemoveVertex(v); err != nil {
				sub.Reclaim()
				return nil, err
			}
		}
	}
	return sub, nil
}
