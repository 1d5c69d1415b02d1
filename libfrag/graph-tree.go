package libfrag

import (
	"github.com/2x3systems/gofrag/frag"
	mapset "github.com/deckarep/golang-set"
	"github.com/pkg/errors"
)

// SourceVertex returns the root of the spanning tree.  The first vertex is assumed to be the root unless it
// has a parent, in which case parent links are followed up to the true root.
func (X *Graph) SourceVertex() (*Vertex, error) {
	if len(X.verts) == 0 {
		return nil, nil
	}
	v0 := X.verts[0]
	if v0.EdgeToParent() == nil {
		return v0, nil
	}
	parents, err := X.ParentTree(v0)
	if err != nil {
		return nil, err
	}
	return parents[len(parents)-1], nil
}

// ParentTree returns the chain of ancestors of v, nearest first.  A vertex seen twice means the parent
// relation is cyclic, which is reported as ErrCyclicParentChain.
func (X *Graph) ParentTree(v *Vertex) ([]*Vertex, error) {
	if v.graph != X {
		return nil, errors.Wrapf(frag.ErrVtxNotInGraph, "vertex %v", v)
	}
	var parents []*Vertex
	visited := mapset.NewThreadUnsafeSet()
	visited.Add(v)
	for p := v.Parent(); p != nil; p = p.Parent() {
		if !visited.Add(p) {
			return nil, errors.Wrapf(frag.ErrCyclicParentChain, "vertex %v revisited while walking up from %v", p, v)
		}
		parents = append(parents, p)
	}
	return parents, nil
}

// Level returns the depth of v in the spanning tree where the root is at level -1.
func (X *Graph) Level(v *Vertex) (int, error) {
	parents, err := X.ParentTree(v)
	if err != nil {
		return 0, err
	}
	return len(parents) - 1, nil
}

// TreeOpts bounds a walk down the spanning tree.
type TreeOpts struct {
	Layers         int       // max layers below the seed; 0 means no limit
	StopBeforeRCVs bool      // ring-closing vertices are neither included nor explored
	Frontier       []*Vertex // included, but not explored
}

// ChildrenTree returns the descendants of v in depth-first order, v excluded.
func (X *Graph) ChildrenTree(v *Vertex, opts TreeOpts) ([]*Vertex, error) {
	if v.graph != X {
		return nil, errors.Wrapf(frag.ErrVtxNotInGraph, "vertex %v", v)
	}
	frontier := mapset.NewThreadUnsafeSet()
	for _, fv := range opts.Frontier {
		frontier.Add(fv)
	}
	visited := mapset.NewThreadUnsafeSet()
	visited.Add(v)

	var kids []*Vertex
	var walk func(at *Vertex, layer int) error
	walk = func(at *Vertex, layer int) error {
		if opts.Layers > 0 && layer >= opts.Layers {
			return nil
		}
		for _, child := range at.Children() {
			if opts.StopBeforeRCVs && child.IsRCV {
				continue
			}
			if !visited.Add(child) {
				return errors.Wrapf(frag.ErrCyclicParentChain, "vertex %v reached twice", child)
			}
			kids = append(kids, child)
			if frontier.Contains(child) {
				continue
			}
			if err := walk(child, layer+1); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(v, 0); err != nil {
		return nil, err
	}
	return kids, nil
}

// PathBetween returns the tree path from a to b, both included, passing through their deepest common ancestor.
func (X *Graph) PathBetween(a, b *Vertex) ([]*Vertex, error) {
	upA, err := X.ParentTree(a)
	if err != nil {
		return nil, err
	}
	upB, err := X.ParentTree(b)
	if err != nil {
		return nil, err
	}
	upA = append([]*Vertex{a}, upA...)
	upB = append([]*Vertex{b}, upB...)

	posInA := make(map[*Vertex]int, len(upA))
	for i, v := range upA {
		posInA[v] = i
	}
	for j, v := range upB {
		i, common := posInA[v]
		if !common {
			continue
		}
		path := make([]*Vertex, 0, i+j+1)
		path = append(path, upA[:i+1]...)
		for k := j - 1; k >= 0; k-- {
			path = append(path, upB[k])
		}
		return path, nil
	}
	return nil, errors.Wrapf(frag.ErrMultipleRoots, "no path between %v and %v", a, b)
}

// isAncestorOf reports if anc sits on the parent chain of v.
func (X *Graph) isAncestorOf(anc, v *Vertex) bool {
	parents, err := X.ParentTree(v)
	if err != nil {
		return false
	}
	for _, p := range parents {
		if p == anc {
			return true
		}
	}
	return false
}
