package libfrag

import (
	"fmt"
	"sort"

	"github.com/2x3systems/gofrag/frag"
	"github.com/pkg/errors"
)

// SymmetricSet groups vertices declared equivalent under the current symmetry model.
// Members are held by handle so renumbering never leaves a stale ID behind.
type SymmetricSet struct {
	members []*Vertex
}

func NewSymmetricSet(members ...*Vertex) *SymmetricSet {
	ss := &SymmetricSet{}
	for _, v := range members {
		if !ss.Contains(v) {
			ss.members = append(ss.members, v)
		}
	}
	return ss
}

func (ss *SymmetricSet) Size() int {
	return len(ss.members)
}

func (ss *SymmetricSet) Members() []*Vertex {
	return append([]*Vertex(nil), ss.members...)
}

func (ss *SymmetricSet) Contains(v *Vertex) bool {
	return ss.indexOf(v) >= 0
}

func (ss *SymmetricSet) indexOf(v *Vertex) int {
	for i, vi := range ss.members {
		if vi == v {
			return i
		}
	}
	return -1
}

// IDs returns the member vertex IDs in ascending order.
func (ss *SymmetricSet) IDs() []frag.VtxID {
	ids := make([]frag.VtxID, len(ss.members))
	for i, v := range ss.members {
		ids[i] = v.id
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (ss *SymmetricSet) String() string {
	return fmt.Sprint(ss.IDs())
}

func (X *Graph) SymSets() []*SymmetricSet {
	return X.symSets
}

func (X *Graph) NumSymSets() int {
	return len(X.symSets)
}

// SymSetFor returns the symmetric set v belongs to, or nil.
func (X *Graph) SymSetFor(v *Vertex) *SymmetricSet {
	for _, ss := range X.symSets {
		if ss.Contains(v) {
			return ss
		}
	}
	return nil
}

func (X *Graph) HasSymmetryInvolving(v *Vertex) bool {
	return X.SymSetFor(v) != nil
}

// SymVerticesFor returns all vertices symmetric to v (v included), or nil if v has no symmetric partner.
func (X *Graph) SymVerticesFor(v *Vertex) []*Vertex {
	if ss := X.SymSetFor(v); ss != nil {
		return ss.Members()
	}
	return nil
}

// AddSymmetricSet adds a set of at least two vertices of this graph.
// A vertex already in another set makes it fail with ErrSymSetConflict; use AddToSymmetricSetOf to grow a set.
func (X *Graph) AddSymmetricSet(ss *SymmetricSet) error {
	for _, v := range ss.members {
		if v.graph != X {
			return errors.Wrapf(frag.ErrVtxNotInGraph, "symmetric set member %v", v)
		}
		if existing := X.SymSetFor(v); existing != nil {
			return errors.Wrapf(frag.ErrSymSetConflict, "vertex %v is already in %v", v, existing)
		}
	}
	if ss.Size() < 2 {
		return nil
	}
	X.insertSymSet(len(X.symSets), NewSymmetricSet(ss.members...))
	return nil
}

// AddToSymmetricSetOf makes newV symmetric to v, creating a set if v had none.
func (X *Graph) AddToSymmetricSetOf(v, newV *Vertex) error {
	if v.graph != X || newV.graph != X {
		return frag.ErrVtxNotInGraph
	}
	if existing := X.SymSetFor(newV); existing != nil {
		if existing.Contains(v) {
			return nil
		}
		return errors.Wrapf(frag.ErrSymSetConflict, "vertex %v", newV)
	}
	if ss := X.SymSetFor(v); ss != nil {
		X.symSetAdd(ss, newV)
		return nil
	}
	X.insertSymSet(len(X.symSets), NewSymmetricSet(v, newV))
	return nil
}

func (X *Graph) RemoveSymmetricSet(ss *SymmetricSet) {
	for _, ssI := range X.symSets {
		if ssI == ss {
			X.deleteSymSet(ss)
			return
		}
	}
}

// dropVertexFromSymSets shrinks the set holding v, dropping it once fewer than two members remain.
func (X *Graph) dropVertexFromSymSets(v *Vertex) {
	ss := X.SymSetFor(v)
	if ss == nil {
		return
	}
	if ss.Size() < 3 {
		X.deleteSymSet(ss)
	} else {
		X.symSetRemove(ss, v)
	}
}

// dropSymSetsWithLevelMismatch discards sets whose members no longer sit at the same tree level.
func (X *Graph) dropSymSetsWithLevelMismatch() error {
	var toDrop []*SymmetricSet
	for _, ss := range X.symSets {
		level := 0
		for i, v := range ss.members {
			lvl, err := X.Level(v)
			if err != nil {
				return err
			}
			if i == 0 {
				level = lvl
			} else if lvl != level {
				toDrop = append(toDrop, ss)
				break
			}
		}
	}
	for _, ss := range toDrop {
		X.deleteSymSet(ss)
	}
	return nil
}

// reassignSymmetricLabels marks every vertex with a label shared by the members of its symmetric set.
// The labels survive cloning and are turned back into sets by convertSymmetricLabelsToSymmetricSets().
func (X *Graph) reassignSymmetricLabels() {
	for _, v := range X.verts {
		v.symLabel = ""
	}
	for i, ss := range X.symSets {
		label := fmt.Sprintf("ss%d-%d", X.GraphID, i)
		for _, v := range ss.members {
			v.symLabel = label
		}
	}
	for _, v := range X.verts {
		if v.symLabel == "" {
			v.symLabel = fmt.Sprintf("v%d-%d", X.GraphID, v.id)
		}
	}
}

// convertSymmetricLabelsToSymmetricSets groups vertices by label into symmetric sets and clears all labels.
func (X *Graph) convertSymmetricLabelsToSymmetricSets() error {
	var labels []string
	byLabel := make(map[string][]*Vertex)
	for _, v := range X.verts {
		if v.symLabel == "" {
			continue
		}
		if _, seen := byLabel[v.symLabel]; !seen {
			labels = append(labels, v.symLabel)
		}
		byLabel[v.symLabel] = append(byLabel[v.symLabel], v)
		v.symLabel = ""
	}

	for _, label := range labels {
		verts := byLabel[label]
		if len(verts) < 2 {
			continue
		}
		var ss *SymmetricSet
		for _, v := range verts {
			if ss = X.SymSetFor(v); ss != nil {
				break
			}
		}
		if ss == nil {
			X.insertSymSet(len(X.symSets), NewSymmetricSet(verts...))
			continue
		}
		for _, v := range verts {
			if ss.Contains(v) {
				continue
			}
			if other := X.SymSetFor(v); other != nil {
				return errors.Wrapf(frag.ErrSymSetConflict, "vertex %v", v)
			}
			X.symSetAdd(ss, v)
		}
	}
	return nil
}
