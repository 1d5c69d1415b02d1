package libfrag

import (
	"github.com/2x3systems/gofrag/frag"
	"github.com/pkg/errors"
)

// Validate checks every structural invariant of X and of the graphs nested in it.
func (X *Graph) Validate() error {
	apIDs := make(map[frag.APID]*AP)
	for _, v := range X.verts {
		if v.graph != X {
			return errors.Wrapf(frag.ErrVtxNotInGraph, "vertex %v does not point back to its graph", v)
		}
		if X.byID[v.id] != v {
			return errors.Wrapf(frag.ErrDuplicateVtxID, "vertex ID %d", v.id)
		}
		for _, ap := range v.aps {
			if ap.owner != v {
				return errors.Wrapf(frag.ErrBrokenEdge, "AP %v does not point back to its vertex", ap)
			}
			if other, dupe := apIDs[ap.id]; dupe && other != ap {
				return errors.Wrapf(frag.ErrDuplicateAPID, "AP ID %d", ap.id)
			}
			apIDs[ap.id] = ap
			if ap.user != nil && !X.ContainsEdge(ap.user) {
				return errors.Wrapf(frag.ErrBrokenEdge, "AP %v uses an edge outside the graph", ap)
			}
		}
	}
	if len(X.byID) != len(X.verts) {
		return errors.Wrap(frag.ErrDuplicateVtxID, "vertex index out of sync")
	}

	for _, e := range X.edges {
		if e.src.user != e || e.trg.user != e {
			return errors.Wrapf(frag.ErrBrokenEdge, "edge %v not referenced by its APs", e)
		}
		if e.src.owner == nil || e.trg.owner == nil || e.src.owner.graph != X || e.trg.owner.graph != X {
			return errors.Wrapf(frag.ErrBrokenEdge, "edge %v links vertices outside the graph", e)
		}
		if e.src.owner == e.trg.owner {
			return errors.Wrapf(frag.ErrBrokenEdge, "edge %v links a vertex to itself", e)
		}
	}

	roots := 0
	for _, v := range X.verts {
		if v.EdgeToParent() == nil {
			roots++
		}
		if _, err := X.ParentTree(v); err != nil {
			return err
		}
	}
	if len(X.verts) > 0 && roots != 1 {
		return errors.Wrapf(frag.ErrMultipleRoots, "%d vertices without parent", roots)
	}

	for _, r := range X.rings {
		if r.Size() < 3 {
			return errors.Wrapf(frag.ErrBadRing, "ring %v has fewer than 3 vertices", r)
		}
		if !r.Head().IsRCV || !r.Tail().IsRCV {
			return errors.Wrapf(frag.ErrBadRing, "ring %v does not end on ring-closing vertices", r)
		}
		for i, v := range r.verts {
			if v.graph != X {
				return errors.Wrapf(frag.ErrBadRing, "ring %v holds a vertex outside the graph", r)
			}
			if i > 0 && v.EdgeWith(r.verts[i-1]) == nil {
				return errors.Wrapf(frag.ErrBadRing, "ring %v: %v and %v are not linked", r, r.verts[i-1], v)
			}
		}
	}

	seen := make(map[*Vertex]*SymmetricSet)
	for _, ss := range X.symSets {
		if ss.Size() < 2 {
			return errors.Wrapf(frag.ErrSymSetConflict, "symmetric set %v has fewer than 2 members", ss)
		}
		for _, v := range ss.members {
			if v.graph != X {
				return errors.Wrapf(frag.ErrVtxNotInGraph, "symmetric set member %v", v)
			}
			if other := seen[v]; other != nil {
				return errors.Wrapf(frag.ErrSymSetConflict, "vertex %v in sets %v and %v", v, other, ss)
			}
			seen[v] = ss
		}
	}

	for _, v := range X.verts {
		if v.Kind != Kind_Template || v.inner == nil {
			continue
		}
		if v.inner.jacket != v {
			return errors.Wrapf(frag.ErrNotTemplate, "inner graph of %v does not point back to it", v)
		}
		if err := v.inner.Validate(); err != nil {
			return errors.Wrapf(err, "inside template %v", v)
		}
		for _, innerAP := range v.inner.AvailableAPs() {
			if v.OuterAP(innerAP) == nil {
				return errors.Wrapf(frag.ErrMissingProjection, "template %v does not project inner AP %v", v, innerAP)
			}
		}
	}
	return nil
}
