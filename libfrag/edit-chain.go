package libfrag

import (
	"github.com/2x3systems/gofrag/frag"
	"github.com/pkg/errors"
	"github.com/plan-systems/klog"
)

type chord struct {
	head, tail *Vertex
	bond       frag.BondType
}

// RemoveChainUpToBranching removes the part of a ring that holds v, up to the nearest branch point on either
// side.  The frame is the ring whose ring-closing vertices sit closest to v.  If both ring-closing vertices
// survive, they are replaced by a direct edge between their parents; otherwise the frame is dropped.  Edges
// along the surviving chain are turned so they point away from its shallowest vertex, which requires each
// reversed AP pair to be compatible.  It reports false, leaving X unchanged, if v is in no ring or the edit
// cannot be done.
func (X *Graph) RemoveChainUpToBranching(v *Vertex, ws *Workspace) (ok bool, err error) {
	if v.graph != X {
		return false, errors.Wrapf(frag.ErrVtxNotInGraph, "vertex %v", v)
	}
	rings := X.RingsInvolving(v)
	if len(rings) == 0 {
		return false, nil
	}
	edit := X.beginEdit()
	defer edit.finish(&ok, &err)

	var frame *Ring
	minDist := -1
	for _, r := range rings {
		dist := r.Distance(r.Head(), v)
		if dT := r.Distance(r.Tail(), v); dT < dist {
			dist = dT
		}
		if minDist < 0 || dist < minDist {
			minDist = dist
			frame = r
		}
	}
	size := frame.Size()
	head, tail, frameBond := frame.Head(), frame.Tail(), frame.Bond

	// Scaffolds are never removed, so they count as branch points
	isBranching := make([]bool, size)
	frameHasBranching := false
	for i, vi := range frame.verts {
		if vi.BBType == frag.BB_Scaffold {
			isBranching[i] = true
			continue
		}
		nonCapped := vi.NumAPs() - vi.CappedAPCountThroughout() - vi.FreeAPCountThroughout()
		if nonCapped > 2 {
			isBranching[i] = true
			frameHasBranching = true
		}
	}
	if len(rings) == 1 && !frameHasBranching {
		klog.V(2).Infof("chain removal at %v: ring %v is all there is", v, frame)
		return false, nil
	}

	posOfV := frame.PositionOf(v)
	downstream, upstream := -1, -1
	for i := 0; i < size; i++ {
		if at := (posOfV + i) % size; isBranching[at] {
			downstream = at
			break
		}
	}
	for i := size - 1; i >= 0; i-- {
		if at := (posOfV + i) % size; isBranching[at] {
			upstream = at
			break
		}
	}
	if downstream < 0 {
		return false, nil
	}

	var remaining, toRemove []*Vertex
	for i := 0; i < size; i++ {
		at := (downstream + i) % size
		remaining = append(remaining, frame.verts[at])
		if at == upstream {
			break
		}
	}
	for i := 0; i < size; i++ {
		at := (upstream + 1 + i) % size
		if at == downstream {
			break
		}
		toRemove = append(toRemove, frame.verts[at])
	}
	if len(toRemove) == 0 {
		return false, nil
	}

	// Removing only the two RCVs would just drop the chord
	if len(toRemove) == 2 && toRemove[0].IsRCV && toRemove[1].IsRCV {
		return false, nil
	}

	// The shallowest surviving vertex anchors the direction of the chain
	var anchor *Vertex
	anchorLevel := 0
	for _, vi := range remaining {
		lvl, err := X.Level(vi)
		if err != nil {
			return false, err
		}
		if anchor == nil || lvl < anchorLevel {
			anchor, anchorLevel = vi, lvl
		}
	}

	if containsVertex(remaining, head) && containsVertex(remaining, tail) {
		eH, eT := head.EdgeToParent(), tail.EdgeToParent()
		if eH == nil || eT == nil {
			return false, errors.Wrapf(frag.ErrBadRing, "ring-closing vertex without parent in %v", frame)
		}
		apSrc, apTrg := eH.src, eT.src
		if err = X.RemoveVertex(head); err != nil {
			return false, err
		}
		if err = X.RemoveVertex(tail); err != nil {
			return false, err
		}
		remaining = withoutVertices(remaining, head, tail)
		if err = X.AddEdge(NewEdge(apSrc, apTrg, frameBond)); err != nil {
			return false, err
		}
	} else {
		X.deleteRing(frame)
	}

	// Walking outwards from the anchor, once an edge points the wrong way every following one does too
	anchorPos := -1
	for i, vi := range remaining {
		if vi == anchor {
			anchorPos = i
		}
	}
	var toReverseA, toReverseB []*Vertex
	for i := anchorPos + 1; anchorPos >= 0 && i < len(remaining); i++ {
		prev, here := remaining[i-1], remaining[i]
		if !containsVertex(prev.Children(), here) {
			if len(toReverseA) == 0 {
				toReverseA = append(toReverseA, prev)
			}
			toReverseA = append(toReverseA, here)
		}
	}
	for i := anchorPos - 1; i >= 0; i-- {
		prev, here := remaining[i+1], remaining[i]
		if !containsVertex(prev.Children(), here) {
			if len(toReverseB) == 0 {
				toReverseB = append(toReverseB, prev)
			}
			toReverseB = append(toReverseB, here)
		}
	}

	var chords []chord
	for _, chain := range [2][]*Vertex{toReverseB, toReverseA} {
		for i := 1; i < len(chain); i++ {
			here, prev := chain[i], chain[i-1]
			for _, r := range X.RingsInvolving(here) {
				chords = append(chords, chord{r.Head(), r.Tail(), r.Bond})
				X.deleteRing(r)
			}
			e := here.EdgeWith(prev)
			if e == nil {
				return false, errors.Wrapf(frag.ErrBrokenEdge, "vertices %v and %v are not linked while removing chain at %v", here, prev, v)
			}
			if e.src.owner != here {
				continue
			}
			newSrc, newTrg := e.trg, e.src
			if !ws.compatible(newSrc, newTrg) {
				klog.V(2).Infof("chain removal at %v: edge %v cannot be reversed", v, e)
				return false, nil
			}
			X.deleteEdge(e)
			if err = X.AddEdge(NewEdge(newSrc, newTrg, e.Bond)); err != nil {
				return false, err
			}
		}
	}

	for _, vtr := range toRemove {
		if vtr.graph == nil {
			continue
		}
		for _, child := range vtr.ChildrenThroughout() {
			if containsVertex(remaining, child) || containsVertex(toRemove, child) || child.graph == nil {
				continue
			}
			if err = child.graph.removeBranchAt(child); err != nil {
				return false, err
			}
		}
		if X.jacket != nil {
			for _, inner := range X.jacket.InterfaceAPs() {
				if inner.owner == vtr {
					if err = X.jacket.removeProjectionOfInnerAP(inner); err != nil {
						return editOutcome(err)
					}
				}
			}
		}
		if err = X.RemoveVertex(vtr); err != nil {
			return false, err
		}
	}

	for _, c := range chords {
		if c.head.graph != X || c.tail.graph != X {
			continue
		}
		if _, err = X.CloseRingWithBond(c.head, c.tail, c.bond); err != nil {
			return false, err
		}
	}

	if err = X.dropSymSetsWithLevelMismatch(); err != nil {
		return false, err
	}
	if err = X.jacketAPsUpdate(); err != nil {
		return editOutcome(err)
	}
	return true, nil
}

func containsVertex(verts []*Vertex, v *Vertex) bool {
	for _, vi := range verts {
		if vi == v {
			return true
		}
	}
	return false
}

func withoutVertices(verts []*Vertex, drop ...*Vertex) []*Vertex {
	kept := verts[:0:0]
	for _, v := range verts {
		if !containsVertex(drop, v) {
			kept = append(kept, v)
		}
	}
	return kept
}
