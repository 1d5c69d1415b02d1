package libfrag

import (
	"github.com/2x3systems/gofrag/frag"
)

// editLog records the inverse of every raw change made while an edit is in progress so that a failed
// edit leaves all affected graphs exactly as they were.  One log is shared by a graph and every graph
// that (transitively) embeds it.
type editLog struct {
	undo   []func()
	graphs []*Graph
}

// beginEdit starts an edit on X.  It returns nil if X is already part of an edit in progress, in which
// case the outermost edit owns rollback.
func (X *Graph) beginEdit() *editLog {
	var chain []*Graph
	for g := X; g != nil; {
		if g.log != nil {
			for _, inner := range chain {
				g.joinEdit(inner)
			}
			return nil
		}
		chain = append(chain, g)
		if g.jacket == nil {
			break
		}
		g = g.jacket.graph
	}

	log := &editLog{}
	for g := X; g != nil; {
		g.log = log
		log.graphs = append(log.graphs, g)
		if g.jacket == nil {
			break
		}
		g = g.jacket.graph
	}
	return log
}

// finish closes the edit, rolling back every recorded change unless ok is set and no error was returned.
// Intended to be deferred right after beginEdit().
func (log *editLog) finish(ok *bool, err *error) {
	if log == nil {
		return
	}
	failed := (ok != nil && !*ok) || (err != nil && *err != nil)
	for _, g := range log.graphs {
		g.log = nil
	}
	if failed {
		for i := len(log.undo) - 1; i >= 0; i-- {
			log.undo[i]()
		}
	}
	for _, g := range log.graphs {
		g.onGraphChanged()
	}
	log.undo = nil
	log.graphs = nil
}

func (X *Graph) record(undo func()) {
	if X != nil && X.log != nil {
		X.log.undo = append(X.log.undo, undo)
	}
}

// joinEdit attaches an inner graph to the edit log of X (if any) so its raw changes are recorded too.
func (X *Graph) joinEdit(inner *Graph) {
	if X.log == nil || inner == nil || inner.log == X.log {
		return
	}
	inner.log = X.log
	X.log.graphs = append(X.log.graphs, inner)
}

func (X *Graph) insertVtx(pos int, v *Vertex) {
	X.verts = append(X.verts, nil)
	copy(X.verts[pos+1:], X.verts[pos:])
	X.verts[pos] = v
	X.byID[v.id] = v
	v.graph = X
	if v.inner != nil {
		X.joinEdit(v.inner)
	}
	X.onGraphChanged()
	X.record(func() { X.deleteVtx(v) })
}

func (X *Graph) deleteVtx(v *Vertex) {
	pos := X.IndexOf(v)
	if pos < 0 {
		return
	}
	X.verts = append(X.verts[:pos], X.verts[pos+1:]...)
	if X.byID[v.id] == v {
		delete(X.byID, v.id)
	}
	v.graph = nil
	X.onGraphChanged()
	X.record(func() { X.insertVtx(pos, v) })
}

func (X *Graph) setVtxID(v *Vertex, id frag.VtxID) {
	oldID, oldPrev := v.id, v.prevID
	if X.byID[oldID] == v {
		delete(X.byID, oldID)
	}
	v.prevID = oldID
	v.id = id
	X.byID[id] = v
	X.onGraphChanged()
	X.record(func() {
		delete(X.byID, id)
		v.id = oldID
		v.prevID = oldPrev
		X.byID[oldID] = v
	})
}

func (X *Graph) setAPID(ap *AP, id frag.APID) {
	old := ap.id
	ap.id = id
	X.record(func() { ap.id = old })
}

func (X *Graph) insertEdge(pos int, e *Edge) {
	X.edges = append(X.edges, nil)
	copy(X.edges[pos+1:], X.edges[pos:])
	X.edges[pos] = e
	e.src.user = e
	e.trg.user = e
	X.onGraphChanged()
	X.record(func() { X.deleteEdge(e) })
}

func (X *Graph) deleteEdge(e *Edge) {
	pos := X.indexOfEdge(e)
	if pos < 0 {
		return
	}
	X.edges = append(X.edges[:pos], X.edges[pos+1:]...)
	if e.src.user == e {
		e.src.user = nil
	}
	if e.trg.user == e {
		e.trg.user = nil
	}
	X.onGraphChanged()
	X.record(func() { X.insertEdge(pos, e) })
}

func (X *Graph) insertRing(pos int, r *Ring) {
	X.rings = append(X.rings, nil)
	copy(X.rings[pos+1:], X.rings[pos:])
	X.rings[pos] = r
	X.onGraphChanged()
	X.record(func() { X.deleteRing(r) })
}

func (X *Graph) deleteRing(r *Ring) {
	pos := X.indexOfRing(r)
	if pos < 0 {
		return
	}
	X.rings = append(X.rings[:pos], X.rings[pos+1:]...)
	X.onGraphChanged()
	X.record(func() { X.insertRing(pos, r) })
}

func (X *Graph) ringInsertVtx(r *Ring, pos int, v *Vertex) {
	r.verts = append(r.verts, nil)
	copy(r.verts[pos+1:], r.verts[pos:])
	r.verts[pos] = v
	X.onGraphChanged()
	X.record(func() { X.ringRemoveVtx(r, v) })
}

func (X *Graph) ringRemoveVtx(r *Ring, v *Vertex) {
	pos := r.PositionOf(v)
	if pos < 0 {
		return
	}
	r.verts = append(r.verts[:pos], r.verts[pos+1:]...)
	X.onGraphChanged()
	X.record(func() { X.ringInsertVtx(r, pos, v) })
}

func (X *Graph) insertSymSet(pos int, ss *SymmetricSet) {
	X.symSets = append(X.symSets, nil)
	copy(X.symSets[pos+1:], X.symSets[pos:])
	X.symSets[pos] = ss
	X.record(func() { X.deleteSymSet(ss) })
}

func (X *Graph) deleteSymSet(ss *SymmetricSet) {
	pos := -1
	for i, ssI := range X.symSets {
		if ssI == ss {
			pos = i
			break
		}
	}
	if pos < 0 {
		return
	}
	X.symSets = append(X.symSets[:pos], X.symSets[pos+1:]...)
	X.record(func() { X.insertSymSet(pos, ss) })
}

func (X *Graph) symSetAdd(ss *SymmetricSet, v *Vertex) {
	ss.members = append(ss.members, v)
	X.record(func() { X.symSetRemove(ss, v) })
}

func (X *Graph) symSetRemove(ss *SymmetricSet, v *Vertex) {
	pos := ss.indexOf(v)
	if pos < 0 {
		return
	}
	ss.members = append(ss.members[:pos], ss.members[pos+1:]...)
	X.record(func() {
		ss.members = append(ss.members, nil)
		copy(ss.members[pos+1:], ss.members[pos:])
		ss.members[pos] = v
	})
}

// vtxInsertAP adds ap to v (owned by X) at the given position.
func (X *Graph) vtxInsertAP(v *Vertex, pos int, ap *AP) {
	v.aps = append(v.aps, nil)
	copy(v.aps[pos+1:], v.aps[pos:])
	v.aps[pos] = ap
	ap.owner = v
	X.onGraphChanged()
	X.record(func() { X.vtxDeleteAP(v, ap) })
}

func (X *Graph) vtxDeleteAP(v *Vertex, ap *AP) {
	pos := -1
	for i, apI := range v.aps {
		if apI == ap {
			pos = i
			break
		}
	}
	if pos < 0 {
		return
	}
	v.aps = append(v.aps[:pos], v.aps[pos+1:]...)
	X.onGraphChanged()
	X.record(func() { X.vtxInsertAP(v, pos, ap) })
}

func (X *Graph) setAPClass(ap *AP, apc frag.APClass, bt frag.BondType) {
	oldClass, oldBond := ap.Class, ap.Bond
	ap.Class, ap.Bond = apc, bt
	X.onGraphChanged()
	X.record(func() { ap.Class, ap.Bond = oldClass, oldBond })
}

func (X *Graph) setAPSrcAtom(ap *AP, atom int) {
	old := ap.SrcAtom
	ap.SrcAtom = atom
	X.record(func() { ap.SrcAtom = old })
}

func (X *Graph) projInsert(v *Vertex, pos int, p apProjection) {
	v.proj = append(v.proj, apProjection{})
	copy(v.proj[pos+1:], v.proj[pos:])
	v.proj[pos] = p
	X.onGraphChanged()
	X.record(func() { X.projDelete(v, p.inner) })
}

func (X *Graph) projDelete(v *Vertex, inner *AP) {
	pos := v.projIndexOfInner(inner)
	if pos < 0 {
		return
	}
	p := v.proj[pos]
	v.proj = append(v.proj[:pos], v.proj[pos+1:]...)
	X.onGraphChanged()
	X.record(func() { X.projInsert(v, pos, p) })
}
