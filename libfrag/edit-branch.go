package libfrag

import (
	"github.com/2x3systems/gofrag/frag"
	"github.com/pkg/errors"
	"github.com/plan-systems/klog"
)

// editOutcome turns an unresolvable edit into a plain failure; other errors pass through.
func editOutcome(err error) (bool, error) {
	if err == nil {
		return true, nil
	}
	if errors.Is(err, frag.ErrUnresolvableEdit) {
		klog.V(2).Infof("edit not applicable: %v", err)
		return false, nil
	}
	return false, err
}

// removeBranchAt removes v, the edge to its parent and everything below v.
func (X *Graph) removeBranchAt(v *Vertex) error {
	if e := v.EdgeToParent(); e != nil {
		X.deleteEdge(e)
	}
	return X.removeOrphanBranch(v)
}

// removeOrphanBranch removes v and everything below v.
func (X *Graph) removeOrphanBranch(v *Vertex) error {
	kids, err := X.ChildrenTree(v, TreeOpts{})
	if err != nil {
		return err
	}
	for _, kid := range kids {
		if err := X.RemoveVertex(kid); err != nil {
			return err
		}
	}
	return X.RemoveVertex(v)
}

// RemoveBranchStartingAt removes v and all its descendants.  If symmetric is set, the branches rooted at
// the vertices symmetric to v go too.
func (X *Graph) RemoveBranchStartingAt(v *Vertex, symmetric bool) (ok bool, err error) {
	if v.graph != X {
		return false, errors.Wrapf(frag.ErrVtxNotInGraph, "vertex %v", v)
	}
	edit := X.beginEdit()
	defer edit.finish(&ok, &err)

	sites := []*Vertex{v}
	if symmetric {
		if sym := X.SymVerticesFor(v); sym != nil {
			sites = sym
		}
	}
	for _, site := range sites {
		if site.graph != X {
			continue // already gone with another branch
		}
		if err = X.removeBranchAt(site); err != nil {
			return false, err
		}
	}
	if err = X.jacketAPsUpdate(); err != nil {
		return editOutcome(err)
	}
	return true, nil
}

// combineBonds picks the bond of a new edge from the bonds implied by its two APs.
func combineBonds(src, trg frag.BondType) frag.BondType {
	switch {
	case src == trg:
		return src
	case src == frag.Bond_Any:
		return trg
	case trg == frag.Bond_Any:
		return src
	}
	return frag.Bond_Undefined
}

// AppendVertexOnAP adds the detached owner of trgAP to X and links it as a child through srcAP.
// Symmetric sets are left as they are.
func (X *Graph) AppendVertexOnAP(srcAP, trgAP *AP) (err error) {
	if srcAP.owner == nil || srcAP.owner.graph != X {
		return errors.Wrapf(frag.ErrAPNotInGraph, "source AP %v", srcAP)
	}
	if !srcAP.IsAvailable() {
		return errors.Wrapf(frag.ErrAPInUse, "source AP %v", srcAP)
	}
	if !trgAP.IsAvailable() {
		return errors.Wrapf(frag.ErrAPInUse, "target AP %v", trgAP)
	}
	edit := X.beginEdit()
	defer edit.finish(nil, &err)

	if err = X.AddVertex(trgAP.owner); err != nil {
		return err
	}
	if err = X.AddEdge(NewEdge(srcAP, trgAP, combineBonds(srcAP.Bond, trgAP.Bond))); err != nil {
		return err
	}
	return X.jacketAPsUpdate()
}

// AppendGraphOnAP moves every vertex, edge, ring and symmetric set of incoming into X and links trgAP
// (on a vertex of incoming) to srcAP (on a vertex of X).  incoming is left empty.  Vertices of incoming
// whose IDs clash with X get renumbered first.
func (X *Graph) AppendGraphOnAP(srcAP *AP, incoming *Graph, trgAP *AP, bt frag.BondType) (err error) {
	if srcAP.owner == nil || srcAP.owner.graph != X {
		return errors.Wrapf(frag.ErrAPNotInGraph, "source AP %v", srcAP)
	}
	if trgAP.owner == nil || trgAP.owner.graph != incoming {
		return errors.Wrapf(frag.ErrAPNotInGraph, "target AP %v", trgAP)
	}
	if !srcAP.IsAvailable() || !trgAP.IsAvailable() {
		return errors.Wrapf(frag.ErrAPInUse, "linking %v to %v", srcAP, trgAP)
	}
	edit := X.beginEdit()
	defer edit.finish(nil, &err)

	X.joinEdit(incoming)
	X.importGraph(incoming, true)
	if err = X.AddEdge(NewEdge(srcAP, trgAP, bt)); err != nil {
		return err
	}
	return X.jacketAPsUpdate()
}

// importGraph moves the content of incoming into X, renumbering clashing vertices.
func (X *Graph) importGraph(incoming *Graph, withSymSets bool) {
	for _, v := range incoming.verts {
		if X.byID[v.id] != nil {
			X.ids.EnsureAbove(X.MaxVertexID())
			X.ids.EnsureAbove(incoming.MaxVertexID())
			for _, vi := range incoming.verts {
				incoming.setVtxID(vi, X.ids.NextVtxID())
			}
			break
		}
	}

	verts := append([]*Vertex(nil), incoming.verts...)
	edges := append([]*Edge(nil), incoming.edges...)
	rings := append([]*Ring(nil), incoming.rings...)
	symSets := append([]*SymmetricSet(nil), incoming.symSets...)
	for _, e := range edges {
		incoming.deleteEdge(e)
	}
	for _, r := range rings {
		incoming.deleteRing(r)
	}
	for _, ss := range symSets {
		incoming.deleteSymSet(ss)
	}
	for _, v := range verts {
		incoming.deleteVtx(v)
	}

	for _, v := range verts {
		X.insertVtx(len(X.verts), v)
	}
	for _, e := range edges {
		X.insertEdge(len(X.edges), e)
	}
	for _, r := range rings {
		X.insertRing(len(X.rings), r)
	}
	if withSymSets {
		for _, ss := range symSets {
			X.insertSymSet(len(X.symSets), ss)
		}
	}
}

// RemoveCappingGroups removes every capping vertex that is not part of a ring.
func (X *Graph) RemoveCappingGroups() error {
	return X.RemoveCappingGroupsOn(X.verts)
}

// RemoveCappingGroupsOn removes the given vertices that are capping groups outside rings.
func (X *Graph) RemoveCappingGroupsOn(verts []*Vertex) error {
	var caps []*Vertex
	for _, v := range verts {
		if v.graph == X && v.BBType == frag.BB_Cap && !X.IsVertexInRing(v) {
			caps = append(caps, v)
		}
	}
	for _, v := range caps {
		if err := X.RemoveVertex(v); err != nil {
			return errors.Wrapf(err, "removing capping group %v", v)
		}
	}
	return nil
}

// AddCappingGroups places a capping group on every AP left free throughout whose class demands one.
func (X *Graph) AddCappingGroups(ws *Workspace) error {
	return X.AddCappingGroupsOn(X.verts, ws)
}

// AddCappingGroupsOn is AddCappingGroups limited to the given vertices.
func (X *Graph) AddCappingGroupsOn(verts []*Vertex, ws *Workspace) (err error) {
	if ws == nil || ws.Catalog == nil || !ws.Config.UseCapping {
		return nil
	}
	edit := X.beginEdit()
	defer edit.finish(nil, &err)

	for _, v := range append([]*Vertex(nil), verts...) {
		if v.graph != X || v.BBType == frag.BB_Cap {
			continue
		}
		for _, ap := range v.aps {
			if !ap.IsAvailableThroughout() {
				continue
			}
			bbID, needed := ws.Catalog.CappingBlockFor(ap.Class)
			if !needed {
				continue
			}
			capVtx, err := ws.Catalog.Instantiate(bbID, frag.BB_Cap)
			if err != nil {
				return errors.Wrapf(frag.ErrNoCappingBlock, "capping AP %v: %v", ap, err)
			}
			if capVtx.NumAPs() == 0 {
				return errors.Wrapf(frag.ErrNoCappingBlock, "capping block %d has no AP", bbID)
			}
			if err = X.AppendVertexOnAP(ap, capVtx.AP(0)); err != nil {
				return err
			}
		}
	}
	return nil
}
