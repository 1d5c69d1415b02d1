package libfrag

import (
	"github.com/2x3systems/gofrag/frag"
	"github.com/pkg/errors"
)

// InsertSingleVertex splits edge by placing the detached vertex v between its two ends.  apMap maps the
// source and the target AP of edge to the APs of v that take their place.  Rings running along edge are
// threaded through v.
func (X *Graph) InsertSingleVertex(edge *Edge, v *Vertex, apMap map[*AP]*AP) (ok bool, err error) {
	if !X.ContainsEdge(edge) {
		return false, errors.Wrapf(frag.ErrEdgeNotInGraph, "edge %v", edge)
	}
	if v.graph != nil {
		return false, errors.Wrapf(frag.ErrVtxInOtherGraph, "vertex %v", v)
	}
	edit := X.beginEdit()
	defer edit.finish(&ok, &err)

	if err = X.insertSingleVertex(edge, v, apMap); err != nil {
		return editOutcome(err)
	}
	return true, nil
}

func (X *Graph) insertSingleVertex(edge *Edge, v *Vertex, apMap map[*AP]*AP) error {
	srcAP, trgAP := edge.src, edge.trg
	apToSrc, apToTrg := apMap[srcAP], apMap[trgAP]
	if apToSrc == nil || apToTrg == nil {
		return errors.Wrapf(frag.ErrMissingAPMapping, "inserting %v on edge %v", v, edge)
	}
	if apToSrc.owner != v || apToTrg.owner != v || apToSrc == apToTrg {
		return errors.Wrapf(frag.ErrAPNotInGraph, "APs to link must be two distinct APs of %v", v)
	}
	srcVtx, trgVtx := srcAP.owner, trgAP.owner

	X.deleteEdge(edge)
	if err := X.AddVertex(v); err != nil {
		return err
	}
	if err := X.AddEdge(NewEdge(srcAP, apToSrc, edge.Bond)); err != nil {
		return err
	}
	if err := X.AddEdge(NewEdge(apToTrg, trgAP, edge.Bond)); err != nil {
		return err
	}

	for _, r := range X.RingsInvolving(srcVtx, trgVtx) {
		posS, posT := r.PositionOf(srcVtx), r.PositionOf(trgVtx)
		switch posT - posS {
		case 1:
			X.ringInsertVtx(r, posT, v)
		case -1:
			X.ringInsertVtx(r, posS, v)
		}
	}

	if X.jacket != nil {
		for _, ap := range v.aps {
			if ap.IsAvailable() {
				X.jacket.addInnerToOuterAPMapping(ap)
			}
		}
	}
	return nil
}

// InsertVertex places a new instance of the given building block on edge and on every edge leading to a
// vertex symmetric to the target of edge.  apIdxMap maps the two APs of edge to AP indexes on the new
// building block.  The inserted vertices form a new symmetric set.
func (X *Graph) InsertVertex(edge *Edge, bbID int, bbt frag.BBType, apIdxMap map[*AP]int, ws *Workspace) (ok bool, err error) {
	if !X.ContainsEdge(edge) {
		return false, errors.Wrapf(frag.ErrEdgeNotInGraph, "edge %v", edge)
	}
	if ws == nil || ws.Catalog == nil {
		return false, errors.Wrap(frag.ErrUnknownBlock, "no catalog to instantiate building blocks from")
	}
	srcIdx, hasSrc := apIdxMap[edge.src]
	trgIdx, hasTrg := apIdxMap[edge.trg]
	if !hasSrc || !hasTrg {
		return false, nil
	}
	edit := X.beginEdit()
	defer edit.finish(&ok, &err)

	sites := []*Edge{edge}
	if ws.Config.SymmetricEdits {
		if sym := X.SymVerticesFor(edge.trg.owner); sym != nil {
			sites = sites[:0]
			for _, trg := range sym {
				if e := trg.EdgeToParent(); e != nil {
					sites = append(sites, e)
				}
			}
		}
	}

	var inserted []*Vertex
	for _, site := range sites {
		X.ids.EnsureAbove(X.MaxVertexID())
		newV, err := ws.Catalog.Instantiate(bbID, bbt)
		if err != nil {
			return false, err
		}
		apMap := map[*AP]*AP{
			site.src: newV.AP(srcIdx),
			site.trg: newV.AP(trgIdx),
		}
		if err = X.insertSingleVertex(site, newV, apMap); err != nil {
			return editOutcome(err)
		}
		inserted = append(inserted, newV)
	}
	if len(inserted) > 1 {
		if err = X.AddSymmetricSet(NewSymmetricSet(inserted...)); err != nil {
			return false, err
		}
	}
	return true, nil
}

// ReplaceVertex swaps v for a new instance of the given building block, and does the same on every vertex
// symmetric to v if symmetric is set.  apIdxMap maps AP indexes on v to AP indexes on the new building block.
func (X *Graph) ReplaceVertex(v *Vertex, bbID int, bbt frag.BBType, apIdxMap map[int]int, symmetric bool, ws *Workspace) (ok bool, err error) {
	if v.graph != X {
		return false, errors.Wrapf(frag.ErrVtxNotInGraph, "vertex %v", v)
	}
	if ws == nil || ws.Catalog == nil {
		return false, errors.Wrap(frag.ErrUnknownBlock, "no catalog to instantiate building blocks from")
	}
	edit := X.beginEdit()
	defer edit.finish(&ok, &err)

	sites := []*Vertex{v}
	if symmetric {
		if sym := X.SymVerticesFor(v); sym != nil {
			sites = sym
		}
	}

	var added []*Vertex
	for _, site := range sites {
		X.ids.EnsureAbove(X.MaxVertexID())
		newV, err := ws.Catalog.Instantiate(bbID, bbt)
		if err != nil {
			return false, err
		}
		incoming := NewGraph(X.ids)
		if err = incoming.AddVertex(newV); err != nil {
			return false, err
		}
		apMap := make(map[*AP]*AP, len(apIdxMap))
		for oldIdx, newIdx := range apIdxMap {
			apOnOld, apOnNew := site.AP(oldIdx), newV.AP(newIdx)
			if apOnOld == nil || apOnNew == nil {
				return false, errors.Wrapf(frag.ErrBadAPIndex, "AP %d->%d replacing %v", oldIdx, newIdx, site)
			}
			apMap[apOnOld] = apOnNew
		}
		if err = X.replaceSingleSubGraph([]*Vertex{site}, incoming, apMap); err != nil {
			return editOutcome(err)
		}
		added = append(added, newV)
	}
	if len(added) > 1 {
		if err = X.AddSymmetricSet(NewSymmetricSet(added...)); err != nil {
			return false, err
		}
	}
	return true, nil
}
