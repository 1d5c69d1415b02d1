package graphjson

import (
	"github.com/2x3systems/gofrag/frag"
	"github.com/2x3systems/gofrag/libfrag"
	"github.com/pkg/errors"
)

func parseBond(str string) (frag.BondType, error) {
	if str == "" {
		return frag.Bond_Undefined, nil
	}
	bt, err := frag.ParseBondType(str)
	if err != nil {
		return frag.Bond_Undefined, errors.Wrap(frag.ErrBadEncoding, err.Error())
	}
	return bt, nil
}

// decodeGraph resolves one nesting level: vertices (and their APs) first, then the edges, rings and
// symmetric sets referring to them by ID.
func decodeGraph(ir *graphIR, ids frag.IDAllocator) (*libfrag.Graph, error) {
	X := libfrag.NewGraph(ids)
	X.GraphID = ir.GraphID
	if err := resolveGraph(X, ir, ids); err != nil {
		X.Reclaim()
		return nil, err
	}
	return X, nil
}

func resolveGraph(X *libfrag.Graph, ir *graphIR, ids frag.IDAllocator) error {
	apByID := make(map[int64]*libfrag.AP)
	maxAPID := frag.APID(0)
	for _, vir := range ir.Vertices {
		if vir == nil {
			return errors.Wrap(frag.ErrBadEncoding, "null vertex")
		}
		v, err := decodeVertex(vir, ids)
		if err != nil {
			return err
		}
		if err = X.AddVertex(v); err != nil {
			return err
		}
		for _, ap := range v.APs() {
			id := int64(ap.ID())
			if _, dupe := apByID[id]; dupe {
				return errors.Wrapf(frag.ErrDuplicateAPID, "AP ID %d", id)
			}
			apByID[id] = ap
			if ap.ID() > maxAPID {
				maxAPID = ap.ID()
			}
		}
	}
	ids.EnsureAbove(X.MaxVertexID())
	ids.EnsureAPAbove(maxAPID)

	for _, eir := range ir.Edges {
		src, trg := apByID[eir.SrcAPID], apByID[eir.TrgAPID]
		if src == nil || trg == nil {
			return errors.Wrapf(frag.ErrAPNotInGraph, "edge %d-%d", eir.SrcAPID, eir.TrgAPID)
		}
		bt, err := parseBond(eir.Bond)
		if err != nil {
			return err
		}
		if err = X.AddEdge(libfrag.NewEdge(src, trg, bt)); err != nil {
			return err
		}
	}

	for _, rir := range ir.Rings {
		verts, err := lookupVertices(X, rir.VtxIDs)
		if err != nil {
			return err
		}
		bt, err := parseBond(rir.Bond)
		if err != nil {
			return err
		}
		if err = X.AddRing(libfrag.NewRing(verts, bt)); err != nil {
			return err
		}
	}

	for _, ssIDs := range ir.SymSets {
		verts, err := lookupVertices(X, ssIDs)
		if err != nil {
			return err
		}
		if err = X.AddSymmetricSet(libfrag.NewSymmetricSet(verts...)); err != nil {
			return err
		}
	}
	return nil
}

func lookupVertices(X *libfrag.Graph, vtxIDs []int64) ([]*libfrag.Vertex, error) {
	verts := make([]*libfrag.Vertex, len(vtxIDs))
	for i, id := range vtxIDs {
		if verts[i] = X.VertexWithID(frag.VtxID(id)); verts[i] == nil {
			return nil, errors.Wrapf(frag.ErrVtxNotInGraph, "vertex %d", id)
		}
	}
	return verts, nil
}

func decodeVertex(vir *vertexIR, ids frag.IDAllocator) (*libfrag.Vertex, error) {
	kind, err := parseVertexType(vir.Type)
	if err != nil {
		return nil, err
	}
	bbt, err := frag.ParseBBType(vir.BBType)
	if err != nil {
		return nil, errors.Wrap(frag.ErrBadEncoding, err.Error())
	}

	if kind == libfrag.Kind_Template && vir.Inner != nil {
		return decodeTemplate(vir, bbt, ids)
	}
	if vir.Inner != nil {
		return nil, errors.Wrapf(frag.ErrNotTemplate, "vertex %d has an inner graph", vir.ID)
	}

	v := libfrag.NewVertex(frag.VtxID(vir.ID), kind, bbt, vir.BBID)
	v.IsRCV = vir.IsRCV
	v.NumAtoms = vir.NumAtoms
	v.AtomBonds = vir.AtomBonds
	for _, apx := range vir.APs {
		var apc frag.APClass
		if apx.Class != "" {
			if apc, err = frag.ParseAPClass(apx.Class); err != nil {
				return nil, err
			}
		}
		bt, err := parseBond(apx.Bond)
		if err != nil {
			return nil, err
		}
		ap := v.AddAP(frag.APID(apx.ID), apc, bt)
		ap.SrcAtom = apx.Atom
	}
	return v, nil
}

// decodeTemplate rebuilds the inner graph first, then projects its free APs in the recorded order and
// gives the projected APs their recorded IDs.
func decodeTemplate(vir *vertexIR, bbt frag.BBType, ids frag.IDAllocator) (*libfrag.Vertex, error) {
	inner, err := decodeGraph(vir.Inner, ids)
	if err != nil {
		return nil, errors.Wrapf(err, "inner graph of vertex %d", vir.ID)
	}
	if len(vir.Projections) != len(vir.APs) {
		inner.Reclaim()
		return nil, errors.Wrapf(frag.ErrMissingProjection, "template %d lists %d APs and %d projections", vir.ID, len(vir.APs), len(vir.Projections))
	}

	order := make([]*libfrag.AP, len(vir.Projections))
	for i, p := range vir.Projections {
		if iv := inner.VertexWithID(frag.VtxID(p.VtxID)); iv != nil {
			order[i] = iv.AP(p.APIdx)
		}
		if order[i] == nil || !order[i].IsAvailable() {
			inner.Reclaim()
			return nil, errors.Wrapf(frag.ErrMissingProjection, "template %d: no free inner AP %d:%d", vir.ID, p.VtxID, p.APIdx)
		}
	}

	v := libfrag.NewTemplate(frag.VtxID(vir.ID), bbt, vir.BBID)
	if err = v.SetInnerGraph(inner, order...); err != nil {
		inner.Reclaim()
		return nil, err
	}
	if v.NumAPs() != len(vir.APs) {
		return nil, errors.Wrapf(frag.ErrMissingProjection, "template %d projects %d APs, document lists %d", vir.ID, v.NumAPs(), len(vir.APs))
	}
	for i, apx := range vir.APs {
		outer := v.AP(i)
		if outer != v.OuterAP(order[i]) {
			return nil, errors.Wrapf(frag.ErrMissingProjection, "template %d, AP %d", vir.ID, i)
		}
		outer.SetID(frag.APID(apx.ID))
		outer.SrcAtom = apx.Atom
	}
	return v, nil
}
