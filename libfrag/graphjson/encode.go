package graphjson

import (
	"github.com/2x3systems/gofrag/frag"
	"github.com/2x3systems/gofrag/libfrag"
	mapset "github.com/deckarep/golang-set"
	"github.com/pkg/errors"
)

func encode(X *libfrag.Graph) (*graphIR, error) {
	if hasIDCollision(X) {
		dup := X.Clone()
		defer dup.Reclaim()
		renumberAll(dup)
		X = dup
	}
	return encodeGraph(X)
}

// hasIDCollision reports if two vertices or two APs of the same nesting level share an ID.
func hasIDCollision(X *libfrag.Graph) bool {
	vtxIDs := mapset.NewThreadUnsafeSet()
	apIDs := mapset.NewThreadUnsafeSet()
	for _, v := range X.Vertices() {
		if !vtxIDs.Add(v.ID()) {
			return true
		}
		for _, ap := range v.APs() {
			if !apIDs.Add(ap.ID()) {
				return true
			}
		}
		if inner := v.InnerGraph(); inner != nil && hasIDCollision(inner) {
			return true
		}
	}
	return false
}

func renumberAll(X *libfrag.Graph) {
	X.RenumberVertices()
	X.RenumberAPs()
	for _, v := range X.Vertices() {
		if inner := v.InnerGraph(); inner != nil {
			renumberAll(inner)
		}
	}
}

func encodeGraph(X *libfrag.Graph) (*graphIR, error) {
	ir := &graphIR{
		GraphID:  X.GraphID,
		Vertices: make([]*vertexIR, 0, X.NumVertices()),
		Edges:    make([]edgeIR, 0, X.NumEdges()),
		Rings:    make([]ringIR, 0, X.NumRings()),
	}

	for _, v := range X.Vertices() {
		vir, err := encodeVertex(v)
		if err != nil {
			return nil, err
		}
		ir.Vertices = append(ir.Vertices, vir)
	}
	for _, e := range X.Edges() {
		ir.Edges = append(ir.Edges, edgeIR{
			SrcAPID: int64(e.Src().ID()),
			TrgAPID: int64(e.Trg().ID()),
			Bond:    e.Bond.String(),
		})
	}
	for _, r := range X.Rings() {
		rir := ringIR{Bond: r.Bond.String()}
		for _, v := range r.Vertices() {
			rir.VtxIDs = append(rir.VtxIDs, int64(v.ID()))
		}
		ir.Rings = append(ir.Rings, rir)
	}
	for _, ss := range X.SymSets() {
		var ids []int64
		for _, id := range ss.IDs() {
			ids = append(ids, int64(id))
		}
		ir.SymSets = append(ir.SymSets, ids)
	}
	return ir, nil
}

func encodeVertex(v *libfrag.Vertex) (*vertexIR, error) {
	vir := &vertexIR{
		ID:        int64(v.ID()),
		Type:      vertexTypeNames[v.Kind],
		BBType:    v.BBType.String(),
		BBID:      v.BBID,
		IsRCV:     v.IsRCV,
		NumAtoms:  v.NumAtoms,
		AtomBonds: v.AtomBonds,
		APs:       make([]apIR, 0, v.NumAPs()),
	}
	for _, ap := range v.APs() {
		apx := apIR{
			ID:   int64(ap.ID()),
			Bond: ap.Bond.String(),
			Atom: ap.SrcAtom,
		}
		if !ap.Class.IsZero() {
			apx.Class = ap.Class.String()
		}
		vir.APs = append(vir.APs, apx)
	}

	inner := v.InnerGraph()
	if v.Kind != libfrag.Kind_Template || inner == nil {
		return vir, nil
	}

	var err error
	if vir.Inner, err = encodeGraph(inner); err != nil {
		return nil, err
	}
	for _, outer := range v.APs() {
		innerAP := v.InnerAP(outer)
		if innerAP == nil {
			return nil, errors.Wrapf(frag.ErrMissingProjection, "AP %v of template %v", outer, v)
		}
		vir.Projections = append(vir.Projections, projIR{
			VtxID: int64(innerAP.Owner().ID()),
			APIdx: innerAP.Index(),
		})
	}
	return vir, nil
}
