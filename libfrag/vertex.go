package libfrag

import (
	"fmt"

	"github.com/2x3systems/gofrag/frag"
	"github.com/pkg/errors"
)

// Vertex is a building block instance placed in a Graph.
type Vertex struct {
	id     frag.VtxID
	graph  *Graph
	aps    []*AP
	Kind   VtxKind
	BBType frag.BBType
	BBID   int
	IsRCV  bool

	// NumAtoms and AtomBonds describe the atoms of a Kind_Fragment vertex as far as the
	// same-atom and connected-atom guards need them.
	NumAtoms  int
	AtomBonds [][2]int

	inner *Graph         // Kind_Template only
	proj  []apProjection // Kind_Template only: inner AP <-> outer AP

	prevID   frag.VtxID // ID held before the last renumbering
	symLabel string
}

// NewVertex returns a detached vertex with no APs.
func NewVertex(id frag.VtxID, kind VtxKind, bbt frag.BBType, bbID int) *Vertex {
	return &Vertex{
		id:     id,
		Kind:   kind,
		BBType: bbt,
		BBID:   bbID,
	}
}

// NewRCV returns a detached ring-closing placeholder with one AP of the given class.
func NewRCV(id frag.VtxID, apID frag.APID, apc frag.APClass, bt frag.BondType) *Vertex {
	v := NewVertex(id, Kind_Placeholder, frag.BB_Fragment, 0)
	v.IsRCV = true
	v.AddAP(apID, apc, bt)
	return v
}

func (v *Vertex) ID() frag.VtxID {
	return v.id
}

// PrevID returns the ID this vertex had before it was last renumbered (0 if never).
func (v *Vertex) PrevID() frag.VtxID {
	return v.prevID
}

// SetID changes the ID of a detached vertex.
func (v *Vertex) SetID(id frag.VtxID) error {
	if v.graph != nil {
		return errors.Wrap(frag.ErrVtxInOtherGraph, "cannot change the ID of a vertex owned by a graph")
	}
	v.id = id
	return nil
}

// Graph returns the graph owning this vertex, or nil.
func (v *Vertex) Graph() *Graph {
	return v.graph
}

// AddAP appends a new attachment point.
func (v *Vertex) AddAP(id frag.APID, apc frag.APClass, bt frag.BondType) *AP {
	ap := &AP{
		id:      id,
		owner:   v,
		Class:   apc,
		Bond:    bt,
		SrcAtom: -1,
	}
	v.aps = append(v.aps, ap)
	if v.graph != nil {
		v.graph.onGraphChanged()
	}
	return ap
}

func (v *Vertex) APs() []*AP {
	return v.aps
}

func (v *Vertex) NumAPs() int {
	return len(v.aps)
}

// AP returns the AP at the given index, or nil.
func (v *Vertex) AP(idx int) *AP {
	if idx < 0 || idx >= len(v.aps) {
		return nil
	}
	return v.aps[idx]
}

// APWithID returns the AP with the given ID, or nil.
func (v *Vertex) APWithID(id frag.APID) *AP {
	for _, ap := range v.aps {
		if ap.id == id {
			return ap
		}
	}
	return nil
}

func (v *Vertex) AvailableAPs() []*AP {
	var aps []*AP
	for _, ap := range v.aps {
		if ap.IsAvailable() {
			aps = append(aps, ap)
		}
	}
	return aps
}

func (v *Vertex) FreeAPCount() int {
	n := 0
	for _, ap := range v.aps {
		if ap.IsAvailable() {
			n++
		}
	}
	return n
}

func (v *Vertex) FreeAPsThroughout() []*AP {
	var aps []*AP
	for _, ap := range v.aps {
		if ap.IsAvailableThroughout() {
			aps = append(aps, ap)
		}
	}
	return aps
}

func (v *Vertex) FreeAPCountThroughout() int {
	return len(v.FreeAPsThroughout())
}

// CappedAPCountThroughout counts APs linked to a capping group.
func (v *Vertex) CappedAPCountThroughout() int {
	n := 0
	for _, ap := range v.aps {
		if linked := ap.LinkedAPThroughout(); linked != nil && linked.owner != nil && linked.owner.BBType == frag.BB_Cap {
			n++
		}
	}
	return n
}

// EdgeToParent returns the edge whose target AP is on this vertex.
func (v *Vertex) EdgeToParent() *Edge {
	for _, ap := range v.aps {
		if ap.user != nil && ap.user.trg == ap {
			return ap.user
		}
	}
	return nil
}

func (v *Vertex) Parent() *Vertex {
	if e := v.EdgeToParent(); e != nil {
		return e.src.owner
	}
	return nil
}

// Children returns the vertices linked by edges departing from this vertex, in AP order.
func (v *Vertex) Children() []*Vertex {
	var kids []*Vertex
	for _, ap := range v.aps {
		if ap.user != nil && ap.user.src == ap {
			kids = append(kids, ap.user.trg.owner)
		}
	}
	return kids
}

// ChildrenThroughout is Children() looking through template boundaries outwards.
func (v *Vertex) ChildrenThroughout() []*Vertex {
	var kids []*Vertex
	for _, ap := range v.aps {
		if ap.IsAvailableThroughout() || !ap.IsSrcInUserThroughout() {
			continue
		}
		kids = append(kids, ap.LinkedAPThroughout().owner)
	}
	return kids
}

// EdgeWith returns the edge linking this vertex and other, in either direction.
func (v *Vertex) EdgeWith(other *Vertex) *Edge {
	for _, ap := range v.aps {
		if ap.user != nil && ap.user.Other(ap).owner == other {
			return ap.user
		}
	}
	return nil
}

// AtomsBonded reports if atoms i and j of this fragment are bonded.
func (v *Vertex) AtomsBonded(i, j int) bool {
	for _, bond := range v.AtomBonds {
		if (bond[0] == i && bond[1] == j) || (bond[0] == j && bond[1] == i) {
			return true
		}
	}
	return false
}

func (v *Vertex) APsOnAtom(atom int) []*AP {
	var aps []*AP
	for _, ap := range v.aps {
		if ap.SrcAtom == atom {
			aps = append(aps, ap)
		}
	}
	return aps
}

// Clone returns a detached deep copy with the same vertex and AP IDs.
func (v *Vertex) Clone() *Vertex {
	dup, _ := v.cloneWithMap()
	return dup
}

func (v *Vertex) cloneWithMap() (*Vertex, map[*AP]*AP) {
	dup := &Vertex{
		id:       v.id,
		Kind:     v.Kind,
		BBType:   v.BBType,
		BBID:     v.BBID,
		IsRCV:    v.IsRCV,
		NumAtoms: v.NumAtoms,
		prevID:   v.prevID,
		symLabel: v.symLabel,
	}
	if len(v.AtomBonds) > 0 {
		dup.AtomBonds = append([][2]int(nil), v.AtomBonds...)
	}

	apMap := make(map[*AP]*AP, len(v.aps))
	dup.aps = make([]*AP, len(v.aps))
	for i, ap := range v.aps {
		apDup := &AP{
			id:      ap.id,
			owner:   dup,
			Class:   ap.Class,
			Bond:    ap.Bond,
			SrcAtom: ap.SrcAtom,
		}
		dup.aps[i] = apDup
		apMap[ap] = apDup
	}

	if v.Kind == Kind_Template && v.inner != nil {
		innerDup, innerMap := v.inner.cloneWithMap()
		innerDup.jacket = dup
		dup.inner = innerDup
		dup.proj = make([]apProjection, len(v.proj))
		for i, pi := range v.proj {
			dup.proj[i] = apProjection{
				inner: innerMap.aps[pi.inner],
				outer: apMap[pi.outer],
			}
		}
	}
	return dup, apMap
}

// sameVertexFeatures compares what two vertices look like from the outside.
func (v *Vertex) sameVertexFeatures(other *Vertex) (bool, string) {
	if v.Kind != other.Kind {
		return false, fmt.Sprintf("different vertex kind (%v vs %v)", v.Kind, other.Kind)
	}
	if v.BBType != other.BBType {
		return false, fmt.Sprintf("different building block type (%v vs %v)", v.BBType, other.BBType)
	}
	if v.BBID != other.BBID {
		return false, fmt.Sprintf("different building block ID (%d vs %d)", v.BBID, other.BBID)
	}
	if v.IsRCV != other.IsRCV {
		return false, "different RCV flag"
	}
	if len(v.aps) != len(other.aps) {
		return false, fmt.Sprintf("different number of APs (%d vs %d)", len(v.aps), len(other.aps))
	}
	if v.FreeAPCount() != other.FreeAPCount() {
		return false, fmt.Sprintf("different number of free APs (%d vs %d)", v.FreeAPCount(), other.FreeAPCount())
	}
	for i, ap := range v.aps {
		if same, reason := ap.sameAs(other.aps[i]); !same {
			return false, reason
		}
	}
	return true, ""
}

// sameAs compares vertex content, ignoring identity.
func (v *Vertex) sameAs(other *Vertex) (bool, string) {
	if same, reason := v.sameVertexFeatures(other); !same {
		return false, reason
	}
	switch v.Kind {
	case Kind_Fragment:
		if v.NumAtoms != other.NumAtoms || len(v.AtomBonds) != len(other.AtomBonds) {
			return false, fmt.Sprintf("different atoms in fragments %d and %d", v.id, other.id)
		}
	case Kind_Template:
		if (v.inner == nil) != (other.inner == nil) {
			return false, "only one template has an inner graph"
		}
		if v.inner != nil {
			if same, reason := v.inner.SameAs(other.inner); !same {
				return false, "different inner graph: " + reason
			}
		}
	}
	return true, ""
}

func (v *Vertex) String() string {
	tag := v.BBType.String()
	if v.IsRCV {
		tag = "RCV"
	} else if v.Kind == Kind_Template {
		tag = "T" + tag
	}
	return fmt.Sprintf("%d_%s_%d", v.id, tag, v.BBID)
}
