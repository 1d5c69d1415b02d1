package libfrag

import (
	"github.com/2x3systems/gofrag/frag"
	"github.com/pkg/errors"
	"github.com/plan-systems/klog"
)

// apProjection pairs a free AP of a template's inner graph with the AP it surfaces as on the template itself.
type apProjection struct {
	inner *AP
	outer *AP
}

// NewTemplate returns a detached template vertex with no inner graph yet.
func NewTemplate(id frag.VtxID, bbt frag.BBType, bbID int) *Vertex {
	return NewVertex(id, Kind_Template, bbt, bbID)
}

// editGraph returns the graph whose edit journal records changes to v itself.
func (v *Vertex) editGraph() *Graph {
	if v.graph != nil {
		return v.graph
	}
	return v.inner
}

// SetInnerGraph embeds inner into template v.  Every available AP of inner is projected onto v as a new
// AP with a fresh ID, replacing whatever APs v had.  The APs listed in order are projected first, in that
// order; the rest follow in graph order.
func (v *Vertex) SetInnerGraph(inner *Graph, order ...*AP) error {
	if v.Kind != Kind_Template {
		return errors.Wrapf(frag.ErrNotTemplate, "vertex %v", v)
	}
	if inner.jacket != nil && inner.jacket != v {
		return errors.Wrap(frag.ErrVtxInOtherGraph, "graph already embedded in another template")
	}
	for _, ap := range v.aps {
		if ap.user != nil {
			return errors.Wrapf(frag.ErrAPInUse, "cannot reset the inner graph of %v while AP %v is in use", v, ap)
		}
	}

	v.aps = v.aps[:0]
	v.proj = v.proj[:0]
	v.inner = inner
	inner.jacket = v
	if v.graph != nil {
		v.graph.joinEdit(inner)
	}
	for _, innerAP := range order {
		if innerAP != nil && innerAP.owner != nil && innerAP.owner.graph == inner && innerAP.IsAvailable() {
			v.addInnerToOuterAPMapping(innerAP)
		}
	}
	for _, innerAP := range inner.AvailableAPs() {
		v.addInnerToOuterAPMapping(innerAP)
	}
	v.graph.onGraphChanged()
	return nil
}

// InnerGraph returns the graph embedded in this template, or nil.
func (v *Vertex) InnerGraph() *Graph {
	return v.inner
}

func (v *Vertex) projIndexOfInner(inner *AP) int {
	for i, p := range v.proj {
		if p.inner == inner {
			return i
		}
	}
	return -1
}

// InnerAP returns the AP of the inner graph that the given AP of this template projects, or nil.
func (v *Vertex) InnerAP(outer *AP) *AP {
	for _, p := range v.proj {
		if p.outer == outer {
			return p.inner
		}
	}
	return nil
}

// OuterAP returns the AP of this template projecting the given inner AP, or nil.
func (v *Vertex) OuterAP(inner *AP) *AP {
	if i := v.projIndexOfInner(inner); i >= 0 {
		return v.proj[i].outer
	}
	return nil
}

// InterfaceAPs returns the inner APs projected on this template, in the order of their outer APs.
func (v *Vertex) InterfaceAPs() []*AP {
	aps := make([]*AP, 0, len(v.aps))
	for _, outer := range v.aps {
		if inner := v.InnerAP(outer); inner != nil {
			aps = append(aps, inner)
		}
	}
	return aps
}

// OutermostGraph returns the graph that embeds X at the top of the template nesting (X itself if not embedded).
func (X *Graph) OutermostGraph() *Graph {
	g := X
	for g.jacket != nil && g.jacket.graph != nil {
		g = g.jacket.graph
	}
	return g
}

// EmbeddingPath returns the template vertices embedding X, outermost first.
func (X *Graph) EmbeddingPath() []*Vertex {
	var path []*Vertex
	for g := X; g.jacket != nil; {
		path = append([]*Vertex{g.jacket}, path...)
		if g.jacket.graph == nil {
			break
		}
		g = g.jacket.graph
	}
	return path
}

// addInnerToOuterAPMapping projects a newly free inner AP onto this template and, recursively, onto every
// template embedding this one.  Already projected APs are left as they are.
func (v *Vertex) addInnerToOuterAPMapping(inner *AP) {
	if v.projIndexOfInner(inner) >= 0 {
		return
	}
	var apID frag.APID
	if v.inner != nil && v.inner.ids != nil {
		apID = v.inner.ids.NextAPID()
	}
	outer := &AP{
		id:      apID,
		Class:   inner.Class,
		Bond:    inner.Bond,
		SrcAtom: -1,
	}
	g := v.editGraph()
	g.vtxInsertAP(v, len(v.aps), outer)
	g.projInsert(v, len(v.proj), apProjection{inner: inner, outer: outer})

	if v.graph != nil && v.graph.jacket != nil {
		v.graph.jacket.addInnerToOuterAPMapping(outer)
	}
}

// updateInnerApID makes the outer AP projecting oldInner project newInner instead, adopting its class.
func (v *Vertex) updateInnerApID(oldInner, newInner *AP) {
	pos := v.projIndexOfInner(oldInner)
	if pos < 0 {
		return
	}
	outer := v.proj[pos].outer
	g := v.editGraph()
	g.projDelete(v, oldInner)
	g.projInsert(v, pos, apProjection{inner: newInner, outer: outer})
	g.setAPClass(outer, newInner.Class, newInner.Bond)
}

// removeProjectionOfInnerAP drops the outer AP projecting inner, here and at every outer level.  Whatever
// hangs from that AP in the outer graph is removed along with it.
func (v *Vertex) removeProjectionOfInnerAP(inner *AP) error {
	outer := v.OuterAP(inner)
	if outer == nil {
		return nil
	}
	if e := outer.user; e != nil && v.graph != nil {
		if e.src == outer {
			if err := v.graph.removeBranchAt(e.trg.owner); err != nil {
				return err
			}
		} else {
			klog.V(2).Infof("template %v would lose its parent link along with inner AP %v", v, inner)
			return errors.Wrapf(frag.ErrMissingAPMapping, "template %v would be cut from its parent", v)
		}
	}
	if v.graph != nil && v.graph.jacket != nil {
		if err := v.graph.jacket.removeProjectionOfInnerAP(outer); err != nil {
			return err
		}
	}
	g := v.editGraph()
	g.projDelete(v, inner)
	g.vtxDeleteAP(v, outer)
	return nil
}

// jacketAPsUpdate reconciles the projections of X's jacket with the APs available in X: stale projections
// are dropped, newly free APs get projected.
func (X *Graph) jacketAPsUpdate() error {
	jacket := X.jacket
	if jacket == nil {
		return nil
	}
	for _, p := range append([]apProjection(nil), jacket.proj...) {
		if p.inner.owner == nil || p.inner.owner.graph != X || !p.inner.IsAvailable() {
			if err := jacket.removeProjectionOfInnerAP(p.inner); err != nil {
				return err
			}
		}
	}
	for _, ap := range X.AvailableAPs() {
		jacket.addInnerToOuterAPMapping(ap)
	}
	return nil
}
