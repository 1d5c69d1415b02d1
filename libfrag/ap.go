package libfrag

import (
	"fmt"

	"github.com/2x3systems/gofrag/frag"
	"github.com/pkg/errors"
)

// AP is an attachment point: a typed slot owned by exactly one Vertex and used by at most one Edge.
type AP struct {
	id      frag.APID
	owner   *Vertex
	user    *Edge
	Class   frag.APClass
	Bond    frag.BondType // bond implied by Class
	SrcAtom int           // index of the atom holding this AP, or -1
}

func (ap *AP) ID() frag.APID {
	return ap.id
}

// SetID changes the ID of an AP whose owner is not in a graph.
func (ap *AP) SetID(id frag.APID) error {
	if ap.owner != nil && ap.owner.graph != nil {
		return errors.Wrap(frag.ErrVtxInOtherGraph, "cannot change the ID of an AP owned by a graph")
	}
	ap.id = id
	return nil
}

func (ap *AP) Owner() *Vertex {
	return ap.owner
}

// Index returns the position of this AP in its owner's list, or -1 if detached.
func (ap *AP) Index() int {
	if ap.owner == nil {
		return -1
	}
	for i, apI := range ap.owner.aps {
		if apI == ap {
			return i
		}
	}
	return -1
}

// Edge returns the edge using this AP, or nil if free.
func (ap *AP) Edge() *Edge {
	return ap.user
}

func (ap *AP) IsAvailable() bool {
	return ap.user == nil
}

func (ap *AP) IsSrcInUser() bool {
	return ap.user != nil && ap.user.src == ap
}

// LinkedAP returns the AP at the other end of this AP's edge.
func (ap *AP) LinkedAP() *AP {
	if ap.user == nil {
		return nil
	}
	return ap.user.Other(ap)
}

// outerAP returns the projection of this AP on the template embedding the owner's graph.
func (ap *AP) outerAP() *AP {
	if ap.owner == nil || ap.owner.graph == nil || ap.owner.graph.jacket == nil {
		return nil
	}
	return ap.owner.graph.jacket.OuterAP(ap)
}

// IsAvailableThroughout reports if this AP is free here and at every nesting level above.
func (ap *AP) IsAvailableThroughout() bool {
	if ap.user != nil {
		return false
	}
	if outer := ap.outerAP(); outer != nil {
		return outer.IsAvailableThroughout()
	}
	return true
}

// EdgeThroughout returns the edge using this AP, looking through template boundaries outwards.
func (ap *AP) EdgeThroughout() *Edge {
	if ap.user != nil {
		return ap.user
	}
	if outer := ap.outerAP(); outer != nil {
		return outer.EdgeThroughout()
	}
	return nil
}

// LinkedAPThroughout is LinkedAP() looking through template boundaries outwards.
func (ap *AP) LinkedAPThroughout() *AP {
	if ap.user != nil {
		return ap.user.Other(ap)
	}
	if outer := ap.outerAP(); outer != nil {
		return outer.LinkedAPThroughout()
	}
	return nil
}

func (ap *AP) IsSrcInUserThroughout() bool {
	if ap.user != nil {
		return ap.user.src == ap
	}
	if outer := ap.outerAP(); outer != nil {
		return outer.IsSrcInUserThroughout()
	}
	return false
}

// EmbeddedAP resolves an AP on the surface of a template to the deepest AP it projects.
func (ap *AP) EmbeddedAP() *AP {
	if ap.owner != nil && ap.owner.Kind == Kind_Template {
		if inner := ap.owner.InnerAP(ap); inner != nil {
			return inner.EmbeddedAP()
		}
	}
	return ap
}

// HasSameSrcAtom reports if both APs, once resolved into embedded fragments, are held by the same atom.
func (ap *AP) HasSameSrcAtom(other *AP) bool {
	deepThis := ap.EmbeddedAP()
	deepOther := other.EmbeddedAP()
	if deepThis.owner == nil || deepThis.owner != deepOther.owner {
		return false
	}
	if deepThis.owner.Kind != Kind_Fragment || deepThis.SrcAtom < 0 {
		return false
	}
	return deepThis.SrcAtom == deepOther.SrcAtom
}

// HasConnectedSrcAtom reports if the atoms holding the two APs are bonded, either within one fragment or
// through a graph edge other than one made between these two APs.
func (ap *AP) HasConnectedSrcAtom(other *AP) bool {
	deepThis := ap.EmbeddedAP()
	deepOther := other.EmbeddedAP()
	vThis, vOther := deepThis.owner, deepOther.owner
	if vThis == nil || vOther == nil || vThis.Kind != Kind_Fragment || vOther.Kind != Kind_Fragment {
		return false
	}
	if deepThis.SrcAtom < 0 || deepOther.SrcAtom < 0 {
		return false
	}

	if vThis == vOther {
		return vThis.AtomsBonded(deepThis.SrcAtom, deepOther.SrcAtom)
	}

	for _, apOnThis := range vThis.APsOnAtom(deepThis.SrcAtom) {
		if apOnThis == deepThis || apOnThis.IsAvailableThroughout() {
			continue
		}
		linked := apOnThis.LinkedAPThroughout().EmbeddedAP()
		for _, apOnOther := range vOther.APsOnAtom(deepOther.SrcAtom) {
			if apOnOther == deepOther || apOnOther.IsAvailableThroughout() {
				continue
			}
			if linked == apOnOther {
				return true
			}
		}
	}
	return false
}

// sameAs compares the features of two APs that do not depend on identity.
func (ap *AP) sameAs(other *AP) (bool, string) {
	if ap.Index() != other.Index() {
		return false, fmt.Sprintf("different AP index (%d vs %d)", ap.Index(), other.Index())
	}
	if ap.SrcAtom != other.SrcAtom {
		return false, fmt.Sprintf("different source atom on AP %d (%d vs %d)", ap.Index(), ap.SrcAtom, other.SrcAtom)
	}
	if ap.Class != other.Class {
		return false, fmt.Sprintf("different AP class (%v vs %v)", ap.Class, other.Class)
	}
	return true, ""
}

func (ap *AP) String() string {
	vid := frag.VtxID(0)
	if ap.owner != nil {
		vid = ap.owner.id
	}
	return fmt.Sprintf("%d:%d[%v]", vid, ap.Index(), ap.Class)
}
