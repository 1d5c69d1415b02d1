package libfrag

import (
	"github.com/2x3systems/gofrag/frag"
	"github.com/pkg/errors"
	"github.com/plan-systems/klog"
)

// apMapping pairs APs on the parent side (free) with APs on the child side (needy).
type apMapping struct {
	free  []*AP
	needy []*AP
}

func (m *apMapping) partnerOf(ap *AP) *AP {
	for i := range m.free {
		switch ap {
		case m.free[i]:
			return m.needy[i]
		case m.needy[i]:
			return m.free[i]
		}
	}
	return nil
}

func (m *apMapping) String() string {
	str := "{"
	for i := range m.free {
		if i > 0 {
			str += " "
		}
		str += m.free[i].String() + "=>" + m.needy[i].String()
	}
	return str + "}"
}

// enumerateMappings lists the injective, compatibility-respecting pairings of free APs with needy APs.
// Free APs are taken in order; each may pair with any unused compatible needy AP or stay unpaired.
// Every non-empty pairing is listed, at most maxCount of them.
func enumerateMappings(ws *Workspace, free, needy []*AP, maxCount int) []*apMapping {
	type key struct {
		ap    *AP
		cands []*AP
	}
	var keys []key
	for _, f := range free {
		var cands []*AP
		for _, n := range needy {
			if ws.compatible(f, n) {
				cands = append(cands, n)
			}
		}
		if len(cands) > 0 {
			keys = append(keys, key{f, cands})
		}
	}

	var found []*apMapping
	used := make(map[*AP]bool, len(needy))
	cur := &apMapping{}

	var recurse func(depth int)
	recurse = func(depth int) {
		if len(found) >= maxCount {
			return
		}
		if depth == len(keys) {
			if len(cur.free) > 0 {
				found = append(found, &apMapping{
					free:  append([]*AP(nil), cur.free...),
					needy: append([]*AP(nil), cur.needy...),
				})
			}
			return
		}
		k := keys[depth]
		for _, n := range k.cands {
			if used[n] {
				continue
			}
			used[n] = true
			cur.free = append(cur.free, k.ap)
			cur.needy = append(cur.needy, n)
			recurse(depth + 1)
			cur.free = cur.free[:len(cur.free)-1]
			cur.needy = cur.needy[:len(cur.needy)-1]
			used[n] = false
		}
		recurse(depth + 1)
	}
	recurse(0)
	return found
}

// ringScore counts the rings that pass through the owner of needy and the vertex it currently links to.
func ringScore(needy *AP) int {
	owner := needy.owner
	if owner == nil || owner.graph == nil {
		return 0
	}
	linked := needy.LinkedAP()
	if linked == nil {
		return 0
	}
	return len(owner.graph.RingsInvolving(owner, linked.owner))
}

// bestMapping returns the first mapping with the strictly highest ring score.
func bestMapping(mappings []*apMapping) *apMapping {
	scores := make(map[*AP]int)
	var best *apMapping
	bestScore := -1
	for _, m := range mappings {
		score := 0
		for _, n := range m.needy {
			s, known := scores[n]
			if !known {
				s = ringScore(n)
				scores[n] = s
			}
			score += s
		}
		if score > bestScore {
			bestScore = score
			best = m
		}
	}
	return best
}

// RemoveVertexAndWeld removes v and links its children directly to its parent, at every site symmetric
// to v when symmetric edits are enabled.  It reports false, leaving X unchanged, when the children cannot
// be welded or when the weld would fold a three-membered ring onto a single atom.
func (X *Graph) RemoveVertexAndWeld(v *Vertex, ws *Workspace) (ok bool, err error) {
	if v.graph != X {
		return false, errors.Wrapf(frag.ErrVtxNotInGraph, "vertex %v", v)
	}
	edit := X.beginEdit()
	defer edit.finish(&ok, &err)

	sites := []*Vertex{v}
	if ws == nil || ws.Config.SymmetricEdits {
		if sym := X.SymVerticesFor(v); sym != nil {
			sites = sym
		}
	}
	for _, site := range sites {
		if site.graph == nil {
			continue
		}
		if err = site.graph.removeSingleVertexAndWeld(site, ws); err != nil {
			return editOutcome(err)
		}
	}

	// 3 = 1 actual vertex + 2 RCVs
	for _, r := range X.rings {
		if r.Size() != 3 {
			continue
		}
		eH, eT := r.Head().EdgeToParent(), r.Tail().EdgeToParent()
		if eH == nil || eT == nil {
			continue
		}
		apH, apT := eH.SrcAPThroughout(), eT.SrcAPThroughout()
		if apH.HasSameSrcAtom(apT) || apH.HasConnectedSrcAtom(apT) {
			klog.V(2).Infof("weld of %v rejected: ring %v would collapse", v, r)
			return false, nil
		}
	}
	if X.jacket != nil && X.jacket.graph != nil {
		if err = X.jacketAPsUpdate(); err != nil {
			return editOutcome(err)
		}
	}
	return true, nil
}

// RemoveSingleVertexAndWeld is RemoveVertexAndWeld without the symmetric sites.
func (X *Graph) RemoveSingleVertexAndWeld(v *Vertex, ws *Workspace) (ok bool, err error) {
	if v.graph != X {
		return false, errors.Wrapf(frag.ErrVtxNotInGraph, "vertex %v", v)
	}
	edit := X.beginEdit()
	defer edit.finish(&ok, &err)

	if err = X.removeSingleVertexAndWeld(v, ws); err != nil {
		return editOutcome(err)
	}
	return true, nil
}

func (X *Graph) removeSingleVertexAndWeld(v *Vertex, ws *Workspace) error {
	root, err := X.SourceVertex()
	if err != nil {
		return err
	}
	if v == root {
		// Only a root linked to something outside this graph can be welded away
		linkedOutside := false
		for _, ap := range v.aps {
			if ap.IsAvailable() && !ap.IsAvailableThroughout() && !ap.IsSrcInUserThroughout() {
				linkedOutside = true
			}
		}
		if !linkedOutside {
			return errors.Wrapf(frag.ErrNoCompatiblePairs, "%v is the root: nothing to weld onto", v)
		}
		// Removing the only vertex of a template removes the template
		if len(X.verts) == 1 && X.jacket != nil && X.jacket.graph != nil {
			return X.jacket.graph.removeSingleVertexAndWeld(X.jacket, ws)
		}
	}

	var needy, free []*AP
	for _, apOnOld := range v.aps {
		if apOnOld.IsAvailableThroughout() {
			continue
		}
		if apOnOld.IsSrcInUserThroughout() {
			needy = append(needy, apOnOld.LinkedAPThroughout())
		} else {
			apOnParent := apOnOld.LinkedAPThroughout()
			free = appendNewAPs(free, apOnParent)
			free = appendNewAPs(free, apOnParent.owner.FreeAPsThroughout()...)
		}
	}

	mappings := enumerateMappings(ws, free, needy, ws.maxWeldMappings())
	if len(mappings) == 0 {
		return errors.Wrapf(frag.ErrNoCompatiblePairs, "welding children of %v", v)
	}
	best := bestMapping(mappings)
	klog.V(2).Infof("weld of %v: %d mappings, using %v", v, len(mappings), best)

	for _, r := range X.RingsInvolving(v) {
		X.ringRemoveVtx(r, v)
		if r.Size() < 3 {
			X.deleteRing(r)
		}
	}

	// Remove edges of v while tracking the edits due on the template embedding X, if any
	replaceInTmpl := make(map[*AP]*AP) // new inner AP -> old AP on v
	var removeFromTmpl []*AP
	for _, oldAP := range v.aps {
		if !oldAP.IsAvailable() {
			X.deleteEdge(oldAP.user)
			continue
		}
		if X.jacket == nil {
			continue
		}
		if !oldAP.IsAvailableThroughout() {
			if partner := best.partnerOf(oldAP.LinkedAPThroughout()); partner != nil {
				replaceInTmpl[partner] = oldAP
				continue
			}
		}
		removeFromTmpl = append(removeFromTmpl, oldAP)
	}

	X.dropVertexFromSymSets(v)
	X.deleteVtx(v)

	reconnected := make(map[*AP]bool, len(needy))
	for i, apOnParent := range best.free {
		apOnChild := best.needy[i]
		parentHere := apOnParent.owner != nil && apOnParent.owner.graph == X
		childHere := apOnChild.owner != nil && apOnChild.owner.graph == X
		switch {
		case parentHere && childHere:
			if err := X.AddEdge(NewEdge(apOnParent, apOnChild, ws.bondFor(apOnParent, apOnChild))); err != nil {
				return err
			}
			reconnected[apOnChild] = true
		case X.jacket == nil:
			return errors.Wrapf(frag.ErrBrokenEdge, "AP %v seems linked through a template but there is none", apOnChild)
		case parentHere:
			X.jacket.updateInnerApID(replaceInTmpl[apOnParent], apOnParent)
			reconnected[apOnChild] = true
		case childHere:
			if oldAP := replaceInTmpl[apOnChild]; oldAP != nil {
				X.jacket.updateInnerApID(oldAP, apOnChild)
				reconnected[apOnChild] = true
				break
			}
			// Child inside, parent outside but not the one v was linked to: go through a new projection
			outerG := X.jacket.graph
			if outerG == nil || apOnParent.owner.graph != outerG {
				break
			}
			X.jacket.addInnerToOuterAPMapping(apOnChild)
			outer := X.jacket.OuterAP(apOnChild)
			if err := outerG.AddEdge(NewEdge(apOnParent, outer, ws.bondFor(apOnParent, outer))); err != nil {
				return err
			}
			reconnected[apOnChild] = true
		}
	}

	for _, oldAP := range removeFromTmpl {
		if err := X.jacket.removeProjectionOfInnerAP(oldAP); err != nil {
			return err
		}
	}

	for _, apOnChild := range needy {
		if reconnected[apOnChild] {
			continue
		}
		orphan := apOnChild.owner
		if orphan == nil || orphan.graph == nil {
			continue
		}
		klog.V(3).Infof("weld of %v: dropping unpaired branch at %v", v, orphan)
		if err := orphan.graph.removeBranchAt(orphan); err != nil {
			return err
		}
	}
	return nil
}

func appendNewAPs(dst []*AP, aps ...*AP) []*AP {
	for _, ap := range aps {
		dupe := false
		for _, have := range dst {
			if have == ap {
				dupe = true
				break
			}
		}
		if !dupe {
			dst = append(dst, ap)
		}
	}
	return dst
}
