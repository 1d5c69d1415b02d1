package libfrag

import (
	"github.com/2x3systems/gofrag/frag"
	mapset "github.com/deckarep/golang-set"
	"github.com/pkg/errors"
	"github.com/plan-systems/klog"
)

// SymmetricSubGraphs returns the sites mirroring the connected subgraph sub, one vertex list per site, each
// starting with the site's source vertex.  If sub is not uniformly mirrored, sub is the only site returned.
// Capping groups may not be part of sub.
func (X *Graph) SymmetricSubGraphs(sub []*Vertex) ([][]*Vertex, error) {
	inSub := mapset.NewThreadUnsafeSet()
	for _, v := range sub {
		if v.BBType == frag.BB_Cap {
			return nil, errors.Wrapf(frag.ErrOnlyCappingGroups, "capping group %v in symmetric subgraph", v)
		}
		if v.graph != X {
			return nil, errors.Wrapf(frag.ErrVtxNotInGraph, "vertex %v", v)
		}
		inSub.Add(v)
	}
	asIs := [][]*Vertex{sub}

	if len(sub) == 1 {
		sym := X.SymVerticesFor(sub[0])
		if len(sym) == 0 {
			return asIs, nil
		}
		sites := make([][]*Vertex, len(sym))
		for i, sv := range sym {
			sites[i] = []*Vertex{sv}
		}
		return sites, nil
	}

	var source *Vertex
	for _, v := range sub {
		if p := v.Parent(); p == nil || !inSub.Contains(p) {
			if source != nil {
				return nil, errors.Wrap(frag.ErrSubgraphNotMirror, "subgraph has more than one source")
			}
			source = v
		}
	}
	numSites := len(X.SymVerticesFor(source))
	if numSites == 0 {
		return asIs, nil
	}

	// Every end of the subgraph must have the same number of symmetric partners
	upperLimits := mapset.NewThreadUnsafeSet()
	doneBySymmetry := mapset.NewThreadUnsafeSet()
	for _, v := range sub {
		isEnd := true
		for _, kid := range v.Children() {
			if inSub.Contains(kid) {
				isEnd = false
				break
			}
		}
		if !isEnd || doneBySymmetry.Contains(v) {
			continue
		}
		sym := X.SymVerticesFor(v)
		replicasInSub := 1
		inSubCount := 0
		for _, sv := range sym {
			if inSub.Contains(sv) {
				inSubCount++
				doneBySymmetry.Add(sv)
			}
		}
		if inSubCount > 0 {
			replicasInSub = inSubCount
		}
		if len(sym) != replicasInSub*numSites {
			klog.V(3).Infof("subgraph at %v is not mirrored uniformly", source)
			return asIs, nil
		}
		for _, sv := range sym {
			upperLimits.Add(sv)
		}
	}

	var frontier []*Vertex
	for _, lim := range upperLimits.ToSlice() {
		frontier = append(frontier, lim.(*Vertex))
	}

	var sites [][]*Vertex
	for _, symSource := range X.SymVerticesFor(source) {
		kids, err := X.ChildrenTree(symSource, TreeOpts{Frontier: frontier})
		if err != nil {
			return nil, err
		}
		site := []*Vertex{symSource}
		for _, kid := range kids {
			if kid.BBType != frag.BB_Cap {
				site = append(site, kid)
			}
		}
		if len(site) != len(sub) {
			return asIs, nil
		}
		sites = append(sites, site)
	}
	return sites, nil
}

// ReplaceSubGraph replaces the connected subgraph sub with a copy of incoming on every site mirroring sub.
// apMap maps APs on vertices of sub to APs on vertices of incoming.  The copies of incoming become
// symmetric to each other, and capping groups are re-added where needed.  incoming is not modified.
func (X *Graph) ReplaceSubGraph(sub []*Vertex, incoming *Graph, apMap map[*AP]*AP, ws *Workspace) (ok bool, err error) {
	for _, v := range sub {
		if v.graph != X {
			return false, errors.Wrapf(frag.ErrVtxNotInGraph, "vertex %v", v)
		}
	}
	edit := X.beginEdit()
	defer edit.finish(&ok, &err)

	// Capping groups are dropped and regenerated as needed
	var kept []*Vertex
	for _, v := range sub {
		if v.BBType == frag.BB_Cap {
			if err = X.RemoveVertex(v); err != nil {
				return false, err
			}
		} else {
			kept = append(kept, v)
		}
	}
	if len(kept) == 0 {
		return false, frag.ErrOnlyCappingGroups
	}
	sub = kept

	incoming.reassignSymmetricLabels()
	defer func() {
		for _, v := range incoming.verts {
			v.symLabel = ""
		}
	}()
	X.ids.EnsureAbove(X.MaxVertexID())

	sites, err := X.SymmetricSubGraphs(sub)
	if err != nil {
		return false, err
	}
	ref := sites[0]
	for _, site := range sites {
		if sameVertexSet(site, sub) {
			ref = site
			break
		}
	}
	sites = X.filterMirroredSites(ref, sites)
	if len(sites) == 0 {
		return false, errors.Wrap(frag.ErrSubgraphNotMirror, "no site matches the surroundings of the subgraph")
	}

	posInRef := make(map[*Vertex]int, len(ref))
	for i, v := range ref {
		posInRef[v] = i
	}

	for _, site := range sites {
		toAdd, dupes := incoming.cloneWithMap()
		toAdd.ids = X.ids
		toAdd.RenumberVertices()
		toAdd.RenumberAPs()
		added := append([]*Vertex(nil), toAdd.verts...)

		for _, v := range site {
			if err = X.RemoveCappingGroupsOn(v.Children()); err != nil {
				return false, err
			}
		}

		localMap := make(map[*AP]*AP, len(apMap))
		for oldAP, newAP := range apMap {
			pos, known := posInRef[oldAP.owner]
			if !known {
				return false, errors.Wrapf(frag.ErrAPNotInGraph, "AP %v is not on the subgraph", oldAP)
			}
			apOnOld := site[pos].AP(oldAP.Index())
			apOnNew := dupes.aps[newAP]
			if apOnOld == nil || apOnNew == nil {
				return false, errors.Wrapf(frag.ErrBadAPIndex, "mapping %v to %v", oldAP, newAP)
			}
			localMap[apOnOld] = apOnNew
		}

		if err = X.replaceSingleSubGraph(site, toAdd, localMap); err != nil {
			return editOutcome(err)
		}
		if err = X.AddCappingGroupsOn(added, ws); err != nil {
			return false, err
		}
	}
	if err = X.convertSymmetricLabelsToSymmetricSets(); err != nil {
		return false, err
	}
	return true, nil
}

// filterMirroredSites keeps the sites whose vertices have the same kind of children as those of ref.
func (X *Graph) filterMirroredSites(ref []*Vertex, sites [][]*Vertex) [][]*Vertex {
	inRef := make(map[*Vertex]bool, len(ref))
	for _, v := range ref {
		inRef[v] = true
	}
	nonCapKids := func(v *Vertex) []*Vertex {
		var kids []*Vertex
		for _, kid := range v.Children() {
			if kid.BBType != frag.BB_Cap {
				kids = append(kids, kid)
			}
		}
		return kids
	}

	var mirrored [][]*Vertex
	for _, site := range sites {
		match := true
		for i := 0; match && i < len(ref); i++ {
			refKids, siteKids := nonCapKids(ref[i]), nonCapKids(site[i])
			if len(refKids) != len(siteKids) {
				match = false
				break
			}
			for j, kid := range refKids {
				if inRef[kid] {
					continue
				}
				if kid.BBType != siteKids[j].BBType {
					match = false
					break
				}
			}
		}
		if match {
			mirrored = append(mirrored, site)
		}
	}
	return mirrored
}

func sameVertexSet(a, b []*Vertex) bool {
	if len(a) != len(b) {
		return false
	}
	inA := make(map[*Vertex]bool, len(a))
	for _, v := range a {
		inA[v] = true
	}
	for _, v := range b {
		if !inA[v] {
			return false
		}
	}
	return true
}

// ReplaceSingleSubGraph replaces the connected subgraph sub with the vertices of incoming, which are moved
// (not copied) into X.  apMap maps APs on vertices of sub to APs on vertices of incoming and must cover every
// AP linking sub to the rest of the graph.  Symmetric sets of incoming are not imported.
func (X *Graph) ReplaceSingleSubGraph(sub []*Vertex, incoming *Graph, apMap map[*AP]*AP) (ok bool, err error) {
	edit := X.beginEdit()
	defer edit.finish(&ok, &err)

	if err = X.replaceSingleSubGraph(sub, incoming, apMap); err != nil {
		return editOutcome(err)
	}
	return true, nil
}

// straddlingRing is a ring passing through the subgraph being replaced, with the two ring
// vertices that bound the replaced stretch.
type straddlingRing struct {
	ring     *Ring
	headSide *Vertex
	tailSide *Vertex
}

func (X *Graph) replaceSingleSubGraph(sub []*Vertex, incoming *Graph, apMap map[*AP]*AP) error {
	inSub := make(map[*Vertex]bool, len(sub))
	for _, v := range sub {
		if v.graph != X {
			return errors.Wrapf(frag.ErrVtxNotInGraph, "vertex %v", v)
		}
		inSub[v] = true
	}
	if incoming == X || len(incoming.verts) == 0 {
		return errors.Wrap(frag.ErrVtxInOtherGraph, "incoming graph must be a separate, non-empty graph")
	}

	// APs on the old vertices that face the rest of the graph (or the template surface)
	var oldIface []*AP
	for _, v := range sub {
		for _, ap := range v.aps {
			if ap.IsAvailable() || !inSub[ap.LinkedAP().owner] {
				oldIface = append(oldIface, ap)
			}
		}
	}
	newIface := incoming.AvailableAPs()

	for oldAP, newAP := range apMap {
		if !inSub[oldAP.owner] {
			return errors.Wrapf(frag.ErrAPNotInGraph, "AP %v is not on the subgraph", oldAP)
		}
		if newAP.owner == nil || newAP.owner.graph != incoming || !newAP.IsAvailable() {
			return errors.Wrapf(frag.ErrAPNotInGraph, "AP %v is not a free AP of the incoming graph", newAP)
		}
	}

	type link struct {
		newAP  *AP
		linked *AP
		bond   frag.BondType
	}
	var links []link
	var trgOnNew *AP
	inToOut := make(map[*AP]*AP) // new inner AP -> old inner AP
	var dropFromTmpl []*AP
	for _, oldAP := range oldIface {
		newAP := apMap[oldAP]
		if oldAP.IsAvailable() {
			if X.jacket == nil {
				continue
			}
			switch {
			case newAP != nil:
				inToOut[newAP] = oldAP
			case oldAP.IsAvailableThroughout():
				dropFromTmpl = append(dropFromTmpl, oldAP)
			default:
				return errors.Wrapf(frag.ErrMissingAPMapping, "AP %v on %v is used beyond the template", oldAP, oldAP.owner)
			}
			continue
		}
		if newAP == nil {
			return errors.Wrapf(frag.ErrMissingAPMapping, "AP %d on %v", oldAP.Index(), oldAP.owner)
		}
		links = append(links, link{newAP, oldAP.LinkedAP(), oldAP.user.Bond})
		if !oldAP.IsSrcInUser() {
			trgOnNew = newAP
		}
	}

	// Rings passing through the subgraph get the replaced stretch cut out and re-threaded afterwards
	var straddling []straddlingRing
	seenRing := make(map[*Ring]bool)
	for iA, apA := range oldIface {
		if apA.IsAvailable() {
			continue
		}
		for _, apB := range oldIface[iA+1:] {
			if apB.IsAvailable() {
				continue
			}
			vA, vB := apA.LinkedAP().owner, apB.LinkedAP().owner
			for _, r := range X.RingsInvolving(apA.owner, vA, apB.owner, vB) {
				if seenRing[r] {
					continue
				}
				seenRing[r] = true
				straddling = append(straddling, straddlingRing{
					ring:     r,
					headSide: r.CloserToHead(vA, vB),
					tailSide: r.CloserToTail(vA, vB),
				})
			}
		}
	}
	for _, sr := range straddling {
		from, to := sr.ring.PositionOf(sr.headSide), sr.ring.PositionOf(sr.tailSide)
		if to <= from+1 {
			continue
		}
		for _, v := range sr.ring.Vertices()[from+1 : to] {
			X.ringRemoveVtx(sr.ring, v)
		}
	}

	for _, oldAP := range oldIface {
		if oldAP.user != nil {
			X.deleteEdge(oldAP.user)
		}
	}
	for _, v := range sub {
		if err := X.RemoveVertex(v); err != nil {
			return err
		}
	}

	X.joinEdit(incoming)
	X.importGraph(incoming, false)

	done := make(map[*AP]bool)
	if trgOnNew != nil {
		for _, l := range links {
			if l.newAP == trgOnNew {
				if err := X.AddEdge(NewEdge(l.linked, l.newAP, l.bond)); err != nil {
					return err
				}
				done[l.newAP] = true
				break
			}
		}
	}
	for _, l := range links {
		if l.newAP == trgOnNew {
			continue
		}
		if err := X.AddEdge(NewEdge(l.newAP, l.linked, l.bond)); err != nil {
			return err
		}
		done[l.newAP] = true
	}

	for _, sr := range straddling {
		path, err := X.PathBetween(sr.headSide, sr.tailSide)
		if err != nil {
			return err
		}
		at := sr.ring.PositionOf(sr.headSide)
		for i := 1; i < len(path)-1; i++ {
			X.ringInsertVtx(sr.ring, at+i, path[i])
		}
	}

	if X.jacket != nil {
		for _, oldAP := range oldIface {
			for newAP, was := range inToOut {
				if was == oldAP {
					X.jacket.updateInnerApID(oldAP, newAP)
					done[newAP] = true
				}
			}
		}
		for _, ap := range newIface {
			if !done[ap] && ap.IsAvailable() {
				X.jacket.addInnerToOuterAPMapping(ap)
			}
		}
		for _, oldAP := range dropFromTmpl {
			if err := X.jacket.removeProjectionOfInnerAP(oldAP); err != nil {
				return err
			}
		}
	}
	return nil
}
