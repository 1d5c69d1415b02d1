package libfrag

import (
	"fmt"
)

// SameAs compares X and other ignoring vertex and AP IDs.  Unlike IsIsomorphicTo, the comparison is ordered:
// the two spanning trees are walked in parallel from their roots, AP by AP, and must line up exactly,
// edge directions included.  Rings and symmetric sets must then correspond under the resulting vertex map.
// If the graphs differ, the reason says where.
func (X *Graph) SameAs(other *Graph) (bool, string) {
	if len(X.verts) != len(other.verts) {
		return false, fmt.Sprintf("different number of vertices (%d vs %d)", len(X.verts), len(other.verts))
	}
	if len(X.edges) != len(other.edges) {
		return false, fmt.Sprintf("different number of edges (%d vs %d)", len(X.edges), len(other.edges))
	}
	if len(X.rings) != len(other.rings) {
		return false, fmt.Sprintf("different number of rings (%d vs %d)", len(X.rings), len(other.rings))
	}
	if len(X.symSets) != len(other.symSets) {
		return false, fmt.Sprintf("different number of symmetric sets (%d vs %d)", len(X.symSets), len(other.symSets))
	}
	if len(X.verts) == 0 {
		return true, ""
	}

	srcX, err := X.SourceVertex()
	if err != nil {
		return false, err.Error()
	}
	srcO, err := other.SourceVertex()
	if err != nil {
		return false, err.Error()
	}
	vMap := make(map[*Vertex]*Vertex, len(X.verts))
	if same, reason := sameBranch(srcX, srcO, vMap); !same {
		return false, reason
	}
	if len(vMap) != len(X.verts) {
		return false, fmt.Sprintf("only %d of %d vertices reached from the root", len(vMap), len(X.verts))
	}

	usedRings := make(map[*Ring]bool, len(other.rings))
	for _, r := range X.rings {
		found := false
		for _, rO := range other.rings {
			if !usedRings[rO] && sameRing(r, rO, vMap) {
				usedRings[rO] = true
				found = true
				break
			}
		}
		if !found {
			return false, fmt.Sprintf("no counterpart for ring %v", r)
		}
	}

	for _, ss := range X.symSets {
		ssO := other.SymSetFor(vMap[ss.members[0]])
		if ssO == nil || ssO.Size() != ss.Size() {
			return false, fmt.Sprintf("no counterpart for symmetric set %v", ss)
		}
		for _, v := range ss.members {
			if !ssO.Contains(vMap[v]) {
				return false, fmt.Sprintf("symmetric set %v differs from %v", ss, ssO)
			}
		}
	}
	return true, ""
}

// sameBranch compares the subtrees rooted at a and b, recording the vertex correspondence in vMap.
func sameBranch(a, b *Vertex, vMap map[*Vertex]*Vertex) (bool, string) {
	if _, seen := vMap[a]; seen {
		return false, fmt.Sprintf("vertex %v reached twice", a)
	}
	if same, reason := a.sameAs(b); !same {
		return false, fmt.Sprintf("vertices %v and %v: %s", a, b, reason)
	}
	vMap[a] = b
	for i, apA := range a.aps {
		apB := b.aps[i]
		if apA.IsAvailable() != apB.IsAvailable() {
			return false, fmt.Sprintf("AP %v and %v: only one is free", apA, apB)
		}
		if apA.IsAvailable() {
			continue
		}
		if apA.IsSrcInUser() != apB.IsSrcInUser() {
			return false, fmt.Sprintf("AP %v and %v: edges run in different directions", apA, apB)
		}
		if !apA.IsSrcInUser() {
			continue
		}
		if same, reason := apA.user.sameAs(apB.user); !same {
			return false, fmt.Sprintf("edges %v and %v: %s", apA.user, apB.user, reason)
		}
		if same, reason := sameBranch(apA.user.trg.owner, apB.user.trg.owner, vMap); !same {
			return false, reason
		}
	}
	return true, ""
}

// sameRing reports if rO holds the images of the vertices of r, in the same or in reverse order.
func sameRing(r, rO *Ring, vMap map[*Vertex]*Vertex) bool {
	if r.Size() != rO.Size() || r.Bond != rO.Bond {
		return false
	}
	n := r.Size()
	forward, backward := true, true
	for i, v := range r.verts {
		img := vMap[v]
		if rO.verts[i] != img {
			forward = false
		}
		if rO.verts[n-1-i] != img {
			backward = false
		}
	}
	return forward || backward
}
