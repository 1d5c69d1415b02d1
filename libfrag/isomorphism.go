package libfrag

import (
	"github.com/plan-systems/klog"
)

// IsIsomorphicTo reports if X and other are equivalent once edge direction and identities are ignored.
// Vertices must match by content and every link must join the same pair of AP indexes with the same bond.
// The choice of AP on a vertex therefore matters, even between APs that look alike.
func (X *Graph) IsIsomorphicTo(other *Graph) bool {
	if X == other {
		return true
	}
	m := newMatcher(X.undirectedView(), other.undirectedView())
	memo := make(map[[2]*Vertex]bool)
	m.sameNode = func(i, j int) bool {
		return sameVertexMemo(X, other, m.g1.nodes[i].v, m.g2.nodes[j].v, memo)
	}
	m.sameArc = func(a, b projArc) bool {
		return a.near == b.near && a.far == b.far && a.bond == b.bond
	}
	iso := m.run()
	klog.V(3).Infof("isomorphism of graphs %d and %d: %v", X.GraphID, other.GraphID, iso)
	return iso
}

// IsIsostructuralTo reports if X and other have the same shape: only the ring-closing flag of vertices, the
// placement of free APs and the bond of every link are compared.
func (X *Graph) IsIsostructuralTo(other *Graph) bool {
	if X == other {
		return true
	}
	m := newMatcher(X.kernelView(), other.kernelView())
	m.sameNode = func(i, j int) bool {
		n1, n2 := m.g1.nodes[i], m.g2.nodes[j]
		if (n1.v == nil) != (n2.v == nil) {
			return false
		}
		return n1.v == nil || n1.v.IsRCV == n2.v.IsRCV
	}
	m.sameArc = func(a, b projArc) bool {
		return a.bond == b.bond
	}
	return m.run()
}

// sameVertexMemo compares vertex content.  A positive outcome is extended to every pair formed by a vertex
// symmetric to a and a vertex symmetric to b.
func sameVertexMemo(gA, gB *Graph, a, b *Vertex, memo map[[2]*Vertex]bool) bool {
	key := [2]*Vertex{a, b}
	if same, known := memo[key]; known {
		return same
	}
	same, _ := a.sameAs(b)
	memo[key] = same
	if !same {
		return false
	}
	symA, symB := gA.SymVerticesFor(a), gB.SymVerticesFor(b)
	if symA == nil {
		symA = []*Vertex{a}
	}
	if symB == nil {
		symB = []*Vertex{b}
	}
	for _, sa := range symA {
		for _, sb := range symB {
			memo[[2]*Vertex{sa, sb}] = true
		}
	}
	return true
}

// matcher is a VF2-style backtracking search for a bijection between the nodes of two projections.
type matcher struct {
	g1, g2   *projection
	sameNode func(n1, n2 int) bool
	sameArc  func(a1, a2 projArc) bool

	order  []int // g1 nodes in visiting order
	core1  []int // g1 node -> g2 node, or -1
	core2  []int // g2 node -> g1 node, or -1
	mapped []int // g1 nodes mapped so far
}

func newMatcher(g1, g2 *projection) *matcher {
	m := &matcher{
		g1:    g1,
		g2:    g2,
		core1: make([]int, len(g1.nodes)),
		core2: make([]int, len(g2.nodes)),
	}
	for i := range m.core1 {
		m.core1[i] = -1
	}
	for i := range m.core2 {
		m.core2[i] = -1
	}
	return m
}

// visitOrder lists g1 nodes breadth-first so each node after the first of its component has a mapped neighbor.
func (m *matcher) visitOrder() []int {
	seen := make([]bool, len(m.g1.nodes))
	order := make([]int, 0, len(m.g1.nodes))
	for start := range m.g1.nodes {
		if seen[start] {
			continue
		}
		seen[start] = true
		queue := []int{start}
		for len(queue) > 0 {
			n := queue[0]
			queue = queue[1:]
			order = append(order, n)
			for _, arc := range m.g1.arcs[n] {
				if !seen[arc.to] {
					seen[arc.to] = true
					queue = append(queue, arc.to)
				}
			}
		}
	}
	return order
}

func (m *matcher) run() bool {
	if len(m.g1.nodes) != len(m.g2.nodes) || m.g1.numArcs() != m.g2.numArcs() {
		return false
	}
	m.order = m.visitOrder()
	return m.match(0)
}

func (m *matcher) match(depth int) bool {
	if depth == len(m.order) {
		return true
	}
	n1 := m.order[depth]
	for _, n2 := range m.candidates(n1) {
		if !m.feasible(n1, n2) {
			continue
		}
		m.core1[n1], m.core2[n2] = n2, n1
		m.mapped = append(m.mapped, n1)
		if m.match(depth + 1) {
			return true
		}
		m.mapped = m.mapped[:len(m.mapped)-1]
		m.core1[n1], m.core2[n2] = -1, -1
	}
	return false
}

// candidates returns the unmapped g2 nodes n1 could map to: neighbors of the image of an already mapped
// neighbor of n1 if there is one, all unmapped nodes otherwise.
func (m *matcher) candidates(n1 int) []int {
	var cands []int
	for _, arc := range m.g1.arcs[n1] {
		img := m.core1[arc.to]
		if img < 0 {
			continue
		}
		seen := make(map[int]bool)
		for _, arc2 := range m.g2.arcs[img] {
			if m.core2[arc2.to] < 0 && !seen[arc2.to] {
				seen[arc2.to] = true
				cands = append(cands, arc2.to)
			}
		}
		return cands
	}
	for n2 := range m.g2.nodes {
		if m.core2[n2] < 0 {
			cands = append(cands, n2)
		}
	}
	return cands
}

func (m *matcher) feasible(n1, n2 int) bool {
	if len(m.g1.arcs[n1]) != len(m.g2.arcs[n2]) {
		return false
	}
	if !m.sameNode(n1, n2) {
		return false
	}
	for _, p1 := range m.mapped {
		if !m.sameArcSets(m.g1.arcsBetween(n1, p1), m.g2.arcsBetween(n2, m.core1[p1])) {
			return false
		}
	}
	return true
}

// sameArcSets reports if the two lists of parallel arcs can be paired one to one.
func (m *matcher) sameArcSets(arcs1, arcs2 []projArc) bool {
	if len(arcs1) != len(arcs2) {
		return false
	}
	used := make([]bool, len(arcs2))
	for _, a1 := range arcs1 {
		found := false
		for j, a2 := range arcs2 {
			if !used[j] && m.sameArc(a1, a2) {
				used[j] = true
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
