package libfrag

import (
	"encoding/binary"
	"encoding/hex"
	"sort"

	"lukechampine.com/blake3"
)

// Fingerprint is a digest of a Graph that does not depend on vertex IDs, vertex order or edge direction.
// Isomorphic graphs have the same fingerprint; the converse is likely but not guaranteed.
type Fingerprint [32]byte

func (fp Fingerprint) String() string {
	return hex.EncodeToString(fp[:])
}

// Fingerprint returns the fingerprint of X, obtained by iteratively refining node labels of its undirected
// view with the labels of their neighbors.
func (X *Graph) Fingerprint() Fingerprint {
	p := X.undirectedView()
	n := len(p.nodes)

	labels := make([][32]byte, n)
	for i, node := range p.nodes {
		labels[i] = vertexLabel(node.v)
	}

	classes := countDistinct(labels)
	next := make([][32]byte, n)
	var buf []byte
	for round := 0; round < n; round++ {
		for i := range p.nodes {
			neighbors := make([][]byte, 0, len(p.arcs[i]))
			for _, arc := range p.arcs[i] {
				var b []byte
				b = binary.AppendVarint(b, int64(arc.near))
				b = binary.AppendVarint(b, int64(arc.far))
				b = append(b, byte(arc.bond))
				b = append(b, labels[arc.to][:]...)
				neighbors = append(neighbors, b)
			}
			sort.Slice(neighbors, func(a, b int) bool { return string(neighbors[a]) < string(neighbors[b]) })

			buf = append(buf[:0], labels[i][:]...)
			for _, b := range neighbors {
				buf = append(buf, b...)
			}
			next[i] = blake3.Sum256(buf)
		}
		labels, next = next, labels
		refined := countDistinct(labels)
		if refined == classes {
			break
		}
		classes = refined
	}

	sort.Slice(labels, func(a, b int) bool { return string(labels[a][:]) < string(labels[b][:]) })
	hasher := blake3.New(32, nil)
	var hdr []byte
	hdr = binary.AppendUvarint(hdr, uint64(n))
	hdr = binary.AppendUvarint(hdr, uint64(p.numArcs()))
	hasher.Write(hdr)
	for _, label := range labels {
		hasher.Write(label[:])
	}
	var fp Fingerprint
	copy(fp[:], hasher.Sum(nil))
	return fp
}

// vertexLabel digests what IsIsomorphicTo compares on a vertex.
func vertexLabel(v *Vertex) [32]byte {
	var b []byte
	b = append(b, byte(v.Kind), byte(v.BBType))
	b = binary.AppendVarint(b, int64(v.BBID))
	if v.IsRCV {
		b = append(b, 1)
	} else {
		b = append(b, 0)
	}
	b = binary.AppendVarint(b, int64(v.NumAtoms))
	b = binary.AppendUvarint(b, uint64(len(v.AtomBonds)))
	for _, ap := range v.aps {
		b = append(b, ap.Class.Rule...)
		b = append(b, 0)
		b = binary.AppendVarint(b, int64(ap.Class.Sub))
		b = binary.AppendVarint(b, int64(ap.SrcAtom))
		if ap.IsAvailable() {
			b = append(b, 1)
		} else {
			b = append(b, 0)
		}
	}
	if v.Kind == Kind_Template && v.inner != nil {
		innerFP := v.inner.Fingerprint()
		b = append(b, innerFP[:]...)
	}
	return blake3.Sum256(b)
}

func countDistinct(labels [][32]byte) int {
	seen := make(map[[32]byte]struct{}, len(labels))
	for _, label := range labels {
		seen[label] = struct{}{}
	}
	return len(seen)
}
