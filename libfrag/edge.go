package libfrag

import (
	"fmt"

	"github.com/2x3systems/gofrag/frag"
)

// Edge links a source AP (on the parent) to a target AP (on the child).
type Edge struct {
	src  *AP
	trg  *AP
	Bond frag.BondType
}

func NewEdge(src, trg *AP, bt frag.BondType) *Edge {
	return &Edge{
		src:  src,
		trg:  trg,
		Bond: bt,
	}
}

func (e *Edge) Src() *AP {
	return e.src
}

func (e *Edge) Trg() *AP {
	return e.trg
}

func (e *Edge) SrcVertex() *Vertex {
	return e.src.owner
}

func (e *Edge) TrgVertex() *Vertex {
	return e.trg.owner
}

// Other returns the AP at the other end from ap, or nil if ap is not an end of this edge.
func (e *Edge) Other(ap *AP) *AP {
	switch ap {
	case e.src:
		return e.trg
	case e.trg:
		return e.src
	}
	return nil
}

// SrcAPThroughout resolves the source AP into the deepest embedded AP.
func (e *Edge) SrcAPThroughout() *AP {
	return e.src.EmbeddedAP()
}

func (e *Edge) TrgAPThroughout() *AP {
	return e.trg.EmbeddedAP()
}

func (e *Edge) sameAs(other *Edge) (bool, string) {
	if e.Bond != other.Bond {
		return false, fmt.Sprintf("different bond type (%v vs %v)", e.Bond, other.Bond)
	}
	if same, reason := e.src.sameAs(other.src); !same {
		return false, "source AP: " + reason
	}
	if same, reason := e.trg.sameAs(other.trg); !same {
		return false, "target AP: " + reason
	}
	return true, ""
}

func (e *Edge) String() string {
	return fmt.Sprintf("%v-%v->%v", e.src, e.Bond, e.trg)
}
