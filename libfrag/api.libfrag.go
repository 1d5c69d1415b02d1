package libfrag

import (
	"github.com/2x3systems/gofrag/frag"
	"github.com/pkg/errors"
)

// VtxKind distinguishes what a Vertex is made of.
type VtxKind byte

const (
	Kind_Fragment    VtxKind = 0 // atom-containing building block
	Kind_Placeholder VtxKind = 1 // abstract vertex without atoms, e.g. an attractor
	Kind_Template    VtxKind = 2 // vertex embedding a whole inner Graph

	NumVtxKinds = 3
)

var vtxKindNames = [NumVtxKinds]string{
	"FRAGMENT",
	"PLACEHOLDER",
	"TEMPLATE",
}

func (kind VtxKind) String() string {
	if int(kind) < len(vtxKindNames) {
		return vtxKindNames[kind]
	}
	return "?"
}

func ParseVtxKind(str string) (VtxKind, error) {
	for i, name := range vtxKindNames {
		if name == str {
			return VtxKind(i), nil
		}
	}
	return 0, errors.Wrapf(frag.ErrBadEncoding, "unknown vertex kind %q", str)
}

// Catalog hands out building blocks.
type Catalog interface {

	// Instantiate returns a new detached vertex for the given building block, with fresh vertex and AP IDs.
	Instantiate(bbID int, bbt frag.BBType) (*Vertex, error)

	// CappingBlockFor returns the capping building block to place on a free AP of the given class.
	// ok is false if APs of this class are left free.
	CappingBlockFor(apc frag.APClass) (bbID int, ok bool)
}

// Verdict is what an Evaluator has to say about a finished graph.
type Verdict struct {
	Pass        bool
	Reason      string
	Descriptors map[string]float64
}

// Evaluator builds its own chemical model of a finished graph and judges it.
type Evaluator interface {
	Evaluate(X *Graph) (Verdict, error)
}

// Workspace carries the collaborators an editing session needs.
type Workspace struct {
	Oracle    frag.Oracle
	Catalog   Catalog
	Evaluator Evaluator
	IDs       frag.IDAllocator
	Config    frag.Config
}

func NewWorkspace(oracle frag.Oracle, cat Catalog, ids frag.IDAllocator) *Workspace {
	if ids == nil {
		ids = frag.NewCounter(0, 0)
	}
	return &Workspace{
		Oracle:  oracle,
		Catalog: cat,
		IDs:     ids,
		Config:  frag.DefaultConfig(),
	}
}

// Evaluate checks the structural health of X and then hands it to the Evaluator, if any.
func (ws *Workspace) Evaluate(X *Graph) (Verdict, error) {
	if err := X.Validate(); err != nil {
		return Verdict{Reason: err.Error()}, err
	}
	if ws.Evaluator == nil {
		return Verdict{Pass: true}, nil
	}
	return ws.Evaluator.Evaluate(X)
}

// compatible reports if src (parent side) may bond to trg.  Without an Oracle, everything is compatible.
func (ws *Workspace) compatible(src, trg *AP) bool {
	if ws == nil || ws.Oracle == nil {
		return true
	}
	return ws.Oracle.Compatible(src.Class, trg.Class)
}

// bondFor returns the bond type of a new edge from src to trg.
func (ws *Workspace) bondFor(src, trg *AP) frag.BondType {
	if ws != nil && ws.Oracle != nil {
		if bt := ws.Oracle.BondType(src.Class, trg.Class); bt != frag.Bond_Undefined {
			return bt
		}
	}
	if src.Bond != frag.Bond_Undefined {
		return src.Bond
	}
	return trg.Bond
}

func (ws *Workspace) maxWeldMappings() int {
	if ws == nil || ws.Config.MaxWeldMappings <= 0 {
		return frag.DefaultConfig().MaxWeldMappings
	}
	return ws.Config.MaxWeldMappings
}
