package frag

import "errors"

// Error kinds.  Every specific error below unwraps to exactly one of these.
var (
	ErrStructuralViolation = errors.New("structural violation")
	ErrUnresolvableEdit    = errors.New("unresolvable edit")
	ErrReferenceError      = errors.New("reference error")
)

// Errors
var (
	ErrDuplicateVtxID    = kindErr(ErrStructuralViolation, "duplicate vertex ID")
	ErrDuplicateAPID     = kindErr(ErrStructuralViolation, "duplicate attachment point ID")
	ErrCyclicParentChain = kindErr(ErrStructuralViolation, "cyclic parent chain")
	ErrChordBondMismatch = kindErr(ErrStructuralViolation, "inconsistent bond types across ring-closing vertices")
	ErrSymSetConflict    = kindErr(ErrStructuralViolation, "vertex already belongs to another symmetric set")
	ErrMultipleRoots     = kindErr(ErrStructuralViolation, "graph has more than one spanning-tree root")
	ErrBadRing           = kindErr(ErrStructuralViolation, "ring is not a closed path over the spanning tree")
	ErrBrokenEdge        = kindErr(ErrStructuralViolation, "inconsistent edge or attachment point linkage")
	ErrMissingProjection = kindErr(ErrStructuralViolation, "attachment point has no projection on its template")
	ErrSubgraphNotMirror = kindErr(ErrStructuralViolation, "subgraph has no unique entry point")
	ErrOnlyCappingGroups = kindErr(ErrStructuralViolation, "subgraph consists only of capping groups")
	ErrVtxNotInGraph     = kindErr(ErrReferenceError, "vertex not in graph")
	ErrVtxInOtherGraph   = kindErr(ErrReferenceError, "vertex belongs to another graph")
	ErrEdgeNotInGraph    = kindErr(ErrReferenceError, "edge not in graph")
	ErrAPNotInGraph      = kindErr(ErrReferenceError, "attachment point not owned by this graph")
	ErrAPInUse           = kindErr(ErrReferenceError, "attachment point already in use")
	ErrBadAPIndex        = kindErr(ErrReferenceError, "attachment point index out of range")
	ErrRingNotInGraph    = kindErr(ErrReferenceError, "ring not in graph")
	ErrNotTemplate       = kindErr(ErrReferenceError, "vertex is not a template")
	ErrMissingAPMapping  = kindErr(ErrUnresolvableEdit, "used interface attachment point has no mapping")
	ErrNoCompatiblePairs = kindErr(ErrUnresolvableEdit, "no compatible attachment point pairing")
	ErrBadEncoding       = errors.New("bad graph encoding")
	ErrUnmarshal         = errors.New("unmarshal failed")
	ErrBadCatalogParam   = errors.New("bad catalog param")
	ErrUnknownBlock      = errors.New("unknown building block")
	ErrNoCappingBlock    = errors.New("capping required but no capping building block found")
	ErrBadAPClass        = errors.New("bad attachment point class")
	ErrBadConfig         = errors.New("bad config")
)

type kindError struct {
	kind error
	msg  string
}

func kindErr(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

func (err *kindError) Error() string {
	return err.msg
}

func (err *kindError) Unwrap() error {
	return err.kind
}
