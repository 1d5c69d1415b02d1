// Package graphjson reads and writes graphs as JSON documents.
//
// Vertices and APs carry explicit integer IDs.  Edges refer to the IDs of their APs, rings and symmetric
// sets to vertex IDs.  Reading is done in two passes: the document is first decoded into a plain
// representation holding IDs only, which is then resolved into a Graph.
package graphjson

import (
	"github.com/2x3systems/gofrag/frag"
	"github.com/2x3systems/gofrag/libfrag"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type graphIR struct {
	GraphID  int64       `json:"graphId"`
	Vertices []*vertexIR `json:"gVertices"`
	Edges    []edgeIR    `json:"gEdges"`
	Rings    []ringIR    `json:"gRings"`
	SymSets  [][]int64   `json:"symVertices,omitempty"`
}

type vertexIR struct {
	ID        int64    `json:"vertexId"`
	Type      string   `json:"vertexType"`
	BBType    string   `json:"buildingBlockType"`
	BBID      int      `json:"buildingBlockId"`
	IsRCV     bool     `json:"isRCV,omitempty"`
	APs       []apIR   `json:"lstAPs"`
	NumAtoms  int      `json:"numAtoms,omitempty"`
	AtomBonds [][2]int `json:"atomBonds,omitempty"`

	// Templates only: the inner graph and, for each AP in APs, the inner AP it projects.
	Inner       *graphIR `json:"innerGraph,omitempty"`
	Projections []projIR `json:"innerToOuterAPs,omitempty"`
}

type apIR struct {
	ID    int64  `json:"id"`
	Class string `json:"apClass"`
	Bond  string `json:"bondType"`
	Atom  int    `json:"atomPositionNumber"`
}

type projIR struct {
	VtxID int64 `json:"innerVertexId"`
	APIdx int   `json:"innerAPIndex"`
}

type edgeIR struct {
	SrcAPID int64  `json:"srcAPID"`
	TrgAPID int64  `json:"trgAPID"`
	Bond    string `json:"bondType"`
}

type ringIR struct {
	VtxIDs []int64 `json:"vertices"`
	Bond   string  `json:"bndTyp"`
}

var vertexTypeNames = [libfrag.NumVtxKinds]string{
	libfrag.Kind_Fragment:    "MolecularFragment",
	libfrag.Kind_Placeholder: "EmptyVertex",
	libfrag.Kind_Template:    "Template",
}

func parseVertexType(str string) (libfrag.VtxKind, error) {
	for kind, name := range vertexTypeNames {
		if name == str {
			return libfrag.VtxKind(kind), nil
		}
	}
	return 0, errors.Wrapf(frag.ErrBadEncoding, "unknown vertexType %q", str)
}

// Marshal encodes X.  If X holds colliding vertex or AP IDs at any nesting level, a copy of X with all
// vertex and AP IDs regenerated is encoded instead; X itself is never changed.
func Marshal(X *libfrag.Graph) ([]byte, error) {
	ir, err := encode(X)
	if err != nil {
		return nil, err
	}
	return json.Marshal(ir)
}

// MarshalIndent is Marshal with indented output.
func MarshalIndent(X *libfrag.Graph, prefix, indent string) ([]byte, error) {
	ir, err := encode(X)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(ir, prefix, indent)
}

// MarshalList encodes a JSON array of graphs.
func MarshalList(graphs []*libfrag.Graph) ([]byte, error) {
	irs := make([]*graphIR, len(graphs))
	for i, X := range graphs {
		var err error
		if irs[i], err = encode(X); err != nil {
			return nil, errors.Wrapf(err, "graph %d", i)
		}
	}
	return json.Marshal(irs)
}

// Unmarshal decodes a graph, keeping the vertex and AP IDs of the document.  ids, which may be nil, is
// the allocator the graph mints new IDs from; it is moved past every ID read.
func Unmarshal(buf []byte, ids frag.IDAllocator) (*libfrag.Graph, error) {
	var ir graphIR
	if err := json.Unmarshal(buf, &ir); err != nil {
		return nil, errors.Wrap(frag.ErrUnmarshal, err.Error())
	}
	if ids == nil {
		ids = frag.NewCounter(0, 0)
	}
	return decodeGraph(&ir, ids)
}

// UnmarshalList decodes a JSON array of graphs sharing the given allocator.
func UnmarshalList(buf []byte, ids frag.IDAllocator) ([]*libfrag.Graph, error) {
	var irs []*graphIR
	if err := json.Unmarshal(buf, &irs); err != nil {
		return nil, errors.Wrap(frag.ErrUnmarshal, err.Error())
	}
	if ids == nil {
		ids = frag.NewCounter(0, 0)
	}
	graphs := make([]*libfrag.Graph, 0, len(irs))
	for i, ir := range irs {
		if ir == nil {
			return nil, errors.Wrapf(frag.ErrBadEncoding, "graph %d is null", i)
		}
		X, err := decodeGraph(ir, ids)
		if err != nil {
			for _, g := range graphs {
				g.Reclaim()
			}
			return nil, errors.Wrapf(err, "graph %d", i)
		}
		graphs = append(graphs, X)
	}
	return graphs, nil
}
