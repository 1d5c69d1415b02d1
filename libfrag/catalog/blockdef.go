package catalog

import (
	"github.com/2x3systems/gofrag/frag"
	"github.com/2x3systems/gofrag/libfrag"
	"github.com/gogo/protobuf/proto"
	"github.com/pkg/errors"
)

// blockDef is what the catalog keeps of a building block: everything but identity.
type blockDef struct {
	Kind      libfrag.VtxKind
	IsRCV     bool
	NumAtoms  int
	AtomBonds [][2]int
	APs       []apDef

	// Templates only: the inner graph in text form and, in outer AP order, the inner APs it projects.
	Inner       string
	Projections []projDef
}

type apDef struct {
	Class   frag.APClass
	Bond    frag.BondType
	SrcAtom int
}

type projDef struct {
	VtxID frag.VtxID
	APIdx int
}

func blockDefFromVertex(v *libfrag.Vertex) (*blockDef, error) {
	def := &blockDef{
		Kind:     v.Kind,
		IsRCV:    v.IsRCV,
		NumAtoms: v.NumAtoms,
	}
	def.AtomBonds = append(def.AtomBonds, v.AtomBonds...)
	for _, ap := range v.APs() {
		def.APs = append(def.APs, apDef{
			Class:   ap.Class,
			Bond:    ap.Bond,
			SrcAtom: ap.SrcAtom,
		})
	}

	if inner := v.InnerGraph(); v.Kind == libfrag.Kind_Template && inner != nil {
		def.Inner = inner.GrammarString()
		for _, outer := range v.APs() {
			innerAP := v.InnerAP(outer)
			if innerAP == nil {
				return nil, errors.Wrapf(frag.ErrMissingProjection, "AP %v of template %v", outer, v)
			}
			def.Projections = append(def.Projections, projDef{
				VtxID: innerAP.Owner().ID(),
				APIdx: innerAP.Index(),
			})
		}
	}
	return def, nil
}

func (def *blockDef) hasAPClass(apc frag.APClass) bool {
	for _, ap := range def.APs {
		if ap.Class == apc {
			return true
		}
	}
	return false
}

// newVertex builds a detached vertex for this block, minting every ID from ids.
func (def *blockDef) newVertex(ids frag.IDAllocator, bbt frag.BBType, bbID int) (*libfrag.Vertex, error) {
	if def.Kind == libfrag.Kind_Template && def.Inner != "" {
		inner, err := libfrag.NewGraphFromString(def.Inner, ids)
		if err != nil {
			return nil, errors.Wrapf(err, "inner graph of block %v %d", bbt, bbID)
		}
		order := make([]*libfrag.AP, 0, len(def.Projections))
		for _, p := range def.Projections {
			if iv := inner.VertexWithID(p.VtxID); iv != nil && iv.AP(p.APIdx) != nil {
				order = append(order, iv.AP(p.APIdx))
			}
		}
		v := libfrag.NewTemplate(ids.NextVtxID(), bbt, bbID)
		if err = v.SetInnerGraph(inner, order...); err != nil {
			inner.Reclaim()
			return nil, err
		}
		return v, nil
	}

	v := libfrag.NewVertex(ids.NextVtxID(), def.Kind, bbt, bbID)
	v.IsRCV = def.IsRCV
	v.NumAtoms = def.NumAtoms
	if len(def.AtomBonds) > 0 {
		v.AtomBonds = append([][2]int(nil), def.AtomBonds...)
	}
	for _, apd := range def.APs {
		ap := v.AddAP(ids.NextAPID(), apd.Class, apd.Bond)
		ap.SrcAtom = apd.SrcAtom
	}
	return v, nil
}

func boolToVarint(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

// Marshal encodes def as a flat sequence of varints and length-prefixed strings.
func (def *blockDef) Marshal() []byte {
	buf := proto.NewBuffer(nil)
	buf.EncodeVarint(uint64(def.Kind))
	buf.EncodeVarint(boolToVarint(def.IsRCV))
	buf.EncodeVarint(uint64(def.NumAtoms))
	buf.EncodeVarint(uint64(len(def.AtomBonds)))
	for _, pair := range def.AtomBonds {
		buf.EncodeVarint(uint64(pair[0]))
		buf.EncodeVarint(uint64(pair[1]))
	}
	buf.EncodeVarint(uint64(len(def.APs)))
	for _, ap := range def.APs {
		buf.EncodeStringBytes(ap.Class.Rule)
		buf.EncodeVarint(uint64(ap.Class.Sub))
		buf.EncodeVarint(uint64(ap.Bond))
		buf.EncodeZigzag64(uint64(ap.SrcAtom))
	}
	buf.EncodeStringBytes(def.Inner)
	buf.EncodeVarint(uint64(len(def.Projections)))
	for _, p := range def.Projections {
		buf.EncodeVarint(uint64(p.VtxID))
		buf.EncodeVarint(uint64(p.APIdx))
	}
	return buf.Bytes()
}

// blockReader decodes the fields written by blockDef.Marshal, holding on to the first error.
type blockReader struct {
	buf *proto.Buffer
	err error
}

func (r *blockReader) varint() uint64 {
	if r.err != nil {
		return 0
	}
	var x uint64
	x, r.err = r.buf.DecodeVarint()
	return x
}

// count reads a length that cannot exceed the bytes left.
func (r *blockReader) count(remain int) int {
	n := r.varint()
	if r.err == nil && n > uint64(remain) {
		r.err = errors.New("length out of range")
	}
	return int(n)
}

func (r *blockReader) zigzag() int64 {
	if r.err != nil {
		return 0
	}
	var x uint64
	x, r.err = r.buf.DecodeZigzag64()
	return int64(x)
}

func (r *blockReader) str() string {
	if r.err != nil {
		return ""
	}
	var s string
	s, r.err = r.buf.DecodeStringBytes()
	return s
}

func (def *blockDef) Unmarshal(val []byte) error {
	r := blockReader{buf: proto.NewBuffer(val)}
	def.Kind = libfrag.VtxKind(r.varint())
	def.IsRCV = r.varint() != 0
	def.NumAtoms = int(r.varint())

	def.AtomBonds = def.AtomBonds[:0]
	for i, n := 0, r.count(len(val)); i < n && r.err == nil; i++ {
		def.AtomBonds = append(def.AtomBonds, [2]int{int(r.varint()), int(r.varint())})
	}

	def.APs = def.APs[:0]
	for i, n := 0, r.count(len(val)); i < n && r.err == nil; i++ {
		ap := apDef{}
		ap.Class.Rule = r.str()
		ap.Class.Sub = int(r.varint())
		ap.Bond = frag.BondType(r.varint())
		ap.SrcAtom = int(r.zigzag())
		def.APs = append(def.APs, ap)
	}

	def.Inner = r.str()
	def.Projections = def.Projections[:0]
	for i, n := 0, r.count(len(val)); i < n && r.err == nil; i++ {
		def.Projections = append(def.Projections, projDef{
			VtxID: frag.VtxID(r.varint()),
			APIdx: int(r.varint()),
		})
	}

	if r.err != nil {
		return errors.Wrap(frag.ErrUnmarshal, r.err.Error())
	}
	if int(def.Kind) >= libfrag.NumVtxKinds {
		return errors.Wrap(frag.ErrUnmarshal, "bad vertex kind")
	}
	for _, ap := range def.APs {
		if int(ap.Bond) >= frag.NumBondTypes {
			return errors.Wrap(frag.ErrUnmarshal, "bad bond type")
		}
	}
	return nil
}
