package libfrag

import (
	"fmt"
	"io"
	"strings"

	"github.com/2x3systems/gofrag/frag"
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/pkg/errors"
)

// The text form of a graph is a list of statements:
//
//	frag 1 SCAFFOLD 3 [amine:0 amine:1@2 olefin:0(=)] atoms 3 (0/1 1/2)
//	ph 2 [x:0 x:1]
//	rcv 3 FRAGMENT 0 [ring:0(-)]
//	tmpl 4 FRAGMENT 9 { frag 1 FRAGMENT 2 [a:0 b:0] }
//	1:0 - 2:0
//	ring(3 1 2 5) -
//	sym(2 6)
//
// Vertex statements give the kind, the vertex ID, optionally the building block type and ID, then the APs as
// rule:sub@atom(bond).  Edges read srcVtx:apIndex bond trgVtx:apIndex.  Bonds are written
// . ~ - = # $ ? for none, any, single, double, triple, quadruple and undefined.

type graphExpr struct {
	Stmts []*stmtExpr `@@*`
}

type stmtExpr struct {
	Vtx  *vtxExpr  `  @@`
	Ring *ringExpr `| @@`
	Sym  *symExpr  `| @@`
	Edge *edgeExpr `| @@`
}

type vtxExpr struct {
	Kind  string     `@("frag" | "ph" | "rcv" | "tmpl")`
	ID    int64      `@Int`
	BB    *bbExpr    `@@?`
	APs   []*apExpr  `("[" @@* "]")?`
	Atoms *atomsExpr `@@?`
	Inner *graphExpr `("{" @@ "}")?`
}

type bbExpr struct {
	Type string `@("SCAFFOLD" | "FRAGMENT" | "CAP" | "UNDEFINED")`
	ID   int    `@Int`
}

type apExpr struct {
	Rule string `@Ident`
	Sub  int    `(":" @Int)?`
	Atom *int   `("@" @Int)?`
	Bond string `("(" @Bond ")")?`
}

type atomsExpr struct {
	Num   int         `"atoms" @Int`
	Bonds []*atomPair `("(" @@* ")")?`
}

type atomPair struct {
	A int `@Int`
	B int `"/" @Int`
}

type ringExpr struct {
	VtxIDs []int64 `"ring" "(" @Int+ ")"`
	Bond   string  `@Bond?`
}

type symExpr struct {
	VtxIDs []int64 `"sym" "(" @Int+ ")"`
}

type edgeExpr struct {
	SrcVtx int64  `@Int ":"`
	SrcAP  int    `@Int`
	Bond   string `@Bond`
	TrgVtx int64  `@Int ":"`
	TrgAP  int    `@Int`
}

var graphLexer = lexer.MustSimple([]lexer.SimpleRule{
	{"comment", `//[^\n]*`},
	{"Ident", `[A-Za-z_][A-Za-z0-9_]*`},
	{"Int", `\d+`},
	{"Bond", `[-=#$~.?]`},
	{"Punct", `[:@\[\]{}()/]`},
	{"whitespace", `[ \t\r\n;,]+`},
})

var parseGraphExpr = participle.MustBuild[graphExpr](
	participle.Lexer(graphLexer),
)

var bondChars = [frag.NumBondTypes]byte{
	frag.Bond_Undefined: '?',
	frag.Bond_None:      '.',
	frag.Bond_Any:       '~',
	frag.Bond_Single:    '-',
	frag.Bond_Double:    '=',
	frag.Bond_Triple:    '#',
	frag.Bond_Quadruple: '$',
}

func parseBondChar(str string) (frag.BondType, error) {
	for bt, c := range bondChars {
		if str == string(c) {
			return frag.BondType(bt), nil
		}
	}
	return frag.Bond_Undefined, errors.Wrapf(frag.ErrBadEncoding, "unknown bond %q", str)
}

// NewGraphFromString builds a graph from its text form.
func NewGraphFromString(graphExpr string, ids frag.IDAllocator) (*Graph, error) {
	X := NewGraph(ids)
	if err := X.InitFromString(graphExpr); err != nil {
		X.Reclaim()
		return nil, err
	}
	return X, nil
}

// InitFromString resets X and builds it from its text form.  AP IDs are minted from X's allocator, which is
// also moved past the largest vertex ID read.
func (X *Graph) InitFromString(graphExpr string) error {
	X.Init(X.ids)

	Xexpr, err := parseGraphExpr.ParseString("", graphExpr)
	if err != nil {
		return errors.Wrap(frag.ErrBadEncoding, err.Error())
	}
	return X.build(Xexpr)
}

func (X *Graph) build(Xexpr *graphExpr) error {
	for _, st := range Xexpr.Stmts {
		if st.Vtx == nil {
			continue
		}
		v, err := X.buildVertex(st.Vtx)
		if err != nil {
			return err
		}
		if err = X.AddVertex(v); err != nil {
			return err
		}
	}
	X.ids.EnsureAbove(X.MaxVertexID())

	lookup := func(id int64) (*Vertex, error) {
		if v := X.byID[frag.VtxID(id)]; v != nil {
			return v, nil
		}
		return nil, errors.Wrapf(frag.ErrVtxNotInGraph, "vertex %d", id)
	}

	for _, st := range Xexpr.Stmts {
		if e := st.Edge; e != nil {
			src, err := lookup(e.SrcVtx)
			if err != nil {
				return err
			}
			trg, err := lookup(e.TrgVtx)
			if err != nil {
				return err
			}
			srcAP, trgAP := src.AP(e.SrcAP), trg.AP(e.TrgAP)
			if srcAP == nil || trgAP == nil {
				return errors.Wrapf(frag.ErrBadAPIndex, "edge %d:%d-%d:%d", e.SrcVtx, e.SrcAP, e.TrgVtx, e.TrgAP)
			}
			bt, err := parseBondChar(e.Bond)
			if err != nil {
				return err
			}
			if err = X.AddEdge(NewEdge(srcAP, trgAP, bt)); err != nil {
				return err
			}
		}
	}

	for _, st := range Xexpr.Stmts {
		switch {
		case st.Ring != nil:
			verts := make([]*Vertex, len(st.Ring.VtxIDs))
			for i, id := range st.Ring.VtxIDs {
				v, err := lookup(id)
				if err != nil {
					return err
				}
				verts[i] = v
			}
			bt := frag.Bond_Undefined
			if st.Ring.Bond != "" {
				var err error
				if bt, err = parseBondChar(st.Ring.Bond); err != nil {
					return err
				}
			} else if e := verts[0].EdgeToParent(); e != nil {
				bt = e.Bond
			}
			if err := X.AddRing(NewRing(verts, bt)); err != nil {
				return err
			}
		case st.Sym != nil:
			ss := &SymmetricSet{}
			for _, id := range st.Sym.VtxIDs {
				v, err := lookup(id)
				if err != nil {
					return err
				}
				ss.members = append(ss.members, v)
			}
			if err := X.AddSymmetricSet(ss); err != nil {
				return err
			}
		}
	}
	return nil
}

func (X *Graph) buildVertex(vx *vtxExpr) (*Vertex, error) {
	bbt, bbID := frag.BB_Fragment, 0
	if vx.BB != nil {
		var err error
		if bbt, err = frag.ParseBBType(vx.BB.Type); err != nil {
			return nil, errors.Wrap(frag.ErrBadEncoding, err.Error())
		}
		bbID = vx.BB.ID
	}

	var v *Vertex
	switch vx.Kind {
	case "frag":
		v = NewVertex(frag.VtxID(vx.ID), Kind_Fragment, bbt, bbID)
	case "ph":
		v = NewVertex(frag.VtxID(vx.ID), Kind_Placeholder, bbt, bbID)
	case "rcv":
		v = NewVertex(frag.VtxID(vx.ID), Kind_Placeholder, bbt, bbID)
		v.IsRCV = true
	case "tmpl":
		v = NewTemplate(frag.VtxID(vx.ID), bbt, bbID)
	}

	for _, apx := range vx.APs {
		bt := frag.Bond_Undefined
		if apx.Bond != "" {
			var err error
			if bt, err = parseBondChar(apx.Bond); err != nil {
				return nil, err
			}
		}
		ap := v.AddAP(X.ids.NextAPID(), frag.APClass{Rule: apx.Rule, Sub: apx.Sub}, bt)
		if apx.Atom != nil {
			ap.SrcAtom = *apx.Atom
		}
	}
	if vx.Atoms != nil {
		v.NumAtoms = vx.Atoms.Num
		for _, pair := range vx.Atoms.Bonds {
			v.AtomBonds = append(v.AtomBonds, [2]int{pair.A, pair.B})
		}
	}

	if vx.Inner != nil {
		if v.Kind != Kind_Template {
			return nil, errors.Wrapf(frag.ErrNotTemplate, "vertex %d has an inner graph", vx.ID)
		}
		inner := NewGraph(X.ids)
		if err := inner.build(vx.Inner); err != nil {
			return nil, err
		}
		if err := v.SetInnerGraph(inner); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// WriteAsGrammar writes X in the text form read by InitFromString.
func (X *Graph) WriteAsGrammar(out io.Writer) {
	var b strings.Builder
	X.writeGrammar(&b, "")
	io.WriteString(out, b.String())
}

// GrammarString returns X in the text form read by InitFromString.
func (X *Graph) GrammarString() string {
	var b strings.Builder
	X.writeGrammar(&b, "")
	return b.String()
}

func (X *Graph) writeGrammar(b *strings.Builder, indent string) {
	for _, v := range X.verts {
		kind := "frag"
		switch {
		case v.IsRCV:
			kind = "rcv"
		case v.Kind == Kind_Placeholder:
			kind = "ph"
		case v.Kind == Kind_Template:
			kind = "tmpl"
		}
		fmt.Fprintf(b, "%s%s %d %v %d", indent, kind, v.id, v.BBType, v.BBID)
		if v.Kind == Kind_Template && v.inner != nil {
			b.WriteString(" {\n")
			v.inner.writeGrammar(b, indent+"  ")
			b.WriteString(indent + "}\n")
			continue
		}
		b.WriteString(" [")
		for i, ap := range v.aps {
			if i > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(ap.Class.String())
			if ap.SrcAtom >= 0 {
				fmt.Fprintf(b, "@%d", ap.SrcAtom)
			}
			if ap.Bond != frag.Bond_Undefined {
				fmt.Fprintf(b, "(%c)", bondChars[ap.Bond])
			}
		}
		b.WriteByte(']')
		if v.NumAtoms > 0 || len(v.AtomBonds) > 0 {
			fmt.Fprintf(b, " atoms %d (", v.NumAtoms)
			for i, pair := range v.AtomBonds {
				if i > 0 {
					b.WriteByte(' ')
				}
				fmt.Fprintf(b, "%d/%d", pair[0], pair[1])
			}
			b.WriteByte(')')
		}
		b.WriteByte('\n')
	}
	for _, e := range X.edges {
		fmt.Fprintf(b, "%s%d:%d %c %d:%d\n", indent, e.src.owner.id, e.src.Index(), bondChars[e.Bond], e.trg.owner.id, e.trg.Index())
	}
	for _, r := range X.rings {
		b.WriteString(indent + "ring(")
		for i, v := range r.verts {
			if i > 0 {
				b.WriteByte(' ')
			}
			fmt.Fprintf(b, "%d", v.id)
		}
		fmt.Fprintf(b, ") %c\n", bondChars[r.Bond])
	}
	for _, ss := range X.symSets {
		b.WriteString(indent + "sym(")
		for i, id := range ss.IDs() {
			if i > 0 {
				b.WriteByte(' ')
			}
			fmt.Fprintf(b, "%d", id)
		}
		b.WriteString(")\n")
	}
}
