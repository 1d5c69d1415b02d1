package frag

import (
	"fmt"
	"strings"
)

// VtxID identifies a vertex; unique within a graph and, when minted by an IDAllocator, within a process.
type VtxID int64

// APID identifies an attachment point.
type APID int64

// BondType is the bond order implied by an edge, a ring chord or an attachment point class.
type BondType byte

const (
	Bond_Undefined BondType = 0
	Bond_None      BondType = 1
	Bond_Any       BondType = 2
	Bond_Single    BondType = 3
	Bond_Double    BondType = 4
	Bond_Triple    BondType = 5
	Bond_Quadruple BondType = 6

	NumBondTypes = 7
)

var bondTypeNames = [NumBondTypes]string{
	"UNDEFINED",
	"NONE",
	"ANY",
	"SINGLE",
	"DOUBLE",
	"TRIPLE",
	"QUADRUPLE",
}

func (bt BondType) String() string {
	if int(bt) < len(bondTypeNames) {
		return bondTypeNames[bt]
	}
	return "UNDEFINED"
}

// ParseBondType accepts the names returned by BondType.String(), case-insensitive.
func ParseBondType(str string) (BondType, error) {
	str = strings.ToUpper(strings.TrimSpace(str))
	for i, name := range bondTypeNames {
		if name == str {
			return BondType(i), nil
		}
	}
	return Bond_Undefined, fmt.Errorf("unknown bond type %q", str)
}

// Order returns the number of electron pairs shared, or 0 when the bond has no definite order.
func (bt BondType) Order() int {
	switch bt {
	case Bond_Single:
		return 1
	case Bond_Double:
		return 2
	case Bond_Triple:
		return 3
	case Bond_Quadruple:
		return 4
	}
	return 0
}

// BBType is the role a building block plays when assembled into a graph.
type BBType byte

const (
	BB_Undefined BBType = 0
	BB_Scaffold  BBType = 1
	BB_Fragment  BBType = 2
	BB_Cap       BBType = 3

	NumBBTypes = 4
)

var bbTypeNames = [NumBBTypes]string{
	"UNDEFINED",
	"SCAFFOLD",
	"FRAGMENT",
	"CAP",
}

func (bbt BBType) String() string {
	if int(bbt) < len(bbTypeNames) {
		return bbTypeNames[bbt]
	}
	return "UNDEFINED"
}

func ParseBBType(str string) (BBType, error) {
	str = strings.ToUpper(strings.TrimSpace(str))
	for i, name := range bbTypeNames {
		if name == str {
			return BBType(i), nil
		}
	}
	return BB_Undefined, fmt.Errorf("unknown building block type %q", str)
}

// APClass labels an attachment point.  The rule drives bonding compatibility; the subclass distinguishes
// the two ends of a directed rule (e.g. "amide:0" vs "amide:1").
type APClass struct {
	Rule string
	Sub  int
}

func (apc APClass) String() string {
	return fmt.Sprintf("%s:%d", apc.Rule, apc.Sub)
}

// IsZero reports if no class was assigned.
func (apc APClass) IsZero() bool {
	return apc.Rule == "" && apc.Sub == 0
}

// Oracle decides if two attachment point classes may bond and with what bond order.
//
// Compatible(a, b) is directional: a is the class on the parent (source) side of a prospective edge.
type Oracle interface {
	Compatible(a, b APClass) bool
	BondType(a, b APClass) BondType
}

// IDAllocator mints process-unique vertex and attachment point IDs.
//
// Implementations must be safe for use from multiple goroutines since several graphs may be edited
// interleaved with the same allocator.
type IDAllocator interface {
	NextVtxID() VtxID
	NextAPID() APID

	// EnsureAbove makes sure subsequent vertex IDs are greater than the given one.
	EnsureAbove(id VtxID)

	// EnsureAPAbove makes sure subsequent AP IDs are greater than the given one.
	EnsureAPAbove(id APID)
}
