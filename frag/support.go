package frag

import (
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
)

// Counter is the stock IDAllocator: two atomic counters.
type Counter struct {
	vtx atomic.Int64
	ap  atomic.Int64
}

// NewCounter returns an allocator whose first issued IDs are vtxStart+1 and apStart+1.
func NewCounter(vtxStart VtxID, apStart APID) *Counter {
	ids := &Counter{}
	ids.vtx.Store(int64(vtxStart))
	ids.ap.Store(int64(apStart))
	return ids
}

func (ids *Counter) NextVtxID() VtxID {
	return VtxID(ids.vtx.Add(1))
}

func (ids *Counter) NextAPID() APID {
	return APID(ids.ap.Add(1))
}

func (ids *Counter) EnsureAbove(id VtxID) {
	ensureAbove(&ids.vtx, int64(id))
}

func (ids *Counter) EnsureAPAbove(id APID) {
	ensureAbove(&ids.ap, int64(id))
}

func ensureAbove(ctr *atomic.Int64, id int64) {
	for {
		cur := ctr.Load()
		if cur >= id || ctr.CompareAndSwap(cur, id) {
			return
		}
	}
}

// ParseAPClass parses "rule:sub".  A missing subclass reads as 0.
func ParseAPClass(str string) (APClass, error) {
	str = strings.TrimSpace(str)
	rule, sub, found := strings.Cut(str, ":")
	if len(rule) == 0 || strings.ContainsAny(rule, " \t:") {
		return APClass{}, errors.Wrapf(ErrBadAPClass, "%q", str)
	}
	apc := APClass{Rule: rule}
	if found {
		n, err := strconv.Atoi(sub)
		if err != nil || n < 0 {
			return APClass{}, errors.Wrapf(ErrBadAPClass, "%q", str)
		}
		apc.Sub = n
	}
	return apc, nil
}

// APClassTable canonicalizes attachment point classes and keeps the set of classes seen so far,
// in first-seen order.  It is safe for concurrent use.
type APClassTable struct {
	mu      sync.Mutex
	byName  map[string]APClass
	ordered []APClass
}

func NewAPClassTable() *APClassTable {
	return &APClassTable{
		byName: make(map[string]APClass),
	}
}

// GetOrCreate returns the canonical class for the given text, registering it if new.
func (tbl *APClassTable) GetOrCreate(str string) (APClass, error) {
	tbl.mu.Lock()
	defer tbl.mu.Unlock()

	if apc, exists := tbl.byName[str]; exists {
		return apc, nil
	}
	apc, err := ParseAPClass(str)
	if err != nil {
		return APClass{}, err
	}
	name := apc.String()
	if existing, exists := tbl.byName[name]; exists {
		tbl.byName[str] = existing
		return existing, nil
	}
	tbl.byName[name] = apc
	tbl.byName[str] = apc
	tbl.ordered = append(tbl.ordered, apc)
	return apc, nil
}

// Register adds an already-parsed class.
func (tbl *APClassTable) Register(apc APClass) {
	tbl.mu.Lock()
	defer tbl.mu.Unlock()

	name := apc.String()
	if _, exists := tbl.byName[name]; !exists {
		tbl.byName[name] = apc
		tbl.ordered = append(tbl.ordered, apc)
	}
}

func (tbl *APClassTable) Contains(apc APClass) bool {
	tbl.mu.Lock()
	defer tbl.mu.Unlock()
	_, exists := tbl.byName[apc.String()]
	return exists
}

// Classes returns a copy of all registered classes in first-seen order.
func (tbl *APClassTable) Classes() []APClass {
	tbl.mu.Lock()
	defer tbl.mu.Unlock()
	return append([]APClass(nil), tbl.ordered...)
}
