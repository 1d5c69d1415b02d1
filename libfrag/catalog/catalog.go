// Package catalog stores building blocks and capping rules in a badger database and hands out fresh
// instances of them, plus a set type that collects graphs up to isomorphism.
package catalog

import (
	"runtime"
	"sync"

	"github.com/2x3systems/gofrag/frag"
	"github.com/2x3systems/gofrag/libfrag"
	"github.com/dgraph-io/badger/v3"
	"github.com/emirpasic/gods/trees/redblacktree"
	"github.com/emirpasic/gods/utils"
	"github.com/gogo/protobuf/proto"
	"github.com/pkg/errors"
)

/***

Catalog database format:

	gCatalogStateKey => catalogState

	kBlockPrefix, BBType (byte), bbID (varint)     => blockDef
	...

	kCappingPrefix, APClass ("rule:sub")           => bbID (varint) of the capping block
	...

Building block IDs are issued per BBType, starting at 0, in the order blocks are added.

***/

var (
	gCatalogStateKey = []byte{0x00, 0x00, 0x01}
)

const (
	kBlockPrefix   byte = 0x01
	kCappingPrefix byte = 0x02

	kMajorVers = 2024
	kMinorVers = 1
)

// Opts specifies how to open a Catalog.
type Opts struct {

	// DbPathName is the badger directory.  If empty, the catalog lives in memory.
	DbPathName string

	ReadOnly bool

	// IDs mints the vertex and AP IDs of instantiated blocks.  If nil, the catalog uses its own counter.
	IDs frag.IDAllocator
}

// Catalog is a badger-backed library of building blocks plus the capping block to use for each AP class.
// It implements libfrag.Catalog and is safe for concurrent use.
type Catalog struct {
	mu         sync.Mutex
	db         *badger.DB
	ids        frag.IDAllocator
	readOnly   bool
	state      catalogState
	stateDirty bool
	blocks     *redblacktree.Tree // blockKey => *blockDef, decoded blocks
	capping    map[frag.APClass]int
}

type catalogState struct {
	MajorVers uint64
	MinorVers uint64
	NumBlocks [frag.NumBBTypes]uint64
}

// OpenCatalog opens (or creates) a catalog.
func OpenCatalog(opts Opts) (*Catalog, error) {
	dbOpts := badger.DefaultOptions(opts.DbPathName)
	dbOpts.ReadOnly = opts.ReadOnly
	dbOpts.DetectConflicts = false
	dbOpts.Logger = nil
	dbOpts.MetricsEnabled = false

	// Badger for windows currently does not support read-only mode
	if runtime.GOOS == "windows" {
		dbOpts.ReadOnly = false
	}

	if len(opts.DbPathName) == 0 {
		if opts.ReadOnly {
			return nil, errors.Wrap(frag.ErrBadCatalogParam, "DbPathName must be specified for read-only catalog")
		}
		dbOpts.InMemory = true
	}

	cat := &Catalog{
		ids:      opts.IDs,
		readOnly: opts.ReadOnly,
		blocks:   redblacktree.NewWith(utils.Int64Comparator),
		capping:  make(map[frag.APClass]int),
	}
	if cat.ids == nil {
		cat.ids = frag.NewCounter(0, 0)
	}

	var err error
	cat.db, err = badger.Open(dbOpts)
	if err != nil {
		return nil, err
	}

	err = cat.loadState()
	if err == badger.ErrKeyNotFound {
		err = nil
		cat.stateDirty = true
		cat.state.MajorVers = kMajorVers
		cat.state.MinorVers = kMinorVers
	}
	if err == nil && (cat.state.MajorVers != kMajorVers || cat.state.MinorVers != kMinorVers) {
		err = errors.Wrap(frag.ErrBadCatalogParam, "catalog version is incompatible")
	}
	if err == nil {
		err = cat.loadCapping()
	}
	if err != nil {
		cat.Close()
		return nil, err
	}
	return cat, nil
}

func (cat *Catalog) loadState() error {
	return cat.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(gCatalogStateKey)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return cat.state.Unmarshal(val)
		})
	})
}

func (cat *Catalog) loadCapping() error {
	return cat.db.View(func(txn *badger.Txn) error {
		prefix := []byte{kCappingPrefix}
		it := txn.NewIterator(badger.IteratorOptions{
			PrefetchValues: true,
			Prefix:         prefix,
		})
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			apc, err := frag.ParseAPClass(string(item.Key()[len(prefix):]))
			if err != nil {
				return err
			}
			err = item.Value(func(val []byte) error {
				bbID, err := proto.NewBuffer(val).DecodeVarint()
				cat.capping[apc] = int(bbID)
				return err
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (cat *Catalog) flushState() error {
	if !cat.stateDirty || cat.readOnly {
		return nil
	}
	err := cat.db.Update(func(txn *badger.Txn) error {
		return txn.Set(gCatalogStateKey, cat.state.Marshal())
	})
	if err == nil {
		cat.stateDirty = false
	}
	return err
}

// Close flushes the catalog state and closes the db.
func (cat *Catalog) Close() error {
	cat.mu.Lock()
	defer cat.mu.Unlock()

	if cat.db == nil {
		return nil
	}
	err := cat.flushState()
	if errClose := cat.db.Close(); err == nil {
		err = errClose
	}
	cat.db = nil
	cat.blocks.Clear()
	return err
}

func (cat *Catalog) IsReadOnly() bool {
	return cat.readOnly
}

// NumBlocks returns how many blocks of the given type were added.
func (cat *Catalog) NumBlocks(bbt frag.BBType) int {
	cat.mu.Lock()
	defer cat.mu.Unlock()
	if int(bbt) >= len(cat.state.NumBlocks) {
		return 0
	}
	return int(cat.state.NumBlocks[bbt])
}

func formBlockKey(key []byte, bbt frag.BBType, bbID int) []byte {
	key = append(key, kBlockPrefix, byte(bbt))
	key = append(key, proto.EncodeVarint(uint64(bbID))...)
	return key
}

func cacheKey(bbt frag.BBType, bbID int) int64 {
	return int64(bbt)<<32 | int64(uint32(bbID))
}

// AddBlock stores a copy of the content of v as a new building block of the given type and returns its ID.
// The IDs of v and of its APs are not stored.
func (cat *Catalog) AddBlock(bbt frag.BBType, v *libfrag.Vertex) (int, error) {
	if int(bbt) >= frag.NumBBTypes {
		return 0, errors.Wrapf(frag.ErrBadCatalogParam, "building block type %d", bbt)
	}
	def, err := blockDefFromVertex(v)
	if err != nil {
		return 0, err
	}

	cat.mu.Lock()
	defer cat.mu.Unlock()

	if cat.db == nil || cat.readOnly {
		return 0, errors.Wrap(frag.ErrBadCatalogParam, "catalog is closed or read-only")
	}

	bbID := int(cat.state.NumBlocks[bbt])
	err = cat.db.Update(func(txn *badger.Txn) error {
		return txn.Set(formBlockKey(nil, bbt, bbID), def.Marshal())
	})
	if err != nil {
		return 0, err
	}
	cat.state.NumBlocks[bbt]++
	cat.stateDirty = true
	cat.blocks.Put(cacheKey(bbt, bbID), def)
	return bbID, nil
}

// SetCapping makes the given block the one to cap free APs of class apc with.
func (cat *Catalog) SetCapping(apc frag.APClass, capBBID int) error {
	cat.mu.Lock()
	defer cat.mu.Unlock()

	if cat.db == nil || cat.readOnly {
		return errors.Wrap(frag.ErrBadCatalogParam, "catalog is closed or read-only")
	}
	if capBBID < 0 || uint64(capBBID) >= cat.state.NumBlocks[frag.BB_Cap] {
		return errors.Wrapf(frag.ErrUnknownBlock, "capping block %d", capBBID)
	}

	key := append([]byte{kCappingPrefix}, apc.String()...)
	err := cat.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, proto.EncodeVarint(uint64(capBBID)))
	})
	if err != nil {
		return err
	}
	cat.capping[apc] = capBBID
	return nil
}

// CappingBlockFor returns the ID of the BB_Cap block to place on free APs of class apc.
func (cat *Catalog) CappingBlockFor(apc frag.APClass) (int, bool) {
	cat.mu.Lock()
	defer cat.mu.Unlock()
	bbID, ok := cat.capping[apc]
	return bbID, ok
}

// Instantiate returns a new detached vertex for the given block, with fresh vertex and AP IDs.
func (cat *Catalog) Instantiate(bbID int, bbt frag.BBType) (*libfrag.Vertex, error) {
	def, err := cat.blockDef(bbt, bbID)
	if err != nil {
		return nil, err
	}
	return def.newVertex(cat.ids, bbt, bbID)
}

func (cat *Catalog) blockDef(bbt frag.BBType, bbID int) (*blockDef, error) {
	cat.mu.Lock()
	defer cat.mu.Unlock()

	if cached, found := cat.blocks.Get(cacheKey(bbt, bbID)); found {
		return cached.(*blockDef), nil
	}
	if cat.db == nil {
		return nil, errors.Wrap(frag.ErrBadCatalogParam, "catalog is closed")
	}

	def := &blockDef{}
	err := cat.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(formBlockKey(nil, bbt, bbID))
		if err != nil {
			return err
		}
		return item.Value(def.Unmarshal)
	})
	if err == badger.ErrKeyNotFound {
		return nil, errors.Wrapf(frag.ErrUnknownBlock, "%v %d", bbt, bbID)
	}
	if err != nil {
		return nil, err
	}
	cat.blocks.Put(cacheKey(bbt, bbID), def)
	return def, nil
}

// BlockSelector narrows down the blocks visited by Select.
type BlockSelector struct {
	BBType frag.BBType

	// WithAPClass, if set, selects only blocks offering an AP of this class.
	WithAPClass frag.APClass
}

// Select sends the ID of every block matching sel to onHit, in ascending ID order.
//
// Select does not close onHit.
func (cat *Catalog) Select(sel BlockSelector, onHit chan<- int) error {
	cat.mu.Lock()
	db := cat.db
	cat.mu.Unlock()
	if db == nil {
		return errors.Wrap(frag.ErrBadCatalogParam, "catalog is closed")
	}

	// Varint keys do not sort numerically so collect then emit in order
	hits := redblacktree.NewWithIntComparator()
	err := db.View(func(txn *badger.Txn) error {
		prefix := []byte{kBlockPrefix, byte(sel.BBType)}
		it := txn.NewIterator(badger.IteratorOptions{
			PrefetchValues: true,
			PrefetchSize:   100,
			Prefix:         prefix,
		})
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			bbID, n := proto.DecodeVarint(item.Key()[len(prefix):])
			if n == 0 {
				return errors.Wrapf(frag.ErrUnmarshal, "bad block key %x", item.Key())
			}
			if !sel.WithAPClass.IsZero() {
				var def blockDef
				if err := item.Value(def.Unmarshal); err != nil {
					return err
				}
				if !def.hasAPClass(sel.WithAPClass) {
					continue
				}
			}
			hits.Put(int(bbID), nil)
		}
		return nil
	})
	if err != nil {
		return err
	}

	for it := hits.Iterator(); it.Next(); {
		onHit <- it.Key().(int)
	}
	return nil
}

func (state *catalogState) Marshal() []byte {
	buf := proto.NewBuffer(nil)
	buf.EncodeVarint(state.MajorVers)
	buf.EncodeVarint(state.MinorVers)
	buf.EncodeVarint(uint64(len(state.NumBlocks)))
	for _, n := range state.NumBlocks {
		buf.EncodeVarint(n)
	}
	return buf.Bytes()
}

func (state *catalogState) Unmarshal(val []byte) error {
	buf := proto.NewBuffer(val)
	var err error
	if state.MajorVers, err = buf.DecodeVarint(); err != nil {
		return errors.Wrap(frag.ErrUnmarshal, err.Error())
	}
	if state.MinorVers, err = buf.DecodeVarint(); err != nil {
		return errors.Wrap(frag.ErrUnmarshal, err.Error())
	}
	n, err := buf.DecodeVarint()
	if err != nil || n > uint64(len(state.NumBlocks)) {
		return errors.Wrap(frag.ErrUnmarshal, "bad catalog state")
	}
	for i := uint64(0); i < n; i++ {
		if state.NumBlocks[i], err = buf.DecodeVarint(); err != nil {
			return errors.Wrap(frag.ErrUnmarshal, err.Error())
		}
	}
	return nil
}
