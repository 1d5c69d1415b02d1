package catalog

import (
	"github.com/2x3systems/gofrag/libfrag"
	"github.com/dgraph-io/badger/v3"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// GraphSet collects graphs up to isomorphism: adding a graph isomorphic to one already added has no effect.
//
// Entries are keyed by the graph's fingerprint followed by a random UUID, so graphs sharing a fingerprint
// sit next to each other and only those are compared in full.
//
// After one or more calls to TryAdd(), call Close() for cleanup.
type GraphSet struct {
	db    *badger.DB
	count int
}

func NewGraphSet() *GraphSet {
	return &GraphSet{}
}

func (set *GraphSet) autoOpen() error {
	if set.db == nil {
		dbOpts := badger.DefaultOptions("").WithInMemory(true)
		dbOpts.Logger = nil
		dbOpts.MetricsEnabled = false

		var err error
		set.db, err = badger.Open(dbOpts)
		if err != nil {
			return err
		}
	}
	return nil
}

// TryAdd adds a copy of X unless an isomorphic graph is already in this set, in which case it returns false.
func (set *GraphSet) TryAdd(X *libfrag.Graph) (bool, error) {
	if err := set.autoOpen(); err != nil {
		return false, err
	}

	fp := X.Fingerprint()
	txn := set.db.NewTransaction(true)
	defer txn.Discard()

	it := txn.NewIterator(badger.IteratorOptions{
		PrefetchValues: true,
		Prefix:         fp[:],
	})
	found := false
	var err error
	for it.Rewind(); it.Valid() && !found && err == nil; it.Next() {
		err = it.Item().Value(func(val []byte) error {
			Y, err := libfrag.NewGraphFromString(string(val), nil)
			if err != nil {
				return err
			}
			found = X.IsIsomorphicTo(Y)
			Y.Reclaim()
			return nil
		})
	}
	it.Close()
	if err != nil {
		return false, errors.Wrap(err, "reading graph set entry")
	}
	if found {
		return false, nil
	}

	entryID := uuid.New()
	key := make([]byte, 0, len(fp)+len(entryID))
	key = append(key, fp[:]...)
	key = append(key, entryID[:]...)
	if err = txn.Set(key, []byte(X.GrammarString())); err != nil {
		return false, err
	}
	if err = txn.Commit(); err != nil {
		return false, err
	}
	set.count++
	return true, nil
}

// Len returns the number of graphs added.
func (set *GraphSet) Len() int {
	return set.count
}

// Select sends a new copy of every graph in this set to onHit, grouped by fingerprint.
//
// Select does not close onHit.
func (set *GraphSet) Select(onHit chan<- *libfrag.Graph) error {
	if set.db == nil {
		return nil
	}
	return set.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				X, err := libfrag.NewGraphFromString(string(val), nil)
				if err == nil {
					onHit <- X
				}
				return err
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// Close removes all previously added graphs.
func (set *GraphSet) Close() {
	if set.db != nil {
		set.db.Close()
		set.db = nil
	}
	set.count = 0
}
