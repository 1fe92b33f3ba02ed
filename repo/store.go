package repo

import (
	"encoding/binary"
	"errors"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/Atsuko87/ccnx-sub001/name"
)

// Store is the repository's durable Content Object store, grounded on
// std/object/storage/store_badger.go: a Badger key-value database keyed by
// flattened Name bytes, with a reverse-iterator prefix scan standing in for
// "best (newest) match under a prefix" per §4.3/§4.9.
type Store struct {
	db *badger.DB
}

// OpenStore opens (creating if absent) the Badger database rooted at dir.
func OpenStore(dir string) (*Store, error) {
	db, err := badger.Open(badger.DefaultOptions(dir))
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// nameKey flattens a Name into an unambiguous byte key: each component is
// prefixed with its big-endian uint32 length, so no component's bytes can
// be mistaken for a boundary, unlike a bare '/'-joined scheme.
func nameKey(n name.Name) []byte {
	size := 0
	for _, c := range n {
		size += 4 + len(c)
	}
	out := make([]byte, 0, size)
	var lenBuf [4]byte
	for _, c := range n {
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(c)))
		out = append(out, lenBuf[:]...)
		out = append(out, c...)
	}
	return out
}

// Put persists wire (the already-encoded Content Object) under n.
func (s *Store) Put(n name.Name, wire []byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(nameKey(n), wire)
	})
}

// Get returns the best match under n: an exact hit if prefix is false, or
// (mirroring store_badger.go's reverse-iterator Get) the lexicographically
// last key having n as a byte-prefix, which for a run of sibling keys
// sharing a versioned ancestor picks out the newest version.
func (s *Store) Get(n name.Name, prefix bool) (wire []byte, found bool, err error) {
	key := nameKey(n)
	err = s.db.View(func(txn *badger.Txn) error {
		if !prefix {
			item, getErr := txn.Get(key)
			if errors.Is(getErr, badger.ErrKeyNotFound) {
				return nil
			}
			if getErr != nil {
				return getErr
			}
			wire, getErr = item.ValueCopy(nil)
			found = getErr == nil
			return getErr
		}

		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		it.Seek(append(append([]byte(nil), key...), 0xFF))
		if !it.ValidForPrefix(key) {
			return nil
		}
		wire, err = it.Item().ValueCopy(nil)
		found = err == nil
		return err
	})
	return
}

// Remove deletes the entry stored exactly at n.
func (s *Store) Remove(n name.Name) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(nameKey(n))
	})
}

// Children returns the distinct immediate child components that appear
// under prefix, used by get_names_with_prefix (§4.9).
func (s *Store) Children(prefix name.Name) ([]name.Component, error) {
	pfx := nameKey(prefix)
	seen := make(map[string]bool)
	var out []name.Component

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(pfx); it.ValidForPrefix(pfx); it.Next() {
			key := it.Item().KeyCopy(nil)
			rest := key[len(pfx):]
			if len(rest) < 4 {
				continue
			}
			clen := binary.BigEndian.Uint32(rest[:4])
			if uint32(len(rest)) < 4+clen {
				continue
			}
			comp := name.Component(rest[4 : 4+clen])
			k := string(comp)
			if !seen[k] {
				seen[k] = true
				out = append(out, comp.Clone())
			}
		}
		return nil
	})
	return out, err
}
