// Copyright (c) 2025 The dusk-go developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv

// Getter wraps methods for getting kvs.
type Getter interface {
	// Get value for given key.
	// An error returned if key not found. It can be checked via IsNotFound.
	Get(key []byte) (value []byte, err error)
	Has(key []byte) (bool, error)
	IsNotFound(err error) bool
}

// Putter wraps methods for putting kvs.
type Putter interface {
	Put(key, value []byte) error
	Delete(key []byte) error
}

// Snapshot is a consistent read-only view of a store, unaffected by
// writes that happen after it is taken.
type Snapshot interface {
	Getter
	Release()
}

// Batch defines batch of putting ops.
type Batch interface {
	Putter

	Len() int
	Write() error
}

// Range describes a key range [Start, Limit).
type Range struct {
	Start []byte
	Limit []byte
}

// Iterator iterates kvs in key order.
type Iterator interface {
	Next() bool
	Release()
	Error() error

	Key() []byte
	Value() []byte
}

// Store full-featured kv store.
type Store interface {
	Getter
	Putter

	Snapshot() Snapshot
	NewBatch() Batch
	NewIterator(r Range) Iterator
}

// CloseableStore store with close method.
type CloseableStore interface {
	Store
	Close() error
}
