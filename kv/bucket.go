// Copyright (c) 2025 The dusk-go developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv

import "github.com/syndtr/goleveldb/leveldb/util"

// Bucket provides logical bucket for kv store.
type Bucket string

// NewStore creates a bucket store from the source store.
func (b Bucket) NewStore(src Store) Store {
	return &bucketStore{b, src}
}

type bucketStore struct {
	b   Bucket
	src Store
}

func (s *bucketStore) key(key []byte) []byte {
	return append(append(make([]byte, 0, len(s.b)+len(key)), s.b...), key...)
}

func (s *bucketStore) Get(key []byte) ([]byte, error) { return s.src.Get(s.key(key)) }
func (s *bucketStore) Has(key []byte) (bool, error)   { return s.src.Has(s.key(key)) }
func (s *bucketStore) IsNotFound(err error) bool      { return s.src.IsNotFound(err) }
func (s *bucketStore) Put(key, val []byte) error      { return s.src.Put(s.key(key), val) }
func (s *bucketStore) Delete(key []byte) error        { return s.src.Delete(s.key(key)) }

func (s *bucketStore) Snapshot() Snapshot {
	return &bucketSnapshot{s.b, s.src.Snapshot()}
}

func (s *bucketStore) NewBatch() Batch {
	return &bucketBatch{s.b, s.src.NewBatch()}
}

func (s *bucketStore) NewIterator(r Range) Iterator {
	start := append([]byte(s.b), r.Start...)
	var limit []byte
	if len(r.Limit) == 0 {
		limit = util.BytesPrefix([]byte(s.b)).Limit
	} else {
		limit = append([]byte(s.b), r.Limit...)
	}
	return &bucketIterator{s.b, s.src.NewIterator(Range{Start: start, Limit: limit})}
}

type bucketSnapshot struct {
	b    Bucket
	snap Snapshot
}

func (s *bucketSnapshot) key(key []byte) []byte {
	return append(append(make([]byte, 0, len(s.b)+len(key)), s.b...), key...)
}

func (s *bucketSnapshot) Get(key []byte) ([]byte, error) { return s.snap.Get(s.key(key)) }
func (s *bucketSnapshot) Has(key []byte) (bool, error)   { return s.snap.Has(s.key(key)) }
func (s *bucketSnapshot) IsNotFound(err error) bool      { return s.snap.IsNotFound(err) }
func (s *bucketSnapshot) Release()                       { s.snap.Release() }

type bucketBatch struct {
	b     Bucket
	batch Batch
}

func (b *bucketBatch) key(key []byte) []byte {
	return append(append(make([]byte, 0, len(b.b)+len(key)), b.b...), key...)
}

func (b *bucketBatch) Put(key, val []byte) error { return b.batch.Put(b.key(key), val) }
func (b *bucketBatch) Delete(key []byte) error   { return b.batch.Delete(b.key(key)) }
func (b *bucketBatch) Len() int                  { return b.batch.Len() }
func (b *bucketBatch) Write() error              { return b.batch.Write() }

type bucketIterator struct {
	b    Bucket
	iter Iterator
}

func (i *bucketIterator) Next() bool    { return i.iter.Next() }
func (i *bucketIterator) Release()      { i.iter.Release() }
func (i *bucketIterator) Error() error  { return i.iter.Error() }
func (i *bucketIterator) Key() []byte   { return i.iter.Key()[len(i.b):] }
func (i *bucketIterator) Value() []byte { return i.iter.Value() }
