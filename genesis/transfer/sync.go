// Copyright (c) 2025 The dusk-go developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package transfer

import (
	"github.com/dusk-network/dusk-go/dusk"
)

// Stream yields items from a state snapshot taken when the query started.
// It never observes writes made after that point, and a concurrent writer
// never blocks on it. Callers must Release the stream when done.
type Stream[T any] struct {
	next    func() (T, bool, error)
	release func()
}

// NewStream builds a stream from a pull function and a release hook. Other
// genesis contracts use it for their own snapshot queries.
func NewStream[T any](next func() (T, bool, error), release func()) *Stream[T] {
	return &Stream[T]{next: next, release: release}
}

// Next yields the next item. ok is false once the stream is exhausted.
func (s *Stream[T]) Next() (item T, ok bool, err error) {
	return s.next()
}

// Release frees the underlying snapshot. Idempotent.
func (s *Stream[T]) Release() {
	if s.release != nil {
		s.release()
		s.release = nil
	}
}

// Collect drains the stream into a slice, releasing it.
func Collect[T any](s *Stream[T]) ([]T, error) {
	defer s.Release()
	var items []T
	for {
		item, ok, err := s.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return items, nil
		}
		items = append(items, item)
	}
}

// NoteLeaf is a note annotated with the height of the block that inserted it.
type NoteLeaf struct {
	Height uint64
	Note   *Note
}

// AccountEntry is a public account keyed for streaming.
type AccountEntry struct {
	Key     dusk.AccountKey
	Balance uint64
	Nonce   uint64
}

// BalanceEntry is a contract balance keyed for streaming.
type BalanceEntry struct {
	Contract dusk.ContractID
	Balance  uint64
}

func (t *Transfer) snapshotLedger() *snapshotLedger {
	return &snapshotLedger{ledger: t.ledger(nil), reader: t.state.Snapshot()}
}

// rangeEnd bounds [from, from+limit) against count. A zero limit means no
// bound.
func rangeEnd(from, limit, count uint64) uint64 {
	if limit == 0 {
		return count
	}
	end, ok := dusk.SafeAdd(from, limit)
	if !ok || end > count {
		return count
	}
	return end
}

// SyncLeaves streams notes from tree position fromPos, up to limit of them
// (zero for all).
func (t *Transfer) SyncLeaves(fromPos, limit uint64) (*Stream[*NoteLeaf], error) {
	snap := t.snapshotLedger()
	count, err := snap.noteCount()
	if err != nil {
		snap.reader.Release()
		return nil, err
	}

	pos, end := fromPos, rangeEnd(fromPos, limit, count)
	return &Stream[*NoteLeaf]{
		next: func() (*NoteLeaf, bool, error) {
			if pos >= end {
				return nil, false, nil
			}
			note, err := snap.note(pos)
			if err != nil {
				return nil, false, err
			}
			height, err := snap.noteHeight(pos)
			if err != nil {
				return nil, false, err
			}
			pos++
			return &NoteLeaf{Height: height, Note: note}, true, nil
		},
		release: snap.reader.Release,
	}, nil
}

// SyncLeavesFromHeight streams notes inserted at or after the given block
// height. Notes are ordered by position and positions are assigned in block
// order, so the scan skips the prefix below the height.
func (t *Transfer) SyncLeavesFromHeight(height, limit uint64) (*Stream[*NoteLeaf], error) {
	snap := t.snapshotLedger()
	count, err := snap.noteCount()
	if err != nil {
		snap.reader.Release()
		return nil, err
	}

	var pos, yielded uint64
	return &Stream[*NoteLeaf]{
		next: func() (*NoteLeaf, bool, error) {
			for pos < count {
				if limit > 0 && yielded >= limit {
					return nil, false, nil
				}
				h, err := snap.noteHeight(pos)
				if err != nil {
					return nil, false, err
				}
				if h < height {
					pos++
					continue
				}
				note, err := snap.note(pos)
				if err != nil {
					return nil, false, err
				}
				pos++
				yielded++
				return &NoteLeaf{Height: h, Note: note}, true, nil
			}
			return nil, false, nil
		},
		release: snap.reader.Release,
	}, nil
}

// SyncNullifiers streams spent nullifiers in insertion order.
func (t *Transfer) SyncNullifiers(from, limit uint64) (*Stream[dusk.Bytes32], error) {
	snap := t.snapshotLedger()
	count, err := snap.nullifierCount()
	if err != nil {
		snap.reader.Release()
		return nil, err
	}

	i, end := from, rangeEnd(from, limit, count)
	return &Stream[dusk.Bytes32]{
		next: func() (dusk.Bytes32, bool, error) {
			if i >= end {
				return dusk.Bytes32{}, false, nil
			}
			n, err := snap.nullifier(i)
			if err != nil {
				return dusk.Bytes32{}, false, err
			}
			i++
			return n, true, nil
		},
		release: snap.reader.Release,
	}, nil
}

// SyncAccounts streams public accounts in first-seen order.
func (t *Transfer) SyncAccounts(from, limit uint64) (*Stream[*AccountEntry], error) {
	snap := t.snapshotLedger()
	count, err := snap.accountCount()
	if err != nil {
		snap.reader.Release()
		return nil, err
	}

	i, end := from, rangeEnd(from, limit, count)
	return &Stream[*AccountEntry]{
		next: func() (*AccountEntry, bool, error) {
			if i >= end {
				return nil, false, nil
			}
			key, acc, err := snap.accountAt(i)
			if err != nil {
				return nil, false, err
			}
			i++
			return &AccountEntry{Key: key, Balance: acc.Balance, Nonce: acc.Nonce}, true, nil
		},
		release: snap.reader.Release,
	}, nil
}

// SyncContractBalances streams contract balances in first-seen order.
func (t *Transfer) SyncContractBalances(from, limit uint64) (*Stream[*BalanceEntry], error) {
	snap := t.snapshotLedger()
	count, err := snap.contractCount()
	if err != nil {
		snap.reader.Release()
		return nil, err
	}

	i, end := from, rangeEnd(from, limit, count)
	return &Stream[*BalanceEntry]{
		next: func() (*BalanceEntry, bool, error) {
			if i >= end {
				return nil, false, nil
			}
			id, bal, err := snap.contractAt(i)
			if err != nil {
				return nil, false, err
			}
			i++
			return &BalanceEntry{Contract: id, Balance: bal}, true, nil
		},
		release: snap.reader.Release,
	}, nil
}
