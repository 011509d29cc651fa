// Copyright (c) 2025 The dusk-go developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/dusk-network/dusk-go/dusk"
	"github.com/dusk-network/dusk-go/kv"
	"github.com/dusk-network/dusk-go/stackedmap"
)

// Error is the error caused by state access failure.
// It is fatal: the enclosing block must not be applied when it surfaces.
type Error struct {
	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("state: %v", e.cause)
}

// Unwrap returns the cause of the state error.
func (e *Error) Unwrap() error {
	return e.cause
}

type storageKey struct {
	contract dusk.ContractID
	key      dusk.Bytes32
}

func (k storageKey) storeKey() []byte {
	b := make([]byte, 0, dusk.ContractIDLength+32)
	return append(append(b, k.contract[:]...), k.key[:]...)
}

// State manages contract storage of the genesis contracts.
//
// Reads fall through to the committed kv store; writes are buffered in a
// stacked map so that checkpoints taken before an inter-contract call can be
// reverted without touching committed data. There is exactly one writer at a
// time by construction.
type State struct {
	store kv.Store
	sm    *stackedmap.StackedMap
}

// storageBucket namespaces contract storage within the shared kv store, so
// other column families never collide with (contract, key) entries.
var storageBucket = kv.Bucket("cs")

// New create state object.
func New(store kv.Store) *State {
	state := State{store: storageBucket.NewStore(store)}
	state.sm = stackedmap.New(func(key any) (any, bool, error) {
		return state.storeGetter(key)
	})
	// base checkpoint, never popped
	state.sm.Push()
	return &state
}

// storeGetter implements stackedmap.MapGetter.
func (s *State) storeGetter(key any) (value any, exist bool, err error) {
	switch k := key.(type) {
	case storageKey:
		raw, err := s.store.Get(k.storeKey())
		if err != nil {
			if s.store.IsNotFound(err) {
				return rlp.RawValue(nil), true, nil
			}
			return nil, false, &Error{err}
		}
		return rlp.RawValue(raw), true, nil
	}
	panic(fmt.Errorf("unexpected key type %+v", key))
}

// GetRawStorage returns the raw rlp value stored under (contract, key).
// Empty value means the entry does not exist.
func (s *State) GetRawStorage(contract dusk.ContractID, key dusk.Bytes32) (rlp.RawValue, error) {
	v, _, err := s.sm.Get(storageKey{contract, key})
	if err != nil {
		return nil, err
	}
	return v.(rlp.RawValue), nil
}

// SetRawStorage sets the raw rlp value under (contract, key).
// An empty value deletes the entry.
func (s *State) SetRawStorage(contract dusk.ContractID, key dusk.Bytes32, raw rlp.RawValue) {
	s.sm.Put(storageKey{contract, key}, raw)
}

// DecodeStorage calls the decoder with the raw value stored under (contract, key).
func (s *State) DecodeStorage(contract dusk.ContractID, key dusk.Bytes32, decode func([]byte) error) error {
	raw, err := s.GetRawStorage(contract, key)
	if err != nil {
		return err
	}
	return decode(raw)
}

// EncodeStorage stores the encoder output under (contract, key).
func (s *State) EncodeStorage(contract dusk.ContractID, key dusk.Bytes32, encode func() ([]byte, error)) error {
	raw, err := encode()
	if err != nil {
		return err
	}
	s.SetRawStorage(contract, key, raw)
	return nil
}

// NewCheckpoint makes a checkpoint of current state.
// It returns checkpoint index to be used with RevertTo.
func (s *State) NewCheckpoint() int {
	return s.sm.Push()
}

// RevertTo reverts all writes made after the checkpoint was taken.
func (s *State) RevertTo(checkpoint int) {
	s.sm.PopTo(checkpoint)
}

// Snapshot captures a read-only view of the state at call time: the
// committed store snapshot overlaid with all writes buffered so far.
// Later writes do not affect the returned reader.
func (s *State) Snapshot() *Reader {
	overlay := make(map[storageKey]rlp.RawValue)
	s.sm.Journal(func(key, value any) bool {
		overlay[key.(storageKey)] = value.(rlp.RawValue)
		return true
	})
	return &Reader{
		snap:    s.store.Snapshot(),
		overlay: overlay,
	}
}

// Stage collects all buffered writes into a commit-ready stage.
func (s *State) Stage() *Stage {
	batch := s.store.NewBatch()
	changes := make(map[storageKey]rlp.RawValue)
	s.sm.Journal(func(key, value any) bool {
		changes[key.(storageKey)] = value.(rlp.RawValue)
		return true
	})
	for k, raw := range changes {
		if len(raw) == 0 {
			if err := batch.Delete(k.storeKey()); err != nil {
				return &Stage{err: &Error{err}}
			}
			continue
		}
		if err := batch.Put(k.storeKey(), raw); err != nil {
			return &Stage{err: &Error{err}}
		}
	}
	return &Stage{batch: batch}
}

// Stage abstracts buffered changes ready to be committed.
type Stage struct {
	batch kv.Batch
	err   error
}

// Commit commits the staged changes to the underlying store.
func (s *Stage) Commit() error {
	if s.err != nil {
		return s.err
	}
	if err := s.batch.Write(); err != nil {
		return &Error{err}
	}
	return nil
}

// Reader is a read-only view of the state, taken by Snapshot.
type Reader struct {
	snap    kv.Snapshot
	overlay map[storageKey]rlp.RawValue
}

// GetRawStorage returns the raw rlp value stored under (contract, key)
// as of the time the snapshot was taken.
func (r *Reader) GetRawStorage(contract dusk.ContractID, key dusk.Bytes32) (rlp.RawValue, error) {
	sk := storageKey{contract, key}
	if raw, ok := r.overlay[sk]; ok {
		return raw, nil
	}
	raw, err := r.snap.Get(sk.storeKey())
	if err != nil {
		if r.snap.IsNotFound(err) {
			return nil, nil
		}
		return nil, &Error{err}
	}
	return raw, nil
}

// DecodeStorage calls the decoder with the raw value stored under (contract, key).
func (r *Reader) DecodeStorage(contract dusk.ContractID, key dusk.Bytes32, decode func([]byte) error) error {
	raw, err := r.GetRawStorage(contract, key)
	if err != nil {
		return err
	}
	return decode(raw)
}

// Release releases the underlying store snapshot.
func (r *Reader) Release() {
	r.snap.Release()
}
