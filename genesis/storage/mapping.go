// Copyright (c) 2025 The dusk-go developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package storage

import (
	"encoding/binary"
	"reflect"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/dusk-network/dusk-go/dusk"
	"github.com/dusk-network/dusk-go/state"
)

// Key is implemented by types usable as mapping keys.
type Key interface {
	Bytes() []byte
}

// U64 adapts a uint64 to a big-endian mapping key.
type U64 uint64

// Bytes returns the big-endian form of the key.
func (u U64) Bytes() []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(u))
	return b
}

// Mapping is a key/value storage abstraction for genesis contracts, similar
// to a mapping in account-model contract languages. Entry positions are
// derived by hashing the key with the mapping's base slot.
type Mapping[K Key, V any] struct {
	context *Context
	basePos dusk.Bytes32
}

// NewMapping creates a mapping rooted at the given slot.
func NewMapping[K Key, V any](context *Context, pos dusk.Bytes32) *Mapping[K, V] {
	return &Mapping[K, V]{context: context, basePos: pos}
}

func (m *Mapping[K, V]) position(key K) dusk.Bytes32 {
	return dusk.Blake2b(key.Bytes(), m.basePos.Bytes())
}

// Get loads the value stored under key. A missing entry decodes to the
// zero value.
func (m *Mapping[K, V]) Get(key K) (value V, err error) {
	err = m.context.state.DecodeStorage(m.context.contract, m.position(key), func(raw []byte) error {
		if reflect.ValueOf(value).Kind() == reflect.Ptr {
			value = reflect.New(reflect.TypeOf(value).Elem()).Interface().(V)
		}
		if len(raw) == 0 {
			return nil
		}
		slots := (uint64(len(raw)) + 31) / 32
		m.context.UseGas(slots * dusk.SloadGas)
		return rlp.DecodeBytes(raw, &value)
	})
	return
}

// Has reports whether an entry exists under key.
func (m *Mapping[K, V]) Has(key K) (bool, error) {
	raw, err := m.context.state.GetRawStorage(m.context.contract, m.position(key))
	if err != nil {
		return false, err
	}
	m.context.UseGas(dusk.SloadGas)
	return len(raw) > 0, nil
}

// Set stores the value under key. newValue hints gas accounting.
func (m *Mapping[K, V]) Set(key K, value V, newValue bool) error {
	return m.context.state.EncodeStorage(m.context.contract, m.position(key), func() ([]byte, error) {
		val, err := rlp.EncodeToBytes(value)
		if err != nil {
			return nil, err
		}
		slots := (uint64(len(val)) + 31) / 32
		if newValue {
			m.context.UseGas(slots * dusk.SstoreSetGas)
		} else {
			m.context.UseGas(slots * dusk.SstoreResetGas)
		}
		return val, nil
	})
}

// Delete removes the entry under key.
func (m *Mapping[K, V]) Delete(key K) error {
	m.context.UseGas(dusk.SstoreResetGas)
	m.context.state.SetRawStorage(m.context.contract, m.position(key), nil)
	return nil
}

// SnapshotGet loads the value stored under key from a state snapshot,
// bypassing gas metering. Used by streaming queries.
func (m *Mapping[K, V]) SnapshotGet(reader *state.Reader, key K) (value V, err error) {
	err = reader.DecodeStorage(m.context.contract, m.position(key), func(raw []byte) error {
		if reflect.ValueOf(value).Kind() == reflect.Ptr {
			value = reflect.New(reflect.TypeOf(value).Elem()).Interface().(V)
		}
		if len(raw) == 0 {
			return nil
		}
		return rlp.DecodeBytes(raw, &value)
	})
	return
}
