// Copyright (c) 2025 The dusk-go developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package storage

import (
	"reflect"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/dusk-network/dusk-go/dusk"
	"github.com/dusk-network/dusk-go/state"
)

// Value is a single typed storage slot.
type Value[V any] struct {
	context *Context
	pos     dusk.Bytes32
}

// NewValue creates a typed slot at the given position.
func NewValue[V any](context *Context, pos dusk.Bytes32) *Value[V] {
	return &Value[V]{context: context, pos: pos}
}

// Get loads the slot. exists is false when the slot was never written.
func (v *Value[V]) Get() (value V, exists bool, err error) {
	err = v.context.state.DecodeStorage(v.context.contract, v.pos, func(raw []byte) error {
		if reflect.ValueOf(value).Kind() == reflect.Ptr {
			value = reflect.New(reflect.TypeOf(value).Elem()).Interface().(V)
		}
		if len(raw) == 0 {
			return nil
		}
		exists = true
		slots := (uint64(len(raw)) + 31) / 32
		v.context.UseGas(slots * dusk.SloadGas)
		return rlp.DecodeBytes(raw, &value)
	})
	return
}

// Set stores the slot.
func (v *Value[V]) Set(value V) error {
	return v.context.state.EncodeStorage(v.context.contract, v.pos, func() ([]byte, error) {
		val, err := rlp.EncodeToBytes(value)
		if err != nil {
			return nil, err
		}
		slots := (uint64(len(val)) + 31) / 32
		v.context.UseGas(slots * dusk.SstoreResetGas)
		return val, nil
	})
}

// SnapshotGet loads the slot from a state snapshot, bypassing gas metering.
func (v *Value[V]) SnapshotGet(reader *state.Reader) (value V, exists bool, err error) {
	err = reader.DecodeStorage(v.context.contract, v.pos, func(raw []byte) error {
		if reflect.ValueOf(value).Kind() == reflect.Ptr {
			value = reflect.New(reflect.TypeOf(value).Elem()).Interface().(V)
		}
		if len(raw) == 0 {
			return nil
		}
		exists = true
		return rlp.DecodeBytes(raw, &value)
	})
	return
}
