// Copyright (c) 2025 The dusk-go developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package storage

import (
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/dusk-network/dusk-go/dusk"
	"github.com/dusk-network/dusk-go/state"
)

// Uint64 is a single uint64 storage slot.
type Uint64 struct {
	context *Context
	pos     dusk.Bytes32
}

// NewUint64 creates a uint64 slot at the given position.
func NewUint64(context *Context, pos dusk.Bytes32) *Uint64 {
	return &Uint64{context: context, pos: pos}
}

// Get loads the slot value. A missing slot reads as zero.
func (u *Uint64) Get() (value uint64, err error) {
	err = u.context.state.DecodeStorage(u.context.contract, u.pos, func(raw []byte) error {
		u.context.UseGas(dusk.SloadGas)
		if len(raw) == 0 {
			return nil
		}
		return rlp.DecodeBytes(raw, &value)
	})
	return
}

// Set stores the slot value.
func (u *Uint64) Set(value uint64) error {
	return u.context.state.EncodeStorage(u.context.contract, u.pos, func() ([]byte, error) {
		u.context.UseGas(dusk.SstoreResetGas)
		if value == 0 {
			return nil, nil
		}
		return rlp.EncodeToBytes(value)
	})
}

// Add increments the slot value, returning the new value.
func (u *Uint64) Add(delta uint64) (uint64, error) {
	value, err := u.Get()
	if err != nil {
		return 0, err
	}
	value += delta
	if err := u.Set(value); err != nil {
		return 0, err
	}
	return value, nil
}

// SnapshotGet loads the slot value from a state snapshot, bypassing gas
// metering.
func (u *Uint64) SnapshotGet(reader *state.Reader) (value uint64, err error) {
	err = reader.DecodeStorage(u.context.contract, u.pos, func(raw []byte) error {
		if len(raw) == 0 {
			return nil
		}
		return rlp.DecodeBytes(raw, &value)
	})
	return
}
