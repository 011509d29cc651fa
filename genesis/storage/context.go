// Copyright (c) 2025 The dusk-go developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package storage provides typed, gas-metered storage abstractions for
// genesis contracts, keyed by named slots.
package storage

import (
	"github.com/dusk-network/dusk-go/dusk"
	"github.com/dusk-network/dusk-go/state"
)

// UseGasFunc charges gas for storage operations.
type UseGasFunc func(gas uint64)

// Context binds a contract's storage to the world state.
type Context struct {
	contract dusk.ContractID
	state    *state.State
	charger  UseGasFunc
}

// NewContext creates a storage context. A nil charger disables metering,
// used by host-level (non-transactional) access.
func NewContext(contract dusk.ContractID, st *state.State, charger UseGasFunc) *Context {
	return &Context{
		contract: contract,
		state:    st,
		charger:  charger,
	}
}

// Contract returns the owning contract id.
func (c *Context) Contract() dusk.ContractID {
	return c.contract
}

// State returns the underlying world state.
func (c *Context) State() *state.State {
	return c.state
}

// UseGas charges gas when a charger is attached.
func (c *Context) UseGas(gas uint64) {
	if c.charger != nil {
		c.charger(gas)
	}
}

// NameToSlot derives a storage slot from a name.
func NameToSlot(name string) dusk.Bytes32 {
	return dusk.BytesToBytes32([]byte(name))
}
