// Copyright (c) 2025 The dusk-go developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package gascharger

import (
	"fmt"

	"github.com/dusk-network/dusk-go/dusk"
	"github.com/dusk-network/dusk-go/xenv"
)

// Charger meters gas charged by contract storage operations and keeps a
// per-category breakdown for diagnostics.
type Charger struct {
	env            *xenv.Environment
	sloadOps       uint64
	sstoreSetOps   uint64
	sstoreResetOps uint64
	balanceOps     uint64
	customGas      uint64
	totalGas       uint64
}

// New creates a charger bound to the environment.
func New(env *xenv.Environment) *Charger {
	return &Charger{env: env}
}

// Charge records and consumes gas.
func (c *Charger) Charge(gas uint64) {
	c.totalGas += gas

	switch {
	// Handle multiples and single operations
	case gas%dusk.SstoreSetGas == 0 && gas > 0:
		c.sstoreSetOps += gas / dusk.SstoreSetGas

	case gas%dusk.SstoreResetGas == 0 && gas > 0:
		c.sstoreResetOps += gas / dusk.SstoreResetGas

	case gas%dusk.GetBalanceGas == 0 && gas > 0:
		c.balanceOps += gas / dusk.GetBalanceGas

	case gas%dusk.SloadGas == 0 && gas > 0:
		c.sloadOps += gas / dusk.SloadGas

	default:
		// Unknown/custom gas amount
		c.customGas += gas
	}

	c.env.UseGas(gas)
}

// ChargeLog charges the gas of emitting one event carrying data.
func (c *Charger) ChargeLog(dataLen int) {
	c.Charge(dusk.LogTopicGas + dusk.LogDataGas*uint64(dataLen))
}

// Breakdown formats the per-category gas usage.
func (c *Charger) Breakdown() string {
	return fmt.Sprintf(
		"SLOAD: %d ops (%d gas) | SSTORE_SET: %d ops (%d gas) | SSTORE_RESET: %d ops (%d gas) | BALANCE: %d ops (%d gas) | CUSTOM: %d gas | TOTAL: %d gas",
		c.sloadOps,
		c.sloadOps*dusk.SloadGas,
		c.sstoreSetOps,
		c.sstoreSetOps*dusk.SstoreSetGas,
		c.sstoreResetOps,
		c.sstoreResetOps*dusk.SstoreResetGas,
		c.balanceOps,
		c.balanceOps*dusk.GetBalanceGas,
		c.customGas,
		c.totalGas,
	)
}

// TotalGas returns total gas charged so far.
func (c *Charger) TotalGas() uint64 {
	return c.totalGas
}
