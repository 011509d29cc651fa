// Copyright (c) 2025 The dusk-go developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stake

import (
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/dusk-network/dusk-go/dusk"
)

// Event topics emitted by the stake contract.
const (
	TopicStake     = "stake"
	TopicUnstake   = "unstake"
	TopicWithdraw  = "withdraw"
	TopicReward    = "reward"
	TopicSlash     = "slash"
	TopicHardSlash = "hard_slash"
)

// StakeEvent records new principal entering the stake.
type StakeEvent struct {
	Account     dusk.AccountKey
	Value       uint64
	Eligibility uint64
}

// UnstakeEvent records principal leaving the stake.
type UnstakeEvent struct {
	Account dusk.AccountKey
	Value   uint64
}

// WithdrawEvent records an accumulated reward being minted out.
type WithdrawEvent struct {
	Account dusk.AccountKey
	Value   uint64
}

// RewardEvent records one credit of an applied reward batch.
type RewardEvent struct {
	Account dusk.AccountKey
	Value   uint64
}

// SlashEvent records a soft slash.
type SlashEvent struct {
	Account     dusk.AccountKey
	Faults      uint8
	RewardCut   uint64
	Eligibility uint64
}

// HardSlashEvent records principal burnt by a hard slash.
type HardSlashEvent struct {
	Account    dusk.AccountKey
	HardFaults uint8
	Burnt      uint64
}

func mustEncode(v any) []byte {
	data, err := rlp.EncodeToBytes(v)
	if err != nil {
		panic(err)
	}
	return data
}

func decode(data []byte, v any) error {
	return rlp.DecodeBytes(data, v)
}
