// Copyright (c) 2025 The dusk-go developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package host

import (
	"github.com/dusk-network/dusk-go/dusk"
	"github.com/dusk-network/dusk-go/genesis/reverts"
)

// Op enumerates every genesis contract entry point. The set is closed: the
// dispatch table is built from it at startup and a name registered twice, or
// an op left unnamed, panics immediately.
type Op uint8

const (
	OpUnknown Op = iota

	// transfer contract
	OpSpendAndExecute
	OpRefund
	OpMint
	OpMintToContract
	OpDeposit
	OpWithdraw
	OpConvert
	OpContractToContract
	OpContractToAccount
	OpSubContractBalance
	OpRoot
	OpAccount
	OpContractBalance
	OpOpening
	OpExistingNullifiers
	OpNumNotes
	OpChainID
	OpSyncLeaves
	OpSyncLeavesFromHeight
	OpSyncNullifiers
	OpSyncAccounts
	OpSyncContractBalances
	OpInsertAccount

	// stake contract
	OpStake
	OpStakeFromContract
	OpUnstake
	OpUnstakeFromContract
	OpWithdrawReward
	OpReward
	OpSlash
	OpHardSlash
	OpInsertStake
	OpBeforeStateTransition
	OpPrevStateChanges
	OpGetStake
	OpBurntAmount
	OpMintedAmount
	OpGetConfig
	OpSetConfig
	OpSyncStakes

	opSentinel // keep last
)

var opNames = map[Op]string{
	OpSpendAndExecute:      "spend_and_execute",
	OpRefund:               "refund",
	OpMint:                 "mint",
	OpMintToContract:       "mint_to_contract",
	OpDeposit:              "deposit",
	OpWithdraw:             "withdraw",
	OpConvert:              "convert",
	OpContractToContract:   "contract_to_contract",
	OpContractToAccount:    "contract_to_account",
	OpSubContractBalance:   "sub_contract_balance",
	OpRoot:                 "root",
	OpAccount:              "account",
	OpContractBalance:      "contract_balance",
	OpOpening:              "opening",
	OpExistingNullifiers:   "existing_nullifiers",
	OpNumNotes:             "num_notes",
	OpChainID:              "chain_id",
	OpSyncLeaves:           "sync",
	OpSyncLeavesFromHeight: "leaves_from_height",
	OpSyncNullifiers:       "sync_nullifiers",
	OpSyncAccounts:         "sync_accounts",
	OpSyncContractBalances: "sync_contract_balances",
	OpInsertAccount:        "insert_account",

	OpStake:                 "stake",
	OpStakeFromContract:     "stake_from_contract",
	OpUnstake:               "unstake",
	OpUnstakeFromContract:   "unstake_from_contract",
	OpWithdrawReward:        "withdraw",
	OpReward:                "reward",
	OpSlash:                 "slash",
	OpHardSlash:             "hard_slash",
	OpInsertStake:           "insert_stake",
	OpBeforeStateTransition: "before_state_transition",
	OpPrevStateChanges:      "prev_state_changes",
	OpGetStake:              "get_stake",
	OpBurntAmount:           "burnt_amount",
	OpMintedAmount:          "minted_amount",
	OpGetConfig:             "get_config",
	OpSetConfig:             "set_config",
	OpSyncStakes:            "stakes",
}

func (op Op) String() string {
	if name, ok := opNames[op]; ok {
		return name
	}
	return "unknown"
}

// Rule is the caller policy of one entry point, checked before anything
// else, the payload included.
type Rule struct {
	// HostOnly restricts the entry point to the protocol host.
	HostOnly bool
	// RequireContract rejects direct host calls.
	RequireContract bool
	// Callers whitelists contract callers. Empty means any.
	Callers []dusk.ContractID
	// ForbidRootICC rejects the call when its parent frame was entered
	// directly by the host.
	ForbidRootICC bool
}

func (r *Rule) check(op Op, caller dusk.ContractID) error {
	if r.HostOnly {
		if !caller.IsZero() {
			return reverts.Newf(reverts.KindUnauthorized, "%s is host-only", op)
		}
		return nil
	}
	if r.RequireContract && caller.IsZero() {
		return reverts.Newf(reverts.KindUnauthorized, "%s requires a contract caller", op)
	}
	if len(r.Callers) > 0 {
		for _, c := range r.Callers {
			if c == caller {
				return nil
			}
		}
		return reverts.Newf(reverts.KindUnauthorized, "%v may not call %s", caller, op)
	}
	return nil
}

// policies is the complete caller policy table. Ops absent from it are open
// to anyone, host included; those are the read-only queries.
var policies = map[Op]Rule{
	OpSpendAndExecute:       {HostOnly: true},
	OpRefund:                {HostOnly: true},
	OpReward:                {HostOnly: true},
	OpSlash:                 {HostOnly: true},
	OpHardSlash:             {HostOnly: true},
	OpInsertStake:           {HostOnly: true},
	OpInsertAccount:         {HostOnly: true},
	OpBeforeStateTransition: {HostOnly: true},
	OpSetConfig:             {HostOnly: true},

	OpMint:               {Callers: []dusk.ContractID{dusk.StakeContractID}},
	OpMintToContract:     {Callers: []dusk.ContractID{dusk.StakeContractID}},
	OpSubContractBalance: {Callers: []dusk.ContractID{dusk.StakeContractID}},

	OpDeposit:            {RequireContract: true},
	OpWithdraw:           {RequireContract: true},
	OpContractToContract: {RequireContract: true},
	OpContractToAccount:  {RequireContract: true},

	OpConvert:        {Callers: []dusk.ContractID{dusk.TransferContractID}},
	OpStake:          {Callers: []dusk.ContractID{dusk.TransferContractID}},
	OpUnstake:        {Callers: []dusk.ContractID{dusk.TransferContractID}},
	OpWithdrawReward: {Callers: []dusk.ContractID{dusk.TransferContractID}},

	// only the owning contract may unstake its own stake; ownership is
	// checked against the entry inside the contract
	OpUnstakeFromContract: {RequireContract: true},
	OpStakeFromContract: {
		Callers:       []dusk.ContractID{dusk.TransferContractID},
		ForbidRootICC: true,
	},
}
