// Copyright (c) 2025 The dusk-go developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package transfer

import (
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/dusk-network/dusk-go/dusk"
)

// Event topics emitted by the transfer contract.
const (
	TopicPhoenix           = "phoenix"
	TopicMoonlight         = "moonlight"
	TopicMint              = "mint"
	TopicDeposit           = "deposit"
	TopicWithdraw          = "withdraw"
	TopicConvert           = "convert"
	TopicContractTransfer  = "contract_to_contract"
	TopicContractToAccount = "contract_to_account"
)

// PhoenixEvent finalizes a phoenix transaction. Wallets scan the note hashes
// for outputs they own.
type PhoenixEvent struct {
	TxID       dusk.Bytes32
	Nullifiers []dusk.Bytes32
	Notes      []dusk.Bytes32
	GasSpent   uint64
	Err        string
}

// MoonlightEvent finalizes a moonlight transaction.
type MoonlightEvent struct {
	TxID     dusk.Bytes32
	Sender   dusk.AccountKey
	Receiver *dusk.AccountKey `rlp:"nil"`
	Value    uint64
	Memo     []byte
	GasSpent uint64
	Err      string
}

// MintEvent records newly minted supply entering circulation.
type MintEvent struct {
	Value uint64
}

// DepositEvent records a contract picking up a transaction deposit.
type DepositEvent struct {
	Contract dusk.ContractID
	Value    uint64
}

// WithdrawEvent records value leaving a contract balance.
type WithdrawEvent struct {
	Contract dusk.ContractID
	Value    uint64
}

// ConvertEvent records value moving between the shielded and public models.
type ConvertEvent struct {
	Value uint64
}

// ContractTransferEvent records value moving between contract balances.
type ContractTransferEvent struct {
	From  dusk.ContractID
	To    dusk.ContractID
	Value uint64
}

// ContractToAccountEvent records a contract paying a public account.
type ContractToAccountEvent struct {
	Contract dusk.ContractID
	Account  dusk.AccountKey
	Value    uint64
}

// mustEncode serializes an event payload. Event types are closed, so a
// failure here is a programming error.
func mustEncode(v any) []byte {
	data, err := rlp.EncodeToBytes(v)
	if err != nil {
		panic(err)
	}
	return data
}
