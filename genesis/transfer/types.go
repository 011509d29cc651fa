// Copyright (c) 2025 The dusk-go developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package transfer

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/dusk-network/dusk-go/dusk"
	"github.com/dusk-network/dusk-go/genesis/reverts"
)

// NoteType discriminates shielded note kinds.
type NoteType uint8

const (
	// NoteTransparent notes carry their value in the clear.
	NoteTransparent NoteType = iota
	// NoteObfuscated notes hide the value behind a commitment.
	NoteObfuscated
)

// Note is a shielded output in the note tree. Transparent notes expose Value;
// obfuscated notes carry only the commitment plus ciphertexts the owner can
// decrypt off-chain.
type Note struct {
	Type       NoteType
	Pos        uint64
	Owner      dusk.StealthAddress
	Value      uint64
	Commitment dusk.Bytes32
	Nonce      dusk.Bytes32
	ValueEnc   []byte
	BlindEnc   []byte
}

// NewTransparentNote builds a transparent note. The commitment binds the
// owner, value and nonce.
func NewTransparentNote(owner dusk.StealthAddress, value uint64, nonce dusk.Bytes32) *Note {
	var v [8]byte
	binary.BigEndian.PutUint64(v[:], value)
	return &Note{
		Type:       NoteTransparent,
		Owner:      owner,
		Value:      value,
		Commitment: dusk.Blake2b(owner.Bytes(), v[:], nonce.Bytes()),
		Nonce:      nonce,
	}
}

// Hash returns the leaf hash of the note.
func (n *Note) Hash() dusk.Bytes32 {
	data, err := rlp.EncodeToBytes(n)
	if err != nil {
		panic(err)
	}
	return dusk.Blake2b(data)
}

// IsTransparent reports whether the note value is public.
func (n *Note) IsTransparent() bool { return n.Type == NoteTransparent }

// Fee carries the gas terms of a transaction. RefundAddr receives the
// phoenix change note; it is unused for moonlight payers.
type Fee struct {
	GasLimit   uint64
	GasPrice   uint64
	RefundAddr dusk.StealthAddress
}

// Gas returns gas_limit*gas_price, guarding against overflow.
func (f *Fee) Gas() (uint64, bool) {
	return dusk.SafeMul(f.GasLimit, f.GasPrice)
}

// ContractCall names the contract function a transaction executes after its
// funds are spent.
type ContractCall struct {
	Contract dusk.ContractID
	Fn       string
	Args     []byte
}

// PhoenixPayload spends shielded notes. The proof attests, in zero knowledge,
// that the nullifiers open unspent notes under Root and that input value
// covers outputs, deposit and the gas allowance.
type PhoenixPayload struct {
	ChainID    uint8
	Root       dusk.Bytes32
	Nullifiers []dusk.Bytes32
	Outputs    []*Note
	Fee        Fee
	Deposit    uint64
	Call       *ContractCall `rlp:"nil"`
	Proof      []byte
}

// MoonlightPayload spends from a public account. Nonce must be exactly one
// above the account's stored nonce.
type MoonlightPayload struct {
	ChainID   uint8
	Sender    dusk.AccountKey
	Receiver  *dusk.AccountKey `rlp:"nil"`
	Value     uint64
	Deposit   uint64
	Fee       Fee
	Nonce     uint64
	Memo      []byte
	Call      *ContractCall `rlp:"nil"`
	Signature []byte
}

// SigDigest returns the digest the sender signs: the payload hash with the
// signature field zeroed.
func (m *MoonlightPayload) SigDigest() dusk.Bytes32 {
	unsigned := *m
	unsigned.Signature = nil
	data, err := rlp.EncodeToBytes(&unsigned)
	if err != nil {
		panic(err)
	}
	return dusk.Blake2b(data)
}

// Transaction is the union of the two spending models. Exactly one payload
// must be set.
type Transaction struct {
	Phoenix   *PhoenixPayload   `rlp:"nil"`
	Moonlight *MoonlightPayload `rlp:"nil"`
}

// ID returns the transaction hash.
func (tx *Transaction) ID() dusk.Bytes32 {
	data, err := rlp.EncodeToBytes(tx)
	if err != nil {
		panic(err)
	}
	return dusk.Blake2b(data)
}

// Fee returns the gas terms of whichever payload is set.
func (tx *Transaction) Fee() *Fee {
	if tx.Phoenix != nil {
		return &tx.Phoenix.Fee
	}
	return &tx.Moonlight.Fee
}

// CallData returns the contract call of whichever payload is set, if any.
func (tx *Transaction) CallData() *ContractCall {
	if tx.Phoenix != nil {
		return tx.Phoenix.Call
	}
	return tx.Moonlight.Call
}

// DepositValue returns the declared deposit of whichever payload is set.
func (tx *Transaction) DepositValue() uint64 {
	if tx.Phoenix != nil {
		return tx.Phoenix.Deposit
	}
	return tx.Moonlight.Deposit
}

// Validate checks the structural well-formedness of the transaction.
func (tx *Transaction) Validate() error {
	if (tx.Phoenix == nil) == (tx.Moonlight == nil) {
		return reverts.New(reverts.KindInvalidPayload, "exactly one of phoenix and moonlight must be set")
	}
	if p := tx.Phoenix; p != nil {
		if len(p.Nullifiers) == 0 {
			return reverts.New(reverts.KindInvalidPayload, "phoenix payload spends no notes")
		}
		if len(p.Outputs) > 2 {
			return reverts.Newf(reverts.KindInvalidPayload, "too many outputs: %d", len(p.Outputs))
		}
		if p.Deposit > 0 && p.Call == nil {
			return reverts.New(reverts.KindInvalidPayload, "deposit declared without a contract call")
		}
		return nil
	}
	m := tx.Moonlight
	if m.Deposit > 0 && m.Call == nil {
		return reverts.New(reverts.KindInvalidPayload, "deposit declared without a contract call")
	}
	if m.Value > 0 && m.Receiver == nil {
		return reverts.New(reverts.KindInvalidPayload, "value declared without a receiver")
	}
	return nil
}

// Account is the public (moonlight) side of the ledger.
type Account struct {
	Balance uint64
	Nonce   uint64
}

// NoteReceiver addresses a withdrawal into a fresh transparent note.
type NoteReceiver struct {
	Owner dusk.StealthAddress
	Nonce dusk.Bytes32
}

// WithdrawReceiver is the destination of funds leaving a contract balance.
// Exactly one of Account and Note must be set.
type WithdrawReceiver struct {
	Account *dusk.AccountKey `rlp:"nil"`
	Note    *NoteReceiver    `rlp:"nil"`
}

// Validate checks that exactly one destination is set.
func (r *WithdrawReceiver) Validate() error {
	if (r.Account == nil) == (r.Note == nil) {
		return reverts.New(reverts.KindInvalidPayload, "exactly one receiver must be set")
	}
	return nil
}

// Withdraw moves value out of a contract's balance to an account or a note.
type Withdraw struct {
	Contract dusk.ContractID
	Value    uint64
	Receiver WithdrawReceiver
}

// MintToContract credits newly minted supply to a contract balance.
type MintToContract struct {
	Contract dusk.ContractID
	Value    uint64
}

// SubBalance burns value from a contract balance.
type SubBalance struct {
	Contract dusk.ContractID
	Value    uint64
}

// ContractTransfer moves value between contract balances and notifies the
// receiving contract.
type ContractTransfer struct {
	Contract dusk.ContractID
	Value    uint64
	Fn       string
	Data     []byte
}

// ContractToAccount moves value from the calling contract's balance to a
// public account.
type ContractToAccount struct {
	Account dusk.AccountKey
	Value   uint64
}

// ReceiveFromContract is the argument delivered to the function named by a
// ContractTransfer.
type ReceiveFromContract struct {
	Contract dusk.ContractID
	Value    uint64
	Data     []byte
}

// Verifier abstracts the cryptographic oracles of the transfer contract.
// Implementations wrap the zero-knowledge verifier and the BLS signature
// scheme; contract logic treats both as black boxes.
type Verifier interface {
	// VerifyPhoenixProof checks a spend proof against its public inputs.
	VerifyPhoenixProof(proof []byte, publicInputs [][]byte) bool
	// VerifyAccountSignature checks an account signature over a digest.
	VerifyAccountSignature(key dusk.AccountKey, digest dusk.Bytes32, sig []byte) bool
}

// Status is the lifecycle state of the transaction being processed.
type Status uint8

const (
	StatusReceived Status = iota
	StatusSpent
	StatusExecuted
	StatusErrored
	StatusRefunded
	StatusFinalized
)

func (s Status) String() string {
	switch s {
	case StatusReceived:
		return "received"
	case StatusSpent:
		return "spent"
	case StatusExecuted:
		return "executed"
	case StatusErrored:
		return "errored"
	case StatusRefunded:
		return "refunded"
	case StatusFinalized:
		return "finalized"
	}
	return "unknown"
}

// Receipt is the terminal record of a processed transaction.
type Receipt struct {
	TxID     dusk.Bytes32
	Status   Status
	GasSpent uint64
	Err      string
}
