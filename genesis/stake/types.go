// Copyright (c) 2025 The dusk-go developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stake

import (
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/dusk-network/dusk-go/dusk"
	"github.com/dusk-network/dusk-go/genesis/reverts"
	"github.com/dusk-network/dusk-go/genesis/transfer"
)

// Owner is who may withdraw a stake: a public account or a contract.
// Exactly one must be set.
type Owner struct {
	Account  *dusk.AccountKey `rlp:"nil"`
	Contract *dusk.ContractID `rlp:"nil"`
}

// Validate checks that exactly one owner is set.
func (o *Owner) Validate() error {
	if (o.Account == nil) == (o.Contract == nil) {
		return reverts.New(reverts.KindInvalidPayload, "exactly one owner must be set")
	}
	return nil
}

// Keys identifies a stake: the provisioner account it is keyed by, plus its
// owner. Keys are fixed at insertion.
type Keys struct {
	Account dusk.AccountKey
	Owner   Owner
}

// Amount is the staked principal. Eligibility is the height from which the
// stake counts towards consensus.
type Amount struct {
	Value       uint64
	Locked      uint64
	Eligibility uint64
}

// Total returns the active plus locked principal.
func (a *Amount) Total() uint64 { return a.Value + a.Locked }

// Data is the mutable side of a stake. A nil Amount means no active stake;
// rewards and fault counters survive unstaking.
type Data struct {
	Amount     *Amount `rlp:"nil"`
	Reward     uint64
	Faults     uint8
	HardFaults uint8
}

// Entry is a stake record as persisted.
type Entry struct {
	Keys Keys
	Data Data
}

// HasStake reports whether the entry carries active principal.
func (e *Entry) HasStake() bool { return e.Data.Amount != nil }

// clone deep-copies the entry, detaching it from later mutations.
func (e *Entry) clone() *Entry {
	c := *e
	if e.Data.Amount != nil {
		amount := *e.Data.Amount
		c.Data.Amount = &amount
	}
	return &c
}

// Config is the operational configuration of the stake contract.
type Config struct {
	MinimumStake uint64
	Warnings     uint8
}

// DefaultConfig returns the genesis configuration.
func DefaultConfig() *Config {
	return &Config{
		MinimumStake: dusk.MinimumStakeDefault,
		Warnings:     dusk.StakeWarningsDefault,
	}
}

// SignedStake is the argument of the stake entry point. The signature is by
// the provisioner account over the digest of the remaining fields.
type SignedStake struct {
	Keys      Keys
	Value     uint64
	Signature []byte
}

// SigDigest returns the digest the provisioner signs.
func (m *SignedStake) SigDigest() dusk.Bytes32 {
	unsigned := *m
	unsigned.Signature = nil
	return digest(&unsigned)
}

// SignedWithdrawal is the argument of unstake and reward withdrawal.
type SignedWithdrawal struct {
	Account   dusk.AccountKey
	Receiver  transfer.WithdrawReceiver
	Signature []byte
}

// SigDigest returns the digest the provisioner signs.
func (m *SignedWithdrawal) SigDigest() dusk.Bytes32 {
	unsigned := *m
	unsigned.Signature = nil
	return digest(&unsigned)
}

// UnstakeFromContract withdraws a contract-owned stake back to its owner,
// notifying the owner's Fn with Data.
type UnstakeFromContract struct {
	Account dusk.AccountKey
	Fn      string
	Data    []byte
}

// Reward credits one provisioner within a reward batch.
type Reward struct {
	Account dusk.AccountKey
	Value   uint64
}

// SlashPayload is the wire form of a soft slash. A nil ToSlash leaves the
// accumulated reward untouched.
type SlashPayload struct {
	Account dusk.AccountKey
	ToSlash *uint64 `rlp:"nil"`
}

// HardSlashPayload is the wire form of a hard slash. Severity overrides the
// default severity derived from the hard fault count; ToSlash overrides the
// derived slash amount.
type HardSlashPayload struct {
	Account  dusk.AccountKey
	ToSlash  *uint64 `rlp:"nil"`
	Severity *uint8  `rlp:"nil"`
}

// Change records the previous value of a stake mutated since the last block
// state transition. A nil Prev means the entry did not exist.
type Change struct {
	Account dusk.AccountKey
	Prev    *Entry `rlp:"nil"`
}

// Verifier abstracts the provisioner signature scheme.
type Verifier interface {
	VerifyAccountSignature(key dusk.AccountKey, digest dusk.Bytes32, sig []byte) bool
}

// Policy gates features the protocol has not activated network-wide.
type Policy struct {
	HardSlashEnabled bool
}

func digest(v any) dusk.Bytes32 {
	data, err := rlp.EncodeToBytes(v)
	if err != nil {
		panic(err)
	}
	return dusk.Blake2b(data)
}
