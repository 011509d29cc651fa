// Copyright (c) 2025 The dusk-go developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package transfer

import (
	"encoding/binary"

	"github.com/dusk-network/dusk-go/dusk"
	"github.com/dusk-network/dusk-go/genesis/reverts"
	"github.com/dusk-network/dusk-go/xenv"
)

// spendPhoenix validates and applies the shielded spend: proof-gated
// nullifier recording plus output insertion. All checks run before the first
// mutation.
func (t *Transfer) spendPhoenix(env *xenv.Environment, led *ledger, p *PhoenixPayload, exec *execution) error {
	if p.ChainID != dusk.ChainID {
		return reverts.Newf(reverts.KindInvalidPayload, "chain id %d, want %d", p.ChainID, dusk.ChainID)
	}
	if !t.tree.KnownRoot(p.Root) {
		return reverts.Newf(reverts.KindStaleRoot, "unknown anchor %v", p.Root)
	}

	seen := make(map[dusk.Bytes32]struct{}, len(p.Nullifiers))
	for _, n := range p.Nullifiers {
		if _, dup := seen[n]; dup {
			return reverts.Newf(reverts.KindNullifierSpent, "duplicate nullifier %v", n)
		}
		seen[n] = struct{}{}

		spent, err := led.nullifierSpent(n)
		if err != nil {
			return err
		}
		if spent {
			return reverts.Newf(reverts.KindNullifierSpent, "nullifier %v", n)
		}
	}

	gasCost, ok := p.Fee.Gas()
	if !ok {
		return reverts.New(reverts.KindInvalidPayload, "gas allowance overflow")
	}
	if _, ok := dusk.SafeAdd(gasCost, p.Deposit); !ok {
		return reverts.New(reverts.KindInvalidPayload, "spend total overflow")
	}

	if !t.verifier.VerifyPhoenixProof(p.Proof, phoenixPublicInputs(p, gasCost)) {
		return reverts.New(reverts.KindInvalidProof, "")
	}

	for _, n := range p.Nullifiers {
		if err := led.recordNullifier(n); err != nil {
			return err
		}
	}
	height := env.BlockContext().Number
	for _, out := range p.Outputs {
		if _, err := led.pushNote(out, height); err != nil {
			return err
		}
		hash := out.Hash()
		t.tree.Append(hash)
		exec.noteHashes = append(exec.noteHashes, hash)
	}

	exec.model = payerPhoenix
	exec.nullifiers = p.Nullifiers
	if p.Deposit > 0 {
		exec.deposit = &pendingDeposit{target: p.Call.Contract, value: p.Deposit}
	}
	return nil
}

// phoenixPublicInputs assembles the statement the spend proof is verified
// against: anchor, nullifiers, output commitments, gas allowance and deposit.
func phoenixPublicInputs(p *PhoenixPayload, gasCost uint64) [][]byte {
	inputs := make([][]byte, 0, len(p.Nullifiers)+len(p.Outputs)+3)
	inputs = append(inputs, p.Root.Bytes())
	for _, n := range p.Nullifiers {
		inputs = append(inputs, n.Bytes())
	}
	for _, out := range p.Outputs {
		inputs = append(inputs, out.Commitment.Bytes())
	}
	var gas, deposit [8]byte
	binary.BigEndian.PutUint64(gas[:], gasCost)
	binary.BigEndian.PutUint64(deposit[:], p.Deposit)
	inputs = append(inputs, gas[:], deposit[:])
	return inputs
}

// spendMoonlight validates and applies the public spend: signature and
// strict-nonce gated debit of value, deposit and the gas allowance.
func (t *Transfer) spendMoonlight(env *xenv.Environment, led *ledger, m *MoonlightPayload, exec *execution) error {
	if m.ChainID != dusk.ChainID {
		return reverts.Newf(reverts.KindInvalidPayload, "chain id %d, want %d", m.ChainID, dusk.ChainID)
	}
	if !t.verifier.VerifyAccountSignature(m.Sender, m.SigDigest(), m.Signature) {
		return reverts.New(reverts.KindInvalidSignature, "")
	}

	acc, err := led.getAccount(m.Sender)
	if err != nil {
		return err
	}
	if m.Nonce != acc.Nonce+1 {
		return reverts.Newf(reverts.KindNonceMismatch, "nonce %d, want %d", m.Nonce, acc.Nonce+1)
	}

	gasCost, ok := m.Fee.Gas()
	if !ok {
		return reverts.New(reverts.KindInvalidPayload, "gas allowance overflow")
	}
	total, ok := dusk.SafeAdd(m.Value, m.Deposit)
	if !ok {
		return reverts.New(reverts.KindInvalidPayload, "spend total overflow")
	}
	total, ok = dusk.SafeAdd(total, gasCost)
	if !ok {
		return reverts.New(reverts.KindInvalidPayload, "spend total overflow")
	}
	if acc.Balance < total {
		return reverts.Newf(reverts.KindInsufficientBalance, "balance %d below %d", acc.Balance, total)
	}

	if err := led.debitAccount(m.Sender, total, true); err != nil {
		return err
	}
	if m.Receiver != nil && m.Value > 0 {
		if err := led.creditAccount(*m.Receiver, m.Value); err != nil {
			return err
		}
	}

	exec.model = payerMoonlight
	exec.sender = m.Sender
	exec.receiver = m.Receiver
	exec.value = m.Value
	exec.memo = m.Memo
	if m.Deposit > 0 {
		exec.deposit = &pendingDeposit{target: m.Call.Contract, value: m.Deposit}
	}
	return nil
}
