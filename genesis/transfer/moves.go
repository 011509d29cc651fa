// Copyright (c) 2025 The dusk-go developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package transfer

import (
	"github.com/dusk-network/dusk-go/genesis/gascharger"
	"github.com/dusk-network/dusk-go/genesis/reverts"
	"github.com/dusk-network/dusk-go/xenv"
)

// creditReceiver pays a withdraw receiver: either a public account or a
// fresh transparent note.
func (t *Transfer) creditReceiver(env *xenv.Environment, led *ledger, r *WithdrawReceiver, value uint64) error {
	if r.Account != nil {
		return led.creditAccount(*r.Account, value)
	}
	note := NewTransparentNote(r.Note.Owner, value, r.Note.Nonce)
	if _, err := led.pushNote(note, env.BlockContext().Number); err != nil {
		return err
	}
	t.tree.Append(note.Hash())
	if t.cur != nil {
		t.cur.noteHashes = append(t.cur.noteHashes, note.Hash())
	}
	return nil
}

// Mint credits newly minted supply to the receiver. Only the stake contract
// may call it, and only after validating the emission schedule.
func (t *Transfer) Mint(env *xenv.Environment, wd *Withdraw) error {
	if err := wd.Receiver.Validate(); err != nil {
		return err
	}
	if wd.Value == 0 {
		return reverts.New(reverts.KindInvalidPayload, "mint of zero")
	}
	if wd.Contract != env.Caller() {
		return reverts.New(reverts.KindUnauthorized, "mint must be addressed by its caller")
	}

	charger := gascharger.New(env)
	led := t.ledger(charger.Charge)
	if err := t.creditReceiver(env, led, &wd.Receiver, wd.Value); err != nil {
		return err
	}

	data := mustEncode(&MintEvent{Value: wd.Value})
	charger.ChargeLog(len(data))
	env.EmitEvent(TopicMint, data)
	return nil
}

// MintToContract credits newly minted supply to a contract balance.
func (t *Transfer) MintToContract(env *xenv.Environment, m *MintToContract) error {
	if m.Value == 0 {
		return reverts.New(reverts.KindInvalidPayload, "mint of zero")
	}

	charger := gascharger.New(env)
	led := t.ledger(charger.Charge)
	if err := led.creditContract(m.Contract, m.Value); err != nil {
		return err
	}

	data := mustEncode(&MintEvent{Value: m.Value})
	charger.ChargeLog(len(data))
	env.EmitEvent(TopicMint, data)
	return nil
}

// Deposit lets the called contract pick up the deposit declared by the
// in-flight transaction. The declared value must match exactly and the
// caller must be the deposit's target.
func (t *Transfer) Deposit(env *xenv.Environment, value uint64) error {
	exec := t.cur
	if exec == nil || exec.deposit == nil {
		return reverts.New(reverts.KindDepositMismatch, "no deposit available")
	}
	d := exec.deposit
	if d.picked {
		return reverts.New(reverts.KindDepositMismatch, "deposit already picked up")
	}
	if d.target != env.Caller() {
		return reverts.Newf(reverts.KindDepositMismatch, "deposit targets %v", d.target)
	}
	if d.value != value {
		return reverts.Newf(reverts.KindDepositMismatch, "declared %d, requested %d", d.value, value)
	}

	charger := gascharger.New(env)
	led := t.ledger(charger.Charge)
	if err := led.creditContract(d.target, value); err != nil {
		return err
	}
	d.picked = true

	data := mustEncode(&DepositEvent{Contract: d.target, Value: value})
	charger.ChargeLog(len(data))
	env.EmitEvent(TopicDeposit, data)
	return nil
}

// Withdraw moves value out of the calling contract's balance to an account
// or a fresh note. Contracts may only withdraw from themselves.
func (t *Transfer) Withdraw(env *xenv.Environment, wd *Withdraw) error {
	if err := wd.Receiver.Validate(); err != nil {
		return err
	}
	if wd.Contract != env.Caller() {
		return reverts.New(reverts.KindUnauthorized, "contracts withdraw from their own balance")
	}

	charger := gascharger.New(env)
	led := t.ledger(charger.Charge)
	if err := led.debitContract(wd.Contract, wd.Value); err != nil {
		return err
	}
	if err := t.creditReceiver(env, led, &wd.Receiver, wd.Value); err != nil {
		return err
	}

	data := mustEncode(&WithdrawEvent{Contract: wd.Contract, Value: wd.Value})
	charger.ChargeLog(len(data))
	env.EmitEvent(TopicWithdraw, data)
	return nil
}

// Convert moves the in-flight transaction's deposit across models: phoenix
// funds become a public account credit, moonlight funds become a fresh note.
// The deposit must target the transfer contract itself.
func (t *Transfer) Convert(env *xenv.Environment, wd *Withdraw) error {
	if err := wd.Receiver.Validate(); err != nil {
		return err
	}

	exec := t.cur
	if exec == nil || exec.deposit == nil || exec.deposit.target != t.addr {
		return reverts.New(reverts.KindDepositMismatch, "no conversion deposit")
	}
	d := exec.deposit
	if d.picked {
		return reverts.New(reverts.KindDepositMismatch, "deposit already picked up")
	}
	if d.value != wd.Value {
		return reverts.Newf(reverts.KindDepositMismatch, "declared %d, requested %d", d.value, wd.Value)
	}

	// a conversion must land in the opposite model
	switch exec.model {
	case payerPhoenix:
		if wd.Receiver.Account == nil {
			return reverts.New(reverts.KindInvalidPayload, "phoenix funds convert to an account")
		}
	case payerMoonlight:
		if wd.Receiver.Note == nil {
			return reverts.New(reverts.KindInvalidPayload, "moonlight funds convert to a note")
		}
	}

	charger := gascharger.New(env)
	led := t.ledger(charger.Charge)
	d.picked = true
	if err := t.creditReceiver(env, led, &wd.Receiver, wd.Value); err != nil {
		return err
	}

	data := mustEncode(&ConvertEvent{Value: wd.Value})
	charger.ChargeLog(len(data))
	env.EmitEvent(TopicConvert, data)
	return nil
}

// ContractToContract moves value between contract balances and, when a
// function is named, notifies the receiver with a ReceiveFromContract
// payload.
func (t *Transfer) ContractToContract(env *xenv.Environment, ct *ContractTransfer) error {
	src := env.Caller()
	if src.IsZero() {
		return reverts.New(reverts.KindUnauthorized, "host has no contract balance")
	}
	if ct.Contract == src {
		return reverts.New(reverts.KindInvalidPayload, "transfer to self")
	}

	charger := gascharger.New(env)
	led := t.ledger(charger.Charge)
	if err := led.debitContract(src, ct.Value); err != nil {
		return err
	}
	if err := led.creditContract(ct.Contract, ct.Value); err != nil {
		return err
	}

	data := mustEncode(&ContractTransferEvent{From: src, To: ct.Contract, Value: ct.Value})
	charger.ChargeLog(len(data))
	env.EmitEvent(TopicContractTransfer, data)

	if ct.Fn != "" {
		recv := &ReceiveFromContract{Contract: src, Value: ct.Value, Data: ct.Data}
		if _, err := env.Invoke(ct.Contract, ct.Fn, mustEncode(recv)); err != nil {
			return err
		}
	}
	return nil
}

// ContractToAccount moves value from the calling contract's balance to a
// public account.
func (t *Transfer) ContractToAccount(env *xenv.Environment, ca *ContractToAccount) error {
	src := env.Caller()
	if src.IsZero() {
		return reverts.New(reverts.KindUnauthorized, "host has no contract balance")
	}

	charger := gascharger.New(env)
	led := t.ledger(charger.Charge)
	if err := led.debitContract(src, ca.Value); err != nil {
		return err
	}
	if err := led.creditAccount(ca.Account, ca.Value); err != nil {
		return err
	}

	data := mustEncode(&ContractToAccountEvent{Contract: src, Account: ca.Account, Value: ca.Value})
	charger.ChargeLog(len(data))
	env.EmitEvent(TopicContractToAccount, data)
	return nil
}

// SubContractBalance burns value from a contract balance. Only the stake
// contract calls it, to destroy hard-slashed principal.
func (t *Transfer) SubContractBalance(env *xenv.Environment, sb *SubBalance) error {
	charger := gascharger.New(env)
	led := t.ledger(charger.Charge)
	return led.debitContract(sb.Contract, sb.Value)
}
