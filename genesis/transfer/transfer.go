// Copyright (c) 2025 The dusk-go developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package transfer implements the genesis transfer contract: the sole ledger
// of funds on the chain. It keeps the shielded (phoenix) note tree and
// nullifier set, the public (moonlight) account map and the per-contract
// balances, and drives the transaction lifecycle from spend to refund.
package transfer

import (
	"github.com/dusk-network/dusk-go/dusk"
	"github.com/dusk-network/dusk-go/genesis/gascharger"
	"github.com/dusk-network/dusk-go/genesis/reverts"
	"github.com/dusk-network/dusk-go/genesis/storage"
	"github.com/dusk-network/dusk-go/log"
	"github.com/dusk-network/dusk-go/metrics"
	"github.com/dusk-network/dusk-go/state"
	"github.com/dusk-network/dusk-go/tree"
	"github.com/dusk-network/dusk-go/xenv"
)

var logger = log.WithContext("pkg", "transfer")

var (
	metricTxs     = metrics.Counter("transfer_tx_total")
	metricErrored = metrics.Counter("transfer_tx_errored_total")
	metricNotes   = metrics.Gauge("transfer_notes")
)

type payerModel uint8

const (
	payerPhoenix payerModel = iota
	payerMoonlight
)

// pendingDeposit is a declared deposit awaiting pickup by its target
// contract during the execution phase.
type pendingDeposit struct {
	target dusk.ContractID
	value  uint64
	picked bool
}

// execution tracks the transaction currently moving through the lifecycle.
// Exactly one execution exists between spend_and_execute and refund.
type execution struct {
	txID    dusk.Bytes32
	status  Status
	model   payerModel
	fee     Fee
	deposit *pendingDeposit
	execErr string

	// finalize event material
	nullifiers []dusk.Bytes32
	noteHashes []dusk.Bytes32
	sender     dusk.AccountKey
	receiver   *dusk.AccountKey
	value      uint64
	memo       []byte
}

// Transfer is the genesis transfer contract. All methods run on the single
// execution thread; streaming queries work on snapshots and may be consumed
// concurrently.
type Transfer struct {
	addr     dusk.ContractID
	state    *state.State
	tree     *tree.Tree
	verifier Verifier
	cur      *execution
}

// New binds the transfer contract to the world state and rebuilds the
// in-memory note tree from stored leaves.
func New(st *state.State, verifier Verifier) (*Transfer, error) {
	t := &Transfer{
		addr:     dusk.TransferContractID,
		state:    st,
		tree:     tree.New(dusk.RootHistoryLen),
		verifier: verifier,
	}

	led := t.ledger(nil)
	count, err := led.noteCount.Get()
	if err != nil {
		return nil, err
	}
	for pos := uint64(0); pos < count; pos++ {
		note, err := led.notes.Get(storage.U64(pos))
		if err != nil {
			return nil, err
		}
		t.tree.Append(note.Hash())
	}
	t.tree.RetainRoot()

	logger.Info("transfer contract loaded", "notes", count, "root", t.tree.Root())
	return t, nil
}

// Address returns the contract id.
func (t *Transfer) Address() dusk.ContractID { return t.addr }

// Tree exposes the note tree, mainly for the host and tests.
func (t *Transfer) Tree() *tree.Tree { return t.tree }

// RetainRoot records the current note tree root into the bounded history
// window. The host calls this once per accepted block.
func (t *Transfer) RetainRoot() { t.tree.RetainRoot() }

func (t *Transfer) ledger(charge storage.UseGasFunc) *ledger {
	return newLedger(storage.NewContext(t.addr, t.state, charge))
}

// SpendAndExecute runs the spend phase of tx and, when it carries a contract
// call, the execution phase. A returned error means the transaction was
// rejected and no state was mutated. An execution failure does not surface
// here: spent funds stay spent, inner effects are rolled back, and the
// transaction proceeds to refund in its errored branch.
func (t *Transfer) SpendAndExecute(env *xenv.Environment, tx *Transaction) (err error) {
	if t.cur != nil {
		return reverts.New(reverts.KindInvalidPayload, "transaction already in flight")
	}
	if err := tx.Validate(); err != nil {
		return err
	}

	charger := gascharger.New(env)
	led := t.ledger(charger.Charge)

	entry := t.state.NewCheckpoint()
	leaves := t.tree.Len()
	events := env.EventCount()

	revertAll := func() {
		t.state.RevertTo(entry)
		t.tree.TruncateTo(leaves)
		env.TruncateEvents(events)
		t.cur = nil
	}

	// gas exhaustion during the spend phase rejects the transaction wholesale
	defer func() {
		if r := recover(); r != nil {
			cause, ok := xenv.AsVMError(r)
			if !ok {
				panic(r)
			}
			revertAll()
			err = cause
		}
	}()

	exec := &execution{txID: tx.ID(), status: StatusReceived, fee: *tx.Fee()}
	if tx.Phoenix != nil {
		err = t.spendPhoenix(env, led, tx.Phoenix, exec)
	} else {
		err = t.spendMoonlight(env, led, tx.Moonlight, exec)
	}
	if err != nil {
		revertAll()
		return err
	}
	exec.status = StatusSpent
	t.cur = exec

	if call := tx.CallData(); call != nil {
		chk := t.state.NewCheckpoint()
		innerLeaves := t.tree.Len()
		innerEvents := env.EventCount()

		if _, callErr := env.Invoke(call.Contract, call.Fn, call.Args); callErr != nil {
			t.state.RevertTo(chk)
			t.tree.TruncateTo(innerLeaves)
			env.TruncateEvents(innerEvents)
			if exec.deposit != nil {
				// an unwound pickup leaves the deposit refundable
				exec.deposit.picked = false
			}
			exec.status = StatusErrored
			exec.execErr = callErr.Error()
			metricErrored.Add(1)
			logger.Debug("execution errored", "tx", exec.txID, "err", callErr)
		} else {
			exec.status = StatusExecuted
		}
	} else {
		exec.status = StatusExecuted
	}

	metricTxs.Add(1)
	return nil
}

// Refund settles the in-flight transaction: unspent gas and any unclaimed
// deposit return to the payer, the finalize event is emitted and the
// lifecycle ends. gasSpent is the host-accounted total for the transaction.
func (t *Transfer) Refund(env *xenv.Environment, gasSpent uint64) (*Receipt, error) {
	exec := t.cur
	if exec == nil {
		return nil, reverts.New(reverts.KindInvalidPayload, "no transaction in flight")
	}
	if gasSpent > exec.fee.GasLimit {
		return nil, reverts.Newf(reverts.KindInvalidPayload, "gas spent %d exceeds limit %d", gasSpent, exec.fee.GasLimit)
	}

	// refund bookkeeping is host-phase work, not metered against the payer
	led := t.ledger(nil)

	refund := (exec.fee.GasLimit - gasSpent) * exec.fee.GasPrice
	if d := exec.deposit; d != nil && !d.picked {
		refund += d.value
	}

	if refund > 0 {
		switch exec.model {
		case payerMoonlight:
			if err := led.creditAccount(exec.sender, refund); err != nil {
				return nil, err
			}
		case payerPhoenix:
			nonce := dusk.Blake2b(exec.txID.Bytes(), []byte("refund"))
			note := NewTransparentNote(exec.fee.RefundAddr, refund, nonce)
			if _, err := led.pushNote(note, env.BlockContext().Number); err != nil {
				return nil, err
			}
			t.tree.Append(note.Hash())
			exec.noteHashes = append(exec.noteHashes, note.Hash())
		}
	}
	exec.status = StatusRefunded

	switch exec.model {
	case payerPhoenix:
		env.EmitEvent(TopicPhoenix, mustEncode(&PhoenixEvent{
			TxID:       exec.txID,
			Nullifiers: exec.nullifiers,
			Notes:      exec.noteHashes,
			GasSpent:   gasSpent,
			Err:        exec.execErr,
		}))
	case payerMoonlight:
		env.EmitEvent(TopicMoonlight, mustEncode(&MoonlightEvent{
			TxID:     exec.txID,
			Sender:   exec.sender,
			Receiver: exec.receiver,
			Value:    exec.value,
			Memo:     exec.memo,
			GasSpent: gasSpent,
			Err:      exec.execErr,
		}))
	}

	status := StatusFinalized
	if exec.execErr != "" {
		status = StatusErrored
	}
	t.cur = nil
	metricNotes.Set(int64(t.tree.Len()))

	return &Receipt{
		TxID:     exec.txID,
		Status:   status,
		GasSpent: gasSpent,
		Err:      exec.execErr,
	}, nil
}

// InsertAccount seeds a public account directly, bypassing the spend rules.
// Used by the host while building the genesis state.
func (t *Transfer) InsertAccount(env *xenv.Environment, e *AccountEntry) error {
	led := t.ledger(nil)
	known, err := led.accounts.Has(e.Key)
	if err != nil {
		return err
	}
	if known {
		return reverts.New(reverts.KindInvalidPayload, "account already exists")
	}
	if err := led.creditAccount(e.Key, e.Balance); err != nil {
		return err
	}
	if e.Nonce == 0 {
		return nil
	}
	acc, err := led.getAccount(e.Key)
	if err != nil {
		return err
	}
	acc.Nonce = e.Nonce
	return led.accounts.Set(e.Key, acc, false)
}

// Root returns the current note tree root.
func (t *Transfer) Root() dusk.Bytes32 { return t.tree.Root() }

// ChainID returns the chain identifier transactions must commit to.
func (t *Transfer) ChainID() uint8 { return dusk.ChainID }

// NumNotes returns the number of leaves in the note tree.
func (t *Transfer) NumNotes() uint64 { return t.tree.Len() }

// OpeningAt returns the inclusion proof of the leaf at pos against the
// current root.
func (t *Transfer) OpeningAt(pos uint64) (*tree.Opening, bool) {
	return t.tree.Opening(pos)
}

// AccountData returns the public account under key. Unknown keys read as the
// empty account.
func (t *Transfer) AccountData(env *xenv.Environment, key dusk.AccountKey) (*Account, error) {
	charger := gascharger.New(env)
	return t.ledger(charger.Charge).getAccount(key)
}

// ContractBalance returns the balance held by a contract.
func (t *Transfer) ContractBalance(env *xenv.Environment, id dusk.ContractID) (uint64, error) {
	charger := gascharger.New(env)
	return t.ledger(charger.Charge).contractBalance(id)
}

// ExistingNullifiers returns the subset of the given nullifiers that are
// already spent.
func (t *Transfer) ExistingNullifiers(env *xenv.Environment, nullifiers []dusk.Bytes32) ([]dusk.Bytes32, error) {
	charger := gascharger.New(env)
	led := t.ledger(charger.Charge)

	var spent []dusk.Bytes32
	for _, n := range nullifiers {
		exists, err := led.nullifierSpent(n)
		if err != nil {
			return nil, err
		}
		if exists {
			spent = append(spent, n)
		}
	}
	return spent, nil
}
