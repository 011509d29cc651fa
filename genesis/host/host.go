// Copyright (c) 2025 The dusk-go developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package host wires the genesis contracts to the protocol. The dispatcher
// is the single entry point for every call, host-originated or
// inter-contract, and the single place caller policies are enforced.
package host

import (
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/dusk-network/dusk-go/dusk"
	"github.com/dusk-network/dusk-go/genesis/reverts"
	"github.com/dusk-network/dusk-go/genesis/stake"
	"github.com/dusk-network/dusk-go/genesis/transfer"
	"github.com/dusk-network/dusk-go/log"
	"github.com/dusk-network/dusk-go/state"
	"github.com/dusk-network/dusk-go/xenv"
)

var logger = log.WithContext("pkg", "host")

// Range bounds a streaming query. A zero Limit means no bound.
type Range struct {
	From  uint64
	Limit uint64
}

// HeightRange bounds a height-filtered streaming query.
type HeightRange struct {
	Height uint64
	Limit  uint64
}

// StakeResult wraps an optional stake entry for the wire.
type StakeResult struct {
	Entry *stake.Entry `rlp:"nil"`
}

type runFunc func(d *Dispatcher, env *xenv.Environment, args []byte) ([]byte, error)

type opDef struct {
	op   Op
	rule Rule
	run  runFunc
}

// Dispatcher routes calls to the genesis contracts by target and entry point
// name. It implements xenv.Invoker, so inter-contract calls go through the
// same table, and the same policies, as host calls.
type Dispatcher struct {
	state    *state.State
	transfer *transfer.Transfer
	stake    *stake.Staker
	ops      map[dusk.ContractID]map[string]*opDef
}

// New builds the dispatch table. It panics on a malformed table, which is a
// programming error caught by the table test.
func New(st *state.State, tr *transfer.Transfer, sk *stake.Staker) *Dispatcher {
	d := &Dispatcher{
		state:    st,
		transfer: tr,
		stake:    sk,
		ops:      make(map[dusk.ContractID]map[string]*opDef),
	}
	d.registerTransferOps()
	d.registerStakeOps()
	return d
}

func (d *Dispatcher) register(target dusk.ContractID, op Op, run runFunc) {
	name, ok := opNames[op]
	if !ok {
		panic(fmt.Sprintf("host: op %d has no name", op))
	}
	byName := d.ops[target]
	if byName == nil {
		byName = make(map[string]*opDef)
		d.ops[target] = byName
	}
	if _, dup := byName[name]; dup {
		panic(fmt.Sprintf("host: duplicate entry point %q on %v", name, target))
	}
	byName[name] = &opDef{op: op, rule: policies[op], run: run}
}

// Invoke implements xenv.Invoker. The caller policy is checked before the
// payload is even looked at; fatal state errors unwind as panics to the
// Dispatch boundary.
func (d *Dispatcher) Invoke(env *xenv.Environment, target dusk.ContractID, fn string, args []byte) (out []byte, err error) {
	byName := d.ops[target]
	if byName == nil {
		return nil, reverts.Newf(reverts.KindInvalidPayload, "unknown contract %v", target)
	}
	def := byName[fn]
	if def == nil {
		return nil, reverts.Newf(reverts.KindInvalidPayload, "unknown entry point %q", fn)
	}

	caller := env.Callee()
	if err := def.rule.check(def.op, caller); err != nil {
		return nil, err
	}

	env.PushFrame(xenv.Frame{Caller: caller, Callee: target})
	defer env.PopFrame()

	if def.rule.ForbidRootICC && env.IsRootICC() {
		return nil, reverts.Newf(reverts.KindUnauthorized, "%s may not be a root inter-contract call", def.op)
	}

	defer func() {
		if r := recover(); r != nil {
			if cause, vm := xenv.AsVMError(r); vm {
				err = cause
				return
			}
			panic(r)
		}
	}()

	out, err = def.run(d, env, args)
	if err != nil {
		var se *state.Error
		if errors.As(err, &se) {
			// a broken state store poisons the whole block
			panic(se)
		}
	}
	return out, err
}

// Dispatch is the host-facing entry point: like Invoke, but fatal state
// errors surface as errors for the block pipeline to abort on.
func (d *Dispatcher) Dispatch(env *xenv.Environment, target dusk.ContractID, fn string, args []byte) (out []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			if se, ok := r.(*state.Error); ok {
				logger.Error("fatal state error", "op", fn, "err", se)
				err = se
				return
			}
			panic(r)
		}
	}()
	return d.Invoke(env, target, fn, args)
}

// ExecuteTransaction drives one transaction through its whole lifecycle on
// the execution thread: spend, optional execution, then refund. The returned
// receipt is terminal. An error means the transaction was rejected, or, for
// a *state.Error, that the block must abort.
func (d *Dispatcher) ExecuteTransaction(blockCtx *xenv.BlockContext, tx *transfer.Transaction) (*transfer.Receipt, error) {
	fee := tx.Fee()
	env := xenv.New(d.state, blockCtx, &xenv.TransactionContext{
		ID:       tx.ID(),
		GasLimit: fee.GasLimit,
		GasPrice: fee.GasPrice,
	})
	env.SetInvoker(d)

	txData, err := rlp.EncodeToBytes(tx)
	if err != nil {
		return nil, errors.Wrap(err, "encode transaction")
	}
	if _, err := d.Dispatch(env, d.transfer.Address(), "spend_and_execute", txData); err != nil {
		return nil, err
	}

	gasSpent, err := rlp.EncodeToBytes(env.GasUsed())
	if err != nil {
		return nil, errors.Wrap(err, "encode gas spent")
	}
	out, err := d.Dispatch(env, d.transfer.Address(), "refund", gasSpent)
	if err != nil {
		return nil, err
	}

	var receipt transfer.Receipt
	if err := rlp.DecodeBytes(out, &receipt); err != nil {
		return nil, errors.Wrap(err, "decode receipt")
	}
	return &receipt, nil
}

// BeginBlock resets per-block contract state. Called once before the first
// transaction of every block.
func (d *Dispatcher) BeginBlock(blockCtx *xenv.BlockContext) error {
	env := xenv.New(d.state, blockCtx, &xenv.TransactionContext{})
	env.SetInvoker(d)
	_, err := d.Dispatch(env, d.stake.Address(), "before_state_transition", nil)
	return err
}

// SealBlock records the block's final note tree root into the anchor
// history. Called once after the last transaction of every block.
func (d *Dispatcher) SealBlock() {
	d.transfer.RetainRoot()
}

func decodeArgs[T any](args []byte) (*T, error) {
	var v T
	if err := rlp.DecodeBytes(args, &v); err != nil {
		return nil, reverts.Newf(reverts.KindInvalidPayload, "malformed arguments: %v", err)
	}
	return &v, nil
}

func encodeResult(v any) ([]byte, error) {
	out, err := rlp.EncodeToBytes(v)
	if err != nil {
		return nil, errors.Wrap(err, "encode result")
	}
	return out, nil
}
