// Copyright (c) 2025 The dusk-go developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package xenv provides the execution environment of genesis contract calls.
package xenv

import (
	"errors"

	"github.com/dusk-network/dusk-go/dusk"
	"github.com/dusk-network/dusk-go/state"
)

// ErrOutOfGas is raised when gas is exhausted; the transaction transitions
// to its errored terminal state.
var ErrOutOfGas = errors.New("out of gas")

// BlockContext block context. Heights and epochs are the only time
// references available to contract code.
type BlockContext struct {
	Number uint64
}

// TransactionContext transaction context.
type TransactionContext struct {
	ID       dusk.Bytes32
	GasLimit uint64
	GasPrice uint64
}

// Event is an event emitted by a contract during execution.
type Event struct {
	Origin dusk.ContractID
	Topic  string
	Data   []byte
}

// Frame is one level of the call stack. A zero Caller denotes the protocol
// host, which is not a contract.
type Frame struct {
	Caller dusk.ContractID
	Callee dusk.ContractID
}

// Invoker dispatches an inter-contract call to the target contract,
// applying the entry-point policy table.
type Invoker interface {
	Invoke(env *Environment, target dusk.ContractID, fn string, args []byte) ([]byte, error)
}

type vmError struct {
	cause error
}

// Environment an env to execute a genesis contract entry point.
type Environment struct {
	state    *state.State
	blockCtx *BlockContext
	txCtx    *TransactionContext
	invoker  Invoker

	frames  []Frame
	gasLeft uint64
	events  []Event
}

// New create a new env. Gas available is taken from the transaction context.
func New(st *state.State, blockCtx *BlockContext, txCtx *TransactionContext) *Environment {
	return &Environment{
		state:    st,
		blockCtx: blockCtx,
		txCtx:    txCtx,
		gasLeft:  txCtx.GasLimit,
	}
}

func (env *Environment) State() *state.State                     { return env.state }
func (env *Environment) BlockContext() *BlockContext             { return env.blockCtx }
func (env *Environment) TransactionContext() *TransactionContext { return env.txCtx }

// SetInvoker wires the dispatcher used for inter-contract calls.
func (env *Environment) SetInvoker(invoker Invoker) { env.invoker = invoker }

// PushFrame enters a call frame.
func (env *Environment) PushFrame(frame Frame) {
	env.frames = append(env.frames, frame)
}

// PopFrame leaves the top call frame.
func (env *Environment) PopFrame() {
	env.frames = env.frames[:len(env.frames)-1]
}

// Caller returns the caller of the current frame. The zero contract id
// denotes the protocol host.
func (env *Environment) Caller() dusk.ContractID {
	if len(env.frames) == 0 {
		return dusk.ContractID{}
	}
	return env.frames[len(env.frames)-1].Caller
}

// Callee returns the contract the current frame executes in.
func (env *Environment) Callee() dusk.ContractID {
	if len(env.frames) == 0 {
		return dusk.ContractID{}
	}
	return env.frames[len(env.frames)-1].Callee
}

// CallDepth returns the current call stack depth.
func (env *Environment) CallDepth() int {
	return len(env.frames)
}

// IsRootICC reports whether the current frame is a root inter-contract
// call: a call into a contract whose parent frame was entered directly by
// the protocol host.
func (env *Environment) IsRootICC() bool {
	return len(env.frames) == 2
}

// Invoke performs an inter-contract call to the target contract.
func (env *Environment) Invoke(target dusk.ContractID, fn string, args []byte) ([]byte, error) {
	return env.invoker.Invoke(env, target, fn, args)
}

// UseGas consumes gas, raising an out-of-gas fault when exhausted.
func (env *Environment) UseGas(gas uint64) {
	if gas > env.gasLeft {
		env.gasLeft = 0
		panic(&vmError{ErrOutOfGas})
	}
	env.gasLeft -= gas
}

// GasLeft returns the remaining gas.
func (env *Environment) GasLeft() uint64 {
	return env.gasLeft
}

// GasUsed returns the gas consumed so far.
func (env *Environment) GasUsed() uint64 {
	return env.txCtx.GasLimit - env.gasLeft
}

// Stop raises a vm fault carried to the dispatch boundary.
func (env *Environment) Stop(err error) {
	panic(&vmError{err})
}

// EmitEvent records an event originated by the current contract. Emission
// itself is not metered; metered entry points charge log gas through their
// gas charger before emitting.
func (env *Environment) EmitEvent(topic string, data []byte) {
	env.events = append(env.events, Event{
		Origin: env.Callee(),
		Topic:  topic,
		Data:   data,
	})
}

// Events returns all events emitted so far.
func (env *Environment) Events() []Event {
	return env.events
}

// EventCount returns the number of events emitted so far, to be used with
// TruncateEvents when reverting an inner call.
func (env *Environment) EventCount() int {
	return len(env.events)
}

// TruncateEvents drops events emitted after the given count.
func (env *Environment) TruncateEvents(n int) {
	env.events = env.events[:n]
}

// AsVMError extracts the cause from a recovered vm fault panic.
// Fatal faults (state errors) and foreign panics are not vm faults and must
// be re-raised by callers.
func AsVMError(recovered any) (error, bool) {
	if ve, ok := recovered.(*vmError); ok {
		return ve.cause, true
	}
	return nil, false
}
