// Copyright (c) 2025 The dusk-go developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package transfer

import (
	"math/rand"
	"testing"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-network/dusk-go/dusk"
	"github.com/dusk-network/dusk-go/genesis/reverts"
	"github.com/dusk-network/dusk-go/lvldb"
	"github.com/dusk-network/dusk-go/state"
	"github.com/dusk-network/dusk-go/xenv"
)

// okVerifier accepts or rejects everything, per flag.
type okVerifier struct {
	proofOK bool
	sigOK   bool
}

func (v okVerifier) VerifyPhoenixProof([]byte, [][]byte) bool { return v.proofOK }
func (v okVerifier) VerifyAccountSignature(dusk.AccountKey, dusk.Bytes32, []byte) bool {
	return v.sigOK
}

type handlerKey struct {
	target dusk.ContractID
	fn     string
}

// testInvoker routes inter-contract calls the way the host dispatcher does:
// push a frame, run the handler, recover vm faults into errors.
type testInvoker struct {
	handlers map[handlerKey]func(env *xenv.Environment, args []byte) ([]byte, error)
}

func (ti *testInvoker) handle(target dusk.ContractID, fn string, h func(env *xenv.Environment, args []byte) ([]byte, error)) {
	if ti.handlers == nil {
		ti.handlers = make(map[handlerKey]func(env *xenv.Environment, args []byte) ([]byte, error))
	}
	ti.handlers[handlerKey{target, fn}] = h
}

func (ti *testInvoker) Invoke(env *xenv.Environment, target dusk.ContractID, fn string, args []byte) (out []byte, err error) {
	h, ok := ti.handlers[handlerKey{target, fn}]
	if !ok {
		return nil, reverts.Newf(reverts.KindInvalidPayload, "unknown entry %s", fn)
	}

	env.PushFrame(xenv.Frame{Caller: env.Callee(), Callee: target})
	defer env.PopFrame()
	defer func() {
		if r := recover(); r != nil {
			if cause, vm := xenv.AsVMError(r); vm {
				err = cause
				return
			}
			panic(r)
		}
	}()
	return h(env, args)
}

func newTestTransfer(t *testing.T) (*Transfer, *state.State, *testInvoker) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	st := state.New(db)
	tr, err := New(st, okVerifier{proofOK: true, sigOK: true})
	require.NoError(t, err)

	inv := &testInvoker{}
	inv.handle(tr.Address(), "deposit", func(env *xenv.Environment, args []byte) ([]byte, error) {
		var value uint64
		require.NoError(t, decodeArg(args, &value))
		return nil, tr.Deposit(env, value)
	})
	inv.handle(tr.Address(), "convert", func(env *xenv.Environment, args []byte) ([]byte, error) {
		var wd Withdraw
		require.NoError(t, decodeArg(args, &wd))
		return nil, tr.Convert(env, &wd)
	})
	return tr, st, inv
}

func decodeArg(data []byte, v any) error {
	return rlp.DecodeBytes(data, v)
}

func newEnv(st *state.State, tr *Transfer, height, gasLimit, gasPrice uint64) *xenv.Environment {
	env := xenv.New(st,
		&xenv.BlockContext{Number: height},
		&xenv.TransactionContext{GasLimit: gasLimit, GasPrice: gasPrice},
	)
	// the host enters the transfer contract before the spend phase
	env.PushFrame(xenv.Frame{Callee: tr.Address()})
	return env
}

func accountKey(b byte) dusk.AccountKey {
	var k dusk.AccountKey
	k[0] = b
	return k
}

func seedAccount(t *testing.T, tr *Transfer, key dusk.AccountKey, balance uint64) {
	require.NoError(t, tr.ledger(nil).creditAccount(key, balance))
}

func moonlightTx(sender dusk.AccountKey, nonce, value uint64, receiver *dusk.AccountKey) *Transaction {
	return &Transaction{Moonlight: &MoonlightPayload{
		ChainID:   dusk.ChainID,
		Sender:    sender,
		Receiver:  receiver,
		Value:     value,
		Fee:       Fee{GasLimit: 100_000, GasPrice: 1},
		Nonce:     nonce,
		Signature: []byte{0x01},
	}}
}

func TestMoonlightTransfer(t *testing.T) {
	tr, st, inv := newTestTransfer(t)

	alice, bob := accountKey(0xaa), accountKey(0xbb)
	seedAccount(t, tr, alice, 1_000_000)

	env := newEnv(st, tr, 1, 100_000, 1)
	env.SetInvoker(inv)

	tx := moonlightTx(alice, 1, 250_000, &bob)
	require.NoError(t, tr.SpendAndExecute(env, tx))

	receipt, err := tr.Refund(env, 40_000)
	require.NoError(t, err)
	assert.Equal(t, StatusFinalized, receipt.Status)
	assert.Equal(t, uint64(40_000), receipt.GasSpent)

	accA, err := tr.AccountData(env, alice)
	require.NoError(t, err)
	accB, err := tr.AccountData(env, bob)
	require.NoError(t, err)

	// 1_000_000 - 250_000 - 40_000 gas
	assert.Equal(t, uint64(710_000), accA.Balance)
	assert.Equal(t, uint64(1), accA.Nonce)
	assert.Equal(t, uint64(250_000), accB.Balance)
	assert.Equal(t, uint64(0), accB.Nonce)
}

func TestMoonlightNonceStrict(t *testing.T) {
	tr, st, inv := newTestTransfer(t)

	alice := accountKey(0xaa)
	seedAccount(t, tr, alice, 1_000_000)

	env := newEnv(st, tr, 1, 100_000, 1)
	env.SetInvoker(inv)

	// nonce 2 when the account is at 0
	err := tr.SpendAndExecute(env, moonlightTx(alice, 2, 10, nil))
	assert.Equal(t, reverts.KindNonceMismatch, reverts.KindOf(err))

	require.NoError(t, tr.SpendAndExecute(env, moonlightTx(alice, 1, 0, nil)))
	_, err = tr.Refund(env, 0)
	require.NoError(t, err)

	// replaying the same nonce must fail
	env2 := newEnv(st, tr, 2, 100_000, 1)
	env2.SetInvoker(inv)
	err = tr.SpendAndExecute(env2, moonlightTx(alice, 1, 0, nil))
	assert.Equal(t, reverts.KindNonceMismatch, reverts.KindOf(err))

	acc, err := tr.AccountData(env2, alice)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), acc.Nonce, "rejected transactions do not advance the nonce")
}

func TestMoonlightInsufficientBalance(t *testing.T) {
	tr, st, inv := newTestTransfer(t)

	alice := accountKey(0xaa)
	seedAccount(t, tr, alice, 50_000)

	env := newEnv(st, tr, 1, 100_000, 1)
	env.SetInvoker(inv)

	// value fits but value+gas does not
	err := tr.SpendAndExecute(env, moonlightTx(alice, 1, 10_000, nil))
	assert.Equal(t, reverts.KindInsufficientBalance, reverts.KindOf(err))

	acc, err := tr.AccountData(env, alice)
	require.NoError(t, err)
	assert.Equal(t, uint64(50_000), acc.Balance, "rejection mutates nothing")
	assert.Equal(t, uint64(0), acc.Nonce)
}

func TestMoonlightInvalidSignature(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	st := state.New(db)
	tr, err := New(st, okVerifier{proofOK: true, sigOK: false})
	require.NoError(t, err)

	alice := accountKey(0xaa)
	seedAccount(t, tr, alice, 1_000_000)

	env := newEnv(st, tr, 1, 100_000, 1)
	err = tr.SpendAndExecute(env, moonlightTx(alice, 1, 10, nil))
	assert.Equal(t, reverts.KindInvalidSignature, reverts.KindOf(err))
}

func TestMoonlightConservation(t *testing.T) {
	tr, st, inv := newTestTransfer(t)

	rng := rand.New(rand.NewSource(42))

	const seedBalance = uint64(10_000_000)
	keys := make([]dusk.AccountKey, 8)
	var supply uint64
	for i := range keys {
		keys[i] = accountKey(byte(0x10 + i))
		seedAccount(t, tr, keys[i], seedBalance)
		supply += seedBalance
	}

	nonces := make(map[dusk.AccountKey]uint64)
	var burned uint64
	for i := 0; i < 200; i++ {
		from := keys[rng.Intn(len(keys))]
		to := keys[rng.Intn(len(keys))]
		value := uint64(rng.Intn(50_000))
		gasPrice := uint64(1 + rng.Intn(3))

		env := newEnv(st, tr, uint64(i+1), 100_000, gasPrice)
		env.SetInvoker(inv)

		tx := moonlightTx(from, nonces[from]+1, value, &to)
		tx.Moonlight.Fee.GasPrice = gasPrice
		if err := tr.SpendAndExecute(env, tx); err != nil {
			// a rejection must leave the ledger untouched
			require.True(t, reverts.IsRevert(err))
			continue
		}
		nonces[from]++

		gasSpent := uint64(20_000 + rng.Intn(80_001))
		receipt, err := tr.Refund(env, gasSpent)
		require.NoError(t, err)
		require.Equal(t, StatusFinalized, receipt.Status, receipt.Err)
		burned += gasSpent * gasPrice
	}

	env := newEnv(st, tr, 999, 1_000_000, 1)
	var total uint64
	for _, k := range keys {
		acc, err := tr.AccountData(env, k)
		require.NoError(t, err)
		total += acc.Balance
	}
	assert.Equal(t, supply, total+burned, "balances plus burned gas must equal the seeded supply")
}

// nullifierOf derives a deterministic test nullifier from a seed, the same
// keccak derivation wallets use.
func nullifierOf(seed string) dusk.Bytes32 {
	return dusk.Keccak256([]byte(seed))
}

func phoenixTx(tr *Transfer, nullifiers []dusk.Bytes32, outputs []*Note) *Transaction {
	return &Transaction{Phoenix: &PhoenixPayload{
		ChainID:    dusk.ChainID,
		Root:       tr.Root(),
		Nullifiers: nullifiers,
		Outputs:    outputs,
		Fee:        Fee{GasLimit: 100_000, GasPrice: 1, RefundAddr: dusk.StealthAddress{0x0f}},
		Proof:      []byte{0x01},
	}}
}

func TestPhoenixSpend(t *testing.T) {
	tr, st, inv := newTestTransfer(t)

	env := newEnv(st, tr, 1, 100_000, 1)
	env.SetInvoker(inv)

	n1 := nullifierOf("n1")
	out := NewTransparentNote(dusk.StealthAddress{0x01}, 500, dusk.Keccak256([]byte("out-nonce")))

	tx := phoenixTx(tr, []dusk.Bytes32{n1}, []*Note{out})
	require.NoError(t, tr.SpendAndExecute(env, tx))

	receipt, err := tr.Refund(env, 40_000)
	require.NoError(t, err)
	assert.Equal(t, StatusFinalized, receipt.Status)

	// output note plus the refund note for the 60_000 unspent gas
	assert.Equal(t, uint64(2), tr.NumNotes())

	spent, err := tr.ExistingNullifiers(env, []dusk.Bytes32{n1, nullifierOf("other")})
	require.NoError(t, err)
	assert.Equal(t, []dusk.Bytes32{n1}, spent)

	opening, ok := tr.OpeningAt(0)
	require.True(t, ok)
	assert.True(t, opening.Verify(tr.Root()))
}

func TestPhoenixDoubleSpend(t *testing.T) {
	tr, st, inv := newTestTransfer(t)

	env := newEnv(st, tr, 1, 100_000, 1)
	env.SetInvoker(inv)

	n1 := nullifierOf("n1")
	require.NoError(t, tr.SpendAndExecute(env, phoenixTx(tr, []dusk.Bytes32{n1}, nil)))
	_, err := tr.Refund(env, 1_000)
	require.NoError(t, err)
	tr.RetainRoot()

	// same nullifier again
	env2 := newEnv(st, tr, 2, 100_000, 1)
	env2.SetInvoker(inv)
	err = tr.SpendAndExecute(env2, phoenixTx(tr, []dusk.Bytes32{n1}, nil))
	assert.Equal(t, reverts.KindNullifierSpent, reverts.KindOf(err))

	// duplicated within a single transaction
	n2 := nullifierOf("n2")
	err = tr.SpendAndExecute(env2, phoenixTx(tr, []dusk.Bytes32{n2, n2}, nil))
	assert.Equal(t, reverts.KindNullifierSpent, reverts.KindOf(err))
}

func TestPhoenixStaleRoot(t *testing.T) {
	tr, st, inv := newTestTransfer(t)

	env := newEnv(st, tr, 1, 100_000, 1)
	env.SetInvoker(inv)

	tx := phoenixTx(tr, []dusk.Bytes32{{0x01}}, nil)
	tx.Phoenix.Root = dusk.BytesToBytes32([]byte("never-a-root"))
	err := tr.SpendAndExecute(env, tx)
	assert.Equal(t, reverts.KindStaleRoot, reverts.KindOf(err))
}

func TestPhoenixInvalidProof(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	st := state.New(db)
	tr, err := New(st, okVerifier{proofOK: false, sigOK: true})
	require.NoError(t, err)

	env := newEnv(st, tr, 1, 100_000, 1)
	err = tr.SpendAndExecute(env, phoenixTx(tr, []dusk.Bytes32{{0x01}}, nil))
	assert.Equal(t, reverts.KindInvalidProof, reverts.KindOf(err))
	assert.Equal(t, uint64(0), tr.NumNotes())
}

func TestErroredExecutionForfeitsGas(t *testing.T) {
	tr, st, inv := newTestTransfer(t)

	target := dusk.BytesToContractID([]byte{0x77})
	inv.handle(target, "boom", func(env *xenv.Environment, args []byte) ([]byte, error) {
		// pick up the deposit, then fail; the pickup must unwind
		if _, err := env.Invoke(tr.Address(), "deposit", mustEncode(uint64(800))); err != nil {
			return nil, err
		}
		return nil, reverts.New(reverts.KindInvalidPayload, "boom")
	})

	alice := accountKey(0xaa)
	seedAccount(t, tr, alice, 1_000_000)

	env := newEnv(st, tr, 1, 100_000, 1)
	env.SetInvoker(inv)

	tx := moonlightTx(alice, 1, 0, nil)
	tx.Moonlight.Deposit = 800
	tx.Moonlight.Call = &ContractCall{Contract: target, Fn: "boom"}
	require.NoError(t, tr.SpendAndExecute(env, tx))

	receipt, err := tr.Refund(env, 40_000)
	require.NoError(t, err)
	assert.Equal(t, StatusErrored, receipt.Status)
	assert.NotEmpty(t, receipt.Err)

	// gas is forfeited, the deposit is not: 1_000_000 - 40_000
	acc, err := tr.AccountData(env, alice)
	require.NoError(t, err)
	assert.Equal(t, uint64(960_000), acc.Balance)
	assert.Equal(t, uint64(1), acc.Nonce, "errored transactions still advance the nonce")

	bal, err := tr.ContractBalance(env, target)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), bal, "the rolled back pickup leaves no balance")
}

func TestErroredNoteWritesUnwindCleanly(t *testing.T) {
	tr, st, inv := newTestTransfer(t)

	target := dusk.BytesToContractID([]byte{0x77})
	require.NoError(t, tr.ledger(nil).creditContract(target, 10_000))

	inv.handle(tr.Address(), "withdraw", func(env *xenv.Environment, args []byte) ([]byte, error) {
		var wd Withdraw
		require.NoError(t, decodeArg(args, &wd))
		return nil, tr.Withdraw(env, &wd)
	})
	inv.handle(target, "payout", func(env *xenv.Environment, args []byte) ([]byte, error) {
		// two note-creating withdrawals, then a failure unwinding both
		for i := byte(1); i <= 2; i++ {
			wd := &Withdraw{
				Contract: target,
				Value:    1_000,
				Receiver: WithdrawReceiver{Note: &NoteReceiver{Owner: dusk.StealthAddress{0x0b}, Nonce: dusk.Bytes32{i}}},
			}
			if _, err := env.Invoke(tr.Address(), "withdraw", mustEncode(wd)); err != nil {
				return nil, err
			}
		}
		return nil, reverts.New(reverts.KindInvalidPayload, "payout failed")
	})

	env := newEnv(st, tr, 1, 1_000_000, 1)
	env.SetInvoker(inv)

	tx := phoenixTx(tr, []dusk.Bytes32{nullifierOf("n1")}, nil)
	tx.Phoenix.Fee.GasLimit = 1_000_000
	tx.Phoenix.Call = &ContractCall{Contract: target, Fn: "payout"}
	require.NoError(t, tr.SpendAndExecute(env, tx))

	receipt, err := tr.Refund(env, 40_000)
	require.NoError(t, err)
	assert.Equal(t, StatusErrored, receipt.Status)

	// only the refund note survives the unwound payout
	assert.Equal(t, uint64(1), tr.NumNotes())
	count, err := tr.ledger(nil).noteCount.Get()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)

	bal, err := tr.ContractBalance(env, target)
	require.NoError(t, err)
	assert.Equal(t, uint64(10_000), bal, "the unwound withdrawals leave the balance intact")
}

func TestDepositPickup(t *testing.T) {
	tr, st, inv := newTestTransfer(t)

	target := dusk.BytesToContractID([]byte{0x77})
	pickup := uint64(800)
	inv.handle(target, "take", func(env *xenv.Environment, args []byte) ([]byte, error) {
		_, err := env.Invoke(tr.Address(), "deposit", mustEncode(pickup))
		return nil, err
	})

	alice := accountKey(0xaa)
	seedAccount(t, tr, alice, 1_000_000)

	// requesting more than declared is a mismatch; the transaction errors
	pickup = 900
	env := newEnv(st, tr, 1, 100_000, 1)
	env.SetInvoker(inv)
	tx := moonlightTx(alice, 1, 0, nil)
	tx.Moonlight.Deposit = 800
	tx.Moonlight.Call = &ContractCall{Contract: target, Fn: "take"}
	require.NoError(t, tr.SpendAndExecute(env, tx))
	receipt, err := tr.Refund(env, 10_000)
	require.NoError(t, err)
	assert.Equal(t, StatusErrored, receipt.Status)

	acc, err := tr.AccountData(env, alice)
	require.NoError(t, err)
	assert.Equal(t, uint64(990_000), acc.Balance, "unclaimed deposit returns with the refund")

	// exact pickup succeeds
	pickup = 800
	env2 := newEnv(st, tr, 2, 100_000, 1)
	env2.SetInvoker(inv)
	tx2 := moonlightTx(alice, 2, 0, nil)
	tx2.Moonlight.Deposit = 800
	tx2.Moonlight.Call = &ContractCall{Contract: target, Fn: "take"}
	require.NoError(t, tr.SpendAndExecute(env2, tx2))
	receipt, err = tr.Refund(env2, 10_000)
	require.NoError(t, err)
	assert.Equal(t, StatusFinalized, receipt.Status)

	bal, err := tr.ContractBalance(env2, target)
	require.NoError(t, err)
	assert.Equal(t, pickup, bal)
}

func TestConvertMoonlightToPhoenix(t *testing.T) {
	tr, st, inv := newTestTransfer(t)

	alice := accountKey(0xaa)
	seedAccount(t, tr, alice, 1_000_000)

	env := newEnv(st, tr, 1, 100_000, 1)
	env.SetInvoker(inv)

	wd := Withdraw{
		Contract: tr.Address(),
		Value:    5_000,
		Receiver: WithdrawReceiver{Note: &NoteReceiver{Owner: dusk.StealthAddress{0x01}, Nonce: dusk.Bytes32{0x02}}},
	}
	tx := moonlightTx(alice, 1, 0, nil)
	tx.Moonlight.Deposit = 5_000
	tx.Moonlight.Call = &ContractCall{Contract: tr.Address(), Fn: "convert", Args: mustEncode(&wd)}

	require.NoError(t, tr.SpendAndExecute(env, tx))
	receipt, err := tr.Refund(env, 10_000)
	require.NoError(t, err)
	require.Equal(t, StatusFinalized, receipt.Status)

	assert.Equal(t, uint64(1), tr.NumNotes(), "conversion lands in a fresh note")

	acc, err := tr.AccountData(env, alice)
	require.NoError(t, err)
	assert.Equal(t, uint64(985_000), acc.Balance)
}

func TestConvertRequiresModelSwitch(t *testing.T) {
	tr, st, inv := newTestTransfer(t)

	alice := accountKey(0xaa)
	seedAccount(t, tr, alice, 1_000_000)

	env := newEnv(st, tr, 1, 100_000, 1)
	env.SetInvoker(inv)

	// moonlight funds converting to an account is not a conversion
	wd := Withdraw{
		Contract: tr.Address(),
		Value:    5_000,
		Receiver: WithdrawReceiver{Account: &alice},
	}
	tx := moonlightTx(alice, 1, 0, nil)
	tx.Moonlight.Deposit = 5_000
	tx.Moonlight.Call = &ContractCall{Contract: tr.Address(), Fn: "convert", Args: mustEncode(&wd)}

	require.NoError(t, tr.SpendAndExecute(env, tx))
	receipt, err := tr.Refund(env, 10_000)
	require.NoError(t, err)
	assert.Equal(t, StatusErrored, receipt.Status)
}

func TestWithdrawAuthorization(t *testing.T) {
	tr, st, _ := newTestTransfer(t)

	owner := dusk.BytesToContractID([]byte{0x55})
	other := dusk.BytesToContractID([]byte{0x66})
	require.NoError(t, tr.ledger(nil).creditContract(owner, 10_000))

	bob := accountKey(0xbb)
	wd := &Withdraw{Contract: owner, Value: 4_000, Receiver: WithdrawReceiver{Account: &bob}}

	env := xenv.New(st, &xenv.BlockContext{Number: 1}, &xenv.TransactionContext{GasLimit: 1_000_000, GasPrice: 1})

	// another contract may not drain the owner
	env.PushFrame(xenv.Frame{Caller: other, Callee: tr.Address()})
	err := tr.Withdraw(env, wd)
	assert.Equal(t, reverts.KindUnauthorized, reverts.KindOf(err))
	env.PopFrame()

	env.PushFrame(xenv.Frame{Caller: owner, Callee: tr.Address()})
	require.NoError(t, tr.Withdraw(env, wd))
	env.PopFrame()

	bal, err := tr.ContractBalance(env, owner)
	require.NoError(t, err)
	assert.Equal(t, uint64(6_000), bal)

	acc, err := tr.AccountData(env, bob)
	require.NoError(t, err)
	assert.Equal(t, uint64(4_000), acc.Balance)
}

func TestWithdrawOverContractBalance(t *testing.T) {
	tr, st, inv := newTestTransfer(t)

	target := dusk.BytesToContractID([]byte{0x77})
	inv.handle(target, "take", func(env *xenv.Environment, args []byte) ([]byte, error) {
		var value uint64
		require.NoError(t, decodeArg(args, &value))
		_, err := env.Invoke(tr.Address(), "deposit", mustEncode(value))
		return nil, err
	})

	alice := accountKey(0xaa)
	seedAccount(t, tr, alice, 1_000_000)

	// two deposits accumulate on the target contract
	for i, value := range []uint64{500, 300} {
		env := newEnv(st, tr, uint64(i+1), 100_000, 1)
		env.SetInvoker(inv)
		tx := moonlightTx(alice, uint64(i+1), 0, nil)
		tx.Moonlight.Deposit = value
		tx.Moonlight.Call = &ContractCall{Contract: target, Fn: "take", Args: mustEncode(value)}
		require.NoError(t, tr.SpendAndExecute(env, tx))
		receipt, err := tr.Refund(env, 10_000)
		require.NoError(t, err)
		require.Equal(t, StatusFinalized, receipt.Status, receipt.Err)
	}

	env := xenv.New(st, &xenv.BlockContext{Number: 3}, &xenv.TransactionContext{GasLimit: 1_000_000, GasPrice: 1})
	env.PushFrame(xenv.Frame{Caller: target, Callee: tr.Address()})

	bal, err := tr.ContractBalance(env, target)
	require.NoError(t, err)
	require.Equal(t, uint64(800), bal)

	// withdrawing more than the contract holds is rejected
	bob := accountKey(0xbb)
	err = tr.Withdraw(env, &Withdraw{Contract: target, Value: 900, Receiver: WithdrawReceiver{Account: &bob}})
	assert.Equal(t, reverts.KindInsufficientBalance, reverts.KindOf(err))

	bal, err = tr.ContractBalance(env, target)
	require.NoError(t, err)
	assert.Equal(t, uint64(800), bal, "a rejected withdrawal mutates nothing")

	acc, err := tr.AccountData(env, bob)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), acc.Balance)
}

func TestContractToContract(t *testing.T) {
	tr, st, inv := newTestTransfer(t)

	src := dusk.BytesToContractID([]byte{0x55})
	dst := dusk.BytesToContractID([]byte{0x66})
	require.NoError(t, tr.ledger(nil).creditContract(src, 10_000))

	var received *ReceiveFromContract
	inv.handle(dst, "recv", func(env *xenv.Environment, args []byte) ([]byte, error) {
		var r ReceiveFromContract
		require.NoError(t, decodeArg(args, &r))
		received = &r
		return nil, nil
	})

	env := xenv.New(st, &xenv.BlockContext{Number: 1}, &xenv.TransactionContext{GasLimit: 1_000_000, GasPrice: 1})
	env.SetInvoker(inv)
	env.PushFrame(xenv.Frame{Caller: src, Callee: tr.Address()})

	require.NoError(t, tr.ContractToContract(env, &ContractTransfer{
		Contract: dst, Value: 3_000, Fn: "recv", Data: []byte("hello"),
	}))

	require.NotNil(t, received)
	assert.Equal(t, src, received.Contract)
	assert.Equal(t, uint64(3_000), received.Value)
	assert.Equal(t, []byte("hello"), received.Data)

	srcBal, err := tr.ContractBalance(env, src)
	require.NoError(t, err)
	dstBal, err := tr.ContractBalance(env, dst)
	require.NoError(t, err)
	assert.Equal(t, uint64(7_000), srcBal)
	assert.Equal(t, uint64(3_000), dstBal)
}

func TestRejectionLeavesNoTrace(t *testing.T) {
	tr, st, inv := newTestTransfer(t)

	env := newEnv(st, tr, 1, 100_000, 1)
	env.SetInvoker(inv)

	root := tr.Root()
	err := tr.SpendAndExecute(env, &Transaction{})
	assert.Equal(t, reverts.KindInvalidPayload, reverts.KindOf(err))
	assert.Equal(t, root, tr.Root())
	assert.Empty(t, env.Events())
	assert.Nil(t, tr.cur)

	_, err = tr.Refund(env, 0)
	assert.Error(t, err, "nothing in flight to refund")
}
