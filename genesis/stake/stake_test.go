// Copyright (c) 2025 The dusk-go developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stake

import (
	"testing"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-network/dusk-go/dusk"
	"github.com/dusk-network/dusk-go/emission"
	"github.com/dusk-network/dusk-go/genesis/reverts"
	"github.com/dusk-network/dusk-go/genesis/transfer"
	"github.com/dusk-network/dusk-go/lvldb"
	"github.com/dusk-network/dusk-go/state"
	"github.com/dusk-network/dusk-go/xenv"
)

type okVerifier struct{ sigOK bool }

func (v okVerifier) VerifyPhoenixProof([]byte, [][]byte) bool { return true }
func (v okVerifier) VerifyAccountSignature(dusk.AccountKey, dusk.Bytes32, []byte) bool {
	return v.sigOK
}

type handlerKey struct {
	target dusk.ContractID
	fn     string
}

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

type fixture struct {
	st  *state.State
	tr  *transfer.Transfer
	sk  *Staker
	inv *testInvoker
}

const (
	testMinimum  = uint64(1_000)
	testWarnings = uint8(1)
)

func newFixture(t *testing.T, policy Policy, schedule *emission.Schedule) *fixture {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	st := state.New(db)
	tr, err := transfer.New(st, okVerifier{sigOK: true})
	require.NoError(t, err)
	if schedule == nil {
		schedule = emission.Default()
	}
	sk := New(st, okVerifier{sigOK: true}, schedule, policy)

	f := &fixture{st: st, tr: tr, sk: sk, inv: &testInvoker{}}

	f.inv.handle(tr.Address(), "deposit", func(env *xenv.Environment, args []byte) ([]byte, error) {
		var value uint64
		require.NoError(t, rlp.DecodeBytes(args, &value))
		return nil, tr.Deposit(env, value)
	})
	f.inv.handle(tr.Address(), "withdraw", func(env *xenv.Environment, args []byte) ([]byte, error) {
		var wd transfer.Withdraw
		require.NoError(t, rlp.DecodeBytes(args, &wd))
		return nil, tr.Withdraw(env, &wd)
	})
	f.inv.handle(tr.Address(), "mint", func(env *xenv.Environment, args []byte) ([]byte, error) {
		var wd transfer.Withdraw
		require.NoError(t, rlp.DecodeBytes(args, &wd))
		return nil, tr.Mint(env, &wd)
	})
	f.inv.handle(tr.Address(), "contract_to_contract", func(env *xenv.Environment, args []byte) ([]byte, error) {
		var ct transfer.ContractTransfer
		require.NoError(t, rlp.DecodeBytes(args, &ct))
		return nil, tr.ContractToContract(env, &ct)
	})
	f.inv.handle(tr.Address(), "sub_contract_balance", func(env *xenv.Environment, args []byte) ([]byte, error) {
		var sb transfer.SubBalance
		require.NoError(t, rlp.DecodeBytes(args, &sb))
		return nil, tr.SubContractBalance(env, &sb)
	})
	f.inv.handle(sk.Address(), "stake", func(env *xenv.Environment, args []byte) ([]byte, error) {
		var msg SignedStake
		require.NoError(t, rlp.DecodeBytes(args, &msg))
		return nil, sk.Stake(env, &msg)
	})
	f.inv.handle(sk.Address(), "stake_from_contract", func(env *xenv.Environment, args []byte) ([]byte, error) {
		var recv transfer.ReceiveFromContract
		require.NoError(t, rlp.DecodeBytes(args, &recv))
		return nil, sk.StakeFromContract(env, &recv)
	})

	// a low minimum keeps test values readable
	env := f.hostEnv(0)
	require.NoError(t, sk.SetConfig(env, &Config{MinimumStake: testMinimum, Warnings: testWarnings}))
	return f
}

// hostEnv enters the stake contract directly, as the protocol host does for
// reward, slash and lifecycle calls.
func (f *fixture) hostEnv(height uint64) *xenv.Environment {
	env := xenv.New(f.st,
		&xenv.BlockContext{Number: height},
		&xenv.TransactionContext{GasLimit: 10_000_000, GasPrice: 1},
	)
	env.SetInvoker(f.inv)
	env.PushFrame(xenv.Frame{Callee: f.sk.Address()})
	return env
}

func accountKey(b byte) dusk.AccountKey {
	var k dusk.AccountKey
	k[0] = b
	return k
}

// runStakeTx funds and runs a full staking transaction at the given height.
func (f *fixture) runStakeTx(t *testing.T, height uint64, funder dusk.AccountKey, nonce uint64, msg *SignedStake) *transfer.Receipt {
	env := xenv.New(f.st,
		&xenv.BlockContext{Number: height},
		&xenv.TransactionContext{GasLimit: 1_000_000, GasPrice: 1},
	)
	env.SetInvoker(f.inv)
	env.PushFrame(xenv.Frame{Callee: f.tr.Address()})

	tx := &transfer.Transaction{Moonlight: &transfer.MoonlightPayload{
		ChainID:   dusk.ChainID,
		Sender:    funder,
		Deposit:   msg.Value,
		Fee:       transfer.Fee{GasLimit: 1_000_000, GasPrice: 1},
		Nonce:     nonce,
		Call:      &transfer.ContractCall{Contract: f.sk.Address(), Fn: "stake", Args: mustEncode(msg)},
		Signature: []byte{0x01},
	}}
	require.NoError(t, f.tr.SpendAndExecute(env, tx))
	receipt, err := f.tr.Refund(env, 50_000)
	require.NoError(t, err)
	return receipt
}

func (f *fixture) seedFunder(t *testing.T, key dusk.AccountKey) {
	env := f.hostEnv(0)
	env.PopFrame()
	env.PushFrame(xenv.Frame{Caller: f.sk.Address(), Callee: f.tr.Address()})
	require.NoError(t, f.tr.Mint(env, &transfer.Withdraw{
		Contract: f.sk.Address(),
		Value:    100_000_000,
		Receiver: transfer.WithdrawReceiver{Account: &key},
	}))
}

func TestStakeMaturation(t *testing.T) {
	f := newFixture(t, Policy{}, nil)

	alice := accountKey(0xaa)
	provisioner := accountKey(0x01)
	f.seedFunder(t, alice)

	msg := &SignedStake{
		Keys:      Keys{Account: provisioner, Owner: Owner{Account: &alice}},
		Value:     5_000,
		Signature: []byte{0x01},
	}
	receipt := f.runStakeTx(t, 100, alice, 1, msg)
	require.Equal(t, transfer.StatusFinalized, receipt.Status, receipt.Err)

	env := f.hostEnv(100)
	entry, err := f.sk.GetStake(env, provisioner)
	require.NoError(t, err)
	require.NotNil(t, entry)
	require.True(t, entry.HasStake())
	assert.Equal(t, uint64(5_000), entry.Data.Amount.Value)

	// staked at height 100: active from the start of the epoch two whole
	// epochs later
	assert.Equal(t, uint64(4_320), entry.Data.Amount.Eligibility)

	// the principal sits in the stake contract's transfer balance
	bal, err := f.tr.ContractBalance(env, f.sk.Address())
	require.NoError(t, err)
	assert.Equal(t, uint64(5_000), bal)
}

func TestStakeRejections(t *testing.T) {
	f := newFixture(t, Policy{}, nil)

	alice := accountKey(0xaa)
	provisioner := accountKey(0x01)
	f.seedFunder(t, alice)

	// below the configured minimum: the transaction errors, funds refund
	low := &SignedStake{
		Keys:      Keys{Account: provisioner, Owner: Owner{Account: &alice}},
		Value:     testMinimum - 1,
		Signature: []byte{0x01},
	}
	receipt := f.runStakeTx(t, 10, alice, 1, low)
	assert.Equal(t, transfer.StatusErrored, receipt.Status)

	ok := &SignedStake{
		Keys:      Keys{Account: provisioner, Owner: Owner{Account: &alice}},
		Value:     5_000,
		Signature: []byte{0x01},
	}
	receipt = f.runStakeTx(t, 11, alice, 2, ok)
	require.Equal(t, transfer.StatusFinalized, receipt.Status, receipt.Err)

	// a second active stake on the same account is rejected
	receipt = f.runStakeTx(t, 12, alice, 3, ok)
	assert.Equal(t, transfer.StatusErrored, receipt.Status)

	env := f.hostEnv(12)
	bal, err := f.tr.ContractBalance(env, f.sk.Address())
	require.NoError(t, err)
	assert.Equal(t, uint64(5_000), bal, "failed attempts leave no funds behind")
}

func TestUnstakeBeforeMaturity(t *testing.T) {
	f := newFixture(t, Policy{}, nil)

	alice := accountKey(0xaa)
	provisioner := accountKey(0x01)
	f.seedFunder(t, alice)

	msg := &SignedStake{
		Keys:      Keys{Account: provisioner, Owner: Owner{Account: &alice}},
		Value:     5_000,
		Signature: []byte{0x01},
	}
	require.Equal(t, transfer.StatusFinalized, f.runStakeTx(t, 100, alice, 1, msg).Status)

	// height 200 is well before eligibility at 4320; unstaking still works
	env := f.hostEnv(200)
	env.PopFrame()
	env.PushFrame(xenv.Frame{Caller: f.tr.Address(), Callee: f.sk.Address()})

	bob := accountKey(0xbb)
	require.NoError(t, f.sk.Unstake(env, &SignedWithdrawal{
		Account:   provisioner,
		Receiver:  transfer.WithdrawReceiver{Account: &bob},
		Signature: []byte{0x01},
	}))

	entry, err := f.sk.GetStake(env, provisioner)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.False(t, entry.HasStake())

	acc, err := f.tr.AccountData(env, bob)
	require.NoError(t, err)
	assert.Equal(t, uint64(5_000), acc.Balance)

	bal, err := f.tr.ContractBalance(env, f.sk.Address())
	require.NoError(t, err)
	assert.Equal(t, uint64(0), bal)

	// nothing left to unstake
	err = f.sk.Unstake(env, &SignedWithdrawal{
		Account:   provisioner,
		Receiver:  transfer.WithdrawReceiver{Account: &bob},
		Signature: []byte{0x01},
	})
	assert.Equal(t, reverts.KindNoStake, reverts.KindOf(err))
}

func TestStakeFromContract(t *testing.T) {
	f := newFixture(t, Policy{}, nil)

	owner := dusk.BytesToContractID([]byte{0x77})
	provisioner := accountKey(0x02)

	// fund the owner contract
	env := f.hostEnv(50)
	env.PopFrame()
	env.PushFrame(xenv.Frame{Caller: f.sk.Address(), Callee: f.tr.Address()})
	require.NoError(t, f.tr.MintToContract(env, &transfer.MintToContract{Contract: owner, Value: 10_000}))
	env.PopFrame()

	// the owner contract moves funds into the stake contract
	keys := Keys{Account: provisioner, Owner: Owner{Contract: &owner}}
	env.PushFrame(xenv.Frame{Caller: owner, Callee: f.tr.Address()})
	require.NoError(t, f.tr.ContractToContract(env, &transfer.ContractTransfer{
		Contract: f.sk.Address(),
		Value:    5_000,
		Fn:       "stake_from_contract",
		Data:     mustEncode(&keys),
	}))

	entry, err := f.sk.GetStake(env, provisioner)
	require.NoError(t, err)
	require.NotNil(t, entry)
	require.True(t, entry.HasStake())
	assert.Equal(t, uint64(5_000), entry.Data.Amount.Value)
	assert.Equal(t, &owner, entry.Keys.Owner.Contract)

	// keys owned by a different contract than the sender are rejected
	other := dusk.BytesToContractID([]byte{0x78})
	badKeys := Keys{Account: accountKey(0x03), Owner: Owner{Contract: &other}}
	err = f.tr.ContractToContract(env, &transfer.ContractTransfer{
		Contract: f.sk.Address(),
		Value:    5_000,
		Fn:       "stake_from_contract",
		Data:     mustEncode(&badKeys),
	})
	assert.Equal(t, reverts.KindUnauthorized, reverts.KindOf(err))
}

func TestRewardBatch(t *testing.T) {
	f := newFixture(t, Policy{}, nil)

	p1, p2 := accountKey(0x01), accountKey(0x02)
	env := f.hostEnv(10)

	// a malformed item rejects the whole batch
	err := f.sk.ApplyRewards(env, []*Reward{
		{Account: p1, Value: 100},
		{Account: p2, Value: 0},
	})
	assert.Equal(t, reverts.KindMalformedBatch, reverts.KindOf(err))

	entry, err := f.sk.GetStake(env, p1)
	require.NoError(t, err)
	assert.Nil(t, entry, "a rejected batch applies nothing")

	require.NoError(t, f.sk.ApplyRewards(env, []*Reward{
		{Account: p1, Value: 100},
		{Account: p2, Value: 250},
	}))

	entry, err = f.sk.GetStake(env, p1)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, uint64(100), entry.Data.Reward)
	assert.False(t, entry.HasStake(), "rewards do not imply principal")

	// duplicates within one batch are malformed
	err = f.sk.ApplyRewards(env, []*Reward{
		{Account: p1, Value: 1},
		{Account: p1, Value: 2},
	})
	assert.Equal(t, reverts.KindMalformedBatch, reverts.KindOf(err))
}

func TestWithdrawReward(t *testing.T) {
	f := newFixture(t, Policy{}, nil)

	p1 := accountKey(0x01)
	env := f.hostEnv(10)
	require.NoError(t, f.sk.ApplyRewards(env, []*Reward{{Account: p1, Value: 700}}))

	bob := accountKey(0xbb)
	env.PopFrame()
	env.PushFrame(xenv.Frame{Caller: f.tr.Address(), Callee: f.sk.Address()})
	require.NoError(t, f.sk.WithdrawReward(env, &SignedWithdrawal{
		Account:   p1,
		Receiver:  transfer.WithdrawReceiver{Account: &bob},
		Signature: []byte{0x01},
	}))

	acc, err := f.tr.AccountData(env, bob)
	require.NoError(t, err)
	assert.Equal(t, uint64(700), acc.Balance)

	minted, err := f.sk.MintedAmount(env)
	require.NoError(t, err)
	assert.Equal(t, uint64(700), minted)

	// all-or-nothing: nothing remains
	err = f.sk.WithdrawReward(env, &SignedWithdrawal{
		Account:   p1,
		Receiver:  transfer.WithdrawReceiver{Account: &bob},
		Signature: []byte{0x01},
	})
	assert.Equal(t, reverts.KindNothingToWithdraw, reverts.KindOf(err))
}

func TestWithdrawRewardEmissionCap(t *testing.T) {
	tight, err := emission.New([]emission.Band{{From: 0, To: 1 << 40, Cap: 500}})
	require.NoError(t, err)
	f := newFixture(t, Policy{}, tight)

	p1 := accountKey(0x01)
	env := f.hostEnv(10)
	require.NoError(t, f.sk.ApplyRewards(env, []*Reward{{Account: p1, Value: 700}}))

	bob := accountKey(0xbb)
	env.PopFrame()
	env.PushFrame(xenv.Frame{Caller: f.tr.Address(), Callee: f.sk.Address()})
	err = f.sk.WithdrawReward(env, &SignedWithdrawal{
		Account:   p1,
		Receiver:  transfer.WithdrawReceiver{Account: &bob},
		Signature: []byte{0x01},
	})
	assert.Equal(t, reverts.KindEmissionExceeded, reverts.KindOf(err))
}

func TestSlash(t *testing.T) {
	f := newFixture(t, Policy{}, nil)

	alice := accountKey(0xaa)
	provisioner := accountKey(0x01)
	f.seedFunder(t, alice)
	msg := &SignedStake{
		Keys:      Keys{Account: provisioner, Owner: Owner{Account: &alice}},
		Value:     5_000,
		Signature: []byte{0x01},
	}
	require.Equal(t, transfer.StatusFinalized, f.runStakeTx(t, 100, alice, 1, msg).Status)

	env := f.hostEnv(100)
	require.NoError(t, f.sk.ApplyRewards(env, []*Reward{{Account: provisioner, Value: 1_000}}))

	entry, err := f.sk.GetStake(env, provisioner)
	require.NoError(t, err)
	initialEligibility := entry.Data.Amount.Eligibility

	// first fault: within the warnings allowance, no eligibility shift
	require.NoError(t, f.sk.Slash(env, &SlashPayload{Account: provisioner}))
	entry, err = f.sk.GetStake(env, provisioner)
	require.NoError(t, err)
	assert.Equal(t, uint8(1), entry.Data.Faults)
	assert.Equal(t, initialEligibility, entry.Data.Amount.Eligibility)
	assert.Equal(t, uint64(1_000), entry.Data.Reward)

	// second fault crosses the threshold: the stake re-matures
	env2 := f.hostEnv(5_000)
	cut := uint64(300)
	require.NoError(t, f.sk.Slash(env2, &SlashPayload{Account: provisioner, ToSlash: &cut}))
	entry, err = f.sk.GetStake(env2, provisioner)
	require.NoError(t, err)
	assert.Equal(t, uint8(2), entry.Data.Faults)
	assert.Equal(t, dusk.EligibilityAt(5_000), entry.Data.Amount.Eligibility)
	assert.Equal(t, uint64(700), entry.Data.Reward)

	// further faults keep counting but do not shift again
	env3 := f.hostEnv(20_000)
	require.NoError(t, f.sk.Slash(env3, &SlashPayload{Account: provisioner}))
	entry, err = f.sk.GetStake(env3, provisioner)
	require.NoError(t, err)
	assert.Equal(t, uint8(3), entry.Data.Faults)
	assert.Equal(t, dusk.EligibilityAt(5_000), entry.Data.Amount.Eligibility)

	// slashing an unknown account is an error
	err = f.sk.Slash(env3, &SlashPayload{Account: accountKey(0x99)})
	assert.Equal(t, reverts.KindNoStake, reverts.KindOf(err))
}

func TestSlashWarningSaturation(t *testing.T) {
	f := newFixture(t, Policy{}, nil)

	alice := accountKey(0xaa)
	provisioner := accountKey(0x01)

	env := f.hostEnv(0)
	require.NoError(t, f.sk.SetConfig(env, &Config{MinimumStake: testMinimum, Warnings: 0xfe}))
	require.NoError(t, f.sk.InsertStake(env, &Entry{
		Keys: Keys{Account: provisioner, Owner: Owner{Account: &alice}},
		Data: Data{Amount: &Amount{Value: 9_000, Eligibility: 0}},
	}))

	// 254 faults stay within the allowance
	for i := 0; i < 254; i++ {
		require.NoError(t, f.sk.Slash(f.hostEnv(uint64(10+i)), &SlashPayload{Account: provisioner}))
	}
	entry, err := f.sk.GetStake(env, provisioner)
	require.NoError(t, err)
	require.Equal(t, uint8(254), entry.Data.Faults)
	assert.Equal(t, uint64(0), entry.Data.Amount.Eligibility)

	// the saturating increment crosses the threshold exactly once
	require.NoError(t, f.sk.Slash(f.hostEnv(5_000), &SlashPayload{Account: provisioner}))
	entry, err = f.sk.GetStake(env, provisioner)
	require.NoError(t, err)
	require.Equal(t, uint8(0xff), entry.Data.Faults)
	assert.Equal(t, dusk.EligibilityAt(5_000), entry.Data.Amount.Eligibility)

	// once saturated the counter cannot cross again
	require.NoError(t, f.sk.Slash(f.hostEnv(50_000), &SlashPayload{Account: provisioner}))
	entry, err = f.sk.GetStake(env, provisioner)
	require.NoError(t, err)
	assert.Equal(t, uint8(0xff), entry.Data.Faults)
	assert.Equal(t, dusk.EligibilityAt(5_000), entry.Data.Amount.Eligibility)
}

func TestSlashWarningsUncrossable(t *testing.T) {
	f := newFixture(t, Policy{}, nil)

	alice := accountKey(0xaa)
	provisioner := accountKey(0x01)

	env := f.hostEnv(0)
	require.NoError(t, f.sk.SetConfig(env, &Config{MinimumStake: testMinimum, Warnings: 0xff}))
	require.NoError(t, f.sk.InsertStake(env, &Entry{
		Keys: Keys{Account: provisioner, Owner: Owner{Account: &alice}},
		Data: Data{Amount: &Amount{Value: 9_000, Eligibility: 0}},
	}))

	// a saturating counter never exceeds the allowance, so the stake
	// never re-matures
	for i := 0; i < 260; i++ {
		require.NoError(t, f.sk.Slash(f.hostEnv(uint64(10+i)), &SlashPayload{Account: provisioner}))
	}
	entry, err := f.sk.GetStake(env, provisioner)
	require.NoError(t, err)
	assert.Equal(t, uint8(0xff), entry.Data.Faults)
	assert.Equal(t, uint64(0), entry.Data.Amount.Eligibility)
}

func TestHardSlashDisabled(t *testing.T) {
	f := newFixture(t, Policy{}, nil)

	env := f.hostEnv(10)
	err := f.sk.HardSlash(env, &HardSlashPayload{Account: accountKey(0x01)})
	assert.Equal(t, reverts.KindFeatureDisabled, reverts.KindOf(err))
}

func TestHardSlash(t *testing.T) {
	f := newFixture(t, Policy{HardSlashEnabled: true}, nil)

	alice := accountKey(0xaa)
	provisioner := accountKey(0x01)
	f.seedFunder(t, alice)
	msg := &SignedStake{
		Keys:      Keys{Account: provisioner, Owner: Owner{Account: &alice}},
		Value:     5_000,
		Signature: []byte{0x01},
	}
	require.Equal(t, transfer.StatusFinalized, f.runStakeTx(t, 100, alice, 1, msg).Status)

	// default severity 1 burns a tenth of the principal
	env := f.hostEnv(200)
	require.NoError(t, f.sk.HardSlash(env, &HardSlashPayload{Account: provisioner}))

	entry, err := f.sk.GetStake(env, provisioner)
	require.NoError(t, err)
	assert.Equal(t, uint8(1), entry.Data.HardFaults)
	assert.Equal(t, uint64(4_500), entry.Data.Amount.Value)

	burnt, err := f.sk.BurntAmount(env)
	require.NoError(t, err)
	assert.Equal(t, uint64(500), burnt)

	bal, err := f.tr.ContractBalance(env, f.sk.Address())
	require.NoError(t, err)
	assert.Equal(t, uint64(4_500), bal, "burnt principal leaves the stake balance")

	// an explicit amount overrides the default, capped by the principal
	huge := uint64(1 << 60)
	require.NoError(t, f.sk.HardSlash(env, &HardSlashPayload{Account: provisioner, ToSlash: &huge}))
	entry, err = f.sk.GetStake(env, provisioner)
	require.NoError(t, err)
	assert.False(t, entry.HasStake(), "a full burn deactivates the stake")

	burnt, err = f.sk.BurntAmount(env)
	require.NoError(t, err)
	assert.Equal(t, uint64(5_000), burnt)
}

func TestPrevStateChanges(t *testing.T) {
	f := newFixture(t, Policy{}, nil)

	p1 := accountKey(0x01)
	env := f.hostEnv(10)
	require.NoError(t, f.sk.BeforeStateTransition(env))

	require.NoError(t, f.sk.ApplyRewards(env, []*Reward{{Account: p1, Value: 100}}))
	require.NoError(t, f.sk.ApplyRewards(env, []*Reward{{Account: p1, Value: 50}}))

	changes, err := f.sk.PrevStateChanges()
	require.NoError(t, err)
	require.Len(t, changes, 1, "one record per account per block")
	assert.Equal(t, p1, changes[0].Account)
	assert.Nil(t, changes[0].Prev, "the entry did not exist before this block")

	// the next block starts from a clean slate and records the new previous
	require.NoError(t, f.sk.BeforeStateTransition(env))
	changes, err = f.sk.PrevStateChanges()
	require.NoError(t, err)
	assert.Empty(t, changes)

	require.NoError(t, f.sk.ApplyRewards(env, []*Reward{{Account: p1, Value: 1}}))
	changes, err = f.sk.PrevStateChanges()
	require.NoError(t, err)
	require.Len(t, changes, 1)
	require.NotNil(t, changes[0].Prev)
	assert.Equal(t, uint64(150), changes[0].Prev.Data.Reward)
}

func TestSyncStakes(t *testing.T) {
	f := newFixture(t, Policy{}, nil)

	env := f.hostEnv(10)
	require.NoError(t, f.sk.ApplyRewards(env, []*Reward{
		{Account: accountKey(0x01), Value: 1},
		{Account: accountKey(0x02), Value: 2},
		{Account: accountKey(0x03), Value: 3},
	}))

	s, err := f.sk.SyncStakes(0, 0)
	require.NoError(t, err)
	entries, err := transfer.Collect(s)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, accountKey(0x01), entries[0].Keys.Account)
	assert.Equal(t, uint64(3), entries[2].Data.Reward)

	s, err = f.sk.SyncStakes(1, 1)
	require.NoError(t, err)
	window, err := transfer.Collect(s)
	require.NoError(t, err)
	require.Len(t, window, 1)
	assert.Equal(t, accountKey(0x02), window[0].Keys.Account)
}

func TestInsertStake(t *testing.T) {
	f := newFixture(t, Policy{}, nil)

	alice := accountKey(0xaa)
	provisioner := accountKey(0x01)
	entry := &Entry{
		Keys: Keys{Account: provisioner, Owner: Owner{Account: &alice}},
		Data: Data{Amount: &Amount{Value: 9_000, Eligibility: 0}},
	}

	env := f.hostEnv(0)
	require.NoError(t, f.sk.InsertStake(env, entry))

	got, err := f.sk.GetStake(env, provisioner)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, uint64(9_000), got.Data.Amount.Value)

	err = f.sk.InsertStake(env, entry)
	assert.Equal(t, reverts.KindAlreadyStaked, reverts.KindOf(err))
}
