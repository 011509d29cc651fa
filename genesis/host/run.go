// Copyright (c) 2025 The dusk-go developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package host

import (
	"github.com/dusk-network/dusk-go/dusk"
	"github.com/dusk-network/dusk-go/genesis/reverts"
	"github.com/dusk-network/dusk-go/genesis/stake"
	"github.com/dusk-network/dusk-go/genesis/transfer"
	"github.com/dusk-network/dusk-go/xenv"
)

func (d *Dispatcher) registerTransferOps() {
	target := d.transfer.Address()

	d.register(target, OpSpendAndExecute, func(d *Dispatcher, env *xenv.Environment, args []byte) ([]byte, error) {
		tx, err := decodeArgs[transfer.Transaction](args)
		if err != nil {
			return nil, err
		}
		return nil, d.transfer.SpendAndExecute(env, tx)
	})
	d.register(target, OpRefund, func(d *Dispatcher, env *xenv.Environment, args []byte) ([]byte, error) {
		gasSpent, err := decodeArgs[uint64](args)
		if err != nil {
			return nil, err
		}
		receipt, err := d.transfer.Refund(env, *gasSpent)
		if err != nil {
			return nil, err
		}
		return encodeResult(receipt)
	})
	d.register(target, OpMint, func(d *Dispatcher, env *xenv.Environment, args []byte) ([]byte, error) {
		wd, err := decodeArgs[transfer.Withdraw](args)
		if err != nil {
			return nil, err
		}
		return nil, d.transfer.Mint(env, wd)
	})
	d.register(target, OpMintToContract, func(d *Dispatcher, env *xenv.Environment, args []byte) ([]byte, error) {
		m, err := decodeArgs[transfer.MintToContract](args)
		if err != nil {
			return nil, err
		}
		return nil, d.transfer.MintToContract(env, m)
	})
	d.register(target, OpDeposit, func(d *Dispatcher, env *xenv.Environment, args []byte) ([]byte, error) {
		value, err := decodeArgs[uint64](args)
		if err != nil {
			return nil, err
		}
		return nil, d.transfer.Deposit(env, *value)
	})
	d.register(target, OpWithdraw, func(d *Dispatcher, env *xenv.Environment, args []byte) ([]byte, error) {
		wd, err := decodeArgs[transfer.Withdraw](args)
		if err != nil {
			return nil, err
		}
		return nil, d.transfer.Withdraw(env, wd)
	})
	d.register(target, OpConvert, func(d *Dispatcher, env *xenv.Environment, args []byte) ([]byte, error) {
		wd, err := decodeArgs[transfer.Withdraw](args)
		if err != nil {
			return nil, err
		}
		return nil, d.transfer.Convert(env, wd)
	})
	d.register(target, OpContractToContract, func(d *Dispatcher, env *xenv.Environment, args []byte) ([]byte, error) {
		ct, err := decodeArgs[transfer.ContractTransfer](args)
		if err != nil {
			return nil, err
		}
		return nil, d.transfer.ContractToContract(env, ct)
	})
	d.register(target, OpContractToAccount, func(d *Dispatcher, env *xenv.Environment, args []byte) ([]byte, error) {
		ca, err := decodeArgs[transfer.ContractToAccount](args)
		if err != nil {
			return nil, err
		}
		return nil, d.transfer.ContractToAccount(env, ca)
	})
	d.register(target, OpSubContractBalance, func(d *Dispatcher, env *xenv.Environment, args []byte) ([]byte, error) {
		sb, err := decodeArgs[transfer.SubBalance](args)
		if err != nil {
			return nil, err
		}
		return nil, d.transfer.SubContractBalance(env, sb)
	})

	d.register(target, OpInsertAccount, func(d *Dispatcher, env *xenv.Environment, args []byte) ([]byte, error) {
		e, err := decodeArgs[transfer.AccountEntry](args)
		if err != nil {
			return nil, err
		}
		return nil, d.transfer.InsertAccount(env, e)
	})

	d.register(target, OpRoot, func(d *Dispatcher, env *xenv.Environment, args []byte) ([]byte, error) {
		return encodeResult(d.transfer.Root())
	})
	d.register(target, OpAccount, func(d *Dispatcher, env *xenv.Environment, args []byte) ([]byte, error) {
		key, err := decodeArgs[dusk.AccountKey](args)
		if err != nil {
			return nil, err
		}
		acc, err := d.transfer.AccountData(env, *key)
		if err != nil {
			return nil, err
		}
		return encodeResult(acc)
	})
	d.register(target, OpContractBalance, func(d *Dispatcher, env *xenv.Environment, args []byte) ([]byte, error) {
		id, err := decodeArgs[dusk.ContractID](args)
		if err != nil {
			return nil, err
		}
		bal, err := d.transfer.ContractBalance(env, *id)
		if err != nil {
			return nil, err
		}
		return encodeResult(bal)
	})
	d.register(target, OpOpening, func(d *Dispatcher, env *xenv.Environment, args []byte) ([]byte, error) {
		pos, err := decodeArgs[uint64](args)
		if err != nil {
			return nil, err
		}
		opening, ok := d.transfer.OpeningAt(*pos)
		if !ok {
			return nil, reverts.Newf(reverts.KindInvalidPayload, "position %d is unallocated", *pos)
		}
		return encodeResult(opening)
	})
	d.register(target, OpExistingNullifiers, func(d *Dispatcher, env *xenv.Environment, args []byte) ([]byte, error) {
		nullifiers, err := decodeArgs[[]dusk.Bytes32](args)
		if err != nil {
			return nil, err
		}
		spent, err := d.transfer.ExistingNullifiers(env, *nullifiers)
		if err != nil {
			return nil, err
		}
		return encodeResult(spent)
	})
	d.register(target, OpNumNotes, func(d *Dispatcher, env *xenv.Environment, args []byte) ([]byte, error) {
		return encodeResult(d.transfer.NumNotes())
	})
	d.register(target, OpChainID, func(d *Dispatcher, env *xenv.Environment, args []byte) ([]byte, error) {
		return encodeResult(d.transfer.ChainID())
	})

	d.register(target, OpSyncLeaves, func(d *Dispatcher, env *xenv.Environment, args []byte) ([]byte, error) {
		r, err := decodeArgs[Range](args)
		if err != nil {
			return nil, err
		}
		s, err := d.transfer.SyncLeaves(r.From, r.Limit)
		if err != nil {
			return nil, err
		}
		leaves, err := transfer.Collect(s)
		if err != nil {
			return nil, err
		}
		return encodeResult(leaves)
	})
	d.register(target, OpSyncLeavesFromHeight, func(d *Dispatcher, env *xenv.Environment, args []byte) ([]byte, error) {
		r, err := decodeArgs[HeightRange](args)
		if err != nil {
			return nil, err
		}
		s, err := d.transfer.SyncLeavesFromHeight(r.Height, r.Limit)
		if err != nil {
			return nil, err
		}
		leaves, err := transfer.Collect(s)
		if err != nil {
			return nil, err
		}
		return encodeResult(leaves)
	})
	d.register(target, OpSyncNullifiers, func(d *Dispatcher, env *xenv.Environment, args []byte) ([]byte, error) {
		r, err := decodeArgs[Range](args)
		if err != nil {
			return nil, err
		}
		s, err := d.transfer.SyncNullifiers(r.From, r.Limit)
		if err != nil {
			return nil, err
		}
		nullifiers, err := transfer.Collect(s)
		if err != nil {
			return nil, err
		}
		return encodeResult(nullifiers)
	})
	d.register(target, OpSyncAccounts, func(d *Dispatcher, env *xenv.Environment, args []byte) ([]byte, error) {
		r, err := decodeArgs[Range](args)
		if err != nil {
			return nil, err
		}
		s, err := d.transfer.SyncAccounts(r.From, r.Limit)
		if err != nil {
			return nil, err
		}
		accounts, err := transfer.Collect(s)
		if err != nil {
			return nil, err
		}
		return encodeResult(accounts)
	})
	d.register(target, OpSyncContractBalances, func(d *Dispatcher, env *xenv.Environment, args []byte) ([]byte, error) {
		r, err := decodeArgs[Range](args)
		if err != nil {
			return nil, err
		}
		s, err := d.transfer.SyncContractBalances(r.From, r.Limit)
		if err != nil {
			return nil, err
		}
		balances, err := transfer.Collect(s)
		if err != nil {
			return nil, err
		}
		return encodeResult(balances)
	})
}

func (d *Dispatcher) registerStakeOps() {
	target := d.stake.Address()

	d.register(target, OpStake, func(d *Dispatcher, env *xenv.Environment, args []byte) ([]byte, error) {
		msg, err := decodeArgs[stake.SignedStake](args)
		if err != nil {
			return nil, err
		}
		return nil, d.stake.Stake(env, msg)
	})
	d.register(target, OpStakeFromContract, func(d *Dispatcher, env *xenv.Environment, args []byte) ([]byte, error) {
		recv, err := decodeArgs[transfer.ReceiveFromContract](args)
		if err != nil {
			return nil, err
		}
		return nil, d.stake.StakeFromContract(env, recv)
	})
	d.register(target, OpUnstake, func(d *Dispatcher, env *xenv.Environment, args []byte) ([]byte, error) {
		msg, err := decodeArgs[stake.SignedWithdrawal](args)
		if err != nil {
			return nil, err
		}
		return nil, d.stake.Unstake(env, msg)
	})
	d.register(target, OpUnstakeFromContract, func(d *Dispatcher, env *xenv.Environment, args []byte) ([]byte, error) {
		msg, err := decodeArgs[stake.UnstakeFromContract](args)
		if err != nil {
			return nil, err
		}
		return nil, d.stake.UnstakeFromContract(env, msg)
	})
	d.register(target, OpWithdrawReward, func(d *Dispatcher, env *xenv.Environment, args []byte) ([]byte, error) {
		msg, err := decodeArgs[stake.SignedWithdrawal](args)
		if err != nil {
			return nil, err
		}
		return nil, d.stake.WithdrawReward(env, msg)
	})
	d.register(target, OpReward, func(d *Dispatcher, env *xenv.Environment, args []byte) ([]byte, error) {
		batch, err := decodeArgs[[]*stake.Reward](args)
		if err != nil {
			return nil, err
		}
		return nil, d.stake.ApplyRewards(env, *batch)
	})
	d.register(target, OpSlash, func(d *Dispatcher, env *xenv.Environment, args []byte) ([]byte, error) {
		p, err := decodeArgs[stake.SlashPayload](args)
		if err != nil {
			return nil, err
		}
		return nil, d.stake.Slash(env, p)
	})
	d.register(target, OpHardSlash, func(d *Dispatcher, env *xenv.Environment, args []byte) ([]byte, error) {
		p, err := decodeArgs[stake.HardSlashPayload](args)
		if err != nil {
			return nil, err
		}
		return nil, d.stake.HardSlash(env, p)
	})
	d.register(target, OpInsertStake, func(d *Dispatcher, env *xenv.Environment, args []byte) ([]byte, error) {
		entry, err := decodeArgs[stake.Entry](args)
		if err != nil {
			return nil, err
		}
		return nil, d.stake.InsertStake(env, entry)
	})
	d.register(target, OpBeforeStateTransition, func(d *Dispatcher, env *xenv.Environment, args []byte) ([]byte, error) {
		return nil, d.stake.BeforeStateTransition(env)
	})
	d.register(target, OpPrevStateChanges, func(d *Dispatcher, env *xenv.Environment, args []byte) ([]byte, error) {
		changes, err := d.stake.PrevStateChanges()
		if err != nil {
			return nil, err
		}
		return encodeResult(changes)
	})
	d.register(target, OpGetStake, func(d *Dispatcher, env *xenv.Environment, args []byte) ([]byte, error) {
		account, err := decodeArgs[dusk.AccountKey](args)
		if err != nil {
			return nil, err
		}
		entry, err := d.stake.GetStake(env, *account)
		if err != nil {
			return nil, err
		}
		return encodeResult(&StakeResult{Entry: entry})
	})
	d.register(target, OpBurntAmount, func(d *Dispatcher, env *xenv.Environment, args []byte) ([]byte, error) {
		burnt, err := d.stake.BurntAmount(env)
		if err != nil {
			return nil, err
		}
		return encodeResult(burnt)
	})
	d.register(target, OpMintedAmount, func(d *Dispatcher, env *xenv.Environment, args []byte) ([]byte, error) {
		minted, err := d.stake.MintedAmount(env)
		if err != nil {
			return nil, err
		}
		return encodeResult(minted)
	})
	d.register(target, OpGetConfig, func(d *Dispatcher, env *xenv.Environment, args []byte) ([]byte, error) {
		cfg, err := d.stake.GetConfig(env)
		if err != nil {
			return nil, err
		}
		return encodeResult(cfg)
	})
	d.register(target, OpSetConfig, func(d *Dispatcher, env *xenv.Environment, args []byte) ([]byte, error) {
		cfg, err := decodeArgs[stake.Config](args)
		if err != nil {
			return nil, err
		}
		return nil, d.stake.SetConfig(env, cfg)
	})
	d.register(target, OpSyncStakes, func(d *Dispatcher, env *xenv.Environment, args []byte) ([]byte, error) {
		r, err := decodeArgs[Range](args)
		if err != nil {
			return nil, err
		}
		s, err := d.stake.SyncStakes(r.From, r.Limit)
		if err != nil {
			return nil, err
		}
		entries, err := transfer.Collect(s)
		if err != nil {
			return nil, err
		}
		return encodeResult(entries)
	})
}
