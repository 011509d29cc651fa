// Copyright (c) 2025 The dusk-go developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package stake implements the genesis stake contract: provisioner stakes,
// their maturation and rewards, and the soft/hard slashing state machines.
// It holds no funds of its own; all value moves through the transfer
// contract's balance for the stake contract.
package stake

import (
	"github.com/dusk-network/dusk-go/dusk"
	"github.com/dusk-network/dusk-go/emission"
	"github.com/dusk-network/dusk-go/genesis/gascharger"
	"github.com/dusk-network/dusk-go/genesis/reverts"
	"github.com/dusk-network/dusk-go/genesis/storage"
	"github.com/dusk-network/dusk-go/genesis/transfer"
	"github.com/dusk-network/dusk-go/log"
	"github.com/dusk-network/dusk-go/metrics"
	"github.com/dusk-network/dusk-go/state"
	"github.com/dusk-network/dusk-go/xenv"
)

var logger = log.WithContext("pkg", "stake")

var (
	metricSlashes     = metrics.Counter("stake_slash_total")
	metricHardSlashes = metrics.Counter("stake_hard_slash_total")
	metricStakes      = metrics.Gauge("stake_entries")
)

// Staker is the genesis stake contract.
type Staker struct {
	addr       dusk.ContractID
	transferID dusk.ContractID
	state      *state.State
	verifier   Verifier
	schedule   *emission.Schedule
	policy     Policy
}

// New binds the stake contract to the world state.
func New(st *state.State, verifier Verifier, schedule *emission.Schedule, policy Policy) *Staker {
	return &Staker{
		addr:       dusk.StakeContractID,
		transferID: dusk.TransferContractID,
		state:      st,
		verifier:   verifier,
		schedule:   schedule,
		policy:     policy,
	}
}

// Address returns the contract id.
func (s *Staker) Address() dusk.ContractID { return s.addr }

func (s *Staker) registry(charge storage.UseGasFunc) *registry {
	return newRegistry(storage.NewContext(s.addr, s.state, charge))
}

// Stake activates a stake funded by the in-flight transaction's deposit.
// The stake matures two full epochs after the current one.
func (s *Staker) Stake(env *xenv.Environment, msg *SignedStake) error {
	if err := msg.Keys.Owner.Validate(); err != nil {
		return err
	}
	if !s.verifier.VerifyAccountSignature(msg.Keys.Account, msg.SigDigest(), msg.Signature) {
		return reverts.New(reverts.KindInvalidSignature, "")
	}

	charger := gascharger.New(env)
	reg := s.registry(charger.Charge)

	cfg, err := reg.getConfig()
	if err != nil {
		return err
	}
	if msg.Value < cfg.MinimumStake {
		return reverts.Newf(reverts.KindBelowMinimumStake, "%d below %d", msg.Value, cfg.MinimumStake)
	}

	entry, exists, err := reg.get(msg.Keys.Account)
	if err != nil {
		return err
	}
	if exists && entry.HasStake() {
		return reverts.New(reverts.KindAlreadyStaked, "")
	}

	// pull the funds out of the transaction deposit
	if _, err := env.Invoke(s.transferID, "deposit", mustEncode(msg.Value)); err != nil {
		return err
	}

	return s.insert(env, charger, reg, entry, exists, msg.Keys, msg.Value)
}

// StakeFromContract activates a contract-owned stake. The funds arrive
// through contract_to_contract; recv.Data carries the stake keys, whose
// owner must be the sending contract.
func (s *Staker) StakeFromContract(env *xenv.Environment, recv *transfer.ReceiveFromContract) error {
	var keys Keys
	if err := decode(recv.Data, &keys); err != nil {
		return reverts.New(reverts.KindInvalidPayload, "malformed stake keys")
	}
	if err := keys.Owner.Validate(); err != nil {
		return err
	}
	if keys.Owner.Contract == nil || *keys.Owner.Contract != recv.Contract {
		return reverts.New(reverts.KindUnauthorized, "owner must be the sending contract")
	}

	charger := gascharger.New(env)
	reg := s.registry(charger.Charge)

	cfg, err := reg.getConfig()
	if err != nil {
		return err
	}
	if recv.Value < cfg.MinimumStake {
		return reverts.Newf(reverts.KindBelowMinimumStake, "%d below %d", recv.Value, cfg.MinimumStake)
	}

	entry, exists, err := reg.get(keys.Account)
	if err != nil {
		return err
	}
	if exists && entry.HasStake() {
		return reverts.New(reverts.KindAlreadyStaked, "")
	}

	return s.insert(env, charger, reg, entry, exists, keys, recv.Value)
}

// insert writes the activated stake and emits the stake event. Reward and
// fault history survive from a previous stake period of the same account.
func (s *Staker) insert(env *xenv.Environment, charger *gascharger.Charger, reg *registry, entry *Entry, exists bool, keys Keys, value uint64) error {
	var prev *Entry
	if exists {
		prev = entry.clone()
	} else {
		entry = &Entry{}
	}
	if err := reg.recordChange(keys.Account, prev, exists); err != nil {
		return err
	}

	eligibility := dusk.EligibilityAt(env.BlockContext().Number)
	entry.Keys = keys
	entry.Data.Amount = &Amount{Value: value, Eligibility: eligibility}
	if err := reg.set(keys.Account, entry, !exists); err != nil {
		return err
	}

	data := mustEncode(&StakeEvent{Account: keys.Account, Value: value, Eligibility: eligibility})
	charger.ChargeLog(len(data))
	env.EmitEvent(TopicStake, data)

	logger.Debug("stake activated", "value", value, "eligibility", eligibility)
	return nil
}

// Unstake deactivates an account-owned stake and returns the whole principal
// to the given receiver. Unstaking is allowed at any time, matured or not.
func (s *Staker) Unstake(env *xenv.Environment, msg *SignedWithdrawal) error {
	if err := msg.Receiver.Validate(); err != nil {
		return err
	}
	if !s.verifier.VerifyAccountSignature(msg.Account, msg.SigDigest(), msg.Signature) {
		return reverts.New(reverts.KindInvalidSignature, "")
	}

	charger := gascharger.New(env)
	reg := s.registry(charger.Charge)

	entry, exists, err := reg.get(msg.Account)
	if err != nil {
		return err
	}
	if !exists || !entry.HasStake() {
		return reverts.New(reverts.KindNoStake, "")
	}
	if entry.Keys.Owner.Contract != nil {
		return reverts.New(reverts.KindUnauthorized, "contract-owned stake")
	}

	if err := reg.recordChange(msg.Account, entry.clone(), true); err != nil {
		return err
	}
	value := entry.Data.Amount.Total()
	entry.Data.Amount = nil
	if err := reg.set(msg.Account, entry, false); err != nil {
		return err
	}

	wd := &transfer.Withdraw{Contract: s.addr, Value: value, Receiver: msg.Receiver}
	if _, err := env.Invoke(s.transferID, "withdraw", mustEncode(wd)); err != nil {
		return err
	}

	data := mustEncode(&UnstakeEvent{Account: msg.Account, Value: value})
	charger.ChargeLog(len(data))
	env.EmitEvent(TopicUnstake, data)
	return nil
}

// UnstakeFromContract deactivates a contract-owned stake, moving the
// principal back to the owner contract and notifying msg.Fn.
func (s *Staker) UnstakeFromContract(env *xenv.Environment, msg *UnstakeFromContract) error {
	charger := gascharger.New(env)
	reg := s.registry(charger.Charge)

	entry, exists, err := reg.get(msg.Account)
	if err != nil {
		return err
	}
	if !exists || !entry.HasStake() {
		return reverts.New(reverts.KindNoStake, "")
	}
	owner := entry.Keys.Owner.Contract
	if owner == nil {
		return reverts.New(reverts.KindUnauthorized, "account-owned stake")
	}
	if env.Caller() != *owner {
		return reverts.New(reverts.KindUnauthorized, "caller does not own the stake")
	}

	if err := reg.recordChange(msg.Account, entry.clone(), true); err != nil {
		return err
	}
	value := entry.Data.Amount.Total()
	entry.Data.Amount = nil
	if err := reg.set(msg.Account, entry, false); err != nil {
		return err
	}

	ct := &transfer.ContractTransfer{Contract: *owner, Value: value, Fn: msg.Fn, Data: msg.Data}
	if _, err := env.Invoke(s.transferID, "contract_to_contract", mustEncode(ct)); err != nil {
		return err
	}

	data := mustEncode(&UnstakeEvent{Account: msg.Account, Value: value})
	charger.ChargeLog(len(data))
	env.EmitEvent(TopicUnstake, data)
	return nil
}

// WithdrawReward mints the account's whole accumulated reward to the given
// receiver, after validating the emission schedule. Withdrawal is
// all-or-nothing.
func (s *Staker) WithdrawReward(env *xenv.Environment, msg *SignedWithdrawal) error {
	if err := msg.Receiver.Validate(); err != nil {
		return err
	}
	if !s.verifier.VerifyAccountSignature(msg.Account, msg.SigDigest(), msg.Signature) {
		return reverts.New(reverts.KindInvalidSignature, "")
	}

	charger := gascharger.New(env)
	reg := s.registry(charger.Charge)

	entry, exists, err := reg.get(msg.Account)
	if err != nil {
		return err
	}
	if !exists {
		return reverts.New(reverts.KindNoStake, "")
	}
	reward := entry.Data.Reward
	if reward == 0 {
		return reverts.New(reverts.KindNothingToWithdraw, "")
	}

	minted, err := reg.minted.Get()
	if err != nil {
		return err
	}
	total, ok := dusk.SafeAdd(minted, reward)
	if !ok || total > s.schedule.MaxMintable(env.BlockContext().Number) {
		return reverts.Newf(reverts.KindEmissionExceeded, "minting %d over %d", reward, s.schedule.MaxMintable(env.BlockContext().Number))
	}

	if err := reg.recordChange(msg.Account, entry.clone(), true); err != nil {
		return err
	}
	entry.Data.Reward = 0
	if err := reg.set(msg.Account, entry, false); err != nil {
		return err
	}
	if err := reg.minted.Set(total); err != nil {
		return err
	}

	wd := &transfer.Withdraw{Contract: s.addr, Value: reward, Receiver: msg.Receiver}
	if _, err := env.Invoke(s.transferID, "mint", mustEncode(wd)); err != nil {
		return err
	}

	data := mustEncode(&WithdrawEvent{Account: msg.Account, Value: reward})
	charger.ChargeLog(len(data))
	env.EmitEvent(TopicWithdraw, data)
	return nil
}

// ApplyRewards credits a consensus reward batch. The batch is validated in
// full before anything is written: a malformed item rejects the whole batch
// with no partial mutation.
func (s *Staker) ApplyRewards(env *xenv.Environment, batch []*Reward) error {
	if len(batch) == 0 {
		return reverts.New(reverts.KindMalformedBatch, "empty batch")
	}
	seen := make(map[dusk.AccountKey]struct{}, len(batch))
	for i, r := range batch {
		if r == nil || r.Value == 0 {
			return reverts.Newf(reverts.KindMalformedBatch, "item %d has no value", i)
		}
		if r.Account.IsZero() {
			return reverts.Newf(reverts.KindMalformedBatch, "item %d has no account", i)
		}
		if _, dup := seen[r.Account]; dup {
			return reverts.Newf(reverts.KindMalformedBatch, "item %d duplicates an account", i)
		}
		seen[r.Account] = struct{}{}
	}

	charger := gascharger.New(env)
	reg := s.registry(charger.Charge)

	// second validation pass against state, before the first write
	type staged struct {
		entry  *Entry
		exists bool
	}
	stagedItems := make([]staged, len(batch))
	for i, r := range batch {
		entry, exists, err := reg.get(r.Account)
		if err != nil {
			return err
		}
		if !exists {
			entry = &Entry{Keys: Keys{Account: r.Account, Owner: Owner{Account: &batch[i].Account}}}
		}
		if _, ok := dusk.SafeAdd(entry.Data.Reward, r.Value); !ok {
			return reverts.Newf(reverts.KindMalformedBatch, "item %d overflows the reward", i)
		}
		stagedItems[i] = staged{entry: entry, exists: exists}
	}

	for i, r := range batch {
		st := stagedItems[i]
		var prev *Entry
		if st.exists {
			prev = st.entry.clone()
		}
		if err := reg.recordChange(r.Account, prev, st.exists); err != nil {
			return err
		}
		st.entry.Data.Reward += r.Value
		if err := reg.set(r.Account, st.entry, !st.exists); err != nil {
			return err
		}

		data := mustEncode(&RewardEvent{Account: r.Account, Value: r.Value})
		charger.ChargeLog(len(data))
		env.EmitEvent(TopicReward, data)
	}
	return nil
}

// Slash applies a soft slash: the fault counter grows monotonically, the
// eligibility shifts forward once when the counter first exceeds the
// configured warnings, and an optional amount is cut from the reward.
func (s *Staker) Slash(env *xenv.Environment, p *SlashPayload) error {
	charger := gascharger.New(env)
	reg := s.registry(charger.Charge)

	entry, exists, err := reg.get(p.Account)
	if err != nil {
		return err
	}
	if !exists || !entry.HasStake() {
		return reverts.New(reverts.KindNoStake, "")
	}

	cfg, err := reg.getConfig()
	if err != nil {
		return err
	}

	if err := reg.recordChange(p.Account, entry.clone(), true); err != nil {
		return err
	}

	d := &entry.Data
	if d.Faults < 0xff {
		d.Faults++
		// the shift happens on the increment that crosses the warning
		// threshold, once; a saturated counter cannot cross again
		if d.Faults == cfg.Warnings+1 {
			d.Amount.Eligibility = dusk.EligibilityAt(env.BlockContext().Number)
		}
	}

	var cut uint64
	if p.ToSlash != nil {
		cut = min(*p.ToSlash, d.Reward)
		d.Reward -= cut
	}

	if err := reg.set(p.Account, entry, false); err != nil {
		return err
	}
	metricSlashes.Add(1)

	data := mustEncode(&SlashEvent{
		Account:     p.Account,
		Faults:      d.Faults,
		RewardCut:   cut,
		Eligibility: d.Amount.Eligibility,
	})
	charger.ChargeLog(len(data))
	env.EmitEvent(TopicSlash, data)

	logger.Warn("stake slashed", "faults", d.Faults, "cut", cut)
	return nil
}

// HardSlash burns staked principal. Disabled unless the policy activates it.
// The default burn is a tenth of the principal per severity step; explicit
// ToSlash overrides it. Either way the burn is capped by the principal.
func (s *Staker) HardSlash(env *xenv.Environment, p *HardSlashPayload) error {
	if !s.policy.HardSlashEnabled {
		return reverts.New(reverts.KindFeatureDisabled, "hard_slash")
	}

	charger := gascharger.New(env)
	reg := s.registry(charger.Charge)

	entry, exists, err := reg.get(p.Account)
	if err != nil {
		return err
	}
	if !exists || !entry.HasStake() {
		return reverts.New(reverts.KindNoStake, "")
	}

	if err := reg.recordChange(p.Account, entry.clone(), true); err != nil {
		return err
	}

	d := &entry.Data
	if d.HardFaults < 0xff {
		d.HardFaults++
	}
	severity := uint64(d.HardFaults)
	if p.Severity != nil {
		severity = uint64(*p.Severity)
	}

	burn := d.Amount.Value / 10 * severity
	if p.ToSlash != nil {
		burn = *p.ToSlash
	}
	if burn > d.Amount.Value {
		burn = d.Amount.Value
	}

	d.Amount.Value -= burn
	if d.Amount.Value == 0 && d.Amount.Locked == 0 {
		d.Amount = nil
	}
	if err := reg.set(p.Account, entry, false); err != nil {
		return err
	}

	if burn > 0 {
		sb := &transfer.SubBalance{Contract: s.addr, Value: burn}
		if _, err := env.Invoke(s.transferID, "sub_contract_balance", mustEncode(sb)); err != nil {
			return err
		}
		if _, err := reg.burnt.Add(burn); err != nil {
			return err
		}
	}
	metricHardSlashes.Add(1)

	data := mustEncode(&HardSlashEvent{Account: p.Account, HardFaults: d.HardFaults, Burnt: burn})
	charger.ChargeLog(len(data))
	env.EmitEvent(TopicHardSlash, data)

	logger.Warn("stake hard-slashed", "hardFaults", d.HardFaults, "burnt", burn)
	return nil
}

// InsertStake seeds a stake entry directly, bypassing funding. Used by the
// host while building the genesis state.
func (s *Staker) InsertStake(env *xenv.Environment, entry *Entry) error {
	if err := entry.Keys.Owner.Validate(); err != nil {
		return err
	}

	reg := s.registry(nil)
	_, exists, err := reg.get(entry.Keys.Account)
	if err != nil {
		return err
	}
	if exists {
		return reverts.New(reverts.KindAlreadyStaked, "")
	}
	if err := reg.recordChange(entry.Keys.Account, nil, false); err != nil {
		return err
	}
	return reg.set(entry.Keys.Account, entry, true)
}

// BeforeStateTransition clears the changed set. The host calls it once at
// the start of every block's state transition.
func (s *Staker) BeforeStateTransition(env *xenv.Environment) error {
	reg := s.registry(nil)
	n, err := reg.stakeCount.Get()
	if err != nil {
		return err
	}
	metricStakes.Set(int64(n))
	return reg.clearChanges()
}

// PrevStateChanges returns the pre-mutation values of every stake touched
// since the last state transition, in mutation order. Consensus uses the
// delta to maintain the provisioner set incrementally.
func (s *Staker) PrevStateChanges() ([]*Change, error) {
	return s.registry(nil).changes()
}

// GetStake returns the stake entry of account, or nil when unknown.
func (s *Staker) GetStake(env *xenv.Environment, account dusk.AccountKey) (*Entry, error) {
	charger := gascharger.New(env)
	entry, exists, err := s.registry(charger.Charge).get(account)
	if err != nil || !exists {
		return nil, err
	}
	return entry, nil
}

// BurntAmount returns the cumulative principal destroyed by hard slashes.
func (s *Staker) BurntAmount(env *xenv.Environment) (uint64, error) {
	charger := gascharger.New(env)
	return s.registry(charger.Charge).burnt.Get()
}

// MintedAmount returns the cumulative reward supply minted so far.
func (s *Staker) MintedAmount(env *xenv.Environment) (uint64, error) {
	charger := gascharger.New(env)
	return s.registry(charger.Charge).minted.Get()
}

// GetConfig returns the active configuration.
func (s *Staker) GetConfig(env *xenv.Environment) (*Config, error) {
	charger := gascharger.New(env)
	return s.registry(charger.Charge).getConfig()
}

// SetConfig replaces the configuration wholesale.
func (s *Staker) SetConfig(env *xenv.Environment, cfg *Config) error {
	if cfg.MinimumStake == 0 {
		return reverts.New(reverts.KindInvalidPayload, "zero minimum stake")
	}
	return s.registry(nil).config.Set(cfg)
}

// SyncStakes streams stake entries in first-seen order from a snapshot.
func (s *Staker) SyncStakes(from, limit uint64) (*transfer.Stream[*Entry], error) {
	snap := &snapshotRegistry{registry: s.registry(nil), reader: s.state.Snapshot()}
	count, err := snap.stakeCount()
	if err != nil {
		snap.reader.Release()
		return nil, err
	}

	end := count
	if limit > 0 {
		if e, ok := dusk.SafeAdd(from, limit); ok && e < count {
			end = e
		}
	}
	i := from
	return transfer.NewStream(
		func() (*Entry, bool, error) {
			if i >= end {
				return nil, false, nil
			}
			entry, err := snap.stakeAt(i)
			if err != nil {
				return nil, false, err
			}
			i++
			return entry, true, nil
		},
		snap.reader.Release,
	), nil
}
