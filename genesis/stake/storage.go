// Copyright (c) 2025 The dusk-go developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stake

import (
	"github.com/dusk-network/dusk-go/dusk"
	"github.com/dusk-network/dusk-go/genesis/storage"
	"github.com/dusk-network/dusk-go/state"
)

var (
	slotStakes       = storage.NameToSlot("stakes")
	slotStakeIndex   = storage.NameToSlot("stake-index")
	slotStakeCount   = storage.NameToSlot("stake-count")
	slotBurnt        = storage.NameToSlot("burnt")
	slotMinted       = storage.NameToSlot("minted")
	slotConfig       = storage.NameToSlot("config")
	slotChangedIndex = storage.NameToSlot("changed-index")
	slotChangedPrev  = storage.NameToSlot("changed-prev")
	slotChangedCount = storage.NameToSlot("changed-count")
)

// prevRecord is the stored pre-mutation value of a changed stake.
type prevRecord struct {
	Existed bool
	Entry   *Entry `rlp:"nil"`
}

// registry is the storage layout of the stake contract, bound to one
// metering context. The changed set accumulates pre-mutation values between
// block state transitions, feeding the consensus delta query.
type registry struct {
	stakes       *storage.Mapping[dusk.AccountKey, *Entry]
	stakeIndex   *storage.Mapping[storage.U64, dusk.AccountKey]
	stakeCount   *storage.Uint64
	burnt        *storage.Uint64
	minted       *storage.Uint64
	config       *storage.Value[*Config]
	changedIndex *storage.Mapping[storage.U64, dusk.AccountKey]
	changedPrev  *storage.Mapping[dusk.AccountKey, *prevRecord]
	changedCount *storage.Uint64
}

func newRegistry(ctx *storage.Context) *registry {
	return &registry{
		stakes:       storage.NewMapping[dusk.AccountKey, *Entry](ctx, slotStakes),
		stakeIndex:   storage.NewMapping[storage.U64, dusk.AccountKey](ctx, slotStakeIndex),
		stakeCount:   storage.NewUint64(ctx, slotStakeCount),
		burnt:        storage.NewUint64(ctx, slotBurnt),
		minted:       storage.NewUint64(ctx, slotMinted),
		config:       storage.NewValue[*Config](ctx, slotConfig),
		changedIndex: storage.NewMapping[storage.U64, dusk.AccountKey](ctx, slotChangedIndex),
		changedPrev:  storage.NewMapping[dusk.AccountKey, *prevRecord](ctx, slotChangedPrev),
		changedCount: storage.NewUint64(ctx, slotChangedCount),
	}
}

// get loads a stake entry; exists is false for unknown accounts.
func (r *registry) get(account dusk.AccountKey) (*Entry, bool, error) {
	exists, err := r.stakes.Has(account)
	if err != nil {
		return nil, false, err
	}
	if !exists {
		return nil, false, nil
	}
	entry, err := r.stakes.Get(account)
	if err != nil {
		return nil, false, err
	}
	return entry, true, nil
}

// set stores a stake entry, registering the account in the dense index the
// first time it is seen.
func (r *registry) set(account dusk.AccountKey, entry *Entry, isNew bool) error {
	if err := r.stakes.Set(account, entry, isNew); err != nil {
		return err
	}
	if !isNew {
		return nil
	}
	n, err := r.stakeCount.Get()
	if err != nil {
		return err
	}
	if err := r.stakeIndex.Set(storage.U64(n), account, true); err != nil {
		return err
	}
	return r.stakeCount.Set(n + 1)
}

// getConfig returns the stored configuration, falling back to the defaults.
func (r *registry) getConfig() (*Config, error) {
	cfg, exists, err := r.config.Get()
	if err != nil {
		return nil, err
	}
	if !exists {
		return DefaultConfig(), nil
	}
	return cfg, nil
}

// recordChange snapshots the pre-mutation value of account, once per block.
func (r *registry) recordChange(account dusk.AccountKey, prev *Entry, existed bool) error {
	recorded, err := r.changedPrev.Has(account)
	if err != nil {
		return err
	}
	if recorded {
		return nil
	}
	if err := r.changedPrev.Set(account, &prevRecord{Existed: existed, Entry: prev}, true); err != nil {
		return err
	}
	n, err := r.changedCount.Get()
	if err != nil {
		return err
	}
	if err := r.changedIndex.Set(storage.U64(n), account, true); err != nil {
		return err
	}
	return r.changedCount.Set(n + 1)
}

// clearChanges empties the changed set.
func (r *registry) clearChanges() error {
	n, err := r.changedCount.Get()
	if err != nil {
		return err
	}
	for i := uint64(0); i < n; i++ {
		account, err := r.changedIndex.Get(storage.U64(i))
		if err != nil {
			return err
		}
		if err := r.changedPrev.Delete(account); err != nil {
			return err
		}
		if err := r.changedIndex.Delete(storage.U64(i)); err != nil {
			return err
		}
	}
	return r.changedCount.Set(0)
}

// changes collects the changed set in recording order.
func (r *registry) changes() ([]*Change, error) {
	n, err := r.changedCount.Get()
	if err != nil {
		return nil, err
	}
	out := make([]*Change, 0, n)
	for i := uint64(0); i < n; i++ {
		account, err := r.changedIndex.Get(storage.U64(i))
		if err != nil {
			return nil, err
		}
		rec, err := r.changedPrev.Get(account)
		if err != nil {
			return nil, err
		}
		change := &Change{Account: account}
		if rec.Existed {
			change.Prev = rec.Entry
		}
		out = append(out, change)
	}
	return out, nil
}

// snapshotRegistry reads the stake index through a state snapshot.
type snapshotRegistry struct {
	registry *registry
	reader   *state.Reader
}

func (s *snapshotRegistry) stakeCount() (uint64, error) {
	return s.registry.stakeCount.SnapshotGet(s.reader)
}

func (s *snapshotRegistry) stakeAt(i uint64) (*Entry, error) {
	account, err := s.registry.stakeIndex.SnapshotGet(s.reader, storage.U64(i))
	if err != nil {
		return nil, err
	}
	return s.registry.stakes.SnapshotGet(s.reader, account)
}
