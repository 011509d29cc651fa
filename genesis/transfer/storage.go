// Copyright (c) 2025 The dusk-go developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package transfer

import (
	"github.com/dusk-network/dusk-go/dusk"
	"github.com/dusk-network/dusk-go/genesis/reverts"
	"github.com/dusk-network/dusk-go/genesis/storage"
	"github.com/dusk-network/dusk-go/state"
)

var (
	slotAccounts       = storage.NameToSlot("accounts")
	slotAccountIndex   = storage.NameToSlot("account-index")
	slotAccountCount   = storage.NameToSlot("account-count")
	slotBalances       = storage.NameToSlot("contract-balances")
	slotContractIndex  = storage.NameToSlot("contract-index")
	slotContractCount  = storage.NameToSlot("contract-count")
	slotNullifiers     = storage.NameToSlot("nullifiers")
	slotNullifierIndex = storage.NameToSlot("nullifier-index")
	slotNullifierCount = storage.NameToSlot("nullifier-count")
	slotNotes          = storage.NameToSlot("notes")
	slotNoteHeights    = storage.NameToSlot("note-heights")
	slotNoteCount      = storage.NameToSlot("note-count")
)

// ledger is the storage layout of the transfer contract, bound to one
// metering context. Index mappings assign dense positions to accounts,
// contract balances and nullifiers so sync queries can stream them in
// insertion order.
type ledger struct {
	accounts       *storage.Mapping[dusk.AccountKey, *Account]
	accountIndex   *storage.Mapping[storage.U64, dusk.AccountKey]
	accountCount   *storage.Uint64
	balances       *storage.Mapping[dusk.ContractID, uint64]
	contractIndex  *storage.Mapping[storage.U64, dusk.ContractID]
	contractCount  *storage.Uint64
	nullifiers     *storage.Mapping[dusk.Bytes32, bool]
	nullifierIndex *storage.Mapping[storage.U64, dusk.Bytes32]
	nullifierCount *storage.Uint64
	notes          *storage.Mapping[storage.U64, *Note]
	noteHeights    *storage.Mapping[storage.U64, uint64]
	noteCount      *storage.Uint64
}

func newLedger(ctx *storage.Context) *ledger {
	return &ledger{
		accounts:       storage.NewMapping[dusk.AccountKey, *Account](ctx, slotAccounts),
		accountIndex:   storage.NewMapping[storage.U64, dusk.AccountKey](ctx, slotAccountIndex),
		accountCount:   storage.NewUint64(ctx, slotAccountCount),
		balances:       storage.NewMapping[dusk.ContractID, uint64](ctx, slotBalances),
		contractIndex:  storage.NewMapping[storage.U64, dusk.ContractID](ctx, slotContractIndex),
		contractCount:  storage.NewUint64(ctx, slotContractCount),
		nullifiers:     storage.NewMapping[dusk.Bytes32, bool](ctx, slotNullifiers),
		nullifierIndex: storage.NewMapping[storage.U64, dusk.Bytes32](ctx, slotNullifierIndex),
		nullifierCount: storage.NewUint64(ctx, slotNullifierCount),
		notes:          storage.NewMapping[storage.U64, *Note](ctx, slotNotes),
		noteHeights:    storage.NewMapping[storage.U64, uint64](ctx, slotNoteHeights),
		noteCount:      storage.NewUint64(ctx, slotNoteCount),
	}
}

func (l *ledger) getAccount(key dusk.AccountKey) (*Account, error) {
	return l.accounts.Get(key)
}

// creditAccount adds value to an account, registering the key in the dense
// index the first time it is seen.
func (l *ledger) creditAccount(key dusk.AccountKey, value uint64) error {
	known, err := l.accounts.Has(key)
	if err != nil {
		return err
	}
	acc, err := l.accounts.Get(key)
	if err != nil {
		return err
	}
	sum, ok := dusk.SafeAdd(acc.Balance, value)
	if !ok {
		return reverts.New(reverts.KindInvalidPayload, "account balance overflow")
	}
	acc.Balance = sum
	if err := l.accounts.Set(key, acc, !known); err != nil {
		return err
	}
	if !known {
		n, err := l.accountCount.Get()
		if err != nil {
			return err
		}
		if err := l.accountIndex.Set(storage.U64(n), key, true); err != nil {
			return err
		}
		return l.accountCount.Set(n + 1)
	}
	return nil
}

// debitAccount removes value from an account, bumping the nonce when asked.
func (l *ledger) debitAccount(key dusk.AccountKey, value uint64, bumpNonce bool) error {
	acc, err := l.accounts.Get(key)
	if err != nil {
		return err
	}
	if acc.Balance < value {
		return reverts.Newf(reverts.KindInsufficientBalance, "balance %d below %d", acc.Balance, value)
	}
	acc.Balance -= value
	if bumpNonce {
		acc.Nonce++
	}
	return l.accounts.Set(key, acc, false)
}

func (l *ledger) contractBalance(id dusk.ContractID) (uint64, error) {
	return l.balances.Get(id)
}

func (l *ledger) creditContract(id dusk.ContractID, value uint64) error {
	known, err := l.balances.Has(id)
	if err != nil {
		return err
	}
	bal, err := l.balances.Get(id)
	if err != nil {
		return err
	}
	sum, ok := dusk.SafeAdd(bal, value)
	if !ok {
		return reverts.New(reverts.KindInvalidPayload, "contract balance overflow")
	}
	if err := l.balances.Set(id, sum, !known); err != nil {
		return err
	}
	if !known {
		n, err := l.contractCount.Get()
		if err != nil {
			return err
		}
		if err := l.contractIndex.Set(storage.U64(n), id, true); err != nil {
			return err
		}
		return l.contractCount.Set(n + 1)
	}
	return nil
}

func (l *ledger) debitContract(id dusk.ContractID, value uint64) error {
	bal, err := l.balances.Get(id)
	if err != nil {
		return err
	}
	if bal < value {
		return reverts.Newf(reverts.KindInsufficientBalance, "contract balance %d below %d", bal, value)
	}
	return l.balances.Set(id, bal-value, false)
}

func (l *ledger) nullifierSpent(n dusk.Bytes32) (bool, error) {
	return l.nullifiers.Has(n)
}

func (l *ledger) recordNullifier(n dusk.Bytes32) error {
	if err := l.nullifiers.Set(n, true, true); err != nil {
		return err
	}
	count, err := l.nullifierCount.Get()
	if err != nil {
		return err
	}
	if err := l.nullifierIndex.Set(storage.U64(count), n, true); err != nil {
		return err
	}
	return l.nullifierCount.Set(count + 1)
}

// pushNote appends the note at the next tree position and records its block
// height. The note's Pos field is assigned here.
func (l *ledger) pushNote(note *Note, height uint64) (pos uint64, err error) {
	pos, err = l.noteCount.Get()
	if err != nil {
		return 0, err
	}
	note.Pos = pos
	if err := l.notes.Set(storage.U64(pos), note, true); err != nil {
		return 0, err
	}
	if err := l.noteHeights.Set(storage.U64(pos), height, true); err != nil {
		return 0, err
	}
	return pos, l.noteCount.Set(pos + 1)
}

// snapshotLedger reads the same layout through a state snapshot, unmetered.
type snapshotLedger struct {
	ledger *ledger
	reader *state.Reader
}

func (s *snapshotLedger) note(pos uint64) (*Note, error) {
	return s.ledger.notes.SnapshotGet(s.reader, storage.U64(pos))
}

func (s *snapshotLedger) noteHeight(pos uint64) (uint64, error) {
	return s.ledger.noteHeights.SnapshotGet(s.reader, storage.U64(pos))
}

func (s *snapshotLedger) noteCount() (uint64, error) {
	return s.ledger.noteCount.SnapshotGet(s.reader)
}

func (s *snapshotLedger) nullifier(i uint64) (dusk.Bytes32, error) {
	return s.ledger.nullifierIndex.SnapshotGet(s.reader, storage.U64(i))
}

func (s *snapshotLedger) nullifierCount() (uint64, error) {
	return s.ledger.nullifierCount.SnapshotGet(s.reader)
}

func (s *snapshotLedger) accountAt(i uint64) (dusk.AccountKey, *Account, error) {
	key, err := s.ledger.accountIndex.SnapshotGet(s.reader, storage.U64(i))
	if err != nil {
		return dusk.AccountKey{}, nil, err
	}
	acc, err := s.ledger.accounts.SnapshotGet(s.reader, key)
	if err != nil {
		return dusk.AccountKey{}, nil, err
	}
	return key, acc, nil
}

func (s *snapshotLedger) accountCount() (uint64, error) {
	return s.ledger.accountCount.SnapshotGet(s.reader)
}

func (s *snapshotLedger) contractAt(i uint64) (dusk.ContractID, uint64, error) {
	id, err := s.ledger.contractIndex.SnapshotGet(s.reader, storage.U64(i))
	if err != nil {
		return dusk.ContractID{}, 0, err
	}
	bal, err := s.ledger.balances.SnapshotGet(s.reader, id)
	if err != nil {
		return dusk.ContractID{}, 0, err
	}
	return id, bal, nil
}

func (s *snapshotLedger) contractCount() (uint64, error) {
	return s.ledger.contractCount.SnapshotGet(s.reader)
}
