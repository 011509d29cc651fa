// Copyright (c) 2025 The dusk-go developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package dusk

// Constants of the chain protocol.
const (
	// ChainID identifies the network in signed payloads and proofs.
	ChainID byte = 0x01

	// EpochLength number of blocks per epoch.
	EpochLength uint64 = 2160

	// MaturityEpochs number of whole epochs a stake must wait before it
	// becomes eligible for consensus participation.
	MaturityEpochs uint64 = 2

	// RootHistoryLen number of past note-tree roots retained for proof
	// verification. Proofs bound to roots older than this window are
	// rejected.
	RootHistoryLen = 300

	// NoteTreeDepth depth of the append-only note tree.
	NoteTreeDepth = 32

	// Dusk atomic units per whole DUSK.
	Dusk uint64 = 1_000_000_000

	// MinimumStakeDefault default minimum stake amount, overridable via the
	// stake contract config.
	MinimumStakeDefault uint64 = 1_000 * Dusk

	// StakeWarningsDefault default number of tolerated faults before a slash
	// shifts eligibility.
	StakeWarningsDefault uint8 = 1
)

// Gas costs of storage operations performed by genesis contracts.
const (
	SloadGas       uint64 = 200
	SstoreSetGas   uint64 = 20000
	SstoreResetGas uint64 = 5000
	GetBalanceGas  uint64 = 400
	LogDataGas     uint64 = 8
	LogTopicGas    uint64 = 375
)

// IDs of the genesis contracts.
var (
	TransferContractID = BytesToContractID([]byte{0x01})
	StakeContractID    = BytesToContractID([]byte{0x02})
)

// EpochStart returns the first height of the epoch containing height.
func EpochStart(height uint64) uint64 {
	return height - height%EpochLength
}

// NextEpoch returns the first height of the epoch after the one containing height.
func NextEpoch(height uint64) uint64 {
	return EpochStart(height) + EpochLength
}

// EligibilityAt returns the height at which a stake created at height matures.
func EligibilityAt(height uint64) uint64 {
	return EpochStart(height) + MaturityEpochs*EpochLength
}
