// Copyright (c) 2025 The dusk-go developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package reverts defines the rejection errors of genesis contract entry
// points. A revert means no state was mutated; callers see an explicit kind.
package reverts

import (
	"errors"
	"fmt"
)

// Kind classifies a rejection.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindUnauthorized
	KindInvalidPayload
	KindInvalidProof
	KindInvalidSignature
	KindStaleRoot
	KindNullifierSpent
	KindNonceMismatch
	KindInsufficientBalance
	KindDepositMismatch
	KindBelowMinimumStake
	KindAlreadyStaked
	KindNoStake
	KindNothingToWithdraw
	KindMalformedBatch
	KindFeatureDisabled
	KindEmissionExceeded
)

func (k Kind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindInvalidPayload:
		return "invalid payload"
	case KindInvalidProof:
		return "invalid proof"
	case KindInvalidSignature:
		return "invalid signature"
	case KindStaleRoot:
		return "stale root"
	case KindNullifierSpent:
		return "nullifier already spent"
	case KindNonceMismatch:
		return "nonce mismatch"
	case KindInsufficientBalance:
		return "insufficient balance"
	case KindDepositMismatch:
		return "deposit mismatch"
	case KindBelowMinimumStake:
		return "stake below minimum"
	case KindAlreadyStaked:
		return "already staked"
	case KindNoStake:
		return "no active stake"
	case KindNothingToWithdraw:
		return "nothing to withdraw"
	case KindMalformedBatch:
		return "malformed batch"
	case KindFeatureDisabled:
		return "feature disabled"
	case KindEmissionExceeded:
		return "emission exceeded"
	default:
		return "unknown"
	}
}

// ErrRevert is a pre-state-mutation rejection.
type ErrRevert struct {
	kind    Kind
	message string
}

// New creates a revert of the given kind.
func New(kind Kind, message string) *ErrRevert {
	return &ErrRevert{kind: kind, message: message}
}

// Newf creates a revert of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...any) *ErrRevert {
	return &ErrRevert{kind: kind, message: fmt.Sprintf(format, args...)}
}

func (e *ErrRevert) Error() string {
	if e.message == "" {
		return e.kind.String()
	}
	return e.kind.String() + ": " + e.message
}

// Kind returns the rejection kind.
func (e *ErrRevert) Kind() Kind {
	return e.kind
}

// IsRevert reports whether err is a rejection.
func IsRevert(err error) bool {
	var ve *ErrRevert
	return errors.As(err, &ve)
}

// KindOf returns the rejection kind of err, or KindUnknown when err is not
// a rejection.
func KindOf(err error) Kind {
	var ve *ErrRevert
	if errors.As(err, &ve) {
		return ve.kind
	}
	return KindUnknown
}
