// Copyright (c) 2025 The dusk-go developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package dusk

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const (
	// ContractIDLength length of a contract id in bytes.
	ContractIDLength = 32
	// AccountKeyLength length of a serialized account public key in bytes.
	AccountKeyLength = 96
	// StealthAddressLength length of a serialized stealth address in bytes.
	StealthAddressLength = 64
)

// ContractID identifies a deployed contract.
type ContractID [ContractIDLength]byte

// String implements the stringer interface
func (c ContractID) String() string {
	return "0x" + hex.EncodeToString(c[:])
}

// Bytes returns byte slice form of ContractID.
func (c ContractID) Bytes() []byte {
	return c[:]
}

// IsZero returns if ContractID has all zero bytes.
// The zero contract id denotes the protocol host, which is not a contract.
func (c ContractID) IsZero() bool {
	return c == ContractID{}
}

// ParseContractID convert string presented contract id into ContractID type.
func ParseContractID(s string) (*ContractID, error) {
	if len(s) == ContractIDLength*2 {
	} else if len(s) == ContractIDLength*2+2 {
		if strings.ToLower(s[:2]) != "0x" {
			return nil, errors.New("invalid prefix")
		}
		s = s[2:]
	} else {
		return nil, errors.New("invalid length")
	}

	var id ContractID
	if _, err := hex.Decode(id[:], []byte(s)); err != nil {
		return nil, err
	}
	return &id, nil
}

// BytesToContractID converts bytes slice into contract id.
// If b is larger than contract id length, b will be cropped (from the left).
// If b is smaller than contract id length, b will be extended (from the left).
func BytesToContractID(b []byte) ContractID {
	var id ContractID
	if len(b) > ContractIDLength {
		b = b[len(b)-ContractIDLength:]
	}
	copy(id[ContractIDLength-len(b):], b)
	return id
}

// MarshalJSON implements json.Marshaler.
func (c *ContractID) MarshalJSON() ([]byte, error) {
	if c == nil {
		return json.Marshal(nil)
	}
	return json.Marshal(c.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *ContractID) UnmarshalJSON(data []byte) error {
	var hex string
	if err := json.Unmarshal(data, &hex); err != nil {
		return err
	}
	parsed, err := ParseContractID(hex)
	if err != nil {
		return err
	}
	*c = *parsed
	return nil
}

// AccountKey is the serialized public key of a Moonlight account.
// It also identifies the holder of a stake.
type AccountKey [AccountKeyLength]byte

// String implements the stringer interface
func (a AccountKey) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

// AbbrevString returns abbrev string presentation.
func (a AccountKey) AbbrevString() string {
	return fmt.Sprintf("0x%x…%x", a[:4], a[AccountKeyLength-4:])
}

// Bytes returns byte slice form of AccountKey.
func (a AccountKey) Bytes() []byte {
	return a[:]
}

// IsZero returns if AccountKey has all zero bytes.
func (a AccountKey) IsZero() bool {
	return a == AccountKey{}
}

// BytesToAccountKey converts bytes slice into account key.
// If b is larger than account key length, b will be cropped (from the left).
// If b is smaller than account key length, b will be extended (from the left).
func BytesToAccountKey(b []byte) AccountKey {
	var key AccountKey
	if len(b) > AccountKeyLength {
		b = b[len(b)-AccountKeyLength:]
	}
	copy(key[AccountKeyLength-len(b):], b)
	return key
}

// StealthAddress is the one-time destination of a shielded note.
type StealthAddress [StealthAddressLength]byte

// String implements the stringer interface
func (s StealthAddress) String() string {
	return "0x" + hex.EncodeToString(s[:])
}

// Bytes returns byte slice form of StealthAddress.
func (s StealthAddress) Bytes() []byte {
	return s[:]
}

// IsZero returns if StealthAddress has all zero bytes.
func (s StealthAddress) IsZero() bool {
	return s == StealthAddress{}
}

// BytesToStealthAddress converts bytes slice into stealth address.
func BytesToStealthAddress(b []byte) StealthAddress {
	var sa StealthAddress
	if len(b) > StealthAddressLength {
		b = b[len(b)-StealthAddressLength:]
	}
	copy(sa[StealthAddressLength-len(b):], b)
	return sa
}
