// Copyright (c) 2025 The dusk-go developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package emission defines the genesis emission schedule: a monotonic table
// of height bands capping how much supply may have been minted by a height.
// The stake contract validates every mint against it before calling into the
// transfer contract.
package emission

import (
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/dusk-network/dusk-go/dusk"
)

// Band caps cumulative minted supply through a height range.
type Band struct {
	From uint64 `yaml:"from"`
	To   uint64 `yaml:"to"`
	Cap  uint64 `yaml:"cap"`
}

// Schedule is a validated, monotonic emission table.
type Schedule struct {
	bands []Band
}

// New validates the bands and creates a schedule. Bands must be contiguous,
// start at height zero, and carry non-decreasing caps.
func New(bands []Band) (*Schedule, error) {
	if len(bands) == 0 {
		return nil, errors.New("emission: empty schedule")
	}
	if bands[0].From != 0 {
		return nil, errors.New("emission: schedule must start at height 0")
	}
	for i, b := range bands {
		if b.To < b.From {
			return nil, errors.Errorf("emission: band %d is inverted", i)
		}
		if i > 0 {
			if b.From != bands[i-1].To+1 {
				return nil, errors.Errorf("emission: band %d is not contiguous", i)
			}
			if b.Cap < bands[i-1].Cap {
				return nil, errors.Errorf("emission: band %d decreases the cap", i)
			}
		}
	}
	return &Schedule{bands: bands}, nil
}

// Parse reads a schedule from yaml.
func Parse(data []byte) (*Schedule, error) {
	var bands []Band
	if err := yaml.Unmarshal(data, &bands); err != nil {
		return nil, errors.Wrap(err, "emission: parse schedule")
	}
	return New(bands)
}

// MaxMintable returns the cumulative supply cap at the given height.
// Heights beyond the last band stay at the final cap.
func (s *Schedule) MaxMintable(height uint64) uint64 {
	for _, b := range s.bands {
		if height <= b.To {
			return b.Cap
		}
	}
	return s.bands[len(s.bands)-1].Cap
}

// Default returns the mainnet-style schedule: 500M DUSK emitted over four
// halving bands on top of the genesis supply.
func Default() *Schedule {
	const yearBlocks = 365 * 24 * 60 * 6 // 10s block target

	s, err := New([]Band{
		{From: 0, To: 9*yearBlocks - 1, Cap: 250_000_000 * dusk.Dusk},
		{From: 9 * yearBlocks, To: 18*yearBlocks - 1, Cap: 375_000_000 * dusk.Dusk},
		{From: 18 * yearBlocks, To: 27*yearBlocks - 1, Cap: 437_500_000 * dusk.Dusk},
		{From: 27 * yearBlocks, To: 36*yearBlocks - 1, Cap: 500_000_000 * dusk.Dusk},
	})
	if err != nil {
		panic(err)
	}
	return s
}
