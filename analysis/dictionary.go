// Copyright 2018 MPI-SWS and Valentin Wuestholz

// This file is part of Bran.
//
// Bran is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Bran is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Bran.  If not, see <https://www.gnu.org/licenses/>.

package analysis

import (
	"encoding/binary"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"golang.org/x/crypto/sha3"
	"golang.org/x/exp/slices"
)

// Dictionary is the set of jump destinations of one piece of code, built by
// Finalize. It is never modified after construction and may be shared freely.
type Dictionary struct {
	codeLen   uint64
	codeHash  common.Hash
	dests     bitvec
	positions []uint64 // ascending
}

// Contains reports whether pos is in the dictionary. Positions outside the
// code are simply absent.
func (d *Dictionary) Contains(pos uint64) bool {
	if pos >= d.codeLen {
		return false
	}
	return d.dests.isSet(pos)
}

// IsValid reports whether pos is a valid jump destination of the code the
// dictionary was verified against. Queries at or past the end of the code
// fail with ErrOutOfRangeQuery.
func (d *Dictionary) IsValid(pos uint64) (bool, error) {
	if pos >= d.codeLen {
		return false, entryErr(ErrOutOfRangeQuery, pos, "code length is %d", d.codeLen)
	}
	return d.dests.isSet(pos), nil
}

// IsValidWord is IsValid for a destination taken from the EVM stack. Words
// that do not fit in 64 bits are out of range.
func (d *Dictionary) IsValidWord(dest *uint256.Int) (bool, error) {
	if dest == nil {
		return false, fmt.Errorf("%w: nil destination", ErrOutOfRangeQuery)
	}
	if !dest.IsUint64() {
		return false, fmt.Errorf("%w: destination %s exceeds 64 bits", ErrOutOfRangeQuery, dest.Hex())
	}
	return d.IsValid(dest.Uint64())
}

// Len returns the number of jump destinations.
func (d *Dictionary) Len() int {
	return len(d.positions)
}

// CodeLen returns the length of the verified code.
func (d *Dictionary) CodeLen() uint64 {
	return d.codeLen
}

// CodeHash returns the keccak256 hash of the verified code.
func (d *Dictionary) CodeHash() common.Hash {
	return d.codeHash
}

// Positions returns a copy of the jump destinations in ascending order.
func (d *Dictionary) Positions() []uint64 {
	return slices.Clone(d.positions)
}

// matches reports whether a canonical witness lists exactly the dictionary's
// positions.
func (d *Dictionary) matches(w SortedWitness) bool {
	if len(w) != len(d.positions) {
		return false
	}
	for i, e := range w {
		if e.Pos != d.positions[i] {
			return false
		}
	}
	return true
}

// Digest commits to the code hash, the code length and the destinations.
// Rebuilding the dictionary for the same code always yields the same digest.
func (d *Dictionary) Digest() common.Hash {
	h := sha3.NewLegacyKeccak256()
	h.Write(d.codeHash.Bytes())
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], d.codeLen)
	h.Write(buf[:])
	for _, pos := range d.positions {
		binary.BigEndian.PutUint64(buf[:], pos)
		h.Write(buf[:])
	}
	return common.BytesToHash(h.Sum(nil))
}
