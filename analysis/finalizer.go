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
	"github.com/ethereum/go-ethereum/crypto"
)

// Finalize checks a canonical witness against code in a single walk and
// returns the verified dictionary.
//
// The walk visits instruction boundaries exactly as Scan does while a second
// cursor consumes the witness. Every JUMPDEST boundary must match the next
// witness entry (completeness), and no entry may be left behind a boundary or
// sit on a boundary holding another opcode (soundness). Entries that the
// boundary cursor jumps over are on push-data; entries left at the end point
// past the code or into trailing push-data.
func Finalize(code []byte, w SortedWitness) (*Dictionary, error) {
	dests := newBitvec(uint64(len(code)))
	positions := make([]uint64, 0, len(w))

	next := 0
	walker := newCodeWalker(code)
	for pc, op, ok := walker.next(); ok; pc, op, ok = walker.next() {
		if next < len(w) && w[next].Pos < pc {
			return nil, skippedEntryErr(code, w[next].Pos)
		}
		claimed := next < len(w) && w[next].Pos == pc
		if !op.JumpDest {
			if claimed {
				return nil, entryErr(ErrInvalidEntry, pc, "opcode is %s", opName(code, pc))
			}
			continue
		}
		if !claimed {
			return nil, entryErr(ErrMissingEntry, pc, "JUMPDEST not in witness")
		}
		dests.set(pc)
		positions = append(positions, pc)
		next++
	}
	if next < len(w) {
		return nil, skippedEntryErr(code, w[next].Pos)
	}
	return &Dictionary{
		codeLen:   uint64(len(code)),
		codeHash:  crypto.Keccak256Hash(code),
		dests:     dests,
		positions: positions,
	}, nil
}

// skippedEntryErr explains an entry the boundary cursor moved past without
// consuming it. Only the error path pays for the push-data bitmap.
func skippedEntryErr(code []byte, pos uint64) error {
	switch {
	case pos >= uint64(len(code)):
		return entryErr(ErrInvalidEntry, pos, "position beyond code length %d", len(code))
	case dataBitmap(code).isSet(pos):
		return entryErr(ErrInvalidEntry, pos, "position is push-data")
	}
	return entryErr(ErrInvalidEntry, pos, "entry out of order or duplicated")
}
