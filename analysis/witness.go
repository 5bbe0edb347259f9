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
	"golang.org/x/exp/slices"
)

// DefaultMarker is the tag attached to entries derived from a scan.
const DefaultMarker uint64 = 1

// Entry is a single claim that Pos is a valid jump destination.
type Entry struct {
	Pos    uint64 `json:"pos"`
	Marker uint64 `json:"marker"`
}

// Witness is an untrusted, unordered set of claims, possibly with duplicates.
type Witness []Entry

// SortedWitness is a witness with exactly one entry per position, in
// strictly increasing position order.
type SortedWitness []Entry

// WitnessFromPositions tags every position with DefaultMarker.
func WitnessFromPositions(positions []uint64) Witness {
	w := make(Witness, len(positions))
	for i, pos := range positions {
		w[i] = Entry{Pos: pos, Marker: DefaultMarker}
	}
	return w
}

// Canonicalize sorts a witness by position and merges duplicate entries.
// Duplicates must agree on their marker. The input is left untouched.
func Canonicalize(w Witness) (SortedWitness, error) {
	sorted := make([]Entry, len(w))
	copy(sorted, w)
	slices.SortStableFunc(sorted, func(a, b Entry) int {
		switch {
		case a.Pos < b.Pos:
			return -1
		case a.Pos > b.Pos:
			return 1
		}
		return 0
	})

	out := sorted[:0]
	for _, e := range sorted {
		if e.Marker == 0 {
			return nil, entryErr(ErrInvalidMarker, e.Pos, "zero marker")
		}
		if n := len(out); n > 0 && out[n-1].Pos == e.Pos {
			if out[n-1].Marker != e.Marker {
				return nil, entryErr(ErrConflictingEntry, e.Pos, "markers %d and %d", out[n-1].Marker, e.Marker)
			}
			continue
		}
		out = append(out, e)
	}
	return SortedWitness(out), nil
}

// Positions returns the positions of the witness in order.
func (w SortedWitness) Positions() []uint64 {
	positions := make([]uint64, len(w))
	for i, e := range w {
		positions[i] = e.Pos
	}
	return positions
}
