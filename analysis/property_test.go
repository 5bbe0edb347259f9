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
	"testing"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// codeGen favours pushes and jump destinations so that push-data shadowing
// JUMPDEST bytes is common.
func codeGen() *rapid.Generator[[]byte] {
	interesting := rapid.SampledFrom([]byte{0x5b, 0x5b, 0x60, 0x61, 0x67, 0x7f, 0x5f, 0x00, 0x56})
	return rapid.SliceOfN(rapid.OneOf(interesting, rapid.Byte()), 0, 96)
}

func nonDestinations(code []byte, dests mapset.Set[uint64]) []uint64 {
	var out []uint64
	for pos := uint64(0); pos < uint64(len(code))+4; pos++ {
		if !dests.Contains(pos) {
			out = append(out, pos)
		}
	}
	return out
}

func TestScanFinalizeAgree(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		code := codeGen().Draw(t, "code")
		sorted, err := Canonicalize(WitnessFromPositions(Scan(code)))
		require.NoError(t, err)
		dict, err := Finalize(code, sorted)
		require.NoError(t, err)
		require.True(t, ScanSet(code).Equal(mapset.NewThreadUnsafeSet[uint64](dict.Positions()...)))
	})
}

func TestFinalizeSoundness(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		code := codeGen().Draw(t, "code")
		dests := ScanSet(code)
		bogus := rapid.SampledFrom(nonDestinations(code, dests)).Draw(t, "bogus")

		w := rapid.Permutation(WitnessFromPositions(append(Scan(code), bogus))).Draw(t, "witness")
		sorted, err := Canonicalize(w)
		require.NoError(t, err)
		_, err = Finalize(code, sorted)
		require.ErrorIs(t, err, ErrInvalidEntry)
	})
}

func TestFinalizeCompleteness(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		code := codeGen().Draw(t, "code")
		dests := Scan(code)
		if len(dests) == 0 {
			return
		}
		omit := rapid.IntRange(0, len(dests)-1).Draw(t, "omit")
		partial := append(append([]uint64{}, dests[:omit]...), dests[omit+1:]...)

		sorted, err := Canonicalize(WitnessFromPositions(partial))
		require.NoError(t, err)
		_, err = Finalize(code, sorted)
		require.ErrorIs(t, err, ErrMissingEntry)
	})
}

func TestFinalizeArbitraryWitness(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		code := codeGen().Draw(t, "code")
		positions := rapid.SliceOfN(rapid.Uint64Range(0, uint64(len(code))+2), 0, 16).Draw(t, "positions")
		sorted, err := Canonicalize(WitnessFromPositions(positions))
		require.NoError(t, err)
		dict, err := Finalize(code, sorted)
		if err != nil {
			return
		}
		require.True(t, ScanSet(code).Equal(mapset.NewThreadUnsafeSet[uint64](dict.Positions()...)))
	})
}

func TestCanonicalizeIdempotence(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		positions := rapid.SliceOfN(rapid.Uint64Range(0, 64), 0, 48).Draw(t, "positions")
		w := make(Witness, len(positions))
		for i, pos := range positions {
			w[i] = Entry{Pos: pos, Marker: pos%3 + 1}
		}
		once, err := Canonicalize(w)
		require.NoError(t, err)
		twice, err := Canonicalize(Witness(once))
		require.NoError(t, err)
		require.Equal(t, once, twice)
		for i := 1; i < len(once); i++ {
			require.Less(t, once[i-1].Pos, once[i].Pos)
		}
	})
}

func TestQueryStability(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		code := codeGen().Draw(t, "code")
		sorted, err := Canonicalize(WitnessFromPositions(Scan(code)))
		require.NoError(t, err)
		dict, err := Finalize(code, sorted)
		require.NoError(t, err)

		pos := rapid.Uint64Range(0, uint64(len(code))+4).Draw(t, "pos")
		first, firstErr := dict.IsValid(pos)
		for i := 0; i < 3; i++ {
			valid, err := dict.IsValid(pos)
			require.Equal(t, first, valid)
			require.Equal(t, firstErr, err)
		}
		require.Equal(t, pos >= uint64(len(code)), firstErr != nil)
	})
}
