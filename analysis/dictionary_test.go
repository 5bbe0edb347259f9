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
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func mustAnalyze(t *testing.T, code []byte) *Dictionary {
	t.Helper()
	dict, err := finalizePositions(t, code, Scan(code)...)
	require.NoError(t, err)
	return dict
}

func TestIsValid(t *testing.T) {
	dict := mustAnalyze(t, []byte{0x5b, 0x60, 0x01, 0x5b})

	for pos, exp := range []bool{true, false, false, true} {
		valid, err := dict.IsValid(uint64(pos))
		require.NoError(t, err)
		require.Equal(t, exp, valid, "pos %d", pos)
	}
	valid, err := dict.IsValid(4)
	require.ErrorIs(t, err, ErrOutOfRangeQuery)
	require.False(t, valid)
	require.False(t, dict.Contains(4))
}

func TestIsValidSingleJumpdest(t *testing.T) {
	dict := mustAnalyze(t, []byte{0x5b})
	require.Equal(t, 1, dict.Len())

	valid, err := dict.IsValid(0)
	require.NoError(t, err)
	require.True(t, valid)

	_, err = dict.IsValid(1)
	require.ErrorIs(t, err, ErrOutOfRangeQuery)
}

func TestIsValidEmptyCode(t *testing.T) {
	dict := mustAnalyze(t, nil)
	require.Zero(t, dict.Len())
	require.Zero(t, dict.CodeLen())
	for _, pos := range []uint64{0, 1, 1 << 40} {
		require.False(t, dict.Contains(pos))
		_, err := dict.IsValid(pos)
		require.ErrorIs(t, err, ErrOutOfRangeQuery)
	}
}

func TestIsValidWord(t *testing.T) {
	dict := mustAnalyze(t, []byte{0x60, 0x03, 0x56, 0x5b})

	valid, err := dict.IsValidWord(uint256.NewInt(3))
	require.NoError(t, err)
	require.True(t, valid)

	valid, err = dict.IsValidWord(uint256.NewInt(1))
	require.NoError(t, err)
	require.False(t, valid)

	huge := new(uint256.Int).Lsh(uint256.NewInt(1), 100)
	_, err = dict.IsValidWord(huge)
	require.ErrorIs(t, err, ErrOutOfRangeQuery)
	var entryErr *EntryError
	require.False(t, errors.As(err, &entryErr), "no position to report for a 256-bit word")

	valid, err = dict.IsValidWord(nil)
	require.ErrorIs(t, err, ErrOutOfRangeQuery)
	require.False(t, valid)
}

func TestDictionaryDigest(t *testing.T) {
	code := []byte{0x5b, 0x61, 0x5b, 0x5b, 0x5b}
	first := mustAnalyze(t, code)
	second := mustAnalyze(t, code)
	require.Equal(t, first.Digest(), second.Digest())
	require.Equal(t, crypto.Keccak256Hash(code), first.CodeHash())

	other := mustAnalyze(t, []byte{0x5b, 0x61, 0x5b, 0x5b, 0x00})
	require.NotEqual(t, first.Digest(), other.Digest())
}

func TestPositionsIsCopy(t *testing.T) {
	dict := mustAnalyze(t, []byte{0x5b, 0x5b})
	positions := dict.Positions()
	require.Equal(t, []uint64{0, 1}, positions)
	positions[0] = 42
	require.Equal(t, []uint64{0, 1}, dict.Positions())
}
