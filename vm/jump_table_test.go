// Copyright 2015 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package vm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLegacyInstructionSetWidths(t *testing.T) {
	jt := LegacyInstructionSet()
	for i := 0; i < 256; i++ {
		op := byte(i)
		switch {
		case op >= byte(PUSH1) && op <= byte(PUSH32):
			n := uint64(op-byte(PUSH1)) + 1
			require.Equal(t, 1+n, jt.Width(op), "opcode %#x", op)
			require.True(t, jt[op].Push)
		default:
			require.Equal(t, uint64(1), jt.Width(op), "opcode %#x", op)
			require.False(t, jt[op].Push)
		}
		require.Equal(t, op == 0x5b, jt[op].JumpDest, "opcode %#x", op)
	}
}

func TestLegacyInstructionSetNames(t *testing.T) {
	jt := LegacyInstructionSet()
	require.Equal(t, "JUMPDEST", jt[JUMPDEST].Name)
	require.Equal(t, "PUSH1", jt[PUSH1].Name)
	require.Equal(t, "PUSH32", jt[PUSH32].Name)
}
