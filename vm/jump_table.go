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
	gethvm "github.com/ethereum/go-ethereum/core/vm"
)

// Re-exported opcodes the analysis cares about.
const (
	JUMPDEST = gethvm.JUMPDEST
	PUSH1    = gethvm.PUSH1
	PUSH32   = gethvm.PUSH32
)

type OpCode = gethvm.OpCode

// Operation describes the static layout of a single opcode.
type Operation struct {
	// Name is the mnemonic, or a placeholder for undefined opcodes.
	Name string
	// Immediates is the number of push-data bytes owned by the opcode.
	Immediates int
	// Push is set for PUSH1..PUSH32.
	Push bool
	// JumpDest is set only for JUMPDEST.
	JumpDest bool
}

var legacyInstructionSet = NewLegacyInstructionSet()

// JumpTable contains the layout of every possible opcode byte.
type JumpTable [256]Operation

// NewLegacyInstructionSet returns the opcode layout of legacy (non-EOF) code.
// Push widths have not changed across forks, so one table serves all of them.
func NewLegacyInstructionSet() JumpTable {
	var instructionSet JumpTable
	for i := range instructionSet {
		op := OpCode(i)
		instructionSet[i] = Operation{Name: op.String()}
	}
	for op := PUSH1; op <= PUSH32; op++ {
		instructionSet[op].Push = true
		instructionSet[op].Immediates = int(op-PUSH1) + 1
	}
	instructionSet[JUMPDEST].JumpDest = true
	return instructionSet
}

// LegacyInstructionSet returns the shared legacy table.
func LegacyInstructionSet() *JumpTable {
	return &legacyInstructionSet
}

// Width returns the number of bytes an instruction starting with op spans,
// immediates included.
func (jt *JumpTable) Width(op byte) uint64 {
	return 1 + uint64(jt[op].Immediates)
}
