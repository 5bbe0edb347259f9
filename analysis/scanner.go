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
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/practical-formal-methods/jumpdest/vm"
)

// codeWalker visits the instruction boundaries of a piece of code in order.
// Push-data is skipped without being interpreted; a push whose immediates run
// past the end of the code absorbs the remaining bytes.
type codeWalker struct {
	code []byte
	jt   *vm.JumpTable
	pc   uint64
}

func newCodeWalker(code []byte) *codeWalker {
	return &codeWalker{code: code, jt: vm.LegacyInstructionSet()}
}

// next returns the next boundary and the layout of the opcode found there.
// It returns false once the walker has moved past the end of the code.
func (w *codeWalker) next() (pc uint64, op vm.Operation, ok bool) {
	if w.pc >= uint64(len(w.code)) {
		return 0, vm.Operation{}, false
	}
	pc = w.pc
	op = w.jt[w.code[pc]]
	w.pc += w.jt.Width(w.code[pc])
	return pc, op, true
}

// Scan returns the valid jump destinations of code in ascending order.
func Scan(code []byte) []uint64 {
	var dests []uint64
	w := newCodeWalker(code)
	for pc, op, ok := w.next(); ok; pc, op, ok = w.next() {
		if op.JumpDest {
			dests = append(dests, pc)
		}
	}
	return dests
}

// ScanSet is Scan as a set.
func ScanSet(code []byte) mapset.Set[uint64] {
	return mapset.NewThreadUnsafeSet[uint64](Scan(code)...)
}

// dataBitmap marks every push-data byte of code. Immediates of a truncated
// trailing push are marked up to the end of the code only.
func dataBitmap(code []byte) bitvec {
	size := uint64(len(code))
	bits := newBitvec(size)
	w := newCodeWalker(code)
	for pc, op, ok := w.next(); ok; pc, op, ok = w.next() {
		if !op.Push {
			continue
		}
		for pos := pc + 1; pos <= pc+uint64(op.Immediates) && pos < size; pos++ {
			bits.set(pos)
		}
	}
	return bits
}

// bitvec is a bit vector indexed by code position.
type bitvec []byte

func newBitvec(size uint64) bitvec {
	return make(bitvec, size/8+1)
}

func (bits bitvec) set(pos uint64) {
	bits[pos/8] |= 0x80 >> (pos % 8)
}

func (bits bitvec) isSet(pos uint64) bool {
	return bits[pos/8]&(0x80>>(pos%8)) != 0
}
