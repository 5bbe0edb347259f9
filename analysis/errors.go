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
	"fmt"

	"github.com/practical-formal-methods/jumpdest/vm"
)

var (
	// ErrConflictingEntry is returned when a witness holds two entries for the
	// same position with different markers.
	ErrConflictingEntry = errors.New("conflicting witness entry")
	// ErrInvalidEntry is returned when a witness claims a position that is not
	// a JUMPDEST instruction boundary.
	ErrInvalidEntry = errors.New("invalid witness entry")
	// ErrMissingEntry is returned when a witness omits a valid jump destination.
	ErrMissingEntry = errors.New("missing witness entry")
	// ErrOutOfRangeQuery is returned for membership queries at or beyond the
	// end of the code.
	ErrOutOfRangeQuery = errors.New("query out of code range")
	// ErrInvalidMarker is returned for witness entries carrying a zero marker.
	ErrInvalidMarker = errors.New("invalid witness marker")
)

var ConflictingEntryFail = "conflicting-entry"
var InvalidEntryFail = "invalid-entry"
var MissingEntryFail = "missing-entry"
var InvalidMarkerFail = "invalid-marker"
var InternalFail = "internal-failure"

// EntryError describes a witness rejection at a specific position.
type EntryError struct {
	Err    error
	Pos    uint64
	Reason string
}

func (e *EntryError) Error() string {
	return fmt.Sprintf("%v at pc %d: %s", e.Err, e.Pos, e.Reason)
}

func (e *EntryError) Unwrap() error {
	return e.Err
}

func entryErr(err error, pos uint64, format string, args ...interface{}) *EntryError {
	return &EntryError{Err: err, Pos: pos, Reason: fmt.Sprintf(format, args...)}
}

// opName renders the opcode at pos for diagnostics.
func opName(code []byte, pos uint64) string {
	if pos >= uint64(len(code)) {
		return "end of code"
	}
	return vm.LegacyInstructionSet()[code[pos]].Name
}

// FailureCause maps a rejection to the short cause string used in statistics.
func FailureCause(err error) string {
	switch {
	case errors.Is(err, ErrConflictingEntry):
		return ConflictingEntryFail
	case errors.Is(err, ErrInvalidEntry):
		return InvalidEntryFail
	case errors.Is(err, ErrMissingEntry):
		return MissingEntryFail
	case errors.Is(err, ErrInvalidMarker):
		return InvalidMarkerFail
	}
	return InternalFail
}
