// Copyright 2014 The go-ethereum Authors
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

package state

import "fmt"

// Kind enumerates the StateDB's own fault taxonomy (distinct from vm.Kind):
// an infrastructure fault, never a transaction outcome (spec.md §7 tier 3).
type Kind uint8

const (
	KindIncompleteDatabase Kind = iota
	KindDecoderError
	KindArithmeticUnderflow
)

func (k Kind) String() string {
	switch k {
	case KindIncompleteDatabase:
		return "IncompleteDatabase"
	case KindDecoderError:
		return "DecoderError"
	case KindArithmeticUnderflow:
		return "ArithmeticUnderflow"
	default:
		return "Unknown"
	}
}

// Error is a database/codec fault. It always short-circuits transact() as a
// Go error, never as an ExecutionOutcome variant.
type Error struct {
	Kind  Kind
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Cause)
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Cause }

func ErrIncompleteDatabase(cause error) *Error {
	return &Error{Kind: KindIncompleteDatabase, Cause: cause}
}

func ErrDecoder(cause error) *Error {
	return &Error{Kind: KindDecoderError, Cause: cause}
}

func ErrArithmeticUnderflow(msg string) *Error {
	return &Error{Kind: KindArithmeticUnderflow, Cause: fmt.Errorf("%s", msg)}
}
