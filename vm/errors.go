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

import "errors"

// Kind enumerates the VM-level failure reasons the executor must classify
// without collapsing into one generic error. Any error returned by an
// Interpreter that is not a StateDbError is wrapped as one of these.
type Kind uint8

const (
	KindOutOfGas Kind = iota
	KindBadJumpDestination
	KindBadInstruction
	KindStackUnderflow
	KindOutOfStack
	KindMutableCallInStaticContext
	KindOutOfDepth
	KindReverted
	KindInternalContract
	KindBuiltIn
	KindStateDbError
)

func (k Kind) String() string {
	switch k {
	case KindOutOfGas:
		return "OutOfGas"
	case KindBadJumpDestination:
		return "BadJumpDestination"
	case KindBadInstruction:
		return "BadInstruction"
	case KindStackUnderflow:
		return "StackUnderflow"
	case KindOutOfStack:
		return "OutOfStack"
	case KindMutableCallInStaticContext:
		return "MutableCallInStaticContext"
	case KindOutOfDepth:
		return "OutOfDepth"
	case KindReverted:
		return "Reverted"
	case KindInternalContract:
		return "InternalContract"
	case KindBuiltIn:
		return "BuiltIn"
	case KindStateDbError:
		return "StateDbError"
	default:
		return "Unknown"
	}
}

// Error is the VM's own failure taxonomy. It is distinct from a database
// fault (see state.Error) so the two tiers are never collapsed, per the
// propagation policy in spec.md §7.
type Error struct {
	Kind  Kind
	Cause error
}

func NewError(kind Kind) *Error { return &Error{Kind: kind} }

func WrapStateDbError(cause error) *Error {
	return &Error{Kind: KindStateDbError, Cause: cause}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Kind.String() + ": " + e.Cause.Error()
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Cause }

// Sentinel instances for the stateless Kind values, used at call sites that
// just need to signal "this failure kind" without an underlying cause.
var (
	ErrOutOfGas                   = NewError(KindOutOfGas)
	ErrBadJumpDestination         = NewError(KindBadJumpDestination)
	ErrBadInstruction             = NewError(KindBadInstruction)
	ErrStackUnderflow             = NewError(KindStackUnderflow)
	ErrOutOfStack                 = NewError(KindOutOfStack)
	ErrMutableCallInStaticContext = NewError(KindMutableCallInStaticContext)
	ErrOutOfDepth                 = NewError(KindOutOfDepth)
	ErrReverted                   = NewError(KindReverted)
)

// IsStateDbError reports whether err is (or wraps) a database fault,
// distinct from any VM execution failure.
func IsStateDbError(err error) bool {
	var vmErr *Error
	if errors.As(err, &vmErr) {
		return vmErr.Kind == KindStateDbError
	}
	return false
}
