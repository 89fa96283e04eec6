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

package vm

import "github.com/conflux-chain/cfx-evm-executor/common"

// FinalizationResult is what one frame hands back to its caller once the
// interpreter has finished running it: how much gas is left, the raw
// return/revert data, and whether the frame's state changes should be kept.
type FinalizationResult struct {
	GasLeft    uint64
	ReturnData []byte
	ApplyState bool
}

// VMStep is one interpreter step worth recording. Duplicated narrowly from
// observer.VMStep (rather than importing the observer package here) so the
// boundary package stays free of the tracing package's concrete types.
type VMStep struct {
	PC    uint64
	Op    byte
	Gas   uint64
	Depth int
}

// VMTracer is the seam an Interpreter uses to reach the host's pluggable
// VM-tracer slot (spec.md §4.5, the C5 observer's second component). A host
// whose tracer slot is empty still returns a non-nil VMTracer whose
// TraceStep is a no-op, so the interpreter never has to nil-check.
type VMTracer interface {
	TraceStep(step VMStep)
}

// Host is the callback surface a running frame exposes to the interpreter
// so that CALL/CREATE opcodes can recurse into a nested frame. It is the
// Go equivalent of the source's FrameStack exec loop: the interpreter is
// the only thing that decides *when* to call Host.Call/Host.Create, the
// frame stack decides *how*.
type Host interface {
	// Call executes a nested CALL-family frame and returns once it (and any
	// further nested frames) have completed.
	Call(params *ActionParams) (FinalizationResult, error)
	// Create executes a nested CREATE-family frame.
	Create(params *ActionParams) (FinalizationResult, error)
	// Depth is the 0-based nesting depth of the frame issuing the call.
	Depth() int
	// Static reports whether the current frame forbids state mutation.
	Static() bool
	// VMTracer exposes the host's pluggable step tracer.
	VMTracer() VMTracer
}

// Interpreter runs one frame of bytecode to completion, gas exhaustion, or
// a VM-level error. Its internal opcode semantics are out of this module's
// scope: any conforming implementation (including a test double) may be
// plugged in through a VMFactory.
type Interpreter interface {
	Run(params *ActionParams, host Host) (FinalizationResult, error)
}

// VMFactory constructs an Interpreter for a given space. Real
// implementations select opcode tables, precompiles, and hard-fork rules
// by space and block number; this module only consumes the interface.
type VMFactory interface {
	Create(space common.Space) Interpreter
}

// Machine bundles a VMFactory with whatever chain-rule lookups the
// interpreter needs. The executor only ever asks a Machine for its
// VMFactory.
type Machine interface {
	VMFactory() VMFactory
}
