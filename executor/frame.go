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

// Package executor is the nested call/create frame engine (C4) and the
// transaction orchestrator (C6) built on top of it.
package executor

import (
	"github.com/conflux-chain/cfx-evm-executor/observer"
	"github.com/conflux-chain/cfx-evm-executor/params"
	"github.com/conflux-chain/cfx-evm-executor/state"
	"github.com/conflux-chain/cfx-evm-executor/vm"
)

// Frame is one in-flight VM invocation. It implements vm.Host so the
// interpreter can recurse into nested CALL/CREATE frames through it.
type Frame struct {
	params *vm.ActionParams
	depth  int
	static bool
	stack  *FrameStack

	// substate accumulates this frame's own side effects before being
	// folded into (or discarded from) the parent on return.
	substate *state.Substate
}

// newFrame is shared by NewCallFrame and NewCreateFrame.
func newFrame(stack *FrameStack, p *vm.ActionParams, depth int, static bool) *Frame {
	return &Frame{
		params:   p,
		depth:    depth,
		static:   static,
		stack:    stack,
		substate: state.NewSubstate(),
	}
}

// NewCallFrame builds a frame for a CALL-family invocation.
func NewCallFrame(stack *FrameStack, p *vm.ActionParams, depth int, static bool) *Frame {
	return newFrame(stack, p, depth, static)
}

// NewCreateFrame builds a frame for a CREATE-family invocation. The
// receiving address must already be derived (via ContractAddress) and set
// on p.Address/p.CodeAddress by the caller.
func NewCreateFrame(stack *FrameStack, p *vm.ActionParams, depth int, static bool) *Frame {
	return newFrame(stack, p, depth, static)
}

func (f *Frame) Depth() int    { return f.depth }
func (f *Frame) Static() bool  { return f.static }
func (f *Frame) Params() *vm.ActionParams { return f.params }

// VMTracer exposes the frame stack's observer bundle through the vm.Host
// seam so a plugged-in Interpreter can record steps. vmTracerAdapter wraps
// a possibly-nil *observer.Tracer; TraceStep on a nil Tracer is a
// documented no-op, so the interpreter never has to nil-check this itself.
func (f *Frame) VMTracer() vm.VMTracer {
	return vmTracerAdapter{tracer: f.stack.observer.Tracer}
}

// vmTracerAdapter bridges observer.Tracer's step-recording method to the
// vm.VMTracer shape, the one type conversion needed to keep the vm package
// free of any dependency on the observer package.
type vmTracerAdapter struct {
	tracer *observer.Tracer
}

func (a vmTracerAdapter) TraceStep(step vm.VMStep) {
	a.tracer.TraceStep(observer.VMStep{PC: step.PC, Op: step.Op, Gas: step.Gas, Depth: step.Depth})
}

// run invokes the interpreter on this frame, letting it recurse through
// Call/Create for nested frames. The interpreter is an external
// collaborator (spec.md §1); this module only defines the boundary.
func (f *Frame) run() (vm.FinalizationResult, error) {
	space := f.params.Space
	interp := f.stack.machine.VMFactory().Create(space)
	return interp.Run(f.params, f)
}

// Call executes a nested CALL-family frame, per spec.md §4.4: the parent
// suspends, a child frame runs to completion, and its substate is merged or
// discarded based on the child's ApplyState flag.
func (f *Frame) Call(p *vm.ActionParams) (vm.FinalizationResult, error) {
	return f.stack.execChild(f, p, false)
}

// Create executes a nested CREATE-family frame.
func (f *Frame) Create(p *vm.ActionParams) (vm.FinalizationResult, error) {
	return f.stack.execChild(f, p, true)
}

// FrameStack is the single-threaded, cooperative execution engine (C4): it
// owns the world state, the transient substate tree, and the observer
// bundle for the duration of one transact() call.
type FrameStack struct {
	state           *state.WorldState
	substate        *state.Substate
	observer        observer.MultiObservers
	callstack       *state.FrameStackInfo
	baseGasRequired uint64

	env     *params.Env
	spec    *params.Spec
	machine vm.Machine
}

// FrameStackOutput is everything transact_postprocessing needs once the
// root frame has returned.
type FrameStackOutput struct {
	Substate        *state.Substate
	Result          vm.FinalizationResult
	ResultErr       error
	Observer        observer.MultiObservers
	BaseGasRequired uint64
}

// NewFrameStack builds a fresh stack around an already-mutated world state
// (the preprocessing fee deduction has already happened on it) and a
// starting substate.
func NewFrameStack(
	st *state.WorldState,
	txSubstate *state.Substate,
	obs observer.MultiObservers,
	baseGasRequired uint64,
	env *params.Env,
	spec *params.Spec,
	machine vm.Machine,
) *FrameStack {
	return &FrameStack{
		state:           st,
		substate:        txSubstate,
		observer:        obs,
		callstack:       state.NewFrameStackInfo(),
		baseGasRequired: baseGasRequired,
		env:             env,
		spec:            spec,
		machine:         machine,
	}
}

// Exec runs the frame stack until the top (root) frame returns, per
// spec.md §4.4's state machine: Running → (ChildSuspended*) → ReturnedWith.
func (fs *FrameStack) Exec(top *Frame) FrameStackOutput {
	top.stack = fs
	fs.callstack.Push(top.depth, top.static)
	snapshot := fs.state.DB().Snapshot()

	result, err := top.run()

	if err == nil && result.ApplyState {
		fs.substate.Accrue(top.substate)
		if top.params.CreateType != vm.CreateTypeNone {
			fs.substate.ContractsCreated = append(fs.substate.ContractsCreated, top.params.AddressWithSpace())
		}
	} else {
		// Any failed or non-applying frame (an error return, e.g. Reverted
		// or OutOfGas, counts the same as ApplyState=false here) discards
		// every state write it made, not just the ones that returned
		// cleanly with ApplyState unset.
		fs.state.DB().RevertToSnapshot(snapshot)
	}
	fs.callstack.Pop()

	return FrameStackOutput{
		Substate:        fs.substate,
		Result:          result,
		ResultErr:       err,
		Observer:        fs.observer,
		BaseGasRequired: fs.baseGasRequired,
	}
}

// execChild is the shared suspend-push-resume path for both Call and
// Create: it enforces the depth limit, runs the child frame, and merges or
// rolls back according to the child's outcome.
func (fs *FrameStack) execChild(parent *Frame, p *vm.ActionParams, isCreate bool) (vm.FinalizationResult, error) {
	childDepth := parent.depth + 1
	if uint64(childDepth) > fs.spec.MaxCallDepth {
		return vm.FinalizationResult{GasLeft: p.Gas, ApplyState: false}, vm.ErrOutOfDepth
	}

	static := parent.static
	if p.CallType == vm.CallTypeStaticCall {
		static = true
	}

	var child *Frame
	if isCreate {
		child = NewCreateFrame(fs, p, childDepth, static)
	} else {
		child = NewCallFrame(fs, p, childDepth, static)
	}

	fs.callstack.Push(childDepth, static)
	snapshot := fs.state.DB().Snapshot()

	result, err := child.run()

	if err == nil && result.ApplyState {
		parent.substate.Accrue(child.substate)
		if isCreate {
			parent.substate.ContractsCreated = append(parent.substate.ContractsCreated, p.AddressWithSpace())
		}
	} else {
		fs.state.DB().RevertToSnapshot(snapshot)
	}
	fs.callstack.Pop()

	return result, err
}
