// Copyright 2020 The go-ethereum Authors
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

package observer

import "github.com/holiman/uint256"

// StateTracer records internal transfers: value movement that isn't
// visible as an ordinary balance mutation in WorldState (gas payment,
// mint/burn on self-destruct, storage collateral).
type StateTracer interface {
	TraceInternalTransfer(from, to AddressPocket, amount *uint256.Int)
}

// VMStep is one interpreter step worth recording. The interpreter's own
// opcode semantics are out of scope; this is only the shape a tracer needs.
type VMStep struct {
	PC    uint64
	Op    byte
	Gas   uint64
	Depth int
}

// VMTracer records interpreter steps. A nil VMTracer means no step tracing
// is requested.
type VMTracer interface {
	TraceStep(step VMStep)
}

// GasManager accumulates a minimum-gas estimate used to derive
// estimated_gas_limit on a gas-estimation dry run.
type GasManager interface {
	RecordGasUsed(gas uint64)
	GasRequired() uint64
}

// ExecTrace is one entry in the drained trace embedded into Executed.
type ExecTrace struct {
	Transfer *InternalTransfer
	Step     *VMStep
}

// Tracer is the drainable combination of state + VM tracing. MultiObservers
// owns one (optional) Tracer plus an optional GasManager.
type Tracer struct {
	transfers []InternalTransfer
	steps     []VMStep
}

func NewTracer() *Tracer {
	return &Tracer{}
}

func (t *Tracer) TraceInternalTransfer(from, to AddressPocket, amount *uint256.Int) {
	if t == nil {
		return
	}
	t.transfers = append(t.transfers, InternalTransfer{From: from, To: to, Amount: amount})
}

func (t *Tracer) TraceStep(step VMStep) {
	if t == nil {
		return
	}
	t.steps = append(t.steps, step)
}

// Drain yields the ordered trace for embedding into Executed. Calling it
// does not reset the tracer; transact() only calls it once, at
// postprocessing.
func (t *Tracer) Drain() []ExecTrace {
	if t == nil {
		return nil
	}
	out := make([]ExecTrace, 0, len(t.transfers)+len(t.steps))
	for i := range t.transfers {
		tr := t.transfers[i]
		out = append(out, ExecTrace{Transfer: &tr})
	}
	for i := range t.steps {
		st := t.steps[i]
		out = append(out, ExecTrace{Step: &st})
	}
	return out
}
