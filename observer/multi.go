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

// MultiObservers is the polymorphic, optional observer bundle: Tracer (which
// records both internal transfers and VM steps) and GasMan may each
// independently be nil. AsStateTracer always returns a
// non-nil StateTracer so call sites never have to nil-check before tracing
// — a nil *Tracer receiver is a documented no-op (spec.md §4.5).
type MultiObservers struct {
	Tracer *Tracer
	GasMan *EstimationGasManager
}

// WithNoTracing builds a bundle with every slot absent, used by the
// cross-space call entry point (tracing disabled per spec.md §4.6.3).
func WithNoTracing() MultiObservers {
	return MultiObservers{}
}

// WithTracing builds a bundle with both a fresh Tracer and gas manager.
func WithTracing() MultiObservers {
	return MultiObservers{Tracer: NewTracer(), GasMan: NewEstimationGasManager()}
}

// AsStateTracer exposes the bundle's tracer as a StateTracer, regardless of
// whether tracing is actually enabled.
func (m *MultiObservers) AsStateTracer() StateTracer {
	return m.Tracer
}

func (m *MultiObservers) TraceInternalTransfer(from, to AddressPocket, amount *uint256.Int) {
	m.Tracer.TraceInternalTransfer(from, to, amount)
}

// RecordGasUsed forwards to the bundle's GasManager, a no-op if absent.
func (m *MultiObservers) RecordGasUsed(gas uint64) {
	m.GasMan.RecordGasUsed(gas)
}

// GasRequired returns the bundle's GasManager estimate, 0 if absent.
func (m *MultiObservers) GasRequired() uint64 {
	return m.GasMan.GasRequired()
}

// Drain yields the ordered trace, or nil if no tracer was ever attached.
func (m *MultiObservers) Drain() []ExecTrace {
	if m.Tracer == nil {
		return nil
	}
	return m.Tracer.Drain()
}
