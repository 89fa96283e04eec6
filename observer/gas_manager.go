// Copyright 2023 The go-ethereum Authors
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

// EstimationGasManager is the default GasManager: it just remembers the
// largest gas figure passed to RecordGasUsed. Adapted from the
// teacher's eth/tracers/native gas-dimension accumulators, trimmed to the
// single scalar estimated_gas_limit actually depends on.
type EstimationGasManager struct {
	required uint64
}

func NewEstimationGasManager() *EstimationGasManager {
	return &EstimationGasManager{}
}

func (g *EstimationGasManager) RecordGasUsed(gas uint64) {
	if g == nil {
		return
	}
	if gas > g.required {
		g.required = gas
	}
}

func (g *EstimationGasManager) GasRequired() uint64 {
	if g == nil {
		return 0
	}
	return g.required
}
