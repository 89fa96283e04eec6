// Copyright 2016 The go-ethereum Authors
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

package params

// Spec is the gas schedule and protocol constants the executor needs. It
// plays the role the source calls "vm::Spec": the subset of the full VM
// gas table the executor itself reads, plus the intrinsic-gas and
// call-depth parameters that are the executor's own responsibility.
type Spec struct {
	// TxGas is the intrinsic gas charged for a Call transaction.
	TxGas uint64
	// TxCreateGas is the intrinsic gas charged for a Create transaction.
	TxCreateGas uint64
	// TxDataZeroGas is charged per zero byte of transaction data.
	TxDataZeroGas uint64
	// TxDataNonZeroGas is charged per non-zero byte of transaction data.
	TxDataNonZeroGas uint64
	// AccountStartNonce is the nonce newly-created accounts start from.
	AccountStartNonce uint64
	// MaxCallDepth bounds CALL/CREATE nesting. Matches upstream
	// params.CallCreateDepth.
	MaxCallDepth uint64
}

// DefaultSpec mirrors the canonical Ethereum mainnet gas schedule
// (params.TxGas, params.TxGasContractCreation, params.TxDataZeroGas,
// params.TxDataNonZeroGasFrontier, params.CallCreateDepth in upstream
// go-ethereum).
func DefaultSpec() *Spec {
	return &Spec{
		TxGas:             21000,
		TxCreateGas:       53000,
		TxDataZeroGas:     4,
		TxDataNonZeroGas:  68,
		AccountStartNonce: 0,
		MaxCallDepth:      1024,
	}
}
