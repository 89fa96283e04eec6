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

// Package observer is the tracing side channel (C5): an optional bundle of
// a state tracer, a VM tracer, and a gas manager, any of which may be
// absent.
package observer

import (
	"fmt"

	"github.com/conflux-chain/cfx-evm-executor/common"
	"github.com/holiman/uint256"
)

// AddressPocket names where value is moving to or from, for the benefit of
// a state tracer. A pocket is a label, not an account: GasPayment has no
// WorldState account behind it, and whether value traced to MintBurn is
// also credited to some account is up to the caller.
type AddressPocket struct {
	kind string
	addr common.AddressWithSpace
}

func BalancePocket(addr common.AddressWithSpace) AddressPocket {
	return AddressPocket{kind: "Balance", addr: addr}
}

func StorageCollateralPocket(addr common.AddressWithSpace) AddressPocket {
	return AddressPocket{kind: "StorageCollateral", addr: addr}
}

var (
	GasPaymentPocket = AddressPocket{kind: "GasPayment"}
	MintBurnPocket   = AddressPocket{kind: "MintBurn"}
)

func (p AddressPocket) String() string {
	if p.addr == (common.AddressWithSpace{}) || (p.kind != "Balance" && p.kind != "StorageCollateral") {
		return p.kind
	}
	return fmt.Sprintf("%s(%s)", p.kind, p.addr)
}

// InternalTransfer is one recorded value movement between two pockets.
type InternalTransfer struct {
	From   AddressPocket
	To     AddressPocket
	Amount *uint256.Int
}
