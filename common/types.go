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

package common

import (
	"encoding/hex"
	"fmt"
)

const (
	AddressLength = 20
	HashLength    = 32
)

// Address represents the 20-byte address of an Ethereum-style account.
type Address [AddressLength]byte

func BytesToAddress(b []byte) (a Address) {
	if len(b) > AddressLength {
		b = b[len(b)-AddressLength:]
	}
	copy(a[AddressLength-len(b):], b)
	return a
}

func (a Address) Bytes() []byte { return a[:] }

func (a Address) Hex() string { return "0x" + hex.EncodeToString(a[:]) }

func (a Address) String() string { return a.Hex() }

func (a Address) IsZero() bool { return a == Address{} }

// Hash represents a 32-byte value, typically a keccak256 digest or a
// 256-bit storage slot key.
type Hash [HashLength]byte

func BytesToHash(b []byte) (h Hash) {
	if len(b) > HashLength {
		b = b[len(b)-HashLength:]
	}
	copy(h[HashLength-len(b):], b)
	return h
}

func (h Hash) Bytes() []byte { return h[:] }

func (h Hash) Hex() string { return "0x" + hex.EncodeToString(h[:]) }

func (h Hash) String() string { return h.Hex() }

// Space is a namespace tag partitioning the address universe. Only the
// Ethereum space is implemented today; the tag is kept so the executor can
// be extended to additional spaces (e.g. a native, non-EVM space) without
// reshaping every call site.
type Space uint8

const (
	SpaceEthereum Space = iota
)

func (s Space) String() string {
	switch s {
	case SpaceEthereum:
		return "ethereum"
	default:
		return fmt.Sprintf("space(%d)", uint8(s))
	}
}

// AddressWithSpace identifies an account uniquely: addresses of different
// spaces are disjoint universes even when the raw 20 bytes coincide.
type AddressWithSpace struct {
	Address Address
	Space   Space
}

func (a AddressWithSpace) String() string {
	return fmt.Sprintf("%s/%s", a.Address.Hex(), a.Space)
}

// WithSpace tags a bare address with a space, the Go equivalent of the
// source's AddressSpaceUtil::with_space.
func (a Address) WithSpace(space Space) AddressWithSpace {
	return AddressWithSpace{Address: a, Space: space}
}

func (a Address) WithEthereumSpace() AddressWithSpace {
	return a.WithSpace(SpaceEthereum)
}
