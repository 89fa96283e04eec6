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

package state

import "github.com/conflux-chain/cfx-evm-executor/common"

// Key layout is entirely internal to WorldState: the byte-KV underneath
// never interprets it (spec.md §6, "StateDB byte layout: opaque to the
// executor"). Accounts are keyed by (address, space); storage slots by
// (address, space, slot).

const (
	fieldExists   = 'e'
	fieldBalance  = 'b'
	fieldNonce    = 'n'
	fieldCode     = 'c'
	fieldCodeHash = 'h'
	fieldStorage  = 's'
	fieldStorageIndex = 'i'
)

// globalTotalIssuedKey holds the issued-supply counter (spec.md §4.2's
// subtract_total_issued), a single chain-wide value rather than a
// per-account field.
var globalTotalIssuedKey = []byte{'T'}

func accountKey(addr common.AddressWithSpace, field byte) []byte {
	k := make([]byte, 0, 1+common.AddressLength+1)
	k = append(k, field)
	k = append(k, addr.Address[:]...)
	k = append(k, byte(addr.Space))
	return k
}

func storageKey(addr common.AddressWithSpace, slot common.Hash) []byte {
	k := make([]byte, 0, 1+common.AddressLength+1+common.HashLength)
	k = append(k, fieldStorage)
	k = append(k, addr.Address[:]...)
	k = append(k, byte(addr.Space))
	k = append(k, slot[:]...)
	return k
}
