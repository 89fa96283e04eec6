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

package executor

import (
	"github.com/conflux-chain/cfx-evm-executor/common"
	"github.com/conflux-chain/cfx-evm-executor/vm"
	"github.com/holiman/uint256"
	"golang.org/x/crypto/sha3"
)

// Keccak256 is the one hash primitive the executor needs: contract-address
// derivation and the function selector of a cross-space call's data.
// Address derivation and ABI decoding are themselves out of this module's
// scope (spec.md §1); this is the minimal concrete grounding so the
// executor doesn't depend on an uninstantiable collaborator.
func Keccak256(data ...[]byte) common.Hash {
	h := sha3.NewLegacyKeccak256()
	for _, d := range data {
		h.Write(d)
	}
	var out common.Hash
	h.Sum(out[:0])
	return out
}

// rlpString/rlpList implement exactly the two RLP encoding rules contract
// address derivation needs (a byte string, a list of byte strings) — not a
// general-purpose codec. The retrieval pack's rlp package was trimmed to
// nothing usable (see DESIGN.md); this is scoped narrowly on purpose.
func rlpString(b []byte) []byte {
	if len(b) == 1 && b[0] < 0x80 {
		return b
	}
	return append(rlpLengthPrefix(0x80, len(b)), b...)
}

func rlpList(items ...[]byte) []byte {
	var body []byte
	for _, it := range items {
		body = append(body, it...)
	}
	return append(rlpLengthPrefix(0xc0, len(body)), body...)
}

func rlpLengthPrefix(base byte, n int) []byte {
	if n < 56 {
		return []byte{base + byte(n)}
	}
	var lenBytes []byte
	for n > 0 {
		lenBytes = append([]byte{byte(n & 0xff)}, lenBytes...)
		n >>= 8
	}
	return append([]byte{base + 55 + byte(len(lenBytes))}, lenBytes...)
}

// ContractAddress derives the address of a newly-created contract. Only
// CreateContractAddressFromSenderNonce is implemented, matching the one
// scheme Ethereum space uses (spec.md §4.6.1 step 9).
func ContractAddress(
	scheme vm.CreateContractAddress,
	blockNumber uint64,
	sender common.AddressWithSpace,
	nonce *uint256.Int,
	initCode []byte,
) (common.AddressWithSpace, common.Hash) {
	switch scheme {
	case vm.CreateContractAddressFromSenderNonce:
		encoded := rlpList(rlpString(sender.Address.Bytes()), rlpStringFromNonce(nonce.Bytes()))
		digest := Keccak256(encoded)
		addr := common.BytesToAddress(digest[12:])
		codeHash := Keccak256(initCode)
		return addr.WithSpace(sender.Space), codeHash
	default:
		// Only one scheme exists today (spec.md §4.6.1); an unrecognised
		// scheme is a programmer error in the caller, not a runtime
		// condition the executor needs to classify.
		panic("contract_address: unsupported creation scheme")
	}
}

func rlpStringFromNonce(nonceBytes []byte) []byte {
	if len(nonceBytes) == 0 {
		return []byte{0x80}
	}
	return rlpString(nonceBytes)
}
