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

import "encoding/binary"

// abiWordSize is the Solidity ABI's word width: every head slot and every
// length prefix is a full 32-byte word.
const abiWordSize = 32

// abiWordUint64 encodes v as a 32-byte big-endian word, the shape every ABI
// offset and length field takes.
func abiWordUint64(v uint64) []byte {
	word := make([]byte, abiWordSize)
	binary.BigEndian.PutUint64(word[abiWordSize-8:], v)
	return word
}

// abiPadRight right-pads b with zero bytes up to the next word boundary,
// the padding rule `bytes`/`string` payloads use.
func abiPadRight(b []byte) []byte {
	rem := len(b) % abiWordSize
	if rem == 0 {
		return b
	}
	return append(append([]byte{}, b...), make([]byte, abiWordSize-rem)...)
}

// abiEncodeDynamicBytes encodes a `bytes`/`string`-shaped value: a length
// word followed by the data, right-padded to a word boundary.
func abiEncodeDynamicBytes(data []byte) []byte {
	out := make([]byte, 0, abiWordSize+len(abiPadRight(data)))
	out = append(out, abiWordUint64(uint64(len(data)))...)
	out = append(out, abiPadRight(data)...)
	return out
}

// abiEncodeBytesArray encodes a `bytes[]`-shaped value: a count word, one
// offset word per element (relative to the start of this array's own data
// section), then each element's abiEncodeDynamicBytes payload in order.
func abiEncodeBytesArray(elems [][]byte) []byte {
	encoded := make([][]byte, len(elems))
	for i, e := range elems {
		encoded[i] = abiEncodeDynamicBytes(e)
	}

	headSize := uint64(len(elems)) * abiWordSize
	var head, tail []byte
	offset := headSize
	for _, enc := range encoded {
		head = append(head, abiWordUint64(offset)...)
		tail = append(tail, enc...)
		offset += uint64(len(enc))
	}

	out := make([]byte, 0, abiWordSize+len(head)+len(tail))
	out = append(out, abiWordUint64(uint64(len(elems)))...)
	out = append(out, head...)
	out = append(out, tail...)
	return out
}

// abiEncodeCallerInfoAndParams ABI-encodes a (string, bytes[]) argument
// tuple: a two-slot head of byte offsets into the tail, followed by the
// caller-info string and the params array in the order the offsets name.
// This is the one tuple shape the cross-space call entry point needs; it is
// not a general ABI encoder.
func abiEncodeCallerInfoAndParams(callerInfo string, params [][]byte) []byte {
	encCaller := abiEncodeDynamicBytes([]byte(callerInfo))
	encParams := abiEncodeBytesArray(params)

	headSize := uint64(2 * abiWordSize)
	callerOffset := headSize
	paramsOffset := headSize + uint64(len(encCaller))

	out := make([]byte, 0, int(headSize)+len(encCaller)+len(encParams))
	out = append(out, abiWordUint64(callerOffset)...)
	out = append(out, abiWordUint64(paramsOffset)...)
	out = append(out, encCaller...)
	out = append(out, encParams...)
	return out
}

// crossVMCallData builds the calldata the cross-space bridge hands to the
// target EVM-space contract (spec.md §4.6.3): empty when no function is
// named (a plain value transfer), else the 4-byte selector of
// "<functionName>(string,bytes[])" followed by the ABI-encoded
// (caller_info, params) tuple.
func crossVMCallData(functionName, callerInfo string, params [][]byte) []byte {
	if functionName == "" {
		return nil
	}
	selector := Keccak256([]byte(functionName + "(string,bytes[])")).Bytes()[:4]
	encoded := abiEncodeCallerInfoAndParams(callerInfo, params)

	out := make([]byte, 0, len(selector)+len(encoded))
	out = append(out, selector...)
	out = append(out, encoded...)
	return out
}
