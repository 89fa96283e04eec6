// Copyright 2021 The go-ethereum Authors
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

// DebugMutationKind tags one entry in a DebugRecord.
type DebugMutationKind uint8

const (
	DebugMutationSet DebugMutationKind = iota
	DebugMutationDelete
)

// DebugMutation is one staged write or delete, recorded in true application
// order.
type DebugMutation struct {
	Kind  DebugMutationKind
	Key   []byte
	Value []byte
}

// DebugRecord is an append-only diagnostic ledger. When present, every
// StateDB mutation is appended to it in the order it was actually applied,
// so a re-run can be diffed against the ledger to catch nondeterminism.
// Kept in-process rather than streamed off-process, since transport is out
// of this module's scope.
type DebugRecord struct {
	entries []DebugMutation
}

func NewDebugRecord() *DebugRecord {
	return &DebugRecord{}
}

func (r *DebugRecord) recordSet(key, value []byte) {
	if r == nil {
		return
	}
	k := append([]byte(nil), key...)
	v := append([]byte(nil), value...)
	r.entries = append(r.entries, DebugMutation{Kind: DebugMutationSet, Key: k, Value: v})
}

func (r *DebugRecord) recordDelete(key []byte) {
	if r == nil {
		return
	}
	k := append([]byte(nil), key...)
	r.entries = append(r.entries, DebugMutation{Kind: DebugMutationDelete, Key: k})
}

// Entries returns the ledger in application order.
func (r *DebugRecord) Entries() []DebugMutation {
	if r == nil {
		return nil
	}
	return r.entries
}
