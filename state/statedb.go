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

package state

import "github.com/google/uuid"

// StateDB is the typed adapter (C1) over an opaque byte-KV: a deferred
// write buffer plus an atomic commit point. Staged writes are visible to
// this adapter's own reads but invisible to any other reader of the
// backing KeyValueStore until Commit is called.
type StateDB struct {
	backing KeyValueStore

	// staged holds pending writes; deleted marks pending deletes, so GetRaw
	// can distinguish "never written" from "deleted since commit" without
	// consulting backing.
	staged  map[string][]byte
	deleted map[string]bool

	journal []journalEntry
}

// journalEntry lets a snapshot be rolled back without re-deriving state:
// each entry knows how to undo itself.
type journalEntry interface {
	revert(s *StateDB)
}

type stagedSetEntry struct {
	key      string
	hadPrev  bool
	prevVal  []byte
	prevDel  bool
}

func (e stagedSetEntry) revert(s *StateDB) {
	if !e.hadPrev {
		delete(s.staged, e.key)
		delete(s.deleted, e.key)
		return
	}
	if e.prevDel {
		s.deleted[e.key] = true
		delete(s.staged, e.key)
	} else {
		s.staged[e.key] = e.prevVal
		delete(s.deleted, e.key)
	}
}

func NewStateDB(backing KeyValueStore) *StateDB {
	return &StateDB{
		backing: backing,
		staged:  make(map[string][]byte),
		deleted: make(map[string]bool),
	}
}

// GetRaw reads a raw value: the staged buffer first, then the backing
// store. Absence is not an error.
func (s *StateDB) GetRaw(key []byte) ([]byte, error) {
	k := string(key)
	if s.deleted[k] {
		return nil, nil
	}
	if v, ok := s.staged[k]; ok {
		out := make([]byte, len(v))
		copy(out, v)
		return out, nil
	}
	v, err := s.backing.Get(key)
	if err != nil {
		return nil, ErrIncompleteDatabase(err)
	}
	return v, nil
}

// SetRaw stages a write, appending to debugRecord (if non-nil) in true
// application order.
func (s *StateDB) SetRaw(key, value []byte, debugRecord *DebugRecord) error {
	k := string(key)
	s.pushJournal(k)
	v := make([]byte, len(value))
	copy(v, value)
	s.staged[k] = v
	delete(s.deleted, k)
	debugRecord.recordSet(key, value)
	return nil
}

// Delete stages a delete.
func (s *StateDB) Delete(key []byte, debugRecord *DebugRecord) error {
	k := string(key)
	s.pushJournal(k)
	s.deleted[k] = true
	delete(s.staged, k)
	debugRecord.recordDelete(key)
	return nil
}

func (s *StateDB) pushJournal(key string) {
	_, hadStaged := s.staged[key]
	hadDeleted := s.deleted[key]
	s.journal = append(s.journal, stagedSetEntry{
		key:     key,
		hadPrev: hadStaged || hadDeleted,
		prevVal: s.staged[key],
		prevDel: hadDeleted,
	})
}

// Snapshot returns a revert handle capturing the current staged-write
// journal position.
func (s *StateDB) Snapshot() int {
	return len(s.journal)
}

// RevertToSnapshot undoes every staged mutation recorded since id, in
// reverse application order. This is how a frame whose result.ApplyState is
// false rolls back all state writes performed below it (spec.md §4.4).
func (s *StateDB) RevertToSnapshot(id int) {
	for i := len(s.journal) - 1; i >= id; i-- {
		s.journal[i].revert(s)
	}
	s.journal = s.journal[:id]
}

// EpochID identifies a committed state version.
type EpochID [32]byte

// NewSyntheticEpochID manufactures an EpochID with no consensus meaning,
// for callers (tests, one-off scripts) that need to Commit without a real
// block hash on hand.
func NewSyntheticEpochID() EpochID {
	id := uuid.New()
	var out EpochID
	copy(out[:16], id[:])
	return out
}

// Commit writes every staged write and delete to the backing store, one
// key at a time. It is not atomic: if the backing store fails part-way, the
// keys already written stay written and the error is returned. epochID and
// debugRecord are accepted but not recorded anywhere. After a successful
// commit the staging buffer is empty and the journal is cleared: there is
// nothing left to roll back.
func (s *StateDB) Commit(epochID EpochID, debugRecord *DebugRecord) error {
	for k, v := range s.staged {
		if err := s.backing.Put([]byte(k), v); err != nil {
			return ErrIncompleteDatabase(err)
		}
	}
	for k := range s.deleted {
		if err := s.backing.Delete([]byte(k)); err != nil {
			return ErrIncompleteDatabase(err)
		}
	}
	s.staged = make(map[string][]byte)
	s.deleted = make(map[string]bool)
	s.journal = nil
	return nil
}
