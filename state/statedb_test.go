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

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStateDB(t *testing.T) *StateDB {
	t.Helper()
	return NewStateDB(NewMemoryKV())
}

func TestStateDBStageThenCommit(t *testing.T) {
	db := newTestStateDB(t)

	require.NoError(t, db.SetRaw([]byte("k"), []byte("v1"), nil))

	v, err := db.GetRaw([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), v)

	require.NoError(t, db.Commit(NewSyntheticEpochID(), nil))

	v, err = db.GetRaw([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), v)
}

func TestStateDBDeleteDistinguishesFromNeverWritten(t *testing.T) {
	db := newTestStateDB(t)

	v, err := db.GetRaw([]byte("missing"))
	require.NoError(t, err)
	assert.Nil(t, v)

	require.NoError(t, db.SetRaw([]byte("k"), []byte("v1"), nil))
	require.NoError(t, db.Commit(NewSyntheticEpochID(), nil))
	require.NoError(t, db.Delete([]byte("k"), nil))

	v, err = db.GetRaw([]byte("k"))
	require.NoError(t, err)
	assert.Nil(t, v, "a staged delete must read back as absent before commit")
}

func TestStateDBSnapshotRevert(t *testing.T) {
	db := newTestStateDB(t)
	require.NoError(t, db.SetRaw([]byte("k"), []byte("v1"), nil))
	require.NoError(t, db.Commit(NewSyntheticEpochID(), nil))

	snap := db.Snapshot()
	require.NoError(t, db.SetRaw([]byte("k"), []byte("v2"), nil))
	require.NoError(t, db.Delete([]byte("other"), nil))

	db.RevertToSnapshot(snap)

	v, err := db.GetRaw([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), v)
}

func TestStateDBSnapshotRevertNested(t *testing.T) {
	db := newTestStateDB(t)
	require.NoError(t, db.SetRaw([]byte("k"), []byte("v0"), nil))
	require.NoError(t, db.Commit(NewSyntheticEpochID(), nil))

	outer := db.Snapshot()
	require.NoError(t, db.SetRaw([]byte("k"), []byte("v1"), nil))

	inner := db.Snapshot()
	require.NoError(t, db.SetRaw([]byte("k"), []byte("v2"), nil))
	db.RevertToSnapshot(inner)

	v, err := db.GetRaw([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), v, "reverting the inner snapshot must restore exactly the outer state")

	db.RevertToSnapshot(outer)
	v, err = db.GetRaw([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v0"), v)
}

func TestNewSyntheticEpochIDIsUnique(t *testing.T) {
	a := NewSyntheticEpochID()
	b := NewSyntheticEpochID()
	assert.NotEqual(t, a, b)
}
