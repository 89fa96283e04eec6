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

import (
	"github.com/conflux-chain/cfx-evm-executor/common"
	"github.com/holiman/uint256"
)

// CleanupMode is a typed flag threaded through every balance mutation,
// recording which addresses were touched. Dust collection itself is
// dormant in this core (see spec.md §9, "Cleanup mode" design note): the
// touched set is always accumulated when a Substate is supplied, but
// nothing downstream reads it yet. Whether a given call site wires a real
// Substate or NoCleanup() is the only dormant/live switch; no separate
// spec flag is consulted here so the feature stays pure plumbing.
type CleanupMode struct {
	Substate *Substate
}

// TrackTouched builds a CleanupMode that records touched addresses into
// substate.
func TrackTouched(substate *Substate) CleanupMode {
	return CleanupMode{Substate: substate}
}

// NoCleanup builds a CleanupMode that records nothing, used by call sites
// (e.g. the cross-space entry point) that do not want touched-set
// side-effects from an internal balance shuffle.
func NoCleanup() CleanupMode { return CleanupMode{} }

func cleanup(substate *Substate, addr common.AddressWithSpace) {
	if substate == nil {
		return
	}
	substate.Touched.Add(addr)
}

// WorldState (C2) is the account/balance/nonce/code/storage surface the
// executor and VM depend on, layered on top of the C1 StateDB.
type WorldState struct {
	db *StateDB
}

func NewWorldState(db *StateDB) *WorldState {
	return &WorldState{db: db}
}

func (w *WorldState) DB() *StateDB { return w.db }

func (w *WorldState) Exists(addr common.AddressWithSpace) (bool, error) {
	v, err := w.db.GetRaw(accountKey(addr, fieldExists))
	if err != nil {
		return false, err
	}
	return v != nil, nil
}

func (w *WorldState) Nonce(addr common.AddressWithSpace) (*uint256.Int, error) {
	v, err := w.db.GetRaw(accountKey(addr, fieldNonce))
	if err != nil {
		return nil, err
	}
	if v == nil {
		return uint256.NewInt(0), nil
	}
	return new(uint256.Int).SetBytes(v), nil
}

func (w *WorldState) Balance(addr common.AddressWithSpace) (*uint256.Int, error) {
	v, err := w.db.GetRaw(accountKey(addr, fieldBalance))
	if err != nil {
		return nil, err
	}
	if v == nil {
		return uint256.NewInt(0), nil
	}
	return new(uint256.Int).SetBytes(v), nil
}

func (w *WorldState) Code(addr common.AddressWithSpace) ([]byte, error) {
	return w.db.GetRaw(accountKey(addr, fieldCode))
}

func (w *WorldState) CodeHash(addr common.AddressWithSpace) (*common.Hash, error) {
	v, err := w.db.GetRaw(accountKey(addr, fieldCodeHash))
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	h := common.BytesToHash(v)
	return &h, nil
}

func (w *WorldState) StorageAt(addr common.AddressWithSpace, slot common.Hash) (*uint256.Int, error) {
	v, err := w.db.GetRaw(storageKey(addr, slot))
	if err != nil {
		return nil, err
	}
	if v == nil {
		return uint256.NewInt(0), nil
	}
	return new(uint256.Int).SetBytes(v), nil
}

// ensureExists marks the account as present, creating it with startNonce if
// it was absent. Mirrors the source's inc_nonce/add_balance "create on
// first touch" semantics.
func (w *WorldState) ensureExists(addr common.AddressWithSpace, startNonce uint64, debugRecord *DebugRecord) error {
	exists, err := w.Exists(addr)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	if err := w.db.SetRaw(accountKey(addr, fieldExists), []byte{1}, debugRecord); err != nil {
		return err
	}
	nonceBytes := new(uint256.Int).SetUint64(startNonce).Bytes()
	return w.db.SetRaw(accountKey(addr, fieldNonce), nonceBytes, debugRecord)
}

// IncNonce creates the account if absent (nonce initialised to startNonce)
// then adds one.
func (w *WorldState) IncNonce(addr common.AddressWithSpace, startNonce uint64, debugRecord *DebugRecord) error {
	if err := w.ensureExists(addr, startNonce, debugRecord); err != nil {
		return err
	}
	nonce, err := w.Nonce(addr)
	if err != nil {
		return err
	}
	next := new(uint256.Int).AddUint64(nonce, 1)
	return w.db.SetRaw(accountKey(addr, fieldNonce), next.Bytes(), debugRecord)
}

// AddBalance credits amount to addr, creating the account (with startNonce)
// if it was absent and amount is non-zero.
func (w *WorldState) AddBalance(addr common.AddressWithSpace, amount *uint256.Int, cm CleanupMode, startNonce uint64, debugRecord *DebugRecord) error {
	if amount.Sign() != 0 {
		if err := w.ensureExists(addr, startNonce, debugRecord); err != nil {
			return err
		}
	}
	balance, err := w.Balance(addr)
	if err != nil {
		return err
	}
	next := new(uint256.Int).Add(balance, amount)
	if err := w.db.SetRaw(accountKey(addr, fieldBalance), next.Bytes(), debugRecord); err != nil {
		return err
	}
	cleanup(cm.Substate, addr)
	return nil
}

// SubBalance debits amount from addr. Underflow (balance < amount) is a
// fatal arithmetic error: the caller is expected to have checked solvency
// up front (spec.md §4.2).
func (w *WorldState) SubBalance(addr common.AddressWithSpace, amount *uint256.Int, cm CleanupMode, debugRecord *DebugRecord) error {
	balance, err := w.Balance(addr)
	if err != nil {
		return err
	}
	if balance.Lt(amount) {
		return ErrArithmeticUnderflow("balance underflow subtracting from " + addr.String())
	}
	next := new(uint256.Int).Sub(balance, amount)
	if err := w.db.SetRaw(accountKey(addr, fieldBalance), next.Bytes(), debugRecord); err != nil {
		return err
	}
	cleanup(cm.Substate, addr)
	return nil
}

func (w *WorldState) SetStorage(addr common.AddressWithSpace, slot common.Hash, value *uint256.Int, debugRecord *DebugRecord) error {
	if value.Sign() == 0 {
		return w.db.Delete(storageKey(addr, slot), debugRecord)
	}
	if err := w.indexStorageSlot(addr, slot, debugRecord); err != nil {
		return err
	}
	return w.db.SetRaw(storageKey(addr, slot), value.Bytes(), debugRecord)
}

// indexStorageSlot records slot in addr's slot index the first time it is
// written, so RemoveContract can enumerate and clear every slot without a
// trie to prune. This module has no trie (see DESIGN.md): the index is the
// deliberately simple substitute.
func (w *WorldState) indexStorageSlot(addr common.AddressWithSpace, slot common.Hash, debugRecord *DebugRecord) error {
	key := accountKey(addr, fieldStorageIndex)
	raw, err := w.db.GetRaw(key)
	if err != nil {
		return err
	}
	for i := 0; i+common.HashLength <= len(raw); i += common.HashLength {
		if common.BytesToHash(raw[i:i+common.HashLength]) == slot {
			return nil
		}
	}
	raw = append(raw, slot[:]...)
	return w.db.SetRaw(key, raw, debugRecord)
}

func (w *WorldState) SetCode(addr common.AddressWithSpace, code []byte, codeHash common.Hash, debugRecord *DebugRecord) error {
	if err := w.db.SetRaw(accountKey(addr, fieldCode), code, debugRecord); err != nil {
		return err
	}
	return w.db.SetRaw(accountKey(addr, fieldCodeHash), codeHash.Bytes(), debugRecord)
}

// TotalIssued returns the chain-wide issued-supply counter, zero if it has
// never been seeded or subtracted from.
func (w *WorldState) TotalIssued() (*uint256.Int, error) {
	v, err := w.db.GetRaw(globalTotalIssuedKey)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return uint256.NewInt(0), nil
	}
	return new(uint256.Int).SetBytes(v), nil
}

// AddTotalIssued credits the issued-supply counter, used to seed it with a
// chain's genesis issuance before any subtract_total_issued call is made.
func (w *WorldState) AddTotalIssued(amount *uint256.Int, debugRecord *DebugRecord) error {
	total, err := w.TotalIssued()
	if err != nil {
		return err
	}
	next := new(uint256.Int).Add(total, amount)
	return w.db.SetRaw(globalTotalIssuedKey, next.Bytes(), debugRecord)
}

// SubtractTotalIssued debits the issued-supply counter by amount
// (spec.md §4.2), called once per self-destructed address with its
// drained balance (spec.md Invariant 5).
func (w *WorldState) SubtractTotalIssued(amount *uint256.Int, debugRecord *DebugRecord) error {
	total, err := w.TotalIssued()
	if err != nil {
		return err
	}
	if total.Lt(amount) {
		return ErrArithmeticUnderflow("total issued supply underflow")
	}
	next := new(uint256.Int).Sub(total, amount)
	return w.db.SetRaw(globalTotalIssuedKey, next.Bytes(), debugRecord)
}

// RemoveContract deletes code, storage, and the account record itself. The
// caller is responsible for moving the balance to the MintBurn sink before
// calling this (spec.md §4.2); RemoveContract does not touch balance
// bookkeeping beyond clearing the stored value.
func (w *WorldState) RemoveContract(addr common.AddressWithSpace, debugRecord *DebugRecord) error {
	indexKey := accountKey(addr, fieldStorageIndex)
	raw, err := w.db.GetRaw(indexKey)
	if err != nil {
		return err
	}
	for i := 0; i+common.HashLength <= len(raw); i += common.HashLength {
		slot := common.BytesToHash(raw[i : i+common.HashLength])
		if err := w.db.Delete(storageKey(addr, slot), debugRecord); err != nil {
			return err
		}
	}
	for _, field := range []byte{fieldExists, fieldNonce, fieldCode, fieldCodeHash, fieldBalance, fieldStorageIndex} {
		if err := w.db.Delete(accountKey(addr, field), debugRecord); err != nil {
			return err
		}
	}
	return nil
}
