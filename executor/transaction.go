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
)

// ActionKind distinguishes a value transfer/message call from a contract
// deployment, the two shapes a Transaction's Action can take.
type ActionKind uint8

const (
	ActionCall ActionKind = iota
	ActionCreate
)

// Action is the transaction's recipient: either a concrete address (Call)
// or absent (Create, meaning "deploy new contract").
type Action struct {
	Kind ActionKind
	To   common.Address
}

func CallTo(addr common.Address) Action { return Action{Kind: ActionCall, To: addr} }
func Create() Action                    { return Action{Kind: ActionCreate} }

// TransactionInfo is the capability interface transact() depends on rather
// than a concrete struct, per spec.md §9's "interfaces over virtual
// dispatch" design note: a caller can feed in any record satisfying this
// shape (e.g. a wrapper around an RLP-decoded wire transaction) without the
// executor needing to know the wire format.
type TransactionInfo interface {
	Sender() common.Address
	Nonce() *uint256.Int
	Gas() *uint256.Int
	GasPrice() *uint256.Int
	Value() *uint256.Int
	Action() Action
	Data() []byte
	Space() common.Space
}

// Transaction is the one concrete TransactionInfo implementation this
// module ships: a plain struct, no virtual dispatch underneath it.
type Transaction struct {
	From     common.Address
	TxNonce  *uint256.Int
	GasLimit *uint256.Int
	Price    *uint256.Int
	Amount   *uint256.Int
	To       Action
	Payload  []byte
	Sp       common.Space
}

func (t *Transaction) Sender() common.Address   { return t.From }
func (t *Transaction) Nonce() *uint256.Int      { return t.TxNonce }
func (t *Transaction) Gas() *uint256.Int        { return t.GasLimit }
func (t *Transaction) GasPrice() *uint256.Int   { return t.Price }
func (t *Transaction) Value() *uint256.Int      { return t.Amount }
func (t *Transaction) Action() Action           { return t.To }
func (t *Transaction) Data() []byte             { return t.Payload }
func (t *Transaction) Space() common.Space      { return t.Sp }

// CheckSettings holds the two settings that a "dry run" estimation call
// (spec.md §4.6.3) turns off.
type CheckSettings struct {
	// ChargeGas selects whether a sender who can afford the fee is debited
	// gas_limit*gas_price upfront and credited the unused part afterwards
	// (false for a pure gas estimation).
	ChargeGas bool
	// RealExecution selects whether the sender must already exist to pass
	// the insufficient-balance check (false lets a speculative call run
	// against a not-yet-created sender so its gas usage can still be
	// measured; the nonce check and the balance-sufficiency check itself
	// are enforced either way).
	RealExecution bool
}

// DefaultCheckSettings is what every real, committed transaction uses.
func DefaultCheckSettings() CheckSettings {
	return CheckSettings{ChargeGas: true, RealExecution: true}
}

// TransactOptions bundles a transaction with the knobs that vary between a
// committed execution and a speculative call/estimate (spec.md §4.3).
type TransactOptions struct {
	Tx       TransactionInfo
	Settings CheckSettings
	// CreateContractAddress selects the CREATE address-derivation scheme;
	// ActionCreate transactions always use FromSenderNonce today.
	CreateContractAddress vm.CreateContractAddress
}
