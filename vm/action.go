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

// Package vm defines the boundary between the executor and the VM
// interpreter: the action-parameter record the executor builds, and the
// finalization result the interpreter hands back. The interpreter's own
// opcode semantics are out of scope for this module.
package vm

import (
	"github.com/conflux-chain/cfx-evm-executor/common"
	"github.com/holiman/uint256"
)

// CallType distinguishes why a frame was entered via CALL-family
// semantics, mirroring upstream core/vm's CALL/CALLCODE/DELEGATECALL/
// STATICCALL distinction.
type CallType uint8

const (
	CallTypeNone CallType = iota
	CallTypeCall
	CallTypeCallCode
	CallTypeDelegateCall
	CallTypeStaticCall
)

// CreateType distinguishes CREATE from CREATE2; CreateTypeNone marks a
// frame that was entered via CALL rather than CREATE.
type CreateType uint8

const (
	CreateTypeNone CreateType = iota
	CreateTypeCreate
	CreateTypeCreate2
)

// ParamsType records whether code and data were supplied as one combined
// buffer (Create, where the transaction payload doubles as init code) or
// as two separate buffers (Call).
type ParamsType uint8

const (
	ParamsTypeSeparate ParamsType = iota
	ParamsTypeEmbedded
)

// CreateContractAddress selects the address-derivation scheme used by a
// Create frame. Only FromSenderNonce is implemented; the tag exists so
// additional schemes (CREATE2-style salted addresses) can be added without
// reshaping ActionParams.
type CreateContractAddress uint8

const (
	CreateContractAddressFromSenderNonce CreateContractAddress = iota
	CreateContractAddressFromCodeHash
)

// ActionValue is the value attached to a frame: either a real balance
// Transfer (CALL, CREATE) or an Apparent value visible to the code but not
// actually moved (DELEGATECALL/CALLCODE inherit the parent's apparent
// value without transferring funds again).
type ActionValue struct {
	Transfer *uint256.Int
	Apparent *uint256.Int
}

func TransferValue(v *uint256.Int) ActionValue {
	return ActionValue{Transfer: v, Apparent: v}
}

func ApparentValue(v *uint256.Int) ActionValue {
	return ActionValue{Transfer: uint256.NewInt(0), Apparent: v}
}

// Value returns the value the running code should observe (apparent),
// regardless of whether it was really transferred.
func (a ActionValue) Value() *uint256.Int {
	if a.Apparent != nil {
		return a.Apparent
	}
	return uint256.NewInt(0)
}

// ActionParams is the complete, self-contained input record the executor
// hands to the interpreter for one frame. It carries no behavior; the
// interpreter consumes it and the executor never inspects the code it
// contains.
type ActionParams struct {
	Space          common.Space
	CodeAddress    common.Address
	Address        common.Address
	Sender         common.Address
	OriginalSender common.Address
	Gas            uint64
	GasPrice       *uint256.Int
	Value          ActionValue
	Code           []byte
	CodeHash       *common.Hash
	Data           []byte
	CallType       CallType
	CreateType     CreateType
	ParamsType     ParamsType
}

// CodeAddressWithSpace is the address whose code governs this frame.
func (p *ActionParams) CodeAddressWithSpace() common.AddressWithSpace {
	return p.CodeAddress.WithSpace(p.Space)
}

// AddressWithSpace is the receiver whose storage/balance this frame acts
// upon.
func (p *ActionParams) AddressWithSpace() common.AddressWithSpace {
	return p.Address.WithSpace(p.Space)
}

func (p *ActionParams) SenderWithSpace() common.AddressWithSpace {
	return p.Sender.WithSpace(p.Space)
}
