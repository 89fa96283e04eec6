// Copyright 2019 Conflux Foundation. All rights reserved.
// Conflux is free software and distributed under GNU General Public License.
// See http://www.gnu.org/licenses/

package executor

import (
	"fmt"

	"github.com/conflux-chain/cfx-evm-executor/common"
	"github.com/conflux-chain/cfx-evm-executor/observer"
	"github.com/conflux-chain/cfx-evm-executor/state"
	"github.com/conflux-chain/cfx-evm-executor/vm"
	"github.com/holiman/uint256"
)

// Executed is the output record of a successfully-run (even if reverted)
// transaction: everything an ExecutionOutcome variant other than the two
// pre-execution rejects carries.
type Executed struct {
	GasUsed            *uint256.Int
	GasCharged         *uint256.Int
	Fee                *uint256.Int
	Logs               []state.LogEntry
	ContractsCreated   []common.AddressWithSpace
	Output             []byte
	Trace              []observer.ExecTrace
	EstimatedGasLimit  *uint256.Int
}

// notEnoughBalanceFeeCharged builds the Executed record for the "sender
// can't afford gas" preprocessing branch (spec.md §4.6.1 step 6). Guards
// against a zero gas price, which would make "charged = fee / price" divide
// by zero (see SPEC_FULL.md §7).
func notEnoughBalanceFeeCharged(tx TransactionInfo, fee *uint256.Int, trace []observer.ExecTrace) *Executed {
	gasCharged := uint256.NewInt(0)
	if tx.GasPrice().Sign() != 0 {
		gasCharged = new(uint256.Int).Div(fee, tx.GasPrice())
	}
	return &Executed{
		GasUsed:           new(uint256.Int).Set(tx.Gas()),
		GasCharged:        gasCharged,
		Fee:               new(uint256.Int).Set(fee),
		Output:            nil,
		Trace:             trace,
		EstimatedGasLimit: nil,
	}
}

// executionErrorFullyCharged builds the Executed record for a VM-level
// failure other than Reverted: the full gas limit is charged, no logs or
// created contracts survive.
func executionErrorFullyCharged(tx TransactionInfo, trace []observer.ExecTrace) *Executed {
	gas := new(uint256.Int).Set(tx.Gas())
	fee, overflow := new(uint256.Int).MulOverflow(gas, tx.GasPrice())
	if overflow {
		fee = new(uint256.Int).SetAllOne()
	}
	return &Executed{
		GasUsed:           gas,
		GasCharged:        new(uint256.Int).Set(gas),
		Fee:               fee,
		Output:            nil,
		Trace:             trace,
		EstimatedGasLimit: nil,
	}
}

// TxDropError classifies an outcome the sender must discard and cannot
// re-pack.
type TxDropError struct {
	OldNonce         *OldNonceError
	NotEnoughBaseGas *NotEnoughBaseGasError
}

type OldNonceError struct {
	StateNonce *uint256.Int
	TxNonce    *uint256.Int
}

func (e *OldNonceError) Error() string {
	return fmt.Sprintf("old nonce: state=%s tx=%s", e.StateNonce, e.TxNonce)
}

type NotEnoughBaseGasError struct {
	Expected uint64
	Actual   uint64
}

func (e *NotEnoughBaseGasError) Error() string {
	return fmt.Sprintf("not enough base gas: expected=%d actual=%d", e.Expected, e.Actual)
}

func (e *TxDropError) Error() string {
	if e.OldNonce != nil {
		return e.OldNonce.Error()
	}
	return e.NotEnoughBaseGas.Error()
}

// ToRepackError classifies an outcome that should be rejected now but may
// be packable again later.
type ToRepackError struct {
	InvalidNonce      *InvalidNonceError
	SenderDoesNotExist bool
}

type InvalidNonceError struct {
	Expected *uint256.Int
	Got      *uint256.Int
}

func (e *InvalidNonceError) Error() string {
	return fmt.Sprintf("invalid nonce: expected=%s got=%s", e.Expected, e.Got)
}

func (e *ToRepackError) Error() string {
	if e.InvalidNonce != nil {
		return e.InvalidNonce.Error()
	}
	return "sender does not exist"
}

// ExecutionError classifies a transaction that bumped the sender's nonce
// and charged some fee but did not finish successfully.
type ExecutionError struct {
	NotEnoughCash *NotEnoughCashError
	VmError       *vm.Error
}

// NotEnoughCashError's Required/Got are clamped to all-ones when the true
// value overflows 256 bits (gas*price+value can exceed it); ActualGasCost is
// always exact since it's what was actually charged.
type NotEnoughCashError struct {
	Required      *uint256.Int
	Got           *uint256.Int
	ActualGasCost *uint256.Int
}

func (e *NotEnoughCashError) Error() string {
	return fmt.Sprintf("not enough cash: required=%s got=%s actual_gas_cost=%s", e.Required, e.Got, e.ActualGasCost)
}

func (e *ExecutionError) Error() string {
	if e.NotEnoughCash != nil {
		return e.NotEnoughCash.Error()
	}
	return e.VmError.Error()
}

// ExecutionOutcome is the sum type every caller of transact() pattern
// matches on. Field and variant identities are part of this module's
// contract (spec.md §6): callers downstream depend on them.
type ExecutionOutcome struct {
	NotExecutedDrop              *TxDropError
	NotExecutedToReconsiderPacking *ToRepackError
	ExecutionErrorBumpNonce       *executionErrorBumpNonce
	Finished                      *Executed
}

type executionErrorBumpNonce struct {
	Err      *ExecutionError
	Executed *Executed
}

func outcomeDrop(err *TxDropError) ExecutionOutcome {
	return ExecutionOutcome{NotExecutedDrop: err}
}

func outcomeRepack(err *ToRepackError) ExecutionOutcome {
	return ExecutionOutcome{NotExecutedToReconsiderPacking: err}
}

func outcomeErrorBumpNonce(err *ExecutionError, executed *Executed) ExecutionOutcome {
	return ExecutionOutcome{ExecutionErrorBumpNonce: &executionErrorBumpNonce{Err: err, Executed: executed}}
}

func outcomeFinished(executed *Executed) ExecutionOutcome {
	return ExecutionOutcome{Finished: executed}
}

// SuccessfullyExecuted returns the Executed record iff the outcome is
// Finished, mirroring the source's `successfully_executed`.
func (o ExecutionOutcome) SuccessfullyExecuted() (*Executed, bool) {
	if o.Finished != nil {
		return o.Finished, true
	}
	return nil, false
}

// revertReasonErrorSelector is the 4-byte selector of Error(string).
var revertReasonErrorSelector = [4]byte{0x08, 0xc3, 0x79, 0xa0}

// RevertReasonDecode implements the surface utility from spec.md §6: given
// VM output bytes, if they carry the Error(string) selector, ABI-decode the
// trailing UTF-8 string and truncate it at 50 characters with an ellipsis;
// otherwise hex-dump the raw output.
func RevertReasonDecode(output []byte) string {
	if len(output) < 4 {
		return hexDump(output)
	}
	var sig [4]byte
	copy(sig[:], output[:4])
	if sig != revertReasonErrorSelector {
		return hexDump(output)
	}
	s, ok := decodeABIString(output[4:])
	if !ok {
		return hexDump(output)
	}
	const maxLength = 50
	runes := []rune(s)
	if len(runes) < maxLength {
		return s
	}
	return string(runes[:maxLength]) + "..."
}

func hexDump(output []byte) string {
	return "0x" + fmt.Sprintf("%x", output)
}

// decodeABIString decodes the tail of an ABI-encoded Error(string) return
// value: a 32-byte offset (ignored, always 0x20 for this one-argument
// encoding), a 32-byte length, then the UTF-8 bytes padded to a multiple of
// 32. This is the one narrowly-scoped decode this module performs; general
// ABI encode/decode is out of scope (spec.md §1).
func decodeABIString(data []byte) (string, bool) {
	if len(data) < 64 {
		return "", false
	}
	length := new(uint256.Int).SetBytes(data[32:64])
	if !length.IsUint64() {
		return "", false
	}
	n := length.Uint64()
	if uint64(len(data)) < 64+n {
		return "", false
	}
	return string(data[64 : 64+n]), true
}
