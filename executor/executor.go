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
	"errors"
	"sort"

	"github.com/conflux-chain/cfx-evm-executor/common"
	"github.com/conflux-chain/cfx-evm-executor/log"
	"github.com/conflux-chain/cfx-evm-executor/observer"
	"github.com/conflux-chain/cfx-evm-executor/params"
	"github.com/conflux-chain/cfx-evm-executor/state"
	"github.com/conflux-chain/cfx-evm-executor/vm"
	"github.com/holiman/uint256"
)

// mintBurnSink is the account killProcess credits with the remaining
// balance of every self-destructed contract. Gas payments are only traced
// to the GasPayment pocket and are not credited here. Grounded on the
// source's MINT_BURN_ADDRESS convention.
var mintBurnSink = common.Address{}.WithEthereumSpace()

// crossSpaceContractAddress is the privileged internal-contract address
// cross-space calls appear to originate from in the receiving EVM space.
// This module doesn't carry a full internal-contract registry, so the
// address is pinned here as the one synthetic sender CrossVMCall uses,
// grounded on the source's CROSS_SPACE_CONTRACT_ADDRESS constant.
var crossSpaceContractAddress = common.BytesToAddress([]byte{
	0x08, 0x88, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x06,
}).WithEthereumSpace()

// TXExecutor is C6: the orchestrator tying the world state, the frame
// stack, and the observer bundle together for one transact() call.
type TXExecutor struct {
	state *state.WorldState
	env   *params.Env
	spec  *params.Spec

	machine     vm.Machine
	debugRecord *state.DebugRecord

	log log.Logger
}

// NewTXExecutor builds an executor bound to a world state, block
// environment, gas schedule, and VM factory.
func NewTXExecutor(st *state.WorldState, env *params.Env, spec *params.Spec, machine vm.Machine, debugRecord *state.DebugRecord) *TXExecutor {
	return &TXExecutor{
		state:       st,
		env:         env,
		spec:        spec,
		machine:     machine,
		debugRecord: debugRecord,
		log:         log.Root().New("component", "executor"),
	}
}

// gasRequiredFor computes the intrinsic gas a transaction's shape and
// payload require before any VM code runs at all (spec.md §4.6.1 step 2).
func gasRequiredFor(isCreate bool, data []byte, spec *params.Spec) uint64 {
	base := spec.TxGas
	if isCreate {
		base = spec.TxCreateGas
	}
	for _, b := range data {
		if b == 0 {
			base += spec.TxDataZeroGas
		} else {
			base += spec.TxDataNonZeroGas
		}
	}
	return base
}

// Transact runs one transaction to completion (spec.md §4, the transact()
// operation). The returned error is reserved for infrastructure faults —
// an incomplete backing store, a corrupt record — that no ExecutionOutcome
// variant can represent; every business-logic rejection or failure comes
// back as a populated ExecutionOutcome instead.
func (x *TXExecutor) Transact(opts TransactOptions) (ExecutionOutcome, error) {
	tx := opts.Tx
	obs := observer.WithTracing()

	root, outcome, err := x.transactPreprocessing(opts, obs)
	if err != nil {
		return ExecutionOutcome{}, err
	}
	if root == nil {
		return outcome, nil
	}

	baseGas := gasRequiredFor(tx.Action().Kind == ActionCreate, tx.Data(), x.spec)

	fs := NewFrameStack(x.state, state.NewSubstate(), obs, baseGas, x.env, x.spec, x.machine)

	var frame *Frame
	if tx.Action().Kind == ActionCreate {
		frame = NewCreateFrame(fs, root, 0, false)
	} else {
		frame = NewCallFrame(fs, root, 0, false)
	}

	out := fs.Exec(frame)
	return x.transactPostprocessing(tx, out, opts.Settings.ChargeGas)
}

// transactPreprocessing implements spec.md §4.6.1's ordered checks: nonce,
// intrinsic gas, balance, then (if every check passes) the fee deduction,
// nonce bump, and root ActionParams construction. A non-nil root return
// means preprocessing succeeded and the caller should run the frame stack;
// a non-nil outcome with a nil root means preprocessing itself produced the
// final answer (a drop, a repack, or a charged-but-failed execution).
func (x *TXExecutor) transactPreprocessing(opts TransactOptions, obs observer.MultiObservers) (*vm.ActionParams, ExecutionOutcome, error) {
	tx := opts.Tx
	sender := tx.Sender().WithSpace(tx.Space())

	stateNonce, err := x.state.Nonce(sender)
	if err != nil {
		return nil, ExecutionOutcome{}, err
	}

	if cmp := stateNonce.Cmp(tx.Nonce()); cmp != 0 {
		if cmp > 0 {
			x.log.Debug("dropping transaction with stale nonce", "sender", sender, "state_nonce", stateNonce, "tx_nonce", tx.Nonce())
			return nil, outcomeDrop(&TxDropError{OldNonce: &OldNonceError{StateNonce: stateNonce, TxNonce: tx.Nonce()}}), nil
		}
		x.log.Debug("repacking transaction with future nonce", "sender", sender, "state_nonce", stateNonce, "tx_nonce", tx.Nonce())
		return nil, outcomeRepack(&ToRepackError{InvalidNonce: &InvalidNonceError{Expected: stateNonce, Got: tx.Nonce()}}), nil
	}

	isCreate := tx.Action().Kind == ActionCreate
	baseGas := gasRequiredFor(isCreate, tx.Data(), x.spec)
	if !tx.Gas().IsUint64() || tx.Gas().Uint64() < baseGas {
		x.log.Debug("dropping transaction with insufficient intrinsic gas", "sender", sender, "base_gas", baseGas)
		return nil, outcomeDrop(&TxDropError{NotEnoughBaseGas: &NotEnoughBaseGasError{Expected: baseGas, Actual: safeUint64(tx.Gas())}}), nil
	}

	fee, feeOverflow := new(uint256.Int).MulOverflow(tx.Gas(), tx.GasPrice())
	required, requiredOverflow := new(uint256.Int).AddOverflow(fee, tx.Value())

	balance, err := x.state.Balance(sender)
	if err != nil {
		return nil, ExecutionOutcome{}, err
	}

	insufficientBalance := feeOverflow || requiredOverflow || balance.Lt(required)
	if insufficientBalance {
		if opts.Settings.RealExecution {
			exists, err := x.state.Exists(sender)
			if err != nil {
				return nil, ExecutionOutcome{}, err
			}
			if !exists {
				return nil, outcomeRepack(&ToRepackError{SenderDoesNotExist: true}), nil
			}
		}

		chargeable := fee
		if feeOverflow || balance.Lt(fee) {
			// Either gas_limit*gas_price doesn't fit in 256 bits, or it fits
			// but exceeds what the sender actually has: either way the whole
			// balance is the most that can ever be charged.
			chargeable = balance
		}
		if err := x.state.IncNonce(sender, x.spec.AccountStartNonce, x.debugRecord); err != nil {
			return nil, ExecutionOutcome{}, err
		}
		if err := x.state.SubBalance(sender, chargeable, state.NoCleanup(), x.debugRecord); err != nil {
			return nil, ExecutionOutcome{}, err
		}
		obs.TraceInternalTransfer(observer.BalancePocket(sender), observer.GasPaymentPocket, chargeable)
		executed := notEnoughBalanceFeeCharged(tx, chargeable, obs.Drain())
		requiredClamped := required
		if feeOverflow || requiredOverflow {
			requiredClamped = new(uint256.Int).SetAllOne()
		}
		notEnoughCash := &NotEnoughCashError{
			Required:      requiredClamped,
			Got:           new(uint256.Int).Set(balance),
			ActualGasCost: chargeable,
		}
		return nil, outcomeErrorBumpNonce(&ExecutionError{NotEnoughCash: notEnoughCash}, executed), nil
	}

	if err := x.state.IncNonce(sender, x.spec.AccountStartNonce, x.debugRecord); err != nil {
		return nil, ExecutionOutcome{}, err
	}

	if opts.Settings.ChargeGas && !feeOverflow {
		if err := x.state.SubBalance(sender, fee, state.NoCleanup(), x.debugRecord); err != nil {
			return nil, ExecutionOutcome{}, err
		}
		obs.TraceInternalTransfer(observer.BalancePocket(sender), observer.GasPaymentPocket, fee)
	}

	gasAfterIntrinsic := uint64(0)
	if g := safeUint64(tx.Gas()); g > baseGas {
		gasAfterIntrinsic = g - baseGas
	}

	var root *vm.ActionParams
	if isCreate {
		addr, codeHash := ContractAddress(opts.CreateContractAddress, x.env.Number, sender, stateNonce, tx.Data())
		root = &vm.ActionParams{
			Space:          tx.Space(),
			CodeAddress:    addr.Address,
			Address:        addr.Address,
			Sender:         tx.Sender(),
			OriginalSender: tx.Sender(),
			Gas:            gasAfterIntrinsic,
			GasPrice:       tx.GasPrice(),
			Value:          vm.TransferValue(tx.Value()),
			Code:           tx.Data(),
			CodeHash:       &codeHash,
			Data:           nil,
			CallType:       vm.CallTypeNone,
			CreateType:     vm.CreateTypeCreate,
			ParamsType:     vm.ParamsTypeEmbedded,
		}
	} else {
		to := tx.Action().To
		code, err := x.state.Code(to.WithSpace(tx.Space()))
		if err != nil {
			return nil, ExecutionOutcome{}, err
		}
		codeHashPtr, err := x.state.CodeHash(to.WithSpace(tx.Space()))
		if err != nil {
			return nil, ExecutionOutcome{}, err
		}
		root = &vm.ActionParams{
			Space:          tx.Space(),
			CodeAddress:    to,
			Address:        to,
			Sender:         tx.Sender(),
			OriginalSender: tx.Sender(),
			Gas:            gasAfterIntrinsic,
			GasPrice:       tx.GasPrice(),
			Value:          vm.TransferValue(tx.Value()),
			Code:           code,
			CodeHash:       codeHashPtr,
			Data:           tx.Data(),
			CallType:       vm.CallTypeCall,
			CreateType:     vm.CreateTypeNone,
			ParamsType:     vm.ParamsTypeSeparate,
		}
	}

	return root, ExecutionOutcome{}, nil
}

// sstoreRefundNumerator/Denominator preserve a legacy truncation: the
// refund cap here was meant to mirror the textbook gasUsed/2 EIP-2200
// clause, but an early release computed it as gasUsed*6/7 and the exact
// rounding became consensus-relevant. This module keeps the historical
// arithmetic rather than the textbook fraction (see DESIGN.md).
const (
	sstoreRefundNumerator   = 6
	sstoreRefundDenominator = 7
)

// transactPostprocessing implements spec.md §4.6.2: turn the frame stack's
// raw result into gas/fee accounting, run the deferred self-destruct
// cleanup, and classify the final ExecutionOutcome.
func (x *TXExecutor) transactPostprocessing(tx TransactionInfo, out FrameStackOutput, chargeGas bool) (ExecutionOutcome, error) {
	sender := tx.Sender().WithSpace(tx.Space())

	if out.ResultErr != nil {
		var vmErr *vm.Error
		if !errors.As(out.ResultErr, &vmErr) {
			vmErr = vm.NewError(vm.KindInternalContract)
		}
		if vmErr.Kind == vm.KindStateDbError {
			return ExecutionOutcome{}, vmErr.Cause
		}

		gasUsed := safeUint64(tx.Gas()) - out.Result.GasLeft

		if vmErr.Kind == vm.KindReverted {
			executed, err := x.chargeAndFinish(tx, sender, gasUsed, out.Result.ReturnData, nil, out.Observer, chargeGas)
			if err != nil {
				return ExecutionOutcome{}, err
			}
			return outcomeErrorBumpNonce(&ExecutionError{VmError: vmErr}, executed), nil
		}

		obs := out.Observer
		obs.RecordGasUsed(safeUint64(tx.Gas()))
		executed := executionErrorFullyCharged(tx, obs.Drain())
		return outcomeErrorBumpNonce(&ExecutionError{VmError: vmErr}, executed), nil
	}

	gasUsed := safeUint64(tx.Gas()) - out.Result.GasLeft
	if err := x.killProcess(out.Substate, out.Observer); err != nil {
		return ExecutionOutcome{}, err
	}

	executed, err := x.chargeAndFinish(tx, sender, gasUsed, out.Result.ReturnData, out.Substate, out.Observer, chargeGas)
	if err != nil {
		return ExecutionOutcome{}, err
	}
	return outcomeFinished(executed), nil
}

// chargeAndFinish applies the sstore-clears refund, credits back unused
// gas to the sender, and assembles the Executed record shared by the
// Finished and Reverted-but-charged paths. obs is drained last, after every
// internal transfer this step records. chargeGas mirrors whatever value
// preprocessing used for the same transaction: if the upfront fee was never
// actually debited (a gas-estimation dry run), crediting a refund back would
// manufacture balance that was never taken, so the credit is skipped too.
func (x *TXExecutor) chargeAndFinish(
	tx TransactionInfo,
	sender common.AddressWithSpace,
	gasUsedBeforeRefund uint64,
	output []byte,
	substate *state.Substate,
	obs observer.MultiObservers,
	chargeGas bool,
) (*Executed, error) {
	obs.RecordGasUsed(gasUsedBeforeRefund)

	refundCap := gasUsedBeforeRefund * sstoreRefundNumerator / sstoreRefundDenominator
	refund := uint64(0)
	if substate != nil {
		refund = common.MinInt(substate.SstoreClearsRefund, refundCap)
	}
	gasUsed := gasUsedBeforeRefund - refund
	gasLeftFinal := safeUint64(tx.Gas()) - gasUsed

	refundAmount := new(uint256.Int).Mul(uint256.NewInt(gasLeftFinal), tx.GasPrice())
	if chargeGas {
		if err := x.state.AddBalance(sender, refundAmount, state.NoCleanup(), x.spec.AccountStartNonce, x.debugRecord); err != nil {
			return nil, err
		}
		obs.TraceInternalTransfer(observer.GasPaymentPocket, observer.BalancePocket(sender), refundAmount)
	}

	fee := new(uint256.Int).Mul(uint256.NewInt(gasUsed), tx.GasPrice())

	var logs []state.LogEntry
	var created []common.AddressWithSpace
	if substate != nil {
		logs = substate.Logs
		created = substate.ContractsCreated
	}

	// The estimate scales the recorded gas requirement, less the intrinsic
	// base gas, by 7/6 with truncating division, then adds the base gas back.
	baseGas := gasRequiredFor(tx.Action().Kind == ActionCreate, tx.Data(), x.spec)
	execGasRequired := uint64(0)
	if required := obs.GasRequired(); required > baseGas {
		execGasRequired = required - baseGas
	}
	estimatedGasLimit := execGasRequired*7/6 + baseGas

	return &Executed{
		GasUsed:           uint256.NewInt(gasUsed),
		GasCharged:        uint256.NewInt(gasUsed),
		Fee:               fee,
		Logs:              logs,
		ContractsCreated:  created,
		Output:            output,
		Trace:             obs.Drain(),
		EstimatedGasLimit: uint256.NewInt(estimatedGasLimit),
	}, nil
}

// killProcess performs the deferred cleanup for every address that
// self-destructed during execution: code, storage, and the account record
// are removed. Go's mapset iterates in randomized order, which would make
// the deletion order (and hence any order-sensitive observer trace)
// nondeterministic across runs on the same input — the set is sorted by
// address bytes first to preserve the determinism invariant (spec.md §8
// property 1; see SPEC_FULL.md §7).
func (x *TXExecutor) killProcess(substate *state.Substate, obs observer.MultiObservers) error {
	if substate == nil {
		return nil
	}
	addrs := substate.Suicides.ToSlice()
	sort.Slice(addrs, func(i, j int) bool {
		if addrs[i].Space != addrs[j].Space {
			return addrs[i].Space < addrs[j].Space
		}
		return string(addrs[i].Address.Bytes()) < string(addrs[j].Address.Bytes())
	})
	for _, addr := range addrs {
		balance, err := x.state.Balance(addr)
		if err != nil {
			return err
		}
		if balance.Sign() != 0 {
			if err := x.state.SubBalance(addr, balance, state.NoCleanup(), x.debugRecord); err != nil {
				return err
			}
			if err := x.state.AddBalance(mintBurnSink, balance, state.NoCleanup(), x.spec.AccountStartNonce, x.debugRecord); err != nil {
				return err
			}
			obs.TraceInternalTransfer(observer.BalancePocket(addr), observer.MintBurnPocket, balance)
			if err := x.state.SubtractTotalIssued(balance, x.debugRecord); err != nil {
				return err
			}
		}
		if err := x.state.RemoveContract(addr, x.debugRecord); err != nil {
			return err
		}
	}
	return nil
}

// CrossVMParams is the input to the cross-space call entry point
// (spec.md §4.6.3): the privileged cross-space built-in contract invoking
// the executor on a synthetic sender's behalf, rather than a nested frame
// invoking it from within the same space.
type CrossVMParams struct {
	Receiver     common.Address
	FunctionName string
	Gas          uint64
	GasPrice     *uint256.Int
	Value        *uint256.Int
	EVMParams    [][]byte
	CallerInfo   string
}

// CrossVMReturn is what the cross-space caller gets back: there is no
// ExecutionOutcome classification here, since the caller is itself inside
// a running frame and must propagate failure as an ordinary VM error.
type CrossVMReturn struct {
	Substate *state.Substate
	Result   vm.FinalizationResult
	Err      error
}

// CrossVMCall runs a cross-space call as a brand-new, top-level frame
// against the executor's world state, with tracing disabled (spec.md
// §4.6.3: a cross-space call is plumbing, not something the caller's own
// trace should see duplicated). It does not touch nonces, fees, or
// gas-schedule intrinsic costs — the calling internal contract already
// paid for all of that as part of its own enclosing transaction.
//
// Before the frame runs, value is credited to the cross-space contract's
// own balance: the receiving EVM-space contract observes the transfer as
// an ordinary incoming Call value, but the counterparty bookkeeping lives
// on the bridge address rather than a native-space account this module
// doesn't model. The call data is built from function_name/caller_info/
// params exactly as the receiving contract's ABI expects: an empty
// function name means a plain value transfer with no data; otherwise the
// first four bytes of keccak256("<fn>(string,bytes[])") followed by the
// ABI encoding of (caller_info, params).
func (x *TXExecutor) CrossVMCall(p CrossVMParams) (CrossVMReturn, error) {
	receiver := p.Receiver.WithEthereumSpace()

	code, err := x.state.Code(receiver)
	if err != nil {
		return CrossVMReturn{}, err
	}
	codeHash, err := x.state.CodeHash(receiver)
	if err != nil {
		return CrossVMReturn{}, err
	}

	if err := x.state.AddBalance(crossSpaceContractAddress, p.Value, state.NoCleanup(), x.spec.AccountStartNonce, x.debugRecord); err != nil {
		return CrossVMReturn{}, err
	}

	action := &vm.ActionParams{
		Space:          receiver.Space,
		CodeAddress:    receiver.Address,
		Address:        receiver.Address,
		Sender:         crossSpaceContractAddress.Address,
		OriginalSender: common.Address{},
		Gas:            p.Gas,
		GasPrice:       p.GasPrice,
		Value:          vm.TransferValue(p.Value),
		Code:           code,
		CodeHash:       codeHash,
		Data:           crossVMCallData(p.FunctionName, p.CallerInfo, p.EVMParams),
		CallType:       vm.CallTypeCall,
		CreateType:     vm.CreateTypeNone,
		ParamsType:     vm.ParamsTypeSeparate,
	}

	obs := observer.WithNoTracing()
	fs := NewFrameStack(x.state, state.NewSubstate(), obs, 0, x.env, x.spec, x.machine)
	frame := NewCallFrame(fs, action, 0, false)

	out := fs.Exec(frame)
	return CrossVMReturn{Substate: out.Substate, Result: out.Result, Err: out.ResultErr}, nil
}

func safeUint64(v *uint256.Int) uint64 {
	if !v.IsUint64() {
		return ^uint64(0)
	}
	return v.Uint64()
}
