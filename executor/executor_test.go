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
	"testing"

	"github.com/conflux-chain/cfx-evm-executor/common"
	"github.com/conflux-chain/cfx-evm-executor/params"
	"github.com/conflux-chain/cfx-evm-executor/state"
	"github.com/conflux-chain/cfx-evm-executor/vm"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptFunc is a frame's whole behavior: given the params it was entered
// with and the Host it can recurse through, return a FinalizationResult or
// an error exactly like a real Interpreter would.
type scriptFunc func(params *vm.ActionParams, host vm.Host) (vm.FinalizationResult, error)

type scriptedInterpreter struct{ fn scriptFunc }

func (s scriptedInterpreter) Run(p *vm.ActionParams, host vm.Host) (vm.FinalizationResult, error) {
	return s.fn(p, host)
}

type scriptedFactory struct{ fn scriptFunc }

func (f scriptedFactory) Create(space common.Space) vm.Interpreter {
	return scriptedInterpreter{fn: f.fn}
}

type scriptedMachine struct{ fn scriptFunc }

func (m scriptedMachine) VMFactory() vm.VMFactory { return scriptedFactory{fn: m.fn} }

// fullyApplied is the trivial script: keep all gas, apply state, no output.
func fullyApplied(p *vm.ActionParams, host vm.Host) (vm.FinalizationResult, error) {
	return vm.FinalizationResult{GasLeft: p.Gas, ApplyState: true}, nil
}

func newTestAddr(b byte) common.Address {
	return common.BytesToAddress([]byte{b})
}

type testFixture struct {
	t     *testing.T
	ws    *state.WorldState
	spec  *params.Spec
	env   *params.Env
	debug *state.DebugRecord
}

func newFixture(t *testing.T) *testFixture {
	t.Helper()
	return &testFixture{
		t:     t,
		ws:    state.NewWorldState(state.NewStateDB(state.NewMemoryKV())),
		spec:  params.DefaultSpec(),
		env:   &params.Env{Number: 1, GasLimit: 30_000_000},
		debug: state.NewDebugRecord(),
	}
}

// fund creates the account (if absent) with the given balance.
func (f *testFixture) fund(addr common.AddressWithSpace, balance uint64) {
	require.NoError(f.t, f.ws.AddBalance(addr, uint256.NewInt(balance), state.NoCleanup(), f.spec.AccountStartNonce, f.debug))
}

func (f *testFixture) newExecutor(fn scriptFunc) *TXExecutor {
	return NewTXExecutor(f.ws, f.env, f.spec, scriptedMachine{fn: fn}, f.debug)
}

func simpleCallTx(sender common.Address, to common.Address, gas, gasPrice, value uint64) *Transaction {
	return &Transaction{
		From:     sender,
		TxNonce:  uint256.NewInt(0),
		GasLimit: uint256.NewInt(gas),
		Price:    uint256.NewInt(gasPrice),
		Amount:   uint256.NewInt(value),
		To:       CallTo(to),
		Payload:  nil,
		Sp:       common.SpaceEthereum,
	}
}

func TestTransactSimpleCallSucceeds(t *testing.T) {
	f := newFixture(t)
	sender := newTestAddr(1).WithEthereumSpace()
	receiver := newTestAddr(2)
	f.fund(sender, 1_000_000)

	x := f.newExecutor(fullyApplied)
	tx := simpleCallTx(newTestAddr(1), receiver, 100_000, 1, 0)

	outcome, err := x.Transact(TransactOptions{Tx: tx, Settings: DefaultCheckSettings()})
	require.NoError(t, err)

	executed, ok := outcome.SuccessfullyExecuted()
	require.True(t, ok, "expected a Finished outcome")
	assert.Equal(t, f.spec.TxGas, executed.GasUsed.Uint64())

	nonce, err := f.ws.Nonce(sender)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), nonce.Uint64())

	balance, err := f.ws.Balance(sender)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000_000-f.spec.TxGas), balance.Uint64(), "only the intrinsic gas should have been charged")
}

func TestTransactStaleNonceDrops(t *testing.T) {
	f := newFixture(t)
	sender := newTestAddr(1).WithEthereumSpace()
	f.fund(sender, 1_000_000)
	require.NoError(t, f.ws.IncNonce(sender, 0, f.debug))

	x := f.newExecutor(fullyApplied)
	tx := simpleCallTx(newTestAddr(1), newTestAddr(2), 100_000, 1, 0)

	outcome, err := x.Transact(TransactOptions{Tx: tx, Settings: DefaultCheckSettings()})
	require.NoError(t, err)
	require.NotNil(t, outcome.NotExecutedDrop)
	require.NotNil(t, outcome.NotExecutedDrop.OldNonce)
}

func TestTransactFutureNonceRepacks(t *testing.T) {
	f := newFixture(t)
	sender := newTestAddr(1).WithEthereumSpace()
	f.fund(sender, 1_000_000)

	x := f.newExecutor(fullyApplied)
	tx := simpleCallTx(newTestAddr(1), newTestAddr(2), 100_000, 1, 0)
	tx.TxNonce = uint256.NewInt(5)

	outcome, err := x.Transact(TransactOptions{Tx: tx, Settings: DefaultCheckSettings()})
	require.NoError(t, err)
	require.NotNil(t, outcome.NotExecutedToReconsiderPacking)
	require.NotNil(t, outcome.NotExecutedToReconsiderPacking.InvalidNonce)
}

func TestTransactUnknownSenderRepacks(t *testing.T) {
	f := newFixture(t)

	x := f.newExecutor(fullyApplied)
	tx := simpleCallTx(newTestAddr(1), newTestAddr(2), 100_000, 1, 0)

	outcome, err := x.Transact(TransactOptions{Tx: tx, Settings: DefaultCheckSettings()})
	require.NoError(t, err)
	require.NotNil(t, outcome.NotExecutedToReconsiderPacking)
	assert.True(t, outcome.NotExecutedToReconsiderPacking.SenderDoesNotExist)
}

func TestTransactInsufficientIntrinsicGasDrops(t *testing.T) {
	f := newFixture(t)
	sender := newTestAddr(1).WithEthereumSpace()
	f.fund(sender, 1_000_000)

	x := f.newExecutor(fullyApplied)
	tx := simpleCallTx(newTestAddr(1), newTestAddr(2), f.spec.TxGas-1, 1, 0)

	outcome, err := x.Transact(TransactOptions{Tx: tx, Settings: DefaultCheckSettings()})
	require.NoError(t, err)
	require.NotNil(t, outcome.NotExecutedDrop)
	require.NotNil(t, outcome.NotExecutedDrop.NotEnoughBaseGas)
}

func TestTransactInsufficientBalanceChargesWhatItCanAndBumpsNonce(t *testing.T) {
	f := newFixture(t)
	sender := newTestAddr(1).WithEthereumSpace()
	// enough to exist, not enough to cover gas*price.
	f.fund(sender, 1000)

	x := f.newExecutor(fullyApplied)
	tx := simpleCallTx(newTestAddr(1), newTestAddr(2), 100_000, 1, 0)

	outcome, err := x.Transact(TransactOptions{Tx: tx, Settings: DefaultCheckSettings()})
	require.NoError(t, err)
	require.NotNil(t, outcome.ExecutionErrorBumpNonce)
	require.NotNil(t, outcome.ExecutionErrorBumpNonce.Err.NotEnoughCash)

	nonce, err := f.ws.Nonce(sender)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), nonce.Uint64(), "nonce still advances even when the sender can't pay")

	balance, err := f.ws.Balance(sender)
	require.NoError(t, err)
	assert.True(t, balance.IsZero(), "the whole remaining balance is charged")
}

func TestTransactRevertedChargesGasUsedAndKeepsOutput(t *testing.T) {
	f := newFixture(t)
	sender := newTestAddr(1).WithEthereumSpace()
	f.fund(sender, 1_000_000)

	revertReason := []byte("nope")
	x := f.newExecutor(func(p *vm.ActionParams, host vm.Host) (vm.FinalizationResult, error) {
		return vm.FinalizationResult{GasLeft: 1000, ReturnData: revertReason}, vm.ErrReverted
	})
	tx := simpleCallTx(newTestAddr(1), newTestAddr(2), 100_000, 1, 0)

	outcome, err := x.Transact(TransactOptions{Tx: tx, Settings: DefaultCheckSettings()})
	require.NoError(t, err)
	require.NotNil(t, outcome.ExecutionErrorBumpNonce)
	executed := outcome.ExecutionErrorBumpNonce.Executed
	require.NotNil(t, executed)
	assert.Equal(t, revertReason, executed.Output)
	assert.Equal(t, uint64(100_000-1000), executed.GasUsed.Uint64())
	assert.Equal(t, vm.KindReverted, outcome.ExecutionErrorBumpNonce.Err.VmError.Kind)
}

func TestTransactGenericVMErrorChargesFullGasLimit(t *testing.T) {
	f := newFixture(t)
	sender := newTestAddr(1).WithEthereumSpace()
	f.fund(sender, 1_000_000)

	x := f.newExecutor(func(p *vm.ActionParams, host vm.Host) (vm.FinalizationResult, error) {
		return vm.FinalizationResult{}, vm.ErrOutOfGas
	})
	tx := simpleCallTx(newTestAddr(1), newTestAddr(2), 100_000, 1, 0)

	outcome, err := x.Transact(TransactOptions{Tx: tx, Settings: DefaultCheckSettings()})
	require.NoError(t, err)
	require.NotNil(t, outcome.ExecutionErrorBumpNonce)
	executed := outcome.ExecutionErrorBumpNonce.Executed
	require.NotNil(t, executed)
	assert.Equal(t, uint64(100_000), executed.GasUsed.Uint64())

	balance, err := f.ws.Balance(sender)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000_000-100_000), balance.Uint64())
}

func TestTransactInfrastructureFaultPropagatesAsRawError(t *testing.T) {
	f := newFixture(t)
	sender := newTestAddr(1).WithEthereumSpace()
	f.fund(sender, 1_000_000)

	underlying := state.ErrIncompleteDatabase(assertError("disk on fire"))
	x := f.newExecutor(func(p *vm.ActionParams, host vm.Host) (vm.FinalizationResult, error) {
		return vm.FinalizationResult{}, vm.WrapStateDbError(underlying)
	})
	tx := simpleCallTx(newTestAddr(1), newTestAddr(2), 100_000, 1, 0)

	_, err := x.Transact(TransactOptions{Tx: tx, Settings: DefaultCheckSettings()})
	require.Error(t, err)
	assert.Equal(t, underlying, err)
}

// assertError is a trivial error value, used only so the infra-fault test
// has a concrete Cause to compare against.
type assertError string

func (e assertError) Error() string { return string(e) }

func TestTransactCreateDerivesContractAddress(t *testing.T) {
	f := newFixture(t)
	sender := newTestAddr(1).WithEthereumSpace()
	f.fund(sender, 1_000_000)

	var createdAddr common.Address
	x := f.newExecutor(func(p *vm.ActionParams, host vm.Host) (vm.FinalizationResult, error) {
		createdAddr = p.Address
		return vm.FinalizationResult{GasLeft: p.Gas, ApplyState: true}, nil
	})

	tx := &Transaction{
		From:     newTestAddr(1),
		TxNonce:  uint256.NewInt(0),
		GasLimit: uint256.NewInt(100_000),
		Price:    uint256.NewInt(1),
		Amount:   uint256.NewInt(0),
		To:       Create(),
		Payload:  []byte{0x60, 0x00, 0x60, 0x00},
		Sp:       common.SpaceEthereum,
	}

	outcome, err := x.Transact(TransactOptions{
		Tx:                    tx,
		Settings:              DefaultCheckSettings(),
		CreateContractAddress: vm.CreateContractAddressFromSenderNonce,
	})
	require.NoError(t, err)
	_, ok := outcome.SuccessfullyExecuted()
	require.True(t, ok)
	assert.False(t, createdAddr.IsZero())

	wantAddr, _ := ContractAddress(vm.CreateContractAddressFromSenderNonce, f.env.Number, sender, uint256.NewInt(0), tx.Payload)
	assert.Equal(t, wantAddr.Address, createdAddr)
}

func TestTransactNestedCallMergesSubstateOnSuccess(t *testing.T) {
	f := newFixture(t)
	sender := newTestAddr(1).WithEthereumSpace()
	f.fund(sender, 1_000_000)

	childAddr := newTestAddr(3)
	x := f.newExecutor(func(p *vm.ActionParams, host vm.Host) (vm.FinalizationResult, error) {
		if p.CallType == vm.CallTypeCall && p.Address == childAddr {
			frame := host.(*Frame)
			frame.substate.Logs = append(frame.substate.Logs, state.LogEntry{Address: childAddr})
			return vm.FinalizationResult{GasLeft: p.Gas, ApplyState: true}, nil
		}
		childParams := &vm.ActionParams{
			Space:      common.SpaceEthereum,
			Address:    childAddr,
			CodeAddress: childAddr,
			Gas:        p.Gas / 2,
			GasPrice:   p.GasPrice,
			Value:      vm.TransferValue(uint256.NewInt(0)),
			CallType:   vm.CallTypeCall,
		}
		res, err := host.Call(childParams)
		if err != nil {
			return res, err
		}
		return vm.FinalizationResult{GasLeft: res.GasLeft, ApplyState: true}, nil
	})

	tx := simpleCallTx(newTestAddr(1), newTestAddr(2), 200_000, 1, 0)
	outcome, err := x.Transact(TransactOptions{Tx: tx, Settings: DefaultCheckSettings()})
	require.NoError(t, err)
	executed, ok := outcome.SuccessfullyExecuted()
	require.True(t, ok)
	require.Len(t, executed.Logs, 1)
	assert.Equal(t, childAddr, executed.Logs[0].Address)
}

func TestTransactDepthLimitRejectsTooDeepCall(t *testing.T) {
	f := newFixture(t)
	f.spec.MaxCallDepth = 0
	sender := newTestAddr(1).WithEthereumSpace()
	f.fund(sender, 1_000_000)

	x := f.newExecutor(func(p *vm.ActionParams, host vm.Host) (vm.FinalizationResult, error) {
		res, err := host.Call(&vm.ActionParams{
			Space:    common.SpaceEthereum,
			Address:  newTestAddr(9),
			Gas:      p.Gas,
			GasPrice: p.GasPrice,
			Value:    vm.TransferValue(uint256.NewInt(0)),
			CallType: vm.CallTypeCall,
		})
		return res, err
	})

	tx := simpleCallTx(newTestAddr(1), newTestAddr(2), 100_000, 1, 0)
	outcome, err := x.Transact(TransactOptions{Tx: tx, Settings: DefaultCheckSettings()})
	require.NoError(t, err)
	require.NotNil(t, outcome.ExecutionErrorBumpNonce)
	assert.Equal(t, vm.KindOutOfDepth, outcome.ExecutionErrorBumpNonce.Err.VmError.Kind)
}

func TestTransactKillProcessMovesBalanceToMintBurnSinkAndRemovesContract(t *testing.T) {
	f := newFixture(t)
	sender := newTestAddr(1).WithEthereumSpace()
	victim := newTestAddr(7).WithEthereumSpace()
	f.fund(sender, 1_000_000)
	f.fund(victim, 500)
	require.NoError(t, f.ws.SetCode(victim, []byte{0x01}, common.Hash{}, f.debug))
	// the issued supply must cover the burned balance, as on a real chain.
	require.NoError(t, f.ws.AddTotalIssued(uint256.NewInt(500), f.debug))

	x := f.newExecutor(func(p *vm.ActionParams, host vm.Host) (vm.FinalizationResult, error) {
		frame := host.(*Frame)
		frame.substate.Suicides.Add(victim)
		return vm.FinalizationResult{GasLeft: p.Gas, ApplyState: true}, nil
	})

	tx := simpleCallTx(newTestAddr(1), newTestAddr(2), 100_000, 1, 0)
	outcome, err := x.Transact(TransactOptions{Tx: tx, Settings: DefaultCheckSettings()})
	require.NoError(t, err)
	_, ok := outcome.SuccessfullyExecuted()
	require.True(t, ok)

	victimBalance, err := f.ws.Balance(victim)
	require.NoError(t, err)
	assert.True(t, victimBalance.IsZero())

	victimCode, err := f.ws.Code(victim)
	require.NoError(t, err)
	assert.Nil(t, victimCode)

	sinkBalance, err := f.ws.Balance(mintBurnSink)
	require.NoError(t, err)
	assert.Equal(t, uint64(500), sinkBalance.Uint64())
}

func TestTransactKillProcessSubtractsTotalIssued(t *testing.T) {
	f := newFixture(t)
	sender := newTestAddr(1).WithEthereumSpace()
	victim := newTestAddr(7).WithEthereumSpace()
	f.fund(sender, 1_000_000)
	f.fund(victim, 500)
	require.NoError(t, f.ws.SetCode(victim, []byte{0x01}, common.Hash{}, f.debug))
	require.NoError(t, f.ws.AddTotalIssued(uint256.NewInt(10_000), f.debug))

	x := f.newExecutor(func(p *vm.ActionParams, host vm.Host) (vm.FinalizationResult, error) {
		frame := host.(*Frame)
		frame.substate.Suicides.Add(victim)
		return vm.FinalizationResult{GasLeft: p.Gas, ApplyState: true}, nil
	})

	tx := simpleCallTx(newTestAddr(1), newTestAddr(2), 100_000, 1, 0)
	outcome, err := x.Transact(TransactOptions{Tx: tx, Settings: DefaultCheckSettings()})
	require.NoError(t, err)
	_, ok := outcome.SuccessfullyExecuted()
	require.True(t, ok)

	total, err := f.ws.TotalIssued()
	require.NoError(t, err)
	assert.Equal(t, uint64(10_000-500), total.Uint64())
}

func TestVMTracerReachableThroughHost(t *testing.T) {
	f := newFixture(t)
	sender := newTestAddr(1).WithEthereumSpace()
	f.fund(sender, 1_000_000)

	x := f.newExecutor(func(p *vm.ActionParams, host vm.Host) (vm.FinalizationResult, error) {
		host.VMTracer().TraceStep(vm.VMStep{PC: 3, Op: 0x01, Gas: p.Gas, Depth: host.Depth()})
		return vm.FinalizationResult{GasLeft: p.Gas, ApplyState: true}, nil
	})

	tx := simpleCallTx(newTestAddr(1), newTestAddr(2), 100_000, 1, 0)
	outcome, err := x.Transact(TransactOptions{Tx: tx, Settings: DefaultCheckSettings()})
	require.NoError(t, err)

	executed, ok := outcome.SuccessfullyExecuted()
	require.True(t, ok)
	require.NotEmpty(t, executed.Trace)
}

func TestTransactEstimationModeDoesNotChargeGas(t *testing.T) {
	f := newFixture(t)
	sender := newTestAddr(1).WithEthereumSpace()
	// funded enough to pass the balance check on its own terms; estimation
	// mode's only job here is to skip actually debiting the fee.
	f.fund(sender, 1_000_000)

	x := f.newExecutor(fullyApplied)
	tx := simpleCallTx(newTestAddr(1), newTestAddr(2), 100_000, 1, 0)

	outcome, err := x.Transact(TransactOptions{
		Tx:       tx,
		Settings: CheckSettings{ChargeGas: false, RealExecution: false},
	})
	require.NoError(t, err)
	_, ok := outcome.SuccessfullyExecuted()
	require.True(t, ok)

	balance, err := f.ws.Balance(sender)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000_000), balance.Uint64(), "estimation must not charge the sender")
}

func TestTransactEstimationModeSkipsSenderExistsCheck(t *testing.T) {
	f := newFixture(t)
	// sender is never funded or otherwise created, so a real execution
	// would reject it with SenderDoesNotExist; estimation mode must not.

	x := f.newExecutor(fullyApplied)
	tx := simpleCallTx(newTestAddr(1), newTestAddr(2), 100_000, 1, 0)

	outcome, err := x.Transact(TransactOptions{
		Tx:       tx,
		Settings: CheckSettings{ChargeGas: false, RealExecution: false},
	})
	require.NoError(t, err)
	require.NotNil(t, outcome.ExecutionErrorBumpNonce, "an unfunded sender still fails the cash check even in estimation mode")
	require.NotNil(t, outcome.ExecutionErrorBumpNonce.Err.NotEnoughCash)
}

func TestCrossVMCallDoesNotTouchNonceOrBalance(t *testing.T) {
	f := newFixture(t)
	sender := newTestAddr(1).WithEthereumSpace()
	f.fund(sender, 1_000_000)

	x := f.newExecutor(fullyApplied)
	result, err := x.CrossVMCall(CrossVMParams{
		Receiver:     newTestAddr(2),
		FunctionName: "",
		Gas:          50_000,
		GasPrice:     uint256.NewInt(1),
		Value:        uint256.NewInt(0),
	})
	require.NoError(t, err)
	require.NoError(t, result.Err)
	assert.True(t, result.Result.ApplyState)

	nonce, err := f.ws.Nonce(sender)
	require.NoError(t, err)
	assert.True(t, nonce.IsZero())

	balance, err := f.ws.Balance(sender)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000_000), balance.Uint64())
}

func TestCrossVMCallCreditsValueAndBuildsCallData(t *testing.T) {
	f := newFixture(t)
	receiver := newTestAddr(2)
	receiverSpace := receiver.WithEthereumSpace()
	require.NoError(t, f.ws.SetCode(receiverSpace, []byte{0x60}, common.BytesToHash([]byte{1}), f.debug))

	var seen *vm.ActionParams
	capture := func(p *vm.ActionParams, host vm.Host) (vm.FinalizationResult, error) {
		seen = p
		return vm.FinalizationResult{GasLeft: p.Gas, ApplyState: true}, nil
	}

	x := f.newExecutor(capture)
	value := uint256.NewInt(500)
	result, err := x.CrossVMCall(CrossVMParams{
		Receiver:     receiver,
		FunctionName: "callEVM",
		Gas:          50_000,
		GasPrice:     uint256.NewInt(1),
		Value:        value,
		EVMParams:    [][]byte{[]byte("arg")},
		CallerInfo:   "caller",
	})
	require.NoError(t, err)
	require.NoError(t, result.Err)
	require.NotNil(t, seen)

	assert.Equal(t, crossSpaceContractAddress.Address, seen.Sender)
	assert.Equal(t, common.Address{}, seen.OriginalSender)
	assert.Equal(t, receiver, seen.Address)
	assert.Equal(t, crossVMCallData("callEVM", "caller", [][]byte{[]byte("arg")}), seen.Data)

	bridgeBalance, err := f.ws.Balance(crossSpaceContractAddress)
	require.NoError(t, err)
	assert.Equal(t, uint64(500), bridgeBalance.Uint64())
}

func TestRevertReasonDecodeErrorStringSelector(t *testing.T) {
	// selector for Error(string), then offset=0x20, length=5, "hello" padded to 32.
	out := append([]byte{0x08, 0xc3, 0x79, 0xa0},
		append(
			append(make([]byte, 31), 0x20),
			append(append(make([]byte, 31), 5), append([]byte("hello"), make([]byte, 27)...)...)...,
		)...,
	)
	assert.Equal(t, "hello", RevertReasonDecode(out))
}

func TestRevertReasonDecodeFallsBackToHexDump(t *testing.T) {
	out := []byte{0xde, 0xad, 0xbe, 0xef}
	assert.Equal(t, "0xdeadbeef", RevertReasonDecode(out))
}
