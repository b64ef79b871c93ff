package core

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"
	"slices"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/consensus/misc/eip4844"
	gethcore "github.com/ethereum/go-ethereum/core"
	"github.com/ethereum/go-ethereum/core/state"
	"github.com/ethereum/go-ethereum/core/tracing"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/params"
)

// TraceConfig tunes a single trace run.
type TraceConfig struct {
	// ChainConfig selects the fork schedule; nil means mainnet.
	ChainConfig *params.ChainConfig

	// GetHash serves the BLOCKHASH opcode. When nil the opcode observes a
	// zero hash, which matches an un-prefetched remote view.
	GetHash vm.GetHashFunc

	// SkipNonceCheck disables nonce validation, for replaying transactions
	// that were already mined.
	SkipNonceCheck bool
}

// accessTracer accumulates every address and storage slot the interpreter
// touches, plus the contracts created by CREATE/CREATE2 frames. Unlike the
// EVM's own access-list tracer it excludes nothing: warm-by-default stripping
// is the optimizer's job, and the raw view is what makes RemovedAddresses
// reportable.
type accessTracer struct {
	// addresses in first-touch order, with their touched slots
	order []common.Address
	slots map[common.Address]map[common.Hash]struct{}
	// contracts created by completed CREATE/CREATE2 frames
	created mapset.Set[common.Address]
	// open CREATE/CREATE2 frames
	frames []createFrame
}

type createFrame struct {
	depth int
	addr  common.Address
}

func newAccessTracer() *accessTracer {
	return &accessTracer{
		slots:   make(map[common.Address]map[common.Hash]struct{}),
		created: mapset.NewThreadUnsafeSet[common.Address](),
	}
}

func (t *accessTracer) hooks() *tracing.Hooks {
	return &tracing.Hooks{
		OnOpcode: t.onOpcode,
		OnEnter:  t.onEnter,
		OnExit:   t.onExit,
	}
}

func (t *accessTracer) addAddress(addr common.Address) {
	if _, ok := t.slots[addr]; !ok {
		t.slots[addr] = make(map[common.Hash]struct{})
		t.order = append(t.order, addr)
	}
}

func (t *accessTracer) addSlot(addr common.Address, slot common.Hash) {
	t.addAddress(addr)
	t.slots[addr][slot] = struct{}{}
}

// onOpcode watches the opcodes that take part in EIP-2929 access accounting
// and records their operands: storage ops touch a slot of the executing
// contract, account ops and calls touch the address on the stack.
func (t *accessTracer) onOpcode(pc uint64, opcode byte, gas, cost uint64, scope tracing.OpContext, rData []byte, depth int, err error) {
	if err != nil {
		return
	}
	op := vm.OpCode(opcode)
	stack := scope.StackData()
	stackLen := len(stack)
	switch {
	case (op == vm.SLOAD || op == vm.SSTORE) && stackLen >= 1:
		slot := common.Hash(stack[stackLen-1].Bytes32())
		t.addSlot(scope.Address(), slot)
	case (op == vm.EXTCODECOPY || op == vm.EXTCODEHASH || op == vm.EXTCODESIZE || op == vm.BALANCE || op == vm.SELFDESTRUCT) && stackLen >= 1:
		addr := common.Address(stack[stackLen-1].Bytes20())
		t.addAddress(addr)
	case (op == vm.CALL || op == vm.CALLCODE || op == vm.DELEGATECALL || op == vm.STATICCALL) && stackLen >= 5:
		addr := common.Address(stack[stackLen-2].Bytes20())
		t.addAddress(addr)
	}
}

func (t *accessTracer) onEnter(depth int, typ byte, from common.Address, to common.Address, input []byte, gas uint64, value *big.Int) {
	op := vm.OpCode(typ)
	if op == vm.CREATE || op == vm.CREATE2 {
		t.frames = append(t.frames, createFrame{depth: depth, addr: to})
	}
}

// onExit closes a CREATE frame and commits the new address only when the
// creation did not revert or error.
func (t *accessTracer) onExit(depth int, output []byte, gasUsed uint64, err error, reverted bool) {
	n := len(t.frames)
	if n == 0 || t.frames[n-1].depth != depth {
		return
	}
	frame := t.frames[n-1]
	t.frames = t.frames[:n-1]
	if err == nil && !reverted {
		t.created.Add(frame.addr)
	}
}

// accessList renders the accumulator as a wire access list: addresses in
// first-touch order, slots per address in ascending byte order.
func (t *accessTracer) accessList() types.AccessList {
	list := make(types.AccessList, 0, len(t.order))
	for _, addr := range t.order {
		keys := make([]common.Hash, 0, len(t.slots[addr]))
		for slot := range t.slots[addr] {
			keys = append(keys, slot)
		}
		slices.SortFunc(keys, func(a, b common.Hash) int { return bytes.Compare(a[:], b[:]) })
		list = append(list, types.AccessTuple{Address: addr, StorageKeys: keys})
	}
	return list
}

func (t *accessTracer) createdContracts() []common.Address {
	created := t.created.ToSlice()
	slices.SortFunc(created, func(a, b common.Address) int { return bytes.Compare(a[:], b[:]) })
	return created
}

// Trace runs the message once against statedb with the inspector installed
// and returns the raw access trace.
//
// Execution-level halts (REVERT, out of gas) are not errors: the trace is
// valid, possibly partial, and Success reports the outcome. Invalid
// transactions, state read failures and any other top-level halt (invalid
// opcode, stack error, bad jump) return ErrEvmExecution.
func Trace(statedb *state.StateDB, msg *gethcore.Message, header *types.Header, cfg *TraceConfig) (*RawTraceResult, error) {
	if cfg == nil {
		cfg = &TraceConfig{}
	}
	chainConfig := cfg.ChainConfig
	if chainConfig == nil {
		chainConfig = params.MainnetChainConfig
	}
	getHash := cfg.GetHash
	if getHash == nil {
		getHash = func(uint64) common.Hash { return common.Hash{} }
	}

	var (
		random  *common.Hash
		baseFee = new(big.Int)
	)
	if header.Difficulty == nil || header.Difficulty.Sign() == 0 {
		mixDigest := header.MixDigest
		random = &mixDigest
	}
	if header.BaseFee != nil {
		baseFee = new(big.Int).Set(header.BaseFee)
	}
	difficulty := new(big.Int)
	if header.Difficulty != nil {
		difficulty = new(big.Int).Set(header.Difficulty)
	}
	blockCtx := vm.BlockContext{
		CanTransfer: gethcore.CanTransfer,
		Transfer:    gethcore.Transfer,
		GetHash:     getHash,
		Coinbase:    header.Coinbase,
		GasLimit:    header.GasLimit,
		BlockNumber: new(big.Int).Set(header.Number),
		Time:        header.Time,
		Difficulty:  difficulty,
		BaseFee:     baseFee,
		Random:      random,
	}
	if header.ExcessBlobGas != nil {
		blockCtx.BlobBaseFee = eip4844.CalcBlobFee(chainConfig, header)
	}

	run := *msg
	run.SkipNonceChecks = run.SkipNonceChecks || cfg.SkipNonceCheck

	tracer := newAccessTracer()
	evm := vm.NewEVM(blockCtx, statedb, chainConfig, vm.Config{Tracer: tracer.hooks()})
	evm.SetTxContext(gethcore.NewEVMTxContext(&run))

	gp := new(gethcore.GasPool).AddGas(run.GasLimit)
	result, err := gethcore.ApplyMessage(evm, &run, gp)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEvmExecution, err)
	}
	if dbErr := statedb.Error(); dbErr != nil {
		return nil, fmt.Errorf("%w: state read: %v", ErrEvmExecution, dbErr)
	}
	if result.Err != nil && !errors.Is(result.Err, vm.ErrExecutionReverted) && !errors.Is(result.Err, vm.ErrOutOfGas) {
		return nil, fmt.Errorf("%w: halted: %v", ErrEvmExecution, result.Err)
	}

	raw := &RawTraceResult{
		AccessList:       tracer.accessList(),
		CreatedContracts: tracer.createdContracts(),
		GasUsed:          result.UsedGas,
		Success:          !result.Failed(),
	}
	log.Debug("traced transaction", "addresses", len(raw.AccessList), "created", len(raw.CreatedContracts), "gasUsed", raw.GasUsed, "success", raw.Success)
	return raw, nil
}
