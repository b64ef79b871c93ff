// Package prestate builds a prewarmed in-memory StateDB for one analysis
// call, so the EVM never blocks on sequential RPC reads mid-execution.
//
// Strategy: ask the node for the complete pre-execution state in one shot via
// debug_traceCall with the prestateTracer. Nodes without the debug namespace
// fall back to an eth_createAccessList hint merged with the declared list,
// fetched in parallel. Accounts the prewarm did not cover read as empty,
// which is correct for state the transaction does not touch.
package prestate

import (
	"bytes"
	"context"
	"fmt"
	"math/big"
	"slices"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/rawdb"
	"github.com/ethereum/go-ethereum/core/state"
	"github.com/ethereum/go-ethereum/core/tracing"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/ethclient/gethclient"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/ethereum/go-ethereum/triedb"
	"github.com/holiman/uint256"
	"golang.org/x/sync/errgroup"

	hammer "github.com/rankjay/hammer/core"
)

// fetchConcurrency caps the parallel RPC fan-out of the fallback path.
const fetchConcurrency = 16

// prestateAccount mirrors one account of the prestateTracer's default frame.
type prestateAccount struct {
	Balance *hexutil.Big                `json:"balance"`
	Nonce   uint64                      `json:"nonce"`
	Code    hexutil.Bytes               `json:"code"`
	Storage map[common.Hash]common.Hash `json:"storage"`
}

// Build returns an in-memory StateDB preloaded with everything the call will
// touch at the given block (nil means latest).
func Build(ctx context.Context, client *rpc.Client, call ethereum.CallMsg, declared types.AccessList, blockNum *big.Int) (*state.StateDB, error) {
	statedb, err := newMemoryState()
	if err != nil {
		return nil, err
	}

	var frame map[common.Address]prestateAccount
	err = client.CallContext(ctx, &frame, "debug_traceCall", toCallArg(call), toBlockNumArg(blockNum), map[string]interface{}{"tracer": "prestateTracer"})
	if err == nil {
		log.Debug("prewarmed state from prestate tracer", "accounts", len(frame))
		populate(statedb, frame)
		return statedb, nil
	}
	log.Debug("prestate tracer unavailable, using access list hint", "err", err)

	frame, err = fetchByHint(ctx, client, call, declared, blockNum)
	if err != nil {
		return nil, err
	}
	populate(statedb, frame)
	return statedb, nil
}

func newMemoryState() (*state.StateDB, error) {
	tdb := triedb.NewDatabase(rawdb.NewMemoryDatabase(), nil)
	return state.New(types.EmptyRootHash, state.NewDatabase(tdb, nil))
}

func populate(statedb *state.StateDB, frame map[common.Address]prestateAccount) {
	for addr, account := range frame {
		balance := new(uint256.Int)
		if account.Balance != nil {
			balance.SetFromBig(account.Balance.ToInt())
		}
		statedb.SetBalance(addr, balance, tracing.BalanceChangeUnspecified)
		statedb.SetNonce(addr, account.Nonce, tracing.NonceChangeUnspecified)
		if len(account.Code) > 0 {
			statedb.SetCode(addr, account.Code, tracing.CodeChangeUnspecified)
		}
		for slot, value := range account.Storage {
			statedb.SetState(addr, slot, value)
		}
	}
}

// fetchByHint asks the node which addresses and slots the call will touch via
// eth_createAccessList, unions the hint with the declared list plus the call
// participants, and fetches the accounts in parallel.
func fetchByHint(ctx context.Context, client *rpc.Client, call ethereum.CallMsg, declared types.AccessList, blockNum *big.Int) (map[common.Address]prestateAccount, error) {
	ec := ethclient.NewClient(client)
	gc := gethclient.New(client)

	var hint types.AccessList
	if nodeList, _, _, err := gc.CreateAccessList(ctx, call); err == nil && nodeList != nil {
		hint = *nodeList
	} else if err != nil {
		log.Debug("createAccessList hint unavailable", "err", err)
	}

	wanted := mergeAccessLists(hint, declared)
	slots := make(map[common.Address][]common.Hash, len(wanted)+2)
	for _, tuple := range wanted {
		slots[tuple.Address] = tuple.StorageKeys
	}
	// The EVM reads the sender and target unconditionally.
	if _, ok := slots[call.From]; !ok {
		slots[call.From] = nil
	}
	if call.To != nil {
		if _, ok := slots[*call.To]; !ok {
			slots[*call.To] = nil
		}
	}

	var (
		mu    sync.Mutex
		frame = make(map[common.Address]prestateAccount, len(slots))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)
	for addr, keys := range slots {
		g.Go(func() error {
			balance, err := ec.BalanceAt(gctx, addr, blockNum)
			if err != nil {
				return fmt.Errorf("%w: balance of %s: %v", hammer.ErrRPC, addr, err)
			}
			nonce, err := ec.NonceAt(gctx, addr, blockNum)
			if err != nil {
				return fmt.Errorf("%w: nonce of %s: %v", hammer.ErrRPC, addr, err)
			}
			code, err := ec.CodeAt(gctx, addr, blockNum)
			if err != nil {
				return fmt.Errorf("%w: code of %s: %v", hammer.ErrRPC, addr, err)
			}
			storage := make(map[common.Hash]common.Hash, len(keys))
			for _, key := range keys {
				value, err := ec.StorageAt(gctx, addr, key, blockNum)
				if err != nil {
					return fmt.Errorf("%w: storage %s of %s: %v", hammer.ErrRPC, key, addr, err)
				}
				storage[key] = common.BytesToHash(value)
			}
			mu.Lock()
			frame[addr] = prestateAccount{
				Balance: (*hexutil.Big)(balance),
				Nonce:   nonce,
				Code:    code,
				Storage: storage,
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return frame, nil
}

// mergeAccessLists unions two access lists into one deterministic list with
// unique, sorted addresses and slots.
func mergeAccessLists(a, b types.AccessList) types.AccessList {
	merged := make(map[common.Address]map[common.Hash]struct{})
	for _, list := range []types.AccessList{a, b} {
		for _, tuple := range list {
			slots, ok := merged[tuple.Address]
			if !ok {
				slots = make(map[common.Hash]struct{})
				merged[tuple.Address] = slots
			}
			for _, key := range tuple.StorageKeys {
				slots[key] = struct{}{}
			}
		}
	}
	addrs := make([]common.Address, 0, len(merged))
	for addr := range merged {
		addrs = append(addrs, addr)
	}
	slices.SortFunc(addrs, func(x, y common.Address) int { return bytes.Compare(x[:], y[:]) })

	out := make(types.AccessList, 0, len(addrs))
	for _, addr := range addrs {
		keys := make([]common.Hash, 0, len(merged[addr]))
		for key := range merged[addr] {
			keys = append(keys, key)
		}
		slices.SortFunc(keys, func(x, y common.Hash) int { return bytes.Compare(x[:], y[:]) })
		out = append(out, types.AccessTuple{Address: addr, StorageKeys: keys})
	}
	return out
}

func toCallArg(msg ethereum.CallMsg) interface{} {
	arg := map[string]interface{}{"from": msg.From, "to": msg.To}
	if len(msg.Data) > 0 {
		arg["input"] = hexutil.Bytes(msg.Data)
	}
	if msg.Value != nil {
		arg["value"] = (*hexutil.Big)(msg.Value)
	}
	if msg.Gas != 0 {
		arg["gas"] = hexutil.Uint64(msg.Gas)
	}
	if msg.GasPrice != nil {
		arg["gasPrice"] = (*hexutil.Big)(msg.GasPrice)
	}
	return arg
}

func toBlockNumArg(number *big.Int) string {
	if number == nil {
		return "latest"
	}
	if number.Sign() < 0 {
		return "pending"
	}
	return hexutil.EncodeBig(number)
}
