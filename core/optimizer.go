package core

import (
	"bytes"
	"slices"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Optimize strips warm-by-default entries from a raw trace and canonicalizes
// what remains. Removed: the sender, the call target, the coinbase (all warm
// per EIP-2929/3651), precompiles, and contracts created during execution
// (created accounts are warm from the moment they exist). The zero address is
// never part of the from/to/coinbase warm set, so a genuine zero-address
// access survives a creation-style environment where txTo is zero.
//
// Pure function; deterministic: output addresses and their slots are unique
// and in ascending byte order, duplicate raw items are merged by slot union.
func Optimize(raw *RawTraceResult, txFrom, txTo, coinbase common.Address) *OptimizedAccessList {
	precompiles := Precompiles()
	created := mapset.NewThreadUnsafeSet(raw.CreatedContracts...)

	warm := mapset.NewThreadUnsafeSet[common.Address]()
	for _, addr := range []common.Address{txFrom, txTo, coinbase} {
		if addr != (common.Address{}) {
			warm.Add(addr)
		}
	}

	removed := make([]common.Address, 0)
	merged := make(map[common.Address]map[common.Hash]struct{})
	for _, tuple := range raw.AccessList {
		addr := tuple.Address
		if warm.Contains(addr) || precompiles.Contains(addr) || created.Contains(addr) {
			removed = append(removed, addr)
			continue
		}
		slots, ok := merged[addr]
		if !ok {
			slots = make(map[common.Hash]struct{})
			merged[addr] = slots
		}
		for _, key := range tuple.StorageKeys {
			slots[key] = struct{}{}
		}
	}

	addrs := make([]common.Address, 0, len(merged))
	for addr := range merged {
		addrs = append(addrs, addr)
	}
	slices.SortFunc(addrs, func(a, b common.Address) int { return bytes.Compare(a[:], b[:]) })

	list := make(types.AccessList, 0, len(addrs))
	for _, addr := range addrs {
		keys := make([]common.Hash, 0, len(merged[addr]))
		for slot := range merged[addr] {
			keys = append(keys, slot)
		}
		slices.SortFunc(keys, func(a, b common.Hash) int { return bytes.Compare(a[:], b[:]) })
		list = append(list, types.AccessTuple{Address: addr, StorageKeys: keys})
	}
	return &OptimizedAccessList{List: list, RemovedAddresses: removed}
}
