package core

import (
	"bytes"
	"slices"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ValidateList diffs a declared access list against the optimal one and
// returns a report with per-entry gas waste and a two-space gas summary.
// Pure and total: discrepancies are report entries, never errors.
//
// Entry ordering is deterministic: duplicates in declared walk order first,
// then per-declared-address findings in ascending address order, then missing
// optimal addresses in ascending address order.
func ValidateList(declared types.AccessList, optimal *OptimizedAccessList, txFrom, txTo, coinbase common.Address) *ValidationReport {
	precompiles := Precompiles()
	entries := make([]DiffEntry, 0)

	// Phase 1: duplicate detection while building the deduplicated declared
	// view. A set-based map would silently swallow repeats, so they are
	// flagged before insertion.
	declaredMap := make(map[common.Address]map[common.Hash]struct{})
	for _, tuple := range declared {
		slots, ok := declaredMap[tuple.Address]
		if !ok {
			slots = make(map[common.Hash]struct{})
			declaredMap[tuple.Address] = slots
		}
		for _, key := range tuple.StorageKeys {
			if _, dup := slots[key]; dup {
				entries = append(entries, DiffEntry{
					Kind:       DiffDuplicate,
					Address:    tuple.Address,
					StorageKey: key,
					GasWaste:   AccessListStorageKeyCost,
				})
				continue
			}
			slots[key] = struct{}{}
		}
	}

	// Phase 2: index the optimum.
	optimalMap := make(map[common.Address]map[common.Hash]struct{}, len(optimal.List))
	for _, tuple := range optimal.List {
		slots := make(map[common.Hash]struct{}, len(tuple.StorageKeys))
		for _, key := range tuple.StorageKeys {
			slots[key] = struct{}{}
		}
		optimalMap[tuple.Address] = slots
	}

	// Phase 3: classify every declared address.
	for _, addr := range sortedAddresses(declaredMap) {
		declSlots := declaredMap[addr]
		if addr == txFrom || addr == txTo || addr == coinbase || precompiles.Contains(addr) {
			entries = append(entries, DiffEntry{
				Kind:     DiffRedundant,
				Address:  addr,
				GasWaste: AccessListAddressCost + uint64(len(declSlots))*AccessListStorageKeyCost,
			})
			continue
		}
		if optSlots, ok := optimalMap[addr]; ok {
			if missing := slotDifference(optSlots, declSlots); len(missing) > 0 {
				entries = append(entries, DiffEntry{
					Kind:         DiffIncomplete,
					Address:      addr,
					MissingSlots: missing,
					GasWaste:     uint64(len(missing)) * (ColdSloadCost - WarmStorageReadCost),
				})
			}
			if stale := slotDifference(declSlots, optSlots); len(stale) > 0 {
				entries = append(entries, DiffEntry{
					Kind:        DiffStale,
					Address:     addr,
					StorageKeys: stale,
					GasWaste:    uint64(len(stale)) * AccessListStorageKeyCost,
				})
			}
		} else {
			entries = append(entries, DiffEntry{
				Kind:        DiffStale,
				Address:     addr,
				StorageKeys: sortedSlots(declSlots),
				GasWaste:    AccessListAddressCost + uint64(len(declSlots))*AccessListStorageKeyCost,
			})
		}
	}

	// Phase 4: optimal addresses absent from the declared list. Their waste
	// is the execution-time cold penalty, not upfront gas.
	for _, addr := range sortedAddresses(optimalMap) {
		if _, ok := declaredMap[addr]; ok {
			continue
		}
		optSlots := optimalMap[addr]
		entries = append(entries, DiffEntry{
			Kind:        DiffMissing,
			Address:     addr,
			StorageKeys: sortedSlots(optSlots),
			GasWaste:    uint64(len(optSlots)) * (ColdSloadCost - WarmStorageReadCost),
		})
	}

	// Phase 5: gas summary. The declared cost is scored on the raw input,
	// duplicates included — the fee payer really pays for them.
	declaredCost := AccessListGasCost(declared)
	optimalCost := AccessListGasCost(optimal.List)
	var noListCost uint64
	for _, slots := range optimalMap {
		noListCost += ColdAccountAccessCost + uint64(len(slots))*ColdSloadCost
	}

	optimalList := optimal.List
	if optimalList == nil {
		optimalList = types.AccessList{}
	}
	return &ValidationReport{
		Entries: entries,
		GasSummary: GasSummary{
			DeclaredListCost: declaredCost,
			OptimalListCost:  optimalCost,
			NoListCost:       noListCost,
			WastePerTx:       int64(declaredCost) - int64(optimalCost),
			SavingsVsNoList:  int64(noListCost) - int64(optimalCost),
		},
		OptimalList: optimalList,
		IsValid:     len(entries) == 0,
	}
}

func sortedAddresses(m map[common.Address]map[common.Hash]struct{}) []common.Address {
	addrs := make([]common.Address, 0, len(m))
	for addr := range m {
		addrs = append(addrs, addr)
	}
	slices.SortFunc(addrs, func(a, b common.Address) int { return bytes.Compare(a[:], b[:]) })
	return addrs
}

func sortedSlots(set map[common.Hash]struct{}) []common.Hash {
	slots := make([]common.Hash, 0, len(set))
	for slot := range set {
		slots = append(slots, slot)
	}
	slices.SortFunc(slots, func(a, b common.Hash) int { return bytes.Compare(a[:], b[:]) })
	return slots
}

// slotDifference returns a−b in ascending byte order.
func slotDifference(a, b map[common.Hash]struct{}) []common.Hash {
	diff := make([]common.Hash, 0)
	for slot := range a {
		if _, ok := b[slot]; !ok {
			diff = append(diff, slot)
		}
	}
	if len(diff) == 0 {
		return nil
	}
	slices.SortFunc(diff, func(x, y common.Hash) int { return bytes.Compare(x[:], y[:]) })
	return diff
}
