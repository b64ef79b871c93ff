package core

import (
	"encoding/json"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"
)

// Fixture addresses well clear of the precompile range.
func contractA() common.Address { return addr(20) }
func contractB() common.Address { return addr(21) }
func fromAddr() common.Address  { return addr(200) }
func toAddr() common.Address    { return addr(201) }
func coinbaseAddr() common.Address {
	return addr(202)
}

func optimalOf(items ...types.AccessTuple) *OptimizedAccessList {
	list := types.AccessList{}
	list = append(list, items...)
	return &OptimizedAccessList{List: list, RemovedAddresses: []common.Address{}}
}

func runValidate(declared types.AccessList, optimal *OptimizedAccessList) *ValidationReport {
	return ValidateList(declared, optimal, fromAddr(), toAddr(), coinbaseAddr())
}

func entriesOfKind(report *ValidationReport, kind DiffKind) []DiffEntry {
	var out []DiffEntry
	for _, e := range report.Entries {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

func TestValidatePerfectMatch(t *testing.T) {
	optimal := optimalOf(tuple(contractA(), slot(1)))
	declared := types.AccessList{tuple(contractA(), slot(1))}
	report := runValidate(declared, optimal)
	require.True(t, report.IsValid)
	require.Empty(t, report.Entries)
}

func TestValidateMissingAddress(t *testing.T) {
	optimal := optimalOf(tuple(contractA(), slot(1)))
	report := runValidate(types.AccessList{}, optimal)
	require.False(t, report.IsValid)
	require.Len(t, report.Entries, 1)
	entry := report.Entries[0]
	require.Equal(t, DiffMissing, entry.Kind)
	require.Equal(t, contractA(), entry.Address)
	require.Equal(t, []common.Hash{slot(1)}, entry.StorageKeys)
}

func TestValidateStaleAddress(t *testing.T) {
	report := runValidate(types.AccessList{tuple(contractA())}, optimalOf())
	require.False(t, report.IsValid)
	require.Equal(t, DiffStale, report.Entries[0].Kind)
	require.Equal(t, AccessListAddressCost, report.Entries[0].GasWaste)
}

func TestValidateIncompleteSlots(t *testing.T) {
	optimal := optimalOf(tuple(contractA(), slot(1), slot(2)))
	declared := types.AccessList{tuple(contractA(), slot(1))}
	report := runValidate(declared, optimal)
	require.False(t, report.IsValid)
	incomplete := entriesOfKind(report, DiffIncomplete)
	require.Len(t, incomplete, 1)
	require.Equal(t, []common.Hash{slot(2)}, incomplete[0].MissingSlots)
	require.Equal(t, uint64(2000), incomplete[0].GasWaste)
}

func TestValidateStaleSlots(t *testing.T) {
	optimal := optimalOf(tuple(contractA(), slot(1)))
	declared := types.AccessList{tuple(contractA(), slot(1), slot(2))}
	report := runValidate(declared, optimal)
	require.False(t, report.IsValid)
	stale := entriesOfKind(report, DiffStale)
	require.Len(t, stale, 1)
	require.Equal(t, []common.Hash{slot(2)}, stale[0].StorageKeys)
	require.Equal(t, AccessListStorageKeyCost, stale[0].GasWaste)
}

func TestValidateIncompleteAndStaleSameAddress(t *testing.T) {
	// optimal {s1,s2}, declared {s1,s3}: incomplete(s2) + stale(s3)
	optimal := optimalOf(tuple(contractA(), slot(1), slot(2)))
	declared := types.AccessList{tuple(contractA(), slot(1), slot(3))}
	report := runValidate(declared, optimal)
	incomplete := entriesOfKind(report, DiffIncomplete)
	stale := entriesOfKind(report, DiffStale)
	require.Len(t, incomplete, 1)
	require.Len(t, stale, 1)
	require.Equal(t, []common.Hash{slot(2)}, incomplete[0].MissingSlots)
	require.Equal(t, []common.Hash{slot(3)}, stale[0].StorageKeys)
}

func TestValidateRedundant(t *testing.T) {
	tests := []struct {
		name string
		addr common.Address
	}{
		{"tx from", fromAddr()},
		{"tx to", toAddr()},
		{"coinbase", coinbaseAddr()},
		{"precompile", addr(1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := runValidate(types.AccessList{tuple(tt.addr)}, optimalOf())
			redundant := entriesOfKind(report, DiffRedundant)
			require.Len(t, redundant, 1)
			require.Equal(t, tt.addr, redundant[0].Address)
			require.Equal(t, AccessListAddressCost, redundant[0].GasWaste)
		})
	}
}

func TestValidateRedundantWasteIncludesSlots(t *testing.T) {
	declared := types.AccessList{tuple(fromAddr(), slot(1), slot(2))}
	report := runValidate(declared, optimalOf())
	redundant := entriesOfKind(report, DiffRedundant)
	require.Len(t, redundant, 1)
	require.Equal(t, AccessListAddressCost+2*AccessListStorageKeyCost, redundant[0].GasWaste)
}

func TestValidateDuplicateSlots(t *testing.T) {
	optimal := optimalOf(tuple(contractA(), slot(1)))
	declared := types.AccessList{tuple(contractA(), slot(1), slot(1))}
	report := runValidate(declared, optimal)
	duplicates := entriesOfKind(report, DiffDuplicate)
	require.Len(t, duplicates, 1)
	require.Equal(t, slot(1), duplicates[0].StorageKey)
	require.Equal(t, AccessListStorageKeyCost, duplicates[0].GasWaste)
}

func TestValidateDuplicateAcrossItems(t *testing.T) {
	// Same (address, slot) in two separate wire items is still a duplicate.
	optimal := optimalOf(tuple(contractA(), slot(1)))
	declared := types.AccessList{
		tuple(contractA(), slot(1)),
		tuple(contractA(), slot(1)),
	}
	report := runValidate(declared, optimal)
	require.Len(t, entriesOfKind(report, DiffDuplicate), 1)
}

func TestValidateNoListCost(t *testing.T) {
	optimal := optimalOf(
		tuple(contractA(), slot(1)),
		tuple(contractB(), slot(1), slot(2)),
	)
	declared := types.AccessList{
		tuple(contractA(), slot(1)),
		tuple(contractB(), slot(1), slot(2)),
	}
	report := runValidate(declared, optimal)
	require.Equal(t, 2*ColdAccountAccessCost+3*ColdSloadCost, report.GasSummary.NoListCost)
	require.Equal(t,
		int64(report.GasSummary.NoListCost)-int64(report.GasSummary.OptimalListCost),
		report.GasSummary.SavingsVsNoList)
}

// Literal pipeline scenarios.

func TestScenarioSimpleTransfer(t *testing.T) {
	report := runValidate(types.AccessList{}, optimalOf())
	require.True(t, report.IsValid)
	require.Empty(t, report.Entries)
	require.Zero(t, report.GasSummary.DeclaredListCost)
	require.Zero(t, report.GasSummary.OptimalListCost)
	require.Zero(t, report.GasSummary.WastePerTx)
}

func TestScenarioPureStaleAddress(t *testing.T) {
	declared := types.AccessList{tuple(contractA(), slot(1))}
	report := runValidate(declared, optimalOf())
	require.Len(t, report.Entries, 1)
	require.Equal(t, DiffStale, report.Entries[0].Kind)
	require.Equal(t, uint64(4300), report.Entries[0].GasWaste)
	require.Equal(t, uint64(4300), report.GasSummary.DeclaredListCost)
	require.Zero(t, report.GasSummary.OptimalListCost)
	require.Equal(t, int64(4300), report.GasSummary.WastePerTx)
	require.Equal(t, uint64(4300), report.UpfrontWaste())
	require.Zero(t, report.ExecutionPenalty())
}

func TestScenarioPureMissing(t *testing.T) {
	optimal := optimalOf(tuple(contractA(), slot(1)))
	report := runValidate(types.AccessList{}, optimal)
	require.Len(t, report.Entries, 1)
	require.Equal(t, DiffMissing, report.Entries[0].Kind)
	// Missing waste lives in the execution-penalty space.
	require.Equal(t, uint64(2000), report.Entries[0].GasWaste)
	require.Zero(t, report.GasSummary.DeclaredListCost)
	require.Equal(t, uint64(4300), report.GasSummary.OptimalListCost)
	require.Equal(t, int64(-4300), report.GasSummary.WastePerTx)
	require.Zero(t, report.UpfrontWaste())
	require.Equal(t, uint64(2000), report.ExecutionPenalty())
}

func TestScenarioDuplicateSlot(t *testing.T) {
	optimal := optimalOf(tuple(contractA(), slot(1)))
	declared := types.AccessList{tuple(contractA(), slot(1), slot(1))}
	report := runValidate(declared, optimal)
	require.Len(t, report.Entries, 1)
	require.Equal(t, DiffDuplicate, report.Entries[0].Kind)
	require.Equal(t, uint64(1900), report.Entries[0].GasWaste)
	require.Equal(t, uint64(6200), report.GasSummary.DeclaredListCost)
	require.Equal(t, uint64(4300), report.GasSummary.OptimalListCost)
	require.Equal(t, int64(1900), report.GasSummary.WastePerTx)
}

func TestScenarioRedundantSender(t *testing.T) {
	declared := types.AccessList{tuple(fromAddr(), slot(1), slot(2))}
	report := runValidate(declared, optimalOf())
	require.Len(t, report.Entries, 1)
	require.Equal(t, DiffRedundant, report.Entries[0].Kind)
	require.Equal(t, uint64(6200), report.Entries[0].GasWaste)
	require.Equal(t, int64(6200), report.GasSummary.WastePerTx)
}

func TestScenarioMixedStaleMissing(t *testing.T) {
	// Stale and missing cancel out upfront (waste_per_tx == 0) while the
	// execution penalty is non-zero: the two cost spaces must stay separate.
	declared := types.AccessList{tuple(addr(21), slot(1))}
	optimal := optimalOf(tuple(addr(20), slot(1)))
	report := runValidate(declared, optimal)
	stale := entriesOfKind(report, DiffStale)
	missing := entriesOfKind(report, DiffMissing)
	require.Len(t, stale, 1)
	require.Len(t, missing, 1)
	require.Equal(t, uint64(4300), stale[0].GasWaste)
	require.Equal(t, uint64(2000), missing[0].GasWaste)
	require.Zero(t, report.GasSummary.WastePerTx)
	require.Equal(t, uint64(4300), report.UpfrontWaste())
	require.Equal(t, uint64(2000), report.ExecutionPenalty())
}

func TestUpfrontWasteEqualsWastePerTx(t *testing.T) {
	// With no missing/incomplete entries, the upfront entry waste must sum
	// exactly to the declared-minus-optimal difference.
	declared := types.AccessList{
		tuple(contractA(), slot(1), slot(1)), // duplicate
		tuple(contractB(), slot(2)),          // stale
		tuple(fromAddr()),                    // redundant
	}
	optimal := optimalOf(tuple(contractA(), slot(1)))
	report := runValidate(declared, optimal)
	require.Empty(t, entriesOfKind(report, DiffMissing))
	require.Empty(t, entriesOfKind(report, DiffIncomplete))
	require.Equal(t, uint64(report.GasSummary.WastePerTx), report.UpfrontWaste())
}

func TestValidateEntryOrderingDeterministic(t *testing.T) {
	declared := types.AccessList{
		tuple(addr(90), slot(1)),
		tuple(addr(30), slot(1)),
	}
	optimal := optimalOf(tuple(addr(40), slot(2)), tuple(addr(30), slot(1)))
	first := runValidate(declared, optimal)
	second := runValidate(declared, optimal)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	require.Equal(t, a, b)

	// Declared addresses classify in ascending order (0x..1e matches the
	// optimum and produces nothing), then missing optimal addresses follow.
	require.Equal(t, DiffStale, first.Entries[0].Kind)
	require.Equal(t, addr(90), first.Entries[0].Address)
	require.Equal(t, DiffMissing, first.Entries[1].Kind)
	require.Equal(t, addr(40), first.Entries[1].Address)
}
