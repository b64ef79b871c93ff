package core

import (
	"encoding/json"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"
)

func TestDiffEntryKindTags(t *testing.T) {
	tests := []struct {
		kind  DiffKind
		entry DiffEntry
	}{
		{DiffMissing, DiffEntry{Kind: DiffMissing, Address: addr(1), StorageKeys: []common.Hash{slot(1)}, GasWaste: 2000}},
		{DiffStale, DiffEntry{Kind: DiffStale, Address: addr(2), StorageKeys: []common.Hash{slot(2)}, GasWaste: 1900}},
		{DiffIncomplete, DiffEntry{Kind: DiffIncomplete, Address: addr(3), MissingSlots: []common.Hash{slot(3)}, GasWaste: 2000}},
		{DiffRedundant, DiffEntry{Kind: DiffRedundant, Address: addr(4), GasWaste: 2400}},
		{DiffDuplicate, DiffEntry{Kind: DiffDuplicate, Address: addr(5), StorageKey: slot(5), GasWaste: 1900}},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			out, err := json.Marshal(tt.entry)
			require.NoError(t, err)
			require.Contains(t, string(out), `"kind":"`+string(tt.kind)+`"`)

			var decoded DiffEntry
			require.NoError(t, json.Unmarshal(out, &decoded))
			require.Equal(t, tt.entry, decoded)

			// Re-serializing the decoded entry must be byte-identical.
			again, err := json.Marshal(decoded)
			require.NoError(t, err)
			require.Equal(t, out, again)
		})
	}
}

func TestDiffEntryVariantFields(t *testing.T) {
	out, err := json.Marshal(DiffEntry{Kind: DiffRedundant, Address: addr(1), GasWaste: 2400})
	require.NoError(t, err)
	require.NotContains(t, string(out), "storage_keys")
	require.NotContains(t, string(out), "missing_slots")
	require.NotContains(t, string(out), "storage_key")

	out, err = json.Marshal(DiffEntry{Kind: DiffDuplicate, Address: addr(1), StorageKey: slot(1), GasWaste: 1900})
	require.NoError(t, err)
	require.Contains(t, string(out), `"storage_key"`)
	require.NotContains(t, string(out), `"storage_keys"`)
}

func TestDiffEntryUnknownKind(t *testing.T) {
	var decoded DiffEntry
	err := json.Unmarshal([]byte(`{"kind":"bogus","address":"0x0000000000000000000000000000000000000001","gas_waste":1}`), &decoded)
	require.Error(t, err)
}

func TestValidationReportRoundTrip(t *testing.T) {
	report := ValidationReport{
		Entries: []DiffEntry{
			{Kind: DiffRedundant, Address: addr(1), GasWaste: 2400},
			{Kind: DiffMissing, Address: addr(2), StorageKeys: []common.Hash{slot(1), slot(2)}, GasWaste: 4000},
		},
		GasSummary: GasSummary{
			DeclaredListCost: 5000,
			OptimalListCost:  2400,
			NoListCost:       4700,
			WastePerTx:       2600,
			SavingsVsNoList:  2300,
		},
		OptimalList: types.AccessList{tuple(addr(2), slot(1), slot(2))},
		IsValid:     false,
	}
	out, err := json.Marshal(&report)
	require.NoError(t, err)

	var decoded ValidationReport
	require.NoError(t, json.Unmarshal(out, &decoded))
	require.Equal(t, report, decoded)

	again, err := json.Marshal(&decoded)
	require.NoError(t, err)
	require.Equal(t, out, again)
}

func TestValidationReportNegativeWaste(t *testing.T) {
	report := ValidationReport{
		GasSummary:  GasSummary{WastePerTx: -4300, SavingsVsNoList: 400},
		OptimalList: types.AccessList{},
		Entries:     []DiffEntry{},
		IsValid:     true,
	}
	out, err := json.Marshal(&report)
	require.NoError(t, err)
	require.Contains(t, string(out), `"waste_per_tx":-4300`)

	var decoded ValidationReport
	require.NoError(t, json.Unmarshal(out, &decoded))
	require.Equal(t, int64(-4300), decoded.GasSummary.WastePerTx)
}

func TestOptimalListWireFormat(t *testing.T) {
	// The optimal list serializes in the canonical access-list form.
	report := ValidationReport{
		Entries:     []DiffEntry{},
		OptimalList: types.AccessList{tuple(addr(2), slot(1))},
		IsValid:     true,
	}
	out, err := json.Marshal(&report)
	require.NoError(t, err)
	require.Contains(t, string(out), `"address":"0x0000000000000000000000000000000000000002"`)
	require.Contains(t, string(out), `"storageKeys"`)
}
