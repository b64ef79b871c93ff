package core

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// DiffKind tags a DiffEntry variant.
type DiffKind string

const (
	// DiffMissing: the optimum contains an entry the declared list lacks.
	DiffMissing DiffKind = "missing"
	// DiffStale: the declared list contains an address or slots that were
	// never accessed.
	DiffStale DiffKind = "stale"
	// DiffIncomplete: the declared list has the address but misses slots
	// the optimum carries.
	DiffIncomplete DiffKind = "incomplete"
	// DiffRedundant: the declared list contains a warm-by-default address
	// (sender, target, coinbase, or precompile).
	DiffRedundant DiffKind = "redundant"
	// DiffDuplicate: the same (address, slot) pair appears more than once
	// in the declared list.
	DiffDuplicate DiffKind = "duplicate"
)

// DiffEntry is one discrepancy between a declared and the optimal access
// list. Which fields are populated depends on Kind; the JSON codec in
// report_marshalling.go emits exactly the per-kind field set.
//
// GasWaste lives in one of two cost spaces. Stale, Redundant and Duplicate
// waste is upfront declaration gas already paid at inclusion. Missing and
// Incomplete waste is the cold-access penalty paid during execution. The two
// spaces do not sum to a single meaningful total and are reported separately.
type DiffEntry struct {
	Kind         DiffKind
	Address      common.Address
	StorageKeys  []common.Hash // missing, stale
	MissingSlots []common.Hash // incomplete
	StorageKey   common.Hash   // duplicate
	GasWaste     uint64
}

// GasSummary is the two-space gas accounting of a validation.
//
// WastePerTx is declared upfront cost minus optimal upfront cost and is
// signed: an under-declared list has negative waste (the fee payer underpaid
// upfront and execution charges the difference as cold-access penalties).
type GasSummary struct {
	DeclaredListCost uint64 `json:"declared_list_cost"`
	OptimalListCost  uint64 `json:"optimal_list_cost"`
	NoListCost       uint64 `json:"no_list_cost"`
	WastePerTx       int64  `json:"waste_per_tx"`
	SavingsVsNoList  int64  `json:"savings_vs_no_list"`
}

// RawTraceResult is the inspector's output before optimization. The access
// list is everything execution touched, in first-touch order: sender, target,
// coinbase, precompiles, created contracts and legitimate third parties all
// intermixed.
type RawTraceResult struct {
	AccessList       types.AccessList
	CreatedContracts []common.Address
	GasUsed          uint64
	Success          bool
}

// OptimizedAccessList is the canonical minimal list plus the addresses the
// optimizer stripped as warm-by-default.
//
// Invariants on List: addresses unique and in ascending byte order, slots per
// address unique and in ascending byte order, no sender/target/coinbase
// (except a legitimate zero address), no precompiles, no created contracts.
type OptimizedAccessList struct {
	List             types.AccessList
	RemovedAddresses []common.Address
}

// ValidationReport is the full diff of a declared list against the optimum.
type ValidationReport struct {
	Entries     []DiffEntry      `json:"entries"`
	GasSummary  GasSummary       `json:"gas_summary"`
	OptimalList types.AccessList `json:"optimal_list"`
	IsValid     bool             `json:"is_valid"`
}

// UpfrontWaste sums entry waste in the upfront declaration space
// (stale + redundant + duplicate).
func (r *ValidationReport) UpfrontWaste() uint64 {
	var total uint64
	for _, e := range r.Entries {
		switch e.Kind {
		case DiffStale, DiffRedundant, DiffDuplicate:
			total += e.GasWaste
		}
	}
	return total
}

// ExecutionPenalty sums entry waste in the execution-penalty space
// (missing + incomplete).
func (r *ValidationReport) ExecutionPenalty() uint64 {
	var total uint64
	for _, e := range r.Entries {
		switch e.Kind {
		case DiffMissing, DiffIncomplete:
			total += e.GasWaste
		}
	}
	return total
}
