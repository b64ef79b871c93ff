package main

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/params"
	"github.com/fatih/color"

	hammer "github.com/rankjay/hammer/core"
)

var (
	okColor      = color.New(color.FgGreen)
	upfrontColor = color.New(color.FgYellow)
	penaltyColor = color.New(color.FgRed)
)

func printJSON(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func printOptimizedHuman(opt *hammer.OptimizedAccessList) {
	if len(opt.List) == 0 {
		okColor.Println("Optimal access list is empty: every touched address is warm by default.")
	} else {
		fmt.Printf("Optimal access list (%d addresses):\n", len(opt.List))
		for _, tuple := range opt.List {
			fmt.Printf("  %s\n", tuple.Address.Hex())
			for _, key := range tuple.StorageKeys {
				fmt.Printf("    %s\n", key.Hex())
			}
		}
	}
	if len(opt.RemovedAddresses) > 0 {
		fmt.Printf("Stripped %d warm-by-default entries:\n", len(opt.RemovedAddresses))
		for _, addr := range opt.RemovedAddresses {
			fmt.Printf("  %s\n", addr.Hex())
		}
	}
	cost := hammer.AccessListGasCost(opt.List)
	fmt.Printf("Upfront list cost: %d gas\n", cost)
}

// printReportHuman renders a validation report with the two cost spaces on
// separate lines: upfront declaration waste never sums with the execution
// cold-access penalty.
func printReportHuman(report *hammer.ValidationReport, gasPriceGwei uint64) {
	s := report.GasSummary
	sign := "+"
	if s.WastePerTx < 0 {
		sign = "-"
	}
	fmt.Printf("List cost:  %d gas declared  ->  %d gas optimal  (%s%d upfront)\n",
		s.DeclaredListCost, s.OptimalListCost, sign, abs64(s.WastePerTx))
	if penalty := report.ExecutionPenalty(); penalty > 0 {
		var missing, incomplete int
		for _, e := range report.Entries {
			switch e.Kind {
			case hammer.DiffMissing:
				missing++
			case hammer.DiffIncomplete:
				incomplete++
			}
		}
		penaltyColor.Printf("Execution:  %d missing / %d incomplete  ->  +%d gas at runtime\n",
			missing, incomplete, penalty)
	}
	fmt.Printf("No-list baseline: %d gas (declaring the optimum saves %d)\n",
		s.NoListCost, s.SavingsVsNoList)
	if gasPriceGwei > 0 && s.WastePerTx > 0 {
		fmt.Printf("Upfront waste at %d gwei: %.9f ETH\n",
			gasPriceGwei, hammer.GasToEth(uint64(s.WastePerTx), gasPriceGwei))
	}

	if report.IsValid {
		okColor.Println("Valid: declared access list matches the execution trace.")
		return
	}
	fmt.Printf("Issues (%d entries):\n", len(report.Entries))
	for _, e := range report.Entries {
		fmt.Printf("  %s\n", formatEntry(e))
	}
}

func formatEntry(e hammer.DiffEntry) string {
	switch e.Kind {
	case hammer.DiffMissing:
		return fmt.Sprintf("%s %s slots=%s (+%d gas at runtime)",
			penaltyColor.Sprint("missing   "), e.Address.Hex(), formatSlots(e.StorageKeys), e.GasWaste)
	case hammer.DiffIncomplete:
		return fmt.Sprintf("%s %s slots=%s (+%d gas at runtime)",
			penaltyColor.Sprint("incomplete"), e.Address.Hex(), formatSlots(e.MissingSlots), e.GasWaste)
	case hammer.DiffStale:
		return fmt.Sprintf("%s %s slots=%s (%d gas wasted upfront)",
			upfrontColor.Sprint("stale     "), e.Address.Hex(), formatSlots(e.StorageKeys), e.GasWaste)
	case hammer.DiffRedundant:
		return fmt.Sprintf("%s %s warm by default (%d gas wasted upfront)",
			upfrontColor.Sprint("redundant "), e.Address.Hex(), e.GasWaste)
	case hammer.DiffDuplicate:
		return fmt.Sprintf("%s %s slot=%s (%d gas wasted upfront)",
			upfrontColor.Sprint("duplicate "), e.Address.Hex(), e.StorageKey.Hex(), e.GasWaste)
	}
	return fmt.Sprintf("%s %s", e.Kind, e.Address.Hex())
}

func formatSlots(slots []common.Hash) string {
	if len(slots) == 0 {
		return "[]"
	}
	out := "["
	for i, s := range slots {
		if i > 0 {
			out += ", "
		}
		out += s.Hex()
	}
	return out + "]"
}

// gweiOf converts a wei amount to whole gwei, nil-safe.
func gweiOf(wei *big.Int) uint64 {
	if wei == nil {
		return 0
	}
	return new(big.Int).Div(wei, big.NewInt(params.GWei)).Uint64()
}

func abs64(v int64) uint64 {
	if v < 0 {
		return uint64(-v)
	}
	return uint64(v)
}
