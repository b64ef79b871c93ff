package core

import (
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/params"
)

// EIP-2929/2930 gas schedule. The EVM library's params package is the source
// of truth; these aliases exist so the analyzer reads in domain terms.
const (
	// AccessListAddressCost is the upfront cost per address declared in an
	// access list (EIP-2930).
	AccessListAddressCost = params.TxAccessListAddressGas // 2400

	// AccessListStorageKeyCost is the upfront cost per storage key declared
	// in an access list (EIP-2930).
	AccessListStorageKeyCost = params.TxAccessListStorageKeyGas // 1900

	// ColdAccountAccessCost is charged on the first touch of an account
	// within a transaction (EIP-2929).
	ColdAccountAccessCost = params.ColdAccountAccessCostEIP2929 // 2600

	// ColdSloadCost is charged on the first read of a storage slot within a
	// transaction (EIP-2929).
	ColdSloadCost = params.ColdSloadCostEIP2929 // 2100

	// WarmStorageReadCost is charged on warm storage reads (EIP-2929).
	WarmStorageReadCost = params.WarmStorageReadCostEIP2929 // 100
)

const (
	// NetSavingsPerSlot is the gas saved by declaring an accessed slot:
	// cold read 2100 becomes warm read 100, against 1900 paid upfront.
	NetSavingsPerSlot = int64(ColdSloadCost) - int64(WarmStorageReadCost) - int64(AccessListStorageKeyCost) // 100

	// NetSavingsPerAddress is the gas saved by declaring an accessed
	// address: cold touch 2600 avoided, against 2400 paid upfront.
	NetSavingsPerAddress = int64(ColdAccountAccessCost) - int64(AccessListAddressCost) // 200
)

// AccessListGasCost returns the upfront gas the fee payer is charged for the
// given list. Addresses are charged once even if repeated across items, which
// is how the protocol accounts them; storage keys are charged per wire entry,
// duplicates included.
func AccessListGasCost(list types.AccessList) uint64 {
	seen := mapset.NewThreadUnsafeSet[common.Address]()
	var cost uint64
	for _, tuple := range list {
		if seen.Add(tuple.Address) {
			cost += AccessListAddressCost
		}
		cost += uint64(len(tuple.StorageKeys)) * AccessListStorageKeyCost
	}
	return cost
}

// GasToEth converts a gas amount at the given price (gwei) to ether. Float
// arithmetic keeps it finite for the full uint64 range.
func GasToEth(gas uint64, gasPriceGwei uint64) float64 {
	return float64(gas) * float64(gasPriceGwei) / 1e9
}
