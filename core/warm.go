package core

import (
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/vm"
)

// Precompiles returns the set of precompile addresses that are warm from the
// start of every transaction (EIP-2929) and must never appear in a declared
// access list. Sourced from the EVM's Cancun table, currently 0x01..0x0a; a
// hard fork extending the precompile range changes the source table, not this
// code.
func Precompiles() mapset.Set[common.Address] {
	return mapset.NewThreadUnsafeSet(vm.PrecompiledAddressesCancun...)
}
