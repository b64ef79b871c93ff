package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/params"
	"github.com/ethereum/go-ethereum/rpc"

	hammer "github.com/rankjay/hammer/core"
)

func parseAddress(value, flag string) (common.Address, error) {
	if !common.IsHexAddress(value) {
		return common.Address{}, fmt.Errorf("%w: --%s is not a valid address: %q", hammer.ErrInvalidCalldata, flag, value)
	}
	return common.HexToAddress(value), nil
}

// parseHexData accepts calldata with or without the 0x prefix.
func parseHexData(value string) ([]byte, error) {
	s := strings.TrimPrefix(strings.TrimPrefix(value, "0x"), "0X")
	if s == "" {
		return []byte{}, nil
	}
	data, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid hex data: %v", hammer.ErrInvalidCalldata, err)
	}
	return data, nil
}

// parseValue accepts a decimal or 0x-prefixed hex wei amount.
func parseValue(value string) (*big.Int, error) {
	var (
		v  *big.Int
		ok bool
	)
	if hexStr, isHex := strings.CutPrefix(value, "0x"); isHex {
		v, ok = new(big.Int).SetString(hexStr, 16)
	} else if hexStr, isHex = strings.CutPrefix(value, "0X"); isHex {
		v, ok = new(big.Int).SetString(hexStr, 16)
	} else {
		v, ok = new(big.Int).SetString(value, 10)
	}
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("%w: invalid value: %q", hammer.ErrInvalidCalldata, value)
	}
	return v, nil
}

// parseBlockNumber maps "latest" to nil, "pending" to the pending marker, and
// anything else to a decimal block number.
func parseBlockNumber(value string) (*big.Int, error) {
	switch strings.ToLower(value) {
	case "latest", "":
		return nil, nil
	case "pending":
		return big.NewInt(int64(rpc.PendingBlockNumber)), nil
	}
	n, ok := new(big.Int).SetString(value, 10)
	if !ok || n.Sign() < 0 {
		return nil, fmt.Errorf("%w: invalid block: expected 'latest', 'pending', or a block number, got %q", hammer.ErrInvalidCalldata, value)
	}
	return n, nil
}

// readAccessList loads a declared access list from a JSON file in the
// canonical address/storageKeys form.
func readAccessList(path string) (types.AccessList, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", hammer.ErrInvalidAccessList, err)
	}
	var list types.AccessList
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", hammer.ErrInvalidAccessList, path, err)
	}
	return list, nil
}

// checkNotCreate rejects contract creation transactions; access list
// analysis needs a call target.
func checkNotCreate(to *common.Address) error {
	if to == nil {
		return fmt.Errorf("%w: contract creation transactions are not supported", hammer.ErrUnsupportedTransaction)
	}
	return nil
}

// checkNotBlob rejects EIP-4844 transactions, whose blob data is not
// replayed.
func checkNotBlob(blobHashes []common.Hash) error {
	if len(blobHashes) > 0 {
		return fmt.Errorf("%w: blob transactions (EIP-4844) are not supported", hammer.ErrUnsupportedTransaction)
	}
	return nil
}

// checkPostBerlin rejects blocks before the Berlin fork, where EIP-2930
// access lists do not exist. The mainnet schedule in params is authoritative.
func checkPostBerlin(number *big.Int) error {
	if !params.MainnetChainConfig.IsBerlin(number) {
		return fmt.Errorf("%w: access lists (EIP-2930) do not exist before the Berlin fork (block %d), target block is %d",
			hammer.ErrUnsupportedTransaction, params.MainnetChainConfig.BerlinBlock, number)
	}
	return nil
}
