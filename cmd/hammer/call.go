package main

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	gethcore "github.com/ethereum/go-ethereum/core"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/params"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/urfave/cli/v2"

	hammer "github.com/rankjay/hammer/core"
)

// callEnv bundles everything generate and validate need to trace one
// hypothetical call.
type callEnv struct {
	client   *rpc.Client
	ec       *ethclient.Client
	header   *types.Header
	blockNum *big.Int
	msg      *gethcore.Message
	call     ethereum.CallMsg
	cfg      fileConfig
}

// prepareCall validates all local arguments before any network round trip,
// then resolves the block header and sender nonce.
func prepareCall(ctx *cli.Context) (*callEnv, error) {
	cfg, err := resolveConfig(ctx)
	if err != nil {
		return nil, err
	}
	from, err := parseAddress(ctx.String(fromFlag.Name), fromFlag.Name)
	if err != nil {
		return nil, err
	}
	to, err := parseAddress(ctx.String(toFlag.Name), toFlag.Name)
	if err != nil {
		return nil, err
	}
	data, err := parseHexData(ctx.String(dataFlag.Name))
	if err != nil {
		return nil, err
	}
	value, err := parseValue(ctx.String(valueFlag.Name))
	if err != nil {
		return nil, err
	}
	blockNum, err := parseBlockNumber(ctx.String(blockFlag.Name))
	if err != nil {
		return nil, err
	}

	client, err := rpc.DialContext(ctx.Context, cfg.RPC)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", hammer.ErrRPC, cfg.RPC, err)
	}
	ec := ethclient.NewClient(client)

	header, err := ec.HeaderByNumber(ctx.Context, blockNum)
	if err != nil {
		return nil, fmt.Errorf("%w: header: %v", hammer.ErrRPC, err)
	}
	if err := checkPostBerlin(header.Number); err != nil {
		return nil, err
	}
	nonce, err := ec.NonceAt(ctx.Context, from, blockNum)
	if err != nil {
		return nil, fmt.Errorf("%w: nonce of %s: %v", hammer.ErrRPC, from, err)
	}

	// Price the call at the base fee (floored at 1 gwei) so the fee check
	// passes without the caller funding a real transaction.
	gasPrice := big.NewInt(params.GWei)
	if header.BaseFee != nil && header.BaseFee.Cmp(gasPrice) > 0 {
		gasPrice = new(big.Int).Set(header.BaseFee)
	}

	msg := &gethcore.Message{
		From:      from,
		To:        &to,
		Nonce:     nonce,
		Value:     value,
		GasLimit:  cfg.GasLimit,
		GasPrice:  gasPrice,
		GasFeeCap: gasPrice,
		GasTipCap: new(big.Int),
		Data:      data,
	}
	call := ethereum.CallMsg{
		From:  from,
		To:    &to,
		Gas:   cfg.GasLimit,
		Value: value,
		Data:  data,
	}
	return &callEnv{
		client:   client,
		ec:       ec,
		header:   header,
		blockNum: blockNum,
		msg:      msg,
		call:     call,
		cfg:      cfg,
	}, nil
}

func (env *callEnv) traceConfig() *hammer.TraceConfig {
	return &hammer.TraceConfig{
		ChainConfig: params.MainnetChainConfig,
		GetHash:     getHashFn(env.ec),
	}
}

// getHashFn serves BLOCKHASH from the remote chain.
func getHashFn(ec *ethclient.Client) vm.GetHashFunc {
	return func(n uint64) common.Hash {
		header, err := ec.HeaderByNumber(context.Background(), new(big.Int).SetUint64(n))
		if err != nil || header == nil {
			return common.Hash{}
		}
		return header.Hash()
	}
}

// gasPriceGwei reports the message gas price in gwei for the human output.
func (env *callEnv) gasPriceGwei() uint64 {
	return new(big.Int).Div(env.msg.GasPrice, big.NewInt(params.GWei)).Uint64()
}
