package main

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	gethcore "github.com/ethereum/go-ethereum/core"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	hammer "github.com/rankjay/hammer/core"
	"github.com/rankjay/hammer/internal/prestate"
)

var compareCommand = &cli.Command{
	Name:   "compare",
	Usage:  "Compare a mined transaction's access list to its optimum",
	Flags:  []cli.Flag{rpcFlag, txHashFlag, outputFlag},
	Action: runCompare,
}

func runCompare(ctx *cli.Context) error {
	hashStr := ctx.String(txHashFlag.Name)
	if !(len(hashStr) == 2+2*common.HashLength && hashStr[:2] == "0x") {
		return fmt.Errorf("%w: invalid transaction hash %q", hammer.ErrInvalidCalldata, hashStr)
	}
	txHash := common.HexToHash(hashStr)

	cfg, err := resolveConfig(ctx)
	if err != nil {
		return err
	}
	client, err := rpc.DialContext(ctx.Context, cfg.RPC)
	if err != nil {
		return fmt.Errorf("%w: dial %s: %v", hammer.ErrRPC, cfg.RPC, err)
	}
	defer client.Close()
	ec := ethclient.NewClient(client)

	// The transaction and its receipt need only the hash; fetch both at once.
	var (
		tx      *types.Transaction
		receipt *types.Receipt
	)
	g, gctx := errgroup.WithContext(ctx.Context)
	g.Go(func() error {
		var pending bool
		var err error
		tx, pending, err = ec.TransactionByHash(gctx, txHash)
		if err != nil {
			return fmt.Errorf("%w: transaction: %v", hammer.ErrRPC, err)
		}
		if pending {
			return fmt.Errorf("%w: transaction %s is not mined yet", hammer.ErrUnsupportedTransaction, txHash)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		receipt, err = ec.TransactionReceipt(gctx, txHash)
		if err != nil {
			return fmt.Errorf("%w: receipt: %v", hammer.ErrRPC, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	if err := checkNotCreate(tx.To()); err != nil {
		return err
	}
	if err := checkNotBlob(tx.BlobHashes()); err != nil {
		return err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return fmt.Errorf("%w: transaction reverted on-chain, access list comparison is not meaningful", hammer.ErrUnsupportedTransaction)
	}

	header, err := ec.HeaderByHash(ctx.Context, receipt.BlockHash)
	if err != nil {
		return fmt.Errorf("%w: block header: %v", hammer.ErrRPC, err)
	}
	if err := checkPostBerlin(header.Number); err != nil {
		return err
	}

	signer := types.LatestSignerForChainID(tx.ChainId())
	msg, err := gethcore.TransactionToMessage(tx, signer, header.BaseFee)
	if err != nil {
		return fmt.Errorf("%w: %v", hammer.ErrEvmExecution, err)
	}
	declared := tx.AccessList()
	log.Info("replaying transaction", "hash", txHash, "block", header.Number, "declared", len(declared))

	call := ethereum.CallMsg{
		From:  msg.From,
		To:    tx.To(),
		Gas:   tx.Gas(),
		Value: tx.Value(),
		Data:  tx.Data(),
	}
	// Replay against the state before the transaction's block.
	parent := new(big.Int).Sub(header.Number, common.Big1)
	statedb, err := prestate.Build(ctx.Context, client, call, declared, parent)
	if err != nil {
		return err
	}

	traceCfg := &hammer.TraceConfig{GetHash: getHashFn(ec)}
	report, err := hammer.ValidateReplay(statedb, msg, header, traceCfg, declared)
	if err != nil {
		return err
	}

	switch ctx.String(outputFlag.Name) {
	case "human":
		printReportHuman(report, gweiOf(header.BaseFee))
	default:
		if err := printJSON(report); err != nil {
			return err
		}
	}
	if !report.IsValid {
		return exitCode(fmt.Errorf("%w: %d entries", errInvalidList, len(report.Entries)))
	}
	return nil
}
