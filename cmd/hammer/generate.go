package main

import (
	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"

	hammer "github.com/rankjay/hammer/core"
	"github.com/rankjay/hammer/internal/prestate"
)

var generateCommand = &cli.Command{
	Name:  "generate",
	Usage: "Generate the gas-optimal access list for a transaction",
	Flags: []cli.Flag{
		rpcFlag, fromFlag, toFlag, dataFlag, valueFlag, blockFlag,
		gasLimitFlag, outputFlag,
	},
	Action: runGenerate,
}

func runGenerate(ctx *cli.Context) error {
	env, err := prepareCall(ctx)
	if err != nil {
		return err
	}
	defer env.client.Close()

	statedb, err := prestate.Build(ctx.Context, env.client, env.call, nil, env.blockNum)
	if err != nil {
		return err
	}

	opt, err := hammer.Generate(statedb, env.msg, env.header, env.traceConfig())
	if err != nil {
		return err
	}
	log.Info("generated access list", "addresses", len(opt.List), "stripped", len(opt.RemovedAddresses))

	switch ctx.String(outputFlag.Name) {
	case "human":
		printOptimizedHuman(opt)
		return nil
	default:
		return printJSON(opt.List)
	}
}
