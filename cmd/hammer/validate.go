package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	hammer "github.com/rankjay/hammer/core"
	"github.com/rankjay/hammer/internal/prestate"
)

var validateCommand = &cli.Command{
	Name:  "validate",
	Usage: "Validate a declared access list against the execution trace",
	Flags: []cli.Flag{
		rpcFlag, fromFlag, toFlag, dataFlag, valueFlag, blockFlag,
		gasLimitFlag, outputFlag, accessListFlag,
	},
	Action: runValidate,
}

func runValidate(ctx *cli.Context) error {
	declared, err := readAccessList(ctx.String(accessListFlag.Name))
	if err != nil {
		return err
	}
	env, err := prepareCall(ctx)
	if err != nil {
		return err
	}
	defer env.client.Close()

	statedb, err := prestate.Build(ctx.Context, env.client, env.call, declared, env.blockNum)
	if err != nil {
		return err
	}

	report, err := hammer.Validate(statedb, env.msg, env.header, env.traceConfig(), declared)
	if err != nil {
		return err
	}

	switch ctx.String(outputFlag.Name) {
	case "human":
		printReportHuman(report, env.gasPriceGwei())
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
