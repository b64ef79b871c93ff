// hammer analyzes and optimizes the EIP-2930 access lists of Ethereum
// transactions: it generates the minimal gas-optimal list for a call,
// validates a declared list against the execution trace, and compares a
// mined transaction's list to its optimum.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ethereum/go-ethereum/log"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"
)

var (
	verbosityFlag = &cli.IntFlag{
		Name:  "verbosity",
		Usage: "Logging verbosity: 0=silent, 1=error, 2=warn, 3=info, 4=debug, 5=detail",
		Value: 3,
	}
	configFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "TOML configuration file",
	}
	rpcFlag = &cli.StringFlag{
		Name:  "rpc",
		Usage: "Ethereum JSON-RPC endpoint",
		Value: "https://eth.llamarpc.com",
	}
	fromFlag = &cli.StringFlag{
		Name:     "from",
		Usage:    "Transaction sender address",
		Required: true,
	}
	toFlag = &cli.StringFlag{
		Name:     "to",
		Usage:    "Transaction target address",
		Required: true,
	}
	dataFlag = &cli.StringFlag{
		Name:  "data",
		Usage: "Hex-encoded calldata",
		Value: "0x",
	}
	valueFlag = &cli.StringFlag{
		Name:  "value",
		Usage: "Transferred value in wei (decimal or 0x hex)",
		Value: "0",
	}
	blockFlag = &cli.StringFlag{
		Name:  "block",
		Usage: "Block to execute against: 'latest', 'pending', or a number",
		Value: "latest",
	}
	gasLimitFlag = &cli.Uint64Flag{
		Name:  "gas-limit",
		Usage: "Gas limit for the traced execution",
		Value: 30_000_000,
	}
	outputFlag = &cli.StringFlag{
		Name:  "output",
		Usage: "Output format: 'json' or 'human'",
		Value: "json",
	}
	accessListFlag = &cli.StringFlag{
		Name:     "access-list",
		Usage:    "Path to the declared access list (JSON)",
		Required: true,
	}
	txHashFlag = &cli.StringFlag{
		Name:     "txhash",
		Usage:    "Hash of the mined transaction to compare",
		Required: true,
	}
)

func main() {
	app := &cli.App{
		Name:  "hammer",
		Usage: "EIP-2930 access list generation and validation",
		Flags: []cli.Flag{verbosityFlag, configFlag},
		Commands: []*cli.Command{
			generateCommand,
			validateCommand,
			compareCommand,
		},
		Before: setupLogging,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func setupLogging(ctx *cli.Context) error {
	verbosity := ctx.Int(verbosityFlag.Name)
	if path := ctx.String(configFlag.Name); path != "" && !ctx.IsSet(verbosityFlag.Name) {
		cfg := defaultConfig()
		if err := loadConfig(path, &cfg); err == nil {
			verbosity = cfg.Verbosity
		}
	}
	useColor := isatty.IsTerminal(os.Stderr.Fd()) && os.Getenv("TERM") != "dumb"
	output := io.Writer(os.Stderr)
	if useColor {
		output = colorable.NewColorableStderr()
	}
	handler := log.NewTerminalHandlerWithLevel(output, log.FromLegacyLevel(verbosity), useColor)
	log.SetDefault(log.NewLogger(handler))
	return nil
}

// errInvalidList marks a completed validation whose report found
// discrepancies; the process exits 1 without an error banner.
var errInvalidList = errors.New("access list has issues")

func exitCode(err error) error {
	if errors.Is(err, errInvalidList) {
		return cli.Exit("", 1)
	}
	return err
}
