package main

import (
	"fmt"
	"os"

	"github.com/naoina/toml"
	"github.com/urfave/cli/v2"
)

// fileConfig holds the optional TOML config file settings. Explicit command
// line flags win over file values.
type fileConfig struct {
	RPC       string
	GasLimit  uint64
	Verbosity int
}

func defaultConfig() fileConfig {
	return fileConfig{
		RPC:       "https://eth.llamarpc.com",
		GasLimit:  30_000_000,
		Verbosity: 3,
	}
}

func loadConfig(path string, cfg *fileConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("invalid config file %s: %v", path, err)
	}
	return nil
}

// resolveConfig merges the config file (if any) under the explicit flags.
func resolveConfig(ctx *cli.Context) (fileConfig, error) {
	cfg := defaultConfig()
	if path := ctx.String(configFlag.Name); path != "" {
		if err := loadConfig(path, &cfg); err != nil {
			return cfg, err
		}
	}
	if ctx.IsSet(rpcFlag.Name) {
		cfg.RPC = ctx.String(rpcFlag.Name)
	}
	if ctx.IsSet(gasLimitFlag.Name) {
		cfg.GasLimit = ctx.Uint64(gasLimitFlag.Name)
	}
	return cfg, nil
}
