// Package core implements EIP-2930 access list generation, optimization and
// validation on top of the go-ethereum EVM.
//
// The pipeline is linear: a trace inspector records every address and storage
// slot a transaction touches, the optimizer strips warm-by-default entries to
// produce the canonical minimal list, and the validator diffs a user-declared
// list against that optimum. The three entry points below compose it; the
// components are exported individually for callers that need the raw trace.
package core

import (
	"github.com/ethereum/go-ethereum/common"
	gethcore "github.com/ethereum/go-ethereum/core"
	"github.com/ethereum/go-ethereum/core/state"
	"github.com/ethereum/go-ethereum/core/types"
)

// Generate traces the message with nonce checking enabled and returns the
// gas-optimal access list for it.
func Generate(statedb *state.StateDB, msg *gethcore.Message, header *types.Header, cfg *TraceConfig) (*OptimizedAccessList, error) {
	raw, err := Trace(statedb, msg, header, traceConfig(cfg, false))
	if err != nil {
		return nil, err
	}
	return Optimize(raw, msg.From, callTarget(msg), header.Coinbase), nil
}

// Validate traces the message with nonce checking enabled and diffs the
// declared list against the resulting optimum.
func Validate(statedb *state.StateDB, msg *gethcore.Message, header *types.Header, cfg *TraceConfig, declared types.AccessList) (*ValidationReport, error) {
	return validate(statedb, msg, header, traceConfig(cfg, false), declared)
}

// ValidateReplay is Validate with nonce checking disabled. Replaying a mined
// transaction re-executes it against a state view where its nonce may no
// longer match; the replayed trace is still exact.
func ValidateReplay(statedb *state.StateDB, msg *gethcore.Message, header *types.Header, cfg *TraceConfig, declared types.AccessList) (*ValidationReport, error) {
	return validate(statedb, msg, header, traceConfig(cfg, true), declared)
}

func validate(statedb *state.StateDB, msg *gethcore.Message, header *types.Header, cfg *TraceConfig, declared types.AccessList) (*ValidationReport, error) {
	raw, err := Trace(statedb, msg, header, cfg)
	if err != nil {
		return nil, err
	}
	optimal := Optimize(raw, msg.From, callTarget(msg), header.Coinbase)
	return ValidateList(declared, optimal, msg.From, callTarget(msg), header.Coinbase), nil
}

// callTarget maps a creation message (nil To) to the zero address, which the
// optimizer then ignores in its warm set.
func callTarget(msg *gethcore.Message) common.Address {
	if msg.To != nil {
		return *msg.To
	}
	return common.Address{}
}

func traceConfig(cfg *TraceConfig, skipNonce bool) *TraceConfig {
	out := TraceConfig{}
	if cfg != nil {
		out = *cfg
	}
	out.SkipNonceCheck = skipNonce
	return &out
}
