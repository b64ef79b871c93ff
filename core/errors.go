package core

import "errors"

// Sentinel errors for the analysis pipeline. Callers dispatch with errors.Is;
// every failure surfaced by this package wraps exactly one of these.
var (
	// ErrEvmExecution wraps any EVM-side failure: state read errors, invalid
	// transactions (bad nonce, insufficient balance), or abnormal halts.
	// A REVERT or out-of-gas halt is NOT an execution failure — the trace is
	// still valid and RawTraceResult.Success reflects the outcome.
	ErrEvmExecution = errors.New("evm execution failed")

	// ErrInvalidCalldata rejects malformed user input (hex data, values,
	// addresses) at the boundary.
	ErrInvalidCalldata = errors.New("invalid calldata")

	// ErrInvalidAccessList rejects a declared access list that is
	// structurally malformed (e.g. unparseable JSON).
	ErrInvalidAccessList = errors.New("invalid access list")

	// ErrUnsupportedTransaction rejects blob transactions, contract
	// creations, and pre-Berlin targets, where EIP-2930 analysis does not
	// apply.
	ErrUnsupportedTransaction = errors.New("unsupported transaction")

	// ErrRPC wraps failures of the remote state backend.
	ErrRPC = errors.New("rpc request failed")
)
