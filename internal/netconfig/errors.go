package netconfig

import "errors"

var (
	ErrDuplicateNetwork  = errors.New("network already declared")
	ErrDuplicateExplorer = errors.New("explorer already declared for network")
	ErrUnknownNetwork    = errors.New("network not declared")
	ErrChainIDMismatch   = errors.New("chain ID mismatch")
	ErrInvalidDescriptor = errors.New("invalid descriptor")
)
