package types

import "errors"

// Declaration validation errors.
var (
	ErrInvalidName        = errors.New("invalid name")
	ErrDuplicateContract  = errors.New("duplicate contract")
	ErrDuplicateType      = errors.New("duplicate type")
	ErrDuplicateOperation = errors.New("duplicate operation")
	ErrInvalidSignature   = errors.New("signature must be of the form (...)")
	ErrUnknownContract    = errors.New("unknown contract")
	ErrContractCycle      = errors.New("contract inheritance cycle")
	ErrInvalidStep        = errors.New("step must set exactly one of say or call")
	ErrUnsupportedVersion = errors.New("unsupported declaration version")
)

// Resolution errors. Diagnostics unwrap to one of these.
var (
	ErrConflict      = errors.New("conflicting default implementations")
	ErrUnimplemented = errors.New("operation not implemented")
)

// Dispatch errors.
var (
	ErrUnknownType       = errors.New("unknown type")
	ErrUnknownOperation  = errors.New("unknown operation")
	ErrCallDepthExceeded = errors.New("call depth exceeded")
)

// Registry lifecycle and lookup errors.
var (
	ErrRegistryDetached = errors.New("registry is detached")
	ErrAlreadyAttached  = errors.New("registry is already attached")
	ErrNotFound         = errors.New("declaration not found")
)
