package flowtx

import "errors"

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidAddress   = errors.New("invalid address")
	ErrArgumentMismatch = errors.New("argument does not match template parameters")
	ErrMissingRole      = errors.New("missing signing role")
	ErrComputeLimit     = errors.New("compute limit must be positive")
	ErrUnresolvedAlias  = errors.New("unresolved import alias")
	ErrWrongKind        = errors.New("template kind does not match call")
)
