package app

import (
	"errors"
	"fmt"

	"fungible-token-demo/internal/config"
	"fungible-token-demo/internal/flowclient"
	"fungible-token-demo/internal/flowtx"
	"fungible-token-demo/internal/session"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindSession
	KindRemote
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindSession:
		return "session"
	case KindRemote:
		return "remote"
	}
	return "internal"
}

var (
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrReservedAccount is returned when a session tries to log in as the
	// server signer.
	ErrReservedAccount = errors.New("account is reserved for the server")
)

// Error is returned by every Service operation that fails.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf reports the kind of err, KindInternal for errors not produced by
// this package.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Kind: classify(err), Op: op, Err: err}
}

func classify(err error) Kind {
	var remote *flowclient.RemoteError
	switch {
	case errors.Is(err, flowtx.ErrInvalidAmount),
		errors.Is(err, flowtx.ErrInvalidAddress),
		errors.Is(err, flowtx.ErrArgumentMismatch):
		return KindValidation
	case errors.Is(err, ErrNotAuthenticated),
		errors.Is(err, session.ErrNotFound),
		errors.Is(err, config.ErrUnknownAccount):
		return KindSession
	case errors.As(err, &remote):
		return KindRemote
	}
	return KindInternal
}

// invokeError classifies a failure reported by the Invoker. Anything that is
// not a local precondition counts as a remote rejection.
func invokeError(op string, err error) error {
	switch classify(err) {
	case KindValidation:
		return &Error{Kind: KindValidation, Op: op, Err: err}
	case KindInternal:
		if errors.Is(err, flowtx.ErrWrongKind) || errors.Is(err, flowtx.ErrMissingRole) {
			return &Error{Kind: KindInternal, Op: op, Err: err}
		}
	}
	return &Error{Kind: KindRemote, Op: op, Err: err}
}
