// Package core implements the governance kernel's actors: token ledgers, the
// move-event bus, the voting-power ledger, the voting manager, and the
// wallet executor. Each actor owns its state as a struct; there is no
// package-level mutable singleton (see cmd/governd for the composition
// root that constructs and wires these structs together).
package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// RemoteCaller dispatches a call to another actor's endpoint. transport/httprpc
// provides the concrete implementation; core packages only depend on this
// interface, never on the transport.
type RemoteCaller interface {
	Call(ctx context.Context, endpoint RemoteCallEndpoint, args any) ([]byte, error)
}

// Principal is an opaque platform-level identifier for a caller or actor.
// No cryptographic meaning is attached to it here; the host platform is
// assumed to authenticate callers and hand their Principal to us.
type Principal string

// Account is the tagged `{None, Some(principal)}` variant from the spec.
// The zero value is None: the "outside world" (mint source, burn sink) or
// "no controller", depending on context. As a Controlled[T] controller,
// None lets any caller pass; as a token ledger's Controllers entry, None
// locks that operation (ErrForbiddenOperation).
type Account struct {
	principal Principal
	some      bool
}

// NoAccount is the canonical "outside world" / "no controller" value.
var NoAccount = Account{}

// Some constructs an Account that holds a principal.
func Some(p Principal) Account { return Account{principal: p, some: true} }

// IsSome reports whether the account holds a principal.
func (a Account) IsSome() bool { return a.some }

// Principal returns the held principal and true, or the zero Principal and
// false if the account is None.
func (a Account) Principal() (Principal, bool) { return a.principal, a.some }

func (a Account) String() string {
	if !a.some {
		return "None"
	}
	return string(a.principal)
}

// Equal reports whether two accounts denote the same party.
func (a Account) Equal(b Account) bool {
	return a.some == b.some && a.principal == b.principal
}

// accountWire is Account's wire shape: Account's fields are unexported so
// its None/Some invariant can only be built through Some/NoAccount, but that
// means the default reflection-based cbor codec would see no fields at all.
type accountWire struct {
	Principal Principal
	Some      bool
}

// MarshalCBOR implements cbor.Marshaler.
func (a Account) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(accountWire{Principal: a.principal, Some: a.some})
}

// UnmarshalCBOR implements cbor.Unmarshaler.
func (a *Account) UnmarshalCBOR(data []byte) error {
	var w accountWire
	if err := cbor.Unmarshal(data, &w); err != nil {
		return err
	}
	a.principal = w.Principal
	a.some = w.Some
	return nil
}

// RemoteCallEndpoint identifies a callable service method on another actor.
type RemoteCallEndpoint struct {
	CanisterID Principal
	MethodName string
}

func (e RemoteCallEndpoint) String() string {
	return fmt.Sprintf("%s.%s", e.CanisterID, e.MethodName)
}

// RemoteCallPayload is a single remote call the wallet executor will
// eventually dispatch: the target endpoint, its arguments in the platform's
// textual interface-description language, and the payment (in the
// platform's native unit) attached to the call.
type RemoteCallPayload struct {
	Endpoint   RemoteCallEndpoint
	IDLStrArgs string
	Payment    int64
}

// RemoteCallArgs is the wire payload the wallet executor actually dispatches
// for one instruction: the encoded arguments plus the payment declared on
// the originating RemoteCallPayload, so the receiving endpoint is invoked
// with both (spec §7 "_union_call ... invoke the endpoint with the declared
// payment").
type RemoteCallArgs struct {
	Args    []byte
	Payment int64
}

// RemoteCallError is the taxonomy of ways a dispatched call can fail.
type RemoteCallError struct {
	Kind    RemoteCallErrorKind
	Message string
}

type RemoteCallErrorKind int

const (
	UnableToParseArgs RemoteCallErrorKind = iota
	UnableToSerializeArgs
	RemoteCallReject
)

func (e *RemoteCallError) Error() string {
	switch e.Kind {
	case UnableToParseArgs:
		return "unable to parse remote call arguments"
	case UnableToSerializeArgs:
		return "unable to serialize remote call arguments"
	case RemoteCallReject:
		return fmt.Sprintf("remote call rejected: %s", e.Message)
	default:
		return "unknown remote call error"
	}
}

// RemoteCallResult is the outcome of dispatching one RemoteCallPayload.
type RemoteCallResult struct {
	Ok  []byte
	Err *RemoteCallError
}

// Controlled pairs a piece of data with an optional controlling principal.
// A nil controller (None) means the operation it guards is permanently
// unlocked: any caller passes. A Some(p) controller means only p passes.
type Controlled[T any] struct {
	Data       T
	Controller Account
}

// ControlledBy wraps data under an exact controller.
func ControlledBy[T any](controller Principal, data T) Controlled[T] {
	return Controlled[T]{Data: data, Controller: Some(controller)}
}

// ControlledByNoOne wraps data with no controller (always unlocked).
func ControlledByNoOne[T any](data T) Controlled[T] {
	return Controlled[T]{Data: data, Controller: NoAccount}
}

// IsController reports whether caller passes this control check.
func (c Controlled[T]) IsController(caller Principal) bool {
	p, ok := c.Controller.Principal()
	if !ok {
		return true
	}
	return p == caller
}

// TokenMoveEvent records a balance move: (None, Some) is a mint, (Some, None)
// is a burn, (Some, Some) is a transfer.
type TokenMoveEvent struct {
	From Account
	To   Account
	Qty  uint64
}

// Common sentinel errors shared by every actor in this package, grouped by
// the kind of failure the caller needs to distinguish (spec §7).
var (
	ErrAccessDenied         = errors.New("access denied")
	ErrForbiddenOperation   = errors.New("operation permanently locked")
	ErrInsufficientBalance  = errors.New("insufficient balance")
	ErrAlreadyHasClaim      = errors.New("account already holds a claim")
	ErrDoesNotHaveClaimYet  = errors.New("account does not hold a claim")
	ErrListenerDoesNotExist = errors.New("listener does not exist")
	ErrListenerFatalError   = errors.New("listener index invariant broken")
	ErrEmitterNotRegistered = errors.New("emitter not registered")
	ErrHistoryLookupFatal   = errors.New("history lookup invariant broken")
)
