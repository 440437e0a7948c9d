package core

import (
	"context"

	"go.uber.org/zap"

	"github.com/union-dao/governance-kernel/core/idl"
)

// WalletExecutor is the single-principal-gated sequential remote-call
// runner (spec §4.5). It is the terminal step of an approved Voting: the
// voting manager hands it a program and it runs every instruction in order,
// never short-circuiting on a per-element rejection.
type WalletExecutor struct {
	controller Account
	caller     RemoteCaller
	log        *zap.SugaredLogger
}

// NewWalletExecutor constructs an executor locked to controller (normally
// the voting manager's own canister). A None controller permanently locks
// the executor, matching the source's "traps if CALL_CONTROLLER unset"
// behavior, reinterpreted as a returned error (SPEC_FULL.md SUPPLEMENTED
// FEATURES: only_by trap semantics).
func NewWalletExecutor(controller Account, caller RemoteCaller) *WalletExecutor {
	return &WalletExecutor{
		controller: controller,
		caller:     caller,
		log:        zap.L().Sugar(),
	}
}

// UnionCall runs payload.Program sequentially, gated by the executor's
// controller. A rejected call is recorded in the output sequence; the loop
// never aborts early.
func (w *WalletExecutor) UnionCall(ctx context.Context, caller Principal, payload UnionCallPayload) ([]RemoteCallResult, error) {
	if err := checkControlledOp(w.controller, caller); err != nil {
		return nil, err
	}

	results := make([]RemoteCallResult, 0, len(payload.Program))
	for _, instruction := range payload.Program {
		results = append(results, w.remoteCall(ctx, instruction))
	}
	return results, nil
}

func (w *WalletExecutor) remoteCall(ctx context.Context, instruction RemoteCallPayload) RemoteCallResult {
	w.log.Debugw("remote_call", "endpoint", instruction.Endpoint.String(), "args", instruction.IDLStrArgs)

	args, err := idl.Parse(instruction.IDLStrArgs)
	if err != nil {
		return RemoteCallResult{Err: &RemoteCallError{Kind: UnableToParseArgs, Message: err.Error()}}
	}

	encoded, err := idl.Encode(args)
	if err != nil {
		return RemoteCallResult{Err: &RemoteCallError{Kind: UnableToSerializeArgs, Message: err.Error()}}
	}

	raw, err := w.caller.Call(ctx, instruction.Endpoint, RemoteCallArgs{Args: encoded, Payment: instruction.Payment})
	if err != nil {
		w.log.Debugw("remote_call rejected", "endpoint", instruction.Endpoint.String(), "error", err)
		return RemoteCallResult{Err: &RemoteCallError{Kind: RemoteCallReject, Message: err.Error()}}
	}

	w.log.Debugw("remote_call response", "endpoint", instruction.Endpoint.String(), "bytes", len(raw))
	return RemoteCallResult{Ok: raw}
}
