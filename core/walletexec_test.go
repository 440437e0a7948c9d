package core

import (
	"context"
	"errors"
	"testing"
)

// stubCaller answers every RemoteCaller.Call with the bytes "ok", failing
// the call whose index is listed in failAt.
type stubCaller struct {
	calls  []RemoteCallEndpoint
	args   []RemoteCallArgs
	failAt map[int]bool
}

func (s *stubCaller) Call(ctx context.Context, endpoint RemoteCallEndpoint, args any) ([]byte, error) {
	idx := len(s.calls)
	s.calls = append(s.calls, endpoint)
	if a, ok := args.(RemoteCallArgs); ok {
		s.args = append(s.args, a)
	}
	if s.failAt[idx] {
		return nil, errors.New("downstream canister rejected the call")
	}
	return []byte("ok"), nil
}

func TestWalletExecutorRejectsWrongController(t *testing.T) {
	caller := &stubCaller{}
	w := NewWalletExecutor(Some(Principal("voting-manager")), caller)

	_, err := w.UnionCall(context.Background(), "impostor", UnionCallPayload{
		Program: []RemoteCallPayload{{Endpoint: RemoteCallEndpoint{CanisterID: "x", MethodName: "y"}}},
	})
	if err != ErrAccessDenied {
		t.Fatalf("UnionCall by non-controller error = %v, want ErrAccessDenied", err)
	}
	if len(caller.calls) != 0 {
		t.Fatalf("expected no downstream dispatch for a rejected caller, got %d", len(caller.calls))
	}
}

func TestWalletExecutorNoneControllerPermanentlyLocked(t *testing.T) {
	caller := &stubCaller{}
	w := NewWalletExecutor(NoAccount, caller)

	_, err := w.UnionCall(context.Background(), "anyone", UnionCallPayload{
		Program: []RemoteCallPayload{{Endpoint: RemoteCallEndpoint{CanisterID: "x", MethodName: "y"}}},
	})
	if err != ErrForbiddenOperation {
		t.Fatalf("UnionCall with None controller error = %v, want ErrForbiddenOperation", err)
	}
}

func TestWalletExecutorSequentialNeverShortCircuits(t *testing.T) {
	caller := &stubCaller{failAt: map[int]bool{1: true}}
	w := NewWalletExecutor(Some(Principal("voting-manager")), caller)

	program := []RemoteCallPayload{
		{Endpoint: RemoteCallEndpoint{CanisterID: "a", MethodName: "one"}, IDLStrArgs: `qty = 1`},
		{Endpoint: RemoteCallEndpoint{CanisterID: "b", MethodName: "two"}, IDLStrArgs: `qty = 2`},
		{Endpoint: RemoteCallEndpoint{CanisterID: "c", MethodName: "three"}, IDLStrArgs: `qty = 3`},
	}

	results, err := w.UnionCall(context.Background(), "voting-manager", UnionCallPayload{Program: program})
	if err != nil {
		t.Fatalf("UnionCall: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	if results[0].Err != nil {
		t.Fatalf("instruction 0 should succeed, got err %v", results[0].Err)
	}
	if results[1].Err == nil || results[1].Err.Kind != RemoteCallReject {
		t.Fatalf("instruction 1 should be a RemoteCallReject, got %v", results[1].Err)
	}
	if results[2].Err != nil {
		t.Fatalf("instruction 2 after a failing middle call should still run, got err %v", results[2].Err)
	}
	if len(caller.calls) != 3 {
		t.Fatalf("expected all 3 instructions dispatched despite the middle failure, got %d", len(caller.calls))
	}
}

func TestWalletExecutorPassesDeclaredPayment(t *testing.T) {
	caller := &stubCaller{}
	w := NewWalletExecutor(Some(Principal("voting-manager")), caller)

	program := []RemoteCallPayload{
		{Endpoint: RemoteCallEndpoint{CanisterID: "a", MethodName: "one"}, IDLStrArgs: `qty = 1`, Payment: 500},
		{Endpoint: RemoteCallEndpoint{CanisterID: "b", MethodName: "two"}, IDLStrArgs: `qty = 2`, Payment: 0},
	}
	if _, err := w.UnionCall(context.Background(), "voting-manager", UnionCallPayload{Program: program}); err != nil {
		t.Fatalf("UnionCall: %v", err)
	}

	if len(caller.args) != 2 {
		t.Fatalf("expected 2 dispatched calls with RemoteCallArgs, got %d", len(caller.args))
	}
	if caller.args[0].Payment != 500 {
		t.Fatalf("instruction 0 payment = %d, want 500", caller.args[0].Payment)
	}
	if caller.args[1].Payment != 0 {
		t.Fatalf("instruction 1 payment = %d, want 0", caller.args[1].Payment)
	}
	if len(caller.args[0].Args) == 0 {
		t.Fatal("expected the encoded IDL args to still be carried alongside the payment")
	}
}

func TestWalletExecutorUnparsableArgs(t *testing.T) {
	caller := &stubCaller{}
	w := NewWalletExecutor(Some(Principal("voting-manager")), caller)

	program := []RemoteCallPayload{
		{Endpoint: RemoteCallEndpoint{CanisterID: "a", MethodName: "one"}, IDLStrArgs: "{{{ not valid"},
	}
	results, err := w.UnionCall(context.Background(), "voting-manager", UnionCallPayload{Program: program})
	if err != nil {
		t.Fatalf("UnionCall: %v", err)
	}
	if results[0].Err == nil || results[0].Err.Kind != UnableToParseArgs {
		t.Fatalf("expected UnableToParseArgs, got %v", results[0].Err)
	}
	if len(caller.calls) != 0 {
		t.Fatalf("a call that fails to parse should never reach the transport, got %d dispatches", len(caller.calls))
	}
}
