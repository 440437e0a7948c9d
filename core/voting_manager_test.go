package core

import (
	"context"
	"testing"

	"github.com/fxamacker/cbor/v2"
)

// fakeRemoteCaller stands in for the transport layer in tests: it knows how
// to answer the two voting-power queries and the wallet's union-call
// endpoint, routing purely by method name the way the transport would route
// by URL path.
type fakeRemoteCaller struct {
	vpl           *VotingPowerLedger
	unionCalls    int
	unionCallErrs []error // per-instruction result for the next UnionCall
}

func (f *fakeRemoteCaller) Call(ctx context.Context, endpoint RemoteCallEndpoint, args any) ([]byte, error) {
	switch endpoint.MethodName {
	case methodVotingPowerOfAt:
		req := args.(struct {
			Emitter   Principal
			Account   Principal
			Timestamp int64
		})
		vp, err := f.vpl.VotingPowerOfAt(req.Emitter, req.Account, req.Timestamp)
		if err != nil {
			return nil, err
		}
		return cbor.Marshal(vp)
	case methodTotalVotingPowerOfAt:
		req := args.(struct {
			Emitter   Principal
			Timestamp int64
		})
		vp, err := f.vpl.TotalVotingPowerAt(req.Emitter, req.Timestamp)
		if err != nil {
			return nil, err
		}
		return cbor.Marshal(vp)
	case methodUnionCall:
		f.unionCalls++
		payload := args.(UnionCallPayload)
		results := make([]RemoteCallResult, len(payload.Program))
		for i := range payload.Program {
			if i < len(f.unionCallErrs) && f.unionCallErrs[i] != nil {
				results[i].Err = &RemoteCallError{Kind: RemoteCallReject, Message: f.unionCallErrs[i].Error()}
			}
		}
		return cbor.Marshal(results)
	default:
		return nil, nil
	}
}

func setupVotingManagerFixture(t *testing.T) (*VotingManager, *fakeRemoteCaller, Principal) {
	t.Helper()
	const wallet Principal = "dao-wallet"
	const tokenEmitter Principal = "token"

	vpl := NewVotingPowerLedger()
	vpl.RegisterEmitter(tokenEmitter)
	vpl.HandleOnMove(tokenEmitter, TokenMoveEvent{From: NoAccount, To: Some("alice"), Qty: 60})
	vpl.HandleOnMove(tokenEmitter, TokenMoveEvent{From: NoAccount, To: Some("bob"), Qty: 40})

	caller := &fakeRemoteCaller{vpl: vpl}
	vm := NewVotingManager(caller)

	openACL := ACL{Kind: ACLAny}
	policy := EndpointPolicy{
		Approval:   Interval[float64]{Min: 0, Max: 1},
		Rejection:  Interval[float64]{Min: 0, Max: 1},
		Quorum:     Interval[float64]{Min: 0, Max: 1},
		Consensus:  Interval[float64]{Min: 0, Max: 1},
		CanVote:    openACL,
		CanCreate:  openACL,
		CanUpdate:  openACL,
		CanDelete:  openACL,
		CanExecute: openACL,
	}
	if err := vm.SetVotingConfig("admin", wallet, VotingConfig{Default: policy}, Some(Principal("admin"))); err != nil {
		t.Fatalf("SetVotingConfig: %v", err)
	}
	if err := vm.SetMembershipGuard("admin", wallet, Some(tokenEmitter), Some(Principal("admin"))); err != nil {
		t.Fatalf("SetMembershipGuard: %v", err)
	}
	return vm, caller, wallet
}

func TestVotingManagerThresholdTransitionAndDoubleExecute(t *testing.T) {
	vm, caller, wallet := setupVotingManagerFixture(t)
	ctx := context.Background()

	params := NewVotingParams{
		UnionWallet: wallet,
		Approval:    0.5,
		Rejection:   0.5,
		Quorum:      0,
		Consensus:   0,
		Payload:     []RemoteCallPayload{{Endpoint: RemoteCallEndpoint{CanisterID: wallet, MethodName: "do_thing"}}},
	}
	id, err := vm.CreateVoting(ctx, "alice", params, true)
	if err != nil {
		t.Fatalf("CreateVoting: %v", err)
	}

	// alice holds 60/100 = 0.6 >= 0.5 approval: a single vote passes it.
	if err := vm.Vote(ctx, id, "alice", VoteFor, true); err != nil {
		t.Fatalf("Vote: %v", err)
	}

	votings := vm.Votings(wallet)
	if votings[0].Status != StatusApproved {
		t.Fatalf("status after alice's vote = %v, want StatusApproved", votings[0].Status)
	}

	if err := vm.Execute(ctx, "alice", id, true); err != nil {
		t.Fatalf("first Execute: %v", err)
	}
	votings = vm.Votings(wallet)
	if votings[0].Status != StatusExecuted {
		t.Fatalf("status after execute = %v, want StatusExecuted", votings[0].Status)
	}
	if caller.unionCalls != 1 {
		t.Fatalf("expected exactly one dispatch to the wallet executor, got %d", caller.unionCalls)
	}

	// A second execute on the same (already-Executed) voting must fail
	// without dispatching to the wallet again.
	if err := vm.Execute(ctx, "alice", id, true); err != ErrVotingAlreadyExecuted {
		t.Fatalf("second Execute error = %v, want ErrVotingAlreadyExecuted", err)
	}
	if caller.unionCalls != 1 {
		t.Fatalf("expected double-execute to be rejected before dispatch, got %d total calls", caller.unionCalls)
	}
}

func TestVotingManagerChangeOfMindUsesRecordedWeight(t *testing.T) {
	vm, _, wallet := setupVotingManagerFixture(t)
	ctx := context.Background()

	params := NewVotingParams{
		UnionWallet: wallet,
		Approval:    0.9, // high bar: alice's 60% alone cannot pass it
		Rejection:   0.9,
		Payload:     []RemoteCallPayload{{Endpoint: RemoteCallEndpoint{CanisterID: wallet, MethodName: "do_thing"}}},
	}
	id, err := vm.CreateVoting(ctx, "alice", params, true)
	if err != nil {
		t.Fatalf("CreateVoting: %v", err)
	}

	if err := vm.Vote(ctx, id, "alice", VoteFor, true); err != nil {
		t.Fatalf("first vote: %v", err)
	}
	// alice changes her mind; if the recorded weight were not used on
	// removal, VotingPowerFor could drift instead of returning to exactly 0.
	if err := vm.Vote(ctx, id, "alice", VoteAgainst, true); err != nil {
		t.Fatalf("second vote: %v", err)
	}

	votings := vm.Votings(wallet)
	v := votings[0]
	if v.VotingPowerFor != 0 {
		t.Fatalf("VotingPowerFor after switching sides = %d, want 0", v.VotingPowerFor)
	}
	if v.VotingPowerAgainst != 60 {
		t.Fatalf("VotingPowerAgainst after switching sides = %d, want 60", v.VotingPowerAgainst)
	}
	if len(v.VotersFor) != 0 {
		t.Fatalf("VotersFor should be empty after switching sides, got %v", v.VotersFor)
	}
}

func TestVotingManagerDeleteLeavesIndexStable(t *testing.T) {
	vm, _, wallet := setupVotingManagerFixture(t)
	ctx := context.Background()

	mkParams := func(title string) NewVotingParams {
		return NewVotingParams{
			UnionWallet: wallet,
			Approval:    0.5,
			Rejection:   0.5,
			Title:       title,
			Payload:     []RemoteCallPayload{{Endpoint: RemoteCallEndpoint{CanisterID: wallet, MethodName: "m"}}},
		}
	}
	idA, _ := vm.CreateVoting(ctx, "alice", mkParams("first"), true)
	idB, _ := vm.CreateVoting(ctx, "alice", mkParams("second"), true)

	if err := vm.DeleteVoting("alice", idA, true); err != nil {
		t.Fatalf("DeleteVoting: %v", err)
	}

	if _, err := vm.getVoting(idA); err != ErrVotingDoesNotExist {
		t.Fatalf("getVoting(deleted) error = %v, want ErrVotingDoesNotExist", err)
	}
	vB, err := vm.getVoting(idB)
	if err != nil {
		t.Fatalf("getVoting(idB) after sibling delete: %v", err)
	}
	if vB.Title != "second" {
		t.Fatalf("idB now resolves to %q, want %q: deletion shifted indices", vB.Title, "second")
	}
}

func TestVotingManagerPolicyRejectsDisallowedProposer(t *testing.T) {
	vm, _, wallet := setupVotingManagerFixture(t)
	ctx := context.Background()

	restricted := EndpointPolicy{
		Approval:  Interval[float64]{Min: 0, Max: 1},
		Rejection: Interval[float64]{Min: 0, Max: 1},
		Quorum:    Interval[float64]{Min: 0, Max: 1},
		Consensus: Interval[float64]{Min: 0, Max: 1},
		CanCreate: ACL{Kind: ACLExact, Principals: map[Principal]bool{"alice": true}},
	}
	if err := vm.SetVotingConfig("admin", wallet, VotingConfig{Default: restricted}, Some(Principal("admin"))); err != nil {
		t.Fatalf("SetVotingConfig: %v", err)
	}

	params := NewVotingParams{
		UnionWallet: wallet,
		Approval:    0.5,
		Rejection:   0.5,
		Payload:     []RemoteCallPayload{{Endpoint: RemoteCallEndpoint{CanisterID: wallet, MethodName: "m"}}},
	}
	if _, err := vm.CreateVoting(ctx, "bob", params, true); err != ErrPolicyRejected {
		t.Fatalf("CreateVoting by non-whitelisted proposer error = %v, want ErrPolicyRejected", err)
	}
	if _, err := vm.CreateVoting(ctx, "alice", params, true); err != nil {
		t.Fatalf("CreateVoting by whitelisted proposer: %v", err)
	}
}
