package core

import "testing"

func newTestClaimToken(controller Principal) *ClaimToken {
	return NewClaimToken(
		"claim-token",
		ClaimTokenInfo{Name: "Test Claim"},
		SingleController(Some(controller)),
		nil,
	)
}

func TestClaimTokenTotalSupplyInvariant(t *testing.T) {
	ct := newTestClaimToken("admin")
	ct.Issue(nil, "admin", []IssueEntry{{To: "alice"}, {To: "bob"}})

	var trueCount uint64
	for _, p := range []Principal{"alice", "bob"} {
		if ct.HasClaim(p) {
			trueCount++
		}
	}
	if trueCount != ct.TotalSupply() {
		t.Fatalf("count(true)=%d != total_supply=%d", trueCount, ct.TotalSupply())
	}
}

func TestClaimTokenDoubleIssueFails(t *testing.T) {
	ct := newTestClaimToken("admin")
	ct.Issue(nil, "admin", []IssueEntry{{To: "alice"}})
	results := ct.Issue(nil, "admin", []IssueEntry{{To: "alice"}})
	if results[0] != ErrAlreadyHasClaim {
		t.Fatalf("expected ErrAlreadyHasClaim on double issue, got %v", results[0])
	}
	if ct.TotalSupply() != 1 {
		t.Fatalf("total supply after rejected double issue = %d, want 1", ct.TotalSupply())
	}
}

func TestClaimTokenDoubleRevokeGuarded(t *testing.T) {
	ct := newTestClaimToken("admin")
	ct.Issue(nil, "admin", []IssueEntry{{To: "alice"}})

	results := ct.Revoke(nil, "admin", []RevokeEntry{{From: "alice"}})
	if results[0] != nil {
		t.Fatalf("unexpected error on first revoke: %v", results[0])
	}
	if ct.TotalSupply() != 0 {
		t.Fatalf("total supply after revoke = %d, want 0", ct.TotalSupply())
	}

	// A second revoke of the same, now-claimless, account must not
	// underflow total supply.
	results = ct.Revoke(nil, "admin", []RevokeEntry{{From: "alice"}})
	if results[0] != ErrDoesNotHaveClaimYet {
		t.Fatalf("expected ErrDoesNotHaveClaimYet on double revoke, got %v", results[0])
	}
	if ct.TotalSupply() != 0 {
		t.Fatalf("total supply after guarded double revoke = %d, want 0 (no underflow)", ct.TotalSupply())
	}
}
