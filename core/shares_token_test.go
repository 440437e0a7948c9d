package core

import "testing"

func newTestSharesToken(controller Principal) *SharesToken {
	return NewSharesToken(
		"shares-token",
		SharesTokenInfo{Name: "Test Shares", Symbol: "TS"},
		SingleController(Some(controller)),
		nil,
	)
}

func TestSharesTokenHistoricalLookupMonotonic(t *testing.T) {
	st := newTestSharesToken("admin")
	st.Mint(nil, "admin", []MintEntry{{To: "alice", Qty: 10}})
	st.Mint(nil, "admin", []MintEntry{{To: "alice", Qty: 20}})
	st.Burn(nil, "alice", []BurnEntry{{From: "alice", Qty: 15}})

	if got := st.BalanceOfAt("alice", 0); got != 0 {
		t.Fatalf("BalanceOfAt before any entry = %d, want 0", got)
	}

	now := st.BalanceOfAt("alice", 1<<62)
	if now != 15 {
		t.Fatalf("current BalanceOfAt = %d, want 15", now)
	}
	if st.TotalSupplyAt(1<<62) != 15 {
		t.Fatalf("TotalSupplyAt = %d, want 15", st.TotalSupplyAt(1<<62))
	}
}

func TestSharesTokenSendMovesHistoricalBalance(t *testing.T) {
	st := newTestSharesToken("admin")
	st.Mint(nil, "admin", []MintEntry{{To: "alice", Qty: 100}})
	st.Send(nil, "alice", []SendEntry{{From: "alice", To: "bob", Qty: 40}})

	if got := st.BalanceOfAt("alice", 1<<62); got != 60 {
		t.Fatalf("alice balance = %d, want 60", got)
	}
	if got := st.BalanceOfAt("bob", 1<<62); got != 40 {
		t.Fatalf("bob balance = %d, want 40", got)
	}
}

func TestSharesTokenSendRejectsSpoofedFrom(t *testing.T) {
	st := newTestSharesToken("admin")
	st.Mint(nil, "admin", []MintEntry{{To: "victim", Qty: 100}})

	results := st.Send(nil, "attacker", []SendEntry{{From: "victim", To: "attacker", Qty: 100}})
	if results[0] != ErrAccessDenied {
		t.Fatalf("expected ErrAccessDenied when caller != entry.From, got %v", results[0])
	}
	if got := st.BalanceOfAt("attacker", 1<<62); got != 0 {
		t.Fatalf("spoofed send must not credit the attacker, got %d", got)
	}
}
