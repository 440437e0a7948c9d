package core

import "testing"

func TestOnMoveListenersSubscribeUnsubscribeRoundTrip(t *testing.T) {
	b := NewOnMoveListenersInfo()
	before := b.Len()

	l := OnMoveListener{
		Filter:   Filter{From: AnyAccount, To: ExactAccount(Some("alice"))},
		Endpoint: RemoteCallEndpoint{CanisterID: "vpl", MethodName: "handle_on_move"},
	}
	id := b.AddListener(l)

	if b.Len() != before+1 {
		t.Fatalf("expected Len %d after subscribe, got %d", before+1, b.Len())
	}

	got, err := b.RemoveListener(id)
	if err != nil {
		t.Fatalf("RemoveListener: %v", err)
	}
	if got.Endpoint != l.Endpoint {
		t.Fatalf("returned listener endpoint mismatch: got %+v want %+v", got.Endpoint, l.Endpoint)
	}

	if b.Len() != before {
		t.Fatalf("expected index size to return to %d, got %d", before, b.Len())
	}
	for key, bucket := range b.index {
		if len(bucket) != 0 {
			t.Fatalf("bucket %q not empty after unsubscribe: %v", key, bucket)
		}
	}
}

func TestGetMatchingListenersRespectsBothSides(t *testing.T) {
	b := NewOnMoveListenersInfo()

	pinnedTo := OnMoveListener{
		Filter:   Filter{From: AnyAccount, To: ExactAccount(Some("alice"))},
		Endpoint: RemoteCallEndpoint{CanisterID: "x", MethodName: "to-alice-only"},
	}
	pinnedFrom := OnMoveListener{
		Filter:   Filter{From: ExactAccount(Some("bob")), To: AnyAccount},
		Endpoint: RemoteCallEndpoint{CanisterID: "x", MethodName: "from-bob-only"},
	}
	wildcard := OnMoveListener{
		Filter:   Filter{From: AnyAccount, To: AnyAccount},
		Endpoint: RemoteCallEndpoint{CanisterID: "x", MethodName: "all"},
	}
	b.AddListener(pinnedTo)
	b.AddListener(pinnedFrom)
	b.AddListener(wildcard)

	// A transfer from carol to dave matches neither pinned listener, only
	// the wildcard one. Before the matching fix, pinnedTo and pinnedFrom
	// would also match via their wildcard-side bucket membership.
	event := TokenMoveEvent{From: Some("carol"), To: Some("dave"), Qty: 1}
	matches := b.GetMatchingListeners(event)
	if len(matches) != 1 || matches[0].Endpoint.MethodName != "all" {
		t.Fatalf("expected only the wildcard listener to match, got %+v", matches)
	}

	// A transfer from bob to alice matches all three.
	event = TokenMoveEvent{From: Some("bob"), To: Some("alice"), Qty: 1}
	matches = b.GetMatchingListeners(event)
	if len(matches) != 3 {
		t.Fatalf("expected all three listeners to match bob->alice, got %d", len(matches))
	}
}

func TestRemoveListenerUnknownID(t *testing.T) {
	b := NewOnMoveListenersInfo()
	if _, err := b.RemoveListener(42); err != ErrListenerDoesNotExist {
		t.Fatalf("expected ErrListenerDoesNotExist, got %v", err)
	}
}
