package core

import "testing"

func TestHistoryLookupBoundaries(t *testing.T) {
	var h History
	h.Push(1, 10)
	h.Push(5, 20)
	h.Push(10, 35)

	cases := []struct {
		at     int64
		want   uint64
		wantOK bool
	}{
		{at: 0, want: 0, wantOK: false},
		{at: 1, want: 10, wantOK: true},
		{at: 3, want: 10, wantOK: true},
		{at: 5, want: 20, wantOK: true},
		{at: 7, want: 20, wantOK: true},
		{at: 10, want: 35, wantOK: true},
		{at: 12, want: 35, wantOK: true},
	}
	for _, c := range cases {
		got, ok := h.LookupAt(c.at)
		if got != c.want || ok != c.wantOK {
			t.Fatalf("LookupAt(%d) = (%d, %v), want (%d, %v)", c.at, got, ok, c.want, c.wantOK)
		}
	}
}

func TestHistoryScenarioFromSpec(t *testing.T) {
	// t=1 mint 10, t=5 mint 20 more (running balance 30), t=10 burn 15
	// (running balance 15).
	var h History
	h.Push(1, 10)
	h.Push(5, 30)
	h.Push(10, 15)

	check := func(at int64, want uint64) {
		t.Helper()
		got, _ := h.LookupAt(at)
		if got != want {
			t.Fatalf("LookupAt(%d) = %d, want %d", at, got, want)
		}
	}
	check(3, 10)
	check(7, 30)
	check(12, 15)
	if got, ok := h.LookupAt(0); ok || got != 0 {
		t.Fatalf("LookupAt(0) = (%d, %v), want (0, false)", got, ok)
	}
}

func TestHistoryPeekAndLen(t *testing.T) {
	var h History
	if h.Peek() != 0 || h.Len() != 0 {
		t.Fatalf("empty history: Peek=%d Len=%d, want 0, 0", h.Peek(), h.Len())
	}
	h.Push(1, 5)
	h.Push(2, 9)
	if h.Peek() != 9 {
		t.Fatalf("Peek() = %d, want 9", h.Peek())
	}
	if h.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", h.Len())
	}
}

func TestHistorySameTimestampLastWins(t *testing.T) {
	var h History
	h.Push(5, 10)
	h.Push(5, 20)
	got, ok := h.LookupAt(5)
	if !ok || got != 20 {
		t.Fatalf("LookupAt(5) = (%d, %v), want (20, true)", got, ok)
	}
}
