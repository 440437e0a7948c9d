package core

import (
	"context"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// SharesTokenInfo is the display metadata of a shares token.
type SharesTokenInfo struct {
	Name   string
	Symbol string
}

// SharesToken is the time-indexed balance history ledger (spec §4.3): every
// mutation appends a new (timestamp, balance) entry rather than overwriting
// a single current value, so past balances remain queryable.
type SharesToken struct {
	mu          sync.Mutex
	self        Principal
	balances    map[Principal]*History
	totalSupply History
	info        SharesTokenInfo
	controllers Controllers
	listeners   *OnMoveListenersInfo
	caller      RemoteCaller
	log         *zap.SugaredLogger
}

// NewSharesToken constructs a shares ledger. self is the canister identity
// this ledger reports as the emitter of its move events.
func NewSharesToken(self Principal, info SharesTokenInfo, controllers Controllers, caller RemoteCaller) *SharesToken {
	return &SharesToken{
		self:        self,
		balances:    make(map[Principal]*History),
		info:        info,
		controllers: controllers,
		listeners:   NewOnMoveListenersInfo(),
		caller:      caller,
		log:         zap.L().Sugar(),
	}
}

func (t *SharesToken) historyFor(p Principal) *History {
	h, ok := t.balances[p]
	if !ok {
		h = &History{}
		t.balances[p] = h
	}
	return h
}

// BalanceOfAt returns the balance in effect for p at timestamp t (spec
// §4.3 balance_of_at).
func (t *SharesToken) BalanceOfAt(p Principal, ts int64) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	h, ok := t.balances[p]
	if !ok {
		return 0
	}
	bal, _ := h.LookupAt(ts)
	return bal
}

// TotalSupplyAt returns the ledger's total supply in effect at timestamp t.
func (t *SharesToken) TotalSupplyAt(ts int64) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	bal, _ := t.totalSupply.LookupAt(ts)
	return bal
}

// Mint credits each entry's recipient as of now, appending a new history
// entry for both the recipient and the total supply.
func (t *SharesToken) Mint(ctx context.Context, caller Principal, entries []MintEntry) []error {
	results := make([]error, len(entries))
	now := time.Now().UnixNano()

	t.mu.Lock()
	if err := checkControlledOp(t.controllers.Mint, caller); err != nil {
		t.mu.Unlock()
		for i := range results {
			results[i] = err
		}
		return results
	}

	events := make([]TokenMoveEvent, 0, len(entries))
	for _, e := range entries {
		h := t.historyFor(e.To)
		h.Push(now, h.Peek()+e.Qty)
		t.totalSupply.Push(now, t.totalSupply.Peek()+e.Qty)
		events = append(events, TokenMoveEvent{From: NoAccount, To: Some(e.To), Qty: e.Qty})
	}
	t.mu.Unlock()

	t.dispatchAll(ctx, events)
	return results
}

// Send moves qty from from to to as of now for each entry. caller must equal
// entry.From: a shares token's owner is the only principal who may move its
// balance.
func (t *SharesToken) Send(ctx context.Context, caller Principal, entries []SendEntry) []error {
	results := make([]error, len(entries))
	now := time.Now().UnixNano()
	events := make([]TokenMoveEvent, 0, len(entries))

	t.mu.Lock()
	for i, e := range entries {
		if e.From != caller {
			results[i] = ErrAccessDenied
			continue
		}
		from := t.historyFor(e.From)
		to := t.historyFor(e.To)
		if from.Peek() < e.Qty {
			results[i] = ErrInsufficientBalance
			continue
		}
		from.Push(now, from.Peek()-e.Qty)
		to.Push(now, to.Peek()+e.Qty)
		events = append(events, TokenMoveEvent{From: Some(e.From), To: Some(e.To), Qty: e.Qty})
	}
	t.mu.Unlock()

	t.dispatchAll(ctx, events)
	return results
}

// Burn destroys qty from from's balance as of now for each entry. caller
// must equal entry.From: only the owner of a balance may burn it.
func (t *SharesToken) Burn(ctx context.Context, caller Principal, entries []BurnEntry) []error {
	results := make([]error, len(entries))
	now := time.Now().UnixNano()
	events := make([]TokenMoveEvent, 0, len(entries))

	t.mu.Lock()
	for i, e := range entries {
		if e.From != caller {
			results[i] = ErrAccessDenied
			continue
		}
		h := t.historyFor(e.From)
		if h.Peek() < e.Qty {
			results[i] = ErrInsufficientBalance
			continue
		}
		h.Push(now, h.Peek()-e.Qty)
		t.totalSupply.Push(now, t.totalSupply.Peek()-e.Qty)
		events = append(events, TokenMoveEvent{From: Some(e.From), To: NoAccount, Qty: e.Qty})
	}
	t.mu.Unlock()

	t.dispatchAll(ctx, events)
	return results
}

// SubscribeOnMove registers a listener, gated by the on-move controller.
func (t *SharesToken) SubscribeOnMove(caller Principal, l OnMoveListener) (uint64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := checkControlledOp(t.controllers.OnMove, caller); err != nil {
		return 0, err
	}
	return t.listeners.AddListener(l), nil
}

// UnsubscribeOnMove removes a listener, gated by the on-move controller.
func (t *SharesToken) UnsubscribeOnMove(caller Principal, id uint64) (OnMoveListener, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := checkControlledOp(t.controllers.OnMove, caller); err != nil {
		return OnMoveListener{}, err
	}
	return t.listeners.RemoveListener(id)
}

// Info returns the ledger's display metadata.
func (t *SharesToken) Info() SharesTokenInfo {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.info
}

func (t *SharesToken) dispatchAll(ctx context.Context, events []TokenMoveEvent) {
	if t.caller == nil || len(events) == 0 {
		return
	}

	t.mu.Lock()
	type dispatch struct {
		endpoint     RemoteCallEndpoint
		notification MoveNotification
	}
	var dispatches []dispatch
	for _, ev := range events {
		for _, l := range t.listeners.GetMatchingListeners(ev) {
			dispatches = append(dispatches, dispatch{endpoint: l.Endpoint, notification: MoveNotification{Emitter: t.self, Event: ev}})
		}
	}
	t.mu.Unlock()

	if len(dispatches) == 0 {
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	var mu sync.Mutex
	var errs error
	for _, d := range dispatches {
		d := d
		g.Go(func() error {
			if _, err := t.caller.Call(gctx, d.endpoint, d.notification); err != nil {
				mu.Lock()
				errs = multierr.Append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	if errs != nil {
		t.log.Warnw("move event listener dispatch had failures", "endpoints", len(dispatches), "errors", errs)
	}
}
