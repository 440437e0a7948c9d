package core

import (
	"context"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Controllers names the principals (or None) gating a token ledger's
// mutating operations: Mint, OnMove and Info for every ledger, plus Issue
// and Revoke for claim ledgers.
type Controllers struct {
	Mint    Account
	OnMove  Account
	Info    Account
	Issue   Account // claim ledgers only
	Revoke  Account // claim ledgers only
}

// SingleController returns a Controllers with every field set to the same
// account, mirroring the source's Controllers::single constructor.
func SingleController(c Account) Controllers {
	return Controllers{Mint: c, OnMove: c, Info: c, Issue: c, Revoke: c}
}

// FungibleTokenInfo is the display metadata of a fungible token.
type FungibleTokenInfo struct {
	Name     string
	Symbol   string
	Decimals uint8
}

// MintEntry, SendEntry, BurnEntry are one line of a batched ledger call.
type MintEntry struct {
	To  Principal
	Qty uint64
}

type SendEntry struct {
	From Principal
	To   Principal
	Qty  uint64
}

type BurnEntry struct {
	From Principal
	Qty  uint64
}

// FungibleToken is the balances/mint/send/burn actor (spec §4.2). All
// mutating methods take the caller's Principal explicitly: the transport
// layer is responsible for authenticating it before the call reaches here.
type FungibleToken struct {
	mu          sync.Mutex
	self        Principal
	balances    map[Principal]uint64
	totalSupply uint64
	info        FungibleTokenInfo
	controllers Controllers
	listeners   *OnMoveListenersInfo
	caller      RemoteCaller
	log         *zap.SugaredLogger
}

// NewFungibleToken constructs a token ledger. self is the canister identity
// this ledger reports as the emitter of its move events. caller is used to
// dispatch move events to subscribed listeners; it may be nil in tests that
// don't exercise fan-out.
func NewFungibleToken(self Principal, info FungibleTokenInfo, controllers Controllers, caller RemoteCaller) *FungibleToken {
	return &FungibleToken{
		self:        self,
		balances:    make(map[Principal]uint64),
		info:        info,
		controllers: controllers,
		listeners:   NewOnMoveListenersInfo(),
		caller:      caller,
		log:         zap.L().Sugar(),
	}
}

func checkControlledOp(controller Account, caller Principal) error {
	p, ok := controller.Principal()
	if !ok {
		return ErrForbiddenOperation
	}
	if p != caller {
		return ErrAccessDenied
	}
	return nil
}

// BalanceOf returns p's current balance, or 0 if never credited.
func (t *FungibleToken) BalanceOf(p Principal) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.balances[p]
}

// TotalSupply returns the ledger's current total supply.
func (t *FungibleToken) TotalSupply() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.totalSupply
}

// Info returns the ledger's display metadata.
func (t *FungibleToken) Info() FungibleTokenInfo {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.info
}

// Mint credits each entry's recipient, incrementing total supply, and
// dispatches a move event per successful entry. Failures in one entry do not
// abort the others; the returned slice is parallel to entries.
func (t *FungibleToken) Mint(ctx context.Context, caller Principal, entries []MintEntry) []error {
	results := make([]error, len(entries))

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
		t.balances[e.To] += e.Qty
		t.totalSupply += e.Qty
		events = append(events, TokenMoveEvent{From: NoAccount, To: Some(e.To), Qty: e.Qty})
	}
	t.mu.Unlock()

	t.dispatchAll(ctx, events)
	return results
}

// Send moves qty from from to to for each entry, independently validated.
// caller must equal entry.From: a fungible token's owner is the only
// principal who may move its balance.
func (t *FungibleToken) Send(ctx context.Context, caller Principal, entries []SendEntry) []error {
	results := make([]error, len(entries))
	events := make([]TokenMoveEvent, 0, len(entries))

	t.mu.Lock()
	for i, e := range entries {
		if e.From != caller {
			results[i] = ErrAccessDenied
			continue
		}
		if t.balances[e.From] < e.Qty {
			results[i] = ErrInsufficientBalance
			continue
		}
		t.balances[e.From] -= e.Qty
		t.balances[e.To] += e.Qty
		events = append(events, TokenMoveEvent{From: Some(e.From), To: Some(e.To), Qty: e.Qty})
	}
	t.mu.Unlock()

	t.dispatchAll(ctx, events)
	return results
}

// Burn destroys qty from from's balance for each entry, independently
// validated. caller must equal entry.From: only the owner of a balance may
// burn it.
func (t *FungibleToken) Burn(ctx context.Context, caller Principal, entries []BurnEntry) []error {
	results := make([]error, len(entries))
	events := make([]TokenMoveEvent, 0, len(entries))

	t.mu.Lock()
	for i, e := range entries {
		if e.From != caller {
			results[i] = ErrAccessDenied
			continue
		}
		if t.balances[e.From] < e.Qty {
			results[i] = ErrInsufficientBalance
			continue
		}
		t.balances[e.From] -= e.Qty
		t.totalSupply -= e.Qty
		events = append(events, TokenMoveEvent{From: Some(e.From), To: NoAccount, Qty: e.Qty})
	}
	t.mu.Unlock()

	t.dispatchAll(ctx, events)
	return results
}

// SubscribeOnMove registers a listener, gated by the on-move controller.
func (t *FungibleToken) SubscribeOnMove(caller Principal, l OnMoveListener) (uint64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := checkControlledOp(t.controllers.OnMove, caller); err != nil {
		return 0, err
	}
	return t.listeners.AddListener(l), nil
}

// UnsubscribeOnMove removes a listener, gated by the on-move controller.
func (t *FungibleToken) UnsubscribeOnMove(caller Principal, id uint64) (OnMoveListener, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := checkControlledOp(t.controllers.OnMove, caller); err != nil {
		return OnMoveListener{}, err
	}
	return t.listeners.RemoveListener(id)
}

// UpdateInfo replaces the ledger's display metadata, gated by the info
// controller, and returns the old metadata.
func (t *FungibleToken) UpdateInfo(caller Principal, newInfo FungibleTokenInfo) (FungibleTokenInfo, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := checkControlledOp(t.controllers.Info, caller); err != nil {
		return FungibleTokenInfo{}, err
	}
	old := t.info
	t.info = newInfo
	return old, nil
}

// UpdateMintController replaces the mint controller, gated by itself.
func (t *FungibleToken) UpdateMintController(caller Principal, newController Account) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := checkControlledOp(t.controllers.Mint, caller); err != nil {
		return err
	}
	t.controllers.Mint = newController
	return nil
}

// UpdateOnMoveController replaces the on-move controller, gated by itself.
func (t *FungibleToken) UpdateOnMoveController(caller Principal, newController Account) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := checkControlledOp(t.controllers.OnMove, caller); err != nil {
		return err
	}
	t.controllers.OnMove = newController
	return nil
}

// UpdateInfoController replaces the info controller, gated by itself.
func (t *FungibleToken) UpdateInfoController(caller Principal, newController Account) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := checkControlledOp(t.controllers.Info, caller); err != nil {
		return err
	}
	t.controllers.Info = newController
	return nil
}

// dispatchAll resolves matching listeners for each event and fans the calls
// out in parallel; per-listener failures are logged and aggregated, never
// returned to the mutation's caller (spec §4.2 "listener-side failures are
// swallowed").
func (t *FungibleToken) dispatchAll(ctx context.Context, events []TokenMoveEvent) {
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
