package core

import (
	"context"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ClaimTokenInfo is the display metadata of a claim token.
type ClaimTokenInfo struct {
	Name string
}

// IssueEntry, RevokeEntry are one line of a batched claim-ledger call.
type IssueEntry struct {
	To Principal
}

type RevokeEntry struct {
	From Principal
}

// ClaimToken is the boolean-membership token actor (spec §4.2). Unlike
// FungibleToken its balances are booleans and total supply counts true
// entries.
type ClaimToken struct {
	mu          sync.Mutex
	self        Principal
	claims      map[Principal]bool
	totalSupply uint64
	info        ClaimTokenInfo
	controllers Controllers
	listeners   *OnMoveListenersInfo
	caller      RemoteCaller
	log         *zap.SugaredLogger
}

// NewClaimToken constructs a claim ledger. self is the canister identity this
// ledger reports as the emitter of its move events.
func NewClaimToken(self Principal, info ClaimTokenInfo, controllers Controllers, caller RemoteCaller) *ClaimToken {
	return &ClaimToken{
		self:        self,
		claims:      make(map[Principal]bool),
		info:        info,
		controllers: controllers,
		listeners:   NewOnMoveListenersInfo(),
		caller:      caller,
		log:         zap.L().Sugar(),
	}
}

// HasClaim reports whether holder currently holds a claim.
func (t *ClaimToken) HasClaim(holder Principal) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.claims[holder]
}

// TotalSupply returns the number of accounts currently holding a claim.
func (t *ClaimToken) TotalSupply() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.totalSupply
}

// Info returns the ledger's display metadata.
func (t *ClaimToken) Info() ClaimTokenInfo {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.info
}

// Issue grants a claim to each entry's recipient that doesn't already hold
// one. A recipient who already holds a claim fails that entry with
// AlreadyHasClaim without affecting the others.
func (t *ClaimToken) Issue(ctx context.Context, caller Principal, entries []IssueEntry) []error {
	results := make([]error, len(entries))

	t.mu.Lock()
	if err := checkControlledOp(t.controllers.Issue, caller); err != nil {
		t.mu.Unlock()
		for i := range results {
			results[i] = err
		}
		return results
	}

	events := make([]TokenMoveEvent, 0, len(entries))
	for i, e := range entries {
		if t.claims[e.To] {
			results[i] = ErrAlreadyHasClaim
			continue
		}
		t.claims[e.To] = true
		t.totalSupply++
		events = append(events, TokenMoveEvent{From: NoAccount, To: Some(e.To), Qty: 1})
	}
	t.mu.Unlock()

	t.dispatchAll(ctx, events)
	return results
}

// Revoke removes the claim from each entry's holder. A holder who does not
// currently hold a claim (including a double-revoke) fails that entry with
// DoesNotHaveClaimYet rather than underflowing total supply.
func (t *ClaimToken) Revoke(ctx context.Context, caller Principal, entries []RevokeEntry) []error {
	results := make([]error, len(entries))

	t.mu.Lock()
	if err := checkControlledOp(t.controllers.Revoke, caller); err != nil {
		t.mu.Unlock()
		for i := range results {
			results[i] = err
		}
		return results
	}

	events := make([]TokenMoveEvent, 0, len(entries))
	for i, e := range entries {
		if !t.claims[e.From] {
			results[i] = ErrDoesNotHaveClaimYet
			continue
		}
		t.claims[e.From] = false
		t.totalSupply--
		events = append(events, TokenMoveEvent{From: Some(e.From), To: NoAccount, Qty: 1})
	}
	t.mu.Unlock()

	t.dispatchAll(ctx, events)
	return results
}

// SubscribeOnMove registers a listener, gated by the on-move controller.
func (t *ClaimToken) SubscribeOnMove(caller Principal, l OnMoveListener) (uint64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := checkControlledOp(t.controllers.OnMove, caller); err != nil {
		return 0, err
	}
	return t.listeners.AddListener(l), nil
}

// UnsubscribeOnMove removes a listener, gated by the on-move controller.
func (t *ClaimToken) UnsubscribeOnMove(caller Principal, id uint64) (OnMoveListener, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := checkControlledOp(t.controllers.OnMove, caller); err != nil {
		return OnMoveListener{}, err
	}
	return t.listeners.RemoveListener(id)
}

// UpdateInfo replaces the ledger's display metadata, gated by the info
// controller.
func (t *ClaimToken) UpdateInfo(caller Principal, newInfo ClaimTokenInfo) (ClaimTokenInfo, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := checkControlledOp(t.controllers.Info, caller); err != nil {
		return ClaimTokenInfo{}, err
	}
	old := t.info
	t.info = newInfo
	return old, nil
}

// UpdateIssueController replaces the issue controller, gated by itself.
func (t *ClaimToken) UpdateIssueController(caller Principal, newController Account) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := checkControlledOp(t.controllers.Issue, caller); err != nil {
		return err
	}
	t.controllers.Issue = newController
	return nil
}

// UpdateRevokeController replaces the revoke controller, gated by itself.
func (t *ClaimToken) UpdateRevokeController(caller Principal, newController Account) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := checkControlledOp(t.controllers.Revoke, caller); err != nil {
		return err
	}
	t.controllers.Revoke = newController
	return nil
}

// UpdateOnMoveController replaces the on-move controller, gated by itself.
func (t *ClaimToken) UpdateOnMoveController(caller Principal, newController Account) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := checkControlledOp(t.controllers.OnMove, caller); err != nil {
		return err
	}
	t.controllers.OnMove = newController
	return nil
}

// UpdateInfoController replaces the info controller, gated by itself.
func (t *ClaimToken) UpdateInfoController(caller Principal, newController Account) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := checkControlledOp(t.controllers.Info, caller); err != nil {
		return err
	}
	t.controllers.Info = newController
	return nil
}

func (t *ClaimToken) dispatchAll(ctx context.Context, events []TokenMoveEvent) {
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
