package core

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Sentinel errors specific to the voting manager (spec §4.4, §7).
var (
	ErrVotingAlreadyFinished   = errors.New("voting already finished")
	ErrVotingIsNotYetFinished  = errors.New("voting is not yet finished")
	ErrVotingAlreadyStarted    = errors.New("voting already started")
	ErrVotingIsRejected        = errors.New("voting is rejected")
	ErrVotingThresholdNotPassed = errors.New("voting threshold not passed")
	ErrVotingAlreadyExecuted   = errors.New("voting already executed")
	ErrCallerIsNotCreator      = errors.New("caller is not the proposal creator")
	ErrVotingDoesNotExist      = errors.New("voting does not exist")
	ErrVotingConfigDoesNotExist = errors.New("voting config does not exist")
	ErrPolicyRejected          = errors.New("voting config policy rejected the operation")
)

// VotingStatus is the proposal state machine (spec §3, §4.4).
type VotingStatus int

const (
	StatusProposal VotingStatus = iota
	StatusApproved
	StatusRejected
	StatusFinished // reserved; no transition produces it (spec §9 open question)
	StatusExecuted
)

// VoteChoice is a ballot cast against a Voting.
type VoteChoice int

const (
	VoteFor VoteChoice = iota
	VoteAgainst
	VoteAbstain
)

// VotingId identifies a Voting within its owning wallet's proposal list.
type VotingId struct {
	UnionWallet Principal
	Idx         int
}

// Voting is a single governance proposal: its thresholds, payload, and
// running vote tally.
type Voting struct {
	CreatedAt int64
	UpdatedAt int64

	Approval  float64
	Rejection float64
	Quorum    float64
	Consensus float64
	Duration  *int64

	Title         string
	Description   string
	Payload       []RemoteCallPayload
	ExecuteResult []RemoteCallResult

	UnionWallet Principal
	Proposer    Principal
	Status      VotingStatus

	// VotersFor/VotersAgainst store the voting power recorded *at vote
	// time*; a repeat vote subtracts this recorded value, never the
	// caller-supplied current value (spec §9 open question — the
	// source's "subtract current vote_vp" bug is not reproduced).
	VotersFor          map[Principal]uint64
	VotingPowerFor      uint64
	VotersAgainst      map[Principal]uint64
	VotingPowerAgainst uint64
}

// NewVotingParams constructs a Voting.
type NewVotingParams struct {
	UnionWallet Principal
	Approval    float64
	Rejection   float64
	Quorum      float64
	Consensus   float64
	Duration    *int64
	Title       string
	Description string
	Payload     []RemoteCallPayload
}

// UpdateVotingParams patches a Voting still in Proposal status; nil fields
// are left unchanged (DurationSet distinguishes "leave alone" from
// "clear the duration").
type UpdateVotingParams struct {
	UnionWallet  *Principal
	Approval     *float64
	Rejection    *float64
	Quorum       *float64
	Consensus    *float64
	DurationSet  bool
	Duration     *int64
	Title        *string
	Description  *string
	Payload      []RemoteCallPayload
}

func newVoting(proposer Principal, timestamp int64, params NewVotingParams) *Voting {
	return &Voting{
		CreatedAt:   timestamp,
		UpdatedAt:   timestamp,
		Approval:    params.Approval,
		Rejection:   params.Rejection,
		Quorum:      params.Quorum,
		Consensus:   params.Consensus,
		Duration:    params.Duration,
		Title:       params.Title,
		Description: params.Description,
		Payload:     params.Payload,
		UnionWallet: params.UnionWallet,
		Proposer:    proposer,
		Status:      StatusProposal,
		VotersFor:     make(map[Principal]uint64),
		VotersAgainst: make(map[Principal]uint64),
	}
}

func (v *Voting) removePrevVote(voter Principal) {
	if w, ok := v.VotersFor[voter]; ok {
		delete(v.VotersFor, voter)
		v.VotingPowerFor -= w
		return
	}
	if w, ok := v.VotersAgainst[voter]; ok {
		delete(v.VotersAgainst, voter)
		v.VotingPowerAgainst -= w
	}
}

// castVote applies one ballot, re-evaluating status when still a Proposal.
func (v *Voting) castVote(voter Principal, voteVP, totalVP uint64, choice VoteChoice, timestamp int64) error {
	if v.Duration != nil && v.UpdatedAt+*v.Duration < timestamp {
		return ErrVotingAlreadyFinished
	}
	if v.Status == StatusRejected {
		return ErrVotingIsRejected
	}
	if v.Status == StatusExecuted {
		return ErrVotingAlreadyExecuted
	}

	v.removePrevVote(voter)

	switch choice {
	case VoteAbstain:
	case VoteFor:
		v.VotingPowerFor += voteVP
		v.VotersFor[voter] = voteVP
	case VoteAgainst:
		v.VotingPowerAgainst += voteVP
		v.VotersAgainst[voter] = voteVP
	}

	if v.Status == StatusProposal {
		if IsPassingThreshold(v.VotingPowerAgainst, totalVP, v.Rejection) {
			v.Status = StatusRejected
		}
		if IsPassingThreshold(v.VotingPowerFor, totalVP, v.Approval) {
			v.Status = StatusApproved
		}
	}

	return nil
}

// prepareExecute checks every execute precondition and, if they all pass,
// transitions the voting to Executed. Marking the transition here (rather
// than after dispatch) is what makes a concurrent second execute fail safely
// (spec §5 re-entrancy discipline).
func (v *Voting) prepareExecute(timestamp int64) error {
	if v.Duration != nil && v.UpdatedAt+*v.Duration >= timestamp {
		return ErrVotingIsNotYetFinished
	}
	if v.Status == StatusProposal {
		return ErrVotingThresholdNotPassed
	}
	if v.Status == StatusExecuted {
		return ErrVotingAlreadyExecuted
	}
	if v.Status == StatusRejected {
		return ErrVotingIsRejected
	}
	v.Status = StatusExecuted
	return nil
}

func (v *Voting) update(caller Principal, params UpdateVotingParams, timestamp int64) error {
	if v.Status != StatusProposal {
		return ErrVotingAlreadyStarted
	}
	if caller != v.Proposer {
		return ErrCallerIsNotCreator
	}

	if params.UnionWallet != nil {
		v.UnionWallet = *params.UnionWallet
	}
	if params.Approval != nil {
		v.Approval = *params.Approval
	}
	if params.Rejection != nil {
		v.Rejection = *params.Rejection
	}
	if params.Quorum != nil {
		v.Quorum = *params.Quorum
	}
	if params.Consensus != nil {
		v.Consensus = *params.Consensus
	}
	if params.DurationSet {
		v.Duration = params.Duration
	}
	if params.Title != nil {
		v.Title = *params.Title
	}
	if params.Description != nil {
		v.Description = *params.Description
	}
	if params.Payload != nil {
		v.Payload = params.Payload
	}

	v.UpdatedAt = timestamp
	return nil
}

// ACLKind enumerates who a policy clause admits.
type ACLKind int

const (
	ACLAny ACLKind = iota
	ACLMember
	ACLCreatorList
	ACLExact
)

// ACL gates a single operation (create/update/vote/delete/execute) on an
// endpoint policy.
type ACL struct {
	Kind       ACLKind
	Principals map[Principal]bool
}

// Allows reports whether caller passes this ACL, given whether caller is a
// recognized member of the governed wallet.
func (a ACL) Allows(caller Principal, isMember bool) bool {
	switch a.Kind {
	case ACLAny:
		return true
	case ACLMember:
		return isMember
	case ACLCreatorList, ACLExact:
		return a.Principals[caller]
	default:
		return false
	}
}

// EndpointPolicy constrains proposals whose payload targets a given
// endpoint (or the wallet's default, when no custom entry exists).
type EndpointPolicy struct {
	Approval  Interval[float64]
	Rejection Interval[float64]
	Quorum    Interval[float64]
	Consensus Interval[float64]
	Duration  *Interval[int64]

	CanVote    ACL
	CanCreate  ACL
	CanUpdate  ACL
	CanDelete  ACL
	CanExecute ACL
}

// VotingConfigTypeKind selects how a wallet's raw endpoint allow/deny list
// is interpreted.
type VotingConfigTypeKind int

const (
	ConfigTypeNone VotingConfigTypeKind = iota
	ConfigTypeWhitelist
	ConfigTypeBlacklist
)

// VotingConfigType is the raw endpoint allow/deny list consulted by
// is_allowed_to_create in addition to EndpointPolicy (spec §4.4). It
// defaults to ConfigTypeNone (no list) until a wallet explicitly sets one
// (original_source's sibling modules default this way; see SPEC_FULL.md
// SUPPLEMENTED FEATURES).
type VotingConfigType struct {
	Kind      VotingConfigTypeKind
	Endpoints map[RemoteCallEndpoint]bool
}

// Admits reports whether endpoint may appear in a new voting's payload.
func (t VotingConfigType) Admits(e RemoteCallEndpoint) bool {
	switch t.Kind {
	case ConfigTypeWhitelist:
		return t.Endpoints[e]
	case ConfigTypeBlacklist:
		return !t.Endpoints[e]
	default:
		return true
	}
}

// VotingConfig is a wallet's per-endpoint policy set.
type VotingConfig struct {
	Default EndpointPolicy
	Custom  map[RemoteCallEndpoint]EndpointPolicy
}

func (c VotingConfig) policyFor(e RemoteCallEndpoint) EndpointPolicy {
	if p, ok := c.Custom[e]; ok {
		return p
	}
	return c.Default
}

func (c VotingConfig) isAllowedToCreate(params NewVotingParams, configType VotingConfigType, proposer Principal, isMember bool) bool {
	for _, entry := range params.Payload {
		if !configType.Admits(entry.Endpoint) {
			return false
		}
		p := c.policyFor(entry.Endpoint)
		if !p.Approval.Contains(params.Approval) || !p.Rejection.Contains(params.Rejection) ||
			!p.Quorum.Contains(params.Quorum) || !p.Consensus.Contains(params.Consensus) {
			return false
		}
		if p.Duration != nil {
			if params.Duration == nil || !p.Duration.Contains(*params.Duration) {
				return false
			}
		}
		if !p.CanCreate.Allows(proposer, isMember) {
			return false
		}
	}
	return true
}

func (c VotingConfig) isAllowedToUpdate(payload []RemoteCallPayload, params UpdateVotingParams, caller Principal, isMember bool) bool {
	for _, entry := range payload {
		p := c.policyFor(entry.Endpoint)
		if params.Approval != nil && !p.Approval.Contains(*params.Approval) {
			return false
		}
		if params.Rejection != nil && !p.Rejection.Contains(*params.Rejection) {
			return false
		}
		if params.Quorum != nil && !p.Quorum.Contains(*params.Quorum) {
			return false
		}
		if params.Consensus != nil && !p.Consensus.Contains(*params.Consensus) {
			return false
		}
		if p.Duration != nil && params.DurationSet && params.Duration != nil && !p.Duration.Contains(*params.Duration) {
			return false
		}
		if !p.CanUpdate.Allows(caller, isMember) {
			return false
		}
	}
	return true
}

func (c VotingConfig) isAllowedToVote(payload []RemoteCallPayload, voter Principal, isMember bool) bool {
	for _, entry := range payload {
		if !c.policyFor(entry.Endpoint).CanVote.Allows(voter, isMember) {
			return false
		}
	}
	return true
}

func (c VotingConfig) isAllowedToDelete(payload []RemoteCallPayload, caller Principal, isMember bool) bool {
	for _, entry := range payload {
		if !c.policyFor(entry.Endpoint).CanDelete.Allows(caller, isMember) {
			return false
		}
	}
	return true
}

func (c VotingConfig) isAllowedToExecute(payload []RemoteCallPayload, caller Principal, isMember bool) bool {
	for _, entry := range payload {
		if !c.policyFor(entry.Endpoint).CanExecute.Allows(caller, isMember) {
			return false
		}
	}
	return true
}

// VotingEventType distinguishes the four events a voting manager publishes
// (spec §4.4 Events).
type VotingEventType int

const (
	EventVotingCreated VotingEventType = iota
	EventVotingUpdated
	EventStatusChanged
	EventVotePlaced
)

const (
	methodVotingPowerOfAt      = "voting_power/voting_power_of_at"
	methodTotalVotingPowerOfAt = "voting_power/total_voting_power_at"
	methodUnionCall            = "wallet/_union_call"
)

// UnionCallPayload is what the voting manager hands the wallet executor on
// execute (spec §4.4/§4.5 handoff).
type UnionCallPayload struct {
	Program  []RemoteCallPayload
	VotingID VotingId
}

// VotingManager owns every wallet's proposal list, policy configuration, and
// membership-guard/event-listener registrations (spec §3, §4.4).
type VotingManager struct {
	mu sync.Mutex

	votings           map[Principal][]*Voting
	votingConfigs     map[Principal]Controlled[VotingConfig]
	votingConfigTypes map[Principal]Controlled[VotingConfigType]
	membershipGuards  map[Principal]Controlled[Account]
	eventListeners    map[VotingEventType]map[RemoteCallEndpoint]bool

	caller RemoteCaller
	log    *zap.SugaredLogger
}

// NewVotingManager constructs an empty voting manager.
func NewVotingManager(caller RemoteCaller) *VotingManager {
	return &VotingManager{
		votings:           make(map[Principal][]*Voting),
		votingConfigs:     make(map[Principal]Controlled[VotingConfig]),
		votingConfigTypes: make(map[Principal]Controlled[VotingConfigType]),
		membershipGuards:  make(map[Principal]Controlled[Account]),
		eventListeners:    make(map[VotingEventType]map[RemoteCallEndpoint]bool),
		caller:            caller,
		log:               zap.L().Sugar(),
	}
}

// SetVotingConfig installs wallet's policy set, gated by the existing
// config's controller. When wallet has no config yet, any caller may
// install one; controller then gates every later call for that wallet.
func (m *VotingManager) SetVotingConfig(caller Principal, wallet Principal, cfg VotingConfig, controller Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.votingConfigs[wallet]; ok {
		if !existing.IsController(caller) {
			return ErrAccessDenied
		}
	}
	m.votingConfigs[wallet] = Controlled[VotingConfig]{Data: cfg, Controller: controller}
	return nil
}

// SetVotingConfigType installs wallet's raw endpoint allow/deny list,
// defaulting to ConfigTypeNone until set (SPEC_FULL.md SUPPLEMENTED
// FEATURES).
func (m *VotingManager) SetVotingConfigType(caller Principal, wallet Principal, t VotingConfigType, controller Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.votingConfigTypes[wallet]; ok {
		if !existing.IsController(caller) {
			return ErrAccessDenied
		}
	}
	m.votingConfigTypes[wallet] = Controlled[VotingConfigType]{Data: t, Controller: controller}
	return nil
}

// SetMembershipGuard registers the canister implementing IMembershipGuard
// for wallet.
func (m *VotingManager) SetMembershipGuard(caller Principal, wallet Principal, guard Account, controller Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.membershipGuards[wallet]; ok {
		if !existing.IsController(caller) {
			return ErrAccessDenied
		}
	}
	m.membershipGuards[wallet] = Controlled[Account]{Data: guard, Controller: controller}
	return nil
}

// RegisterEventListener subscribes endpoint to events of kind eventType.
func (m *VotingManager) RegisterEventListener(eventType VotingEventType, endpoint RemoteCallEndpoint) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.eventListeners[eventType] == nil {
		m.eventListeners[eventType] = make(map[RemoteCallEndpoint]bool)
	}
	m.eventListeners[eventType][endpoint] = true
}

func (m *VotingManager) configFor(wallet Principal) (VotingConfig, VotingConfigType, error) {
	cfg, ok := m.votingConfigs[wallet]
	if !ok {
		return VotingConfig{}, VotingConfigType{}, ErrVotingConfigDoesNotExist
	}
	ct := m.votingConfigTypes[wallet].Data // zero value is ConfigTypeNone
	return cfg.Data, ct, nil
}

// CreateVoting proposes a new Voting for wallet, subject to policy gating.
func (m *VotingManager) CreateVoting(ctx context.Context, caller Principal, params NewVotingParams, isMember bool) (VotingId, error) {
	now := time.Now().UnixNano()

	m.mu.Lock()
	cfg, configType, err := m.configFor(params.UnionWallet)
	if err != nil {
		m.mu.Unlock()
		return VotingId{}, err
	}
	if !cfg.isAllowedToCreate(params, configType, caller, isMember) {
		m.mu.Unlock()
		return VotingId{}, ErrPolicyRejected
	}

	v := newVoting(caller, now, params)
	m.votings[params.UnionWallet] = append(m.votings[params.UnionWallet], v)
	id := VotingId{UnionWallet: params.UnionWallet, Idx: len(m.votings[params.UnionWallet]) - 1}
	m.mu.Unlock()

	m.dispatchEvent(ctx, EventVotingCreated, id)
	return id, nil
}

func (m *VotingManager) getVoting(id VotingId) (*Voting, error) {
	list, ok := m.votings[id.UnionWallet]
	if !ok || id.Idx < 0 || id.Idx >= len(list) || list[id.Idx] == nil {
		return nil, ErrVotingDoesNotExist
	}
	return list[id.Idx], nil
}

// UpdateVoting patches an in-progress Voting, subject to policy gating and
// the proposer-only / Proposal-only checks in Voting.update.
func (m *VotingManager) UpdateVoting(ctx context.Context, caller Principal, id VotingId, params UpdateVotingParams, isMember bool) error {
	m.mu.Lock()
	v, err := m.getVoting(id)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	cfg, _, err := m.configFor(id.UnionWallet)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	if !cfg.isAllowedToUpdate(v.Payload, params, caller, isMember) {
		m.mu.Unlock()
		return ErrPolicyRejected
	}
	err = v.update(caller, params, time.Now().UnixNano())
	m.mu.Unlock()
	if err != nil {
		return err
	}

	m.dispatchEvent(ctx, EventVotingUpdated, id)
	return nil
}

// DeleteVoting removes a Voting from wallet's list, subject to policy
// gating. The slot is cleared rather than spliced out so that other
// VotingIds in the same wallet keep referring to their original proposal.
func (m *VotingManager) DeleteVoting(caller Principal, id VotingId, isMember bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, err := m.getVoting(id)
	if err != nil {
		return err
	}
	cfg, _, err := m.configFor(id.UnionWallet)
	if err != nil {
		return err
	}
	if !cfg.isAllowedToDelete(v.Payload, caller, isMember) {
		return ErrPolicyRejected
	}
	m.votings[id.UnionWallet][id.Idx] = nil
	return nil
}

// Vote casts voter's ballot on id, fetching voting power from the wallet's
// registered membership guard as of the voting's creation timestamp.
func (m *VotingManager) Vote(ctx context.Context, id VotingId, voter Principal, choice VoteChoice, isMember bool) error {
	m.mu.Lock()
	v, err := m.getVoting(id)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	cfg, _, err := m.configFor(id.UnionWallet)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	if !cfg.isAllowedToVote(v.Payload, voter, isMember) {
		m.mu.Unlock()
		return ErrPolicyRejected
	}
	guard, ok := m.membershipGuards[id.UnionWallet]
	m.mu.Unlock()
	if !ok {
		return ErrEmitterNotRegistered
	}

	guardCanister, hasGuard := guard.Data.Principal()
	if !hasGuard {
		return ErrEmitterNotRegistered
	}

	voteVP, err := m.queryVotingPower(ctx, guardCanister, voter, v.CreatedAt)
	if err != nil {
		return err
	}
	totalVP, err := m.queryTotalVotingPower(ctx, guardCanister, v.CreatedAt)
	if err != nil {
		return err
	}

	now := time.Now().UnixNano()
	m.mu.Lock()
	prevStatus := v.Status
	voteErr := v.castVote(voter, voteVP, totalVP, choice, now)
	newStatus := v.Status
	m.mu.Unlock()
	if voteErr != nil {
		return voteErr
	}

	m.dispatchEvent(ctx, EventVotePlaced, id)
	if newStatus != prevStatus {
		m.dispatchEvent(ctx, EventStatusChanged, id)
	}
	return nil
}

// Execute runs id's approved program through the wallet executor.
func (m *VotingManager) Execute(ctx context.Context, caller Principal, id VotingId, isMember bool) error {
	m.mu.Lock()
	v, err := m.getVoting(id)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	cfg, _, err := m.configFor(id.UnionWallet)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	if !cfg.isAllowedToExecute(v.Payload, caller, isMember) {
		m.mu.Unlock()
		return ErrPolicyRejected
	}
	if err := v.prepareExecute(time.Now().UnixNano()); err != nil {
		m.mu.Unlock()
		return err
	}
	wallet := v.UnionWallet
	program := v.Payload
	m.mu.Unlock()

	endpoint := RemoteCallEndpoint{CanisterID: wallet, MethodName: methodUnionCall}
	raw, callErr := m.caller.Call(ctx, endpoint, UnionCallPayload{Program: program, VotingID: id})

	m.mu.Lock()
	if callErr == nil {
		var results []RemoteCallResult
		if err := cbor.Unmarshal(raw, &results); err == nil {
			v.ExecuteResult = results
		} else {
			m.log.Errorw("failed to decode wallet execute result", "voting", id, "error", err)
		}
	} else {
		m.log.Errorw("wallet execute dispatch failed", "voting", id, "error", callErr)
	}
	m.mu.Unlock()

	m.dispatchEvent(ctx, EventStatusChanged, id)
	return nil
}

// The registered membership guard principal doubles as the emitter identity
// passed to the voting-power ledger: a wallet's guard names which token
// ledger's history backs its votes (spec glossary IMembershipGuard).
func (m *VotingManager) queryVotingPower(ctx context.Context, guard Principal, account Principal, t int64) (uint64, error) {
	endpoint := RemoteCallEndpoint{CanisterID: guard, MethodName: methodVotingPowerOfAt}
	raw, err := m.caller.Call(ctx, endpoint, struct {
		Emitter   Principal
		Account   Principal
		Timestamp int64
	}{Emitter: guard, Account: account, Timestamp: t})
	if err != nil {
		return 0, err
	}
	var power uint64
	if err := cbor.Unmarshal(raw, &power); err != nil {
		return 0, err
	}
	return power, nil
}

func (m *VotingManager) queryTotalVotingPower(ctx context.Context, guard Principal, t int64) (uint64, error) {
	endpoint := RemoteCallEndpoint{CanisterID: guard, MethodName: methodTotalVotingPowerOfAt}
	raw, err := m.caller.Call(ctx, endpoint, struct {
		Emitter   Principal
		Timestamp int64
	}{Emitter: guard, Timestamp: t})
	if err != nil {
		return 0, err
	}
	var power uint64
	if err := cbor.Unmarshal(raw, &power); err != nil {
		return 0, err
	}
	return power, nil
}

// dispatchEvent fans id out to every listener of eventType, in parallel,
// fire-and-forget (spec §4.4 Events).
func (m *VotingManager) dispatchEvent(ctx context.Context, eventType VotingEventType, id VotingId) {
	if m.caller == nil {
		return
	}
	m.mu.Lock()
	listeners := m.eventListeners[eventType]
	endpoints := make([]RemoteCallEndpoint, 0, len(listeners))
	for e := range listeners {
		endpoints = append(endpoints, e)
	}
	m.mu.Unlock()
	if len(endpoints) == 0 {
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, e := range endpoints {
		e := e
		g.Go(func() error {
			if _, err := m.caller.Call(gctx, e, id); err != nil {
				m.log.Warnw("event listener dispatch failed", "event", eventType, "endpoint", e, "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()
}

// Votings returns the current (possibly-nil-padded) proposal list for
// wallet, for query-side snapshotting.
func (m *VotingManager) Votings(wallet Principal) []*Voting {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Voting, len(m.votings[wallet]))
	copy(out, m.votings[wallet])
	return out
}
