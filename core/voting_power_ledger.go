package core

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// VotingPowerLedger is the time-indexed, per-emitter, per-account voting
// power history (spec §4.3). It is fed by TokenMoveEvents reported by
// registered emitters (token ledgers) and answers "what was this account's
// voting power at time t" for arbitrary past t.
type VotingPowerLedger struct {
	mu       sync.Mutex
	emitters map[Principal]bool
	balances map[Principal]map[Principal]*History
	totals   map[Principal]*History
	log      *zap.SugaredLogger
}

// NewVotingPowerLedger constructs an empty ledger with no registered
// emitters.
func NewVotingPowerLedger() *VotingPowerLedger {
	return &VotingPowerLedger{
		emitters: make(map[Principal]bool),
		balances: make(map[Principal]map[Principal]*History),
		totals:   make(map[Principal]*History),
		log:      zap.L().Sugar(),
	}
}

// RegisterEmitter records caller as an allowed source of move events.
func (l *VotingPowerLedger) RegisterEmitter(caller Principal) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.emitters[caller] = true
	if _, ok := l.balances[caller]; !ok {
		l.balances[caller] = make(map[Principal]*History)
	}
	if _, ok := l.totals[caller]; !ok {
		l.totals[caller] = &History{}
	}
}

// UnregisterEmitter removes caller from the set of allowed emitters. Its
// recorded history is kept in memory, not erased, but VotingPowerOfAt and
// TotalVotingPowerAt both reject an unregistered emitter outright, so that
// history is unreachable until the emitter is registered again.
func (l *VotingPowerLedger) UnregisterEmitter(caller Principal) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.emitters, caller)
}

func (l *VotingPowerLedger) historyFor(emitter, account Principal) *History {
	accounts := l.balances[emitter]
	h, ok := accounts[account]
	if !ok {
		h = &History{}
		accounts[account] = h
	}
	return h
}

// HandleOnMove records a TokenMoveEvent reported by emitter (spec §4.3's
// three mutation cases). emitter must be a registered emitter; handling
// never suspends, so it is atomic with respect to other messages.
func (l *VotingPowerLedger) HandleOnMove(emitter Principal, event TokenMoveEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.emitters[emitter] {
		return ErrEmitterNotRegistered
	}

	now := time.Now().UnixNano()
	total := l.totals[emitter]

	fromP, fromSome := event.From.Principal()
	toP, toSome := event.To.Principal()

	switch {
	case fromSome && toSome:
		fromH := l.historyFor(emitter, fromP)
		toH := l.historyFor(emitter, toP)
		if fromH.Peek() < event.Qty {
			l.log.Errorw("voting power underflow on transfer", "emitter", emitter, "from", fromP)
			return ErrHistoryLookupFatal
		}
		fromH.Push(now, fromH.Peek()-event.Qty)
		toH.Push(now, toH.Peek()+event.Qty)
	case fromSome && !toSome:
		fromH := l.historyFor(emitter, fromP)
		if fromH.Peek() < event.Qty || total.Peek() < event.Qty {
			l.log.Errorw("voting power underflow on burn", "emitter", emitter, "from", fromP)
			return ErrHistoryLookupFatal
		}
		fromH.Push(now, fromH.Peek()-event.Qty)
		total.Push(now, total.Peek()-event.Qty)
	case !fromSome && toSome:
		toH := l.historyFor(emitter, toP)
		toH.Push(now, toH.Peek()+event.Qty)
		total.Push(now, total.Peek()+event.Qty)
	default:
		// (None, None) carries no information; ignored rather than trapped.
	}

	return nil
}

// VotingPowerOfAt returns account's voting power under emitter at timestamp
// t.
func (l *VotingPowerLedger) VotingPowerOfAt(emitter, account Principal, t int64) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.emitters[emitter] {
		return 0, ErrEmitterNotRegistered
	}

	accounts, ok := l.balances[emitter]
	if !ok {
		return 0, nil
	}
	h, ok := accounts[account]
	if !ok {
		return 0, nil
	}
	bal, _ := h.LookupAt(t)
	return bal, nil
}

// TotalVotingPowerAt returns emitter's total voting power at timestamp t.
func (l *VotingPowerLedger) TotalVotingPowerAt(emitter Principal, t int64) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.emitters[emitter] {
		return 0, ErrEmitterNotRegistered
	}

	total, ok := l.totals[emitter]
	if !ok {
		return 0, nil
	}
	bal, _ := total.LookupAt(t)
	return bal, nil
}
