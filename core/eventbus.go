package core

import "sort"

// AccountFilter matches TokenMoveEvent sides: a nil filter (None) matches
// any account; a filter holding an Account matches that exact account
// (including NoAccount, which matches only mints/burns on that side).
type AccountFilter struct {
	account Account
	some    bool
}

// AnyAccount is the wildcard filter: it matches any from/to side.
var AnyAccount = AccountFilter{}

// ExactAccount builds a filter that matches only the given account.
func ExactAccount(a Account) AccountFilter { return AccountFilter{account: a, some: true} }

// key is the map key used to index listeners by filter: AccountFilter isn't
// itself comparable in a way that distinguishes "None" from "Some(NoAccount)"
// when embedded directly as a map key with an Account field, so we derive an
// explicit, order-independent string key.
func (f AccountFilter) key() string {
	if !f.some {
		return "*"
	}
	if p, ok := f.account.Principal(); ok {
		return "=" + string(p)
	}
	return "=none"
}

// matches reports whether side, an event's From or To account, satisfies f.
func (f AccountFilter) matches(side Account) bool {
	return !f.some || f.account.Equal(side)
}

// Filter pairs a from-side and to-side AccountFilter; an event matches a
// listener when both sides independently match.
type Filter struct {
	From AccountFilter
	To   AccountFilter
}

// OnMoveListener is a subscription: a filter plus the endpoint to call when
// a matching TokenMoveEvent is emitted.
type OnMoveListener struct {
	Filter   Filter
	Endpoint RemoteCallEndpoint
}

// MoveNotification is the payload dispatched to a matching listener: the
// event on its own does not name which ledger emitted it, so the emitting
// actor's own identity travels alongside it.
type MoveNotification struct {
	Emitter Principal
	Event   TokenMoveEvent
}

// OnMoveListenersInfo is the move-event bus: an indexed, append/remove-able
// set of listeners supporting O(log n) add/remove and O(k) matching, where k
// is the number of matches. Ids are posted under both the from- and to-side
// filter buckets (deduplicated when the two filters are equal) and kept
// ascending within each bucket so removal can binary-search for the id.
type OnMoveListenersInfo struct {
	idCounter   uint64
	enumeration map[uint64]OnMoveListener
	index       map[string][]uint64
}

// NewOnMoveListenersInfo returns an empty listener index.
func NewOnMoveListenersInfo() *OnMoveListenersInfo {
	return &OnMoveListenersInfo{
		enumeration: make(map[uint64]OnMoveListener),
		index:       make(map[string][]uint64),
	}
}

func (b *OnMoveListenersInfo) sameBucket(f Filter) bool {
	return f.From.key() == f.To.key()
}

// AddListener registers a listener and returns the id it was assigned.
func (b *OnMoveListenersInfo) AddListener(l OnMoveListener) uint64 {
	id := b.idCounter
	b.enumeration[id] = l
	b.idCounter++

	if b.sameBucket(l.Filter) {
		b.pushID(l.Filter.From.key(), id)
	} else {
		b.pushID(l.Filter.From.key(), id)
		b.pushID(l.Filter.To.key(), id)
	}

	return id
}

// pushID appends id to the bucket, preserving ascending order (ids are
// assigned monotonically, so a plain append already keeps the invariant).
func (b *OnMoveListenersInfo) pushID(key string, id uint64) {
	b.index[key] = append(b.index[key], id)
}

// RemoveListener removes and returns the listener registered under id.
func (b *OnMoveListenersInfo) RemoveListener(id uint64) (OnMoveListener, error) {
	l, ok := b.enumeration[id]
	if !ok {
		return OnMoveListener{}, ErrListenerDoesNotExist
	}
	delete(b.enumeration, id)

	if b.sameBucket(l.Filter) {
		if err := b.removeFromBucket(l.Filter.From.key(), id); err != nil {
			return OnMoveListener{}, err
		}
	} else {
		if err := b.removeFromBucket(l.Filter.From.key(), id); err != nil {
			return OnMoveListener{}, err
		}
		if err := b.removeFromBucket(l.Filter.To.key(), id); err != nil {
			return OnMoveListener{}, err
		}
	}

	return l, nil
}

func (b *OnMoveListenersInfo) removeFromBucket(key string, id uint64) error {
	bucket, ok := b.index[key]
	if !ok {
		return ErrListenerFatalError
	}
	i := sort.Search(len(bucket), func(i int) bool { return bucket[i] >= id })
	if i >= len(bucket) || bucket[i] != id {
		return ErrListenerFatalError
	}
	bucket = append(bucket[:i], bucket[i+1:]...)
	if len(bucket) == 0 {
		delete(b.index, key)
	} else {
		b.index[key] = bucket
	}
	return nil
}

// GetMatchingListeners returns every listener whose filter matches event on
// both sides, deduplicated by id. The wildcard bucket, the from-exact
// bucket, and the to-exact bucket together are a superset of the true
// matches (a listener is indexed there because at least one of its two
// sides could plausibly match); each candidate is then checked against both
// sides of event before inclusion, since a listener pinned on one side and
// wildcard on the other is only indexed once per side, not once per event.
func (b *OnMoveListenersInfo) GetMatchingListeners(event TokenMoveEvent) []OnMoveListener {
	seen := make(map[uint64]struct{})
	var out []OnMoveListener

	collect := func(key string) {
		for _, id := range b.index[key] {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			l := b.enumeration[id]
			if l.Filter.From.matches(event.From) && l.Filter.To.matches(event.To) {
				out = append(out, l)
			}
		}
	}

	collect(AnyAccount.key())
	collect(ExactAccount(event.From).key())
	collect(ExactAccount(event.To).key())

	return out
}

// Len returns the number of active listener registrations, for tests and
// metrics.
func (b *OnMoveListenersInfo) Len() int { return len(b.enumeration) }
