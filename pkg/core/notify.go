package core

import (
	"sync"

	"github.com/google/uuid"
)

// ChangeKind describes what a pending mutation does to a list.
type ChangeKind int

const (
	// Insertion adds rows at the affected indexes
	Insertion ChangeKind = iota
	// Removal deletes the rows at the affected indexes
	Removal
	// Replacement overwrites the rows at the affected indexes in place
	Replacement
)

// String returns the string representation of the change kind
func (k ChangeKind) String() string {
	switch k {
	case Insertion:
		return "insertion"
	case Removal:
		return "removal"
	case Replacement:
		return "replacement"
	default:
		return "unknown"
	}
}

// Sink receives paired before/after notifications around each mutation.
// Indexes always refer to pre-mutation positions and are sorted ascending.
// DidChange is delivered on every exit path, including when the mutation
// itself failed, so a sink never sees a change left "in flight".
type Sink interface {
	WillChange(property string, kind ChangeKind, indexes []int)
	DidChange(property string, kind ChangeKind, indexes []int)
}

// obsKey identifies a registration: the owning record plus the property
// slot the list lives in. The list holds this key, never the sink itself;
// the registry resolves it on demand.
type obsKey struct {
	record   string
	property string
}

type registration struct {
	token    uuid.UUID
	sink     Sink
	inFlight bool
	// pendingCancel defers Cancel until the open bracket closes, so a sink
	// never loses the DidChange half of a pair it already received the
	// WillChange half of.
	pendingCancel bool
}

// Registry maps (record, property) slots to at most one observer each.
// It is owned by the session layer and outlives the lists that reference it.
type Registry struct {
	mu   sync.Mutex
	subs map[obsKey]*registration
}

// NewRegistry creates an empty observation registry.
func NewRegistry() *Registry {
	return &Registry{subs: make(map[obsKey]*registration)}
}

// Token is a cancellable handle for one observation. Cancel is idempotent.
type Token struct {
	id       uuid.UUID
	registry *Registry
	key      obsKey
}

// ID returns the unique identity of this registration.
func (t *Token) ID() string {
	return t.id.String()
}

// Cancel removes the observation. Cancelling twice, or after the list is
// gone, is a no-op. If a will/did bracket is open the removal takes effect
// once the bracket closes.
func (t *Token) Cancel() {
	if t == nil || t.registry == nil {
		return
	}
	r := t.registry
	r.mu.Lock()
	defer r.mu.Unlock()
	reg, ok := r.subs[t.key]
	if !ok || reg.token != t.id {
		return
	}
	if reg.inFlight {
		reg.pendingCancel = true
		return
	}
	delete(r.subs, t.key)
}

// observe registers a sink for the given slot. A slot holds at most one
// registration at a time.
func (r *Registry) observe(key obsKey, sink Sink) (*Token, error) {
	if sink == nil {
		return nil, wrapError("observe", ErrUnsupportedOperation)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.subs[key]; ok {
		return nil, wrapError("observe", ErrAlreadyObserved)
	}
	reg := &registration{token: uuid.New(), sink: sink}
	r.subs[key] = reg
	return &Token{id: reg.token, registry: r, key: key}, nil
}

// acquire looks up the registration for a slot and marks it in flight.
// It returns nil when the slot is unobserved.
func (r *Registry) acquire(key obsKey) *registration {
	r.mu.Lock()
	defer r.mu.Unlock()
	reg, ok := r.subs[key]
	if !ok {
		return nil
	}
	reg.inFlight = true
	return reg
}

// release closes the bracket and applies a cancellation deferred during it.
func (r *Registry) release(key obsKey, reg *registration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reg.inFlight = false
	if reg.pendingCancel {
		delete(r.subs, key)
	}
}

// bracket wraps a mutation in a will-change/did-change pair. The index set
// is built lazily so the unobserved path never pays for it. DidChange fires
// on every exit, error or not, before the error propagates to the caller.
func (r *Registry) bracket(key obsKey, kind ChangeKind, indexes func() []int, fn func() error) error {
	reg := r.acquire(key)
	if reg == nil {
		return fn()
	}
	set := indexes()
	reg.sink.WillChange(key.property, kind, set)
	defer func() {
		reg.sink.DidChange(key.property, kind, set)
		r.release(key, reg)
	}()
	return fn()
}
