package roles

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/pixcheckout/pkg/enums"
	"github.com/angelmondragon/pixcheckout/pkg/logger"
	"github.com/angelmondragon/pixcheckout/pkg/metrics"
)

// Identity is the authenticated user a role is resolved for. A nil *Identity means anonymous.
type Identity struct {
	UserID uuid.UUID
}

// Result is the reactive role snapshot.
type Result struct {
	IsElevated bool `json:"is_elevated"`
	Loading    bool `json:"loading"`
}

// Lookup counts role records matching a user and role.
type Lookup interface {
	CountRoles(ctx context.Context, userID uuid.UUID, role enums.AppRole) (int64, error)
}

// Option customises a Resolver.
type Option func(*Resolver)

// WithRole overrides the elevated role name. Defaults to admin.
func WithRole(role enums.AppRole) Option {
	return func(r *Resolver) { r.role = role }
}

func WithLogger(logg *logger.Logger) Option {
	return func(r *Resolver) {
		if logg != nil {
			r.logg = logg
		}
	}
}

func WithMetrics(m *metrics.CheckoutMetrics) Option {
	return func(r *Resolver) { r.metrics = m }
}

// Resolver decides whether the current identity holds the elevated role.
//
// Every identity change starts a new generation. A lookup applies its result
// only while its generation is still current, so the last identity wins no
// matter which response arrives last. Any lookup failure resolves to
// not elevated.
type Resolver struct {
	lookup  Lookup
	role    enums.AppRole
	logg    *logger.Logger
	metrics *metrics.CheckoutMetrics

	notifyMu sync.Mutex

	mu          sync.Mutex
	generation  uint64
	initialized bool
	identity    *Identity
	result      Result
	ready       chan struct{}
	readyClosed bool
	cancel      context.CancelFunc
	subscribers map[uint64]func(Result)
	nextSubID   uint64
	closed      bool
}

// NewResolver starts in the resolving state with IsElevated false.
func NewResolver(lookup Lookup, opts ...Option) *Resolver {
	r := &Resolver{
		lookup:      lookup,
		role:        enums.AppRoleAdmin,
		logg:        logger.Nop(),
		result:      Result{Loading: true},
		ready:       make(chan struct{}),
		subscribers: make(map[uint64]func(Result)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SetIdentity triggers a resolution when the identity differs from the last one seen.
// An absent identity resolves synchronously to not elevated.
func (r *Resolver) SetIdentity(ctx context.Context, identity *Identity) {
	r.mu.Lock()
	if r.closed || (r.initialized && sameIdentity(r.identity, identity)) {
		r.mu.Unlock()
		return
	}

	r.initialized = true
	r.generation++
	gen := r.generation
	r.cancelLocked()

	if identity == nil {
		r.identity = nil
		r.result = Result{}
		r.markReadyLocked()
		r.mu.Unlock()

		r.metrics.IncRoleLookup(enums.RoleLookupAnonymous)
		r.notify()
		return
	}

	current := *identity
	r.identity = &current
	r.result = Result{Loading: true}
	if r.readyClosed {
		r.ready = make(chan struct{})
		r.readyClosed = false
	}
	lookupCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	r.cancel = cancel
	r.mu.Unlock()

	r.notify()
	go r.resolve(lookupCtx, gen, current.UserID)
}

// GetRole points the resolver at identity and returns the current snapshot.
// Repeating the same identity does not start another lookup.
func (r *Resolver) GetRole(ctx context.Context, identity *Identity) Result {
	r.SetIdentity(ctx, identity)
	return r.Snapshot()
}

// Snapshot returns the current result.
func (r *Resolver) Snapshot() Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.result
}

// Await blocks until the current identity is resolved or ctx ends.
func (r *Resolver) Await(ctx context.Context) (Result, error) {
	for {
		r.mu.Lock()
		ready := r.ready
		r.mu.Unlock()

		select {
		case <-ctx.Done():
			return r.Snapshot(), ctx.Err()
		case <-ready:
		}

		r.mu.Lock()
		if r.ready == ready {
			res := r.result
			r.mu.Unlock()
			return res, nil
		}
		r.mu.Unlock()
	}
}

// Subscribe registers fn for every state change. Callbacks run on the
// goroutine that changed the state and must not call SetIdentity.
func (r *Resolver) Subscribe(fn func(Result)) (unsubscribe func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextSubID
	r.nextSubID++
	r.subscribers[id] = fn
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.subscribers, id)
	}
}

// Close discards any outstanding lookup and releases waiters and subscribers
// with a not-elevated result.
func (r *Resolver) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	r.generation++
	r.cancelLocked()
	r.result = Result{}
	r.markReadyLocked()
	r.mu.Unlock()

	r.notify()
}

func (r *Resolver) resolve(ctx context.Context, gen uint64, userID uuid.UUID) {
	ctx = r.logg.WithFields(ctx, map[string]any{
		"user_id":    userID.String(),
		"role":       r.role.String(),
		"generation": gen,
	})

	started := time.Now()
	count, err := r.safeCount(ctx, userID)
	r.metrics.ObserveLookup(time.Since(started))

	elevated := err == nil && count > 0
	if !r.apply(gen, elevated) {
		r.metrics.IncRoleLookup(enums.RoleLookupStale)
		r.logg.Debug(ctx, "roles.lookup.stale")
		return
	}

	switch {
	case err != nil:
		r.metrics.IncRoleLookup(enums.RoleLookupFailed)
		r.logg.Warn(r.logg.WithField(ctx, "error", err.Error()), "roles.lookup.failed")
	case elevated:
		r.metrics.IncRoleLookup(enums.RoleLookupElevated)
	default:
		r.metrics.IncRoleLookup(enums.RoleLookupNotElevated)
	}
	r.notify()
}

// safeCount turns a missing transport or a panicking one into an error.
func (r *Resolver) safeCount(ctx context.Context, userID uuid.UUID) (count int64, err error) {
	if r.lookup == nil {
		return 0, fmt.Errorf("role lookup not configured")
	}
	defer func() {
		if rec := recover(); rec != nil {
			count, err = 0, fmt.Errorf("role lookup panic: %v", rec)
		}
	}()
	return r.lookup.CountRoles(ctx, userID, r.role)
}

func (r *Resolver) apply(gen uint64, elevated bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || gen != r.generation {
		return false
	}
	r.result = Result{IsElevated: elevated}
	r.markReadyLocked()
	r.cancelLocked()
	return true
}

// notify delivers the state as of delivery time, serialised so subscribers
// never observe an older snapshot after a newer one.
func (r *Resolver) notify() {
	r.notifyMu.Lock()
	defer r.notifyMu.Unlock()

	r.mu.Lock()
	res := r.result
	subs := make([]func(Result), 0, len(r.subscribers))
	for _, fn := range r.subscribers {
		subs = append(subs, fn)
	}
	r.mu.Unlock()

	for _, fn := range subs {
		fn(res)
	}
}

func (r *Resolver) markReadyLocked() {
	if !r.readyClosed {
		close(r.ready)
		r.readyClosed = true
	}
}

func (r *Resolver) cancelLocked() {
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
}

func sameIdentity(a, b *Identity) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.UserID == b.UserID
}
