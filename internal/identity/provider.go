package identity

import (
	"context"
	"sync"

	"github.com/angelmondragon/pixcheckout/internal/roles"
	"github.com/angelmondragon/pixcheckout/pkg/auth"
)

// Provider holds the signed-in identity and tells listeners whenever it changes.
type Provider struct {
	mu        sync.Mutex
	current   *roles.Identity
	listeners map[uint64]func(context.Context, *roles.Identity)
	nextID    uint64
}

func NewProvider() *Provider {
	return &Provider{listeners: make(map[uint64]func(context.Context, *roles.Identity))}
}

// Current returns a copy of the identity, or nil when signed out.
func (p *Provider) Current() *roles.Identity {
	p.mu.Lock()
	defer p.mu.Unlock()
	return clone(p.current)
}

// Set replaces the identity and notifies every listener, even when the value is
// unchanged. Listeners decide whether a notification warrants work.
func (p *Provider) Set(ctx context.Context, id *roles.Identity) {
	p.mu.Lock()
	p.current = clone(id)
	listeners := make([]func(context.Context, *roles.Identity), 0, len(p.listeners))
	for _, fn := range p.listeners {
		listeners = append(listeners, fn)
	}
	p.mu.Unlock()

	for _, fn := range listeners {
		fn(ctx, clone(id))
	}
}

// SignOut clears the identity.
func (p *Provider) SignOut(ctx context.Context) {
	p.Set(ctx, nil)
}

// OnChange registers fn and returns a function that removes it.
func (p *Provider) OnChange(fn func(context.Context, *roles.Identity)) (remove func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = fn
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.listeners, id)
	}
}

// Bind feeds the provider's current identity and every later change into the resolver.
func Bind(ctx context.Context, p *Provider, r *roles.Resolver) (unbind func()) {
	remove := p.OnChange(r.SetIdentity)
	r.SetIdentity(ctx, p.Current())
	return remove
}

// FromClaims converts verified access-token claims into an identity.
func FromClaims(claims *auth.AccessTokenClaims) *roles.Identity {
	userID, err := claims.UserID()
	if err != nil {
		return nil
	}
	return &roles.Identity{UserID: userID}
}

func clone(id *roles.Identity) *roles.Identity {
	if id == nil {
		return nil
	}
	c := *id
	return &c
}
