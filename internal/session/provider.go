package session

import (
	"context"
	"sync"

	"github.com/orgball2608/postview/internal/domain"
	"github.com/orgball2608/postview/internal/identity"
	"github.com/orgball2608/postview/pkg/logger"
)

// Provider tracks the signed-in user of one rendering session and fans
// changes out to its consumers.
type Provider struct {
	client identity.Client
	logger logger.Logger

	mu        sync.Mutex
	user      *domain.User
	changed   bool
	observers map[int]func(*domain.User)
	nextID    int

	ready     chan struct{}
	readyOnce sync.Once
	startOnce sync.Once
	stopOnce  sync.Once
	sub       identity.Subscription
}

func New(client identity.Client, log logger.Logger) *Provider {
	return &Provider{
		client:    client,
		logger:    log.WithComponent("Session"),
		observers: make(map[int]func(*domain.User)),
		ready:     make(chan struct{}),
	}
}

// Start subscribes to identity changes and then resolves the current
// session. It returns once the initial resolution is done. Failures leave
// the user signed out.
func (p *Provider) Start(ctx context.Context) {
	p.startOnce.Do(func() {
		sub := p.client.OnAuthStateChange(func(event identity.Event, s *domain.Session) {
			p.logger.Debug("Identity changed", "event", string(event))
			p.set(userOf(s))
		})

		p.mu.Lock()
		p.sub = sub
		p.mu.Unlock()

		s, err := p.client.GetSession(ctx)
		if err != nil {
			p.logger.Warn("Failed to resolve current session", "error", err)
			s = nil
		}

		p.mu.Lock()
		// An event that raced the request wins over its result.
		if !p.changed {
			p.user = userOf(s)
		}
		p.mu.Unlock()

		p.readyOnce.Do(func() { close(p.ready) })
	})
}

// Ready is closed once the initial session resolution has finished.
func (p *Provider) Ready() <-chan struct{} {
	return p.ready
}

// Wait blocks until the provider is ready or ctx ends.
func (p *Provider) Wait(ctx context.Context) error {
	select {
	case <-p.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// CurrentUser returns the signed-in user, or nil.
func (p *Provider) CurrentUser() *domain.User {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.user == nil {
		return nil
	}
	u := *p.user
	return &u
}

// Subscribe registers fn for every user change and returns its cancel func.
func (p *Provider) Subscribe(fn func(*domain.User)) func() {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.observers[id] = fn
	p.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.observers, id)
			p.mu.Unlock()
		})
	}
}

func (p *Provider) SignUp(ctx context.Context, creds identity.Credentials) (*domain.Session, error) {
	return p.client.SignUp(ctx, creds)
}

func (p *Provider) SignIn(ctx context.Context, creds identity.Credentials) (*domain.Session, error) {
	return p.client.SignIn(ctx, creds)
}

func (p *Provider) SignOut(ctx context.Context) error {
	return p.client.SignOut(ctx)
}

// Stop detaches from the identity service. Safe to call more than once.
func (p *Provider) Stop() {
	p.stopOnce.Do(func() {
		p.mu.Lock()
		sub := p.sub
		p.sub = nil
		p.observers = make(map[int]func(*domain.User))
		p.mu.Unlock()

		if sub != nil {
			sub.Unsubscribe()
		}
	})
}

func (p *Provider) set(user *domain.User) {
	p.mu.Lock()
	p.user = user
	p.changed = true
	observers := make([]func(*domain.User), 0, len(p.observers))
	for i := 0; i < p.nextID; i++ {
		if fn, ok := p.observers[i]; ok {
			observers = append(observers, fn)
		}
	}
	p.mu.Unlock()

	for _, fn := range observers {
		if user == nil {
			fn(nil)
			continue
		}
		u := *user
		fn(&u)
	}
}

func userOf(s *domain.Session) *domain.User {
	if s == nil {
		return nil
	}
	u := s.User
	return &u
}
