package identity

import (
	"context"

	"github.com/orgball2608/postview/internal/domain"
)

// Event names match the ones the hosted identity service's SDKs emit.
type Event string

const (
	EventInitialSession Event = "INITIAL_SESSION"
	EventSignedIn       Event = "SIGNED_IN"
	EventSignedOut      Event = "SIGNED_OUT"
	EventTokenRefreshed Event = "TOKEN_REFRESHED"
	EventUserUpdated    Event = "USER_UPDATED"
)

// Listener is called on every session change. session is nil after sign-out.
type Listener func(event Event, session *domain.Session)

type Subscription interface {
	Unsubscribe()
}

type Credentials struct {
	Email    string
	Password string
}

//go:generate go run go.uber.org/mock/mockgen -source=identity.go -destination=mocks/mock.go

// Client holds one user's session with the identity service.
type Client interface {
	// GetSession returns the current session, or nil when signed out.
	GetSession(ctx context.Context) (*domain.Session, error)
	OnAuthStateChange(fn Listener) Subscription
	// SignUp registers a new account. The session is nil when the service
	// requires email confirmation first.
	SignUp(ctx context.Context, creds Credentials) (*domain.Session, error)
	SignIn(ctx context.Context, creds Credentials) (*domain.Session, error)
	SignOut(ctx context.Context) error
	RefreshSession(ctx context.Context) (*domain.Session, error)
}

// Factory opens one Client per rendering session. Released clients are no
// longer refreshed in the background.
type Factory interface {
	NewClient() Client
	Release(c Client)
}
