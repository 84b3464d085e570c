package identityimpl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/orgball2608/postview/internal/domain"
	"github.com/orgball2608/postview/internal/identity"
	"github.com/orgball2608/postview/pkg/config"
	apperrors "github.com/orgball2608/postview/pkg/errors"
	"github.com/orgball2608/postview/pkg/logger"
	"go.uber.org/fx"
	"golang.org/x/sync/singleflight"
)

type Opts struct {
	fx.In

	Config *config.Config
	Logger logger.Logger
}

// Factory hands out one Client per rendering session.
type Factory struct {
	baseURL   string
	apiKey    string
	jwtSecret []byte
	http      *http.Client
	logger    logger.Logger

	mu      sync.Mutex
	clients map[*Client]struct{}
}

func NewFactory(opts Opts) *Factory {
	var secret []byte
	if opts.Config.Identity.JWTSecret != "" {
		secret = []byte(opts.Config.Identity.JWTSecret)
	}

	return &Factory{
		baseURL:   strings.TrimRight(opts.Config.Identity.URL, "/") + "/auth/v1",
		apiKey:    opts.Config.Identity.AnonKey,
		jwtSecret: secret,
		http:      &http.Client{Timeout: opts.Config.Identity.Timeout},
		logger:    opts.Logger.WithComponent("Identity"),
		clients:   make(map[*Client]struct{}),
	}
}

// New returns a signed-out client. It stays registered for background
// refresh until Release.
func (f *Factory) New() *Client {
	c := &Client{
		factory:   f,
		listeners: make(map[int]identity.Listener),
	}

	f.mu.Lock()
	f.clients[c] = struct{}{}
	f.mu.Unlock()

	return c
}

func (f *Factory) NewClient() identity.Client { return f.New() }

func (f *Factory) Release(c identity.Client) {
	client, ok := c.(*Client)
	if !ok {
		return
	}

	f.mu.Lock()
	delete(f.clients, client)
	f.mu.Unlock()
}

func (f *Factory) live() []*Client {
	f.mu.Lock()
	defer f.mu.Unlock()

	clients := make([]*Client, 0, len(f.clients))
	for c := range f.clients {
		clients = append(clients, c)
	}
	return clients
}

// Client talks to the identity service's REST API and keeps the session in
// memory.
type Client struct {
	factory *Factory
	// refreshes collapses concurrent refreshes; a refresh token is single use.
	refreshes singleflight.Group

	mu        sync.Mutex
	session   *domain.Session
	listeners map[int]identity.Listener
	nextID    int
}

var (
	_ identity.Client  = (*Client)(nil)
	_ identity.Factory = (*Factory)(nil)
)

type subscription struct {
	once   sync.Once
	cancel func()
}

func (s *subscription) Unsubscribe() { s.once.Do(s.cancel) }

func (c *Client) OnAuthStateChange(fn identity.Listener) identity.Subscription {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.mu.Unlock()

	return &subscription{cancel: func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}}
}

func (c *Client) GetSession(ctx context.Context) (*domain.Session, error) {
	c.mu.Lock()
	session := c.session
	c.mu.Unlock()

	if session == nil {
		return nil, nil
	}
	if session.ExpiresWithin(time.Now(), 0) {
		return c.RefreshSession(ctx)
	}
	s := *session
	return &s, nil
}

// Expiring reports whether the session ends within d.
func (c *Client) Expiring(d time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session != nil && c.session.ExpiresWithin(time.Now(), d)
}

type credentialsBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c *Client) SignUp(ctx context.Context, creds identity.Credentials) (*domain.Session, error) {
	var resp tokenResponse
	if err := c.post(ctx, "/signup", "", credentialsBody(creds), &resp); err != nil {
		return nil, err
	}

	// Projects with email confirmation answer with the user only.
	if resp.AccessToken == "" {
		c.factory.logger.Info("Sign-up pending email confirmation", "email", creds.Email)
		return nil, nil
	}

	session, err := c.factory.parseSession(resp)
	if err != nil {
		return nil, err
	}
	c.setSession(identity.EventSignedIn, session)
	return session, nil
}

func (c *Client) SignIn(ctx context.Context, creds identity.Credentials) (*domain.Session, error) {
	var resp tokenResponse
	if err := c.post(ctx, "/token?grant_type=password", "", credentialsBody(creds), &resp); err != nil {
		return nil, err
	}

	session, err := c.factory.parseSession(resp)
	if err != nil {
		return nil, err
	}
	c.setSession(identity.EventSignedIn, session)
	return session, nil
}

// SignOut revokes the session remotely and always drops it locally.
func (c *Client) SignOut(ctx context.Context) error {
	c.mu.Lock()
	session := c.session
	c.mu.Unlock()

	if session == nil {
		return nil
	}

	err := c.post(ctx, "/logout", session.AccessToken, nil, nil)
	c.setSession(identity.EventSignedOut, nil)
	return err
}

// RefreshSession exchanges the refresh token for a new session. Callers that
// arrive while a refresh is in flight wait for its result instead of sending
// the same token again.
func (c *Client) RefreshSession(ctx context.Context) (*domain.Session, error) {
	ch := c.refreshes.DoChan("refresh", func() (interface{}, error) {
		return c.refresh(context.WithoutCancel(ctx))
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		session, _ := res.Val.(*domain.Session)
		if session == nil {
			return nil, nil
		}
		s := *session
		return &s, nil
	}
}

func (c *Client) refresh(ctx context.Context) (*domain.Session, error) {
	c.mu.Lock()
	current := c.session
	c.mu.Unlock()

	if current == nil || current.RefreshToken == "" {
		return nil, nil
	}

	var resp tokenResponse
	body := map[string]string{"refresh_token": current.RefreshToken}
	if err := c.post(ctx, "/token?grant_type=refresh_token", "", body, &resp); err != nil {
		if apperrors.IsUnauthorized(err) {
			c.factory.logger.Warn("Refresh token rejected, signing out", "user_id", current.User.ID)
			c.setSession(identity.EventSignedOut, nil)
		}
		return nil, err
	}

	session, err := c.factory.parseSession(resp)
	if err != nil {
		return nil, err
	}
	c.setSession(identity.EventTokenRefreshed, session)
	return session, nil
}

func (c *Client) setSession(event identity.Event, session *domain.Session) {
	c.mu.Lock()
	c.session = session
	listeners := make([]identity.Listener, 0, len(c.listeners))
	for i := 0; i < c.nextID; i++ {
		if fn, ok := c.listeners[i]; ok {
			listeners = append(listeners, fn)
		}
	}
	c.mu.Unlock()

	for _, fn := range listeners {
		if session == nil {
			fn(event, nil)
			continue
		}
		s := *session
		fn(event, &s)
	}
}

type tokenResponse struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	ExpiresIn    int64       `json:"expires_in"`
	ExpiresAt    int64       `json:"expires_at"`
	User         domain.User `json:"user"`
}

type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
}

func (e errorResponse) text() string {
	for _, s := range []string{e.ErrorDescription, e.Msg, e.Message, e.Error} {
		if s != "" {
			return s
		}
	}
	return ""
}

func (c *Client) post(ctx context.Context, path, bearer string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode identity request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.factory.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build identity request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.factory.apiKey)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.factory.http.Do(req)
	if err != nil {
		return apperrors.Join(apperrors.ErrServiceUnavailable, fmt.Errorf("identity request %s failed: %w", path, err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperrors.Join(apperrors.ErrServiceUnavailable, fmt.Errorf("failed to read identity response: %w", err))
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var e errorResponse
		_ = json.Unmarshal(raw, &e)
		msg := e.text()
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}

		switch resp.StatusCode {
		case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusUnprocessableEntity:
			return apperrors.WrapWithCode(apperrors.ErrUnauthorized, apperrors.CodeNoSession, msg)
		default:
			return apperrors.WrapWithCode(apperrors.ErrServiceUnavailable, apperrors.CodeUnavailable, msg)
		}
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return apperrors.Join(apperrors.ErrServiceUnavailable, fmt.Errorf("failed to decode identity response: %w", err))
	}
	return nil
}

type accessClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// parseSession builds a session from a token response. The access token is
// verified when a JWT secret is configured; otherwise its claims are only
// read.
func (f *Factory) parseSession(resp tokenResponse) (*domain.Session, error) {
	claims := &accessClaims{}

	var err error
	if f.jwtSecret != nil {
		_, err = jwt.ParseWithClaims(resp.AccessToken, claims, func(t *jwt.Token) (any, error) {
			return f.jwtSecret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	} else {
		_, _, err = jwt.NewParser().ParseUnverified(resp.AccessToken, claims)
	}
	if err != nil {
		return nil, apperrors.WrapWithCode(apperrors.ErrUnauthorized, apperrors.CodeNoSession, "invalid access token: "+err.Error())
	}

	user := resp.User
	if user.ID == "" {
		user.ID = claims.Subject
	}
	if user.Email == "" {
		user.Email = claims.Email
	}
	if user.ID == "" {
		return nil, apperrors.WrapWithCode(apperrors.ErrUnauthorized, apperrors.CodeNoSession, "access token has no subject")
	}

	session := &domain.Session{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		User:         user,
	}

	switch {
	case claims.ExpiresAt != nil:
		session.ExpiresAt = claims.ExpiresAt.Time
	case resp.ExpiresAt > 0:
		session.ExpiresAt = time.Unix(resp.ExpiresAt, 0)
	case resp.ExpiresIn > 0:
		session.ExpiresAt = time.Now().Add(time.Duration(resp.ExpiresIn) * time.Second)
	}

	return session, nil
}
