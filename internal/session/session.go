// Package session is the source of truth for whether, and as whom, the
// current visitor is authenticated. One Context exists per page load (web)
// or per command (CLI) and is passed explicitly to whoever needs it.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/skillcred/skillcred/internal/apiclient"
	"github.com/skillcred/skillcred/internal/auth"
	"github.com/skillcred/skillcred/internal/tokenstore"
)

// Session is the client-held authentication record
type Session struct {
	IsAuthenticated bool
	Email           string
	UserID          string
	AuthToken       string
}

// Identity is who a token belongs to
type Identity struct {
	Email  string
	UserID string
}

// Verifier checks a token against the backend
type Verifier interface {
	VerifyToken(ctx context.Context, token string) (*apiclient.VerifyResponse, error)
}

// Context holds one Session and notifies listeners when it changes
type Context struct {
	store    tokenstore.Store
	verifier Verifier
	now      func() time.Time
	logger   zerolog.Logger

	mu        sync.RWMutex
	session   Session
	listeners map[int]func(Session)
	nextID    int

	mountOnce sync.Once
}

// Option configures a Context
type Option func(*Context)

// WithLogger sets the logger
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Context) { c.logger = logger }
}

// WithClock overrides the clock used for token expiry checks
func WithClock(now func() time.Time) Option {
	return func(c *Context) { c.now = now }
}

// New returns an unauthenticated, empty Context
func New(store tokenstore.Store, verifier Verifier, opts ...Option) *Context {
	c := &Context{
		store:     store,
		verifier:  verifier,
		now:       time.Now,
		logger:    zerolog.Nop(),
		listeners: make(map[int]func(Session)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Mount reads the persisted token and, when present, verifies it. It runs
// once per Context; later calls return the current session.
//
// Any verification failure leaves the visitor unauthenticated. The stored
// token is kept so a backend outage does not sign the visitor out for good.
func (c *Context) Mount(ctx context.Context) Session {
	c.mountOnce.Do(func() {
		c.mount(ctx)
	})
	return c.Snapshot()
}

func (c *Context) mount(ctx context.Context) {
	token, err := c.store.Load()
	if err != nil {
		if !errors.Is(err, tokenstore.ErrNotFound) {
			c.logger.Warn().Err(err).Msg("Failed to read persisted token")
		}
		c.SetAuthenticated(false)
		return
	}

	if auth.Expired(token, c.now()) {
		c.logger.Debug().Msg("Persisted token expired, skipping verification")
		c.SetAuthenticated(false)
		return
	}

	resp, err := c.verifier.VerifyToken(ctx, token)
	if err == nil && resp.UserID == "" {
		err = apiclient.ErrNoIdentity
	}
	if err != nil {
		c.logger.Warn().Err(err).Msg("Token verification failed")
		c.SetAuthenticated(false)
		return
	}

	c.update(func(s *Session) {
		s.IsAuthenticated = true
		s.Email = resp.Email
		s.UserID = resp.UserID
		s.AuthToken = token
	})
}

// Verify asks the backend who the current credentials belong to, whatever
// the session currently says. It counts as the Context's mount.
func (c *Context) Verify(ctx context.Context) (Session, error) {
	c.mountOnce.Do(func() {})

	token := c.Token()
	resp, err := c.verifier.VerifyToken(ctx, token)
	if err == nil && resp.UserID == "" {
		err = apiclient.ErrNoIdentity
	}
	if err != nil {
		c.SetAuthenticated(false)
		return c.Snapshot(), err
	}

	c.update(func(s *Session) {
		s.IsAuthenticated = true
		s.Email = resp.Email
		s.UserID = resp.UserID
		s.AuthToken = token
	})
	return c.Snapshot(), nil
}

// Snapshot returns a copy of the current session
func (c *Context) Snapshot() Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

// Token returns the tracked token, or the persisted one when none is tracked
// yet. It lets the Context serve as the HTTP client's token source.
func (c *Context) Token() string {
	if token := c.Snapshot().AuthToken; token != "" {
		return token
	}
	token, err := c.store.Load()
	if err != nil {
		return ""
	}
	return token
}

func (c *Context) SetAuthenticated(v bool) {
	c.update(func(s *Session) { s.IsAuthenticated = v })
}

func (c *Context) SetEmail(email string) {
	c.update(func(s *Session) { s.Email = email })
}

func (c *Context) SetUserID(userID string) {
	c.update(func(s *Session) { s.UserID = userID })
}

func (c *Context) SetAuthToken(token string) {
	c.update(func(s *Session) { s.AuthToken = token })
}

// Login marks the visitor authenticated as id and persists token when one
// was issued. Identity fields left empty in id keep their current value.
// A later Mount does nothing.
func (c *Context) Login(id Identity, token string) error {
	c.mountOnce.Do(func() {})

	if token != "" {
		if err := c.store.Save(token); err != nil {
			return fmt.Errorf("failed to persist token: %w", err)
		}
	}

	c.update(func(s *Session) {
		s.IsAuthenticated = true
		if id.Email != "" {
			s.Email = id.Email
		}
		if id.UserID != "" {
			s.UserID = id.UserID
		}
		if token != "" {
			s.AuthToken = token
		}
	})
	return nil
}

// Logout clears the session and deletes the persisted token
func (c *Context) Logout() error {
	err := c.store.Delete()
	c.update(func(s *Session) { *s = Session{} })
	if err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}

// Subscribe registers fn to run after every change. The returned func
// removes it.
func (c *Context) Subscribe(fn func(Session)) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

func (c *Context) update(mutate func(*Session)) {
	c.mu.Lock()
	before := c.session
	mutate(&c.session)
	after := c.session
	listeners := make([]func(Session), 0, len(c.listeners))
	if after != before {
		for _, fn := range c.listeners {
			listeners = append(listeners, fn)
		}
	}
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(after)
	}
}
