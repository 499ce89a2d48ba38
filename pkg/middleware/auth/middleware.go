// Package auth carries the session in a signed HS256 cookie and resolves it
// into a sessions.Session for the dispatcher.
package auth

import (
	"errors"
	"time"

	"github.com/joeydtaylor/steeze-social/pkg/manifest"
)

type contextKey struct{ name string }

var userCtxKey = &contextKey{"user"}

const issuer = "postd"

type Middleware struct {
	cookieName string
	secret     []byte
	ttl        time.Duration
	secure     bool
	leeway     time.Duration
	devBypass  bool
	now        func() time.Time
}

type Option func(*Middleware)

// WithDevBypass trusts the X-Dev-User header. Local testing only.
func WithDevBypass(on bool) Option { return func(m *Middleware) { m.devBypass = on } }

// WithClock overrides the token clock.
func WithClock(now func() time.Time) Option { return func(m *Middleware) { m.now = now } }

func New(cfg manifest.Session, opts ...Option) (*Middleware, error) {
	if cfg.Secret == "" {
		return nil, errors.New("auth: session secret required")
	}
	if cfg.CookieName == "" {
		return nil, errors.New("auth: cookie name required")
	}
	m := &Middleware{
		cookieName: cfg.CookieName,
		secret:     []byte(cfg.Secret),
		ttl:        time.Duration(cfg.TTLMinutes) * time.Minute,
		secure:     cfg.Secure,
		leeway:     30 * time.Second,
		now:        time.Now,
	}
	if m.ttl <= 0 {
		m.ttl = 24 * time.Hour
	}
	for _, o := range opts {
		o(m)
	}
	return m, nil
}

// CookieName is the name of the session cookie.
func (m *Middleware) CookieName() string { return m.cookieName }
