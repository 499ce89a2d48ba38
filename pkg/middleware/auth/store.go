package auth

import (
	"net/http"

	"github.com/joeydtaylor/steeze-social/pkg/concepts/sessions"
)

// Load satisfies core.SessionStore. It prefers the user already resolved by
// Middleware and falls back to reading the cookie.
func (m *Middleware) Load(r *http.Request) *sessions.Session {
	if uid := UserID(r.Context()); uid != "" {
		return sessions.Resume(uid)
	}
	return sessions.Resume(m.resolve(r))
}

// Save writes the session cookie, or expires it when nobody is logged in.
func (m *Middleware) Save(w http.ResponseWriter, s *sessions.Session) error {
	uid := s.UserID()
	if uid == "" {
		http.SetCookie(w, &http.Cookie{
			Name:     m.cookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   m.secure,
			SameSite: http.SameSiteLaxMode,
		})
		return nil
	}
	tok, err := m.issue(uid)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    tok,
		Path:     "/",
		Expires:  m.now().Add(m.ttl),
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}
