// Package sessions tracks which user, if any, a request's session belongs to.
// The session itself travels in a signed cookie; this package only owns the
// state transitions.
package sessions

import "github.com/joeydtaylor/steeze-social/pkg/apperr"

// Session is per-request state resolved from the session cookie. It is never
// shared across requests.
type Session struct {
	userID  string
	changed bool
}

// Resume builds a session for an already-authenticated user id ("" for none).
func Resume(userID string) *Session { return &Session{userID: userID} }

// UserID returns "" when nobody is logged in.
func (s *Session) UserID() string {
	if s == nil {
		return ""
	}
	return s.userID
}

// Changed reports whether the session must be written back to the client.
func (s *Session) Changed() bool { return s != nil && s.changed }

type Concept struct{}

func New() *Concept { return &Concept{} }

func (c *Concept) Start(s *Session, userID string) error {
	if err := c.IsLoggedOut(s); err != nil {
		return err
	}
	s.userID = userID
	s.changed = true
	return nil
}

func (c *Concept) End(s *Session) error {
	if _, err := c.User(s); err != nil {
		return err
	}
	s.userID = ""
	s.changed = true
	return nil
}

// User returns the logged-in user or an authentication error.
func (c *Concept) User(s *Session) (string, error) {
	if s.UserID() == "" {
		return "", apperr.Unauthenticated("Must be logged in!")
	}
	return s.userID, nil
}

// IsLoggedOut fails when the session already has a user.
func (c *Concept) IsLoggedOut(s *Session) error {
	if s == nil {
		return apperr.Validation("session", "missing")
	}
	if s.userID != "" {
		return apperr.NotAllowed("Must be logged out!")
	}
	return nil
}
