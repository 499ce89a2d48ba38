// Package accounts owns user records: usernames and password hashes.
package accounts

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/joeydtaylor/steeze-social/pkg/apperr"
	"github.com/joeydtaylor/steeze-social/pkg/store"
)

// User is the stored record. PasswordHash never leaves this package through
// a View.
type User struct {
	store.Meta
	Username     string `json:"username"`
	PasswordHash string `json:"passwordHash"`
}

// View is the client-safe projection of a User.
type View struct {
	ID       string `json:"_id"`
	Username string `json:"username"`
}

func (u User) View() View { return View{ID: u.ID, Username: u.Username} }

type Concept struct {
	users *store.Collection[User]
	cost  int
}

type Option func(*Concept)

// WithBcryptCost lowers the hashing cost; tests use bcrypt.MinCost.
func WithBcryptCost(cost int) Option { return func(c *Concept) { c.cost = cost } }

func New(b store.Backend, collection string, opts ...Option) *Concept {
	c := &Concept{users: store.NewCollection[User](b, collection), cost: bcrypt.DefaultCost}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Concept) Create(ctx context.Context, username, password string) (View, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return View{}, apperr.Validation("username", "username and password must be non-empty")
	}
	if err := c.assertUsernameFree(ctx, username); err != nil {
		return View{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), c.cost)
	if err != nil {
		return View{}, err
	}
	id, err := c.users.Create(ctx, User{Username: username, PasswordHash: string(hash)})
	if err != nil {
		return View{}, err
	}
	return View{ID: id, Username: username}, nil
}

// Authenticate returns the user when the credentials match.
func (c *Concept) Authenticate(ctx context.Context, username, password string) (View, error) {
	u, err := c.users.FindOne(ctx, store.Where(store.Eq("username", username)))
	if store.IsNotFound(err) {
		return View{}, apperr.Unauthenticated("Username or password is incorrect.")
	}
	if err != nil {
		return View{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return View{}, apperr.Unauthenticated("Username or password is incorrect.")
	}
	return u.View(), nil
}

func (c *Concept) GetByID(ctx context.Context, id string) (View, error) {
	u, err := c.users.Get(ctx, id)
	if store.IsNotFound(err) {
		return View{}, apperr.NotFound("User not found!")
	}
	if err != nil {
		return View{}, err
	}
	return u.View(), nil
}

func (c *Concept) GetByUsername(ctx context.Context, username string) (View, error) {
	u, err := c.users.FindOne(ctx, store.Where(store.Eq("username", username)))
	if store.IsNotFound(err) {
		return View{}, apperr.NotFound("User with username %s not found!", username)
	}
	if err != nil {
		return View{}, err
	}
	return u.View(), nil
}

// List returns users ordered by username.
func (c *Concept) List(ctx context.Context) ([]View, error) {
	all, err := c.users.Find(ctx, nil)
	if err != nil {
		return nil, err
	}
	out := make([]View, 0, len(all))
	for _, u := range all {
		out = append(out, u.View())
	}
	sortByUsername(out)
	return out, nil
}

// Usernames resolves ids to usernames. Unknown ids are simply absent from
// the result.
func (c *Concept) Usernames(ctx context.Context, ids []string) (map[string]string, error) {
	out := make(map[string]string, len(ids))
	for _, id := range ids {
		if _, done := out[id]; done || id == "" {
			continue
		}
		u, err := c.users.Get(ctx, id)
		if store.IsNotFound(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out[id] = u.Username
	}
	return out, nil
}

func (c *Concept) UpdateUsername(ctx context.Context, id, username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return apperr.Validation("username", "must be non-empty")
	}
	if err := c.assertUsernameFree(ctx, username); err != nil {
		return err
	}
	_, err := c.users.Update(ctx, id, func(u *User) error {
		u.Username = username
		return nil
	})
	return c.notFound(err)
}

func (c *Concept) UpdatePassword(ctx context.Context, id, current, next string) error {
	if next == "" {
		return apperr.Validation("newPassword", "must be non-empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), c.cost)
	if err != nil {
		return err
	}
	_, err = c.users.Update(ctx, id, func(u *User) error {
		if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(current)) != nil {
			return apperr.NotAllowed("The given current password is wrong!")
		}
		u.PasswordHash = string(hash)
		return nil
	})
	return c.notFound(err)
}

func (c *Concept) Delete(ctx context.Context, id string) error {
	return c.notFound(c.users.Delete(ctx, id))
}

func (c *Concept) assertUsernameFree(ctx context.Context, username string) error {
	_, err := c.users.FindOne(ctx, store.Where(store.Eq("username", username)))
	switch {
	case err == nil:
		return apperr.Conflict("User with username %s already exists!", username)
	case errors.Is(err, store.ErrNotFound):
		return nil
	default:
		return err
	}
}

func (c *Concept) notFound(err error) error {
	if store.IsNotFound(err) {
		return apperr.NotFound("User not found!")
	}
	return err
}
