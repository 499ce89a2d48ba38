// Package friends owns friend requests and the symmetric friendship relation.
package friends

import (
	"context"

	"github.com/joeydtaylor/steeze-social/pkg/apperr"
	"github.com/joeydtaylor/steeze-social/pkg/store"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
)

type Friendship struct {
	store.Meta
	User1 string `json:"user1"`
	User2 string `json:"user2"`
}

type Request struct {
	store.Meta
	From   string `json:"from"`
	To     string `json:"to"`
	Status Status `json:"status"`
}

type Concept struct {
	friendships *store.Collection[Friendship]
	requests    *store.Collection[Request]
}

func New(b store.Backend, collection string) *Concept {
	return &Concept{
		friendships: store.NewCollection[Friendship](b, collection),
		requests:    store.NewCollection[Request](b, collection+"_requests"),
	}
}

// Friends returns the ids of user's friends.
func (c *Concept) Friends(ctx context.Context, user string) ([]string, error) {
	var out []string
	a, err := c.friendships.Find(ctx, store.Where(store.Eq("user1", user)))
	if err != nil {
		return nil, err
	}
	for _, f := range a {
		out = append(out, f.User2)
	}
	b, err := c.friendships.Find(ctx, store.Where(store.Eq("user2", user)))
	if err != nil {
		return nil, err
	}
	for _, f := range b {
		out = append(out, f.User1)
	}
	return out, nil
}

// Requests returns requests sent by or to user, in creation order.
func (c *Concept) Requests(ctx context.Context, user string) ([]Request, error) {
	all, err := c.requests.Find(ctx, nil)
	if err != nil {
		return nil, err
	}
	out := make([]Request, 0, len(all))
	for _, r := range all {
		if r.From == user || r.To == user {
			out = append(out, r)
		}
	}
	return out, nil
}

func (c *Concept) SendRequest(ctx context.Context, from, to string) error {
	if from == to {
		return apperr.NotAllowed("Cannot send a friend request to yourself!")
	}
	if err := c.assertNotFriends(ctx, from, to); err != nil {
		return err
	}
	if err := c.assertNoPending(ctx, from, to); err != nil {
		return err
	}
	_, err := c.requests.Create(ctx, Request{From: from, To: to, Status: StatusPending})
	return err
}

func (c *Concept) RemoveRequest(ctx context.Context, from, to string) error {
	r, err := c.pending(ctx, from, to)
	if err != nil {
		return err
	}
	return c.requests.Delete(ctx, r.ID)
}

// AcceptRequest leaves the request pending when the pair is already friends.
func (c *Concept) AcceptRequest(ctx context.Context, from, to string) error {
	if _, err := c.pending(ctx, from, to); err != nil {
		return err
	}
	if err := c.assertNotFriends(ctx, from, to); err != nil {
		return err
	}
	if err := c.settle(ctx, from, to, StatusAccepted); err != nil {
		return err
	}
	_, err := c.friendships.Create(ctx, Friendship{User1: from, User2: to})
	return err
}

func (c *Concept) RejectRequest(ctx context.Context, from, to string) error {
	return c.settle(ctx, from, to, StatusRejected)
}

func (c *Concept) RemoveFriend(ctx context.Context, user, friend string) error {
	f, err := c.friendship(ctx, user, friend)
	if err != nil {
		return err
	}
	if f == nil {
		return apperr.NotFound("Friendship between %s and %s not found!", user, friend)
	}
	return c.friendships.Delete(ctx, f.ID)
}

func (c *Concept) settle(ctx context.Context, from, to string, status Status) error {
	r, err := c.pending(ctx, from, to)
	if err != nil {
		return err
	}
	_, err = c.requests.Update(ctx, r.ID, func(r *Request) error {
		r.Status = status
		return nil
	})
	return err
}

func (c *Concept) pending(ctx context.Context, from, to string) (Request, error) {
	r, err := c.requests.FindOne(ctx, store.Where(
		store.Eq("from", from), store.Eq("to", to), store.Eq("status", StatusPending),
	))
	if store.IsNotFound(err) {
		return Request{}, apperr.NotFound("Friend request from %s to %s does not exist!", from, to)
	}
	return r, err
}

func (c *Concept) friendship(ctx context.Context, u1, u2 string) (*Friendship, error) {
	for _, pair := range [][2]string{{u1, u2}, {u2, u1}} {
		f, err := c.friendships.FindOne(ctx, store.Where(store.Eq("user1", pair[0]), store.Eq("user2", pair[1])))
		if err == nil {
			return &f, nil
		}
		if !store.IsNotFound(err) {
			return nil, err
		}
	}
	return nil, nil
}

func (c *Concept) assertNotFriends(ctx context.Context, u1, u2 string) error {
	f, err := c.friendship(ctx, u1, u2)
	if err != nil {
		return err
	}
	if f != nil {
		return apperr.Conflict("%s and %s are already friends!", u1, u2)
	}
	return nil
}

func (c *Concept) assertNoPending(ctx context.Context, u1, u2 string) error {
	for _, pair := range [][2]string{{u1, u2}, {u2, u1}} {
		_, err := c.pending(ctx, pair[0], pair[1])
		if err == nil {
			return apperr.Conflict("Friend request between %s and %s already exists!", u1, u2)
		}
		if !apperr.IsKind(err, apperr.KindNotFound) {
			return err
		}
	}
	return nil
}
