package app

import (
	"context"

	"github.com/joeydtaylor/steeze-social/pkg/core"
)

func (a *App) friendRoutes() []route {
	return []route{
		on("GET", "/friends", getFriendsHandler, core.SessionUser(userParam)),
		on("DELETE", "/friends/:friend", removeFriendHandler,
			core.SessionUser(userParam), core.Path("friend")),
		on("GET", "/friend/requests", getRequestsHandler, core.SessionUser(userParam)),
		on("POST", "/friend/requests/:to", sendFriendRequestHandler,
			core.SessionUser(userParam), core.Path("to")),
		on("DELETE", "/friend/requests/:to", removeFriendRequestHandler,
			core.SessionUser(userParam), core.Path("to")),
		on("PUT", "/friend/accept/:from", acceptFriendRequestHandler,
			core.SessionUser(userParam), core.Path("from")),
		on("PUT", "/friend/reject/:from", rejectFriendRequestHandler,
			core.SessionUser(userParam), core.Path("from")),
	}
}

var getFriendsHandler = decl{name: "getFriends", params: []string{userParam}, fn: (*App).getFriends}

func (a *App) getFriends(ctx context.Context, args *core.Args) (any, error) {
	ids, err := a.c.Friends.Friends(ctx, args.String(userParam))
	if err != nil {
		return nil, err
	}
	return a.shape.Usernames(ctx, ids), nil
}

var getRequestsHandler = decl{name: "getRequests", params: []string{userParam}, fn: (*App).getRequests}

func (a *App) getRequests(ctx context.Context, args *core.Args) (any, error) {
	reqs, err := a.c.Friends.Requests(ctx, args.String(userParam))
	if err != nil {
		return nil, err
	}
	return a.shape.FriendRequests(ctx, reqs), nil
}

// planFriend runs the friend operation op against the user named by the
// path parameter: Accounts.getByUsername then Friends.<op>, both required.
// The lookup is read-only so nothing needs compensating.
func (a *App) planFriend(op, username string, fn func(ctx context.Context, other string) error) *core.Sequence {
	var other string
	return a.sequence(op).
		Then(core.Step{Module: "Accounts", Operation: "getByUsername",
			Run: func(ctx context.Context) error {
				u, err := a.c.Accounts.GetByUsername(ctx, username)
				other = u.ID
				return err
			}}).
		Then(core.Step{Module: "Friends", Operation: op,
			Run: func(ctx context.Context) error { return fn(ctx, other) }})
}

func (a *App) withFriend(ctx context.Context, op, username string, fn func(ctx context.Context, other string) error) error {
	_, err := a.planFriend(op, username, fn).Run(ctx)
	return err
}

var removeFriendHandler = decl{name: "removeFriend", params: []string{userParam, "friend"}, fn: (*App).removeFriend}

func (a *App) removeFriend(ctx context.Context, args *core.Args) (any, error) {
	user := args.String(userParam)
	err := a.withFriend(ctx, "removeFriend", args.String("friend"), func(ctx context.Context, other string) error {
		return a.c.Friends.RemoveFriend(ctx, user, other)
	})
	if err != nil {
		return nil, err
	}
	return msg{"Unfriended!"}, nil
}

var sendFriendRequestHandler = decl{name: "sendFriendRequest", params: []string{userParam, "to"}, fn: (*App).sendFriendRequest}

func (a *App) sendFriendRequest(ctx context.Context, args *core.Args) (any, error) {
	user := args.String(userParam)
	err := a.withFriend(ctx, "sendRequest", args.String("to"), func(ctx context.Context, other string) error {
		return a.c.Friends.SendRequest(ctx, user, other)
	})
	if err != nil {
		return nil, err
	}
	return msg{"Sent request!"}, nil
}

var removeFriendRequestHandler = decl{name: "removeFriendRequest", params: []string{userParam, "to"}, fn: (*App).removeFriendRequest}

func (a *App) removeFriendRequest(ctx context.Context, args *core.Args) (any, error) {
	user := args.String(userParam)
	err := a.withFriend(ctx, "removeRequest", args.String("to"), func(ctx context.Context, other string) error {
		return a.c.Friends.RemoveRequest(ctx, user, other)
	})
	if err != nil {
		return nil, err
	}
	return msg{"Removed request!"}, nil
}

var acceptFriendRequestHandler = decl{name: "acceptFriendRequest", params: []string{userParam, "from"}, fn: (*App).acceptFriendRequest}

func (a *App) acceptFriendRequest(ctx context.Context, args *core.Args) (any, error) {
	user := args.String(userParam)
	err := a.withFriend(ctx, "acceptRequest", args.String("from"), func(ctx context.Context, other string) error {
		return a.c.Friends.AcceptRequest(ctx, other, user)
	})
	if err != nil {
		return nil, err
	}
	return msg{"Accepted request!"}, nil
}

var rejectFriendRequestHandler = decl{name: "rejectFriendRequest", params: []string{userParam, "from"}, fn: (*App).rejectFriendRequest}

func (a *App) rejectFriendRequest(ctx context.Context, args *core.Args) (any, error) {
	user := args.String(userParam)
	err := a.withFriend(ctx, "rejectRequest", args.String("from"), func(ctx context.Context, other string) error {
		return a.c.Friends.RejectRequest(ctx, other, user)
	})
	if err != nil {
		return nil, err
	}
	return msg{"Rejected request!"}, nil
}
