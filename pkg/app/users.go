package app

import (
	"context"

	"github.com/joeydtaylor/steeze-social/pkg/concepts/accounts"
	"github.com/joeydtaylor/steeze-social/pkg/core"
)

const userParam = "user"

func (a *App) userRoutes() []route {
	return []route{
		on("GET", "/session", getSessionUserHandler, core.SessionUser(userParam)),
		on("GET", "/users", getUsersHandler),
		on("GET", "/users/:username", getUserHandler, core.Path("username")).
			with(core.Rules{"username": "min=1"}),
		on("POST", "/users", createUserHandler,
			core.Body("username", core.String).Require(),
			core.Body("password", core.String).Require()),
		on("PATCH", "/users/username", updateUsernameHandler,
			core.SessionUser(userParam),
			core.Body("username", core.String).Require()),
		on("PATCH", "/users/password", updatePasswordHandler,
			core.SessionUser(userParam),
			core.Body("currentPassword", core.String).Require(),
			core.Body("newPassword", core.String).Require()),
		on("DELETE", "/users", deleteUserHandler, core.SessionUser(userParam)),
		on("POST", "/login", logInHandler,
			core.Body("username", core.String).Require(),
			core.Body("password", core.String).Require()),
		on("POST", "/logout", logOutHandler, core.SessionUser(userParam)),
	}
}

var getSessionUserHandler = decl{name: "getSessionUser", params: []string{userParam}, fn: (*App).getSessionUser}

func (a *App) getSessionUser(ctx context.Context, args *core.Args) (any, error) {
	return a.c.Accounts.GetByID(ctx, args.String(userParam))
}

var getUsersHandler = decl{name: "getUsers", fn: (*App).getUsers}

func (a *App) getUsers(ctx context.Context, _ *core.Args) (any, error) {
	return a.c.Accounts.List(ctx)
}

var getUserHandler = decl{name: "getUser", params: []string{"username"}, fn: (*App).getUser}

func (a *App) getUser(ctx context.Context, args *core.Args) (any, error) {
	return a.c.Accounts.GetByUsername(ctx, args.String("username"))
}

type userCreated struct {
	Msg  string        `json:"msg"`
	User accounts.View `json:"user"`
}

// planCreateUser: Sessions.isLoggedOut, Accounts.create, Rewards.ensureUser.
// Every step is required; a failed reward record deletes the new account so
// no user exists without one.
func (a *App) planCreateUser(args *core.Args) (*core.Sequence, *accounts.View) {
	user := &accounts.View{}
	seq := a.sequence("createUser").
		Then(core.Step{Module: "Sessions", Operation: "isLoggedOut",
			Run: func(context.Context) error { return a.c.Sessions.IsLoggedOut(args.Session()) }}).
		Then(core.Step{Module: "Accounts", Operation: "create",
			Run: func(ctx context.Context) (err error) {
				*user, err = a.c.Accounts.Create(ctx, args.String("username"), args.String("password"))
				return err
			},
			Compensate: func(ctx context.Context) error { return a.c.Accounts.Delete(ctx, user.ID) }}).
		Then(core.Step{Module: "Rewards", Operation: "ensureUser",
			Run: func(ctx context.Context) error {
				_, err := a.c.Rewards.EnsureUser(ctx, user.ID)
				return err
			}})
	return seq, user
}

var createUserHandler = decl{name: "createUser", params: []string{"username", "password"}, fn: (*App).createUser}

func (a *App) createUser(ctx context.Context, args *core.Args) (any, error) {
	seq, user := a.planCreateUser(args)
	if _, err := seq.Run(ctx); err != nil {
		return nil, err
	}
	return userCreated{Msg: "User created successfully!", User: *user}, nil
}

var updateUsernameHandler = decl{name: "updateUsername", params: []string{userParam, "username"}, fn: (*App).updateUsername}

func (a *App) updateUsername(ctx context.Context, args *core.Args) (any, error) {
	if err := a.c.Accounts.UpdateUsername(ctx, args.String(userParam), args.String("username")); err != nil {
		return nil, err
	}
	return msg{"Updated username!"}, nil
}

var updatePasswordHandler = decl{name: "updatePassword", params: []string{userParam, "currentPassword", "newPassword"}, fn: (*App).updatePassword}

func (a *App) updatePassword(ctx context.Context, args *core.Args) (any, error) {
	err := a.c.Accounts.UpdatePassword(ctx, args.String(userParam), args.String("currentPassword"), args.String("newPassword"))
	if err != nil {
		return nil, err
	}
	return msg{"Updated password!"}, nil
}

type withWarnings struct {
	Msg      string         `json:"msg"`
	Warnings []core.Warning `json:"warnings,omitempty"`
}

// planDeleteUser: Accounts.delete, Sessions.end, then Rewards.removeUser as
// a degradable cleanup. The session ends before the cleanup so a failed
// cleanup cannot leave the client logged in as a deleted user.
func (a *App) planDeleteUser(args *core.Args) *core.Sequence {
	user := args.String(userParam)
	return a.sequence("deleteUser").
		Then(core.Step{Module: "Accounts", Operation: "delete",
			Run: func(ctx context.Context) error { return a.c.Accounts.Delete(ctx, user) }}).
		Then(core.Step{Module: "Sessions", Operation: "end",
			Run: func(context.Context) error { return a.c.Sessions.End(args.Session()) }}).
		Then(core.Step{Module: "Rewards", Operation: "removeUser", Policy: core.Degradable,
			Run: func(ctx context.Context) error { return a.c.Rewards.RemoveUser(ctx, user) }})
}

var deleteUserHandler = decl{name: "deleteUser", params: []string{userParam}, fn: (*App).deleteUser}

func (a *App) deleteUser(ctx context.Context, args *core.Args) (any, error) {
	warnings, err := a.planDeleteUser(args).Run(ctx)
	if err != nil {
		return nil, err
	}
	return withWarnings{Msg: "Deleted user!", Warnings: warnings}, nil
}

var logInHandler = decl{name: "logIn", params: []string{"username", "password"}, fn: (*App).logIn}

func (a *App) logIn(ctx context.Context, args *core.Args) (any, error) {
	if err := a.c.Sessions.IsLoggedOut(args.Session()); err != nil {
		return nil, err
	}
	u, err := a.c.Accounts.Authenticate(ctx, args.String("username"), args.String("password"))
	if err != nil {
		return nil, err
	}
	if err := a.c.Sessions.Start(args.Session(), u.ID); err != nil {
		return nil, err
	}
	return msg{"Logged in!"}, nil
}

var logOutHandler = decl{name: "logOut", params: []string{userParam}, fn: (*App).logOut}

func (a *App) logOut(_ context.Context, args *core.Args) (any, error) {
	if err := a.c.Sessions.End(args.Session()); err != nil {
		return nil, err
	}
	return msg{"Logged out!"}, nil
}
