// Package app declares the HTTP routes and the synchronizations that span
// several concepts. It is the only package that calls more than one concept.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/joeydtaylor/steeze-social/pkg/concepts/accounts"
	"github.com/joeydtaylor/steeze-social/pkg/concepts/forums"
	"github.com/joeydtaylor/steeze-social/pkg/concepts/friends"
	"github.com/joeydtaylor/steeze-social/pkg/concepts/posts"
	"github.com/joeydtaylor/steeze-social/pkg/concepts/rewards"
	"github.com/joeydtaylor/steeze-social/pkg/concepts/sessions"
	"github.com/joeydtaylor/steeze-social/pkg/core"
	"github.com/joeydtaylor/steeze-social/pkg/shape"
)

// Concepts is built once at startup and shared by every handler.
type Concepts struct {
	Accounts *accounts.Concept
	Sessions *sessions.Concept
	Posts    *posts.Concept
	Forums   *forums.Concept
	Friends  *friends.Concept
	Rewards  *rewards.Concept
}

// Activity publishes domain events to downstream consumers.
type Activity interface {
	Publish(ctx context.Context, topic string, event any) error
}

type Config struct {
	// PostingBadge is the badge every new post contributes to. Posting
	// awards nothing when no badge of that name is defined.
	PostingBadge  string
	PostingPoints int
}

type App struct {
	c        Concepts
	cfg      Config
	shape    *shape.Shaper
	activity Activity
	log      *zap.Logger
	obs      core.StepObserver
}

type Option func(*App)

func WithActivity(a Activity) Option { return func(x *App) { x.activity = a } }

func WithStepObserver(o core.StepObserver) Option { return func(x *App) { x.obs = o } }

func New(c Concepts, cfg Config, log *zap.Logger, opts ...Option) *App {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.PostingPoints <= 0 {
		cfg.PostingPoints = 5
	}
	a := &App{c: c, cfg: cfg, log: log, activity: discard{}}
	a.shape = shape.New(c.Accounts, log.Named("shape"))
	for _, o := range opts {
		o(a)
	}
	return a
}

type msg struct {
	Msg string `json:"msg"`
}

// decl is a handler method with the parameter names it reads, declared next
// to the method so the registry can check them against the route's specs.
type decl struct {
	name   string
	params []string
	fn     func(*App, context.Context, *core.Args) (any, error)
}

type route struct {
	verb    string
	pattern string
	decl    decl
	params  []core.ParamSpec
	v       core.Validator
}

func on(verb, pattern string, d decl, specs ...core.ParamSpec) route {
	return route{verb: verb, pattern: pattern, decl: d, params: specs}
}

func (a *App) handler(d decl) core.Handler {
	return core.Handler{
		Name:   d.name,
		Params: d.params,
		Fn: func(ctx context.Context, args *core.Args) (any, error) {
			return d.fn(a, ctx, args)
		},
	}
}

func (rt route) with(v core.Validator) route {
	rt.v = v
	return rt
}

// Register adds every route to reg.
func (a *App) Register(reg *core.Registry) error {
	for _, rt := range a.routes() {
		if err := reg.Register(rt.verb, rt.pattern, a.handler(rt.decl), rt.params, rt.v); err != nil {
			return fmt.Errorf("app: %w", err)
		}
	}
	return nil
}

func (a *App) routes() []route {
	var all []route
	all = append(all, a.userRoutes()...)
	all = append(all, a.postRoutes()...)
	all = append(all, a.friendRoutes()...)
	all = append(all, a.badgeRoutes()...)
	all = append(all, a.forumRoutes()...)
	return all
}

func (a *App) sequence(name string) *core.Sequence {
	return core.NewSequence(name, a.log.Named("sync"), a.obs)
}

// Syncs describes every synchronization as its ordered steps. Nothing runs.
func (a *App) Syncs() map[string][]core.StepInfo {
	blank := func(d decl) *core.Args {
		v := make(map[string]any, len(d.params))
		for _, p := range d.params {
			v[p] = ""
		}
		return core.NewArgs(sessions.Resume(""), v)
	}
	none := func(context.Context, string) error { return nil }
	createPost, _ := a.planCreatePost(blank(createPostHandler), posts.Point{})
	createUser, _ := a.planCreateUser(blank(createUserHandler))
	addPoints, _ := a.planAddPoints(blank(addPointsHandler))
	out := map[string][]core.StepInfo{
		"createPost": createPost.Describe(),
		"createUser": createUser.Describe(),
		"deleteUser": a.planDeleteUser(blank(deleteUserHandler)).Describe(),
		"addPoints":  addPoints.Describe(),
	}
	for _, op := range []string{"sendRequest", "removeRequest", "acceptRequest", "rejectRequest", "removeFriend"} {
		out[op] = a.planFriend(op, "", none).Describe()
	}
	return out
}

type discard struct{}

func (discard) Publish(context.Context, string, any) error { return nil }
