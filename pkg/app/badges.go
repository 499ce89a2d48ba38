package app

import (
	"context"

	"github.com/joeydtaylor/steeze-social/pkg/concepts/rewards"
	"github.com/joeydtaylor/steeze-social/pkg/core"
)

func (a *App) badgeRoutes() []route {
	return []route{
		on("GET", "/badges", getDefinedBadgesHandler),
		on("POST", "/badges", defineBadgeHandler,
			core.SessionUser(userParam),
			core.Body("name", core.String).Require(),
			core.Body("logo", core.String).Require(),
			core.Body("threshold", core.Int).Require(),
			core.Body("hashtags", core.StringList)).
			with(core.Rules{"name": "max=64", "threshold": "gt=0"}),
		on("PATCH", "/badges/:badgeId", updateBadgeHandler,
			core.SessionUser(userParam),
			core.Path("badgeId"),
			core.Body("name", core.String),
			core.Body("logo", core.String),
			core.Body("threshold", core.Int),
			core.Body("hashtags", core.StringList)).
			with(core.Rules{"name": "max=64", "threshold": "gt=0"}),
		on("DELETE", "/badges/:badgeId", deleteBadgeHandler,
			core.SessionUser(userParam), core.Path("badgeId")),
		on("GET", "/user/:username/badges", getUserBadgesHandler, core.Path("username")),
		on("POST", "/user/:userId/badges/:badgeId", addPointsHandler,
			core.SessionUser(userParam),
			core.Path("userId"),
			core.Path("badgeId"),
			core.Body("points", core.Int).Require()).
			with(core.Rules{"points": "gt=0"}),
	}
}

var getDefinedBadgesHandler = decl{name: "getDefinedBadges", fn: (*App).getDefinedBadges}

func (a *App) getDefinedBadges(ctx context.Context, _ *core.Args) (any, error) {
	return a.c.Rewards.Badges(ctx)
}

type badgeAdded struct {
	Msg     string `json:"msg"`
	BadgeID string `json:"badgeId"`
}

var defineBadgeHandler = decl{name: "defineBadge", params: []string{userParam, "name", "logo", "threshold", "hashtags"}, fn: (*App).defineBadge}

func (a *App) defineBadge(ctx context.Context, args *core.Args) (any, error) {
	id, err := a.c.Rewards.DefineBadge(ctx, args.String("name"), args.String("logo"), args.Int("threshold"), args.Strings("hashtags"))
	if err != nil {
		return nil, err
	}
	return badgeAdded{Msg: "Badge added successfully!", BadgeID: id}, nil
}

var updateBadgeHandler = decl{name: "updateBadge", params: []string{userParam, "badgeId", "name", "logo", "threshold", "hashtags"}, fn: (*App).updateBadge}

func (a *App) updateBadge(ctx context.Context, args *core.Args) (any, error) {
	var p rewards.BadgePatch
	if args.Has("name") {
		v := args.String("name")
		p.Name = &v
	}
	if args.Has("logo") {
		v := args.String("logo")
		p.Logo = &v
	}
	if args.Has("threshold") {
		v := args.Int("threshold")
		p.Threshold = &v
	}
	if args.Has("hashtags") {
		v := args.Strings("hashtags")
		p.Hashtags = &v
	}
	if _, err := a.c.Rewards.UpdateBadge(ctx, args.String("badgeId"), p); err != nil {
		return nil, err
	}
	return msg{"Badge updated successfully!"}, nil
}

var deleteBadgeHandler = decl{name: "deleteBadge", params: []string{userParam, "badgeId"}, fn: (*App).deleteBadge}

func (a *App) deleteBadge(ctx context.Context, args *core.Args) (any, error) {
	if err := a.c.Rewards.DeleteBadge(ctx, args.String("badgeId")); err != nil {
		return nil, err
	}
	return msg{"Badge deleted successfully!"}, nil
}

var getUserBadgesHandler = decl{name: "getUserBadges", params: []string{"username"}, fn: (*App).getUserBadges}

func (a *App) getUserBadges(ctx context.Context, args *core.Args) (any, error) {
	u, err := a.c.Accounts.GetByUsername(ctx, args.String("username"))
	if err != nil {
		return nil, err
	}
	return a.c.Rewards.UserBadges(ctx, u.ID)
}

type pointsAdded struct {
	Msg      string         `json:"msg"`
	Points   int            `json:"points"`
	Earned   string         `json:"earned"`
	Started  string         `json:"started"`
	Warnings []core.Warning `json:"warnings,omitempty"`
}

// planAddPoints: Accounts.getById, Rewards.ensureUser and Rewards.addPoints
// are required; Activity.publish of an earned badge is degradable. Nothing is
// compensated: points only accumulate.
func (a *App) planAddPoints(args *core.Args) (*core.Sequence, *rewards.Outcome) {
	target := args.String("userId")
	outcome := &rewards.Outcome{}
	seq := a.sequence("addPoints").
		Then(core.Step{Module: "Accounts", Operation: "getById",
			Run: func(ctx context.Context) error {
				_, err := a.c.Accounts.GetByID(ctx, target)
				return err
			}}).
		Then(core.Step{Module: "Rewards", Operation: "ensureUser",
			Run: func(ctx context.Context) error {
				_, err := a.c.Rewards.EnsureUser(ctx, target)
				return err
			}}).
		Then(core.Step{Module: "Rewards", Operation: "addPoints",
			Run: func(ctx context.Context) (err error) {
				*outcome, err = a.c.Rewards.AddPoints(ctx, target, args.String("badgeId"), args.Int("points"))
				return err
			}}).
		Then(core.Step{Module: "Activity", Operation: "publish", Policy: core.Degradable,
			Run: func(ctx context.Context) error {
				return a.publishEarned(ctx, target, []rewards.Outcome{*outcome})
			}})
	return seq, outcome
}

var addPointsHandler = decl{name: "addPoints", params: []string{userParam, "userId", "badgeId", "points"}, fn: (*App).addPoints}

func (a *App) addPoints(ctx context.Context, args *core.Args) (any, error) {
	seq, outcome := a.planAddPoints(args)
	warnings, err := seq.Run(ctx)
	if err != nil {
		return nil, err
	}
	earned, started := summarize([]rewards.Outcome{*outcome})
	return pointsAdded{
		Msg:      "Points added and badge progress updated!",
		Points:   outcome.Points,
		Earned:   earned,
		Started:  started,
		Warnings: warnings,
	}, nil
}
