package app

import (
	"context"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/joeydtaylor/steeze-social/pkg/apperr"
	"github.com/joeydtaylor/steeze-social/pkg/concepts/posts"
	"github.com/joeydtaylor/steeze-social/pkg/concepts/rewards"
	"github.com/joeydtaylor/steeze-social/pkg/core"
)

func (a *App) postRoutes() []route {
	return []route{
		on("POST", "/posts", createPostHandler,
			core.SessionUser(userParam),
			core.Body("description", core.String).Require(),
			core.Body("image", core.String).Require(),
			core.Body("location", core.Object).Require(),
			core.Body("hashtags", core.StringList)).
			with(core.ValidatorFunc(func(args *core.Args) error {
				_, err := location(args)
				return err
			})),
		on("DELETE", "/posts/:postId", deletePostHandler,
			core.SessionUser(userParam), core.Path("postId")),
		on("PATCH", "/posts/:postId", editPostHandler,
			core.SessionUser(userParam),
			core.Path("postId"),
			core.Body("description", core.String).Require(),
			core.Body("hashtags", core.StringList)),
		on("GET", "/posts/:author?", getPostsHandler, core.OptionalPath("author")),
		on("GET", "/posts/:postId/likes", getLikesHandler, core.Path("postId")),
		on("POST", "/posts/:postId/likes", changeLikesHandler,
			core.SessionUser(userParam),
			core.Path("postId"),
			core.Body("num", core.Int).Require()),
		on("POST", "/posts/:postId/boost", boostPostHandler,
			core.SessionUser(userParam), core.Path("postId")),
		on("GET", "/posts/:postId/hashtags", getHashtagsHandler, core.Path("postId")),
	}
}

// location reads {x, y}; clients send the coordinates as strings or numbers.
func location(args *core.Args) (posts.Point, error) {
	obj := args.Object("location")
	x, okX := coordinate(obj["x"])
	y, okY := coordinate(obj["y"])
	if !okX || !okY {
		return posts.Point{}, apperr.Validation("location", "x and y must be numbers")
	}
	return posts.Point{X: x, Y: y}, nil
}

func coordinate(v any) (float64, bool) {
	switch x := v.(type) {
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	case interface{ Float64() (float64, error) }:
		f, err := x.Float64()
		return f, err == nil
	case float64:
		return x, true
	}
	return 0, false
}

const (
	statusNoChange = "no change"
	statusUpdated  = "updated"
	statusStarted  = "start new badge"
)

type postCreated struct {
	Msg      string         `json:"msg"`
	PostID   string         `json:"postId"`
	Earned   string         `json:"earned"`
	Started  string         `json:"started"`
	Warnings []core.Warning `json:"warnings,omitempty"`
}

// Activity topics.
const (
	TopicPostCreated = "post.created"
	TopicBadgeEarned = "badge.earned"
)

type PostCreatedEvent struct {
	PostID   string   `json:"postId"`
	Author   string   `json:"author"`
	Hashtags []string `json:"hashtags"`
}

type BadgeEarnedEvent struct {
	UserID    string `json:"userId"`
	BadgeID   string `json:"badgeId"`
	BadgeName string `json:"badgeName"`
	Points    int    `json:"points"`
}

type postPlan struct {
	created  posts.Created
	outcomes []rewards.Outcome
}

// planCreatePost: Posts.create (required), then Rewards.ensureUser,
// Rewards.addPoints for the posting badge, Rewards.addPointsForHashtags and
// Activity.publish, all degradable. The post is never rolled back; a failed
// reward step is reported as a warning and skips the steps after it. Points
// accumulate, so retrying only the reward steps never corrupts progress.
func (a *App) planCreatePost(args *core.Args, at posts.Point) (*core.Sequence, *postPlan) {
	user := args.String(userParam)
	st := &postPlan{}
	seq := a.sequence("createPost").
		Then(core.Step{Module: "Posts", Operation: "create",
			Run: func(ctx context.Context) (err error) {
				st.created, err = a.c.Posts.Create(ctx, user, args.String("description"), args.String("image"), at, args.Strings("hashtags"))
				return err
			}}).
		Then(core.Step{Module: "Rewards", Operation: "ensureUser", Policy: core.Degradable,
			Run: func(ctx context.Context) error {
				_, err := a.c.Rewards.EnsureUser(ctx, user)
				return err
			}}).
		Then(core.Step{Module: "Rewards", Operation: "addPoints", Policy: core.Degradable,
			Run: func(ctx context.Context) error {
				o, err := a.awardPosting(ctx, user)
				st.outcomes = append(st.outcomes, o...)
				return err
			}}).
		Then(core.Step{Module: "Rewards", Operation: "addPointsForHashtags", Policy: core.Degradable,
			Run: func(ctx context.Context) error {
				o, err := a.c.Rewards.AddPointsForHashtags(ctx, user, st.created.Hashtags)
				st.outcomes = append(st.outcomes, o...)
				return err
			}}).
		Then(core.Step{Module: "Activity", Operation: "publish", Policy: core.Degradable,
			Run: func(ctx context.Context) error {
				ev := PostCreatedEvent{PostID: st.created.ID, Author: user, Hashtags: st.created.Hashtags}
				if err := a.activity.Publish(ctx, TopicPostCreated, ev); err != nil {
					return err
				}
				return a.publishEarned(ctx, user, st.outcomes)
			}})
	return seq, st
}

var createPostHandler = decl{name: "createPost", params: []string{userParam, "description", "image", "location", "hashtags"}, fn: (*App).createPost}

func (a *App) createPost(ctx context.Context, args *core.Args) (any, error) {
	at, err := location(args)
	if err != nil {
		return nil, err
	}
	seq, st := a.planCreatePost(args, at)
	warnings, err := seq.Run(ctx)
	if err != nil {
		return nil, err
	}
	earned, started := summarize(st.outcomes)
	return postCreated{
		Msg:      "Post successfully created!",
		PostID:   st.created.ID,
		Earned:   earned,
		Started:  started,
		Warnings: warnings,
	}, nil
}

// awardPosting adds the posting points. Without a posting badge there is
// nothing to award.
func (a *App) awardPosting(ctx context.Context, user string) ([]rewards.Outcome, error) {
	if a.cfg.PostingBadge == "" {
		return nil, nil
	}
	badge, err := a.c.Rewards.BadgeByName(ctx, a.cfg.PostingBadge)
	if apperr.IsKind(err, apperr.KindNotFound) {
		a.log.Debug("posting badge not defined", zap.String("badge", a.cfg.PostingBadge))
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	o, err := a.c.Rewards.AddPoints(ctx, user, badge.ID, a.cfg.PostingPoints)
	if err != nil {
		return nil, err
	}
	return []rewards.Outcome{o}, nil
}

func (a *App) publishEarned(ctx context.Context, user string, outcomes []rewards.Outcome) error {
	for _, o := range outcomes {
		if !o.Earned {
			continue
		}
		ev := BadgeEarnedEvent{UserID: user, BadgeID: o.BadgeID, BadgeName: o.BadgeName, Points: o.Points}
		if err := a.activity.Publish(ctx, TopicBadgeEarned, ev); err != nil {
			return err
		}
	}
	return nil
}

func summarize(outcomes []rewards.Outcome) (earned, started string) {
	earned, started = statusNoChange, statusNoChange
	for _, o := range outcomes {
		if o.Earned {
			earned = statusUpdated
		}
		if o.Started {
			started = statusStarted
		}
	}
	return earned, started
}

var deletePostHandler = decl{name: "deletePost", params: []string{userParam, "postId"}, fn: (*App).deletePost}

func (a *App) deletePost(ctx context.Context, args *core.Args) (any, error) {
	if err := a.c.Posts.Delete(ctx, args.String(userParam), args.String("postId")); err != nil {
		return nil, err
	}
	return msg{"Post deleted successfully!"}, nil
}

var editPostHandler = decl{name: "editPost", params: []string{userParam, "postId", "description", "hashtags"}, fn: (*App).editPost}

func (a *App) editPost(ctx context.Context, args *core.Args) (any, error) {
	err := a.c.Posts.Edit(ctx, args.String(userParam), args.String("postId"), args.String("description"), args.Strings("hashtags"))
	if err != nil {
		return nil, err
	}
	return msg{"Post successfully updated!"}, nil
}

// getPosts lists every post, or only the posts of author when given.
var getPostsHandler = decl{name: "getPosts", params: []string{"author"}, fn: (*App).getPosts}

func (a *App) getPosts(ctx context.Context, args *core.Args) (any, error) {
	var (
		list []posts.Post
		err  error
	)
	if args.Has("author") {
		u, lerr := a.c.Accounts.GetByUsername(ctx, args.String("author"))
		if lerr != nil {
			return nil, lerr
		}
		list, err = a.c.Posts.ByAuthor(ctx, u.ID)
	} else {
		list, err = a.c.Posts.List(ctx)
	}
	if err != nil {
		return nil, err
	}
	return a.shape.Posts(ctx, list), nil
}

type likes struct {
	Likes int `json:"likes"`
}

var getLikesHandler = decl{name: "getLikes", params: []string{"postId"}, fn: (*App).getLikes}

func (a *App) getLikes(ctx context.Context, args *core.Args) (any, error) {
	n, err := a.c.Posts.Likes(ctx, args.String("postId"))
	if err != nil {
		return nil, err
	}
	return likes{n}, nil
}

var changeLikesHandler = decl{name: "changeLikes", params: []string{userParam, "postId", "num"}, fn: (*App).changeLikes}

func (a *App) changeLikes(ctx context.Context, args *core.Args) (any, error) {
	n, err := a.c.Posts.ChangeLikes(ctx, args.String("postId"), args.Int("num"))
	if err != nil {
		return nil, err
	}
	return likes{n}, nil
}

type boosted struct {
	Msg   string `json:"msg"`
	Boost int    `json:"boost"`
}

var boostPostHandler = decl{name: "boostPost", params: []string{userParam, "postId"}, fn: (*App).boostPost}

func (a *App) boostPost(ctx context.Context, args *core.Args) (any, error) {
	n, err := a.c.Posts.Boost(ctx, args.String("postId"))
	if err != nil {
		return nil, err
	}
	return boosted{Msg: "Post boosted successfully!", Boost: n}, nil
}

type hashtags struct {
	Hashtags []string `json:"hashtags"`
}

var getHashtagsHandler = decl{name: "getHashtags", params: []string{"postId"}, fn: (*App).getHashtags}

func (a *App) getHashtags(ctx context.Context, args *core.Args) (any, error) {
	tags, err := a.c.Posts.Hashtags(ctx, args.String("postId"))
	if err != nil {
		return nil, err
	}
	return hashtags{tags}, nil
}
