package app

import (
	"context"

	"github.com/joeydtaylor/steeze-social/pkg/concepts/forums"
	"github.com/joeydtaylor/steeze-social/pkg/core"
)

func (a *App) forumRoutes() []route {
	return []route{
		on("POST", "/forums", createForumHandler,
			core.SessionUser(userParam),
			core.Body("title", core.String).Require(),
			core.Body("description", core.String).Require()),
		on("DELETE", "/forums/:forumId", deleteForumHandler,
			core.SessionUser(userParam), core.Path("forumId")),
		on("PATCH", "/forums/:forumId", editForumHandler,
			core.SessionUser(userParam),
			core.Path("forumId"),
			core.Body("title", core.String).Require(),
			core.Body("description", core.String).Require()),
		on("POST", "/forums/comments/:forumId", addCommentHandler,
			core.SessionUser(userParam),
			core.Path("forumId"),
			core.Body("text", core.String).Require()),
		on("DELETE", "/forums/comments/:forumId/:commentId", deleteCommentHandler,
			core.SessionUser(userParam), core.Path("forumId"), core.Path("commentId")),
		on("GET", "/forums/:author?", getForumsHandler, core.OptionalPath("author")),
		on("GET", "/forums/comments/:forumId", getCommentsHandler, core.Path("forumId")),
	}
}

type forumCreated struct {
	Msg     string `json:"msg"`
	ForumID string `json:"forumId"`
}

var createForumHandler = decl{name: "createForum", params: []string{userParam, "title", "description"}, fn: (*App).createForum}

func (a *App) createForum(ctx context.Context, args *core.Args) (any, error) {
	id, err := a.c.Forums.CreateForum(ctx, args.String(userParam), args.String("title"), args.String("description"))
	if err != nil {
		return nil, err
	}
	return forumCreated{Msg: "Forum successfully created!", ForumID: id}, nil
}

var deleteForumHandler = decl{name: "deleteForum", params: []string{userParam, "forumId"}, fn: (*App).deleteForum}

func (a *App) deleteForum(ctx context.Context, args *core.Args) (any, error) {
	if err := a.c.Forums.DeleteForum(ctx, args.String(userParam), args.String("forumId")); err != nil {
		return nil, err
	}
	return msg{"Forum deleted successfully!"}, nil
}

var editForumHandler = decl{name: "editForum", params: []string{userParam, "forumId", "title", "description"}, fn: (*App).editForum}

func (a *App) editForum(ctx context.Context, args *core.Args) (any, error) {
	err := a.c.Forums.EditForum(ctx, args.String(userParam), args.String("forumId"), args.String("title"), args.String("description"))
	if err != nil {
		return nil, err
	}
	return msg{"Forum successfully updated!"}, nil
}

type commentCreated struct {
	Msg       string `json:"msg"`
	CommentID string `json:"commentId"`
}

var addCommentHandler = decl{name: "addCommentToForum", params: []string{userParam, "forumId", "text"}, fn: (*App).addComment}

func (a *App) addComment(ctx context.Context, args *core.Args) (any, error) {
	id, err := a.c.Forums.CreateComment(ctx, args.String(userParam), args.String("forumId"), args.String("text"))
	if err != nil {
		return nil, err
	}
	return commentCreated{Msg: "Comment successfully created!", CommentID: id}, nil
}

var deleteCommentHandler = decl{name: "deleteCommentFromForum", params: []string{userParam, "forumId", "commentId"}, fn: (*App).deleteComment}

func (a *App) deleteComment(ctx context.Context, args *core.Args) (any, error) {
	if err := a.c.Forums.DeleteComment(ctx, args.String(userParam), args.String("forumId"), args.String("commentId")); err != nil {
		return nil, err
	}
	return msg{"Comment deleted successfully!"}, nil
}

var getForumsHandler = decl{name: "getForums", params: []string{"author"}, fn: (*App).getForums}

func (a *App) getForums(ctx context.Context, args *core.Args) (any, error) {
	var (
		list []forums.Forum
		err  error
	)
	if args.Has("author") {
		u, lerr := a.c.Accounts.GetByUsername(ctx, args.String("author"))
		if lerr != nil {
			return nil, lerr
		}
		list, err = a.c.Forums.ForumsByAuthor(ctx, u.ID)
	} else {
		list, err = a.c.Forums.Forums(ctx)
	}
	if err != nil {
		return nil, err
	}
	return a.shape.Forums(ctx, list), nil
}

var getCommentsHandler = decl{name: "getComments", params: []string{"forumId"}, fn: (*App).getComments}

func (a *App) getComments(ctx context.Context, args *core.Args) (any, error) {
	if _, err := a.c.Forums.GetForum(ctx, args.String("forumId")); err != nil {
		return nil, err
	}
	list, err := a.c.Forums.Comments(ctx, args.String("forumId"))
	if err != nil {
		return nil, err
	}
	return a.shape.Comments(ctx, list), nil
}
