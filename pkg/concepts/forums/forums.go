// Package forums owns discussion topics and the comments posted under them.
package forums

import (
	"context"

	"github.com/joeydtaylor/steeze-social/pkg/apperr"
	"github.com/joeydtaylor/steeze-social/pkg/store"
)

type Forum struct {
	store.Meta
	Author      string `json:"author"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type Comment struct {
	store.Meta
	Author string `json:"author"`
	Forum  string `json:"forum"`
	Text   string `json:"text"`
}

type Concept struct {
	forums   *store.Collection[Forum]
	comments *store.Collection[Comment]
}

// New uses collection for forums and collection+"_comments" for comments.
func New(b store.Backend, collection string) *Concept {
	return &Concept{
		forums:   store.NewCollection[Forum](b, collection),
		comments: store.NewCollection[Comment](b, collection+"_comments"),
	}
}

func (c *Concept) CreateForum(ctx context.Context, author, title, description string) (string, error) {
	if title == "" {
		return "", apperr.Validation("title", "must be non-empty")
	}
	return c.forums.Create(ctx, Forum{Author: author, Title: title, Description: description})
}

func (c *Concept) GetForum(ctx context.Context, id string) (Forum, error) {
	f, err := c.forums.Get(ctx, id)
	if store.IsNotFound(err) {
		return Forum{}, apperr.NotFound("Forum %s does not exist!", id)
	}
	return f, err
}

func (c *Concept) DeleteForum(ctx context.Context, user, id string) error {
	if err := c.AssertAuthorIsUser(ctx, user, id); err != nil {
		return err
	}
	if err := c.forums.Delete(ctx, id); err != nil && !store.IsNotFound(err) {
		return err
	}
	_, err := c.comments.DeleteWhere(ctx, store.Where(store.Eq("forum", id)))
	return err
}

func (c *Concept) EditForum(ctx context.Context, user, id, title, description string) error {
	_, err := c.forums.Update(ctx, id, func(f *Forum) error {
		if f.Author != user {
			return apperr.NotAllowed("%s is not the author of forum %s!", user, id)
		}
		if title != "" {
			f.Title = title
		}
		f.Description = description
		return nil
	})
	if store.IsNotFound(err) {
		return apperr.NotFound("Forum %s does not exist!", id)
	}
	return err
}

// CreateComment requires the forum to exist.
func (c *Concept) CreateComment(ctx context.Context, author, forum, text string) (string, error) {
	if text == "" {
		return "", apperr.Validation("text", "must be non-empty")
	}
	if _, err := c.GetForum(ctx, forum); err != nil {
		return "", err
	}
	return c.comments.Create(ctx, Comment{Author: author, Forum: forum, Text: text})
}

// DeleteComment removes comment id from forum. A comment filed under another
// forum is reported as missing.
func (c *Concept) DeleteComment(ctx context.Context, user, forum, id string) error {
	cm, err := c.comments.Get(ctx, id)
	if store.IsNotFound(err) || (err == nil && cm.Forum != forum) {
		return apperr.NotFound("Comment %s does not exist in forum %s!", id, forum)
	}
	if err != nil {
		return err
	}
	if err := c.AssertAuthorIsCommenter(ctx, user, id); err != nil {
		return err
	}
	err = c.comments.Delete(ctx, id)
	if store.IsNotFound(err) {
		return nil
	}
	return err
}

// Forums returns every forum, newest first.
func (c *Concept) Forums(ctx context.Context) ([]Forum, error) {
	all, err := c.forums.Find(ctx, nil)
	if err != nil {
		return nil, err
	}
	reverse(all)
	return all, nil
}

func (c *Concept) ForumsByAuthor(ctx context.Context, author string) ([]Forum, error) {
	all, err := c.forums.Find(ctx, store.Where(store.Eq("author", author)))
	if err != nil {
		return nil, err
	}
	reverse(all)
	return all, nil
}

// Comments returns a forum's comments oldest first, the reading order.
func (c *Concept) Comments(ctx context.Context, forum string) ([]Comment, error) {
	return c.comments.Find(ctx, store.Where(store.Eq("forum", forum)))
}

func (c *Concept) CommentsByAuthor(ctx context.Context, author string) ([]Comment, error) {
	return c.comments.Find(ctx, store.Where(store.Eq("author", author)))
}

func (c *Concept) AssertAuthorIsUser(ctx context.Context, user, id string) error {
	f, err := c.GetForum(ctx, id)
	if err != nil {
		return err
	}
	if f.Author != user {
		return apperr.NotAllowed("%s is not the author of forum %s!", user, id)
	}
	return nil
}

func (c *Concept) AssertAuthorIsCommenter(ctx context.Context, user, id string) error {
	cm, err := c.comments.Get(ctx, id)
	if store.IsNotFound(err) {
		return apperr.NotFound("Comment %s does not exist!", id)
	}
	if err != nil {
		return err
	}
	if cm.Author != user {
		return apperr.NotAllowed("%s is not the author of comment %s!", user, id)
	}
	return nil
}

func reverse[T any](xs []T) {
	for i, j := 0, len(xs)-1; i < j; i, j = i+1, j-1 {
		xs[i], xs[j] = xs[j], xs[i]
	}
}
