// Package shape turns concept records into client views. Author ids become
// usernames; ids that no longer resolve become DeletedUser.
package shape

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/joeydtaylor/steeze-social/pkg/concepts/forums"
	"github.com/joeydtaylor/steeze-social/pkg/concepts/friends"
	"github.com/joeydtaylor/steeze-social/pkg/concepts/posts"
)

// DeletedUser stands in for an id with no account.
const DeletedUser = "DELETED_USER"

// Resolver maps user ids to usernames. Unknown ids are simply absent.
type Resolver interface {
	Usernames(ctx context.Context, ids []string) (map[string]string, error)
}

type Shaper struct {
	r   Resolver
	log *zap.Logger
}

func New(r Resolver, log *zap.Logger) *Shaper {
	if log == nil {
		log = zap.NewNop()
	}
	return &Shaper{r: r, log: log}
}

type PostView struct {
	ID          string      `json:"_id"`
	Author      string      `json:"author"`
	Description string      `json:"description"`
	Image       string      `json:"image"`
	Location    posts.Point `json:"location"`
	Hashtags    []string    `json:"hashtag"`
	Likes       int         `json:"likes"`
	Boost       int         `json:"boost"`
	DateCreated time.Time   `json:"dateCreated"`
	DateUpdated time.Time   `json:"dateUpdated"`
}

type ForumView struct {
	ID          string    `json:"_id"`
	Author      string    `json:"author"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DateCreated time.Time `json:"dateCreated"`
	DateUpdated time.Time `json:"dateUpdated"`
}

type CommentView struct {
	ID          string    `json:"_id"`
	Author      string    `json:"author"`
	Forum       string    `json:"forum"`
	Text        string    `json:"text"`
	DateCreated time.Time `json:"dateCreated"`
	DateUpdated time.Time `json:"dateUpdated"`
}

type FriendRequestView struct {
	From   string         `json:"from"`
	To     string         `json:"to"`
	Status friends.Status `json:"status"`
}

func (s *Shaper) Posts(ctx context.Context, in []posts.Post) []PostView {
	ids := make([]string, 0, len(in))
	for _, p := range in {
		ids = append(ids, p.Author)
	}
	names := s.resolve(ctx, ids)
	out := make([]PostView, 0, len(in))
	for _, p := range in {
		out = append(out, PostView{
			ID:          p.ID,
			Author:      name(names, p.Author),
			Description: p.Description,
			Image:       p.Image,
			Location:    posts.Point{X: p.Location.Coordinates[0], Y: p.Location.Coordinates[1]},
			Hashtags:    nonNil(p.Hashtags),
			Likes:       p.Likes,
			Boost:       p.Boost,
			DateCreated: p.DateCreated,
			DateUpdated: p.DateUpdated,
		})
	}
	return out
}

func (s *Shaper) Forums(ctx context.Context, in []forums.Forum) []ForumView {
	ids := make([]string, 0, len(in))
	for _, f := range in {
		ids = append(ids, f.Author)
	}
	names := s.resolve(ctx, ids)
	out := make([]ForumView, 0, len(in))
	for _, f := range in {
		out = append(out, ForumView{
			ID:          f.ID,
			Author:      name(names, f.Author),
			Title:       f.Title,
			Description: f.Description,
			DateCreated: f.DateCreated,
			DateUpdated: f.DateUpdated,
		})
	}
	return out
}

func (s *Shaper) Comments(ctx context.Context, in []forums.Comment) []CommentView {
	ids := make([]string, 0, len(in))
	for _, c := range in {
		ids = append(ids, c.Author)
	}
	names := s.resolve(ctx, ids)
	out := make([]CommentView, 0, len(in))
	for _, c := range in {
		out = append(out, CommentView{
			ID:          c.ID,
			Author:      name(names, c.Author),
			Forum:       c.Forum,
			Text:        c.Text,
			DateCreated: c.DateCreated,
			DateUpdated: c.DateUpdated,
		})
	}
	return out
}

func (s *Shaper) FriendRequests(ctx context.Context, in []friends.Request) []FriendRequestView {
	ids := make([]string, 0, 2*len(in))
	for _, r := range in {
		ids = append(ids, r.From, r.To)
	}
	names := s.resolve(ctx, ids)
	out := make([]FriendRequestView, 0, len(in))
	for _, r := range in {
		out = append(out, FriendRequestView{From: name(names, r.From), To: name(names, r.To), Status: r.Status})
	}
	return out
}

// Usernames resolves ids in order.
func (s *Shaper) Usernames(ctx context.Context, ids []string) []string {
	names := s.resolve(ctx, ids)
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, name(names, id))
	}
	return out
}

// resolve looks every distinct id up in one call. A failed lookup degrades
// the whole batch to placeholders.
func (s *Shaper) resolve(ctx context.Context, ids []string) map[string]string {
	seen := map[string]struct{}{}
	uniq := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup || id == "" {
			continue
		}
		seen[id] = struct{}{}
		uniq = append(uniq, id)
	}
	if len(uniq) == 0 || s.r == nil {
		return nil
	}
	names, err := s.r.Usernames(ctx, uniq)
	if err != nil {
		s.log.Error("resolve usernames", zap.Int("ids", len(uniq)), zap.Error(err))
		return nil
	}
	return names
}

func name(names map[string]string, id string) string {
	if n, ok := names[id]; ok && n != "" {
		return n
	}
	return DeletedUser
}

func nonNil(xs []string) []string {
	if xs == nil {
		return []string{}
	}
	return xs
}
