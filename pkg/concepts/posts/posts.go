// Package posts owns user posts: description, image reference, location,
// hashtags, likes and boost.
package posts

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/joeydtaylor/steeze-social/pkg/apperr"
	"github.com/joeydtaylor/steeze-social/pkg/store"
)

// BoostStep is how far one boost moves a post up the feed.
const BoostStep = 2

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Location is stored GeoJSON-style so a geospatial index can be added later.
type Location struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

type Post struct {
	store.Meta
	Author      string   `json:"author"`
	Description string   `json:"description"`
	Image       string   `json:"image"`
	Location    Location `json:"location"`
	Hashtags    []string `json:"hashtag"`
	Likes       int      `json:"likes"`
	Boost       int      `json:"boost"`
}

// Created is returned by Create.
type Created struct {
	ID       string
	Hashtags []string
}

type Concept struct {
	posts *store.Collection[Post]
}

func New(b store.Backend, collection string) *Concept {
	return &Concept{posts: store.NewCollection[Post](b, collection)}
}

var hashtagRE = regexp.MustCompile(`#(\w+)`)

// ExtractHashtags returns the #words of text in order of appearance.
func ExtractHashtags(text string) []string {
	var out []string
	for _, m := range hashtagRE.FindAllStringSubmatch(text, -1) {
		out = append(out, m[1])
	}
	return out
}

// MergeHashtags dedupes tags extracted from description followed by the
// explicit ones, keeping first occurrence order.
func MergeHashtags(description string, explicit []string) []string {
	seen := map[string]struct{}{}
	out := []string{}
	for _, t := range append(ExtractHashtags(description), explicit...) {
		t = strings.TrimPrefix(strings.TrimSpace(t), "#")
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func (c *Concept) Create(ctx context.Context, author, description, image string, at Point, hashtags []string) (Created, error) {
	if author == "" {
		return Created{}, apperr.Validation("author", "missing")
	}
	tags := MergeHashtags(description, hashtags)
	id, err := c.posts.Create(ctx, Post{
		Author:      author,
		Description: description,
		Image:       image,
		Location:    Location{Type: "Point", Coordinates: [2]float64{at.X, at.Y}},
		Hashtags:    tags,
	})
	if err != nil {
		return Created{}, err
	}
	return Created{ID: id, Hashtags: tags}, nil
}

func (c *Concept) Get(ctx context.Context, id string) (Post, error) {
	p, err := c.posts.Get(ctx, id)
	if store.IsNotFound(err) {
		return Post{}, apperr.NotFound("Post %s does not exist!", id)
	}
	return p, err
}

func (c *Concept) Delete(ctx context.Context, user, id string) error {
	if err := c.AssertAuthorIsUser(ctx, id, user); err != nil {
		return err
	}
	err := c.posts.Delete(ctx, id)
	if store.IsNotFound(err) {
		return apperr.NotFound("Post %s does not exist!", id)
	}
	return err
}

// Edit replaces the description and recomputes hashtags.
func (c *Concept) Edit(ctx context.Context, user, id, description string, hashtags []string) error {
	_, err := c.posts.Update(ctx, id, func(p *Post) error {
		if p.Author != user {
			return notAuthor(user, id)
		}
		p.Description = description
		p.Hashtags = MergeHashtags(description, hashtags)
		return nil
	})
	if store.IsNotFound(err) {
		return apperr.NotFound("Post %s does not exist!", id)
	}
	return err
}

func (c *Concept) Likes(ctx context.Context, id string) (int, error) {
	p, err := c.Get(ctx, id)
	if err != nil {
		return 0, err
	}
	return p.Likes, nil
}

// ChangeLikes adds delta (which may be negative) and returns the new count.
// The count never drops below zero.
func (c *Concept) ChangeLikes(ctx context.Context, id string, delta int) (int, error) {
	p, err := c.posts.Update(ctx, id, func(p *Post) error {
		p.Likes += delta
		if p.Likes < 0 {
			p.Likes = 0
		}
		return nil
	})
	if store.IsNotFound(err) {
		return 0, apperr.NotFound("Post %s does not exist!", id)
	}
	return p.Likes, err
}

func (c *Concept) Boost(ctx context.Context, id string) (int, error) {
	p, err := c.posts.Update(ctx, id, func(p *Post) error {
		p.Boost += BoostStep
		return nil
	})
	if store.IsNotFound(err) {
		return 0, apperr.NotFound("Post %s does not exist!", id)
	}
	return p.Boost, err
}

func (c *Concept) Hashtags(ctx context.Context, id string) ([]string, error) {
	p, err := c.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return p.Hashtags, nil
}

// List returns the feed: highest boost first, newest first within a boost.
func (c *Concept) List(ctx context.Context) ([]Post, error) {
	all, err := c.posts.Find(ctx, nil)
	if err != nil {
		return nil, err
	}
	newestFirst(all)
	sort.SliceStable(all, func(i, j int) bool { return all[i].Boost > all[j].Boost })
	return all, nil
}

func (c *Concept) ByAuthor(ctx context.Context, author string) ([]Post, error) {
	all, err := c.posts.Find(ctx, store.Where(store.Eq("author", author)))
	if err != nil {
		return nil, err
	}
	newestFirst(all)
	return all, nil
}

func (c *Concept) AssertAuthorIsUser(ctx context.Context, id, user string) error {
	p, err := c.Get(ctx, id)
	if err != nil {
		return err
	}
	if p.Author != user {
		return notAuthor(user, id)
	}
	return nil
}

func notAuthor(user, id string) error {
	return apperr.NotAllowed("%s is not the author of post %s!", user, id)
}

// newestFirst reverses insertion order in place.
func newestFirst(ps []Post) {
	for i, j := 0, len(ps)-1; i < j; i, j = i+1, j-1 {
		ps[i], ps[j] = ps[j], ps[i]
	}
}
