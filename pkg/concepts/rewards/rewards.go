// Package rewards owns badge definitions and each user's progress towards
// them.
//
// Progress accumulates: AddPoints always adds its delta, never replaces, and
// the earned flag flips from false to true at most once. Per-user records are
// keyed by user id so EnsureUser is an idempotent upsert, and every progress
// change goes through the store's atomic Update.
package rewards

import (
	"context"
	"errors"
	"strings"

	"github.com/joeydtaylor/steeze-social/pkg/apperr"
	"github.com/joeydtaylor/steeze-social/pkg/store"
)

type Badge struct {
	store.Meta
	Name      string   `json:"name"`
	Logo      string   `json:"logo"`
	Threshold int      `json:"threshold"`
	Hashtags  []string `json:"hashtags"`
}

type Progress struct {
	BadgeID string `json:"badgeId"`
	Points  int    `json:"points"`
	Earned  bool   `json:"earned"`
}

type UserBadges struct {
	store.Meta
	UserID string     `json:"userId"`
	Badges []Progress `json:"badges"`
}

// BadgePatch holds optional replacements for UpdateBadge.
type BadgePatch struct {
	Name      *string   `json:"name"`
	Logo      *string   `json:"logo"`
	Threshold *int      `json:"threshold"`
	Hashtags  *[]string `json:"hashtags"`
}

// Outcome describes one AddPoints call.
type Outcome struct {
	BadgeID   string `json:"badgeId"`
	BadgeName string `json:"badgeName"`
	Points    int    `json:"points"`
	Started   bool   `json:"started"`
	Earned    bool   `json:"earned"`
}

type Concept struct {
	progress    *store.Collection[UserBadges]
	definitions *store.Collection[Badge]
}

func New(b store.Backend, progressCollection, definitionCollection string) *Concept {
	return &Concept{
		progress:    store.NewCollection[UserBadges](b, progressCollection),
		definitions: store.NewCollection[Badge](b, definitionCollection),
	}
}

func (c *Concept) DefineBadge(ctx context.Context, name, logo string, threshold int, hashtags []string) (string, error) {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return "", apperr.Validation("name", "missing")
	case logo == "":
		return "", apperr.Validation("logo", "missing")
	case threshold <= 0:
		return "", apperr.Validation("threshold", "must be positive")
	}
	if _, err := c.BadgeByName(ctx, name); err == nil {
		return "", apperr.Conflict("Badge %s already exists!", name)
	} else if !apperr.IsKind(err, apperr.KindNotFound) {
		return "", err
	}
	if hashtags == nil {
		hashtags = []string{}
	}
	return c.definitions.Create(ctx, Badge{Name: name, Logo: logo, Threshold: threshold, Hashtags: hashtags})
}

func (c *Concept) UpdateBadge(ctx context.Context, id string, p BadgePatch) (Badge, error) {
	if p.Threshold != nil && *p.Threshold <= 0 {
		return Badge{}, apperr.Validation("threshold", "must be positive")
	}
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if other, err := c.BadgeByName(ctx, name); err == nil && other.ID != id {
			return Badge{}, apperr.Conflict("Badge %s already exists!", name)
		} else if err != nil && !apperr.IsKind(err, apperr.KindNotFound) {
			return Badge{}, err
		}
	}
	b, err := c.definitions.Update(ctx, id, func(b *Badge) error {
		if p.Name != nil && strings.TrimSpace(*p.Name) != "" {
			b.Name = strings.TrimSpace(*p.Name)
		}
		if p.Logo != nil {
			b.Logo = *p.Logo
		}
		if p.Threshold != nil {
			b.Threshold = *p.Threshold
		}
		if p.Hashtags != nil {
			b.Hashtags = *p.Hashtags
		}
		return nil
	})
	if store.IsNotFound(err) {
		return Badge{}, apperr.NotFound("Badge not found for badge Id %s.", id)
	}
	return b, err
}

func (c *Concept) DeleteBadge(ctx context.Context, id string) error {
	err := c.definitions.Delete(ctx, id)
	if store.IsNotFound(err) {
		return apperr.NotFound("Badge not found for badge Id %s.", id)
	}
	return err
}

func (c *Concept) Badges(ctx context.Context) ([]Badge, error) {
	return c.definitions.Find(ctx, nil)
}

func (c *Concept) Badge(ctx context.Context, id string) (Badge, error) {
	b, err := c.definitions.Get(ctx, id)
	if store.IsNotFound(err) {
		return Badge{}, apperr.NotFound("Badge not found for badge Id %s.", id)
	}
	return b, err
}

func (c *Concept) BadgeByName(ctx context.Context, name string) (Badge, error) {
	b, err := c.definitions.FindOne(ctx, store.Where(store.Eq("name", name)))
	if store.IsNotFound(err) {
		return Badge{}, apperr.NotFound("Badge %s is not defined.", name)
	}
	return b, err
}

// EnsureUser creates the user's progress record if absent. It reports
// whether a record was created; calling it again is a no-op.
func (c *Concept) EnsureUser(ctx context.Context, user string) (bool, error) {
	if user == "" {
		return false, apperr.Validation("user", "missing")
	}
	_, err := c.progress.CreateWithID(ctx, user, UserBadges{UserID: user, Badges: []Progress{}})
	if errors.Is(err, store.ErrExists) {
		return false, nil
	}
	return err == nil, err
}

func (c *Concept) RemoveUser(ctx context.Context, user string) error {
	err := c.progress.Delete(ctx, user)
	if store.IsNotFound(err) {
		return nil
	}
	return err
}

// UserBadges returns the user's progress entries; a user with no record has
// none.
func (c *Concept) UserBadges(ctx context.Context, user string) ([]Progress, error) {
	ub, err := c.progress.Get(ctx, user)
	if store.IsNotFound(err) {
		return []Progress{}, nil
	}
	if err != nil {
		return nil, err
	}
	return ub.Badges, nil
}

// AddPoints accumulates points on the user's progress for badge, creating
// the user record and the progress entry when missing.
func (c *Concept) AddPoints(ctx context.Context, user, badgeID string, points int) (Outcome, error) {
	if points <= 0 {
		return Outcome{}, apperr.Validation("points", "must be positive")
	}
	badge, err := c.Badge(ctx, badgeID)
	if err != nil {
		return Outcome{}, err
	}
	if _, err := c.EnsureUser(ctx, user); err != nil {
		return Outcome{}, err
	}

	out := Outcome{BadgeID: badge.ID, BadgeName: badge.Name}
	_, err = c.progress.Update(ctx, user, func(ub *UserBadges) error {
		idx := -1
		for i := range ub.Badges {
			if ub.Badges[i].BadgeID == badge.ID {
				idx = i
				break
			}
		}
		if idx < 0 {
			ub.Badges = append(ub.Badges, Progress{BadgeID: badge.ID})
			idx = len(ub.Badges) - 1
			out.Started = true
		}
		p := &ub.Badges[idx]
		p.Points += points
		if !p.Earned && p.Points >= badge.Threshold {
			p.Earned = true
			out.Earned = true
		}
		out.Points = p.Points
		return nil
	})
	if store.IsNotFound(err) {
		return Outcome{}, apperr.NotFound("User badges not found for user %s.", user)
	}
	return out, err
}

// AddPointsForHashtags adds one point to every badge listing one of the
// given hashtags, once per distinct hashtag.
func (c *Concept) AddPointsForHashtags(ctx context.Context, user string, hashtags []string) ([]Outcome, error) {
	var outcomes []Outcome
	seen := map[string]struct{}{}
	for _, tag := range hashtags {
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		related, err := c.definitions.Find(ctx, store.Where(store.Has("hashtags", tag)))
		if err != nil {
			return outcomes, err
		}
		for _, b := range related {
			o, err := c.AddPoints(ctx, user, b.ID, 1)
			if err != nil {
				return outcomes, err
			}
			outcomes = append(outcomes, o)
		}
	}
	return outcomes, nil
}
