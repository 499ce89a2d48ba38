package posts

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeydtaylor/steeze-social/pkg/apperr"
	"github.com/joeydtaylor/steeze-social/pkg/store/memory"
)

func TestMergeHashtags(t *testing.T) {
	assert.Equal(t, []string{"space", "moon", "sun"}, MergeHashtags("hello #space and #moon #space", []string{"#sun", " moon ", ""}))
	assert.Equal(t, []string{}, MergeHashtags("no tags", nil))
}

func TestCreateAndGet(t *testing.T) {
	ctx := context.Background()
	c := New(memory.New(), "posts")

	created, err := c.Create(ctx, "u1", "hello #space", "img1", Point{X: 1, Y: 2}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"space"}, created.Hashtags)

	p, err := c.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "u1", p.Author)
	assert.Equal(t, "Point", p.Location.Type)
	assert.Equal(t, [2]float64{1, 2}, p.Location.Coordinates)
	assert.Zero(t, p.Likes)
}

func TestOwnershipChecks(t *testing.T) {
	ctx := context.Background()
	c := New(memory.New(), "posts")
	created, err := c.Create(ctx, "author", "x", "", Point{}, nil)
	require.NoError(t, err)

	assert.True(t, apperr.IsKind(c.Delete(ctx, "intruder", created.ID), apperr.KindNotAllowed))
	assert.True(t, apperr.IsKind(c.Edit(ctx, "intruder", created.ID, "y", nil), apperr.KindNotAllowed))
	assert.True(t, apperr.IsKind(c.Delete(ctx, "author", "missing"), apperr.KindNotFound))

	require.NoError(t, c.Edit(ctx, "author", created.ID, "now #tagged", []string{"extra"}))
	tags, err := c.Hashtags(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"tagged", "extra"}, tags)

	require.NoError(t, c.Delete(ctx, "author", created.ID))
	_, err = c.Get(ctx, created.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestLikesNeverNegative(t *testing.T) {
	ctx := context.Background()
	c := New(memory.New(), "posts")
	created, err := c.Create(ctx, "u1", "", "", Point{}, nil)
	require.NoError(t, err)

	n, err := c.ChangeLikes(ctx, created.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	n, err = c.ChangeLikes(ctx, created.ID, -5)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestFeedOrdering(t *testing.T) {
	ctx := context.Background()
	c := New(memory.New(), "posts")
	first, err := c.Create(ctx, "u1", "first", "", Point{}, nil)
	require.NoError(t, err)
	second, err := c.Create(ctx, "u2", "second", "", Point{}, nil)
	require.NoError(t, err)
	third, err := c.Create(ctx, "u1", "third", "", Point{}, nil)
	require.NoError(t, err)

	_, err = c.Boost(ctx, first.ID)
	require.NoError(t, err)

	feed, err := c.List(ctx)
	require.NoError(t, err)
	ids := []string{feed[0].ID, feed[1].ID, feed[2].ID}
	assert.Equal(t, []string{first.ID, third.ID, second.ID}, ids)

	mine, err := c.ByAuthor(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, third.ID, mine[0].ID)
}
