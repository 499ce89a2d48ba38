package forums

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeydtaylor/steeze-social/pkg/apperr"
	"github.com/joeydtaylor/steeze-social/pkg/store/memory"
)

func TestForumLifecycle(t *testing.T) {
	ctx := context.Background()
	c := New(memory.New(), "forums")

	older, err := c.CreateForum(ctx, "u1", "Stars", "talk about stars")
	require.NoError(t, err)
	newer, err := c.CreateForum(ctx, "u2", "Moon", "")
	require.NoError(t, err)

	all, err := c.Forums(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, newer, all[0].ID)
	assert.Equal(t, older, all[1].ID)

	assert.True(t, apperr.IsKind(c.EditForum(ctx, "u2", older, "x", "y"), apperr.KindNotAllowed))
	require.NoError(t, c.EditForum(ctx, "u1", older, "Stars!", "updated"))
	f, err := c.GetForum(ctx, older)
	require.NoError(t, err)
	assert.Equal(t, "Stars!", f.Title)

	mine, err := c.ForumsByAuthor(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}

func TestCommentsAndCascade(t *testing.T) {
	ctx := context.Background()
	c := New(memory.New(), "forums")
	fid, err := c.CreateForum(ctx, "u1", "Stars", "")
	require.NoError(t, err)

	_, err = c.CreateComment(ctx, "u2", "missing", "hi")
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	cid, err := c.CreateComment(ctx, "u2", fid, "hi")
	require.NoError(t, err)
	_, err = c.CreateComment(ctx, "u1", fid, "hello back")
	require.NoError(t, err)

	other, err := c.CreateForum(ctx, "u2", "Moons", "")
	require.NoError(t, err)
	assert.True(t, apperr.IsKind(c.DeleteComment(ctx, "u2", other, cid), apperr.KindNotFound))
	assert.True(t, apperr.IsKind(c.DeleteComment(ctx, "u1", fid, cid), apperr.KindNotAllowed))
	require.NoError(t, c.DeleteComment(ctx, "u2", fid, cid))

	comments, err := c.Comments(ctx, fid)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "hello back", comments[0].Text)

	require.NoError(t, c.DeleteForum(ctx, "u1", fid))
	comments, err = c.Comments(ctx, fid)
	require.NoError(t, err)
	assert.Empty(t, comments)
}
