package friends

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeydtaylor/steeze-social/pkg/apperr"
	"github.com/joeydtaylor/steeze-social/pkg/store/memory"
)

func TestRequestAcceptRemove(t *testing.T) {
	ctx := context.Background()
	c := New(memory.New(), "friends")

	assert.True(t, apperr.IsKind(c.SendRequest(ctx, "a", "a"), apperr.KindNotAllowed))
	require.NoError(t, c.SendRequest(ctx, "a", "b"))
	assert.True(t, apperr.IsKind(c.SendRequest(ctx, "b", "a"), apperr.KindConflict))

	reqs, err := c.Requests(ctx, "b")
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	assert.Equal(t, StatusPending, reqs[0].Status)

	require.NoError(t, c.AcceptRequest(ctx, "a", "b"))
	friendsOfB, err := c.Friends(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, friendsOfB)

	assert.True(t, apperr.IsKind(c.SendRequest(ctx, "b", "a"), apperr.KindConflict))
	assert.True(t, apperr.IsKind(c.AcceptRequest(ctx, "a", "b"), apperr.KindNotFound))

	require.NoError(t, c.RemoveFriend(ctx, "b", "a"))
	friendsOfA, err := c.Friends(ctx, "a")
	require.NoError(t, err)
	assert.Empty(t, friendsOfA)
	assert.True(t, apperr.IsKind(c.RemoveFriend(ctx, "b", "a"), apperr.KindNotFound))
}

func TestRejectAndWithdraw(t *testing.T) {
	ctx := context.Background()
	c := New(memory.New(), "friends")

	require.NoError(t, c.SendRequest(ctx, "a", "b"))
	require.NoError(t, c.RejectRequest(ctx, "a", "b"))
	reqs, err := c.Requests(ctx, "a")
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	assert.Equal(t, StatusRejected, reqs[0].Status)

	require.NoError(t, c.SendRequest(ctx, "a", "b"))
	require.NoError(t, c.RemoveRequest(ctx, "a", "b"))
	assert.True(t, apperr.IsKind(c.RemoveRequest(ctx, "a", "b"), apperr.KindNotFound))
}

func TestAcceptBetweenFriendsKeepsRequestPending(t *testing.T) {
	ctx := context.Background()
	c := New(memory.New(), "friends")
	_, err := c.friendships.Create(ctx, Friendship{User1: "b", User2: "a"})
	require.NoError(t, err)
	_, err = c.requests.Create(ctx, Request{From: "a", To: "b", Status: StatusPending})
	require.NoError(t, err)

	assert.True(t, apperr.IsKind(c.AcceptRequest(ctx, "a", "b"), apperr.KindConflict))

	r, err := c.pending(ctx, "a", "b")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, r.Status)
	friendsOfA, err := c.Friends(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, friendsOfA)
}
