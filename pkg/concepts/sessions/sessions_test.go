package sessions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeydtaylor/steeze-social/pkg/apperr"
)

func TestStartAndEnd(t *testing.T) {
	c := New()
	s := Resume("")

	_, err := c.User(s)
	assert.True(t, apperr.IsKind(err, apperr.KindAuthentication))
	assert.True(t, apperr.IsKind(c.End(s), apperr.KindAuthentication))

	require.NoError(t, c.Start(s, "u1"))
	assert.True(t, s.Changed())
	u, err := c.User(s)
	require.NoError(t, err)
	assert.Equal(t, "u1", u)

	assert.True(t, apperr.IsKind(c.Start(s, "u2"), apperr.KindNotAllowed))

	require.NoError(t, c.End(s))
	assert.Equal(t, "", s.UserID())
}

func TestResumeIsUnchanged(t *testing.T) {
	s := Resume("u1")
	assert.False(t, s.Changed())
	assert.Equal(t, "u1", s.UserID())
	var nilSession *Session
	assert.Equal(t, "", nilSession.UserID())
}
