package electrician

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeydtaylor/steeze-social/pkg/manifest"
)

type captureRelay struct {
	got []RelayRequest
	err error
}

func (c *captureRelay) Publish(_ context.Context, rr RelayRequest) error {
	c.got = append(c.got, rr)
	return c.err
}

func TestActivityPublishEnvelope(t *testing.T) {
	rel := &captureRelay{}
	a := NewActivity(rel, nil)
	a.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

	err := a.Publish(context.Background(), "post.created", map[string]string{"postId": "p1"})
	require.NoError(t, err)
	require.Len(t, rel.got, 1)

	rr := rel.got[0]
	assert.Equal(t, "post.created", rr.Topic)
	assert.Equal(t, "application/json", rr.Headers["content-type"])
	assert.JSONEq(t,
		`{"topic":"post.created","occurredAt":"2024-05-01T12:00:00Z","event":{"postId":"p1"}}`,
		string(rr.Body))
}

func TestActivityPublishError(t *testing.T) {
	rel := &captureRelay{err: errors.New("down")}
	err := NewActivity(rel, nil).Publish(context.Background(), "badge.earned", struct{}{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish badge.earned")
}

func TestActivityEncodeError(t *testing.T) {
	rel := &captureRelay{}
	err := NewActivity(rel, nil).Publish(context.Background(), "x", func() {})
	require.Error(t, err)
	assert.Empty(t, rel.got)
}

func TestBuilderRelayWithoutTargetsIsNoop(t *testing.T) {
	rc, err := NewBuilderRelay(context.Background(), manifest.Relay{})
	require.NoError(t, err)
	assert.Equal(t, Noop(), rc)
	assert.NoError(t, rc.Publish(context.Background(), RelayRequest{Topic: "t"}))
	assert.ErrorIs(t, rc.Publish(context.Background(), RelayRequest{}), errMissingTopic)
}
