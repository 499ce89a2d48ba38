package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorWrapUnwrap(t *testing.T) {
	root := errors.New("root")
	err := Wrap(KindNotFound, root, "post %s does not exist", "p1")

	require.ErrorIs(t, err, root)
	var got *Error
	require.ErrorAs(t, err, &got)
	assert.Equal(t, KindNotFound, got.Kind)
	assert.Equal(t, "post p1 does not exist", got.Message())
}

func TestKindOfIsTotal(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.Equal(t, KindValidation, KindOf(fmt.Errorf("bind: %w", Validation("username", "missing"))))
	assert.Equal(t, Kind(""), KindOf(nil))
	assert.True(t, IsKind(NotAllowed("nope"), KindNotAllowed))
}

func TestStatusMapping(t *testing.T) {
	cases := map[Kind]int{
		KindValidation:     http.StatusBadRequest,
		KindAuthentication: http.StatusUnauthorized,
		KindNotAllowed:     http.StatusForbidden,
		KindNotFound:       http.StatusNotFound,
		KindConflict:       http.StatusConflict,
		KindInternal:       http.StatusInternalServerError,
		Kind("bogus"):      http.StatusInternalServerError,
	}
	for k, want := range cases {
		assert.Equal(t, want, Status(k), string(k))
	}
}

func TestValidationMessageIsFieldQualified(t *testing.T) {
	assert.Equal(t, "postId: missing", Validation("postId", "missing").Message())
}

func TestPublicMessageHidesInternalCauses(t *testing.T) {
	assert.Equal(t, "Internal server error", PublicMessage(errors.New("pq: connection refused")))
	assert.Equal(t, "Internal server error", PublicMessage(Wrap(KindInternal, errors.New("x"), "store down")))
	assert.Equal(t, "Must be logged in!", PublicMessage(fmt.Errorf("bind: %w", Unauthenticated("Must be logged in!"))))
}
