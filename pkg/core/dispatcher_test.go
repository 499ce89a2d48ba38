package core

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/joeydtaylor/steeze-social/pkg/apperr"
	"github.com/joeydtaylor/steeze-social/pkg/concepts/sessions"
)

// headerSessions keeps the user id in a header, standing in for the cookie
// store.
type headerSessions struct{}

func (headerSessions) Load(r *http.Request) *sessions.Session {
	return sessions.Resume(r.Header.Get("X-User"))
}

func (headerSessions) Save(w http.ResponseWriter, s *sessions.Session) error {
	w.Header().Set("X-Set-User", s.UserID())
	return nil
}

type marker struct{}

type kinds struct {
	mu  sync.Mutex
	got []string
}

func (k *kinds) Dispatched(route string, kind apperr.Kind) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.got = append(k.got, route+"="+string(kind))
}

func newTestDispatcher(t *testing.T, log *zap.Logger, rec Recorder) *Dispatcher {
	t.Helper()
	r := NewRegistry()
	sc := sessions.New()

	r.MustRegister("GET", "/posts/:author?", Handler{
		Name: "getPosts", Params: []string{"author"},
		Fn: func(_ context.Context, a *Args) (any, error) {
			return map[string]any{"author": a.String("author"), "filtered": a.Has("author")}, nil
		},
	}, []ParamSpec{OptionalPath("author")}, nil)
	r.MustRegister("DELETE", "/posts/:postId", Handler{
		Name: "deletePost", Params: []string{"user", "postId"},
		Fn: func(_ context.Context, a *Args) (any, error) {
			return nil, apperr.NotAllowed("%s is not the author of post %s!", a.String("user"), a.String("postId"))
		},
	}, []ParamSpec{SessionUser("user"), Path("postId")}, nil)
	r.MustRegister("POST", "/boom", Handler{
		Name: "boom",
		Fn: func(context.Context, *Args) (any, error) {
			return nil, errors.New("pq: relation does not exist")
		},
	}, nil, nil)
	r.MustRegister("POST", "/login", Handler{
		Name: "login", Params: []string{"username"},
		Fn: func(_ context.Context, a *Args) (any, error) {
			if err := sc.Start(a.Session(), "id-"+a.String("username")); err != nil {
				return nil, err
			}
			return Result{Status: http.StatusCreated, Body: Message{Message: "Logged in!"}}, nil
		},
	}, []ParamSpec{Body("username", String).Require()}, nil)
	r.MustRegister("POST", "/points", Handler{
		Name: "addPoints", Params: []string{"user"},
		Fn: func(_ context.Context, a *Args) (any, error) {
			return a.String("userId"), nil
		},
	}, []ParamSpec{SessionUser("user")}, nil)
	r.MustRegister("GET", "/slow", Handler{
		Name: "slow",
		Fn: func(context.Context, *Args) (any, error) {
			time.Sleep(200 * time.Millisecond)
			return Message{Message: "late"}, nil
		},
	}, nil, nil)
	r.MustRegister("POST", "/commit", Handler{
		Name: "commit",
		Fn: func(ctx context.Context, _ *Args) (any, error) {
			time.Sleep(30 * time.Millisecond)
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if ctx.Value(marker{}) != "kept" {
				return nil, errors.New("request value lost")
			}
			return Message{Message: "committed"}, nil
		},
	}, nil, nil)
	r.Freeze()

	return NewDispatcher(r, log,
		WithSessionStore(headerSessions{}),
		WithRecorder(rec),
		WithTimeout(50*time.Millisecond),
	)
}

func serve(d http.Handler, method, target, body string, hdr map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	d.ServeHTTP(rec, req)
	return rec
}

func TestDispatchSuccessAndOptionalSegment(t *testing.T) {
	d := newTestDispatcher(t, zap.NewNop(), nil)

	rec := serve(d, "GET", "/posts/alice", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"author":"alice","filtered":true}`, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	rec = serve(d, "GET", "/posts", "", nil)
	assert.JSONEq(t, `{"author":"","filtered":false}`, rec.Body.String())
}

func TestDispatchUnmatched(t *testing.T) {
	k := &kinds{}
	d := newTestDispatcher(t, zap.NewNop(), k)
	rec := serve(d, "GET", "/nope/at/all", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"message":"Page not found"}`, rec.Body.String())
	assert.Equal(t, []string{"unmatched=not_found"}, k.got)
}

func TestDispatchMapsKinds(t *testing.T) {
	d := newTestDispatcher(t, zap.NewNop(), nil)

	rec := serve(d, "DELETE", "/posts/p1", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"message":"Must be logged in!"}`, rec.Body.String())

	rec = serve(d, "DELETE", "/posts/p1", "", map[string]string{"X-User": "bob"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"message":"bob is not the author of post p1!"}`, rec.Body.String())

	rec = serve(d, "POST", "/login", `{}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"message":"username: missing"}`, rec.Body.String())
}

func TestDispatchUnclassifiedIsLoggedAndHidden(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	k := &kinds{}
	d := newTestDispatcher(t, zap.New(core), k)

	rec := serve(d, "POST", "/boom", "", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"message":"Internal server error"}`, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "pq:")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "POST /boom", entry.ContextMap()["route"])
	assert.Equal(t, []string{"POST /boom=internal"}, k.got)
}

func TestDispatchWritesChangedSession(t *testing.T) {
	d := newTestDispatcher(t, zap.NewNop(), nil)

	rec := serve(d, "POST", "/login", `{"username":"alice"}`, nil)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "id-alice", rec.Header().Get("X-Set-User"))
	assert.JSONEq(t, `{"message":"Logged in!"}`, rec.Body.String())

	rec = serve(d, "POST", "/login", `{"username":"alice"}`, map[string]string{"X-User": "id-alice"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, rec.Header().Get("X-Set-User"))
}

func TestDispatchTimeoutIsInternal(t *testing.T) {
	d := newTestDispatcher(t, zap.NewNop(), nil)
	rec := serve(d, "GET", "/slow", "", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestDispatchHandlerOutlivesClientDisconnect(t *testing.T) {
	d := newTestDispatcher(t, zap.NewNop(), nil)

	ctx, cancel := context.WithCancel(context.WithValue(context.Background(), marker{}, "kept"))
	req := httptest.NewRequest("POST", "/commit", nil).WithContext(ctx)
	time.AfterFunc(5*time.Millisecond, cancel)

	rec := httptest.NewRecorder()
	d.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"committed"}`, rec.Body.String())
}

func TestDispatchRejectsOversizedBody(t *testing.T) {
	d := newTestDispatcher(t, zap.NewNop(), nil)
	big := `{"username":"` + strings.Repeat("a", maxBodyBytes) + `"}`

	rec := serve(d, "POST", "/login", big, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"message":"body: too large"}`, rec.Body.String())
}

func TestDispatchUndeclaredReadIsInternal(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	d := newTestDispatcher(t, zap.New(core), nil)

	rec := serve(d, "POST", "/points", "", map[string]string{"X-User": "alice"})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"message":"Internal server error"}`, rec.Body.String())

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "addPoints", entry.ContextMap()["handler"])
	assert.Contains(t, entry.ContextMap()["error"], `"userId"`)
}
