package serverfx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/joeydtaylor/steeze-social/pkg/app"
	"github.com/joeydtaylor/steeze-social/pkg/concepts/accounts"
	"github.com/joeydtaylor/steeze-social/pkg/electrician"
	"github.com/joeydtaylor/steeze-social/pkg/manifest"
	"github.com/joeydtaylor/steeze-social/pkg/middleware/auth"
	"github.com/joeydtaylor/steeze-social/pkg/middleware/logger"
	"github.com/joeydtaylor/steeze-social/pkg/middleware/metrics"
	"github.com/joeydtaylor/steeze-social/pkg/store/memory"
	"github.com/joeydtaylor/steeze-social/pkg/transport/httpx"
)

type server struct {
	t   *testing.T
	h   http.Handler
	c   app.Concepts
	jar []*http.Cookie
}

func newServer(t *testing.T) *server {
	t.Helper()
	s := manifest.Defaults()
	s.Session.Secret = "test-secret"
	require.NoError(t, s.Validate())

	log := zap.NewNop()
	c := newConcepts(memory.New(), accounts.WithBcryptCost(bcrypt.MinCost))
	require.NoError(t, seed(context.Background(), c.Rewards, s.Badges, log))

	prom := prometheus.NewRegistry()
	m := metrics.New(prom)
	am, err := auth.New(s.Session)
	require.NoError(t, err)

	a := provideApp(c, s, log, electrician.NewActivity(nil, log), m)
	reg, err := provideRoutes(a)
	require.NoError(t, err)

	h := provideRouter(routerDeps{
		R:          httpx.NewChi(),
		Auth:       am,
		Log:        logger.New(log),
		Metrics:    m,
		Prom:       prom,
		Dispatcher: provideDispatcher(reg, s, log, am, m),
	})
	return &server{t: t, h: h, c: c}
}

// do sends a request carrying the cookies collected so far.
func (s *server) do(method, path, body string) *httptest.ResponseRecorder {
	s.t.Helper()
	r := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		r.Header.Set("Content-Type", "application/json")
	}
	for _, c := range s.jar {
		r.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	s.h.ServeHTTP(rec, r)
	for _, c := range rec.Result().Cookies() {
		s.jar = []*http.Cookie{c}
		if c.MaxAge < 0 {
			s.jar = nil
		}
	}
	return rec
}

func TestPingAndMetrics(t *testing.T) {
	s := newServer(t)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/ping", "").Code)

	s.do(http.MethodGet, "/api/nothing/here", "")
	rec := s.do(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `dispatch_results_total{kind="not_found",route="unmatched"} 1`)
}

func TestUnmatchedAPIPath(t *testing.T) {
	s := newServer(t)
	rec := s.do(http.MethodGet, "/api/nothing/here", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"message":"Page not found"}`, rec.Body.String())
}

func TestCookieSessionFlow(t *testing.T) {
	s := newServer(t)

	rec := s.do(http.MethodPost, "/api/users", `{"username":"ada","password":"pw"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(http.MethodGet, "/api/session", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodPost, "/api/login", `{"username":"ada","password":"pw"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Len(t, s.jar, 1)
	assert.Equal(t, "postd_session", s.jar[0].Name)

	rec = s.do(http.MethodGet, "/api/session", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"username":"ada"`)

	rec = s.do(http.MethodPost, "/api/posts",
		`{"description":"first light #dawn","image":"i.png","location":{"x":1,"y":2},"hashtags":"sky"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"started":"start new badge"`)

	rec = s.do(http.MethodPost, "/api/logout", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, s.jar)

	rec = s.do(http.MethodPost, "/api/logout", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSeedIsIdempotent(t *testing.T) {
	c := newConcepts(memory.New())
	badges := manifest.Defaults().Badges
	require.NoError(t, seed(context.Background(), c.Rewards, badges, zap.NewNop()))
	require.NoError(t, seed(context.Background(), c.Rewards, badges, zap.NewNop()))

	all, err := c.Rewards.Badges(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
