package core

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeydtaylor/steeze-social/pkg/apperr"
	"github.com/joeydtaylor/steeze-social/pkg/concepts/sessions"
)

func route(t *testing.T, specs []ParamSpec, v Validator) *RouteDefinition {
	t.Helper()
	names := make([]string, len(specs))
	for i, s := range specs {
		names[i] = s.Name
	}
	r := NewRegistry()
	pat := "/x"
	for _, s := range specs {
		if s.Origin == OriginPath {
			pat += "/:" + s.Name
		}
	}
	require.NoError(t, r.Register("POST", pat, noop("h", names...), specs, v))
	return r.Routes()[0]
}

func TestBindMissingRequiredNamesField(t *testing.T) {
	def := route(t, []ParamSpec{
		Body("description", String).Require(),
		Body("image", String).Require(),
	}, nil)

	_, err := Bind(def, RequestContext{Body: []byte(`{"description":"hi"}`)})
	require.Error(t, err)
	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, apperr.KindValidation, ae.Kind)
	assert.Equal(t, "image", ae.Field)
	assert.Equal(t, "missing", ae.Msg)

	_, err = Bind(def, RequestContext{Body: []byte(`{"description":"","image":"i"}`)})
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "description", ae.Field)
}

func TestBindSessionCheckedBeforeBody(t *testing.T) {
	def := route(t, []ParamSpec{
		Body("description", String).Require(),
		SessionUser("user"),
	}, nil)

	_, err := Bind(def, RequestContext{Body: []byte(`not json`)})
	assert.True(t, apperr.IsKind(err, apperr.KindAuthentication))

	_, err = Bind(def, RequestContext{Body: []byte(`not json`), Session: sessions.Resume("u1")})
	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "body", ae.Field)

	a, err := Bind(def, RequestContext{Body: []byte(`{"description":"d"}`), Session: sessions.Resume("u1")})
	require.NoError(t, err)
	assert.Equal(t, "u1", a.String("user"))
	assert.Equal(t, []string{"description", "user"}, a.Names())
}

func TestBindCoercesTypes(t *testing.T) {
	def := route(t, []ParamSpec{
		{Name: "n", Origin: OriginPath, Required: true, Type: Int},
		Query("limit", Int),
		Query("flag", Bool),
		Body("score", Float),
		Body("tags", StringList),
		Body("more", StringList),
		Body("location", Object),
	}, nil)

	a, err := Bind(def, RequestContext{
		PathValues: map[string]string{"n": "7"},
		Query:      url.Values{"limit": {"10"}, "flag": {"true"}},
		Body:       []byte(`{"score":2.5,"tags":"a, b,,c","more":["x"," y "],"location":{"x":"1.0","y":"2.0"}}`),
	})
	require.NoError(t, err)
	assert.Equal(t, 7, a.Int("n"))
	assert.Equal(t, 10, a.Int("limit"))
	assert.True(t, a.Bool("flag"))
	assert.Equal(t, 2.5, a.Float("score"))
	assert.Equal(t, []string{"a", "b", "c"}, a.Strings("tags"))
	assert.Equal(t, []string{"x", "y"}, a.Strings("more"))

	var loc struct{ X, Y string }
	require.NoError(t, a.Decode("location", &loc))
	assert.Equal(t, "1.0", loc.X)
}

func TestBindRejectsWrongTypes(t *testing.T) {
	def := route(t, []ParamSpec{Query("limit", Int), Body("location", Object)}, nil)

	_, err := Bind(def, RequestContext{Query: url.Values{"limit": {"ten"}}})
	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "limit", ae.Field)

	_, err = Bind(def, RequestContext{Body: []byte(`{"location":"here"}`)})
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "location", ae.Field)
}

func TestBindAcceptsFormBodies(t *testing.T) {
	def := route(t, []ParamSpec{Body("username", String).Require(), Body("password", String).Require()}, nil)
	a, err := Bind(def, RequestContext{
		Body:        []byte("username=alice&password=pw"),
		ContentType: "application/x-www-form-urlencoded; charset=utf-8",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", a.String("username"))
}

func TestBindRunsRulesAfterExtraction(t *testing.T) {
	def := route(t, []ParamSpec{
		Body("name", String).Require(),
		Body("threshold", Int).Require(),
		Body("logo", String),
	}, Rules{"threshold": "gt=0", "name": "max=5", "logo": "url"})

	_, err := Bind(def, RequestContext{Body: []byte(`{"name":"ok","threshold":0}`)})
	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "threshold", ae.Field)
	assert.Equal(t, "must satisfy gt=0", ae.Msg)

	a, err := Bind(def, RequestContext{Body: []byte(`{"name":"ok","threshold":3}`)})
	require.NoError(t, err, "absent optional fields skip their rule")
	assert.False(t, a.Has("logo"))
}
