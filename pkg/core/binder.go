package core

import (
	"encoding/json"
	"fmt"
	"mime"
	"net/url"
	"strconv"
	"strings"

	"github.com/joeydtaylor/steeze-social/pkg/apperr"
	"github.com/joeydtaylor/steeze-social/pkg/codec"
	"github.com/joeydtaylor/steeze-social/pkg/concepts/sessions"
)

// Origin is where a parameter's raw value comes from.
type Origin int

const (
	OriginPath Origin = iota
	OriginQuery
	OriginBody
	OriginSession
)

func (o Origin) valid() bool { return o >= OriginPath && o <= OriginSession }

func (o Origin) String() string {
	switch o {
	case OriginPath:
		return "path"
	case OriginQuery:
		return "query"
	case OriginBody:
		return "body"
	case OriginSession:
		return "session"
	default:
		return fmt.Sprintf("origin(%d)", int(o))
	}
}

// Type is the Go shape a raw value is coerced into.
type Type int

const (
	String Type = iota
	Int
	Float
	Bool
	Object
	StringList
)

func (t Type) valid() bool { return t >= String && t <= StringList }

func (t Type) String() string {
	switch t {
	case String:
		return "string"
	case Int:
		return "int"
	case Float:
		return "float"
	case Bool:
		return "bool"
	case Object:
		return "object"
	case StringList:
		return "list"
	default:
		return fmt.Sprintf("type(%d)", int(t))
	}
}

type ParamSpec struct {
	Name     string
	Origin   Origin
	Required bool
	Type     Type
}

// Path binds a required path segment.
func Path(name string) ParamSpec {
	return ParamSpec{Name: name, Origin: OriginPath, Required: true}
}

// OptionalPath binds a trailing :name? segment.
func OptionalPath(name string) ParamSpec {
	return ParamSpec{Name: name, Origin: OriginPath}
}

func Query(name string, t Type) ParamSpec {
	return ParamSpec{Name: name, Origin: OriginQuery, Type: t}
}

func Body(name string, t Type) ParamSpec {
	return ParamSpec{Name: name, Origin: OriginBody, Type: t}
}

// SessionUser binds the logged-in user's id. Requests without one fail with
// an authentication error before anything else is bound.
func SessionUser(name string) ParamSpec {
	return ParamSpec{Name: name, Origin: OriginSession, Required: true}
}

// Require returns a copy of p marked required.
func (p ParamSpec) Require() ParamSpec {
	p.Required = true
	return p
}

// RequestContext is the raw input of one request.
type RequestContext struct {
	PathValues  map[string]string
	Query       url.Values
	Body        []byte
	ContentType string
	Session     *sessions.Session
}

// Bind produces the handler arguments for def. Session parameters are
// checked first, so unauthenticated requests never have their query or body
// inspected.
func Bind(def *RouteDefinition, rc RequestContext) (*Args, error) {
	a := &Args{values: map[string]any{}, session: rc.Session}
	if a.session == nil {
		a.session = sessions.Resume("")
	}
	for _, s := range def.Params {
		a.names = append(a.names, s.Name)
	}

	for _, s := range def.Params {
		if s.Origin != OriginSession {
			continue
		}
		uid := a.session.UserID()
		if uid == "" {
			if s.Required {
				return nil, apperr.Unauthenticated("Must be logged in!")
			}
			continue
		}
		a.values[s.Name] = uid
	}

	var (
		body    map[string]any
		bodyErr error
		parsed  bool
	)
	for _, s := range def.Params {
		var (
			raw     any
			present bool
		)
		switch s.Origin {
		case OriginSession:
			continue
		case OriginPath:
			raw, present = lookupString(rc.PathValues, s.Name)
		case OriginQuery:
			if rc.Query.Has(s.Name) {
				raw, present = rc.Query.Get(s.Name), true
			}
		case OriginBody:
			if !parsed {
				body, bodyErr = parseBody(rc.Body, rc.ContentType)
				parsed = true
			}
			if bodyErr != nil {
				return nil, bodyErr
			}
			raw, present = body[s.Name]
		}
		if !present || isBlank(raw) {
			if s.Required {
				return nil, apperr.Validation(s.Name, "missing")
			}
			continue
		}
		v, err := coerce(raw, s.Type)
		if err != nil {
			return nil, apperr.Validation(s.Name, err.Error())
		}
		a.values[s.Name] = v
	}

	if def.Validator != nil {
		if err := def.Validator.Validate(a); err != nil {
			if apperr.KindOf(err) == apperr.KindValidation {
				return nil, err
			}
			return nil, apperr.Wrap(apperr.KindValidation, err, "%s", err.Error())
		}
	}
	return a, nil
}

func lookupString(m map[string]string, k string) (any, bool) {
	v, ok := m[k]
	return v, ok
}

func isBlank(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	}
	return false
}

func parseBody(raw []byte, contentType string) (map[string]any, error) {
	if len(strings.TrimSpace(string(raw))) == 0 {
		return map[string]any{}, nil
	}
	mt, _, _ := mime.ParseMediaType(contentType)
	if mt == "application/x-www-form-urlencoded" {
		form, err := url.ParseQuery(string(raw))
		if err != nil {
			return nil, apperr.Validation("body", "invalid form encoding")
		}
		out := make(map[string]any, len(form))
		for k := range form {
			out[k] = form.Get(k)
		}
		return out, nil
	}
	m, err := codec.DecodeObject(raw)
	if err != nil {
		return nil, apperr.Validation("body", "invalid JSON object")
	}
	return m, nil
}

func coerce(raw any, t Type) (any, error) {
	switch t {
	case String:
		switch x := raw.(type) {
		case string:
			return x, nil
		case json.Number:
			return x.String(), nil
		case bool:
			return strconv.FormatBool(x), nil
		}
		return nil, fmt.Errorf("must be a string")
	case Int:
		switch x := raw.(type) {
		case json.Number:
			if n, err := x.Int64(); err == nil {
				return int(n), nil
			}
		case string:
			if n, err := strconv.Atoi(strings.TrimSpace(x)); err == nil {
				return n, nil
			}
		}
		return nil, fmt.Errorf("must be an integer")
	case Float:
		switch x := raw.(type) {
		case json.Number:
			if f, err := x.Float64(); err == nil {
				return f, nil
			}
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(x), 64); err == nil {
				return f, nil
			}
		}
		return nil, fmt.Errorf("must be a number")
	case Bool:
		switch x := raw.(type) {
		case bool:
			return x, nil
		case string:
			if b, err := strconv.ParseBool(strings.TrimSpace(x)); err == nil {
				return b, nil
			}
		}
		return nil, fmt.Errorf("must be a boolean")
	case Object:
		if m, ok := raw.(map[string]any); ok {
			return m, nil
		}
		return nil, fmt.Errorf("must be an object")
	case StringList:
		switch x := raw.(type) {
		case string:
			var out []string
			for _, p := range strings.Split(x, ",") {
				if p = strings.TrimSpace(p); p != "" {
					out = append(out, p)
				}
			}
			return out, nil
		case []any:
			out := make([]string, 0, len(x))
			for _, e := range x {
				s, ok := e.(string)
				if !ok {
					return nil, fmt.Errorf("must be a list of strings")
				}
				if s = strings.TrimSpace(s); s != "" {
					out = append(out, s)
				}
			}
			return out, nil
		}
		return nil, fmt.Errorf("must be a list of strings")
	}
	return nil, fmt.Errorf("unsupported type %s", t)
}
