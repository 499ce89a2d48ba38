package core

import (
	"fmt"
	"slices"

	"github.com/joeydtaylor/steeze-social/pkg/codec"
	"github.com/joeydtaylor/steeze-social/pkg/concepts/sessions"
)

// Args are the bound, typed arguments of one handler invocation. Absent
// optional parameters read as the zero value. Reading a name the route never
// declared panics; the dispatcher reports it as an internal error.
type Args struct {
	names   []string
	values  map[string]any
	session *sessions.Session
}

// NewArgs builds Args directly, for handlers invoked outside a request.
func NewArgs(s *sessions.Session, values map[string]any) *Args {
	a := &Args{values: map[string]any{}, session: s}
	for k, v := range values {
		a.names = append(a.names, k)
		a.values[k] = v
	}
	return a
}

// Names lists the declared parameters in route order.
func (a *Args) Names() []string { return append([]string(nil), a.names...) }

// UnboundParam is the panic value raised by a read of an undeclared name.
type UnboundParam struct{ Name string }

func (u UnboundParam) Error() string {
	return fmt.Sprintf("core: parameter %q is not declared by the route", u.Name)
}

func (a *Args) get(name string) (any, bool) {
	if !slices.Contains(a.names, name) {
		panic(UnboundParam{Name: name})
	}
	v, ok := a.values[name]
	return v, ok
}

func (a *Args) Has(name string) bool {
	_, ok := a.get(name)
	return ok
}

func (a *Args) Value(name string) any {
	v, _ := a.get(name)
	return v
}

func (a *Args) String(name string) string {
	v, _ := a.get(name)
	s, _ := v.(string)
	return s
}

func (a *Args) Int(name string) int {
	v, _ := a.get(name)
	n, _ := v.(int)
	return n
}

func (a *Args) Float(name string) float64 {
	v, _ := a.get(name)
	f, _ := v.(float64)
	return f
}

func (a *Args) Bool(name string) bool {
	v, _ := a.get(name)
	b, _ := v.(bool)
	return b
}

func (a *Args) Object(name string) map[string]any {
	v, _ := a.get(name)
	m, _ := v.(map[string]any)
	return m
}

func (a *Args) Strings(name string) []string {
	v, _ := a.get(name)
	s, _ := v.([]string)
	return s
}

// Decode re-encodes an Object parameter into dst.
func (a *Args) Decode(name string, dst any) error {
	v, ok := a.get(name)
	if !ok {
		return fmt.Errorf("core: parameter %q not bound", name)
	}
	raw, err := codec.JSON.Marshal(v)
	if err != nil {
		return err
	}
	return codec.JSON.Unmarshal(raw, dst)
}

// Session is the request's session. Handlers change it through the sessions
// concept and the dispatcher writes the change back to the client.
func (a *Args) Session() *sessions.Session { return a.session }
