package core

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
)

// ErrFrozen is returned by Register once the registry serves traffic.
var ErrFrozen = errors.New("core: route registry is frozen")

// HandlerFunc runs one route. The returned value is encoded as the JSON
// response body; a Result sets the status explicitly.
type HandlerFunc func(ctx context.Context, a *Args) (any, error)

// Handler names a HandlerFunc and declares, in order, the parameters it reads.
type Handler struct {
	Name   string
	Params []string
	Fn     HandlerFunc
}

// RouteDefinition is immutable once registered.
type RouteDefinition struct {
	Verb      string
	Pattern   string
	Handler   Handler
	Params    []ParamSpec
	Validator Validator

	pat   pattern
	order int
}

// Key identifies the route in logs and metrics.
func (d *RouteDefinition) Key() string { return d.Verb + " " + d.Pattern }

var verbs = map[string]bool{
	http.MethodGet:    true,
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodPatch:  true,
	http.MethodDelete: true,
}

type routeKey struct{ verb, pattern string }

// Registry maps (verb, pattern) to handlers. Populate it at startup, then
// Freeze it.
type Registry struct {
	mu     sync.RWMutex
	frozen bool
	routes []*RouteDefinition
	byKey  map[routeKey]*RouteDefinition
	byVerb map[string][]*RouteDefinition
}

func NewRegistry() *Registry {
	return &Registry{
		byKey:  map[routeKey]*RouteDefinition{},
		byVerb: map[string][]*RouteDefinition{},
	}
}

// Register adds one route. All errors are configuration errors.
func (r *Registry) Register(verb, pat string, h Handler, params []ParamSpec, v Validator) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return ErrFrozen
	}

	verb = strings.ToUpper(strings.TrimSpace(verb))
	if !verbs[verb] {
		return fmt.Errorf("core: %s %s: unsupported verb", verb, pat)
	}
	key := routeKey{verb, pat}
	if _, dup := r.byKey[key]; dup {
		return fmt.Errorf("core: %s %s: route already registered", verb, pat)
	}
	parsed, err := parsePattern(pat)
	if err != nil {
		return fmt.Errorf("core: %s %s: %w", verb, pat, err)
	}
	if h.Fn == nil {
		return fmt.Errorf("core: %s %s: handler %q has no function", verb, pat, h.Name)
	}
	if err := checkParams(parsed, h, params); err != nil {
		return fmt.Errorf("core: %s %s: %w", verb, pat, err)
	}

	def := &RouteDefinition{
		Verb:      verb,
		Pattern:   pat,
		Handler:   h,
		Params:    append([]ParamSpec(nil), params...),
		Validator: v,
		pat:       parsed,
		order:     len(r.routes),
	}
	r.routes = append(r.routes, def)
	r.byKey[key] = def
	r.byVerb[verb] = append(r.byVerb[verb], def)
	return nil
}

// MustRegister panics on configuration errors.
func (r *Registry) MustRegister(verb, pat string, h Handler, params []ParamSpec, v Validator) {
	if err := r.Register(verb, pat, h, params, v); err != nil {
		panic(err)
	}
}

// Freeze makes the registry immutable.
func (r *Registry) Freeze() {
	r.mu.Lock()
	r.frozen = true
	r.mu.Unlock()
}

func (r *Registry) Frozen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frozen
}

// Routes returns the definitions in registration order.
func (r *Registry) Routes() []*RouteDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*RouteDefinition(nil), r.routes...)
}

// Match finds the route for verb and an escaped request path. Among routes
// matching every segment, the one whose pattern has the most segments wins,
// then the one with the most static segments, then the earliest registered.
func (r *Registry) Match(verb, escapedPath string) (*RouteDefinition, map[string]string, bool) {
	parts, err := requestSegments(escapedPath)
	if err != nil {
		return nil, nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var (
		best       *RouteDefinition
		bestValues map[string]string
	)
	for _, def := range r.byVerb[strings.ToUpper(verb)] {
		values, ok := def.pat.match(parts)
		if !ok {
			continue
		}
		if best == nil || beats(def, best) {
			best, bestValues = def, values
		}
	}
	return best, bestValues, best != nil
}

func beats(a, b *RouteDefinition) bool {
	if la, lb := len(a.pat.segs), len(b.pat.segs); la != lb {
		return la > lb
	}
	if sa, sb := a.pat.statics(), b.pat.statics(); sa != sb {
		return sa > sb
	}
	return a.order < b.order
}

func checkParams(p pattern, h Handler, specs []ParamSpec) error {
	if len(h.Params) != len(specs) {
		return fmt.Errorf("handler %q declares %d parameters, route binds %d", h.Name, len(h.Params), len(specs))
	}
	byName := map[string]ParamSpec{}
	for i, s := range specs {
		if s.Name == "" {
			return fmt.Errorf("parameter %d has no name", i)
		}
		if h.Params[i] != s.Name {
			return fmt.Errorf("handler %q parameter %d is %q, route binds %q", h.Name, i, h.Params[i], s.Name)
		}
		if _, dup := byName[s.Name]; dup {
			return fmt.Errorf("parameter %q bound twice", s.Name)
		}
		if !s.Origin.valid() || !s.Type.valid() {
			return fmt.Errorf("parameter %q has an unknown origin or type", s.Name)
		}
		byName[s.Name] = s
	}

	inPattern := map[string]bool{}
	for _, seg := range p.params() {
		inPattern[seg.name] = true
		s, ok := byName[seg.name]
		if !ok || s.Origin != OriginPath {
			return fmt.Errorf("path parameter :%s has no path-origin spec", seg.name)
		}
		if seg.optional && s.Required {
			return fmt.Errorf("optional path parameter :%s cannot be required", seg.name)
		}
		if !seg.optional && !s.Required {
			return fmt.Errorf("path parameter :%s must be required", seg.name)
		}
	}
	var stray []string
	for _, s := range specs {
		if s.Origin == OriginPath && !inPattern[s.Name] {
			stray = append(stray, s.Name)
		}
	}
	if len(stray) > 0 {
		sort.Strings(stray)
		return fmt.Errorf("path-origin parameters %v are not in the pattern", stray)
	}
	return nil
}
