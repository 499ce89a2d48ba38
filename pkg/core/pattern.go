package core

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var paramNameRE = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

type segment struct {
	name     string
	param    bool
	optional bool
}

// pattern is a parsed route template such as /posts/:postId/likes or
// /posts/:author?.
type pattern struct {
	raw  string
	segs []segment
}

func parsePattern(raw string) (pattern, error) {
	if !strings.HasPrefix(raw, "/") {
		return pattern{}, fmt.Errorf("pattern %q must start with /", raw)
	}
	p := pattern{raw: raw}
	parts := splitPath(raw)
	seen := map[string]bool{}
	for i, part := range parts {
		if part == "" {
			return pattern{}, fmt.Errorf("pattern %q has an empty segment", raw)
		}
		if !strings.HasPrefix(part, ":") {
			p.segs = append(p.segs, segment{name: part})
			continue
		}
		name := strings.TrimPrefix(part, ":")
		optional := strings.HasSuffix(name, "?")
		name = strings.TrimSuffix(name, "?")
		if !paramNameRE.MatchString(name) {
			return pattern{}, fmt.Errorf("pattern %q: bad parameter name %q", raw, name)
		}
		if optional && i != len(parts)-1 {
			return pattern{}, fmt.Errorf("pattern %q: optional parameter :%s? must be the last segment", raw, name)
		}
		if seen[name] {
			return pattern{}, fmt.Errorf("pattern %q: parameter :%s repeated", raw, name)
		}
		seen[name] = true
		p.segs = append(p.segs, segment{name: name, param: true, optional: optional})
	}
	return p, nil
}

func (p pattern) params() []segment {
	var out []segment
	for _, s := range p.segs {
		if s.param {
			out = append(out, s)
		}
	}
	return out
}

func (p pattern) statics() int {
	n := 0
	for _, s := range p.segs {
		if !s.param {
			n++
		}
	}
	return n
}

// match binds parts against the pattern. An absent optional segment is left
// out of the returned map.
func (p pattern) match(parts []string) (map[string]string, bool) {
	n := len(p.segs)
	switch {
	case len(parts) == n:
	case n > 0 && len(parts) == n-1 && p.segs[n-1].optional:
	default:
		return nil, false
	}
	values := map[string]string{}
	for i, part := range parts {
		s := p.segs[i]
		if !s.param {
			if s.name != part {
				return nil, false
			}
			continue
		}
		if part == "" {
			return nil, false
		}
		values[s.name] = part
	}
	return values, true
}

// splitPath splits on / ignoring leading and trailing slashes; "/" has no
// segments.
func splitPath(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

// requestSegments splits an escaped request path and unescapes each segment.
func requestSegments(escaped string) ([]string, error) {
	parts := splitPath(escaped)
	for i, part := range parts {
		s, err := url.PathUnescape(part)
		if err != nil {
			return nil, err
		}
		parts[i] = s
	}
	return parts, nil
}
