package metrics

import (
	"net/http"
	"strings"
)

type options struct {
	skip      map[string]struct{}
	normalize func(*http.Request) string
}

type Option func(*options)

func defaultOptions() options {
	return options{
		skip:      map[string]struct{}{"/metrics": {}, "/ping": {}},
		normalize: collapsePath,
	}
}

// WithSkipPaths excludes paths from the HTTP counters.
func WithSkipPaths(paths ...string) Option {
	return func(o *options) {
		for _, p := range paths {
			if p = strings.TrimSpace(p); p != "" {
				o.skip[p] = struct{}{}
			}
		}
	}
}

// WithPathNormalizer sets the uri label function.
func WithPathNormalizer(fn func(*http.Request) string) Option {
	return func(o *options) {
		if fn != nil {
			o.normalize = fn
		}
	}
}

// collapsePath keeps the first two path segments so ids never become labels.
func collapsePath(r *http.Request) string {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) > 2 {
		parts = parts[:2]
	}
	return "/" + strings.Join(parts, "/")
}
