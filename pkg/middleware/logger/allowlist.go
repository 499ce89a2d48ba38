package logger

import (
	"net/http"
	"strings"
)

// credentialPaths never have their bodies logged.
var credentialPaths = map[string]struct{}{
	"/api/login":          {},
	"/api/users":          {},
	"/api/users/password": {},
}

var defaultBodyPaths = []string{
	"/api/posts",
	"/api/forums",
	"/api/badges",
}

// AddBodyLogPaths extends the allowlist. Credential paths stay excluded.
func (m *Middleware) AddBodyLogPaths(paths ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range paths {
		p = strings.TrimSpace(p)
		if p != "" {
			m.bodyPaths[p] = struct{}{}
		}
	}
}

// Only log small JSON request bodies on allowlisted routes.
func (m *Middleware) shouldLogBody(r *http.Request, body []byte) bool {
	if r.Method != http.MethodPost && r.Method != http.MethodPut && r.Method != http.MethodPatch {
		return false
	}
	if len(body) == 0 || len(body) > 1<<16 { // 64 KiB cap
		return false
	}
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		return false
	}
	path := strings.TrimSuffix(r.URL.Path, "/")
	if _, secret := credentialPaths[path]; secret {
		return false
	}
	m.mu.RLock()
	_, ok := m.bodyPaths[path]
	m.mu.RUnlock()
	return ok
}
