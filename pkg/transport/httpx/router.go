package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Router is the HTTP mux contract the server depends on.
type Router interface {
	Handle(method, path string, h http.Handler)
	Get(path string, h http.Handler)
	Post(path string, h http.Handler)
	Put(path string, h http.Handler)
	Patch(path string, h http.Handler)
	Delete(path string, h http.Handler)
	// Mount serves every path under prefix with h. h sees the full path.
	Mount(prefix string, h http.Handler)
	Use(mw ...func(http.Handler) http.Handler)
	Mux() http.Handler
}

// chiRouter is the default Router backed by chi.
type chiRouter struct{ r *chi.Mux }

// NewChi returns a chi-backed Router.
func NewChi() Router { return &chiRouter{r: chi.NewRouter()} }

func (c *chiRouter) Handle(method, path string, h http.Handler) { c.r.Method(method, path, h) }
func (c *chiRouter) Get(path string, h http.Handler)            { c.r.Method(http.MethodGet, path, h) }
func (c *chiRouter) Post(path string, h http.Handler)           { c.r.Method(http.MethodPost, path, h) }
func (c *chiRouter) Put(path string, h http.Handler)            { c.r.Method(http.MethodPut, path, h) }
func (c *chiRouter) Patch(path string, h http.Handler)          { c.r.Method(http.MethodPatch, path, h) }
func (c *chiRouter) Delete(path string, h http.Handler)         { c.r.Method(http.MethodDelete, path, h) }
func (c *chiRouter) Mount(prefix string, h http.Handler)        { c.r.Mount(prefix, h) }
func (c *chiRouter) Use(mw ...func(http.Handler) http.Handler)  { c.r.Use(mw...) }
func (c *chiRouter) Mux() http.Handler                          { return c.r }
