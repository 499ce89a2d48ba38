package serverfx

import (
	"net/http"

	chimd "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/joeydtaylor/steeze-social/pkg/apperr"
	"github.com/joeydtaylor/steeze-social/pkg/core"
	"github.com/joeydtaylor/steeze-social/pkg/middleware/auth"
	"github.com/joeydtaylor/steeze-social/pkg/middleware/logger"
	"github.com/joeydtaylor/steeze-social/pkg/middleware/metrics"
	"github.com/joeydtaylor/steeze-social/pkg/transport/httpx"
)

// APIPrefix is where the dispatcher is mounted.
const APIPrefix = "/api"

type routerDeps struct {
	fx.In

	R          httpx.Router
	Auth       *auth.Middleware
	Log        *logger.Middleware
	Metrics    *metrics.Collector
	Prom       *prometheus.Registry
	Dispatcher *core.Dispatcher
}

func provideRouter(d routerDeps) http.Handler {
	r := d.R
	r.Use(
		chimd.RequestID,
		chimd.RealIP,
		chimd.Recoverer,
		d.Auth.Middleware(),
		d.Metrics.Middleware(),
		d.Log.Middleware(),
	)
	r.Get("/metrics", metrics.NewPromHttpHandler(d.Prom))
	r.Get("/ping", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("."))
	}))
	// The dispatcher matches on the path below the prefix.
	r.Mount(APIPrefix, http.StripPrefix(APIPrefix, d.Dispatcher))
	return r.Mux()
}

func isConflict(err error) bool { return apperr.IsKind(err, apperr.KindConflict) }
