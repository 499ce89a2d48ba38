package metrics

import (
	"net/http"
	"strconv"
	"time"

	chimd "github.com/go-chi/chi/v5/middleware"

	"github.com/joeydtaylor/steeze-social/pkg/middleware/auth"
)

// Middleware records the HTTP counters and histogram.
func (c *Collector) Middleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimd.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			defer func() {
				if _, skip := c.opts.skip[r.URL.Path]; skip {
					return
				}
				code := strconv.Itoa(ww.Status())
				c.totalAuthenticated.WithLabelValues(strconv.FormatBool(auth.UserID(r.Context()) != "")).Inc()
				c.totalHttpRequestsToUri.WithLabelValues(code, c.opts.normalize(r), r.Method).Inc()
				c.totalHttpRequests.WithLabelValues(code, r.Method).Inc()
				c.responseTime.Observe(time.Since(start).Seconds())
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
