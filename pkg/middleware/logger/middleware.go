// Package logger provides the zap loggers and the HTTP access log.
package logger

import (
	"bytes"
	"io"
	"net/http"
	"sync"
	"time"

	chimd "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/joeydtaylor/steeze-social/pkg/middleware/auth"
)

type Middleware struct {
	access *zap.Logger

	mu        sync.RWMutex
	bodyPaths map[string]struct{}
}

func New(access *zap.Logger) *Middleware {
	m := &Middleware{access: access, bodyPaths: map[string]struct{}{}}
	m.AddBodyLogPaths(defaultBodyPaths...)
	return m
}

// Middleware logs one line per request. It must run inside the auth
// middleware so the session user is visible.
func (m *Middleware) Middleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimd.NewWrapResponseWriter(w, r.ProtoMajor)

			// Read and restore the body so the dispatcher can consume it.
			var body []byte
			if r.Body != nil {
				if b, err := io.ReadAll(r.Body); err == nil {
					body = b
				}
				r.Body.Close()
				r.Body = io.NopCloser(bytes.NewReader(body))
			}

			scheme := "http"
			if r.TLS != nil {
				scheme = "https"
			}

			start := time.Now()
			defer func() {
				uid := auth.UserID(r.Context())
				fields := []zap.Field{
					zap.String("requestId", chimd.GetReqID(r.Context())),
					zap.String("httpScheme", scheme),
					zap.Bool("isAuthenticated", uid != ""),
					zap.String("userId", uid),
					zap.String("httpProto", r.Proto),
					zap.String("httpMethod", r.Method),
					zap.String("remoteAddr", r.RemoteAddr),
					zap.String("uri", r.URL.Path),
					zap.Duration("lat", time.Since(start)),
					zap.Int("responseSize", ww.BytesWritten()),
					zap.Int("status", ww.Status()),
				}
				if m.shouldLogBody(r, body) {
					fields = append(fields, zap.ByteString("requestData", body))
				}
				m.access.Info("request", fields...)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
