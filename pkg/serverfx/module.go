// Package serverfx is the fx composition root: settings, loggers, store,
// concepts, route registry, dispatcher and the HTTP server lifecycle.
package serverfx

import (
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/joeydtaylor/steeze-social/pkg/manifest"
	"github.com/joeydtaylor/steeze-social/pkg/middleware/logger"
	"github.com/joeydtaylor/steeze-social/pkg/middleware/metrics"
	"github.com/joeydtaylor/steeze-social/pkg/transport/httpx"
)

type Config struct {
	Service   string // for logs only
	DevBypass bool   // trust X-Dev-User; never in production
}

type Option func(*Config)

func WithService(s string) Option { return func(c *Config) { c.Service = s } }
func WithDevBypass(on bool) Option { return func(c *Config) { c.DevBypass = on } }

func defaultConfig() Config {
	return Config{
		Service:   "postd",
		DevBypass: os.Getenv("AUTH_DEV_BYPASS") == "true",
	}
}

// Module returns the complete fx option set for the server.
func Module(opts ...Option) fx.Option {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	return fx.Options(
		fx.Supply(cfg),
		fx.Provide(manifest.Load),
		logger.Module,

		// Metrics on a private registry.
		fx.Provide(provideRegistry),
		fx.Provide(func(reg *prometheus.Registry) *metrics.Collector { return metrics.New(reg) }),

		fx.Provide(provideBackend),
		fx.Provide(provideConcepts),
		fx.Provide(provideAuth),
		fx.Provide(provideActivity),
		fx.Provide(provideApp),
		fx.Provide(provideRoutes),
		fx.Provide(provideDispatcher),

		fx.Provide(httpx.NewChi),
		fx.Provide(fx.Annotate(provideRouter, fx.ResultTags(`name:"app"`))),

		fx.Invoke(seedBadges),
		fx.Invoke(registerHooks),
	)
}
