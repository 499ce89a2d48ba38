package serverfx

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/joeydtaylor/steeze-social/pkg/app"
	"github.com/joeydtaylor/steeze-social/pkg/concepts/accounts"
	"github.com/joeydtaylor/steeze-social/pkg/concepts/forums"
	"github.com/joeydtaylor/steeze-social/pkg/concepts/friends"
	"github.com/joeydtaylor/steeze-social/pkg/concepts/posts"
	"github.com/joeydtaylor/steeze-social/pkg/concepts/rewards"
	"github.com/joeydtaylor/steeze-social/pkg/concepts/sessions"
	"github.com/joeydtaylor/steeze-social/pkg/core"
	"github.com/joeydtaylor/steeze-social/pkg/electrician"
	"github.com/joeydtaylor/steeze-social/pkg/manifest"
	"github.com/joeydtaylor/steeze-social/pkg/middleware/auth"
	"github.com/joeydtaylor/steeze-social/pkg/middleware/metrics"
	"github.com/joeydtaylor/steeze-social/pkg/store"
	"github.com/joeydtaylor/steeze-social/pkg/store/memory"
	"github.com/joeydtaylor/steeze-social/pkg/store/postgres"
)

// Collection names.
const (
	collUsers      = "users"
	collPosts      = "posts"
	collForums     = "forums"
	collFriends    = "friends"
	collUserBadges = "userBadges"
	collBadges     = "badgeDefinitions"
)

func provideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func provideBackend(lc fx.Lifecycle, s manifest.Settings, log *zap.Logger) (store.Backend, error) {
	switch s.Store.Driver {
	case manifest.DriverPostgres:
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		pg, err := postgres.Open(ctx, s.Store.DSN)
		if err != nil {
			return nil, err
		}
		if err := pg.Migrate(ctx); err != nil {
			_ = pg.Close()
			return nil, fmt.Errorf("postgres migrate: %w", err)
		}
		lc.Append(fx.StopHook(pg.Close))
		log.Info("store ready", zap.String("driver", s.Store.Driver))
		return pg, nil
	default:
		log.Warn("store is in-memory; data is lost on restart")
		return memory.New(), nil
	}
}

func provideConcepts(b store.Backend) app.Concepts {
	return newConcepts(b)
}

func newConcepts(b store.Backend, opts ...accounts.Option) app.Concepts {
	return app.Concepts{
		Accounts: accounts.New(b, collUsers, opts...),
		Sessions: sessions.New(),
		Posts:    posts.New(b, collPosts),
		Forums:   forums.New(b, collForums),
		Friends:  friends.New(b, collFriends),
		Rewards:  rewards.New(b, collUserBadges, collBadges),
	}
}

func provideAuth(cfg Config, s manifest.Settings, log *zap.Logger) (*auth.Middleware, error) {
	if s.GeneratedSecret {
		log.Warn("session secret not configured; generated one, sessions end on restart")
	}
	if cfg.DevBypass {
		log.Warn("AUTH_DEV_BYPASS enabled; X-Dev-User is trusted")
	}
	return auth.New(s.Session, auth.WithDevBypass(cfg.DevBypass))
}

func provideActivity(lc fx.Lifecycle, s manifest.Settings, log *zap.Logger) (*electrician.Activity, error) {
	ctx, cancel := context.WithCancel(context.Background())
	rc, err := electrician.NewBuilderRelay(ctx, s.Relay)
	if err != nil {
		cancel()
		return nil, err
	}
	lc.Append(fx.StopHook(cancel))
	if len(s.Relay.Targets) > 0 {
		log.Info("activity relay ready", zap.Strings("targets", s.Relay.Targets))
	}
	return electrician.NewActivity(rc, log.Named("activity")), nil
}

func provideApp(c app.Concepts, s manifest.Settings, log *zap.Logger, act *electrician.Activity, m *metrics.Collector) *app.App {
	return app.New(c,
		app.Config{PostingBadge: s.Rewards.PostingBadge, PostingPoints: s.Rewards.PostingPoints},
		log.Named("app"),
		app.WithActivity(act),
		app.WithStepObserver(m),
	)
}

// provideRoutes registers every route and freezes the registry.
func provideRoutes(a *app.App) (*core.Registry, error) {
	reg := core.NewRegistry()
	if err := a.Register(reg); err != nil {
		return nil, err
	}
	reg.Freeze()
	return reg, nil
}

func provideDispatcher(reg *core.Registry, s manifest.Settings, log *zap.Logger, am *auth.Middleware, m *metrics.Collector) *core.Dispatcher {
	return core.NewDispatcher(reg, log.Named("dispatch"),
		core.WithSessionStore(am),
		core.WithRecorder(m),
		core.WithTimeout(time.Duration(s.Server.TimeoutMS)*time.Millisecond),
	)
}

// seedBadges defines the configured badges that do not exist yet.
func seedBadges(lc fx.Lifecycle, s manifest.Settings, c app.Concepts, log *zap.Logger) {
	lc.Append(fx.StartHook(func(ctx context.Context) error {
		return seed(ctx, c.Rewards, s.Badges, log)
	}))
}

func seed(ctx context.Context, r *rewards.Concept, badges []manifest.Badge, log *zap.Logger) error {
	for _, b := range badges {
		_, err := r.DefineBadge(ctx, b.Name, b.Logo, b.Threshold, b.Hashtags)
		switch {
		case err == nil:
			log.Info("badge seeded", zap.String("badge", b.Name))
		case isConflict(err):
		default:
			return fmt.Errorf("seed badge %s: %w", b.Name, err)
		}
	}
	return nil
}
