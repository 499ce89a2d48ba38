package serverfx

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"net/http"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/joeydtaylor/steeze-social/pkg/manifest"
)

type serverDeps struct {
	fx.In
	Config   Config
	Settings manifest.Settings
	Logger   *zap.Logger
	App      http.Handler `name:"app"`
	Shutdown fx.Shutdowner
}

func registerHooks(lc fx.Lifecycle, d serverDeps) {
	addr := d.Settings.Server.Listen
	useTLS := d.Settings.Server.TLS()

	srv := &http.Server{
		Addr:         addr,
		Handler:      d.App,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	if useTLS {
		srv.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS13, MaxVersion: tls.VersionTLS13}
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return err
			}
			mode := "PLAINTEXT"
			if useTLS {
				mode = "TLS"
			}
			d.Logger.Info("server starting",
				zap.String("service", d.Config.Service),
				zap.String("addr", ln.Addr().String()),
				zap.String("mode", mode),
			)
			go func() {
				var err error
				if useTLS {
					err = srv.ServeTLS(ln, d.Settings.Server.TLSCert, d.Settings.Server.TLSKey)
				} else {
					err = srv.Serve(ln)
				}
				if err != nil && !errors.Is(err, http.ErrServerClosed) {
					d.Logger.Error("server failed", zap.Error(err))
					_ = d.Shutdown.Shutdown(fx.ExitCode(1))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			d.Logger.Info("server stopping", zap.String("service", d.Config.Service))
			return srv.Shutdown(ctx)
		},
	})
}
