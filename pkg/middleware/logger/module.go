package logger

import (
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Options(
	fx.Provide(ProvideLoggerMiddleware),
	fx.Provide(ProvideLogger),
)

func ProvideLoggerMiddleware() *Middleware { return New(NewLog("http-access.log")) }
func ProvideLogger() *zap.Logger           { return NewLog("system.log") }
