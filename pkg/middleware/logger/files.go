package logger

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Dir holds the rotated log files.
const Dir = "log"

// NewLog returns a JSON logger that writes to stdout and to a rotated file
// named n under Dir.
func NewLog(n string) *zap.Logger {
	_ = os.MkdirAll(Dir, 0o755)

	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "ts"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder

	w := zapcore.AddSync(&lumberjack.Logger{
		Filename:   filepath.Join(Dir, n),
		MaxSize:    50, // MB
		MaxBackups: 3,
		MaxAge:     7, // days
	})

	core := zapcore.NewTee(
		zapcore.NewCore(zapcore.NewJSONEncoder(cfg), w, zap.InfoLevel),
		zapcore.NewCore(zapcore.NewJSONEncoder(cfg), zapcore.Lock(os.Stdout), zap.InfoLevel),
	)
	return zap.New(core).Named(trimExt(n))
}

func trimExt(n string) string { return n[:len(n)-len(filepath.Ext(n))] }
