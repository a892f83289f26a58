// Package logger provides context-aware structured logging backed by zap.
package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level is a logging threshold.
type Level int8

const (
	LevelDebug Level = Level(zapcore.DebugLevel)
	LevelInfo  Level = Level(zapcore.InfoLevel)
	LevelWarn  Level = Level(zapcore.WarnLevel)
	LevelError Level = Level(zapcore.ErrorLevel)
)

// ParseLevel maps a config string to a Level, defaulting to info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// TraceIDFn extracts a trace id from ctx; "" means none.
type TraceIDFn func(ctx context.Context) string

// LoggerInterface is what application code depends on. Arguments after msg
// are alternating key/value pairs. The c variants skip extra caller frames.
type LoggerInterface interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)
	Debugc(ctx context.Context, caller int, msg string, args ...any)
	Infoc(ctx context.Context, caller int, msg string, args ...any)
	Warnc(ctx context.Context, caller int, msg string, args ...any)
	Errorc(ctx context.Context, caller int, msg string, args ...any)
}

// Logger implements LoggerInterface.
type Logger struct {
	zl        *zap.Logger
	traceIDFn TraceIDFn
}

var _ LoggerInterface = (*Logger)(nil)

// New builds a JSON logger writing to w.
func New(w io.Writer, level Level, serviceName string, traceIDFn TraceIDFn) *Logger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "time"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encCfg),
		zapcore.Lock(zapcore.AddSync(w)),
		zapcore.Level(level),
	)

	zl := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(2)).
		With(zap.String("service", serviceName))

	return &Logger{zl: zl, traceIDFn: traceIDFn}
}

// NewNop returns a logger that discards everything.
func NewNop() *Logger {
	return &Logger{zl: zap.NewNop()}
}

// NewFile creates dir if needed and opens a timestamped log file in it.
// The caller owns the returned file.
func NewFile(dir string, now time.Time) (*os.File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	name := filepath.Join(dir, now.Format("2006-01-02T15-04-05")+".log")
	return os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}

// Sync flushes buffered entries.
func (l *Logger) Sync() error {
	return l.zl.Sync()
}

func (l *Logger) Debug(ctx context.Context, msg string, args ...any) {
	l.write(ctx, 0, zapcore.DebugLevel, msg, args)
}

func (l *Logger) Info(ctx context.Context, msg string, args ...any) {
	l.write(ctx, 0, zapcore.InfoLevel, msg, args)
}

func (l *Logger) Warn(ctx context.Context, msg string, args ...any) {
	l.write(ctx, 0, zapcore.WarnLevel, msg, args)
}

func (l *Logger) Error(ctx context.Context, msg string, args ...any) {
	l.write(ctx, 0, zapcore.ErrorLevel, msg, args)
}

func (l *Logger) Debugc(ctx context.Context, caller int, msg string, args ...any) {
	l.write(ctx, caller, zapcore.DebugLevel, msg, args)
}

func (l *Logger) Infoc(ctx context.Context, caller int, msg string, args ...any) {
	l.write(ctx, caller, zapcore.InfoLevel, msg, args)
}

func (l *Logger) Warnc(ctx context.Context, caller int, msg string, args ...any) {
	l.write(ctx, caller, zapcore.WarnLevel, msg, args)
}

func (l *Logger) Errorc(ctx context.Context, caller int, msg string, args ...any) {
	l.write(ctx, caller, zapcore.ErrorLevel, msg, args)
}

func (l *Logger) write(ctx context.Context, caller int, lvl zapcore.Level, msg string, args []any) {
	zl := l.zl
	if caller > 0 {
		zl = zl.WithOptions(zap.AddCallerSkip(caller))
	}
	ce := zl.Check(lvl, msg)
	if ce == nil {
		return
	}
	fields := toFields(args)
	if l.traceIDFn != nil && ctx != nil {
		if id := l.traceIDFn(ctx); id != "" {
			fields = append(fields, zap.String("trace_id", id))
		}
	}
	ce.Write(fields...)
}

// toFields converts key/value pairs; a dangling value is kept under "!BADKEY".
func toFields(args []any) []zap.Field {
	fields := make([]zap.Field, 0, len(args)/2+1)
	for i := 0; i < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok || i+1 >= len(args) {
			fields = append(fields, zap.Any("!BADKEY", args[i]))
			i--
			continue
		}
		val := args[i+1]
		if err, isErr := val.(error); isErr {
			fields = append(fields, zap.NamedError(key, err))
			continue
		}
		fields = append(fields, zap.Any(key, val))
	}
	return fields
}
