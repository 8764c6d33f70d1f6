package logger

import (
	"strings"
	"sync"

	"go.uber.org/zap"
)

var (
	mu    sync.RWMutex
	sugar = zap.NewNop().Sugar()
)

// Init builds the process logger. "production" logs JSON at info level,
// anything else logs console output at debug level.
func Init(env string) {
	var cfg zap.Config
	switch strings.ToLower(env) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewDevelopmentConfig()
		// odd key/value lists must never panic in development
		cfg.Development = false
	}

	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		l = zap.NewExample()
	}

	mu.Lock()
	sugar = l.Sugar()
	mu.Unlock()
}

// Sync flushes buffered entries; call it before exit.
func Sync() {
	_ = current().Sync()
}

func Debug(msg string, args ...any) { current().Debugw(msg, normalize(args)...) }
func Info(msg string, args ...any)  { current().Infow(msg, normalize(args)...) }
func Warn(msg string, args ...any)  { current().Warnw(msg, normalize(args)...) }
func Error(msg string, args ...any) { current().Errorw(msg, normalize(args)...) }
func Fatal(msg string, args ...any) { current().Fatalw(msg, normalize(args)...) }

func current() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return sugar
}

// normalize accepts both key/value pairs and the short form
// logger.Error("msg", err): a lone trailing error is logged under "error".
func normalize(args []any) []any {
	if len(args)%2 == 0 {
		return args
	}
	last := args[len(args)-1]
	out := make([]any, 0, len(args)+1)
	out = append(out, args[:len(args)-1]...)
	if err, ok := last.(error); ok {
		return append(out, "error", err)
	}
	return append(out, "extra", last)
}
