// Package logger provides the structured, levelled logger built on log/slog.
//
// WithCtx returns the request-scoped logger (already tagged with request_id)
// installed by the Logger middleware:
//
//	log := logger.WithCtx(r.Context())
//	log.Info("order placed", "order_number", o.OrderNumber)
//	// → time=... level=INFO msg="order placed" request_id=5f0c... order_number=ORD-...
package logger

import (
	"context"
	"log/slog"
	"os"

	"github.com/gebeta-app/gebeta/config"
)

var L *slog.Logger

func init() {
	L = slog.New(consoleHandler())
	slog.SetDefault(L)
}

// consoleHandler is JSON in production, text everywhere else.
func consoleHandler() slog.Handler {
	if config.IsProduction() {
		return slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	return slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
}

// Setup rebuilds the base logger after config.Load and attaches the MongoDB
// sink when LOG_MONGO_URI is set. The returned func flushes and disconnects
// the sink; it is safe to call when no sink was attached.
func Setup() (func(), error) {
	handler := consoleHandler()
	closer := func() {}

	if uri := config.LogMongoURI(); uri != "" {
		mh, err := NewMongoHandler(MongoOptions{
			URI:        uri,
			Database:   config.LogMongoDB(),
			Collection: config.LogMongoCollection(),
			Service:    "gebeta",
		})
		if err != nil {
			L = slog.New(handler)
			slog.SetDefault(L)
			return closer, err
		}
		handler = NewMultiHandler(handler, mh)
		closer = mh.Close
	}

	L = slog.New(handler)
	slog.SetDefault(L)
	return closer, nil
}

// ─────────────────────────────────────────────
// Context-aware logger
// ─────────────────────────────────────────────

type ctxKey struct{}

// WithCtx returns the logger stored in ctx by InjectLogger, or the base logger.
func WithCtx(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return L
	}
	if log, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && log != nil {
		return log
	}
	return L
}

// InjectLogger stores a request-scoped logger in ctx.
func InjectLogger(ctx context.Context, log *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, log)
}

// ─────────────────────────────────────────────
// Short-hand helpers (use base logger)
// ─────────────────────────────────────────────

func Debug(msg string, args ...any) { L.Debug(msg, args...) }

func Info(msg string, args ...any) { L.Info(msg, args...) }

func Warn(msg string, args ...any) { L.Warn(msg, args...) }

func Error(msg string, args ...any) { L.Error(msg, args...) }
