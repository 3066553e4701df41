// Package observability provides logging, metrics, and tracing.
package observability

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"
)

// Logger is the structured logger shared by every package. SetupLogger replaces it.
var Logger = slog.New(&ctxHandler{slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})})

// LogContextKey is a type for context keys used by the logging package.
type LogContextKey string

// Context keys for logging
const (
	RequestIDKey LogContextKey = "request_id"
	TraceIDKey   LogContextKey = "trace_id"
	ViewKey      LogContextKey = "view"
)

// ctxHandler is a slog.Handler that adds context values to the log record.
type ctxHandler struct {
	slog.Handler
}

// Handle adds context values to the record before passing it to the underlying handler.
func (h *ctxHandler) Handle(ctx context.Context, r slog.Record) error {
	if rid, ok := ctx.Value(RequestIDKey).(string); ok {
		r.AddAttrs(slog.String("request_id", rid))
	}
	if tid, ok := ctx.Value(TraceIDKey).(string); ok {
		r.AddAttrs(slog.String("trace_id", tid))
	}
	if view, ok := ctx.Value(ViewKey).(string); ok {
		r.AddAttrs(slog.String("view", view))
	}
	return h.Handler.Handle(ctx, r)
}

func (h *ctxHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ctxHandler{h.Handler.WithAttrs(attrs)}
}

func (h *ctxHandler) WithGroup(name string) slog.Handler {
	return &ctxHandler{h.Handler.WithGroup(name)}
}

// SetupLogger installs JSON output for production and text output elsewhere.
func SetupLogger(production bool, w io.Writer) {
	if w == nil {
		w = os.Stdout
	}
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	var handler slog.Handler
	if production {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	Logger = slog.New(&ctxHandler{handler})
	slog.SetDefault(Logger)
}

// WithView tags ctx so log records carry the view name.
func WithView(ctx context.Context, view string) context.Context {
	return context.WithValue(ctx, ViewKey, view)
}

// ClientLogger provides structured logging for outbound API calls.
type ClientLogger struct {
	service string
}

// NewClientLogger creates a ClientLogger for the named remote service.
func NewClientLogger(service string) *ClientLogger {
	return &ClientLogger{service: service}
}

// LogCall logs a completed API call.
func (l *ClientLogger) LogCall(ctx context.Context, operation, method, url string, status int, elapsed time.Duration) {
	Logger.InfoContext(ctx, "api call",
		slog.String("service", l.service),
		slog.String("operation", operation),
		slog.String("method", method),
		slog.String("url", url),
		slog.Int("status", status),
		slog.Duration("elapsed", elapsed),
	)
}

// LogError logs a failed API call.
func (l *ClientLogger) LogError(ctx context.Context, operation string, status int, err error) {
	Logger.WarnContext(ctx, "api call failed",
		slog.String("service", l.service),
		slog.String("operation", operation),
		slog.Int("status", status),
		slog.String("error", err.Error()),
	)
}

// ViewLogger provides structured logging for view controller lifecycles.
type ViewLogger struct {
	view string
}

// NewViewLogger creates a ViewLogger for the named view.
func NewViewLogger(view string) *ViewLogger {
	return &ViewLogger{view: view}
}

// LogSettled logs the outcome a load settled with.
func (l *ViewLogger) LogSettled(ctx context.Context, outcome string, fields map[string]interface{}) {
	attrs := []any{
		slog.String("view", l.view),
		slog.String("outcome", outcome),
	}
	for k, v := range fields {
		attrs = append(attrs, slog.Any(k, v))
	}
	Logger.InfoContext(ctx, "view settled", attrs...)
}

// LogDiscarded logs a result that arrived for a disposed or superseded load.
func (l *ViewLogger) LogDiscarded(ctx context.Context, reason string) {
	Logger.DebugContext(ctx, "view result discarded",
		slog.String("view", l.view),
		slog.String("reason", reason),
	)
}

// LogSyntheticID logs a post the server returned without an identifier.
func (l *ViewLogger) LogSyntheticID(ctx context.Context, index, assigned int) {
	Logger.WarnContext(ctx, "post missing id, assigning positional id",
		slog.String("view", l.view),
		slog.Int("index", index),
		slog.Int("assigned_id", assigned),
	)
}
