package middleware

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"newsletter/internal/observability"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestCheckRateLimit(t *testing.T) {
	mr, rdb := newRedis(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		allowed, err := CheckRateLimit(ctx, rdb, "create_post", "ip:1.2.3.4", 2, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
	}

	allowed, err := CheckRateLimit(ctx, rdb, "create_post", "ip:1.2.3.4", 2, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)

	// A different client has its own budget.
	allowed, err = CheckRateLimit(ctx, rdb, "create_post", "ip:5.6.7.8", 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)

	// The window expires.
	mr.FastForward(2 * time.Minute)
	allowed, err = CheckRateLimit(ctx, rdb, "create_post", "ip:1.2.3.4", 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestCheckRateLimit_NilRedis(t *testing.T) {
	allowed, err := CheckRateLimit(context.Background(), nil, "r", "1", 1, time.Minute)
	assert.ErrorIs(t, err, ErrNoStore)
	assert.False(t, allowed)
}

func TestRateLimit(t *testing.T) {
	_, rdb := newRedis(t)

	tests := []struct {
		name       string
		rdb        *redis.Client
		cfg        RateLimitConfig
		wantStatus []int
	}{
		{
			name:       "Limits after budget",
			rdb:        rdb,
			cfg:        RateLimitConfig{Limit: 1, Window: time.Minute, Resource: "limited"},
			wantStatus: []int{http.StatusOK, http.StatusTooManyRequests},
		},
		{
			name:       "Disabled",
			rdb:        rdb,
			cfg:        RateLimitConfig{Limit: 0, Window: time.Minute, Resource: "disabled"},
			wantStatus: []int{http.StatusOK, http.StatusOK},
		},
		{
			name:       "Fail open without redis",
			cfg:        RateLimitConfig{Limit: 1, Window: time.Minute},
			wantStatus: []int{http.StatusOK, http.StatusOK},
		},
		{
			name:       "Fail closed without redis",
			cfg:        RateLimitConfig{Limit: 1, Window: time.Minute, Policy: FailClosed},
			wantStatus: []int{http.StatusServiceUnavailable},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Post("/create-post", RateLimit(tt.rdb, tt.cfg), func(c *fiber.Ctx) error {
				return c.SendStatus(fiber.StatusOK)
			})

			for i, want := range tt.wantStatus {
				resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/create-post", nil))
				require.NoError(t, err)
				_ = resp.Body.Close()
				assert.Equal(t, want, resp.StatusCode, "request %d", i)
			}
		})
	}
}

func TestRateLimit_CustomLimitReached(t *testing.T) {
	_, rdb := newRedis(t)
	app := fiber.New()
	app.Post("/", RateLimit(rdb, RateLimitConfig{
		Limit:  1,
		Window: time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).SendString("slow down")
		},
	}), func(c *fiber.Ctx) error { return c.SendString("ok") })

	for i := 0; i < 2; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/", nil))
		require.NoError(t, err)
		_ = resp.Body.Close()
		if i == 1 {
			assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
		}
	}
}

func TestStructuredLogger_CarriesRequestID(t *testing.T) {
	var buf bytes.Buffer
	observability.SetupLogger(true, &buf)
	defer observability.SetupLogger(false, nil)

	app := fiber.New()
	app.Use(requestid.New(requestid.Config{Generator: func() string { return "req-123" }}))
	app.Use(ContextMiddleware())
	app.Use(TracingMiddleware())
	app.Use(StructuredLogger())
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("ok") })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	_ = resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Trace-ID"))
	assert.Contains(t, buf.String(), `"request_id":"req-123"`)
	assert.Contains(t, buf.String(), `"msg":"request processed"`)
}

func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	prev := observability.Tracer
	observability.Tracer = tp.Tracer("test")
	t.Cleanup(func() {
		observability.Tracer = prev
		_ = tp.Shutdown(context.Background())
	})
	return sr
}

func spanAttr(span sdktrace.ReadOnlySpan, key string) (attribute.Value, bool) {
	for _, kv := range span.Attributes() {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestTracingMiddleware_NamesSpanByRoute(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		wantName string
		wantID   string
		wantCode int64
	}{
		{name: "Post route", path: "/newsletter/42", wantName: "GET /newsletter/:id", wantID: "42", wantCode: http.StatusOK},
		{name: "Static route", path: "/newsletters", wantName: "GET /newsletters", wantCode: http.StatusOK},
		{name: "Unmatched", path: "/nope", wantName: "GET /nope", wantCode: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sr := recordSpans(t)

			app := fiber.New()
			app.Use(TracingMiddleware())
			app.Get("/newsletters", func(c *fiber.Ctx) error { return c.SendString("list") })
			app.Get("/newsletter/:id", func(c *fiber.Ctx) error { return c.SendString(c.Params("id")) })

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, tt.path, nil))
			require.NoError(t, err)
			_ = resp.Body.Close()

			spans := sr.Ended()
			require.Len(t, spans, 1)
			span := spans[0]
			assert.Equal(t, tt.wantName, span.Name())
			assert.Equal(t, span.SpanContext().TraceID().String(), resp.Header.Get("X-Trace-ID"))

			code, ok := spanAttr(span, "http.status_code")
			require.True(t, ok)
			assert.Equal(t, tt.wantCode, code.AsInt64())

			id, ok := spanAttr(span, "post.id")
			if tt.wantID == "" {
				assert.False(t, ok)
				return
			}
			require.True(t, ok)
			assert.Equal(t, tt.wantID, id.AsString())
		})
	}
}
