package middleware

import (
	"context"
	"errors"
	"fmt"

	"newsletter/internal/observability"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// TracingMiddleware opens a server span per request, continuing any trace the
// caller propagated. The span is named after the matched route once the
// handler has run, and post routes are tagged with the post id.
func TracingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		parent := otel.GetTextMapPropagator().Extract(c.UserContext(), propagation.HeaderCarrier(c.GetReqHeaders()))
		ctx, span := observability.Tracer.Start(parent, c.Method(),
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(requestAttributes(c)...),
		)
		defer span.End()

		sc := span.SpanContext()
		c.Locals("traceID", sc.TraceID().String())
		c.Locals("spanID", sc.SpanID().String())
		c.Set("X-Trace-ID", sc.TraceID().String())
		c.SetUserContext(context.WithValue(ctx, observability.TraceIDKey, sc.TraceID().String()))

		err := c.Next()
		finishSpan(c, span, err)
		return err
	}
}

func requestAttributes(c *fiber.Ctx) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("http.method", c.Method()),
		attribute.String("http.path", c.Path()),
		attribute.String("http.url", c.OriginalURL()),
		attribute.String("http.ip", c.IP()),
		attribute.String("http.user_agent", c.Get(fiber.HeaderUserAgent)),
	}
	if id, ok := c.Locals("requestid").(string); ok && id != "" {
		attrs = append(attrs, attribute.String("request.id", id))
	}
	return attrs
}

// finishSpan runs after the handler, when the matched route and its params are known.
func finishSpan(c *fiber.Ctx, span trace.Span, err error) {
	route := c.Route().Path
	status := c.Response().StatusCode()
	// The error handler has not written the response yet.
	var fe *fiber.Error
	if errors.As(err, &fe) {
		status = fe.Code
		if fe.Code == fiber.StatusNotFound {
			route = c.Path()
		}
	}
	span.SetName(fmt.Sprintf("%s %s", c.Method(), route))
	span.SetAttributes(
		attribute.String("http.route", route),
		attribute.Int("http.status_code", status),
	)
	if id := c.Params("id"); id != "" {
		span.SetAttributes(attribute.String("post.id", id))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}
