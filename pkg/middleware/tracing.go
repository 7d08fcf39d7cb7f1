package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/richxcame/rental-insights/pkg/tracing"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const TraceIDHeader = "X-Trace-ID"

// TracingMiddleware opens a server span per request, continuing any trace
// propagated by the caller. Report spans started by handlers nest under it.
func TracingMiddleware(serviceName string) gin.HandlerFunc {
	tracer := otel.Tracer(serviceName)

	return func(c *gin.Context) {
		ctx := otel.GetTextMapPropagator().Extract(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))

		route := routeLabel(c)
		ctx, span := tracer.Start(ctx, c.Request.Method+" "+route,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", c.Request.Method),
				attribute.String("http.route", route),
				attribute.String("http.target", c.Request.URL.RequestURI()),
				attribute.String("http.client_ip", c.ClientIP()),
			),
		)
		defer span.End()

		if sc := span.SpanContext(); sc.HasTraceID() {
			c.Header(TraceIDHeader, sc.TraceID().String())
		}
		if id := c.GetString(CorrelationIDKey); id != "" {
			span.SetAttributes(attribute.String("http.request_id", id))
		}
		if agencyID := c.Param("agency_id"); agencyID != "" {
			span.SetAttributes(tracing.AgencyIDKey.String(agencyID))
		}

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(
			attribute.Int("http.status_code", status),
			attribute.Int("http.response_size", c.Writer.Size()),
		)

		for _, err := range c.Errors {
			span.RecordError(err.Err)
		}
		switch {
		case len(c.Errors) > 0:
			span.SetStatus(codes.Error, c.Errors.Last().Error())
		case status >= http.StatusInternalServerError:
			span.SetStatus(codes.Error, http.StatusText(status))
		default:
			span.SetStatus(codes.Ok, "")
		}
	}
}
