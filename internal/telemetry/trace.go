package telemetry

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// StartGatewaySpan starts a client span for one auth gateway call.
//
//	ctx, span := telemetry.StartGatewaySpan(ctx, http.MethodPost, "/api/auth/login")
//	defer span.End()
func StartGatewaySpan(ctx context.Context, method, path string) (context.Context, trace.Span) {
	ctx, span := TracerProvider().Tracer("authclient").Start(ctx, "gateway "+method+" "+path,
		trace.WithSpanKind(trace.SpanKindClient))
	span.SetAttributes(
		attribute.String("http.method", method),
		attribute.String("http.target", path),
		attribute.String("component", "authclient"),
	)
	return ctx, span
}

// StartProxySpan starts a server span for a proxied request. Incoming
// trace context in r's headers becomes the parent.
func StartProxySpan(r *http.Request, upstream string) (context.Context, trace.Span) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
	ctx, span := TracerProvider().Tracer("proxy").Start(ctx, "proxy "+upstream,
		trace.WithSpanKind(trace.SpanKindServer))
	span.SetAttributes(
		attribute.String("http.method", r.Method),
		attribute.String("http.target", r.URL.Path),
		attribute.String("proxy.upstream", upstream),
		attribute.String("component", "proxy"),
	)
	return ctx, span
}

// Inject writes ctx's trace context into outgoing headers.
func Inject(ctx context.Context, h http.Header) {
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(h))
}

// RecordStatus sets the HTTP status attribute; 5xx marks the span failed.
func RecordStatus(span trace.Span, status int) {
	span.SetAttributes(attribute.Int("http.status_code", status))
	if status >= 500 {
		span.SetStatus(codes.Error, http.StatusText(status))
		return
	}
	span.SetStatus(codes.Ok, "")
}

// RecordError marks span failed with err. A nil err is ignored.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
