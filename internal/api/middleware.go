package api

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	apperrors "ascend-intake/internal/common/errors"
	"ascend-intake/internal/common/logger"
	"ascend-intake/internal/common/observability"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// accessLog wraps each request in a server span, writes one line per request
// through the service logger and feeds the request metrics.
func accessLog(log logger.Logger, obs *observability.Observability) func(http.Handler) http.Handler {
	var tracer trace.Tracer
	if obs != nil {
		tracer = obs.Tracer("ascend-intake/api")
	} else {
		tracer = otel.Tracer("ascend-intake/api")
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			ctx, span := tracer.Start(r.Context(), r.Method+" "+r.URL.Path, trace.WithSpanKind(trace.SpanKindServer))
			defer span.End()
			r = r.WithContext(ctx)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			duration := time.Since(start)

			span.SetName(r.Method + " " + route)
			span.SetAttributes(
				attribute.String("http.route", route),
				attribute.Int("http.status_code", status),
			)

			if obs != nil {
				obs.RecordRequest(r.Context(), r.Method, route, status, duration)
			}
			fields := map[string]interface{}{
				"requestId":  middleware.GetReqID(r.Context()),
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     status,
				"bytes":      ww.BytesWritten(),
				"durationMs": duration.Milliseconds(),
				"remoteAddr": r.RemoteAddr,
			}
			if sc := span.SpanContext(); sc.IsValid() {
				fields["traceId"] = sc.TraceID().String()
			}
			log.Info("HTTP request", fields)
		})
	}
}

// requestTimeout puts a deadline on the request context; store and
// notification calls inherit it.
func requestTimeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if d <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerAuth requires "Authorization: Bearer <token>". An empty token
// disables the check.
func bearerAuth(token string, errHandler *apperrors.ErrorHandler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if token == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			presented, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
				status, _ := errHandler.Handle(
					apperrors.NewUnauthorizedError("missing or invalid bearer token"),
					map[string]interface{}{"requestId": middleware.GetReqID(r.Context()), "path": r.URL.Path},
				)
				respondError(w, status, "Unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
