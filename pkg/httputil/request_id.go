package httputil

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/cwrk-planet/coderoom/internal/logger"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/propagation"
)

type ctxKey string

const (
	HeaderRequestID        = "X-Request-ID"
	ctxKeyReqID     ctxKey = "req_id"
)

var traceContext = propagation.TraceContext{}

// MiddlewareRequestID forwards X-Request-ID or generates one. It also picks up
// an incoming W3C traceparent and stores a request-scoped logger carrying both,
// so logger.FromContext(r.Context()) logs req_id and trace_id.
func MiddlewareRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get(HeaderRequestID)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, reqID)

		ctx := traceContext.Extract(r.Context(), propagation.HeaderCarrier(r.Header))
		ctx = context.WithValue(ctx, ctxKeyReqID, reqID)
		ctx = logger.WithContext(ctx, slog.Default().With("req_id", reqID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func FromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ctxKeyReqID).(string)
	return v, ok
}
