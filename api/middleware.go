package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/warp/inventory-engine/auth"
	"go.uber.org/zap"
)

type callerSlotKey struct{}

// requestLogger logs each HTTP request with method, path, status, duration,
// request id and, once authenticated, the caller.
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			// Authentication happens deeper in the chain; it reports the
			// caller back through this slot.
			var caller string
			ctx := context.WithValue(r.Context(), callerSlotKey{}, &caller)

			next.ServeHTTP(ww, r.WithContext(ctx))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", status),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			}
			if caller != "" {
				fields = append(fields, zap.String("user", caller))
			}

			if status >= 500 {
				logger.Error("http.request", fields...)
				return
			}
			logger.Info("http.request", fields...)
		})
	}
}

// recordCaller copies the authenticated username into the request logger's slot.
func recordCaller(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if slot, ok := r.Context().Value(callerSlotKey{}).(*string); ok {
			if p, ok := auth.PrincipalFromCtx(r.Context()); ok {
				*slot = p.Username
			}
		}
		next.ServeHTTP(w, r)
	})
}
