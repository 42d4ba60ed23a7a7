package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/vladimiradmaev/eyecare-tracker/internal/auth"
	apperrors "github.com/vladimiradmaev/eyecare-tracker/internal/errors"
	"github.com/vladimiradmaev/eyecare-tracker/internal/interfaces"
	"github.com/vladimiradmaev/eyecare-tracker/internal/logger"
	"github.com/vladimiradmaev/eyecare-tracker/internal/metrics"
)

type contextKey string

const claimsContextKey contextKey = "claims"

// requestLogger logs every request and records it under its route pattern
func requestLogger(m *metrics.Collector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			elapsed := time.Since(start)
			m.ObserveHTTP(r.Method, route, status, elapsed)

			logger.WithContext(r.Context()).Info("HTTP request",
				"method", r.Method,
				"route", route,
				"status", status,
				"bytes", ww.BytesWritten(),
				"duration", elapsed,
				"request_id", chimiddleware.GetReqID(r.Context()),
			)
		})
	}
}

// authenticate rejects requests without a valid, unrevoked bearer token
func authenticate(svc interfaces.AuthServiceInterface) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get("Authorization")
			if token == "" {
				respondError(w, apperrors.NewUnauthorizedError("missing bearer token"))
				return
			}
			claims, err := svc.Authenticate(r.Context(), token)
			if err != nil {
				respondError(w, err)
				return
			}
			ctx := context.WithValue(r.Context(), claimsContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func claimsFromContext(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(claimsContextKey).(*auth.Claims)
	return claims
}

func userIDFromContext(ctx context.Context) string {
	if claims := claimsFromContext(ctx); claims != nil {
		return claims.UserID
	}
	return ""
}
