package main

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ctxKey string

const userIDKey ctxKey = "userID"

// authMiddleware resolves the caller. A Bearer token must be valid. Without
// one, the configured default user is used unless AUTH_REQUIRED is set.
func (a *App) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid := a.cfg.DefaultUserID
		authz := r.Header.Get("Authorization")
		switch {
		case strings.HasPrefix(authz, "Bearer "):
			var err error
			uid, err = parseJWT(a.cfg.JWTSecret, strings.TrimPrefix(authz, "Bearer "), a.now)
			if err != nil {
				fail(w, http.StatusUnauthorized, "invalid token")
				return
			}
		case a.cfg.AuthRequired:
			fail(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		ctx := context.WithValue(r.Context(), userIDKey, uid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// mustUserID returns the userID from context or NilObjectID if missing.
func mustUserID(r *http.Request) primitive.ObjectID {
	val := r.Context().Value(userIDKey)
	if val == nil {
		return primitive.NilObjectID
	}
	return val.(primitive.ObjectID)
}

// requestLogger logs one line per request; 5xx at error level.
func (a *App) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		level := slog.LevelInfo
		if status >= 500 {
			level = slog.LevelError
		}
		a.log.LogAttrs(r.Context(), level, "http request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", status),
			slog.Int("bytes", ww.BytesWritten()),
			slog.Duration("took", time.Since(start)),
			slog.String("reqId", middleware.GetReqID(r.Context())),
		)
	})
}
