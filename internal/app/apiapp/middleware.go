package apiapp

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/maxjeon97/friender/internal/services/auth"
	"github.com/maxjeon97/friender/internal/transport/http/handlers"
	apierrors "github.com/maxjeon97/friender/internal/transport/http/errors"
)

func applyMiddlewares(r chi.Router, logger *zap.Logger) {
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(requestLogger(logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Info("http request",
				zap.String("request_id", chimw.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}

// TokenValidator checks an access token and returns the identity behind it.
type TokenValidator interface {
	ValidateAccessToken(ctx context.Context, raw string) (auth.Identity, error)
}

func authMiddleware(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := handlers.BearerToken(r)
			if token == "" {
				apierrors.Write(w, apierrors.Unauthorized())
				return
			}

			identity, err := validator.ValidateAccessToken(r.Context(), token)
			if err != nil {
				apierrors.Write(w, apierrors.Unauthorized())
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), identity)))
		})
	}
}
