package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"feedback_service/internal/auth"
	"feedback_service/internal/ctxdata"
	"feedback_service/internal/logging"
)

// NewAuthMiddleware admits requests carrying a staff session token, either
// as "Authorization: Bearer <token>" or, for websocket upgrades that cannot
// set headers, as the token query parameter.
func NewAuthMiddleware(authorizer auth.Authorizer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			logger := logging.FromContext(ctx, logging.NewNop())

			token := bearerToken(r)
			if token == "" {
				logger.Info(ctx, "no staff token", zap.String("path", r.URL.Path))
				writeError(w, http.StatusUnauthorized, "staff session required")
				return
			}

			staffID, err := authorizer.Authorize(ctx, token)
			if err != nil {
				if errors.Is(err, auth.ErrUnauthenticated) {
					logger.Info(ctx, "staff token rejected", zap.String("path", r.URL.Path))
					writeError(w, http.StatusUnauthorized, "staff session required")
					return
				}
				logger.Error(ctx, "staff authorization failed",
					zap.String("path", r.URL.Path),
					zap.String("method", r.Method),
					zap.Error(err),
				)
				writeError(w, http.StatusServiceUnavailable, "authorization unavailable")
				return
			}

			ctx = ctxdata.WithStaff(ctx, staffID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return r.URL.Query().Get("token")
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	resp, _ := json.Marshal(map[string]string{"error": message})
	w.Write(resp)
}
