package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/Abdurahmanit/GroupProject/drink-service/internal/auth"
	"github.com/Abdurahmanit/GroupProject/drink-service/internal/platform/logger"
	"go.uber.org/zap"
)

// JWTAuth rejects requests without a valid bearer token. When sessions is not
// nil the token id must also still be live there, so logout takes effect
// before the token expires.
func JWTAuth(tokens *auth.TokenManager, sessions auth.SessionStore, log *logger.Logger) func(http.Handler) http.Handler {
	log = log.Named("JWTAuth")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			parts := strings.Fields(r.Header.Get("Authorization"))
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				unauthorized(w, "authorization token format is invalid, expected 'Bearer <token>'")
				return
			}

			claims, err := tokens.Parse(parts[1])
			if err != nil {
				log.Debug("Token rejected", zap.String("path", r.URL.Path), zap.Error(err))
				unauthorized(w, err.Error())
				return
			}

			if sessions != nil {
				email, err := sessions.Lookup(r.Context(), claims.ID)
				switch {
				case errors.Is(err, auth.ErrSessionNotFound):
					unauthorized(w, "session expired or revoked")
					return
				case err != nil:
					log.Error("Session lookup failed", zap.String("jti", claims.ID), zap.Error(err))
					writeJSONError(w, http.StatusInternalServerError, "internal server error")
					return
				case email != claims.Email:
					log.Warn("Session belongs to another user", zap.String("jti", claims.ID))
					unauthorized(w, "session does not match token")
					return
				}
			}

			ctx := context.WithValue(r.Context(), UserEmailCtxKey, claims.Email)
			ctx = context.WithValue(ctx, TokenIDCtxKey, claims.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="drink-service"`)
	writeJSONError(w, http.StatusUnauthorized, msg)
}

// same envelope as the handlers use
func writeJSONError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"data": map[string]interface{}{"res": nil, "err": msg},
	})
}
