package http

import (
	"booth-queue/common/errs"
	"booth-queue/core/admin"
	"booth-queue/outbound/auth"
	"context"
	"net/http"
	"strings"
	"time"
)

func TimeoutMiddleware(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, timeout, "request timeout")
	}
}

func CorsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

type SessionVerifier interface {
	Verify(ctx context.Context, token string) (*auth.Claims, error)
}

type sessionCtxKey struct{}

func sessionFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(sessionCtxKey{}).(*auth.Claims)
	return claims, ok && claims != nil
}

func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	// browsers cannot set headers on websocket upgrades
	return r.URL.Query().Get("token")
}

// SessionMiddleware attaches the verified session of the caller, when there
// is one. Invalid tokens are treated as anonymous.
func SessionMiddleware(verifier SessionVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if verifier == nil || token == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := verifier.Verify(r.Context(), token)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionCtxKey{}, claims)))
		})
	}
}

// RequireAdmin hides the handler from callers the access policy does not
// let see the admin view.
func RequireAdmin(policy admin.AccessPolicy, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, authenticated := sessionFromContext(r.Context())
		if !policy.Visible(authenticated) {
			writeErrorResponse(w, errs.ErrAuthFailed)
			return
		}
		next(w, r)
	}
}

func actor(r *http.Request) string {
	if claims, ok := sessionFromContext(r.Context()); ok {
		return claims.Email
	}
	return ""
}
