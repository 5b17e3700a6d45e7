package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/prayagtech/storefront/api/responses"
	pkgauth "github.com/prayagtech/storefront/pkg/auth"
	"github.com/prayagtech/storefront/pkg/auth/session"
	"github.com/prayagtech/storefront/pkg/config"
	pkgerrors "github.com/prayagtech/storefront/pkg/errors"
	"github.com/prayagtech/storefront/pkg/logger"
)

// Auth validates the session cookie (or a bearer token) and seeds the
// request context with the authenticated identity. The token must carry a
// session id that is still registered in Redis, so logout takes effect
// before the JWT expires.
func Auth(cfg config.JWTConfig, verifier session.AccessSessionChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, err := authenticate(r, cfg, verifier, logg)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth authenticates when credentials are present and lets the
// request through as a guest when they are not. Invalid credentials are
// still rejected rather than silently downgraded.
func OptionalAuth(cfg config.JWTConfig, verifier session.AccessSessionChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !hasCredentials(r, cfg) {
				next.ServeHTTP(w, r)
				return
			}
			ctx, err := authenticate(r, cfg, verifier, logg)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func hasCredentials(r *http.Request, cfg config.JWTConfig) bool {
	if _, ok := pkgauth.SessionTokenFromRequest(r, cfg); ok {
		return true
	}
	return strings.TrimSpace(r.Header.Get("Authorization")) != ""
}

func authenticate(r *http.Request, cfg config.JWTConfig, verifier session.AccessSessionChecker, logg *logger.Logger) (ctx context.Context, err error) {
	token, ok := pkgauth.SessionTokenFromRequest(r, cfg)
	if !ok {
		raw := strings.TrimSpace(r.Header.Get("Authorization"))
		if strings.HasPrefix(strings.ToLower(raw), "bearer ") {
			token = strings.TrimSpace(raw[7:])
		}
	}
	if token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}

	claims, err := pkgauth.ParseSessionToken(cfg, token)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token")
	}
	if claims.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id")
	}

	if verifier != nil {
		ok, err := verifier.HasSession(r.Context(), claims.ID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session")
		}
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session expired")
		}
	}

	ctx = WithActor(r.Context(), claims.UserID, claims.Role, claims.ID)
	if logg != nil {
		ctx = logg.WithFields(ctx, map[string]any{
			"user_id":    claims.UserID.String(),
			"actor_role": string(claims.Role),
		})
	}
	return ctx, nil
}
