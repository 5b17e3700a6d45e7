package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	pkgauth "github.com/prayagtech/storefront/pkg/auth"
	"github.com/prayagtech/storefront/pkg/config"
	"github.com/prayagtech/storefront/pkg/enums"
	"github.com/prayagtech/storefront/pkg/logger"
)

type stubChecker struct {
	has bool
	err error
}

func (s stubChecker) HasSession(context.Context, string) (bool, error) {
	return s.has, s.err
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:         "test-secret",
		Issuer:         "storefront-test",
		ExpirationDays: 7,
		CookieName:     "sf_session",
	}
}

func mintToken(t *testing.T, cfg config.JWTConfig, userID uuid.UUID) string {
	t.Helper()
	token, err := pkgauth.MintSessionToken(cfg, time.Now(), pkgauth.SessionTokenPayload{
		UserID: userID,
		Role:   enums.UserRoleCustomer,
		JTI:    uuid.NewString(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestAuthRejectsMissingCredentials(t *testing.T) {
	cfg := testJWTConfig()
	logg := logger.New(logger.Options{ServiceName: "test"})

	handler := Auth(cfg, stubChecker{has: true}, logg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthAcceptsSessionCookie(t *testing.T) {
	cfg := testJWTConfig()
	logg := logger.New(logger.Options{ServiceName: "test"})
	userID := uuid.New()

	var seenUser *uuid.UUID
	handler := Auth(cfg, stubChecker{has: true}, logg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenUser = UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: cfg.CookieName, Value: mintToken(t, cfg, userID)})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if seenUser == nil || *seenUser != userID {
		t.Fatalf("expected user %s in context, got %v", userID, seenUser)
	}
}

func TestAuthRejectsRevokedSession(t *testing.T) {
	cfg := testJWTConfig()
	logg := logger.New(logger.Options{ServiceName: "test"})

	handler := Auth(cfg, stubChecker{has: false}, logg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: cfg.CookieName, Value: mintToken(t, cfg, uuid.New())})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestOptionalAuthPassesGuestsThrough(t *testing.T) {
	cfg := testJWTConfig()
	logg := logger.New(logger.Options{ServiceName: "test"})

	var ranAsGuest bool
	handler := OptionalAuth(cfg, stubChecker{has: true}, logg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ranAsGuest = UserIDFromContext(r.Context()) == nil
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !ranAsGuest {
		t.Fatal("expected guest request to reach handler without a user")
	}
}

func TestOptionalAuthStillRejectsBadCredentials(t *testing.T) {
	cfg := testJWTConfig()
	logg := logger.New(logger.Options{ServiceName: "test"})

	handler := OptionalAuth(cfg, stubChecker{has: true}, logg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.AddCookie(&http.Cookie{Name: cfg.CookieName, Value: "garbage"})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
