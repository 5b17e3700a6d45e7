package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/prayagtech/storefront/pkg/config"
	"github.com/prayagtech/storefront/pkg/enums"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:         "secret",
		Issuer:         "storefront",
		ExpirationDays: 7,
	}
}

func TestMintAndParseSessionToken(t *testing.T) {
	cfg := testJWTConfig()
	userID := uuid.New()

	token, err := MintSessionToken(cfg, time.Now(), SessionTokenPayload{
		UserID: userID,
		Role:   enums.UserRoleCustomer,
		JTI:    "session-1",
	})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	claims, err := ParseSessionToken(cfg, token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != userID {
		t.Fatalf("expected user id %s, got %s", userID, claims.UserID)
	}
	if claims.Role != enums.UserRoleCustomer {
		t.Fatalf("expected customer role, got %s", claims.Role)
	}
	if claims.ID != "session-1" {
		t.Fatalf("expected jti session-1, got %s", claims.ID)
	}

	remaining := time.Until(claims.ExpiresAt.Time)
	if remaining < 6*24*time.Hour || remaining > 7*24*time.Hour {
		t.Fatalf("expected roughly 7 day expiry, got %s", remaining)
	}
}

func TestParseRejectsWrongSecret(t *testing.T) {
	cfg := testJWTConfig()
	token, err := MintSessionToken(cfg, time.Now(), SessionTokenPayload{
		UserID: uuid.New(),
		Role:   enums.UserRoleAdmin,
	})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	other := cfg
	other.Secret = "different"
	if _, err := ParseSessionToken(other, token); err == nil {
		t.Fatalf("expected parse failure with wrong secret")
	}
}

func TestMintRejectsInvalidRole(t *testing.T) {
	if _, err := MintSessionToken(testJWTConfig(), time.Now(), SessionTokenPayload{
		UserID: uuid.New(),
		Role:   enums.UserRole("superuser"),
	}); err == nil {
		t.Fatalf("expected role validation error")
	}
}
