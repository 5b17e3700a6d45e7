package config

import (
	"strings"
	"testing"
	"time"
)

func TestEnsureDSNPassesThroughExplicitDSN(t *testing.T) {
	cfg := DBConfig{DSN: "postgres://app:secret@db:5432/storefront?sslmode=disable"}
	if err := cfg.ensureDSN(); err != nil {
		t.Fatalf("ensureDSN: %v", err)
	}
	if !strings.HasPrefix(cfg.DSN, "postgres://app") {
		t.Fatalf("unexpected DSN %q", cfg.DSN)
	}
}

func TestEnsureDSNBuildsFromLegacyParts(t *testing.T) {
	cfg := DBConfig{
		LegacyHost:     "localhost",
		LegacyPort:     5432,
		LegacyUser:     "app",
		LegacyPassword: "s3cret",
		LegacyName:     "storefront",
		LegacySSLMode:  "disable",
	}
	if err := cfg.ensureDSN(); err != nil {
		t.Fatalf("ensureDSN: %v", err)
	}
	if !strings.Contains(cfg.DSN, "localhost:5432") || !strings.Contains(cfg.DSN, "sslmode=disable") {
		t.Fatalf("built DSN missing parts: %q", cfg.DSN)
	}
}

func TestEnsureDSNReportsMissingLegacyParts(t *testing.T) {
	cfg := DBConfig{LegacyHost: "localhost"}
	err := cfg.ensureDSN()
	if err == nil {
		t.Fatalf("expected error for missing legacy vars")
	}
	if !strings.Contains(err.Error(), EnvDBUser) {
		t.Fatalf("expected missing var names in error, got %v", err)
	}
}

func TestSessionTTL(t *testing.T) {
	cfg := JWTConfig{ExpirationDays: 7}
	if got := cfg.SessionTTL(); got != 7*24*time.Hour {
		t.Fatalf("expected 7 day TTL, got %s", got)
	}
	if got := (JWTConfig{}).SessionTTL(); got != 0 {
		t.Fatalf("expected zero TTL default, got %s", got)
	}
}
