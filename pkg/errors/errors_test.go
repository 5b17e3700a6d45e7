package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestMetadataForKnownCodes(t *testing.T) {
	cases := []struct {
		code   Code
		status int
	}{
		{CodeValidation, http.StatusBadRequest},
		{CodeUnauthorized, http.StatusUnauthorized},
		{CodeForbidden, http.StatusForbidden},
		{CodeNotFound, http.StatusNotFound},
		{CodeRateLimit, http.StatusTooManyRequests},
		{CodeSignatureInvalid, http.StatusBadRequest},
		{CodeGatewayDisabled, http.StatusForbidden},
		{CodeDependency, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		if got := MetadataFor(tc.code).HTTPStatus; got != tc.status {
			t.Fatalf("code %s: expected status %d, got %d", tc.code, tc.status, got)
		}
	}
}

func TestMetadataForUnknownCodeFallsBackToInternal(t *testing.T) {
	meta := MetadataFor(Code("NO_SUCH_CODE"))
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal fallback, got %d", meta.HTTPStatus)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stdErrors.New("socket closed")
	err := Wrap(CodeDependency, cause, "gateway call failed")

	if !stdErrors.Is(err, cause) {
		t.Fatalf("expected wrapped cause to survive errors.Is")
	}
	typed := As(fmt.Errorf("outer: %w", err))
	if typed == nil || typed.Code() != CodeDependency {
		t.Fatalf("expected typed error through wrapping, got %v", typed)
	}
}

func TestDumpCollectsChain(t *testing.T) {
	err := Wrap(CodeSignatureInvalid, stdErrors.New("hmac mismatch"), "verify payment")
	dump := Dump(err)
	if dump.Code != CodeSignatureInvalid {
		t.Fatalf("expected code in dump, got %s", dump.Code)
	}
	if len(dump.Chain) < 2 {
		t.Fatalf("expected chain with cause, got %v", dump.Chain)
	}
}
