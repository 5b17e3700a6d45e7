package responses

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	pkgerrors "github.com/prayagtech/storefront/pkg/errors"
	"github.com/prayagtech/storefront/pkg/logger"
	"github.com/prayagtech/storefront/pkg/types"
)

func TestWriteErrorMapsTypedCodes(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "test"})
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", pkgerrors.New(pkgerrors.CodeNotFound, "order not found"), 404, "NOT_FOUND"},
		{"signature", pkgerrors.New(pkgerrors.CodeSignatureInvalid, "payment signature verification failed"), 400, "SIGNATURE_INVALID"},
		{"disabled", pkgerrors.New(pkgerrors.CodeGatewayDisabled, "cod payments are disabled"), 403, "GATEWAY_DISABLED"},
		{"rate limit", pkgerrors.New(pkgerrors.CodeRateLimit, "too many requests"), 429, "RATE_LIMIT_EXCEEDED"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteError(context.Background(), logg, rec, tc.err)
			if rec.Code != tc.wantStatus {
				t.Fatalf("status: got %d, want %d", rec.Code, tc.wantStatus)
			}
			var envelope types.ErrorEnvelope
			if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if envelope.Error.Code != tc.wantCode {
				t.Fatalf("code: got %s, want %s", envelope.Error.Code, tc.wantCode)
			}
		})
	}
}

func TestWriteErrorHidesUntypedDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(context.Background(), nil, rec, context.DeadlineExceeded)
	if rec.Code != 500 {
		t.Fatalf("status: %d", rec.Code)
	}
	var envelope types.ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Error.Code != "INTERNAL_ERROR" {
		t.Fatalf("code: %s", envelope.Error.Code)
	}
	if envelope.Error.Message != "internal server error" {
		t.Fatalf("message leaked: %s", envelope.Error.Message)
	}
}

func TestWriteSuccessEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteSuccess(rec, map[string]string{"status": "ok"})
	if rec.Code != 200 {
		t.Fatalf("status: %d", rec.Code)
	}
	var envelope struct {
		Data map[string]string `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Data["status"] != "ok" {
		t.Fatalf("data: %v", envelope.Data)
	}
}
