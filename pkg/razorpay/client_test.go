package razorpay

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/prayagtech/storefront/pkg/config"
	"github.com/prayagtech/storefront/pkg/logger"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test"})
	c, err := NewClient(context.Background(), config.RazorpayConfig{
		KeyID:     "rzp_test_key",
		KeySecret: "super-secret",
	}, logg)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestNewClientValidatesCredentials(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "test"})

	if _, err := NewClient(context.Background(), config.RazorpayConfig{KeySecret: "s"}, logg); err == nil {
		t.Fatal("expected error for missing key id")
	}
	if _, err := NewClient(context.Background(), config.RazorpayConfig{KeyID: "k"}, logg); err == nil {
		t.Fatal("expected error for missing key secret")
	}
	if _, err := NewClient(context.Background(), config.RazorpayConfig{KeyID: "k", KeySecret: "s"}, nil); err == nil {
		t.Fatal("expected error for nil logger")
	}
}

func TestVerifySignature(t *testing.T) {
	c := newTestClient(t)

	mac := hmac.New(sha256.New, []byte("super-secret"))
	mac.Write([]byte("order_abc|pay_xyz"))
	valid := hex.EncodeToString(mac.Sum(nil))

	if !c.VerifySignature("order_abc", "pay_xyz", valid) {
		t.Fatal("expected valid signature to verify")
	}
	if c.VerifySignature("order_abc", "pay_xyz", valid[:len(valid)-1]+"0") {
		t.Fatal("expected tampered signature to fail")
	}
	if c.VerifySignature("order_other", "pay_xyz", valid) {
		t.Fatal("expected signature for different order to fail")
	}
	if c.VerifySignature("", "pay_xyz", valid) {
		t.Fatal("expected empty order id to fail")
	}
}

func TestInt64FieldToleratesJSONNumbers(t *testing.T) {
	m := map[string]interface{}{"a": float64(23300), "b": int64(5), "c": "nope"}
	if got := int64Field(m, "a"); got != 23300 {
		t.Fatalf("float64: got %d", got)
	}
	if got := int64Field(m, "b"); got != 5 {
		t.Fatalf("int64: got %d", got)
	}
	if got := int64Field(m, "c"); got != 0 {
		t.Fatalf("string: got %d", got)
	}
	if got := int64Field(m, "missing"); got != 0 {
		t.Fatalf("missing: got %d", got)
	}
}
