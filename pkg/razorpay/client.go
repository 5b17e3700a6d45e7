package razorpay

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	rzpsdk "github.com/razorpay/razorpay-go"
	rzperrors "github.com/razorpay/razorpay-go/errors"

	"github.com/prayagtech/storefront/pkg/config"
	pkgerrors "github.com/prayagtech/storefront/pkg/errors"
	"github.com/prayagtech/storefront/pkg/logger"
)

var (
	errKeyIDRequired     = errors.New("razorpay key id is required")
	errKeySecretRequired = errors.New("razorpay key secret is required")
	errLoggerRequired    = errors.New("razorpay logger is required")
)

// Client exposes Razorpay primitives with centralized auth, logging, and error mapping.
type Client struct {
	sdk       *rzpsdk.Client
	keyID     string
	keySecret string
	logger    *logger.Logger
}

// NewClient initializes the Razorpay wrapper and validates the credentials.
func NewClient(ctx context.Context, cfg config.RazorpayConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}

	keyID := strings.TrimSpace(cfg.KeyID)
	if keyID == "" {
		return nil, errKeyIDRequired
	}

	keySecret := strings.TrimSpace(cfg.KeySecret)
	if keySecret == "" {
		return nil, errKeySecretRequired
	}

	c := &Client{
		sdk:       rzpsdk.NewClient(keyID, keySecret),
		keyID:     keyID,
		keySecret: keySecret,
		logger:    logg,
	}

	logg.Info(ctx, "razorpay client initialized")
	return c, nil
}

// KeyID returns the publishable key the frontend needs to open checkout.
func (c *Client) KeyID() string {
	if c == nil {
		return ""
	}
	return c.keyID
}

// OrderCreateParams describes a gateway order to register before checkout opens.
type OrderCreateParams struct {
	AmountPaise int64
	Currency    string
	Receipt     string
}

// GatewayOrder is the subset of the Razorpay order payload the checkout flow uses.
type GatewayOrder struct {
	ID          string
	AmountPaise int64
	Currency    string
	Status      string
}

// PaymentDetails is the subset of a fetched payment used for reconciliation.
type PaymentDetails struct {
	ID          string
	OrderID     string
	Status      string
	AmountPaise int64
}

// CreateOrder registers an order with Razorpay so the hosted checkout can collect it.
func (c *Client) CreateOrder(ctx context.Context, params OrderCreateParams) (*GatewayOrder, error) {
	currency := params.Currency
	if currency == "" {
		currency = "INR"
	}
	data := map[string]interface{}{
		"amount":   params.AmountPaise,
		"currency": currency,
		"receipt":  params.Receipt,
	}
	c.log(ctx, "request", "create_order", map[string]any{
		"amount":   params.AmountPaise,
		"currency": currency,
		"receipt":  params.Receipt,
	})

	resp, err := c.sdk.Order.Create(data, nil)
	if err != nil {
		c.log(ctx, "error", "create_order", map[string]any{"error": err.Error()})
		return nil, c.mapRazorpayError(err, "create order")
	}

	order := &GatewayOrder{
		ID:          stringField(resp, "id"),
		AmountPaise: int64Field(resp, "amount"),
		Currency:    stringField(resp, "currency"),
		Status:      stringField(resp, "status"),
	}
	c.log(ctx, "response", "create_order", map[string]any{
		"gateway_order_id": order.ID,
		"status":           order.Status,
	})
	return order, nil
}

// FetchPayment retrieves the authoritative payment state from Razorpay.
func (c *Client) FetchPayment(ctx context.Context, paymentID string) (*PaymentDetails, error) {
	if strings.TrimSpace(paymentID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id is required")
	}
	c.log(ctx, "request", "fetch_payment", map[string]any{"payment_id": paymentID})

	resp, err := c.sdk.Payment.Fetch(paymentID, nil, nil)
	if err != nil {
		c.log(ctx, "error", "fetch_payment", map[string]any{"error": err.Error()})
		return nil, c.mapRazorpayError(err, "fetch payment")
	}

	payment := &PaymentDetails{
		ID:          stringField(resp, "id"),
		OrderID:     stringField(resp, "order_id"),
		Status:      stringField(resp, "status"),
		AmountPaise: int64Field(resp, "amount"),
	}
	c.log(ctx, "response", "fetch_payment", map[string]any{
		"payment_id": payment.ID,
		"status":     payment.Status,
	})
	return payment, nil
}

// VerifySignature checks the checkout callback signature: HMAC-SHA256 over
// "<gateway_order_id>|<payment_id>" keyed with the secret, hex encoded.
func (c *Client) VerifySignature(gatewayOrderID, paymentID, signature string) bool {
	if c == nil || gatewayOrderID == "" || paymentID == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(c.keySecret))
	mac.Write([]byte(gatewayOrderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

func (c *Client) log(ctx context.Context, phase, op string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logFields := map[string]any{
		"operation": op,
		"phase":     phase,
	}
	for k, v := range fields {
		logFields[k] = c.redact(k, v)
	}
	ctx = c.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		c.logger.Error(ctx, fmt.Sprintf("razorpay %s", op), errors.New(fmt.Sprint(fields["error"])))
	default:
		c.logger.Info(ctx, fmt.Sprintf("razorpay %s", phase))
	}
}

func (c *Client) redact(key string, value any) any {
	lower := strings.ToLower(key)
	for _, sensitive := range []string{"card", "token", "secret", "signature", "email", "phone", "vpa"} {
		if strings.Contains(lower, sensitive) {
			return "[REDACTED]"
		}
	}
	return value
}

func (c *Client) mapRazorpayError(err error, op string) error {
	if err == nil {
		return nil
	}
	var badReq *rzperrors.BadRequestError
	if errors.As(err, &badReq) {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, fmt.Sprintf("razorpay %s failed", op))
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("razorpay %s failed", op))
}

func stringField(m map[string]interface{}, key string) string {
	v, ok := m[key].(string)
	if !ok {
		return ""
	}
	return v
}

// int64Field tolerates the json float64 decoding the SDK hands back.
func int64Field(m map[string]interface{}, key string) int64 {
	switch v := m[key].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	default:
		return 0
	}
}
