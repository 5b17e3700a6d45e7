package phonepe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/prayagtech/storefront/pkg/config"
	pkgerrors "github.com/prayagtech/storefront/pkg/errors"
	"github.com/prayagtech/storefront/pkg/logger"
)

const (
	payPath         = "/checkout/v2/pay"
	statusPathFmt   = "/checkout/v2/order/%s/status"
	tokenPath       = "/v1/oauth/token"
	paymentFlowType = "PG_CHECKOUT"

	// Refresh this long before the advertised expiry so in-flight
	// requests never race the token boundary.
	tokenExpirySkew = 60 * time.Second
)

var (
	errClientIDRequired     = errors.New("phonepe client id is required")
	errClientSecretRequired = errors.New("phonepe client secret is required")
	errLoggerRequired       = errors.New("phonepe logger is required")
)

// OrderState values reported by the order status endpoint.
const (
	StateCompleted = "COMPLETED"
	StateFailed    = "FAILED"
	StatePending   = "PENDING"
)

// Client talks to the PhonePe standard checkout API. The OAuth token is
// cached in memory; concurrent refreshes collapse into a single upstream
// call via singleflight.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	authBaseURL  string
	clientID     string
	clientSecret string
	redirectURL  string
	logger       *logger.Logger

	mu          sync.Mutex
	cachedToken string
	tokenExpiry time.Time
	tokenGroup  singleflight.Group
}

// NewClient initializes the PhonePe wrapper and validates the credentials.
func NewClient(ctx context.Context, cfg config.PhonePeConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	clientID := strings.TrimSpace(cfg.ClientID)
	if clientID == "" {
		return nil, errClientIDRequired
	}
	clientSecret := strings.TrimSpace(cfg.ClientSecret)
	if clientSecret == "" {
		return nil, errClientSecretRequired
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	c := &Client{
		httpClient:   &http.Client{Timeout: timeout},
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		authBaseURL:  strings.TrimRight(cfg.AuthBaseURL, "/"),
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURL:  cfg.RedirectURL,
		logger:       logg,
	}

	logg.Info(ctx, "phonepe client initialized")
	return c, nil
}

// PayParams describes a hosted checkout session to open.
type PayParams struct {
	MerchantOrderID string
	AmountPaise     int64
	Message         string
}

// PayResult carries the redirect URL the customer is sent to.
type PayResult struct {
	GatewayOrderID string
	State          string
	RedirectURL    string
}

// OrderStatus is the authoritative payment state for a merchant order.
type OrderStatus struct {
	GatewayOrderID string
	State          string
	AmountPaise    int64
}

// Pay opens a hosted checkout session and returns the redirect URL.
func (c *Client) Pay(ctx context.Context, params PayParams) (*PayResult, error) {
	if strings.TrimSpace(params.MerchantOrderID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "merchant order id is required")
	}
	if params.AmountPaise <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}

	body := map[string]any{
		"merchantOrderId": params.MerchantOrderID,
		"amount":          params.AmountPaise,
		"paymentFlow": map[string]any{
			"type":    paymentFlowType,
			"message": params.Message,
			"merchantUrls": map[string]any{
				"redirectUrl": c.redirectURL,
			},
		},
	}

	c.log(ctx, "request", "pay", map[string]any{
		"merchant_order_id": params.MerchantOrderID,
		"amount":            params.AmountPaise,
	})

	var resp struct {
		OrderID     string `json:"orderId"`
		State       string `json:"state"`
		RedirectURL string `json:"redirectUrl"`
	}
	if err := c.doJSON(ctx, http.MethodPost, c.baseURL+payPath, body, &resp); err != nil {
		c.log(ctx, "error", "pay", map[string]any{"error": err.Error()})
		return nil, err
	}

	c.log(ctx, "response", "pay", map[string]any{
		"gateway_order_id": resp.OrderID,
		"state":            resp.State,
	})
	return &PayResult{
		GatewayOrderID: resp.OrderID,
		State:          resp.State,
		RedirectURL:    resp.RedirectURL,
	}, nil
}

// FetchOrderStatus polls PhonePe for the current state of a merchant order.
func (c *Client) FetchOrderStatus(ctx context.Context, merchantOrderID string) (*OrderStatus, error) {
	if strings.TrimSpace(merchantOrderID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "merchant order id is required")
	}

	c.log(ctx, "request", "order_status", map[string]any{"merchant_order_id": merchantOrderID})

	var resp struct {
		OrderID string `json:"orderId"`
		State   string `json:"state"`
		Amount  int64  `json:"amount"`
	}
	path := fmt.Sprintf(statusPathFmt, url.PathEscape(merchantOrderID))
	if err := c.doJSON(ctx, http.MethodGet, c.baseURL+path, nil, &resp); err != nil {
		c.log(ctx, "error", "order_status", map[string]any{"error": err.Error()})
		return nil, err
	}

	c.log(ctx, "response", "order_status", map[string]any{
		"gateway_order_id": resp.OrderID,
		"state":            resp.State,
	})
	return &OrderStatus{
		GatewayOrderID: resp.OrderID,
		State:          resp.State,
		AmountPaise:    resp.Amount,
	}, nil
}

// doJSON performs an authenticated request, retrying once with a fresh token
// on 401 in case the cached token was revoked upstream.
func (c *Client) doJSON(ctx context.Context, method, rawURL string, body any, out any) error {
	token, err := c.accessToken(ctx, false)
	if err != nil {
		return err
	}

	status, data, err := c.send(ctx, method, rawURL, body, token)
	if err != nil {
		return err
	}
	if status == http.StatusUnauthorized {
		token, err = c.accessToken(ctx, true)
		if err != nil {
			return err
		}
		status, data, err = c.send(ctx, method, rawURL, body, token)
		if err != nil {
			return err
		}
	}

	if status < 200 || status >= 300 {
		return c.mapStatusError(status, data)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "phonepe response decode failed")
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, rawURL string, body any, token string) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return 0, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "phonepe request encode failed")
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return 0, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "phonepe request build failed")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "O-Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "phonepe request failed")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "phonepe response read failed")
	}
	return resp.StatusCode, data, nil
}

// accessToken returns the cached token, refreshing through singleflight when
// it is missing, near expiry, or force is set.
func (c *Client) accessToken(ctx context.Context, force bool) (string, error) {
	if !force {
		c.mu.Lock()
		token, expiry := c.cachedToken, c.tokenExpiry
		c.mu.Unlock()
		if token != "" && time.Now().Before(expiry.Add(-tokenExpirySkew)) {
			return token, nil
		}
	}

	v, err, _ := c.tokenGroup.Do("token", func() (any, error) {
		return c.fetchToken(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (c *Client) fetchToken(ctx context.Context) (string, error) {
	form := url.Values{}
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)
	form.Set("client_version", "1")
	form.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.authBaseURL+tokenPath, strings.NewReader(form.Encode()))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "phonepe token request build failed")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "phonepe token request failed")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "phonepe token response read failed")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("phonepe token request returned %d", resp.StatusCode))
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		ExpiresAt   int64  `json:"expires_at"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "phonepe token decode failed")
	}
	if payload.AccessToken == "" {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "phonepe token response missing access_token")
	}

	expiry := time.Unix(payload.ExpiresAt, 0)
	if payload.ExpiresAt <= 0 {
		expiry = time.Now().Add(10 * time.Minute)
	}

	c.mu.Lock()
	c.cachedToken = payload.AccessToken
	c.tokenExpiry = expiry
	c.mu.Unlock()

	c.log(ctx, "response", "oauth_token", map[string]any{"expires_at": expiry.UTC().Format(time.RFC3339)})
	return payload.AccessToken, nil
}

func (c *Client) mapStatusError(status int, body []byte) error {
	msg := fmt.Sprintf("phonepe returned %d", status)
	var payload struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &payload) == nil && payload.Message != "" {
		msg = fmt.Sprintf("phonepe returned %d: %s", status, payload.Message)
	}
	switch {
	case status == http.StatusNotFound:
		return pkgerrors.New(pkgerrors.CodeNotFound, msg)
	case status == http.StatusUnauthorized:
		return pkgerrors.New(pkgerrors.CodeUnauthorized, msg)
	case status == http.StatusTooManyRequests:
		return pkgerrors.New(pkgerrors.CodeRateLimit, msg)
	case status >= 400 && status < 500:
		return pkgerrors.New(pkgerrors.CodeValidation, msg)
	default:
		return pkgerrors.New(pkgerrors.CodeDependency, msg)
	}
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
		logFields[k] = v
	}
	ctx = c.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		c.logger.Error(ctx, fmt.Sprintf("phonepe %s", op), errors.New(fmt.Sprint(fields["error"])))
	default:
		c.logger.Info(ctx, fmt.Sprintf("phonepe %s", phase))
	}
}
