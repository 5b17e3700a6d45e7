package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prayagtech/storefront/pkg/config"
	pkgerrors "github.com/prayagtech/storefront/pkg/errors"
	"github.com/prayagtech/storefront/pkg/logger"
)

// Sender delivers a text message to a phone number.
type Sender interface {
	Send(ctx context.Context, phone, message string) error
}

var errLoggerRequired = errors.New("sms logger is required")

// New returns an HTTP sender when a provider URL is configured, otherwise a
// log-only sender so dev environments work without a provider account.
func New(cfg config.SMSConfig, logg *logger.Logger) (Sender, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	if strings.TrimSpace(cfg.ProviderURL) == "" {
		return &logSender{logger: logg}, nil
	}
	return &httpSender{
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		providerURL: cfg.ProviderURL,
		apiKey:      cfg.APIKey,
		senderID:    cfg.SenderID,
		logger:      logg,
	}, nil
}

type httpSender struct {
	httpClient  *http.Client
	providerURL string
	apiKey      string
	senderID    string
	logger      *logger.Logger
}

func (s *httpSender) Send(ctx context.Context, phone, message string) error {
	if strings.TrimSpace(phone) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "phone is required")
	}

	body, err := json.Marshal(map[string]string{
		"to":      phone,
		"from":    s.senderID,
		"message": message,
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "sms request encode failed")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.providerURL, bytes.NewReader(body))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "sms request build failed")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sms request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("sms provider returned %d", resp.StatusCode))
	}

	ctx = s.logger.WithFields(ctx, map[string]any{"to": maskPhone(phone)})
	s.logger.Info(ctx, "sms sent")
	return nil
}

// logSender writes the message to the log instead of a provider.
type logSender struct {
	logger *logger.Logger
}

func (s *logSender) Send(ctx context.Context, phone, message string) error {
	ctx = s.logger.WithFields(ctx, map[string]any{
		"to":      maskPhone(phone),
		"message": message,
	})
	s.logger.Info(ctx, "sms (log only)")
	return nil
}

func maskPhone(phone string) string {
	if len(phone) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(phone)-4) + phone[len(phone)-4:]
}
