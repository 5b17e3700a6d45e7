package reconcile

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/prayagtech/storefront/internal/checkout"
	"github.com/prayagtech/storefront/internal/gateway"
	"github.com/prayagtech/storefront/internal/invoices"
	"github.com/prayagtech/storefront/pkg/db/models"
	"github.com/prayagtech/storefront/pkg/enums"
	pkgerrors "github.com/prayagtech/storefront/pkg/errors"
	"github.com/prayagtech/storefront/pkg/logger"
)

// stateApplier settles a pending order from a gateway-reported state without
// another remote call; the PhonePe adapter implements it for webhooks.
type stateApplier interface {
	ApplyState(ctx context.Context, transactionID, state string) (*gateway.VerifyResult, error)
}

// OrderAssembler rebuilds a priced order draft from a checkout payload;
// checkout.Assembler is the production implementation.
type OrderAssembler interface {
	Assemble(ctx context.Context, userID *uuid.UUID, req checkout.Request) (*models.Order, error)
}

// RazorpayVerifyInput is the client-side verification callback: the original
// checkout payload plus the triple Razorpay hands back after payment. The
// payload is re-validated and re-priced from scratch; client-echoed totals
// are never trusted.
type RazorpayVerifyInput struct {
	checkout.Request
	GatewayOrderID string `json:"razorpay_order_id" validate:"required"`
	PaymentID      string `json:"razorpay_payment_id" validate:"required"`
	Signature      string `json:"razorpay_signature" validate:"required"`
}

// StatusResult reports where a transaction landed.
type StatusResult struct {
	TransactionID string              `json:"transaction_id"`
	PaymentStatus enums.PaymentStatus `json:"payment_status"`
	Order         *models.Order       `json:"order,omitempty"`
}

// Service is the single authority for settling payments. Every entry path
// funnels through the method's gateway adapter and, on a fresh paid
// transition, issues the invoice.
type Service interface {
	VerifyRazorpay(ctx context.Context, userID *uuid.UUID, input RazorpayVerifyInput) (*StatusResult, error)
	PhonePeStatus(ctx context.Context, transactionID string) (*StatusResult, error)
	HandlePhonePeWebhook(ctx context.Context, body []byte) (*StatusResult, error)
}

// Params collects the service dependencies.
type Params struct {
	Registry  *gateway.Registry
	Assembler OrderAssembler
	Invoices  invoices.Service
	Logger    *logger.Logger
}

type service struct {
	registry  *gateway.Registry
	assembler OrderAssembler
	invoices  invoices.Service
	logger    *logger.Logger
}

// NewService builds the reconciliation service.
func NewService(p Params) (Service, error) {
	if p.Registry == nil {
		return nil, fmt.Errorf("gateway registry required")
	}
	if p.Assembler == nil {
		return nil, fmt.Errorf("assembler required")
	}
	if p.Invoices == nil {
		return nil, fmt.Errorf("invoices service required")
	}
	if p.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		registry:  p.Registry,
		assembler: p.Assembler,
		invoices:  p.Invoices,
		logger:    p.Logger,
	}, nil
}

func (s *service) VerifyRazorpay(ctx context.Context, userID *uuid.UUID, input RazorpayVerifyInput) (*StatusResult, error) {
	gw, err := s.registry.Resolve(ctx, enums.PaymentMethodRazorpay)
	if err != nil {
		return nil, err
	}

	draft, err := s.assembler.Assemble(ctx, userID, input.Request)
	if err != nil {
		return nil, err
	}

	result, err := gw.Verify(ctx, gateway.VerifyInput{
		Draft:          draft,
		GatewayOrderID: input.GatewayOrderID,
		PaymentID:      input.PaymentID,
		Signature:      input.Signature,
	})
	if err != nil {
		return nil, err
	}
	return s.settle(ctx, result)
}

func (s *service) PhonePeStatus(ctx context.Context, transactionID string) (*StatusResult, error) {
	gw, err := s.registry.Resolve(ctx, enums.PaymentMethodPhonePe)
	if err != nil {
		return nil, err
	}

	result, err := gw.Verify(ctx, gateway.VerifyInput{TransactionID: transactionID})
	if err != nil {
		return nil, err
	}
	return s.settle(ctx, result)
}

// webhookEnvelope is the decoded PhonePe callback body.
type webhookEnvelope struct {
	Event   string `json:"event"`
	Payload struct {
		MerchantOrderID string `json:"merchantOrderId"`
		State           string `json:"state"`
	} `json:"payload"`
}

// HandlePhonePeWebhook settles an order from a gateway push. The payload is
// a base64-encoded JSON envelope. Undecodable bodies fail with
// VALIDATION_ERROR; anything after that is an internal condition the caller
// reports as accepted, since the gateway retries on non-200 responses.
func (s *service) HandlePhonePeWebhook(ctx context.Context, body []byte) (*StatusResult, error) {
	decoded, err := base64.StdEncoding.DecodeString(string(body))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "webhook payload is not valid base64")
	}
	var envelope webhookEnvelope
	if err := json.Unmarshal(decoded, &envelope); err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "webhook payload is not valid json")
	}
	if envelope.Payload.MerchantOrderID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "webhook payload has no merchant order id")
	}

	gw, err := s.registry.Resolve(ctx, enums.PaymentMethodPhonePe)
	if err != nil {
		return nil, err
	}
	applier, ok := gw.(stateApplier)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "phonepe adapter cannot apply webhook states")
	}

	ctx = s.logger.WithTransactionID(ctx, envelope.Payload.MerchantOrderID)
	result, err := applier.ApplyState(ctx, envelope.Payload.MerchantOrderID, envelope.Payload.State)
	if err != nil {
		return nil, err
	}
	return s.settle(ctx, result)
}

// settle translates a gateway verdict into the response shape and fires the
// paid side effects exactly once.
func (s *service) settle(ctx context.Context, result *gateway.VerifyResult) (*StatusResult, error) {
	if result == nil || result.Order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "gateway returned no order")
	}

	ctx = s.logger.WithTransactionID(s.logger.WithOrderID(ctx, result.Order.ID.String()), result.Order.TransactionID)
	if result.NewlyPaid {
		s.logger.Info(ctx, "payment settled")
		if _, err := s.invoices.EnsureForOrder(ctx, result.Order.ID); err != nil {
			// The paid transition already committed; surfacing the error
			// would make the gateway retry a settled payment.
			s.logger.Error(ctx, "invoice issue failed", err)
		}
	}

	return &StatusResult{
		TransactionID: result.Order.TransactionID,
		PaymentStatus: result.Status,
		Order:         result.Order,
	}, nil
}
