package checkout

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/prayagtech/storefront/internal/cart"
	"github.com/prayagtech/storefront/internal/gateway"
	"github.com/prayagtech/storefront/pkg/db/models"
	"github.com/prayagtech/storefront/pkg/enums"
	"github.com/prayagtech/storefront/pkg/logger"
)

// Service places orders through the configured payment gateways.
type Service interface {
	Place(ctx context.Context, userID *uuid.UUID, method enums.PaymentMethod, req Request) (*PlaceResult, error)
}

// PlaceResult is the checkout response. Order is set when the method
// persisted a row at initiate time (COD, PhonePe); Razorpay returns only the
// remote handle and the client completes payment before any row exists.
type PlaceResult struct {
	Order          *models.Order       `json:"order,omitempty"`
	PaymentMethod  enums.PaymentMethod `json:"payment_method"`
	TransactionID  string              `json:"transaction_id,omitempty"`
	GatewayOrderID string              `json:"gateway_order_id,omitempty"`
	RedirectURL    string              `json:"redirect_url,omitempty"`
	ClientKeyID    string              `json:"client_key_id,omitempty"`
}

// Params collects the service dependencies.
type Params struct {
	Assembler *Assembler
	Registry  *gateway.Registry
	Carts     cart.Service
	Logger    *logger.Logger
}

type service struct {
	assembler *Assembler
	registry  *gateway.Registry
	carts     cart.Service
	logger    *logger.Logger
}

// NewService builds the checkout service.
func NewService(p Params) (Service, error) {
	if p.Assembler == nil {
		return nil, fmt.Errorf("assembler required")
	}
	if p.Registry == nil {
		return nil, fmt.Errorf("gateway registry required")
	}
	if p.Carts == nil {
		return nil, fmt.Errorf("cart service required")
	}
	if p.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		assembler: p.Assembler,
		registry:  p.Registry,
		carts:     p.Carts,
		logger:    p.Logger,
	}, nil
}

func (s *service) Place(ctx context.Context, userID *uuid.UUID, method enums.PaymentMethod, req Request) (*PlaceResult, error) {
	gw, err := s.registry.Resolve(ctx, method)
	if err != nil {
		return nil, err
	}

	draft, err := s.assembler.Assemble(ctx, userID, req)
	if err != nil {
		return nil, err
	}
	draft.PaymentMethod = method

	ctx = s.logger.WithTransactionID(ctx, draft.TransactionID)
	result, err := gw.Initiate(ctx, draft)
	if err != nil {
		return nil, err
	}
	s.logger.Info(ctx, fmt.Sprintf("checkout initiated via %s", method))

	// The cart is a convenience copy of the order contents; a failure to
	// clear it must not fail a placed order.
	if userID != nil {
		if err := s.carts.Clear(ctx, *userID); err != nil {
			s.logger.Warn(ctx, fmt.Sprintf("cart clear failed after checkout: %v", err))
		}
	}

	return &PlaceResult{
		Order:          result.Order,
		PaymentMethod:  method,
		TransactionID:  draft.TransactionID,
		GatewayOrderID: result.GatewayOrderID,
		RedirectURL:    result.RedirectURL,
		ClientKeyID:    result.ClientKeyID,
	}, nil
}
