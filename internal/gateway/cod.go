package gateway

import (
	"context"
	"fmt"

	"github.com/prayagtech/storefront/pkg/db/models"
	"github.com/prayagtech/storefront/pkg/enums"
	pkgerrors "github.com/prayagtech/storefront/pkg/errors"
)

// CODGateway records the order immediately with no external call. The order
// is accepted but unpaid; settlement happens on delivery, outside this
// system.
type CODGateway struct {
	orders orderStore
}

// NewCODGateway builds the cash-on-delivery adapter.
func NewCODGateway(orders orderStore) (*CODGateway, error) {
	if orders == nil {
		return nil, fmt.Errorf("order store required")
	}
	return &CODGateway{orders: orders}, nil
}

func (g *CODGateway) Method() enums.PaymentMethod {
	return enums.PaymentMethodCOD
}

func (g *CODGateway) Initiate(ctx context.Context, draft *models.Order) (*InitiateResult, error) {
	draft.PaymentStatus = enums.PaymentStatusCODAccepted
	draft.DeliveryStatus = enums.DeliveryStatusOrderPlaced

	order, err := g.orders.Create(ctx, draft)
	if err != nil {
		return nil, err
	}
	return &InitiateResult{Order: order}, nil
}

func (g *CODGateway) Verify(ctx context.Context, input VerifyInput) (*VerifyResult, error) {
	return nil, pkgerrors.New(pkgerrors.CodeValidation, "cash on delivery has no verification step")
}
