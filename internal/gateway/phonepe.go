package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/prayagtech/storefront/pkg/db/models"
	"github.com/prayagtech/storefront/pkg/enums"
	pkgerrors "github.com/prayagtech/storefront/pkg/errors"
	"github.com/prayagtech/storefront/pkg/phonepe"
)

// phonepeClient is the subset of the PhonePe wrapper this adapter needs.
type phonepeClient interface {
	Pay(ctx context.Context, params phonepe.PayParams) (*phonepe.PayResult, error)
	FetchOrderStatus(ctx context.Context, merchantOrderID string) (*phonepe.OrderStatus, error)
}

// PhonePeGateway opens a hosted PhonePe checkout session. The order is
// persisted as pending before the user is sent off-site so the local
// transaction id survives the redirect; abandoned rows are reclaimed by the
// stale-order sweep.
type PhonePeGateway struct {
	client phonepeClient
	orders orderStore
	now    func() time.Time
}

// NewPhonePeGateway builds the PhonePe adapter.
func NewPhonePeGateway(client phonepeClient, orders orderStore) (*PhonePeGateway, error) {
	if client == nil {
		return nil, fmt.Errorf("phonepe client required")
	}
	if orders == nil {
		return nil, fmt.Errorf("order store required")
	}
	return &PhonePeGateway{client: client, orders: orders, now: time.Now}, nil
}

func (g *PhonePeGateway) Method() enums.PaymentMethod {
	return enums.PaymentMethodPhonePe
}

func (g *PhonePeGateway) Initiate(ctx context.Context, draft *models.Order) (*InitiateResult, error) {
	draft.PaymentStatus = enums.PaymentStatusPending
	draft.DeliveryStatus = enums.DeliveryStatusOrderPlaced

	order, err := g.orders.Create(ctx, draft)
	if err != nil {
		return nil, err
	}

	result, err := g.client.Pay(ctx, phonepe.PayParams{
		MerchantOrderID: order.TransactionID,
		AmountPaise:     order.TotalPaise,
		Message:         fmt.Sprintf("Order %s", order.ID),
	})
	if err != nil {
		return nil, err
	}
	if result.RedirectURL == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "payment gateway returned no redirect url")
	}

	if result.GatewayOrderID != "" {
		if err := g.orders.SetGatewayOrderID(ctx, order.ID, result.GatewayOrderID); err != nil {
			return nil, err
		}
		order.GatewayOrderID = &result.GatewayOrderID
	}

	return &InitiateResult{
		Order:          order,
		GatewayOrderID: result.GatewayOrderID,
		RedirectURL:    result.RedirectURL,
	}, nil
}

// Verify polls the gateway for the order's terminal state and applies it
// locally. Already-settled orders short-circuit, which makes duplicate
// webhook deliveries and repeated status polls no-ops.
func (g *PhonePeGateway) Verify(ctx context.Context, input VerifyInput) (*VerifyResult, error) {
	if input.TransactionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction id is required")
	}

	order, err := g.orders.FindByTransactionID(ctx, input.TransactionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, err
	}
	if order.PaymentStatus != enums.PaymentStatusPending {
		return &VerifyResult{Order: order, Status: order.PaymentStatus}, nil
	}

	status, err := g.client.FetchOrderStatus(ctx, input.TransactionID)
	if err != nil {
		return nil, err
	}
	return g.applyState(ctx, order, status.State)
}

// ApplyState settles a pending order from a state already reported by the
// gateway, as delivered in webhook payloads. No remote call is made.
func (g *PhonePeGateway) ApplyState(ctx context.Context, transactionID, state string) (*VerifyResult, error) {
	order, err := g.orders.FindByTransactionID(ctx, transactionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, err
	}
	if order.PaymentStatus != enums.PaymentStatusPending {
		return &VerifyResult{Order: order, Status: order.PaymentStatus}, nil
	}
	return g.applyState(ctx, order, state)
}

func (g *PhonePeGateway) applyState(ctx context.Context, order *models.Order, state string) (*VerifyResult, error) {
	switch state {
	case phonepe.StateCompleted:
		paidAt := g.now().UTC()
		transitioned, err := g.orders.MarkPaidIfPending(ctx, order.TransactionID, paidAt)
		if err != nil {
			return nil, err
		}
		order.PaymentStatus = enums.PaymentStatusPaid
		order.PaidAt = &paidAt
		return &VerifyResult{Order: order, Status: enums.PaymentStatusPaid, NewlyPaid: transitioned}, nil
	case phonepe.StateFailed:
		if _, err := g.orders.MarkFailedIfPending(ctx, order.TransactionID); err != nil {
			return nil, err
		}
		order.PaymentStatus = enums.PaymentStatusFailed
		return &VerifyResult{Order: order, Status: enums.PaymentStatusFailed}, nil
	default:
		return &VerifyResult{Order: order, Status: enums.PaymentStatusPending}, nil
	}
}
